package tui

type View int

const (
	ViewNews View = iota
	ViewReader
	ViewForm
	ViewDeleteConfirm
	ViewSearch
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewNews:
		return "news"
	case ViewReader:
		return "reader"
	case ViewForm:
		return "form"
	case ViewDeleteConfirm:
		return "delete"
	case ViewSearch:
		return "search"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}
