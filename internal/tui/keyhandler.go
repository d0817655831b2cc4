package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/config"
	"github.com/Faffo96/news-exercise-front/internal/search"
)

const maxSearchQuery = 256

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := ""
	if cfg.Keys.Modifier != "" {
		modifierKey = cfg.Keys.Modifier + "+"
	}
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

// binding returns the key string of an action bound under the modifier.
func (kh *KeyHandler) binding(key string) string {
	return kh.modifierKey + key
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if kh.app.view == ViewNews && kh.app.newsList.SettingFilter() {
		return kh.delegateToCharm(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewForm:
		return kh.app.form != nil
	case ViewSearch:
		return kh.app.searchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.app, tea.Quit
	}

	if kh.app.view == ViewForm {
		return kh.handleFormKey(msg)
	}
	return kh.handleSearchInputKey(msg)
}

func (kh *KeyHandler) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := kh.app.form
	mains := kh.app.store.MainCategories()
	subs := kh.app.store.Subcategories()

	switch msg.String() {
	case "tab":
		f.next()
		return kh.app, nil
	case "shift+tab":
		f.prev()
		return kh.app, nil
	case "enter":
		switch {
		case f.focus == fieldSubmit:
			return kh.app, kh.app.submitForm()
		case f.focus == fieldBody:
			return kh.app, f.update(msg)
		case f.typing():
			f.next()
			return kh.app, nil
		}
	}

	if f.typing() {
		return kh.app, f.update(msg)
	}

	switch msg.String() {
	case "left", "up", "h", "k":
		f.movePicker(-1, mains, subs)
	case "right", "down", "l", "j":
		f.movePicker(1, mains, subs)
	case " ", "space", "enter":
		if err := f.togglePicker(mains, subs); err != nil {
			kh.app.setStatus(err.Error(), StatusWarn)
			return kh.app, kh.app.expireNotice()
		}
	}
	return kh.app, nil
}

func (kh *KeyHandler) handleSearchInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if items := kh.app.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
		}
		return kh.app, nil
	case "tab", "down":
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
		}
		return kh.app, nil
	}

	prev := kh.app.pendingSearchQuery
	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	query := sanitizeSearchInput(kh.app.searchInput.Value())
	if query == prev {
		return kh.app, cmd
	}
	kh.app.pendingSearchQuery = query
	if utf8.RuneCountInString(query) < minSearchChars {
		kh.app.searchList.SetItems([]list.Item{})
		return kh.app, cmd
	}
	return kh.app, tea.Batch(cmd, kh.app.debounceSearch())
}

// handleCustomKeys handles only our own action keys.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	b := kh.config.Keys.Bindings

	switch key {
	case "ctrl+c", b.Quit:
		return kh.app, tea.Quit, true
	case b.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case b.Help:
		if kh.app.view != ViewHelp {
			kh.app.previousView = kh.app.view
			kh.app.view = ViewHelp
		} else {
			kh.app.view = kh.app.previousView
		}
		return kh.app, nil, true
	case kh.binding(b.Search):
		if kh.app.view != ViewDeleteConfirm {
			model, cmd := kh.enterSearchMode()
			return model, cmd, true
		}
	}

	switch kh.app.view {
	case ViewNews:
		return kh.handleNewsCustomKeys(key)
	case ViewReader:
		return kh.handleReaderCustomKeys(key)
	case ViewDeleteConfirm:
		return kh.handleDeleteConfirmKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleNewsCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	b := kh.config.Keys.Bindings

	switch key {
	case kh.binding(b.NewNews):
		kh.app.openForm(nil)
		return kh.app, nil, true
	case kh.binding(b.EditNews):
		if n, ok := kh.app.selectedNews(); ok {
			kh.app.openForm(&n)
		}
		return kh.app, nil, true
	case kh.binding(b.DeleteNews):
		if n, ok := kh.app.selectedNews(); ok {
			kh.askDelete(n.ID)
		}
		return kh.app, nil, true
	case kh.binding(b.Refresh):
		return kh.app, kh.app.refresh(), true
	case kh.binding(b.ToggleActive):
		return kh.app, kh.app.toggleActiveOnly(), true
	case kh.binding(b.CycleStatus):
		kh.app.cycleStatusFilter()
		return kh.app, nil, true
	case kh.binding(b.CycleMain):
		kh.app.cycleMainFilter()
		return kh.app, nil, true
	case kh.binding(b.CycleSub):
		kh.app.cycleSubFilter()
		return kh.app, nil, true
	case "enter":
		if n, ok := kh.app.selectedNews(); ok {
			kh.app.cameFromSearch = false
			return kh.app, kh.app.openReader(n), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleReaderCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	b := kh.config.Keys.Bindings
	if kh.app.current == nil {
		return kh.app, nil, false
	}

	switch key {
	case kh.binding(b.EditNews):
		n := *kh.app.current
		kh.app.openForm(&n)
		return kh.app, nil, true
	case kh.binding(b.DeleteNews):
		kh.askDelete(kh.app.current.ID)
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "enter", "y":
		return kh.app, kh.app.confirmDelete(), true
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}
	return kh.app, nil, true
}

func (kh *KeyHandler) askDelete(id catalog.ID) {
	n, ok := kh.app.store.NewsByID(id)
	if !ok {
		return
	}
	kh.app.toDelete = &n
	kh.app.previousView = kh.app.view
	kh.app.view = ViewDeleteConfirm
}

// delegateToCharm hands unclaimed keys to the focused bubbles component.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewNews:
		kh.app.newsList, cmd = kh.app.newsList.Update(msg)
		return kh.app, cmd

	case ViewSearch:
		switch msg.String() {
		case "tab", "shift+tab", "/", "i":
			kh.app.searchInput.Focus()
			return kh.app, nil
		case "up":
			if kh.app.searchList.Index() == 0 {
				kh.app.searchInput.Focus()
				return kh.app, nil
			}
		case "enter":
			if i, ok := kh.app.searchList.SelectedItem().(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
			return kh.app, nil
		}
		kh.app.searchList, cmd = kh.app.searchList.Update(msg)
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) selectSearchResult(item searchResultItem) (tea.Model, tea.Cmd) {
	if item.result == nil {
		return kh.app, nil
	}
	kh.app.cameFromSearch = true
	kh.app.searchInput.Blur()
	return kh.app, kh.app.openReader(item.result.News)
}

// navigateBack leaves the current view for the one that opened it.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewForm:
		kh.app.form = nil
		kh.app.view = kh.app.previousView
		if kh.app.view == ViewForm || kh.app.view == ViewDeleteConfirm {
			kh.app.view = ViewNews
		}
		return kh.app, nil

	case ViewDeleteConfirm:
		kh.app.toDelete = nil
		kh.app.view = kh.app.previousView
		return kh.app, nil

	case ViewSearch:
		kh.app.view = kh.app.previousView
		if kh.app.view == ViewSearch {
			kh.app.view = ViewNews
		}
		kh.app.searchInput.Reset()
		kh.app.pendingSearchQuery = ""
		kh.app.searchList.SetItems([]list.Item{})
		return kh.app, nil

	case ViewHelp:
		kh.app.view = kh.app.previousView
		return kh.app, nil

	case ViewReader:
		kh.app.current = nil
		if kh.app.cameFromSearch {
			kh.app.view = ViewSearch
			kh.app.cameFromSearch = false
			kh.app.searchInput.Blur()
			return kh.app, nil
		}
		kh.app.view = ViewNews
		return kh.app, nil

	default:
		if kh.app.view == ViewNews && kh.app.newsList.IsFiltered() {
			kh.app.newsList.ResetFilter()
			return kh.app, nil
		}
		return kh.app, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.view != ViewReader {
		kh.app.previousView = kh.app.view
	} else {
		kh.app.previousView = ViewNews
	}
	kh.app.view = ViewSearch
	kh.app.cameFromSearch = false
	kh.app.searchInput.Reset()
	kh.app.searchInput.Focus()
	kh.app.pendingSearchQuery = ""
	kh.app.searchList.SetItems([]list.Item{})

	engineName := strings.TrimPrefix(fmt.Sprintf("%T", kh.app.searcher), "*search.")
	if ds, ok := kh.app.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			kh.app.setStatus(fmt.Sprintf("Search: %s • idx: %d", engineName, n), StatusInfo)
			return kh.app, kh.app.expireNotice()
		}
	}
	kh.app.setStatus("Search: "+engineName, StatusInfo)
	return kh.app, kh.app.expireNotice()
}

// sanitizeSearchInput trims, collapses whitespace and caps the query length.
func sanitizeSearchInput(input string) string {
	input = singleLine(input)
	if utf8.RuneCountInString(input) > maxSearchQuery {
		input = string([]rune(input)[:maxSearchQuery])
	}
	return strings.TrimSpace(input)
}

// GetHelpForCurrentView lists the app keys of the current view. The list
// component renders its own navigation help.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.config.Keys.Bindings
	m := kh.binding

	switch kh.app.view {
	case ViewNews:
		help := []string{m(b.NewNews) + ": new", m(b.Refresh) + ": refresh", m(b.Search) + ": search"}
		if len(kh.app.visible) > 0 {
			help = append(help, m(b.EditNews)+": edit", m(b.DeleteNews)+": delete")
		}
		return append(help, b.Help+": keys")

	case ViewReader:
		return []string{m(b.EditNews) + ": edit", m(b.DeleteNews) + ": delete", m(b.Search) + ": search", b.Back + ": back"}

	case ViewForm:
		return []string{"tab: next field", "←→: choose", "space: toggle", "enter on button: save", "esc: cancel"}

	case ViewSearch:
		return []string{"enter: open", "esc: back"}

	case ViewDeleteConfirm:
		return []string{"enter: confirm", "esc: cancel"}

	case ViewHelp:
		return []string{b.Back + ": back"}

	default:
		return []string{}
	}
}

// helpLines lists every configured binding for the help view.
func (kh *KeyHandler) helpLines() []string {
	b := kh.config.Keys.Bindings
	m := kh.binding
	rows := [][2]string{
		{m(b.NewNews), "write a news item"},
		{m(b.EditNews), "edit the selected item"},
		{m(b.DeleteNews), "delete the selected item"},
		{m(b.Refresh), "reload news and categories"},
		{m(b.ToggleActive), "switch between all and active news"},
		{m(b.CycleStatus), "filter by status"},
		{m(b.CycleMain), "filter by main category"},
		{m(b.CycleSub), "filter by subcategory"},
		{m(b.Search), "search"},
		{"enter", "open"},
		{b.Back, "back"},
		{b.Help, "this help"},
		{b.Quit, "quit"},
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, FilterValueStyle.Render(fmt.Sprintf("%-*s", width, r[0]))+"  "+r[1])
	}
	return lines
}
