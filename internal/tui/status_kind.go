package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Faffo96/news-exercise-front/internal/syncer"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) Style() lipgloss.Style {
	switch k {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

func (k StatusKind) Icon() string {
	switch k {
	case StatusSuccess:
		return "✓"
	case StatusWarn:
		return "!"
	case StatusError:
		return "✗"
	default:
		return "›"
	}
}

func kindOf(n syncer.NoticeKind) StatusKind {
	if n == syncer.NoticeError {
		return StatusError
	}
	return StatusSuccess
}
