package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/filter"
	"github.com/Faffo96/news-exercise-front/internal/search"
	"github.com/Faffo96/news-exercise-front/internal/syncer"
)

const (
	noticeTTL      = 4 * time.Second
	searchLimit    = 20
	minSearchChars = 2
)

type completionMsg struct {
	c syncer.Completion
}

type newsRenderedMsg struct {
	id      catalog.ID
	content string
}

type searchResultsMsg struct {
	query   string
	results []*search.Result
}

type errorMsg struct {
	err error
}

type noticeExpiredMsg struct {
	seq int
}

type searchDebounceFireMsg struct {
	seq int
}

// sync runs a syncer command off the event loop and feeds its completion
// back to Update.
func (a *App) sync(cmd syncer.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		return completionMsg{c: cmd()}
	}
}

func (a *App) syncAll(cmds []syncer.Cmd) tea.Cmd {
	batch := make([]tea.Cmd, 0, len(cmds))
	for _, cmd := range cmds {
		batch = append(batch, a.sync(cmd))
	}
	return tea.Batch(batch...)
}

func (a *App) renderNews(n catalog.News) tea.Cmd {
	return func() tea.Msg {
		var content strings.Builder
		content.WriteString(fmt.Sprintf("# %s\n\n", n.Title))
		content.WriteString(fmt.Sprintf("*By %s*\n\n", n.Author))
		content.WriteString(fmt.Sprintf("**Released:** %s  \n", n.ReleaseDate))
		content.WriteString(fmt.Sprintf("**Archived:** %s  \n", n.ArchiveDate))
		if label := filter.Label(n); label != "" {
			content.WriteString(fmt.Sprintf("**Status:** %s  \n", label))
		}
		content.WriteString(fmt.Sprintf("**Main category:** %s\n\n", n.MainCategory))

		if len(n.OtherCategoriesList) > 0 {
			content.WriteString("**Other categories:** " + strings.Join(n.OtherCategoriesList, ", ") + "\n\n")
		}
		if len(n.SubcategoriesList) > 0 {
			content.WriteString("**Subcategories:**\n")
			for _, s := range n.SubcategoriesList {
				name := s.Subcategory
				if name == "" {
					name = fmt.Sprintf("#%d", s.ID)
				}
				content.WriteString(fmt.Sprintf("- %s\n", name))
			}
			content.WriteString("\n")
		}

		content.WriteString("---\n\n")
		content.WriteString(n.Body)

		r, err := a.getRenderer()
		if err != nil {
			return newsRenderedMsg{id: n.ID, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(content.String())
		if err != nil {
			return newsRenderedMsg{id: n.ID, content: fmt.Sprintf("# Error\n\nFailed to render news: %s\n\nPress Escape to go back.", err.Error())}
		}
		return newsRenderedMsg{id: n.ID, content: rendered}
	}
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	reader := a.config.UI.Reader
	wordWrapWidth := (a.width * 9) / 10
	if reader.WordWrapMaxWidth > 0 && wordWrapWidth > reader.WordWrapMaxWidth {
		wordWrapWidth = reader.WordWrapMaxWidth
	}
	if wordWrapWidth < reader.WordWrapMinWidth {
		wordWrapWidth = reader.WordWrapMinWidth
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	a.rendererMu.Lock()
	defer a.rendererMu.Unlock()
	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, wrapErr("creating renderer", err)
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) performSearch(query string) tea.Cmd {
	searcher := a.searcher
	return func() tea.Msg {
		results, err := searcher.Search(query, searchLimit)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return searchResultsMsg{query: query, results: results}
	}
}

func (a *App) expireNotice() tea.Cmd {
	seq := a.statusSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func (a *App) debounceSearch() tea.Cmd {
	a.searchSeq++
	seq := a.searchSeq
	wait := a.searchDebounce
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{seq: seq}
	})
}
