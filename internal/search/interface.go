package search

import (
	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

// Result is one matching news item.
type Result struct {
	News    catalog.News
	Score   float64
	Matches []Match
}

// Match records which field matched and a snippet of it.
type Match struct {
	Field  string
	Text   string
	Weight float64
}

// Searcher defines the minimal search API used by the TUI and the CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Source supplies the documents to search. *store.Catalog satisfies it.
type Source interface {
	News() []catalog.News
	NewsByID(id catalog.ID) (catalog.News, bool)
}

// UpdateListener is implemented by engines that keep an index and need to
// hear about changed news.
type UpdateListener interface {
	OnNewsReplaced(news []catalog.News)
	OnNewsChanged(n catalog.News)
}

// DeleteListener is notified when a news item is removed.
type DeleteListener interface {
	OnNewsDeleted(id catalog.ID)
}

// DebugStatser reports index document counts.
type DebugStatser interface {
	DocCount() (int, error)
}

// Attach forwards news changes of c to s when s keeps an index. The
// returned function detaches it.
func Attach(c *store.Catalog, s Searcher) func() {
	updates, hasUpdates := s.(UpdateListener)
	deletes, hasDeletes := s.(DeleteListener)
	if !hasUpdates && !hasDeletes {
		return func() {}
	}

	return c.Subscribe(func(ch store.Change) {
		switch {
		case ch.Op == store.OpRestore, ch.Op == store.OpReplace && ch.Resource == store.ResourceNews:
			if hasUpdates {
				updates.OnNewsReplaced(c.News())
			}
		case ch.Resource != store.ResourceNews:
		case ch.Op == store.OpAppend, ch.Op == store.OpUpdate:
			if n, ok := c.NewsByID(ch.ID); ok && hasUpdates {
				updates.OnNewsChanged(n)
			}
		case ch.Op == store.OpRemove:
			if hasDeletes {
				deletes.OnNewsDeleted(ch.ID)
			}
		}
	})
}
