// Package syncer issues requests against the news backend and reconciles
// their results into the catalog store.
//
// Every operation starts on the owner loop, where it marks the resource as
// loading and returns a Cmd. The Cmd performs the round trip on any goroutine
// and yields a Completion, which the owner loop hands back to Apply. Nothing
// serializes overlapping operations: completions are applied in the order
// they arrive, so the last one to resolve wins.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/newsapi"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

// API is the subset of the backend client the engine needs.
type API interface {
	ListNews(ctx context.Context, activeOnly bool) ([]catalog.News, error)
	CreateNews(ctx context.Context, n catalog.News) (catalog.News, error)
	UpdateNews(ctx context.Context, id catalog.ID, n catalog.News) (catalog.News, error)
	DeleteNews(ctx context.Context, id catalog.ID) error
	ListSubcategories(ctx context.Context, q newsapi.SubcategoryQuery) ([]catalog.Subcategory, error)
	ListMainCategories(ctx context.Context) ([]string, error)
}

type Options struct {
	ActiveOnly           bool
	SubcategorySort      string
	RefetchAfterMutation bool
	Notifier             Notifier
}

type Engine struct {
	api      API
	store    *store.Catalog
	opts     Options
	notifier Notifier
}

func New(api API, st *store.Catalog, opts Options) *Engine {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Engine{api: api, store: st, opts: opts, notifier: notifier}
}

func (e *Engine) Store() *store.Catalog {
	return e.store
}

func (e *Engine) ActiveOnly() bool {
	return e.opts.ActiveOnly
}

// SetNotifier replaces the notice receiver. Call it before any operation
// starts.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		n = LogNotifier{}
	}
	e.notifier = n
}

// SetActiveOnly switches the endpoint used by later fetches.
func (e *Engine) SetActiveOnly(v bool) {
	e.opts.ActiveOnly = v
}

// FetchAll loads the news collection.
func (e *Engine) FetchAll(ctx context.Context) Cmd {
	activeOnly := e.opts.ActiveOnly
	e.store.SetLoading(store.ResourceNews)
	return func() Completion {
		items, err := e.api.ListNews(ctx, activeOnly)
		return NewsFetched{ActiveOnly: activeOnly, Items: items, Err: err}
	}
}

func (e *Engine) FetchSubcategories(ctx context.Context) Cmd {
	q := newsapi.SubcategoryQuery{SortBy: e.opts.SubcategorySort}
	e.store.SetLoading(store.ResourceSubcategories)
	return func() Completion {
		items, err := e.api.ListSubcategories(ctx, q)
		return SubcategoriesFetched{Items: items, Err: err}
	}
}

func (e *Engine) FetchMainCategories(ctx context.Context) Cmd {
	e.store.SetLoading(store.ResourceMainCategories)
	return func() Completion {
		items, err := e.api.ListMainCategories(ctx)
		return MainCategoriesFetched{Items: items, Err: err}
	}
}

// Bootstrap returns the fetches needed to populate an empty store.
func (e *Engine) Bootstrap(ctx context.Context) []Cmd {
	return []Cmd{
		e.FetchAll(ctx),
		e.FetchSubcategories(ctx),
		e.FetchMainCategories(ctx),
	}
}

// Create submits a draft. The draft is copied at start so later edits to it
// do not change what is sent.
func (e *Engine) Create(ctx context.Context, d *catalog.Draft) Cmd {
	payload := d.News.Clone()
	e.store.SetLoading(store.ResourceNews)
	return func() Completion {
		item, err := e.api.CreateNews(ctx, payload)
		if err == nil && !item.Persisted() {
			err = fmt.Errorf("create news: %w", newsapi.ErrNoRecord)
		}
		return NewsCreated{Draft: d, Item: item, Err: err}
	}
}

func (e *Engine) Update(ctx context.Context, id catalog.ID, d *catalog.Draft) Cmd {
	payload := d.News.Clone()
	e.store.SetLoading(store.ResourceNews)
	return func() Completion {
		item, err := e.api.UpdateNews(ctx, id, payload)
		return NewsUpdated{ID: id, Draft: d, Item: item, Err: err}
	}
}

func (e *Engine) Delete(ctx context.Context, id catalog.ID) Cmd {
	e.store.SetLoading(store.ResourceNews)
	return func() Completion {
		return NewsDeleted{ID: id, Err: e.api.DeleteNews(ctx, id)}
	}
}

// followUp names the work a completion leaves behind.
type followUp int

const (
	noFollowUp followUp = iota
	refetchNews
)

// Apply reconciles a completion into the store. It returns a follow-up Cmd
// when a successful mutation triggers a refetch, nil otherwise.
func (e *Engine) Apply(c Completion) Cmd {
	return e.followUpCmd(e.apply(c))
}

func (e *Engine) followUpCmd(f followUp) Cmd {
	if f == refetchNews {
		return e.FetchAll(context.Background())
	}
	return nil
}

func (e *Engine) apply(c Completion) followUp {
	if c == nil {
		return noFollowUp
	}
	log := debuglog.WithFields(map[string]any{"resource": string(c.Resource()), "completion": fmt.Sprintf("%T", c)})

	switch c := c.(type) {
	case NewsFetched:
		if c.Err != nil {
			msg := newsapi.UserMessage(c.Err)
			log.Warnf("fetch failed: %v", c.Err)
			e.store.SetFailed(store.ResourceNews, msg)
			e.notifier.Notify(NoticeError, "Error fetching news: "+msg)
			return noFollowUp
		}
		e.store.ReplaceNews(c.Items)
		log.Debugf("fetched %d news", len(c.Items))

	case SubcategoriesFetched:
		if c.Err != nil {
			msg := newsapi.UserMessage(c.Err)
			log.Warnf("fetch failed: %v", c.Err)
			e.store.SetFailed(store.ResourceSubcategories, msg)
			e.notifier.Notify(NoticeError, "Error fetching subcategories: "+msg)
			return noFollowUp
		}
		e.store.ReplaceSubcategories(c.Items)

	case MainCategoriesFetched:
		if c.Err != nil {
			msg := newsapi.UserMessage(c.Err)
			log.Warnf("fetch failed: %v", c.Err)
			e.store.SetFailed(store.ResourceMainCategories, msg)
			e.notifier.Notify(NoticeError, "Error fetching main categories: "+msg)
			return noFollowUp
		}
		e.store.ReplaceMainCategories(c.Items)

	case NewsCreated:
		if c.Err != nil {
			e.failMutation(c.Draft, c.Err, "Failed to create news.", "Error creating news: ")
			return noFollowUp
		}
		e.store.AppendNews(c.Item)
		e.notifier.Notify(NoticeSuccess, "News created successfully.")
		log.Infof("created news %s", c.Item.ID)
		return e.refetch()

	case NewsUpdated:
		if c.Err != nil {
			e.failMutation(c.Draft, c.Err, "Failed to update news.", "Error updating news: ")
			return noFollowUp
		}
		e.notifier.Notify(NoticeSuccess, "News updated successfully.")
		if !c.Item.Persisted() {
			// The stored record is unknown until the collection is reloaded.
			log.Infof("update of %s answered without a record, refetching", c.ID)
			e.store.SetSucceeded(store.ResourceNews)
			return refetchNews
		}
		if !e.store.ReplaceNewsItem(c.Item) {
			log.Warnf("updated news %s is not in the local collection", c.Item.ID)
		}
		return e.refetch()

	case NewsDeleted:
		if c.Err != nil {
			e.failMutation(nil, c.Err, "Failed to delete news.", "Error deleting news: ")
			return noFollowUp
		}
		e.store.RemoveNews(c.ID)
		e.notifier.Notify(NoticeSuccess, "News deleted successfully.")

	default:
		log.Warnf("unknown completion")
	}
	return noFollowUp
}

func (e *Engine) failMutation(d *catalog.Draft, err error, unexpected, prefix string) {
	msg := newsapi.UserMessage(err)
	code := newsapi.StatusCode(err)
	if code >= http.StatusOK && code < http.StatusMultipleChoices || errors.Is(err, newsapi.ErrNoRecord) {
		msg = unexpected
	}
	debuglog.WithFields(map[string]any{"status": code}).WithErr(err).Warnf("mutation failed")

	if d != nil {
		if d.Errors == nil {
			d.Errors = catalog.FieldErrors{}
		}
		d.Errors.Set(catalog.FieldSubmit, msg)
	}
	e.store.SetFailed(store.ResourceNews, msg)
	e.notifier.Notify(NoticeError, prefix+msg)
}

func (e *Engine) refetch() followUp {
	if !e.opts.RefetchAfterMutation {
		return noFollowUp
	}
	return refetchNews
}

// Run resolves cmd on the calling goroutine, applies it and then any
// follow-ups. It returns the completion of cmd itself.
func (e *Engine) Run(cmd Cmd) Completion {
	if cmd == nil {
		return nil
	}
	first := cmd()
	next := e.Apply(first)
	for next != nil {
		next = e.Apply(next())
	}
	return first
}

// RunAll resolves cmds concurrently and applies their completions on the
// calling goroutine in arrival order. Follow-ups run once, after every cmd
// has been applied. Completions are returned in the order they were applied.
func (e *Engine) RunAll(cmds ...Cmd) []Completion {
	return e.RunLimited(-1, cmds...)
}

// RunLimited is RunAll with at most limit cmds in flight. A negative limit
// or zero limit means no limit.
func (e *Engine) RunLimited(limit int, cmds ...Cmd) []Completion {
	if limit == 0 {
		limit = -1
	}
	results := make(chan Completion, len(cmds))
	var g errgroup.Group
	g.SetLimit(limit)
	go func() {
		for _, cmd := range cmds {
			if cmd == nil {
				continue
			}
			g.Go(func() error {
				results <- cmd()
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var applied []Completion
	pending := noFollowUp
	for c := range results {
		applied = append(applied, c)
		if f := e.apply(c); f != noFollowUp {
			pending = f
		}
	}
	// Any number of refetch requests collapse into one.
	e.Run(e.followUpCmd(pending))
	return applied
}

// FirstFailure returns the first failure among completions.
func FirstFailure(completions ...Completion) error {
	for _, c := range completions {
		if c == nil {
			continue
		}
		if err := c.Failure(); err != nil {
			return err
		}
	}
	return nil
}
