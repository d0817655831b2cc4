// Package mockbackend is an in-memory news backend for local development
// and tests. It serves the same REST routes the client consumes.
package mockbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/selection"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

var ErrUnknownSort = errors.New("unknown sortBy value")

type Options struct {
	// Token, when set, is required as a bearer token on mutations.
	Token string
	// Seed replaces the embedded seed.
	Seed *Seed
	// Delay holds a request for the returned duration before it is
	// handled. Used to make responses arrive out of order.
	Delay func(r *http.Request) time.Duration
	Now   func() time.Time
	// NewID assigns ids to created news. Defaults to random UUIDs.
	NewID func() string
	// Debug keeps gin's route and warning output.
	Debug bool
}

// Backend holds the news and taxonomy in memory.
type Backend struct {
	mu            sync.RWMutex
	news          []catalog.News
	subcategories []catalog.Subcategory
	opts          Options
	engine        *gin.Engine
}

func New(opts Options) (*Backend, error) {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	seed := opts.Seed
	if seed == nil {
		def, err := DefaultSeed()
		if err != nil {
			return nil, err
		}
		seed = &def
	}

	b := &Backend{
		subcategories: slices.Clone(seed.Subcategories),
		opts:          opts,
	}
	for _, n := range seed.News {
		n = n.Clone()
		if n.ID == "" {
			n.ID = catalog.ID(opts.NewID())
		}
		n.SubcategoriesList = b.resolveRefs(n.SubcategoriesList)
		b.news = append(b.news, n)
	}
	b.engine = b.routes()
	return b, nil
}

func (b *Backend) Handler() http.Handler {
	return b.engine
}

// Serve listens on addr until ctx is done.
func (b *Backend) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           b.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		debuglog.Infof("mock backend listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// News returns a copy of the stored news in insertion order.
func (b *Backend) News() []catalog.News {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]catalog.News, len(b.news))
	for i, n := range b.news {
		out[i] = n.Clone()
	}
	return out
}

func (b *Backend) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), b.delay())

	api := engine.Group("/api")
	api.GET("/news", b.onListNews(false))
	api.GET("/news/active", b.onListNews(true))
	api.GET("/subcategories", b.onListSubcategories())
	api.GET("/subcategories/mainCategories", b.onListMainCategories())

	editor := api.Group("/news", b.requireToken())
	editor.POST("", b.onCreateNews())
	editor.PUT("/:id", b.onUpdateNews())
	editor.DELETE("/:id", b.onDeleteNews())

	engine.NoRoute(func(ctx *gin.Context) {
		abortMessage(ctx, http.StatusNotFound, "Not found.")
	})
	return engine
}

func abortMessage(ctx *gin.Context, code int, message string) {
	ctx.AbortWithStatusJSON(code, gin.H{"message": message})
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		debuglog.WithFields(map[string]any{
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"status":     ctx.Writer.Status(),
			"request_id": ctx.GetHeader("X-Request-ID"),
			"elapsed":    time.Since(start).String(),
		}).Debugf("mock request")
	}
}

func (b *Backend) delay() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if b.opts.Delay == nil {
			return
		}
		d := b.opts.Delay(ctx.Request)
		if d <= 0 {
			return
		}
		select {
		case <-time.After(d):
		case <-ctx.Request.Context().Done():
			ctx.Abort()
		}
	}
}

func (b *Backend) requireToken() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if b.opts.Token == "" {
			return
		}
		if ctx.GetHeader("Authorization") != "Bearer "+b.opts.Token {
			abortMessage(ctx, http.StatusUnauthorized, "Unauthorized.")
		}
	}
}

func (b *Backend) onListNews(activeOnly bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		today := b.opts.Now().Format(time.DateOnly)

		b.mu.RLock()
		out := make([]catalog.News, 0, len(b.news))
		for _, n := range b.news {
			if activeOnly && !isActive(n, today) {
				continue
			}
			out = append(out, n.Clone())
		}
		b.mu.RUnlock()

		ctx.JSON(http.StatusOK, out)
	}
}

// isActive reports whether n is not archived yet. An item without an
// archive date never expires.
func isActive(n catalog.News, today string) bool {
	if n.ArchiveDate == "" {
		return true
	}
	archive := n.ArchiveDate
	if t, err := time.Parse(time.RFC3339, archive); err == nil {
		archive = t.Format(time.DateOnly)
	}
	return archive >= today
}

type subcategoryQuery struct {
	SortBy string `form:"sortBy"`
}

func (b *Backend) onListSubcategories() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var q subcategoryQuery
		if err := ctx.ShouldBindQuery(&q); err != nil {
			abortMessage(ctx, http.StatusBadRequest, err.Error())
			return
		}

		b.mu.RLock()
		subs := slices.Clone(b.subcategories)
		b.mu.RUnlock()

		if err := sortSubcategories(subs, q.SortBy); err != nil {
			abortMessage(ctx, http.StatusBadRequest, fmt.Sprintf("Invalid sortBy value %q.", q.SortBy))
			return
		}
		ctx.JSON(http.StatusOK, subs)
	}
}

func sortSubcategories(subs []catalog.Subcategory, by string) error {
	switch by {
	case "", "id":
		slices.SortStableFunc(subs, func(a, b catalog.Subcategory) int { return a.ID - b.ID })
	case "subcategory":
		slices.SortStableFunc(subs, func(a, b catalog.Subcategory) int {
			return strings.Compare(strings.ToLower(a.Subcategory), strings.ToLower(b.Subcategory))
		})
	case "mainCategory":
		slices.SortStableFunc(subs, func(a, b catalog.Subcategory) int {
			return strings.Compare(strings.ToLower(a.MainCategory), strings.ToLower(b.MainCategory))
		})
	default:
		return ErrUnknownSort
	}
	return nil
}

func (b *Backend) onListMainCategories() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		b.mu.RLock()
		mains := store.DeriveMainCategories(b.subcategories)
		b.mu.RUnlock()

		ctx.JSON(http.StatusOK, mains)
	}
}

func (b *Backend) onCreateNews() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req catalog.News
		if err := ctx.ShouldBindJSON(&req); err != nil {
			abortMessage(ctx, http.StatusBadRequest, "Malformed news payload.")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		if msg := b.check(req); msg != "" {
			abortMessage(ctx, http.StatusBadRequest, msg)
			return
		}
		item := req.Clone()
		item.ID = catalog.ID(b.opts.NewID())
		item.SubcategoriesList = b.resolveRefs(item.SubcategoriesList)
		b.news = append(b.news, item)

		ctx.JSON(http.StatusCreated, item)
	}
}

func (b *Backend) onUpdateNews() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := catalog.ID(ctx.Param("id"))

		var req catalog.News
		if err := ctx.ShouldBindJSON(&req); err != nil {
			abortMessage(ctx, http.StatusBadRequest, "Malformed news payload.")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		idx := b.indexOf(id)
		if idx < 0 {
			abortMessage(ctx, http.StatusNotFound, fmt.Sprintf("News %s not found.", id))
			return
		}
		if msg := b.check(req); msg != "" {
			abortMessage(ctx, http.StatusBadRequest, msg)
			return
		}
		item := req.Clone()
		item.ID = id
		item.SubcategoriesList = b.resolveRefs(item.SubcategoriesList)
		b.news[idx] = item

		ctx.JSON(http.StatusOK, item)
	}
}

func (b *Backend) onDeleteNews() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := catalog.ID(ctx.Param("id"))

		b.mu.Lock()
		defer b.mu.Unlock()

		idx := b.indexOf(id)
		if idx < 0 {
			abortMessage(ctx, http.StatusNotFound, fmt.Sprintf("News %s not found.", id))
			return
		}
		b.news = slices.Delete(b.news, idx, idx+1)
		ctx.Status(http.StatusNoContent)
	}
}

// check applies the same field rules as the client plus referential
// checks on categories. It returns the first failure message. Callers hold
// the lock.
func (b *Backend) check(n catalog.News) string {
	errs := selection.Validate(n)
	for _, field := range []string{catalog.FieldTitle, catalog.FieldBody, catalog.FieldAuthor, catalog.FieldArchiveDate} {
		if msg := errs.Get(field); msg != "" {
			return msg
		}
	}

	if n.MainCategory == "" {
		return "Main category cannot be null."
	}
	if !slices.Contains(store.DeriveMainCategories(b.subcategories), n.MainCategory) {
		return fmt.Sprintf("Unknown main category %s.", n.MainCategory)
	}
	for _, ref := range n.SubcategoriesList {
		idx := slices.IndexFunc(b.subcategories, func(s catalog.Subcategory) bool { return s.ID == ref.ID })
		if idx < 0 {
			return fmt.Sprintf("Unknown subcategory %d.", ref.ID)
		}
		if b.subcategories[idx].MainCategory != n.MainCategory {
			return fmt.Sprintf("Subcategory %d does not belong to %s.", ref.ID, n.MainCategory)
		}
	}
	return ""
}

// resolveRefs expands id references to full subcategories.
func (b *Backend) resolveRefs(refs []catalog.Subcategory) []catalog.Subcategory {
	out := make([]catalog.Subcategory, 0, len(refs))
	for _, ref := range refs {
		if idx := slices.IndexFunc(b.subcategories, func(s catalog.Subcategory) bool { return s.ID == ref.ID }); idx >= 0 {
			out = append(out, b.subcategories[idx])
			continue
		}
		out = append(out, ref)
	}
	return out
}

func (b *Backend) indexOf(id catalog.ID) int {
	return slices.IndexFunc(b.news, func(n catalog.News) bool { return n.ID == id })
}
