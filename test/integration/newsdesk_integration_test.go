package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/filter"
	"github.com/Faffo96/news-exercise-front/internal/mockbackend"
	"github.com/Faffo96/news-exercise-front/internal/newsapi"
	"github.com/Faffo96/news-exercise-front/internal/search"
	"github.com/Faffo96/news-exercise-front/internal/selection"
	"github.com/Faffo96/news-exercise-front/internal/storage"
	"github.com/Faffo96/news-exercise-front/internal/store"
	"github.com/Faffo96/news-exercise-front/internal/syncer"
)

const longBody = "An integration body that is long enough to pass the eighty character minimum check."

var today = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	backend  *mockbackend.Backend
	client   *newsapi.Client
	catalog  *store.Catalog
	engine   *syncer.Engine
	notices  *syncer.Recorder
	cache    *storage.Store
	dbPath   string
	cleanups []func()
}

type envOptions struct {
	backend mockbackend.Options
	refetch bool
}

func setupTestEnvironment(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	if opts.backend.Now == nil {
		opts.backend.Now = func() time.Time { return today }
	}
	n := 0
	if opts.backend.NewID == nil {
		opts.backend.NewID = func() string {
			n++
			return fmt.Sprint(n)
		}
	}
	backend, err := mockbackend.New(opts.backend)
	require.NoError(t, err)
	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	cache, err := storage.OpenStore(dbPath, 0)
	require.NoError(t, err)

	// Tokens come from the cache, like the CLI does.
	client, err := newsapi.NewClient(newsapi.Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Tokens:  cache,
	})
	require.NoError(t, err)

	env := &testEnv{
		backend: backend,
		client:  client,
		catalog: store.New(),
		notices: &syncer.Recorder{},
		cache:   cache,
		dbPath:  dbPath,
	}
	env.cleanups = append(env.cleanups, env.cache.Mirror(env.catalog))
	env.engine = syncer.New(client, env.catalog, syncer.Options{
		RefetchAfterMutation: opts.refetch,
		Notifier:             env.notices,
	})
	t.Cleanup(env.close)
	return env
}

func (e *testEnv) close() {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
	e.cleanups = nil
	if e.cache != nil {
		e.cache.Close()
		e.cache = nil
	}
}

func (e *testEnv) bootstrap(t *testing.T) {
	t.Helper()
	require.NoError(t, syncer.FirstFailure(e.engine.RunAll(e.engine.Bootstrap(context.Background())...)...))
}

func (e *testEnv) newsTitled(t *testing.T, prefix string) catalog.News {
	t.Helper()
	for _, n := range e.catalog.News() {
		if strings.HasPrefix(n.Title, prefix) {
			return n
		}
	}
	t.Fatalf("no news titled %q", prefix)
	return catalog.News{}
}

func newsIDs(news []catalog.News) []catalog.ID {
	ids := make([]catalog.ID, 0, len(news))
	for _, n := range news {
		ids = append(ids, n.ID)
	}
	return ids
}

// composeDraft builds a draft the way the editor form does.
func composeDraft(t *testing.T, subs []catalog.Subcategory, title string) *catalog.Draft {
	t.Helper()
	d := catalog.NewDraft()
	d.News.Title = title
	d.News.Body = longBody
	d.News.Author = "Integration desk"
	d.News.ReleaseDate = "2025-02-20"
	d.News.ArchiveDate = "2025-04-01"

	c := selection.New()
	c.SelectMainCategory("Sport")
	var football int
	for _, s := range subs {
		if s.MainCategory == "Sport" && s.Subcategory == "Football" {
			football = s.ID
		}
	}
	require.NotZero(t, football)
	require.NoError(t, c.ToggleSubcategoryIn(subs, football))
	c.Apply(d)

	d.Errors = selection.Validate(d.News)
	require.True(t, selection.CanSubmit(d), "draft errors: %v", d.Errors)
	return d
}

func TestIntegration_BootstrapFillsCatalog(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{})
	env.bootstrap(t)

	assert.Len(t, env.catalog.News(), len(env.backend.News()))
	assert.NotEmpty(t, env.catalog.Subcategories())
	assert.Contains(t, env.catalog.MainCategories(), "Sport")
	for _, r := range []store.Resource{store.ResourceNews, store.ResourceSubcategories, store.ResourceMainCategories} {
		assert.Equal(t, catalog.StatusSucceeded, env.catalog.Status(r), r)
	}

	derby := env.newsTitled(t, "Derby")
	require.NotEmpty(t, derby.SubcategoriesList)
	assert.NotEmpty(t, derby.SubcategoriesList[0].Subcategory, "subcategories come back expanded")
}

func TestIntegration_CreateThenRefetch(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{refetch: true})
	env.bootstrap(t)
	before := len(env.catalog.News())

	d := composeDraft(t, env.catalog.Subcategories(), "Cup final moved to Sunday")
	c := env.engine.Run(env.engine.Create(context.Background(), d))

	created, ok := c.(syncer.NewsCreated)
	require.True(t, ok)
	require.NoError(t, created.Err)
	assert.NotEmpty(t, created.Item.ID)

	news := env.catalog.News()
	require.Len(t, news, before+1)
	assert.Equal(t, newsIDs(env.backend.News()), newsIDs(news), "the refetch leaves the catalog equal to the backend")

	got := env.newsTitled(t, "Cup final")
	require.Len(t, got.SubcategoriesList, 1)
	assert.Equal(t, "Football", got.SubcategoriesList[0].Subcategory)

	last, ok := env.notices.Last()
	require.True(t, ok)
	assert.Equal(t, syncer.NoticeSuccess, last.Kind)
	assert.Equal(t, "News created successfully.", last.Message)
}

func TestIntegration_UpdateAndDelete(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{})
	env.bootstrap(t)

	derby := env.newsTitled(t, "Derby")
	d := catalog.DraftFrom(derby)
	d.News.Title = "Derby ends level"
	c := env.engine.Run(env.engine.Update(context.Background(), derby.ID, d))
	require.NoError(t, c.Failure())
	assert.Equal(t, "Derby ends level", env.newsTitled(t, "Derby").Title)

	c = env.engine.Run(env.engine.Delete(context.Background(), derby.ID))
	require.NoError(t, c.Failure())
	_, found := env.catalog.NewsByID(derby.ID)
	assert.False(t, found)
	for _, n := range env.backend.News() {
		assert.NotEqual(t, derby.ID, n.ID)
	}

	c = env.engine.Run(env.engine.Delete(context.Background(), derby.ID))
	require.Error(t, c.Failure())
	last, _ := env.notices.Last()
	assert.Equal(t, syncer.NoticeError, last.Kind)
	assert.True(t, strings.HasPrefix(last.Message, "Error deleting news: "), last.Message)
}

// Two updates of the same item are in flight. The first one is held by the
// backend, so its response arrives last and its version stays in the catalog.
func TestIntegration_LastCompletionWins(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{backend: mockbackend.Options{
		Delay: func(r *http.Request) time.Duration {
			if r.Method != http.MethodPut {
				return 0
			}
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
			if bytes.Contains(body, []byte("Slow edit")) {
				return 150 * time.Millisecond
			}
			return 0
		},
	}})
	env.bootstrap(t)

	derby := env.newsTitled(t, "Derby")
	slow := catalog.DraftFrom(derby)
	slow.News.Title = "Slow edit"
	fast := catalog.DraftFrom(derby)
	fast.News.Title = "Fast edit"

	ctx := context.Background()
	applied := env.engine.RunAll(
		env.engine.Update(ctx, derby.ID, slow),
		env.engine.Update(ctx, derby.ID, fast),
	)
	require.Len(t, applied, 2)
	assert.Equal(t, "Fast edit", applied[0].(syncer.NewsUpdated).Draft.News.Title)
	assert.Equal(t, "Slow edit", applied[1].(syncer.NewsUpdated).Draft.News.Title)

	got, ok := env.catalog.NewsByID(derby.ID)
	require.True(t, ok)
	assert.Equal(t, "Slow edit", got.Title)
}

func TestIntegration_ValidationRejectedByBackend(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{})
	env.bootstrap(t)
	before := len(env.catalog.News())

	d := catalog.NewDraft()
	d.News = catalog.News{
		Title:        "Unchecked draft",
		Body:         "too short",
		Author:       "Desk",
		ArchiveDate:  "2025-04-01",
		MainCategory: "Sport",
	}
	c := env.engine.Run(env.engine.Create(context.Background(), d))
	require.Error(t, c.Failure())

	assert.Equal(t, http.StatusBadRequest, newsapi.StatusCode(c.Failure()))
	assert.Equal(t, "Body must have at least 80 characters.", d.Errors.Get(catalog.FieldSubmit))
	assert.Len(t, env.catalog.News(), before)
	assert.Equal(t, catalog.StatusFailed, env.catalog.Status(store.ResourceNews))
}

func TestIntegration_ExpiredTokenIsNotSent(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{backend: mockbackend.Options{Token: "will-not-match"}})
	env.bootstrap(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "editor",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, env.cache.SetToken(expired))

	token, err := env.cache.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	d := composeDraft(t, env.catalog.Subcategories(), "Unauthorized edit")
	c := env.engine.Run(env.engine.Create(context.Background(), d))
	require.Error(t, c.Failure())
	assert.Equal(t, http.StatusUnauthorized, newsapi.StatusCode(c.Failure()))

	last, _ := env.notices.Last()
	assert.True(t, strings.HasPrefix(last.Message, "Error creating news: "), last.Message)
}

func TestIntegration_CacheSurvivesRestart(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{})
	env.bootstrap(t)
	want := env.catalog.Snapshot()
	env.close()

	cache, err := storage.OpenStore(env.dbPath, 0)
	require.NoError(t, err)
	defer cache.Close()

	snap, savedAt, err := cache.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, savedAt.IsZero())

	restored := store.New()
	restored.Restore(snap)
	assert.Equal(t, want.News, restored.News())
	assert.ElementsMatch(t, want.Subcategories, restored.Subcategories())
	assert.Equal(t, want.MainCategories, restored.MainCategories())

	active := filter.Apply(restored.News(), filter.Criteria{Status: filter.StatusActive})
	archived := filter.Apply(restored.News(), filter.Criteria{Status: filter.StatusArchived})
	assert.Len(t, append(active, archived...), len(restored.News()))
}

func TestIntegration_SearchIndexFollowsCatalog(t *testing.T) {
	env := setupTestEnvironment(t, envOptions{})

	idx, err := search.NewBleveEngine(env.catalog, "")
	require.NoError(t, err)
	defer idx.Close()
	env.cleanups = append(env.cleanups, search.Attach(env.catalog, idx))

	env.bootstrap(t)
	results, err := idx.Search("derby", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	derby := results[0].News
	assert.True(t, strings.HasPrefix(derby.Title, "Derby"))

	c := env.engine.Run(env.engine.Delete(context.Background(), derby.ID))
	require.NoError(t, c.Failure())

	results, err = idx.Search("derby", 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, derby.ID, r.News.ID)
	}
}
