package importer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/newsapi"
	"github.com/Faffo96/news-exercise-front/internal/store"
	"github.com/Faffo96/news-exercise-front/internal/syncer"
	"github.com/Faffo96/news-exercise-front/internal/validation"
)

const longBody = "This body is comfortably longer than the eighty characters that a news body must have."

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
	<channel>
		<title>City Desk</title>
		<link>http://example.com</link>
		<description>Local news</description>
		<item>
			<title>Top 10 derby moments</title>
			<description>Short teaser</description>
			<content:encoded><![CDATA[<p>The <b>derby</b> returned &amp; the stadium was full. Both teams played a careful first half before the late drama.</p><script>alert(1)</script>]]></content:encoded>
			<category>Football</category>
			<pubDate>Wed, 01 Jan 2025 12:00:00 GMT</pubDate>
		</item>
		<item>
			<title>Council meets</title>
			<author>reporter@example.com (Ada Reporter)</author>
			<description>Too short.</description>
		</item>
	</channel>
</rss>`

type fakeAPI struct {
	mu        sync.Mutex
	created   []catalog.News
	failTitle string
	next      int
}

func (f *fakeAPI) ListNews(context.Context, bool) ([]catalog.News, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.News{}, f.created...), nil
}

func (f *fakeAPI) CreateNews(_ context.Context, n catalog.News) (catalog.News, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.Title == f.failTitle {
		return catalog.News{}, &newsapi.Error{Method: http.MethodPost, Path: "/api/news", StatusCode: http.StatusBadRequest, Message: "duplicate title"}
	}
	f.next++
	n.ID = catalog.ID(fmt.Sprint(f.next))
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeAPI) UpdateNews(_ context.Context, _ catalog.ID, n catalog.News) (catalog.News, error) {
	return n, nil
}

func (f *fakeAPI) DeleteNews(context.Context, catalog.ID) error {
	return nil
}

func (f *fakeAPI) ListSubcategories(context.Context, newsapi.SubcategoryQuery) ([]catalog.Subcategory, error) {
	return nil, nil
}

func (f *fakeAPI) ListMainCategories(context.Context) ([]string, error) {
	return nil, nil
}

func seededEngine(api syncer.API) *syncer.Engine {
	st := store.New()
	st.ReplaceSubcategories([]catalog.Subcategory{
		{ID: 1, MainCategory: "Sport", Subcategory: "Football"},
		{ID: 2, MainCategory: "Sport", Subcategory: "Tennis"},
		{ID: 3, MainCategory: "Politics", Subcategory: "Elections"},
	})
	return syncer.New(api, st, syncer.Options{Notifier: &syncer.Recorder{}})
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

type stubSource struct {
	name     string
	priority int
	handles  bool
}

func (s stubSource) Name() string          { return s.name }
func (s stubSource) CanHandle(string) bool { return s.handles }
func (s stubSource) Priority() int         { return s.priority }
func (s stubSource) Load(context.Context, string, Options) ([]catalog.News, error) {
	return []catalog.News{{Title: s.name}}, nil
}

func TestRegistryFind(t *testing.T) {
	r := NewRegistry(
		stubSource{name: "low", priority: 1, handles: true},
		stubSource{name: "high", priority: 5, handles: true},
		stubSource{name: "never", priority: 100},
	)

	assert.Equal(t, "high", r.Find("anything").Name())
	assert.Equal(t, []string{"high", "low", "never"}, r.List())

	_, err := NewRegistry().Load(context.Background(), "x", Options{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestDefaultRegistryRouting(t *testing.T) {
	r := DefaultRegistry(nil, nil)

	tests := []struct {
		location string
		want     string
	}{
		{"https://example.com/feed", "rss"},
		{"/tmp/feed.XML", "rss"},
		{"news.atom", "rss"},
		{"drafts.toml", "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			s := r.Find(tt.location)
			require.NotNil(t, s)
			assert.Equal(t, tt.want, s.Name())
		})
	}
	assert.Nil(t, r.Find("notes.txt"))
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Top 10 derby moments", "Top derby moments"},
		{"2025: a year in review", "a year in review"},
		{"  plain  title ", "plain title"},
		{strings.Repeat("é", 200), strings.Repeat("é", 150)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanTitle(tt.in))
	}
}

func TestRSSSourceRemote(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer server.Close()

	src := NewRSSSource(server.Client(), validation.NewBackendURLValidator())
	news, err := src.Load(context.Background(), server.URL, Options{MainCategory: "Sport", Now: fixedNow, ArchiveAfter: DefaultArchiveAfter})
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, feedUserAgent, gotUA)

	first := news[0]
	assert.Equal(t, "Top derby moments", first.Title)
	assert.Equal(t, "The derby returned & the stadium was full. Both teams played a careful first half before the late drama.", first.Body)
	assert.NotContains(t, first.Body, "alert")
	assert.Equal(t, "City Desk", first.Author, "feed title stands in for a missing author")
	assert.Equal(t, "2025-01-01", first.ReleaseDate)
	assert.Equal(t, "2025-01-31", first.ArchiveDate)
	assert.Equal(t, "Sport", first.MainCategory)
	assert.Equal(t, []catalog.Subcategory{{Subcategory: "Football"}}, first.SubcategoriesList)

	second := news[1]
	assert.Equal(t, "Ada Reporter", second.Author)
	assert.Equal(t, "2025-06-01", second.ReleaseDate, "undated items are released now")
}

func TestRSSSourceRejectsPrivateHosts(t *testing.T) {
	src := NewRSSSource(nil, nil)
	_, err := src.Load(context.Background(), "http://127.0.0.1:1/feed", Options{Now: fixedNow})
	assert.ErrorIs(t, err, validation.ErrHostNotAllowed)
}

func TestRSSSourceHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := NewRSSSource(server.Client(), validation.NewBackendURLValidator())
	_, err := src.Load(context.Background(), server.URL, Options{Now: fixedNow})
	assert.ErrorContains(t, err, "HTTP error: 404")
}

func TestRSSSourceLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(testFeed), 0o600))

	news, err := NewRSSSource(nil, nil).Load(context.Background(), path, Options{Now: fixedNow, ArchiveAfter: DefaultArchiveAfter})
	require.NoError(t, err)
	assert.Len(t, news, 2)
}

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drafts.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTOMLSourceLoad(t *testing.T) {
	path := writeTOML(t, fmt.Sprintf(`
[[news]]
title = "Derby day"
body = %q
author = "Desk"
releaseDate = "2025-03-01"
mainCategory = "Sport"
subcategories = ["Football", " "]

[[news]]
title = "No dates"
body = "short"
`, longBody))

	news, err := NewTOMLSource().Load(context.Background(), path, Options{Author: "Fallback", Now: fixedNow, ArchiveAfter: DefaultArchiveAfter})
	require.NoError(t, err)
	require.Len(t, news, 2)

	assert.Equal(t, "2025-03-31", news[0].ArchiveDate)
	assert.Equal(t, []catalog.Subcategory{{Subcategory: "Football"}}, news[0].SubcategoriesList)
	assert.Equal(t, "Fallback", news[1].Author)
	assert.Equal(t, "2025-06-01", news[1].ReleaseDate)
	assert.Equal(t, "2025-07-01", news[1].ArchiveDate)
}

func TestTOMLSourceBadFile(t *testing.T) {
	path := writeTOML(t, "[[news]\ntitle = ")
	_, err := NewTOMLSource().Load(context.Background(), path, Options{Now: fixedNow})
	assert.ErrorContains(t, err, "decoding")

	_, err = NewTOMLSource().Load(context.Background(), filepath.Join(t.TempDir(), "missing.toml"), Options{Now: fixedNow})
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	path := writeTOML(t, fmt.Sprintf(`
[[news]]
title = "Derby day"
body = %[1]q
author = "Desk"
subcategories = ["football", "Elections", "Cricket"]

[[news]]
title = "Rejected by backend"
body = %[1]q
author = "Desk"

[[news]]
title = "Too short"
body = "short"
author = "Desk"
`, longBody))

	api := &fakeAPI{failTitle: "Rejected by backend"}
	engine := seededEngine(api)
	im := New(DefaultRegistry(nil, nil), engine, 2)

	report, err := im.Import(context.Background(), path, Options{MainCategory: "Sport", Now: fixedNow})
	require.NoError(t, err)

	require.Len(t, report.Created, 1)
	created := report.Created[0]
	assert.Equal(t, "Derby day", created.Title)
	assert.Equal(t, []catalog.Subcategory{{ID: 1}}, created.SubcategoriesList, "names resolve within the main category")
	assert.ElementsMatch(t, []string{"Elections", "Cricket"}, report.Unresolved)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "duplicate title", report.Failed[0].Errors.Get(catalog.FieldSubmit))

	require.Len(t, report.Invalid, 1)
	assert.Equal(t, "Body must have at least 80 characters.", report.Invalid[0].Reason())

	news := engine.Store().News()
	require.Len(t, news, 1)
	assert.Equal(t, catalog.ID("1"), news[0].ID)
}

func TestPrepareRequiresKnownMainCategory(t *testing.T) {
	engine := seededEngine(&fakeAPI{})
	im := New(NewRegistry(), engine, 0)

	var report Report
	drafts := im.Prepare([]catalog.News{
		{Title: "Missing main", Body: longBody, Author: "Desk", ArchiveDate: "2025-07-01"},
		{Title: "Unknown main", Body: longBody, Author: "Desk", ArchiveDate: "2025-07-01", MainCategory: "Weather"},
		{Title: "Known main", Body: longBody, Author: "Desk", ArchiveDate: "2025-07-01", MainCategory: "Politics",
			OtherCategoriesList: []string{"Sport", "Politics"}},
	}, &report)

	require.Len(t, drafts, 1)
	assert.Equal(t, "Known main", drafts[0].News.Title)
	assert.Equal(t, []string{"Sport"}, drafts[0].News.OtherCategoriesList, "the main category is never also another category")

	require.Len(t, report.Invalid, 2)
	assert.Equal(t, "Main category is required.", report.Invalid[0].Errors.Get(catalog.FieldMainCategory))
	assert.Equal(t, "Unknown main category.", report.Invalid[1].Errors.Get(catalog.FieldMainCategory))
}
