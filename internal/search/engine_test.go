package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

func seededCatalog() *store.Catalog {
	c := store.New()
	c.ReplaceNews([]catalog.News{
		{
			ID: "1", Title: "Derby ends in a draw", Author: "Marco Rossi",
			Body: "The city derby finished level after a late equaliser in front of a full stadium.",
			MainCategory: "Sport",
			SubcategoriesList: []catalog.Subcategory{{ID: 1, MainCategory: "Sport", Subcategory: "Football"}},
		},
		{
			ID: "2", Title: "New language model released", Author: "Ada Byron",
			Body: "Researchers published a model that summarises football matches among other things.",
			MainCategory: "Tech", OtherCategoriesList: []string{"Science"},
		},
		{
			ID: "3", Title: "Parliament votes on budget", Author: "Luca Bianchi",
			Body: "The budget passed with a narrow majority.",
			MainCategory: "Politics",
		},
	})
	return c
}

func TestEngineSearch(t *testing.T) {
	e := NewEngine(seededCatalog())

	results, err := e.Search("derby", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, catalog.ID("1"), results[0].News.ID)
	assert.Equal(t, "title", results[0].Matches[0].Field)
}

func TestEngineRanksTitleAboveBody(t *testing.T) {
	c := store.New()
	c.ReplaceNews([]catalog.News{
		{ID: "body", Title: "Weekly roundup", Body: "A paragraph that mentions elections once."},
		{ID: "title", Title: "Elections called", Body: "Short body."},
	})

	results, err := NewEngine(c).Search("elections", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, catalog.ID("title"), results[0].News.ID)
}

func TestEngineMatchesCategoriesAndAuthor(t *testing.T) {
	e := NewEngine(seededCatalog())

	results, err := e.Search("science", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, catalog.ID("2"), results[0].News.ID)

	results, err = e.Search("bianchi", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "author", results[0].Matches[0].Field)
}

func TestEngineShortQuery(t *testing.T) {
	results, err := NewEngine(seededCatalog()).Search("a", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineLimit(t *testing.T) {
	results, err := NewEngine(seededCatalog()).Search("the", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, tokenize("Hello, world! a 42"))
	assert.Equal(t, []string{"città"}, tokenize("Città è"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
