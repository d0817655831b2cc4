package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

func taxonomy() []catalog.Subcategory {
	return []catalog.Subcategory{
		{ID: 1, MainCategory: "Sport", Subcategory: "Football"},
		{ID: 2, MainCategory: "Tech", Subcategory: "AI"},
		{ID: 3, MainCategory: "Sport", Subcategory: "Tennis"},
		{ID: 4, MainCategory: "Politics", Subcategory: "Europe"},
		{ID: 5, MainCategory: "Tech", Subcategory: "Cloud"},
	}
}

func TestFromNewsSeedsSelection(t *testing.T) {
	c := FromNews(catalog.News{
		MainCategory:        "Sport",
		OtherCategoriesList: []string{"Tech", "Sport"},
		SubcategoriesList:   []catalog.Subcategory{{ID: 1}, {ID: 3}},
	})

	assert.Equal(t, "Sport", c.MainCategory())
	assert.Equal(t, []int{1, 3}, c.SubcategoryIDs())
	assert.Equal(t, []string{"Tech"}, c.OtherCategories())
}

func TestSelectMainCategory(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		others    []string
		subIDs    []int
		choose    string
		wantOther []string
	}{
		{
			name:      "first selection",
			choose:    "Sport",
			wantOther: []string{},
		},
		{
			name:      "previous main becomes a tag",
			start:     "Sport",
			subIDs:    []int{1, 3},
			choose:    "Tech",
			wantOther: []string{"Sport"},
		},
		{
			name:      "new main is removed from tags",
			start:     "Sport",
			others:    []string{"Tech", "Politics"},
			choose:    "Tech",
			wantOther: []string{"Politics", "Sport"},
		},
		{
			name:      "empty selection does not re-add previous",
			start:     "Sport",
			others:    []string{"Tech"},
			subIDs:    []int{1},
			choose:    "",
			wantOther: []string{"Tech"},
		},
		{
			name:      "same category keeps tags",
			start:     "Sport",
			others:    []string{"Tech"},
			choose:    "Sport",
			wantOther: []string{"Tech"},
		},
		{
			name:      "previous already tagged is not duplicated",
			start:     "Sport",
			others:    []string{"Sport"},
			choose:    "Tech",
			wantOther: []string{"Sport"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.mainCategory = tt.start
			c.otherCategories = append(c.otherCategories, tt.others...)
			c.subcategoryIDs = append(c.subcategoryIDs, tt.subIDs...)

			c.SelectMainCategory(tt.choose)

			assert.Equal(t, tt.choose, c.MainCategory())
			assert.Empty(t, c.SubcategoryIDs())
			assert.Equal(t, tt.wantOther, c.OtherCategories())
			assert.NotContains(t, c.OtherCategories(), c.MainCategory())
		})
	}
}

func TestSelectAThenBClearsSubcategories(t *testing.T) {
	c := New()
	c.SelectMainCategory("Sport")
	c.ToggleSubcategory(1)
	c.ToggleSubcategory(3)
	c.SelectMainCategory("Tech")

	assert.Empty(t, c.SubcategoryIDs())
}

func TestToggleOtherCategory(t *testing.T) {
	c := New()
	c.SelectMainCategory("Sport")

	c.ToggleOtherCategory("Sport")
	assert.Empty(t, c.OtherCategories(), "main category cannot be tagged")

	c.ToggleOtherCategory("Tech")
	c.ToggleOtherCategory("Politics")
	assert.Equal(t, []string{"Tech", "Politics"}, c.OtherCategories())

	c.ToggleOtherCategory("Tech")
	assert.Equal(t, []string{"Politics"}, c.OtherCategories())
}

func TestToggleSubcategory(t *testing.T) {
	c := New()
	c.ToggleSubcategory(2)
	assert.True(t, c.HasSubcategory(2))
	c.ToggleSubcategory(2)
	assert.False(t, c.HasSubcategory(2))
}

func TestToggleSubcategoryIn(t *testing.T) {
	all := taxonomy()
	c := New()
	c.SelectMainCategory("Sport")

	require.NoError(t, c.ToggleSubcategoryIn(all, 1))
	assert.Equal(t, []int{1}, c.SubcategoryIDs())

	err := c.ToggleSubcategoryIn(all, 2)
	require.ErrorIs(t, err, ErrSubcategoryScope)

	err = c.ToggleSubcategoryIn(all, 99)
	require.ErrorIs(t, err, ErrSubcategoryScope)

	require.NoError(t, c.ToggleSubcategoryIn(all, 1))
	assert.Empty(t, c.SubcategoryIDs())
}

func TestUIExposedTogglesStayInScope(t *testing.T) {
	all := taxonomy()
	mains := []string{"Sport", "Tech", "Politics", ""}
	rng := rand.New(rand.NewSource(7))

	c := New()
	for range 500 {
		if rng.Intn(4) == 0 {
			c.SelectMainCategory(mains[rng.Intn(len(mains))])
			continue
		}
		visible := c.FilteredSubcategories(all)
		if len(visible) == 0 {
			continue
		}
		c.ToggleSubcategory(visible[rng.Intn(len(visible))].ID)

		for _, id := range c.SubcategoryIDs() {
			for _, s := range all {
				if s.ID == id {
					assert.Equal(t, c.MainCategory(), s.MainCategory)
				}
			}
		}
	}
}

func TestFilteredSubcategoriesIsOrderInvariant(t *testing.T) {
	all := taxonomy()
	c := New()
	c.SelectMainCategory("Tech")

	want := c.FilteredSubcategories(all)
	assert.ElementsMatch(t, []catalog.Subcategory{all[1], all[4]}, want)

	rng := rand.New(rand.NewSource(1))
	for range 20 {
		shuffled := append([]catalog.Subcategory{}, all...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.ElementsMatch(t, want, c.FilteredSubcategories(shuffled))
	}
}

func TestApplyWritesReferences(t *testing.T) {
	c := New()
	c.SelectMainCategory("Sport")
	c.ToggleSubcategory(3)
	c.ToggleOtherCategory("Tech")

	d := catalog.NewDraft()
	c.Apply(d)

	assert.Equal(t, "Sport", d.News.MainCategory)
	assert.Equal(t, []string{"Tech"}, d.News.OtherCategoriesList)
	assert.Equal(t, []catalog.Subcategory{{ID: 3}}, d.News.SubcategoriesList)

	c.ToggleOtherCategory("Politics")
	assert.Equal(t, []string{"Tech"}, d.News.OtherCategoriesList, "draft must not alias the selection")
}
