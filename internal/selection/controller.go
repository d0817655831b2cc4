package selection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

// ErrSubcategoryScope is returned when a subcategory id is toggled that is not
// listed under the current main category.
var ErrSubcategoryScope = errors.New("subcategory does not belong to the selected main category")

// Controller holds the category selection of one draft while it is being
// composed or edited. Sets keep insertion order so the payload sent to the
// backend is deterministic.
type Controller struct {
	mainCategory    string
	subcategoryIDs  []int
	otherCategories []string
}

// New returns an empty selection for a draft being created.
func New() *Controller {
	return &Controller{
		subcategoryIDs:  []int{},
		otherCategories: []string{},
	}
}

// FromNews seeds the selection from an existing item.
func FromNews(n catalog.News) *Controller {
	c := New()
	c.mainCategory = n.MainCategory
	for _, s := range n.SubcategoriesList {
		if !slices.Contains(c.subcategoryIDs, s.ID) {
			c.subcategoryIDs = append(c.subcategoryIDs, s.ID)
		}
	}
	for _, oc := range n.OtherCategoriesList {
		if oc != n.MainCategory && !slices.Contains(c.otherCategories, oc) {
			c.otherCategories = append(c.otherCategories, oc)
		}
	}
	return c
}

// MainCategory returns the selected main category, empty when none is.
func (c *Controller) MainCategory() string {
	return c.mainCategory
}

// SubcategoryIDs returns a copy of the selected ids in the order they were
// picked.
func (c *Controller) SubcategoryIDs() []int {
	return slices.Clone(c.subcategoryIDs)
}

// OtherCategories returns a copy of the other-category tags.
func (c *Controller) OtherCategories() []string {
	return slices.Clone(c.otherCategories)
}

// HasSubcategory reports whether id is selected.
func (c *Controller) HasSubcategory(id int) bool {
	return slices.Contains(c.subcategoryIDs, id)
}

// HasOtherCategory reports whether category is tagged.
func (c *Controller) HasOtherCategory(category string) bool {
	return slices.Contains(c.otherCategories, category)
}

// SelectMainCategory switches the main category. Subcategory ids are always
// cleared since they are scoped to the previous category. The previous main
// category becomes an other-category tag when a non-empty category is chosen.
func (c *Controller) SelectMainCategory(category string) {
	prev := c.mainCategory
	c.mainCategory = category
	c.subcategoryIDs = c.subcategoryIDs[:0]
	c.otherCategories = slices.DeleteFunc(c.otherCategories, func(oc string) bool {
		return oc == category
	})

	if category == "" || prev == "" || prev == category {
		return
	}
	if !slices.Contains(c.otherCategories, prev) {
		c.otherCategories = append(c.otherCategories, prev)
	}
}

// ToggleOtherCategory adds or removes a secondary tag. The current main
// category can never be tagged.
func (c *Controller) ToggleOtherCategory(category string) {
	if category == "" || category == c.mainCategory {
		return
	}
	if i := slices.Index(c.otherCategories, category); i >= 0 {
		c.otherCategories = slices.Delete(c.otherCategories, i, i+1)
		return
	}
	c.otherCategories = append(c.otherCategories, category)
}

// ToggleSubcategory adds or removes a subcategory id without checking its
// scope. Callers must only offer ids from FilteredSubcategories.
func (c *Controller) ToggleSubcategory(id int) {
	if i := slices.Index(c.subcategoryIDs, id); i >= 0 {
		c.subcategoryIDs = slices.Delete(c.subcategoryIDs, i, i+1)
		return
	}
	c.subcategoryIDs = append(c.subcategoryIDs, id)
}

// ToggleSubcategoryIn is ToggleSubcategory with a scope check against the
// known subcategories. Removing an already selected id is always allowed.
func (c *Controller) ToggleSubcategoryIn(all []catalog.Subcategory, id int) error {
	if c.HasSubcategory(id) {
		c.ToggleSubcategory(id)
		return nil
	}

	idx := slices.IndexFunc(all, func(s catalog.Subcategory) bool { return s.ID == id })
	if idx < 0 {
		return fmt.Errorf("subcategory %d: %w", id, ErrSubcategoryScope)
	}
	if all[idx].MainCategory != c.mainCategory {
		return fmt.Errorf("subcategory %d is under %q, not %q: %w",
			id, all[idx].MainCategory, c.mainCategory, ErrSubcategoryScope)
	}
	c.ToggleSubcategory(id)
	return nil
}

// FilteredSubcategories returns the subcategories of the selected main
// category in source order.
func (c *Controller) FilteredSubcategories(all []catalog.Subcategory) []catalog.Subcategory {
	out := make([]catalog.Subcategory, 0, len(all))
	for _, s := range all {
		if s.MainCategory == c.mainCategory {
			out = append(out, s)
		}
	}
	return out
}

// Apply writes the selection into the draft. Subcategories are sent as id
// references only.
func (c *Controller) Apply(d *catalog.Draft) {
	d.News.MainCategory = c.mainCategory
	d.News.OtherCategoriesList = slices.Clone(c.otherCategories)
	refs := make([]catalog.Subcategory, 0, len(c.subcategoryIDs))
	for _, id := range c.subcategoryIDs {
		refs = append(refs, catalog.Subcategory{ID: id})
	}
	d.News.SubcategoriesList = refs
}
