package syncer

import (
	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

// Cmd performs one round trip and reports the outcome. It may run on any
// goroutine and never touches the store.
type Cmd func() Completion

// Completion is the result of a Cmd, applied to the store by Engine.Apply on
// the owner loop.
type Completion interface {
	Resource() store.Resource
	Failure() error
	completion()
}

type NewsFetched struct {
	ActiveOnly bool
	Items      []catalog.News
	Err        error
}

type SubcategoriesFetched struct {
	Items []catalog.Subcategory
	Err   error
}

type MainCategoriesFetched struct {
	Items []string
	Err   error
}

// NewsCreated carries the draft that was submitted so a failure can be
// reported in its error bag.
type NewsCreated struct {
	Draft *catalog.Draft
	Item  catalog.News
	Err   error
}

type NewsUpdated struct {
	ID    catalog.ID
	Draft *catalog.Draft
	Item  catalog.News
	Err   error
}

type NewsDeleted struct {
	ID  catalog.ID
	Err error
}

func (NewsFetched) Resource() store.Resource           { return store.ResourceNews }
func (SubcategoriesFetched) Resource() store.Resource  { return store.ResourceSubcategories }
func (MainCategoriesFetched) Resource() store.Resource { return store.ResourceMainCategories }
func (NewsCreated) Resource() store.Resource           { return store.ResourceNews }
func (NewsUpdated) Resource() store.Resource           { return store.ResourceNews }
func (NewsDeleted) Resource() store.Resource           { return store.ResourceNews }

func (c NewsFetched) Failure() error           { return c.Err }
func (c SubcategoriesFetched) Failure() error  { return c.Err }
func (c MainCategoriesFetched) Failure() error { return c.Err }
func (c NewsCreated) Failure() error           { return c.Err }
func (c NewsUpdated) Failure() error           { return c.Err }
func (c NewsDeleted) Failure() error           { return c.Err }

func (NewsFetched) completion()           {}
func (SubcategoriesFetched) completion()  {}
func (MainCategoriesFetched) completion() {}
func (NewsCreated) completion()           {}
func (NewsUpdated) completion()           {}
func (NewsDeleted) completion()           {}
