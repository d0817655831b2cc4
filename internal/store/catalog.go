// Package store holds the authoritative news, subcategory and main category
// collections together with their load status. The UI reads snapshots from
// it; only the sync engine mutates it.
package store

import (
	"slices"
	"sync"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

type Resource string

const (
	ResourceNews           Resource = "news"
	ResourceSubcategories  Resource = "subcategories"
	ResourceMainCategories Resource = "mainCategories"
)

// Resources lists every resource in display order.
var Resources = []Resource{ResourceNews, ResourceSubcategories, ResourceMainCategories}

type Op string

const (
	OpStatus  Op = "status"
	OpReplace Op = "replace"
	OpAppend  Op = "append"
	OpUpdate  Op = "update"
	OpRemove  Op = "remove"
	OpRestore Op = "restore"
)

// Change describes one mutation. ID is set for single-record news changes.
type Change struct {
	Resource Resource
	Op       Op
	ID       catalog.ID
}

// Snapshot is a point-in-time copy of the three collections.
type Snapshot struct {
	News           []catalog.News        `json:"news"`
	Subcategories  []catalog.Subcategory `json:"subcategories"`
	MainCategories []string              `json:"mainCategories"`
}

type state struct {
	status catalog.Status
	err    string
}

type Catalog struct {
	mu             sync.RWMutex
	news           []catalog.News
	subcategories  []catalog.Subcategory
	mainCategories []string
	states         map[Resource]*state

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

func New() *Catalog {
	c := &Catalog{
		news:           []catalog.News{},
		subcategories:  []catalog.Subcategory{},
		mainCategories: []string{},
		states:         make(map[Resource]*state, len(Resources)),
		subs:           make(map[int]func(Change)),
	}
	for _, r := range Resources {
		c.states[r] = &state{status: catalog.StatusIdle}
	}
	return c
}

// Subscribe registers fn to run synchronously after every mutation. The
// returned function removes the subscription.
func (c *Catalog) Subscribe(fn func(Change)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Catalog) notify(ch Change) {
	c.subMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// Selectors. Each returns a copy, so callers may keep or change the result.

// News returns the collection in server order.
func (c *Catalog) News() []catalog.News {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneNews(c.news)
}

// NewsByID looks up one item. It reports false when no item has id.
func (c *Catalog) NewsByID(id catalog.ID) (catalog.News, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.news {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return catalog.News{}, false
}

// Subcategories returns the taxonomy as last fetched.
func (c *Catalog) Subcategories() []catalog.Subcategory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.subcategories)
}

// MainCategories returns the distinct main categories.
func (c *Catalog) MainCategories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.mainCategories)
}

// Status returns the request status of r. Unknown resources are idle.
func (c *Catalog) Status(r Resource) catalog.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if st, ok := c.states[r]; ok {
		return st.status
	}
	return catalog.StatusIdle
}

// Err returns the message recorded by the last failure of r, if any.
func (c *Catalog) Err(r Resource) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if st, ok := c.states[r]; ok {
		return st.err
	}
	return ""
}

// Snapshot returns the three collections, without statuses, for caching.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		News:           cloneNews(c.news),
		Subcategories:  slices.Clone(c.subcategories),
		MainCategories: slices.Clone(c.mainCategories),
	}
}

// Mutations. These are called by the sync engine on the owner loop.

func (c *Catalog) SetLoading(r Resource) {
	c.setState(r, catalog.StatusLoading, "")
}

// SetFailed records a failure. The collection itself is left untouched.
func (c *Catalog) SetFailed(r Resource, message string) {
	c.setState(r, catalog.StatusFailed, message)
}

// SetSucceeded marks r as loaded without touching its collection.
func (c *Catalog) SetSucceeded(r Resource) {
	c.setState(r, catalog.StatusSucceeded, "")
}

func (c *Catalog) setState(r Resource, status catalog.Status, message string) {
	c.mu.Lock()
	st, ok := c.states[r]
	if !ok {
		st = &state{}
		c.states[r] = st
	}
	st.status = status
	st.err = message
	c.mu.Unlock()
	c.notify(Change{Resource: r, Op: OpStatus})
}

func (c *Catalog) ReplaceNews(news []catalog.News) {
	c.mu.Lock()
	c.news = cloneNews(news)
	c.states[ResourceNews].status = catalog.StatusSucceeded
	c.states[ResourceNews].err = ""
	c.mu.Unlock()
	c.notify(Change{Resource: ResourceNews, Op: OpReplace})
}

func (c *Catalog) AppendNews(n catalog.News) {
	c.mu.Lock()
	c.news = append(c.news, n.Clone())
	c.states[ResourceNews].status = catalog.StatusSucceeded
	c.states[ResourceNews].err = ""
	c.mu.Unlock()
	c.notify(Change{Resource: ResourceNews, Op: OpAppend, ID: n.ID})
}

// ReplaceNewsItem swaps the record with n's id for n. It reports false, and
// changes nothing, when no such record exists.
func (c *Catalog) ReplaceNewsItem(n catalog.News) bool {
	c.mu.Lock()
	i := slices.IndexFunc(c.news, func(cur catalog.News) bool { return cur.ID == n.ID })
	if i >= 0 {
		c.news[i] = n.Clone()
	}
	c.states[ResourceNews].status = catalog.StatusSucceeded
	c.states[ResourceNews].err = ""
	c.mu.Unlock()
	c.notify(Change{Resource: ResourceNews, Op: OpUpdate, ID: n.ID})
	return i >= 0
}

func (c *Catalog) RemoveNews(id catalog.ID) bool {
	c.mu.Lock()
	before := len(c.news)
	c.news = slices.DeleteFunc(c.news, func(cur catalog.News) bool { return cur.ID == id })
	removed := len(c.news) != before
	c.states[ResourceNews].status = catalog.StatusSucceeded
	c.states[ResourceNews].err = ""
	c.mu.Unlock()
	c.notify(Change{Resource: ResourceNews, Op: OpRemove, ID: id})
	return removed
}

// ReplaceSubcategories also refreshes the main categories, derived as the
// distinct main category values in order of first appearance.
func (c *Catalog) ReplaceSubcategories(subs []catalog.Subcategory) {
	c.mu.Lock()
	c.subcategories = slices.Clone(subs)
	c.mainCategories = DeriveMainCategories(subs)
	c.states[ResourceSubcategories].status = catalog.StatusSucceeded
	c.states[ResourceSubcategories].err = ""
	c.mu.Unlock()
	c.notify(Change{Resource: ResourceSubcategories, Op: OpReplace})
	c.notify(Change{Resource: ResourceMainCategories, Op: OpReplace})
}

// ReplaceMainCategories stores the list returned by the main categories
// endpoint.
func (c *Catalog) ReplaceMainCategories(mains []string) {
	c.mu.Lock()
	c.mainCategories = distinct(mains)
	c.states[ResourceMainCategories].status = catalog.StatusSucceeded
	c.states[ResourceMainCategories].err = ""
	c.mu.Unlock()
	c.notify(Change{Resource: ResourceMainCategories, Op: OpReplace})
}

// Restore seeds the collections from a cached snapshot. Statuses are reset
// to idle since nothing has been fetched yet.
func (c *Catalog) Restore(s Snapshot) {
	c.mu.Lock()
	c.news = cloneNews(s.News)
	c.subcategories = slices.Clone(s.Subcategories)
	if c.subcategories == nil {
		c.subcategories = []catalog.Subcategory{}
	}
	if len(s.MainCategories) > 0 {
		c.mainCategories = distinct(s.MainCategories)
	} else {
		c.mainCategories = DeriveMainCategories(s.Subcategories)
	}
	for _, st := range c.states {
		st.status = catalog.StatusIdle
		st.err = ""
	}
	c.mu.Unlock()
	c.notify(Change{Op: OpRestore})
}

func DeriveMainCategories(subs []catalog.Subcategory) []string {
	mains := make([]string, 0, len(subs))
	for _, s := range subs {
		mains = append(mains, s.MainCategory)
	}
	return distinct(mains)
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func cloneNews(news []catalog.News) []catalog.News {
	out := make([]catalog.News, len(news))
	for i, n := range news {
		out[i] = n.Clone()
	}
	return out
}
