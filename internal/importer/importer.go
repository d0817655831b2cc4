package importer

import (
	"context"
	"slices"
	"strings"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
	"github.com/Faffo96/news-exercise-front/internal/selection"
	"github.com/Faffo96/news-exercise-front/internal/syncer"
)

// Rejection is an item that was not created.
type Rejection struct {
	News   catalog.News
	Errors catalog.FieldErrors
}

// Reason joins the messages of the rejection in field order.
func (r Rejection) Reason() string {
	keys := make([]string, 0, len(r.Errors))
	for k := range r.Errors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, r.Errors[k])
	}
	return strings.Join(msgs, " ")
}

type Report struct {
	Created []catalog.News
	// Invalid items failed validation and were never sent.
	Invalid []Rejection
	// Failed items were rejected by the backend.
	Failed []Rejection
	// Unresolved lists subcategory names that match no known subcategory
	// of the item's main category. They are dropped from the item.
	Unresolved []string
}

// Importer loads drafts from a registry of sources and creates the valid
// ones through the sync engine.
type Importer struct {
	registry    *Registry
	engine      *syncer.Engine
	concurrency int
}

// New returns an importer that keeps at most concurrency creations in
// flight. Zero or less means no limit.
func New(registry *Registry, engine *syncer.Engine, concurrency int) *Importer {
	return &Importer{registry: registry, engine: engine, concurrency: concurrency}
}

// Import must be called on the goroutine that owns the engine's store.
func (im *Importer) Import(ctx context.Context, location string, opts Options) (Report, error) {
	news, err := im.registry.Load(ctx, location, opts)
	if err != nil {
		return Report{}, err
	}

	var report Report
	drafts := im.Prepare(news, &report)
	if len(drafts) == 0 {
		return report, nil
	}

	cmds := make([]syncer.Cmd, 0, len(drafts))
	for _, d := range drafts {
		cmds = append(cmds, im.engine.Create(ctx, d))
	}
	for _, c := range im.engine.RunLimited(im.concurrency, cmds...) {
		created, ok := c.(syncer.NewsCreated)
		if !ok {
			continue
		}
		if created.Err != nil {
			report.Failed = append(report.Failed, Rejection{News: created.Draft.News, Errors: created.Draft.Errors.Clone()})
			continue
		}
		report.Created = append(report.Created, created.Item)
	}

	debuglog.WithFields(map[string]any{
		"location": location,
		"created":  len(report.Created),
		"invalid":  len(report.Invalid),
		"failed":   len(report.Failed),
	}).Infof("import finished")
	return report, nil
}

// Prepare turns loaded items into drafts ready to submit. Items that do not
// validate are recorded in report.Invalid instead.
func (im *Importer) Prepare(news []catalog.News, report *Report) []*catalog.Draft {
	st := im.engine.Store()
	all := st.Subcategories()
	mains := st.MainCategories()

	drafts := make([]*catalog.Draft, 0, len(news))
	for _, n := range news {
		d, unresolved := draftFor(n, all)
		report.Unresolved = append(report.Unresolved, unresolved...)

		d.Errors = selection.Validate(d.News)
		switch {
		case d.News.MainCategory == "":
			d.Errors.Set(catalog.FieldMainCategory, "Main category is required.")
		case len(mains) > 0 && !slices.Contains(mains, d.News.MainCategory):
			d.Errors.Set(catalog.FieldMainCategory, "Unknown main category.")
		}

		if !selection.CanSubmit(d) {
			report.Invalid = append(report.Invalid, Rejection{News: d.News, Errors: d.Errors})
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// draftFor runs the item's categories through a selection controller so an
// imported draft obeys the same rules as one composed by hand.
func draftFor(n catalog.News, all []catalog.Subcategory) (*catalog.Draft, []string) {
	c := selection.New()
	c.SelectMainCategory(n.MainCategory)
	for _, other := range n.OtherCategoriesList {
		if !c.HasOtherCategory(other) {
			c.ToggleOtherCategory(other)
		}
	}

	var unresolved []string
	for _, ref := range n.SubcategoriesList {
		id, ok := resolveSubcategory(all, n.MainCategory, ref)
		if !ok {
			unresolved = append(unresolved, ref.Subcategory)
			continue
		}
		if c.HasSubcategory(id) {
			continue
		}
		if err := c.ToggleSubcategoryIn(all, id); err != nil {
			unresolved = append(unresolved, ref.Subcategory)
		}
	}

	d := catalog.NewDraft()
	d.News = n.Clone()
	d.News.ID = ""
	c.Apply(d)
	return d, unresolved
}

func resolveSubcategory(all []catalog.Subcategory, main string, ref catalog.Subcategory) (int, bool) {
	if ref.ID != 0 {
		return ref.ID, true
	}
	for _, s := range all {
		if s.MainCategory == main && strings.EqualFold(s.Subcategory, ref.Subcategory) {
			return s.ID, true
		}
	}
	return 0, false
}
