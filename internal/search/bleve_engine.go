package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
)

type BleveEngine struct {
	source Source
	idx    bleve.Index
}

// NewBleveEngine opens or creates the index at indexPath and indexes the
// current news of source. An empty path keeps the index in memory.
func NewBleveEngine(source Source, indexPath string) (*BleveEngine, error) {
	var (
		idx bleve.Index
		err error
	)
	if indexPath == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.Open(indexPath)
		if err != nil {
			idx, err = bleve.New(indexPath, buildIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	be := &BleveEngine{source: source, idx: idx}
	be.OnNewsReplaced(source.News())
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	categories := bleve.NewTextFieldMapping()
	categories.Analyzer = standard.Name
	categories.Store = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("categories", categories)
	dm.AddFieldMappingsAt("body", body)

	im.DefaultMapping = dm
	return im
}

func document(n catalog.News) map[string]any {
	return map[string]any{
		"news_id":    string(n.ID),
		"title":      n.Title,
		"author":     n.Author,
		"categories": categoriesText(n),
		"body":       n.Body,
	}
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	boosts := []struct {
		field       string
		match, pref float64
	}{
		{"title", weightTitle, weightTitle - 0.5},
		{"author", weightAuthor, weightAuthor - 0.2},
		{"categories", weightCategories, weightCategories - 0.2},
		{"body", weightBody, weightBody - 0.2},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, bst := range boosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(bst.field)
			mq.SetBoost(bst.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(bst.field)
			pq.SetBoost(bst.pref)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "author", "categories"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		id := catalog.ID(strings.TrimPrefix(h.ID, "news:"))
		n, ok := b.source.NewsByID(id)
		if !ok {
			// Index is ahead of the catalog; use the stored fields.
			n = catalog.News{ID: id}
			if t, ok := h.Fields["title"].(string); ok {
				n.Title = t
			}
			if a, ok := h.Fields["author"].(string); ok {
				n.Author = a
			}
		}
		out = append(out, &Result{
			News:    n,
			Score:   h.Score,
			Matches: []Match{{Field: "title", Text: n.Title, Weight: h.Score}},
		})
	}
	return out, nil
}

// OnNewsReplaced rebuilds the index from news.
func (b *BleveEngine) OnNewsReplaced(news []catalog.News) {
	keep := make(map[string]bool, len(news))
	batch := b.idx.NewBatch()
	for _, n := range news {
		if n.ID == "" {
			continue
		}
		keep[docID(n.ID)] = true
		_ = batch.Index(docID(n.ID), document(n))
	}

	for _, id := range b.allDocIDs() {
		if !keep[id] {
			batch.Delete(id)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Errorf("reindexing news: %v", err)
	}
}

func (b *BleveEngine) OnNewsChanged(n catalog.News) {
	if n.ID == "" {
		return
	}
	if err := b.idx.Index(docID(n.ID), document(n)); err != nil {
		debuglog.Errorf("indexing news %s: %v", n.ID, err)
	}
}

func (b *BleveEngine) OnNewsDeleted(id catalog.ID) {
	if err := b.idx.Delete(docID(id)); err != nil {
		debuglog.Errorf("removing news %s from index: %v", id, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

func (b *BleveEngine) allDocIDs() []string {
	var ids []string
	size, from := 1000, 0
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, from, false)
		res, err := b.idx.Search(req)
		if err != nil || len(res.Hits) == 0 {
			return ids
		}
		for _, h := range res.Hits {
			ids = append(ids, h.ID)
		}
		if len(res.Hits) < size {
			return ids
		}
		from += size
	}
}

func docID(id catalog.ID) string { return "news:" + string(id) }
