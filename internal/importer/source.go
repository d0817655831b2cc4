// Package importer turns external content into news drafts and creates
// them through the sync engine.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/validation"
)

var ErrNoSource = errors.New("no source can handle location")

// DefaultArchiveAfter is how long after release an imported item is
// archived when its source carries no archive date.
const DefaultArchiveAfter = 30 * 24 * time.Hour

// Options are applied to every draft a source produces.
type Options struct {
	// MainCategory overrides the main category of every draft.
	MainCategory    string
	OtherCategories []string
	// Author is used when an item names none.
	Author       string
	ArchiveAfter time.Duration
	// Now dates items that carry no release date.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ArchiveAfter <= 0 {
		o.ArchiveAfter = DefaultArchiveAfter
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Source reads drafts from one kind of location. Subcategories in the
// returned drafts are referenced by name; the importer resolves them.
type Source interface {
	Name() string
	CanHandle(location string) bool
	// Priority breaks ties when several sources can handle a location.
	// Higher wins.
	Priority() int
	Load(ctx context.Context, location string, opts Options) ([]catalog.News, error)
}

// Registry holds the available sources.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

func NewRegistry(sources ...Source) *Registry {
	r := &Registry{}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
}

// Find returns the highest-priority source that can handle location.
func (r *Registry) Find(location string) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Source
	for _, s := range r.sources {
		if !s.CanHandle(location) {
			continue
		}
		if best == nil || s.Priority() > best.Priority() {
			best = s
		}
	}
	return best
}

// List returns the source names sorted by name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	slices.Sort(names)
	return names
}

// Load reads drafts from location with the matching source.
func (r *Registry) Load(ctx context.Context, location string, opts Options) ([]catalog.News, error) {
	s := r.Find(location)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, location)
	}
	news, err := s.Load(ctx, location, opts.withDefaults())
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", s.Name(), err)
	}
	return news, nil
}

// DefaultRegistry registers the feed and TOML sources.
func DefaultRegistry(client *http.Client, urls *validation.URLValidator) *Registry {
	return NewRegistry(NewRSSSource(client, urls), NewTOMLSource())
}
