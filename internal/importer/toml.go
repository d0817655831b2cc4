package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/validation"
)

// tomlFile is the layout of an import file:
//
//	[[news]]
//	title = "Local elections"
//	body = """..."""
//	author = "Desk"
//	releaseDate = "2025-03-01"
//	mainCategory = "Politics"
//	subcategories = ["Elections"]
type tomlFile struct {
	News []tomlNews `toml:"news"`
}

type tomlNews struct {
	Title           string   `toml:"title"`
	Body            string   `toml:"body"`
	Author          string   `toml:"author"`
	ReleaseDate     string   `toml:"releaseDate"`
	ArchiveDate     string   `toml:"archiveDate"`
	MainCategory    string   `toml:"mainCategory"`
	OtherCategories []string `toml:"otherCategories"`
	Subcategories   []string `toml:"subcategories"`
}

// TOMLSource imports drafts written by hand in a TOML file.
type TOMLSource struct {
	paths *validation.PathValidator
}

func NewTOMLSource() *TOMLSource {
	return &TOMLSource{paths: validation.NewPathValidator()}
}

func (s *TOMLSource) Name() string {
	return "toml"
}

func (s *TOMLSource) CanHandle(location string) bool {
	return strings.EqualFold(filepath.Ext(location), ".toml")
}

func (s *TOMLSource) Priority() int {
	return 10
}

func (s *TOMLSource) Load(_ context.Context, location string, opts Options) ([]catalog.News, error) {
	path, err := s.paths.ExistingFile(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file tomlFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	news := make([]catalog.News, 0, len(file.News))
	for _, entry := range file.News {
		news = append(news, entry.toNews(opts))
	}
	return news, nil
}

func (e tomlNews) toNews(opts Options) catalog.News {
	n := catalog.News{
		Title:               strings.TrimSpace(e.Title),
		Body:                strings.TrimSpace(e.Body),
		Author:              strings.TrimSpace(e.Author),
		ReleaseDate:         strings.TrimSpace(e.ReleaseDate),
		ArchiveDate:         strings.TrimSpace(e.ArchiveDate),
		MainCategory:        strings.TrimSpace(e.MainCategory),
		OtherCategoriesList: append([]string{}, e.OtherCategories...),
		SubcategoriesList:   []catalog.Subcategory{},
	}
	if n.Author == "" {
		n.Author = opts.Author
	}
	if opts.MainCategory != "" {
		n.MainCategory = opts.MainCategory
	}
	if len(opts.OtherCategories) > 0 {
		n.OtherCategoriesList = append([]string{}, opts.OtherCategories...)
	}

	if n.ReleaseDate == "" {
		n.ReleaseDate = opts.Now().Format(time.DateOnly)
	}
	if n.ArchiveDate == "" {
		if released, err := time.Parse(time.DateOnly, n.ReleaseDate); err == nil {
			n.ArchiveDate = released.Add(opts.ArchiveAfter).Format(time.DateOnly)
		}
	}

	for _, name := range e.Subcategories {
		if name = strings.TrimSpace(name); name != "" {
			n.SubcategoriesList = append(n.SubcategoriesList, catalog.Subcategory{Subcategory: name})
		}
	}
	return n
}
