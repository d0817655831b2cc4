package mockbackend

import (
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

//go:embed seed.toml
var seedTOML []byte

// Seed is the initial content of a backend.
type Seed struct {
	Subcategories []catalog.Subcategory
	News          []catalog.News
}

type seedFile struct {
	Subcategories []struct {
		ID           int    `toml:"id"`
		MainCategory string `toml:"mainCategory"`
		Subcategory  string `toml:"subcategory"`
	} `toml:"subcategories"`
	News []struct {
		Title           string   `toml:"title"`
		Body            string   `toml:"body"`
		Author          string   `toml:"author"`
		ReleaseDate     string   `toml:"releaseDate"`
		ArchiveDate     string   `toml:"archiveDate"`
		MainCategory    string   `toml:"mainCategory"`
		OtherCategories []string `toml:"otherCategories"`
		Subcategories   []int    `toml:"subcategories"`
	} `toml:"news"`
}

// DefaultSeed returns the embedded taxonomy and sample news. Sample news
// have no ids; the backend assigns them.
func DefaultSeed() (Seed, error) {
	return ParseSeed(seedTOML)
}

func ParseSeed(data []byte) (Seed, error) {
	var file seedFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Seed{}, fmt.Errorf("parsing seed: %w", err)
	}

	var seed Seed
	for _, s := range file.Subcategories {
		seed.Subcategories = append(seed.Subcategories, catalog.Subcategory{
			ID:           s.ID,
			MainCategory: s.MainCategory,
			Subcategory:  s.Subcategory,
		})
	}
	for _, n := range file.News {
		item := catalog.News{
			Title:               n.Title,
			Body:                n.Body,
			Author:              n.Author,
			ReleaseDate:         n.ReleaseDate,
			ArchiveDate:         n.ArchiveDate,
			MainCategory:        n.MainCategory,
			OtherCategoriesList: append([]string{}, n.OtherCategories...),
			SubcategoriesList:   []catalog.Subcategory{},
		}
		for _, id := range n.Subcategories {
			item.SubcategoriesList = append(item.SubcategoriesList, catalog.Subcategory{ID: id})
		}
		seed.News = append(seed.News, item)
	}
	return seed, nil
}
