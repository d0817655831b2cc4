package storage

import (
	"time"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

// CacheMeta describes the last snapshot written to disk.
type CacheMeta struct {
	SavedAt        time.Time    `json:"saved_at"`
	NewsOrder      []catalog.ID `json:"news_order"`
	MainCategories []string     `json:"main_categories"`
	Subcategories  int          `json:"subcategories"`
}

// Claims is the unverified view of a bearer token used for display.
type Claims struct {
	Subject   string    `json:"sub"`
	ExpiresAt time.Time `json:"exp"`
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
