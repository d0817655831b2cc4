// Package filter derives the visible news list from the catalog and the
// three filter values shown above the list.
package filter

import (
	"strings"
	"time"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

const (
	All            = "all"
	StatusActive   = "active"
	StatusArchived = "archived"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

type Criteria struct {
	Status       string
	MainCategory string
	Subcategory  string
}

// Default passes everything.
func Default() Criteria {
	return Criteria{Status: All, MainCategory: All, Subcategory: All}
}

func (c Criteria) normalized() Criteria {
	if c.Status == "" {
		c.Status = All
	}
	if c.MainCategory == "" {
		c.MainCategory = All
	}
	if c.Subcategory == "" {
		c.Subcategory = All
	}
	return c
}

// Apply returns the items matching every predicate in source order. The
// result never shares its backing array with news.
func Apply(news []catalog.News, c Criteria) []catalog.News {
	c = c.normalized()
	out := make([]catalog.News, 0, len(news))
	for _, n := range news {
		if Matches(n, c) {
			out = append(out, n)
		}
	}
	return out
}

func Matches(n catalog.News, c Criteria) bool {
	c = c.normalized()
	return matchesStatus(n, c.Status) &&
		(c.MainCategory == All || n.MainCategory == c.MainCategory) &&
		(c.Subcategory == All || n.HasSubcategoryNamed(c.Subcategory))
}

// Label reports whether an item is labelled active or archived. The release
// and archive dates are compared with each other, not with the current date.
// Items with equal dates carry no label.
func Label(n catalog.News) string {
	switch cmp := compareDates(n.ReleaseDate, n.ArchiveDate); {
	case cmp < 0:
		return StatusActive
	case cmp > 0:
		return StatusArchived
	default:
		return ""
	}
}

func matchesStatus(n catalog.News, status string) bool {
	switch status {
	case All:
		return true
	case StatusActive, StatusArchived:
		return Label(n) == status
	default:
		return false
	}
}

func compareDates(a, b string) int {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	return ta.Compare(tb)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Options lists the values a filter bar can cycle through: "all" followed by
// the given values with duplicates and blanks removed.
func Options(values []string) []string {
	out := []string{All}
	seen := map[string]bool{All: true}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// SubcategoryNames lists the display names usable as subcategory filter
// values, optionally limited to one main category.
func SubcategoryNames(subs []catalog.Subcategory, mainCategory string) []string {
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		if mainCategory != "" && mainCategory != All && s.MainCategory != mainCategory {
			continue
		}
		names = append(names, s.Subcategory)
	}
	return names
}
