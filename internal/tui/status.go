package tui

import (
	"fmt"
	"strings"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/store"
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing    = "Refreshing…"
	MsgSaving        = "Saving…"
	MsgDeleting      = "Deleting…"
	MsgLoadingNews   = "Loading news…"
	MsgRendering     = "Rendering…"
	MsgNoResults     = "No results"
	MsgNoNews        = "No news match the current filters"
	MsgFixFormErrors = "Fix the highlighted fields before saving"
	MsgPickMain      = "Pick a main category before saving"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgActiveOnly(on bool) string {
	if on {
		return "Showing active news only"
	}
	return "Showing all news"
}

var resourceLabels = map[store.Resource]string{
	store.ResourceNews:           "news",
	store.ResourceSubcategories:  "subs",
	store.ResourceMainCategories: "mains",
}

// MsgResourceStatus summarizes the load status of every resource, for
// example "news ✓ • subs … • mains ✗".
func MsgResourceStatus(st *store.Catalog) string {
	parts := make([]string, 0, len(store.Resources))
	for _, r := range store.Resources {
		parts = append(parts, resourceLabels[r]+" "+statusIcon(st.Status(r)))
	}
	return strings.Join(parts, " • ")
}

func statusIcon(s catalog.Status) string {
	switch s {
	case catalog.StatusLoading:
		return "…"
	case catalog.StatusSucceeded:
		return "✓"
	case catalog.StatusFailed:
		return "✗"
	default:
		return "·"
	}
}
