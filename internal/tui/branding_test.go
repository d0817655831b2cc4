package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/Faffo96/news-exercise-front/internal/config"
)

func TestBanner(t *testing.T) {
	out := Banner("1.0.0-test")
	assert.Contains(t, out, "News editor v1.0.0-test")
	assert.Contains(t, out, "╔")
	assert.Contains(t, out, LogoLines[0])

	assert.NotContains(t, Banner("dev"), "vdev")
}

func TestGetWelcomeMessage(t *testing.T) {
	out := GetWelcomeMessage("ctrl+n")
	assert.Contains(t, out, "Press ctrl+n to write the first one")
	assert.Contains(t, out, LogoLines[1])
}

func TestApplyTheme(t *testing.T) {
	defer ApplyTheme(config.TestConfig().UI.Colors)

	ApplyTheme(config.UIColors{Accent: "#123456"})
	assert.Equal(t, lipgloss.Color("#123456"), AccentColor)
	assert.Equal(t, lipgloss.Color("#3B82F6"), PrimaryColor, "empty values keep the current colour")
}

func TestTextHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"end fits", truncateEnd("short", 10), "short"},
		{"end cut", truncateEnd("a long headline", 6), "a lon…"},
		{"middle cut", truncateMiddle("http://example.com/api", 11), "http:…m/api"},
		{"single line", singleLine(" a\n\tb  c "), "a b c"},
		{"not a date", relativeDate("soon", testNow), "soon"},
		{"date", relativeDate("2025-01-08", testNow), "1 week ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
