package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/Faffo96/news-exercise-front/internal/config"
)

const AppName = "newsdesk"

var LogoLines = []string{
	"█▄  █ █▀▀▀ █   █ █▀▀▀",
	"█ ▀▄█ █▀▀  █ █ █ ▀▀▀█",
	"█   █ █▄▄▄ ▀▄▀▄▀ ▄▄▄█",
	"   d   e   s   k    ",
}

const CompactLogo = `newsdesk ›`

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#3B82F6"),
	lipgloss.Color("#14B8A6"),
	lipgloss.Color("#F59E0B"),
	lipgloss.Color("#14B8A6"),
}

var (
	PrimaryColor   = lipgloss.Color("#3B82F6")
	SecondaryColor = lipgloss.Color("#14B8A6")
	AccentColor    = lipgloss.Color("#F59E0B")

	BackgroundColor = lipgloss.Color("#111827")
	SurfaceColor    = lipgloss.Color("#1F2937")
	TextColor       = lipgloss.Color("#E5E7EB")
	MutedColor      = lipgloss.Color("#94A3B8")

	ActiveColor   = lipgloss.Color("#4ADE80")
	ArchivedColor = lipgloss.Color("#64748B")
	ErrorColor    = lipgloss.Color("#F87171")
	SuccessColor  = lipgloss.Color("#4ADE80")
	WarnColor     = lipgloss.Color("#FBBF24")
)

var (
	LogoStyle           lipgloss.Style
	TitleStyle          lipgloss.Style
	HeaderStyle         lipgloss.Style
	StatusBarStyle      lipgloss.Style
	ActiveBadgeStyle    lipgloss.Style
	ArchivedBadgeStyle  lipgloss.Style
	SelectedItemStyle   lipgloss.Style
	HelpStyle           lipgloss.Style
	TimeStyle           lipgloss.Style
	ModalTextStyle      lipgloss.Style
	ModalHighlightStyle lipgloss.Style
	ErrorMessageStyle   lipgloss.Style
	SeparatorStyle      lipgloss.Style
	StatusInfoStyle     lipgloss.Style
	StatusSuccessStyle  lipgloss.Style
	StatusWarnStyle     lipgloss.Style
	StatusErrorStyle    lipgloss.Style
	FilterLabelStyle    lipgloss.Style
	FilterValueStyle    lipgloss.Style
	FocusedLabelStyle   lipgloss.Style
	LabelStyle          lipgloss.Style
)

func init() {
	buildStyles()
}

// ApplyTheme replaces the palette with the configured colours. Empty
// values keep the defaults.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	set(&ActiveColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	ActiveBadgeStyle = lipgloss.NewStyle().Foreground(ActiveColor).Bold(true)
	ArchivedBadgeStyle = lipgloss.NewStyle().Foreground(ArchivedColor)
	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	TimeStyle = lipgloss.NewStyle().Foreground(MutedColor).Faint(true)
	ModalTextStyle = lipgloss.NewStyle().Foreground(TextColor)
	ModalHighlightStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	ErrorMessageStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(WarnColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	FilterLabelStyle = lipgloss.NewStyle().Foreground(MutedColor)
	FilterValueStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	FocusedLabelStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	LabelStyle = lipgloss.NewStyle().Foreground(TextColor)
}

func GetWelcomeMessage(newKey string) string {
	return GetCompactBanner("No news yet. Press " + newKey + " to write the first one")
}

func GetCompactBanner(message string) string {
	coloredLines := make([]string, 0, len(LogoLines))
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}
	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, coloredLines...),
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the logo with a version tagline for the CLI.
func Banner(version string) string {
	lines := append([]string{}, LogoLines...)
	lines = append(lines, "")

	tag := "News editor"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tag = fmt.Sprintf("News editor %s", version)
	}
	lines = append(lines, tag)

	coloredLines := make([]string, 0, len(lines))
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))
}
