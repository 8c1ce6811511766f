package tui

import "github.com/charmbracelet/lipgloss"

// palette holds the colors of one theme
type palette struct {
	Primary   lipgloss.Color
	Surface   lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Border    lipgloss.Color
	Highlight lipgloss.Color
	Completed lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
}

var (
	darkPalette = palette{
		Primary:   lipgloss.Color("#4ECDC4"),
		Surface:   lipgloss.Color("#16213e"),
		Text:      lipgloss.Color("#FFFFFF"),
		TextMuted: lipgloss.Color("#888888"),
		Border:    lipgloss.Color("#333333"),
		Highlight: lipgloss.Color("#4ECDC4"),
		Completed: lipgloss.Color("#95E1A3"),
		Error:     lipgloss.Color("#FF6B6B"),
		Warning:   lipgloss.Color("#FFE66D"),
	}
	lightPalette = palette{
		Primary:   lipgloss.Color("#0F766E"),
		Surface:   lipgloss.Color("#E2E8F0"),
		Text:      lipgloss.Color("#111827"),
		TextMuted: lipgloss.Color("#6B7280"),
		Border:    lipgloss.Color("#CBD5E1"),
		Highlight: lipgloss.Color("#0F766E"),
		Completed: lipgloss.Color("#15803D"),
		Error:     lipgloss.Color("#B91C1C"),
		Warning:   lipgloss.Color("#B45309"),
	}
)

// styles are the rendered styles of one theme
type styles struct {
	theme   string
	palette palette

	Header       lipgloss.Style
	Tabs         lipgloss.Style
	TabActive    lipgloss.Style
	List         lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemDone     lipgloss.Style
	StatusBar    lipgloss.Style
	Modal        lipgloss.Style
	Help         lipgloss.Style
	Error        lipgloss.Style
	Toast        lipgloss.Style
	Divider      lipgloss.Style
}

// newStyles builds the styles for "light" or "dark"; anything else is dark
func newStyles(theme string) styles {
	p := darkPalette
	if theme == "light" {
		p = lightPalette
	} else {
		theme = "dark"
	}

	return styles{
		theme:   theme,
		palette: p,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Tabs: lipgloss.NewStyle().
			Foreground(p.TextMuted).
			Padding(0, 1),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			Underline(true).
			Padding(0, 1),

		List: lipgloss.NewStyle().
			Padding(1, 2),

		Item: lipgloss.NewStyle().
			Foreground(p.Text).
			Padding(0, 1),

		ItemSelected: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Bold(true).
			Padding(0, 1),

		ItemDone: lipgloss.NewStyle().
			Foreground(p.TextMuted).
			Strikethrough(true).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(p.Border),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(1, 2),

		Help: lipgloss.NewStyle().
			Foreground(p.TextMuted),

		Error: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),

		Toast: lipgloss.NewStyle().
			Foreground(p.Warning),

		Divider: lipgloss.NewStyle().
			Foreground(p.Border),
	}
}

// swatch renders text in a catalog entry color, falling back to the primary
// color for values that are not #RRGGBB
func (s styles) swatch(color, text string) string {
	c := s.palette.Primary
	if len(color) == 7 && color[0] == '#' {
		c = lipgloss.Color(color)
	}
	return lipgloss.NewStyle().Foreground(c).Render(text)
}
