package tui

import "github.com/charmbracelet/lipgloss"

// Prompt styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1).
			Render

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Render

	selectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(lipgloss.Color("#FF6B6B")).
				Background(lipgloss.Color("#3C3C3C")).
				Bold(true).
				Render

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			Italic(true).
			MarginTop(1).
			Render

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7D56F4")).
				Bold(true).
				Render
)

// Palette is the set of colors one theme is drawn with.
type Palette struct {
	Focus        lipgloss.Color
	Accent       lipgloss.Color
	Text         lipgloss.Color
	Dim          lipgloss.Color
	Surface      lipgloss.Color
	SurfaceFocus lipgloss.Color
	Bar          lipgloss.Color
	Error        lipgloss.Color
	Success      lipgloss.Color
}

var darkPalette = Palette{
	Focus:        lipgloss.Color("#bd93f9"),
	Accent:       lipgloss.Color("#ff79c6"),
	Text:         lipgloss.Color("#f8f8f2"),
	Dim:          lipgloss.Color("#6272a4"),
	Surface:      lipgloss.Color("#1e1f29"),
	SurfaceFocus: lipgloss.Color("#252738"),
	Bar:          lipgloss.Color("#44475a"),
	Error:        lipgloss.Color("#ff5555"),
	Success:      lipgloss.Color("#50fa7b"),
}

var lightPalette = Palette{
	Focus:        lipgloss.Color("#6c48c5"),
	Accent:       lipgloss.Color("#c2185b"),
	Text:         lipgloss.Color("#24292f"),
	Dim:          lipgloss.Color("#6e7781"),
	Surface:      lipgloss.Color("#f2f2f7"),
	SurfaceFocus: lipgloss.Color("#e4e1f5"),
	Bar:          lipgloss.Color("#d0d7de"),
	Error:        lipgloss.Color("#cf222e"),
	Success:      lipgloss.Color("#1a7f37"),
}

// PaletteFor returns the palette of a theme name; anything but "dark" is
// light.
func PaletteFor(theme string) Palette {
	if theme == "dark" {
		return darkPalette
	}
	return lightPalette
}

const (
	borderSize = 1
	paddingV   = 0
	paddingH   = 1
	labelWidth = 16
	inputWidth = 48
)

type styles struct {
	palette Palette

	app          lipgloss.Style
	title        lipgloss.Style
	panel        lipgloss.Style
	focusedPanel lipgloss.Style
	item         lipgloss.Style
	selectedItem lipgloss.Style
	label        lipgloss.Style
	input        lipgloss.Style
	focusedInput lipgloss.Style
	readOnly     lipgloss.Style
	btn          lipgloss.Style
	activeBtn    lipgloss.Style
	statusBar    lipgloss.Style
	modal        lipgloss.Style
	tab          lipgloss.Style
	activeTab    lipgloss.Style
	errorText    lipgloss.Style
	okText       lipgloss.Style
	dim          lipgloss.Style
}

func newStyles(p Palette) styles {
	s := styles{palette: p}
	s.app = lipgloss.NewStyle().Margin(1, 1)
	s.title = lipgloss.NewStyle().
		Foreground(p.Focus).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Focus).
		Padding(0, 1).
		MarginBottom(1)
	s.panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Dim).
		Padding(paddingV, paddingH)
	s.focusedPanel = s.panel.BorderForeground(p.Focus)
	s.item = lipgloss.NewStyle().PaddingLeft(1).Foreground(p.Text)
	s.selectedItem = lipgloss.NewStyle().
		PaddingLeft(1).
		Foreground(lipgloss.Color("#ffffff")).
		Background(p.Focus).
		Bold(true)
	s.label = lipgloss.NewStyle().
		Foreground(p.Dim).
		Width(labelWidth).
		Align(lipgloss.Right).
		MarginRight(1)
	s.input = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Surface).
		Padding(0, 1).
		Width(inputWidth)
	s.focusedInput = s.input.
		Underline(true).
		UnderlineSpaces(true).
		Background(p.SurfaceFocus)
	s.readOnly = s.input.Foreground(p.Dim)
	s.btn = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Bar).
		Padding(0, 2).
		MarginRight(1)
	s.activeBtn = s.btn.
		Foreground(lipgloss.Color("#ffffff")).
		Background(p.Accent).
		Bold(true)
	s.statusBar = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Bar).
		Padding(0, 1).
		MarginTop(1)
	s.modal = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(p.Accent).
		Padding(1, 2)
	s.tab = lipgloss.NewStyle().Foreground(p.Dim).Padding(0, 2)
	s.activeTab = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Background(p.Focus).
		Bold(true).
		Padding(0, 2)
	s.errorText = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	s.okText = lipgloss.NewStyle().Foreground(p.Success)
	s.dim = lipgloss.NewStyle().Foreground(p.Dim)
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
