package views

import (
	"github.com/charmbracelet/lipgloss"

	"tors/internal/theme"
)

// Mode selects the color scheme: local backends use one accent color per
// theme, the remote backend uses the four-color palette.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Fixed terminal colors shared by both modes
const (
	colorGreen       = lipgloss.Color("2")
	colorRed         = lipgloss.Color("1")
	colorYellow      = lipgloss.Color("3")
	colorWhite       = lipgloss.Color("7")
	colorBrightBlack = lipgloss.Color("8")
)

// Styles holds every style used to print command output
type Styles struct {
	Header      lipgloss.Style
	Name        lipgloss.Style
	ID          lipgloss.Style
	Description lipgloss.Style
	ETA         lipgloss.Style
	Accent      lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
}

// NewStyles builds the styles for a mode and theme name. Unknown theme names
// get the fallback colors of theme.Accent and theme.PaletteFor.
func NewStyles(mode Mode, themeName string) Styles {
	if mode == ModeRemote {
		p := theme.PaletteFor(themeName)
		return Styles{
			Header:      lipgloss.NewStyle().Bold(true).Foreground(p.Info),
			Name:        lipgloss.NewStyle().Foreground(p.Success),
			ID:          lipgloss.NewStyle().Foreground(colorBrightBlack),
			Description: lipgloss.NewStyle().Foreground(p.Info),
			ETA:         lipgloss.NewStyle().Foreground(p.Warning),
			Accent:      lipgloss.NewStyle().Foreground(p.Success),
			Success:     lipgloss.NewStyle().Foreground(p.Success),
			Error:       lipgloss.NewStyle().Foreground(p.Error),
			Warning:     lipgloss.NewStyle().Foreground(p.Warning),
		}
	}

	accent := theme.Accent(themeName)
	return Styles{
		Header:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Name:        lipgloss.NewStyle().Foreground(accent),
		ID:          lipgloss.NewStyle().Foreground(colorBrightBlack),
		Description: lipgloss.NewStyle().Foreground(colorWhite),
		ETA:         lipgloss.NewStyle().Foreground(accent),
		Accent:      lipgloss.NewStyle().Foreground(accent),
		Success:     lipgloss.NewStyle().Foreground(colorGreen),
		Error:       lipgloss.NewStyle().Foreground(colorRed),
		Warning:     lipgloss.NewStyle().Foreground(colorYellow),
	}
}
