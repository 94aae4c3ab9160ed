// Package theme resolves theme names to color palettes.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"tors/backend"
)

// Theme names
const (
	Desert = "Desert"
	Oasis  = "Oasis"
	Forest = "Forest"
	Snow   = "Snow"
)

// Default is the theme of a fresh registry.
const Default = Desert

// Names lists the themes accepted by a theme change, in display order.
var Names = []string{Desert, Oasis, Forest, Snow}

// ANSI accent colors used by the local backends.
const (
	colorYellow = lipgloss.Color("3")
	colorCyan   = lipgloss.Color("6")
	colorGreen  = lipgloss.Color("2")
	colorWhite  = lipgloss.Color("7")
	colorBlue   = lipgloss.Color("4")
)

// Palette is the four semantic colors used by the remote backend.
type Palette struct {
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color
}

var palettes = map[string]Palette{
	Desert: {Success: "#E1A95F", Error: "#C1440E", Warning: "#EDC9AF", Info: "#D2B48C"},
	Oasis:  {Success: "#2EC4B6", Error: "#E71D36", Warning: "#FF9F1C", Info: "#3A86FF"},
	Forest: {Success: "#228B22", Error: "#8B0000", Warning: "#DAA520", Info: "#2E8B57"},
	Snow:   {Success: "#F0F8FF", Error: "#B22222", Warning: "#FFD700", Info: "#ADD8E6"},
}

// IsValid reports whether name is one of the known themes. Matching is
// exact and case-sensitive.
func IsValid(name string) bool {
	_, ok := palettes[name]
	return ok
}

// Validate returns an InvalidInput error for unknown theme names.
func Validate(name string) error {
	if !IsValid(name) {
		return &backend.InvalidInputError{What: "theme", Value: name}
	}
	return nil
}

// Accent returns the single display color for a theme. Unknown names
// resolve to blue.
func Accent(name string) lipgloss.Color {
	switch name {
	case Desert:
		return colorYellow
	case Oasis:
		return colorCyan
	case Forest:
		return colorGreen
	case Snow:
		return colorWhite
	default:
		return colorBlue
	}
}

// PaletteFor returns the four-color palette for a theme. Unknown names
// fall back to the Desert palette.
func PaletteFor(name string) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[Desert]
}
