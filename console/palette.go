// Package console renders the supervisor's operator-facing output: status
// lines marking lifecycle transitions and child output tagged with the
// owning process's name.
package console

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette decides how markers are decorated. It is selected once at
// startup and never consulted for platform decisions afterwards.
type Palette struct {
	enabled bool

	ok      lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	info    lipgloss.Style
	tag     lipgloss.Style
}

// NewPalette returns a palette that colors markers when color is true and
// leaves them untouched otherwise.
func NewPalette(color bool) Palette {
	return Palette{
		enabled: color,
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		tag:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// DetectPalette enables color when w is a terminal and NO_COLOR is unset.
func DetectPalette(w io.Writer) Palette {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NewPalette(false)
	}
	f, ok := w.(*os.File)
	if !ok {
		return NewPalette(false)
	}
	return NewPalette(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (p Palette) paint(style lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return style.Render(text)
}
