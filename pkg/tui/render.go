package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/papercomputeco/studyguide/pkg/guide"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or DefaultWidth.
func Width(f *os.File) int {
	if !IsTerminal(f) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Renderer turns study guides into terminal output.
type Renderer struct {
	color bool
	width int
}

// NewRenderer creates a Renderer. Without color, output is plain Markdown
// wrapped to width.
func NewRenderer(color bool, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Renderer{color: color, width: width}
}

// Guide renders g with a one line header naming where it came from.
func (r *Renderer) Guide(g *guide.StudyGuide, header string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(r.width)}
	if r.color {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(styles.NoTTYStyle))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	body, err := tr.Render(g.Markdown())
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	if header == "" {
		return body, nil
	}
	return r.Header(header) + "\n" + body, nil
}

// Header styles a heading line, truncated to the render width.
func (r *Renderer) Header(s string) string {
	s = ansi.Truncate(s, r.width, "…")
	if !r.color {
		return s
	}
	return headerStyle.Render(s)
}

// Row lays out a fixed-width label followed by text truncated to fit the
// render width.
func (r *Renderer) Row(label, text string) string {
	room := r.width - ansi.StringWidth(label) - 1
	if room < 1 {
		return ansi.Truncate(label, r.width, "…")
	}
	text = ansi.Truncate(strings.Join(strings.Fields(text), " "), room, "…")
	if r.color {
		label = dimStyle.Render(label)
	}
	return label + " " + text
}
