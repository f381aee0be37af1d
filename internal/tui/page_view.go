package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/kingrea/setupplan/internal/config"
	"github.com/kingrea/setupplan/internal/walkthrough"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	fileStyle     = lipgloss.NewStyle().Bold(true)
	hunkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	setupStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	teardownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	runStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// SetColorMode picks the lipgloss color profile for auto, always or never.
// In auto mode color is used only when the output is a terminal.
func SetColorMode(mode string, terminal bool) error {
	if !config.ValidMode(mode) {
		return fmt.Errorf("tui: color mode %q is not auto, always or never", mode)
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case config.ModeAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	case config.ModeNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		if terminal {
			lipgloss.SetColorProfile(termenv.EnvColorProfile())
		} else {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	}
	return nil
}

// RenderPage lays a page out like walkthrough.Page.Render, styling each
// line with the active color profile. Lines are styled one at a time so no
// padding is added.
func RenderPage(page walkthrough.Page) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("=== %s ===", page.Title())))
	b.WriteByte('\n')
	if page.Diff != "" {
		writeStyled(&b, page.Diff, diffLineStyle)
		b.WriteByte('\n')
	}
	if page.Err != nil {
		writeStyled(&b, page.Body(), func(string) *lipgloss.Style { return &errorStyle })
	} else {
		writeStyled(&b, page.Body(), planLineStyle)
	}
	return b.String()
}

// WritePages prints every page in order, separated by a blank line.
func WritePages(w io.Writer, pages []walkthrough.Page) error {
	for i, page := range pages {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, RenderPage(page)); err != nil {
			return err
		}
	}
	return nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func writeStyled(b *strings.Builder, text string, pick func(string) *lipgloss.Style) {
	if text == "" {
		return
	}
	text = strings.TrimSuffix(text, "\n")
	for _, line := range strings.Split(text, "\n") {
		if style := pick(line); style != nil && line != "" {
			b.WriteString(style.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
}

func diffLineStyle(line string) *lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return &fileStyle
	case strings.HasPrefix(line, "@@"):
		return &hunkStyle
	case strings.HasPrefix(line, "+"):
		return &addedStyle
	case strings.HasPrefix(line, "-"):
		return &removedStyle
	}
	return nil
}

func planLineStyle(line string) *lipgloss.Style {
	trimmed := strings.TrimLeft(line, " ")
	switch {
	case strings.HasPrefix(trimmed, "SETUP "):
		return &setupStyle
	case strings.HasPrefix(trimmed, "TEARDOWN "):
		return &teardownStyle
	case trimmed != line:
		return &runStyle
	}
	return &fileStyle
}
