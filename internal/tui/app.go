// internal/tui/app.go
//
// The walkthrough pager. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: which page is shown and how far it is scrolled
// 2. Update: keys move between pages or scroll the current one
// 3. View: header, scrolled page and key help
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kingrea/setupplan/internal/logging"
	"github.com/kingrea/setupplan/internal/walkthrough"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// header line plus the blank line under it
	headerHeight = 2
	// blank line, status line and help line
	footerHeight = 3
)

type keyMap struct {
	Next key.Binding
	Prev key.Binding
	Home key.Binding
	End  key.Binding
	Help key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Home, k.End},
		{k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(key.WithKeys("n", "right", "l", "tab"), key.WithHelp("n/→", "next step")),
		Prev: key.NewBinding(key.WithKeys("p", "left", "h", "shift+tab"), key.WithHelp("p/←", "previous step")),
		Home: key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first step")),
		End:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last step")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogger records page changes in the run log.
func WithLogger(logger *logging.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSize sets the initial screen size used before the first resize event.
func WithSize(width, height int) AppOption {
	return func(a *App) {
		if width > 0 && height > 0 {
			a.width, a.height = width, height
		}
	}
}

// App is the pager model. In bubbletea, this holds ALL the state.
type App struct {
	pages    []walkthrough.Page
	index    int
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	logger   *logging.Logger

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a pager over pages, starting at the first one.
func NewApp(pages []walkthrough.Page, opts ...AppOption) (*App, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("tui: nothing to show")
	}
	a := &App{
		pages:  pages,
		help:   help.New(),
		keys:   defaultKeyMap(),
		width:  defaultWidth,
		height: defaultHeight,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.viewport = viewport.New(a.width, a.bodyHeight())
	a.showPage(0)
	return a, nil
}

// Run shows the pager on the alternate screen until the user quits.
func Run(pages []walkthrough.Page, in io.Reader, out io.Writer, opts ...AppOption) error {
	if f, ok := out.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			opts = append([]AppOption{WithSize(w, h)}, opts...)
		}
	}
	app, err := NewApp(pages, opts...)
	if err != nil {
		return err
	}
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithInput(in), tea.WithOutput(out))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Index returns the zero-based position of the current page.
func (a *App) Index() int {
	return a.index
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.viewport.Width = msg.Width
		a.viewport.Height = a.bodyHeight()
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Next):
			a.showPage(a.index + 1)
			return a, nil
		case key.Matches(msg, a.keys.Prev):
			a.showPage(a.index - 1)
			return a, nil
		case key.Matches(msg, a.keys.Home):
			a.showPage(0)
			return a, nil
		case key.Matches(msg, a.keys.End):
			a.showPage(len(a.pages) - 1)
			return a, nil
		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
			a.viewport.Height = a.bodyHeight()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// View renders the current page.
func (a *App) View() string {
	page := a.pages[a.index]
	header := titleStyle.Render(page.Title())
	status := fmt.Sprintf("%3.f%%", a.viewport.ScrollPercent()*100)
	if failed := walkthrough.Failed(a.pages); failed > 0 {
		status += fmt.Sprintf(" · %d of %d steps failed", failed, len(a.pages))
	}
	footer := lipgloss.JoinVertical(lipgloss.Left,
		footerStyle.Render(status),
		a.help.View(a.keys),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", a.viewport.View(), "", footer)
}

func (a *App) showPage(i int) {
	if i < 0 || i >= len(a.pages) {
		return
	}
	changed := i != a.index
	a.index = i
	a.viewport.SetContent(RenderPage(a.pages[i]))
	a.viewport.GotoTop()
	if changed {
		a.logger.With(zap.Int("step", i+1)).Debugf("walkthrough showing %s", a.pages[i].Step.Name)
	}
}

func (a *App) bodyHeight() int {
	h := a.height - headerHeight - footerHeight
	if a.help.ShowAll {
		h -= len(a.keys.FullHelp()[0]) - 1
	}
	if h < 1 {
		h = 1
	}
	return h
}
