package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kingrea/setupplan/internal/walkthrough"
)

func TestNextAndPrevStayInBounds(t *testing.T) {
	app := newTestApp(t)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyLeft})
	if app.Index() != 0 {
		t.Fatalf("prev on first page moved to %d", app.Index())
	}
	for i := 0; i < 10; i++ {
		app = press(t, app, runes("n"))
	}
	if app.Index() != 4 {
		t.Fatalf("expected last page, got %d", app.Index())
	}
	app = press(t, app, runes("p"))
	if app.Index() != 3 {
		t.Fatalf("expected page 3 after prev, got %d", app.Index())
	}
	app = press(t, app, runes("g"))
	if app.Index() != 0 {
		t.Fatalf("home should go to the first page, got %d", app.Index())
	}
	app = press(t, app, runes("G"))
	if app.Index() != 4 {
		t.Fatalf("end should go to the last page, got %d", app.Index())
	}
}

func TestQuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		app := newTestApp(t)
		_, cmd := app.Update(msg)
		if cmd == nil {
			t.Fatalf("%s should quit", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s did not produce a quit message", msg)
		}
	}
}

func TestViewShowsTitleAndPlan(t *testing.T) {
	app := newTestApp(t, WithSize(100, 80))
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	view := app.View()
	if !strings.Contains(view, "Step 2/5: test_dummy_2.yaml") {
		t.Fatalf("title missing:\n%s", view)
	}
	if !strings.Contains(view, "SETUP    F color['red']") {
		t.Fatalf("plan missing:\n%s", view)
	}
	if !strings.Contains(view, "next step") {
		t.Fatalf("help missing:\n%s", view)
	}
}

func TestResizeShrinksViewport(t *testing.T) {
	app := newTestApp(t)
	model, cmd := app.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	app = runCommands(t, model, cmd)
	if got := strings.Count(app.viewport.View(), "\n") + 1; got != 12-headerHeight-footerHeight {
		t.Fatalf("viewport shows %d lines", got)
	}
}

func TestViewReportsFailedSteps(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	pages := demoPages(t)
	pages[2].Err = errors.New("boom")
	app, err := NewApp(pages)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if !strings.Contains(app.View(), "1 of 5 steps failed") {
		t.Fatalf("failure count missing:\n%s", app.View())
	}
}

func TestNewAppRejectsEmpty(t *testing.T) {
	if _, err := NewApp(nil); err == nil {
		t.Fatalf("expected error for no pages")
	}
}

func TestRenderPageWithoutColorMatchesPlainText(t *testing.T) {
	if err := SetColorMode("never", true); err != nil {
		t.Fatal(err)
	}
	for _, page := range demoPages(t) {
		if got, want := RenderPage(page), page.Render(); got != want {
			t.Fatalf("%s: styled output differs without color\n got: %q\nwant: %q", page.Title(), got, want)
		}
	}
}

func TestRenderPageColorsDiffAndPlan(t *testing.T) {
	if err := SetColorMode("always", false); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })
	out := RenderPage(demoPages(t)[1])
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI sequences:\n%q", out)
	}
	if !strings.Contains(out, "SETUP    F color['red']") {
		t.Fatalf("plan text should survive styling:\n%q", out)
	}
}

func TestSetColorModeRejectsUnknown(t *testing.T) {
	if err := SetColorMode("sometimes", true); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWritePagesSeparatesSteps(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	var buf bytes.Buffer
	pages := demoPages(t)
	if err := WritePages(&buf, pages[:2]); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := pages[0].Render() + "\n" + pages[1].Render()
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func newTestApp(t *testing.T, opts ...AppOption) *App {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	app, err := NewApp(demoPages(t), opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func demoPages(t *testing.T) []walkthrough.Page {
	t.Helper()
	steps, err := walkthrough.Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	return walkthrough.Build(steps)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, app *App, msg tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(msg)
	return runCommands(t, model, cmd)
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}
