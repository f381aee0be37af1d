// Package walkthrough loads an ordered series of fixture declarations and
// pairs each one with its diff against the previous step and its setup plan.
package walkthrough

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/tools/txtar"

	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/fixture/scheduler"
)

//go:embed demo.txtar
var demoArchive []byte

// Step is one declaration in a walkthrough. Err holds the load failure of a
// step that could not be parsed; the remaining steps still run.
type Step struct {
	Name   string
	Source []byte
	File   fixture.File
	Err    error
}

// Page is what the walkthrough shows for one step.
type Page struct {
	Index int
	Total int
	Step  Step
	// Diff is the unified diff of the declaration against the previous step.
	Diff string
	Plan *scheduler.Plan
	Err  error
}

// Intro returns the description stored with the built-in demo.
func Intro() string {
	return strings.TrimSpace(string(txtar.Parse(demoArchive).Comment))
}

// Demo returns the built-in five step walkthrough.
func Demo() ([]Step, error) {
	return FromArchive(txtar.Parse(demoArchive))
}

// FromArchive turns every declaration member of a txtar archive into a
// step, in archive order. Other members are ignored.
func FromArchive(archive *txtar.Archive) ([]Step, error) {
	var steps []Step
	for _, f := range archive.Files {
		if !fixture.IsDeclaration(f.Name) {
			continue
		}
		steps = append(steps, newStep(f.Name, f.Data))
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("walkthrough: archive holds no declarations")
	}
	return steps, nil
}

// LoadDir loads every declaration in dir, sorted by file name.
func LoadDir(dir string) ([]Step, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("walkthrough: read %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !fixture.IsDeclaration(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("walkthrough: %s holds no .yaml, .yml or .toml files", dir)
	}
	sort.Strings(paths)
	return LoadFiles(paths...)
}

// LoadFiles loads the given declarations in argument order.
func LoadFiles(paths ...string) ([]Step, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("walkthrough: no step files given")
	}
	steps := make([]Step, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("walkthrough: read %s: %w", path, err)
		}
		steps = append(steps, newStep(path, data))
	}
	return steps, nil
}

// Load picks the step source from command arguments: nothing means the
// built-in demo, a single directory means its declarations, anything else is
// a list of files.
func Load(args []string) ([]Step, error) {
	switch len(args) {
	case 0:
		return Demo()
	case 1:
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, fmt.Errorf("walkthrough: %w", err)
		}
		if info.IsDir() {
			return LoadDir(args[0])
		}
	}
	return LoadFiles(args...)
}

func newStep(name string, data []byte) Step {
	step := Step{Name: name, Source: data}
	step.File, step.Err = fixture.Parse(name, data)
	return step
}

// Build plans every step and diffs it against the one before.
func Build(steps []Step) []Page {
	pages := make([]Page, len(steps))
	var prev *Step
	for i, step := range steps {
		page := Page{Index: i + 1, Total: len(steps), Step: step}
		page.Diff = UnifiedDiff(prev, step)
		if step.Err != nil {
			page.Err = step.Err
		} else {
			page.Plan, page.Err = scheduler.Build(step.File)
		}
		pages[i] = page
		prev = &steps[i]
	}
	return pages
}

// UnifiedDiff compares two step declarations. A nil prev diffs against an
// empty file.
func UnifiedDiff(prev *Step, next Step) string {
	diff := difflib.UnifiedDiff{
		B:        difflib.SplitLines(string(next.Source)),
		FromFile: "/dev/null",
		ToFile:   next.Name,
		Context:  3,
	}
	if prev != nil {
		diff.A = difflib.SplitLines(string(prev.Source))
		diff.FromFile = prev.Name
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("diff %s: %v\n", next.Name, err)
	}
	return text
}

// Title is the header line of a page.
func (p Page) Title() string {
	return fmt.Sprintf("Step %d/%d: %s", p.Index, p.Total, p.Step.Name)
}

// Body renders the plan, or the error that prevented one.
func (p Page) Body() string {
	if p.Err != nil {
		return fmt.Sprintf("error: %v\n", p.Err)
	}
	if p.Plan == nil {
		return ""
	}
	return p.Plan.String()
}

// Render lays a page out as plain text.
func (p Page) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", p.Title())
	if p.Diff != "" {
		b.WriteString(p.Diff)
		if !strings.HasSuffix(p.Diff, "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(p.Body())
	return b.String()
}

// Failed counts pages that could not be planned.
func Failed(pages []Page) int {
	n := 0
	for _, p := range pages {
		if p.Err != nil {
			n++
		}
	}
	return n
}
