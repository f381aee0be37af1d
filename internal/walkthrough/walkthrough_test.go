package walkthrough

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDemoHasFiveSteps(t *testing.T) {
	steps, err := Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	var names []string
	for _, step := range steps {
		if step.Err != nil {
			t.Fatalf("%s: %v", step.Name, step.Err)
		}
		names = append(names, step.File.Path)
	}
	want := []string{
		"tests/test_dummy_1.py",
		"tests/test_dummy_2.py",
		"tests/test_dummy_3.py",
		"tests/test_dummy_4.py",
		"tests/test_dummy_5.py",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("demo paths (-want +got):\n%s", diff)
	}
	if !strings.Contains(Intro(), "one change per step") {
		t.Fatalf("intro missing: %q", Intro())
	}
}

func TestBuildDiffsAgainstPreviousStep(t *testing.T) {
	steps, err := Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	pages := Build(steps)
	if len(pages) != 5 || Failed(pages) != 0 {
		t.Fatalf("expected 5 planned pages, got %d (%d failed)", len(pages), Failed(pages))
	}
	first := pages[0]
	if !strings.HasPrefix(first.Diff, "--- /dev/null\n+++ test_dummy_1.yaml\n") {
		t.Fatalf("first step should diff against an empty file:\n%s", first.Diff)
	}

	last := pages[4]
	for _, line := range []string{
		"--- test_dummy_4.yaml",
		"+++ test_dummy_5.yaml",
		"-    params: [big, small]",
		"+    params: [small, big]",
		"-    uses: [color, size]",
		"+    uses: [size, color]",
	} {
		if !containsLine(last.Diff, line) {
			t.Fatalf("diff missing %q:\n%s", line, last.Diff)
		}
	}
	if containsLine(last.Diff, "+  - name: color") || containsLine(last.Diff, "-  - name: color") {
		t.Fatalf("unchanged lines should not be marked:\n%s", last.Diff)
	}
	if got := strings.Count(last.Body(), "SETUP    S color['red']"); got != 2 {
		t.Fatalf("step 5 should set up color['red'] twice, got %d:\n%s", got, last.Body())
	}
}

func TestRenderIncludesTitleDiffAndPlan(t *testing.T) {
	steps, err := Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	page := Build(steps[:1])[0]
	out := page.Render()
	if !strings.HasPrefix(out, "=== Step 1/1: test_dummy_1.yaml ===\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.HasSuffix(out, "        TEARDOWN F color['blue']\n") {
		t.Fatalf("plan should close the page:\n%s", out)
	}
}

func TestLoadDirSortsAndSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_second.yaml", "tests:\n  - name: test_b\n")
	writeFile(t, dir, "a_first.toml", "[[tests]]\nname = \"test_a\"\n")
	writeFile(t, dir, "notes.md", "ignored")

	steps, err := Load([]string{dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if filepath.Base(steps[0].Name) != "a_first.toml" || filepath.Base(steps[1].Name) != "b_second.yaml" {
		t.Fatalf("unexpected order: %s, %s", steps[0].Name, steps[1].Name)
	}
}

func TestBrokenStepDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "tests:\n  - name: test_ok\n")
	bad := writeFile(t, dir, "bad.yaml", "tests:\n  - name: test_bad\n    uses: [missing]\n")

	steps, err := LoadFiles(bad, good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pages := Build(steps)
	if Failed(pages) != 1 {
		t.Fatalf("expected one failed page, got %d", Failed(pages))
	}
	if pages[0].Err == nil || !strings.Contains(pages[0].Body(), `fixture "missing" not found`) {
		t.Fatalf("bad step should report its error, got %q", pages[0].Body())
	}
	if pages[1].Plan == nil || !strings.Contains(pages[1].Body(), "tests/good.py::test_ok") {
		t.Fatalf("good step should still be planned, got %q", pages[1].Body())
	}
}

func TestLoadRejectsEmptyDir(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without declarations")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func containsLine(text, line string) bool {
	for _, l := range strings.Split(text, "\n") {
		if l == line {
			return true
		}
	}
	return false
}
