// Package transcript stores walkthrough results as txtar archives and checks
// stored plans against freshly computed ones.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/tools/txtar"

	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/walkthrough"
)

const (
	planExt = ".plan"
	errExt  = ".err"
)

// Entry is one recorded step.
type Entry struct {
	Name   string
	Source []byte
	// Plan holds the rendered plan, or the error text when Failed is set.
	Plan   string
	Failed bool
}

// Mismatch describes a recorded step whose plan no longer matches.
type Mismatch struct {
	Name string
	Want string
	Got  string
	Diff string
}

// Record stores the steps under their base names and records the plan of
// each one. comment becomes the archive header.
func Record(comment string, steps []walkthrough.Step) (*txtar.Archive, error) {
	archive := &txtar.Archive{}
	if comment = strings.TrimSpace(comment); comment != "" {
		archive.Comment = []byte(comment + "\n")
	}
	seen := map[string]bool{}
	for _, step := range steps {
		name := filepath.Base(step.Name)
		if seen[name] {
			return nil, fmt.Errorf("transcript: two steps named %s", name)
		}
		seen[name] = true
		archive.Files = append(archive.Files, txtar.File{Name: name, Data: step.Source})
	}
	return Update(archive)
}

func outcome(stem string, page walkthrough.Page) (string, string) {
	if page.Err != nil {
		return stem + errExt, page.Err.Error() + "\n"
	}
	return stem + planExt, page.Plan.String()
}

// Entries pairs each declaration in the archive with its recorded outcome.
func Entries(archive *txtar.Archive) ([]Entry, error) {
	var entries []Entry
	index := map[string]int{}
	for _, f := range archive.Files {
		ext := filepath.Ext(f.Name)
		stem := strings.TrimSuffix(f.Name, ext)
		switch {
		case fixture.IsDeclaration(f.Name):
			if _, dup := index[stem]; dup {
				return nil, fmt.Errorf("transcript: %s recorded twice", stem)
			}
			index[stem] = len(entries)
			entries = append(entries, Entry{Name: f.Name, Source: f.Data})
		case ext == planExt || ext == errExt:
			i, ok := index[stem]
			if !ok {
				return nil, fmt.Errorf("transcript: %s has no declaration before it", f.Name)
			}
			entries[i].Plan = string(f.Data)
			entries[i].Failed = ext == errExt
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("transcript: archive holds no steps")
	}
	return entries, nil
}

// Verify recomputes every recorded step and reports the ones that differ.
func Verify(archive *txtar.Archive) ([]Mismatch, error) {
	entries, err := Entries(archive)
	if err != nil {
		return nil, err
	}
	steps, err := walkthrough.FromArchive(archive)
	if err != nil {
		return nil, err
	}
	pages := walkthrough.Build(steps)
	var mismatches []Mismatch
	for i, entry := range entries {
		stem := strings.TrimSuffix(entry.Name, filepath.Ext(entry.Name))
		_, got := outcome(stem, pages[i])
		if got == entry.Plan {
			continue
		}
		mismatches = append(mismatches, Mismatch{
			Name: entry.Name,
			Want: entry.Plan,
			Got:  got,
			Diff: diffText(entry.Name, entry.Plan, got),
		})
	}
	return mismatches, nil
}

// Update re-records the archive from its own declarations. Stale outcomes
// are replaced and missing ones added.
func Update(archive *txtar.Archive) (*txtar.Archive, error) {
	steps, err := walkthrough.FromArchive(archive)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	out := &txtar.Archive{Comment: archive.Comment}
	for _, page := range walkthrough.Build(steps) {
		name := page.Step.Name
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		outName, text := outcome(stem, page)
		out.Files = append(out.Files,
			txtar.File{Name: name, Data: page.Step.Source},
			txtar.File{Name: outName, Data: []byte(text)},
		)
	}
	return out, nil
}

// ReadFile parses an archive from disk.
func ReadFile(path string) (*txtar.Archive, error) {
	archive, err := txtar.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: read %s: %w", path, err)
	}
	return archive, nil
}

// WriteFile formats an archive to disk.
func WriteFile(path string, archive *txtar.Archive) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("transcript: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, txtar.Format(archive), 0o644); err != nil {
		return fmt.Errorf("transcript: write %s: %w", path, err)
	}
	return nil
}

func diffText(name, want, got string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: name + " (recorded)",
		ToFile:   name + " (current)",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return text
}
