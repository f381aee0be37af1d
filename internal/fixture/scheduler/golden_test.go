package scheduler

import (
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/kingrea/setupplan/internal/fixture"
)

var updateGolden = flag.Bool("update-golden", false, "rewrite the .plan members of testdata archives")

type goldenCase struct {
	name  string
	input []byte
	plan  []byte
	err   []byte
}

func TestGoldenPlans(t *testing.T) {
	archives, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatalf("glob testdata: %v", err)
	}
	if len(archives) == 0 {
		t.Fatalf("no golden archives found")
	}
	for _, path := range archives {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			runGoldenArchive(t, path)
		})
	}
}

func runGoldenArchive(t *testing.T, path string) {
	archive, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	cases := map[string]*goldenCase{}
	for _, f := range archive.Files {
		ext := filepath.Ext(f.Name)
		name := strings.TrimSuffix(f.Name, ext)
		tc, ok := cases[name]
		if !ok {
			tc = &goldenCase{name: name}
			cases[name] = tc
		}
		switch ext {
		case ".yaml", ".toml":
			tc.input = f.Data
		case ".plan":
			tc.plan = f.Data
		case ".err":
			tc.err = f.Data
		}
	}
	names := make([]string, 0, len(cases))
	for name := range cases {
		names = append(names, name)
	}
	sort.Strings(names)

	updated := map[string][]byte{}
	for _, name := range names {
		tc := cases[name]
		t.Run(name, func(t *testing.T) {
			if len(tc.input) == 0 {
				t.Fatalf("no declaration for %s", name)
			}
			got, err := planFor(name+".yaml", tc.input)
			if len(tc.err) > 0 {
				want := strings.TrimSpace(string(tc.err))
				if err == nil {
					t.Fatalf("expected error containing %q, got plan:\n%s", want, got)
				}
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("expected error containing %q, got %q", want, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("plan: %v", err)
			}
			if *updateGolden {
				updated[name+".plan"] = []byte(got)
				return
			}
			if diff := cmp.Diff(string(tc.plan), got); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if *updateGolden && len(updated) > 0 {
		for i, f := range archive.Files {
			if data, ok := updated[f.Name]; ok {
				archive.Files[i].Data = data
				delete(updated, f.Name)
			}
		}
		added := make([]string, 0, len(updated))
		for name := range updated {
			added = append(added, name)
		}
		sort.Strings(added)
		for _, name := range added {
			archive.Files = append(archive.Files, txtar.File{Name: name, Data: updated[name]})
		}
		if err := os.WriteFile(path, txtar.Format(archive), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func planFor(name string, data []byte) (string, error) {
	file, err := fixture.Parse(name, data)
	if err != nil {
		return "", err
	}
	plan, err := Build(file)
	if err != nil {
		return "", err
	}
	return plan.String(), nil
}
