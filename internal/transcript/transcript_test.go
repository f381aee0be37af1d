package transcript

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/kingrea/setupplan/internal/walkthrough"
)

func TestRecordThenVerifyIsClean(t *testing.T) {
	archive := recordDemo(t)
	if !strings.HasPrefix(string(archive.Comment), "walkthrough demo") {
		t.Fatalf("comment not kept: %q", archive.Comment)
	}
	var names []string
	for _, f := range archive.Files {
		names = append(names, f.Name)
	}
	want := []string{
		"test_dummy_1.yaml", "test_dummy_1.plan",
		"test_dummy_2.yaml", "test_dummy_2.plan",
		"test_dummy_3.yaml", "test_dummy_3.plan",
		"test_dummy_4.yaml", "test_dummy_4.plan",
		"test_dummy_5.yaml", "test_dummy_5.plan",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("archive members (-want +got):\n%s", diff)
	}
	mismatches, err := Verify(archive)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("fresh transcript should verify, got %+v", mismatches)
	}
}

func TestVerifyDetectsStalePlan(t *testing.T) {
	archive := recordDemo(t)
	for i, f := range archive.Files {
		if f.Name == "test_dummy_4.plan" {
			archive.Files[i].Data = []byte(strings.Replace(string(f.Data), "size['small']", "size['tiny']", 1))
		}
	}
	mismatches, err := Verify(archive)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(mismatches) != 1 || mismatches[0].Name != "test_dummy_4.yaml" {
		t.Fatalf("expected one mismatch on step 4, got %+v", mismatches)
	}
	diff := mismatches[0].Diff
	if !strings.Contains(diff, "-SETUP    S size['tiny']") || !strings.Contains(diff, "+SETUP    S size['small']") {
		t.Fatalf("diff should show the stale line:\n%s", diff)
	}

	fixed, err := Update(archive)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if mismatches, err := Verify(fixed); err != nil || len(mismatches) != 0 {
		t.Fatalf("updated archive should verify: %v %+v", err, mismatches)
	}
}

func TestRecordStoresErrors(t *testing.T) {
	steps := []walkthrough.Step{
		stepFrom(t, "broken.yaml", "tests:\n  - name: test_a\n    uses: [nope]\n"),
	}
	archive, err := Record("", steps)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	entries, err := Entries(archive)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 || !entries[0].Failed {
		t.Fatalf("expected one failed entry, got %+v", entries)
	}
	if !strings.Contains(entries[0].Plan, `fixture "nope" not found`) {
		t.Fatalf("error text not recorded: %q", entries[0].Plan)
	}
	if mismatches, err := Verify(archive); err != nil || len(mismatches) != 0 {
		t.Fatalf("recorded error should verify: %v %+v", err, mismatches)
	}
}

func TestRecordRejectsDuplicateNames(t *testing.T) {
	steps := []walkthrough.Step{
		{Name: "a/step.yaml", Source: []byte("tests:\n  - name: test_a\n")},
		{Name: "b/step.yaml", Source: []byte("tests:\n  - name: test_b\n")},
	}
	if _, err := Record("", steps); err == nil {
		t.Fatalf("expected duplicate base names to be rejected")
	}
}

func TestEntriesRejectsOrphanPlan(t *testing.T) {
	archive := &txtar.Archive{Files: []txtar.File{{Name: "lonely.plan", Data: []byte("x\n")}}}
	if _, err := Entries(archive); err == nil {
		t.Fatalf("expected orphan plan to be rejected")
	}
}

func TestWriteAndReadFile(t *testing.T) {
	archive := recordDemo(t)
	path := filepath.Join(t.TempDir(), "nested", "demo.txtar")
	if err := WriteFile(path, archive); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(txtar.Format(archive), txtar.Format(loaded)); diff != "" {
		t.Fatalf("round trip changed the archive (-want +got):\n%s", diff)
	}
}

func recordDemo(t *testing.T) *txtar.Archive {
	t.Helper()
	steps, err := walkthrough.Demo()
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	archive, err := Record("walkthrough demo", steps)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return archive
}

func stepFrom(t *testing.T, name, source string) walkthrough.Step {
	t.Helper()
	steps, err := walkthrough.FromArchive(&txtar.Archive{Files: []txtar.File{{Name: name, Data: []byte(source)}}})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	return steps[0]
}
