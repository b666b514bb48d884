package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brunobiangulo/zettel/annotation"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator("")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	g.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return g
}

func sampleRecord() *annotation.Record {
	rec := annotation.NewRecord()
	rec.Append("12", annotation.Entry{Type: annotation.TypeHighlight, Content: "a highlighted passage"})
	rec.Append("12", annotation.Entry{
		Type:          annotation.TypeNote,
		ImagePath:     "zettel_output/images/note_001.png",
		Transcription: &annotation.Transcription{Type: "summary", Text: "a handwritten summary"},
	})
	rec.Append("57", annotation.Entry{
		Type:          annotation.TypeNote,
		ImagePath:     "zettel_output/images/note_002.png",
		Transcription: &annotation.Transcription{Type: "idea", Text: "a standalone idea"},
	})
	rec.Ensure("99")
	return rec
}

func TestLiteratureFiltersEntries(t *testing.T) {
	g := testGenerator(t)
	out, err := g.Literature(sampleRecord())
	if err != nil {
		t.Fatalf("Literature: %v", err)
	}
	text := string(out)

	if !strings.Contains(text, "## Location 12") {
		t.Errorf("missing section for location 12:\n%s", text)
	}
	if !strings.Contains(text, "> a highlighted passage") {
		t.Errorf("missing highlight:\n%s", text)
	}
	if !strings.Contains(text, "**Summary:** a handwritten summary") {
		t.Errorf("missing summary note:\n%s", text)
	}
	// Non-summary notes belong in permanent notes, not the literature note.
	if strings.Contains(text, "a standalone idea") || strings.Contains(text, "Location 57") {
		t.Errorf("idea note leaked into literature note:\n%s", text)
	}
	if strings.Contains(text, "Location 99") {
		t.Errorf("empty location rendered:\n%s", text)
	}
}

func TestLiteratureEmptyRecord(t *testing.T) {
	g := testGenerator(t)
	out, err := g.Literature(annotation.NewRecord())
	if err != nil {
		t.Fatalf("Literature: %v", err)
	}
	if !strings.Contains(string(out), "# Literature Notes") {
		t.Errorf("header missing:\n%s", out)
	}
}

func TestPermanentNotes(t *testing.T) {
	g := testGenerator(t)
	rec := sampleRecord()
	set := annotation.IdeaSet{Ideas: []annotation.Idea{
		{Location: "57", Index: 0, Links: []annotation.Link{{RefLocation: "12"}}},
		{Location: "12", Index: 0},
	}}

	got, err := g.PermanentNotes(rec, set, "How to Take Smart Notes")
	if err != nil {
		t.Fatalf("PermanentNotes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("notes = %d, want 2", len(got))
	}

	first := string(got[0].Content)
	if got[0].Filename != "idea_001.md" {
		t.Errorf("filename = %q", got[0].Filename)
	}
	if !strings.Contains(first, "a standalone idea") {
		t.Errorf("note transcription not used as content:\n%s", first)
	}
	if !strings.Contains(first, "date: 2026-03-14") {
		t.Errorf("date not rendered:\n%s", first)
	}
	if !strings.Contains(first, `source: "How to Take Smart Notes"`) {
		t.Errorf("source title not rendered:\n%s", first)
	}
	if !strings.Contains(first, "- [[12]]") {
		t.Errorf("link not rendered:\n%s", first)
	}

	second := string(got[1].Content)
	if got[1].Filename != "idea_002.md" {
		t.Errorf("filename = %q", got[1].Filename)
	}
	if !strings.Contains(second, "a highlighted passage") {
		t.Errorf("highlight content not used:\n%s", second)
	}
	if strings.Contains(second, "## Links") {
		t.Errorf("link section rendered without links:\n%s", second)
	}
}

func TestPermanentNotesSkipsUnresolvable(t *testing.T) {
	g := testGenerator(t)
	rec := sampleRecord()
	set := annotation.IdeaSet{Ideas: []annotation.Idea{
		{Location: "999", Index: 0},
		{Location: "12", Index: 9},
		{Location: "57", Index: 0},
	}}

	got, err := g.PermanentNotes(rec, set, "Title")
	if err != nil {
		t.Fatalf("PermanentNotes: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("notes = %d, want 1", len(got))
	}
	// Numbering follows the idea's position in the set, so skips leave gaps.
	if got[0].Filename != "idea_003.md" {
		t.Errorf("filename = %q, want idea_003.md", got[0].Filename)
	}
}

func TestPermanentNotesDefaultTitle(t *testing.T) {
	g := testGenerator(t)
	rec := sampleRecord()
	set := annotation.IdeaSet{Ideas: []annotation.Idea{{Location: "57", Index: 0}}}

	got, err := g.PermanentNotes(rec, set, "")
	if err != nil {
		t.Fatalf("PermanentNotes: %v", err)
	}
	if !strings.Contains(string(got[0].Content), `source: "Untitled"`) {
		t.Errorf("default title not applied:\n%s", got[0].Content)
	}
}

func TestNewGeneratorTemplateDirOverride(t *testing.T) {
	dir := t.TempDir()
	lit := "# Custom\n{{ range .Sections }}{{ .Location }}\n{{ end }}"
	perm := "{{ .Content }}"
	if err := os.WriteFile(filepath.Join(dir, "literature.md.tmpl"), []byte(lit), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "permanent.md.tmpl"), []byte(perm), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := NewGenerator(dir)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	out, err := g.Literature(sampleRecord())
	if err != nil {
		t.Fatalf("Literature: %v", err)
	}
	if !strings.Contains(string(out), "# Custom") {
		t.Errorf("override template not used:\n%s", out)
	}
}

func TestNewGeneratorMissingDir(t *testing.T) {
	if _, err := NewGenerator(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing template dir")
	}
}

func TestNewGeneratorIncompleteDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "literature.md.tmpl"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewGenerator(dir); err == nil {
		t.Fatal("expected error when permanent template is missing")
	}
}
