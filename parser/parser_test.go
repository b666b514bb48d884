package parser

import (
	"reflect"
	"testing"

	"github.com/brunobiangulo/zettel/annotation"
)

func highlights(rec *annotation.Record, loc string) []string {
	var out []string
	for _, e := range rec.Entries(loc) {
		if e.Type == annotation.TypeHighlight {
			out = append(out, e.Content)
		}
	}
	return out
}

func notePaths(rec *annotation.Record, loc string) []string {
	var out []string
	for _, e := range rec.Entries(loc) {
		if e.Type == annotation.TypeNote {
			out = append(out, e.ImagePath)
		}
	}
	return out
}

func TestParseSingleHighlight(t *testing.T) {
	lines := []string{
		"Loc 42 Highlight",
		"the map is not the territory",
		"",
	}
	rec, warns := Assemble(Parse(lines), nil)

	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	want := []string{"the map is not the territory"}
	if got := highlights(rec, "42"); !reflect.DeepEqual(got, want) {
		t.Errorf("highlights at 42 = %v, want %v", got, want)
	}
}

func TestContinuationMerge(t *testing.T) {
	// Trailing pagination digits on the continuation body must be stripped.
	lines := []string{
		"Loc 5 Highlight",
		"foo",
		"Loc 5 Highlight Continued",
		"bar 12",
	}
	rec, _ := Assemble(Parse(lines), nil)

	entries := rec.Entries("5")
	if len(entries) != 1 {
		t.Fatalf("entries at 5 = %d, want 1: %+v", len(entries), entries)
	}
	if entries[0].Content != "foo bar" {
		t.Errorf("merged content = %q, want %q", entries[0].Content, "foo bar")
	}
}

func TestContinuationFindsLastHighlight(t *testing.T) {
	lines := []string{
		"Loc 8 Highlight",
		"first",
		"Loc 8 Highlight",
		"second",
		"Loc 8 Highlight Continued",
		"more",
	}
	rec, _ := Assemble(Parse(lines), nil)

	want := []string{"first", "second more"}
	if got := highlights(rec, "8"); !reflect.DeepEqual(got, want) {
		t.Errorf("highlights = %v, want %v", got, want)
	}
}

func TestContinuationWithoutPriorHighlight(t *testing.T) {
	// A continuation for a location with no highlight drops the segment
	// but must not create an entry or crash.
	lines := []string{
		"Loc 3 Highlight Continued",
		"orphan segment",
	}
	rec, _ := Assemble(Parse(lines), nil)

	if entries := rec.Entries("3"); len(entries) != 0 {
		t.Errorf("entries at 3 = %+v, want none", entries)
	}
	// The location key itself is still registered.
	if got := rec.Locations(); !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("locations = %v, want [3]", got)
	}
}

func TestNoteOnlyMarker(t *testing.T) {
	lines := []string{
		"Loc 9 Note",
		"Loc 10 Highlight",
		"something else",
	}
	rec, warns := Assemble(Parse(lines), []string{"images/note_001.png"})

	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if got := notePaths(rec, "9"); !reflect.DeepEqual(got, []string{"images/note_001.png"}) {
		t.Errorf("notes at 9 = %v", got)
	}
	if got := highlights(rec, "9"); len(got) != 0 {
		t.Errorf("highlights at 9 = %v, want none", got)
	}
}

func TestNoteMarkerDiscardsBody(t *testing.T) {
	lines := []string{
		"Loc 9 Note",
		"this text belongs to no highlight",
		"Loc 10 Highlight",
		"real highlight",
	}
	rec, _ := Assemble(Parse(lines), []string{"images/note_001.png"})

	if got := highlights(rec, "9"); len(got) != 0 {
		t.Errorf("note marker body leaked into highlights: %v", got)
	}
	if got := highlights(rec, "10"); !reflect.DeepEqual(got, []string{"real highlight"}) {
		t.Errorf("highlights at 10 = %v", got)
	}
}

func TestHighlightWithNoteCue(t *testing.T) {
	// A "Note:" line inside a highlight body sets the note flag and is not
	// part of the content.
	lines := []string{
		"Loc 21 Highlight",
		"underlined passage",
		"Note:",
		"Loc 22 Highlight",
		"next",
	}
	rec, warns := Assemble(Parse(lines), []string{"images/note_001.jpg"})

	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	entries := rec.Entries("21")
	if len(entries) != 2 {
		t.Fatalf("entries at 21 = %+v, want highlight then note", entries)
	}
	if entries[0].Type != annotation.TypeHighlight || entries[0].Content != "underlined passage" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Type != annotation.TypeNote || entries[1].ImagePath != "images/note_001.jpg" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestContinuationWithNoteCue(t *testing.T) {
	lines := []string{
		"Loc 5 Highlight",
		"foo",
		"Loc 5 Highlight Continued",
		"bar",
		"Note:",
	}
	rec, _ := Assemble(Parse(lines), []string{"images/note_001.png"})

	entries := rec.Entries("5")
	if len(entries) != 2 {
		t.Fatalf("entries at 5 = %+v", entries)
	}
	if entries[0].Content != "foo bar" {
		t.Errorf("merged content = %q", entries[0].Content)
	}
	if entries[1].Type != annotation.TypeNote {
		t.Errorf("second entry = %+v, want note", entries[1])
	}
}

func TestNoteMarkerWithCueEmitsOnce(t *testing.T) {
	// A note marker followed by a "Note:" cue in its body is one handwritten
	// note, not two.
	lines := []string{
		"Loc 30 Highlight",
		"text",
		"Loc 31 Note",
		"Note:",
	}
	d := Parse(lines)
	if d.NoteMarkers() != 1 {
		t.Fatalf("note markers = %d, want 1", d.NoteMarkers())
	}

	rec, warns := Assemble(d, []string{"a.png"})
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if got := notePaths(rec, "31"); !reflect.DeepEqual(got, []string{"a.png"}) {
		t.Errorf("notes at 31 = %v", got)
	}
}

func TestNoteMarkerCueKeepsCorrelation(t *testing.T) {
	// Double-counting a note marker would shift the image cursor and
	// mis-assign every note after it.
	lines := []string{
		"Loc 9 Note",
		"Note:",
		"Loc 20 Note",
		"Note:",
	}
	d := Parse(lines)
	if d.NoteMarkers() != 2 {
		t.Fatalf("note markers = %d, want 2", d.NoteMarkers())
	}

	rec, warns := Assemble(d, []string{"a.png", "b.png"})
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if got := notePaths(rec, "9"); !reflect.DeepEqual(got, []string{"a.png"}) {
		t.Errorf("notes at 9 = %v", got)
	}
	if got := notePaths(rec, "20"); !reflect.DeepEqual(got, []string{"b.png"}) {
		t.Errorf("notes at 20 = %v", got)
	}
}

func TestNoteCueBeforeFirstMarker(t *testing.T) {
	lines := []string{
		"Note:",
		"Loc 1 Highlight",
		"hello",
	}
	d := Parse(lines)
	if d.NoteMarkers() != 0 {
		t.Errorf("note markers = %d, want 0", d.NoteMarkers())
	}
}

func TestOrderPreservation(t *testing.T) {
	lines := []string{
		"Loc 300 Highlight",
		"late location first",
		"Page 12 Highlight",
		"page marker",
		"Loc 57 Note",
	}
	rec, _ := Assemble(Parse(lines), []string{"n.png"})

	want := []string{"300", "12", "57"}
	if got := rec.Locations(); !reflect.DeepEqual(got, want) {
		t.Errorf("locations = %v, want %v", got, want)
	}
}

func TestImageStarvation(t *testing.T) {
	lines := []string{
		"Loc 1 Note",
		"Loc 2 Note",
	}
	rec, warns := Assemble(Parse(lines), []string{"images/note_001.png"})

	if got := notePaths(rec, "1"); !reflect.DeepEqual(got, []string{"images/note_001.png"}) {
		t.Errorf("notes at 1 = %v", got)
	}
	// The starved marker is dropped, not emitted with an empty path.
	if got := rec.Entries("2"); len(got) != 0 {
		t.Errorf("entries at 2 = %+v, want none", got)
	}
	if len(warns) != 1 || warns[0].Location != "2" {
		t.Errorf("warnings = %v, want one for Loc 2", warns)
	}
}

func TestStarvationKeepsDocumentOrder(t *testing.T) {
	// Three markers, two images: the first two in document order win, even
	// though the second marker belongs to an earlier location key.
	lines := []string{
		"Loc 10 Note",
		"Loc 4 Note",
		"Loc 11 Note",
	}
	rec, warns := Assemble(Parse(lines), []string{"a.png", "b.png"})

	if got := notePaths(rec, "10"); !reflect.DeepEqual(got, []string{"a.png"}) {
		t.Errorf("notes at 10 = %v", got)
	}
	if got := notePaths(rec, "4"); !reflect.DeepEqual(got, []string{"b.png"}) {
		t.Errorf("notes at 4 = %v", got)
	}
	if got := rec.Entries("11"); len(got) != 0 {
		t.Errorf("entries at 11 = %+v, want none", got)
	}
	if len(warns) != 1 || warns[0].Location != "11" {
		t.Errorf("warnings = %v", warns)
	}
}

func TestMalformedMarkerIsBodyText(t *testing.T) {
	lines := []string{
		"Loc 15 Highlight",
		"Locomotion is not a marker",
		"Loc abc neither",
	}
	rec, _ := Assemble(Parse(lines), nil)

	want := []string{"Locomotion is not a marker Loc abc neither"}
	if got := highlights(rec, "15"); !reflect.DeepEqual(got, want) {
		t.Errorf("highlights = %v, want %v", got, want)
	}
}

func TestEmptyBodyProducesNoEntry(t *testing.T) {
	lines := []string{
		"Loc 60 Highlight",
		"",
		"Loc 61 Highlight",
		"real",
	}
	rec, _ := Assemble(Parse(lines), nil)

	if entries := rec.Entries("60"); len(entries) != 0 {
		t.Errorf("entries at 60 = %+v, want none", entries)
	}
	// The empty location still appears in key order.
	if got := rec.Locations(); !reflect.DeepEqual(got, []string{"60", "61"}) {
		t.Errorf("locations = %v", got)
	}
}

func TestBareMarkerWithNoteCue(t *testing.T) {
	lines := []string{
		"Loc 77",
		"discarded body",
		"Note:",
		"Loc 78 Highlight",
		"x",
	}
	rec, _ := Assemble(Parse(lines), []string{"n.png"})

	if got := highlights(rec, "77"); len(got) != 0 {
		t.Errorf("bare marker body leaked: %v", got)
	}
	if got := notePaths(rec, "77"); !reflect.DeepEqual(got, []string{"n.png"}) {
		t.Errorf("notes at 77 = %v", got)
	}
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo bar 12", "foo bar"},
		{"foo bar", "foo bar"},
		{"ends with 2020 34", "ends with 2020"},
		{"42", "42"}, // digits alone are content, not a page artifact
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanContent(tt.in); got != tt.want {
			t.Errorf("cleanContent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseEmptyInput(t *testing.T) {
	rec, warns := Assemble(Parse(nil), nil)
	if rec.Len() != 0 {
		t.Errorf("record has %d locations, want 0", rec.Len())
	}
	if len(warns) != 0 {
		t.Errorf("warnings = %v", warns)
	}
}
