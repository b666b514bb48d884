package parser

import (
	"fmt"

	"github.com/brunobiangulo/zettel/annotation"
)

// Warning reports a note marker that could not be resolved because the
// unique-image sequence ran out. The marker is dropped from the record;
// the run continues.
type Warning struct {
	Location string
}

func (w Warning) String() string {
	return fmt.Sprintf("note marker at Loc %s has no corresponding image", w.Location)
}

// Assemble resolves the draft's note placeholders against the unique-image
// paths, in the exact order the parser emitted them (document order). A
// single forward-only cursor walks imagePaths; every placeholder consumes
// exactly one path and paths are never reused. Placeholders left over after
// the cursor is exhausted are dropped and reported as warnings.
//
// Assemble consumes the draft: the returned record is the draft's record,
// finalized.
func Assemble(d *Draft, imagePaths []string) (*annotation.Record, []Warning) {
	var warnings []Warning

	cursor := 0
	for _, ref := range d.notes {
		if cursor >= len(imagePaths) {
			warnings = append(warnings, Warning{Location: ref.loc})
			continue
		}
		d.record.Entry(ref.loc, ref.idx).ImagePath = imagePaths[cursor]
		cursor++
	}

	if len(warnings) > 0 {
		dropStarved(d.record)
	}
	return d.record, warnings
}

// dropStarved removes note entries that never received an image. Resolved
// notes always carry a path, so an empty path identifies the starved ones.
func dropStarved(rec *annotation.Record) {
	for _, loc := range rec.Locations() {
		entries := rec.Entries(loc)
		kept := make([]annotation.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Type == annotation.TypeNote && e.ImagePath == "" {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) != len(entries) {
			rec.SetEntries(loc, kept)
		}
	}
}
