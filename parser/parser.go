// Package parser reconstructs structured annotations from the raw text of an
// e-reader export. The text is an unstructured stream of location markers
// ("Loc 123" / "Page 45"), highlight bodies, continuation segments, and
// "Note:" cues marking handwritten annotations. A small state machine
// (scan / collect body) walks the lines once and produces a Draft: an
// annotation record whose note entries are placeholders, plus the document
// order in which those placeholders were discovered.
package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/brunobiangulo/zettel/annotation"
)

var (
	// markerRe matches a location marker line and captures the numeric key.
	// Lines that merely resemble markers fall through and are treated as
	// ordinary body text.
	markerRe = regexp.MustCompile(`^(?:Loc|Page) (\d+)`)

	// trailingDigitsRe matches the page-number artifact the export leaks
	// into the tail of captured highlight bodies.
	trailingDigitsRe = regexp.MustCompile(`\s+\d+$`)
)

// noteCue is the literal body line signalling a handwritten note.
const noteCue = "Note:"

// Draft is the output of Parse: a record whose note entries have no image
// assigned yet. Assemble resolves them against the unique-image sequence.
type Draft struct {
	record *annotation.Record
	notes  []noteRef
}

// noteRef addresses a note placeholder by location and entry index. Entry
// indices are stable because entries are only ever appended.
type noteRef struct {
	loc string
	idx int
}

// Record exposes the draft's underlying record. Note entries still carry
// empty image paths until Assemble runs.
func (d *Draft) Record() *annotation.Record { return d.record }

// NoteMarkers returns how many note placeholders the parser emitted.
func (d *Draft) NoteMarkers() int { return len(d.notes) }

// Parse runs the state machine over the document's text lines.
func Parse(lines []string) *Draft {
	m := &machine{
		lines:  lines,
		record: annotation.NewRecord(),
	}
	m.scan()
	return &Draft{record: m.record, notes: m.notes}
}

type machine struct {
	lines []string
	pos   int

	record  *annotation.Record
	notes   []noteRef
	lastLoc string
}

// scan is the resting state: it skips blanks, enters collectBody on a
// location marker, and attaches stray "Note:" cues to the last-seen
// location.
func (m *machine) scan() {
	for m.pos < len(m.lines) {
		line := strings.TrimSpace(m.lines[m.pos])
		switch {
		case line == "":
			m.pos++
		case markerRe.MatchString(line):
			loc := markerRe.FindStringSubmatch(line)[1]
			m.lastLoc = loc
			m.record.Ensure(loc)
			m.pos++
			m.collectBody(loc, line)
		case line == noteCue:
			// A note cue outside any body belongs to the location most
			// recently seen. Before the first marker there is nothing to
			// attach it to.
			if m.lastLoc != "" {
				m.emitNote(m.lastLoc)
			} else {
				slog.Debug("parser: note cue before first location marker, dropped")
			}
			m.pos++
		default:
			m.pos++
		}
	}
}

// collectBody accumulates lines until the next location marker or EOF, then
// attaches the body according to the marker that opened it.
func (m *machine) collectBody(loc, marker string) {
	var parts []string
	noteFound := false

	for m.pos < len(m.lines) {
		line := strings.TrimSpace(m.lines[m.pos])
		if markerRe.MatchString(line) {
			break
		}
		if line == noteCue {
			noteFound = true
		} else if line != "" {
			parts = append(parts, line)
		}
		m.pos++
	}

	content := cleanContent(strings.Join(parts, " "))

	// "Continued" takes precedence over the generic "Highlight" match.
	switch {
	case strings.Contains(marker, "Continued"):
		if content != "" {
			m.appendToLastHighlight(loc, content)
		}
		if noteFound {
			m.emitNote(loc)
		}
	case strings.Contains(marker, "Highlight"):
		if content != "" {
			m.record.Append(loc, annotation.Entry{Type: annotation.TypeHighlight, Content: content})
		}
		if noteFound {
			m.emitNote(loc)
		}
	case strings.Contains(marker, "Note") || noteFound:
		// Note-only markers carry no highlight text; whatever was in the
		// body is discarded. The marker and an in-body "Note:" cue together
		// still stand for a single handwritten note.
		m.emitNote(loc)
	}
	// A bare marker registers its key; any body text is discarded.
}

// appendToLastHighlight merges a continuation segment into the most recent
// highlight at loc.
func (m *machine) appendToLastHighlight(loc, content string) {
	entries := m.record.Entries(loc)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type == annotation.TypeHighlight {
			m.record.Entry(loc, i).Content += " " + content
			return
		}
	}
	slog.Debug("parser: continuation without a prior highlight, segment dropped", "loc", loc)
}

func (m *machine) emitNote(loc string) {
	m.record.Append(loc, annotation.Entry{Type: annotation.TypeNote})
	m.notes = append(m.notes, noteRef{loc: loc, idx: len(m.record.Entries(loc)) - 1})
}

// cleanContent strips the trailing run of whitespace-plus-digits that page
// footers leak into captured bodies.
func cleanContent(s string) string {
	return trailingDigitsRe.ReplaceAllString(strings.TrimSpace(s), "")
}
