// Package annotation defines the structured record of reading annotations
// recovered from an e-reader export: highlights and handwritten-note
// references, keyed by location marker in first-appearance order.
package annotation

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Type discriminates annotation entry variants.
type Type string

const (
	// TypeHighlight is a text annotation tied to a location.
	TypeHighlight Type = "highlight"

	// TypeNote is a reference to a unique handwritten-note image.
	TypeNote Type = "note"
)

// Entry is a single annotation at a location: either a highlight carrying
// text, or a note carrying an image reference.
type Entry struct {
	Type      Type   `json:"type"`
	Content   string `json:"content,omitempty"`
	ImagePath string `json:"image_path,omitempty"`

	// Transcription is attached by the transcription stage for note entries.
	Transcription *Transcription `json:"transcription,omitempty"`
}

// IsHighlight reports whether e is a highlight entry.
func (e Entry) IsHighlight() bool { return e.Type == TypeHighlight }

// IsNote reports whether e is a note entry.
func (e Entry) IsNote() bool { return e.Type == TypeNote }

// Transcription is the payload returned by the vision transcriber for one
// note image. The wire shape is a single object with "type" and
// "transcription" keys; failed transcriptions carry only "error".
type Transcription struct {
	Type  string `json:"type,omitempty"`
	Text  string `json:"transcription,omitempty"`
	Error string `json:"error,omitempty"`
}

// Record maps location keys to ordered entry lists. Iteration and JSON
// serialization follow first-appearance order of the keys, not numeric order.
// The zero value is not usable; call NewRecord.
type Record struct {
	m *orderedmap.OrderedMap[string, []Entry]
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{m: orderedmap.New[string, []Entry]()}
}

// Ensure registers loc with an empty entry list if it has not been seen yet,
// fixing its position in the key order.
func (r *Record) Ensure(loc string) {
	if _, ok := r.m.Get(loc); !ok {
		r.m.Set(loc, []Entry{})
	}
}

// Append adds e at the end of loc's entry list, registering loc if needed.
func (r *Record) Append(loc string, e Entry) {
	entries, _ := r.m.Get(loc)
	r.m.Set(loc, append(entries, e))
}

// Entries returns the entry list for loc, or nil if loc is unknown.
func (r *Record) Entries(loc string) []Entry {
	entries, _ := r.m.Get(loc)
	return entries
}

// SetEntries replaces loc's entry list. The key keeps its original position.
func (r *Record) SetEntries(loc string, entries []Entry) {
	r.m.Set(loc, entries)
}

// Entry returns a pointer to the i-th entry at loc for in-place mutation,
// or nil if out of range. The pointer is invalidated by a later Append to
// the same location.
func (r *Record) Entry(loc string, i int) *Entry {
	entries, ok := r.m.Get(loc)
	if !ok || i < 0 || i >= len(entries) {
		return nil
	}
	return &entries[i]
}

// Locations returns the location keys in first-appearance order.
func (r *Record) Locations() []string {
	locs := make([]string, 0, r.m.Len())
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		locs = append(locs, pair.Key)
	}
	return locs
}

// Len returns the number of location keys.
func (r *Record) Len() int { return r.m.Len() }

// Range calls fn for each location in order, stopping early if fn returns
// false. The entries slice must not be retained across Appends.
func (r *Record) Range(fn func(loc string, entries []Entry) bool) {
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// MarshalJSON serializes the record as an object whose keys appear in
// first-appearance order. The output is the pipeline's persisted
// intermediate form and must stay stable across versions.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.m)
}

// UnmarshalJSON reloads a persisted record, preserving key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, []Entry]()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	r.m = m
	return nil
}
