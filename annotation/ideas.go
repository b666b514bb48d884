package annotation

import (
	"encoding/json"
	"fmt"
)

// IdeaSet is the organization result: higher-level ideas assembled from
// annotations, each anchored at a location and cross-linked to supporting
// locations.
type IdeaSet struct {
	Ideas []Idea `json:"ideas"`
}

// Idea is one synthesized idea. Location names the anchoring annotation key
// and Index picks the entry within it.
type Idea struct {
	Location flexString `json:"idea_location"`
	Index    int        `json:"idea_index"`
	Links    []Link     `json:"links,omitempty"`
}

// Link references another location supporting an idea.
type Link struct {
	RefLocation flexString `json:"ref_location"`
}

// flexString decodes from either a JSON string or a JSON number. Models
// asked for location keys sometimes return them as bare numbers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty location value")
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("location must be a string or number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

func (s flexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// String returns the location key as stored in a Record.
func (s flexString) String() string { return string(s) }

// Filename returns the markdown file name for the idea's permanent note,
// derived from its position in the set.
func (set IdeaSet) Filename(i int) string {
	return fmt.Sprintf("idea_%03d.md", i+1)
}
