// Package notes renders the annotation record and organized ideas into
// markdown: one literature note summarizing the reading, and one permanent
// note file per synthesized idea.
package notes

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/brunobiangulo/zettel/annotation"
)

//go:embed templates/*.md.tmpl
var builtin embed.FS

const (
	literatureTemplate = "literature.md.tmpl"
	permanentTemplate  = "permanent.md.tmpl"
)

// Generator renders markdown from parsed templates.
type Generator struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewGenerator parses the built-in templates, or the *.md.tmpl files under
// templateDir when it is non-empty. An override directory must provide both
// the literature and permanent templates.
func NewGenerator(templateDir string) (*Generator, error) {
	var fsys fs.FS
	if templateDir == "" {
		sub, err := fs.Sub(builtin, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		if info, err := os.Stat(templateDir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("template directory not found: %s", templateDir)
		}
		fsys = os.DirFS(templateDir)
	}

	tmpl, err := template.New("notes").Funcs(sprig.TxtFuncMap()).ParseFS(fsys, "*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	for _, name := range []string{literatureTemplate, permanentTemplate} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("missing template %s", name)
		}
	}
	return &Generator{tmpl: tmpl, now: time.Now}, nil
}

type literatureSection struct {
	Location string
	Entries  []annotation.Entry
}

// Literature renders the literature note. It keeps highlight entries and
// note entries whose transcription was classified as a summary; locations
// left with nothing are omitted.
func (g *Generator) Literature(rec *annotation.Record) ([]byte, error) {
	var sections []literatureSection
	for _, loc := range rec.Locations() {
		var kept []annotation.Entry
		for _, e := range rec.Entries(loc) {
			switch {
			case e.IsHighlight():
				kept = append(kept, e)
			case e.IsNote() && e.Transcription != nil && e.Transcription.Type == "summary":
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			sections = append(sections, literatureSection{Location: loc, Entries: kept})
		}
	}

	var buf bytes.Buffer
	err := g.tmpl.ExecuteTemplate(&buf, literatureTemplate, struct {
		Sections []literatureSection
	}{sections})
	if err != nil {
		return nil, fmt.Errorf("rendering literature note: %w", err)
	}
	return buf.Bytes(), nil
}

// Note is one rendered permanent note.
type Note struct {
	Filename string
	Content  []byte
}

type permanentData struct {
	Content     string
	Links       []string
	DateCreated string
	SourceTitle string
}

// PermanentNotes renders one note per idea. The idea's content comes from
// the entry it points at: a note's transcription text, or a highlight's
// content. Ideas pointing at missing or empty entries are skipped, which
// leaves gaps in the file numbering.
func (g *Generator) PermanentNotes(rec *annotation.Record, set annotation.IdeaSet, title string) ([]Note, error) {
	date := g.now().Format("2006-01-02")

	var out []Note
	for i, idea := range set.Ideas {
		loc := idea.Location.String()
		content, ok := ideaContent(rec, loc, idea.Index)
		if !ok {
			slog.Warn("skipping idea with no usable content", "location", loc, "index", idea.Index)
			continue
		}

		links := make([]string, 0, len(idea.Links))
		for _, l := range idea.Links {
			links = append(links, l.RefLocation.String())
		}

		var buf bytes.Buffer
		err := g.tmpl.ExecuteTemplate(&buf, permanentTemplate, permanentData{
			Content:     content,
			Links:       links,
			DateCreated: date,
			SourceTitle: title,
		})
		if err != nil {
			return nil, fmt.Errorf("rendering permanent note %d: %w", i+1, err)
		}
		out = append(out, Note{Filename: set.Filename(i), Content: buf.Bytes()})
	}
	return out, nil
}

func ideaContent(rec *annotation.Record, loc string, idx int) (string, bool) {
	e := rec.Entry(loc, idx)
	if e == nil {
		return "", false
	}
	switch {
	case e.IsNote() && e.Transcription != nil && e.Transcription.Text != "":
		return e.Transcription.Text, true
	case e.IsHighlight() && e.Content != "":
		return e.Content, true
	}
	return "", false
}
