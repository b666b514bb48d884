// Package zettel turns an annotated e-reader PDF export into a Zettelkasten:
// it recovers highlights and handwritten-note images from the PDF,
// transcribes the notes with a vision model, asks a chat model to organize
// the annotations into linked ideas, and renders the result as markdown.
//
// The pipeline runs in four stages. Each stage persists its result as a JSON
// artifact in the output directory, so later stages can be re-run on their
// own from the saved artifacts.
package zettel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/zettel/annotation"
	"github.com/brunobiangulo/zettel/extract"
	"github.com/brunobiangulo/zettel/llm"
	"github.com/brunobiangulo/zettel/notes"
	"github.com/brunobiangulo/zettel/parser"
)

// Pipeline orchestrates the four stages. Create one with New.
type Pipeline struct {
	cfg    Config
	vision llm.Provider
	chat   llm.Provider
	gen    *notes.Generator
}

// New validates cfg, connects the LLM providers, and prepares the output
// directory. When no chat provider is configured, organization reuses the
// vision provider.
func New(cfg Config) (*Pipeline, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultConfig().OutputDir
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}

	vision, err := llm.NewProvider(cfg.Vision)
	if err != nil {
		return nil, fmt.Errorf("vision provider: %w", err)
	}
	chat := vision
	if cfg.Chat.Provider != "" {
		chat, err = llm.NewProvider(cfg.Chat)
		if err != nil {
			return nil, fmt.Errorf("chat provider: %w", err)
		}
	}

	gen, err := notes.NewGenerator(cfg.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTemplates, err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, vision: vision, chat: chat, gen: gen}, nil
}

// Run executes the full pipeline on pdfPath.
func (p *Pipeline) Run(ctx context.Context, pdfPath string) error {
	rec, err := p.Parse(pdfPath)
	if err != nil {
		return err
	}
	if err := p.Transcribe(ctx, rec); err != nil {
		return err
	}
	set, err := p.Organize(ctx, rec)
	if err != nil {
		return err
	}
	return p.Generate(rec, set)
}

// Parse extracts text and note images from the PDF and builds the structured
// annotation record, saved as the first stage artifact.
func (p *Pipeline) Parse(pdfPath string) (*annotation.Record, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if ext := strings.ToLower(filepath.Ext(pdfPath)); ext != ".pdf" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, pdfPath)
	}

	slog.Info("parsing annotation export", "path", pdfPath)

	text, err := extract.Text(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	images, err := extract.Images(pdfPath, p.cfg.imageDir())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	draft := parser.Parse(extract.Lines(text))
	rec, warnings := parser.Assemble(draft, extract.Paths(images))
	for _, w := range warnings {
		slog.Warn("note placeholder had no image", "location", w.Location)
	}
	slog.Info("parsed annotations", "locations", rec.Len(), "images", len(images))

	if err := saveJSON(p.cfg.structuredPath(), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Transcribe fills in transcriptions for every note entry that does not have
// one yet, mutating rec in place and saving the second stage artifact.
// Per-note failures are recorded on the entry rather than aborting the run.
func (p *Pipeline) Transcribe(ctx context.Context, rec *annotation.Record) error {
	type target struct {
		loc string
		idx int
	}
	var targets []target
	rec.Range(func(loc string, entries []annotation.Entry) bool {
		for i, e := range entries {
			if e.IsNote() && e.Transcription == nil {
				targets = append(targets, target{loc, i})
			}
		}
		return true
	})
	slog.Info("transcribing notes", "count", len(targets))

	for n, t := range targets {
		// On cancellation, stop without touching the remaining entries so a
		// re-run picks them up.
		if err := ctx.Err(); err != nil {
			return err
		}
		e := rec.Entry(t.loc, t.idx)
		slog.Info("transcribing note", "n", n+1, "of", len(targets), "location", t.loc)
		tr := p.transcribeImage(ctx, e.ImagePath)
		if tr == nil {
			return ctx.Err()
		}
		e.Transcription = tr
		if tr.Error != "" {
			slog.Warn("transcription failed", "location", t.loc, "error", tr.Error)
		}
	}

	return saveJSON(p.cfg.transcribedPath(), rec)
}

// transcribeImage returns the transcription payload for one note image, or
// nil when ctx was canceled mid-attempt.
func (p *Pipeline) transcribeImage(ctx context.Context, imagePath string) *annotation.Transcription {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return &annotation.Transcription{Error: "Image file not found."}
	}
	dataURL := "data:" + mimeFromExt(imagePath) + ";base64," + base64.StdEncoding.EncodeToString(data)

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			slog.Warn("retrying transcription", "attempt", attempt, "error", lastErr)
		}
		resp, err := p.vision.ChatWithImages(ctx, llm.VisionChatRequest{
			Messages:       []llm.VisionMessage{llm.TextAndImage(p.cfg.transcriptionPrompt(), dataURL)},
			ResponseFormat: "json_object",
		})
		if err != nil {
			// A canceled context is not a transcription failure; signal the
			// caller to stop instead of recording an error payload.
			if ctx.Err() != nil {
				return nil
			}
			lastErr = err
			continue
		}

		var tr annotation.Transcription
		if err := json.Unmarshal([]byte(resp.Content), &tr); err != nil {
			lastErr = fmt.Errorf("decoding transcription: %w", err)
			continue
		}
		if tr.Text == "" {
			lastErr = fmt.Errorf("transcription payload missing text: %s", resp.Content)
			continue
		}
		tr.Error = ""
		return &tr
	}
	return &annotation.Transcription{
		Error: fmt.Sprintf("Failed after %d attempts. Last error: %v", p.cfg.MaxRetries, lastErr),
	}
}

// Organize sends the transcribed record to the chat model and decodes the
// returned idea set, saved as the third stage artifact.
func (p *Pipeline) Organize(ctx context.Context, rec *annotation.Record) (*annotation.IdeaSet, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	slog.Info("organizing ideas", "locations", rec.Len())
	resp, err := p.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: p.cfg.organizationPrompt()},
			{Role: "user", Content: string(payload)},
		},
		ResponseFormat: "json_object",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}

	var set annotation.IdeaSet
	if err := json.Unmarshal([]byte(resp.Content), &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	slog.Info("organized ideas", "count", len(set.Ideas))

	if err := saveJSON(p.cfg.organizedPath(), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Generate renders the literature note and the permanent notes to the output
// directory. A document title is required: permanent notes reference their
// source by it.
func (p *Pipeline) Generate(rec *annotation.Record, set *annotation.IdeaSet) error {
	if p.cfg.Title == "" {
		return ErrMissingTitle
	}

	lit, err := p.gen.Literature(rec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.cfg.literaturePath(), lit, 0o644); err != nil {
		return err
	}
	slog.Info("wrote literature note", "path", p.cfg.literaturePath())

	perm, err := p.gen.PermanentNotes(rec, *set, p.cfg.Title)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.permanentDir(), 0o755); err != nil {
		return err
	}
	for _, n := range perm {
		if err := os.WriteFile(filepath.Join(p.cfg.permanentDir(), n.Filename), n.Content, 0o644); err != nil {
			return err
		}
	}
	slog.Info("wrote permanent notes", "count", len(perm), "dir", p.cfg.permanentDir())
	return nil
}

// LoadStructured reloads the parse stage artifact, for running the later
// stages without re-parsing the PDF.
func (p *Pipeline) LoadStructured() (*annotation.Record, error) {
	return loadRecord(p.cfg.structuredPath())
}

// LoadTranscribed reloads the transcription stage artifact.
func (p *Pipeline) LoadTranscribed() (*annotation.Record, error) {
	return loadRecord(p.cfg.transcribedPath())
}

// LoadOrganized reloads the organization stage artifact.
func (p *Pipeline) LoadOrganized() (*annotation.IdeaSet, error) {
	data, err := readArtifact(p.cfg.organizedPath())
	if err != nil {
		return nil, err
	}
	var set annotation.IdeaSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p.cfg.organizedPath(), err)
	}
	return &set, nil
}

func loadRecord(path string) (*annotation.Record, error) {
	data, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	rec := annotation.NewRecord()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return rec, nil
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (run the earlier stages first)", ErrStageArtifactMissing, path)
	}
	return data, err
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	slog.Info("saving artifact", "path", path)
	return os.WriteFile(path, data, 0o644)
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}
