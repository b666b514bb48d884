package zettel

import (
	"path/filepath"

	"github.com/brunobiangulo/zettel/llm"
)

// Config holds all configuration for the annotation pipeline.
type Config struct {
	// OutputDir is the root directory for all pipeline artifacts.
	// Defaults to "zettel_output".
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ImageDir overrides the directory for extracted note images.
	// If empty, defaults to <OutputDir>/images. The directory is cleared
	// at the start of every parse run.
	ImageDir string `json:"image_dir" yaml:"image_dir"`

	// TemplateDir is an optional directory of note templates overriding the
	// embedded defaults.
	TemplateDir string `json:"template_dir" yaml:"template_dir"`

	// Title of the source document, used in generated permanent notes.
	Title string `json:"title" yaml:"title"`

	// LLM providers. Vision handles handwritten-note transcription;
	// Chat handles idea organization. Chat falls back to Vision when unset.
	Vision llm.Config `json:"vision" yaml:"vision"`
	Chat   llm.Config `json:"chat" yaml:"chat"`

	// MaxRetries bounds transcription attempts per note image (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// TranscriptionPrompt and OrganizationPrompt override the built-in
	// prompts when non-empty.
	TranscriptionPrompt string `json:"transcription_prompt" yaml:"transcription_prompt"`
	OrganizationPrompt  string `json:"organization_prompt" yaml:"organization_prompt"`
}

// DefaultConfig returns a Config with the defaults the CLI uses.
func DefaultConfig() Config {
	return Config{
		OutputDir: "zettel_output",
		Vision: llm.Config{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Chat: llm.Config{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		MaxRetries: 3,
	}
}

// Artifact filenames inside OutputDir. Stages write these so that later
// stages can be re-run without repeating extraction.
const (
	structuredFile  = "1_structured_annotations.json"
	transcribedFile = "2_transcribed_annotations.json"
	organizedFile   = "3_organized_ideas.json"
	literatureFile  = "literature_note.md"
	permanentDir    = "permanent_notes"
)

func (c *Config) imageDir() string {
	if c.ImageDir != "" {
		return c.ImageDir
	}
	return filepath.Join(c.OutputDir, "images")
}

func (c *Config) structuredPath() string  { return filepath.Join(c.OutputDir, structuredFile) }
func (c *Config) transcribedPath() string { return filepath.Join(c.OutputDir, transcribedFile) }
func (c *Config) organizedPath() string   { return filepath.Join(c.OutputDir, organizedFile) }
func (c *Config) literaturePath() string  { return filepath.Join(c.OutputDir, literatureFile) }
func (c *Config) permanentDir() string    { return filepath.Join(c.OutputDir, permanentDir) }
