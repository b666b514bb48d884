package zettel

import "errors"

var (
	// ErrSourceUnreadable is returned when the annotated PDF cannot be opened.
	ErrSourceUnreadable = errors.New("zettel: source document unreadable")

	// ErrUnsupportedFormat is returned for inputs that are not PDF files.
	ErrUnsupportedFormat = errors.New("zettel: unsupported document format")

	// ErrExtractionFailed is returned when text or image extraction fails
	// partway through a document.
	ErrExtractionFailed = errors.New("zettel: extraction failed")

	// ErrLLMRequestFailed is returned when a transcription or organization
	// request fails after all retries.
	ErrLLMRequestFailed = errors.New("zettel: llm request failed")

	// ErrMalformedResponse is returned when the LLM returns a payload that
	// cannot be decoded into the expected shape.
	ErrMalformedResponse = errors.New("zettel: malformed llm response")

	// ErrNoTemplates is returned when a note template cannot be loaded.
	ErrNoTemplates = errors.New("zettel: note templates not found")

	// ErrMissingTitle is returned when note generation runs without a
	// document title.
	ErrMissingTitle = errors.New("zettel: document title required for note generation")

	// ErrStageArtifactMissing is returned when a standalone stage is asked to
	// reload a prior stage's output that does not exist.
	ErrStageArtifactMissing = errors.New("zettel: stage artifact missing")
)
