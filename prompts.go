package zettel

// Built-in prompts. Both request JSON mode so responses decode directly
// into the annotation types.

const defaultTranscriptionPrompt = `You are transcribing a photographed handwritten reading note.

Transcribe the handwriting in the image exactly, fixing only obvious letter-level ambiguity. Then classify the note: use "summary" if it restates or condenses what the book says, and "idea" if it records the reader's own thought.

Respond with a JSON object of this exact shape:
{"type": "<summary|idea>", "transcription": "<the transcribed text>"}`

const defaultOrganizationPrompt = `You are organizing reading annotations into a Zettelkasten.

You will receive a JSON object mapping location keys to lists of annotations. Each annotation is a highlight with "content" or a note with a "transcription". Identify the distinct ideas worth keeping as permanent notes. Anchor each idea at the annotation that best expresses it, and link it to other locations that support or relate to it.

Respond with a JSON object of this exact shape:
{"ideas": [{"idea_location": "<location key>", "idea_index": <entry index within that location>, "links": [{"ref_location": "<location key>"}]}]}

Every idea_location and ref_location must be a key from the input. Do not invent locations.`

func (c *Config) transcriptionPrompt() string {
	if c.TranscriptionPrompt != "" {
		return c.TranscriptionPrompt
	}
	return defaultTranscriptionPrompt
}

func (c *Config) organizationPrompt() string {
	if c.OrganizationPrompt != "" {
		return c.OrganizationPrompt
	}
	return defaultOrganizationPrompt
}
