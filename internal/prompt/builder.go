package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/versecraft/melodia-api/internal/models"
)

// MelodyPromptParams carries everything the melody prompt template needs.
type MelodyPromptParams struct {
	Emotion        string
	Tempo          int
	TimeSignature  string
	TotalSyllables int
	Lyrics         string

	// PreviousNotes is the tail of the preceding chunk, used to keep a
	// chunked melody continuous. Empty for the first (or only) chunk.
	PreviousNotes []models.Note
}

// Builder fills prompt templates with generation parameters
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{
		loader: NewPromptLoader(),
	}
}

// BuildSystemPrompt returns the composer system prompt
func (b *Builder) BuildSystemPrompt() (string, error) {
	return b.loader.GetSystemPrompt()
}

// BuildMelodyPrompt builds the melody generation prompt for one chunk of
// lyrics. When PreviousNotes is non-empty, a continuation section is appended
// so the model picks up where the previous chunk ended.
func (b *Builder) BuildMelodyPrompt(params MelodyPromptParams) (string, error) {
	template, err := b.loader.GetMelodyPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to load melody prompt: %w", err)
	}

	replacer := strings.NewReplacer(
		"{emotion}", params.Emotion,
		"{tempo}", strconv.Itoa(params.Tempo),
		"{time_signature}", params.TimeSignature,
		"{total_syllables}", strconv.Itoa(params.TotalSyllables),
		"{lyrics}", params.Lyrics,
	)
	built := replacer.Replace(template)

	if len(params.PreviousNotes) > 0 {
		continuation, err := b.buildContinuationContext(params.PreviousNotes)
		if err != nil {
			return "", err
		}
		built = built + "\n\n" + continuation
	}

	return built, nil
}

// BuildEmotionPrompt builds the emotion analysis prompt for the given lyrics
func (b *Builder) BuildEmotionPrompt(lyrics string) (string, error) {
	template, err := b.loader.GetEmotionPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to load emotion prompt: %w", err)
	}

	return strings.Replace(template, "{lyrics}", lyrics, 1), nil
}

// buildContinuationContext renders the tail notes of the previous chunk
func (b *Builder) buildContinuationContext(previous []models.Note) (string, error) {
	template, err := b.loader.GetContinuationContext()
	if err != nil {
		return "", fmt.Errorf("failed to load continuation context: %w", err)
	}

	rendered := make([]string, 0, len(previous))
	for _, note := range previous {
		rendered = append(rendered, fmt.Sprintf("%s (%.2g beats, velocity %d)", note.Pitch, note.Duration, note.Velocity))
	}

	return strings.Replace(template, "{previous_notes}", strings.Join(rendered, ", "), 1), nil
}
