package prompt

import (
	"strings"

	"github.com/versecraft/melodia-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the composer system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetMelodyPrompt loads the melody generation prompt template
func (l *Loader) GetMelodyPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.MelodyPromptTxt)), nil
}

// GetEmotionPrompt loads the emotion analysis prompt template
func (l *Loader) GetEmotionPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.EmotionPromptTxt)), nil
}

// GetContinuationContext loads the chunk continuation context template
func (l *Loader) GetContinuationContext() (string, error) {
	return strings.TrimSpace(string(embedded.ContinuationContextTxt)), nil
}
