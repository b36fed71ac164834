package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetSystemPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetSystemPrompt()

	if err != nil {
		t.Fatalf("GetSystemPrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetSystemPrompt() returned empty string")
	}

	// Check for expected content
	if !strings.Contains(content, "music composer") {
		t.Error("GetSystemPrompt() does not contain expected content")
	}
}

func TestGetMelodyPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetMelodyPrompt()

	if err != nil {
		t.Fatalf("GetMelodyPrompt() returned error: %v", err)
	}

	// The template must keep its placeholders for the builder
	for _, placeholder := range []string{"{emotion}", "{tempo}", "{time_signature}", "{total_syllables}", "{lyrics}"} {
		if !strings.Contains(content, placeholder) {
			t.Errorf("GetMelodyPrompt() missing placeholder %s", placeholder)
		}
	}

	if !strings.Contains(content, "JSON") {
		t.Error("GetMelodyPrompt() does not describe the JSON output shape")
	}
}

func TestGetEmotionPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetEmotionPrompt()

	if err != nil {
		t.Fatalf("GetEmotionPrompt() returned error: %v", err)
	}

	if !strings.Contains(content, "{lyrics}") {
		t.Error("GetEmotionPrompt() missing {lyrics} placeholder")
	}

	if !strings.Contains(content, "time_signature") {
		t.Error("GetEmotionPrompt() does not describe the expected fields")
	}
}

func TestGetContinuationContext(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetContinuationContext()

	if err != nil {
		t.Fatalf("GetContinuationContext() returned error: %v", err)
	}

	if !strings.Contains(content, "{previous_notes}") {
		t.Error("GetContinuationContext() missing {previous_notes} placeholder")
	}
}
