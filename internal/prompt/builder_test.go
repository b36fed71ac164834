package prompt

import (
	"strings"
	"testing"

	"github.com/versecraft/melodia-api/internal/models"
)

func TestBuildMelodyPrompt(t *testing.T) {
	builder := NewPromptBuilder()

	built, err := builder.BuildMelodyPrompt(MelodyPromptParams{
		Emotion:        "hopeful",
		Tempo:          100,
		TimeSignature:  "4/4",
		TotalSyllables: 12,
		Lyrics:         "walking down the morning road",
	})
	if err != nil {
		t.Fatalf("BuildMelodyPrompt() returned error: %v", err)
	}

	for _, want := range []string{"hopeful", "100 BPM", "4/4", "walking down the morning road"} {
		if !strings.Contains(built, want) {
			t.Errorf("BuildMelodyPrompt() missing %q", want)
		}
	}

	if strings.Contains(built, "{emotion}") || strings.Contains(built, "{lyrics}") {
		t.Error("BuildMelodyPrompt() left placeholders unfilled")
	}

	if strings.Contains(built, "continues an earlier passage") {
		t.Error("BuildMelodyPrompt() added continuation context without previous notes")
	}
}

func TestBuildMelodyPromptWithPreviousNotes(t *testing.T) {
	builder := NewPromptBuilder()

	built, err := builder.BuildMelodyPrompt(MelodyPromptParams{
		Emotion:        "sad",
		Tempo:          70,
		TimeSignature:  "3/4",
		TotalSyllables: 8,
		Lyrics:         "and the rain keeps falling",
		PreviousNotes: []models.Note{
			{Pitch: "A3", Duration: 0.5, Velocity: 60},
			{Pitch: "G3", Duration: 1.0, Velocity: 62},
			{Pitch: "E3", Duration: 2.0, Velocity: 58},
		},
	})
	if err != nil {
		t.Fatalf("BuildMelodyPrompt() returned error: %v", err)
	}

	if !strings.Contains(built, "continues an earlier passage") {
		t.Error("BuildMelodyPrompt() missing continuation context")
	}

	for _, pitch := range []string{"A3", "G3", "E3"} {
		if !strings.Contains(built, pitch) {
			t.Errorf("BuildMelodyPrompt() continuation missing note %s", pitch)
		}
	}

	if strings.Contains(built, "{previous_notes}") {
		t.Error("BuildMelodyPrompt() left {previous_notes} unfilled")
	}
}

func TestBuildEmotionPrompt(t *testing.T) {
	builder := NewPromptBuilder()

	built, err := builder.BuildEmotionPrompt("city lights are calling me home")
	if err != nil {
		t.Fatalf("BuildEmotionPrompt() returned error: %v", err)
	}

	if !strings.Contains(built, "city lights are calling me home") {
		t.Error("BuildEmotionPrompt() missing lyrics")
	}

	if strings.Contains(built, "{lyrics}") {
		t.Error("BuildEmotionPrompt() left {lyrics} unfilled")
	}
}
