package models

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Tempo constraints in BPM
	TempoMin = 40
	TempoMax = 200

	// Velocity constraints
	VelocityMin     = 0
	VelocityMax     = 127
	VelocityDefault = 64

	// DefaultTimeSignature is used when an analysis carries an unknown signature
	DefaultTimeSignature = "4/4"
)

// validTimeSignatures is the accepted set; anything else snaps to the default.
var validTimeSignatures = map[string]bool{
	"4/4": true,
	"3/4": true,
	"6/8": true,
	"2/4": true,
	"5/4": true,
	"7/8": true,
}

// pitchPattern matches a note letter, an optional accidental and an octave
// digit, e.g. "C4", "F#5", "Bb3".
var pitchPattern = regexp.MustCompile(`^[A-Ga-g][#b]?[0-8]$`)

// PhraseAnalysis is a single lyric line with its estimated syllable count.
// Produced by the lyric analyzer and immutable afterwards.
type PhraseAnalysis struct {
	Line      string `json:"line" binding:"required"`
	Syllables int    `json:"syllables" binding:"required,min=1"`
}

// Validate checks the phrase invariants.
func (p *PhraseAnalysis) Validate() error {
	if strings.TrimSpace(p.Line) == "" {
		return fmt.Errorf("phrase line cannot be empty")
	}
	if p.Syllables < 1 {
		return fmt.Errorf("phrase syllables must be >= 1, got %d", p.Syllables)
	}
	return nil
}

// EmotionAnalysis is the emotion and rhythm breakdown of a lyric text.
// It sizes melody generation: total syllables = total notes.
type EmotionAnalysis struct {
	Emotion       string           `json:"emotion"`
	Tempo         int              `json:"tempo"`
	TimeSignature string           `json:"time_signature"`
	Phrases       []PhraseAnalysis `json:"phrases"`
}

// Normalize lowercases the emotion label and snaps an out-of-set time
// signature to the default rather than rejecting it.
func (e *EmotionAnalysis) Normalize() {
	e.Emotion = strings.ToLower(strings.TrimSpace(e.Emotion))
	if !validTimeSignatures[e.TimeSignature] {
		e.TimeSignature = DefaultTimeSignature
	}
}

// Validate checks the analysis invariants after normalization.
func (e *EmotionAnalysis) Validate() error {
	if e.Emotion == "" {
		return fmt.Errorf("emotion cannot be empty")
	}
	if e.Tempo < TempoMin || e.Tempo > TempoMax {
		return fmt.Errorf("tempo must be between %d and %d BPM, got %d", TempoMin, TempoMax, e.Tempo)
	}
	if len(e.Phrases) == 0 {
		return fmt.Errorf("analysis must contain at least one phrase")
	}
	for i := range e.Phrases {
		if err := e.Phrases[i].Validate(); err != nil {
			return fmt.Errorf("phrase %d: %w", i, err)
		}
	}
	return nil
}

// TotalSyllables sums syllables across all phrases.
func (e *EmotionAnalysis) TotalSyllables() int {
	total := 0
	for i := range e.Phrases {
		total += e.Phrases[i].Syllables
	}
	return total
}

// Note is a single generated note: pitch with octave, duration in beats and
// MIDI velocity. Produced by the model path or the fallback generator.
type Note struct {
	Pitch    string  `json:"note"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
}

// Validate checks the note invariants.
func (n *Note) Validate() error {
	if !pitchPattern.MatchString(n.Pitch) {
		return fmt.Errorf("invalid pitch %q (expected letter + optional accidental + octave, e.g. C4)", n.Pitch)
	}
	if n.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", n.Duration)
	}
	if n.Velocity < VelocityMin || n.Velocity > VelocityMax {
		return fmt.Errorf("velocity must be between %d and %d, got %d", VelocityMin, VelocityMax, n.Velocity)
	}
	return nil
}

// MelodyFragment is the per-call unit of generated note data: a key plus an
// ordered note sequence. Fragments are merged into the final Melody.
type MelodyFragment struct {
	Key   string `json:"key"`
	Notes []Note `json:"melody"`
}

// Validate checks the fragment invariants.
func (f *MelodyFragment) Validate() error {
	if strings.TrimSpace(f.Key) == "" {
		return fmt.Errorf("fragment key cannot be empty")
	}
	if len(f.Notes) == 0 {
		return fmt.Errorf("fragment must contain at least one note")
	}
	for i := range f.Notes {
		if err := f.Notes[i].Validate(); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
	}
	return nil
}

// NoteCount returns the number of notes in the fragment.
func (f *MelodyFragment) NoteCount() int {
	return len(f.Notes)
}

// NoteEvent is a note placed on the timeline of the final melody.
type NoteEvent struct {
	Pitch    string  `json:"pitch"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
	Offset   float64 `json:"offset"` // Start offset in beats from melody start
}

// Melody is the final internal representation handed to notation writers.
// It is owned by the orchestrator after assembly and read-only downstream.
type Melody struct {
	ID            string      `json:"id"`
	Key           string      `json:"key"`
	Tempo         int         `json:"tempo"`
	TimeSignature string      `json:"time_signature"`
	Notes         []NoteEvent `json:"notes"`
	Title         string      `json:"title"`
	FallbackUsed  bool        `json:"fallback_used"` // True when any part came from the deterministic fallback
}

// NoteCount returns the number of notes in the melody.
func (m *Melody) NoteCount() int {
	return len(m.Notes)
}

// TotalDuration returns the melody length in beats.
func (m *Melody) TotalDuration() float64 {
	total := 0.0
	for i := range m.Notes {
		total += m.Notes[i].Duration
	}
	return total
}
