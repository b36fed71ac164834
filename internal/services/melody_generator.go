package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/versecraft/melodia-api/internal/llm"
	"github.com/versecraft/melodia-api/internal/logger"
	"github.com/versecraft/melodia-api/internal/models"
	"github.com/versecraft/melodia-api/internal/prompt"
)

// MelodyGenerator orchestrates melody generation: it sizes the generation to
// the analyzed syllable count, chunks long lyrics, and falls back to the
// deterministic generator whenever the model path fails recoverably. Only
// fatal invocation errors (bad credentials, unknown model) make it fail.
type MelodyGenerator struct {
	invoker     *llm.Invoker
	builder     *prompt.Builder
	fallback    *FallbackGenerator
	coordinator *ChunkCoordinator
	settings    GenerationSettings

	// chunkingThreshold is the syllable count above which generation is
	// split across multiple calls.
	chunkingThreshold int
}

// NewMelodyGenerator creates a melody generator
func NewMelodyGenerator(invoker *llm.Invoker, settings GenerationSettings, chunkingThreshold, maxNotesPerChunk int) *MelodyGenerator {
	return &MelodyGenerator{
		invoker:           invoker,
		builder:           prompt.NewPromptBuilder(),
		fallback:          NewFallbackGenerator(),
		coordinator:       NewChunkCoordinator(maxNotesPerChunk),
		settings:          settings,
		chunkingThreshold: chunkingThreshold,
	}
}

// Generate produces the final melody for the lyrics. Tempo and time
// signature always come from the emotion analysis, even when the notes come
// from the fallback path.
func (g *MelodyGenerator) Generate(ctx context.Context, lyrics string, analysis *models.EmotionAnalysis) (*models.Melody, error) {
	if analysis == nil {
		return nil, fmt.Errorf("emotion analysis is required")
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid emotion analysis: %w", err)
	}

	totalSyllables := analysis.TotalSyllables()

	var fragment *models.MelodyFragment
	var fallbackUsed bool
	var err error

	if totalSyllables > g.chunkingThreshold {
		logger.Info("Using chunked melody generation", logger.Fields{
			"total_syllables": totalSyllables,
			"threshold":       g.chunkingThreshold,
		})
		fragment, fallbackUsed, err = g.coordinator.GenerateChunked(ctx, analysis, func(ctx context.Context, chunkLyrics string, syllables int, previous []models.Note) (*models.MelodyFragment, bool, error) {
			return g.generateFragment(ctx, chunkLyrics, analysis, syllables, previous)
		})
	} else {
		logger.Info("Using single-call melody generation", logger.Fields{
			"total_syllables": totalSyllables,
		})
		fragment, fallbackUsed, err = g.generateFragment(ctx, lyrics, analysis, totalSyllables, nil)
	}
	if err != nil {
		return nil, err
	}

	melody := g.buildMelody(fragment, analysis, fallbackUsed)
	logger.Info("Melody generation complete", logger.Fields{
		"melody_id":     melody.ID,
		"key":           melody.Key,
		"notes":         melody.NoteCount(),
		"fallback_used": melody.FallbackUsed,
	})
	return melody, nil
}

// generateFragment runs one model call for a stretch of lyrics and falls
// back to the contour generator when the call or extraction fails
// recoverably.
func (g *MelodyGenerator) generateFragment(ctx context.Context, lyrics string, analysis *models.EmotionAnalysis, syllables int, previous []models.Note) (*models.MelodyFragment, bool, error) {
	system, err := g.builder.BuildSystemPrompt()
	if err != nil {
		return nil, false, err
	}
	userPrompt, err := g.builder.BuildMelodyPrompt(prompt.MelodyPromptParams{
		Emotion:        analysis.Emotion,
		Tempo:          analysis.Tempo,
		TimeSignature:  analysis.TimeSignature,
		TotalSyllables: syllables,
		Lyrics:         lyrics,
		PreviousNotes:  previous,
	})
	if err != nil {
		return nil, false, err
	}

	raw, err := g.invoker.Invoke(ctx, &llm.GenerationRequest{
		Model: g.settings.Model,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: userPrompt},
		},
		Temperature:  g.settings.Temperature,
		MaxTokens:    g.settings.MaxTokens,
		OutputSchema: llm.MelodySchema(),
	})
	if err != nil {
		if !llm.IsRetryable(err) {
			return nil, false, err
		}
		logger.Warn("Melody call failed, using fallback generator", logger.Fields{
			"error":     err.Error(),
			"syllables": syllables,
		})
		return g.fallbackFragment(analysis.Emotion, syllables)
	}

	fragment, err := llm.ExtractMelodyFragment(raw)
	if err != nil {
		logger.Warn("Melody response unusable, using fallback generator", logger.Fields{
			"error":     err.Error(),
			"syllables": syllables,
		})
		return g.fallbackFragment(analysis.Emotion, syllables)
	}

	return fragment, false, nil
}

func (g *MelodyGenerator) fallbackFragment(emotion string, syllables int) (*models.MelodyFragment, bool, error) {
	fragment, err := g.fallback.Generate(emotion, syllables)
	if err != nil {
		return nil, false, err
	}
	return fragment, true, nil
}

// buildMelody places fragment notes on the timeline with running offsets
func (g *MelodyGenerator) buildMelody(fragment *models.MelodyFragment, analysis *models.EmotionAnalysis, fallbackUsed bool) *models.Melody {
	notes := make([]models.NoteEvent, 0, len(fragment.Notes))
	offset := 0.0
	for _, note := range fragment.Notes {
		notes = append(notes, models.NoteEvent{
			Pitch:    note.Pitch,
			Duration: note.Duration,
			Velocity: note.Velocity,
			Offset:   offset,
		})
		offset += note.Duration
	}

	return &models.Melody{
		ID:            uuid.New().String(),
		Key:           fragment.Key,
		Tempo:         analysis.Tempo,
		TimeSignature: analysis.TimeSignature,
		Notes:         notes,
		FallbackUsed:  fallbackUsed,
	}
}
