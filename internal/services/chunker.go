package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/versecraft/melodia-api/internal/logger"
	"github.com/versecraft/melodia-api/internal/models"
)

// contextNoteWindow is how many trailing notes of a chunk are handed to the
// next chunk's prompt as continuity context.
const contextNoteWindow = 3

// fragmentFunc generates one melody fragment for a chunk of lyrics. The bool
// reports whether the fallback path produced the fragment.
type fragmentFunc func(ctx context.Context, lyrics string, syllables int, previous []models.Note) (*models.MelodyFragment, bool, error)

// ChunkCoordinator splits long lyrics into syllable-bounded chunks, generates
// each chunk with continuity context from the previous one, and merges the
// results in order. A failed chunk falls back inside the fragment generator,
// so one bad chunk never discards the rest.
type ChunkCoordinator struct {
	chunkBound int
}

// NewChunkCoordinator creates a coordinator with the given per-chunk
// syllable bound.
func NewChunkCoordinator(chunkBound int) *ChunkCoordinator {
	return &ChunkCoordinator{chunkBound: chunkBound}
}

// ChunkPhrases accumulates phrases into chunks while the running syllable
// total stays within the bound. Phrases are never split: a phrase larger than
// the bound still gets its own chunk.
func (c *ChunkCoordinator) ChunkPhrases(phrases []models.PhraseAnalysis) [][]models.PhraseAnalysis {
	var chunks [][]models.PhraseAnalysis
	var current []models.PhraseAnalysis
	currentSyllables := 0

	for _, phrase := range phrases {
		if currentSyllables > 0 && currentSyllables+phrase.Syllables > c.chunkBound {
			chunks = append(chunks, current)
			current = []models.PhraseAnalysis{phrase}
			currentSyllables = phrase.Syllables
			continue
		}
		current = append(current, phrase)
		currentSyllables += phrase.Syllables
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	logger.Info("Split phrases into chunks", logger.Fields{
		"phrases": len(phrases),
		"chunks":  len(chunks),
	})
	return chunks
}

// GenerateChunked generates a fragment per chunk and merges them in order.
// The merged fragment keeps the first chunk's key. The bool reports whether
// any chunk used the fallback path.
func (c *ChunkCoordinator) GenerateChunked(ctx context.Context, analysis *models.EmotionAnalysis, generate fragmentFunc) (*models.MelodyFragment, bool, error) {
	chunks := c.ChunkPhrases(analysis.Phrases)
	if len(chunks) == 0 {
		return nil, false, fmt.Errorf("no phrases to generate")
	}

	fragments := make([]*models.MelodyFragment, 0, len(chunks))
	anyFallback := false
	var previous []models.Note

	for i, chunk := range chunks {
		lines := make([]string, 0, len(chunk))
		syllables := 0
		for _, phrase := range chunk {
			lines = append(lines, phrase.Line)
			syllables += phrase.Syllables
		}
		chunkLyrics := strings.Join(lines, " ")

		logger.Info("Generating melody chunk", logger.Fields{
			"chunk":     i + 1,
			"chunks":    len(chunks),
			"syllables": syllables,
		})

		fragment, usedFallback, err := generate(ctx, chunkLyrics, syllables, previous)
		if err != nil {
			return nil, false, fmt.Errorf("chunk %d/%d failed: %w", i+1, len(chunks), err)
		}
		if usedFallback {
			anyFallback = true
		}

		fragments = append(fragments, fragment)
		if len(fragment.Notes) > 0 {
			tail := len(fragment.Notes) - contextNoteWindow
			if tail < 0 {
				tail = 0
			}
			previous = fragment.Notes[tail:]
		}
	}

	return mergeFragments(fragments), anyFallback, nil
}

// mergeFragments concatenates chunk notes in order under the first chunk's
// key.
func mergeFragments(fragments []*models.MelodyFragment) *models.MelodyFragment {
	merged := &models.MelodyFragment{Key: fragments[0].Key}
	for _, fragment := range fragments {
		merged.Notes = append(merged.Notes, fragment.Notes...)
	}

	logger.Info("Merged melody chunks", logger.Fields{
		"chunks": len(fragments),
		"notes":  len(merged.Notes),
		"key":    merged.Key,
	})
	return merged
}
