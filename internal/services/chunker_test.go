package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versecraft/melodia-api/internal/models"
)

func phrase(line string, syllables int) models.PhraseAnalysis {
	return models.PhraseAnalysis{Line: line, Syllables: syllables}
}

func TestChunkPhrases_RespectsBound(t *testing.T) {
	coordinator := NewChunkCoordinator(10)

	phrases := []models.PhraseAnalysis{
		phrase("one", 4),
		phrase("two", 4),
		phrase("three", 4), // 12 > 10: new chunk
		phrase("four", 6),  // 4+6=10: fits
		phrase("five", 1),  // 11 > 10: new chunk
	}

	chunks := coordinator.ChunkPhrases(phrases)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)
}

func TestChunkPhrases_NeverSplitsAPhrase(t *testing.T) {
	coordinator := NewChunkCoordinator(10)

	// A single phrase above the bound still lands in its own chunk whole
	phrases := []models.PhraseAnalysis{
		phrase("short", 3),
		phrase("an enormous run-on line", 25),
		phrase("tail", 2),
	}

	chunks := coordinator.ChunkPhrases(phrases)
	require.Len(t, chunks, 3)
	assert.Equal(t, 25, chunks[1][0].Syllables)
	assert.Len(t, chunks[1], 1)
}

func TestChunkPhrases_PreservesOrder(t *testing.T) {
	coordinator := NewChunkCoordinator(5)

	var phrases []models.PhraseAnalysis
	for i := 0; i < 12; i++ {
		phrases = append(phrases, phrase(fmt.Sprintf("line %d", i), 3))
	}

	chunks := coordinator.ChunkPhrases(phrases)

	var flattened []models.PhraseAnalysis
	for _, chunk := range chunks {
		flattened = append(flattened, chunk...)
	}
	assert.Equal(t, phrases, flattened)
}

func TestGenerateChunked_MergesInOrderWithFirstKey(t *testing.T) {
	coordinator := NewChunkCoordinator(4)

	analysis := &models.EmotionAnalysis{
		Emotion:       "happy",
		Tempo:         110,
		TimeSignature: "4/4",
		Phrases: []models.PhraseAnalysis{
			phrase("first line", 3),
			phrase("second line", 3),
			phrase("third line", 3),
		},
	}

	keys := []string{"C major", "G major", "D major"}
	call := 0
	var previousSeen [][]models.Note

	generate := func(_ context.Context, lyrics string, syllables int, previous []models.Note) (*models.MelodyFragment, bool, error) {
		previousSeen = append(previousSeen, previous)
		fragment := &models.MelodyFragment{Key: keys[call]}
		for i := 0; i < syllables; i++ {
			fragment.Notes = append(fragment.Notes, models.Note{
				Pitch:    fmt.Sprintf("C%d", call+3),
				Duration: 0.5,
				Velocity: 64,
			})
		}
		call++
		return fragment, false, nil
	}

	merged, fallbackUsed, err := coordinator.GenerateChunked(context.Background(), analysis, generate)
	require.NoError(t, err)
	assert.False(t, fallbackUsed)

	// One chunk per phrase at this bound; first chunk's key wins
	assert.Equal(t, 3, call)
	assert.Equal(t, "C major", merged.Key)
	assert.Equal(t, 9, merged.NoteCount())

	// Notes appear in chunk order
	assert.Equal(t, "C3", merged.Notes[0].Pitch)
	assert.Equal(t, "C4", merged.Notes[3].Pitch)
	assert.Equal(t, "C5", merged.Notes[6].Pitch)

	// First chunk has no context; later chunks get the previous tail
	require.Len(t, previousSeen, 3)
	assert.Empty(t, previousSeen[0])
	assert.Len(t, previousSeen[1], 3)
	assert.Len(t, previousSeen[2], 3)
	assert.Equal(t, "C3", previousSeen[1][0].Pitch)
	assert.Equal(t, "C4", previousSeen[2][0].Pitch)
}

func TestGenerateChunked_ShortChunkPassesAllNotesAsContext(t *testing.T) {
	coordinator := NewChunkCoordinator(2)

	analysis := &models.EmotionAnalysis{
		Emotion:       "calm",
		Tempo:         70,
		TimeSignature: "4/4",
		Phrases: []models.PhraseAnalysis{
			phrase("hi", 2),
			phrase("yo", 2),
		},
	}

	var secondContext []models.Note
	call := 0
	generate := func(_ context.Context, _ string, syllables int, previous []models.Note) (*models.MelodyFragment, bool, error) {
		if call == 1 {
			secondContext = previous
		}
		call++
		fragment := &models.MelodyFragment{Key: "F major"}
		for i := 0; i < syllables; i++ {
			fragment.Notes = append(fragment.Notes, models.Note{Pitch: "F4", Duration: 0.5, Velocity: 64})
		}
		return fragment, false, nil
	}

	_, _, err := coordinator.GenerateChunked(context.Background(), analysis, generate)
	require.NoError(t, err)

	// Chunk produced fewer notes than the context window; all of them carry over
	assert.Len(t, secondContext, 2)
}

func TestGenerateChunked_ChunkFailurePropagates(t *testing.T) {
	coordinator := NewChunkCoordinator(2)

	analysis := &models.EmotionAnalysis{
		Emotion:       "sad",
		Tempo:         60,
		TimeSignature: "4/4",
		Phrases: []models.PhraseAnalysis{
			phrase("a", 1),
			phrase("b", 2),
		},
	}

	call := 0
	generate := func(_ context.Context, _ string, _ int, _ []models.Note) (*models.MelodyFragment, bool, error) {
		call++
		if call == 2 {
			return nil, false, fmt.Errorf("invalid api key")
		}
		return &models.MelodyFragment{Key: "A minor", Notes: []models.Note{{Pitch: "A3", Duration: 0.5, Velocity: 64}}}, false, nil
	}

	_, _, err := coordinator.GenerateChunked(context.Background(), analysis, generate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 2/2")
}

func TestGenerateChunked_FiveThousandSyllables(t *testing.T) {
	coordinator := NewChunkCoordinator(40)
	fallback := NewSeededFallbackGenerator(1)

	total := 5000
	var phrases []models.PhraseAnalysis
	for i := 0; i < total/5; i++ {
		phrases = append(phrases, phrase(fmt.Sprintf("line %d with some words", i), 5))
	}

	analysis := &models.EmotionAnalysis{
		Emotion:       "neutral",
		Tempo:         100,
		TimeSignature: "4/4",
		Phrases:       phrases,
	}

	generate := func(_ context.Context, _ string, syllables int, _ []models.Note) (*models.MelodyFragment, bool, error) {
		fragment, err := fallback.Generate("neutral", syllables)
		return fragment, true, err
	}

	merged, fallbackUsed, err := coordinator.GenerateChunked(context.Background(), analysis, generate)
	require.NoError(t, err)

	assert.True(t, fallbackUsed)
	assert.Equal(t, total, merged.NoteCount())
}
