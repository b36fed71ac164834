package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/versecraft/melodia-api/internal/logger"
	"github.com/versecraft/melodia-api/internal/models"
	"github.com/versecraft/melodia-api/internal/music"
)

// FallbackGenerator produces a deterministic-by-construction melody when the
// model path fails. Every fragment it returns is structurally valid: one note
// per syllable, all pitches inside the chosen key's scale.
type FallbackGenerator struct {
	rng *rand.Rand
}

// NewFallbackGenerator creates a fallback generator with a time-based seed
func NewFallbackGenerator() *FallbackGenerator {
	return NewSeededFallbackGenerator(time.Now().UnixNano())
}

// NewSeededFallbackGenerator creates a fallback generator with a fixed seed,
// used by tests to make runs reproducible.
func NewSeededFallbackGenerator(seed int64) *FallbackGenerator {
	return &FallbackGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate builds a melody fragment for the given emotion with exactly
// noteCount notes. Unknown emotions use the neutral profile.
func (g *FallbackGenerator) Generate(emotion string, noteCount int) (*models.MelodyFragment, error) {
	if noteCount <= 0 {
		return nil, fmt.Errorf("note count must be positive, got %d", noteCount)
	}

	profile := music.ProfileFor(emotion)
	key := profile.Keys[g.rng.Intn(len(profile.Keys))]
	scale := music.ScaleFor(key)

	logger.Info("Generating fallback melody", logger.Fields{
		"emotion":    emotion,
		"key":        key,
		"contour":    string(profile.Contour),
		"note_count": noteCount,
	})

	fragment := &models.MelodyFragment{
		Key:   key,
		Notes: g.walkContour(scale, profile.Contour, noteCount),
	}

	return fragment, nil
}

// walkContour generates noteCount pitches following the melodic shape
func (g *FallbackGenerator) walkContour(scale []string, contour music.Contour, noteCount int) []models.Note {
	notes := make([]models.Note, 0, noteCount)
	octave := 4

	switch contour {
	case music.ContourAscending:
		// Climb through the scale, stepping up an octave each cycle
		for i := 0; i < noteCount; i++ {
			if i > 0 && i%len(scale) == 0 && octave < 5 {
				octave++
			}
			notes = append(notes, g.makeNote(scale[i%len(scale)], octave, i, noteCount))
		}

	case music.ContourDescending:
		// Walk down from the top of the scale, dropping an octave each cycle
		for i := 0; i < noteCount; i++ {
			if i > 0 && i%len(scale) == 0 && octave > 3 {
				octave--
			}
			notes = append(notes, g.makeNote(scale[len(scale)-1-(i%len(scale))], octave, i, noteCount))
		}

	case music.ContourWavy:
		// Triangular wave over an 8-step period, reversed every other period
		for i := 0; i < noteCount; i++ {
			wavePosition := float64(i%8) / 8.0
			scaleIndex := int(wavePosition * float64(len(scale)))
			if scaleIndex >= len(scale) {
				scaleIndex = len(scale) - 1
			}
			if (i/8)%2 == 1 {
				scaleIndex = len(scale) - 1 - scaleIndex
			}
			notes = append(notes, g.makeNote(scale[scaleIndex], octave, i, noteCount))
		}

	case music.ContourErratic:
		// Uniform jumps within the scale with occasional octave changes
		octaves := []int{3, 4, 5}
		for i := 0; i < noteCount; i++ {
			if g.rng.Float64() < 0.3 {
				octave = octaves[g.rng.Intn(len(octaves))]
			}
			notes = append(notes, g.makeNote(scale[g.rng.Intn(len(scale))], octave, i, noteCount))
		}

	default:
		// Balanced: weighted toward the middle of the scale, fixed octave
		weights := []int{1, 2, 3, 3, 3, 2, 1}
		if len(weights) > len(scale) {
			weights = weights[:len(scale)]
		}
		for i := 0; i < noteCount; i++ {
			notes = append(notes, g.makeNote(scale[g.weightedIndex(weights)], octave, i, noteCount))
		}
	}

	return notes
}

// makeNote assembles one note with positional duration and jittered velocity.
// The last note is a half note, every fourth position a quarter, the rest
// eighths.
func (g *FallbackGenerator) makeNote(noteName string, octave, position, total int) models.Note {
	duration := 0.5
	switch {
	case position == total-1:
		duration = 2.0
	case position%4 == 3:
		duration = 1.0
	}

	velocity := models.VelocityDefault + g.rng.Intn(17) - 8
	if velocity < 48 {
		velocity = 48
	}
	if velocity > 80 {
		velocity = 80
	}

	return models.Note{
		Pitch:    fmt.Sprintf("%s%d", noteName, octave),
		Duration: duration,
		Velocity: velocity,
	}
}

// weightedIndex picks an index with the given relative weights
func (g *FallbackGenerator) weightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := g.rng.Intn(total)
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return i
		}
	}
	return len(weights) - 1
}
