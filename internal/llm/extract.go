package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/versecraft/melodia-api/internal/models"
)

// Extraction failure stages, carried by ExtractionError for diagnostics.
const (
	StageNoSpan = "no-span-found"
	StageParse  = "parse-error"
	StageSchema = "schema-error"
)

// ExtractionError signals that no valid structured record could be recovered
// from a model response. It is non-fatal to the caller: the orchestrator
// falls back instead of failing.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Stage)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var (
	jsonFencePattern    = regexp.MustCompile("(?si)```json\\s*\\n(.*?)\\n\\s*```")
	genericFencePattern = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n\\s*```")
)

// extractJSONSpan recovers the first JSON object span from model output that
// may be wrapped in commentary or markdown code fences. Search order: a
// ```json fence, then any fence whose trimmed content is brace-delimited,
// then the first balanced brace span in the raw text.
func extractJSONSpan(text string) (string, bool) {
	if match := jsonFencePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1]), true
	}

	if match := genericFencePattern.FindStringSubmatch(text); match != nil {
		content := strings.TrimSpace(match[1])
		if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
			return content, true
		}
	}

	// Balanced-brace scan over the whole text
	depth := 0
	start := -1
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}

// noteWire is the wire shape of one note in a model response. Velocity is
// optional and defaults to 64.
type noteWire struct {
	Note     string  `json:"note"`
	Duration float64 `json:"duration"`
	Velocity *int    `json:"velocity"`
}

// fragmentWire is the wire shape of a melody response.
type fragmentWire struct {
	Key    string     `json:"key"`
	Melody []noteWire `json:"melody"`
}

// ExtractMelodyFragment recovers a validated melody fragment from raw model
// text. It never panics on prose: any unusable input yields an
// ExtractionError carrying the stage that failed.
func ExtractMelodyFragment(raw string) (*models.MelodyFragment, error) {
	span, ok := extractJSONSpan(raw)
	if !ok {
		return nil, &ExtractionError{Stage: StageNoSpan}
	}

	var wire fragmentWire
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, &ExtractionError{Stage: StageParse, Err: err}
	}

	fragment := &models.MelodyFragment{
		Key:   strings.TrimSpace(wire.Key),
		Notes: make([]models.Note, 0, len(wire.Melody)),
	}
	for _, note := range wire.Melody {
		velocity := models.VelocityDefault
		if note.Velocity != nil {
			velocity = *note.Velocity
		}
		fragment.Notes = append(fragment.Notes, models.Note{
			Pitch:    strings.TrimSpace(note.Note),
			Duration: note.Duration,
			Velocity: velocity,
		})
	}

	if err := fragment.Validate(); err != nil {
		return nil, &ExtractionError{Stage: StageSchema, Err: err}
	}

	return fragment, nil
}

// emotionWire is the wire shape of an emotion analysis response.
type emotionWire struct {
	Emotion       string `json:"emotion"`
	Tempo         int    `json:"tempo"`
	TimeSignature string `json:"time_signature"`
	Phrases       []struct {
		Line      string `json:"line"`
		Syllables int    `json:"syllables"`
	} `json:"phrases"`
}

// ExtractEmotionAnalysis recovers a validated emotion analysis from raw
// model text. Out-of-set time signatures snap to the default; out-of-range
// tempo or empty phrase lists fail with a schema error.
func ExtractEmotionAnalysis(raw string) (*models.EmotionAnalysis, error) {
	span, ok := extractJSONSpan(raw)
	if !ok {
		return nil, &ExtractionError{Stage: StageNoSpan}
	}

	var wire emotionWire
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, &ExtractionError{Stage: StageParse, Err: err}
	}

	analysis := &models.EmotionAnalysis{
		Emotion:       wire.Emotion,
		Tempo:         wire.Tempo,
		TimeSignature: wire.TimeSignature,
		Phrases:       make([]models.PhraseAnalysis, 0, len(wire.Phrases)),
	}
	for _, phrase := range wire.Phrases {
		analysis.Phrases = append(analysis.Phrases, models.PhraseAnalysis{
			Line:      strings.TrimSpace(phrase.Line),
			Syllables: phrase.Syllables,
		})
	}

	analysis.Normalize()
	if err := analysis.Validate(); err != nil {
		return nil, &ExtractionError{Stage: StageSchema, Err: err}
	}

	return analysis, nil
}
