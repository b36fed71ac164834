package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// MelodyNoteOutput is the schema shape of one note in a structured melody
// response.
type MelodyNoteOutput struct {
	Note     string  `json:"note" jsonschema_description:"Note name with octave, e.g. C4 or F#5"`
	Duration float64 `json:"duration" jsonschema_description:"Duration in beats, greater than zero"`
	Velocity int     `json:"velocity" jsonschema_description:"MIDI velocity 0-127"`
}

// MelodyOutput is the schema shape of a structured melody response.
type MelodyOutput struct {
	Key    string             `json:"key" jsonschema_description:"Musical key, e.g. 'C major' or 'A minor'"`
	Melody []MelodyNoteOutput `json:"melody" jsonschema_description:"Ordered note sequence, one note per syllable"`
}

// EmotionPhraseOutput is the schema shape of one analyzed phrase.
type EmotionPhraseOutput struct {
	Line      string `json:"line" jsonschema_description:"The lyric line"`
	Syllables int    `json:"syllables" jsonschema_description:"Estimated syllable count, at least 1"`
}

// EmotionOutput is the schema shape of a structured emotion analysis
// response.
type EmotionOutput struct {
	Emotion       string                `json:"emotion" jsonschema_description:"Dominant emotion, lowercase"`
	Tempo         int                   `json:"tempo" jsonschema_description:"Suggested tempo in BPM, 40-200"`
	TimeSignature string                `json:"time_signature" jsonschema_description:"Time signature, e.g. 4/4"`
	Phrases       []EmotionPhraseOutput `json:"phrases" jsonschema_description:"Per-line breakdown with syllable counts"`
}

// MelodySchema returns the structured output schema for melody generation.
func MelodySchema() *OutputSchema {
	return &OutputSchema{
		Name:        "melody_structure",
		Description: "A musical key and an ordered sequence of notes",
		Schema:      generateSchema[MelodyOutput](),
	}
}

// EmotionSchema returns the structured output schema for emotion analysis.
func EmotionSchema() *OutputSchema {
	return &OutputSchema{
		Name:        "emotion_analysis",
		Description: "Emotion and rhythm analysis of lyric text",
		Schema:      generateSchema[EmotionOutput](),
	}
}

// generateSchema reflects a JSON schema from a Go type and normalizes it to
// the strict form OpenAI structured outputs require.
func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	raw, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		panic(err)
	}

	ensureStrictCompliance(obj)
	return obj
}

// ensureStrictCompliance forces additionalProperties:false and marks every
// property required, recursively. OpenAI rejects strict schemas that leave
// either out.
func ensureStrictCompliance(schema map[string]any) {
	if schemaType, ok := schema["type"].(string); ok && schemaType == "object" {
		schema["additionalProperties"] = false

		if properties, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(properties))
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}

	if properties, ok := schema["properties"].(map[string]any); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]any); ok {
				ensureStrictCompliance(propMap)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrictCompliance(items)
	}
}
