// Package music holds the static musical knowledge used by the deterministic
// fallback path: emotion profiles and key scales.
package music

// Contour names a melodic shape the fallback generator can walk.
type Contour string

const (
	ContourAscending  Contour = "ascending"
	ContourDescending Contour = "descending"
	ContourWavy       Contour = "wavy"
	ContourErratic    Contour = "erratic"
	ContourBalanced   Contour = "balanced"
)

const (
	// DefaultEmotion is used when a label has no profile.
	DefaultEmotion = "neutral"

	// DefaultKey is used when a key has no scale.
	DefaultKey = "C major"
)

// EmotionProfile maps an emotion to candidate keys, an informational tempo
// range and a melodic contour.
type EmotionProfile struct {
	Keys     []string
	TempoMin int
	TempoMax int
	Contour  Contour
}

var emotionProfiles = map[string]EmotionProfile{
	"happy":   {Keys: []string{"C major", "G major", "D major"}, TempoMin: 100, TempoMax: 120, Contour: ContourAscending},
	"hopeful": {Keys: []string{"G major", "D major", "A major"}, TempoMin: 80, TempoMax: 100, Contour: ContourWavy},
	"sad":     {Keys: []string{"A minor", "D minor", "E minor"}, TempoMin: 60, TempoMax: 80, Contour: ContourDescending},
	"tense":   {Keys: []string{"D minor", "B minor", "F# minor"}, TempoMin: 90, TempoMax: 110, Contour: ContourErratic},
	"neutral": {Keys: []string{"C major", "A minor"}, TempoMin: 90, TempoMax: 110, Contour: ContourBalanced},
	"calm":    {Keys: []string{"F major", "Bb major"}, TempoMin: 60, TempoMax: 80, Contour: ContourBalanced},
	"excited": {Keys: []string{"E major", "A major"}, TempoMin: 120, TempoMax: 140, Contour: ContourAscending},
}

// scaleNotes gives the ordered 7-note scale for each supported key,
// independent of octave.
var scaleNotes = map[string][]string{
	"C major":  {"C", "D", "E", "F", "G", "A", "B"},
	"G major":  {"G", "A", "B", "C", "D", "E", "F#"},
	"D major":  {"D", "E", "F#", "G", "A", "B", "C#"},
	"A major":  {"A", "B", "C#", "D", "E", "F#", "G#"},
	"E major":  {"E", "F#", "G#", "A", "B", "C#", "D#"},
	"F major":  {"F", "G", "A", "Bb", "C", "D", "E"},
	"Bb major": {"Bb", "C", "D", "Eb", "F", "G", "A"},
	"A minor":  {"A", "B", "C", "D", "E", "F", "G"},
	"D minor":  {"D", "E", "F", "G", "A", "Bb", "C"},
	"E minor":  {"E", "F#", "G", "A", "B", "C", "D"},
	"B minor":  {"B", "C#", "D", "E", "F#", "G", "A"},
	"F# minor": {"F#", "G#", "A", "B", "C#", "D", "E"},
}

// ProfileFor returns the emotion profile for a label, case handled by the
// caller. Unknown labels resolve to the neutral profile.
func ProfileFor(emotion string) EmotionProfile {
	if profile, ok := emotionProfiles[emotion]; ok {
		return profile
	}
	return emotionProfiles[DefaultEmotion]
}

// ScaleFor returns the ordered scale for a key. Unknown keys resolve to
// C major.
func ScaleFor(key string) []string {
	if scale, ok := scaleNotes[key]; ok {
		return scale
	}
	return scaleNotes[DefaultKey]
}

// KnownKey reports whether the key has a scale definition.
func KnownKey(key string) bool {
	_, ok := scaleNotes[key]
	return ok
}
