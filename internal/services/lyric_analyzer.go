package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/versecraft/melodia-api/internal/llm"
	"github.com/versecraft/melodia-api/internal/logger"
	"github.com/versecraft/melodia-api/internal/models"
	"github.com/versecraft/melodia-api/internal/music"
	"github.com/versecraft/melodia-api/internal/prompt"
)

const fallbackTempo = 100

var (
	whitespaceRun  = regexp.MustCompile(`[ \t]+`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]`)
)

// GenerationSettings carries the model parameters shared by the LLM-backed
// services.
type GenerationSettings struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

// LyricAnalyzer turns raw lyrics into an emotion analysis. The model path
// asks the LLM for emotion, tempo, time signature and a per-line syllable
// breakdown; when that fails recoverably, a heuristic local analysis takes
// over so the pipeline never stalls on bad model output.
type LyricAnalyzer struct {
	invoker  *llm.Invoker
	builder  *prompt.Builder
	settings GenerationSettings
}

// NewLyricAnalyzer creates a lyric analyzer
func NewLyricAnalyzer(invoker *llm.Invoker, settings GenerationSettings) *LyricAnalyzer {
	return &LyricAnalyzer{
		invoker:  invoker,
		builder:  prompt.NewPromptBuilder(),
		settings: settings,
	}
}

// Analyze produces a validated emotion analysis for the lyrics. The second
// return value reports whether the heuristic fallback was used. Fatal
// invocation errors (bad credentials, unknown model) propagate.
func (a *LyricAnalyzer) Analyze(ctx context.Context, lyrics string) (*models.EmotionAnalysis, bool, error) {
	normalized := NormalizeLyrics(lyrics)
	if normalized == "" {
		return nil, false, fmt.Errorf("lyrics are empty after normalization")
	}

	system, err := a.builder.BuildSystemPrompt()
	if err != nil {
		return nil, false, err
	}
	userPrompt, err := a.builder.BuildEmotionPrompt(normalized)
	if err != nil {
		return nil, false, err
	}

	raw, err := a.invoker.Invoke(ctx, &llm.GenerationRequest{
		Model: a.settings.Model,
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: userPrompt},
		},
		Temperature:  a.settings.Temperature,
		MaxTokens:    a.settings.MaxTokens,
		OutputSchema: llm.EmotionSchema(),
	})
	if err != nil {
		if !llm.IsRetryable(err) {
			return nil, false, err
		}
		logger.Warn("Emotion analysis call failed, using heuristic analysis", logger.Fields{
			"error": err.Error(),
		})
		return a.heuristicAnalysis(normalized), true, nil
	}

	analysis, err := llm.ExtractEmotionAnalysis(raw)
	if err != nil {
		logger.Warn("Emotion analysis response unusable, using heuristic analysis", logger.Fields{
			"error": err.Error(),
		})
		return a.heuristicAnalysis(normalized), true, nil
	}

	logger.Info("Emotion analysis complete", logger.Fields{
		"emotion":         analysis.Emotion,
		"tempo":           analysis.Tempo,
		"time_signature":  analysis.TimeSignature,
		"phrases":         len(analysis.Phrases),
		"total_syllables": analysis.TotalSyllables(),
	})
	return analysis, false, nil
}

// heuristicAnalysis builds a neutral analysis from local syllable estimation
func (a *LyricAnalyzer) heuristicAnalysis(lyrics string) *models.EmotionAnalysis {
	lines := SplitLines(lyrics)

	phrases := make([]models.PhraseAnalysis, 0, len(lines))
	for _, line := range lines {
		syllables := EstimateSyllables(line)
		if syllables < 1 {
			syllables = 1
		}
		phrases = append(phrases, models.PhraseAnalysis{Line: line, Syllables: syllables})
	}

	return &models.EmotionAnalysis{
		Emotion:       music.DefaultEmotion,
		Tempo:         fallbackTempo,
		TimeSignature: models.DefaultTimeSignature,
		Phrases:       phrases,
	}
}

// NormalizeLyrics collapses runs of spaces and tabs and trims each line,
// keeping line breaks intact since they mark phrase boundaries.
func NormalizeLyrics(lyrics string) string {
	rawLines := strings.Split(lyrics, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// SplitLines breaks lyrics into phrases. Line breaks win; without them,
// periods, then commas, then the whole text as a single phrase.
func SplitLines(lyrics string) []string {
	var parts []string
	switch {
	case strings.Contains(lyrics, "\n"):
		parts = strings.Split(lyrics, "\n")
	case strings.Contains(lyrics, "."):
		parts = strings.Split(lyrics, ".")
	case strings.Contains(lyrics, ","):
		parts = strings.Split(lyrics, ",")
	default:
		parts = []string{lyrics}
	}

	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}

// EstimateSyllables estimates the syllable count of a phrase by counting
// vowel groups per word, with adjustments for silent trailing 'e' and
// consonant+'le' endings. Every word counts as at least one syllable.
func EstimateSyllables(text string) int {
	cleaned := nonWordPattern.ReplaceAllString(strings.ToLower(text), "")
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return 0
	}

	total := 0
	for _, word := range words {
		total += wordSyllables(word)
	}
	return total
}

func wordSyllables(word string) int {
	count := 0
	previousWasVowel := false
	for _, r := range word {
		vowel := isVowel(r)
		if vowel && !previousWasVowel {
			count++
		}
		previousWasVowel = vowel
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if len(word) >= 3 && strings.HasSuffix(word, "le") && !isVowel(rune(word[len(word)-3])) {
		count++
	}

	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
