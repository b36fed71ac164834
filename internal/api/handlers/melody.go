package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/versecraft/melodia-api/internal/config"
	"github.com/versecraft/melodia-api/internal/llm"
	"github.com/versecraft/melodia-api/internal/logger"
	"github.com/versecraft/melodia-api/internal/models"
	"github.com/versecraft/melodia-api/internal/services"
)

const maxLyricsLength = 10000

// MelodyHandler serves the lyrics-to-melody endpoint
type MelodyHandler struct {
	cfg     *config.Config
	factory *llm.ProviderFactory
}

func NewMelodyHandler(cfg *config.Config) *MelodyHandler {
	return &MelodyHandler{
		cfg:     cfg,
		factory: llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey),
	}
}

type GenerateMelodyRequest struct {
	Lyrics string `json:"lyrics" binding:"required"`
	// Optional overrides; config defaults apply when empty
	Model    string `json:"model"`
	Provider string `json:"provider"` // openai or gemini
	Title    string `json:"title"`
}

type GenerateMelodyResponse struct {
	Melody   *models.Melody          `json:"melody"`
	Analysis *models.EmotionAnalysis `json:"analysis"`
}

// Generate analyzes the lyrics and composes a melody for them
func (h *MelodyHandler) Generate(c *gin.Context) {
	var req GenerateMelodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lyrics := strings.TrimSpace(req.Lyrics)
	if lyrics == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lyrics must not be empty"})
		return
	}
	if len(lyrics) > maxLyricsLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lyrics too long"})
		return
	}

	model := req.Model
	if model == "" {
		model = h.cfg.Model
	}

	provider, err := h.factory.GetProvider(c.Request.Context(), model, req.Provider)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := llm.RetryPolicy{
		MaxRetries: h.cfg.MaxRetries,
		BaseDelay:  h.cfg.RetryBaseDelay,
		Multiplier: h.cfg.RetryMultiplier,
	}
	invoker := llm.NewInvoker(provider, policy, h.cfg.CallTimeout)
	settings := services.GenerationSettings{
		Model:       model,
		Temperature: h.cfg.Temperature,
		MaxTokens:   h.cfg.MaxTokens,
	}

	analyzer := services.NewLyricAnalyzer(invoker, settings)
	analysis, analysisFallback, err := analyzer.Analyze(c.Request.Context(), lyrics)
	if err != nil {
		logger.Error("Lyric analysis failed", err, logger.Fields{
			"request_id": c.GetString("request_id"),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "lyric analysis failed"})
		return
	}

	generator := services.NewMelodyGenerator(invoker, settings, h.cfg.ChunkingThreshold, h.cfg.MaxNotesPerChunk)
	melody, err := generator.Generate(c.Request.Context(), lyrics, analysis)
	if err != nil {
		logger.Error("Melody generation failed", err, logger.Fields{
			"request_id": c.GetString("request_id"),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "melody generation failed"})
		return
	}

	melody.Title = strings.TrimSpace(req.Title)
	if analysisFallback {
		melody.FallbackUsed = true
	}

	c.JSON(http.StatusOK, GenerateMelodyResponse{
		Melody:   melody,
		Analysis: analysis,
	})
}
