package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/versecraft/melodia-api/internal/config"
)

// HealthHandler reports service health and active configuration
type HealthHandler struct {
	cfg     *config.Config
	version string
}

func NewHealthHandler(cfg *config.Config, version string) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: version}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	providers := gin.H{
		"openai": h.cfg.OpenAIAPIKey != "",
		"gemini": h.cfg.GeminiAPIKey != "",
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"version":     h.version,
		"environment": h.cfg.Environment,
		"model":       h.cfg.Model,
		"providers":   providers,
	})
}
