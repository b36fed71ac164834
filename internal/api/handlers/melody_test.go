package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versecraft/melodia-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   1500,
	}
}

func newTestRouter(handler *MelodyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/melodies", handler.Generate)
	return router
}

func postMelody(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/melodies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerate_RejectsMissingLyrics(t *testing.T) {
	router := newTestRouter(NewMelodyHandler(testConfig()))

	w := postMelody(router, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RejectsBlankLyrics(t *testing.T) {
	router := newTestRouter(NewMelodyHandler(testConfig()))

	w := postMelody(router, `{"lyrics": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RejectsMalformedBody(t *testing.T) {
	router := newTestRouter(NewMelodyHandler(testConfig()))

	w := postMelody(router, `{"lyrics": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RejectsOversizedLyrics(t *testing.T) {
	router := newTestRouter(NewMelodyHandler(testConfig()))

	huge := strings.Repeat("la ", maxLyricsLength)
	w := postMelody(router, `{"lyrics": "`+huge+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = "test-key"
	router := newTestRouter(NewMelodyHandler(cfg))

	w := postMelody(router, `{"lyrics": "hello world", "provider": "anthropic"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown provider")
}

func TestGenerate_FailsWithoutAPIKey(t *testing.T) {
	// No keys configured: provider resolution fails before any network call
	router := newTestRouter(NewMelodyHandler(testConfig()))

	w := postMelody(router, `{"lyrics": "hello world"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	cfg := testConfig()
	cfg.OpenAIAPIKey = "test-key"
	router.GET("/health", NewHealthHandler(cfg, "test-version").HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"version":"test-version"`)
}
