package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	geminiUserRole     = "user"

	maxRawOutputLog = 200
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate runs one generation call against the Gemini API
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	log.Printf("🎵 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents, config := p.buildGeminiRequest(request)

	// Call Gemini API
	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		classified := classifyError(err)
		if !IsRetryable(classified) {
			sentry.CaptureException(err)
		}
		return nil, classified
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)
	transaction.SetTag("success", "true")

	return p.convertResponse(result), nil
}

// buildGeminiRequest converts our request to Gemini contents and config.
// System messages become the system instruction; everything else is sent as
// user content.
func (p *GeminiProvider) buildGeminiRequest(request *GenerationRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	temperature := float32(request.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(request.MaxTokens),
	}

	var contents []*genai.Content
	for _, msg := range request.Messages {
		if msg.Role == roleSystem {
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  geminiUserRole,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	// Ask for raw JSON when a schema is requested; the extractor still
	// validates the payload downstream.
	if request.OutputSchema != nil {
		config.ResponseMIMEType = mimeTypeJSON
	}

	return contents, config
}

// convertResponse maps the Gemini response onto the provider-neutral shape
func (p *GeminiProvider) convertResponse(result *genai.GenerateContentResponse) *GenerationResponse {
	if result == nil {
		return nil
	}

	out := &GenerationResponse{}

	if result.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int64(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(result.UsageMetadata.TotalTokenCount),
		}
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			out.Choices = append(out.Choices, Choice{})
			continue
		}
		text := candidate.Content.Parts[0].Text
		out.Choices = append(out.Choices, Choice{
			Message: &ChoiceMessage{Content: &text},
		})
		if len(out.Choices) == 1 {
			log.Printf("📥 GEMINI RESPONSE: output_length=%d, preview=%s", len(text), truncate(text, maxRawOutputLog))
		}
	}

	return out
}
