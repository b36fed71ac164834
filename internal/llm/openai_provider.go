package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	providerNameOpenAI = "openai"

	roleSystem = "system"
	roleUser   = "user"
)

// OpenAIProvider implements the Provider interface using OpenAI's Chat
// Completions API.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate runs one chat completion call
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	// Call OpenAI API with Sentry span
	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		classified := classifyError(err)
		if !IsRetryable(classified) {
			sentry.CaptureException(err)
		}
		return nil, classified
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)
	transaction.SetTag("success", "true")

	return p.convertResponse(resp), nil
}

// buildRequestParams converts a GenerationRequest to OpenAI-specific params
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(request.Messages))
	for _, msg := range request.Messages {
		switch msg.Role {
		case roleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case roleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		default:
			log.Printf("⚠️  Skipping message with unknown role %q", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(request.Model),
		Messages:    messages,
		Temperature: openai.Float(request.Temperature),
		MaxTokens:   openai.Int(request.MaxTokens),
	}

	if request.OutputSchema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        request.OutputSchema.Name,
					Description: openai.String(request.OutputSchema.Description),
					Schema:      request.OutputSchema.Schema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	return params
}

// convertResponse maps the SDK response onto the provider-neutral shape.
// Shape validation happens in the invoker, so missing pieces stay nil here.
func (p *OpenAIProvider) convertResponse(resp *openai.ChatCompletion) *GenerationResponse {
	if resp == nil {
		return nil
	}

	out := &GenerationResponse{
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for i := range resp.Choices {
		content := resp.Choices[i].Message.Content
		out.Choices = append(out.Choices, Choice{
			Message: &ChoiceMessage{Content: &content},
		})
	}

	log.Printf("📥 OPENAI RESPONSE: choices=%d, total_tokens=%d", len(out.Choices), out.Usage.TotalTokens)
	return out
}

// truncate shortens a string for log output
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s...", s[:maxLen])
}
