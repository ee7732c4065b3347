package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/vocaloop/server/domain/entities"
	"github.com/vocaloop/server/domain/repositories"
)

const (
	defaultModel           = "gemini-2.0-flash"
	defaultTemperature     = 0.7
	defaultTopP            = 0.9
	defaultMaxOutputTokens = 1024
	defaultTimeoutSeconds  = 30
)

// GeminiConfig holds configuration for the Gemini reply generator
// Required fields:
// - APIKey: Your Google AI API key
// Optional fields with defaults:
// - Model: The Gemini model to use (default: "gemini-2.0-flash")
// - Temperature: Sampling temperature between 0 and 1 (default: 0.7)
// - TopP: Nucleus sampling value between 0 and 1 (default: 0.9)
// - MaxOutputTokens: Reply length cap (default: 1024)
// - TimeoutSeconds: Per-call deadline (default: 30)
// - SystemPrompt: Optional instruction prepended to every call
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
	TimeoutSeconds  int
	SystemPrompt    string
}

// GeminiLLM implements the ReplyGenerator interface using Google's Gemini API
type GeminiLLM struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	topP            float32
	maxOutputTokens int
	timeoutSeconds  int
	systemPrompt    string
}

// Ensure GeminiLLM implements the ReplyGenerator interface
var _ repositories.ReplyGenerator = (*GeminiLLM)(nil)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}

	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	if config.MaxOutputTokens < 0 {
		return fmt.Errorf("maxOutputTokens must be positive, got %d", config.MaxOutputTokens)
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// NewGeminiLLM creates a new Gemini reply generator instance
func NewGeminiLLM(config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	topP := config.TopP
	if topP == 0 {
		topP = defaultTopP
	}

	maxOutputTokens := config.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiLLM{
		client:          client,
		logger:          logger,
		model:           model,
		temperature:     temperature,
		topP:            topP,
		maxOutputTokens: maxOutputTokens,
		timeoutSeconds:  timeoutSeconds,
		systemPrompt:    config.SystemPrompt,
	}, nil
}

// GenerateReply produces a contextual reply to userText. The call is made
// once; a failed call is terminal for the turn and the caller decides the
// fallback.
func (g *GeminiLLM) GenerateReply(ctx context.Context, userText string, history []entities.Entry) (string, error) {
	var contents []*genai.Content

	if g.systemPrompt != "" {
		contents = append(contents, genai.NewContentFromText(g.systemPrompt, genai.RoleUser))
	}

	contents = append(contents, convertHistoryToGeminiFormat(history)...)
	contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		TopP:            genai.Ptr(g.topP),
		MaxOutputTokens: int32(g.maxOutputTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.timeoutSeconds)*time.Second)
	defer cancel()

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var responseText string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			responseText += part.Text
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("empty response from model")
	}

	g.logger.Info("Reply generated",
		zap.Int("history_entries", len(history)),
		zap.Int("reply_length", len(responseText)))

	return responseText, nil
}

// convertHistoryToGeminiFormat converts stored history entries to Gemini content
func convertHistoryToGeminiFormat(history []entities.Entry) []*genai.Content {
	var contents []*genai.Content

	for _, entry := range history {
		role := genai.Role(genai.RoleUser)
		if entry.Role == entities.RoleModel {
			role = genai.RoleModel
		}

		if text := entry.Text(); text != "" {
			contents = append(contents, genai.NewContentFromText(text, role))
		}
	}

	return contents
}

// NewGeminiConfigFromEnv creates a new GeminiConfig from environment variables
func NewGeminiConfigFromEnv() GeminiConfig {
	config := GeminiConfig{
		APIKey:       os.Getenv("GEMINI_API_KEY"),
		Model:        os.Getenv("GEMINI_MODEL"),
		SystemPrompt: os.Getenv("GEMINI_SYSTEM_PROMPT"),
	}

	if temperatureStr := os.Getenv("GEMINI_TEMPERATURE"); temperatureStr != "" {
		if temperature, err := strconv.ParseFloat(temperatureStr, 32); err == nil && temperature >= 0 && temperature <= 1 {
			config.Temperature = float32(temperature)
		}
	}

	if topPStr := os.Getenv("GEMINI_TOP_P"); topPStr != "" {
		if topP, err := strconv.ParseFloat(topPStr, 32); err == nil && topP >= 0 && topP <= 1 {
			config.TopP = float32(topP)
		}
	}

	if tokensStr := os.Getenv("GEMINI_MAX_OUTPUT_TOKENS"); tokensStr != "" {
		if tokens, err := strconv.Atoi(tokensStr); err == nil && tokens > 0 {
			config.MaxOutputTokens = tokens
		}
	}

	if timeoutStr := os.Getenv("GEMINI_TIMEOUT_SECONDS"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil && seconds > 0 {
			config.TimeoutSeconds = seconds
		}
	}

	return config
}
