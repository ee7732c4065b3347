package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/repositories"
)

const (
	defaultMurfAPIBaseURL = "https://api.murf.ai"
	defaultMurfVoiceID    = "en-US-natalie"
	defaultMurfFormat     = "MP3"
	defaultMurfTimeout    = 60 * time.Second
)

// MurfConfig holds configuration for the Murf TTS adapter
// Required fields:
// - APIKey: Your Murf AI API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Murf API (default: "https://api.murf.ai")
// - VoiceID: Voice used when the caller does not request one (default: "en-US-natalie")
// - Format: Audio format of the rendered file (default: "MP3")
// - Timeout: Per-call HTTP timeout (default: 60s)
type MurfConfig struct {
	APIKey     string
	APIBaseURL string
	VoiceID    string
	Format     string
	Timeout    time.Duration
}

// MurfTTS implements the SpeechSynthesizer interface using the Murf AI API.
// Murf renders the audio on its side and returns a URL to the hosted file.
type MurfTTS struct {
	apiKey     string
	apiBaseURL string
	voiceID    string
	format     string
	client     *http.Client
	logger     *zap.Logger
}

// Ensure MurfTTS implements the SpeechSynthesizer interface
var _ repositories.SpeechSynthesizer = (*MurfTTS)(nil)

// murfGenerateRequest represents the request payload for the Murf speech API
type murfGenerateRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
	Format  string `json:"format,omitempty"`
}

// murfGenerateResponse represents the response payload from the Murf speech API
type murfGenerateResponse struct {
	AudioFile             string  `json:"audioFile"`
	AudioLengthInSeconds  float64 `json:"audioLengthInSeconds"`
	RemainingCharacters   int     `json:"remainingCharacterCount"`
	ConsumedCharacterCost int     `json:"consumedCharacterCount"`
}

// ValidateMurfConfig validates the MurfConfig
func ValidateMurfConfig(config MurfConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("murf API key is required")
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}

	return nil
}

// NewMurfTTS creates a new Murf TTS instance
func NewMurfTTS(config MurfConfig, logger *zap.Logger) (*MurfTTS, error) {
	if err := ValidateMurfConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultMurfAPIBaseURL
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultMurfVoiceID
	}

	format := config.Format
	if format == "" {
		format = defaultMurfFormat
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultMurfTimeout
	}

	return &MurfTTS{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		voiceID:    voiceID,
		format:     format,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Synthesize renders text with the requested voice and returns the URL of
// the generated audio file
func (m *MurfTTS) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	if voiceID == "" {
		voiceID = m.voiceID
	}

	requestBody, err := json.Marshal(murfGenerateRequest{
		Text:    text,
		VoiceID: voiceID,
		Format:  m.format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := m.apiBaseURL + "/v1/speech/generate"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("murf API returned status %d: %s", resp.StatusCode, string(errorBody))
	}

	var generateResp murfGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generateResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if generateResp.AudioFile == "" {
		return "", fmt.Errorf("murf response missing audio file URL")
	}

	m.logger.Info("Speech synthesized",
		zap.String("voice_id", voiceID),
		zap.Float64("audio_seconds", generateResp.AudioLengthInSeconds))

	return generateResp.AudioFile, nil
}

// NewMurfConfigFromEnv creates a new MurfConfig from environment variables
func NewMurfConfigFromEnv() MurfConfig {
	config := MurfConfig{
		APIKey:     os.Getenv("MURF_API_KEY"),
		APIBaseURL: os.Getenv("MURF_API_BASE_URL"),
		VoiceID:    os.Getenv("MURF_VOICE_ID"),
		Format:     os.Getenv("MURF_FORMAT"),
	}

	if timeoutStr := os.Getenv("MURF_TIMEOUT_SECONDS"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil && seconds > 0 {
			config.Timeout = time.Duration(seconds) * time.Second
		}
	}

	return config
}
