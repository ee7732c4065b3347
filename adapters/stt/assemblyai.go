package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/repositories"
)

const (
	defaultAssemblyAIBaseURL = "https://api.assemblyai.com/v2"
	defaultLanguageCode      = "en_us"
	defaultPollInterval      = 3 * time.Second
	defaultPollTimeout       = 3 * time.Minute
	defaultUploadDir         = "uploads"
)

// AssemblyAIConfig holds configuration for the AssemblyAI transcriber
// Required fields:
// - APIKey: Your AssemblyAI API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the AssemblyAI API (default: "https://api.assemblyai.com/v2")
// - LanguageCode: Language hint sent with each transcript job (default: "en_us")
// - PollInterval: How often to poll a pending transcript job (default: 3s)
// - PollTimeout: How long to wait for a job before giving up (default: 3m)
// - UploadDir: Directory where audio is staged before upload (default: "uploads")
type AssemblyAIConfig struct {
	APIKey       string
	APIBaseURL   string
	LanguageCode string
	PollInterval time.Duration
	PollTimeout  time.Duration
	UploadDir    string
}

// AssemblyAITranscriber implements the Transcriber interface using the
// AssemblyAI REST API: upload the audio, create a transcript job, then
// poll the job until it completes.
type AssemblyAITranscriber struct {
	apiKey       string
	apiBaseURL   string
	languageCode string
	pollInterval time.Duration
	pollTimeout  time.Duration
	uploadDir    string
	client       *http.Client
	logger       *zap.Logger
}

// Ensure AssemblyAITranscriber implements the Transcriber interface
var _ repositories.Transcriber = (*AssemblyAITranscriber)(nil)

type assemblyAIUploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type assemblyAITranscriptRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

type assemblyAITranscriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// ValidateAssemblyAIConfig validates the AssemblyAIConfig
func ValidateAssemblyAIConfig(config AssemblyAIConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("AssemblyAI API key is required")
	}

	if config.PollInterval < 0 {
		return fmt.Errorf("poll interval must be positive, got %s", config.PollInterval)
	}

	if config.PollTimeout < 0 {
		return fmt.Errorf("poll timeout must be positive, got %s", config.PollTimeout)
	}

	return nil
}

// NewAssemblyAITranscriber creates a new AssemblyAI transcriber instance
func NewAssemblyAITranscriber(config AssemblyAIConfig, logger *zap.Logger) (*AssemblyAITranscriber, error) {
	if err := ValidateAssemblyAIConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAssemblyAIBaseURL
	}

	languageCode := config.LanguageCode
	if languageCode == "" {
		languageCode = defaultLanguageCode
	}

	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	pollTimeout := config.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = defaultPollTimeout
	}

	uploadDir := config.UploadDir
	if uploadDir == "" {
		uploadDir = defaultUploadDir
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &AssemblyAITranscriber{
		apiKey:       config.APIKey,
		apiBaseURL:   apiBaseURL,
		languageCode: languageCode,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		uploadDir:    uploadDir,
		client:       &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}, nil
}

// Transcribe converts an audio recording to text. The audio is staged to a
// temporary file for the duration of the call and removed on every exit
// path, success or failure.
func (a *AssemblyAITranscriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio data cannot be empty")
	}

	if languageCode == "" {
		languageCode = a.languageCode
	}

	tempPath := filepath.Join(a.uploadDir, uuid.NewString()+".audio")
	if err := os.WriteFile(tempPath, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to stage audio upload: %w", err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			a.logger.Warn("Failed to remove staged audio", zap.String("path", tempPath), zap.Error(err))
		}
	}()

	uploadURL, err := a.upload(ctx, tempPath)
	if err != nil {
		return "", err
	}

	jobID, err := a.createTranscript(ctx, uploadURL, languageCode)
	if err != nil {
		return "", err
	}

	return a.awaitTranscript(ctx, jobID)
}

// upload sends the staged audio file to AssemblyAI and returns the hosted URL
func (a *AssemblyAITranscriber) upload(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open staged audio: %w", err)
	}
	defer file.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.apiBaseURL+"/upload", file)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", a.apiKey)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(errorBody))
	}

	var uploadResp assemblyAIUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploadResp.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}

	return uploadResp.UploadURL, nil
}

// createTranscript submits a transcript job for previously uploaded audio
func (a *AssemblyAITranscriber) createTranscript(ctx context.Context, audioURL, languageCode string) (string, error) {
	requestBody, err := json.Marshal(assemblyAITranscriptRequest{
		AudioURL:     audioURL,
		LanguageCode: languageCode,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.apiBaseURL+"/transcript", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create transcript request: %w", err)
	}
	httpReq.Header.Set("Authorization", a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to create transcript job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcript job returned status %d: %s", resp.StatusCode, string(errorBody))
	}

	var transcriptResp assemblyAITranscriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcriptResp); err != nil {
		return "", fmt.Errorf("failed to decode transcript response: %w", err)
	}
	if transcriptResp.ID == "" {
		return "", fmt.Errorf("transcript response missing id")
	}

	return transcriptResp.ID, nil
}

// awaitTranscript polls a transcript job until it completes or errors
func (a *AssemblyAITranscriber) awaitTranscript(ctx context.Context, jobID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		transcript, err := a.getTranscript(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch transcript.Status {
		case "completed":
			a.logger.Info("Transcription completed",
				zap.String("job_id", jobID),
				zap.Int("length", len(transcript.Text)))
			return transcript.Text, nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", transcript.Error)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("timed out waiting for transcript %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (a *AssemblyAITranscriber) getTranscript(ctx context.Context, jobID string) (*assemblyAITranscriptResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", a.apiBaseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to poll transcript job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("poll returned status %d: %s", resp.StatusCode, string(errorBody))
	}

	var transcriptResp assemblyAITranscriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcriptResp); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}

	return &transcriptResp, nil
}

// NewAssemblyAIConfigFromEnv creates a new AssemblyAIConfig from environment variables
func NewAssemblyAIConfigFromEnv() AssemblyAIConfig {
	config := AssemblyAIConfig{
		APIKey:       os.Getenv("ASSEMBLYAI_API_KEY"),
		APIBaseURL:   os.Getenv("ASSEMBLYAI_API_BASE_URL"),
		LanguageCode: os.Getenv("ASSEMBLYAI_LANGUAGE_CODE"),
		UploadDir:    os.Getenv("ASSEMBLYAI_UPLOAD_DIR"),
	}

	if intervalStr := os.Getenv("ASSEMBLYAI_POLL_INTERVAL_SECONDS"); intervalStr != "" {
		if seconds, err := strconv.Atoi(intervalStr); err == nil && seconds > 0 {
			config.PollInterval = time.Duration(seconds) * time.Second
		}
	}

	if timeoutStr := os.Getenv("ASSEMBLYAI_POLL_TIMEOUT_SECONDS"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil && seconds > 0 {
			config.PollTimeout = time.Duration(seconds) * time.Second
		}
	}

	return config
}
