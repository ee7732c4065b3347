package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/repositories"
)

// MockTranscriber is a placeholder transcriber for keyless local runs and
// tests. It returns the configured transcription, or Err if set.
type MockTranscriber struct {
	Transcription string
	Err           error
	logger        *zap.Logger
}

var _ repositories.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a mock transcriber with a canned response
func NewMockTranscriber(logger *zap.Logger) *MockTranscriber {
	return &MockTranscriber{
		Transcription: "Hello, can you hear me?",
		logger:        logger,
	}
}

// Transcribe returns the canned transcription
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	m.logger.Info("Mock transcription",
		zap.Int("audio_size", len(audio)),
		zap.String("language", languageCode))

	return m.Transcription, nil
}
