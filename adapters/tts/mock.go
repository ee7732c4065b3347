package tts

import (
	"context"

	"github.com/vocaloop/server/domain/repositories"
)

// MockSynthesizer is a placeholder synthesizer for keyless local runs and
// tests
type MockSynthesizer struct {
	AudioURL string
	Err      error
}

var _ repositories.SpeechSynthesizer = (*MockSynthesizer)(nil)

// NewMockSynthesizer creates a mock synthesizer returning a fixed URL
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{AudioURL: "https://example.com/audio/mock.mp3"}
}

// Synthesize implements repositories.SpeechSynthesizer
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.AudioURL, nil
}
