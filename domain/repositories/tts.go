package repositories

import "context"

// SpeechSynthesizer abstracts text-to-speech services that host the
// rendered audio and hand back a URL to it
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (string, error)
}
