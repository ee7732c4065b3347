package repositories

import "context"

// Transcriber abstracts speech recognition services
type Transcriber interface {
	// Transcribe converts a complete audio recording to text
	Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error)
}
