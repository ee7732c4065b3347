package stt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/repositories"
)

const (
	defaultGoogleEncoding   = "WEBM_OPUS"
	defaultGoogleSampleRate = 48000
)

// GoogleTranscriber implements the Transcriber interface using Google Cloud
// Speech-to-Text. Credentials come from the ambient Google application
// default credentials; encoding and sample rate describe the uploaded audio.
type GoogleTranscriber struct {
	encoding   string
	sampleRate int
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)

// NewGoogleTranscriber creates a Google Cloud STT transcriber. Encoding and
// sample rate default to WEBM_OPUS at 48kHz, what browser MediaRecorder
// uploads typically carry, and can be overridden with GOOGLE_STT_ENCODING
// and GOOGLE_STT_SAMPLE_RATE.
func NewGoogleTranscriber(logger *zap.Logger) *GoogleTranscriber {
	encoding := os.Getenv("GOOGLE_STT_ENCODING")
	if encoding == "" {
		encoding = defaultGoogleEncoding
	}

	sampleRate := defaultGoogleSampleRate
	if rateStr := os.Getenv("GOOGLE_STT_SAMPLE_RATE"); rateStr != "" {
		if rate, err := strconv.Atoi(rateStr); err == nil && rate > 0 {
			sampleRate = rate
		}
	}

	return &GoogleTranscriber{
		encoding:   encoding,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Transcribe converts a complete audio recording to text
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio data cannot be empty")
	}

	if languageCode == "" {
		languageCode = "en-US"
	}

	encoding, err := googleAudioEncoding(g.encoding)
	if err != nil {
		return "", err
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	// Send configuration, then the whole buffer as one utterance
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(g.sampleRate),
					LanguageCode:    languageCode,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		return "", fmt.Errorf("failed to send streaming config: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	}); err != nil {
		return "", fmt.Errorf("failed to send audio data: %w", err)
	}

	if err := stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}

	var transcription string
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to receive response: %w", err)
		}

		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcription = result.Alternatives[0].Transcript
			}
		}
	}

	if transcription == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}

	g.logger.Info("Transcription completed", zap.Int("length", len(transcription)))
	return transcription, nil
}

// googleAudioEncoding converts a string encoding to the Speech API enum
func googleAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
