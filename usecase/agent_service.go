package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/entities"
	"github.com/vocaloop/server/domain/repositories"
)

// ReplyFallback is persisted and spoken when the reply service fails, so a
// voice session keeps flowing instead of dying on a vendor hiccup.
const ReplyFallback = "I'm having trouble connecting right now. Please try again in a moment."

// ErrNoTranscription indicates the uploaded audio produced no usable text.
// Transcription is a precondition for the rest of the turn, so nothing is
// persisted when it fails.
var ErrNoTranscription = errors.New("could not transcribe audio")

// TurnResult is the outcome of one conversational turn. AudioURL is empty
// when synthesis failed; the textual turn is still valid and persisted.
type TurnResult struct {
	Transcription string
	Reply         string
	AudioURL      string
}

// AgentService orchestrates one conversational turn: load history,
// transcribe, generate a reply, persist the turn, synthesize speech.
type AgentService struct {
	transcriber repositories.Transcriber
	replies     repositories.ReplyGenerator
	synthesizer repositories.SpeechSynthesizer
	history     repositories.HistoryRepository
	logger      *zap.Logger
}

// NewAgentService creates a new agent service
func NewAgentService(
	transcriber repositories.Transcriber,
	replies repositories.ReplyGenerator,
	synthesizer repositories.SpeechSynthesizer,
	history repositories.HistoryRepository,
	logger *zap.Logger,
) *AgentService {
	return &AgentService{
		transcriber: transcriber,
		replies:     replies,
		synthesizer: synthesizer,
		history:     history,
		logger:      logger,
	}
}

// ProcessTurn runs one full turn for a session. Steps are strictly
// sequential; the turn is persisted before synthesis so a synthesis failure
// never loses the textual exchange.
//
// Adapter outcomes map to the turn like this: a transcription failure ends
// the turn with ErrNoTranscription and no history mutation; a reply failure
// substitutes ReplyFallback; a synthesis failure leaves AudioURL empty.
// Only history load/append errors propagate as turn errors.
func (s *AgentService) ProcessTurn(ctx context.Context, sessionID string, audio []byte, voiceID string) (*TurnResult, error) {
	turnID := uuid.NewString()
	logger := s.logger.With(
		zap.String("turn_id", turnID),
		zap.String("session_id", sessionID))

	history, err := s.history.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	transcription, err := s.transcriber.Transcribe(ctx, audio, "")
	if err != nil {
		logger.Error("Transcription failed", zap.Error(err))
		return nil, ErrNoTranscription
	}
	if transcription == "" {
		logger.Warn("Transcription returned no text")
		return nil, ErrNoTranscription
	}

	logger.Info("Transcription from user", zap.String("text", transcription))

	reply, err := s.replies.GenerateReply(ctx, transcription, history)
	if err != nil {
		logger.Error("Reply generation failed, using fallback", zap.Error(err))
		reply = ReplyFallback
	}

	logger.Info("Reply generated", zap.String("text", reply))

	if err := s.history.Append(ctx, sessionID, transcription, reply); err != nil {
		return nil, err
	}

	audioURL, err := s.synthesizer.Synthesize(ctx, reply, voiceID)
	if err != nil {
		logger.Error("Speech synthesis failed, returning text-only turn", zap.Error(err))
		audioURL = ""
	}

	return &TurnResult{
		Transcription: transcription,
		Reply:         reply,
		AudioURL:      audioURL,
	}, nil
}

// History returns the stored conversation for a session, oldest entry first
func (s *AgentService) History(ctx context.Context, sessionID string) ([]entities.Entry, error) {
	return s.history.Load(ctx, sessionID)
}
