package api

import "github.com/vocaloop/server/domain/entities"

// ChatResponse represents the response payload for an agent chat turn.
// MurfAudioURL is null when synthesis produced no audio; Detail is only set
// on the degraded server-error payload.
type ChatResponse struct {
	Detail        string  `json:"detail,omitempty"`
	Transcription string  `json:"transcription"`
	LLMResponse   string  `json:"llm_response"`
	MurfAudioURL  *string `json:"murf_audio_url"`
}

// HistoryResponse represents the response payload for history retrieval
type HistoryResponse struct {
	History []entities.Entry `json:"history"`
}

// ErrorResponse represents a client-error response
type ErrorResponse struct {
	Detail string `json:"detail"`
}
