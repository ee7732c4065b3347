package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vocaloop/server/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, agent *usecase.AgentService, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "vocaloop-server",
		})
	})

	e.POST("/agent/chat/:session_id", func(c echo.Context) error {
		return agentChat(c, agent, logger)
	})

	e.GET("/history/:session_id", func(c echo.Context) error {
		return getHistory(c, agent, logger)
	})
}

// agentChat handles one conversational turn: multipart audio in,
// {transcription, llm_response, murf_audio_url} out
func agentChat(c echo.Context, agent *usecase.AgentService, logger *zap.Logger) error {
	sessionID := c.Param("session_id")
	voiceID := c.QueryParam("voice_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Chat request missing audio file",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Detail: "Audio file is required.",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded audio", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Detail: "Could not read audio file.",
		})
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded audio", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Detail: "Could not read audio file.",
		})
	}

	result, err := agent.ProcessTurn(c.Request().Context(), sessionID, audio, voiceID)
	if err != nil {
		if errors.Is(err, usecase.ErrNoTranscription) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Detail: "Could not transcribe audio.",
			})
		}

		// Always hand the voice UI a complete payload it can speak,
		// even when the turn blew up somewhere unexpected.
		logger.Error("Unexpected error processing turn",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ChatResponse{
			Detail:        "An unexpected error occurred on the server.",
			Transcription: "Hello.",
			LLMResponse:   usecase.ReplyFallback,
			MurfAudioURL:  nil,
		})
	}

	var audioURL *string
	if result.AudioURL != "" {
		audioURL = &result.AudioURL
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Transcription: result.Transcription,
		LLMResponse:   result.Reply,
		MurfAudioURL:  audioURL,
	})
}

// getHistory returns the stored conversation for a session
func getHistory(c echo.Context, agent *usecase.AgentService, logger *zap.Logger) error {
	sessionID := c.Param("session_id")

	history, err := agent.History(c.Request().Context(), sessionID)
	if err != nil {
		logger.Error("Failed to retrieve history",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Detail: "Internal server error.",
		})
	}

	return c.JSON(http.StatusOK, HistoryResponse{History: history})
}
