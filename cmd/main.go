package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vocaloop/server/adapters/history"
	"github.com/vocaloop/server/adapters/llm"
	"github.com/vocaloop/server/adapters/mongo"
	"github.com/vocaloop/server/adapters/stt"
	"github.com/vocaloop/server/adapters/tts"
	"github.com/vocaloop/server/domain/repositories"
	"github.com/vocaloop/server/internal/api"
	"github.com/vocaloop/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters; configuration problems are fatal at startup,
	// not discovered on the first failing turn
	transcriber := newTranscriber(logger)
	replies := newReplyGenerator(logger)
	synthesizer := newSynthesizer(logger)
	historyRepo := newHistoryRepository(logger)

	// Initialize usecase services
	agentService := usecase.NewAgentService(transcriber, replies, synthesizer, historyRepo, logger)

	// Initialize API routes
	api.InitRoutes(e, agentService, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newTranscriber selects the transcription backend from TRANSCRIBER:
// "assemblyai" (default), "google", or "mock" for keyless local runs
func newTranscriber(logger *zap.Logger) repositories.Transcriber {
	switch os.Getenv("TRANSCRIBER") {
	case "google":
		return stt.NewGoogleTranscriber(logger)
	case "mock":
		logger.Warn("Using mock transcriber")
		return stt.NewMockTranscriber(logger)
	default:
		transcriber, err := stt.NewAssemblyAITranscriber(stt.NewAssemblyAIConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize AssemblyAI transcriber", zap.Error(err))
		}
		return transcriber
	}
}

func newReplyGenerator(logger *zap.Logger) repositories.ReplyGenerator {
	if os.Getenv("REPLY_GENERATOR") == "mock" {
		logger.Warn("Using mock reply generator")
		return llm.NewMockReplyGenerator()
	}

	replies, err := llm.NewGeminiLLM(llm.NewGeminiConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini reply generator", zap.Error(err))
	}
	return replies
}

func newSynthesizer(logger *zap.Logger) repositories.SpeechSynthesizer {
	if os.Getenv("SYNTHESIZER") == "mock" {
		logger.Warn("Using mock speech synthesizer")
		return tts.NewMockSynthesizer()
	}

	synthesizer, err := tts.NewMurfTTS(tts.NewMurfConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize Murf synthesizer", zap.Error(err))
	}
	return synthesizer
}

// newHistoryRepository selects the history backend from HISTORY_BACKEND:
// "file" (default) or "mongo"
func newHistoryRepository(logger *zap.Logger) repositories.HistoryRepository {
	if os.Getenv("HISTORY_BACKEND") == "mongo" {
		client, err := mongo.NewClient(context.Background(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		return history.NewMongoHistoryRepository(client.Database, logger)
	}

	dir := os.Getenv("CHAT_HISTORY_DIR")
	if dir == "" {
		dir = "chat_history"
	}

	repo, err := history.NewFileHistoryRepository(dir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize file history repository", zap.Error(err))
	}
	return repo
}
