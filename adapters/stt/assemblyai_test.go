package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestTranscriber(t *testing.T, baseURL string) *AssemblyAITranscriber {
	t.Helper()

	transcriber, err := NewAssemblyAITranscriber(AssemblyAIConfig{
		APIKey:       "test-api-key",
		APIBaseURL:   baseURL,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		UploadDir:    t.TempDir(),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create transcriber: %v", err)
	}
	return transcriber
}

func TestNewAssemblyAITranscriber(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Test without API key
	_, err := NewAssemblyAITranscriber(AssemblyAIConfig{}, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	// Test with API key and defaults
	transcriber, err := NewAssemblyAITranscriber(AssemblyAIConfig{
		APIKey:    "test-api-key",
		UploadDir: t.TempDir(),
	}, logger)
	if err != nil {
		t.Fatalf("Failed to create transcriber: %v", err)
	}

	if transcriber.apiBaseURL != defaultAssemblyAIBaseURL {
		t.Errorf("Expected default base URL %q, got %q", defaultAssemblyAIBaseURL, transcriber.apiBaseURL)
	}
	if transcriber.languageCode != defaultLanguageCode {
		t.Errorf("Expected default language %q, got %q", defaultLanguageCode, transcriber.languageCode)
	}
}

func TestAssemblyAITranscriber_Transcribe(t *testing.T) {
	polls := 0
	var jobLanguage string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-api-key" {
			t.Errorf("Missing or wrong authorization header: %q", r.Header.Get("Authorization"))
		}

		switch {
		case r.Method == "POST" && r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example.com/a1"})
		case r.Method == "POST" && r.URL.Path == "/transcript":
			var req assemblyAITranscriptRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.AudioURL != "https://cdn.example.com/a1" {
				t.Errorf("Unexpected audio_url: %q", req.AudioURL)
			}
			jobLanguage = req.LanguageCode
			json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "queued"})
		case r.Method == "GET" && r.URL.Path == "/transcript/t1":
			polls++
			status := "processing"
			text := ""
			if polls >= 2 {
				status = "completed"
				text = "hello world"
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": status, "text": text})
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	transcriber := newTestTranscriber(t, server.URL)

	text, err := transcriber.Transcribe(context.Background(), []byte("fake audio"), "")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("Expected transcription 'hello world', got %q", text)
	}
	if jobLanguage != defaultLanguageCode {
		t.Errorf("Expected default language hint %q, got %q", defaultLanguageCode, jobLanguage)
	}

	// Staged audio must be gone once the call returns
	entries, err := os.ReadDir(transcriber.uploadDir)
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected upload dir to be empty after transcription, found %d files", len(entries))
	}
}

func TestAssemblyAITranscriber_TranscribeJobError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example.com/a1"})
		case r.Method == "POST" && r.URL.Path == "/transcript":
			json.NewEncoder(w).Encode(map[string]string{"id": "t2", "status": "queued"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"id": "t2", "status": "error", "error": "unsupported codec"})
		}
	}))
	defer server.Close()

	transcriber := newTestTranscriber(t, server.URL)

	_, err := transcriber.Transcribe(context.Background(), []byte("fake audio"), "")
	if err == nil {
		t.Fatal("Expected error for failed transcript job")
	}

	// Cleanup happens on the failure path too
	entries, _ := os.ReadDir(transcriber.uploadDir)
	if len(entries) != 0 {
		t.Errorf("Expected upload dir to be empty after failure, found %d files", len(entries))
	}
}

func TestAssemblyAITranscriber_TranscribeEmptyAudio(t *testing.T) {
	transcriber := newTestTranscriber(t, "http://localhost:0")

	if _, err := transcriber.Transcribe(context.Background(), nil, ""); err == nil {
		t.Error("Expected error for empty audio")
	}
}

func TestNewAssemblyAIConfigFromEnv(t *testing.T) {
	os.Setenv("ASSEMBLYAI_API_KEY", "env-key")
	os.Setenv("ASSEMBLYAI_POLL_INTERVAL_SECONDS", "5")
	defer os.Unsetenv("ASSEMBLYAI_API_KEY")
	defer os.Unsetenv("ASSEMBLYAI_POLL_INTERVAL_SECONDS")

	config := NewAssemblyAIConfigFromEnv()
	if config.APIKey != "env-key" {
		t.Errorf("Expected API key 'env-key', got %q", config.APIKey)
	}
	if config.PollInterval != 5*time.Second {
		t.Errorf("Expected poll interval 5s, got %s", config.PollInterval)
	}
}
