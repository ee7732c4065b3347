package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/vocaloop/server/domain/entities"
	"github.com/vocaloop/server/domain/repositories"
)

// FileHistoryRepository persists one JSON file per session under a base
// directory. Appends rewrite the whole file; a per-session mutex serializes
// concurrent read-modify-write cycles on the same session so a slow turn
// cannot drop another turn's entries.
type FileHistoryRepository struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex
	// locks holds one mutex per session id seen by this process and is
	// never pruned
	locks map[string]*sync.Mutex
}

// Ensure FileHistoryRepository implements the HistoryRepository interface
var _ repositories.HistoryRepository = (*FileHistoryRepository)(nil)

// NewFileHistoryRepository creates a file-backed history repository rooted
// at dir, creating the directory if needed
func NewFileHistoryRepository(dir string, logger *zap.Logger) (*FileHistoryRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("history directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &FileHistoryRepository{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Load returns the stored history for a session, oldest first. A missing
// file means the session has no history yet. A file that exists but cannot
// be decoded is logged and treated as empty; the next append overwrites it.
func (r *FileHistoryRepository) Load(ctx context.Context, sessionID string) ([]entities.Entry, error) {
	data, err := os.ReadFile(r.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history for session %q: %w", sessionID, err)
	}

	var history []entities.Entry
	if err := json.Unmarshal(data, &history); err != nil {
		r.logger.Error("Corrupted history record, starting new history",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return []entities.Entry{}, nil
	}

	return history, nil
}

// Append adds one (user, model) turn pair and rewrites the session's file
func (r *FileHistoryRepository) Append(ctx context.Context, sessionID, userText, modelText string) error {
	lock := r.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history, err := r.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	history = entities.AppendTurn(history, userText, modelText)

	data, err := json.MarshalIndent(history, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode history for session %q: %w", sessionID, err)
	}

	// Write-then-rename so a reader outside the session lock never
	// observes a partially written file
	path := r.path(sessionID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history for session %q: %w", sessionID, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace history for session %q: %w", sessionID, err)
	}

	r.logger.Info("Saved chat history",
		zap.String("session_id", sessionID),
		zap.Int("entries", len(history)))

	return nil
}

func (r *FileHistoryRepository) path(sessionID string) string {
	// Session ids are opaque caller-supplied strings; Base strips any
	// path separators before they reach the filesystem.
	return filepath.Join(r.dir, filepath.Base(sessionID)+".json")
}

func (r *FileHistoryRepository) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[sessionID] = lock
	}
	return lock
}
