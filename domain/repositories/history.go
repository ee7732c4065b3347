package repositories

import (
	"context"

	"github.com/vocaloop/server/domain/entities"
)

// HistoryRepository defines data access methods for session conversation logs.
// A session is created implicitly on first append and is never deleted here.
type HistoryRepository interface {
	// Load returns the ordered history for a session, oldest entry first.
	// Unknown sessions yield an empty history, not an error.
	Load(ctx context.Context, sessionID string) ([]entities.Entry, error)
	// Append persists one (user, model) turn pair at the end of the
	// session's history, creating the backing record if absent.
	Append(ctx context.Context, sessionID, userText, modelText string) error
}
