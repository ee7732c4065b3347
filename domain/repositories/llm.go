package repositories

import (
	"context"

	"github.com/vocaloop/server/domain/entities"
)

// ReplyGenerator abstracts any chat/LLM provider
type ReplyGenerator interface {
	// GenerateReply produces the model's reply to userText, given the
	// session's prior turns as context
	GenerateReply(ctx context.Context, userText string, history []entities.Entry) (string, error)
}
