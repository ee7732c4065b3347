package llm

import (
	"context"
	"fmt"

	"github.com/vocaloop/server/domain/entities"
	"github.com/vocaloop/server/domain/repositories"
)

// MockReplyGenerator is a placeholder reply generator for keyless local
// runs and tests. If Reply is empty it echoes the user's text.
type MockReplyGenerator struct {
	Reply string
	Err   error
}

var _ repositories.ReplyGenerator = (*MockReplyGenerator)(nil)

// NewMockReplyGenerator creates a mock reply generator
func NewMockReplyGenerator() *MockReplyGenerator {
	return &MockReplyGenerator{}
}

// GenerateReply implements repositories.ReplyGenerator
func (m *MockReplyGenerator) GenerateReply(ctx context.Context, userText string, history []entities.Entry) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	if m.Reply != "" {
		return m.Reply, nil
	}

	return fmt.Sprintf("You said: %s. Tell me more!", userText), nil
}
