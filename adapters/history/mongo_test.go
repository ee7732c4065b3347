package history

import (
	"context"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zaptest"

	"github.com/vocaloop/server/domain/entities"
)

// TestMongoHistoryRepository_Integration requires a running MongoDB
// instance (skipped if MONGODB_URI is not set)
func TestMongoHistoryRepository_Integration(t *testing.T) {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		t.Skip("Skipping MongoDB integration test - MONGODB_URI not set")
	}

	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	testDB := client.Database("vocaloop_test")
	defer testDB.Drop(ctx)

	repo := NewMongoHistoryRepository(testDB, logger)

	t.Run("LoadUnknownSession", func(t *testing.T) {
		history, err := repo.Load(ctx, "never-seen")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected empty history, got %d entries", len(history))
		}
	})

	t.Run("AppendThenLoad", func(t *testing.T) {
		if err := repo.Append(ctx, "s1", "hello", "hi there"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := repo.Append(ctx, "s1", "second", "reply"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		history, err := repo.Load(ctx, "s1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(history) != 4 {
			t.Fatalf("Expected 4 entries, got %d", len(history))
		}
		if history[0].Role != entities.RoleUser || history[0].Text() != "hello" {
			t.Errorf("Unexpected first entry: %+v", history[0])
		}
		if history[3].Role != entities.RoleModel || history[3].Text() != "reply" {
			t.Errorf("Unexpected last entry: %+v", history[3])
		}
	})
}
