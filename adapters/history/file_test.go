package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vocaloop/server/domain/entities"
)

func newTestRepository(t *testing.T) *FileHistoryRepository {
	t.Helper()

	repo, err := NewFileHistoryRepository(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	return repo
}

func TestLoadUnknownSession(t *testing.T) {
	repo := newTestRepository(t)

	history, err := repo.Load(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history for unknown session, got %d entries", len(history))
	}
}

func TestAppendThenLoadRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Append(ctx, "s1", "hello", "hi there"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, "s1", "how's it going?", "great, thanks"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	history, err := repo.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(history) != 4 {
		t.Fatalf("Expected 4 entries after 2 turns, got %d", len(history))
	}

	// Earlier entries unchanged, last pair equals the just-appended turn
	if history[0].Text() != "hello" || history[1].Text() != "hi there" {
		t.Error("First turn entries changed by second append")
	}
	if history[2].Text() != "how's it going?" || history[3].Text() != "great, thanks" {
		t.Errorf("Last turn mismatch: %v", history[2:])
	}

	for i, entry := range history {
		expected := entities.RoleUser
		if i%2 == 1 {
			expected = entities.RoleModel
		}
		if entry.Role != expected {
			t.Errorf("Entry %d: expected role %q, got %q", i, expected, entry.Role)
		}
	}
}

func TestWireFormat(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Append(ctx, "s1", "hello", "hi there"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(repo.dir, "s1.json"))
	if err != nil {
		t.Fatalf("Failed to read history file: %v", err)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("History file is not valid JSON: %v", err)
	}

	if raw[0]["role"] != "user" {
		t.Errorf("Expected role field 'user', got %v", raw[0]["role"])
	}
	parts, ok := raw[0]["parts"].([]interface{})
	if !ok || len(parts) != 1 || parts[0] != "hello" {
		t.Errorf("Expected parts [hello], got %v", raw[0]["parts"])
	}
}

func TestCorruptedRecordTreatedAsEmpty(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	path := filepath.Join(repo.dir, "s2.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt record: %v", err)
	}

	history, err := repo.Load(ctx, "s2")
	if err != nil {
		t.Fatalf("Load of corrupt record should not error, got: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history for corrupt record, got %d entries", len(history))
	}

	// A subsequent append overwrites the corrupt record with a fresh pair
	if err := repo.Append(ctx, "s2", "hello", "hi there"); err != nil {
		t.Fatalf("Append over corrupt record failed: %v", err)
	}

	history, err = repo.Load(ctx, "s2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected fresh 2-entry history, got %d entries", len(history))
	}
	if history[0].Text() != "hello" || history[1].Text() != "hi there" {
		t.Errorf("Unexpected history after overwrite: %v", history)
	}
}

func TestConcurrentAppendsSameSession(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Append(ctx, "s3", "user", "model"); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	history, err := repo.Load(ctx, "s3")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(history) != 2*turns {
		t.Errorf("Expected %d entries after %d concurrent turns, got %d", 2*turns, turns, len(history))
	}
}

func TestAppendLeavesOnlyFinalRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Append(ctx, "s1", "hello", "hi there"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, "s1", "again", "still here"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// The rewrite goes through a temp file that must not survive
	entries, err := os.ReadDir(repo.dir)
	if err != nil {
		t.Fatalf("Failed to read history dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "s1.json" {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("Expected only s1.json in history dir, got %v", names)
	}
}

func TestSessionIDCannotEscapeDirectory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Append(ctx, "../outside", "hello", "hi"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(repo.dir, "outside.json")); err != nil {
		t.Errorf("Expected record inside history directory: %v", err)
	}
}
