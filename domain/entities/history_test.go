package entities

import "testing"

func TestAppendTurn(t *testing.T) {
	var history []Entry

	history = AppendTurn(history, "hello", "hi there")
	history = AppendTurn(history, "how are you?", "doing great")

	if len(history) != 4 {
		t.Fatalf("Expected 4 entries after 2 turns, got %d", len(history))
	}

	for i, entry := range history {
		expected := RoleUser
		if i%2 == 1 {
			expected = RoleModel
		}
		if entry.Role != expected {
			t.Errorf("Entry %d: expected role %q, got %q", i, expected, entry.Role)
		}
	}

	if history[0].Text() != "hello" {
		t.Errorf("Expected first entry text 'hello', got %q", history[0].Text())
	}
	if history[3].Text() != "doing great" {
		t.Errorf("Expected last entry text 'doing great', got %q", history[3].Text())
	}
}

func TestAppendTurnPreservesExistingEntries(t *testing.T) {
	history := AppendTurn(nil, "first", "reply one")
	history = AppendTurn(history, "second", "reply two")

	if history[0].Text() != "first" || history[1].Text() != "reply one" {
		t.Error("Earlier entries changed by a later append")
	}
}

func TestEntryText(t *testing.T) {
	if got := (Entry{}).Text(); got != "" {
		t.Errorf("Expected empty text for entry with no parts, got %q", got)
	}

	multi := Entry{Role: RoleModel, Parts: []string{"part one ", "part two"}}
	if got := multi.Text(); got != "part one part two" {
		t.Errorf("Expected concatenated parts, got %q", got)
	}
}
