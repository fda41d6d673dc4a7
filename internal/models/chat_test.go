package models

import "testing"

func TestChatTurnInput_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    ChatTurnInput
		expected ChatTurn
	}{
		{"user type", ChatTurnInput{Type: "user", Content: "hi"}, ChatTurn{Role: RoleUser, Content: "hi"}},
		{"bot type", ChatTurnInput{Type: "bot", Content: "hello"}, ChatTurn{Role: RoleAssistant, Content: "hello"}},
		{"error type", ChatTurnInput{Type: "error", Content: "oops"}, ChatTurn{Role: RoleAssistant, Content: "oops"}},
		{"assistant type", ChatTurnInput{Type: "assistant", Content: "x"}, ChatTurn{Role: RoleAssistant, Content: "x"}},
		{"role fallback", ChatTurnInput{Role: "user", Content: "q"}, ChatTurn{Role: RoleUser, Content: "q"}},
		{"type wins over role", ChatTurnInput{Type: "bot", Role: "user", Content: "q"}, ChatTurn{Role: RoleAssistant, Content: "q"}},
		{"case insensitive", ChatTurnInput{Type: " User ", Content: "q"}, ChatTurn{Role: RoleUser, Content: "q"}},
		{"missing everything", ChatTurnInput{}, ChatTurn{Role: RoleAssistant, Content: ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.input.Normalize()
			if got != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestNormalizeHistory_PreservesOrder(t *testing.T) {
	inputs := []ChatTurnInput{
		{Type: "user", Content: "first"},
		{Type: "bot", Content: "second"},
		{Type: "user", Content: "third"},
	}

	turns := NormalizeHistory(inputs)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	for i, want := range []string{"first", "second", "third"} {
		if turns[i].Content != want {
			t.Errorf("turn %d: expected %q, got %q", i, want, turns[i].Content)
		}
	}
	if turns[1].Role != RoleAssistant {
		t.Errorf("expected assistant role for bot turn")
	}
}

func TestNormalizeHistory_Empty(t *testing.T) {
	if turns := NormalizeHistory(nil); turns != nil {
		t.Fatalf("expected nil history, got %v", turns)
	}
}

func TestChatRole_String(t *testing.T) {
	if RoleUser.String() != "User" {
		t.Errorf("Expected 'User', got %q", RoleUser.String())
	}
	if RoleAssistant.String() != "Assistant" {
		t.Errorf("Expected 'Assistant', got %q", RoleAssistant.String())
	}
}
