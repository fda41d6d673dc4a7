package rag

import (
	"strings"

	"thinkr-backend/internal/models"
)

const historyHeader = "Previous conversation context:"

// FormatHistory renders the trailing turns as "Role: content" lines under a
// fixed header. An empty history yields an empty string with no header.
func FormatHistory(history []models.ChatTurn, limits Limits) string {
	if len(history) == 0 {
		return ""
	}
	limits = limits.withDefaults()

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, turn.Role.String()+": "+turn.Content)
	}
	lines = tail(lines, limits.HistoryLineWindow)

	if len(lines) == 0 {
		return ""
	}
	return "\n\n" + historyHeader + "\n" + strings.Join(lines, "\n")
}
