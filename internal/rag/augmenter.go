package rag

import (
	"strings"

	"thinkr-backend/internal/models"
)

// AugmentQuery builds the text used for retrieval. Short follow-ups such as
// "What career paths?" carry no topic of their own, so the content of the
// most recent turns is appended to them.
func AugmentQuery(query string, history []models.ChatTurn, limits Limits) string {
	if len(history) == 0 {
		return query
	}
	limits = limits.withDefaults()

	recent := tail(history, limits.AugmentTurnWindow)
	parts := make([]string, len(recent))
	for i, turn := range recent {
		parts[i] = turn.Content
	}
	recentContext := strings.Join(parts, " ")

	if len(strings.Fields(query)) <= limits.VagueQueryMaxWords {
		return query + " " + recentContext
	}
	return query
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
