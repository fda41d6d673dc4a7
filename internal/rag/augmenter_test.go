package rag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"thinkr-backend/internal/models"
)

func turns(contents ...string) []models.ChatTurn {
	out := make([]models.ChatTurn, len(contents))
	for i, c := range contents {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		out[i] = models.ChatTurn{Role: role, Content: c}
	}
	return out
}

func TestAugmentQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		history []models.ChatTurn
		want    string
	}{
		{
			name:  "empty history returns query",
			query: "hi",
			want:  "hi",
		},
		{
			name:  "vague follow-up gets recent context",
			query: "What career paths?",
			history: []models.ChatTurn{
				{Role: models.RoleUser, Content: "Tell me about the Data Engineer cert"},
				{Role: models.RoleAssistant, Content: "It covers..."},
			},
			want: "What career paths? Tell me about the Data Engineer cert It covers...",
		},
		{
			name:    "exactly five words is vague",
			query:   "one two three four five",
			history: turns("a"),
			want:    "one two three four five a",
		},
		{
			name:    "six words is left alone",
			query:   "one two three four five six",
			history: turns("a", "b"),
			want:    "one two three four five six",
		},
		{
			name:    "only last four turns are used",
			query:   "and then?",
			history: turns("t1", "t2", "t3", "t4", "t5", "t6"),
			want:    "and then? t3 t4 t5 t6",
		},
		{
			name:    "empty content contributes empty string",
			query:   "why",
			history: turns("a", "", "c"),
			want:    "why a  c",
		},
		{
			name:    "extra whitespace does not inflate word count",
			query:   "  what   about   this  ",
			history: turns("ACE exam"),
			want:    "  what   about   this   ACE exam",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AugmentQuery(tc.query, tc.history, DefaultLimits()))
		})
	}
}

func TestAugmentQuery_LongQueryIgnoresHistory(t *testing.T) {
	query := "How should I prepare for the Professional Cloud Architect exam"
	for n := 0; n <= 10; n++ {
		history := make([]models.ChatTurn, n)
		for i := range history {
			history[i] = models.ChatTurn{Content: fmt.Sprintf("turn %d", i)}
		}
		assert.Equal(t, query, AugmentQuery(query, history, DefaultLimits()))
	}
}

func TestAugmentQuery_DoesNotMutateHistory(t *testing.T) {
	history := turns("a", "b", "c", "d", "e")
	snapshot := append([]models.ChatTurn(nil), history...)

	AugmentQuery("what?", history, DefaultLimits())

	assert.Equal(t, snapshot, history)
}

func TestAugmentQuery_CustomLimits(t *testing.T) {
	limits := Limits{AugmentTurnWindow: 1, VagueQueryMaxWords: 2, HistoryLineWindow: 6}

	assert.Equal(t, "why not? last", AugmentQuery("why not?", turns("first", "last"), limits))
	assert.Equal(t, "why not now?", AugmentQuery("why not now?", turns("first", "last"), limits))
}
