package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thinkr-backend/internal/models"
)

func TestFormatHistory_Empty(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil, DefaultLimits()))
	assert.Equal(t, "", FormatHistory([]models.ChatTurn{}, DefaultLimits()))
}

func TestFormatHistory_RolesAndHeader(t *testing.T) {
	history := []models.ChatTurn{
		{Role: models.RoleUser, Content: "Tell me about the Data Engineer cert"},
		{Role: models.RoleAssistant, Content: "It covers..."},
	}

	got := FormatHistory(history, DefaultLimits())

	want := "\n\nPrevious conversation context:\n" +
		"User: Tell me about the Data Engineer cert\n" +
		"Assistant: It covers..."
	assert.Equal(t, want, got)
}

func TestFormatHistory_KeepsLastSixLines(t *testing.T) {
	for _, n := range []int{1, 5, 6, 7, 20} {
		contents := make([]string, n)
		for i := range contents {
			contents[i] = string(rune('a' + i))
		}

		got := FormatHistory(turns(contents...), DefaultLimits())

		body := strings.TrimPrefix(got, "\n\nPrevious conversation context:\n")
		require.NotEqual(t, got, body, "header missing for n=%d", n)

		lines := strings.Split(body, "\n")
		assert.LessOrEqual(t, len(lines), 6)
		assert.True(t, strings.HasSuffix(lines[len(lines)-1], contents[n-1]), "last line must be newest turn")
	}
}

func TestFormatHistory_ChronologicalWindow(t *testing.T) {
	got := FormatHistory(turns("t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"), DefaultLimits())

	assert.NotContains(t, got, "t1")
	assert.NotContains(t, got, "t2")
	assert.Less(t, strings.Index(got, "t3"), strings.Index(got, "t8"))
}

func TestFormatHistory_EmptyContent(t *testing.T) {
	got := FormatHistory([]models.ChatTurn{{Role: models.RoleUser}}, DefaultLimits())
	assert.Equal(t, "\n\nPrevious conversation context:\nUser: ", got)
}
