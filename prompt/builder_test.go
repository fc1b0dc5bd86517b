package prompt

import (
	"strings"
	"testing"

	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/intent"
	"github.com/stretchr/testify/assert"
)

func TestFormatHistory(t *testing.T) {
	t.Run("empty history uses sentinel", func(t *testing.T) {
		assert.Equal(t, "No previous conversation.", FormatHistory(nil))
		assert.Equal(t, "No previous conversation.", FormatHistory([]core.Turn{}))
	})

	t.Run("turns render as labeled lines in order", func(t *testing.T) {
		history := FormatHistory([]core.Turn{
			{Role: core.RoleHuman, Content: "hi"},
			{Role: core.RoleAI, Content: "hello"},
			{Role: core.RoleHuman, Content: "what changed?"},
		})

		assert.Equal(t, "Human: hi\nAI: hello\nHuman: what changed?\n", history)
	})
}

func TestInstructionDetails(t *testing.T) {
	details := InstructionDetails(intent.InstructionFor(intent.Summarization))

	assert.Contains(t, details, "**Instructions for the current query**:")
	assert.Contains(t, details, "- Use the shared project data to answer the query.")
	assert.Contains(t, details, "- Summarize in 6-7 sentences.")
	assert.Contains(t, details, "- Use plain text.")
	assert.Contains(t, details, "- Consider the conversation history for context")
}

func TestBuild(t *testing.T) {
	details := InstructionDetails(intent.InstructionFor(intent.General))
	history := FormatHistory([]core.Turn{{Role: core.RoleHuman, Content: "earlier question"}})

	prompt := Build(details, history, "**Shared project data**:\n- retrieved chunk", "What is the status?")

	assert.Contains(t, prompt, "You are an assistant for project onboarding")
	assert.Contains(t, prompt, "- Answer directly.")
	assert.Contains(t, prompt, "Human: earlier question")
	assert.Contains(t, prompt, "- retrieved chunk")
	assert.Contains(t, prompt, "What is the status?")
	assert.Contains(t, prompt, "**Response**:")

	// No unsubstituted placeholders survive.
	assert.NotContains(t, prompt, "{{")
}

func TestBuild_EmptyHistoryNeverBlank(t *testing.T) {
	prompt := Build("details", "", "context", "query")
	assert.Contains(t, prompt, "No previous conversation.")
}

func TestBuild_SectionOrder(t *testing.T) {
	prompt := Build("DETAILS", "HISTORY", "CONTEXT", "QUERY")

	idx := func(s string) int { return strings.Index(prompt, s) }
	assert.Less(t, idx("DETAILS"), idx("HISTORY"))
	assert.Less(t, idx("HISTORY"), idx("CONTEXT"))
	assert.Less(t, idx("CONTEXT"), idx("QUERY"))
	assert.Less(t, idx("QUERY"), idx("**Response**:"))
}
