package prompt

import (
	"strings"

	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/intent"
)

// emptyHistory is rendered instead of an empty string so the model never
// sees an ambiguous blank section.
const emptyHistory = "No previous conversation."

const template = `You are an assistant for project onboarding, documentation, PBIs, HR, and internal tools.
{{instruction_details}}
Keep responses professional, concise, and relevant. Define technical terms if needed.

**Conversation History**:
{{chat_history}}

**Shared Project Data for current query (Context)**:
{{context}}

**Current Query**:
{{input}}

**Response**:
`

// FormatHistory renders conversation turns as alternating Human:/AI:
// lines in chronological order.
func FormatHistory(turns []core.Turn) string {
	if len(turns) == 0 {
		return emptyHistory
	}

	var b strings.Builder
	for _, turn := range turns {
		b.WriteString(turn.Role.String())
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// InstructionDetails renders the per-query instruction block from an
// intent's instruction pair.
func InstructionDetails(instr intent.Instruction) string {
	lines := []string{
		"**Instructions for the current query**:",
		"- Use the shared project data to answer the query.",
		"- " + instr.Directive,
		"- " + instr.Format,
		"- Consider the conversation history for context",
	}
	return strings.Join(lines, "\n")
}

// Build assembles the final generation prompt by deterministic template
// substitution. All branching was already resolved by intent detection.
func Build(instructionDetails, chatHistory, context, userQuery string) string {
	if chatHistory == "" {
		chatHistory = emptyHistory
	}

	r := strings.NewReplacer(
		"{{instruction_details}}", instructionDetails,
		"{{chat_history}}", chatHistory,
		"{{context}}", context,
		"{{input}}", userQuery,
	)
	return r.Replace(template)
}
