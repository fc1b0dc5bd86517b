package engine

import "strings"

const (
	newSessionDirective   = "/new_session"
	clearHistoryDirective = "/clear_history"

	newSessionAck     = "Started a new conversation session. What would you like to know?"
	historyClearedAck = "Conversation history cleared. What would you like to know?"
)

type directive int

const (
	directiveNone directive = iota
	directiveNewSession
	directiveClearHistory
)

// parseDirective recognizes a leading chat directive, case-insensitively,
// and returns the remainder of the text after the first space. A query
// like "/new_session what is X" both starts a fresh session and carries
// "what is X" as the real question.
func parseDirective(text string) (directive, string) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	var d directive
	switch {
	case strings.HasPrefix(lower, newSessionDirective):
		d = directiveNewSession
	case strings.HasPrefix(lower, clearHistoryDirective):
		d = directiveClearHistory
	default:
		return directiveNone, trimmed
	}

	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) < 2 {
		return d, ""
	}
	return d, strings.TrimSpace(parts[1])
}
