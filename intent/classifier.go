package intent

import "strings"

// Intent is a coarse classification of a query's desired response shape.
type Intent int

const (
	// General is the fallback for low-confidence or ambiguous queries.
	General Intent = iota
	// Summarization asks for a condensed overview.
	Summarization
	// Explanation asks how or why something works.
	Explanation
	// List asks for an enumeration of items or steps.
	List
)

// String returns the intent name.
func (i Intent) String() string {
	switch i {
	case Summarization:
		return "summarization"
	case Explanation:
		return "explanation"
	case List:
		return "list"
	default:
		return "general"
	}
}

// minScore is the confidence floor. A top score below it always
// classifies as General.
const minScore = 3

// keywordTable maps keywords to weights for one intent category.
// Keys containing a space are matched as substrings of the normalized
// query; single words are matched against the token set.
type keywordTable map[string]int

var intentKeywords = map[Intent]keywordTable{
	Summarization: {
		"summarize": 4, "summary": 4, "overview": 3, "brief": 3, "give me a": 2, "short": 2, "recap": 2,
		"status": 2, "progress": 2, "update": 2, "meeting": 1, "project": 1,
	},
	Explanation: {
		"explain": 4, "how": 4, "why": 4, "what is": 3, "break down": 3, "describe": 2, "tell me": 2, "clarify": 2,
		"works": 3, "process": 3, "deploy": 2, "authentication": 2, "jwt": 2, "database": 2, "api": 2,
		"microservices": 2, "integration": 1, "setup": 1, "function": 1,
	},
	List: {
		"list": 4, "steps": 4, "items": 3, "details": 3, "what are": 3, "show": 2, "all": 2, "outline": 2,
		"tasks": 3, "action items": 3, "services": 2, "endpoints": 2, "components": 2, "tools": 2,
		"requirements": 2, "features": 1, "schema": 1, "collections": 1,
	},
}

// normalize lowercases text and collapses all whitespace to single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Detect classifies query text into an Intent.
//
// It scores each category by summing keyword weights: single-word keywords
// match against the query's token set, multi-word phrases match as
// substrings of the normalized text. The top category wins unless its
// score is below the confidence floor or ties with another category;
// both cases resolve to General. The classifier is deterministic and
// stateless; it never calls a model.
func Detect(text string) Intent {
	normalized := normalize(text)
	tokens := make(map[string]bool)
	for _, word := range strings.Split(normalized, " ") {
		tokens[word] = true
	}

	scores := map[Intent]int{Summarization: 0, Explanation: 0, List: 0}
	for in, keywords := range intentKeywords {
		for keyword, weight := range keywords {
			if strings.Contains(keyword, " ") {
				if strings.Contains(normalized, keyword) {
					scores[in] += weight
				}
			} else if tokens[keyword] {
				scores[in] += weight
			}
		}
	}

	top := General
	topScore := -1
	for in, score := range scores {
		if score > topScore {
			top = in
			topScore = score
		}
	}

	if topScore < minScore {
		return General
	}

	// A tie between the top two categories is ambiguous; never break ties.
	for in, score := range scores {
		if in != top && score == topScore {
			return General
		}
	}

	return top
}
