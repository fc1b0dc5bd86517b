package mock

import (
	"context"
	"strings"

	"github.com/poiesic/lumina/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a canned answer echoing the prompt length.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// GenerateStreamFunc is called by GenerateStream if set.
	// If nil, streams Fragments (or the canned answer split into words).
	GenerateStreamFunc func(ctx context.Context, prompt string, fn ai.StreamFunc) (string, error)

	// Fragments are streamed one at a time by the default GenerateStream
	// behavior. If empty, the default blocking answer is split into words.
	Fragments []string

	callCount int
}

const defaultAnswer = "This is a mock answer."

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a canned answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	return defaultAnswer, nil
}

// GenerateStream streams the configured fragments, honoring context
// cancellation between fragments, and returns the accumulated text.
func (m *MockGenerator) GenerateStream(ctx context.Context, prompt string, fn ai.StreamFunc) (string, error) {
	m.callCount++

	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, prompt, fn)
	}

	fragments := m.Fragments
	if len(fragments) == 0 {
		fragments = strings.SplitAfter(defaultAnswer, " ")
	}

	var full strings.Builder
	for _, fragment := range fragments {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if err := fn(ctx, fragment); err != nil {
			return "", err
		}
		full.WriteString(fragment)
	}

	return full.String(), nil
}

// CallCount returns the number of times any method was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
	m.GenerateStreamFunc = nil
	m.Fragments = nil
}
