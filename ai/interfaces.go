package ai

import "context"

// Embedder generates vector embeddings from text for nearest-neighbor search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// StreamFunc receives one answer fragment at a time during streaming
// generation. Returning an error aborts the generation call.
type StreamFunc func(ctx context.Context, fragment string) error

// Generator produces language-model completions for assembled prompts.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the complete answer for a prompt in one call.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream produces the answer incrementally, invoking fn for
	// each fragment as it arrives, and returns the accumulated full text.
	// Canceling ctx stops the upstream call; the partial text is then
	// discarded along with the returned error.
	GenerateStream(ctx context.Context, prompt string, fn StreamFunc) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Generator instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
