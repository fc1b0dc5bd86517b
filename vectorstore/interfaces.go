package vectorstore

import (
	"context"

	"github.com/poiesic/lumina/core"
)

// Store provides access to named collections of embedded document chunks.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Get returns an existing collection.
	// Returns ErrCollectionNotFound if the collection has never been created.
	Get(ctx context.Context, name string) (Collection, error)

	// GetOrCreate returns the named collection, creating it if absent.
	GetOrCreate(ctx context.Context, name string) (Collection, error)

	// Collections returns the names of all collections in the store,
	// in lexical order.
	Collections(ctx context.Context) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}

// Collection is a named partition of the vector store holding embedded
// chunks for one project or one user-within-project.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Add stores chunks in the collection. Chunks are upserted by Id, so
	// re-adding content with the same id replaces the previous version.
	Add(ctx context.Context, chunks ...*core.Chunk) error

	// Query returns up to topK chunks nearest to the given vector,
	// ordered by descending relevance score.
	Query(ctx context.Context, vector []float32, topK int) ([]*core.ScoredChunk, error)

	// Count returns the number of chunks stored in the collection.
	Count(ctx context.Context) (int, error)

	// ForEach visits every chunk in the collection. Iteration stops at
	// the first error returned by fn, which is then propagated.
	ForEach(ctx context.Context, fn func(chunk *core.Chunk) error) error
}
