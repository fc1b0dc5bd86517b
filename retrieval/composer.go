package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/vectorstore"
)

const defaultTopK = 10

// Composer gathers retrieval context for a query from the project's
// shared collection and the user's private collection.
type Composer struct {
	store    vectorstore.Store
	embedder ai.Embedder
	topK     int
	logger   *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer) error

// WithTopK sets the number of nearest chunks requested per collection.
// Default is 10.
func WithTopK(topK int) Option {
	return func(c *Composer) error {
		if topK < 1 {
			return ErrInvalidTopK
		}
		c.topK = topK
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewComposer creates a new retrieval composer.
func NewComposer(store vectorstore.Store, embedder ai.Embedder, opts ...Option) (*Composer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Composer{
		store:    store,
		embedder: embedder,
		topK:     defaultTopK,
		logger:   slog.Default().With("component", "retrieval"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// section is one labeled block of retrieved context.
type section struct {
	label  string
	chunks []*core.ScoredChunk
	err    error
}

// Compose embeds the query once and runs the two nearest-neighbor
// queries concurrently: the project's shared collection and the user's
// private collection. Chunks keep vector-store order (descending
// relevance, no re-ranking) and the two sources stay in separately
// labeled sections so generation can weight them differently.
//
// A collection that has never been created is not an error; it simply
// contributes no data. If neither collection yields anything, Compose
// returns an empty string.
func (c *Composer) Compose(ctx context.Context, projectID, userID, queryText string) (string, error) {
	vector, err := c.embedder.EmbedText(ctx, queryText)
	if err != nil {
		c.logger.Error("error generating embedding for query", "err", err)
		return "", err
	}

	sections := []*section{
		{label: "Shared project data"},
		{label: "Your uploaded documents"},
	}
	names := []string{
		vectorstore.SharedCollectionName(projectID),
		vectorstore.UserCollectionName(projectID, userID),
	}

	// The two sub-queries are independent and read-only.
	var wg sync.WaitGroup
	for i := range sections {
		wg.Add(1)
		go func(sec *section, name string) {
			defer wg.Done()
			sec.chunks, sec.err = c.queryCollection(ctx, name, vector)
		}(sections[i], names[i])
	}
	wg.Wait()

	var parts []string
	for _, sec := range sections {
		if sec.err != nil {
			return "", sec.err
		}
		if len(sec.chunks) == 0 {
			continue
		}
		parts = append(parts, formatSection(sec.label, sec.chunks))
	}

	return strings.Join(parts, "\n\n"), nil
}

// queryCollection runs one nearest-neighbor query, treating an absent
// collection as empty.
func (c *Composer) queryCollection(ctx context.Context, name string, vector []float32) ([]*core.ScoredChunk, error) {
	col, err := c.store.Get(ctx, name)
	if errors.Is(err, vectorstore.ErrCollectionNotFound) {
		c.logger.Debug("collection not yet created", "collection", name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return col.Query(ctx, vector, c.topK)
}

// formatSection renders one labeled context block, one chunk per line.
func formatSection(label string, chunks []*core.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("**")
	b.WriteString(label)
	b.WriteString("**:\n")
	for i, sc := range chunks {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(sc.Chunk.Text)
	}
	return b.String()
}
