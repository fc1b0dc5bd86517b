package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/vectorstore"

	"github.com/poiesic/lumina/core"
)

// verbatimBoost is the score multiplier applied when every content word
// of the query appears verbatim in a chunk.
const verbatimBoost = 1.5

// Hit is one search result: a chunk, its final score, and where it
// came from.
type Hit struct {
	Chunk      *core.Chunk
	Score      float32
	Collection string

	// Verbatim reports whether the chunk contained every content word
	// of the query and received the corresponding boost.
	Verbatim bool
}

// Searcher provides direct similarity search over vector-store
// collections, independent of any chat session. It combines the
// embedding similarity score with a verbatim keyword signal.
type Searcher struct {
	store    vectorstore.Store
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store vectorstore.Store, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches the named collections for chunks similar to the
// query. Missing collections are skipped. Returns up to maxHits results
// ranked by score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, collections []string, maxHits int) ([]*Hit, error) {
	return s.FindSimilarWithMonitor(ctx, query, collections, maxHits, nil)
}

// FindSimilarWithMonitor is FindSimilar with hooks into each stage of
// the search.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, collections []string, maxHits int, monitor Monitor) ([]*Hit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits < 1 {
		maxHits = 1
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	hits := make([]*Hit, 0, maxHits*len(collections))
	for _, name := range collections {
		coll, err := s.store.Get(ctx, name)
		if err != nil {
			if errors.Is(err, vectorstore.ErrCollectionNotFound) {
				s.logger.Debug("collection not found, skipping", "collection", name)
				continue
			}
			return nil, err
		}

		scored, err := coll.Query(ctx, embedding, maxHits)
		if err != nil {
			s.logger.Error("error querying collection", "collection", name, "err", err)
			return nil, err
		}
		monitor.AfterCollectionSearch(name, len(scored))

		for _, sc := range scored {
			hit := &Hit{
				Chunk:      sc.Chunk,
				Score:      sc.Score,
				Collection: name,
			}
			if containsAllQueryWords(sc.Chunk.Text, query) {
				hit.Score *= verbatimBoost
				hit.Verbatim = true
				monitor.VerbatimHit(hit)
			}
			hits = append(hits, hit)
		}
	}

	slices.SortFunc(hits, func(a, b *Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(hits) > maxHits {
		hits = hits[:maxHits]
	}

	monitor.Finish(hits)
	return hits, nil
}
