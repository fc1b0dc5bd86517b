// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/vectorstore"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embeddings of every chunk in every
// collection of a vector store, typically after switching to a new
// embedding model. New vectors are normalized to unit length before
// being written back.
type Reembedder struct {
	store    vectorstore.Store
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(store vectorstore.Store, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		store:    store,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run executes the reembedding operation across all collections.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	names, err := r.store.Collections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	total := 0
	for _, name := range names {
		coll, err := r.store.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to open collection %s: %w", name, err)
		}
		count, err := coll.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count collection %s: %w", name, err)
		}
		total += count
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in store (0 collections with data)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks across %d collections (batch size: %d)\n",
		total, len(names), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	for _, name := range names {
		coll, err := r.store.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to open collection %s: %w", name, err)
		}

		batch := make([]*core.Chunk, 0, r.config.BatchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := r.processBatch(ctx, coll, batch); err != nil {
				return fmt.Errorf("failed to process batch in %s: %w", name, err)
			}
			processed += len(batch)
			tracker.Update(processed)
			batch = batch[:0]
			return nil
		}

		err = coll.ForEach(ctx, func(chunk *core.Chunk) error {
			batch = append(batch, chunk)
			if len(batch) >= r.config.BatchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := flush(); err != nil {
			return err
		}
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

// processBatch embeds one batch of chunks and writes the new vectors
// back, retrying transient failures with exponential backoff.
func (r *Reembedder) processBatch(ctx context.Context, coll vectorstore.Collection, chunks []*core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = r.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return err
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(chunks), len(embeddings))
	}

	for i, chunk := range chunks {
		chunk.Vector = NormalizeVector(embeddings[i])
	}

	return RetryWithBackoff(ctx, func() error {
		return coll.Add(ctx, chunks...)
	}, r.config.MaxRetries, r.config.RetryDelay)
}
