package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/vectorstore"
)

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50

	// embedBatchSize bounds how many chunks a single worker task embeds.
	embedBatchSize = 16
)

// Pipeline splits documents into overlapping chunks, embeds them
// concurrently, and writes them to the vector store. Transcripts land
// in the querying user's per-project collection; seeded project data
// lands in the project's shared collection.
type Pipeline struct {
	store        vectorstore.Store
	embedder     ai.Embedder
	pool         *ants.Pool
	splitter     textsplitter.RecursiveCharacter
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunking overrides the splitter's chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		if overlap < 0 || overlap >= size {
			return fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
		}
		p.chunkSize = size
		p.chunkOverlap = overlap
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store vectorstore.Store, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:        store,
		embedder:     embedder,
		pool:         pool,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		logger:       slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)

	return p, nil
}

// TranscriptOptions holds optional parameters for transcript ingestion.
type TranscriptOptions struct {
	// Source identifies where the transcript came from, typically a
	// file path. It is stored as chunk metadata and used to derive
	// chunk identifiers.
	Source string

	// MeetingType labels the transcript (e.g. "standup", "refinement").
	MeetingType string
}

// IngestTranscript chunks a meeting transcript, embeds the chunks, and
// adds them to the user's per-project collection. It returns the number
// of chunks written. Re-ingesting the same transcript overwrites the
// previous chunks rather than duplicating them.
func (p *Pipeline) IngestTranscript(ctx context.Context, userID, projectID, transcript string, opts *TranscriptOptions) (int, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return 0, err
	}
	if strings.TrimSpace(transcript) == "" {
		return 0, ErrEmptyDocument
	}
	if opts == nil {
		opts = &TranscriptOptions{}
	}

	chunks, err := p.splitter.SplitText(transcript)
	if err != nil {
		return 0, err
	}

	vectors, err := p.embedAll(ctx, chunks)
	if err != nil {
		return 0, err
	}

	coll, err := p.store.GetOrCreate(ctx, vectorstore.UserCollectionName(projectID, userID))
	if err != nil {
		return 0, err
	}

	docID := documentID(opts.Source, transcript)
	metadata := map[string]string{
		"source":  opts.Source,
		"user_id": userID,
	}
	if opts.MeetingType != "" {
		metadata["meeting_type"] = opts.MeetingType
	}

	for i, chunk := range chunks {
		err := coll.Add(ctx, &core.Chunk{
			Id:       fmt.Sprintf("%s_%d", docID, i),
			Text:     chunk,
			Vector:   vectors[i],
			Metadata: metadata,
		})
		if err != nil {
			return 0, err
		}
	}

	p.logger.Info("transcript ingested",
		"user", userID, "project", projectID,
		"source", opts.Source, "chunks", len(chunks))
	return len(chunks), nil
}

// SeedShared chunks project reference data, embeds the chunks, and adds
// them to the project's shared collection, visible to every user of the
// project. It returns the number of chunks written.
func (p *Pipeline) SeedShared(ctx context.Context, projectID, source, text string) (int, error) {
	if projectID == "" {
		return 0, core.ErrProjectIDRequired
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyDocument
	}

	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return 0, err
	}

	vectors, err := p.embedAll(ctx, chunks)
	if err != nil {
		return 0, err
	}

	coll, err := p.store.GetOrCreate(ctx, vectorstore.SharedCollectionName(projectID))
	if err != nil {
		return 0, err
	}

	for i, chunk := range chunks {
		err := coll.Add(ctx, &core.Chunk{
			Id:       fmt.Sprintf("shared_chunk_%s_%d", projectID, i),
			Text:     chunk,
			Vector:   vectors[i],
			Metadata: map[string]string{"source": source},
		})
		if err != nil {
			return 0, err
		}
	}

	p.logger.Info("shared data seeded",
		"project", projectID, "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

// embedAll embeds chunks in batches on the worker pool, preserving
// chunk order in the result.
func (p *Pipeline) embedAll(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			batch, err := p.embedder.EmbedTexts(ctx, chunks[start:end])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(vectors[start:end], batch)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// documentID derives a stable identifier for a document: the source
// file's base name when a source is known, a content hash otherwise.
func documentID(source, text string) string {
	if source != "" {
		base := filepath.Base(source)
		if ext := filepath.Ext(base); ext != "" {
			base = strings.TrimSuffix(base, ext)
		}
		return base
	}
	return core.IDFromContent(text).String()
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
