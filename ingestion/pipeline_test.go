package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lumina/ai/mock"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/vectorstore"
	"github.com/poiesic/lumina/vectorstore/badger"
)

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, *badger.Store, *mock.MockEmbedder) {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := mock.NewMockEmbedder()

	p, err := NewPipeline(store, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return p, store, embedder
}

// transcript long enough to split into several 100-byte chunks.
func testTranscript() string {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Alice: the deployment pipeline needs a review before the release.\n")
		b.WriteString("Bob: agreed, let us schedule it for Thursday morning.\n")
	}
	return b.String()
}

func TestNewPipelineValidation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewPipeline(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewPipeline(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(store, mock.NewMockEmbedder(), WithChunking(0, 0))
	assert.Error(t, err)

	_, err = NewPipeline(store, mock.NewMockEmbedder(), WithChunking(100, 100))
	assert.Error(t, err)
}

func TestIngestTranscript(t *testing.T) {
	p, store, _ := newTestPipeline(t, WithChunking(100, 10))
	ctx := context.Background()

	n, err := p.IngestTranscript(ctx, "alice", "apollo", testTranscript(), &TranscriptOptions{
		Source:      "/transcripts/standup_2025_06_12.txt",
		MeetingType: "standup",
	})
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	coll, err := store.Get(ctx, vectorstore.UserCollectionName("apollo", "alice"))
	require.NoError(t, err)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestIngestTranscriptMetadataAndIDs(t *testing.T) {
	p, store, embedder := newTestPipeline(t, WithChunking(100, 10))
	ctx := context.Background()

	_, err := p.IngestTranscript(ctx, "alice", "apollo", testTranscript(), &TranscriptOptions{
		Source:      "/transcripts/standup_2025_06_12.txt",
		MeetingType: "standup",
	})
	require.NoError(t, err)

	coll, err := store.Get(ctx, vectorstore.UserCollectionName("apollo", "alice"))
	require.NoError(t, err)

	vec, err := embedder.EmbedText(ctx, "deployment pipeline review")
	require.NoError(t, err)

	results, err := coll.Query(ctx, vec, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.True(t, strings.HasPrefix(r.Chunk.Id, "standup_2025_06_12_"))
		assert.Equal(t, "standup", r.Chunk.Metadata["meeting_type"])
		assert.Equal(t, "alice", r.Chunk.Metadata["user_id"])
		assert.Equal(t, "/transcripts/standup_2025_06_12.txt", r.Chunk.Metadata["source"])
	}
}

func TestIngestTranscriptIdempotent(t *testing.T) {
	p, store, _ := newTestPipeline(t, WithChunking(100, 10))
	ctx := context.Background()

	opts := &TranscriptOptions{Source: "/transcripts/standup.txt"}
	first, err := p.IngestTranscript(ctx, "alice", "apollo", testTranscript(), opts)
	require.NoError(t, err)

	second, err := p.IngestTranscript(ctx, "alice", "apollo", testTranscript(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	coll, err := store.Get(ctx, vectorstore.UserCollectionName("apollo", "alice"))
	require.NoError(t, err)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, count)
}

func TestIngestTranscriptWithoutSource(t *testing.T) {
	p, store, _ := newTestPipeline(t)
	ctx := context.Background()

	text := "Short transcript that fits in one chunk."
	n, err := p.IngestTranscript(ctx, "alice", "apollo", text, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	coll, err := store.Get(ctx, vectorstore.UserCollectionName("apollo", "alice"))
	require.NoError(t, err)

	vec := make([]float32, 384)
	vec[0] = 1
	results, err := coll.Query(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, strings.HasPrefix(results[0].Chunk.Id, core.IDFromContent(text).String()))
}

func TestIngestTranscriptValidation(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.IngestTranscript(ctx, "", "apollo", "text", nil)
	assert.ErrorIs(t, err, core.ErrUserIDRequired)

	_, err = p.IngestTranscript(ctx, "alice", "", "text", nil)
	assert.ErrorIs(t, err, core.ErrProjectIDRequired)

	_, err = p.IngestTranscript(ctx, "alice", "apollo", "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestTranscriptEmbedderFailure(t *testing.T) {
	p, store, embedder := newTestPipeline(t)
	ctx := context.Background()

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model unavailable")
	}

	_, err := p.IngestTranscript(ctx, "alice", "apollo", "some transcript text", nil)
	assert.Error(t, err)

	// Nothing is written when embedding fails.
	_, err = store.Get(ctx, vectorstore.UserCollectionName("apollo", "alice"))
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestSeedShared(t *testing.T) {
	p, store, embedder := newTestPipeline(t, WithChunking(100, 10))
	ctx := context.Background()

	n, err := p.SeedShared(ctx, "apollo", "/data/apollo_overview.txt", testTranscript())
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	coll, err := store.Get(ctx, vectorstore.SharedCollectionName("apollo"))
	require.NoError(t, err)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)

	vec, err := embedder.EmbedText(ctx, "deployment pipeline")
	require.NoError(t, err)

	results, err := coll.Query(ctx, vec, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, strings.HasPrefix(results[0].Chunk.Id, "shared_chunk_apollo_"))
	assert.Equal(t, "/data/apollo_overview.txt", results[0].Chunk.Metadata["source"])
}

func TestSeedSharedValidation(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.SeedShared(ctx, "", "src", "text")
	assert.ErrorIs(t, err, core.ErrProjectIDRequired)

	_, err = p.SeedShared(ctx, "apollo", "src", "")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
