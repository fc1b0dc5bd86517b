package reembed

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lumina/ai/mock"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/vectorstore/badger"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func seedCollection(t *testing.T, store *badger.Store, name string, n int) {
	t.Helper()
	ctx := context.Background()

	coll, err := store.GetOrCreate(ctx, name)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		require.NoError(t, coll.Add(ctx, &core.Chunk{
			Id:     string(rune('a' + i)),
			Text:   "chunk text " + string(rune('a'+i)),
			Vector: []float32{1, 0, 0},
		}))
	}
}

func TestNewReembedderValidation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewReembedder(nil, mock.NewMockEmbedder(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewReembedder(store, nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestRun_ReembedsAllCollections(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	seedCollection(t, store, "apollo_shared", 3)
	seedCollection(t, store, "apollo_alice", 2)

	// New model: every embedding is the same non-unit vector, so written
	// vectors must come back normalized.
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{3, 4, 0}
		}
		return out, nil
	}

	var progress bytes.Buffer
	r, err := NewReembedder(store, embedder, testConfig(), &progress)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, progress.String(), "Reembedding complete. Processed 5 chunks")

	ctx := context.Background()
	for _, name := range []string{"apollo_shared", "apollo_alice"} {
		coll, err := store.Get(ctx, name)
		require.NoError(t, err)

		err = coll.ForEach(ctx, func(chunk *core.Chunk) error {
			require.Len(t, chunk.Vector, 3)
			assert.InDelta(t, 0.6, chunk.Vector[0], 1e-6)
			assert.InDelta(t, 0.8, chunk.Vector[1], 1e-6)

			var norm float64
			for _, v := range chunk.Vector {
				norm += float64(v) * float64(v)
			}
			assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
			return nil
		})
		require.NoError(t, err)
	}
}

func TestRun_RetriesTransientFailures(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	seedCollection(t, store, "apollo_shared", 1)

	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0, 1, 0}
		}
		return out, nil
	}

	var progress bytes.Buffer
	r, err := NewReembedder(store, embedder, testConfig(), &progress)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestRun_FailsAfterExhaustedRetries(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	seedCollection(t, store, "apollo_shared", 1)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("persistent")
	}

	var progress bytes.Buffer
	r, err := NewReembedder(store, embedder, testConfig(), &progress)
	require.NoError(t, err)

	assert.Error(t, r.Run(context.Background()))
}

func TestRun_EmptyStore(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	var progress bytes.Buffer
	r, err := NewReembedder(store, mock.NewMockEmbedder(), testConfig(), &progress)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, progress.String(), "No chunks found")
}
