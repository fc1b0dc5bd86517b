package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lumina/ai/mock"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/vectorstore/badger"
)

func axisEmbedder(axis int) *mock.MockEmbedder {
	e := mock.NewMockEmbedder()
	e.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		vec := make([]float32, 4)
		vec[axis] = 1
		return vec, nil
	}
	return e
}

func addChunk(t *testing.T, s *badger.Store, collection, id, text string, vec []float32) {
	t.Helper()
	ctx := context.Background()

	coll, err := s.GetOrCreate(ctx, collection)
	require.NoError(t, err)
	require.NoError(t, coll.Add(ctx, &core.Chunk{Id: id, Text: text, Vector: vec}))
}

func TestNewSearcherValidation(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewSearcher(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewSearcher(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestFindSimilarRanksAcrossCollections(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	addChunk(t, store, "apollo_shared", "s1", "release checklist", []float32{0.9, 0, 0, 0})
	addChunk(t, store, "apollo_alice", "u1", "standup notes", []float32{0.5, 0, 0, 0})
	addChunk(t, store, "apollo_alice", "u2", "unrelated", []float32{0, 1, 0, 0})

	s, err := NewSearcher(store, axisEmbedder(0))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "release", []string{"apollo_shared", "apollo_alice"}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "s1", hits[0].Chunk.Id)
	assert.Equal(t, "apollo_shared", hits[0].Collection)
	assert.Equal(t, "u1", hits[1].Chunk.Id)
	assert.Equal(t, "apollo_alice", hits[1].Collection)
}

func TestFindSimilarVerbatimBoost(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	// Same similarity; only one chunk contains the query words.
	addChunk(t, store, "apollo_shared", "match", "the release checklist is ready", []float32{0.5, 0, 0, 0})
	addChunk(t, store, "apollo_shared", "other", "weather report for Thursday", []float32{0.5, 0, 0, 0})

	s, err := NewSearcher(store, axisEmbedder(0))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "release checklist", []string{"apollo_shared"}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "match", hits[0].Chunk.Id)
	assert.True(t, hits[0].Verbatim)
	assert.False(t, hits[1].Verbatim)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestFindSimilarSkipsMissingCollections(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	addChunk(t, store, "apollo_shared", "s1", "release checklist", []float32{1, 0, 0, 0})

	s, err := NewSearcher(store, axisEmbedder(0))
	require.NoError(t, err)

	hits, err := s.FindSimilar(context.Background(), "release", []string{"no_such", "apollo_shared"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].Chunk.Id)
}

func TestFindSimilarEmptyQuery(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	s, err := NewSearcher(store, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = s.FindSimilar(context.Background(), "   ", []string{"apollo_shared"}, 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFindSimilarEmbedderFailure(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model unavailable")
	}

	s, err := NewSearcher(store, embedder)
	require.NoError(t, err)

	_, err = s.FindSimilar(context.Background(), "release", []string{"apollo_shared"}, 5)
	assert.Error(t, err)
}

type recordingMonitor struct {
	started     string
	collections []string
	verbatim    int
	finished    int
}

func (r *recordingMonitor) Start(query string) { r.started = query }
func (r *recordingMonitor) AfterCollectionSearch(collection string, hits int) {
	r.collections = append(r.collections, collection)
}
func (r *recordingMonitor) VerbatimHit(_ *Hit)  { r.verbatim++ }
func (r *recordingMonitor) Finish(hits []*Hit)  { r.finished = len(hits) }

func TestFindSimilarWithMonitor(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	addChunk(t, store, "apollo_shared", "s1", "the release checklist is ready", []float32{1, 0, 0, 0})

	s, err := NewSearcher(store, axisEmbedder(0))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	hits, err := s.FindSimilarWithMonitor(context.Background(), "release checklist", []string{"apollo_shared"}, 5, monitor)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "release checklist", monitor.started)
	assert.Equal(t, []string{"apollo_shared"}, monitor.collections)
	assert.Equal(t, 1, monitor.verbatim)
	assert.Equal(t, 1, monitor.finished)
}
