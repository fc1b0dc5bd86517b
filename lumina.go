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


package lumina

import (
	"log/slog"

	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/ai/openai"
	"github.com/poiesic/lumina/engine"
	"github.com/poiesic/lumina/ingestion"
	"github.com/poiesic/lumina/retrieval"
	"github.com/poiesic/lumina/search"
	"github.com/poiesic/lumina/session"
	"github.com/poiesic/lumina/session/memory"
	"github.com/poiesic/lumina/vectorstore"
	"github.com/poiesic/lumina/vectorstore/badger"
)

// Backend wires the full query stack together: a badger-backed vector
// store, an in-memory session store, an OpenAI-compatible model
// provider, and the orchestration engine on top of them.
type Backend struct {
	vectors  *badger.Store
	sessions session.Store
	provider ai.Provider
	engine   *engine.Engine
	logger   *slog.Logger
}

// BackendOption configures a Backend.
type BackendOption func(*backendOptions)

type backendOptions struct {
	aiConfig *ai.Config
	topK     int
}

// WithAIConfig overrides the model service configuration.
func WithAIConfig(config *ai.Config) BackendOption {
	return func(o *backendOptions) {
		o.aiConfig = config
	}
}

// WithRetrievalTopK overrides how many chunks each collection
// contributes to a query's context.
func WithRetrievalTopK(topK int) BackendOption {
	return func(o *backendOptions) {
		o.topK = topK
	}
}

// NewBackend opens the vector store at filePath and assembles the
// engine and its collaborators.
func NewBackend(filePath string, opts ...BackendOption) (*Backend, error) {
	options := &backendOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	vectors, err := badger.Open(filePath, false)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		vectors.Close()
		return nil, err
	}

	sessions := memory.NewStore()

	composerOpts := []retrieval.Option{}
	if options.topK > 0 {
		composerOpts = append(composerOpts, retrieval.WithTopK(options.topK))
	}
	composer, err := retrieval.NewComposer(vectors, provider.Embedder(), composerOpts...)
	if err != nil {
		provider.Close()
		vectors.Close()
		return nil, err
	}

	eng, err := engine.New(sessions, composer, provider.Generator())
	if err != nil {
		provider.Close()
		vectors.Close()
		return nil, err
	}

	return &Backend{
		vectors:  vectors,
		sessions: sessions,
		provider: provider,
		engine:   eng,
		logger:   slog.Default(),
	}, nil
}

func (b *Backend) Close() error {
	if err := b.provider.Close(); err != nil {
		b.logger.Error("error closing AI provider", "err", err)
	}

	if err := b.vectors.Close(); err != nil {
		b.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// Engine returns the query orchestration engine.
func (b *Backend) Engine() *engine.Engine {
	return b.engine
}

// Sessions returns the session store.
func (b *Backend) Sessions() session.Store {
	return b.sessions
}

// VectorStore returns the underlying vector store.
func (b *Backend) VectorStore() vectorstore.Store {
	return b.vectors
}

// NewIngestionPipeline creates a pipeline writing to this backend's
// vector store using its embedding provider.
func (b *Backend) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(b.vectors, b.provider.Embedder(), opts...)
}

// NewSearcher creates a searcher over this backend's vector store using
// its embedding provider.
func (b *Backend) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(b.vectors, b.provider.Embedder(), opts...)
}
