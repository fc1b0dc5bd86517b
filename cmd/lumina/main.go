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


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/lumina"
	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/ai/openai"
	"github.com/poiesic/lumina/engine"
	"github.com/poiesic/lumina/ingestion"
	"github.com/poiesic/lumina/reembed"
	"github.com/poiesic/lumina/vectorstore"
	"github.com/poiesic/lumina/vectorstore/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "lumina",
		Usage: "Retrieval-augmented assistant for project knowledge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Interactive chat session against a project's knowledge base",
				Action: chatCommand,
				Flags: append(modelFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the vector store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Chunks retrieved per collection for each query",
						Value: 10,
					},
				),
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a meeting transcript into a user's collection",
				Action: ingestCommand,
				Flags: append(modelFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the vector store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the transcript file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "meeting-type",
						Usage: "Meeting type label (e.g. standup, refinement)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in characters",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap in characters",
						Value: 50,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search a project's collections directly, without a chat turn",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append(modelFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the vector store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 5,
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored chunks with a new embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the vector store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Seed a project's shared collection from a data file",
				Action: seedCommand,
				Flags: append(modelFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the vector store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "project",
						Aliases:  []string{"p"},
						Usage:    "Project identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the shared data file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size in characters",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Chunk overlap in characters",
						Value: 50,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "Model service host URL for embeddings and generation",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "nomic-embed-text",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
			Value: "llama3:8b",
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}
	return config, nil
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	backend, err := lumina.NewBackend(c.String("db"),
		lumina.WithAIConfig(config),
		lumina.WithRetrievalTopK(c.Int("top-k")))
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer backend.Close()

	eng := backend.Engine()
	userID := c.String("user")
	projectID := c.String("project")
	sessionID := ""

	fmt.Println("Type a question, /new_session, /clear_history, /sessions, or /quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}
		if line == "/sessions" {
			infos, err := eng.ListSessions(ctx, userID, projectID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			for id, info := range infos {
				fmt.Printf("%s  %q  messages=%d  last=%s\n",
					id, info.Name, info.MessageCount,
					info.LastAccessed.Format("2006-01-02 15:04:05"))
			}
			continue
		}

		stream, err := eng.QueryStream(ctx, &engine.Request{
			UserID:    userID,
			ProjectID: projectID,
			SessionID: sessionID,
			Query:     line,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		for fragment := range stream.Fragments() {
			fmt.Print(fragment)
		}
		fmt.Println()
		if err := stream.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		sessionID = stream.SessionID()
	}

	return scanner.Err()
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	filePath := c.String("file")
	transcript, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	backend, err := lumina.NewBackend(c.String("db"), lumina.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer backend.Close()

	pipeline, err := backend.NewIngestionPipeline(
		ingestion.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	chunks, err := pipeline.IngestTranscript(ctx, c.String("user"), c.String("project"),
		string(transcript), &ingestion.TranscriptOptions{
			Source:      filePath,
			MeetingType: c.String("meeting-type"),
		})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingested %d chunks from %s\n", chunks, filePath)
	return nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	filePath := c.String("file")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	backend, err := lumina.NewBackend(c.String("db"), lumina.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer backend.Close()

	pipeline, err := backend.NewIngestionPipeline(
		ingestion.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")))
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	chunks, err := pipeline.SeedShared(ctx, c.String("project"), filePath, string(data))
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded %d chunks for project %s\n", chunks, c.String("project"))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("search query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	backend, err := lumina.NewBackend(c.String("db"), lumina.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer backend.Close()

	searcher, err := backend.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	projectID := c.String("project")
	userID := c.String("user")
	collections := []string{
		vectorstore.SharedCollectionName(projectID),
		vectorstore.UserCollectionName(projectID, userID),
	}

	hits, err := searcher.FindSimilar(ctx, query, collections, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		marker := ""
		if hit.Verbatim {
			marker = " *"
		}
		fmt.Printf("%d: '%s' (%s)[%0.3f]%s\n", i, hit.Chunk.Text, hit.Collection, hit.Score, marker)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := badger.Open(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid model configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := reembed.NewReembedder(store, embedder, reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Store: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
