// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockGenerator: Returns a canned answer; streams it word by word
//   - MockProvider: Aggregates mock embedder and generator
//
// Custom behavior is injected via the *Func fields, and call counts are
// available for assertions via CallCount().
package mock
