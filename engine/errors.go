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

package engine

import "errors"

var (
	// ErrSessionStoreRequired is returned by New when no session store
	// is provided.
	ErrSessionStoreRequired = errors.New("session store is required")

	// ErrComposerRequired is returned by New when no retrieval composer
	// is provided.
	ErrComposerRequired = errors.New("retrieval composer is required")

	// ErrGeneratorRequired is returned by New when no generator is
	// provided.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrUpstreamUnavailable wraps failures of the embedding or
	// generation backends.
	ErrUpstreamUnavailable = errors.New("upstream model service unavailable")
)

// upstreamErrorMessage is the human-readable fragment emitted on a
// streaming failure so consumers never see a silent truncation.
const upstreamErrorMessage = "Error: the language model service is unavailable. Please try again later."
