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


package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/session"
)

// Store implements session.Store with an in-process two-level index:
// user -> project -> sessions. The store lock guards the index; each
// session serializes its own mutations.
type Store struct {
	mu     sync.RWMutex
	users  map[string]map[string]map[string]*session.Session
	logger *slog.Logger
}

var _ session.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewStore creates an empty in-memory session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users:  make(map[string]map[string]map[string]*session.Session),
		logger: slog.Default().With("component", "session-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate resolves the session to use for a query, creating one when
// forceNew is set or none exists for the (user, project) pair.
func (s *Store) GetOrCreate(ctx context.Context, userID, projectID, sessionID string, forceNew bool) (*session.Session, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.project(userID, projectID)

	if forceNew || len(sessions) == 0 {
		id := sessionID
		if id == "" {
			id = session.NewID()
		}
		sess := session.New(id)
		sessions[id] = sess
		s.logger.Debug("created session", "user", userID, "project", projectID, "session", id)
		return sess, nil
	}

	if sessionID != "" {
		if sess, ok := sessions[sessionID]; ok {
			sess.Touch()
			return sess, nil
		}
	}

	// No usable explicit id: fall back to the most recently accessed
	// session. Timestamps are refreshed on every access, so last write
	// wins and no tie-break is needed.
	var recent *session.Session
	for _, sess := range sessions {
		if recent == nil || sess.LastAccessed().After(recent.LastAccessed()) {
			recent = sess
		}
	}
	recent.Touch()
	return recent, nil
}

// Get returns the named session without creating or touching anything.
func (s *Store) Get(ctx context.Context, userID, projectID, sessionID string) *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(userID, projectID, sessionID)
}

// List returns session metadata for one project.
func (s *Store) List(ctx context.Context, userID, projectID string) map[string]session.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]session.Info)
	for id, sess := range s.users[userID][projectID] {
		result[id] = sess.Snapshot()
	}
	return result
}

// ListAll returns session metadata across all of the user's projects.
func (s *Store) ListAll(ctx context.Context, userID string) map[string]map[string]session.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]map[string]session.Info)
	for projectID, sessions := range s.users[userID] {
		result[projectID] = make(map[string]session.Info, len(sessions))
		for id, sess := range sessions {
			result[projectID][id] = sess.Snapshot()
		}
	}
	return result
}

// Rename updates a session's display name.
func (s *Store) Rename(ctx context.Context, userID, projectID, sessionID, newName string) bool {
	s.mu.RLock()
	sess := s.lookup(userID, projectID, sessionID)
	s.mu.RUnlock()

	if sess == nil {
		return false
	}
	sess.SetName(newName)
	return true
}

// Delete removes a session entirely.
func (s *Store) Delete(ctx context.Context, userID, projectID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, ok := s.users[userID][projectID]
	if !ok {
		return false
	}
	if _, ok := sessions[sessionID]; !ok {
		return false
	}
	delete(sessions, sessionID)
	s.logger.Debug("deleted session", "user", userID, "project", projectID, "session", sessionID)
	return true
}

// ClearHistory discards a session's turns, preserving its metadata.
func (s *Store) ClearHistory(ctx context.Context, userID, projectID, sessionID string) bool {
	s.mu.RLock()
	sess := s.lookup(userID, projectID, sessionID)
	s.mu.RUnlock()

	if sess == nil {
		return false
	}
	sess.Clear()
	return true
}

// IncrementMessageCount bumps a session's message count.
func (s *Store) IncrementMessageCount(ctx context.Context, userID, projectID, sessionID string) bool {
	s.mu.RLock()
	sess := s.lookup(userID, projectID, sessionID)
	s.mu.RUnlock()

	if sess == nil {
		return false
	}
	sess.IncrementMessageCount()
	return true
}

// project returns the session map for (userID, projectID), creating the
// index levels as needed. Callers must hold the write lock.
func (s *Store) project(userID, projectID string) map[string]*session.Session {
	projects, ok := s.users[userID]
	if !ok {
		projects = make(map[string]map[string]*session.Session)
		s.users[userID] = projects
	}
	sessions, ok := projects[projectID]
	if !ok {
		sessions = make(map[string]*session.Session)
		projects[projectID] = sessions
	}
	return sessions
}

// lookup finds a session without creating index levels.
// Callers must hold at least the read lock.
func (s *Store) lookup(userID, projectID, sessionID string) *session.Session {
	return s.users[userID][projectID][sessionID]
}
