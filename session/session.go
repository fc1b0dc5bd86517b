package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lumina/core"
)

// Session is a named, ordered conversation history scoped to one
// (user, project) pair. All mutations are serialized by the session's
// own lock, so concurrent requests against the same session cannot
// lose updates.
//
// Turn history grows without bound; that is an accepted limitation of
// the in-process store.
type Session struct {
	mu           sync.Mutex
	id           string
	name         string
	createdAt    time.Time
	lastAccessed time.Time
	messageCount int
	turns        []core.Turn
}

// Info is a point-in-time metadata snapshot of a session, as returned
// by Store.List.
type Info struct {
	Name         string
	CreatedAt    time.Time
	LastAccessed time.Time
	MessageCount int
}

// NewID generates a unique session identifier from the current unix
// timestamp and a random suffix.
func NewID() string {
	return fmt.Sprintf("%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

// New creates an empty session with the given identifier. The default
// display name is derived from the creation time.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		id:           id,
		name:         "Session " + now.Format("2006-01-02 15:04:05"),
		createdAt:    now,
		lastAccessed: now,
	}
}

// ID returns the session identifier. Identifiers are immutable and
// unique within their (user, project) scope.
func (s *Session) ID() string {
	return s.id
}

// Name returns the session display name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName updates the session display name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// CreatedAt returns the creation timestamp.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastAccessed returns the last access timestamp.
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Touch refreshes the last access timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = time.Now()
}

// MessageCount returns the number of exchanges recorded against the session.
func (s *Session) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

// IncrementMessageCount bumps the message count and refreshes the last
// access timestamp.
func (s *Session) IncrementMessageCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageCount++
	s.lastAccessed = time.Now()
}

// Append adds a turn to the end of the conversation history.
func (s *Session) Append(role core.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, core.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// History returns a copy of the conversation turns in chronological order.
func (s *Session) History() []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]core.Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Clear discards the conversation history and resets the message count.
// The identifier, name, and creation timestamp survive.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.messageCount = 0
}

// Snapshot returns the session's metadata.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		Name:         s.name,
		CreatedAt:    s.createdAt,
		LastAccessed: s.lastAccessed,
		MessageCount: s.messageCount,
	}
}
