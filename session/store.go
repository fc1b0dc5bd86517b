package session

import "context"

// Store manages named sessions keyed by user and project.
// Implementations must be safe for concurrent use; per-session mutation
// is serialized by the Session itself.
type Store interface {
	// GetOrCreate resolves the session to use for a query.
	//
	// If forceNew is true or no sessions exist for (userID, projectID),
	// a new session is created (with sessionID if supplied, a generated
	// identifier otherwise). If sessionID names an existing session, that
	// session is returned with its last access timestamp refreshed.
	// Otherwise the most recently accessed session for the pair is
	// returned. Returns core.ErrUserIDRequired or core.ErrProjectIDRequired
	// on missing identifiers.
	GetOrCreate(ctx context.Context, userID, projectID, sessionID string, forceNew bool) (*Session, error)

	// Get returns the session with the given identifier, or nil if absent.
	// Unlike GetOrCreate it never creates and never refreshes timestamps.
	Get(ctx context.Context, userID, projectID, sessionID string) *Session

	// List returns metadata for the user's sessions in one project,
	// keyed by session identifier. Unknown users or projects yield an
	// empty map.
	List(ctx context.Context, userID, projectID string) map[string]Info

	// ListAll returns metadata for all of the user's sessions across
	// projects, keyed by project then session identifier.
	ListAll(ctx context.Context, userID string) map[string]map[string]Info

	// Rename updates a session's display name.
	// Returns false if the session is absent.
	Rename(ctx context.Context, userID, projectID, sessionID, newName string) bool

	// Delete removes a session entirely.
	// Returns false if the session is absent.
	Delete(ctx context.Context, userID, projectID, sessionID string) bool

	// ClearHistory discards a session's turns and resets its message
	// count, preserving identifier, name, and creation time.
	// Returns false if the session is absent.
	ClearHistory(ctx context.Context, userID, projectID, sessionID string) bool

	// IncrementMessageCount bumps a session's message count and refreshes
	// its last access timestamp. Returns false if the session is absent.
	IncrementMessageCount(ctx context.Context, userID, projectID, sessionID string) bool
}
