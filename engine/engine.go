package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lumina/ai"
	"github.com/poiesic/lumina/core"
	"github.com/poiesic/lumina/intent"
	"github.com/poiesic/lumina/prompt"
	"github.com/poiesic/lumina/retrieval"
	"github.com/poiesic/lumina/session"
)

// Request carries one user query into the engine.
type Request struct {
	UserID    string
	ProjectID string
	Query     string

	// SessionID pins the query to a specific session. When empty, the
	// most recently accessed session for the user/project pair is used,
	// or a new one is created if none exists.
	SessionID string

	// NewSession forces creation of a fresh session even when others
	// exist. The /new_session directive sets this implicitly.
	NewSession bool
}

// Result is a completed answer together with the session it belongs to.
type Result struct {
	Answer    string
	SessionID string
}

// Engine orchestrates a query end to end: directive handling, session
// resolution, intent detection, retrieval composition, prompt assembly,
// and generation. Conversational memory is committed only after the full
// answer is known.
type Engine struct {
	sessions  session.Store
	composer  *retrieval.Composer
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// New creates an Engine from its collaborators.
func New(sessions session.Store, composer *retrieval.Composer, generator ai.Generator, opts ...Option) (*Engine, error) {
	if sessions == nil {
		return nil, ErrSessionStoreRequired
	}
	if composer == nil {
		return nil, ErrComposerRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	e := &Engine{
		sessions:  sessions,
		composer:  composer,
		generator: generator,
		logger:    slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// prepared holds the state assembled before generation starts.
type prepared struct {
	sess   *session.Session
	query  string
	prompt string

	// ack is non-empty when a directive fully consumed the query and a
	// canned acknowledgement should be returned without generation.
	ack string
}

// prepare runs every step of the pipeline up to (but excluding) the
// generation call, so that blocking and streaming queries share the
// exact same path.
func (e *Engine) prepare(ctx context.Context, req *Request) (*prepared, error) {
	if err := core.ValidateScope(req.UserID, req.ProjectID); err != nil {
		return nil, err
	}

	query := req.Query
	sessionID := req.SessionID
	forceNew := req.NewSession

	dir, remainder := parseDirective(query)
	switch dir {
	case directiveNewSession:
		forceNew = true
		query = remainder
	case directiveClearHistory:
		sess, err := e.sessions.GetOrCreate(ctx, req.UserID, req.ProjectID, sessionID, false)
		if err != nil {
			return nil, err
		}
		e.sessions.ClearHistory(ctx, req.UserID, req.ProjectID, sess.ID())
		if remainder == "" {
			return &prepared{sess: sess, ack: historyClearedAck}, nil
		}
		query = remainder
		sessionID = sess.ID()
	}

	sess, err := e.sessions.GetOrCreate(ctx, req.UserID, req.ProjectID, sessionID, forceNew)
	if err != nil {
		return nil, err
	}

	if dir == directiveNewSession && query == "" {
		return &prepared{sess: sess, ack: newSessionAck}, nil
	}
	if query == "" {
		return nil, core.ErrEmptyQuery
	}

	detected := intent.Detect(query)
	e.logger.Debug("query prepared",
		"user", req.UserID, "project", req.ProjectID,
		"session", sess.ID(), "intent", detected)

	contextText, err := e.composer.Compose(ctx, req.ProjectID, req.UserID, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	details := prompt.InstructionDetails(intent.InstructionFor(detected))
	history := prompt.FormatHistory(sess.History())

	e.sessions.IncrementMessageCount(ctx, req.UserID, req.ProjectID, sess.ID())

	return &prepared{
		sess:   sess,
		query:  query,
		prompt: prompt.Build(details, history, contextText, query),
	}, nil
}

func (e *Engine) commit(sess *session.Session, query, answer string) {
	sess.Append(core.RoleHuman, query)
	sess.Append(core.RoleAI, answer)
}

// Query answers a request in blocking mode. The exchange is appended to
// the session's memory only on success.
func (e *Engine) Query(ctx context.Context, req *Request) (*Result, error) {
	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if p.ack != "" {
		return &Result{Answer: p.ack, SessionID: p.sess.ID()}, nil
	}

	answer, err := e.generator.Generate(ctx, p.prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	e.commit(p.sess, p.query, answer)
	return &Result{Answer: answer, SessionID: p.sess.ID()}, nil
}

// QueryStream answers a request in streaming mode. Preparation errors
// (validation, retrieval failures) are returned synchronously;
// generation failures surface through the returned Stream as a single
// human-readable error fragment plus a non-nil Err.
//
// Canceling the stream aborts generation and suppresses the memory
// commit: a partially streamed answer is never remembered.
func (e *Engine) QueryStream(ctx context.Context, req *Request) (*Stream, error) {
	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := newStream(p.sess.ID(), cancel)

	if p.ack != "" {
		go func() {
			defer close(s.fragments)
			select {
			case s.fragments <- p.ack:
			case <-streamCtx.Done():
				s.fail(streamCtx.Err())
			}
		}()
		return s, nil
	}

	go func() {
		defer close(s.fragments)

		answer, err := e.generator.GenerateStream(streamCtx, p.prompt, func(ctx context.Context, fragment string) error {
			select {
			case s.fragments <- fragment:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			if streamCtx.Err() != nil {
				s.fail(streamCtx.Err())
				return
			}
			s.fail(fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
			e.logger.Error("streaming generation failed", "session", p.sess.ID(), "error", err)
			select {
			case s.fragments <- upstreamErrorMessage:
			case <-streamCtx.Done():
			}
			return
		}

		e.commit(p.sess, p.query, answer)
	}()

	return s, nil
}

// CreateSession starts a fresh session and returns its identifier.
func (e *Engine) CreateSession(ctx context.Context, userID, projectID string) (string, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return "", err
	}
	sess, err := e.sessions.GetOrCreate(ctx, userID, projectID, "", true)
	if err != nil {
		return "", err
	}
	return sess.ID(), nil
}

// ListSessions returns metadata for the user's sessions in one project.
func (e *Engine) ListSessions(ctx context.Context, userID, projectID string) (map[string]session.Info, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return nil, err
	}
	return e.sessions.List(ctx, userID, projectID), nil
}

// ListAllSessions returns metadata for all of the user's sessions,
// grouped by project.
func (e *Engine) ListAllSessions(ctx context.Context, userID string) (map[string]map[string]session.Info, error) {
	if userID == "" {
		return nil, core.ErrUserIDRequired
	}
	return e.sessions.ListAll(ctx, userID), nil
}

// RenameSession updates a session's display name. It reports false when
// the session does not exist.
func (e *Engine) RenameSession(ctx context.Context, userID, projectID, sessionID, newName string) (bool, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return false, err
	}
	return e.sessions.Rename(ctx, userID, projectID, sessionID, newName), nil
}

// DeleteSession removes a session entirely. It reports false when the
// session does not exist.
func (e *Engine) DeleteSession(ctx context.Context, userID, projectID, sessionID string) (bool, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return false, err
	}
	return e.sessions.Delete(ctx, userID, projectID, sessionID), nil
}

// ClearSessionHistory discards a session's turns while keeping the
// session itself. It reports false when the session does not exist.
func (e *Engine) ClearSessionHistory(ctx context.Context, userID, projectID, sessionID string) (bool, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return false, err
	}
	return e.sessions.ClearHistory(ctx, userID, projectID, sessionID), nil
}

// SessionHistory returns the ordered turns of a session. An unknown
// session yields an empty history rather than an error.
func (e *Engine) SessionHistory(ctx context.Context, userID, projectID, sessionID string) ([]core.Turn, error) {
	if err := core.ValidateScope(userID, projectID); err != nil {
		return nil, err
	}
	sess := e.sessions.Get(ctx, userID, projectID, sessionID)
	if sess == nil {
		return []core.Turn{}, nil
	}
	return sess.History(), nil
}
