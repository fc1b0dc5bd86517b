package engine

import (
	"context"
	"sync"
)

// Stream is a cancellable, finite, non-restartable sequence of answer
// fragments. The resolved session identifier travels out-of-band via
// SessionID rather than as an in-band sentinel fragment.
//
// Fragments are delivered before the conversational memory commit: the
// exchange is appended to the session only once the full answer is
// known. If the stream is canceled mid-flight, the partial answer is
// never committed.
type Stream struct {
	fragments chan string
	sessionID string
	cancel    context.CancelFunc

	mu  sync.Mutex
	err error
}

func newStream(sessionID string, cancel context.CancelFunc) *Stream {
	return &Stream{
		fragments: make(chan string),
		sessionID: sessionID,
		cancel:    cancel,
	}
}

// Fragments returns the channel of answer fragments. It is closed when
// the stream finishes, fails, or is canceled.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// SessionID returns the identifier of the session the answer belongs to.
// It is resolved before streaming starts and is valid immediately.
func (s *Stream) SessionID() string {
	return s.sessionID
}

// Err reports why the stream ended. It is valid once Fragments is
// closed: nil on normal completion, context.Canceled after Cancel, or
// an upstream failure.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel stops the stream. Cancellation propagates to the upstream
// generation call and suppresses the memory commit.
func (s *Stream) Cancel() {
	s.cancel()
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
