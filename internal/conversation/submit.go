package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/raphaelgruber/wayfinder/internal/models"
)

// Sender writes a user message to the remote store.
type Sender interface {
	Send(ctx context.Context, message string) (*models.SendResponse, error)
}

// Invalidator is the write path into the conversation cache.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Submitter sends user messages. There is no optimistic append: the history
// only changes once the store has accepted the message and the cache refetches.
type Submitter struct {
	sender Sender
	cache  Invalidator
	logger *slog.Logger

	submitting atomic.Bool

	mu      sync.Mutex
	lastErr error
}

// NewSubmitter creates a submitter that invalidates cache after every accepted message.
func NewSubmitter(sender Sender, cache Invalidator, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{sender: sender, cache: cache, logger: logger}
}

// IsSubmitting reports whether a submission is in flight.
func (s *Submitter) IsSubmitting() bool {
	return s.submitting.Load()
}

// Err returns the error of the last failed submission, cleared by the next success.
func (s *Submitter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Submit sends text and, once the store accepts it, invalidates the cache.
// Empty text and overlapping calls are rejected with a *PreconditionError
// before any request is made. On failure the cache is left untouched.
func (s *Submitter) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return &PreconditionError{Reason: ErrEmptyMessage}
	}
	if !s.submitting.CompareAndSwap(false, true) {
		s.logger.Debug("submission rejected", "reason", ErrSubmissionInFlight)
		return &PreconditionError{Reason: ErrSubmissionInFlight}
	}
	defer s.submitting.Store(false)

	if _, err := s.sender.Send(ctx, text); err != nil {
		s.setErr(err)
		s.logger.Warn("message not sent", "error", err)
		return err
	}

	s.setErr(nil)
	s.logger.Debug("message accepted", "length", len(text))
	s.cache.Invalidate(ctx)
	return nil
}

func (s *Submitter) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}
