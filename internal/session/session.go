// Package session wires one conversation session together: the history cache,
// the message submitter and the offer selection.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/wayfinder/internal/conversation"
	"github.com/raphaelgruber/wayfinder/internal/enrichment"
	"github.com/raphaelgruber/wayfinder/internal/models"
)

// ErrOfferNotFound indicates the offer id is not part of the current history.
var ErrOfferNotFound = errors.New("offer not found")

// Remote is the full remote store surface a session needs.
type Remote interface {
	conversation.HistorySource
	conversation.Sender
	enrichment.Fetcher
}

// Session owns the state of a single conversation.
type Session struct {
	cache     *conversation.Cache
	submitter *conversation.Submitter
	selector  *enrichment.Selector
	logger    *slog.Logger
}

// New creates a session against remote. origin is the default fromLocation for enrichment.
func New(remote Remote, origin string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cache := conversation.NewCache(remote, logger.With("component", "cache"))
	return &Session{
		cache:     cache,
		submitter: conversation.NewSubmitter(remote, cache, logger.With("component", "submit")),
		selector:  enrichment.NewSelector(remote, origin, logger.With("component", "enrichment")),
		logger:    logger,
	}
}

// Cache returns the conversation cache.
func (s *Session) Cache() *conversation.Cache { return s.cache }

// Submitter returns the message submitter.
func (s *Session) Submitter() *conversation.Submitter { return s.submitter }

// Selector returns the offer selector.
func (s *Session) Selector() *enrichment.Selector { return s.selector }

// Messages returns the current history, fetching it if needed.
func (s *Session) Messages(ctx context.Context) ([]models.Message, error) {
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return snap.Messages, fmt.Errorf("load history: %w", err)
	}
	return snap.Messages, nil
}

// Submit sends a user message.
func (s *Session) Submit(ctx context.Context, text string) error {
	return s.submitter.Submit(ctx, text)
}

// Open selects the offer with offerID from the current history and starts its enrichment.
func (s *Session) Open(ctx context.Context, offerID string) (*enrichment.Controller, error) {
	return s.OpenFrom(ctx, offerID, "")
}

// OpenFrom is Open with an explicit fromLocation. An empty fromLocation uses the session default.
func (s *Session) OpenFrom(ctx context.Context, offerID, fromLocation string) (*enrichment.Controller, error) {
	snap := s.cache.Snapshot()
	if !snap.HasValue() {
		var err error
		if snap, err = s.cache.Load(ctx); err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
	}

	offer, ok := models.FindOffer(snap.Messages, offerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOfferNotFound, offerID)
	}
	return s.selector.SelectFrom(ctx, offer, fromLocation), nil
}

// CloseOffer clears the current selection.
func (s *Session) CloseOffer() {
	s.selector.Clear()
}
