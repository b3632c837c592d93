package enrichment

import (
	"context"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/raphaelgruber/wayfinder/internal/notify"
)

// Selector tracks the active selection. At most one offer is selected at a time.
type Selector struct {
	fetcher Fetcher
	origin  string
	logger  *slog.Logger
	updates *notify.Broadcaster[Snapshot]

	mu         sync.Mutex
	generation uint64
	current    *Controller
}

// NewSelector creates a selector. An empty origin means DefaultOrigin.
func NewSelector(fetcher Fetcher, origin string, logger *slog.Logger) *Selector {
	if origin == "" {
		origin = DefaultOrigin
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		fetcher: fetcher,
		origin:  origin,
		logger:  logger,
		updates: notify.NewBroadcaster[Snapshot](),
	}
}

// Origin returns the default fromLocation used by Select.
func (s *Selector) Origin() string { return s.origin }

// Select makes offer the active selection and starts its detail fetch.
// Any previous selection is discarded; its response will be ignored.
func (s *Selector) Select(ctx context.Context, offer *models.SearchResult) *Controller {
	return s.SelectFrom(ctx, offer, s.origin)
}

// SelectFrom is Select with an explicit fromLocation.
func (s *Selector) SelectFrom(ctx context.Context, offer *models.SearchResult, fromLocation string) *Controller {
	if fromLocation == "" {
		fromLocation = s.origin
	}
	req := models.EnrichmentRequestFor(offer, fromLocation)

	s.mu.Lock()
	if s.current != nil {
		s.current.discard()
	}
	s.generation++
	ctrl := newController(s.generation, offer, req)
	s.current = ctrl
	s.updates.Publish(ctrl.Snapshot())
	s.mu.Unlock()

	s.logger.Debug("offer selected", "offer_id", offer.ID, "generation", ctrl.generation)
	go s.run(ctx, ctrl)
	return ctrl
}

// Clear discards the active selection and all of its enrichment data.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.discard()
	s.current = nil
	s.generation++
	s.logger.Debug("selection cleared", "generation", s.generation)
	s.updates.Publish(Snapshot{Generation: s.generation})
}

// Current returns the active selection's state, or an idle snapshot.
func (s *Selector) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Snapshot{Generation: s.generation}
	}
	return s.current.Snapshot()
}

// Controller returns the active controller, or nil.
func (s *Selector) Controller() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Wait blocks until the active selection settles.
func (s *Selector) Wait(ctx context.Context) (Snapshot, error) {
	ctrl := s.Controller()
	if ctrl == nil {
		return Snapshot{}, ErrNoSelection
	}
	return ctrl.Wait(ctx)
}

// Subscribe returns a channel that receives every change of the active selection.
func (s *Selector) Subscribe() (<-chan Snapshot, func()) {
	return s.updates.Subscribe()
}

func (s *Selector) run(ctx context.Context, ctrl *Controller) {
	details, err := s.fetcher.Details(ctx, ctrl.request)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != ctrl || s.generation != ctrl.generation {
		s.logger.Debug("discarding enrichment for superseded selection",
			"offer_id", ctrl.request.HotelID, "generation", ctrl.generation, "current", s.generation)
		return
	}

	ctrl.settle(details, err)
	if err != nil {
		s.logger.Warn("enrichment fetch failed", "offer_id", ctrl.request.HotelID, "error", err)
	} else {
		s.logger.Debug("enrichment loaded", "offer_id", ctrl.request.HotelID)
	}
	s.updates.Publish(ctrl.Snapshot())
}
