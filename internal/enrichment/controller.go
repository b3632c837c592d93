// Package enrichment fetches detail enrichment for the selected offer.
//
// Each selection gets its own Controller and generation number. A fetch result
// is applied only while its generation is still the current one, so a slow
// response for an earlier selection can never show up under a later one.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raphaelgruber/wayfinder/internal/models"
)

// DefaultOrigin is the fromLocation sent when the user has not given one.
const DefaultOrigin = "Your Current Location"

// ErrNoSelection is returned when waiting without an active selection.
var ErrNoSelection = errors.New("no offer selected")

// State is the lifecycle state of one selection.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fetcher loads enrichment for one offer.
type Fetcher interface {
	Details(ctx context.Context, req models.DetailEnrichmentRequest) (*models.DetailEnrichmentResult, error)
}

// Snapshot is an immutable view of a selection.
type Snapshot struct {
	State      State
	Generation uint64
	Offer      *models.SearchResult
	Request    models.DetailEnrichmentRequest
	Details    *models.DetailEnrichmentResult
	Err        error
}

// Pending reports whether the fetch is still outstanding.
func (s Snapshot) Pending() bool { return s.State == StatePending }

// DisplayName prefers the enriched name and falls back to the offer's own.
func (s Snapshot) DisplayName() string {
	if s.Details != nil && s.Details.Name != "" {
		return s.Details.Name
	}
	if s.Offer != nil {
		return s.Offer.Name
	}
	return ""
}

// DisplayImage prefers the enriched image and falls back to the offer's own.
func (s Snapshot) DisplayImage() string {
	if s.Details != nil && s.Details.Image != "" {
		return s.Details.Image
	}
	if s.Offer != nil {
		return s.Offer.Image
	}
	return ""
}

// DisplayLocation prefers the enriched location and falls back to the offer's own.
func (s Snapshot) DisplayLocation() string {
	if s.Details != nil && s.Details.Location != "" {
		return s.Details.Location
	}
	if s.Offer != nil {
		return s.Offer.Location
	}
	return ""
}

// Controller services a single selection. It is created by Selector.Select and
// issues exactly one fetch.
type Controller struct {
	generation uint64
	offer      *models.SearchResult
	request    models.DetailEnrichmentRequest
	done       chan struct{}

	mu        sync.Mutex
	state     State
	details   *models.DetailEnrichmentResult
	err       error
	discarded bool
}

func newController(generation uint64, offer *models.SearchResult, req models.DetailEnrichmentRequest) *Controller {
	return &Controller{
		generation: generation,
		offer:      offer,
		request:    req,
		done:       make(chan struct{}),
		state:      StatePending,
	}
}

// Generation returns the selection generation this controller belongs to.
func (c *Controller) Generation() uint64 { return c.generation }

// Done is closed once the fetch settles or the selection is discarded.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Discarded reports whether the selection was replaced or cleared.
func (c *Controller) Discarded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discarded
}

// Snapshot returns the controller's current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.state,
		Generation: c.generation,
		Offer:      c.offer,
		Request:    c.request,
		Details:    c.details,
		Err:        c.err,
	}
}

// Wait blocks until the fetch settles, the selection is discarded, or ctx ends.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-c.done:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

func (c *Controller) settle(details *models.DetailEnrichmentResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePending || c.discarded {
		return
	}
	if err != nil {
		c.state = StateError
		c.err = err
	} else {
		c.state = StateSuccess
		c.details = details
	}
	close(c.done)
}

// discard drops any enrichment data and releases waiters.
func (c *Controller) discard() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discarded {
		return
	}
	pending := c.state == StatePending
	c.discarded = true
	c.state = StateIdle
	c.details = nil
	c.err = nil
	if pending {
		close(c.done)
	}
}
