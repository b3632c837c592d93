// Package conversation keeps the local view of the conversation in sync with the remote store.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/raphaelgruber/wayfinder/internal/notify"
	"golang.org/x/sync/singleflight"
)

// CacheKey is the single logical identity of the cached conversation.
// There is exactly one conversation per session.
const CacheKey = "conversation/current"

// Status is the fetch state of the cache.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Snapshot is an immutable view of the cache. Messages always holds the last
// successfully fetched history, including while a refetch is outstanding or
// after a refetch failed.
type Snapshot struct {
	Status    Status
	Messages  []models.Message
	Err       error
	Stale     bool
	Fetching  bool
	FetchedAt time.Time
}

// HasValue reports whether a history has ever been fetched successfully.
func (s Snapshot) HasValue() bool {
	return !s.FetchedAt.IsZero()
}

// HistorySource reads the authoritative history.
type HistorySource interface {
	History(ctx context.Context) ([]models.Message, error)
}

// Cache holds the conversation history. It is only mutated by its own fetches;
// Invalidate is the one external write path.
type Cache struct {
	source  HistorySource
	logger  *slog.Logger
	group   singleflight.Group
	updates *notify.Broadcaster[Snapshot]

	mu    sync.Mutex
	state Snapshot
	// epoch increases on every invalidation; fetches started in an older epoch are discarded.
	epoch uint64
}

// NewCache creates an empty cache backed by source.
func NewCache(source HistorySource, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:  source,
		logger:  logger,
		updates: notify.NewBroadcaster[Snapshot](),
	}
}

// Snapshot returns the current state without triggering a fetch.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Read returns the current state. If nothing has been fetched yet, it starts a
// background fetch and returns the loading state.
func (c *Cache) Read(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusIdle {
		c.startLocked(ctx)
	}
	return c.state
}

// Load returns a fresh history, waiting for the current fetch if one is needed.
// A failed fetch returns the error together with the last known good snapshot.
func (c *Cache) Load(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		if c.state.Status == StatusSuccess && !c.state.Stale {
			snap := c.state
			c.mu.Unlock()
			return snap, nil
		}
		epoch := c.epoch
		ch := c.startLocked(ctx)
		c.mu.Unlock()

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		case res = <-ch:
		}

		c.mu.Lock()
		superseded := epoch != c.epoch
		snap := c.state
		c.mu.Unlock()

		if superseded {
			continue
		}
		return snap, res.Err
	}
}

// Invalidate marks the history stale and schedules a background refetch.
// Readers keep seeing the previous messages until the refetch lands.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.state.Stale = true
	c.logger.Debug("conversation invalidated", "key", CacheKey, "epoch", c.epoch)
	c.startLocked(ctx)
}

// Subscribe returns a channel that receives every state change.
func (c *Cache) Subscribe() (<-chan Snapshot, func()) {
	return c.updates.Subscribe()
}

// startLocked starts or joins the fetch for the current epoch.
// Caller must hold c.mu.
func (c *Cache) startLocked(ctx context.Context) <-chan singleflight.Result {
	epoch := c.epoch
	if !c.state.HasValue() {
		c.state.Status = StatusLoading
		c.state.Err = nil
	}
	c.state.Fetching = true

	// The fetch outlives the caller that happened to trigger it.
	fetchCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("%s#%d", CacheKey, epoch)
	ch := c.group.DoChan(key, func() (any, error) {
		return nil, c.fetch(fetchCtx, epoch)
	})

	c.updates.Publish(c.state)
	return ch
}

func (c *Cache) fetch(ctx context.Context, epoch uint64) error {
	c.logger.Debug("fetching conversation history", "key", CacheKey, "epoch", epoch)
	msgs, err := c.source.History(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug("discarding superseded history fetch", "epoch", epoch, "current", c.epoch)
		return err
	}

	c.state.Fetching = false
	if err != nil {
		c.state.Status = StatusError
		c.state.Err = err
		c.logger.Warn("conversation history fetch failed", "error", err, "has_value", c.state.HasValue())
	} else {
		c.state = Snapshot{
			Status:    StatusSuccess,
			Messages:  msgs,
			FetchedAt: time.Now(),
		}
		c.logger.Debug("conversation history updated", "messages", len(msgs))
	}

	c.updates.Publish(c.state)
	return err
}
