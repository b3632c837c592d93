package conversation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/wayfinder/internal/conversation"
	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, updates <-chan conversation.Snapshot, cond func(conversation.Snapshot) bool) conversation.Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if cond(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for cache update")
			return conversation.Snapshot{}
		}
	}
}

// loadWith primes the cache with msgs.
func loadWith(t *testing.T, cache *conversation.Cache, src *fakeHistory, msgs []models.Message) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := cache.Load(context.Background())
		done <- err
	}()
	src.next(t).reply <- historyReply{msgs: msgs}
	require.NoError(t, <-done)
}

func TestReadStartsFetchAndExposesLoading(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())
	updates, cancel := cache.Subscribe()
	defer cancel()

	assert.Equal(t, conversation.StatusIdle, cache.Snapshot().Status)

	snap := cache.Read(context.Background())
	assert.Equal(t, conversation.StatusLoading, snap.Status)
	assert.True(t, snap.Fetching)
	assert.False(t, snap.HasValue())

	// A second read while loading does not start another fetch.
	cache.Read(context.Background())

	src.next(t).reply <- historyReply{msgs: []models.Message{userMsg(1, "hi")}}
	src.expectNoCall(t)

	snap = waitFor(t, updates, func(s conversation.Snapshot) bool { return s.Status == conversation.StatusSuccess })
	require.Len(t, snap.Messages, 1)
	assert.False(t, snap.Fetching)
	assert.True(t, snap.HasValue())
}

func TestLoadServesCachedValue(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())
	loadWith(t, cache, src, []models.Message{userMsg(1, "hi")})

	snap, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Messages, 1)
	src.expectNoCall(t)
}

func TestInvalidateKeepsPreviousValueUntilRefetch(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())
	before := []models.Message{userMsg(1, "find hotels in Lisbon")}
	loadWith(t, cache, src, before)

	cache.Invalidate(context.Background())
	call := src.next(t)

	snap := cache.Snapshot()
	assert.Equal(t, conversation.StatusSuccess, snap.Status)
	assert.Equal(t, before, snap.Messages, "no flash to empty while refetching")
	assert.True(t, snap.Stale)
	assert.True(t, snap.Fetching)

	after := append(before, assistantMsg(2, "Here are some", models.SearchResult{ID: "h1", Type: models.OfferHotel, Name: "Hotel Lux"}))
	call.reply <- historyReply{msgs: after}

	snap, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, after, snap.Messages)
	assert.False(t, snap.Stale)
}

func TestFailedRefetchKeepsLastKnownGood(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())
	good := []models.Message{userMsg(1, "hi")}
	loadWith(t, cache, src, good)

	updates, cancel := cache.Subscribe()
	defer cancel()

	boom := errors.New("boom")
	cache.Invalidate(context.Background())
	src.next(t).reply <- historyReply{err: boom}

	snap := waitFor(t, updates, func(s conversation.Snapshot) bool { return s.Status == conversation.StatusError })
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, good, snap.Messages)
	assert.False(t, snap.Fetching)
}

func TestLoadReturnsFetchError(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := cache.Load(context.Background())
		done <- err
	}()
	boom := errors.New("boom")
	src.next(t).reply <- historyReply{err: boom}

	require.ErrorIs(t, <-done, boom)
	snap := cache.Snapshot()
	assert.Equal(t, conversation.StatusError, snap.Status)
	assert.False(t, snap.HasValue())
}

func TestInitialFetchErrorIsNotRetried(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())
	updates, cancel := cache.Subscribe()
	defer cancel()

	cache.Read(context.Background())
	src.next(t).reply <- historyReply{err: errors.New("offline")}

	snap := waitFor(t, updates, func(s conversation.Snapshot) bool { return s.Status == conversation.StatusError })
	assert.Empty(t, snap.Messages)
	assert.EqualError(t, snap.Err, "offline")

	cache.Read(context.Background())
	src.expectNoCall(t)
}

func TestSupersededFetchIsDiscarded(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())
	loadWith(t, cache, src, []models.Message{userMsg(1, "hi")})

	cache.Invalidate(context.Background())
	first := src.next(t)
	cache.Invalidate(context.Background())
	second := src.next(t)

	newest := []models.Message{userMsg(1, "hi"), assistantMsg(2, "hello")}
	second.reply <- historyReply{msgs: newest}
	snap, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, newest, snap.Messages)

	first.reply <- historyReply{msgs: []models.Message{userMsg(1, "hi")}}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, newest, cache.Snapshot().Messages)
}

func TestLoadHonoursContext(t *testing.T) {
	src := newFakeHistory()
	cache := conversation.NewCache(src, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cache.Load(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The detached fetch is still answered and lands in the cache.
	updates, unsubscribe := cache.Subscribe()
	defer unsubscribe()
	src.next(t).reply <- historyReply{msgs: []models.Message{userMsg(1, "late")}}
	snap := waitFor(t, updates, func(s conversation.Snapshot) bool { return s.Status == conversation.StatusSuccess })
	assert.Equal(t, "late", snap.Messages[0].Content)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", conversation.StatusIdle.String())
	assert.Equal(t, "loading", conversation.StatusLoading.String())
	assert.Equal(t, "success", conversation.StatusSuccess.String())
	assert.Equal(t, "error", conversation.StatusError.String())
	assert.Equal(t, "Status(9)", conversation.Status(9).String())
}
