package conversation_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/wayfinder/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type historyReply struct {
	msgs []models.Message
	err  error
}

type historyCall struct {
	reply chan historyReply
}

// fakeHistory hands every History call to the test, which answers it explicitly.
type fakeHistory struct {
	calls chan *historyCall
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{calls: make(chan *historyCall, 16)}
}

func (f *fakeHistory) History(ctx context.Context) ([]models.Message, error) {
	call := &historyCall{reply: make(chan historyReply, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.msgs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeHistory) next(t *testing.T) *historyCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a history fetch")
		return nil
	}
}

func (f *fakeHistory) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.calls:
		t.Fatal("unexpected history fetch")
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeSender blocks every Send until the test releases it.
type fakeSender struct {
	mu       sync.Mutex
	messages []string
	started  chan struct{}
	release  chan error
}

func newFakeSender() *fakeSender {
	return &fakeSender{started: make(chan struct{}, 16), release: make(chan error, 16)}
}

func (f *fakeSender) Send(ctx context.Context, message string) (*models.SendResponse, error) {
	f.mu.Lock()
	f.messages = append(f.messages, message)
	f.mu.Unlock()

	f.started <- struct{}{}
	if err := <-f.release; err != nil {
		return nil, err
	}
	return &models.SendResponse{}, nil
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type countingInvalidator struct {
	mu    sync.Mutex
	count int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *countingInvalidator) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func userMsg(id int64, content string) models.Message {
	return models.Message{ID: id, Role: models.RoleUser, Content: content}
}

func assistantMsg(id int64, content string, results ...models.SearchResult) models.Message {
	return models.Message{ID: id, Role: models.RoleAssistant, Content: content, Results: results}
}
