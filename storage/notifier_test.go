package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"taskboard/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TaskEvent
	block  chan struct{}
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.TaskEvent) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) snapshot() []domain.TaskEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TaskEvent(nil), p.events...)
}

func quietLogger() (*log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetOutput(io.Discard)
	return logger, hook
}

func TestNotifierPublishesWrites(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	logger, _ := quietLogger()
	n := NewNotifier(NewMemoryStore(), pub, logger, NotifierConfig{Workers: 1, Buffer: 8})

	task, err := n.Insert(ctx, domain.NewTask{Title: "Ship", Status: domain.StatusTodo})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := n.UpdatePartial(ctx, task.ID, domain.StatusPatch(domain.StatusDone)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := n.DeleteByID(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := n.DeleteByID(ctx, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := pub.snapshot()
	want := []domain.EventType{domain.TaskCreated, domain.TaskUpdated, domain.TaskDeleted}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %#v", len(want), events)
	}
	for i, ev := range events {
		if ev.Type != want[i] || ev.TaskID != task.ID {
			t.Fatalf("event %d: unexpected %#v", i, ev)
		}
	}
	if events[1].Task.Status != domain.StatusDone {
		t.Fatalf("update event should carry the new state, got %q", events[1].Task.Status)
	}
}

func TestNotifierDropsWhenSaturated(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{block: make(chan struct{})}
	logger, hook := quietLogger()
	n := NewNotifier(NewMemoryStore(), pub, logger, NotifierConfig{Workers: 1, Buffer: 1, HandoffTimeout: time.Millisecond})

	for i := 0; i < 4; i++ {
		if _, err := n.Insert(ctx, domain.NewTask{Title: "t", Status: domain.StatusTodo}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	var dropped int
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel && entry.Message == "task notifier saturated; dropping event" {
			dropped++
		}
	}
	if dropped == 0 {
		t.Fatalf("expected at least one dropped event warning")
	}

	close(pub.block)
	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := len(pub.snapshot()); got+dropped != 4 {
		t.Fatalf("published %d + dropped %d should account for all writes", got, dropped)
	}
}

func TestNotifierLogsPublishFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("queue down")}
	logger, hook := quietLogger()
	n := NewNotifier(NewMemoryStore(), pub, logger, NotifierConfig{Workers: 1})

	if _, err := n.Insert(context.Background(), domain.NewTask{Title: "t", Status: domain.StatusTodo}); err != nil {
		t.Fatalf("insert should not fail on publish errors: %v", err)
	}
	_ = n.Close()

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel && entry.Data["event"] == domain.TaskCreated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected publish failure to be logged")
	}
}

func TestNotifierCloseIsIdempotent(t *testing.T) {
	logger, hook := quietLogger()
	n := NewNotifier(NewMemoryStore(), &recordingPublisher{}, logger, NotifierConfig{})
	_ = n.Close()
	_ = n.Close()

	if _, err := n.Insert(context.Background(), domain.NewTask{Title: "late", Status: domain.StatusTodo}); err != nil {
		t.Fatalf("insert after close: %v", err)
	}
	if last := hook.LastEntry(); last == nil || last.Level != log.WarnLevel {
		t.Fatalf("expected closed-notifier warning, got %#v", last)
	}
}
