package storage

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// EventPublisher delivers task change events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.TaskEvent) error
}

// NotifierConfig sizes the publishing worker pool.
type NotifierConfig struct {
	Workers        int
	Buffer         int
	Timeout        time.Duration
	HandoffTimeout time.Duration
}

func (c NotifierConfig) withDefaults() NotifierConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Notifier wraps a task store and publishes a domain.TaskEvent for every
// persisted write. Publishing happens on a bounded worker pool; events that
// cannot be handed off in time are dropped with a warning and never fail the
// write itself.
type Notifier struct {
	base backend
	pub  EventPublisher
	log  *log.Logger
	cfg  NotifierConfig

	mu     sync.RWMutex
	closed bool
	jobs   chan domain.TaskEvent
	wg     sync.WaitGroup
}

// NewNotifier starts cfg.Workers publishing goroutines. Close stops them.
func NewNotifier(base backend, pub EventPublisher, logger *log.Logger, cfg NotifierConfig) *Notifier {
	if base == nil || pub == nil {
		panic("storage.NewNotifier: base and publisher are required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	cfg = cfg.withDefaults()
	n := &Notifier{
		base: base,
		pub:  pub,
		log:  logger,
		cfg:  cfg,
		jobs: make(chan domain.TaskEvent, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		n.wg.Add(1)
		go n.worker(i)
	}
	n.log.Infof("task notifier started, workers: %d, buffer: %d, timeout: %v, handoff: %v", cfg.Workers, cfg.Buffer, cfg.Timeout, cfg.HandoffTimeout)
	return n
}

func (n *Notifier) Insert(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	t, err := n.base.Insert(ctx, nt)
	if err != nil {
		return domain.Task{}, err
	}
	n.dispatch(domain.TaskEvent{Type: domain.TaskCreated, TaskID: t.ID, Task: t, Timestamp: t.UpdatedAt})
	return t, nil
}

func (n *Notifier) SelectAll(ctx context.Context) ([]domain.Task, error) {
	return n.base.SelectAll(ctx)
}

func (n *Notifier) UpdatePartial(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	t, err := n.base.UpdatePartial(ctx, id, p)
	if err != nil {
		return domain.Task{}, err
	}
	n.dispatch(domain.TaskEvent{Type: domain.TaskUpdated, TaskID: t.ID, Task: t, Timestamp: t.UpdatedAt})
	return t, nil
}

func (n *Notifier) DeleteByID(ctx context.Context, id string) (domain.Task, error) {
	t, err := n.base.DeleteByID(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	n.dispatch(domain.TaskEvent{Type: domain.TaskDeleted, TaskID: t.ID, Task: t, Timestamp: time.Now().UTC()})
	return t, nil
}

func (n *Notifier) Ping(ctx context.Context) error {
	return n.base.Ping(ctx)
}

// Close stops accepting events and waits for queued events to be published.
func (n *Notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()

	n.wg.Wait()
	return nil
}

func (n *Notifier) worker(id int) {
	defer n.wg.Done()
	for ev := range n.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
		err := n.pub.Publish(ctx, ev)
		cancel()
		if err != nil {
			n.log.WithFields(log.Fields{
				"event":  ev.Type,
				"task":   ev.TaskID,
				"worker": id,
			}).Errorf("publish task event failed: %v", err)
		}
	}
}

func (n *Notifier) dispatch(ev domain.TaskEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.log.WithField("task", ev.TaskID).Warn("task notifier closed; dropping event")
		return
	}

	select {
	case n.jobs <- ev:
		return
	default:
	}

	if n.cfg.HandoffTimeout > 0 {
		timer := time.NewTimer(n.cfg.HandoffTimeout)
		defer timer.Stop()
		select {
		case n.jobs <- ev:
			return
		case <-timer.C:
		}
	}
	n.log.WithFields(log.Fields{"event": ev.Type, "task": ev.TaskID}).Warn("task notifier saturated; dropping event")
}
