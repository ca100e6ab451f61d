package board

import (
	"context"
	"fmt"

	"taskboard/domain"
)

// Move is a status change already applied to the local collection and
// waiting for server confirmation.
type Move struct {
	c    *Controller
	id   string
	from domain.Status
	to   domain.Status
	seq  uint64
	noop bool
	done bool
}

// TaskID returns the id of the moved task.
func (m *Move) TaskID() string { return m.id }

// From returns the status the task showed when the move began.
func (m *Move) From() domain.Status { return m.from }

// To returns the target status.
func (m *Move) To() domain.Status { return m.to }

// Noop reports whether the move targets the task's current status.
func (m *Move) Noop() bool { return m.noop }

// Move changes the status of a task, keeping the change only if the server
// accepts it.
func (c *Controller) Move(ctx context.Context, id string, to domain.Status) error {
	m, err := c.BeginMove(id, to)
	if err != nil {
		return err
	}
	return m.Await(ctx)
}

// BeginMove applies the new status locally and records the source status.
// Moving a task to the column it is already in returns a no-op Move.
func (c *Controller) BeginMove(id string, to domain.Status) (*Move, error) {
	if !to.Valid() {
		return nil, c.fail(IntentMove, domain.ErrInvalidStatus)
	}
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return nil, c.fail(IntentMove, ErrUnknownTask)
	}
	defer c.mu.Unlock()

	from := c.tasks[i].Status
	if from == to {
		return &Move{c: c, id: id, from: from, to: to, noop: true}, nil
	}

	c.moveSeq++
	seq := c.moveSeq
	c.pending[id] = seq
	c.tasks[i].Status = to
	return &Move{c: c, id: id, from: from, to: to, seq: seq}, nil
}

// Await sends the status change. On success the server record is merged.
// Once no later move of the task is unsettled, the task shows the status the
// server last confirmed, so a failed move never leaves behind a status the
// server did not hold.
func (m *Move) Await(ctx context.Context) error {
	if m.noop || m.done {
		return nil
	}
	m.done = true
	c := m.c

	task, err := c.api.UpdateTask(ctx, m.id, domain.StatusPatch(m.to))

	c.mu.Lock()
	if c.pending[m.id] == m.seq {
		delete(c.pending, m.id)
	}
	i := c.indexLocked(m.id)
	if err == nil {
		if cs := c.confirmed[m.id]; m.seq > cs.seq {
			c.confirmed[m.id] = confirmedStatus{status: task.Status, seq: m.seq}
		}
		if i >= 0 {
			task.Status = c.tasks[i].Status
			c.tasks[i] = task
		}
	}
	restored, changed := c.settleLocked(m.id, i)
	c.mu.Unlock()

	if err != nil {
		if changed {
			c.log.WithField("task", m.id).Debugf("move failed; restored %s", restored)
		}
		return c.fail(IntentMove, fmt.Errorf("move task to %s: %w", m.to, err))
	}
	c.log.WithField("task", m.id).Debugf("task moved %s -> %s", m.from, m.to)
	return nil
}

// settleLocked shows the confirmed status of the task at index i unless a
// move of it is still unsettled.
func (c *Controller) settleLocked(id string, i int) (domain.Status, bool) {
	if _, moving := c.pending[id]; moving || i < 0 {
		return "", false
	}
	cs, ok := c.confirmed[id]
	if !ok || c.tasks[i].Status == cs.status {
		return "", false
	}
	c.tasks[i].Status = cs.status
	return cs.status, true
}
