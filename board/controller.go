// Package board holds the client-side task board state and the intents that
// change it through the API.
package board

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

var (
	ErrEmptyTitle  = errors.New("title cannot be empty")
	ErrUnknownTask = errors.New("unknown task")
)

// API is the remote task service used by the controller.
type API interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, req domain.CreateRequest) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) (domain.Task, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithReporter sets where failed intents are reported.
func WithReporter(r Reporter) Option {
	return func(c *Controller) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithLogger sets the logger used for intent tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller owns the ordered task collection shown by the board. All state
// changes except moves happen after the server confirms them.
type Controller struct {
	api      API
	reporter Reporter
	log      *log.Logger

	mu        sync.Mutex
	tasks     []domain.Task
	loads     int
	creating  int
	moveSeq   uint64
	pending   map[string]uint64 // task id -> latest unsettled move
	confirmed map[string]confirmedStatus

	// Ids created or deleted while a load was in flight. A list fetched
	// before either change must not undo it.
	created map[string]struct{}
	deleted map[string]struct{}
}

// confirmedStatus is the last status the server reported for a task. seq is
// the move that reported it, zero when it came from a list or an edit.
type confirmedStatus struct {
	status domain.Status
	seq    uint64
}

// New creates a Controller with an empty collection.
func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		log:       log.StandardLogger(),
		pending:   map[string]uint64{},
		confirmed: map[string]confirmedStatus{},
		created:   map[string]struct{}{},
		deleted:   map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = LogReporter{Logger: c.log}
	}
	return c
}

// Tasks returns a copy of the collection in display order.
func (c *Controller) Tasks() []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Task(nil), c.tasks...)
}

// Column returns the tasks with the given status in collection order.
func (c *Controller) Column(status domain.Status) []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Task
	for _, t := range c.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Task returns the task with the given id.
func (c *Controller) Task(id string) (domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return c.tasks[i], true
}

// Loading reports whether a Load is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads > 0
}

// Creating reports whether a Create is waiting for the server.
func (c *Controller) Creating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creating > 0
}

// Load replaces the collection with the server's list.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()

	tasks, err := c.api.ListTasks(ctx)

	c.mu.Lock()
	c.loads--
	if err == nil {
		c.replaceLocked(tasks)
	}
	if c.loads == 0 {
		clear(c.created)
		clear(c.deleted)
	}
	c.mu.Unlock()

	if err != nil {
		return c.fail(IntentLoad, err)
	}
	c.log.WithField("tasks", len(tasks)).Debug("board loaded")
	return nil
}

// Create adds a task after the server accepts it. The new task is placed
// first in the collection.
func (c *Controller) Create(ctx context.Context, title, description string, status domain.Status) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, c.fail(IntentCreate, ErrEmptyTitle)
	}
	req := domain.CreateRequest{Title: &title, Status: &status}
	if d := strings.TrimSpace(description); d != "" {
		req.Description = &d
	}

	c.mu.Lock()
	c.creating++
	c.mu.Unlock()

	task, err := c.api.CreateTask(ctx, req)

	c.mu.Lock()
	c.creating--
	if err == nil {
		if c.indexLocked(task.ID) >= 0 {
			c.mergeLocked(task)
		} else {
			c.confirmLocked(task.ID, task.Status)
			c.tasks = append([]domain.Task{task}, c.tasks...)
		}
		if c.loads > 0 {
			c.created[task.ID] = struct{}{}
		}
	}
	c.mu.Unlock()

	if err != nil {
		return domain.Task{}, c.fail(IntentCreate, err)
	}
	c.log.WithField("task", task.ID).Debug("task created")
	return task, nil
}

// Delete removes the task once the server confirms.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if _, ok := c.Task(id); !ok {
		return c.fail(IntentDelete, ErrUnknownTask)
	}
	if _, err := c.api.DeleteTask(ctx, id); err != nil {
		return c.fail(IntentDelete, err)
	}

	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	}
	delete(c.pending, id)
	delete(c.confirmed, id)
	delete(c.created, id)
	if c.loads > 0 {
		c.deleted[id] = struct{}{}
	}
	c.mu.Unlock()

	c.log.WithField("task", id).Debug("task deleted")
	return nil
}

// EditTitle renames a task. It returns false without a round trip when the
// trimmed title equals the current one.
func (c *Controller) EditTitle(ctx context.Context, id, title string) (bool, error) {
	cur, ok := c.Task(id)
	if !ok {
		return false, c.fail(IntentEditTitle, ErrUnknownTask)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return false, c.fail(IntentEditTitle, ErrEmptyTitle)
	}
	if title == cur.Title {
		return false, nil
	}
	return true, c.commitEdit(ctx, IntentEditTitle, id, domain.TitlePatch(title))
}

// EditDescription sets or clears a task description. A nil or blank value
// clears it. It returns false when nothing would change.
func (c *Controller) EditDescription(ctx context.Context, id string, description *string) (bool, error) {
	cur, ok := c.Task(id)
	if !ok {
		return false, c.fail(IntentEditDescription, ErrUnknownTask)
	}
	var patch domain.TaskPatch
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			if cur.Description != nil && *cur.Description == d {
				return false, nil
			}
			patch.Description = domain.SetTo(d)
		}
	}
	if !patch.Description.Set {
		if cur.Description == nil {
			return false, nil
		}
		patch.Description = domain.Cleared()
	}
	return true, c.commitEdit(ctx, IntentEditDescription, id, patch)
}

func (c *Controller) commitEdit(ctx context.Context, intent Intent, id string, patch domain.TaskPatch) error {
	task, err := c.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return c.fail(intent, err)
	}
	c.mu.Lock()
	c.mergeLocked(task)
	c.mu.Unlock()
	return nil
}

// mergeLocked replaces the local copy of task with the server record,
// keeping the local status while a move of that task is unsettled.
func (c *Controller) mergeLocked(task domain.Task) {
	i := c.indexLocked(task.ID)
	if i < 0 {
		return
	}
	c.confirmLocked(task.ID, task.Status)
	if _, moving := c.pending[task.ID]; moving {
		task.Status = c.tasks[i].Status
	}
	c.tasks[i] = task
}

// replaceLocked swaps in a fetched list. Tasks deleted since the fetch stay
// gone, tasks created since it are kept in front, and tasks with an
// unsettled move keep their local status.
func (c *Controller) replaceLocked(tasks []domain.Task) {
	listed := make(map[string]struct{}, len(tasks))
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, gone := c.deleted[t.ID]; gone {
			continue
		}
		if _, dup := listed[t.ID]; dup {
			continue
		}
		listed[t.ID] = struct{}{}
		c.confirmLocked(t.ID, t.Status)
		if _, moving := c.pending[t.ID]; moving {
			if i := c.indexLocked(t.ID); i >= 0 {
				t.Status = c.tasks[i].Status
			}
		}
		out = append(out, t)
	}

	var fresh []domain.Task
	for _, t := range c.tasks {
		_, isNew := c.created[t.ID]
		_, seen := listed[t.ID]
		if isNew && !seen {
			fresh = append(fresh, t)
			listed[t.ID] = struct{}{}
		}
	}
	c.tasks = append(fresh, out...)

	for id := range c.confirmed {
		if _, ok := listed[id]; !ok {
			delete(c.confirmed, id)
		}
	}
}

// confirmLocked records a status reported by a list, create or edit
// response, keeping the sequence of the last confirmed move.
func (c *Controller) confirmLocked(id string, status domain.Status) {
	cs := c.confirmed[id]
	cs.status = status
	c.confirmed[id] = cs
}

func (c *Controller) indexLocked(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) fail(intent Intent, err error) error {
	c.reporter.Report(intent, err)
	return err
}
