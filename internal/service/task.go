package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
)

const otelName = "github.com/sanLimbu/todo-web/internal/service"

//TaskStore defines the datastore holding the whole Task collection.
type TaskStore interface {
	Load(ctx context.Context) []internal.Task
	Save(ctx context.Context, tasks []internal.Task) error
}

//TaskMessageBrokerRepository defines the datasource notified about Task changes.
type TaskMessageBrokerRepository interface {
	Created(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id int) error
	Updated(ctx context.Context, task internal.Task) error
}

//Task defines the application service in charge of interacting with Tasks.
//Every mutation loads, changes and saves the whole collection while holding mu.
type Task struct {
	mu        sync.Mutex
	logger    *zap.Logger
	store     TaskStore
	msgBroker TaskMessageBrokerRepository
	mutations metric.Int64Counter
	now       func() time.Time
	lastID    int
}

//NewTask ... msgBroker is optional.
func NewTask(logger *zap.Logger, store TaskStore, msgBroker TaskMessageBrokerRepository) *Task {
	mutations, err := otel.Meter(otelName).Int64Counter("tasks.mutations",
		metric.WithDescription("Number of task mutations by operation"))
	if err != nil {
		logger.Warn("Int64Counter", zap.Error(err))
	}

	return &Task{
		logger:    logger,
		store:     store,
		msgBroker: msgBroker,
		mutations: mutations,
		now:       time.Now,
	}
}

//List returns all Tasks with their summary counts.
func (t *Task) List(ctx context.Context) internal.TaskList {
	ctx, span := t.newOTELSpan(ctx, "Task.List")
	defer span.End()

	t.mu.Lock()
	defer t.mu.Unlock()

	return internal.NewTaskList(t.store.Load(ctx))
}

//Add stores a new Task. A blank title is ignored: the zero Task and a nil error are returned.
func (t *Task) Add(ctx context.Context, title, priority string) (internal.Task, error) {
	ctx, span := t.newOTELSpan(ctx, "Task.Add")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		return internal.Task{}, nil
	}

	p, err := internal.ParsePriority(priority)
	if err != nil {
		return internal.Task{}, fmt.Errorf("parse priority: %w", err)
	}

	params := internal.AddParams{Title: title, Priority: p}
	if err := params.Validate(); err != nil {
		return internal.Task{}, fmt.Errorf("params validate: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tasks := t.store.Load(ctx)

	task := internal.Task{
		ID:       t.nextID(tasks),
		Title:    params.Title,
		Priority: params.Priority,
		Created:  t.now().Format(internal.TimestampLayout),
	}

	if err := t.store.Save(ctx, append(tasks, task)); err != nil {
		return internal.Task{}, fmt.Errorf("store save: %w", err)
	}

	t.record(ctx, "add")
	t.logger.Info("task added", zap.Int("id", task.ID))

	if t.msgBroker != nil {
		if err := t.msgBroker.Created(ctx, task); err != nil {
			t.logger.Warn("msgBroker.Created", zap.Error(err))
		}
	}

	return task, nil
}

//ToggleComplete flips the completed state of the first Task matching id.
//The collection is saved even when no Task matches.
func (t *Task) ToggleComplete(ctx context.Context, id int) error {
	ctx, span := t.newOTELSpan(ctx, "Task.ToggleComplete")
	defer span.End()

	t.mu.Lock()
	defer t.mu.Unlock()

	tasks := t.store.Load(ctx)

	var toggled *internal.Task

	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Toggle(t.now())
			toggled = &tasks[i]
			break
		}
	}

	if err := t.store.Save(ctx, tasks); err != nil {
		return fmt.Errorf("store save: %w", err)
	}

	if toggled == nil {
		return nil
	}

	t.record(ctx, "toggle")
	t.logger.Info("task toggled", zap.Int("id", id), zap.Bool("completed", toggled.Completed))

	if t.msgBroker != nil {
		if err := t.msgBroker.Updated(ctx, *toggled); err != nil {
			t.logger.Warn("msgBroker.Updated", zap.Error(err))
		}
	}

	return nil
}

//Delete removes every Task matching id.
func (t *Task) Delete(ctx context.Context, id int) error {
	ctx, span := t.newOTELSpan(ctx, "Task.Delete")
	defer span.End()

	return t.remove(ctx, "delete", func(task internal.Task) bool { return task.ID == id })
}

//ClearCompleted removes every completed Task.
func (t *Task) ClearCompleted(ctx context.Context) error {
	ctx, span := t.newOTELSpan(ctx, "Task.ClearCompleted")
	defer span.End()

	return t.remove(ctx, "clear_completed", func(task internal.Task) bool { return task.Completed })
}

func (t *Task) remove(ctx context.Context, op string, match func(internal.Task) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks := t.store.Load(ctx)

	kept := make([]internal.Task, 0, len(tasks))
	removed := make([]int, 0)

	for _, task := range tasks {
		if match(task) {
			removed = append(removed, task.ID)
			continue
		}

		kept = append(kept, task)
	}

	if err := t.store.Save(ctx, kept); err != nil {
		return fmt.Errorf("store save: %w", err)
	}

	if len(removed) == 0 {
		return nil
	}

	t.record(ctx, op)
	t.logger.Info("tasks removed", zap.String("op", op), zap.Ints("ids", removed))

	if t.msgBroker != nil {
		for _, id := range removed {
			if err := t.msgBroker.Deleted(ctx, id); err != nil {
				t.logger.Warn("msgBroker.Deleted", zap.Int("id", id), zap.Error(err))
			}
		}
	}

	return nil
}

// nextID never hands out an id still present in tasks nor one issued before by this process.
func (t *Task) nextID(tasks []internal.Task) int {
	highest := t.lastID

	for _, task := range tasks {
		if task.ID > highest {
			highest = task.ID
		}
	}

	t.lastID = highest + 1

	return t.lastID
}

func (t *Task) record(ctx context.Context, op string) {
	if t.mutations == nil {
		return
	}

	t.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (t *Task) newOTELSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(otelName).Start(ctx, name)
}
