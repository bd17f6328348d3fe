package memcached

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
)

const tasksKey = "todo-web:tasks"

//Task caches the Task collection in front of the file based store.
type Task struct {
	client     Client
	orig       TaskStore
	expiration time.Duration
	logger     *zap.Logger
}

//TaskStore defines the datastore being cached.
type TaskStore interface {
	Load(ctx context.Context) []internal.Task
	Save(ctx context.Context, tasks []internal.Task) error
}

//NewTask ...
func NewTask(client Client, orig TaskStore, logger *zap.Logger) *Task {
	return &Task{
		client:     client,
		orig:       orig,
		expiration: 15 * time.Minute,
		logger:     logger,
	}
}

//Load returns the cached collection, falling back to the original store on a miss.
func (t *Task) Load(ctx context.Context) []internal.Task {
	defer newOTELSpan(ctx, "Task.Load").End()

	var res []internal.Task

	if err := getTasks(ctx, t.client, tasksKey, &res); err == nil {
		if res == nil {
			res = []internal.Task{}
		}

		return res
	}

	t.logger.Info("Load: not found, let's cache it")

	// Cache-Aside Caching

	res = t.orig.Load(ctx)

	if err := setTasks(ctx, t.client, tasksKey, res, t.expiration); err != nil {
		t.logger.Warn("Load: couldn't cache", zap.Error(err))
	}

	return res
}

//Save persists through the original store and refreshes the cached copy.
func (t *Task) Save(ctx context.Context, tasks []internal.Task) error {
	defer newOTELSpan(ctx, "Task.Save").End()

	deleteTasks(ctx, t.client, tasksKey)

	if err := t.orig.Save(ctx, tasks); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "orig.Save")
	}

	t.logger.Info("Save: setting value")

	if err := setTasks(ctx, t.client, tasksKey, tasks, t.expiration); err != nil {
		t.logger.Warn("Save: couldn't cache", zap.Error(err))
	}

	return nil
}
