package broker

import (
	"context"
	"time"

	"github.com/mercari/go-circuitbreaker"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
)

//TaskPublisher defines the message broker being protected.
type TaskPublisher interface {
	Created(ctx context.Context, task internal.Task) error
	Deleted(ctx context.Context, id int) error
	Updated(ctx context.Context, task internal.Task) error
}

//Task stops calling an unhealthy message broker for a while after consecutive failures.
type Task struct {
	orig   TaskPublisher
	cb     *circuitbreaker.CircuitBreaker
	logger *zap.Logger
}

//NewTask wraps orig with a circuit breaker that opens after failures consecutive errors.
func NewTask(orig TaskPublisher, failures int64, openTimeout time.Duration, logger *zap.Logger) *Task {
	cb := circuitbreaker.New(
		circuitbreaker.WithTripFunc(circuitbreaker.NewTripFuncConsecutiveFailures(failures)),
		circuitbreaker.WithOpenTimeout(openTimeout),
		circuitbreaker.WithOnStateChangeHookFn(func(from, to circuitbreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("from", string(from)),
				zap.String("to", string(to)),
			)
		}),
	)

	return &Task{
		orig:   orig,
		cb:     cb,
		logger: logger,
	}
}

//Created ...
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.do(ctx, "Created", func() error { return t.orig.Created(ctx, task) })
}

//Deleted ...
func (t *Task) Deleted(ctx context.Context, id int) error {
	return t.do(ctx, "Deleted", func() error { return t.orig.Deleted(ctx, id) })
}

//Updated ...
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.do(ctx, "Updated", func() error { return t.orig.Updated(ctx, task) })
}

func (t *Task) do(ctx context.Context, op string, fn func() error) error {
	_, err := t.cb.Do(ctx, func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "cb.Do %s", op)
	}

	return nil
}
