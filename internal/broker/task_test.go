package broker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mercari/go-circuitbreaker"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/broker"
)

type failingPublisher struct {
	calls int
	err   error
}

func (f *failingPublisher) Created(_ context.Context, _ internal.Task) error {
	f.calls++
	return f.err
}

func (f *failingPublisher) Deleted(_ context.Context, _ int) error {
	f.calls++
	return f.err
}

func (f *failingPublisher) Updated(_ context.Context, _ internal.Task) error {
	f.calls++
	return f.err
}

func TestTask_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	orig := &failingPublisher{err: errors.New("broker down")}
	pub := broker.NewTask(orig, 2, time.Minute, zap.NewNop())
	ctx := context.Background()

	assert.Error(t, pub.Created(ctx, internal.Task{ID: 1}))
	assert.Error(t, pub.Updated(ctx, internal.Task{ID: 1}))
	assert.Equal(t, 2, orig.calls)

	err := pub.Deleted(ctx, 1)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, orig.calls, "open breaker must not reach the broker")
}

func TestTask_PassesThrough(t *testing.T) {
	t.Parallel()

	orig := &failingPublisher{}
	pub := broker.NewTask(orig, 2, time.Minute, zap.NewNop())

	for i := 0; i < 5; i++ {
		assert.NoError(t, pub.Created(context.Background(), internal.Task{ID: i}))
	}

	assert.Equal(t, 5, orig.calls)
}
