package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/sanLimbu/todo-web/internal"
)

const otelName = "github.com/sanLimbu/todo-web/internal/redis"

//Task represents the repository used for publishing Task records over Redis Pub/Sub.
type Task struct {
	client  *redis.Client
	channel string
}

type event struct {
	ID    string        `json:"id"`
	Type  string        `json:"type"`
	Time  time.Time     `json:"time"`
	Value internal.Task `json:"value"`
}

//NewTask instantiates the Task repository
func NewTask(client *redis.Client, channel string) *Task {
	return &Task{
		client:  client,
		channel: channel,
	}
}

//Created publishes a message indicating a task was created.
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Created", "tasks.event.created", task)
}

//Deleted publishes a message indicating a task was deleted.
func (t *Task) Deleted(ctx context.Context, id int) error {
	return t.publish(ctx, "Task.Deleted", "tasks.event.deleted", internal.Task{ID: id})
}

//Updated publishes a message indicating a task was updated.
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Updated", "tasks.event.updated", task)
}

func (t *Task) publish(ctx context.Context, spanName, msgType string, task internal.Task) error {
	ctx, span := otel.Tracer(otelName).Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		semconv.MessagingSystemKey.String("redis"),
		attribute.String("messaging.destination", t.channel),
	)

	var b bytes.Buffer

	if err := json.NewEncoder(&b).Encode(event{
		ID:    uuid.NewString(),
		Type:  msgType,
		Time:  time.Now(),
		Value: task,
	}); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Encode")
	}

	if err := t.client.Publish(ctx, t.channel, b.Bytes()).Err(); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Publish")
	}

	return nil
}
