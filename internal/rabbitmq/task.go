package rabbitmq

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/sanLimbu/todo-web/internal"
)

const otelName = "github.com/sanLimbu/todo-web/internal/rabbitmq"

//Routing keys used when publishing to the "tasks" exchange.
const (
	RoutingKeyCreated = "tasks.event.created"
	RoutingKeyDeleted = "tasks.event.deleted"
	RoutingKeyUpdated = "tasks.event.updated"
)

//Task represents the repository used for publishing Task records.
type Task struct {
	ch *amqp.Channel
}

//NewTask instantiates the Task repository
func NewTask(channel *amqp.Channel) *Task {
	return &Task{
		ch: channel,
	}
}

//Created publishes a message indicating a task was created.
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Created", RoutingKeyCreated, task)
}

//Deleted publishes a message indicating a task was deleted
func (t *Task) Deleted(ctx context.Context, id int) error {
	return t.publish(ctx, "Task.Deleted", RoutingKeyDeleted, id)
}

//Updated publishes a message indicating a task was updated
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Updated", RoutingKeyUpdated, task)
}

func (t *Task) publish(ctx context.Context, spanName, routingKey string, e interface{}) error {
	_, span := otel.Tracer(otelName).Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(
		semconv.MessagingSystemKey.String("rabbitmq"),
		semconv.MessagingRabbitmqRoutingKeyKey.String(routingKey),
	)

	body, err := encode(e)
	if err != nil {
		return err
	}

	err = t.ch.Publish(
		"tasks",    // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			AppId:       "todo-web",
			MessageId:   uuid.NewString(),
			ContentType: "application/x-encoding-gob",
			Body:        body,
			Timestamp:   time.Now(),
		})
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "ch.Publish")
	}

	return nil
}

func encode(e interface{}) ([]byte, error) {
	var b bytes.Buffer

	if err := gob.NewEncoder(&b).Encode(e); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "gob.Encode")
	}

	return b.Bytes(), nil
}

//DecodeTask decodes the body of a created or updated message.
func DecodeTask(b []byte) (internal.Task, error) {
	var res internal.Task

	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&res); err != nil {
		return internal.Task{}, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "gob.Decode")
	}

	return res, nil
}

//DecodeID decodes the body of a deleted message.
func DecodeID(b []byte) (int, error) {
	var res int

	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&res); err != nil {
		return 0, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "gob.Decode")
	}

	return res, nil
}
