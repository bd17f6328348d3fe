package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/sanLimbu/todo-web/internal"
)

const otelName = "github.com/sanLimbu/todo-web/internal/kafka"

//Producer defines the subset of *kafka.Producer used for publishing.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

//Task represents the repository used for publishing Task records.
type Task struct {
	producer        Producer
	topicName       string
	deliveryTimeout time.Duration
}

type event struct {
	ID    string
	Type  string
	Time  time.Time
	Value internal.Task
}

//NewTask instantiates the Task repository
func NewTask(producer Producer, topicName string) *Task {
	return &Task{
		topicName:       topicName,
		producer:        producer,
		deliveryTimeout: 5 * time.Second,
	}
}

//Created publishes a message indicating a task was created
func (t *Task) Created(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Created", "tasks.event.created", task)
}

//Deleted publishes a message indicating a task was deleted
func (t *Task) Deleted(ctx context.Context, id int) error {
	return t.publish(ctx, "Task.Deleted", "tasks.event.deleted", internal.Task{ID: id})
}

//Updated publishes a message indicating a task was updated.
func (t *Task) Updated(ctx context.Context, task internal.Task) error {
	return t.publish(ctx, "Task.Updated", "tasks.event.updated", task)
}

func (t *Task) publish(ctx context.Context, spanName, msgType string, task internal.Task) error {
	_, span := otel.Tracer(otelName).Start(ctx, spanName)
	defer span.End()

	span.SetAttributes(semconv.MessagingSystemKey.String("kafka"))

	var b bytes.Buffer

	evt := event{
		ID:    uuid.NewString(),
		Type:  msgType,
		Time:  time.Now(),
		Value: task,
	}

	if err := json.NewEncoder(&b).Encode(evt); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "json.Encode")
	}

	delivery := make(chan kafka.Event, 1)

	if err := t.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &t.topicName,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(evt.ID),
		Value: b.Bytes(),
	}, delivery); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "producer.Produce")
	}

	timer := time.NewTimer(t.deliveryTimeout)
	defer timer.Stop()

	select {
	case e := <-delivery:
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				return internal.WrapErrorf(ev.TopicPartition.Error, internal.ErrorCodeUnknown, "delivery report")
			}
		case kafka.Error:
			return internal.WrapErrorf(ev, internal.ErrorCodeUnknown, "delivery report")
		}
	case <-timer.C:
		return internal.NewErrorf(internal.ErrorCodeUnknown, "delivery report: timed out after %s", t.deliveryTimeout)
	case <-ctx.Done():
		return internal.WrapErrorf(ctx.Err(), internal.ErrorCodeUnknown, "delivery report")
	}

	return nil
}
