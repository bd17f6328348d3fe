package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-web/internal"
	taskkafka "github.com/sanLimbu/todo-web/internal/kafka"
)

type fakeProducer struct {
	deliveryErr error
	produceErr  error
	noReport    bool
	messages    []*kafka.Message
}

func (f *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	if f.produceErr != nil {
		return f.produceErr
	}

	f.messages = append(f.messages, msg)

	if f.noReport {
		return nil
	}

	report := *msg
	report.TopicPartition.Error = f.deliveryErr
	deliveryChan <- &report

	return nil
}

func TestTask_Created(t *testing.T) {
	t.Parallel()

	producer := &fakeProducer{}

	task := internal.Task{ID: 4, Title: "Buy milk", Priority: internal.PriorityMedium, Created: "01.02.2024 10:00"}

	require.NoError(t, taskkafka.NewTask(producer, "tasks").Created(context.Background(), task))
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "tasks", *msg.TopicPartition.Topic)

	var evt struct {
		ID    string
		Type  string
		Value internal.Task
	}

	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, string(msg.Key), evt.ID)
	assert.Equal(t, "tasks.event.created", evt.Type)
	assert.Equal(t, task, evt.Value)
}

func TestTask_DeliveryFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		producer *fakeProducer
	}{
		{
			"delivery report error",
			&fakeProducer{deliveryErr: errors.New("message timed out")},
		},
		{
			"produce error",
			&fakeProducer{produceErr: errors.New("queue full")},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := taskkafka.NewTask(tt.producer, "tasks").Deleted(context.Background(), 1)
			require.Error(t, err)

			var ierr *internal.Error
			require.True(t, errors.As(err, &ierr))
			assert.Equal(t, internal.ErrorCodeUnknown, ierr.Code())
		})
	}
}

func TestTask_DeliveryCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := taskkafka.NewTask(&fakeProducer{noReport: true}, "tasks").Updated(ctx, internal.Task{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
