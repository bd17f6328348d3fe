package internal_test

import (
	"os"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/todo-web/cmd/internal"
	"github.com/sanLimbu/todo-web/internal/envvar"
)

func TestNewRabbitMQ_PrefetchOne(t *testing.T) {
	if os.Getenv("RABBITMQ_URL") == "" {
		t.Skip("RABBITMQ_URL not set")
	}

	rmq, err := internal.NewRabbitMQ(envvar.New(nil))
	require.NoError(t, err)

	t.Cleanup(rmq.Close)

	queue, err := rmq.Channel.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)

	for _, body := range []string{"first", "second"} {
		require.NoError(t, rmq.Channel.Publish("", queue.Name, false, false, amqp.Publishing{Body: []byte(body)}))
	}

	msgs, err := rmq.Channel.Consume(queue.Name, "", false, true, false, false, nil)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		require.Equal(t, "first", string(msg.Body))
	case <-time.After(5 * time.Second):
		t.Fatal("first message not delivered")
	}

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected delivery before ack: %s", msg.Body)
	case <-time.After(300 * time.Millisecond):
	}
}
