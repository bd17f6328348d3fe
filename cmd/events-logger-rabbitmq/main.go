package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/cmd/internal"
	internaldomain "github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/envvar"
	"github.com/sanLimbu/todo-web/internal/rabbitmq"
)

const rabbitMQConsumerName = "events-logger"

func main() {
	var env string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.Parse()

	errC, err := run(env)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	var provider envvar.Provider
	if vault != nil {
		provider = vault
	}

	conf := envvar.New(provider)

	rmq, err := internal.NewRabbitMQ(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRabbitMQ")
	}

	srv := &Server{
		logger: logger,
		rmq:    rmq,
		done:   make(chan struct{}),
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()

		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		defer func() {
			_ = logger.Sync()
			rmq.Close()
			stop()
			cancel()
			close(errC)
		}()

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}

		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving")

		if err := srv.ListenAndServe(); err != nil {
			errC <- err
		}
	}()

	return errC, nil
}

//Server logs every task event published to the "tasks" exchange.
type Server struct {
	logger *zap.Logger
	rmq    *internal.RabbitMQ
	done   chan struct{}
}

//ListenAndServe ...
func (s *Server) ListenAndServe() error {
	queue, err := s.rmq.Channel.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.QueueDeclare")
	}

	err = s.rmq.Channel.QueueBind(
		queue.Name,      // queue name
		"tasks.event.*", // routing key
		"tasks",         // exchange
		false,
		nil,
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.QueueBind")
	}

	msgs, err := s.rmq.Channel.Consume(
		queue.Name,           // queue
		rabbitMQConsumerName, // consumer
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "channel.Consume")
	}

	go func() {
		for msg := range msgs {
			fields := []zap.Field{
				zap.String("type", msg.RoutingKey),
				zap.String("message_id", msg.MessageId),
				zap.Time("published", msg.Timestamp),
			}

			var err error

			switch msg.RoutingKey {
			case rabbitmq.RoutingKeyCreated, rabbitmq.RoutingKeyUpdated:
				var task internaldomain.Task

				if task, err = rabbitmq.DecodeTask(msg.Body); err == nil {
					fields = append(fields,
						zap.Int("id", task.ID),
						zap.String("title", task.Title),
						zap.Stringer("priority", task.Priority),
						zap.Bool("completed", task.Completed),
					)
				}
			case rabbitmq.RoutingKeyDeleted:
				var id int

				if id, err = rabbitmq.DecodeID(msg.Body); err == nil {
					fields = append(fields, zap.Int("id", id))
				}
			default:
				err = internaldomain.NewErrorf(internaldomain.ErrorCodeInvalidArgument, "unknown routing key %s", msg.RoutingKey)
			}

			if err != nil {
				s.logger.Warn("Ignoring message, invalid", append(fields, zap.Error(err))...)
				_ = msg.Nack(false, false)
				continue
			}

			s.logger.Info("Task event", fields...)
			_ = msg.Ack(false)
		}

		s.logger.Info("No more messages to consume, Exiting")
		s.done <- struct{}{}
	}()

	return nil
}

//Shutdown ...
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	_ = s.rmq.Channel.Cancel(rabbitMQConsumerName, false)

	for {
		select {
		case <-ctx.Done():
			return internaldomain.WrapErrorf(ctx.Err(), internaldomain.ErrorCodeUnknown, "context.Done")
		case <-s.done:
			return nil
		}
	}
}
