package internal

import (
	"github.com/streadway/amqp"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/envvar"
)

//RabbitMQ ...
type RabbitMQ struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

//NewRabbitMQ instantiates the RabbitMQ instances using configuration defined in environment variables.
func NewRabbitMQ(conf *envvar.Configuration) (*RabbitMQ, error) {
	url, err := conf.Get("RABBITMQ_URL")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get RABBITMQ_URL")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "amqp.Dial")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conn.Channel")
	}

	err = ch.ExchangeDeclare(
		"tasks", // name
		"topic", // type
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // noWait
		nil,     // arguments
	)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "ch.ExchangeDeclare")
	}

	if err := ch.Qos(
		1,     //prefetch Count
		0,     //prefetch Size
		false, //global
	); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "ch.Qos")
	}

	return &RabbitMQ{
		Connection: conn,
		Channel:    ch,
	}, nil
}

//Close ...
func (r *RabbitMQ) Close() {
	r.Connection.Close()
}
