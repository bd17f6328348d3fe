package internal

import (
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"github.com/sanLimbu/todo-web/internal"
	"github.com/sanLimbu/todo-web/internal/envvar"
)

//KafkaProducer ...
type KafkaProducer struct {
	Producer *kafka.Producer
	Topic    string
}

//NewKafkaProducer instantiates the Kafka producer using configuration defined in environment variables.
//Delivery reports are read per message by the publisher, client level errors are logged here.
func NewKafkaProducer(conf *envvar.Configuration, logger *zap.Logger) (*KafkaProducer, error) {
	host, err := conf.Get("KAFKA_HOST")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get KAFKA_HOST")
	}

	topic, err := conf.GetDefault("KAFKA_TOPIC", "tasks")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get KAFKA_TOPIC")
	}

	config := kafka.ConfigMap{
		"bootstrap.servers": host,
	}

	client, err := kafka.NewProducer(&config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "kafka.NewProducer")
	}

	go func() {
		for e := range client.Events() {
			switch ev := e.(type) {
			case kafka.Error:
				logger.Warn("kafka producer error", zap.Error(ev), zap.Bool("fatal", ev.IsFatal()))
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					logger.Warn("kafka delivery failed", zap.Error(ev.TopicPartition.Error))
				}
			}
		}
	}()

	return &KafkaProducer{
		Producer: client,
		Topic:    topic,
	}, nil
}

//Close flushes pending messages before closing the producer.
func (k *KafkaProducer) Close() {
	k.Producer.Flush(5000)
	k.Producer.Close()
}
