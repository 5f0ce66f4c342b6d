package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by the sink
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards bus events to a Kafka topic
type KafkaSink struct {
	writer  MessageWriter
	logger  zerolog.Logger
	timeout time.Duration
}

// NewKafkaWriter creates a writer for brokers and topic
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaSink creates a sink over writer
func NewKafkaSink(writer MessageWriter, logger zerolog.Logger) *KafkaSink {
	return &KafkaSink{writer: writer, logger: logger, timeout: 5 * time.Second}
}

// Attach subscribes the sink to every topic on bus
func (k *KafkaSink) Attach(bus *Bus) {
	bus.Subscribe("kafka-sink", TopicAll, k.Handle)
}

// Handle writes one event. Failures are logged.
func (k *KafkaSink) Handle(event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		k.logger.Error().Err(err).Str("topic", event.Topic).Msg("encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Topic)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.logger.Warn().Err(err).Str("topic", event.Topic).Str("key", event.Key).Msg("kafka write failed")
	}
}

// Close flushes and closes the writer
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
