package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is one record ready for a broker.
type Message struct {
	Key     []byte
	Value   []byte
	Name    string
	Created time.Time
}

// Publisher delivers a batch in order or fails as a whole.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher writes to topic with hash partitioning on the message
// key, so records of one event stay on one partition in order.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...Message) error {
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, kafka.Message{
			Key:     m.Key,
			Value:   m.Value,
			Time:    m.Created,
			Headers: []kafka.Header{{Key: "record", Value: []byte(m.Name)}},
		})
	}
	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(out), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
