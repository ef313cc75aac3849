package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/segmentio/kafka-go"
)

// Header keys set on every published storefront event.
const (
	HeaderEventType     = "event-type"
	HeaderAggregateType = "aggregate-type"
	HeaderEventID       = "event-id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes stored events to one topic. Messages are keyed by
// aggregate id, so the events of one order land on one partition in order.
type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, topic: topic}
}

// Publish implements store.Publisher.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	msg, err := newMessage(key, event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// newMessage encodes event as JSON. Store events also carry their type,
// aggregate type and id as headers, and keep their own timestamp.
func newMessage(key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event for %s: %w", key, err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	var e *store.Event
	switch v := event.(type) {
	case store.Event:
		e = &v
	case *store.Event:
		e = v
	}
	if e != nil {
		msg.Time = e.Timestamp
		msg.Headers = []kafka.Header{
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: HeaderAggregateType, Value: []byte(e.AggregateType)},
			{Key: HeaderEventID, Value: []byte(e.ID)},
		}
	}
	return msg, nil
}

var _ store.Publisher = (*Producer)(nil)
