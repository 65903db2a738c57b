package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, event entity.PixelEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer falls back to a logging producer when no broker is reachable.
func NewProducer(brokers []string, topic string) Producer {
	if len(brokers) == 0 {
		logrus.Warn("No Kafka brokers configured, using mock producer")
		return &mockProducer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logrus.Errorf("Failed to write %d pixel events to Kafka: %v", len(messages), err)
			}
		},
	}

	// Проверяем подключение и создаем топик
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logrus.Errorf("Kafka connection failed: %v, using mock producer instead", err)
		return &mockProducer{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.Warnf("Could not create topic %s (might already exist): %v", topic, err)
	}

	logrus.Infof("Connected to Kafka at %v, topic %s", brokers, topic)
	return &kafkaProducer{writer: writer}
}

// Publish keys messages by cell so updates to one cell stay ordered within a
// partition.
func (p *kafkaProducer) Publish(ctx context.Context, event entity.PixelEvent) error {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(cellKey(event.X, event.Y)),
		Value: messageBytes,
		Time:  event.Timestamp,
	}

	// the writer is async: delivery failures surface in Completion
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	logrus.Debugf("Pixel event %s queued for topic %s", event.ID, p.writer.Topic)
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// Mock producer для работы без Kafka
type mockProducer struct{}

func (m *mockProducer) Publish(ctx context.Context, event entity.PixelEvent) error {
	logrus.WithFields(logrus.Fields{
		"event_id": event.ID,
		"x":        event.X,
		"y":        event.Y,
		"color":    event.Color,
	}).Debug("MOCK: pixel event")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
