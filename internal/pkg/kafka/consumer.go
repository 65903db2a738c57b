package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Consume reads pixel events until ctx is cancelled. Malformed messages and
// handler failures are logged and skipped.
func Consume(ctx context.Context, brokers []string, topic, groupID string, handle entity.EventHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.Infof("Pixel event consumer started, brokers %v, topic %s", brokers, topic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				logrus.Info("Pixel event consumer stopped")
				return nil
			}
			logrus.Errorf("Error reading message from Kafka: %v", err)
			continue
		}

		event, err := entity.DecodePixelEvent(msg.Value)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Errorf("Failed to parse pixel event: %v", err)
			continue
		}

		if err := handle(ctx, event); err != nil {
			logrus.WithField("event_id", event.ID).Errorf("Failed to apply pixel event: %v", err)
		}
	}
}

func cellKey(x, y uint32) string {
	return fmt.Sprintf("%d:%d", x, y)
}
