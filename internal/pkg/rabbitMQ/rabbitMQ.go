package rabbitMQ

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	config  RabbitMQConfig
}

type RabbitMQConfig struct {
	URL       string
	QueueName string
	Prefetch  int // 0 means 1
}

func NewRabbitMQ(config RabbitMQConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		config.QueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		queue:   q,
		config:  config,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, event entity.PixelEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// permanent reports errors that redelivery cannot fix.
func permanent(err error) bool {
	return errors.Is(err, entity.ErrOutOfRange) || errors.Is(err, entity.ErrInvalidColor)
}

// Consume delivers pixel events from the queue to handle until ctx is done.
// Malformed messages are dropped; handler failures are requeued unless
// permanent.
func (r *RabbitMQ) Consume(ctx context.Context, handle entity.EventHandler) error {
	prefetch := r.config.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	// Настраиваем QoS
	err := r.channel.Qos(
		prefetch, // prefetch count
		0,        // prefetch size
		false,    // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := r.channel.Consume(
		r.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume messages: %w", err)
	}

	logrus.Infof("Pixel event consumer started, queue %s", r.queue.Name)
	r.handleMessages(ctx, msgs, handle)
	return nil
}

func (r *RabbitMQ) handleMessages(ctx context.Context, msgs <-chan amqp.Delivery, handle entity.EventHandler) {
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Pixel event consumer stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				logrus.Warn("RabbitMQ delivery channel closed")
				return
			}
			r.handleDelivery(ctx, msg, handle)
		}
	}
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, msg amqp.Delivery, handle entity.EventHandler) {
	event, err := entity.DecodePixelEvent(msg.Body)
	if err != nil {
		logrus.WithField("message_id", msg.MessageId).Errorf("Failed to parse pixel event: %v", err)
		msg.Nack(false, false) // битое сообщение не возвращаем в очередь
		return
	}

	if err := handle(ctx, event); err != nil {
		requeue := !permanent(err)
		logrus.WithFields(logrus.Fields{
			"event_id": event.ID,
			"requeue":  requeue,
		}).Errorf("Failed to apply pixel event: %v", err)
		msg.Nack(false, requeue)
		return
	}
	msg.Ack(false)
}

func (r *RabbitMQ) Close() error {
	var errs []error

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ: %v", errs)
	}

	return nil
}

// HealthCheck проверяет соединение с RabbitMQ
func (r *RabbitMQ) HealthCheck() error {
	if r.conn == nil || r.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ connection is closed")
	}
	return nil
}
