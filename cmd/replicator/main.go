// Replicator follows the pixel event stream into its own canvas and archives
// snapshots of it, without touching the primary service.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/pixelcanvas/config"
	"github.com/ds124wfegd/pixelcanvas/internal/appServer"
	"github.com/ds124wfegd/pixelcanvas/internal/database"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/kafka"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/rabbitMQ"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/storage"
	"github.com/ds124wfegd/pixelcanvas/internal/worker"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	v, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("Failed to parse config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	store, err := appServer.NewStore(&cfg.Canvas)
	if err != nil {
		logrus.Fatalf("Failed to create canvas: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshotDir := config.GetEnv("SNAPSHOT_DIR", cfg.Storage.SnapshotDir+"/replica")
	snapshotRepo := database.NewSnapshotRepository(storage.NewFileStorage(snapshotDir))
	go worker.NewSnapshotWorker(store, renderer.NewCanvasRenderer(), snapshotRepo, cfg.Worker.SnapshotInterval, cfg.Worker.SnapshotRetention).Start(ctx)

	apply := func(ctx context.Context, event entity.PixelEvent) error {
		c, err := entity.ParseHex(event.Color)
		if err != nil {
			return err
		}
		return store.UpdatePixel(event.Slot, entity.Position{X: event.X, Y: event.Y}, c)
	}

	switch cfg.Events.Driver {
	case "kafka":
		err = kafka.Consume(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, apply)
	case "rabbitmq":
		var mq *rabbitMQ.RabbitMQ
		mq, err = rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.RabbitMQ.URL,
			QueueName: cfg.RabbitMQ.QueueName,
			Prefetch:  cfg.RabbitMQ.Prefetch,
		})
		if err != nil {
			logrus.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer mq.Close()
		err = mq.Consume(ctx, apply)
	default:
		logrus.Fatalf("Replicator needs events.driver kafka or rabbitmq, got %q", cfg.Events.Driver)
	}

	if err != nil {
		logrus.Errorf("Replicator stopped with error: %v", err)
		return
	}
	logrus.Info("Replicator stopped")
}
