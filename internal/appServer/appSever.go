// launching the server, pixel store, persistence, event publisher
package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/pixelcanvas/config"
	"github.com/ds124wfegd/pixelcanvas/internal/database"
	"github.com/ds124wfegd/pixelcanvas/internal/entity"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/kafka"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/pixelstore"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/postgres"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/rabbitMQ"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/redis"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/renderer"
	"github.com/ds124wfegd/pixelcanvas/internal/pkg/storage"
	"github.com/ds124wfegd/pixelcanvas/internal/service"
	"github.com/ds124wfegd/pixelcanvas/internal/transport"
	"github.com/ds124wfegd/pixelcanvas/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewStore builds the process-wide canvas from the canvas config section.
func NewStore(cfg *config.CanvasConfig) (*pixelstore.Store, error) {
	fill, err := entity.ParseHex(cfg.DefaultColor)
	if err != nil {
		return nil, err
	}
	return pixelstore.NewStore(cfg.Width, cfg.Height, fill)
}

func NewPixelRepository(ctx context.Context, cfg *config.Config) (database.PixelRepository, transport.HealthCheck, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return database.NewMemoryPixelRepository(), nil, nil
	case "redis":
		client := redis.NewRedisClient(&cfg.Redis)
		repo, err := database.NewPixelRedisRepository(ctx, client, cfg.Redis.Key)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return repo, func(ctx context.Context) error { return client.Ping(ctx).Err() }, nil
	case "postgres":
		db, err := postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return database.NewPixelPostgresRepository(db), db.PingContext, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func NewEventPublisher(cfg *config.Config) (service.EventPublisher, transport.HealthCheck, error) {
	switch cfg.Events.Driver {
	case "", "none":
		return kafka.NewProducer(nil, cfg.Kafka.Topic), nil, nil
	case "kafka":
		return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil, nil
	case "rabbitmq":
		mq, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       cfg.RabbitMQ.URL,
			QueueName: cfg.RabbitMQ.QueueName,
			Prefetch:  cfg.RabbitMQ.Prefetch,
		})
		if err != nil {
			return nil, nil, err
		}
		return mq, func(context.Context) error { return mq.HealthCheck() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := NewStore(&cfg.Canvas)
	if err != nil {
		logrus.Fatalf("Failed to create canvas: %v", err)
	}

	checks := map[string]transport.HealthCheck{}

	pixelRepo, check, err := NewPixelRepository(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize pixel storage: %v", err)
	}
	defer pixelRepo.Close()
	if check != nil {
		checks[cfg.Storage.Driver] = check
	}

	publisher, check, err := NewEventPublisher(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize event publisher: %v", err)
	}
	defer publisher.Close()
	if check != nil {
		checks[cfg.Events.Driver] = check
	}

	canvasRenderer := renderer.NewCanvasRenderer()
	canvasService := service.NewCanvasService(store, pixelRepo, publisher, cfg.Canvas.TileSize)
	renderService := service.NewRenderService(store, canvasRenderer, cfg.Canvas.TileSize, cfg.Canvas.OverviewSize)

	restored, err := canvasService.Restore(ctx)
	if err != nil {
		logrus.Errorf("Failed to restore canvas, starting blank: %v", err)
	} else {
		logrus.Infof("Canvas %dx%d restored with %d pixels", store.Width(), store.Height(), restored)
	}

	snapshotRepo := database.NewSnapshotRepository(storage.NewFileStorage(cfg.Storage.SnapshotDir))
	snapshotWorker := worker.NewSnapshotWorker(store, canvasRenderer, snapshotRepo, cfg.Worker.SnapshotInterval, cfg.Worker.SnapshotRetention)
	go snapshotWorker.Start(ctx)

	handler := transport.NewCanvasHandler(canvasService, renderService, service.NewSnapshotService(snapshotRepo), checks)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(handler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
