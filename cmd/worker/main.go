package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/recruit-api/config"
	"github.com/jwalitptl/recruit-api/internal/email"
	"github.com/jwalitptl/recruit-api/internal/handler/health"
	promHandler "github.com/jwalitptl/recruit-api/internal/handler/prometheus"
	"github.com/jwalitptl/recruit-api/internal/middleware"
	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository/postgres"
	"github.com/jwalitptl/recruit-api/internal/service/notification"
	"github.com/jwalitptl/recruit-api/internal/service/render"
	"github.com/jwalitptl/recruit-api/internal/whatsapp"
	internalWorker "github.com/jwalitptl/recruit-api/internal/worker"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/messaging/redis"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
	"github.com/jwalitptl/recruit-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal(err, "worker exited with error")
	}
	log.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	m := metrics.NewMetrics(cfg.Monitoring.Namespace, nil)

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(ctx, cfg.Redis, *log.Zerolog())
	if err != nil {
		return err
	}
	defer broker.Close()

	senders, err := newSenders(ctx, cfg)
	if err != nil {
		return err
	}
	senders.Push = broker

	renderer := render.NewEngine(render.Options{
		Icon:  cfg.Push.Icon,
		Badge: cfg.Push.Badge,
	})
	dispatcher := notification.NewDispatcher(renderer, senders, log.With("component", "dispatcher"), m)

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))
	processor := worker.NewOutboxProcessor(
		outboxRepo,
		map[string]worker.EventHandler{
			model.EventTypeNotificationDispatch: dispatcher,
		},
		cfg.Outbox.ToWorkerConfig(),
		log.With("component", "outbox_processor"),
		m,
	)
	cleanup := internalWorker.NewOutboxCleanupWorker(
		outboxRepo,
		cfg.Outbox.RetentionDays,
		cfg.Outbox.CleanupInterval,
		log.With("component", "outbox_cleanup"),
	)

	srv := newOpsServer(cfg, log, m, health.NewHandler(map[string]health.Pinger{
		"database": health.PingerFunc(db.PingContext),
		"redis":    broker,
	}))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "ops server failed")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()

	log.Info("worker started",
		"email_provider", cfg.Email.Provider,
		"whatsapp", cfg.WhatsApp.Enabled,
	)
	<-ctx.Done()
	log.Info("shutting down...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSenders(ctx context.Context, cfg *config.Config) (notification.Senders, error) {
	var senders notification.Senders

	switch cfg.Email.Provider {
	case "ses":
		sender, err := email.NewSESSender(ctx, cfg.Email.AWSRegion, cfg.Email.From)
		if err != nil {
			return senders, err
		}
		senders.Email = sender
	default:
		senders.Email = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.From,
		})
	}

	if cfg.WhatsApp.Enabled {
		sender, err := whatsapp.NewSender(ctx, cfg.WhatsApp.AWSRegion, cfg.WhatsApp.SenderID)
		if err != nil {
			return senders, err
		}
		senders.WhatsApp = sender
	}
	return senders, nil
}

func newOpsServer(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, h *health.Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	h.RegisterRoutes(engine.Group(""))
	if cfg.Monitoring.PrometheusEnabled {
		engine.GET("/metrics", promHandler.New(nil, m).Handler())
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.WorkerPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
