package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/recruit-api/config"
	bookingHandler "github.com/jwalitptl/recruit-api/internal/handler/booking"
	confirmationHandler "github.com/jwalitptl/recruit-api/internal/handler/confirmation"
	"github.com/jwalitptl/recruit-api/internal/handler/health"
	paymentHandler "github.com/jwalitptl/recruit-api/internal/handler/payment"
	promHandler "github.com/jwalitptl/recruit-api/internal/handler/prometheus"
	pushHandler "github.com/jwalitptl/recruit-api/internal/handler/push"
	"github.com/jwalitptl/recruit-api/internal/middleware"
	"github.com/jwalitptl/recruit-api/internal/push"
	"github.com/jwalitptl/recruit-api/internal/push/hub"
	"github.com/jwalitptl/recruit-api/internal/repository/postgres"
	"github.com/jwalitptl/recruit-api/internal/router"
	bookingService "github.com/jwalitptl/recruit-api/internal/service/booking"
	confirmationService "github.com/jwalitptl/recruit-api/internal/service/confirmation"
	"github.com/jwalitptl/recruit-api/internal/service/event"
	paymentService "github.com/jwalitptl/recruit-api/internal/service/payment"
	"github.com/jwalitptl/recruit-api/internal/service/token"
	"github.com/jwalitptl/recruit-api/pkg/auth"
	"github.com/jwalitptl/recruit-api/pkg/events/kafka"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/messaging/redis"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
	"github.com/jwalitptl/recruit-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
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
		log.Fatal(err, "api exited with error")
	}
	log.Info("server exited properly")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := validator.Register(); err != nil {
		return err
	}

	origin, err := url.Parse(cfg.Server.PublicURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return fmt.Errorf("server.public_url %q is not an absolute URL", cfg.Server.PublicURL)
	}

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

	base := postgres.NewBaseRepository(db)
	paymentRepo := postgres.NewPaymentRepository(base)
	bookingRepo := postgres.NewBookingRepository(base)
	interviewerRepo := postgres.NewInterviewerRepository(base)

	tokens, err := token.NewService(token.Config{
		Secret:   cfg.Tokens.Secret,
		Issuer:   cfg.JWT.Issuer,
		Validity: cfg.Tokens.Validity,
	})
	if err != nil {
		return err
	}

	issuer := event.NewIssuer(event.IssuerConfig{
		PublicURL:       cfg.Server.PublicURL,
		SupportContact:  cfg.Support.Contact,
		WhatsAppEnabled: cfg.WhatsApp.Enabled,
	})

	confirmationOpts := []confirmationService.Option{
		confirmationService.WithMetrics(m),
		confirmationService.WithLogger(log.With("component", "confirmation")),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.DecisionsTopic, *log.Zerolog())
		defer producer.Close()
		confirmationOpts = append(confirmationOpts, confirmationService.WithPublisher(producer))
	}

	confirmations := confirmationService.NewService(tokens, paymentRepo, bookingRepo, interviewerRepo, confirmationOpts...)
	payments := paymentService.NewService(paymentRepo, interviewerRepo, tokens, issuer, log.With("component", "payment"))
	bookings := bookingService.NewService(bookingRepo, interviewerRepo, tokens, issuer, log.With("component", "booking"))

	windows := hub.New(hub.Config{PendingTTL: cfg.Push.PendingOpenTTL})
	subscriber := push.NewSubscriber(broker, windows, origin, 0, log, m)
	go func() {
		if err := subscriber.Run(ctx); err != nil {
			log.Error(err, "push subscriber stopped")
		}
	}()

	var metricsHandler *promHandler.Handler
	if cfg.Monitoring.PrometheusEnabled {
		metricsHandler = promHandler.New(nil, m)
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour)

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(middleware.NewAuthMiddleware(jwtService), router.Handlers{
		Health: health.NewHandler(map[string]health.Pinger{
			"database": health.PingerFunc(db.PingContext),
			"redis":    broker,
		}),
		Confirmation: confirmationHandler.NewHandler(confirmations),
		Payment:      paymentHandler.NewHandler(payments),
		Booking:      bookingHandler.NewHandler(bookings),
		Push:         pushHandler.NewHandler(windows, subscriber, 0),
	}, log, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig,
		Timeout:          middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
		Metrics:          metricsHandler,
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	srv.RegisterOnShutdown(windows.Close)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
