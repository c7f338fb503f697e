package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/blob"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/logger"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickets, feedback, ping, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	labels, err := model.ExpandSeatLabels(cfg.SeedSeats)
	if err != nil {
		return fmt.Errorf("SEED_SEATS: %w", err)
	}
	if err := tickets.SeedSeats(ctx, labels); err != nil {
		return fmt.Errorf("seed seats: %w", err)
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.AMQP.Enabled {
		amqpPub := service.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		defer func() { _ = amqpPub.Close() }()
		publisher = amqpPub

		consumer := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, queue.NewFileSink(cfg.TicketLogFile), log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("ticket consumer stopped", zap.Error(err))
			}
		}()
	}

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	} else {
		log.Warn("redis unavailable, caching and rate limiting disabled")
	}

	svc := service.NewBookingService(tickets, publisher, cfg.Venue, log.Named("booking"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(log.Named("http")))
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("6M"))

	router.Register(e, router.Routes{
		Health:    handler.Health(ping, log),
		Tickets:   handler.NewTicketHandler(svc, log),
		Feedback:  handler.NewFeedbackHandler(feedback, blob.NewLocalStore(cfg.UploadDir, "/uploads"), log),
		UploadDir: cfg.UploadDir,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		SeatCache: middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", ":"+cfg.Port), zap.String("env", cfg.Env),
			zap.String("storage", cfg.Storage), zap.String("venue_tz", cfg.Venue.String()))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStorage builds the ticket and feedback stores for cfg.Storage.  ping
// is nil for the in-memory backend.
func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (
	repository.TicketStore, repository.FeedbackStore, func(context.Context) error, func(), error,
) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(), repository.NewMemoryFeedbackStore(), nil, func() {}, nil
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, err
	}
	closeDB := func() { _ = db.Close() }
	return repository.NewTicketRepo(db, cfg.DBTxTimeout), repository.NewFeedbackRepo(db), db.PingContext, closeDB, nil
}
