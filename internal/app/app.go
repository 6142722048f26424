package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomrelay/internal/blob"
	"github.com/vovakirdan/roomrelay/internal/config"
	"github.com/vovakirdan/roomrelay/internal/core"
	"github.com/vovakirdan/roomrelay/internal/metrics"
	"github.com/vovakirdan/roomrelay/internal/store"
	"github.com/vovakirdan/roomrelay/internal/store/bolt"
	"github.com/vovakirdan/roomrelay/internal/store/jsonfile"
	"github.com/vovakirdan/roomrelay/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/roomrelay/internal/transport/http"
)

// App wires together core, storage and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	messages        *store.Messages
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	m := metrics.New()

	durable, err := openLog(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	messages, err := store.Open(ctx, durable, logger, store.WithErrorHandler(func(store.Record, error) {
		m.PersistFailed()
	}))
	if err != nil {
		_ = durable.Close()
		return nil, fmt.Errorf("load history: %w", err)
	}
	logger.Info().Str("driver", cfg.History.Driver).Str("path", cfg.History.Path).Msg("history store opened")

	backend, err := openBlobBackend(ctx, cfg.Blobs)
	if err != nil {
		_ = messages.Close()
		return nil, fmt.Errorf("init blobs: %w", err)
	}
	logger.Info().Str("driver", cfg.Blobs.Driver).Str("url_prefix", cfg.Blobs.URLPrefix).Msg("blob store initialized")

	hub := core.NewHub(messages, blob.New(backend, cfg.Blobs.URLPrefix, cfg.Blobs.MaxBytes), core.Options{
		EchoToSender: cfg.EchoToSender,
		DefaultRoom:  cfg.DefaultRoom,
		BlobTimeout:  cfg.Blobs.WriteTimeout,
		Logger:       logger,
		Metrics:      m,
	})
	server := transporthttp.NewServer(hub, messages, cfg, m, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		messages:        messages,
		log:             logger,
	}, nil
}

func openLog(cfg config.HistoryConfig) (store.Log, error) {
	switch cfg.Driver {
	case config.HistorySQLite:
		return sqlite.New(cfg.Path)
	case config.HistoryBolt:
		return bolt.New(cfg.Path)
	case config.HistoryJSON:
		return jsonfile.New(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

func openBlobBackend(ctx context.Context, cfg config.BlobConfig) (blob.Backend, error) {
	switch cfg.Driver {
	case config.BlobsLocal:
		return blob.NewLocal(cfg.Dir)
	case config.BlobsS3:
		return blob.NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the hub and HTTP server and blocks until context cancellation or fatal error.
// Shutdown order: stop accepting HTTP, stop the hub, drain pending history writes.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(hubCtx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		defer stopHub()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.cleanup()
	return err
}

// cleanup drains and closes the message store.
func (a *App) cleanup() {
	if a.messages == nil {
		return
	}
	if err := a.messages.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close message store")
		return
	}
	a.log.Info().Msg("message store closed")
}
