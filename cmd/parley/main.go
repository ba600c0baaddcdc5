package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	charmlog "charm.land/log/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleyhq/parley/config"
	"github.com/parleyhq/parley/postgres"
	"github.com/parleyhq/parley/postgres/migrator"
	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/roomstore"
	"github.com/parleyhq/parley/service"
	"github.com/parleyhq/parley/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	errLogger := slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	}))
	infoLogger := slog.New(charmlog.NewWithOptions(os.Stdout, charmlog.Options{
		ReportTimestamp: true,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("open postgres connection pool: %w", err)
	}

	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	migrationStart := time.Now()
	infoLogger.Info("starting postgres migrations")

	if err := migrator.Migrate(context.Background(), dbPool, postgres.MigrationsFS); err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}

	infoLogger.Info("finished postgres migrations", "took", time.Since(migrationStart))

	ps, err := pubsub.NewNATS(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}

	defer ps.Close()

	svc := service.New(&service.Config{
		Postgres:          postgres.New(dbPool),
		Rooms:             roomstore.New(),
		PubSub:            ps,
		Logger:            errLogger,
		BaseCtx:           context.Background(),
		BackgroundTimeout: cfg.BackgroundTimeout,
	})

	go func() {
		for err := range svc.Errs() {
			errLogger.Error("service error", "error", err)
		}
	}()

	handler := &web.Handler{
		Service: svc,
		Logger:  errLogger,
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	infoLogger.Info("starting parley server", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start parley server: %w", err)
	}

	return svc.Close()
}
