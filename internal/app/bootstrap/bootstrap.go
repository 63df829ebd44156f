package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	caseworkflow "caseflow/contexts/moderation-safety/case-workflow"
	postgresadapter "caseflow/contexts/moderation-safety/case-workflow/adapters/postgres"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/db"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	module   caseworkflow.Module
	cfg      config.Config
	logger   *slog.Logger
}

func buildModule(cfg config.Config, logger *slog.Logger, bus *messaging.Kafka) (caseworkflow.Module, *db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return caseworkflow.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return caseworkflow.Module{}, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := caseworkflow.NewModule(caseworkflow.Dependencies{
		Cases:          repo,
		Idempotency:    repo,
		Outbox:         repo,
		OutboxRepo:     repo,
		Publisher:      bus,
		Subscriber:     bus,
		Dedup:          repo,
		Policy:         repo,
		Dispatcher:     logDispatcher{logger: logger},
		Clock:          postgresadapter.SystemClock{},
		IDGenerator:    postgresadapter.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		SweepBatchSize: cfg.SweepBatchSize,
		Logger:         logger,
	})
	return module, pg, nil
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	module, pg, err := buildModule(cfg, logger, nil)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	module, pg, err := buildModule(cfg, logger, bus)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		module:   module,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.cfg.EnableNotificationConsumer {
		if err := w.module.Consumer.Start(ctx); err != nil {
			return err
		}
	}

	relayTicker := time.NewTicker(w.cfg.RelayInterval)
	defer relayTicker.Stop()
	sweepTicker := time.NewTicker(w.cfg.SweepInterval)
	defer sweepTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"relay_interval", w.cfg.RelayInterval.String(),
		"sweep_interval", w.cfg.SweepInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-relayTicker.C:
			if !w.cfg.EnableOutboxRelay {
				continue
			}
			if err := w.module.Relay.RunOnce(ctx); err != nil {
				return err
			}
		case <-sweepTicker.C:
			if !w.cfg.EnableEscalationSweep {
				continue
			}
			if err := w.module.Sweeper.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// logDispatcher is the default notification sink until the product's
// communication service is wired in.
type logDispatcher struct {
	logger *slog.Logger
}

func (d logDispatcher) Notify(ctx context.Context, notification ports.Notification) error {
	if d.logger != nil {
		d.logger.Info("case notification dispatched",
			"event", "case_notification_dispatched",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"kind", notification.Kind,
			"case_id", notification.CaseID,
			"recipient", notification.Recipient,
		)
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
