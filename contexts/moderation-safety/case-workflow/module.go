package caseworkflow

import (
	"log/slog"
	"time"

	httpadapter "caseflow/contexts/moderation-safety/case-workflow/adapters/http"
	"caseflow/contexts/moderation-safety/case-workflow/adapters/memory"
	"caseflow/contexts/moderation-safety/case-workflow/application"
	"caseflow/contexts/moderation-safety/case-workflow/application/queries"
	"caseflow/contexts/moderation-safety/case-workflow/application/workers"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	Stats    queries.StatsUseCase
	Sweeper  workers.EscalationSweeper
	Relay    workers.OutboxRelay
	Consumer workers.NotificationConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Cases           ports.CaseRepository
	Idempotency     ports.IdempotencyStore
	Outbox          ports.OutboxWriter
	OutboxRepo      ports.OutboxRepository
	Publisher       ports.EventPublisher
	Subscriber      ports.EventSubscriber
	Dedup           ports.EventDedupStore
	Policy          ports.CommunityPolicyClient
	Dispatcher      ports.NotificationDispatcher
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	ConflictRetries int
	SweepBatchSize  int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Cases:           deps.Cases,
		Idempotency:     deps.Idempotency,
		Outbox:          deps.Outbox,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		ConflictRetries: deps.ConflictRetries,
		Logger:          deps.Logger,
	}
	stats := queries.StatsUseCase{
		Cases: deps.Cases,
		Clock: deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Stats:   stats,
			Logger:  deps.Logger,
		},
		Service: service,
		Stats:   stats,
		Sweeper: workers.EscalationSweeper{
			Cases:       deps.Cases,
			Policy:      deps.Policy,
			Outbox:      deps.Outbox,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			BatchSize:   deps.SweepBatchSize,
			Logger:      deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.OutboxRepo,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Consumer: workers.NotificationConsumer{
			Subscriber: deps.Subscriber,
			Cases:      deps.Cases,
			Dedup:      deps.Dedup,
			Dispatcher: deps.Dispatcher,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(publisher ports.EventPublisher, subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Cases:          store,
		Idempotency:    store,
		Outbox:         store,
		OutboxRepo:     store,
		Publisher:      publisher,
		Subscriber:     subscriber,
		Dedup:          store,
		Policy:         store,
		Dispatcher:     store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
