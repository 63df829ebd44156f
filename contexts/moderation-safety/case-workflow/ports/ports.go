package ports

import (
	"context"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	contractsv1 "caseflow/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// CaseRepository persists the moderation aggregate. UpdateCase is the
// optimistic-concurrency gate: it commits only when the stored version
// equals expectedVersion, incrementing it atomically, and returns
// ErrConcurrentModification otherwise. No partial writes commit.
type CaseRepository interface {
	CreateCase(ctx context.Context, c entities.Case) (entities.Case, error)
	GetCase(ctx context.Context, caseID string) (entities.Case, error)
	UpdateCase(ctx context.Context, c entities.Case, expectedVersion int64) (entities.Case, error)
	ListPending(ctx context.Context, communityID string, assigneeID string) ([]entities.Case, error)
	ListOpenCases(ctx context.Context, limit int) ([]entities.Case, error)
	ListByCommunitySince(ctx context.Context, communityID string, since time.Time) ([]entities.Case, error)
	ListAutomatedSince(ctx context.Context, since time.Time) ([]entities.Case, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// EventEnvelope is the canonical cross-runtime envelope from the shared
// contracts module. Case fields travel in Data as CaseEventData.
type EventEnvelope = contractsv1.Envelope

// CaseEventData is the Data schema carried by case-workflow events.
type CaseEventData struct {
	CaseID      string            `json:"case_id"`
	CommunityID string            `json:"community_id"`
	Details     map[string]string `json:"details,omitempty"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// EventDedupStore reserves event ids so consumers process each event once.
// It returns true when the id was already reserved with the same payload.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// ModerationPolicy is the community-level strike snapshot consumed by the
// escalation sweep. Strike accounting itself lives outside this engine.
type ModerationPolicy struct {
	CommunityID string
	Strikes     int
	MaxStrikes  int
}

type CommunityPolicyClient interface {
	ModerationPolicy(ctx context.Context, communityID string) (ModerationPolicy, error)
}

type Notification struct {
	Kind        string
	CaseID      string
	CommunityID string
	Recipient   string
	Subject     string
	Message     string
}

// NotificationDispatcher hands case notifications to the product's
// communication layer (email/in-app); delivery is out of scope here.
type NotificationDispatcher interface {
	Notify(ctx context.Context, notification Notification) error
}
