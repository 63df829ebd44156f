package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store backs every port with process-local maps. UpdateCase carries the
// same version-check contract as the postgres adapter so concurrency
// tests exercise the real conflict path.
type Store struct {
	mu sync.RWMutex

	cases       map[string]entities.Case
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	eventDedup  map[string]dedupRecord
	policies    map[string]ports.ModerationPolicy

	notifications []ports.Notification
}

func NewStore() *Store {
	return &Store{
		cases:       make(map[string]entities.Case),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
		policies:    make(map[string]ports.ModerationPolicy),
	}
}

func (s *Store) CreateCase(ctx context.Context, c entities.Case) (entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(c.CaseID) == "" {
		c.CaseID = uuid.NewString()
	}
	c.Version = 1
	s.cases[c.CaseID] = cloneCase(c)
	return cloneCase(c), nil
}

func (s *Store) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current, ok := s.cases[strings.TrimSpace(caseID)]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	return cloneCase(current), nil
}

func (s *Store) UpdateCase(ctx context.Context, c entities.Case, expectedVersion int64) (entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.cases[c.CaseID]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	if existing.Version != expectedVersion {
		return entities.Case{}, domainerrors.ErrConcurrentModification
	}
	c.Version = expectedVersion + 1
	s.cases[c.CaseID] = cloneCase(c)
	return cloneCase(c), nil
}

func (s *Store) ListPending(ctx context.Context, communityID string, assigneeID string) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Case, 0)
	for _, current := range s.cases {
		if current.CommunityID != communityID || !current.Open() {
			continue
		}
		if assigneeID != "" && current.Review.Assignment.Assignee != assigneeID {
			continue
		}
		items = append(items, cloneCase(current))
	}
	sortByReportedAt(items)
	return items, nil
}

func (s *Store) ListOpenCases(ctx context.Context, limit int) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Case, 0)
	for _, current := range s.cases {
		if current.Open() {
			items = append(items, cloneCase(current))
		}
	}
	sortByReportedAt(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListByCommunitySince(ctx context.Context, communityID string, since time.Time) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Case, 0)
	for _, current := range s.cases {
		if current.CommunityID != communityID || current.ReportedAt.Before(since) {
			continue
		}
		items = append(items, cloneCase(current))
	}
	sortByReportedAt(items)
	return items, nil
}

func (s *Store) ListAutomatedSince(ctx context.Context, since time.Time) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Case, 0)
	for _, current := range s.cases {
		if current.Automated == nil || !current.Automated.Detected || current.ReportedAt.Before(since) {
			continue
		}
		items = append(items, cloneCase(current))
	}
	sortByReportedAt(items)
	return items, nil
}

func (s *Store) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.idempotency[record.Key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := encodeEnvelope(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := envelope.EventID
	if strings.TrimSpace(outboxID) == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		message := record.message
		message.Payload = append([]byte(nil), record.message.Payload...)
		items = append(items, message)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrCaseNotFound
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

func (s *Store) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.eventDedup[eventID]; ok {
		if existing.payloadHash != payloadHash {
			return false, domainerrors.ErrIdempotencyConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) ModerationPolicy(ctx context.Context, communityID string) (ports.ModerationPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[communityID]
	if !ok {
		return ports.ModerationPolicy{CommunityID: communityID}, nil
	}
	return policy, nil
}

// SetPolicy seeds a community strike snapshot for tests and local runs.
func (s *Store) SetPolicy(policy ports.ModerationPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[strings.TrimSpace(policy.CommunityID)] = policy
}

func (s *Store) Notify(ctx context.Context, notification ports.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

// Notifications returns everything dispatched so far.
func (s *Store) Notifications() []ports.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.Notification(nil), s.notifications...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID() string {
	return uuid.NewString()
}

func sortByReportedAt(items []entities.Case) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].ReportedAt.Equal(items[j].ReportedAt) {
			return items[i].CaseID < items[j].CaseID
		}
		return items[i].ReportedAt.Before(items[j].ReportedAt)
	})
}

var _ ports.CaseRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.CommunityPolicyClient = (*Store)(nil)
var _ ports.NotificationDispatcher = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
