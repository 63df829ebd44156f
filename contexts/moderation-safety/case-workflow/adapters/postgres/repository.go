package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

var openStatuses = []string{
	string(entities.StatusPending),
	string(entities.StatusInReview),
}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateCase(ctx context.Context, c entities.Case) (entities.Case, error) {
	if strings.TrimSpace(c.CaseID) == "" {
		c.CaseID = uuid.NewString()
	}
	c.Version = 1

	row, err := caseModelFromEntity(c)
	if err != nil {
		return entities.Case{}, r.logError("case_repo_encode_failed", err, "case_id", c.CaseID)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Case{}, domainerrors.ErrConcurrentModification
		}
		return entities.Case{}, r.logError("case_repo_create_failed", err, "case_id", c.CaseID)
	}
	return c, nil
}

func (r *Repository) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	var row caseModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(caseID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, r.logError("case_repo_get_failed", err, "case_id", strings.TrimSpace(caseID))
	}
	return row.toEntity()
}

// UpdateCase commits only when the stored version still matches; the
// guarded UPDATE is the per-case serialization point of the engine.
func (r *Repository) UpdateCase(ctx context.Context, c entities.Case, expectedVersion int64) (entities.Case, error) {
	c.Version = expectedVersion + 1
	row, err := caseModelFromEntity(c)
	if err != nil {
		return entities.Case{}, r.logError("case_repo_encode_failed", err, "case_id", c.CaseID)
	}

	result := r.db.WithContext(ctx).
		Model(&caseModel{}).
		Where("id = ? AND version = ?", c.CaseID, expectedVersion).
		Updates(map[string]any{
			"status":           row.Status,
			"reason_severity":  row.ReasonSeverity,
			"assignee":         row.Assignee,
			"priority_level":   row.PriorityLevel,
			"priority_score":   row.PriorityScore,
			"escalated":        row.Escalated,
			"appeal_submitted": row.AppealSubmitted,
			"complexity":       row.Complexity,
			"document":         row.Document,
			"version":          row.Version,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return entities.Case{}, r.logError("case_repo_update_failed", result.Error, "case_id", c.CaseID)
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&caseModel{}).
			Where("id = ?", c.CaseID).
			Count(&exists).Error; err != nil {
			return entities.Case{}, r.logError("case_repo_update_probe_failed", err, "case_id", c.CaseID)
		}
		if exists == 0 {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, domainerrors.ErrConcurrentModification
	}
	return c, nil
}

func (r *Repository) ListPending(ctx context.Context, communityID string, assigneeID string) ([]entities.Case, error) {
	tx := r.db.WithContext(ctx).Model(&caseModel{}).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("status IN ?", openStatuses)
	if strings.TrimSpace(assigneeID) != "" {
		tx = tx.Where("assignee = ?", strings.TrimSpace(assigneeID))
	}

	var rows []caseModel
	if err := tx.Order("reported_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_pending_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return toCaseEntities(rows)
}

func (r *Repository) ListOpenCases(ctx context.Context, limit int) ([]entities.Case, error) {
	if limit <= 0 {
		limit = 200
	}
	var rows []caseModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", openStatuses).
		Order("reported_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_open_failed", err, "limit", limit)
	}
	return toCaseEntities(rows)
}

func (r *Repository) ListByCommunitySince(ctx context.Context, communityID string, since time.Time) ([]entities.Case, error) {
	var rows []caseModel
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("reported_at >= ?", since.UTC()).
		Order("reported_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_by_community_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return toCaseEntities(rows)
}

func (r *Repository) ListAutomatedSince(ctx context.Context, since time.Time) ([]entities.Case, error) {
	var rows []caseModel
	if err := r.db.WithContext(ctx).
		Where("automated_detected = ?", true).
		Where("reported_at >= ?", since.UTC()).
		Order("reported_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_automated_failed", err)
	}
	return toCaseEntities(rows)
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("case_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("case_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		Payload:     append([]byte(nil), record.Payload...),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("case_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("case_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("case_repo_append_outbox_marshal_failed", err,
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("case_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("case_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("case_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("case_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentModification
	}
	return nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("case_repo_reserve_event_failed", create.Error, "event_id", row.EventID)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("case_repo_reserve_event_load_existing_failed", err, "event_id", row.EventID)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

// ModerationPolicy reads the community strike projection maintained by
// the community service. The table is optional in local development;
// callers treat a missing table as "no strikes recorded".
func (r *Repository) ModerationPolicy(ctx context.Context, communityID string) (ports.ModerationPolicy, error) {
	var row policyProjectionModel
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || isUndefinedTable(err) {
			return ports.ModerationPolicy{CommunityID: strings.TrimSpace(communityID)}, nil
		}
		return ports.ModerationPolicy{}, r.logError("case_repo_policy_lookup_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return ports.ModerationPolicy{
		CommunityID: row.CommunityID,
		Strikes:     row.Strikes,
		MaxStrikes:  row.MaxStrikes,
	}, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "moderation-safety/case-workflow",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("case repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.CaseRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
var _ ports.CommunityPolicyClient = (*Repository)(nil)
