package postgresadapter

import (
	"encoding/json"
	"fmt"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
)

// caseModel keeps hot filter columns flat and stores the full aggregate
// as a JSONB document. The document is authoritative on read; the flat
// columns exist for queue and sweep queries only.
type caseModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	CommunityID       string    `gorm:"column:community_id;index:idx_cases_community_status"`
	Status            string    `gorm:"column:status;index:idx_cases_community_status"`
	TargetType        string    `gorm:"column:target_type"`
	TargetID          string    `gorm:"column:target_id;index"`
	ReasonCategory    string    `gorm:"column:reason_category"`
	ReasonSeverity    string    `gorm:"column:reason_severity"`
	ReportedBy        string    `gorm:"column:reported_by"`
	Anonymous         bool      `gorm:"column:anonymous"`
	ReportedAt        time.Time `gorm:"column:reported_at;index"`
	Assignee          string    `gorm:"column:assignee;index"`
	PriorityLevel     string    `gorm:"column:priority_level"`
	PriorityScore     float64   `gorm:"column:priority_score"`
	AutomatedDetected bool      `gorm:"column:automated_detected;index"`
	Escalated         bool      `gorm:"column:escalated"`
	AppealSubmitted   bool      `gorm:"column:appeal_submitted"`
	Complexity        string    `gorm:"column:complexity"`
	Document          []byte    `gorm:"column:document;type:jsonb"`
	Version           int64     `gorm:"column:version"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (caseModel) TableName() string {
	return "moderation_cases"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload;type:jsonb"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
}

func (idempotencyModel) TableName() string {
	return "case_workflow_idempotency_keys"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;index"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "case_workflow_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "case_workflow_event_dedup"
}

// policyProjectionModel mirrors community strike counters published by
// the community-experience context.
type policyProjectionModel struct {
	CommunityID string `gorm:"column:community_id;primaryKey"`
	Strikes     int    `gorm:"column:strikes"`
	MaxStrikes  int    `gorm:"column:max_strikes"`
}

func (policyProjectionModel) TableName() string {
	return "community_moderation_policies"
}

func caseModelFromEntity(c entities.Case) (caseModel, error) {
	document, err := json.Marshal(c)
	if err != nil {
		return caseModel{}, fmt.Errorf("encode case document: %w", err)
	}
	row := caseModel{
		ID:              c.CaseID,
		CommunityID:     c.CommunityID,
		Status:          string(c.Status),
		TargetType:      string(c.TargetType),
		TargetID:        c.TargetID,
		ReasonCategory:  string(c.Reason.Category),
		ReasonSeverity:  string(c.Reason.Severity),
		ReportedBy:      c.ReportedBy,
		Anonymous:       c.Anonymous,
		ReportedAt:      c.ReportedAt.UTC(),
		Assignee:        c.Review.Assignment.Assignee,
		PriorityLevel:   string(c.Priority.Level),
		PriorityScore:   c.Priority.Score,
		Escalated:       c.Escalation.Escalated,
		AppealSubmitted: c.Appeal.Submitted,
		Complexity:      string(c.Complexity),
		Document:        document,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
	if c.Automated != nil {
		row.AutomatedDetected = c.Automated.Detected
	}
	return row, nil
}

func (m caseModel) toEntity() (entities.Case, error) {
	var c entities.Case
	if err := json.Unmarshal(m.Document, &c); err != nil {
		return entities.Case{}, fmt.Errorf("decode case document %s: %w", m.ID, err)
	}
	c.CaseID = m.ID
	c.Version = m.Version
	return c, nil
}

func toCaseEntities(rows []caseModel) ([]entities.Case, error) {
	items := make([]entities.Case, 0, len(rows))
	for _, row := range rows {
		c, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, nil
}
