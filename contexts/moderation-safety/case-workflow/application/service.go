package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/domain/scoring"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

const (
	EventCaseCreated      = "moderation.case.created"
	EventCaseAssigned     = "moderation.case.assigned"
	EventDecisionRecorded = "moderation.case.decision_recorded"
	EventCaseEscalated    = "moderation.case.escalated"
	EventAppealSubmitted  = "moderation.case.appeal_submitted"
	EventAppealReviewed   = "moderation.case.appeal_reviewed"
	EventPatternFlagged   = "moderation.case.pattern_flagged"
)

// Service drives the case workflow: intake, assignment, review decisions,
// escalation, appeals, and pattern linking. Every mutation re-reads the
// case, applies the change, recomputes priority and complexity, and
// commits under the repository's version check.
type Service struct {
	Cases           ports.CaseRepository
	Idempotency     ports.IdempotencyStore
	Outbox          ports.OutboxWriter
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	ConflictRetries int
	Logger          *slog.Logger
}

type CreateCaseInput struct {
	TargetType   entities.TargetType
	TargetID     string
	CommunityID  string
	Reason       entities.Reason
	ReportedBy   string
	Anonymous    bool
	Automated    *entities.AutomatedSignal
	CustomFields []entities.CustomField
}

type DecisionInput struct {
	Action         entities.DecisionAction
	Reason         string
	PublicReason   string
	DecisionMadeBy string
	Duration       time.Duration
	EditedContent  string
}

type EvidenceInput struct {
	Type        entities.EvidenceType
	URL         string
	Filename    string
	Description string
}

func (s Service) CreateCase(ctx context.Context, idempotencyKey string, input CreateCaseInput) (entities.Case, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.TargetID = strings.TrimSpace(input.TargetID)
	input.CommunityID = strings.TrimSpace(input.CommunityID)
	input.ReportedBy = strings.TrimSpace(input.ReportedBy)
	input.Reason.Description = strings.TrimSpace(input.Reason.Description)

	if idempotencyKey == "" {
		return entities.Case{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if !input.TargetType.Valid() || input.TargetID == "" || input.CommunityID == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	if !input.Reason.Category.Valid() || !input.Reason.Severity.Valid() || input.Reason.Description == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	for _, field := range input.CustomFields {
		switch field.Type {
		case entities.CustomFieldString, entities.CustomFieldNumber, entities.CustomFieldBoolean, entities.CustomFieldDate:
		default:
			return entities.Case{}, domainerrors.ErrValidation
		}
	}

	requestHash := hashStrings(
		string(input.TargetType), input.TargetID, input.CommunityID,
		string(input.Reason.Category), string(input.Reason.Severity), input.Reason.Description,
		input.ReportedBy,
	)

	var created entities.Case
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &created) },
		func() ([]byte, error) {
			now := s.now()
			candidate := entities.Case{
				CaseID:       s.newID(),
				TargetType:   input.TargetType,
				TargetID:     input.TargetID,
				CommunityID:  input.CommunityID,
				Status:       entities.StatusPending,
				Reason:       input.Reason,
				ReportedBy:   input.ReportedBy,
				Anonymous:    input.Anonymous,
				ReportedAt:   now,
				Automated:    input.Automated,
				CustomFields: input.CustomFields,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			RefreshPriority(&candidate, now)
			candidate.Complexity = scoring.AssessComplexity(candidate)

			stored, err := s.Cases.CreateCase(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if err := s.appendEvent(ctx, stored, EventCaseCreated, nil); err != nil {
				return nil, err
			}
			return json.Marshal(stored)
		},
	)
	return created, err
}

func (s Service) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	return s.Cases.GetCase(ctx, caseID)
}

// AssignCase hands the case to one reviewer. When an active assignee
// exists the call fails with ErrAlreadyAssigned unless reassign is set;
// the version check resolves simultaneous assigns to exactly one winner.
func (s Service) AssignCase(ctx context.Context, caseID string, reviewerID string, assignedBy string, reassign bool) (entities.Case, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	assignedBy = strings.TrimSpace(assignedBy)
	if reviewerID == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		// Only a live case may be assigned; the closed/escalated edges into
		// in_review belong to the appeal flow.
		if c.Status != entities.StatusPending && c.Status != entities.StatusInReview {
			return domainerrors.NewTransitionError(string(c.Status), string(entities.StatusInReview))
		}
		if c.Review.Assignment.Active() && !reassign {
			return domainerrors.ErrAlreadyAssigned
		}
		if err := transition(c, entities.StatusInReview); err != nil {
			return err
		}
		c.Review.Assignment = entities.Assignment{
			Assignee:   reviewerID,
			AssignedAt: now,
			AssignedBy: assignedBy,
		}
		if c.Metrics.ReportToAssignment == nil {
			elapsed := now.Sub(c.ReportedAt)
			c.Metrics.ReportToAssignment = &elapsed
		}
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if err := s.appendEvent(ctx, updated, EventCaseAssigned, map[string]string{"assignee": reviewerID}); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// ReleaseCase clears the active assignee without changing status, so the
// case can be handed to someone else.
func (s Service) ReleaseCase(ctx context.Context, caseID string) (entities.Case, error) {
	return s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if !c.Review.Assignment.Active() {
			return domainerrors.ErrNotAssigned
		}
		c.Review.Assignment = entities.Assignment{}
		return nil
	})
}

func (s Service) StartReview(ctx context.Context, caseID string) (entities.Case, error) {
	return s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if err := requireInReview(c); err != nil {
			return err
		}
		ensureReviewStarted(c, now)
		return nil
	})
}

func (s Service) AddReviewerNote(ctx context.Context, caseID string, note string, addedBy string, private bool) (entities.Case, error) {
	note = strings.TrimSpace(note)
	addedBy = strings.TrimSpace(addedBy)
	if note == "" || addedBy == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	return s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if err := requireInReview(c); err != nil {
			return err
		}
		ensureReviewStarted(c, now)
		c.Review.Notes = append(c.Review.Notes, entities.ReviewerNote{
			Note:    note,
			AddedBy: addedBy,
			AddedAt: now,
			Private: private,
		})
		return nil
	})
}

func (s Service) AddEvidence(ctx context.Context, caseID string, input EvidenceInput, uploadedBy string) (entities.Case, error) {
	uploadedBy = strings.TrimSpace(uploadedBy)
	input.URL = strings.TrimSpace(input.URL)
	if !input.Type.Valid() || input.URL == "" || uploadedBy == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	return s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if err := requireInReview(c); err != nil {
			return err
		}
		ensureReviewStarted(c, now)
		c.Evidence = append(c.Evidence, entities.Evidence{
			Type:        input.Type,
			URL:         input.URL,
			Filename:    strings.TrimSpace(input.Filename),
			Description: strings.TrimSpace(input.Description),
			UploadedBy:  uploadedBy,
			UploadedAt:  now,
		})
		return nil
	})
}

// RecordDecision closes the review cycle. A no_action decision dismisses
// the case; every other action resolves it. Terminal entry stamps the
// remaining timing metrics and derives the quality score.
func (s Service) RecordDecision(ctx context.Context, caseID string, input DecisionInput) (entities.Case, error) {
	input.DecisionMadeBy = strings.TrimSpace(input.DecisionMadeBy)
	input.Reason = strings.TrimSpace(input.Reason)
	if !input.Action.Valid() || input.DecisionMadeBy == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if err := requireInReview(c); err != nil {
			return err
		}
		ensureReviewStarted(c, now)

		target := entities.StatusResolved
		if input.Action == entities.DecisionNoAction {
			target = entities.StatusDismissed
		}
		if err := transition(c, target); err != nil {
			return err
		}

		c.Review.Decision = &entities.Decision{
			Action:         input.Action,
			Reason:         input.Reason,
			PublicReason:   strings.TrimSpace(input.PublicReason),
			DecisionMadeBy: input.DecisionMadeBy,
			DecisionMadeAt: now,
			Duration:       input.Duration,
			EditedContent:  input.EditedContent,
		}
		c.Review.ReviewCompletedAt = &now

		if c.Review.ReviewStartedAt != nil {
			elapsed := now.Sub(*c.Review.ReviewStartedAt)
			c.Metrics.ReviewToDecision = &elapsed
		}
		total := now.Sub(c.ReportedAt)
		c.Metrics.TotalResolutionTime = &total

		refreshQuality(c)
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if err := s.appendEvent(ctx, updated, EventDecisionRecorded, map[string]string{"action": string(input.Action)}); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// EscalateCase raises the case to a higher authority level. Escalation
// does not require prior assignment.
func (s Service) EscalateCase(ctx context.Context, caseID string, escalatedBy string, reason string, level entities.EscalationLevel) (entities.Case, error) {
	escalatedBy = strings.TrimSpace(escalatedBy)
	reason = strings.TrimSpace(reason)
	if escalatedBy == "" || reason == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	if level == "" {
		level = entities.EscalationAdmin
	}
	if !level.Valid() {
		return entities.Case{}, domainerrors.ErrValidation
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if err := transition(c, entities.StatusEscalated); err != nil {
			return err
		}
		c.Escalation = entities.Escalation{
			Escalated:   true,
			EscalatedAt: &now,
			EscalatedBy: escalatedBy,
			Reason:      reason,
			Level:       level,
		}
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if err := s.appendEvent(ctx, updated, EventCaseEscalated, map[string]string{"level": string(level), "reason": reason}); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// SubmitAppeal reopens a closed or escalated case for a fresh review
// cycle. A case carries at most one appeal for its lifetime.
func (s Service) SubmitAppeal(ctx context.Context, caseID string, reason string, evidence []string) (entities.Case, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if c.Appeal.Submitted {
			return domainerrors.ErrAppealAlreadySubmitted
		}
		switch c.Status {
		case entities.StatusResolved, entities.StatusDismissed, entities.StatusEscalated:
		default:
			return domainerrors.NewTransitionError(string(c.Status), string(entities.StatusInReview))
		}
		if err := transition(c, entities.StatusInReview); err != nil {
			return err
		}
		c.Appeal = entities.Appeal{
			Submitted:   true,
			SubmittedAt: &now,
			Reason:      reason,
			Evidence:    append([]string(nil), evidence...),
		}
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if err := s.appendEvent(ctx, updated, EventAppealSubmitted, nil); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// ReviewAppeal records the final appeal verdict, closes the case back to
// resolved, and recomputes the quality score with the appeal-outcome term.
func (s Service) ReviewAppeal(ctx context.Context, caseID string, reviewerID string, decision entities.AppealDecision, reason string) (entities.Case, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" || !decision.Valid() {
		return entities.Case{}, domainerrors.ErrValidation
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		if !c.Appeal.Submitted {
			return domainerrors.ErrAppealNotSubmitted
		}
		if c.Appeal.Reviewed {
			return domainerrors.ErrAppealAlreadyReviewed
		}
		if err := transition(c, entities.StatusResolved); err != nil {
			return err
		}
		c.Appeal.Reviewed = true
		c.Appeal.ReviewedBy = reviewerID
		c.Appeal.ReviewedAt = &now
		c.Appeal.Decision = decision
		c.Appeal.DecisionReason = strings.TrimSpace(reason)

		refreshQuality(c)
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if err := s.appendEvent(ctx, updated, EventAppealReviewed, map[string]string{"decision": string(decision)}); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// ProvideAutomationFeedback records whether the automated signal was
// judged correct. Closed cases get their quality score recomputed with
// the feedback term.
func (s Service) ProvideAutomationFeedback(ctx context.Context, caseID string, correct bool, feedback string, providedBy string) (entities.Case, error) {
	providedBy = strings.TrimSpace(providedBy)
	if providedBy == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}
	return s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		c.Feedback = entities.HumanFeedback{
			Correct:    &correct,
			Feedback:   strings.TrimSpace(feedback),
			ProvidedBy: providedBy,
			ProvidedAt: &now,
		}
		refreshQuality(c)
		return nil
	})
}

// LinkSimilarCase unions the two cases' similar-case sets. Each side is
// written on its own; no lock spans both aggregates.
func (s Service) LinkSimilarCase(ctx context.Context, caseID string, otherCaseID string) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	otherCaseID = strings.TrimSpace(otherCaseID)
	if caseID == "" || otherCaseID == "" || caseID == otherCaseID {
		return entities.Case{}, domainerrors.ErrValidation
	}
	if _, err := s.Cases.GetCase(ctx, otherCaseID); err != nil {
		return entities.Case{}, err
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		c.Related.LinkSimilar(otherCaseID)
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if _, err := s.mutate(ctx, otherCaseID, func(c *entities.Case, now time.Time) error {
		c.Related.LinkSimilar(caseID)
		return nil
	}); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// MarkAsPattern tags the case as part of a coordinated pattern and, for
// low/normal cases, force-raises priority to high through an audited
// system override.
func (s Service) MarkAsPattern(ctx context.Context, caseID string, patternType string, patternID string) (entities.Case, error) {
	patternType = strings.TrimSpace(patternType)
	patternID = strings.TrimSpace(patternID)
	if patternType == "" || patternID == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}

	updated, err := s.mutate(ctx, caseID, func(c *entities.Case, now time.Time) error {
		c.Related.PartOfPattern = true
		c.Related.PatternType = patternType
		c.Related.PatternID = patternID

		if c.Priority.Level == entities.PriorityLow || c.Priority.Level == entities.PriorityNormal {
			c.Priority.ManualOverride = entities.ManualOverride{
				Enabled: true,
				Level:   entities.PriorityHigh,
				Reason:  fmt.Sprintf("part of %s pattern", patternType),
				SetBy:   "system:pattern-detection",
				SetAt:   now,
			}
		}
		return nil
	})
	if err != nil {
		return entities.Case{}, err
	}
	if err := s.appendEvent(ctx, updated, EventPatternFlagged, map[string]string{"pattern_type": patternType, "pattern_id": patternID}); err != nil {
		return entities.Case{}, err
	}
	return updated, nil
}

// ListPending returns a community's open queue ordered by priority level
// (descending) then report time (oldest first).
func (s Service) ListPending(ctx context.Context, communityID string, assigneeID string) ([]entities.Case, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return nil, domainerrors.ErrValidation
	}
	items, err := s.Cases.ListPending(ctx, communityID, strings.TrimSpace(assigneeID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i].Priority.Level.Rank(), items[j].Priority.Level.Rank()
		if left != right {
			return left > right
		}
		return items[i].ReportedAt.Before(items[j].ReportedAt)
	})
	return items, nil
}

// mutate runs the read-apply-commit loop for one case. Version conflicts
// are the only retried failure class, bounded by ConflictRetries.
func (s Service) mutate(ctx context.Context, caseID string, apply func(*entities.Case, time.Time) error) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return entities.Case{}, domainerrors.ErrValidation
	}

	var lastErr error
	for attempt := 0; attempt <= s.conflictRetries(); attempt++ {
		current, err := s.Cases.GetCase(ctx, caseID)
		if err != nil {
			return entities.Case{}, err
		}
		expected := current.Version
		now := s.now()

		if err := apply(&current, now); err != nil {
			return entities.Case{}, err
		}
		RefreshPriority(&current, now)
		current.Complexity = scoring.AssessComplexity(current)
		current.UpdatedAt = now

		updated, err := s.Cases.UpdateCase(ctx, current, expected)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrentModification) {
			return entities.Case{}, err
		}
		lastErr = err
		ResolveLogger(s.Logger).Debug("case mutation retrying after version conflict",
			"event", "case_workflow_mutation_conflict",
			"module", "moderation-safety/case-workflow",
			"layer", "application",
			"case_id", caseID,
			"attempt", attempt+1,
		)
	}
	return entities.Case{}, lastErr
}

// RefreshPriority recomputes the numeric score on every commit; the level
// mapping is skipped while a manual override holds. The escalation sweep
// shares it so request-driven and background recomputes agree.
func RefreshPriority(c *entities.Case, now time.Time) {
	c.Priority.Score = scoring.PriorityScore(c.Reason.Severity, c.Automated, c.Age(now))
	if c.Priority.ManualOverride.Enabled {
		c.Priority.Level = c.Priority.ManualOverride.Level
		return
	}
	c.Priority.Level = scoring.LevelForScore(c.Priority.Score)
}

func refreshQuality(c *entities.Case) {
	if c.Metrics.TotalResolutionTime == nil {
		return
	}
	appealDecision := entities.AppealDecision("")
	if c.Appeal.Reviewed {
		appealDecision = c.Appeal.Decision
	}
	quality := scoring.QualityScore(*c.Metrics.TotalResolutionTime, appealDecision, c.Feedback.Correct)
	c.Metrics.QualityScore = &quality
}

func ensureReviewStarted(c *entities.Case, now time.Time) {
	if c.Review.ReviewStartedAt != nil {
		return
	}
	c.Review.ReviewStartedAt = &now
	if !c.Review.Assignment.AssignedAt.IsZero() {
		elapsed := now.Sub(c.Review.Assignment.AssignedAt)
		c.Metrics.AssignmentToReview = &elapsed
	}
}

func requireInReview(c *entities.Case) error {
	if c.Status != entities.StatusInReview {
		return domainerrors.NewTransitionError(string(c.Status), string(entities.StatusInReview))
	}
	return nil
}

func transition(c *entities.Case, to entities.Status) error {
	if !entities.CanTransition(c.Status, to) {
		return domainerrors.NewTransitionError(string(c.Status), string(to))
	}
	c.Status = to
	return nil
}

// NewCaseEventEnvelope wraps a case event in the canonical contracts
// envelope, carrying the case identifiers and detail pairs in Data.
func NewCaseEventEnvelope(eventID string, eventType string, occurredAt time.Time, c entities.Case, details map[string]string) (ports.EventEnvelope, error) {
	data, err := json.Marshal(ports.CaseEventData{
		CaseID:      c.CaseID,
		CommunityID: c.CommunityID,
		Details:     details,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt,
		SourceService:    "case-workflow",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "case_id",
		PartitionKey:     c.CaseID,
		Data:             data,
	}, nil
}

func (s Service) appendEvent(ctx context.Context, c entities.Case, eventType string, payload map[string]string) error {
	if s.Outbox == nil {
		return nil
	}
	envelope, err := NewCaseEventEnvelope(s.newID(), eventType, s.now(), c, payload)
	if err != nil {
		return err
	}
	if err := s.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return err
	}
	ResolveLogger(s.Logger).Debug("case event appended to outbox",
		"event", "case_workflow_event_appended",
		"module", "moderation-safety/case-workflow",
		"layer", "application",
		"case_id", c.CaseID,
		"event_type", eventType,
	)
	return nil
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) newID() string {
	if s.IDGenerator != nil {
		return s.IDGenerator.NewID()
	}
	return ""
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) conflictRetries() int {
	if s.ConflictRetries <= 0 {
		return 3
	}
	return s.ConflictRetries
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
