package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "caseflow/contexts/moderation-safety/case-workflow/application"
	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/domain/scoring"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

// EscalationSweeper re-evaluates open cases on the worker tick: age-based
// priority boosts, SLA-breach auto-escalation, and community strike-limit
// escalation. Each case is handled in isolation; one failure never aborts
// the sweep, and a version conflict is retried once then skipped.
type EscalationSweeper struct {
	Cases       ports.CaseRepository
	Policy      ports.CommunityPolicyClient
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	BatchSize   int
	Logger      *slog.Logger
}

func (e EscalationSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	limit := e.BatchSize
	if limit <= 0 {
		limit = 200
	}

	open, err := e.Cases.ListOpenCases(ctx, limit)
	if err != nil {
		logger.Error("escalation sweep listing failed",
			"event", "case_workflow_sweep_list_failed",
			"module", "moderation-safety/case-workflow",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	escalated, refreshed, skipped := 0, 0, 0
	for _, candidate := range open {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := e.sweepOne(ctx, candidate.CaseID)
		if err != nil {
			skipped++
			logger.Warn("escalation sweep item skipped",
				"event", "case_workflow_sweep_item_skipped",
				"module", "moderation-safety/case-workflow",
				"layer", "worker",
				"case_id", candidate.CaseID,
				"error", err.Error(),
			)
			continue
		}
		switch outcome {
		case sweepEscalated:
			escalated++
		case sweepRefreshed:
			refreshed++
		}
	}

	if escalated > 0 || refreshed > 0 || skipped > 0 {
		logger.Info("escalation sweep completed",
			"event", "case_workflow_sweep_completed",
			"module", "moderation-safety/case-workflow",
			"layer", "worker",
			"scanned", len(open),
			"refreshed", refreshed,
			"escalated", escalated,
			"skipped", skipped,
		)
	}
	return nil
}

type sweepOutcome int

const (
	sweepUnchanged sweepOutcome = iota
	sweepRefreshed
	sweepEscalated
)

// sweepOne applies one read-evaluate-commit pass. A single retry handles
// the case being touched concurrently by a reviewer; escalation is not
// safety-critical to the millisecond, so persistent conflicts are skipped
// until the next tick.
func (e EscalationSweeper) sweepOne(ctx context.Context, caseID string) (sweepOutcome, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		current, err := e.Cases.GetCase(ctx, caseID)
		if err != nil {
			return sweepUnchanged, err
		}
		if !current.Open() {
			return sweepUnchanged, nil
		}

		now := e.now()
		expected := current.Version
		previousScore := current.Priority.Score
		previousLevel := current.Priority.Level

		application.RefreshPriority(&current, now)

		outcome := sweepUnchanged
		if reason, level, ok := e.escalationDue(ctx, current, now); ok {
			current.Status = entities.StatusEscalated
			current.Escalation = entities.Escalation{
				Escalated:   true,
				EscalatedAt: &now,
				EscalatedBy: "system:escalation-sweep",
				Reason:      reason,
				Level:       level,
			}
			outcome = sweepEscalated
		} else if current.Priority.Score == previousScore && current.Priority.Level == previousLevel {
			return sweepUnchanged, nil
		} else {
			outcome = sweepRefreshed
		}
		current.Complexity = scoring.AssessComplexity(current)
		current.UpdatedAt = now

		updated, err := e.Cases.UpdateCase(ctx, current, expected)
		if err == nil {
			if outcome == sweepEscalated {
				e.appendEscalationEvent(ctx, updated)
			}
			return outcome, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrentModification) {
			return sweepUnchanged, err
		}
		lastErr = err
	}
	return sweepUnchanged, lastErr
}

func (e EscalationSweeper) escalationDue(ctx context.Context, c entities.Case, now time.Time) (string, entities.EscalationLevel, bool) {
	if c.Escalation.Escalated || !entities.CanTransition(c.Status, entities.StatusEscalated) {
		return "", "", false
	}

	if c.Priority.Score >= scoring.EscalationScoreThreshold && c.Age(now) > scoring.AgeBreachThreshold {
		return "SLA breach", entities.EscalationAdmin, true
	}

	if e.Policy != nil {
		policy, err := e.Policy.ModerationPolicy(ctx, c.CommunityID)
		if err != nil {
			application.ResolveLogger(e.Logger).Warn("community policy lookup failed",
				"event", "case_workflow_sweep_policy_failed",
				"module", "moderation-safety/case-workflow",
				"layer", "worker",
				"case_id", c.CaseID,
				"community_id", c.CommunityID,
				"error", err.Error(),
			)
			return "", "", false
		}
		if policy.MaxStrikes > 0 && policy.Strikes >= policy.MaxStrikes {
			return "community strike limit reached", entities.EscalationOwner, true
		}
	}
	return "", "", false
}

func (e EscalationSweeper) appendEscalationEvent(ctx context.Context, c entities.Case) {
	if e.Outbox == nil {
		return
	}
	eventID := ""
	if e.IDGenerator != nil {
		eventID = e.IDGenerator.NewID()
	}
	envelope, err := application.NewCaseEventEnvelope(eventID, application.EventCaseEscalated, e.now(), c, map[string]string{
		"level":  string(c.Escalation.Level),
		"reason": c.Escalation.Reason,
	})
	if err == nil {
		err = e.Outbox.AppendOutbox(ctx, envelope)
	}
	if err != nil {
		application.ResolveLogger(e.Logger).Warn("escalation event append failed",
			"event", "case_workflow_sweep_event_append_failed",
			"module", "moderation-safety/case-workflow",
			"layer", "worker",
			"case_id", c.CaseID,
			"error", err.Error(),
		)
	}
}

func (e EscalationSweeper) now() time.Time {
	if e.Clock != nil {
		return e.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
