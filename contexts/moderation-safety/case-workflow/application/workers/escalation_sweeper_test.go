package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/adapters/memory"
	"caseflow/contexts/moderation-safety/case-workflow/application"
	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seedCase(t *testing.T, store *memory.Store, clock *stubClock, severity entities.Severity, communityID string) entities.Case {
	t.Helper()
	service := application.Service{
		Cases:       store,
		Idempotency: store,
		Outbox:      store,
		Clock:       clock,
		IDGenerator: store,
	}
	created, err := service.CreateCase(context.Background(), "seed-"+communityID+"-"+string(severity), application.CreateCaseInput{
		TargetType:  entities.TargetTypePost,
		TargetID:    "post-1",
		CommunityID: communityID,
		Reason: entities.Reason{
			Category:    entities.CategoryHateSpeech,
			Description: "reported content",
			Severity:    severity,
		},
		ReportedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return created
}

func TestSweepEscalatesOnSLABreach(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}

	created := seedCase(t, store, clock, entities.SeverityCritical, "community-1")
	clock.Advance(73 * time.Hour)

	sweeper := EscalationSweeper{Cases: store, Policy: store, Outbox: store, Clock: clock, IDGenerator: store}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	swept, err := store.GetCase(context.Background(), created.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if swept.Status != entities.StatusEscalated {
		t.Fatalf("expected escalated after SLA breach, got %s", swept.Status)
	}
	if swept.Escalation.Reason != "SLA breach" || swept.Escalation.Level != entities.EscalationAdmin {
		t.Fatalf("unexpected escalation record: %+v", swept.Escalation)
	}
	if swept.Escalation.EscalatedBy != "system:escalation-sweep" {
		t.Fatalf("expected system actor, got %q", swept.Escalation.EscalatedBy)
	}
	if swept.Complexity != entities.ComplexityModerate {
		t.Fatalf("escalation must recompute complexity, got %s", swept.Complexity)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox: %v", err)
	}
	found := false
	for _, row := range pending {
		if row.EventType == application.EventCaseEscalated {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an escalation event in the outbox")
	}
}

func TestSweepDoesNotEscalateFreshHighScore(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}

	created := seedCase(t, store, clock, entities.SeverityCritical, "community-1")
	clock.Advance(2 * time.Hour)

	sweeper := EscalationSweeper{Cases: store, Policy: store, Clock: clock}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	swept, _ := store.GetCase(context.Background(), created.CaseID)
	if swept.Status != entities.StatusPending {
		t.Fatalf("score alone must not escalate, got %s", swept.Status)
	}
}

func TestSweepRefreshesAgedPriority(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}

	created := seedCase(t, store, clock, entities.SeverityMedium, "community-1")
	if created.Priority.Score != 3 || created.Priority.Level != entities.PriorityNormal {
		t.Fatalf("unexpected seed priority: %+v", created.Priority)
	}
	clock.Advance(25 * time.Hour)

	sweeper := EscalationSweeper{Cases: store, Policy: store, Clock: clock}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	swept, _ := store.GetCase(context.Background(), created.CaseID)
	if swept.Priority.Score != 5 {
		t.Fatalf("expected age boost to 5, got %v", swept.Priority.Score)
	}
	if swept.Priority.Level != entities.PriorityHigh {
		t.Fatalf("expected high level after boost, got %s", swept.Priority.Level)
	}
	if swept.Status != entities.StatusPending {
		t.Fatalf("refresh must not change status, got %s", swept.Status)
	}
	if swept.Version != created.Version+1 {
		t.Fatalf("expected one committed sweep write, got version %d", swept.Version)
	}

	// A second pass with unchanged inputs writes nothing.
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	again, _ := store.GetCase(context.Background(), created.CaseID)
	if again.Version != swept.Version {
		t.Fatalf("idle sweep must not commit, version went %d -> %d", swept.Version, again.Version)
	}
}

func TestSweepEscalatesOnStrikeLimit(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}

	created := seedCase(t, store, clock, entities.SeverityLow, "community-strikes")
	store.SetPolicy(ports.ModerationPolicy{CommunityID: "community-strikes", Strikes: 3, MaxStrikes: 3})

	sweeper := EscalationSweeper{Cases: store, Policy: store, Clock: clock}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	swept, _ := store.GetCase(context.Background(), created.CaseID)
	if swept.Status != entities.StatusEscalated {
		t.Fatalf("expected escalation at the strike limit, got %s", swept.Status)
	}
	if swept.Escalation.Level != entities.EscalationOwner {
		t.Fatalf("strike escalation goes to the owner, got %s", swept.Escalation.Level)
	}
	if swept.Escalation.Reason != "community strike limit reached" {
		t.Fatalf("unexpected reason %q", swept.Escalation.Reason)
	}
}

type flakyRepo struct {
	*memory.Store
	mu        sync.Mutex
	conflicts map[string]int
}

func (f *flakyRepo) UpdateCase(ctx context.Context, c entities.Case, expectedVersion int64) (entities.Case, error) {
	f.mu.Lock()
	remaining := f.conflicts[c.CaseID]
	if remaining > 0 {
		f.conflicts[c.CaseID] = remaining - 1
		f.mu.Unlock()
		return entities.Case{}, domainerrors.ErrConcurrentModification
	}
	f.mu.Unlock()
	return f.Store.UpdateCase(ctx, c, expectedVersion)
}

func TestSweepRetriesConflictOnceThenSkips(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}

	retryable := seedCase(t, store, clock, entities.SeverityCritical, "community-1")
	stuck := seedCase(t, store, clock, entities.SeverityHigh, "community-2")
	clock.Advance(73 * time.Hour)

	repo := &flakyRepo{Store: store, conflicts: map[string]int{
		retryable.CaseID: 1,
		stuck.CaseID:     5,
	}}
	sweeper := EscalationSweeper{Cases: repo, Policy: store, Clock: clock}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce must isolate per-case failures: %v", err)
	}

	recovered, _ := store.GetCase(context.Background(), retryable.CaseID)
	if recovered.Status != entities.StatusEscalated {
		t.Fatalf("one conflict should be retried and succeed, got %s", recovered.Status)
	}

	skipped, _ := store.GetCase(context.Background(), stuck.CaseID)
	if skipped.Version != stuck.Version {
		t.Fatalf("persistent conflicts must be skipped until the next tick, version %d", skipped.Version)
	}
}

func TestSweepSkipsEscalatedAndClosedCases(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}

	service := application.Service{Cases: store, Idempotency: store, Outbox: store, Clock: clock, IDGenerator: store}
	created := seedCase(t, store, clock, entities.SeverityCritical, "community-1")
	if _, err := service.EscalateCase(context.Background(), created.CaseID, "mod-1", "needs senior review", entities.EscalationPlatform); err != nil {
		t.Fatalf("EscalateCase: %v", err)
	}
	clock.Advance(100 * time.Hour)

	sweeper := EscalationSweeper{Cases: store, Policy: store, Clock: clock}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	after, _ := store.GetCase(context.Background(), created.CaseID)
	if after.Escalation.Level != entities.EscalationPlatform || after.Escalation.EscalatedBy != "mod-1" {
		t.Fatalf("sweep must not rewrite an existing escalation: %+v", after.Escalation)
	}
}
