package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/adapters/memory"
	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
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

func newTestService(store *memory.Store, clock *stubClock) Service {
	return Service{
		Cases:       store,
		Idempotency: store,
		Outbox:      store,
		Clock:       clock,
		IDGenerator: store,
	}
}

func newCaseInput(severity entities.Severity) CreateCaseInput {
	return CreateCaseInput{
		TargetType:  entities.TargetTypePost,
		TargetID:    "post-1",
		CommunityID: "community-1",
		Reason: entities.Reason{
			Category:    entities.CategoryHarassment,
			Description: "targeted abuse in comments",
			Severity:    severity,
		},
		ReportedBy: "user-reporter",
	}
}

func mustCreate(t *testing.T, service Service, key string, input CreateCaseInput) entities.Case {
	t.Helper()
	created, err := service.CreateCase(context.Background(), key, input)
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	return created
}

func TestCreateCaseComputesPriority(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	input := newCaseInput(entities.SeverityHigh)
	input.Automated = &entities.AutomatedSignal{Detected: true, Confidence: 0.92}

	created := mustCreate(t, service, "idem-create-1", input)
	if created.Status != entities.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if created.Priority.Score != 9 {
		t.Fatalf("expected score 9 (high + confident signal), got %v", created.Priority.Score)
	}
	if created.Priority.Level != entities.PriorityCritical {
		t.Fatalf("expected critical level, got %s", created.Priority.Level)
	}
	if created.Complexity != entities.ComplexitySimple {
		t.Fatalf("expected simple complexity, got %s", created.Complexity)
	}
	if created.Version != 1 {
		t.Fatalf("expected version 1, got %d", created.Version)
	}
}

func TestCreateCaseIdempotency(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	first := mustCreate(t, service, "idem-replay", newCaseInput(entities.SeverityMedium))
	second := mustCreate(t, service, "idem-replay", newCaseInput(entities.SeverityMedium))
	if first.CaseID != second.CaseID {
		t.Fatalf("replay with same key must return the same case, got %s and %s", first.CaseID, second.CaseID)
	}

	conflicting := newCaseInput(entities.SeverityCritical)
	if _, err := service.CreateCase(context.Background(), "idem-replay", conflicting); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict for reused key with new payload, got %v", err)
	}

	if _, err := service.CreateCase(context.Background(), "", newCaseInput(entities.SeverityLow)); !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}

	invalid := newCaseInput(entities.SeverityLow)
	invalid.Reason.Description = "  "
	if _, err := service.CreateCase(context.Background(), "idem-invalid", invalid); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank description, got %v", err)
	}
}

func TestAssignCase(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-assign", newCaseInput(entities.SeverityMedium))

	clock.Advance(15 * time.Minute)
	assigned, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead-1", false)
	if err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	if assigned.Status != entities.StatusInReview {
		t.Fatalf("expected in_review after assignment, got %s", assigned.Status)
	}
	if assigned.Review.Assignment.Assignee != "mod-1" {
		t.Fatalf("expected assignee mod-1, got %q", assigned.Review.Assignment.Assignee)
	}
	if assigned.Metrics.ReportToAssignment == nil || *assigned.Metrics.ReportToAssignment != 15*time.Minute {
		t.Fatalf("expected report-to-assignment of 15m, got %v", assigned.Metrics.ReportToAssignment)
	}

	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-2", "lead-1", false); !errors.Is(err, domainerrors.ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}

	clock.Advance(5 * time.Minute)
	reassigned, err := service.AssignCase(context.Background(), created.CaseID, "mod-2", "lead-1", true)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if reassigned.Review.Assignment.Assignee != "mod-2" {
		t.Fatalf("expected assignee mod-2 after reassign, got %q", reassigned.Review.Assignment.Assignee)
	}
	if *reassigned.Metrics.ReportToAssignment != 15*time.Minute {
		t.Fatalf("report-to-assignment must keep the first assignment timing, got %v", *reassigned.Metrics.ReportToAssignment)
	}
}

func TestConcurrentAssignSingleWinner(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-race", newCaseInput(entities.SeverityMedium))

	const contenders = 8
	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			reviewer := string(rune('a' + slot))
			_, err := service.AssignCase(context.Background(), created.CaseID, "mod-"+reviewer, "lead", false)
			results[slot] = err
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domainerrors.ErrAlreadyAssigned):
		case errors.Is(err, domainerrors.ErrConcurrentModification):
		default:
			t.Fatalf("unexpected assignment error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning assignment, got %d", wins)
	}

	final, err := service.GetCase(context.Background(), created.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if !final.Review.Assignment.Active() {
		t.Fatal("expected an active assignee after the race")
	}
}

func TestRecordDecisionResolvesCase(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-decide", newCaseInput(entities.SeverityMedium))
	clock.Advance(10 * time.Minute)
	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	clock.Advance(20 * time.Minute)

	resolved, err := service.RecordDecision(context.Background(), created.CaseID, DecisionInput{
		Action:         entities.DecisionRemove,
		Reason:         "clear harassment",
		DecisionMadeBy: "mod-1",
	})
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if resolved.Status != entities.StatusResolved {
		t.Fatalf("expected resolved, got %s", resolved.Status)
	}
	if resolved.Metrics.TotalResolutionTime == nil || *resolved.Metrics.TotalResolutionTime != 30*time.Minute {
		t.Fatalf("expected total resolution of 30m, got %v", resolved.Metrics.TotalResolutionTime)
	}
	if resolved.Metrics.QualityScore == nil || *resolved.Metrics.QualityScore != 80 {
		t.Fatalf("expected quality 80 for sub-hour resolution, got %v", resolved.Metrics.QualityScore)
	}
	if *resolved.Metrics.ReportToAssignment > *resolved.Metrics.TotalResolutionTime {
		t.Fatal("assignment timing must not exceed total resolution time")
	}
}

func TestNoActionDecisionDismisses(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-dismiss", newCaseInput(entities.SeverityLow))
	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	dismissed, err := service.RecordDecision(context.Background(), created.CaseID, DecisionInput{
		Action:         entities.DecisionNoAction,
		DecisionMadeBy: "mod-1",
	})
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if dismissed.Status != entities.StatusDismissed {
		t.Fatalf("expected dismissed for no_action, got %s", dismissed.Status)
	}
}

func TestIllegalTransitionLeavesCaseUnchanged(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-illegal", newCaseInput(entities.SeverityMedium))

	_, err := service.RecordDecision(context.Background(), created.CaseID, DecisionInput{
		Action:         entities.DecisionRemove,
		DecisionMadeBy: "mod-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition deciding a pending case, got %v", err)
	}

	var transitionErr *domainerrors.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected a TransitionError, got %T", err)
	}
	if transitionErr.From != string(entities.StatusPending) {
		t.Fatalf("expected transition error from pending, got %q", transitionErr.From)
	}

	after, getErr := service.GetCase(context.Background(), created.CaseID)
	if getErr != nil {
		t.Fatalf("GetCase: %v", getErr)
	}
	if after.Version != created.Version || after.Status != entities.StatusPending {
		t.Fatalf("failed transition must not commit: version %d status %s", after.Version, after.Status)
	}
}

func TestEscalateDismissedCaseRejected(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-esc-reject", newCaseInput(entities.SeverityLow))
	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	if _, err := service.RecordDecision(context.Background(), created.CaseID, DecisionInput{
		Action:         entities.DecisionNoAction,
		DecisionMadeBy: "mod-1",
	}); err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}

	_, err := service.EscalateCase(context.Background(), created.CaseID, "mod-1", "second look", "")
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition escalating a dismissed case, got %v", err)
	}
}

func TestAssignClosedOrEscalatedCaseRejected(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	escalated := mustCreate(t, service, "idem-assign-escalated", newCaseInput(entities.SeverityHigh))
	if _, err := service.EscalateCase(context.Background(), escalated.CaseID, "mod-1", "needs admin eyes", ""); err != nil {
		t.Fatalf("EscalateCase: %v", err)
	}
	if _, err := service.AssignCase(context.Background(), escalated.CaseID, "mod-2", "lead", false); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition assigning an escalated case, got %v", err)
	}

	resolved := mustCreate(t, service, "idem-assign-resolved", newCaseInput(entities.SeverityMedium))
	if _, err := service.AssignCase(context.Background(), resolved.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	if _, err := service.RecordDecision(context.Background(), resolved.CaseID, DecisionInput{
		Action:         entities.DecisionRemove,
		DecisionMadeBy: "mod-1",
	}); err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if _, err := service.AssignCase(context.Background(), resolved.CaseID, "mod-2", "lead", true); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition reassigning a resolved case, got %v", err)
	}

	current, err := service.GetCase(context.Background(), resolved.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if current.Status != entities.StatusResolved || current.Appeal.Submitted {
		t.Fatalf("case must stay closed until an appeal reopens it, status=%s appeal=%v", current.Status, current.Appeal.Submitted)
	}
}

func TestAppealLifecycle(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-appeal", newCaseInput(entities.SeverityMedium))

	if _, err := service.SubmitAppeal(context.Background(), created.CaseID, "wrong call", nil); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition appealing an open case, got %v", err)
	}
	if _, err := service.ReviewAppeal(context.Background(), created.CaseID, "admin-1", entities.AppealUpheld, ""); !errors.Is(err, domainerrors.ErrAppealNotSubmitted) {
		t.Fatalf("expected ErrAppealNotSubmitted, got %v", err)
	}

	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	clock.Advance(30 * time.Minute)
	if _, err := service.RecordDecision(context.Background(), created.CaseID, DecisionInput{
		Action:         entities.DecisionRemove,
		DecisionMadeBy: "mod-1",
	}); err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}

	appealed, err := service.SubmitAppeal(context.Background(), created.CaseID, "context was missing", []string{"https://example.com/thread"})
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}
	if appealed.Status != entities.StatusInReview {
		t.Fatalf("appeal must reopen the case, got %s", appealed.Status)
	}
	if !appealed.Appeal.Submitted {
		t.Fatal("expected appeal to be recorded")
	}

	if _, err := service.SubmitAppeal(context.Background(), created.CaseID, "again", nil); !errors.Is(err, domainerrors.ErrAppealAlreadySubmitted) {
		t.Fatalf("expected ErrAppealAlreadySubmitted, got %v", err)
	}

	verdict, err := service.ReviewAppeal(context.Background(), created.CaseID, "admin-1", entities.AppealOverturned, "insufficient evidence")
	if err != nil {
		t.Fatalf("ReviewAppeal: %v", err)
	}
	if verdict.Status != entities.StatusResolved {
		t.Fatalf("expected resolved after the appeal verdict, got %s", verdict.Status)
	}
	if verdict.Metrics.QualityScore == nil || *verdict.Metrics.QualityScore != 50 {
		t.Fatalf("expected quality 50 after overturn (80-30), got %v", verdict.Metrics.QualityScore)
	}

	if _, err := service.ReviewAppeal(context.Background(), created.CaseID, "admin-2", entities.AppealUpheld, ""); !errors.Is(err, domainerrors.ErrAppealAlreadyReviewed) {
		t.Fatalf("expected ErrAppealAlreadyReviewed, got %v", err)
	}
}

func TestProvideAutomationFeedback(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	input := newCaseInput(entities.SeverityMedium)
	input.Automated = &entities.AutomatedSignal{Detected: true, Confidence: 0.7}
	created := mustCreate(t, service, "idem-feedback", input)

	open, err := service.ProvideAutomationFeedback(context.Background(), created.CaseID, false, "false positive", "mod-1")
	if err != nil {
		t.Fatalf("ProvideAutomationFeedback: %v", err)
	}
	if open.Metrics.QualityScore != nil {
		t.Fatal("open case must not carry a quality score")
	}

	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	clock.Advance(30 * time.Minute)
	closed, err := service.RecordDecision(context.Background(), created.CaseID, DecisionInput{
		Action:         entities.DecisionNoAction,
		DecisionMadeBy: "mod-1",
	})
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if closed.Metrics.QualityScore == nil || *closed.Metrics.QualityScore != 60 {
		t.Fatalf("expected quality 60 (80-20 incorrect feedback), got %v", closed.Metrics.QualityScore)
	}
}

func TestMarkAsPatternOverridesLowPriority(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	low := mustCreate(t, service, "idem-pattern-low", newCaseInput(entities.SeverityLow))
	flagged, err := service.MarkAsPattern(context.Background(), low.CaseID, "spam_wave", "pattern-77")
	if err != nil {
		t.Fatalf("MarkAsPattern: %v", err)
	}
	if !flagged.Related.PartOfPattern || flagged.Related.PatternID != "pattern-77" {
		t.Fatalf("pattern fields not set: %+v", flagged.Related)
	}
	if flagged.Priority.Level != entities.PriorityHigh {
		t.Fatalf("expected high priority under pattern override, got %s", flagged.Priority.Level)
	}
	if !flagged.Priority.ManualOverride.Enabled || flagged.Priority.ManualOverride.SetBy != "system:pattern-detection" {
		t.Fatalf("expected a system override, got %+v", flagged.Priority.ManualOverride)
	}
	if flagged.Complexity != entities.ComplexityModerate {
		t.Fatalf("pattern membership should bump complexity, got %s", flagged.Complexity)
	}

	critical := mustCreate(t, service, "idem-pattern-critical", newCaseInput(entities.SeverityCritical))
	unflagged, err := service.MarkAsPattern(context.Background(), critical.CaseID, "spam_wave", "pattern-77")
	if err != nil {
		t.Fatalf("MarkAsPattern: %v", err)
	}
	if unflagged.Priority.ManualOverride.Enabled {
		t.Fatal("critical cases must keep their computed priority")
	}
}

func TestLinkSimilarCaseIsSymmetricAndIdempotent(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	first := mustCreate(t, service, "idem-link-a", newCaseInput(entities.SeverityLow))
	second := mustCreate(t, service, "idem-link-b", newCaseInput(entities.SeverityLow))

	if _, err := service.LinkSimilarCase(context.Background(), first.CaseID, second.CaseID); err != nil {
		t.Fatalf("LinkSimilarCase: %v", err)
	}
	if _, err := service.LinkSimilarCase(context.Background(), first.CaseID, second.CaseID); err != nil {
		t.Fatalf("repeat link: %v", err)
	}

	left, _ := service.GetCase(context.Background(), first.CaseID)
	right, _ := service.GetCase(context.Background(), second.CaseID)
	if len(left.Related.SimilarCases) != 1 || left.Related.SimilarCases[0] != second.CaseID {
		t.Fatalf("forward link wrong: %v", left.Related.SimilarCases)
	}
	if len(right.Related.SimilarCases) != 1 || right.Related.SimilarCases[0] != first.CaseID {
		t.Fatalf("reverse link wrong: %v", right.Related.SimilarCases)
	}

	if _, err := service.LinkSimilarCase(context.Background(), first.CaseID, "missing-case"); !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound linking to a missing case, got %v", err)
	}
	if _, err := service.LinkSimilarCase(context.Background(), first.CaseID, first.CaseID); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for self link, got %v", err)
	}
}

func TestReleaseCase(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	created := mustCreate(t, service, "idem-release", newCaseInput(entities.SeverityMedium))
	if _, err := service.ReleaseCase(context.Background(), created.CaseID); !errors.Is(err, domainerrors.ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}

	if _, err := service.AssignCase(context.Background(), created.CaseID, "mod-1", "lead", false); err != nil {
		t.Fatalf("AssignCase: %v", err)
	}
	released, err := service.ReleaseCase(context.Background(), created.CaseID)
	if err != nil {
		t.Fatalf("ReleaseCase: %v", err)
	}
	if released.Review.Assignment.Active() {
		t.Fatal("expected assignment to be cleared")
	}
	if released.Status != entities.StatusInReview {
		t.Fatalf("release must not change status, got %s", released.Status)
	}
}

func TestListPendingOrdering(t *testing.T) {
	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	service := newTestService(store, clock)

	oldLow := mustCreate(t, service, "idem-q1", newCaseInput(entities.SeverityLow))
	clock.Advance(time.Hour)
	olderCritical := mustCreate(t, service, "idem-q2", newCaseInput(entities.SeverityCritical))
	clock.Advance(time.Hour)
	newerCritical := mustCreate(t, service, "idem-q3", newCaseInput(entities.SeverityCritical))
	clock.Advance(time.Hour)
	medium := mustCreate(t, service, "idem-q4", newCaseInput(entities.SeverityMedium))

	queue, err := service.ListPending(context.Background(), "community-1", "")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	got := make([]string, 0, len(queue))
	for _, item := range queue {
		got = append(got, item.CaseID)
	}
	want := []string{olderCritical.CaseID, newerCritical.CaseID, medium.CaseID, oldLow.CaseID}
	if len(got) != len(want) {
		t.Fatalf("expected %d queue items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue order wrong at %d: got %v want %v", i, got, want)
		}
	}

	mine, err := service.ListPending(context.Background(), "community-1", "mod-9")
	if err != nil {
		t.Fatalf("ListPending filtered: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("expected no cases for an unknown assignee, got %d", len(mine))
	}
}
