package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

func newStoredCase(t *testing.T, store *Store, communityID string, reportedAt time.Time) entities.Case {
	t.Helper()
	created, err := store.CreateCase(context.Background(), entities.Case{
		TargetType:  entities.TargetTypePost,
		TargetID:    "post-1",
		CommunityID: communityID,
		Status:      entities.StatusPending,
		Reason: entities.Reason{
			Category:    entities.CategorySpam,
			Description: "spam links",
			Severity:    entities.SeverityLow,
		},
		ReportedBy: "user-1",
		ReportedAt: reportedAt,
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	return created
}

func TestUpdateCaseVersionCheck(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	created := newStoredCase(t, store, "community-1", base)
	if created.Version != 1 {
		t.Fatalf("expected version 1 on create, got %d", created.Version)
	}

	created.Status = entities.StatusInReview
	updated, err := store.UpdateCase(context.Background(), created, 1)
	if err != nil {
		t.Fatalf("UpdateCase: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2 after update, got %d", updated.Version)
	}

	if _, err := store.UpdateCase(context.Background(), created, 1); !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("stale version must conflict, got %v", err)
	}

	missing := created
	missing.CaseID = "missing"
	if _, err := store.UpdateCase(context.Background(), missing, 1); !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestGetCaseReturnsIsolatedCopy(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	created := newStoredCase(t, store, "community-1", base)

	first, err := store.GetCase(context.Background(), created.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	first.Related.SimilarCases = append(first.Related.SimilarCases, "case-x")
	first.Review.Notes = append(first.Review.Notes, entities.ReviewerNote{Note: "tampered"})

	second, err := store.GetCase(context.Background(), created.CaseID)
	if err != nil {
		t.Fatalf("GetCase: %v", err)
	}
	if len(second.Related.SimilarCases) != 0 || len(second.Review.Notes) != 0 {
		t.Fatal("mutating a returned case must not leak into the store")
	}
}

func TestListOpenCasesOrderAndLimit(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	newest := newStoredCase(t, store, "community-1", base.Add(2*time.Hour))
	oldest := newStoredCase(t, store, "community-2", base)
	middle := newStoredCase(t, store, "community-1", base.Add(time.Hour))

	closed := newStoredCase(t, store, "community-1", base.Add(3*time.Hour))
	closed.Status = entities.StatusResolved
	if _, err := store.UpdateCase(context.Background(), closed, 1); err != nil {
		t.Fatalf("UpdateCase: %v", err)
	}

	open, err := store.ListOpenCases(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListOpenCases: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("expected 3 open cases, got %d", len(open))
	}
	if open[0].CaseID != oldest.CaseID || open[1].CaseID != middle.CaseID || open[2].CaseID != newest.CaseID {
		t.Fatalf("expected oldest-first ordering, got %s %s %s", open[0].CaseID, open[1].CaseID, open[2].CaseID)
	}

	limited, err := store.ListOpenCases(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListOpenCases limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestIdempotencyExpiry(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	record := ports.IdempotencyRecord{
		Key:         "key-1",
		RequestHash: "hash-1",
		Payload:     []byte(`{"ok":true}`),
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := store.Put(context.Background(), record); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, found, _ := store.Get(context.Background(), "key-1", now); !found {
		t.Fatal("expected record before expiry")
	}
	if _, found, _ := store.Get(context.Background(), "key-1", now.Add(2*time.Hour)); found {
		t.Fatal("expected record to expire")
	}

	if err := store.Put(context.Background(), record); err != nil {
		t.Fatalf("Put after expiry: %v", err)
	}
	conflicting := record
	conflicting.RequestHash = "hash-2"
	if err := store.Put(context.Background(), conflicting); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"evt-1", "evt-2"} {
		err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:      id,
			EventType:    "moderation.case.created",
			PartitionKey: "case-1",
			OccurredAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendOutbox: %v", err)
		}
	}
	// Duplicate event ids are absorbed.
	if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{EventID: "evt-1", EventType: "moderation.case.created", OccurredAt: base}); err != nil {
		t.Fatalf("duplicate AppendOutbox: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}
	if pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected creation order, got %s first", pending[0].OutboxID)
	}

	if err := store.MarkOutboxPublished(context.Background(), "evt-1", base.Add(time.Hour)); err != nil {
		t.Fatalf("MarkOutboxPublished: %v", err)
	}
	remaining, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(remaining) != 1 || remaining[0].OutboxID != "evt-2" {
		t.Fatalf("expected only evt-2 pending, got %+v", remaining)
	}
}

func TestReserveEvent(t *testing.T) {
	store := NewStore()
	expiry := time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC)

	seen, err := store.ReserveEvent(context.Background(), "evt-1", "hash-a", expiry)
	if err != nil || seen {
		t.Fatalf("first reservation must be fresh, seen=%v err=%v", seen, err)
	}
	seen, err = store.ReserveEvent(context.Background(), "evt-1", "hash-a", expiry)
	if err != nil || !seen {
		t.Fatalf("replay must report seen, seen=%v err=%v", seen, err)
	}
	if _, err := store.ReserveEvent(context.Background(), "evt-1", "hash-b", expiry); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("same id with new payload must conflict, got %v", err)
	}
}
