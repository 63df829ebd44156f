package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "caseflow/contexts/moderation-safety/case-workflow/application"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

// NotificationConsumer turns published case events into reviewer/reporter
// notifications. Delivery is delegated to the product's dispatcher; this
// worker only decides who hears about what. Anonymous reporters are never
// exposed downstream.
type NotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Cases         ports.CaseRepository
	Dedup         ports.EventDedupStore
	Dispatcher    ports.NotificationDispatcher
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c NotificationConsumer) Start(ctx context.Context) error {
	topics := []string{
		application.EventDecisionRecorded,
		application.EventCaseEscalated,
		application.EventAppealReviewed,
	}
	for _, topic := range topics {
		if err := c.Subscriber.Subscribe(ctx, topic, c.consumerGroup(), c.handle); err != nil {
			return err
		}
	}
	return nil
}

func (c NotificationConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	if c.Dedup != nil && event.EventID != "" {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(payload)
		seen, err := c.Dedup.ReserveEvent(ctx, event.EventID, hex.EncodeToString(sum[:]), c.now().Add(c.dedupTTL()))
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	var data ports.CaseEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	current, err := c.Cases.GetCase(ctx, data.CaseID)
	if err != nil {
		return err
	}

	for _, notification := range buildNotifications(event.EventType, current.ReportedBy, current.Anonymous, current.Review.Assignment.Assignee, data) {
		if err := c.Dispatcher.Notify(ctx, notification); err != nil {
			logger.Error("case notification dispatch failed",
				"event", "case_workflow_notification_failed",
				"module", "moderation-safety/case-workflow",
				"layer", "worker",
				"case_id", data.CaseID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
	}
	return nil
}

func buildNotifications(eventType string, reporter string, anonymous bool, assignee string, data ports.CaseEventData) []ports.Notification {
	var out []ports.Notification
	add := func(recipient, kind, subject string) {
		if recipient == "" {
			return
		}
		out = append(out, ports.Notification{
			Kind:        kind,
			CaseID:      data.CaseID,
			CommunityID: data.CommunityID,
			Recipient:   recipient,
			Subject:     subject,
			Message:     fmt.Sprintf("case %s: %s", data.CaseID, eventType),
		})
	}

	switch eventType {
	case application.EventDecisionRecorded:
		if !anonymous {
			add(reporter, "reporter_update", "your report has been reviewed")
		}
	case application.EventCaseEscalated:
		add(assignee, "reviewer_update", "case was escalated")
	case application.EventAppealReviewed:
		if !anonymous {
			add(reporter, "reporter_update", "appeal verdict recorded")
		}
		add(assignee, "reviewer_update", "appeal verdict recorded")
	}
	return out
}

func (c NotificationConsumer) consumerGroup() string {
	if c.ConsumerGroup == "" {
		return "case-workflow-notifications-cg"
	}
	return c.ConsumerGroup
}

func (c NotificationConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func (c NotificationConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
