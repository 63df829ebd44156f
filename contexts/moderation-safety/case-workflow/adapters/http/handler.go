package httpadapter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/application"
	"caseflow/contexts/moderation-safety/case-workflow/application/queries"
	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	httptransport "caseflow/contexts/moderation-safety/case-workflow/transport/http"
)

type Handler struct {
	Service application.Service
	Stats   queries.StatsUseCase
	Logger  *slog.Logger
}

func (h Handler) CreateCaseHandler(ctx context.Context, idempotencyKey string, req httptransport.CreateCaseRequest) (httptransport.CaseResponse, error) {
	input := application.CreateCaseInput{
		TargetType:  entities.TargetType(strings.TrimSpace(req.TargetType)),
		TargetID:    strings.TrimSpace(req.TargetID),
		CommunityID: strings.TrimSpace(req.CommunityID),
		Reason: entities.Reason{
			Category:    entities.ReasonCategory(strings.TrimSpace(req.Reason.Category)),
			Subcategory: strings.TrimSpace(req.Reason.Subcategory),
			Description: strings.TrimSpace(req.Reason.Description),
			Severity:    entities.Severity(strings.TrimSpace(req.Reason.Severity)),
		},
		ReportedBy: strings.TrimSpace(req.ReportedBy),
		Anonymous:  req.Anonymous,
	}
	if req.Automated != nil {
		input.Automated = &entities.AutomatedSignal{
			Detected:     req.Automated.Detected,
			Confidence:   req.Automated.Confidence,
			Model:        strings.TrimSpace(req.Automated.Model),
			ModelVersion: strings.TrimSpace(req.Automated.ModelVersion),
			Flags:        append([]string(nil), req.Automated.Flags...),
			Toxicity:     req.Automated.Toxicity,
			Spam:         req.Automated.Spam,
			Profanity:    req.Automated.Profanity,
			Sentiment:    req.Automated.Sentiment,
		}
	}
	for _, field := range req.CustomFields {
		input.CustomFields = append(input.CustomFields, entities.CustomField{
			Key:   strings.TrimSpace(field.Key),
			Type:  entities.CustomFieldType(strings.TrimSpace(field.Type)),
			Value: field.Value,
		})
	}

	created, err := h.Service.CreateCase(ctx, idempotencyKey, input)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(created), nil
}

func (h Handler) GetCaseHandler(ctx context.Context, caseID string) (httptransport.CaseResponse, error) {
	current, err := h.Service.GetCase(ctx, caseID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(current), nil
}

func (h Handler) AssignHandler(ctx context.Context, caseID string, req httptransport.AssignRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.AssignCase(ctx, caseID, req.ReviewerID, req.AssignedBy, req.Reassign)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) ReleaseHandler(ctx context.Context, caseID string) (httptransport.CaseResponse, error) {
	updated, err := h.Service.ReleaseCase(ctx, caseID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) StartReviewHandler(ctx context.Context, caseID string) (httptransport.CaseResponse, error) {
	updated, err := h.Service.StartReview(ctx, caseID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) AddNoteHandler(ctx context.Context, caseID string, req httptransport.NoteRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.AddReviewerNote(ctx, caseID, req.Note, req.AddedBy, req.Private)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) AddEvidenceHandler(ctx context.Context, caseID string, req httptransport.EvidenceRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.AddEvidence(ctx, caseID, application.EvidenceInput{
		Type:        entities.EvidenceType(strings.TrimSpace(req.Type)),
		URL:         strings.TrimSpace(req.URL),
		Filename:    strings.TrimSpace(req.Filename),
		Description: strings.TrimSpace(req.Description),
	}, req.UploadedBy)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) DecisionHandler(ctx context.Context, caseID string, req httptransport.DecisionRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.RecordDecision(ctx, caseID, application.DecisionInput{
		Action:         entities.DecisionAction(strings.TrimSpace(req.Action)),
		Reason:         strings.TrimSpace(req.Reason),
		PublicReason:   strings.TrimSpace(req.PublicReason),
		DecisionMadeBy: strings.TrimSpace(req.DecisionMadeBy),
		Duration:       time.Duration(req.DurationSeconds) * time.Second,
		EditedContent:  req.EditedContent,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) EscalateHandler(ctx context.Context, caseID string, req httptransport.EscalateRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.EscalateCase(ctx, caseID, req.EscalatedBy, req.Reason, entities.EscalationLevel(strings.TrimSpace(req.Level)))
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) AppealHandler(ctx context.Context, caseID string, req httptransport.AppealRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.SubmitAppeal(ctx, caseID, req.Reason, req.Evidence)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) AppealReviewHandler(ctx context.Context, caseID string, req httptransport.AppealReviewRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.ReviewAppeal(ctx, caseID, req.ReviewerID, entities.AppealDecision(strings.TrimSpace(req.Decision)), req.Reason)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) LinkHandler(ctx context.Context, caseID string, req httptransport.LinkRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.LinkSimilarCase(ctx, caseID, req.SimilarCaseID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) PatternHandler(ctx context.Context, caseID string, req httptransport.PatternRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.MarkAsPattern(ctx, caseID, req.PatternType, req.PatternID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) FeedbackHandler(ctx context.Context, caseID string, req httptransport.FeedbackRequest) (httptransport.CaseResponse, error) {
	updated, err := h.Service.ProvideAutomationFeedback(ctx, caseID, req.Correct, req.Feedback, req.ProvidedBy)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCaseResponse(updated), nil
}

func (h Handler) QueueHandler(ctx context.Context, communityID string, assigneeRaw string) (httptransport.QueueResponse, error) {
	items, err := h.Service.ListPending(ctx, communityID, strings.TrimSpace(assigneeRaw))
	if err != nil {
		return httptransport.QueueResponse{}, err
	}
	resp := httptransport.QueueResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Items = make([]httptransport.QueueItem, 0, len(items))
	for _, item := range items {
		resp.Data.Items = append(resp.Data.Items, httptransport.QueueItem{
			CaseID:        item.CaseID,
			TargetType:    string(item.TargetType),
			TargetID:      item.TargetID,
			Status:        string(item.Status),
			Category:      string(item.Reason.Category),
			Severity:      string(item.Reason.Severity),
			PriorityLevel: string(item.Priority.Level),
			PriorityScore: item.Priority.Score,
			Assignee:      item.Review.Assignment.Assignee,
			ReportedAt:    item.ReportedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (h Handler) CommunityStatsHandler(ctx context.Context, communityID string, timeframeRaw string) (httptransport.CommunityStatsResponse, error) {
	timeframe := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(timeframeRaw)); err == nil {
		timeframe = parsed
	}
	stats, err := h.Stats.CommunityStats(ctx, communityID, timeframe)
	if err != nil {
		return httptransport.CommunityStatsResponse{}, err
	}
	resp := httptransport.CommunityStatsResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.CommunityID = stats.CommunityID
	resp.Data.TimeframeDays = stats.TimeframeDays
	resp.Data.TotalCases = stats.TotalCases
	resp.Data.StatusCounts = make(map[string]int, len(stats.StatusCounts))
	for status, count := range stats.StatusCounts {
		resp.Data.StatusCounts[string(status)] = count
	}
	resp.Data.SeverityBreakdown = make(map[string]int, len(stats.SeverityBreakdown))
	for severity, count := range stats.SeverityBreakdown {
		resp.Data.SeverityBreakdown[string(severity)] = count
	}
	resp.Data.AvgResolutionTimeSeconds = int64(stats.AvgResolutionTime / time.Second)
	resp.Data.ResolvedCount = stats.ResolvedCount
	return resp, nil
}

func (h Handler) AutomationAccuracyHandler(ctx context.Context, timeframeRaw string) (httptransport.AutomationAccuracyResponse, error) {
	timeframe := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(timeframeRaw)); err == nil {
		timeframe = parsed
	}
	stats, err := h.Stats.AutomationAccuracy(ctx, timeframe)
	if err != nil {
		return httptransport.AutomationAccuracyResponse{}, err
	}
	resp := httptransport.AutomationAccuracyResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.TimeframeDays = stats.TimeframeDays
	resp.Data.TotalAutomated = stats.TotalAutomated
	resp.Data.AvgConfidence = stats.AvgConfidence
	resp.Data.FeedbackCount = stats.FeedbackCount
	resp.Data.Accuracy = stats.Accuracy
	return resp, nil
}

func mapCaseResponse(c entities.Case) httptransport.CaseResponse {
	resp := httptransport.CaseResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data = mapCasePayload(c)
	return resp
}

func mapCasePayload(c entities.Case) httptransport.CasePayload {
	payload := httptransport.CasePayload{
		CaseID:      c.CaseID,
		TargetType:  string(c.TargetType),
		TargetID:    c.TargetID,
		CommunityID: c.CommunityID,
		Status:      string(c.Status),
		Reason: httptransport.ReasonPayload{
			Category:    string(c.Reason.Category),
			Subcategory: c.Reason.Subcategory,
			Description: c.Reason.Description,
			Severity:    string(c.Reason.Severity),
		},
		Anonymous:  c.Anonymous,
		ReportedAt: c.ReportedAt.UTC().Format(time.RFC3339),
		Assignment: httptransport.AssignmentPayload{
			Assignee:   c.Review.Assignment.Assignee,
			AssignedBy: c.Review.Assignment.AssignedBy,
		},
		Escalation: httptransport.EscalationPayload{
			Escalated:   c.Escalation.Escalated,
			EscalatedBy: c.Escalation.EscalatedBy,
			Reason:      c.Escalation.Reason,
			Level:       string(c.Escalation.Level),
		},
		Appeal: httptransport.AppealPayload{
			Submitted:      c.Appeal.Submitted,
			Reason:         c.Appeal.Reason,
			Evidence:       append([]string(nil), c.Appeal.Evidence...),
			Reviewed:       c.Appeal.Reviewed,
			ReviewedBy:     c.Appeal.ReviewedBy,
			Decision:       string(c.Appeal.Decision),
			DecisionReason: c.Appeal.DecisionReason,
		},
		Related: httptransport.RelatedPayload{
			SimilarCases:  append([]string(nil), c.Related.SimilarCases...),
			PartOfPattern: c.Related.PartOfPattern,
			PatternType:   c.Related.PatternType,
			PatternID:     c.Related.PatternID,
		},
		Priority: httptransport.PriorityPayload{
			Level: string(c.Priority.Level),
			Score: c.Priority.Score,
		},
		Feedback: httptransport.FeedbackPayload{
			Correct:    c.Feedback.Correct,
			Feedback:   c.Feedback.Feedback,
			ProvidedBy: c.Feedback.ProvidedBy,
		},
		Complexity: string(c.Complexity),
		Version:    c.Version,
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  c.UpdatedAt.UTC().Format(time.RFC3339),
	}

	// Anonymous reports never expose the reporter outside the aggregate.
	if !c.Anonymous {
		payload.ReportedBy = c.ReportedBy
	}

	if !c.Review.Assignment.AssignedAt.IsZero() {
		payload.Assignment.AssignedAt = c.Review.Assignment.AssignedAt.UTC().Format(time.RFC3339)
	}
	if c.Review.ReviewStartedAt != nil {
		payload.ReviewStartedAt = c.Review.ReviewStartedAt.UTC().Format(time.RFC3339)
	}
	if c.Review.ReviewCompletedAt != nil {
		payload.ReviewCompletedAt = c.Review.ReviewCompletedAt.UTC().Format(time.RFC3339)
	}

	if c.Automated != nil {
		payload.Automated = &httptransport.AutomatedSignalPayload{
			Detected:     c.Automated.Detected,
			Confidence:   c.Automated.Confidence,
			Model:        c.Automated.Model,
			ModelVersion: c.Automated.ModelVersion,
			Flags:        append([]string(nil), c.Automated.Flags...),
			Toxicity:     c.Automated.Toxicity,
			Spam:         c.Automated.Spam,
			Profanity:    c.Automated.Profanity,
			Sentiment:    c.Automated.Sentiment,
		}
	}

	for _, note := range c.Review.Notes {
		payload.Notes = append(payload.Notes, httptransport.NotePayload{
			Note:    note.Note,
			AddedBy: note.AddedBy,
			AddedAt: note.AddedAt.UTC().Format(time.RFC3339),
			Private: note.Private,
		})
	}
	for _, item := range c.Evidence {
		payload.Evidence = append(payload.Evidence, httptransport.EvidencePayload{
			Type:        string(item.Type),
			URL:         item.URL,
			Filename:    item.Filename,
			Description: item.Description,
			UploadedBy:  item.UploadedBy,
			UploadedAt:  item.UploadedAt.UTC().Format(time.RFC3339),
		})
	}
	if c.Review.Decision != nil {
		payload.Decision = &httptransport.DecisionPayload{
			Action:          string(c.Review.Decision.Action),
			Reason:          c.Review.Decision.Reason,
			PublicReason:    c.Review.Decision.PublicReason,
			DecisionMadeBy:  c.Review.Decision.DecisionMadeBy,
			DecisionMadeAt:  c.Review.Decision.DecisionMadeAt.UTC().Format(time.RFC3339),
			DurationSeconds: int64(c.Review.Decision.Duration / time.Second),
			EditedContent:   c.Review.Decision.EditedContent,
		}
	}
	if c.Escalation.EscalatedAt != nil {
		payload.Escalation.EscalatedAt = c.Escalation.EscalatedAt.UTC().Format(time.RFC3339)
	}
	if c.Appeal.SubmittedAt != nil {
		payload.Appeal.SubmittedAt = c.Appeal.SubmittedAt.UTC().Format(time.RFC3339)
	}
	if c.Appeal.ReviewedAt != nil {
		payload.Appeal.ReviewedAt = c.Appeal.ReviewedAt.UTC().Format(time.RFC3339)
	}
	if c.Priority.ManualOverride.Enabled {
		payload.Priority.ManualOverride = &httptransport.ManualOverridePayload{
			Enabled: true,
			Level:   string(c.Priority.ManualOverride.Level),
			Reason:  c.Priority.ManualOverride.Reason,
			SetBy:   c.Priority.ManualOverride.SetBy,
			SetAt:   c.Priority.ManualOverride.SetAt.UTC().Format(time.RFC3339),
		}
	}
	if c.Feedback.ProvidedAt != nil {
		payload.Feedback.ProvidedAt = c.Feedback.ProvidedAt.UTC().Format(time.RFC3339)
	}

	payload.Metrics = httptransport.MetricsPayload{
		ReportToAssignmentSeconds:  durationSeconds(c.Metrics.ReportToAssignment),
		AssignmentToReviewSeconds:  durationSeconds(c.Metrics.AssignmentToReview),
		ReviewToDecisionSeconds:    durationSeconds(c.Metrics.ReviewToDecision),
		TotalResolutionTimeSeconds: durationSeconds(c.Metrics.TotalResolutionTime),
		QualityScore:               c.Metrics.QualityScore,
	}

	for _, field := range c.CustomFields {
		payload.CustomFields = append(payload.CustomFields, httptransport.CustomFieldPayload{
			Key:   field.Key,
			Type:  string(field.Type),
			Value: field.Value,
		})
	}
	return payload
}

func durationSeconds(value *time.Duration) *int64 {
	if value == nil {
		return nil
	}
	seconds := int64(*value / time.Second)
	return &seconds
}
