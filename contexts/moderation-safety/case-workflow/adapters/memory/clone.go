package memory

import (
	"encoding/json"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

// cloneCase deep-copies the aggregate so callers never share slices or
// pointers with the stored value.
func cloneCase(c entities.Case) entities.Case {
	out := c

	if c.Automated != nil {
		signal := *c.Automated
		signal.Flags = append([]string(nil), c.Automated.Flags...)
		out.Automated = &signal
	}

	out.Review.ReviewStartedAt = cloneTime(c.Review.ReviewStartedAt)
	out.Review.ReviewCompletedAt = cloneTime(c.Review.ReviewCompletedAt)
	out.Review.Notes = append([]entities.ReviewerNote(nil), c.Review.Notes...)
	if c.Review.Decision != nil {
		decision := *c.Review.Decision
		out.Review.Decision = &decision
	}

	out.Evidence = append([]entities.Evidence(nil), c.Evidence...)

	out.Escalation.EscalatedAt = cloneTime(c.Escalation.EscalatedAt)

	out.Appeal.SubmittedAt = cloneTime(c.Appeal.SubmittedAt)
	out.Appeal.ReviewedAt = cloneTime(c.Appeal.ReviewedAt)
	out.Appeal.Evidence = append([]string(nil), c.Appeal.Evidence...)

	out.Related.SimilarCases = append([]string(nil), c.Related.SimilarCases...)

	if c.Feedback.Correct != nil {
		correct := *c.Feedback.Correct
		out.Feedback.Correct = &correct
	}
	out.Feedback.ProvidedAt = cloneTime(c.Feedback.ProvidedAt)

	out.Metrics.ReportToAssignment = cloneDuration(c.Metrics.ReportToAssignment)
	out.Metrics.AssignmentToReview = cloneDuration(c.Metrics.AssignmentToReview)
	out.Metrics.ReviewToDecision = cloneDuration(c.Metrics.ReviewToDecision)
	out.Metrics.TotalResolutionTime = cloneDuration(c.Metrics.TotalResolutionTime)
	if c.Metrics.QualityScore != nil {
		quality := *c.Metrics.QualityScore
		out.Metrics.QualityScore = &quality
	}

	out.CustomFields = append([]entities.CustomField(nil), c.CustomFields...)

	return out
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	stamp := *value
	return &stamp
}

func cloneDuration(value *time.Duration) *time.Duration {
	if value == nil {
		return nil
	}
	elapsed := *value
	return &elapsed
}

func encodeEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}
