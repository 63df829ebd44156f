package http

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Status    string    `json:"status"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

type ReasonPayload struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type AutomatedSignalPayload struct {
	Detected     bool     `json:"detected"`
	Confidence   float64  `json:"confidence"`
	Model        string   `json:"model,omitempty"`
	ModelVersion string   `json:"model_version,omitempty"`
	Flags        []string `json:"flags,omitempty"`
	Toxicity     float64  `json:"toxicity,omitempty"`
	Spam         float64  `json:"spam,omitempty"`
	Profanity    float64  `json:"profanity,omitempty"`
	Sentiment    float64  `json:"sentiment,omitempty"`
}

type CustomFieldPayload struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type CreateCaseRequest struct {
	TargetType   string                  `json:"target_type"`
	TargetID     string                  `json:"target_id"`
	CommunityID  string                  `json:"community_id"`
	Reason       ReasonPayload           `json:"reason"`
	ReportedBy   string                  `json:"reported_by"`
	Anonymous    bool                    `json:"anonymous,omitempty"`
	Automated    *AutomatedSignalPayload `json:"automated,omitempty"`
	CustomFields []CustomFieldPayload    `json:"custom_fields,omitempty"`
}

type AssignRequest struct {
	ReviewerID string `json:"reviewer_id"`
	AssignedBy string `json:"assigned_by,omitempty"`
	Reassign   bool   `json:"reassign,omitempty"`
}

type NoteRequest struct {
	Note    string `json:"note"`
	AddedBy string `json:"added_by"`
	Private bool   `json:"private,omitempty"`
}

type EvidenceRequest struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Filename    string `json:"filename,omitempty"`
	Description string `json:"description,omitempty"`
	UploadedBy  string `json:"uploaded_by"`
}

type DecisionRequest struct {
	Action          string `json:"action"`
	Reason          string `json:"reason,omitempty"`
	PublicReason    string `json:"public_reason,omitempty"`
	DecisionMadeBy  string `json:"decision_made_by"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	EditedContent   string `json:"edited_content,omitempty"`
}

type EscalateRequest struct {
	EscalatedBy string `json:"escalated_by"`
	Reason      string `json:"reason"`
	Level       string `json:"level,omitempty"`
}

type AppealRequest struct {
	Reason   string   `json:"reason"`
	Evidence []string `json:"evidence,omitempty"`
}

type AppealReviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason,omitempty"`
}

type LinkRequest struct {
	SimilarCaseID string `json:"similar_case_id"`
}

type PatternRequest struct {
	PatternType string `json:"pattern_type"`
	PatternID   string `json:"pattern_id"`
}

type FeedbackRequest struct {
	Correct    bool   `json:"correct"`
	Feedback   string `json:"feedback,omitempty"`
	ProvidedBy string `json:"provided_by"`
}

type NotePayload struct {
	Note    string `json:"note"`
	AddedBy string `json:"added_by"`
	AddedAt string `json:"added_at"`
	Private bool   `json:"private,omitempty"`
}

type EvidencePayload struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Filename    string `json:"filename,omitempty"`
	Description string `json:"description,omitempty"`
	UploadedBy  string `json:"uploaded_by"`
	UploadedAt  string `json:"uploaded_at"`
}

type DecisionPayload struct {
	Action          string `json:"action"`
	Reason          string `json:"reason,omitempty"`
	PublicReason    string `json:"public_reason,omitempty"`
	DecisionMadeBy  string `json:"decision_made_by"`
	DecisionMadeAt  string `json:"decision_made_at"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	EditedContent   string `json:"edited_content,omitempty"`
}

type AssignmentPayload struct {
	Assignee   string `json:"assignee,omitempty"`
	AssignedAt string `json:"assigned_at,omitempty"`
	AssignedBy string `json:"assigned_by,omitempty"`
}

type EscalationPayload struct {
	Escalated   bool   `json:"escalated"`
	EscalatedAt string `json:"escalated_at,omitempty"`
	EscalatedBy string `json:"escalated_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Level       string `json:"level,omitempty"`
}

type AppealPayload struct {
	Submitted      bool     `json:"submitted"`
	SubmittedAt    string   `json:"submitted_at,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	Evidence       []string `json:"evidence,omitempty"`
	Reviewed       bool     `json:"reviewed"`
	ReviewedBy     string   `json:"reviewed_by,omitempty"`
	ReviewedAt     string   `json:"reviewed_at,omitempty"`
	Decision       string   `json:"decision,omitempty"`
	DecisionReason string   `json:"decision_reason,omitempty"`
}

type RelatedPayload struct {
	SimilarCases  []string `json:"similar_cases,omitempty"`
	PartOfPattern bool     `json:"part_of_pattern"`
	PatternType   string   `json:"pattern_type,omitempty"`
	PatternID     string   `json:"pattern_id,omitempty"`
}

type ManualOverridePayload struct {
	Enabled bool   `json:"enabled"`
	Level   string `json:"level,omitempty"`
	Reason  string `json:"reason,omitempty"`
	SetBy   string `json:"set_by,omitempty"`
	SetAt   string `json:"set_at,omitempty"`
}

type PriorityPayload struct {
	Level          string                 `json:"level"`
	Score          float64                `json:"score"`
	ManualOverride *ManualOverridePayload `json:"manual_override,omitempty"`
}

type FeedbackPayload struct {
	Correct    *bool  `json:"correct,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
	ProvidedBy string `json:"provided_by,omitempty"`
	ProvidedAt string `json:"provided_at,omitempty"`
}

type MetricsPayload struct {
	ReportToAssignmentSeconds  *int64   `json:"report_to_assignment_seconds,omitempty"`
	AssignmentToReviewSeconds  *int64   `json:"assignment_to_review_seconds,omitempty"`
	ReviewToDecisionSeconds    *int64   `json:"review_to_decision_seconds,omitempty"`
	TotalResolutionTimeSeconds *int64   `json:"total_resolution_time_seconds,omitempty"`
	QualityScore               *float64 `json:"quality_score,omitempty"`
}

type CasePayload struct {
	CaseID            string                  `json:"case_id"`
	TargetType        string                  `json:"target_type"`
	TargetID          string                  `json:"target_id"`
	CommunityID       string                  `json:"community_id"`
	Status            string                  `json:"status"`
	Reason            ReasonPayload           `json:"reason"`
	ReportedBy        string                  `json:"reported_by,omitempty"`
	Anonymous         bool                    `json:"anonymous"`
	ReportedAt        string                  `json:"reported_at"`
	Automated         *AutomatedSignalPayload `json:"automated,omitempty"`
	Assignment        AssignmentPayload       `json:"assignment"`
	ReviewStartedAt   string                  `json:"review_started_at,omitempty"`
	ReviewCompletedAt string                  `json:"review_completed_at,omitempty"`
	Notes             []NotePayload           `json:"notes,omitempty"`
	Decision          *DecisionPayload        `json:"decision,omitempty"`
	Evidence          []EvidencePayload       `json:"evidence,omitempty"`
	Escalation        EscalationPayload       `json:"escalation"`
	Appeal            AppealPayload           `json:"appeal"`
	Related           RelatedPayload          `json:"related"`
	Priority          PriorityPayload         `json:"priority"`
	Feedback          FeedbackPayload         `json:"feedback"`
	Metrics           MetricsPayload          `json:"metrics"`
	Complexity        string                  `json:"complexity,omitempty"`
	CustomFields      []CustomFieldPayload    `json:"custom_fields,omitempty"`
	Version           int64                   `json:"version"`
	CreatedAt         string                  `json:"created_at"`
	UpdatedAt         string                  `json:"updated_at"`
}

type CaseResponse struct {
	Status    string      `json:"status"`
	Data      CasePayload `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type QueueItem struct {
	CaseID        string  `json:"case_id"`
	TargetType    string  `json:"target_type"`
	TargetID      string  `json:"target_id"`
	Status        string  `json:"status"`
	Category      string  `json:"category"`
	Severity      string  `json:"severity"`
	PriorityLevel string  `json:"priority_level"`
	PriorityScore float64 `json:"priority_score"`
	Assignee      string  `json:"assignee,omitempty"`
	ReportedAt    string  `json:"reported_at"`
}

type QueueResponse struct {
	Status string `json:"status"`
	Data   struct {
		Items []QueueItem `json:"items"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type CommunityStatsResponse struct {
	Status string `json:"status"`
	Data   struct {
		CommunityID              string         `json:"community_id"`
		TimeframeDays            int            `json:"timeframe_days"`
		TotalCases               int            `json:"total_cases"`
		StatusCounts             map[string]int `json:"status_counts"`
		SeverityBreakdown        map[string]int `json:"severity_breakdown"`
		AvgResolutionTimeSeconds int64          `json:"avg_resolution_time_seconds"`
		ResolvedCount            int            `json:"resolved_count"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type AutomationAccuracyResponse struct {
	Status string `json:"status"`
	Data   struct {
		TimeframeDays  int      `json:"timeframe_days"`
		TotalAutomated int      `json:"total_automated"`
		AvgConfidence  float64  `json:"avg_confidence"`
		FeedbackCount  int      `json:"feedback_count"`
		Accuracy       *float64 `json:"accuracy,omitempty"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}
