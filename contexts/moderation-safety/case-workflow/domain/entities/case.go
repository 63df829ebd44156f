package entities

import (
	"strings"
	"time"
)

type TargetType string

const (
	TargetTypePost    TargetType = "post"
	TargetTypeComment TargetType = "comment"
	TargetTypeUser    TargetType = "user"
	TargetTypeEvent   TargetType = "event"
	TargetTypeMessage TargetType = "message"
	TargetTypeMedia   TargetType = "media"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetTypePost, TargetTypeComment, TargetTypeUser, TargetTypeEvent, TargetTypeMessage, TargetTypeMedia:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusInReview  Status = "in_review"
	StatusResolved  Status = "resolved"
	StatusEscalated Status = "escalated"
	StatusDismissed Status = "dismissed"
)

// Terminal reports whether the status closes the review cycle. Escalated
// cases are parked with a higher authority, not closed, so they carry no
// quality score until a decision lands.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

type ReasonCategory string

const (
	CategorySpam           ReasonCategory = "spam"
	CategoryHarassment     ReasonCategory = "harassment"
	CategoryHateSpeech     ReasonCategory = "hate_speech"
	CategoryViolence       ReasonCategory = "violence"
	CategoryAdultContent   ReasonCategory = "adult_content"
	CategoryCopyright      ReasonCategory = "copyright"
	CategoryMisinformation ReasonCategory = "misinformation"
	CategoryOffTopic       ReasonCategory = "off_topic"
	CategoryLowQuality     ReasonCategory = "low_quality"
	CategoryDuplicate      ReasonCategory = "duplicate"
	CategorySelfPromotion  ReasonCategory = "self_promotion"
	CategoryDoxxing        ReasonCategory = "doxxing"
	CategoryImpersonation  ReasonCategory = "impersonation"
	CategoryFraud          ReasonCategory = "fraud"
	CategoryMalware        ReasonCategory = "malware"
	CategoryOther          ReasonCategory = "other"
)

func (c ReasonCategory) Valid() bool {
	switch c {
	case CategorySpam, CategoryHarassment, CategoryHateSpeech, CategoryViolence,
		CategoryAdultContent, CategoryCopyright, CategoryMisinformation, CategoryOffTopic,
		CategoryLowQuality, CategoryDuplicate, CategorySelfPromotion, CategoryDoxxing,
		CategoryImpersonation, CategoryFraud, CategoryMalware, CategoryOther:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Reason struct {
	Category    ReasonCategory
	Subcategory string
	Description string
	Severity    Severity
}

// AutomatedSignal is read-only classifier output attached at intake.
// The engine consumes confidence and flags; it never computes them.
type AutomatedSignal struct {
	Detected     bool
	Confidence   float64
	Model        string
	ModelVersion string
	Flags        []string
	Toxicity     float64
	Spam         float64
	Profanity    float64
	Sentiment    float64
}

type EvidenceType string

const (
	EvidenceScreenshot EvidenceType = "screenshot"
	EvidenceRecording  EvidenceType = "recording"
	EvidenceDocument   EvidenceType = "document"
	EvidenceLink       EvidenceType = "link"
)

func (e EvidenceType) Valid() bool {
	switch e {
	case EvidenceScreenshot, EvidenceRecording, EvidenceDocument, EvidenceLink:
		return true
	}
	return false
}

type Evidence struct {
	Type        EvidenceType
	URL         string
	Filename    string
	Description string
	UploadedBy  string
	UploadedAt  time.Time
}

type ReviewerNote struct {
	Note    string
	AddedBy string
	AddedAt time.Time
	Private bool
}

type DecisionAction string

const (
	DecisionNoAction    DecisionAction = "no_action"
	DecisionWarn        DecisionAction = "warn"
	DecisionHide        DecisionAction = "hide"
	DecisionRemove      DecisionAction = "remove"
	DecisionEdit        DecisionAction = "edit"
	DecisionSuspendUser DecisionAction = "suspend_user"
	DecisionBanUser     DecisionAction = "ban_user"
)

func (a DecisionAction) Valid() bool {
	switch a {
	case DecisionNoAction, DecisionWarn, DecisionHide, DecisionRemove,
		DecisionEdit, DecisionSuspendUser, DecisionBanUser:
		return true
	}
	return false
}

type Decision struct {
	Action         DecisionAction
	Reason         string
	PublicReason   string
	DecisionMadeBy string
	DecisionMadeAt time.Time
	Duration       time.Duration
	EditedContent  string
}

type Assignment struct {
	Assignee   string
	AssignedAt time.Time
	AssignedBy string
}

// Active reports whether a reviewer currently holds the case.
func (a Assignment) Active() bool {
	return strings.TrimSpace(a.Assignee) != ""
}

type Review struct {
	Assignment        Assignment
	ReviewStartedAt   *time.Time
	ReviewCompletedAt *time.Time
	Notes             []ReviewerNote
	Decision          *Decision
}

type EscalationLevel string

const (
	EscalationModerator EscalationLevel = "moderator"
	EscalationAdmin     EscalationLevel = "admin"
	EscalationOwner     EscalationLevel = "owner"
	EscalationPlatform  EscalationLevel = "platform"
)

func (l EscalationLevel) Valid() bool {
	switch l {
	case EscalationModerator, EscalationAdmin, EscalationOwner, EscalationPlatform:
		return true
	}
	return false
}

type Escalation struct {
	Escalated   bool
	EscalatedAt *time.Time
	EscalatedBy string
	Reason      string
	Level       EscalationLevel
}

type AppealDecision string

const (
	AppealUpheld     AppealDecision = "upheld"
	AppealOverturned AppealDecision = "overturned"
	AppealModified   AppealDecision = "modified"
)

func (d AppealDecision) Valid() bool {
	switch d {
	case AppealUpheld, AppealOverturned, AppealModified:
		return true
	}
	return false
}

type Appeal struct {
	Submitted      bool
	SubmittedAt    *time.Time
	Reason         string
	Evidence       []string
	Reviewed       bool
	ReviewedBy     string
	ReviewedAt     *time.Time
	Decision       AppealDecision
	DecisionReason string
}

type Related struct {
	SimilarCases  []string
	PartOfPattern bool
	PatternType   string
	PatternID     string
}

// LinkSimilar unions a case id into SimilarCases. Idempotent.
func (r *Related) LinkSimilar(caseID string) bool {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return false
	}
	for _, existing := range r.SimilarCases {
		if existing == caseID {
			return false
		}
	}
	r.SimilarCases = append(r.SimilarCases, caseID)
	return true
}

type PriorityLevel string

const (
	PriorityLow      PriorityLevel = "low"
	PriorityNormal   PriorityLevel = "normal"
	PriorityHigh     PriorityLevel = "high"
	PriorityUrgent   PriorityLevel = "urgent"
	PriorityCritical PriorityLevel = "critical"
)

func (l PriorityLevel) Valid() bool {
	switch l {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent, PriorityCritical:
		return true
	}
	return false
}

// Rank orders priority levels for queue sorting (higher sorts first).
func (l PriorityLevel) Rank() int {
	switch l {
	case PriorityCritical:
		return 4
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

type ManualOverride struct {
	Enabled bool
	Level   PriorityLevel
	Reason  string
	SetBy   string
	SetAt   time.Time
}

type Priority struct {
	Level          PriorityLevel
	Score          float64
	ManualOverride ManualOverride
}

// HumanFeedback records whether a reviewer judged the automated signal
// correct. Correct stays nil until feedback is provided.
type HumanFeedback struct {
	Correct    *bool
	Feedback   string
	ProvidedBy string
	ProvidedAt *time.Time
}

// Metrics are derived timings anchored on ReportedAt. Pointer fields
// distinguish "not yet computed" from a zero duration.
type Metrics struct {
	ReportToAssignment  *time.Duration
	AssignmentToReview  *time.Duration
	ReviewToDecision    *time.Duration
	TotalResolutionTime *time.Duration
	QualityScore        *float64
}

type Complexity string

const (
	ComplexitySimple      Complexity = "simple"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

type CustomFieldType string

const (
	CustomFieldString  CustomFieldType = "string"
	CustomFieldNumber  CustomFieldType = "number"
	CustomFieldBoolean CustomFieldType = "boolean"
	CustomFieldDate    CustomFieldType = "date"
)

// CustomField is a tagged key/value; Value carries the canonical string
// encoding for the declared type.
type CustomField struct {
	Key   string
	Type  CustomFieldType
	Value string
}

// Case is the moderation aggregate: one investigation from report intake
// to resolution, appeal included. All mutations go through the application
// service and commit with a version check.
type Case struct {
	CaseID      string
	TargetType  TargetType
	TargetID    string
	CommunityID string
	Status      Status

	Reason     Reason
	ReportedBy string
	Anonymous  bool
	ReportedAt time.Time

	Automated *AutomatedSignal

	Review     Review
	Evidence   []Evidence
	Escalation Escalation
	Appeal     Appeal
	Related    Related
	Priority   Priority
	Feedback   HumanFeedback
	Metrics    Metrics

	Complexity   Complexity
	CustomFields []CustomField

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Age is the time elapsed since the report was filed.
func (c Case) Age(now time.Time) time.Duration {
	return now.Sub(c.ReportedAt)
}

func (c Case) Open() bool {
	return c.Status == StatusPending || c.Status == StatusInReview
}
