// Package scoring holds the pure priority/quality calculators. Every
// function is deterministic over its inputs and returns a clamped value;
// none of them error.
package scoring

import (
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
)

const (
	// Age thresholds for priority boosts and the SLA breach rule.
	AgeBoostThreshold  = 24 * time.Hour
	AgeBreachThreshold = 72 * time.Hour

	// Auto-escalation fires at this score once past AgeBreachThreshold.
	EscalationScoreThreshold = 8
)

// PriorityScore computes the 0..10 urgency score from severity, the
// automated signal, and case age. It is always computed, even under a
// manual override, so the audited score stays current.
func PriorityScore(severity entities.Severity, signal *entities.AutomatedSignal, age time.Duration) float64 {
	var score float64
	switch severity {
	case entities.SeverityCritical:
		score = 10
	case entities.SeverityHigh:
		score = 7
	case entities.SeverityMedium:
		score = 3
	default:
		score = 1
	}

	if signal != nil && signal.Detected && signal.Confidence > 0.8 {
		score += 2
	}

	if age > AgeBoostThreshold {
		score += 2
	}
	if age > AgeBreachThreshold {
		score += 3
	}

	return clamp(score, 0, 10)
}

// LevelForScore maps the numeric score to a queue level. Callers skip this
// mapping when a manual override is enabled; the override level wins.
func LevelForScore(score float64) entities.PriorityLevel {
	switch {
	case score >= 8:
		return entities.PriorityCritical
	case score >= 6:
		return entities.PriorityUrgent
	case score >= 4:
		return entities.PriorityHigh
	case score >= 2:
		return entities.PriorityNormal
	default:
		return entities.PriorityLow
	}
}

// QualityScore grades a closed case 0..100: resolution speed, appeal
// survival, and automation feedback accuracy. appealDecision is empty
// until an appeal verdict exists; feedbackCorrect is nil until a reviewer
// grades the automated signal.
func QualityScore(resolution time.Duration, appealDecision entities.AppealDecision, feedbackCorrect *bool) float64 {
	score := 50.0

	hours := resolution.Hours()
	switch {
	case hours <= 1:
		score += 30
	case hours <= 6:
		score += 20
	case hours <= 24:
		score += 10
	case hours > 72:
		score -= 20
	}

	switch appealDecision {
	case entities.AppealOverturned:
		score -= 30
	case entities.AppealUpheld:
		score += 10
	}

	if feedbackCorrect != nil {
		if *feedbackCorrect {
			score += 10
		} else {
			score -= 20
		}
	}

	return clamp(score, 0, 100)
}

// AssessComplexity counts workload factors and maps them to a tag used by
// reviewer load balancing.
func AssessComplexity(c entities.Case) entities.Complexity {
	factors := 0
	if c.Escalation.Escalated {
		factors++
	}
	if c.Related.PartOfPattern {
		factors++
	}
	if c.Appeal.Submitted {
		factors++
	}
	if len(c.Evidence) > 2 {
		factors++
	}
	if len(c.Related.SimilarCases) > 3 {
		factors++
	}

	switch {
	case factors >= 3:
		return entities.ComplexityVeryComplex
	case factors == 2:
		return entities.ComplexityComplex
	case factors == 1:
		return entities.ComplexityModerate
	default:
		return entities.ComplexitySimple
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
