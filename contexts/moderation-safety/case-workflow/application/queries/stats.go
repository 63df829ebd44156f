// Package queries holds the reporting read models: per-community case
// statistics and classifier accuracy, computed over the repository's
// query surface instead of a storage-specific aggregation pipeline.
package queries

import (
	"context"
	"strings"
	"time"

	"caseflow/contexts/moderation-safety/case-workflow/domain/entities"
	domainerrors "caseflow/contexts/moderation-safety/case-workflow/domain/errors"
	"caseflow/contexts/moderation-safety/case-workflow/ports"
)

type StatsUseCase struct {
	Cases ports.CaseRepository
	Clock ports.Clock
}

type CommunityStats struct {
	CommunityID       string
	TimeframeDays     int
	TotalCases        int
	StatusCounts      map[entities.Status]int
	SeverityBreakdown map[entities.Severity]int
	AvgResolutionTime time.Duration
	ResolvedCount     int
}

type AutomationAccuracy struct {
	TimeframeDays  int
	TotalAutomated int
	AvgConfidence  float64
	FeedbackCount  int
	// Accuracy is nil until at least one human feedback record exists.
	Accuracy *float64
}

func (uc StatsUseCase) CommunityStats(ctx context.Context, communityID string, timeframeDays int) (CommunityStats, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return CommunityStats{}, domainerrors.ErrValidation
	}
	if timeframeDays <= 0 {
		timeframeDays = 30
	}

	since := uc.now().Add(-time.Duration(timeframeDays) * 24 * time.Hour)
	cases, err := uc.Cases.ListByCommunitySince(ctx, communityID, since)
	if err != nil {
		return CommunityStats{}, err
	}

	stats := CommunityStats{
		CommunityID:       communityID,
		TimeframeDays:     timeframeDays,
		StatusCounts:      make(map[entities.Status]int),
		SeverityBreakdown: make(map[entities.Severity]int),
	}
	var resolutionSum time.Duration
	for _, c := range cases {
		stats.TotalCases++
		stats.StatusCounts[c.Status]++
		stats.SeverityBreakdown[c.Reason.Severity]++
		if c.Metrics.TotalResolutionTime != nil {
			stats.ResolvedCount++
			resolutionSum += *c.Metrics.TotalResolutionTime
		}
	}
	if stats.ResolvedCount > 0 {
		stats.AvgResolutionTime = resolutionSum / time.Duration(stats.ResolvedCount)
	}
	return stats, nil
}

func (uc StatsUseCase) AutomationAccuracy(ctx context.Context, timeframeDays int) (AutomationAccuracy, error) {
	if timeframeDays <= 0 {
		timeframeDays = 30
	}

	since := uc.now().Add(-time.Duration(timeframeDays) * 24 * time.Hour)
	cases, err := uc.Cases.ListAutomatedSince(ctx, since)
	if err != nil {
		return AutomationAccuracy{}, err
	}

	stats := AutomationAccuracy{TimeframeDays: timeframeDays}
	var confidenceSum float64
	correct := 0
	for _, c := range cases {
		if c.Automated == nil || !c.Automated.Detected {
			continue
		}
		stats.TotalAutomated++
		confidenceSum += c.Automated.Confidence
		if c.Feedback.Correct != nil {
			stats.FeedbackCount++
			if *c.Feedback.Correct {
				correct++
			}
		}
	}
	if stats.TotalAutomated > 0 {
		stats.AvgConfidence = confidenceSum / float64(stats.TotalAutomated)
	}
	if stats.FeedbackCount > 0 {
		accuracy := float64(correct) / float64(stats.FeedbackCount)
		stats.Accuracy = &accuracy
	}
	return stats, nil
}

func (uc StatsUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
