package analytics

import "dealview/internal/tracking"

// Engagement bands
const (
	BandHigh   = "High"
	BandMedium = "Medium"
	BandLow    = "Low"
)

// Normalization caps: engagement saturates at this many views and this much
// average reading time per session.
const (
	scoreViewsCap       = 10.0
	scoreTimeSecondsCap = 300.0
)

// ScoreWeights controls the relative contribution of each engagement input.
// Weights are normalized by their sum, so only their ratios matter.
type ScoreWeights struct {
	Views     float64
	Time      float64
	Diversity float64
}

// DefaultScoreWeights returns the standard weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Views: 0.4, Time: 0.4, Diversity: 0.2}
}

// EngagementScore folds views and events into a 0-100 score. Views count
// toward attention volume, average non-zero reading time toward depth, and
// the variety of interaction types toward breadth.
func EngagementScore(views []tracking.ProposalView, events []tracking.ProposalEvent, weights ScoreWeights) float64 {
	totalWeight := weights.Views + weights.Time + weights.Diversity
	if totalWeight <= 0 {
		return 0
	}

	viewsComponent := float64(len(views)) / scoreViewsCap
	if viewsComponent > 1 {
		viewsComponent = 1
	}

	timeComponent := averageNonZeroTimeSpent(views) / scoreTimeSecondsCap
	if timeComponent > 1 {
		timeComponent = 1
	}

	seen := make(map[tracking.EventType]bool)
	for _, event := range events {
		seen[event.EventType] = true
	}
	diversityComponent := float64(len(seen)) / 5.0
	if diversityComponent > 1 {
		diversityComponent = 1
	}

	weighted := weights.Views*viewsComponent + weights.Time*timeComponent + weights.Diversity*diversityComponent
	return 100 * weighted / totalWeight
}

// BandForScore maps a 0-100 score onto its engagement band.
func BandForScore(score float64) string {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 50:
		return BandMedium
	}
	return BandLow
}

// averageNonZeroTimeSpent averages time_spent over views that accumulated
// any reading time. Sessions that bounced before the first time_spent ping
// would otherwise drag the average toward zero.
func averageNonZeroTimeSpent(views []tracking.ProposalView) float64 {
	var sum int64
	var count int64
	for _, view := range views {
		if view.TimeSpent > 0 {
			sum += view.TimeSpent
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
