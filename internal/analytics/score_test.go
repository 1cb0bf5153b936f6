package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dealview/internal/analytics"
	"dealview/internal/tracking"
)

func viewsWithTimeSpent(seconds ...int64) []tracking.ProposalView {
	views := make([]tracking.ProposalView, len(seconds))
	for i, s := range seconds {
		views[i] = tracking.ProposalView{
			SessionID: string(rune('a' + i)),
			ViewerIP:  "203.0.113.10",
			TimeSpent: s,
		}
	}
	return views
}

func eventsOfTypes(types ...tracking.EventType) []tracking.ProposalEvent {
	events := make([]tracking.ProposalEvent, len(types))
	for i, eventType := range types {
		events[i] = tracking.ProposalEvent{EventType: eventType, EventData: "{}"}
	}
	return events
}

func TestEngagementScoreEmptyInputs(t *testing.T) {
	score := analytics.EngagementScore(nil, nil, analytics.DefaultScoreWeights())
	assert.Equal(t, 0.0, score)
}

func TestEngagementScoreSaturates(t *testing.T) {
	// 10 views, each with 300s reading time, and all five event types hit
	// every cap, so the score must be exactly 100
	views := make([]tracking.ProposalView, 10)
	for i := range views {
		views[i] = tracking.ProposalView{TimeSpent: 300}
	}
	events := eventsOfTypes(
		tracking.EventTypePageView,
		tracking.EventTypeTimeSpent,
		tracking.EventTypeClick,
		tracking.EventTypeDownload,
		tracking.EventTypeScroll,
	)

	score := analytics.EngagementScore(views, events, analytics.DefaultScoreWeights())
	assert.InDelta(t, 100.0, score, 0.0001)

	// More of everything cannot push past 100
	views = append(views, tracking.ProposalView{TimeSpent: 10000})
	score = analytics.EngagementScore(views, events, analytics.DefaultScoreWeights())
	assert.LessOrEqual(t, score, 100.0)
}

func TestEngagementScorePartial(t *testing.T) {
	// 5 of 10 views, 150 of 300 seconds, 0 event types:
	// 0.4*0.5 + 0.4*0.5 + 0.2*0 = 0.4 of 100
	views := viewsWithTimeSpent(150, 150, 150, 150, 150)

	score := analytics.EngagementScore(views, nil, analytics.DefaultScoreWeights())
	assert.InDelta(t, 40.0, score, 0.0001)
}

func TestEngagementScoreWeightsAreNormalized(t *testing.T) {
	views := viewsWithTimeSpent(150, 150, 150, 150, 150)

	// Scaling all weights by the same factor must not change the score
	base := analytics.EngagementScore(views, nil, analytics.ScoreWeights{Views: 0.4, Time: 0.4, Diversity: 0.2})
	scaled := analytics.EngagementScore(views, nil, analytics.ScoreWeights{Views: 4, Time: 4, Diversity: 2})
	assert.InDelta(t, base, scaled, 0.0001)
}

func TestEngagementScoreZeroWeights(t *testing.T) {
	views := viewsWithTimeSpent(300)
	score := analytics.EngagementScore(views, nil, analytics.ScoreWeights{})
	assert.Equal(t, 0.0, score)
}

func TestBandForScore(t *testing.T) {
	testCases := []struct {
		score    float64
		expected string
	}{
		{score: 100, expected: analytics.BandHigh},
		{score: 80, expected: analytics.BandHigh},
		{score: 79.9, expected: analytics.BandMedium},
		{score: 50, expected: analytics.BandMedium},
		{score: 49.9, expected: analytics.BandLow},
		{score: 0, expected: analytics.BandLow},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, analytics.BandForScore(tc.score), "score %.1f", tc.score)
	}
}
