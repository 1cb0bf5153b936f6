package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealview/internal/timeframe"
)

// MockTimeProvider pins the clock for deterministic parsing
type MockTimeProvider struct {
	FixedTime time.Time
}

func (m *MockTimeProvider) Now(loc *time.Location) time.Time {
	return m.FixedTime.In(loc)
}

func newPinnedParser() *timeframe.Parser {
	// March 15, 2024, 12:00 UTC
	return timeframe.NewParser(&MockTimeProvider{
		FixedTime: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	})
}

func TestParseTimeFrameExplicitRange(t *testing.T) {
	parser := newPinnedParser()

	tf, err := parser.ParseTimeFrame(timeframe.ParserParams{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-10",
		Interval:  "day",
		Tz:        "UTC",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), tf.From)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC), tf.To)
	assert.Equal(t, timeframe.BucketSizeDay, tf.BucketSize)
}

func TestParseTimeFrameDefaultsToLastThirtyDays(t *testing.T) {
	parser := newPinnedParser()

	tf, err := parser.ParseTimeFrame(timeframe.ParserParams{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), tf.From)
	assert.Equal(t, timeframe.BucketSizeDay, tf.BucketSize)
	// The end extends to cover today's full bucket
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC), tf.To)
}

func TestParseTimeFrameAutoSizesInterval(t *testing.T) {
	parser := newPinnedParser()

	testCases := []struct {
		name      string
		startDate string
		endDate   string
		expected  timeframe.BucketSize
	}{
		{name: "single past day uses hours", startDate: "2024-03-10", endDate: "2024-03-10", expected: timeframe.BucketSizeHour},
		{name: "one week uses days", startDate: "2024-03-01", endDate: "2024-03-08", expected: timeframe.BucketSizeDay},
		{name: "six months uses months", startDate: "2023-09-01", endDate: "2024-03-01", expected: timeframe.BucketSizeMonth},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tf, err := parser.ParseTimeFrame(timeframe.ParserParams{
				StartDate: tc.startDate,
				EndDate:   tc.endDate,
				Tz:        "UTC",
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tf.BucketSize)
		})
	}
}

func TestParseTimeFrameInterpretsDatesInRequestedTimezone(t *testing.T) {
	parser := newPinnedParser()

	tf, err := parser.ParseTimeFrame(timeframe.ParserParams{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-10",
		Interval:  "day",
		Tz:        "America/New_York",
	})
	require.NoError(t, err)

	// Midnight in New York is 05:00 UTC during EST
	assert.Equal(t, time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC), tf.From)
	assert.Equal(t, "America/New_York", tf.Tz.String())
}

func TestParseTimeFrameErrors(t *testing.T) {
	parser := newPinnedParser()

	testCases := []struct {
		name   string
		params timeframe.ParserParams
	}{
		{
			name: "invalid interval",
			params: timeframe.ParserParams{
				StartDate: "2024-03-01", EndDate: "2024-03-10", Interval: "fortnight",
			},
		},
		{
			name: "start after end",
			params: timeframe.ParserParams{
				StartDate: "2024-03-10", EndDate: "2024-03-01",
			},
		},
		{
			name: "malformed start date",
			params: timeframe.ParserParams{
				StartDate: "03/01/2024", EndDate: "2024-03-10",
			},
		},
		{
			name:   "unknown timezone",
			params: timeframe.ParserParams{Tz: "Mars/Olympus_Mons"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.ParseTimeFrame(tc.params)
			assert.Error(t, err)
		})
	}
}

func TestParseTimeFrameClampsInProgressDay(t *testing.T) {
	parser := newPinnedParser()

	tf, err := parser.ParseTimeFrame(timeframe.ParserParams{
		StartDate: "2024-03-15",
		EndDate:   "2024-03-15",
		Interval:  "hour",
		Tz:        "UTC",
	})
	require.NoError(t, err)

	// Now is 12:00, so the frame ends within the current hour, not at 23:59
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), tf.From)
	assert.True(t, tf.To.Before(time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)))
}
