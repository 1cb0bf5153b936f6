package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealview/internal/timeframe"
)

func TestAppropriateBucketSize(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		to       time.Time
		expected timeframe.BucketSize
	}{
		{name: "single day uses hours", to: base.Add(24 * time.Hour), expected: timeframe.BucketSizeHour},
		{name: "ten days uses days", to: base.AddDate(0, 0, 10), expected: timeframe.BucketSizeDay},
		{name: "four months uses months", to: base.AddDate(0, 4, 0), expected: timeframe.BucketSizeMonth},
		{name: "six years uses years", to: base.AddDate(6, 0, 0), expected: timeframe.BucketSizeYear},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, timeframe.AppropriateBucketSize(base, tc.to))
		})
	}
}

func TestNewTimeFrameRejectsInvertedRange(t *testing.T) {
	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeDay, time.UTC)
	assert.Error(t, err)
}

func TestBucketKey(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	t.Run("hour buckets stay in UTC", func(t *testing.T) {
		tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeHour, newYork)
		require.NoError(t, err)

		key := tf.BucketKey(time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC))
		assert.Equal(t, "2024-03-15 14", key)
	})

	t.Run("day buckets follow the requester timezone", func(t *testing.T) {
		tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeDay, newYork)
		require.NoError(t, err)

		// 02:00 UTC is still the previous evening in New York
		key := tf.BucketKey(time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC))
		assert.Equal(t, "2024-03-14", key)
	})

	t.Run("week buckets snap to Monday", func(t *testing.T) {
		tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeWeek, time.UTC)
		require.NoError(t, err)

		// 2024-03-15 is a Friday
		key := tf.BucketKey(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
		assert.Equal(t, "2024-03-11", key)
	})

	t.Run("month and year buckets", func(t *testing.T) {
		tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeMonth, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, "2024-03", tf.BucketKey(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))

		tf, err = timeframe.NewTimeFrame(from, to, timeframe.BucketSizeYear, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, "2024", tf.BucketKey(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))
	})
}

func TestContains(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeDay, time.UTC)
	require.NoError(t, err)

	assert.True(t, tf.Contains(from))
	assert.True(t, tf.Contains(to))
	assert.True(t, tf.Contains(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)))
	assert.False(t, tf.Contains(from.Add(-time.Second)))
	assert.False(t, tf.Contains(to.Add(time.Second)))
}

func TestBuildTimeSeriesPointsZeroFills(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 23, 59, 59, 0, time.UTC)

	tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeDay, time.UTC)
	require.NoError(t, err)

	grouped := []timeframe.DateStat{
		{Date: "2024-03-02", Count: 2},
	}

	points := tf.BuildTimeSeriesPoints(grouped)
	require.Len(t, points, 3)

	assert.Equal(t, "2024-03-01T00:00:00Z", points[0].Date)
	assert.Equal(t, 0, points[0].Count)
	assert.Equal(t, "2024-03-02T00:00:00Z", points[1].Date)
	assert.Equal(t, 2, points[1].Count)
	assert.Equal(t, "2024-03-03T00:00:00Z", points[2].Date)
	assert.Equal(t, 0, points[2].Count)
}

func TestBuildTimeSeriesPointsAccumulatesDuplicateKeys(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)

	tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeDay, time.UTC)
	require.NoError(t, err)

	grouped := []timeframe.DateStat{
		{Date: "2024-03-01", Count: 1},
		{Date: "2024-03-01", Count: 4},
	}

	points := tf.BuildTimeSeriesPoints(grouped)
	require.Len(t, points, 1)
	assert.Equal(t, 5, points[0].Count)
}

func TestCalculateTrend(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tf, err := timeframe.NewTimeFrame(from, to, timeframe.BucketSizeDay, time.UTC)
	require.NoError(t, err)

	t.Run("rising series has positive slope", func(t *testing.T) {
		points := []timeframe.DateStat{{Count: 1}, {Count: 2}, {Count: 3}}
		assert.InDelta(t, 1.0, tf.CalculateTrend(points), 0.0001)
	})

	t.Run("flat series has zero slope", func(t *testing.T) {
		points := []timeframe.DateStat{{Count: 5}, {Count: 5}, {Count: 5}}
		assert.InDelta(t, 0.0, tf.CalculateTrend(points), 0.0001)
	})

	t.Run("falling series has negative slope", func(t *testing.T) {
		points := []timeframe.DateStat{{Count: 6}, {Count: 4}, {Count: 2}}
		assert.InDelta(t, -2.0, tf.CalculateTrend(points), 0.0001)
	})

	t.Run("too few points", func(t *testing.T) {
		assert.Equal(t, 0.0, tf.CalculateTrend([]timeframe.DateStat{{Count: 9}}))
	})
}

func TestTruncateToBucketInTimezone(t *testing.T) {
	t.Run("sunday belongs to the week starting the previous monday", func(t *testing.T) {
		sunday := time.Date(2024, 3, 17, 15, 0, 0, 0, time.UTC)
		truncated := timeframe.TruncateToBucketInTimezone(sunday, timeframe.BucketSizeWeek, time.UTC)
		assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), truncated)
	})

	t.Run("hour keeps the local hour", func(t *testing.T) {
		ts := time.Date(2024, 3, 15, 14, 45, 30, 0, time.UTC)
		truncated := timeframe.TruncateToBucketInTimezone(ts, timeframe.BucketSizeHour, time.UTC)
		assert.Equal(t, time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC), truncated)
	})
}
