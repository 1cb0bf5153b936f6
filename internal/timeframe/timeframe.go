package timeframe

import (
	"fmt"
	"time"
)

// DateStat is one point of a time series.
type DateStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BucketSize determines the granularity of a time series.
type BucketSize string

const (
	BucketSizeYear  BucketSize = "year"
	BucketSizeMonth BucketSize = "month"
	BucketSizeWeek  BucketSize = "week"
	BucketSizeDay   BucketSize = "day"
	BucketSizeHour  BucketSize = "hour"
)

// IsValid reports whether b is a known bucket size.
func (b BucketSize) IsValid() bool {
	switch b {
	case BucketSizeYear, BucketSizeMonth, BucketSizeWeek, BucketSizeDay, BucketSizeHour:
		return true
	}
	return false
}

// TimeProvider abstracts the clock so tests can pin it.
type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// TimeFrame represents a period between two points in time, bucketed at a
// given granularity. From/To are stored in UTC; Tz is the requester's
// timezone and controls where day boundaries fall for day-and-coarser
// buckets.
type TimeFrame struct {
	From       time.Time
	To         time.Time
	BucketSize BucketSize
	Tz         *time.Location
}

type datePointOfReference struct {
	bucketKey  string
	userFacing string
}

// NewTimeFrame validates and builds a time frame.
func NewTimeFrame(from, to time.Time, bucketSize BucketSize, tz *time.Location) (*TimeFrame, error) {
	if from.After(to) {
		return nil, fmt.Errorf("fromTime must be before toTime")
	}
	if tz == nil {
		tz = time.UTC
	}
	return &TimeFrame{
		From:       from.UTC(),
		To:         to.UTC(),
		BucketSize: bucketSize,
		Tz:         tz,
	}, nil
}

// NewAutoTimeFrame picks an appropriate bucket size for the span and extends
// the end to cover the last partial bucket, respecting timezone day
// boundaries.
func NewAutoTimeFrame(from, to time.Time, tz *time.Location) (*TimeFrame, error) {
	return newSizedTimeFrame(from, to, AppropriateBucketSize(from.UTC(), to.UTC()), tz)
}

func newSizedTimeFrame(from, to time.Time, bucketSize BucketSize, tz *time.Location) (*TimeFrame, error) {
	if tz == nil {
		tz = time.UTC
	}

	toTruncated := TruncateToBucketInTimezone(to, bucketSize, tz)
	switch bucketSize {
	case BucketSizeYear:
		toTruncated = toTruncated.AddDate(1, 0, 0).Add(-1 * time.Second)
	case BucketSizeMonth:
		toTruncated = toTruncated.AddDate(0, 1, 0).Add(-1 * time.Second)
	case BucketSizeWeek:
		toTruncated = toTruncated.AddDate(0, 0, 7).Add(-1 * time.Second)
	case BucketSizeDay:
		toTruncated = toTruncated.AddDate(0, 0, 1).Add(-1 * time.Second)
	case BucketSizeHour:
		toTruncated = toTruncated.Add(time.Hour).Add(-1 * time.Second)
	}

	return NewTimeFrame(from.UTC(), toTruncated.UTC(), bucketSize, tz)
}

// AppropriateBucketSize picks a granularity that keeps the point count
// reasonable for the requested span.
func AppropriateBucketSize(from, to time.Time) BucketSize {
	days := to.Sub(from).Hours() / 24

	switch {
	case days >= 5*365:
		return BucketSizeYear
	case days >= 3*30:
		return BucketSizeMonth
	case days >= 2:
		return BucketSizeDay
	default:
		return BucketSizeHour
	}
}

// Contains reports whether t falls inside the frame.
func (tf *TimeFrame) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(tf.From) && !u.After(tf.To)
}

// Duration returns the span of the frame.
func (tf *TimeFrame) Duration() time.Duration {
	return tf.To.Sub(tf.From)
}

// BucketKey maps an instant to its bucket's lookup key. Day-and-coarser
// buckets are resolved against the frame's timezone so a late-evening event
// lands on the requester's calendar day; hourly buckets stay in UTC.
func (tf *TimeFrame) BucketKey(t time.Time) string {
	if tf.BucketSize == BucketSizeHour {
		return t.UTC().Format("2006-01-02 15")
	}

	local := t.In(tf.Tz)
	truncated := TruncateToBucketInTimezone(local, tf.BucketSize, tf.Tz)

	switch tf.BucketSize {
	case BucketSizeYear:
		return truncated.Format("2006")
	case BucketSizeMonth:
		return truncated.Format("2006-01")
	default:
		return truncated.Format("2006-01-02")
	}
}

// generateDateTimePointsReference produces one reference point per bucket in
// the frame, keyed for lookup and labelled for display. Display labels are
// the bucket date at midnight UTC so the same request renders identically
// regardless of the requester's timezone offset.
func (tf *TimeFrame) generateDateTimePointsReference() []datePointOfReference {
	datePoints := []datePointOfReference{}

	currentTime := tf.From
	endTime := tf.To

	tz := tf.Tz
	if tz == nil {
		tz = time.UTC
	}

	if tf.BucketSize != BucketSizeHour {
		localTime := TruncateToBucketInTimezone(currentTime.In(tz), tf.BucketSize, tz)
		currentTime = time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		currentTime = truncateToBucketUTC(currentTime, tf.BucketSize)
	}

	// Hard cap so a malformed range can never loop forever
	maxPoints := 1000
	pointCount := 0

	for {
		if pointCount >= maxPoints {
			break
		}

		// For day-and-coarser buckets compare bucket boundaries, not exact
		// times, so the bucket containing endTime is included.
		shouldStop := false
		switch tf.BucketSize {
		case BucketSizeDay, BucketSizeWeek:
			endLocal := TruncateToBucketInTimezone(endTime.In(tz), tf.BucketSize, tz)
			endDay := time.Date(endLocal.Year(), endLocal.Month(), endLocal.Day(), 0, 0, 0, 0, time.UTC)
			shouldStop = currentTime.After(endDay)
		case BucketSizeMonth:
			endLocal := endTime.In(tz)
			endMonth := time.Date(endLocal.Year(), endLocal.Month(), 1, 0, 0, 0, 0, time.UTC)
			shouldStop = currentTime.After(endMonth)
		case BucketSizeYear:
			shouldStop = currentTime.Year() > endTime.In(tz).Year()
		default:
			shouldStop = currentTime.After(endTime)
		}
		if shouldStop {
			break
		}

		var bucketKey string
		switch tf.BucketSize {
		case BucketSizeYear:
			bucketKey = currentTime.Format("2006")
		case BucketSizeMonth:
			bucketKey = currentTime.Format("2006-01")
		case BucketSizeWeek, BucketSizeDay:
			bucketKey = currentTime.Format("2006-01-02")
		case BucketSizeHour:
			bucketKey = currentTime.Format("2006-01-02 15")
		}

		datePoints = append(datePoints, datePointOfReference{
			bucketKey:  bucketKey,
			userFacing: currentTime.Format(time.RFC3339),
		})

		switch tf.BucketSize {
		case BucketSizeYear:
			currentTime = currentTime.AddDate(1, 0, 0)
		case BucketSizeMonth:
			currentTime = currentTime.AddDate(0, 1, 0)
		case BucketSizeWeek:
			currentTime = currentTime.AddDate(0, 0, 7)
		case BucketSizeDay:
			currentTime = currentTime.AddDate(0, 0, 1)
		case BucketSizeHour:
			currentTime = currentTime.Add(time.Hour)
		}

		pointCount++
	}

	return datePoints
}

// BuildTimeSeriesPoints zero-fills the frame's buckets from grouped counts:
// every bucket in the frame gets a point, missing buckets get zero.
func (tf *TimeFrame) BuildTimeSeriesPoints(groupedResults []DateStat) []DateStat {
	dateLabels := tf.generateDateTimePointsReference()
	results := make([]DateStat, len(dateLabels))

	resultsMap := make(map[string]int, len(groupedResults))
	for _, result := range groupedResults {
		resultsMap[result.Date] += result.Count
	}

	for i, datePoint := range dateLabels {
		results[i] = DateStat{
			Date:  datePoint.userFacing,
			Count: resultsMap[datePoint.bucketKey],
		}
	}

	return results
}

// CalculateTrend fits a least-squares line through the series and returns
// its slope in counts per bucket.
func (tf *TimeFrame) CalculateTrend(points []DateStat) float64 {
	if len(points) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(points))

	for i, point := range points {
		x := float64(i)
		y := float64(point.Count)

		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	return (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
}

// TruncateToBucketInTimezone truncates a time to the bucket boundary in the
// given timezone.
func TruncateToBucketInTimezone(t time.Time, bucketSize BucketSize, loc *time.Location) time.Time {
	localTime := t.In(loc)
	year, month, day := localTime.Year(), localTime.Month(), localTime.Day()

	switch bucketSize {
	case BucketSizeYear:
		return time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	case BucketSizeMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	case BucketSizeWeek:
		weekday := int(localTime.Weekday())
		if weekday == 0 { // Sunday
			weekday = 7
		}
		return time.Date(year, month, day-(weekday-1), 0, 0, 0, 0, loc)
	case BucketSizeDay:
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	case BucketSizeHour:
		return time.Date(year, month, day, localTime.Hour(), 0, 0, 0, loc)
	default:
		return localTime
	}
}

func truncateToBucketUTC(t time.Time, bucketSize BucketSize) time.Time {
	return TruncateToBucketInTimezone(t, bucketSize, time.UTC)
}
