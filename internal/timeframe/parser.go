package timeframe

import (
	"fmt"
	"time"
)

// TimeWindowBuffer extends "today" end dates slightly past now so events
// recorded with clock skew or network latency still land inside the frame.
const TimeWindowBuffer = 5 * time.Minute

// ParserParams are the raw query string inputs for a time frame.
type ParserParams struct {
	StartDate string // YYYY-MM-DD in the requester's timezone
	EndDate   string // YYYY-MM-DD in the requester's timezone
	Interval  string // optional explicit bucket size; auto-sized when empty
	Tz        string // IANA timezone name; UTC when empty
}

// Parser turns query string inputs into a validated TimeFrame.
type Parser struct {
	timeProvider TimeProvider
}

// NewParser builds a parser, optionally with a pinned clock for tests.
func NewParser(timeProvider ...TimeProvider) *Parser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}
	return &Parser{timeProvider: provider}
}

// ParseTimeFrame parses and validates the requested range. Dates are
// interpreted in the requester's timezone and stored in UTC.
func (p *Parser) ParseTimeFrame(params ParserParams) (*TimeFrame, error) {
	tzName := params.Tz
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone: %w", err)
	}

	from, to, err := p.parseDateRange(params, loc)
	if err != nil {
		return nil, err
	}

	if params.Interval != "" {
		bucketSize := BucketSize(params.Interval)
		if !bucketSize.IsValid() {
			return nil, fmt.Errorf("invalid interval: %s", params.Interval)
		}
		return newSizedTimeFrame(from, to, bucketSize, loc)
	}

	return NewAutoTimeFrame(from, to, loc)
}

func (p *Parser) parseDateRange(params ParserParams, loc *time.Location) (time.Time, time.Time, error) {
	now := p.timeProvider.Now(loc)

	// Default to the last 30 days when no dates are specified
	defaultFrom := now.Truncate(24 * time.Hour).AddDate(0, 0, -30)
	defaultTo := now

	from, err := p.parseDateWithDefault(params.StartDate, defaultFrom, loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid 'start_date': %w", err)
	}

	to, err := p.parseDateWithDefault(params.EndDate, defaultTo, loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid 'end_date': %w", err)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must not be after end_date")
	}

	return from, to, nil
}

func (p *Parser) parseDateWithDefault(dateStr string, defaultDate time.Time, loc *time.Location, isEndDate bool) (time.Time, error) {
	if dateStr == "" {
		return defaultDate, nil
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}

	if !isEndDate {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc), nil
	}

	now := p.timeProvider.Now(loc)
	endOfDay := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 999999999, loc)
	if endOfDay.After(now) {
		// The requested end date is still in progress: include data up to
		// now plus the buffer, clamped to the requested date so future days
		// never appear in the series.
		bufferedTime := now.Add(TimeWindowBuffer)
		if bufferedTime.After(endOfDay) {
			return endOfDay, nil
		}
		return bufferedTime, nil
	}
	return endOfDay, nil
}
