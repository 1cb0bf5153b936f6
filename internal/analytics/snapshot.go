package analytics

import (
	"encoding/json"

	"dealview/internal/pkg/geoip"
	"dealview/internal/pkg/useragent"
	"dealview/internal/tracking"
)

// BuildSnapshot folds a proposal's views and events into its engagement
// snapshot. Empty inputs produce a zero-valued snapshot, never an error.
func BuildSnapshot(views []tracking.ProposalView, events []tracking.ProposalEvent, weights ScoreWeights) Snapshot {
	snapshot := Snapshot{
		TotalViews:        int64(len(views)),
		SectionEngagement: make(map[string]int64),
		DeviceBreakdown:   make(map[string]int64),
		BrowserBreakdown:  make(map[string]int64),
		CountryBreakdown:  make(map[string]int64),
	}

	uniqueIPs := make(map[string]bool, len(views))
	for _, view := range views {
		uniqueIPs[view.ViewerIP] = true

		snapshot.DeviceBreakdown[useragent.ClassifyDevice(view.UserAgent)]++
		snapshot.BrowserBreakdown[useragent.ClassifyBrowser(view.UserAgent)]++

		country := view.ViewerCountry
		if country == "" {
			country = geoip.UnknownCountry
		}
		snapshot.CountryBreakdown[country]++
	}
	snapshot.UniqueViewers = int64(len(uniqueIPs))
	snapshot.AvgTimeSpent = averageNonZeroTimeSpent(views)

	for _, event := range events {
		snapshot.HourlyActivity[event.CreatedAt.UTC().Hour()]++

		switch event.EventType {
		case tracking.EventTypeScroll:
			var payload tracking.ScrollPayload
			if err := json.Unmarshal([]byte(event.EventData), &payload); err != nil {
				continue
			}
			if payload.Depth > snapshot.MaxScrollDepth {
				snapshot.MaxScrollDepth = payload.Depth
			}
			if payload.Section != "" {
				snapshot.SectionEngagement[payload.Section]++
			}
		case tracking.EventTypeClick:
			var payload tracking.ClickPayload
			if err := json.Unmarshal([]byte(event.EventData), &payload); err != nil {
				continue
			}
			if payload.Section != "" {
				snapshot.SectionEngagement[payload.Section]++
			}
		}
	}

	snapshot.EngagementScore = EngagementScore(views, events, weights)
	snapshot.EngagementBand = BandForScore(snapshot.EngagementScore)

	return snapshot
}

// mergeSectionEngagement accumulates section counters across proposals for
// the workspace report.
func mergeSectionEngagement(dst map[string]int64, events []tracking.ProposalEvent) {
	for _, event := range events {
		var section string
		switch event.EventType {
		case tracking.EventTypeScroll:
			var payload tracking.ScrollPayload
			if err := json.Unmarshal([]byte(event.EventData), &payload); err != nil {
				continue
			}
			section = payload.Section
		case tracking.EventTypeClick:
			var payload tracking.ClickPayload
			if err := json.Unmarshal([]byte(event.EventData), &payload); err != nil {
				continue
			}
			section = payload.Section
		}
		if section != "" {
			dst[section]++
		}
	}
}
