// Package analytics computes engagement and pipeline statistics for
// proposals. The aggregation itself is pure: it folds deduplicated views and
// raw events fetched by queries.go into derived snapshots and reports, and
// never writes anything back.
//
// The package is organized into focused modules:
//   - snapshot.go: per-proposal engagement snapshot
//   - score.go: engagement scoring and banding
//   - funnel.go: status counts, conversion funnel and deal outcomes
//   - timeseries.go: bucketed proposal and revenue series
//   - queries.go: store access and report orchestration
package analytics

import (
	"time"

	"dealview/internal/timeframe"
	"dealview/internal/tracking"
)

// WorkspaceScopedQueryParams scopes a report query to one workspace and
// time frame.
type WorkspaceScopedQueryParams struct {
	WorkspaceID uint
	TimeFrame   *timeframe.TimeFrame
}

// Snapshot is the derived per-proposal engagement summary. It is computed on
// demand and never stored.
type Snapshot struct {
	TotalViews        int64            `json:"total_views"`
	UniqueViewers     int64            `json:"unique_viewers"`
	AvgTimeSpent      float64          `json:"avg_time_spent"`
	MaxScrollDepth    int              `json:"max_scroll_depth"`
	SectionEngagement map[string]int64 `json:"section_engagement"`
	DeviceBreakdown   map[string]int64 `json:"device_breakdown"`
	BrowserBreakdown  map[string]int64 `json:"browser_breakdown"`
	CountryBreakdown  map[string]int64 `json:"country_breakdown"`
	HourlyActivity    [24]int64        `json:"hourly_activity"`
	EngagementScore   float64          `json:"engagement_score"`
	EngagementBand    string           `json:"engagement_band"`
}

// ActivityEntry is one row of the workspace activity feed.
type ActivityEntry struct {
	ProposalID uint   `json:"proposal_id"`
	EventType  string `json:"event_type"`
	SessionID  string `json:"session_id"`
	OccurredAt string `json:"occurred_at"`
}

// WorkspaceMetrics summarizes the proposal pipeline of a workspace.
type WorkspaceMetrics struct {
	TotalProposals     int64   `json:"total_proposals"`
	TotalViews         int64   `json:"total_views"`
	UniqueViewers      int64   `json:"unique_viewers"`
	WinRate            float64 `json:"win_rate"`
	TotalRevenue       float64 `json:"total_revenue"`
	AvgDealSize        float64 `json:"avg_deal_size"`
	AvgTimeToCloseDays float64 `json:"avg_time_to_close_days"`
	ProposalsTrend     float64 `json:"proposals_trend"`
}

// WorkspaceReport is the full workspace analytics response. Derived, never
// stored.
type WorkspaceReport struct {
	Metrics           WorkspaceMetrics     `json:"metrics"`
	ProposalsByStatus map[string]int64     `json:"proposals_by_status"`
	ConversionFunnel  []FunnelStage        `json:"conversion_funnel"`
	ProposalsOverTime []timeframe.DateStat `json:"proposals_over_time"`
	RevenueOverTime   []timeframe.DateStat `json:"revenue_over_time"`
	SectionEngagement map[string]int64     `json:"section_engagement"`
	RecentActivity    []ActivityEntry      `json:"recent_activity"`
}

func newActivityEntry(event tracking.ProposalEvent) ActivityEntry {
	return ActivityEntry{
		ProposalID: event.ProposalID,
		EventType:  string(event.EventType),
		SessionID:  event.SessionID,
		OccurredAt: event.CreatedAt.UTC().Format(time.RFC3339),
	}
}
