package analytics

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"dealview/internal/config"
	"dealview/internal/pkg/async"
	"dealview/internal/proposals"
	"dealview/internal/tracking"
)

const recentActivityLimit = 20

// ScoreWeightsFromConfig reads the configured engagement weighting.
func ScoreWeightsFromConfig(cfg *config.Config) ScoreWeights {
	views, timeSpent, diversity := cfg.ScoreWeights()
	return ScoreWeights{Views: views, Time: timeSpent, Diversity: diversity}
}

// GetProposalSnapshot loads a proposal's views and events and folds them
// into a snapshot. Either fetch failing fails the whole computation; a
// partial snapshot is worse than none.
func GetProposalSnapshot(ctx context.Context, db *gorm.DB, proposalID uint, weights ScoreWeights) (*Snapshot, error) {
	views, err := tracking.GetViewsByProposal(ctx, db, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load views for snapshot: %w", err)
	}

	events, err := tracking.GetEventsByProposal(ctx, db, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for snapshot: %w", err)
	}

	snapshot := BuildSnapshot(views, events, weights)
	return &snapshot, nil
}

// GetWorkspaceReport assembles the full workspace analytics report. All
// fetches must succeed: any failure aborts the report rather than returning
// half-populated numbers.
func GetWorkspaceReport(ctx context.Context, db *gorm.DB, params WorkspaceScopedQueryParams, weights ScoreWeights) (*WorkspaceReport, error) {
	props, err := proposals.GetProposalsByWorkspace(db.WithContext(ctx), params.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposals for report: %w", err)
	}

	proposalIDs := make([]uint, len(props))
	for i, p := range props {
		proposalIDs[i] = p.ID
	}

	tasks := []async.Task{
		{
			Name: "views",
			Execute: func() (interface{}, error) {
				return tracking.GetViewsByProposalIDs(ctx, db, proposalIDs)
			},
		},
		{
			Name: "events",
			Execute: func() (interface{}, error) {
				return tracking.GetEventsByProposalIDs(ctx, db, proposalIDs)
			},
		},
		{
			Name: "recentActivity",
			Execute: func() (interface{}, error) {
				return tracking.GetRecentEvents(ctx, db, proposalIDs, recentActivityLimit)
			},
		},
	}

	pool := async.NewPool(len(tasks))
	results := pool.Execute(ctx, tasks)

	if len(results) != len(tasks) {
		return nil, fmt.Errorf("report query cancelled: %w", ctx.Err())
	}
	for name, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to load %s for report: %w", name, result.Err)
		}
	}

	views := results["views"].Data.([]tracking.ProposalView)
	events := results["events"].Data.([]tracking.ProposalEvent)
	recentEvents := results["recentActivity"].Data.([]tracking.ProposalEvent)

	uniqueIPs := make(map[string]bool, len(views))
	for _, view := range views {
		uniqueIPs[view.ViewerIP] = true
	}

	proposalsOverTime := ProposalsOverTime(params.TimeFrame, props)

	report := &WorkspaceReport{
		Metrics: WorkspaceMetrics{
			TotalProposals:     int64(len(props)),
			TotalViews:         int64(len(views)),
			UniqueViewers:      int64(len(uniqueIPs)),
			WinRate:            WinRate(props),
			TotalRevenue:       TotalRevenue(props),
			AvgDealSize:        AvgDealSize(props),
			AvgTimeToCloseDays: AvgTimeToCloseDays(props),
			ProposalsTrend:     params.TimeFrame.CalculateTrend(proposalsOverTime),
		},
		ProposalsByStatus: CountByStatus(props),
		ConversionFunnel:  BuildConversionFunnel(props),
		ProposalsOverTime: proposalsOverTime,
		RevenueOverTime:   RevenueOverTime(params.TimeFrame, props),
		SectionEngagement: make(map[string]int64),
		RecentActivity:    make([]ActivityEntry, 0, len(recentEvents)),
	}

	mergeSectionEngagement(report.SectionEngagement, events)

	for _, event := range recentEvents {
		report.RecentActivity = append(report.RecentActivity, newActivityEntry(event))
	}

	return report, nil
}
