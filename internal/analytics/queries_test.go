package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealview/internal/analytics"
	"dealview/internal/proposals"
	"dealview/internal/testsupport"
	"dealview/internal/timeframe"
	"dealview/internal/tracking"
)

func currentWeekFrame(t *testing.T) *timeframe.TimeFrame {
	t.Helper()

	now := time.Now().UTC()
	tf, err := timeframe.NewTimeFrame(now.AddDate(0, 0, -7), now, timeframe.BucketSizeDay, time.UTC)
	require.NoError(t, err)
	return tf
}

func TestGetProposalSnapshot(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Snapshot Workspace")
	proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusViewed, 10000)

	now := time.Now().UTC()
	testsupport.CreateTestView(t, db, proposal.ID, "session-1", "203.0.113.1", chromeDesktopUA, 60)
	testsupport.CreateTestView(t, db, proposal.ID, "session-2", "203.0.113.2", iphoneSafariUA, 0)
	testsupport.CreateTestEvent(t, db, proposal.ID, "session-1", tracking.EventTypeScroll, map[string]any{"depth": 70, "section": "pricing"}, now)

	snapshot, err := analytics.GetProposalSnapshot(context.Background(), db, proposal.ID, analytics.DefaultScoreWeights())
	require.NoError(t, err)

	assert.EqualValues(t, 2, snapshot.TotalViews)
	assert.EqualValues(t, 2, snapshot.UniqueViewers)
	assert.InDelta(t, 60.0, snapshot.AvgTimeSpent, 0.0001)
	assert.Equal(t, 70, snapshot.MaxScrollDepth)
	assert.EqualValues(t, 1, snapshot.SectionEngagement["pricing"])
	assert.EqualValues(t, 1, snapshot.DeviceBreakdown["desktop"])
	assert.EqualValues(t, 1, snapshot.DeviceBreakdown["mobile"])
	assert.Greater(t, snapshot.EngagementScore, 0.0)
}

func TestGetProposalSnapshotWithoutData(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Empty Snapshot Workspace")
	proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusSent, 10000)

	snapshot, err := analytics.GetProposalSnapshot(context.Background(), db, proposal.ID, analytics.DefaultScoreWeights())
	require.NoError(t, err)

	assert.EqualValues(t, 0, snapshot.TotalViews)
	assert.Equal(t, 0.0, snapshot.EngagementScore)
	assert.Equal(t, analytics.BandLow, snapshot.EngagementBand)
}

func TestGetWorkspaceReport(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Report Workspace")

	testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusDraft, 1000)
	testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusSent, 2000)
	accepted := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusAccepted, 20000)
	testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusAccepted, 10000)
	testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusRejected, 5000)

	now := time.Now().UTC()
	testsupport.CreateTestView(t, db, accepted.ID, "session-1", "203.0.113.1", chromeDesktopUA, 120)
	testsupport.CreateTestView(t, db, accepted.ID, "session-2", "203.0.113.1", iphoneSafariUA, 30)
	testsupport.CreateTestEvent(t, db, accepted.ID, "session-1", tracking.EventTypeClick, map[string]any{"target": "expand", "section": "terms"}, now)
	testsupport.CreateTestEvent(t, db, accepted.ID, "session-1", tracking.EventTypePageView, map[string]any{"page": 1}, now)

	report, err := analytics.GetWorkspaceReport(context.Background(), db, analytics.WorkspaceScopedQueryParams{
		WorkspaceID: workspace.ID,
		TimeFrame:   currentWeekFrame(t),
	}, analytics.DefaultScoreWeights())
	require.NoError(t, err)

	assert.EqualValues(t, 5, report.Metrics.TotalProposals)
	assert.EqualValues(t, 2, report.Metrics.TotalViews)
	assert.EqualValues(t, 1, report.Metrics.UniqueViewers)
	assert.InDelta(t, 2.0/3.0, report.Metrics.WinRate, 0.0001)
	assert.InDelta(t, 30000.0, report.Metrics.TotalRevenue, 0.0001)
	assert.InDelta(t, 15000.0, report.Metrics.AvgDealSize, 0.0001)

	assert.EqualValues(t, 1, report.ProposalsByStatus["draft"])
	assert.EqualValues(t, 2, report.ProposalsByStatus["accepted"])

	require.Len(t, report.ConversionFunnel, 3)
	assert.EqualValues(t, 4, report.ConversionFunnel[0].Count)
	assert.EqualValues(t, 3, report.ConversionFunnel[1].Count)
	assert.EqualValues(t, 2, report.ConversionFunnel[2].Count)

	assert.EqualValues(t, 1, report.SectionEngagement["terms"])
	assert.Len(t, report.RecentActivity, 2)

	// All five proposals were created just now, in the last bucket
	require.NotEmpty(t, report.ProposalsOverTime)
	assert.Equal(t, 5, report.ProposalsOverTime[len(report.ProposalsOverTime)-1].Count)
}

func TestGetWorkspaceReportCancelledContext(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Timed Out Workspace")
	testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusSent, 2000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := analytics.GetWorkspaceReport(ctx, db, analytics.WorkspaceScopedQueryParams{
		WorkspaceID: workspace.ID,
		TimeFrame:   currentWeekFrame(t),
	}, analytics.DefaultScoreWeights())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetWorkspaceReportEmptyWorkspace(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Quiet Workspace")

	report, err := analytics.GetWorkspaceReport(context.Background(), db, analytics.WorkspaceScopedQueryParams{
		WorkspaceID: workspace.ID,
		TimeFrame:   currentWeekFrame(t),
	}, analytics.DefaultScoreWeights())
	require.NoError(t, err)

	assert.EqualValues(t, 0, report.Metrics.TotalProposals)
	assert.Equal(t, 0.0, report.Metrics.WinRate)
	assert.Empty(t, report.RecentActivity)
	assert.NotEmpty(t, report.ProposalsOverTime)
}
