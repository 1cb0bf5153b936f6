package proposals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dealview/internal/proposals"
	"dealview/internal/testsupport"
)

func reload(t *testing.T, db *gorm.DB, id uint) proposals.Proposal {
	t.Helper()

	var proposal proposals.Proposal
	require.NoError(t, db.First(&proposal, id).Error)
	return proposal
}

func TestCreateProposalDefaultsToDraft(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Lifecycle Workspace")

	proposal := proposals.Proposal{WorkspaceID: workspace.ID, Title: "New Deal", TotalValue: 5000}
	require.NoError(t, proposals.CreateProposal(db, &proposal))

	assert.NotZero(t, proposal.ID)
	assert.Equal(t, proposals.StatusDraft, proposal.Status)
	assert.Nil(t, proposal.SentAt)
}

func TestMarkSent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	workspace := testsupport.CreateTestWorkspace(db, "Send Workspace")
	proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusDraft, 5000)

	require.NoError(t, proposals.MarkSent(logger, db, proposal.ID))

	updated := reload(t, db, proposal.ID)
	assert.Equal(t, proposals.StatusSent, updated.Status)
	require.NotNil(t, updated.SentAt)
}

func TestMarkViewedOnlyTransitionsFromSent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	workspace := testsupport.CreateTestWorkspace(db, "View Workspace")

	sent := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusSent, 5000)
	require.NoError(t, proposals.MarkViewed(logger, db, sent.ID))
	assert.Equal(t, proposals.StatusViewed, reload(t, db, sent.ID).Status)

	// A second view is a no-op, not an error
	require.NoError(t, proposals.MarkViewed(logger, db, sent.ID))
	assert.Equal(t, proposals.StatusViewed, reload(t, db, sent.ID).Status)

	// Terminal statuses never regress
	accepted := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusAccepted, 5000)
	require.NoError(t, proposals.MarkViewed(logger, db, accepted.ID))
	assert.Equal(t, proposals.StatusAccepted, reload(t, db, accepted.ID).Status)

	draft := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusDraft, 5000)
	require.NoError(t, proposals.MarkViewed(logger, db, draft.ID))
	assert.Equal(t, proposals.StatusDraft, reload(t, db, draft.ID).Status)
}

func TestMarkDecided(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	workspace := testsupport.CreateTestWorkspace(db, "Decision Workspace")

	t.Run("accepts a viewed proposal", func(t *testing.T) {
		proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusViewed, 5000)
		require.NoError(t, proposals.MarkDecided(logger, db, proposal.ID, proposals.StatusAccepted))

		updated := reload(t, db, proposal.ID)
		assert.Equal(t, proposals.StatusAccepted, updated.Status)
		require.NotNil(t, updated.DecidedAt)
	})

	t.Run("rejects a sent proposal", func(t *testing.T) {
		proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusSent, 5000)
		require.NoError(t, proposals.MarkDecided(logger, db, proposal.ID, proposals.StatusRejected))
		assert.Equal(t, proposals.StatusRejected, reload(t, db, proposal.ID).Status)
	})

	t.Run("refuses non-terminal decision statuses", func(t *testing.T) {
		proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusViewed, 5000)
		assert.Error(t, proposals.MarkDecided(logger, db, proposal.ID, proposals.StatusExpired))
		assert.Error(t, proposals.MarkDecided(logger, db, proposal.ID, proposals.StatusDraft))
	})

	t.Run("cannot decide a draft", func(t *testing.T) {
		proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusDraft, 5000)
		err := proposals.MarkDecided(logger, db, proposal.ID, proposals.StatusAccepted)
		require.Error(t, err)

		var notFoundErr *proposals.ProposalNotFoundError
		assert.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("cannot flip an existing decision", func(t *testing.T) {
		proposal := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusAccepted, 5000)
		err := proposals.MarkDecided(logger, db, proposal.ID, proposals.StatusRejected)
		require.Error(t, err)
		assert.Equal(t, proposals.StatusAccepted, reload(t, db, proposal.ID).Status)
	})
}

func TestMarkExpired(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	workspace := testsupport.CreateTestWorkspace(db, "Expiry Workspace")

	sent := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusSent, 5000)
	require.NoError(t, proposals.MarkExpired(logger, db, sent.ID))

	updated := reload(t, db, sent.ID)
	assert.Equal(t, proposals.StatusExpired, updated.Status)
	require.NotNil(t, updated.DecidedAt)

	// Decided proposals cannot expire
	accepted := testsupport.CreateTestProposal(t, db, workspace.ID, proposals.StatusAccepted, 5000)
	require.NoError(t, proposals.MarkExpired(logger, db, accepted.ID))
	assert.Equal(t, proposals.StatusAccepted, reload(t, db, accepted.ID).Status)
}

func TestGetProposalOrNotFound(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	_, err := proposals.GetProposalOrNotFound(db, 424242)
	require.Error(t, err)

	var notFoundErr *proposals.ProposalNotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	assert.Contains(t, err.Error(), "424242")
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, proposals.StatusAccepted.IsTerminal())
	assert.True(t, proposals.StatusRejected.IsTerminal())
	assert.True(t, proposals.StatusExpired.IsTerminal())
	assert.False(t, proposals.StatusViewed.IsTerminal())

	assert.True(t, proposals.StatusDraft.IsValid())
	assert.False(t, proposals.Status("negotiating").IsValid())
}
