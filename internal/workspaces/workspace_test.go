package workspaces_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealview/internal/testsupport"
	"dealview/internal/workspaces"
)

func TestIsMember(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Membership Workspace")
	testsupport.CreateTestMember(t, db, workspace.ID, 7)

	member, err := workspaces.IsMember(db, workspace.ID, 7)
	require.NoError(t, err)
	assert.True(t, member)

	member, err = workspaces.IsMember(db, workspace.ID, 99)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestGetWorkspaceOrNotFound(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	created := testsupport.CreateTestWorkspace(db, "Lookup Workspace")

	workspace, err := workspaces.GetWorkspaceOrNotFound(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lookup Workspace", workspace.Name)

	_, err = workspaces.GetWorkspaceOrNotFound(db, 424242)
	require.Error(t, err)

	var notFoundErr *workspaces.WorkspaceNotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestAddMemberEnforcesUniqueness(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	workspace := testsupport.CreateTestWorkspace(db, "Unique Member Workspace")

	require.NoError(t, workspaces.AddMember(db, &workspaces.Member{WorkspaceID: workspace.ID, UserID: 7, Role: "member"}))
	assert.Error(t, workspaces.AddMember(db, &workspaces.Member{WorkspaceID: workspace.ID, UserID: 7, Role: "member"}))
}
