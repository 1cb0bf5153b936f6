package workspaces

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// WorkspaceNotFoundError represents an error when a workspace is not found
type WorkspaceNotFoundError struct {
	WorkspaceID uint
}

func (e *WorkspaceNotFoundError) Error() string {
	return fmt.Sprintf("workspace not found: %d", e.WorkspaceID)
}

// NewWorkspaceNotFoundError creates a new WorkspaceNotFoundError
func NewWorkspaceNotFoundError(id uint) *WorkspaceNotFoundError {
	return &WorkspaceNotFoundError{WorkspaceID: id}
}

// Workspace represents a tenant owning proposals
type Workspace struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member links a user to a workspace
type Member struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint      `gorm:"uniqueIndex:idx_workspace_user;not null" json:"workspace_id"`
	UserID      uint      `gorm:"uniqueIndex:idx_workspace_user;not null" json:"user_id"`
	Role        string    `gorm:"default:'member'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetWorkspaceOrNotFound retrieves a workspace by ID, returning a typed error
// when it does not exist.
func GetWorkspaceOrNotFound(db *gorm.DB, id uint) (*Workspace, error) {
	var workspace Workspace
	if err := db.First(&workspace, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewWorkspaceNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying workspace: %w", err)
	}
	return &workspace, nil
}

// CreateWorkspace creates a new workspace
func CreateWorkspace(db *gorm.DB, workspace *Workspace) error {
	workspace.CreatedAt = time.Now().UTC()
	return db.Create(workspace).Error
}

// AddMember adds a user to a workspace
func AddMember(db *gorm.DB, member *Member) error {
	member.CreatedAt = time.Now().UTC()
	if member.Role == "" {
		member.Role = "member"
	}
	return db.Create(member).Error
}

// IsMember reports whether the user belongs to the workspace. It is the
// yes/no gate checked before any analytics query.
func IsMember(db *gorm.DB, workspaceID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&Member{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check workspace membership: %w", err)
	}
	return count > 0, nil
}
