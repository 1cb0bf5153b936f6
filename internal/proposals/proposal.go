package proposals

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Status represents the lifecycle stage of a proposal.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// IsTerminal reports whether no further status transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// ProposalNotFoundError represents an error when a proposal is not found
type ProposalNotFoundError struct {
	ProposalID uint
}

func (e *ProposalNotFoundError) Error() string {
	return fmt.Sprintf("proposal not found: %d", e.ProposalID)
}

// NewProposalNotFoundError creates a new ProposalNotFoundError
func NewProposalNotFoundError(id uint) *ProposalNotFoundError {
	return &ProposalNotFoundError{ProposalID: id}
}

// Proposal represents a sales proposal whose engagement is tracked
type Proposal struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint       `gorm:"index;not null" json:"workspace_id"`
	Title       string     `gorm:"not null" json:"title"`
	Status      Status     `gorm:"index;not null;default:'draft'" json:"status"`
	TotalValue  float64    `json:"total_value"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SentAt      *time.Time `json:"sent_at"`
	DecidedAt   *time.Time `json:"decided_at"`
}

// GetProposalOrNotFound retrieves a proposal by ID, returning a typed error
// when it does not exist. It accepts a transaction so lookups can run inside
// a larger write.
func GetProposalOrNotFound(tx *gorm.DB, id uint) (*Proposal, error) {
	var proposal Proposal
	if err := tx.First(&proposal, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewProposalNotFoundError(id)
		}
		return nil, fmt.Errorf("unexpected error querying proposal: %w", err)
	}
	return &proposal, nil
}

// GetProposalsByWorkspace retrieves all proposals belonging to a workspace
func GetProposalsByWorkspace(db *gorm.DB, workspaceID uint) ([]Proposal, error) {
	var result []Proposal
	if err := db.Where("workspace_id = ?", workspaceID).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get proposals for workspace %d: %w", workspaceID, err)
	}
	return result, nil
}

// CreateProposal creates a new proposal
func CreateProposal(db *gorm.DB, proposal *Proposal) error {
	now := time.Now().UTC()
	proposal.CreatedAt = now
	proposal.UpdatedAt = now
	if proposal.Status == "" {
		proposal.Status = StatusDraft
	}
	return db.Create(proposal).Error
}

// MarkSent transitions a draft proposal to sent and stamps sent_at.
func MarkSent(logger *slog.Logger, db *gorm.DB, id uint) error {
	now := time.Now().UTC()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Proposal{}).
			Where("id = ? AND status = ?", id, StatusDraft).
			Updates(map[string]interface{}{
				"status":     StatusSent,
				"sent_at":    now,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark proposal %d as sent: %w", id, result.Error)
		}
		return nil
	})
}

// MarkViewed transitions a sent proposal to viewed. The WHERE guard makes the
// transition one-directional: a proposal that has already moved past sent is
// left untouched, so repeated first-view races are harmless.
func MarkViewed(logger *slog.Logger, db *gorm.DB, id uint) error {
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Proposal{}).
			Where("id = ? AND status = ?", id, StatusSent).
			Updates(map[string]interface{}{
				"status":     StatusViewed,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark proposal %d as viewed: %w", id, result.Error)
		}
		if result.RowsAffected > 0 {
			logger.Info("Proposal transitioned to viewed", slog.Uint64("proposal_id", uint64(id)))
		}
		return nil
	})
}

// MarkDecided records a terminal accepted/rejected decision and stamps
// decided_at so time-to-close stays computable.
func MarkDecided(logger *slog.Logger, db *gorm.DB, id uint, status Status) error {
	if status != StatusAccepted && status != StatusRejected {
		return fmt.Errorf("invalid decision status: %s", status)
	}
	now := time.Now().UTC()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Proposal{}).
			Where("id = ? AND status IN ?", id, []Status{StatusSent, StatusViewed}).
			Updates(map[string]interface{}{
				"status":     status,
				"decided_at": now,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to record decision for proposal %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return NewProposalNotFoundError(id)
		}
		return nil
	})
}

// MarkExpired transitions an undecided proposal to expired.
func MarkExpired(logger *slog.Logger, db *gorm.DB, id uint) error {
	now := time.Now().UTC()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Proposal{}).
			Where("id = ? AND status IN ?", id, []Status{StatusSent, StatusViewed}).
			Updates(map[string]interface{}{
				"status":     StatusExpired,
				"decided_at": now,
				"updated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to expire proposal %d: %w", id, result.Error)
		}
		return nil
	})
}
