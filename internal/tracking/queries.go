package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// GetViewsByProposal retrieves all deduplicated views for a proposal.
func GetViewsByProposal(ctx context.Context, db *gorm.DB, proposalID uint) ([]ProposalView, error) {
	var views []ProposalView
	err := db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get views for proposal %d: %w", proposalID, err)
	}
	return views, nil
}

// GetEventsByProposal retrieves all raw events for a proposal.
func GetEventsByProposal(ctx context.Context, db *gorm.DB, proposalID uint) ([]ProposalEvent, error) {
	var events []ProposalEvent
	err := db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get events for proposal %d: %w", proposalID, err)
	}
	return events, nil
}

// GetViewsByProposalIDs retrieves views across a set of proposals.
func GetViewsByProposalIDs(ctx context.Context, db *gorm.DB, proposalIDs []uint) ([]ProposalView, error) {
	if len(proposalIDs) == 0 {
		return []ProposalView{}, nil
	}
	var views []ProposalView
	err := db.WithContext(ctx).
		Where("proposal_id IN ?", proposalIDs).
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get views for proposals: %w", err)
	}
	return views, nil
}

// GetEventsByProposalIDs retrieves raw events across a set of proposals.
func GetEventsByProposalIDs(ctx context.Context, db *gorm.DB, proposalIDs []uint) ([]ProposalEvent, error) {
	if len(proposalIDs) == 0 {
		return []ProposalEvent{}, nil
	}
	var events []ProposalEvent
	err := db.WithContext(ctx).
		Where("proposal_id IN ?", proposalIDs).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get events for proposals: %w", err)
	}
	return events, nil
}

// GetRecentEvents retrieves the newest events across a set of proposals for
// the activity feed.
func GetRecentEvents(ctx context.Context, db *gorm.DB, proposalIDs []uint, limit int) ([]ProposalEvent, error) {
	if len(proposalIDs) == 0 {
		return []ProposalEvent{}, nil
	}
	var events []ProposalEvent
	err := db.WithContext(ctx).
		Where("proposal_id IN ?", proposalIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	return events, nil
}

// PurgeEventsOlderThan deletes raw events created before the cutoff. The
// deduplicated views survive, so historical analytics stay intact.
func PurgeEventsOlderThan(logger *slog.Logger, db *gorm.DB, cutoff time.Time) (int64, error) {
	var deleted int64
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Where("created_at < ?", cutoff).Delete(&ProposalEvent{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge events older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return deleted, nil
}
