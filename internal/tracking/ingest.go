package tracking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"dealview/internal/pkg/geoip"
	"dealview/internal/proposals"
)

// RecordEventInput defines the input required to record a viewer interaction.
type RecordEventInput struct {
	ProposalID uint
	SessionID  string
	EventType  EventType
	EventData  json.RawMessage
	UserAgent  string
	IPAddress  string
}

// RecordEvent validates and stores one interaction event. page_view events
// additionally maintain the deduplicated ProposalView and drive the
// sent-to-viewed status transition; time_spent events accumulate into the
// matching view.
func RecordEvent(dbManager cartridge.DBManager, logger *slog.Logger, input *RecordEventInput) error {
	if input.ProposalID == 0 {
		return NewValidationError("proposal_id is required")
	}
	if input.SessionID == "" {
		return NewValidationError("session_id is required")
	}
	if input.EventType == "" {
		return NewValidationError("event_type is required")
	}
	if !input.EventType.IsValid() {
		return NewValidationError("unknown event type: %s", input.EventType)
	}
	if input.UserAgent == "" {
		input.UserAgent = "Unknown User Agent"
	}

	payload, err := decodePayload(input.EventType, input.EventData)
	if err != nil {
		logger.Warn("Rejected event with invalid payload",
			slog.Uint64("proposal_id", uint64(input.ProposalID)),
			slog.String("event_type", string(input.EventType)),
			slog.Any("error", err))
		return err
	}

	db := dbManager.GetConnection()
	if _, err := proposals.GetProposalOrNotFound(db, input.ProposalID); err != nil {
		return err
	}

	normalized, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}

	now := time.Now().UTC()
	event := &ProposalEvent{
		ProposalID: input.ProposalID,
		SessionID:  input.SessionID,
		EventType:  input.EventType,
		EventData:  string(normalized),
		UserAgent:  input.UserAgent,
		IPAddress:  input.IPAddress,
		CreatedAt:  now,
	}

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to store proposal event", slog.Any("error", err))
		return fmt.Errorf("failed to store proposal event: %w", err)
	}

	switch input.EventType {
	case EventTypePageView:
		if err := ensureView(db, logger, input, now); err != nil {
			return err
		}
		if err := proposals.MarkViewed(logger, db, input.ProposalID); err != nil {
			return err
		}
	case EventTypeTimeSpent:
		seconds := payload.(TimeSpentPayload).Seconds
		if err := accumulateTimeSpent(db, logger, input, seconds, now); err != nil {
			return err
		}
	}

	return nil
}

// ensureView inserts the per-session view row. A repeat page_view for the
// same session is a no-op: the unique constraint on (proposal_id, session_id)
// absorbs it, and last_viewed_at only moves when time_spent accumulates.
func ensureView(db *gorm.DB, logger *slog.Logger, input *RecordEventInput, now time.Time) error {
	country := geoip.CountryFromIP(input.IPAddress)

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(`
			INSERT INTO proposal_views
				(proposal_id, session_id, viewer_ip, viewer_country, user_agent, time_spent, created_at, last_viewed_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)
			ON CONFLICT(proposal_id, session_id) DO NOTHING
		`, input.ProposalID, input.SessionID, input.IPAddress, country, input.UserAgent, now, now).Error
	})
	if err != nil {
		logger.Error("Failed to upsert proposal view",
			slog.Uint64("proposal_id", uint64(input.ProposalID)),
			slog.Any("error", err))
		return fmt.Errorf("failed to upsert proposal view: %w", err)
	}
	return nil
}

// accumulateTimeSpent adds a non-negative seconds delta to the session's
// view, creating the row first if the session never sent a page_view. The
// additive update keeps time_spent monotonically non-decreasing.
func accumulateTimeSpent(db *gorm.DB, logger *slog.Logger, input *RecordEventInput, seconds int64, now time.Time) error {
	country := geoip.CountryFromIP(input.IPAddress)

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO proposal_views
				(proposal_id, session_id, viewer_ip, viewer_country, user_agent, time_spent, created_at, last_viewed_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)
			ON CONFLICT(proposal_id, session_id) DO NOTHING
		`, input.ProposalID, input.SessionID, input.IPAddress, country, input.UserAgent, now, now).Error; err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE proposal_views
			SET time_spent = time_spent + ?, last_viewed_at = ?
			WHERE proposal_id = ? AND session_id = ?
		`, seconds, now, input.ProposalID, input.SessionID).Error
	})
	if err != nil {
		logger.Error("Failed to accumulate time spent",
			slog.Uint64("proposal_id", uint64(input.ProposalID)),
			slog.Any("error", err))
		return fmt.Errorf("failed to accumulate time spent: %w", err)
	}
	return nil
}
