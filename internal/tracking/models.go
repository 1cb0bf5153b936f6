package tracking

import "time"

// EventType represents the kind of viewer interaction being recorded.
type EventType string

const (
	EventTypePageView  EventType = "page_view"
	EventTypeTimeSpent EventType = "time_spent"
	EventTypeClick     EventType = "click"
	EventTypeDownload  EventType = "download"
	EventTypeScroll    EventType = "scroll"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypePageView, EventTypeTimeSpent, EventTypeClick, EventTypeDownload, EventTypeScroll:
		return true
	}
	return false
}

// ProposalEvent is one raw viewer interaction. Rows are append-only; nothing
// updates them after insert.
type ProposalEvent struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProposalID uint      `gorm:"index:idx_event_proposal_created;not null" json:"proposal_id"`
	SessionID  string    `gorm:"index;size:64;not null" json:"session_id"`
	EventType  EventType `gorm:"index;not null" json:"event_type"`
	EventData  string    `gorm:"type:text" json:"event_data"`
	UserAgent  string    `json:"user_agent"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `gorm:"index:idx_event_proposal_created;not null" json:"created_at"`
}

// ProposalView is the deduplicated per-session view record. The unique index
// over (proposal_id, session_id) is the dedup guarantee: concurrent first
// views race into the same row. TimeSpent only ever grows.
type ProposalView struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProposalID    uint      `gorm:"uniqueIndex:idx_view_proposal_session;not null" json:"proposal_id"`
	SessionID     string    `gorm:"uniqueIndex:idx_view_proposal_session;size:64;not null" json:"session_id"`
	ViewerIP      string    `gorm:"index" json:"viewer_ip"`
	ViewerCountry string    `json:"viewer_country"`
	UserAgent     string    `json:"user_agent"`
	TimeSpent     int64     `gorm:"not null;default:0" json:"time_spent"`
	CreatedAt     time.Time `json:"created_at"`
	LastViewedAt  time.Time `json:"last_viewed_at"`
}
