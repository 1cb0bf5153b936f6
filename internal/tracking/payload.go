package tracking

import (
	"encoding/json"
	"fmt"
)

// ValidationError represents a client-caused rejection of a tracking request
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a new ValidationError
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PageViewPayload carries optional page context for a page_view event.
type PageViewPayload struct {
	Page int `json:"page,omitempty"`
}

// TimeSpentPayload carries the seconds delta for a time_spent event.
type TimeSpentPayload struct {
	Seconds int64 `json:"seconds"`
}

// ClickPayload identifies what was clicked.
type ClickPayload struct {
	Target  string `json:"target"`
	Section string `json:"section,omitempty"`
}

// DownloadPayload identifies the downloaded attachment.
type DownloadPayload struct {
	FileName string `json:"file_name"`
}

// ScrollPayload carries scroll progress as a 0-100 percentage.
type ScrollPayload struct {
	Depth   int    `json:"depth"`
	Section string `json:"section,omitempty"`
}

// decodePayload parses event_data according to the event type. Decoding is
// fail-closed: a malformed or out-of-range payload rejects the whole event
// instead of storing it with garbage attached.
func decodePayload(eventType EventType, raw []byte) (interface{}, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch eventType {
	case EventTypePageView:
		var p PageViewPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, NewValidationError("invalid page_view payload: %v", err)
		}
		if p.Page < 0 {
			return nil, NewValidationError("page_view page must not be negative, got %d", p.Page)
		}
		return p, nil

	case EventTypeTimeSpent:
		var p TimeSpentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, NewValidationError("invalid time_spent payload: %v", err)
		}
		if p.Seconds < 0 {
			return nil, NewValidationError("time_spent seconds must not be negative, got %d", p.Seconds)
		}
		return p, nil

	case EventTypeClick:
		var p ClickPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, NewValidationError("invalid click payload: %v", err)
		}
		if p.Target == "" {
			return nil, NewValidationError("click target is required")
		}
		return p, nil

	case EventTypeDownload:
		var p DownloadPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, NewValidationError("invalid download payload: %v", err)
		}
		if p.FileName == "" {
			return nil, NewValidationError("download file_name is required")
		}
		return p, nil

	case EventTypeScroll:
		var p ScrollPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, NewValidationError("invalid scroll payload: %v", err)
		}
		if p.Depth < 0 || p.Depth > 100 {
			return nil, NewValidationError("scroll depth must be between 0 and 100, got %d", p.Depth)
		}
		return p, nil
	}

	return nil, NewValidationError("unknown event type: %s", eventType)
}
