package models

import (
	"time"

	"github.com/google/uuid"
)

// Action is one tracked action reported by a page.
type Action struct {
	ID     string         `json:"id"`
	TSUTC  int64          `json:"ts_utc"`
	TSISO  string         `json:"ts_iso"`
	URL    string         `json:"url"`
	Title  *string        `json:"title"` // nullable
	Action string         `json:"action"`
	CTN    string         `json:"ctn,omitempty"`
	Data   map[string]any `json:"data"` // arbitrary JSON, e.g. order data from setData
}

// NewAction stamps an action with a fresh id and the given time.
func NewAction(url, action string, at time.Time) Action {
	at = at.UTC()
	return Action{
		ID:     uuid.NewString(),
		TSUTC:  at.UnixMilli(),
		TSISO:  at.Format(time.RFC3339),
		URL:    url,
		Action: action,
		Data:   map[string]any{},
	}
}
