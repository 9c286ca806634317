// Package integrations builds what the in-page trackers send: Google
// Analytics page-view calls and the beacon payload posted to the agent.
package integrations

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vincentbai/monotrack/internal/models"
	"github.com/vincentbai/monotrack/internal/tracker"
)

// Analytics names a Google Analytics API a page may have loaded.
type Analytics int

const (
	AnalyticsNone      Analytics = iota
	AnalyticsGtag                // gtag.js
	AnalyticsUniversal           // analytics.js, window.ga
	AnalyticsClassic             // ga.js, window._gaq
)

// Command is a call on a page global. An empty Method calls the global
// itself.
type Command struct {
	Global string
	Method string
	Args   []any
}

// PageView returns the call that reports action as a virtual page view.
func PageView(kind Analytics, action string) (Command, bool) {
	switch kind {
	case AnalyticsGtag:
		return Command{Global: "gtag", Args: []any{"event", "page_view", map[string]any{"page_path": action}}}, true
	case AnalyticsUniversal:
		return Command{Global: "ga", Args: []any{"send", "pageview", action}}, true
	case AnalyticsClassic:
		return Command{Global: "_gaq", Method: "push", Args: []any{[]any{"_trackPageview", action}}}, true
	default:
		return Command{}, false
	}
}

// Page is what the browser knows about the current page.
type Page struct {
	URL   string
	Title string
}

// BeaconPayload encodes action as the JSON body the agent's /actions
// endpoint accepts, tagged with the tracker's instance id and active CTN.
func BeaconPayload(t *tracker.Tracker, page Page, action string, at time.Time) ([]byte, error) {
	record := models.NewAction(page.URL, action, at)
	if page.Title != "" {
		title := page.Title
		record.Title = &title
	}
	if value, ok := t.CTN(); ok {
		record.CTN = value
	}
	record.Data["instance"] = t.ID()

	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal beacon: %w", err)
	}
	return body, nil
}
