//go:build js && wasm

package main

import (
	"syscall/js"
	"time"

	"github.com/vincentbai/monotrack/internal/integrations"
	"github.com/vincentbai/monotrack/internal/tracker"
)

func loadedAnalytics() integrations.Analytics {
	global := js.Global()
	switch {
	case global.Get("gtag").Type() == js.TypeFunction:
		return integrations.AnalyticsGtag
	case global.Get("ga").Type() == js.TypeFunction:
		return integrations.AnalyticsUniversal
	case global.Get("_gaq").Type() == js.TypeObject:
		return integrations.AnalyticsClassic
	default:
		return integrations.AnalyticsNone
	}
}

// googleAnalytics reports the action as a virtual page view through
// whichever Google Analytics API the page has loaded.
func googleAnalytics(action string) {
	cmd, ok := integrations.PageView(loadedAnalytics(), action)
	if !ok {
		return
	}
	if cmd.Method == "" {
		js.Global().Call(cmd.Global, cmd.Args...)
		return
	}
	js.Global().Get(cmd.Global).Call(cmd.Method, cmd.Args...)
}

// sendBeacon posts each action to the agent with navigator.sendBeacon,
// which survives page unloads. Delivery is best effort.
func sendBeacon(t *tracker.Tracker, endpoint string) tracker.Func {
	return func(name string) {
		navigator := js.Global().Get("navigator")
		if navigator.Get("sendBeacon").Type() != js.TypeFunction {
			return
		}
		page := integrations.Page{
			URL:   js.Global().Get("location").Get("href").String(),
			Title: js.Global().Get("document").Get("title").String(),
		}
		body, err := integrations.BeaconPayload(t, page, name, time.Now())
		if err != nil {
			return
		}
		navigator.Call("sendBeacon", endpoint, string(body))
	}
}
