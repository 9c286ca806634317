// Package bridge is the loosely typed surface page scripts call. Arguments
// arrive as whatever the caller passed; anything of the wrong shape makes
// the call return false instead of failing loudly.
package bridge

import (
	"errors"
	"io"
	"log"

	"github.com/vincentbai/monotrack/internal/dom"
	"github.com/vincentbai/monotrack/internal/tracker"
)

var errNotString = errors.New("argument is not a string")

// API adapts a Tracker for untyped callers.
type API struct {
	tracker *tracker.Tracker
	logger  *log.Logger
}

// New wraps t. A nil logger discards debug output.
func New(t *tracker.Tracker, logger *log.Logger) *API {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &API{tracker: t, logger: logger}
}

// Tracker returns the wrapped tracker.
func (a *API) Tracker() *tracker.Tracker {
	return a.tracker
}

func (a *API) fail(op string, err error) bool {
	a.logger.Printf("DEBUG %s: %v", op, err)
	return false
}

func (a *API) Initialize() bool {
	if err := a.tracker.Initialize(); err != nil {
		return a.fail("initialize", err)
	}
	return true
}

// AddObject returns the bound element, or false. events and action may be
// nil to fall back to the element's attributes.
func (a *API) AddObject(el, events, action any) any {
	element, ok := el.(dom.Element)
	if !ok {
		return a.fail("addObject", tracker.ErrNoElement)
	}
	eventList, ok := optionalString(events)
	if !ok {
		return a.fail("addObject", tracker.ErrNoEvents)
	}
	actionName, ok := optionalString(action)
	if !ok {
		return a.fail("addObject", tracker.ErrNoAction)
	}
	bound, err := a.tracker.AddObject(element, eventList, actionName)
	if err != nil {
		return a.fail("addObject", err)
	}
	return bound
}

func optionalString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	default:
		return "", false
	}
}

// AddTracker accepts a tracker.Func or a plain func(string).
func (a *API) AddTracker(fn any) bool {
	var f tracker.Func
	switch v := fn.(type) {
	case tracker.Func:
		f = v
	case func(string):
		f = v
	}
	if err := a.tracker.AddTracker(f); err != nil {
		return a.fail("addTracker", err)
	}
	return true
}

func (a *API) Track(action any) bool {
	name, ok := action.(string)
	if !ok {
		return a.fail("track", errNotString)
	}
	if err := a.tracker.Track(name); err != nil {
		return a.fail("track", err)
	}
	return true
}

func (a *API) SetData(name, value any) bool {
	key, ok := name.(string)
	if !ok {
		return a.fail("setData", errNotString)
	}
	a.tracker.SetData(key, value)
	return true
}

// GetData returns the stored value, or false when name is not a string or
// nothing is stored under it.
func (a *API) GetData(name any) any {
	key, ok := name.(string)
	if !ok {
		return a.fail("getData", errNotString)
	}
	value, ok := a.tracker.GetData(key)
	if !ok {
		return false
	}
	return value
}

// DetectCallTracking returns the detected number, or false.
func (a *API) DetectCallTracking(query, cookie any) any {
	q, _ := query.(string)
	c, _ := cookie.(string)
	value, ok := a.tracker.DetectCallTracking(q, c)
	if !ok {
		return false
	}
	return value
}

// PageHide handles the window's pagehide event. A page entering the
// back/forward cache keeps its tracker; it comes back live on pageshow.
func (a *API) PageHide(persisted bool) bool {
	if persisted {
		return false
	}
	a.tracker.Close()
	return true
}
