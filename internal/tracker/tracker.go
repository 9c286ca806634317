// Package tracker binds page elements to named actions and forwards those
// actions to registered tracker functions. It also owns the page's call
// tracking number and a small key/value store for caller payloads.
//
// A Tracker lives for one page load: create it with New when the document
// is ready, call Initialize once, and Close it on navigation.
package tracker

import (
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vincentbai/monotrack/internal/ctn"
	"github.com/vincentbai/monotrack/internal/dom"
)

// Func receives every tracked action, typically as a page-view style
// identifier for an analytics integration.
type Func func(action string)

type binding struct {
	element dom.Element
	events  []string
	action  string
}

type Tracker struct {
	id     uuid.UUID
	doc    dom.Document
	attrs  dom.Attributes
	cookie ctn.CookieOptions
	logger *log.Logger

	mu          sync.Mutex
	trackers    []Func
	data        map[string]any
	ctnValue    string
	ctnSource   ctn.Source
	bindings    []binding
	removers    []func()
	initialized bool
	closed      bool
}

type Option func(*Tracker)

// WithAttributes overrides the markup contract. Empty fields keep their
// defaults.
func WithAttributes(attrs dom.Attributes) Option {
	return func(t *Tracker) {
		t.attrs = attrs.WithDefaults()
	}
}

// WithCookieOptions sets the lifetime and scope of the persisted CTN cookie.
func WithCookieOptions(opts ctn.CookieOptions) Option {
	return func(t *Tracker) {
		t.cookie = opts
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a tracker for doc. Nothing touches the document until
// Initialize.
func New(doc dom.Document, opts ...Option) *Tracker {
	t := &Tracker{
		id:     uuid.New(),
		doc:    doc,
		attrs:  dom.DefaultAttributes,
		logger: log.New(io.Discard, "", 0),
		data:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID identifies this page instance in logs and collected actions.
func (t *Tracker) ID() string {
	return t.id.String()
}

// Initialize scans the document, applies the call tracking number and binds
// every trackable element. It runs once per tracker.
func (t *Tracker) Initialize() error {
	t.mu.Lock()
	switch {
	case t.closed:
		t.mu.Unlock()
		return ErrClosed
	case t.initialized:
		t.mu.Unlock()
		return ErrAlreadyInitialized
	}
	t.initialized = true
	t.mu.Unlock()

	scan := Scan(t.doc, t.attrs)
	if value, ok := t.DetectCallTracking(t.doc.QueryString(), t.doc.Cookie()); ok {
		replaced := ctn.Replace(scan.Phones, value)
		t.logger.Printf("[%s] call tracking number applied to %d elements", t.id, replaced)
	}

	bound := 0
	for _, el := range scan.Trackable {
		if _, err := t.AddObject(el, "", ""); err != nil {
			t.logger.Printf("[%s] skipping <%s>: %v", t.id, el.TagName(), err)
			continue
		}
		bound++
	}
	t.logger.Printf("[%s] initialized: %d of %d trackable elements bound", t.id, bound, len(scan.Trackable))
	return nil
}

// DetectCallTracking looks for a CTN in query and cookie, makes it the
// active value and persists it to the document cookie. It reports false
// and leaves the active value alone when neither source has one.
func (t *Tracker) DetectCallTracking(query, cookie string) (string, bool) {
	value, source, ok := ctn.Detect(query, cookie)
	if !ok {
		return "", false
	}

	t.mu.Lock()
	t.ctnValue = value
	t.ctnSource = source
	t.mu.Unlock()

	t.doc.SetCookie(t.cookie.Cookie(value))
	t.logger.Printf("[%s] call tracking number %q from %s", t.id, value, source)
	return value, true
}

// CTN returns the active call tracking number.
func (t *Tracker) CTN() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctnValue, t.ctnValue != ""
}

// ReplaceCalls rewrites the page's phone elements with the active CTN and
// returns how many changed.
func (t *Tracker) ReplaceCalls() int {
	value, ok := t.CTN()
	if !ok {
		return 0
	}
	return ctn.Replace(Scan(t.doc, t.attrs).Phones, value)
}

// AddTracker appends fn to the functions called for every action.
func (t *Tracker) AddTracker(fn Func) error {
	if fn == nil {
		return ErrNilTracker
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.trackers = append(t.trackers, fn)
	return nil
}

// Track calls every tracker with action in registration order. The lock is
// not held while trackers run.
func (t *Tracker) Track(action string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	trackers := append([]Func(nil), t.trackers...)
	t.mu.Unlock()

	for _, fn := range trackers {
		fn(action)
	}
	return nil
}

// AddObject binds el so each of its events tracks action. Empty events or
// action are read from the element's attributes. The action is fixed at
// bind time.
func (t *Tracker) AddObject(el dom.Element, events, action string) (dom.Element, error) {
	if el == nil {
		return nil, ErrNoElement
	}
	if events == "" {
		events, _ = el.Attribute(t.attrs.Events)
	}
	if action == "" {
		action, _ = el.Attribute(t.attrs.Action)
	}
	names := splitEvents(events)
	if len(names) == 0 {
		return nil, ErrNoEvents
	}
	if action == "" {
		return nil, ErrNoAction
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}
	for _, name := range names {
		remove := el.AddEventListener(name, func() {
			_ = t.Track(action)
		})
		t.removers = append(t.removers, remove)
	}
	t.bindings = append(t.bindings, binding{element: el, events: names, action: action})
	return el, nil
}

func splitEvents(events string) []string {
	var names []string
	for _, name := range strings.Split(events, " ") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SetData stores value under name, replacing any previous value.
func (t *Tracker) SetData(name string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[name] = value
}

// GetData returns the value stored under name.
func (t *Tracker) GetData(name string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.data[name]
	return value, ok
}

// Close detaches every listener. Later calls that would register or
// dispatch fail with ErrClosed.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	removers := t.removers
	bound := len(t.bindings)
	t.removers = nil
	t.bindings = nil
	t.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	t.logger.Printf("[%s] closed, %d elements unbound, %d listeners removed", t.id, bound, len(removers))
}
