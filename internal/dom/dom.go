// Package dom describes the small slice of a browser document the tracker
// needs. Implementations live in htmldoc (parsed HTML) and jsdom (the live
// page under WebAssembly).
package dom

// Listener is invoked when an event fires on an element.
type Listener func()

// Element is a single DOM element.
type Element interface {
	// TagName returns the lower-case tag name.
	TagName() string
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)
	SetTextContent(text string)
	// AddEventListener attaches fn for event and returns a func that
	// detaches it again.
	AddEventListener(event string, fn Listener) (remove func())
}

// Document is the host page.
type Document interface {
	// Walk visits every element below the document root in document order
	// until fn returns false.
	Walk(fn func(Element) bool)
	// QueryString returns the raw query of the page URL, without the
	// leading '?'.
	QueryString() string
	Cookie() string
	// SetCookie writes a single cookie in Set-Cookie syntax.
	SetCookie(cookie string)
}

// Attributes names the markup the scanner looks for.
type Attributes struct {
	Events     string `yaml:"events"`
	Action     string `yaml:"action"`
	Phone      string `yaml:"phone"`
	PhoneValue string `yaml:"phone_value"`
}

// DefaultAttributes is the markup contract used when none is configured.
var DefaultAttributes = Attributes{
	Events:     "data-mono-events",
	Action:     "data-mono-action",
	Phone:      "data-mono-type",
	PhoneValue: "tel",
}

// WithDefaults fills empty fields from DefaultAttributes.
func (a Attributes) WithDefaults() Attributes {
	if a.Events == "" {
		a.Events = DefaultAttributes.Events
	}
	if a.Action == "" {
		a.Action = DefaultAttributes.Action
	}
	if a.Phone == "" {
		a.Phone = DefaultAttributes.Phone
	}
	if a.PhoneValue == "" {
		a.PhoneValue = DefaultAttributes.PhoneValue
	}
	return a
}
