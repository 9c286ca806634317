package tracker

import "github.com/vincentbai/monotrack/internal/dom"

// ScanResult holds the elements found by Scan, in document order.
type ScanResult struct {
	Trackable []dom.Element
	Phones    []dom.Element
}

// Scan walks doc once. An element is trackable when it carries a non-empty
// event list and a non-empty action; it is a phone element when the phone
// attribute equals attrs.PhoneValue exactly.
func Scan(doc dom.Document, attrs dom.Attributes) ScanResult {
	attrs = attrs.WithDefaults()
	var res ScanResult
	doc.Walk(func(el dom.Element) bool {
		events, hasEvents := el.Attribute(attrs.Events)
		action, hasAction := el.Attribute(attrs.Action)
		if hasEvents && hasAction && events != "" && action != "" {
			res.Trackable = append(res.Trackable, el)
		}
		if v, ok := el.Attribute(attrs.Phone); ok && v == attrs.PhoneValue {
			res.Phones = append(res.Phones, el)
		}
		return true
	})
	return res
}
