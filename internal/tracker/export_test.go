package tracker

// Bound is a binding as seen by tests.
type Bound struct {
	Events []string
	Action string
}

func (t *Tracker) Bindings() []Bound {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Bound, 0, len(t.bindings))
	for _, b := range t.bindings {
		out = append(out, Bound{Events: b.events, Action: b.action})
	}
	return out
}

func (t *Tracker) TrackerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.trackers)
}
