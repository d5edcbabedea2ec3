package api

import (
	"time"
)

// EventType distinguishes the two lifecycle events of a call.
type EventType int

const (
	// EventStarted is emitted before the request is issued.
	EventStarted EventType = iota
	// EventFinished is emitted once the envelope is ready.
	EventFinished
)

func (t EventType) String() string {
	if t == EventStarted {
		return "started"
	}
	return "finished"
}

// Event describes one lifecycle transition of a façade call.
// Status, Kind and Duration are only meaningful for EventFinished.
type Event struct {
	Type      EventType
	Operation string
	Key       string
	Label     string
	Seq       uint64
	Status    int
	Kind      FailureKind
	Stale     bool
	Duration  time.Duration
}

// OK reports whether a finished call succeeded.
func (e Event) OK() bool {
	return e.Kind == KindNone && e.Status >= 200 && e.Status < 300
}

// Listener observes call lifecycle events. Loading indicators, metrics and
// audit logs are all listeners. OnEvent must not block.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) { f(e) }

type callConfig struct {
	label     string
	listeners []Listener
}

// CallOption customizes a single façade call.
type CallOption func(*callConfig)

// WithListener adds a listener for this call only.
func WithListener(l Listener) CallOption {
	return func(c *callConfig) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithLabel overrides the human-readable label passed to listeners.
func WithLabel(label string) CallOption {
	return func(c *callConfig) {
		c.label = label
	}
}
