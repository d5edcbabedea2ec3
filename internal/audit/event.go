package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names the action an event records.
type EventType string

const (
	// EventUserReview records a review action on a user.
	EventUserReview EventType = "user_review"

	// EventUserApprove records an approve action on a user.
	EventUserApprove EventType = "user_approve"

	// EventUserReject records a reject action on a user.
	EventUserReject EventType = "user_reject"

	// EventArchitectUpdate records an architect record update.
	EventArchitectUpdate EventType = "architect_update"
)

// Event is one line of the audit file.
type Event struct {
	// ID is a random UUID.
	ID string `json:"id"`

	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Actor is the email of the signed-in admin, if known.
	Actor string `json:"actor,omitempty"`

	// Target identifies the record acted on, e.g. a user or architect id.
	Target string `json:"target"`

	// Backend is the base URL the action was sent to.
	Backend string `json:"backend,omitempty"`

	Message string `json:"message,omitempty"`

	// Level is "info" for accepted actions and "error" for failed ones.
	Level string `json:"level"`

	// Data holds the request fields that were sent.
	Data map[string]any `json:"data,omitempty"`

	Duration *time.Duration `json:"duration,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewEvent creates an info-level event stamped with the current time.
func NewEvent(eventType EventType, target string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Target:    target,
		Level:     "info",
		Data:      make(map[string]any),
	}
}

// WithActor sets the actor.
func (e *Event) WithActor(actor string) *Event {
	e.Actor = actor
	return e
}

// WithBackend sets the backend base URL.
func (e *Event) WithBackend(baseURL string) *Event {
	e.Backend = baseURL
	return e
}

// WithMessage sets the message.
func (e *Event) WithMessage(msg string) *Event {
	e.Message = msg
	return e
}

// WithData adds a data field.
func (e *Event) WithData(key string, value any) *Event {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// WithError records err and raises the level to error. A nil err is ignored.
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Error = err.Error()
		e.Level = "error"
	}
	return e
}

// WithDuration sets the duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = &d
	return e
}

// ToJSON encodes the event as a single line.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses one audit line.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
