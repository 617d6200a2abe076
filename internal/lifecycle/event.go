package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event types delivered by the identity provider's webhook.
const (
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"
)

// ErrMalformedEvent is returned when a webhook body cannot be parsed.
var ErrMalformedEvent = errors.New("malformed lifecycle event")

// Event is one lifecycle notification from the identity provider. The
// provider delivers at-least-once, so ID is the deduplication key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       EventData `json:"data"`
}

// EventData carries the identity the event is about.
type EventData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ParseEvent decodes and validates a webhook body.
func ParseEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if event.ID == "" {
		return Event{}, fmt.Errorf("%w: missing event id", ErrMalformedEvent)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	if event.Data.ID == "" {
		return Event{}, fmt.Errorf("%w: missing user id", ErrMalformedEvent)
	}

	return event, nil
}
