package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Routing keys of the entry feed.
const (
	RoutingEntryAdded   = "entry.added"
	RoutingEntryRemoved = "entry.removed"
)

// EntryEvent describes a committed change to the entry sequence. Amount is in
// rupees, as text, so consumers never see float rounding.
type EntryEvent struct {
	Event       string    `json:"event"`
	ID          string    `json:"id"`
	Kind        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewEntryEvent builds the message for e under the given routing key.
func NewEntryEvent(event string, e core.Entry) *EntryEvent {
	return &EntryEvent{
		Event:       event,
		ID:          e.ID,
		Kind:        string(e.Kind),
		Amount:      e.Amount.String(),
		Description: e.Description,
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryEventFromJSON creates a message from JSON bytes
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
