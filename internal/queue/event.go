// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the log consumer for them.
package queue

// RegistrationQueue is the durable queue carrying registration changes.
const RegistrationQueue = "registration.changed"

// Registration actions carried by RegistrationEvent.Action.
const (
    ActionRegistered = "registered"
    ActionCancelled  = "cancelled"
)

// RegistrationEvent is published whenever a user signs up for or cancels a
// Number.  It carries enough context for downstream consumers to log or
// notify without querying the primary database.
type RegistrationEvent struct {
    Action         string `json:"action"`
    RegistrationID string `json:"registration_id,omitempty"`
    UserID         uint64 `json:"user_id"`
    NumberCode     string `json:"number_code"`
    NumberTitle    string `json:"number_title,omitempty"`
    ShowDateTime   string `json:"show_date_time,omitempty"`
    OccurredAt     string `json:"occurred_at"`
}
