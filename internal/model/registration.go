package model

import "time"

// Registration links a user to a Number they signed up for.  The pair
// (UserID, NumberCode) is unique.
type Registration struct {
    ID           string    `json:"id"`            // registrations.id (UUID)
    UserID       uint64    `json:"user_id"`       // registrations.user_id
    NumberCode   string    `json:"number_code"`   // registrations.number_code
    RegisteredAt time.Time `json:"registered_at"` // registrations.registered_at
    Number       *Number   `json:"number,omitempty"`
    User         *User     `json:"user,omitempty"`
}
