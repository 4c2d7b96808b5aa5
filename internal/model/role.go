package model

import "encoding/json"

// Role is a performance category (clown, juggler, ...) with the price charged
// for it.  Presenters reference a role through RoleCode.
//
// Fields:
//  Code       – admin-chosen primary key, immutable once created.
//  Label      – display name of the role.
//  PriceCents – price in cents; never negative.
type Role struct {
    Code       string `json:"code"`        // roles.code
    Label      string `json:"label"`       // roles.label
    PriceCents int64  `json:"price_cents"` // roles.price_cents
}

// Price returns the price as a decimal amount (150.00 for 15000 cents).
func (r Role) Price() float64 {
    return float64(r.PriceCents) / 100
}

// MarshalJSON adds the decimal price next to price_cents.
func (r Role) MarshalJSON() ([]byte, error) {
    type plain Role
    return json.Marshal(struct {
        plain
        Price float64 `json:"price"`
    }{plain(r), r.Price()})
}
