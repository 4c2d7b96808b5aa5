package model

// Presenter is a performer linked to exactly one Role.  Role is only
// populated by listing and detail queries that resolve the relation; it is
// nil when the referenced role is missing.
type Presenter struct {
    Code     string `json:"code"`           // presenters.code
    Name     string `json:"name"`           // presenters.name
    RoleCode string `json:"role_code"`      // presenters.role_code
    Role     *Role  `json:"role,omitempty"` // resolved relation
}
