package model

import "time"

// Account roles.  RoleAdmin gates the administrative console; every new
// account receives RoleUser.
const (
    RoleAdmin = "Admin"
    RoleUser  = "User"
)

// User represents an application account as stored in the `users` table.
// The credential columns (PasswordHash, FailedAttempts, LockedUntil) are
// owned by the identity package; the profile columns are edited through the
// account workflow.
//
// Fields:
//  ID                – primary key identifier of the user.
//  Email             – unique login identifier.
//  PasswordHash      – bcrypt hash.
//  Role              – account role (Admin or User).
//  FirstName         – required given name.
//  LastName          – required family name.
//  Phone             – optional phone number.
//  ProfilePictureURL – public path of the profile picture (nil if none).
//  FailedAttempts    – consecutive failed sign-ins.
//  LockedUntil       – sign-in is refused until this instant (nil if not locked).
type User struct {
    ID                uint64     `json:"id"`
    Email             string     `json:"email"`
    PasswordHash      string     `json:"-"`
    Role              string     `json:"role"`
    FirstName         string     `json:"first_name"`
    LastName          string     `json:"last_name"`
    Phone             string     `json:"phone,omitempty"`
    ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
    FailedAttempts    int        `json:"-"`
    LockedUntil       *time.Time `json:"-"`
    CreatedAt         time.Time  `json:"created_at"`
    UpdatedAt         time.Time  `json:"updated_at"`
}

// Principal is the caller identity passed explicitly into every workflow.
// The zero value is an anonymous caller.
type Principal struct {
    UserID uint64
    Role   string
}

// Authenticated reports whether the principal carries a user identity.
func (p Principal) Authenticated() bool { return p.UserID != 0 }

// IsAdmin reports whether the principal holds the Admin role.
func (p Principal) IsAdmin() bool { return p.Authenticated() && p.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID         uint64
    UserID     uint64
    TokenHash  string
    ExpiresAt  time.Time
    Persistent bool // issued with "remember me"; rotation keeps it
    RevokedAt  *time.Time
    CreatedAt  time.Time
}
