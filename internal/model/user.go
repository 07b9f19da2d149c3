package model

import "time"

// Role is the closed set of roles a user can hold.  The values are stored
// verbatim in the `users.role` column and embedded in JWT claims, so they
// must never be renamed once issued.
type Role string

const (
    RoleAdmin     Role = "admin"     // full administrative access, may ban users
    RoleModerator Role = "moderator" // content moderation, may ban users
    RoleUser      Role = "user"      // regular account
)

// ParseRole maps a stored or transmitted string onto a Role.  Unknown values
// return false so callers can reject rather than guess.
func ParseRole(s string) (Role, bool) {
    switch Role(s) {
    case RoleAdmin, RoleModerator, RoleUser:
        return Role(s), true
    }
    return "", false
}

// User represents an account record as stored in the `users` table.  Each
// field corresponds to a column.  The json tags are omitted because these
// structs are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// The AccessToken and RefreshToken columns hold the currently valid pair for
// the account.  Issuing a new pair overwrites both, which is what makes a
// superseded refresh token detectable: a presented refresh token is only
// honored when it equals the stored value byte for byte.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display name.
//  Email        – unique email address; also the JWT subject.
//  PasswordHash – bcrypt hashed password.
//  Role         – account role (admin, moderator or user).
//  Confirmed    – whether the email address was confirmed.
//  AccessToken  – currently valid access token (empty until first login).
//  RefreshToken – currently valid refresh token (empty until first login).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    Confirmed    bool      // users.confirmed
    AccessToken  string    // users.access_token (nullable, "" when NULL)
    RefreshToken string    // users.refresh_token (nullable, "" when NULL)
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
