// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// session service to distinguish between different failure scenarios
// without inspecting driver-specific error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when an insert violates the unique
// constraint on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when an insert violates the unique
// constraint on users.username.
var ErrUsernameExists = errors.New("username already exists")
