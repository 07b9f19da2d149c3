// Package service implements the session manager: signup, login, token
// refresh, email confirmation, password reset, logout and bans.  It composes
// the token and password helpers with the user and ban repositories and owns
// the error taxonomy the HTTP layer translates to status codes.
package service

import "errors"

var (
	// ErrDuplicateAccount: signup with an email or username already taken.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrUnknownPrincipal: no account matches the given email.
	ErrUnknownPrincipal = errors.New("invalid email")
	// ErrNotConfirmed: login attempted before the email was confirmed.
	ErrNotConfirmed = errors.New("email is not confirmed")
	// ErrInvalidPassword: password verification failed.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrBanned: the account's current access token is on the ban list.
	ErrBanned = errors.New("banned")
	// ErrStaleRefreshToken: a refresh token was presented that no longer
	// matches the stored one.  The stored pair is cleared when this fires,
	// forcing a fresh login.
	ErrStaleRefreshToken = errors.New("stale refresh token")
	// ErrVerification: the email confirmation token did not resolve to a
	// known account.
	ErrVerification = errors.New("verification error")
	// ErrPasswordMismatch: the two password fields of a reset differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)
