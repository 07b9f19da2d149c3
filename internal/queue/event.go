// Package queue defines message payloads exchanged over the message broker
// and the AMQP publisher/consumer around them.  Email delivery and media
// storage live outside this service; the broker is the boundary between the
// auth core and those collaborators.
package queue

// EmailConfirmationEvent is published when an account signs up or asks for
// the confirmation email to be re-sent.  The external mail sender consumes
// it and builds the confirmation link from BaseURL and Token; this service
// never sends email itself.
type EmailConfirmationEvent struct {
    Email       string `json:"email"`
    Username    string `json:"username"`
    Token       string `json:"token"`
    BaseURL     string `json:"base_url"`
    RequestedAt string `json:"requested_at"`
}

// MediaPurgeEvent is published when an administrator bans an account for a
// reason other than "logout".  The external media host consumes it and
// removes the user's stored images.
type MediaPurgeEvent struct {
    UserID      uint64 `json:"user_id"`
    Username    string `json:"username"`
    Reason      string `json:"reason"`
    RequestedAt string `json:"requested_at"`
}
