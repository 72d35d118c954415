// Package queue defines message payloads exchanged over the message broker.
package queue

// Actions recorded on the contact.activity queue.
const (
	ActionSignup         = "user.signed_up"
	ActionContactCreated = "contact.created"
	ActionContactUpdated = "contact.updated"
	ActionContactDeleted = "contact.deleted"
)

// ContactActivityEvent is published after a signup or a contact mutation.
// It contains enough information for downstream consumers to log or audit
// the change without querying the primary database.  Publishing is
// best-effort and never affects the outcome of the originating request.
type ContactActivityEvent struct {
	Action     string `json:"action"`
	UserID     uint64 `json:"user_id"`
	UserEmail  string `json:"user_email"`
	ContactID  uint64 `json:"contact_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
