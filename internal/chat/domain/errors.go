package domain

import "errors"

// Error taxonomy of the messaging core. Authorization and validation errors
// are returned synchronously to the originating request and never broadcast.
var (
	// ErrNotAParticipant the user is not a member of the conversation
	ErrNotAParticipant = errors.New("not a participant of this conversation")
	// ErrInvalidContent message content empty after trimming or over the size bound
	ErrInvalidContent = errors.New("invalid message content")
	// ErrInvalidSelfRead a sender cannot mark their own message read
	ErrInvalidSelfRead = errors.New("cannot mark own message as read")
	// ErrPersistence storage collaborator failure, surfaced not retried
	ErrPersistence = errors.New("persistence error")
	// ErrDuplicateConnection connection identifier already registered
	ErrDuplicateConnection = errors.New("connection already registered")
	// ErrMessageNotFound no persisted message with that identifier
	ErrMessageNotFound = errors.New("message not found")
)
