// Package apperr defines the stable error kinds shared by the membership,
// messaging and auth services. Handlers map these to HTTP statuses, the
// websocket handshake maps them to rejection reasons.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent chats, users and messages.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is authenticated but not authorized
	// for the target resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated means the credential is missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAlreadyMember is returned when adding a user already in the chat.
	ErrAlreadyMember = errors.New("already a participant")
	// ErrNotMember is returned when removing a user not in the chat.
	ErrNotMember = errors.New("not a participant")
	// ErrTooFewParticipants is returned when a chat would be created with
	// fewer than two members.
	ErrTooFewParticipants = errors.New("a chat needs at least two participants")
	// ErrEmailTaken is returned on registration with a known email.
	ErrEmailTaken = errors.New("email already registered")
)

// UnknownParticipantsError reports user ids referenced at chat creation
// that do not resolve to existing users.
type UnknownParticipantsError struct {
	IDs []int
}

func (e *UnknownParticipantsError) Error() string {
	return fmt.Sprintf("unknown participants: %v", e.IDs)
}
