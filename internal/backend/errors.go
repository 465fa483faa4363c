package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAssignee is returned when SaveUserMeeting is called without an assignee.
	ErrNoAssignee = errors.New("assignee is required")

	// ErrMeetingWithoutID is returned when BlueJeans reports a created meeting
	// without an id. The record stays unprovisioned.
	ErrMeetingWithoutID = errors.New("bluejeans returned a meeting without id")
)

// ValidationError is the one failure meant to be shown to the end user as is.
type ValidationError struct {
	Email   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

func newNoAccountError(email, portal string) *ValidationError {
	return &ValidationError{
		Email: email,
		Message: fmt.Sprintf("There is no BlueJeans account associated with %s. Please log into %s, then try again.",
			email, portal),
	}
}
