package bluejeans

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when the BlueJeans API answers with a non-2xx status.
type APIError struct {
	// Op is the client operation that failed (e.g. "token", "get_user")
	Op string

	// Method and Path identify the request
	Method string
	Path   string

	// StatusCode is the HTTP status returned by the API
	StatusCode int

	// Body is the (truncated) response body
	Body string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("bluejeans %s: %s %s returned %d %s", e.Op, e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// AmbiguousUserError is returned when more than one enterprise user matches an email.
// It is not retryable.
type AmbiguousUserError struct {
	Email string
	Count int
}

// Error implements the error interface
func (e *AmbiguousUserError) Error() string {
	return fmt.Sprintf("too many users match %q (%d)", e.Email, e.Count)
}

// ErrMissingEnterprise is returned when a token response carries no enterprise scope.
var ErrMissingEnterprise = errors.New("token response has no enterprise scope")

// ErrEmptyUserList is returned when a user search reports a match but lists
// no users.
var ErrEmptyUserList = errors.New("user search returned a count without users")
