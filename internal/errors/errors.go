package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation is returned when request input is malformed or missing.
	ErrValidation = errors.New("validation error")
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid password")
	// ErrMissingToken is returned when no bearer token accompanies a protected request.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is returned when a token is malformed, expired, revoked or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the caller lacks the ADMIN role.
	ErrForbidden = errors.New("admin access required")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEventNotFound is returned when an event is not found.
	ErrEventNotFound = errors.New("event not found")
	// ErrAlreadySignedUp is returned when the user already holds a signup for the event.
	ErrAlreadySignedUp = errors.New("already signed up")
	// ErrNotSignedUp is returned when cancelling a signup that does not exist.
	ErrNotSignedUp = errors.New("not signed up for this event")
	// ErrSelfRoleChange is returned when an admin tries to change their own role.
	ErrSelfRoleChange = errors.New("you cannot change your own role")
	// ErrInvalidRole is returned when a role is neither USER nor ADMIN.
	ErrInvalidRole = errors.New("invalid role")
)

// Validation wraps ErrValidation with a human readable detail.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Duplicate-key conflicts answer 400 rather than 409 to match the web client.
// Unknown errors surface their message with a 500.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusBadRequest, ErrEmailTaken.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrAlreadySignedUp):
		return NewHTTPError(http.StatusBadRequest, "Already signed up", "ALREADY_SIGNED_UP")
	case errors.Is(err, ErrNotSignedUp):
		return NewHTTPError(http.StatusBadRequest, "Not signed up for this event", "NOT_SIGNED_UP")
	case errors.Is(err, ErrSelfRoleChange):
		return NewHTTPError(http.StatusBadRequest, ErrSelfRoleChange.Error(), "SELF_ROLE_CHANGE")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrMissingToken):
		return NewHTTPError(http.StatusUnauthorized, ErrMissingToken.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrEventNotFound):
		return NewHTTPError(http.StatusNotFound, ErrEventNotFound.Error(), "EVENT_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
