package gateway

import "fmt"

// AuthError indicates a missing or rejected credential: failed login or
// registration, or an auth-required endpoint called without a token.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// APIError is any other non-2xx response or API-flagged error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NotFoundError indicates a detail fetch for an id the service does not know.
type NotFoundError struct {
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("story %s not found", e.ID)
}
