package server

import (
	"fmt"
	"net/http"
)

// ErrSessionNotFound indicates the session id is unknown to this server.
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrUnauthorized indicates a missing, invalid, or mismatched token.
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ErrSessionFinished indicates a turn was posted to a finalized session.
type ErrSessionFinished struct {
	SessionID string
}

func (e *ErrSessionFinished) Error() string {
	return fmt.Sprintf("session already finished: %s", e.SessionID)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrSessionNotFound:
		return http.StatusNotFound
	case *ErrUnauthorized:
		return http.StatusUnauthorized
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrSessionFinished:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
