package api

import (
	"errors"
	"fmt"
)

// AuthError indicates a failed login or an expired session (HTTP 401).
// The session layer reacts by clearing the stored token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// AuthorizationError indicates the server rejected an action the
// current role is not allowed to perform (HTTP 403). Shown inline on
// the form that triggered it.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// IsAuthorizationError reports whether err is an AuthorizationError.
func IsAuthorizationError(err error) bool {
	var fe *AuthorizationError
	return errors.As(err, &fe)
}

// ValidationError indicates the server rejected a request body
// (HTTP 400 or 422). Message carries the server's structured detail.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RequestError covers transport failures and unclassified non-success
// responses.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
