package github

import (
	"errors"
	"fmt"
)

// ErrLoginFailed matches every error returned from the exchange branch of Login
var ErrLoginFailed = errors.New("github login failed")

const unknownError = "Unknown error"

// ExchangeError is returned when the token endpoint answers with an error field
type ExchangeError struct {
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	code := e.Code
	if code == "" {
		code = unknownError
	}
	if e.Description != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrLoginFailed, code, e.Description)
	}
	return fmt.Sprintf("%s: %s", ErrLoginFailed, code)
}

func (e *ExchangeError) Is(target error) bool { return target == ErrLoginFailed }

// ProfileError is returned when a required part of the profile cannot be resolved
type ProfileError struct {
	Reason string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%s: %s", ErrLoginFailed, e.Reason)
}

func (e *ProfileError) Is(target error) bool { return target == ErrLoginFailed }

// MalformedResponseError is returned when a provider response does not match its schema
type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response from %s: %s", ErrLoginFailed, e.Endpoint, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrLoginFailed }

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// wrap prefixes transport and status errors while keeping them matchable
func wrap(err error) error {
	return fmt.Errorf("%w: %w", ErrLoginFailed, err)
}
