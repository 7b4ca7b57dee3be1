package smmdb

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by FetchError when the API answers 404.
var ErrNotFound = errors.New("smmdb: not found")

// FetchError reports a failed request or an undecodable response.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("smmdb: %s: http %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("smmdb: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CredentialError is returned when the API rejects the configured key.
type CredentialError struct {
	Status  int
	Message string
}

func (e *CredentialError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("smmdb: api key rejected (http %d)", e.Status)
	}
	return fmt.Sprintf("smmdb: api key rejected (http %d): %s", e.Status, e.Message)
}
