package provider

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind int

const (
	// Transient failures (timeouts, rate limits) are retried, then the
	// pair is treated as having no data.
	Transient Kind = iota
	// Permanent failures (invalid airport code, bad credentials) abort
	// the whole request.
	Permanent
)

func (k Kind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// Error is a typed provider failure.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTransient wraps err as a retriable failure of the named provider.
func NewTransient(provider string, err error) *Error {
	return &Error{Kind: Transient, Provider: provider, Err: err}
}

// NewPermanent wraps err as a fatal failure of the named provider.
func NewPermanent(provider string, err error) *Error {
	return &Error{Kind: Permanent, Provider: provider, Err: err}
}

// IsPermanent reports whether err carries a permanent provider failure.
func IsPermanent(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == Permanent
}

// IsTransient reports whether err carries a transient provider failure.
// Errors that are not provider failures at all (network-level) count as
// transient so they get the retry treatment.
func IsTransient(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == Transient
	}
	return err != nil
}
