// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
)

// Kind is the failure class.
type Kind int

const (
	// None is the zero Kind, carried by successful decisions.
	None Kind = iota

	// Validation means a token or payload was malformed.
	Validation

	// Authentication means a credential failed cryptographic
	// verification or has expired.
	Authentication

	// Authorization means the caller is authenticated but not
	// permitted: missing scope, blocked job type, insufficient
	// automation level, uncategorized job type.
	Authorization

	// Replay means a single-use credential or event was seen before.
	Replay

	// RateLimit means a budget was exhausted.
	RateLimit

	// Configuration means the gate cannot operate safely with the
	// configuration it was given. Raised at startup, never per request.
	Configuration
)

// String returns the snake_case name used in logs and audit records.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Validation:
		return "validation"
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case Replay:
		return "replay"
	case RateLimit:
		return "rate_limit"
	case Configuration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Code is stable across releases;
// Err carries the human-readable message and the wrapped cause.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Err.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind and Code, so sentinel
// values declared with New can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind && e.Code == other.Code
}

// New creates a classified error with a formatted message.
func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error. Returns nil for a nil err.
func Wrap(kind Kind, code string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

// CodeConfiguration is the code carried by Configurationf faults.
const CodeConfiguration = "CONFIGURATION"

// Configurationf creates a Configuration fault with code
// CodeConfiguration.
func Configurationf(format string, args ...any) *Error {
	return New(Configuration, CodeConfiguration, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or None.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return None
}

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Code
	}
	return ""
}
