// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		None:           "none",
		Validation:     "validation",
		Authentication: "authentication",
		Authorization:  "authorization",
		Replay:         "replay",
		RateLimit:      "rate_limit",
		Configuration:  "configuration",
		Kind(99):       "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(Replay, "ALREADY_USED", "token %s already used", "abc")
	wrapped := fmt.Errorf("verifying: %w", base)

	if got := KindOf(wrapped); got != Replay {
		t.Errorf("KindOf = %v, want replay", got)
	}
	if got := CodeOf(wrapped); got != "ALREADY_USED" {
		t.Errorf("CodeOf = %q, want ALREADY_USED", got)
	}
	if got := KindOf(errors.New("plain")); got != None {
		t.Errorf("KindOf(plain) = %v, want none", got)
	}
}

func TestErrorsIsMatchesKindAndCode(t *testing.T) {
	sentinel := &Error{Kind: Authentication, Code: "EXPIRED"}
	err := fmt.Errorf("outer: %w", New(Authentication, "EXPIRED", "token expired at %d", 10))
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should match same kind and code")
	}
	if errors.Is(err, &Error{Kind: Authentication, Code: "INVALID_SIGNATURE"}) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(Validation, "X", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Configurationf("secret missing while %s", "tokens required")
	if err.Error() != "secret missing while tokens required" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Kind != Configuration || err.Code != "CONFIGURATION" {
		t.Errorf("got kind %v code %q", err.Kind, err.Code)
	}
	if (&Error{Code: "BARE"}).Error() != "BARE" {
		t.Error("Error() without cause should return the code")
	}
}
