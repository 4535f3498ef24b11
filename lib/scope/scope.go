// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scope

import (
	"fmt"
	"strings"
)

// Wildcard is the action segment that grants every action on a
// resource.
const Wildcard = "*"

// Result is the outcome of a scope check.
type Result struct {
	// Allowed is true when MissingScopes is empty.
	Allowed bool

	// MissingScopes lists the required scopes no grant satisfied, in
	// the order they were required.
	MissingScopes []string

	// Reason is a human-readable summary naming the missing scopes and
	// the resource/action under evaluation. Empty when allowed.
	Reason string
}

// Parse splits a scope into its resource and action. A scope without
// ':' is all resource with an empty action.
func Parse(scope string) (resource, action string) {
	resource, action, _ = strings.Cut(scope, ":")
	return resource, action
}

// Satisfies reports whether a single granted scope covers a required
// scope.
func Satisfies(granted, required string) bool {
	if granted == required {
		return true
	}
	grantedResource, grantedAction := Parse(granted)
	if grantedAction != Wildcard {
		return false
	}
	requiredResource, _ := Parse(required)
	return grantedResource == requiredResource
}

// Check evaluates every required scope against the granted set.
// resource and action describe what the caller is trying to do and
// only appear in the Reason text.
func Check(required, granted []string, resource, action string) Result {
	exact := make(map[string]struct{}, len(granted))
	wildcards := make(map[string]struct{})
	for _, grant := range granted {
		exact[grant] = struct{}{}
		if grantedResource, grantedAction := Parse(grant); grantedAction == Wildcard {
			wildcards[grantedResource] = struct{}{}
		}
	}

	var missing []string
	for _, scope := range required {
		if _, ok := exact[scope]; ok {
			continue
		}
		requiredResource, _ := Parse(scope)
		if _, ok := wildcards[requiredResource]; ok {
			continue
		}
		missing = append(missing, scope)
	}

	if len(missing) == 0 {
		return Result{Allowed: true}
	}
	return Result{
		MissingScopes: missing,
		Reason: fmt.Sprintf("missing scopes [%s] for %s on %s",
			strings.Join(missing, ", "), describe(action), describe(resource)),
	}
}

func describe(value string) string {
	if value == "" {
		return "(unspecified)"
	}
	return value
}
