// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scope matches required capability scopes against the scopes
// a credential grants.
//
// A scope is a "resource:action" string such as "jobs:read" or
// "action:execute". A granted scope satisfies a required scope when
// the two are equal, or when the grant is the resource wildcard
// "<resource>:*" and the required scope's resource (its prefix up to
// the first ':') is the same resource:
//
//	granted ["jobs:*"]     required ["jobs:read", "jobs:write"]  allowed
//	granted ["jobs:read"]  required ["jobs:write"]               missing ["jobs:write"]
//	granted ["jobs:*"]     required ["action:execute"]           missing ["action:execute"]
//
// There is no global "*" grant and no multi-segment globbing: a
// wildcard never crosses a resource boundary. [Check] is a pure
// function with no state.
package scope
