// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package policytoken implements HMAC-signed capability tokens that
// authorize a single actor to run automated actions for a tenant.
//
// # Wire format
//
// A token is three '_'-separated segments:
//
//	pt_<base64url(JSON payload)>_<base64url(HMAC-SHA256(payload segment, secret))>
//
// Both segments use unpadded base64url. The signature is computed
// over the encoded payload segment, not the decoded JSON, so a
// verifier never parses attacker-controlled JSON before the signature
// has been checked. Base64url output may itself contain '_', so the
// split is anchored on the signature segment, whose encoded length is
// fixed (43 characters for a 32-byte HMAC).
//
// The payload is JSON with exactly these field names:
//
//	jti, sub, tenant_id, project_id?, scopes[], iat, exp,
//	type:"policy", allowed_tools?[], single_use?
//
// # Verification order
//
//  1. format: "pt_" prefix and three segments, else INVALID_FORMAT
//  2. signature: length check, then constant-time compare, else
//     INVALID_SIGNATURE
//  3. payload: base64 decode and JSON parse, else INVALID_FORMAT
//  4. expiry: exp < now is EXPIRED
//  5. single use: the raw token is checked against and recorded in
//     the [ReplaySet] under one lock as the final step; a second
//     redemption is ALREADY_USED
//
// A verification that fails at any earlier step never marks a token
// used. [Codec.Authorize] layers tenant, scope, and allowed-tool
// checks between steps 4 and 5, so a token rejected for a missing
// scope also stays unconsumed.
package policytoken
