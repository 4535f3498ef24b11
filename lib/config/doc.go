// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the jobgate configuration file.
//
// Configuration comes from exactly one file named either by the
// JOBGATE_CONFIG environment variable ([Load]) or by an explicit path
// ([LoadFile]). There is no discovery and no per-field environment
// override: what the file says is what the gate enforces.
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas (tidwall/jsonc); anything else is YAML. Both go
// through the same yaml.v3 decoder, so field names and duration syntax
// ("90s", "1h") are identical in either format.
//
// The file feeds four consumers: the policy guard (flags, tenant
// policies, job category overrides, rate-limit table), the trigger gate
// (kill switch and trigger rules), the audit log, and the policy token
// codec (the signing secret, read from secret_file through
// lib/secret). [Config.Validate] checks all of it up front so a bad
// file fails at startup rather than per request.
package config
