// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration used for jobgate's
// binary export formats (audit snapshots).
//
// JSON stays the format for anything a human or an external system
// reads: policy token payloads, CLI output, configuration files. CBOR
// is used where a compact, self-describing stream is written to a
// file and read back by jobgate itself.
//
// Encoding is Core Deterministic (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. Timestamps
// are written as RFC 3339 text with nanoseconds so they survive a
// round trip without losing precision. Types that use `json` struct
// tags encode identically in both formats because fxamacker/cbor
// falls back to `json` tags when `cbor` tags are absent.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For sequences of records, use [NewEncoder] and [NewDecoder].
package codec
