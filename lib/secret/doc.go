// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds the HMAC signing key for policy tokens outside
// the Go heap.
//
// A [Key] is backed by an anonymous mmap region. The region is locked
// into RAM with mlock and excluded from core dumps with
// MADV_DONTDUMP where the host allows it; [Key.Locked] reports whether
// both succeeded (containers with a zero RLIMIT_MEMLOCK commonly refuse
// mlock). Close zeroes and unmaps the region, after which any access
// panics.
//
// Keys come from a file ([ReadFile]), stdin ("-"), or an in-memory
// slice ([FromBytes], which zeroes the source).
package secret
