// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ringlog provides bounded, append-only record buffers for
// observability: policy denials, drift alerts, trigger dry-run
// records, and the audit ledger.
//
// [Ring] is a fixed-capacity circular buffer that overwrites its
// oldest record when full. [Keyed] holds one Ring per key (tenant)
// so that a noisy tenant cannot evict another tenant's history. A
// capacity of zero means unbounded: records accumulate until Reset.
//
// All methods are safe for concurrent use.
package ringlog
