// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive writes and reads audit export files.
//
// An archive is an audit snapshot (a CBOR sequence, see
// [audit.EncodeSnapshot]) compressed with zstd and, when recipients
// are given, encrypted to them with age. Encrypted archives start
// with the age header, so [Read] detects encryption without a flag.
package archive
