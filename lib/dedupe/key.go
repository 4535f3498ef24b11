// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dedupe

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// StableKey hashes parts into a fixed-length hex key. Each part is
// length-prefixed before hashing so ("ab", "c") and ("a", "bc") never
// collide.
func StableKey(parts ...string) string {
	hasher := blake3.New()
	var length [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(length[:], uint64(len(part)))
		hasher.Write(length[:])
		hasher.Write([]byte(part))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
