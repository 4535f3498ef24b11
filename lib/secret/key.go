// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"crypto/subtle"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Key is secret material held in mmap-backed memory. A Key must not be
// copied after creation.
type Key struct {
	mutex  sync.Mutex
	data   []byte
	locked bool
	closed bool
}

// FromBytes copies source into a new Key and zeroes source.
func FromBytes(source []byte) (*Key, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: key is empty")
	}

	data, err := unix.Mmap(-1, 0, len(source), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}

	locked := unix.Mlock(data) == nil
	if locked && unix.Madvise(data, unix.MADV_DONTDUMP) != nil {
		unix.Munlock(data)
		locked = false
	}

	copy(data, source)
	zero(source)
	return &Key{data: data, locked: locked}, nil
}

// Bytes returns the key material. The slice aliases the mmap region
// and is invalid after Close.
func (k *Key) Bytes() []byte {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if k.closed {
		panic("secret: read from closed key")
	}
	return k.data
}

// Len returns the key length in bytes, or 0 after Close.
func (k *Key) Len() int {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return len(k.data)
}

// Locked reports whether the region is pinned in RAM and excluded
// from core dumps.
func (k *Key) Locked() bool {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.locked
}

// Equal compares the key against other in constant time.
func (k *Key) Equal(other []byte) bool {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if k.closed {
		panic("secret: read from closed key")
	}
	return subtle.ConstantTimeCompare(k.data, other) == 1
}

// Close zeroes and releases the key. Close is idempotent.
func (k *Key) Close() error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	zero(k.data)

	var firstError error
	if k.locked {
		if err := unix.Munlock(k.data); err != nil {
			firstError = fmt.Errorf("secret: munlock failed: %w", err)
		}
	}
	if err := unix.Munmap(k.data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munmap failed: %w", err)
	}
	k.data = nil
	return firstError
}

func zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
