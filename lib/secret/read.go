// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// ReadFile loads a key from path, or from stdin when path is "-".
// Surrounding whitespace is trimmed; an empty result is an error.
func ReadFile(path string) (*Key, error) {
	if path == "-" {
		return Read(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	return fromRaw(data)
}

// Read loads a key from the first line of r.
func Read(r io.Reader) (*Key, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
		return nil, fmt.Errorf("secret input is empty")
	}
	return fromRaw(scanner.Bytes())
}

func fromRaw(data []byte) (*Key, error) {
	defer zero(data)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return FromBytes(trimmed)
}
