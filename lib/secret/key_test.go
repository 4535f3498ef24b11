// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromBytes(t *testing.T) {
	source := []byte("signing-key-material")
	key, err := FromBytes(source)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	defer key.Close()

	if string(key.Bytes()) != "signing-key-material" {
		t.Errorf("Bytes = %q", key.Bytes())
	}
	if key.Len() != len("signing-key-material") {
		t.Errorf("Len = %d", key.Len())
	}
	for index, b := range source {
		if b != 0 {
			t.Fatalf("source byte %d not zeroed", index)
		}
	}
	if !key.Equal([]byte("signing-key-material")) || key.Equal([]byte("other")) {
		t.Error("Equal mismatch")
	}
}

func TestFromBytes_Empty(t *testing.T) {
	if _, err := FromBytes(nil); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestClose(t *testing.T) {
	key, err := FromBytes([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if err := key.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := key.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if key.Len() != 0 {
		t.Errorf("Len after Close = %d", key.Len())
	}
	defer func() {
		if recover() == nil {
			t.Error("Bytes after Close should panic")
		}
	}()
	key.Bytes()
}

func TestReadFile(t *testing.T) {
	directory := t.TempDir()

	t.Run("trims whitespace", func(t *testing.T) {
		path := filepath.Join(directory, "key")
		if err := os.WriteFile(path, []byte("  abc123\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		key, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		defer key.Close()
		if string(key.Bytes()) != "abc123" {
			t.Errorf("Bytes = %q", key.Bytes())
		}
	})

	t.Run("whitespace only", func(t *testing.T) {
		path := filepath.Join(directory, "blank")
		if err := os.WriteFile(path, []byte(" \n\t"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadFile(path); err == nil {
			t.Error("expected error for blank secret")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := ReadFile(filepath.Join(directory, "absent")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestRead(t *testing.T) {
	key, err := Read(strings.NewReader("first-line\nsecond-line\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer key.Close()
	if string(key.Bytes()) != "first-line" {
		t.Errorf("Bytes = %q", key.Bytes())
	}

	if _, err := Read(strings.NewReader("")); err == nil {
		t.Error("expected error for empty reader")
	}
}
