// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"github.com/bureau-foundation/jobgate/lib/audit"
)

// ageHeader is the first line of every binary age file.
const ageHeader = "age-encryption.org/"

// WriteOptions configures Write.
type WriteOptions struct {
	// Recipients are X25519 age public keys ("age1..."). When empty
	// the archive is compressed but not encrypted.
	Recipients []string

	// Level is the zstd encoder level. Zero uses zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

// ParseRecipients validates age public keys.
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// Write encodes entries as an archive to w.
func Write(w io.Writer, entries []audit.Entry, options WriteOptions) error {
	level := options.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}

	var encrypted io.WriteCloser
	if len(options.Recipients) > 0 {
		recipients, err := ParseRecipients(options.Recipients)
		if err != nil {
			return err
		}
		encrypted, err = age.Encrypt(w, recipients...)
		if err != nil {
			return fmt.Errorf("creating age encryptor: %w", err)
		}
		w = encrypted
	}

	compressor, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	if err := audit.EncodeSnapshot(compressor, entries); err != nil {
		compressor.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("finalizing zstd stream: %w", err)
	}
	if encrypted != nil {
		if err := encrypted.Close(); err != nil {
			return fmt.Errorf("finalizing age encryption: %w", err)
		}
	}
	return nil
}

// Read decodes an archive from r. identities decrypt an encrypted
// archive and are ignored for a plain one.
func Read(r io.Reader, identities ...age.Identity) (audit.SnapshotHeader, []audit.Entry, error) {
	buffered := bufio.NewReader(r)
	prefix, err := buffered.Peek(len(ageHeader))
	if err != nil && err != io.EOF {
		return audit.SnapshotHeader{}, nil, fmt.Errorf("reading archive: %w", err)
	}

	var source io.Reader = buffered
	if bytes.Equal(prefix, []byte(ageHeader)) {
		if len(identities) == 0 {
			return audit.SnapshotHeader{}, nil, fmt.Errorf("archive is encrypted and no identity was given")
		}
		source, err = age.Decrypt(buffered, identities...)
		if err != nil {
			return audit.SnapshotHeader{}, nil, fmt.Errorf("decrypting archive: %w", err)
		}
	}

	decompressor, err := zstd.NewReader(source)
	if err != nil {
		return audit.SnapshotHeader{}, nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decompressor.Close()

	header, entries, err := audit.DecodeSnapshot(decompressor)
	if err != nil {
		return audit.SnapshotHeader{}, nil, err
	}
	return header, entries, nil
}

// ParseIdentities reads age identities ("AGE-SECRET-KEY-1...") from
// r, one per line, ignoring blank lines and # comments.
func ParseIdentities(r io.Reader) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	return identities, nil
}
