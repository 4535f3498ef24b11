// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/jobgate/lib/codec"
)

// SnapshotFormat identifies an audit snapshot stream.
const SnapshotFormat = "jobgate-audit"

// SnapshotVersion is the current snapshot layout.
const SnapshotVersion = 1

// SnapshotHeader is the first item of a snapshot stream.
type SnapshotHeader struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Count   int    `json:"count"`
}

// EncodeSnapshot writes entries to w as a CBOR sequence: one
// SnapshotHeader followed by one item per entry.
func EncodeSnapshot(w io.Writer, entries []Entry) error {
	encoder := codec.NewEncoder(w)
	header := SnapshotHeader{Format: SnapshotFormat, Version: SnapshotVersion, Count: len(entries)}
	if err := encoder.Encode(header); err != nil {
		return fmt.Errorf("encoding snapshot header: %w", err)
	}
	for index, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("encoding entry %d: %w", index, err)
		}
	}
	return nil
}

// DecodeSnapshot reads a stream written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (SnapshotHeader, []Entry, error) {
	decoder := codec.NewDecoder(r)

	var header SnapshotHeader
	if err := decoder.Decode(&header); err != nil {
		return SnapshotHeader{}, nil, fmt.Errorf("decoding snapshot header: %w", err)
	}
	if header.Format != SnapshotFormat {
		return header, nil, fmt.Errorf("not an audit snapshot (format %q)", header.Format)
	}
	if header.Version != SnapshotVersion {
		return header, nil, fmt.Errorf("unsupported audit snapshot version %d", header.Version)
	}

	entries := make([]Entry, 0, min(max(header.Count, 0), DefaultCapacity))
	for {
		var entry Entry
		err := decoder.Decode(&entry)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return header, entries, fmt.Errorf("decoding entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
	}
	if len(entries) != header.Count {
		return header, entries, fmt.Errorf("snapshot truncated: header declares %d entries, read %d", header.Count, len(entries))
	}
	return header, entries, nil
}
