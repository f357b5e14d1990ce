// pkg/export/archive.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/qbra/qbra/pkg/bra"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ArchiveExtension is the conventional suffix for layer archive files.
const ArchiveExtension = ".bra.msgpack.zst"

// ArchiveVersion is bumped whenever the layout of bra.Layer changes in a
// way that older archives can't be decoded into.
const ArchiveVersion = 1

var ErrArchiveVersion = errors.New("Unsupported archive version")

// Archive is the stored form of a set of layers: msgpack, compressed with
// zstd. Unlike GeoJSON it keeps elevations and the slope arcs exactly.
type Archive struct {
	Version int          `msgpack:"version"`
	Layers  []*bra.Layer `msgpack:"layers"`
}

// SaveArchive writes the layers to w.
func SaveArchive(w io.Writer, layers []*bra.Layer) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	ar := Archive{Version: ArchiveVersion, Layers: layers}
	if err := msgpack.NewEncoder(zw).Encode(ar); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}

	return nil
}

// LoadArchive reads layers written by SaveArchive.
func LoadArchive(r io.Reader) ([]*bra.Layer, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var ar Archive
	if err := msgpack.NewDecoder(zr).Decode(&ar); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	if ar.Version != ArchiveVersion {
		return nil, fmt.Errorf("%d: %w", ar.Version, ErrArchiveVersion)
	}

	return ar.Layers, nil
}
