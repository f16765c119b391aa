// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/waypoint/lib/codec"
)

// Paths names the files of a dataset on disk. Nodes and Edges are
// required. Names and Timestamp may be empty.
//
//   - Nodes: CBOR array of coordinates
//   - Edges: CBOR array of edges
//   - Names: CBOR array of strings
//   - Timestamp: plain text, surrounding whitespace ignored
//
// A ".zst" or ".lz4" suffix on a CBOR file selects zstd or lz4 frame
// compression.
type Paths struct {
	Nodes     string
	Edges     string
	Names     string
	Timestamp string
}

// Files returns the non-empty paths.
func (p Paths) Files() []string {
	var files []string
	for _, path := range []string{p.Nodes, p.Edges, p.Names, p.Timestamp} {
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

func fileCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Load reads the dataset named by paths into memory and indexes it.
// Any missing or malformed file is an error.
func Load(paths Paths) (*Dataset, error) {
	if paths.Nodes == "" || paths.Edges == "" {
		return nil, errors.New("dataset paths must name both a nodes and an edges file")
	}

	var contents Contents
	if err := readCBORFile(paths.Nodes, &contents.Nodes); err != nil {
		return nil, err
	}
	if err := readCBORFile(paths.Edges, &contents.Edges); err != nil {
		return nil, err
	}
	if paths.Names != "" {
		if err := readCBORFile(paths.Names, &contents.Names); err != nil {
			return nil, err
		}
	}
	if paths.Timestamp != "" {
		data, err := os.ReadFile(paths.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("reading timestamp: %w", err)
		}
		contents.Timestamp = strings.TrimSpace(string(data))
	}

	dataset, err := New(contents)
	if err != nil {
		return nil, fmt.Errorf("loading dataset from %s: %w", filepath.Dir(paths.Nodes), err)
	}
	return dataset, nil
}

func readCBORFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading dataset file: %w", err)
	}
	decoded, err := decodeFile(path, data)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", path, err)
	}
	if err := codec.Unmarshal(decoded, target); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// Save writes contents to the files named by paths, compressing by
// extension. Empty Names or Timestamp paths are skipped. Each file is
// written to a temporary name and renamed into place so a watcher
// never observes a partial file.
func Save(paths Paths, contents Contents) error {
	if paths.Nodes == "" || paths.Edges == "" {
		return errors.New("dataset paths must name both a nodes and an edges file")
	}
	if err := writeCBORFile(paths.Nodes, contents.Nodes); err != nil {
		return err
	}
	if err := writeCBORFile(paths.Edges, contents.Edges); err != nil {
		return err
	}
	if paths.Names != "" {
		if err := writeCBORFile(paths.Names, contents.Names); err != nil {
			return err
		}
	}
	if paths.Timestamp != "" {
		if err := writeFileAtomic(paths.Timestamp, []byte(contents.Timestamp+"\n")); err != nil {
			return err
		}
	}
	return nil
}

func writeCBORFile(path string, value any) error {
	encoded, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data, err := encodeFile(path, encoded)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", temporary, err)
	}
	if err := os.Rename(temporary, path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", path, err)
	}
	return nil
}
