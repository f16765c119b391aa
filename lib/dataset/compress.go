// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a region payload is compressed. The
// values are stored in the region header.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
	CompressionLZ4  Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll and
// DecodeAll calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("dataset: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("dataset: zstd decoder initialization failed: " + err.Error())
	}
}

// compressBlock compresses a region payload. It returns the
// compression actually applied, which is CompressionNone when lz4
// finds the payload incompressible.
func compressBlock(data []byte, compression Compression) ([]byte, Compression, error) {
	switch compression {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), CompressionZstd, nil
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if written == 0 {
			return data, CompressionNone, nil
		}
		return destination[:written], CompressionLZ4, nil
	default:
		return nil, 0, fmt.Errorf("unsupported compression %v", compression)
	}
}

// decompressBlock reverses compressBlock. rawLength must be the exact
// uncompressed size.
func decompressBlock(data []byte, compression Compression, rawLength int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(data) != rawLength {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, header says %d", len(data), rawLength)
		}
		return data, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, rawLength))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != rawLength {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), rawLength)
		}
		return result, nil
	case CompressionLZ4:
		result := make([]byte, rawLength)
		read, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != rawLength {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawLength)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", compression)
	}
}

// decodeFile decompresses dataset file contents according to the
// file's extension: ".zst" for a zstd frame, ".lz4" for an lz4 frame,
// anything else for plain CBOR.
func decodeFile(path string, data []byte) ([]byte, error) {
	switch fileCompression(path) {
	case CompressionZstd:
		return zstdDecoder.DecodeAll(data, nil)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}

// encodeFile is the inverse of decodeFile.
func encodeFile(path string, data []byte) ([]byte, error) {
	switch fileCompression(path) {
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case CompressionLZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil
	default:
		return data, nil
	}
}
