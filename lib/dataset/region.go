// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/waypoint/lib/codec"
)

// Region layout. All integers are little-endian.
//
//	offset  size  field
//	0       4     magic "WPDR"
//	4       4     layout version
//	8       8     generation, incremented by every publication
//	16      8     payload length in bytes
//	24      8     raw (uncompressed) payload length
//	32      1     compression
//	33      31    reserved, zero
//	64      32    BLAKE3 digest of the stored payload
//	96      ...   payload: CBOR Contents, possibly compressed
const RegionHeaderSize = 96

const (
	regionMagic   uint32 = 0x52445057 // "WPDR"
	regionVersion uint32 = 1

	// maxRegionPayload bounds the allocation a corrupt header can
	// cause.
	maxRegionPayload = 16 << 30
)

var (
	// ErrRegionEmpty means nothing has been published into the
	// region yet.
	ErrRegionEmpty = errors.New("no dataset has been published to the region")

	// ErrRegionCorrupt means the region's header or payload failed
	// validation.
	ErrRegionCorrupt = errors.New("region is corrupt")
)

// RegionHeader describes the dataset currently in a region.
type RegionHeader struct {
	Generation    uint64
	PayloadLength uint64
	RawLength     uint64
	Compression   Compression
	Digest        [32]byte
}

// MarshalBinary encodes the header in region layout.
func (h RegionHeader) MarshalBinary() ([]byte, error) {
	buffer := make([]byte, RegionHeaderSize)
	binary.LittleEndian.PutUint32(buffer[0:], regionMagic)
	binary.LittleEndian.PutUint32(buffer[4:], regionVersion)
	binary.LittleEndian.PutUint64(buffer[8:], h.Generation)
	binary.LittleEndian.PutUint64(buffer[16:], h.PayloadLength)
	binary.LittleEndian.PutUint64(buffer[24:], h.RawLength)
	buffer[32] = byte(h.Compression)
	copy(buffer[64:], h.Digest[:])
	return buffer, nil
}

// UnmarshalBinary decodes a header in region layout. An all-zero
// header yields ErrRegionEmpty.
func (h *RegionHeader) UnmarshalBinary(data []byte) error {
	if len(data) < RegionHeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", ErrRegionCorrupt, len(data), RegionHeaderSize)
	}
	magic := binary.LittleEndian.Uint32(data[0:])
	if magic == 0 {
		return ErrRegionEmpty
	}
	if magic != regionMagic {
		return fmt.Errorf("%w: magic %#x, want %#x", ErrRegionCorrupt, magic, regionMagic)
	}
	if version := binary.LittleEndian.Uint32(data[4:]); version != regionVersion {
		return fmt.Errorf("%w: layout version %d, want %d", ErrRegionCorrupt, version, regionVersion)
	}

	h.Generation = binary.LittleEndian.Uint64(data[8:])
	h.PayloadLength = binary.LittleEndian.Uint64(data[16:])
	h.RawLength = binary.LittleEndian.Uint64(data[24:])
	h.Compression = Compression(data[32])
	copy(h.Digest[:], data[64:96])

	if h.PayloadLength > maxRegionPayload || h.RawLength > maxRegionPayload {
		return fmt.Errorf("%w: payload of %d bytes (%d raw) exceeds the limit", ErrRegionCorrupt, h.PayloadLength, h.RawLength)
	}
	return nil
}

// ReadRegionHeader reads the header at the start of a region. A region
// shorter than a header has not been published to.
func ReadRegionHeader(region io.ReaderAt) (RegionHeader, error) {
	buffer := make([]byte, RegionHeaderSize)
	if _, err := region.ReadAt(buffer, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return RegionHeader{}, ErrRegionEmpty
		}
		return RegionHeader{}, fmt.Errorf("reading region header: %w", err)
	}
	var header RegionHeader
	if err := header.UnmarshalBinary(buffer); err != nil {
		return RegionHeader{}, err
	}
	return header, nil
}

// ReadRegion reads, verifies and indexes the dataset in a region.
func ReadRegion(region io.ReaderAt) (*Dataset, RegionHeader, error) {
	header, err := ReadRegionHeader(region)
	if err != nil {
		return nil, RegionHeader{}, err
	}

	payload := make([]byte, header.PayloadLength)
	if _, err := region.ReadAt(payload, RegionHeaderSize); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, header, fmt.Errorf("%w: payload truncated", ErrRegionCorrupt)
		}
		return nil, header, fmt.Errorf("reading region payload: %w", err)
	}
	if blake3.Sum256(payload) != header.Digest {
		return nil, header, fmt.Errorf("%w: payload digest mismatch at generation %d", ErrRegionCorrupt, header.Generation)
	}

	raw, err := decompressBlock(payload, header.Compression, int(header.RawLength))
	if err != nil {
		return nil, header, fmt.Errorf("%w: %v", ErrRegionCorrupt, err)
	}

	var contents Contents
	if err := codec.Unmarshal(raw, &contents); err != nil {
		return nil, header, fmt.Errorf("%w: decoding payload: %v", ErrRegionCorrupt, err)
	}
	dataset, err := newWithEncoding(contents, raw)
	if err != nil {
		return nil, header, err
	}
	return dataset, header, nil
}

// EncodeRegion produces the payload and header for publishing dataset.
// The caller sets the header's Generation.
func EncodeRegion(dataset *Dataset, compression Compression) ([]byte, RegionHeader, error) {
	raw, err := codec.Marshal(dataset.contents)
	if err != nil {
		return nil, RegionHeader{}, fmt.Errorf("encoding dataset: %w", err)
	}
	payload, applied, err := compressBlock(raw, compression)
	if err != nil {
		return nil, RegionHeader{}, err
	}
	return payload, RegionHeader{
		PayloadLength: uint64(len(payload)),
		RawLength:     uint64(len(raw)),
		Compression:   applied,
		Digest:        blake3.Sum256(payload),
	}, nil
}
