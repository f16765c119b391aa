// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bureau-foundation/waypoint/lib/dataset"
)

// polylinePrecision is the number of polyline units per degree.
const polylinePrecision = 1e5

// unitsPerPolylineUnit converts fixed-point coordinates to polyline
// units.
const unitsPerPolylineUnit = dataset.CoordinatePrecision / polylinePrecision

var errPolylineTruncated = errors.New("polyline ends inside a value")

// EncodePolyline renders a path in the encoded polyline format at five
// decimal digits.
func EncodePolyline(path []dataset.Coordinate) string {
	var builder strings.Builder
	var previousLat, previousLon int64
	for _, point := range path {
		lat := int64(math.Round(float64(point.Lat) / unitsPerPolylineUnit))
		lon := int64(math.Round(float64(point.Lon) / unitsPerPolylineUnit))
		appendPolylineValue(&builder, lat-previousLat)
		appendPolylineValue(&builder, lon-previousLon)
		previousLat, previousLon = lat, lon
	}
	return builder.String()
}

func appendPolylineValue(builder *strings.Builder, delta int64) {
	value := uint64(delta) << 1
	if delta < 0 {
		value = ^value
	}
	for value >= 0x20 {
		builder.WriteByte(byte(0x20|(value&0x1f)) + 63)
		value >>= 5
	}
	builder.WriteByte(byte(value) + 63)
}

// DecodePolyline parses a path produced by EncodePolyline.
func DecodePolyline(encoded string) ([]dataset.Coordinate, error) {
	var path []dataset.Coordinate
	var lat, lon int64
	for offset := 0; offset < len(encoded); {
		deltaLat, next, err := readPolylineValue(encoded, offset)
		if err != nil {
			return nil, err
		}
		deltaLon, next, err := readPolylineValue(encoded, next)
		if err != nil {
			return nil, err
		}
		offset = next
		lat += deltaLat
		lon += deltaLon
		path = append(path, dataset.Coordinate{
			Lat: int32(lat * unitsPerPolylineUnit),
			Lon: int32(lon * unitsPerPolylineUnit),
		})
	}
	return path, nil
}

func readPolylineValue(encoded string, offset int) (int64, int, error) {
	var value uint64
	for shift := 0; ; shift += 5 {
		if offset >= len(encoded) || shift > 60 {
			return 0, 0, errPolylineTruncated
		}
		if encoded[offset] < 63 || encoded[offset] > 126 {
			return 0, 0, fmt.Errorf("invalid polyline character %q at %d", encoded[offset], offset)
		}
		chunk := uint64(encoded[offset]) - 63
		offset++
		value |= (chunk & 0x1f) << shift
		if chunk < 0x20 {
			break
		}
	}
	delta := int64(value >> 1)
	if value&1 != 0 {
		delta = ^delta
	}
	return delta, offset, nil
}
