// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"math"
)

// CoordinatePrecision is the number of fixed-point units per degree.
const CoordinatePrecision = 1e6

// earthRadius in meters. Distances are on a sphere of this radius.
const earthRadius = 6372797.560856

// metersPerUnit is the length of one fixed-point unit of latitude.
const metersPerUnit = earthRadius * math.Pi / 180 / CoordinatePrecision

// Coordinate is a WGS84 position in millionths of a degree.
type Coordinate struct {
	Lat int32 `cbor:"lat" json:"lat"`
	Lon int32 `cbor:"lon" json:"lon"`
}

// FromDegrees converts decimal degrees to a Coordinate.
func FromDegrees(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: int32(math.Round(lat * CoordinatePrecision)),
		Lon: int32(math.Round(lon * CoordinatePrecision)),
	}
}

// Degrees returns the coordinate in decimal degrees.
func (c Coordinate) Degrees() (lat, lon float64) {
	return float64(c.Lat) / CoordinatePrecision, float64(c.Lon) / CoordinatePrecision
}

// Valid reports whether the coordinate lies within ±90° latitude and
// ±180° longitude.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90*CoordinatePrecision && c.Lat <= 90*CoordinatePrecision &&
		c.Lon >= -180*CoordinatePrecision && c.Lon <= 180*CoordinatePrecision
}

func (c Coordinate) String() string {
	lat, lon := c.Degrees()
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}

// Distance returns the great-circle distance between a and b in
// meters.
func Distance(a, b Coordinate) float64 {
	lat1, lon1 := a.Degrees()
	lat2, lon2 := b.Degrees()
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := phi2 - phi1
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// project returns the point on segment a-b closest to query, and its
// position along the segment as a ratio from a (0) to b (1). It works
// in an equirectangular projection centered on the query, which is
// accurate at street scale.
func project(query, a, b Coordinate) (Coordinate, float64) {
	queryLat, _ := query.Degrees()
	scale := math.Cos(queryLat * math.Pi / 180)

	ax, ay := float64(a.Lon)*scale, float64(a.Lat)
	bx, by := float64(b.Lon)*scale, float64(b.Lat)
	qx, qy := float64(query.Lon)*scale, float64(query.Lat)

	dx, dy := bx-ax, by-ay
	lengthSquared := dx*dx + dy*dy
	ratio := 0.0
	if lengthSquared > 0 {
		ratio = ((qx-ax)*dx + (qy-ay)*dy) / lengthSquared
		ratio = math.Max(0, math.Min(1, ratio))
	}

	return Coordinate{
		Lat: int32(math.Round(float64(a.Lat) + ratio*float64(b.Lat-a.Lat))),
		Lon: int32(math.Round(float64(a.Lon) + ratio*float64(b.Lon-a.Lon))),
	}, ratio
}
