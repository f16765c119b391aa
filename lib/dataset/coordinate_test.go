// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"math"
	"testing"
)

func TestFromDegreesRoundtrip(t *testing.T) {
	coordinate := FromDegrees(52.519171, 13.406091)
	if coordinate.Lat != 52519171 || coordinate.Lon != 13406091 {
		t.Fatalf("FromDegrees = %+v", coordinate)
	}
	lat, lon := coordinate.Degrees()
	if math.Abs(lat-52.519171) > 1e-9 || math.Abs(lon-13.406091) > 1e-9 {
		t.Errorf("Degrees = %f,%f", lat, lon)
	}
	if got := coordinate.String(); got != "52.519171,13.406091" {
		t.Errorf("String = %q", got)
	}
}

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.000001, 0, false},
		{0, -180.000001, false},
	}
	for _, test := range tests {
		if got := FromDegrees(test.lat, test.lon).Valid(); got != test.want {
			t.Errorf("FromDegrees(%v, %v).Valid() = %v, want %v", test.lat, test.lon, got, test.want)
		}
	}
}

func TestDistance(t *testing.T) {
	// One degree of latitude on the model sphere.
	oneDegree := Distance(FromDegrees(10, 20), FromDegrees(11, 20))
	want := earthRadius * math.Pi / 180
	if math.Abs(oneDegree-want) > 0.5 {
		t.Errorf("one degree of latitude = %.1fm, want %.1fm", oneDegree, want)
	}

	if got := Distance(FromDegrees(1, 1), FromDegrees(1, 1)); got != 0 {
		t.Errorf("distance to self = %f", got)
	}

	// Berlin to Paris is roughly 878 km.
	berlinParis := Distance(FromDegrees(52.5200, 13.4050), FromDegrees(48.8566, 2.3522))
	if berlinParis < 870_000 || berlinParis > 885_000 {
		t.Errorf("Berlin-Paris = %.0fm", berlinParis)
	}
}

func TestProject(t *testing.T) {
	a := FromDegrees(52.520, 13.400)
	b := FromDegrees(52.520, 13.402)

	location, ratio := project(FromDegrees(52.5205, 13.4015), a, b)
	if math.Abs(ratio-0.75) > 1e-3 {
		t.Errorf("ratio = %f, want 0.75", ratio)
	}
	if location.Lat != a.Lat || math.Abs(float64(location.Lon-FromDegrees(0, 13.4015).Lon)) > 1 {
		t.Errorf("location = %v", location)
	}

	// Beyond an endpoint the projection clamps.
	location, ratio = project(FromDegrees(52.520, 13.390), a, b)
	if ratio != 0 || location != a {
		t.Errorf("clamped projection = %v (%f), want %v (0)", location, ratio, a)
	}

	// Degenerate segment.
	location, ratio = project(FromDegrees(52.6, 13.5), a, a)
	if ratio != 0 || location != a {
		t.Errorf("degenerate projection = %v (%f)", location, ratio)
	}
}
