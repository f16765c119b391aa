// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugins

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/dataset/datasettest"
)

func TestHintRoundtrip(t *testing.T) {
	phantom := dataset.PhantomNode{
		Location: datasettest.Coordinate(1, 1),
		Edge:     3,
		Source:   datasettest.Node(1, 1),
		Target:   datasettest.Node(1, 2),
		NameID:   2,
		Ratio:    0.25,
		Distance: 4.5,
	}
	hint, err := EncodeHint(phantom)
	if err != nil {
		t.Fatalf("EncodeHint: %v", err)
	}
	if strings.ContainsAny(hint, "+/=") {
		t.Errorf("hint %q is not URL safe", hint)
	}
	decoded, err := DecodeHint(hint)
	if err != nil {
		t.Fatalf("DecodeHint: %v", err)
	}
	if diff := cmp.Diff(phantom, decoded); diff != "" {
		t.Errorf("decoded hint (-want +got):\n%s", diff)
	}
}

func TestDecodeHintRejectsGarbage(t *testing.T) {
	for _, hint := range []string{
		"not base64!",
		"AAAA",
		strings.Repeat("A", 1024),
	} {
		if _, err := DecodeHint(hint); err == nil {
			t.Errorf("DecodeHint(%.20q) succeeded", hint)
		}
	}
}

func TestPolyline(t *testing.T) {
	path := []dataset.Coordinate{
		dataset.FromDegrees(38.5, -120.2),
		dataset.FromDegrees(40.7, -120.95),
		dataset.FromDegrees(43.252, -126.453),
	}
	const encoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

	if got := EncodePolyline(path); got != encoded {
		t.Errorf("EncodePolyline = %q, want %q", got, encoded)
	}
	decoded, err := DecodePolyline(encoded)
	if err != nil {
		t.Fatalf("DecodePolyline: %v", err)
	}
	if diff := cmp.Diff(path, decoded); diff != "" {
		t.Errorf("DecodePolyline (-want +got):\n%s", diff)
	}
}

func TestPolylineEmpty(t *testing.T) {
	if got := EncodePolyline(nil); got != "" {
		t.Errorf("EncodePolyline(nil) = %q", got)
	}
	decoded, err := DecodePolyline("")
	if err != nil || decoded != nil {
		t.Errorf("DecodePolyline(\"\") = %v, %v", decoded, err)
	}
}

func TestDecodePolylineRejectsMalformed(t *testing.T) {
	for _, encoded := range []string{
		"_p~iF",      // latitude without longitude
		"_p~iF~ps|",  // longitude cut short
		"_p~iF~ps U", // character outside the alphabet
	} {
		if _, err := DecodePolyline(encoded); err == nil {
			t.Errorf("DecodePolyline(%q) succeeded", encoded)
		}
	}
}
