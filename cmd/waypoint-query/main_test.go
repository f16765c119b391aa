// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/waypoint/lib/codec"
	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/plugin"
	"github.com/bureau-foundation/waypoint/lib/service"
)

func parse(t *testing.T, args ...string) (*plugin.Request, error) {
	t.Helper()
	var flags queryFlags
	flagSet := newFlagSet(&flags)
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}
	return buildRequest(flagSet.Args(), &flags)
}

func TestBuildRequest(t *testing.T) {
	request, err := parse(t,
		"viaroute", "52.52,13.405", "52.5163, 13.3777",
		"--hint", "abc", "--hint", "def",
		"--checksum", "42",
		"--alt", "--instructions", "-z", "12",
		"--option", "jsonp=cb",
	)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}

	want := &plugin.Request{
		Service: "viaroute",
		Coordinates: []dataset.Coordinate{
			{Lat: 52520000, Lon: 13405000},
			{Lat: 52516300, Lon: 13377700},
		},
		Hints:        []string{"abc", "def"},
		Checksum:     42,
		Zoom:         12,
		Alternative:  true,
		Instructions: true,
		Geometry:     true,
		Options:      map[string]string{"jsonp": "cb"},
	}
	if diff := cmp.Diff(want, request); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRequestServiceOnly(t *testing.T) {
	request, err := parse(t, "timestamp")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if request.Service != "timestamp" || len(request.Coordinates) != 0 {
		t.Errorf("request = %+v, want a bare timestamp request", request)
	}
}

func TestBuildRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing service", nil, "missing service name"},
		{"no comma", []string{"locate", "52.52"}, "want lat,lon"},
		{"bad latitude", []string{"locate", "north,13.4"}, "latitude"},
		{"bad longitude", []string{"locate", "52.5,east"}, "longitude"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parse(t, test.args...)
			if err == nil {
				t.Fatal("buildRequest succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %q, want it to mention %q", err, test.want)
			}
		})
	}
}

func TestPrintReplyJSON(t *testing.T) {
	body, err := codec.Marshal(map[string]any{"status": 0, "timestamp": "2026-01-01"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	reply := &service.WireReply{RequestID: "req-1", Status: plugin.StatusOK, Body: body}

	var output bytes.Buffer
	if err := printReply(&output, reply, false); err != nil {
		t.Fatalf("printReply: %v", err)
	}

	var decoded struct {
		RequestID string         `json:"request_id"`
		Status    int            `json:"status"`
		Body      map[string]any `json:"body"`
	}
	if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output.String())
	}
	if decoded.RequestID != "req-1" || decoded.Status != 200 {
		t.Errorf("envelope = %+v, want req-1 with status 200", decoded)
	}
	if decoded.Body["timestamp"] != "2026-01-01" {
		t.Errorf("body = %v, want timestamp 2026-01-01", decoded.Body)
	}
}

func TestPrintReplyRaw(t *testing.T) {
	body, err := codec.Marshal("Bad Request")
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	reply := &service.WireReply{RequestID: "req-2", Status: plugin.StatusBadRequest, Body: body}

	var output bytes.Buffer
	if err := printReply(&output, reply, true); err != nil {
		t.Fatalf("printReply: %v", err)
	}
	for _, want := range []string{"req-2", "400 Bad Request", `"Bad Request"`} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("output %q missing %q", output.String(), want)
		}
	}
}
