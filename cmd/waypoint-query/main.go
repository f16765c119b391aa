// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// waypoint-query sends one request to a running waypoint-routed and
// prints the reply as JSON.
//
// Usage:
//
//	waypoint-query [flags] <service> [lat,lon ...]
//
// For example:
//
//	waypoint-query nearest 52.5200,13.4050 --number 5
//	waypoint-query viaroute 52.5200,13.4050 52.5163,13.3777 --instructions
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/waypoint/lib/codec"
	"github.com/bureau-foundation/waypoint/lib/config"
	"github.com/bureau-foundation/waypoint/lib/dataset"
	"github.com/bureau-foundation/waypoint/lib/plugin"
	"github.com/bureau-foundation/waypoint/lib/process"
	"github.com/bureau-foundation/waypoint/lib/service"
	"github.com/bureau-foundation/waypoint/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

type queryFlags struct {
	configPath   string
	socketPath   string
	hints        []string
	checksum     uint32
	number       int
	zoom         int
	alternative  bool
	instructions bool
	geometry     bool
	language     string
	options      map[string]string
	timeout      time.Duration
	raw          bool
	showVersion  bool
}

func newFlagSet(flags *queryFlags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("waypoint-query", pflag.ContinueOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: waypoint-query [flags] <service> [lat,lon ...]\n\nFlags:\n")
		flagSet.PrintDefaults()
	}
	flagSet.StringVar(&flags.configPath, "config", "", "read the socket path from this waypoint.yaml")
	flagSet.StringVar(&flags.socketPath, "socket", "", "server socket (default: server.socket_path, or "+config.Default().Server.SocketPath+")")
	flagSet.StringArrayVar(&flags.hints, "hint", nil, "location hint for the coordinate at the same position (repeatable)")
	flagSet.Uint32Var(&flags.checksum, "checksum", 0, "dataset checksum the hints were issued against")
	flagSet.IntVar(&flags.number, "number", 0, "number of nearest candidates")
	flagSet.IntVarP(&flags.zoom, "zoom", "z", 18, "zoom level for geometry generalization")
	flagSet.BoolVar(&flags.alternative, "alt", false, "request an alternative route")
	flagSet.BoolVar(&flags.instructions, "instructions", false, "request turn instructions")
	flagSet.BoolVar(&flags.geometry, "geometry", true, "request route geometry")
	flagSet.StringVar(&flags.language, "language", "", "instruction language")
	flagSet.StringToStringVar(&flags.options, "option", nil, "extra key=value request options")
	flagSet.DurationVar(&flags.timeout, "timeout", 30*time.Second, "overall request timeout")
	flagSet.BoolVar(&flags.raw, "raw", false, "print the reply in CBOR diagnostic notation")
	flagSet.BoolVar(&flags.showVersion, "version", false, "print version information and exit")
	return flagSet
}

func run(args []string, stdout io.Writer) error {
	var flags queryFlags
	flagSet := newFlagSet(&flags)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.showVersion {
		fmt.Fprintln(stdout, "waypoint-query", version.Full())
		return nil
	}

	request, err := buildRequest(flagSet.Args(), &flags)
	if err != nil {
		return err
	}
	socketPath, err := resolveSocket(&flags)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	reply, err := service.NewClient(socketPath).Query(ctx, request)
	if err != nil {
		return err
	}
	return printReply(stdout, reply, flags.raw)
}

// buildRequest assembles a request from the positional arguments: the
// service name followed by coordinates in degrees.
func buildRequest(positional []string, flags *queryFlags) (*plugin.Request, error) {
	if len(positional) == 0 {
		return nil, errors.New("missing service name; usage: waypoint-query [flags] <service> [lat,lon ...]")
	}
	request := &plugin.Request{
		Service:      positional[0],
		Hints:        flags.hints,
		Checksum:     flags.checksum,
		Number:       flags.number,
		Zoom:         flags.zoom,
		Alternative:  flags.alternative,
		Instructions: flags.instructions,
		Geometry:     flags.geometry,
		Language:     flags.language,
		Options:      flags.options,
	}
	for _, argument := range positional[1:] {
		coordinate, err := parseCoordinate(argument)
		if err != nil {
			return nil, err
		}
		request.Coordinates = append(request.Coordinates, coordinate)
	}
	return request, nil
}

// parseCoordinate parses "lat,lon" in degrees. Range is not checked:
// the server decides what it accepts.
func parseCoordinate(argument string) (dataset.Coordinate, error) {
	latText, lonText, found := strings.Cut(argument, ",")
	if !found {
		return dataset.Coordinate{}, fmt.Errorf("coordinate %q: want lat,lon", argument)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return dataset.Coordinate{}, fmt.Errorf("coordinate %q: latitude: %w", argument, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return dataset.Coordinate{}, fmt.Errorf("coordinate %q: longitude: %w", argument, err)
	}
	return dataset.FromDegrees(lat, lon), nil
}

func resolveSocket(flags *queryFlags) (string, error) {
	if flags.socketPath != "" {
		return flags.socketPath, nil
	}
	if flags.configPath != "" {
		cfg, err := config.LoadFile(flags.configPath)
		if err != nil {
			return "", fmt.Errorf("loading configuration: %w", err)
		}
		return cfg.Server.SocketPath, nil
	}
	if os.Getenv("WAYPOINT_CONFIG") != "" {
		cfg, err := config.Load()
		if err != nil {
			return "", fmt.Errorf("loading configuration: %w", err)
		}
		return cfg.Server.SocketPath, nil
	}
	return config.Default().Server.SocketPath, nil
}

// printReply writes the reply as JSON, indented when stdout is a
// terminal. Bodies that do not map onto JSON fall back to CBOR
// diagnostic notation.
func printReply(stdout io.Writer, reply *service.WireReply, raw bool) error {
	if raw {
		return printDiagnostic(stdout, reply)
	}

	var body any
	if len(reply.Body) > 0 {
		if err := reply.Decode(&body); err != nil {
			return fmt.Errorf("decoding reply body: %w", err)
		}
	}
	envelope := struct {
		RequestID string        `json:"request_id"`
		Status    plugin.Status `json:"status"`
		Body      any           `json:"body,omitempty"`
	}{reply.RequestID, reply.Status, body}

	encoder := json.NewEncoder(stdout)
	if file, ok := stdout.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(envelope); err != nil {
		return printDiagnostic(stdout, reply)
	}
	return nil
}

func printDiagnostic(stdout io.Writer, reply *service.WireReply) error {
	fmt.Fprintf(stdout, "request_id: %s\nstatus: %d %s\n", reply.RequestID, int(reply.Status), reply.Status)
	if len(reply.Body) == 0 {
		return nil
	}
	diagnostic, err := codec.Diagnose(reply.Body)
	if err != nil {
		return fmt.Errorf("diagnosing reply body: %w", err)
	}
	fmt.Fprintln(stdout, diagnostic)
	return nil
}
