// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestReportFormatsWrappedError(t *testing.T) {
	var buffer bytes.Buffer
	report(&buffer, fmt.Errorf("bootstrapping facade: %w", errors.New("no such file")))

	want := "error: bootstrapping facade: no such file\n"
	if buffer.String() != want {
		t.Errorf("report wrote %q, want %q", buffer.String(), want)
	}
}

func TestFatalExitsWithStatusOne(t *testing.T) {
	var status int
	original := exit
	exit = func(code int) { status = code }
	t.Cleanup(func() { exit = original })

	Fatal(errors.New("boom"))
	if status != 1 {
		t.Errorf("exit status = %d, want 1", status)
	}
}
