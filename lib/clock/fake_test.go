// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	if got := Since(clock, epoch); got != 5*time.Second {
		t.Fatalf("Since(epoch) = %v, want 5s", got)
	}
}

func TestFakeClockAfter(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-channel:
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeClockAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(d):
		default:
			t.Fatalf("After(%v) should be ready immediately", d)
		}
	}
}

func TestFakeClockAfterFuncOrder(t *testing.T) {
	clock := Fake(epoch)
	var fired []string
	clock.AfterFunc(3*time.Second, func() { fired = append(fired, "third") })
	clock.AfterFunc(1*time.Second, func() { fired = append(fired, "first") })
	clock.AfterFunc(2*time.Second, func() { fired = append(fired, "second") })

	clock.Advance(10 * time.Second)

	want := []string{"first", "second", "third"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
}

func TestFakeClockAfterFuncStop(t *testing.T) {
	clock := Fake(epoch)
	called := false
	timer := clock.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Fatal("Stop on a pending timer should return true")
	}
	if timer.Stop() {
		t.Fatal("second Stop should return false")
	}
	clock.Advance(time.Minute)
	if called {
		t.Fatal("stopped timer fired")
	}
	if clock.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d, want 0", clock.PendingCount())
	}
}

func TestFakeClockAfterFuncReset(t *testing.T) {
	clock := Fake(epoch)
	calls := 0
	timer := clock.AfterFunc(time.Second, func() { calls++ })

	clock.Advance(500 * time.Millisecond)
	if !timer.Reset(time.Second) {
		t.Fatal("Reset on a pending timer should return true")
	}
	clock.Advance(900 * time.Millisecond)
	if calls != 0 {
		t.Fatal("timer fired at its original deadline after Reset")
	}
	clock.Advance(100 * time.Millisecond)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	// A fired timer can be rearmed.
	if timer.Reset(time.Second) {
		t.Fatal("Reset after firing should return false")
	}
	clock.Advance(time.Second)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFakeClockSleepAndWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})
	go func() {
		clock.Sleep(5 * time.Second)
		close(done)
	}()

	clock.WaitForTimers(1)
	clock.Advance(5 * time.Second)
	<-done
}
