// Copyright 2026 The DbLogger Authors
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
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	select {
	case <-channel:
		t.Fatal("After fired before Advance")
	default:
	}

	clock.Advance(3 * time.Second)

	select {
	case fired := <-channel:
		if !fired.Equal(epoch.Add(3 * time.Second)) {
			t.Errorf("fired at %v, want %v", fired, epoch.Add(3*time.Second))
		}
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeClockAfterNonPositiveDuration(t *testing.T) {
	clock := Fake(epoch)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(d):
		default:
			t.Fatalf("After(%v) should fire immediately", d)
		}
	}
	if clock.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", clock.PendingCount())
	}
}

func TestFakeClockAfterPartialAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(3 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before deadline")
	default:
	}
	if clock.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", clock.PendingCount())
	}

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
	default:
		t.Fatal("After did not fire at exact deadline")
	}
	if clock.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0 after firing", clock.PendingCount())
	}
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})

	go func() {
		<-clock.After(time.Second)
		close(done)
	}()

	clock.WaitForTimers(1)
	clock.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("goroutine waiting on After never woke")
	}
}
