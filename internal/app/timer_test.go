package app_test

import (
	"testing"
	"time"

	"assessment-service/internal/app"
)

func TestTimerExpiresExactlyOnce(t *testing.T) {
	fired := 0
	timer := app.NewTimer(45, func() { fired++ })

	for i := 0; i < 60; i++ {
		timer.Tick()
		if timer.Remaining() < 0 {
			t.Fatalf("remaining went negative at tick %d", i)
		}
		if i == 43 && fired != 0 {
			t.Fatalf("expired early after %d ticks", i+1)
		}
	}
	if fired != 1 {
		t.Fatalf("expected one expiry, got %d", fired)
	}
	if timer.Remaining() != 0 || !timer.Expired() {
		t.Fatalf("expected expired timer at zero, got %d", timer.Remaining())
	}
}

func TestTimerStopPreventsExpiry(t *testing.T) {
	fired := 0
	timer := app.NewTimer(45, func() { fired++ })
	for i := 0; i < 10; i++ {
		timer.Tick()
	}
	timer.Stop()
	for i := 0; i < 100; i++ {
		timer.Tick()
	}
	if fired != 0 {
		t.Fatalf("stopped timer fired %d times", fired)
	}
	if timer.Remaining() != 35 {
		t.Fatalf("expected 35 remaining, got %d", timer.Remaining())
	}
}

func TestTimerReportsEveryTick(t *testing.T) {
	var seen []int
	timer := app.NewTimer(3, nil)
	timer.OnTick(func(remaining int) { seen = append(seen, remaining) })
	for i := 0; i < 5; i++ {
		timer.Tick()
	}
	if len(seen) != 3 || seen[0] != 2 || seen[2] != 0 {
		t.Fatalf("unexpected tick sequence %v", seen)
	}
}

func TestTimerStartUsesWallClock(t *testing.T) {
	done := make(chan struct{})
	timer := app.NewTimer(3, func() { close(done) })
	timer.Start(time.Millisecond)
	defer timer.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not expire")
	}
}

func TestSeverityThresholds(t *testing.T) {
	cases := []struct {
		remaining int
		want      app.Severity
	}{
		{45, app.SeverityNormal},
		{20, app.SeverityNormal},
		{19, app.SeverityWarning},
		{10, app.SeverityWarning},
		{9, app.SeverityCritical},
		{0, app.SeverityCritical},
	}
	for _, tc := range cases {
		if got := app.SeverityFor(tc.remaining); got != tc.want {
			t.Fatalf("severity(%d) = %s, want %s", tc.remaining, got, tc.want)
		}
	}
}
