package codes

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeRemaining(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := base.Add(15 * time.Minute)

	tests := []struct {
		name        string
		now         time.Time
		wantExpired bool
		wantSeconds int
		wantFormat  string
	}{
		{"just created", base, false, 900, "15:00"},
		{"one second left", base.Add(14*time.Minute + 59*time.Second), false, 1, "00:01"},
		{"exact expiry", expiry, true, 0, "00:00"},
		{"past expiry", expiry.Add(time.Hour), true, 0, "00:00"},
		{"sub-second rounds up", expiry.Add(-500 * time.Millisecond), false, 1, "00:01"},
		{"mid window", base.Add(7 * time.Minute), false, 480, "08:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeRemaining(expiry, tt.now)
			if got.IsExpired != tt.wantExpired || got.TotalSeconds != tt.wantSeconds || got.Formatted != tt.wantFormat {
				t.Fatalf("TimeRemaining = %+v, want expired=%v seconds=%d format=%q",
					got, tt.wantExpired, tt.wantSeconds, tt.wantFormat)
			}
		})
	}
}

func TestTimeRemainingHourFormat(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		left time.Duration
		want string
	}{
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "01:00:00"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
	}
	for _, tt := range tests {
		got := TimeRemaining(now.Add(tt.left), now)
		if got.Formatted != tt.want {
			t.Fatalf("%v left: format = %q, want %q", tt.left, got.Formatted, tt.want)
		}
	}
}

func TestTimeRemainingIsPure(t *testing.T) {
	expiry := time.Date(2025, 3, 1, 12, 15, 0, 0, time.UTC)
	now := expiry.Add(-42 * time.Second)
	first := TimeRemaining(expiry, now)
	for i := 0; i < 5; i++ {
		if got := TimeRemaining(expiry, now); got != first {
			t.Fatalf("call %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestCountdownFiresExpiredOnce(t *testing.T) {
	var ticks, expirations atomic.Int64
	c := NewCountdown(CountdownConfig{
		ExpiresAt: time.Now().Add(50 * time.Millisecond),
		Interval:  5 * time.Millisecond,
		OnTick:    func(Remaining) { ticks.Add(1) },
		OnExpired: func() { expirations.Add(1) },
	})

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown did not finish")
	}
	if got := expirations.Load(); got != 1 {
		t.Fatalf("expected exactly one expiry callback, got %d", got)
	}
	if ticks.Load() < 2 {
		t.Fatalf("expected multiple ticks before expiry, got %d", ticks.Load())
	}

	// Restarting a finished countdown re-evaluates but never refires.
	c.Run(context.Background())
	if got := expirations.Load(); got != 1 {
		t.Fatalf("restart refired the expiry callback: %d", got)
	}
}

func TestCountdownHonorsCancel(t *testing.T) {
	c := NewCountdown(CountdownConfig{
		ExpiresAt: time.Now().Add(time.Hour),
		Interval:  5 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown ignored cancellation")
	}
}
