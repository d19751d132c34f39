// Package codes renders registration-code expiry for the terminal
// front-ends: a pure remaining-time calculation plus a ticker that
// re-evaluates it every second and fires an expiry callback exactly
// once.
package codes

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// Remaining is the displayable time left before a code expires.
type Remaining struct {
	IsExpired    bool
	TotalSeconds int
	Formatted    string
}

// TimeRemaining computes the time left until expiresAt as of now. It is
// pure: same inputs, same answer. Expiry is inclusive, so a code is
// expired at the exact expiry instant. Sub-second remainders round up
// so a live code never displays 00:00.
func TimeRemaining(expiresAt, now time.Time) Remaining {
	if !now.Before(expiresAt) {
		return Remaining{IsExpired: true, TotalSeconds: 0, Formatted: "00:00"}
	}
	secs := int(math.Ceil(expiresAt.Sub(now).Seconds()))
	return Remaining{TotalSeconds: secs, Formatted: formatSeconds(secs)}
}

// formatSeconds renders MM:SS, growing to HH:MM:SS above an hour.
func formatSeconds(secs int) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// CountdownConfig controls Countdown construction.
type CountdownConfig struct {
	ExpiresAt time.Time
	// OnTick receives every re-evaluation, including the final expired
	// one. Callbacks run on the countdown goroutine.
	OnTick func(Remaining)
	// OnExpired fires exactly once when the countdown crosses expiry,
	// even if the countdown is restarted afterwards.
	OnExpired func()
	// Interval defaults to one second.
	Interval time.Duration
}

// Countdown re-evaluates a code's remaining time on a fixed interval.
// It keeps no persisted state, so restarting one after a crash just
// re-derives everything from the expiry timestamp.
type Countdown struct {
	expiresAt  time.Time
	onTick     func(Remaining)
	onExpired  func()
	interval   time.Duration
	expireOnce sync.Once
}

// NewCountdown creates a countdown for one expiry timestamp.
func NewCountdown(cfg CountdownConfig) *Countdown {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		expiresAt: cfg.ExpiresAt,
		onTick:    cfg.OnTick,
		onExpired: cfg.OnExpired,
		interval:  interval,
	}
}

// Run ticks until the code expires or ctx is cancelled. The first
// evaluation happens immediately, not one interval in.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if c.emit(time.Now()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if c.emit(now) {
				return
			}
		}
	}
}

// emit evaluates once and reports whether the countdown is finished.
func (c *Countdown) emit(now time.Time) bool {
	r := TimeRemaining(c.expiresAt, now)
	if c.onTick != nil {
		c.onTick(r)
	}
	if r.IsExpired {
		c.expireOnce.Do(func() {
			if c.onExpired != nil {
				c.onExpired()
			}
		})
		return true
	}
	return false
}
