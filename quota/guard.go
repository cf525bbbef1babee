// Package quota bounds the number of records a crawl emits.
package quota

import (
	"fmt"
	"sync/atomic"
)

// Mode selects how Acquire gates emissions.
type Mode string

const (
	// BestEffort checks and increments in two steps. Concurrent callers can
	// all pass the check before any of them increments, so the emitted count
	// may exceed the maximum.
	BestEffort Mode = "best-effort"
	// Strict reserves a slot with compare-and-swap; emitted never exceeds max.
	Strict Mode = "strict"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", BestEffort:
		return BestEffort, nil
	case Strict:
		return Strict, nil
	default:
		return "", fmt.Errorf("unknown quota mode %q", s)
	}
}

// Guard is shared by every handler of a crawl run. It is never reset and the
// counter never decreases.
type Guard struct {
	max     int64
	mode    Mode
	emitted atomic.Int64
}

// NewGuard creates a guard allowing max emissions.
func NewGuard(max int, mode Mode) *Guard {
	if mode == "" {
		mode = BestEffort
	}
	return &Guard{max: int64(max), mode: mode}
}

// CanEmit reports whether the quota still has room.
func (g *Guard) CanEmit() bool {
	return g.emitted.Load() < g.max
}

// RecordEmitted counts one emission.
func (g *Guard) RecordEmitted() {
	g.emitted.Add(1)
}

// Acquire decides whether a finalized record may be emitted and, if so,
// counts it. A refused record does not free or consume capacity.
func (g *Guard) Acquire() bool {
	if g.mode == Strict {
		for {
			current := g.emitted.Load()
			if current >= g.max {
				return false
			}
			if g.emitted.CompareAndSwap(current, current+1) {
				return true
			}
		}
	}
	if !g.CanEmit() {
		return false
	}
	g.RecordEmitted()
	return true
}

// Emitted returns the number of emissions counted so far.
func (g *Guard) Emitted() int {
	return int(g.emitted.Load())
}

// Max returns the configured limit.
func (g *Guard) Max() int {
	return int(g.max)
}

// Mode returns the gating mode.
func (g *Guard) Mode() Mode {
	return g.mode
}
