package clips

import (
	"math"
	"sync"
)

// DurationGate filters clips by play time. Bounds are unset until the first
// successful Configure and can be changed at runtime.
type DurationGate struct {
	mu         sync.RWMutex
	min, max   float64
	configured bool
}

// NewDurationGate returns a gate with no bounds configured.
func NewDurationGate() *DurationGate {
	return &DurationGate{}
}

// Configure sets the bounds. max < min (or a NaN bound) returns
// ErrInvalidRange and leaves the previous bounds in place.
// min == max is accepted even though no duration can then pass.
func (g *DurationGate) Configure(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || max < min {
		return ErrInvalidRange
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.min, g.max = min, max
	g.configured = true
	return nil
}

// IsConfigured reports whether Configure has succeeded at least once.
func (g *DurationGate) IsConfigured() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.configured
}

// Accepts reports whether min < d < max. An unconfigured gate accepts nothing;
// callers should check IsConfigured first to report the right reason.
func (g *DurationGate) Accepts(d float64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.configured && g.min < d && d < g.max
}

// Bounds returns the configured bounds. ok is false when unset.
func (g *DurationGate) Bounds() (min, max float64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.min, g.max, g.configured
}
