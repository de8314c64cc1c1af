package override

import (
	"math/rand"
	"sync"
	"time"
)

// Walk bounds around the operator's target. Positive targets drift inside
// [-2, +5], negative targets inside [-5, +2], so the displayed number leans
// toward the target's sign.
const (
	walkUpperPositive = 5.0
	walkLowerPositive = -2.0
	walkUpperNegative = 2.0
	walkLowerNegative = -5.0

	walkStepSize = 1.2

	// DefaultWalkInterval is how often the displayed P&L% re-rolls.
	DefaultWalkInterval = 1500 * time.Millisecond
)

// walkState is the per-position record of the bounded random walk. It is
// owned by the Simulator and keyed by position id; nothing else mutates it.
type walkState struct {
	offset        float64
	lastUpdate    time.Time
	baseTargetPct float64
}

// Simulator produces the displayed P&L% for overridden positions as
// target + offset, where offset performs a biased bounded random walk.
// The offset recenters only when the operator changes the target.
type Simulator struct {
	mu       sync.Mutex
	states   map[uint]*walkState
	interval time.Duration
	now      func() time.Time
	roll     func() float64
}

// NewSimulator creates a simulator re-rolling at the given interval. The
// clock and the random source are injectable for tests; pass nil for the
// real ones.
func NewSimulator(interval time.Duration, now func() time.Time, roll func() float64) *Simulator {
	if interval <= 0 {
		interval = DefaultWalkInterval
	}
	if now == nil {
		now = time.Now
	}
	if roll == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		roll = rng.Float64
	}
	return &Simulator{
		states:   make(map[uint]*walkState),
		interval: interval,
		now:      now,
		roll:     roll,
	}
}

// Tick returns the displayed P&L% for a position. The walk advances at most
// once per interval; between rolls the previous offset is reused. A changed
// target resets the offset to zero.
func (s *Simulator) Tick(positionID uint, targetPct float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[positionID]
	if !ok || state.baseTargetPct != targetPct {
		state = &walkState{baseTargetPct: targetPct}
		s.states[positionID] = state
	}

	now := s.now()
	if state.lastUpdate.IsZero() || now.Sub(state.lastUpdate) >= s.interval {
		state.offset = s.step(state.offset, targetPct)
		state.lastUpdate = now
	}

	return targetPct + state.offset
}

// Recenter resets the walk for a position, e.g. after the operator sets a
// new target.
func (s *Simulator) Recenter(positionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, positionID)
}

// Retain drops walk state for any position not in keep. Called by the walk
// loop so positions that exited the override (fresh buy, close) do not leak
// state.
func (s *Simulator) Retain(keep map[uint]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.states {
		if !keep[id] {
			delete(s.states, id)
		}
	}
}

// step advances the offset by one biased roll and clamps it to the band for
// the target's sign.
func (s *Simulator) step(offset, targetPct float64) float64 {
	lower, upper := walkLowerPositive, walkUpperPositive
	bias := 0.45 // roll above bias moves up, so positive targets drift up
	if targetPct < 0 {
		lower, upper = walkLowerNegative, walkUpperNegative
		bias = 0.55
	}

	offset += (s.roll() - bias) * walkStepSize
	if offset > upper {
		offset = upper
	}
	if offset < lower {
		offset = lower
	}
	return offset
}
