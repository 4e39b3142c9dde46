package app

import "time"

// FPSMeter measures the instantaneous frame rate between consecutive ticks.
// There is no smoothing.
type FPSMeter struct {
	now  func() time.Time
	last time.Time
}

// NewFPSMeter creates a meter using the wall clock.
func NewFPSMeter() *FPSMeter {
	return &FPSMeter{now: time.Now}
}

// Tick records the current time and returns 1/elapsed since the previous
// tick. The first tick, and any tick whose elapsed time is not positive,
// reports no measurement.
func (m *FPSMeter) Tick() (float64, bool) {
	now := m.now()
	last := m.last
	m.last = now

	if last.IsZero() {
		return 0, false
	}

	elapsed := now.Sub(last)
	if elapsed <= 0 {
		return 0, false
	}
	return float64(time.Second) / float64(elapsed), true
}

// Reset forgets the previous tick.
func (m *FPSMeter) Reset() {
	m.last = time.Time{}
}
