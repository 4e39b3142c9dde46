package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock returns successive times from a fixed start.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestFPSMeter_FirstTickHasNoMeasurement(t *testing.T) {
	clock := newFakeClock()
	m := &FPSMeter{now: clock.now}

	fps, ok := m.Tick()
	assert.False(t, ok)
	assert.Zero(t, fps)
}

func TestFPSMeter_Instantaneous(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    float64
	}{
		{name: "30 fps", elapsed: time.Second / 30, want: 30},
		{name: "half a second", elapsed: 500 * time.Millisecond, want: 2},
		{name: "slow frame", elapsed: 4 * time.Second, want: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			m := &FPSMeter{now: clock.now}
			m.Tick()

			clock.advance(tt.elapsed)
			fps, ok := m.Tick()
			assert.True(t, ok)
			assert.InDelta(t, tt.want, fps, 1e-6)
		})
	}
}

func TestFPSMeter_NoSmoothing(t *testing.T) {
	clock := newFakeClock()
	m := &FPSMeter{now: clock.now}
	m.Tick()

	clock.advance(100 * time.Millisecond)
	fps, _ := m.Tick()
	assert.InDelta(t, 10, fps, 1e-6)

	clock.advance(time.Second)
	fps, _ = m.Tick()
	assert.InDelta(t, 1, fps, 1e-6, "each tick reflects only the last interval")
}

func TestFPSMeter_NonPositiveElapsed(t *testing.T) {
	clock := newFakeClock()
	m := &FPSMeter{now: clock.now}
	m.Tick()

	_, ok := m.Tick()
	assert.False(t, ok, "zero elapsed")

	clock.advance(-time.Second)
	_, ok = m.Tick()
	assert.False(t, ok, "clock went backwards")
}

func TestFPSMeter_Reset(t *testing.T) {
	clock := newFakeClock()
	m := &FPSMeter{now: clock.now}
	m.Tick()
	m.Reset()

	clock.advance(time.Second)
	_, ok := m.Tick()
	assert.False(t, ok)
}
