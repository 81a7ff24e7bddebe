// Package delay provides a busy-wait microsecond delay provider seeded
// from the frozen clock tree, mirroring the machine-mode cycle counter
// (mcycle) delay of the target hardware.
//
// On target hardware the cycle source reads the mcycle CSR; the default
// source used here derives an equivalent cycle count from the monotonic
// clock so that timing-sensitive sequences behave the same in simulation
// and tests.
package delay

import (
	"time"

	"github.com/ardnew/gd32vf103/rcu"
)

// CycleSource returns a monotonically increasing cycle count.
type CycleSource func() uint64

// Delay busy-waits for wall-clock intervals measured in core cycles.
type Delay struct {
	freq   uint32
	cycles CycleSource
}

// New creates a delay provider running at the frozen system clock rate.
func New(clocks rcu.Clocks) *Delay {
	return &Delay{
		freq:   clocks.SysClk(),
		cycles: timeSource(clocks.SysClk()),
	}
}

// WithSource replaces the cycle source. Target ports install a source
// backed by the hardware cycle counter.
func (d *Delay) WithSource(src CycleSource) *Delay {
	d.cycles = src
	return d
}

// timeSource synthesizes a cycle counter from the monotonic clock.
func timeSource(freq uint32) CycleSource {
	start := time.Now()
	return func() uint64 {
		return uint64(time.Since(start).Nanoseconds()) * uint64(freq) / 1_000_000_000
	}
}

// Us busy-waits for at least us microseconds.
func (d *Delay) Us(us uint32) {
	t0 := d.cycles()
	want := uint64(us) * uint64(d.freq) / 1_000_000
	for d.cycles()-t0 <= want {
	}
}

// Ms busy-waits for at least ms milliseconds.
func (d *Delay) Ms(ms uint32) {
	d.Us(ms * 1000)
}
