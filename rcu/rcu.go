// Package rcu models the reset and clock unit of the GD32VF103: clock-tree
// frequency derivation and peripheral bus enable/reset control.
//
// Clock configuration follows the freeze pattern: a [Config] describes the
// desired system clock, [Config.Freeze] searches the PLL multiplier space
// for a setting that reaches it exactly, and the resulting [Clocks] value
// is immutable. Downstream drivers take Clocks to derive timing (e.g. the
// cycle-counter delay provider used by the USBFS driver).
package rcu

import (
	"errors"

	"github.com/ardnew/gd32vf103/mmio"
	"github.com/ardnew/gd32vf103/pkg"
)

// Oscillator and bus frequency limits, in Hz.
const (
	IRC8M     = 8_000_000   // internal RC oscillator
	MaxSysClk = 108_000_000 // maximum system clock
	MaxAPB1   = 54_000_000  // maximum APB1 bus clock
)

// PLL multiplier range, expressed in half steps (the hardware supports
// fractional multipliers such as 13.5).
const (
	pllMulMinHalves = 4  // x2
	pllMulMaxHalves = 64 // x32
)

// ErrSysClkUnattainable indicates no PLL multiplier reaches the requested
// system clock exactly from the selected source.
var ErrSysClkUnattainable = errors.New("requested sysclk is unattainable")

// Config describes the desired clock configuration.
// The zero value selects the internal 8 MHz oscillator without the PLL.
type Config struct {
	// HXTAL is the external crystal frequency in Hz, or 0 to run from
	// the internal oscillator. When running from IRC8M the PLL input is
	// IRC8M/2, per the hardware clock tree.
	HXTAL uint32

	// SysClk is the requested system clock in Hz, or 0 to use the
	// source frequency directly (PLL bypassed).
	SysClk uint32
}

// Clocks holds the frozen clock-tree frequencies. Immutable once created.
type Clocks struct {
	sysclk uint32
	hclk   uint32
	pclk1  uint32
	pclk2  uint32
}

// SysClk returns the system (core) clock frequency in Hz.
func (c Clocks) SysClk() uint32 { return c.sysclk }

// HClk returns the AHB clock frequency in Hz.
func (c Clocks) HClk() uint32 { return c.hclk }

// PClk1 returns the APB1 clock frequency in Hz.
func (c Clocks) PClk1() uint32 { return c.pclk1 }

// PClk2 returns the APB2 clock frequency in Hz.
func (c Clocks) PClk2() uint32 { return c.pclk2 }

// Freeze derives the clock tree for the requested configuration.
//
// When the target differs from the source frequency, the PLL multiplier
// space (x2 to x32 in half steps) is searched for an exact match against
// the PLL input (HXTAL, or IRC8M/2 when running from the internal
// oscillator). An inexact target fails with [ErrSysClkUnattainable]
// rather than silently rounding.
func (cfg Config) Freeze() (Clocks, error) {
	src := uint32(IRC8M)
	pllIn := uint32(IRC8M / 2)
	if cfg.HXTAL != 0 {
		src = cfg.HXTAL
		pllIn = cfg.HXTAL
	}

	target := cfg.SysClk
	if target == 0 {
		target = src
	}
	if target > MaxSysClk {
		return Clocks{}, ErrSysClkUnattainable
	}

	sysclk := src
	if target != src {
		found := false
		for halves := pllMulMinHalves; halves <= pllMulMaxHalves; halves++ {
			if uint64(pllIn)*uint64(halves)/2 == uint64(target) &&
				uint64(pllIn)*uint64(halves)%2 == 0 {
				found = true
				break
			}
		}
		if !found {
			return Clocks{}, ErrSysClkUnattainable
		}
		sysclk = target
	}

	// AHB runs undivided; APB2 at AHB; APB1 halved when AHB exceeds
	// its bus limit.
	hclk := sysclk
	pclk2 := hclk
	pclk1 := hclk
	if pclk1 > MaxAPB1 {
		pclk1 = hclk / 2
	}

	pkg.LogDebug(pkg.ComponentRCU, "clock tree frozen",
		"sysclk", sysclk, "hclk", hclk, "pclk1", pclk1, "pclk2", pclk2)

	return Clocks{sysclk: sysclk, hclk: hclk, pclk1: pclk1, pclk2: pclk2}, nil
}

// Register offsets within the RCU block.
const (
	regAPB2RST = 0x0C
	regAPB1RST = 0x10
	regAHBEN   = 0x14
	regAPB2EN  = 0x18
	regAPB1EN  = 0x1C
	regAHBRST  = 0x28
)

// AHB peripheral bits (AHBEN/AHBRST).
const (
	AhbUSBFS = 1 << 12
)

// APB2 peripheral bits (APB2EN/APB2RST).
const (
	Apb2AF    = 1 << 0
	Apb2PortA = 1 << 2
	Apb2PortB = 1 << 3
	Apb2PortC = 1 << 4
	Apb2PortD = 1 << 5
	Apb2PortE = 1 << 6
)

// RCU provides peripheral bus enable/reset control over the RCU register
// block.
type RCU struct {
	block *mmio.Block
}

// New creates an RCU over the given register block view.
func New(block *mmio.Block) *RCU {
	return &RCU{block: block}
}

// EnableUSBFS enables the USBFS AHB clock and pulses the peripheral reset.
func (r *RCU) EnableUSBFS() {
	r.block.SetBits32(regAHBEN, AhbUSBFS)
	r.block.SetBits32(regAHBRST, AhbUSBFS)
	r.block.ClearBits32(regAHBRST, AhbUSBFS)
	pkg.LogDebug(pkg.ComponentRCU, "usbfs peripheral enabled")
}

// EnableAPB2 enables the given APB2 peripheral clock bits.
func (r *RCU) EnableAPB2(bits uint32) {
	r.block.SetBits32(regAPB2EN, bits)
}

// ResetAPB2 pulses the reset line for the given APB2 peripheral bits.
func (r *RCU) ResetAPB2(bits uint32) {
	r.block.SetBits32(regAPB2RST, bits)
	r.block.ClearBits32(regAPB2RST, bits)
}

// EnableAPB1 enables the given APB1 peripheral clock bits.
func (r *RCU) EnableAPB1(bits uint32) {
	r.block.SetBits32(regAPB1EN, bits)
}

// ResetAPB1 pulses the reset line for the given APB1 peripheral bits.
func (r *RCU) ResetAPB1(bits uint32) {
	r.block.SetBits32(regAPB1RST, bits)
	r.block.ClearBits32(regAPB1RST, bits)
}
