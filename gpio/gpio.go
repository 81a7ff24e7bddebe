// Package gpio configures and drives the general-purpose I/O ports of
// the GD32VF103. Pin modes are a runtime-checked enum rather than a
// type-state machine: Set and Get verify the configured mode and return
// ErrInvalidMode on misuse.
package gpio

import (
	"errors"

	"github.com/ardnew/gd32vf103/mmio"
	"github.com/ardnew/gd32vf103/pkg"
)

// ErrInvalidMode indicates an operation incompatible with a pin's
// configured mode, such as driving an input pin.
var ErrInvalidMode = errors.New("operation invalid for configured pin mode")

// Register offsets within a GPIO port block.
const (
	regCTL0  = 0x00 // pins 0-7, 4 bits each
	regCTL1  = 0x04 // pins 8-15, 4 bits each
	regISTAT = 0x08 // input status
	regOCTL  = 0x0C // output control
	regBOP   = 0x10 // bit operate (set low half, clear high half)
	regBC    = 0x14 // bit clear
)

// Mode is a pin configuration.
type Mode uint8

// Pin configurations.
const (
	InputFloating Mode = iota
	InputPullUp
	InputPullDown
	OutputPushPull
	OutputOpenDrain
	AltPushPull
	AltOpenDrain
	Analog
)

// ctlBits returns the 4-bit MD/CTL field for the mode. Output modes use
// the 50 MHz speed encoding.
func (m Mode) ctlBits() uint32 {
	switch m {
	case InputFloating:
		return 0b0100
	case InputPullUp, InputPullDown:
		return 0b1000
	case OutputPushPull:
		return 0b0011
	case OutputOpenDrain:
		return 0b0111
	case AltPushPull:
		return 0b1011
	case AltOpenDrain:
		return 0b1111
	case Analog:
		return 0b0000
	}
	return 0b0100
}

func (m Mode) isOutput() bool {
	switch m {
	case OutputPushPull, OutputOpenDrain:
		return true
	}
	return false
}

func (m Mode) isInput() bool {
	switch m {
	case InputFloating, InputPullUp, InputPullDown:
		return true
	}
	return false
}

func (m Mode) String() string {
	switch m {
	case InputFloating:
		return "input-floating"
	case InputPullUp:
		return "input-pull-up"
	case InputPullDown:
		return "input-pull-down"
	case OutputPushPull:
		return "output-push-pull"
	case OutputOpenDrain:
		return "output-open-drain"
	case AltPushPull:
		return "alternate-push-pull"
	case AltOpenDrain:
		return "alternate-open-drain"
	case Analog:
		return "analog"
	}
	return "unknown"
}

// Port drives one GPIO port register block.
type Port struct {
	name  string
	block *mmio.Block
	modes [16]Mode
}

// NewPort creates a port over the given register block view. The name is
// used only for logging.
func NewPort(name string, block *mmio.Block) *Port {
	return &Port{name: name, block: block}
}

// Configure sets the mode of the given pin (0 to 15).
func (p *Port) Configure(pin int, mode Mode) error {
	if pin < 0 || pin > 15 {
		return pkg.ErrInvalidParameter
	}

	reg, shift := regCTL0, uint(4*pin)
	if pin >= 8 {
		reg, shift = regCTL1, uint(4*(pin-8))
	}
	p.block.ReplaceBits32(reg, 0xF<<shift, shift, mode.ctlBits())

	// Pull direction is selected through the output control bit.
	switch mode {
	case InputPullUp:
		p.block.Write32(regBOP, 1<<uint(pin))
	case InputPullDown:
		p.block.Write32(regBC, 1<<uint(pin))
	}

	p.modes[pin] = mode
	pkg.LogDebug(pkg.ComponentGPIO, "pin configured",
		"port", p.name, "pin", pin, "mode", mode.String())
	return nil
}

// Set drives an output pin high or low. Returns ErrInvalidMode unless
// the pin is configured as an output.
func (p *Port) Set(pin int, high bool) error {
	if pin < 0 || pin > 15 {
		return pkg.ErrInvalidParameter
	}
	if !p.modes[pin].isOutput() {
		return ErrInvalidMode
	}
	if high {
		p.block.Write32(regBOP, 1<<uint(pin))
	} else {
		p.block.Write32(regBC, 1<<uint(pin))
	}
	return nil
}

// Get samples an input pin. Returns ErrInvalidMode unless the pin is
// configured as an input.
func (p *Port) Get(pin int) (bool, error) {
	if pin < 0 || pin > 15 {
		return false, pkg.ErrInvalidParameter
	}
	if !p.modes[pin].isInput() {
		return false, ErrInvalidMode
	}
	return p.block.Read32(regISTAT)&(1<<uint(pin)) != 0, nil
}

// Mode returns the configured mode of the given pin.
func (p *Port) Mode(pin int) Mode {
	if pin < 0 || pin > 15 {
		return InputFloating
	}
	return p.modes[pin]
}
