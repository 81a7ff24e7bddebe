// Package eclic drives the enhanced core-local interrupt controller of
// the GD32VF103: global setup, threshold level, per-interrupt
// mask/pend/trigger control, and the level/priority encoding of the
// per-interrupt control byte.
package eclic

import (
	"fmt"

	"github.com/ardnew/gd32vf103/mmio"
	"github.com/ardnew/gd32vf103/pkg"
)

// effectiveBits is the number of implemented bits in the per-interrupt
// control byte. The remaining low bits read as ones.
const effectiveBits = 4

// Interrupt numbers of peripheral sources handled by this layer.
const (
	IRQUSBFS = 86 // USBFS global interrupt
)

// Register offsets within the ECLIC block.
const (
	regCfg  = 0x0000 // byte: nlbits field
	regInfo = 0x0004 // word: implementation info
	regMth  = 0x000B // byte: machine threshold level

	// Per-interrupt register group: 4 consecutive bytes starting at
	// intBase + 4*nr (pending, enable, attribute, control).
	intBase = 0x1000
	offIP   = 0
	offIE   = 1
	offAttr = 2
	offCtl  = 3
)

// cfg register nlbits field.
const (
	cfgNlbitsShift = 1
	cfgNlbitsMask  = 0xF << cfgNlbitsShift
)

// info register interrupt-count field.
const infoNumMask = 0x1FFF

// LevelPriorityBits selects how the effective control bits are split
// between preemption level and priority.
type LevelPriorityBits uint8

// Level/priority splits of the four effective bits.
const (
	Level0Priority4 LevelPriorityBits = 0
	Level1Priority3 LevelPriorityBits = 1
	Level2Priority2 LevelPriorityBits = 2
	Level3Priority1 LevelPriorityBits = 3
	Level4Priority0 LevelPriorityBits = 4
)

// TriggerType selects the interrupt trigger condition.
type TriggerType uint8

// Trigger conditions.
const (
	TriggerLevel       TriggerType = 0
	TriggerRisingEdge  TriggerType = 1
	TriggerFallingEdge TriggerType = 3
)

// attribute register layout: shv bit 0, trigger bits 2:1.
const attrTrigShift = 1

// ECLIC drives the interrupt controller register block.
type ECLIC struct {
	block *mmio.Block
}

// New creates an ECLIC over the given register block view.
func New(block *mmio.Block) *ECLIC {
	return &ECLIC{block: block}
}

func (e *ECLIC) intReg(nr, off int) int {
	return intBase + 4*nr + off
}

// NumInterrupts returns the number of interrupt sources the controller
// implements.
func (e *ECLIC) NumInterrupts() int {
	return int(e.block.Read32(regInfo) & infoNumMask)
}

// Setup clears the global configuration, the threshold level, and every
// per-interrupt register.
func (e *ECLIC) Setup() {
	e.block.Write8(regCfg, 0)
	e.block.Write8(regMth, 0)

	n := e.NumInterrupts()
	for nr := 0; nr < n; nr++ {
		e.block.Write32(e.intReg(nr, 0), 0)
	}

	pkg.LogDebug(pkg.ComponentECLIC, "controller reset", "interrupts", n)
}

// SetThresholdLevel sets the machine-mode interrupt threshold level.
// Interrupts at or below the threshold are not taken.
func (e *ECLIC) SetThresholdLevel(level uint8) {
	e.block.Write8(regMth, level)
}

// SetLevelPriorityBits configures the split between level and priority
// bits in the per-interrupt control byte.
func (e *ECLIC) SetLevelPriorityBits(lp LevelPriorityBits) {
	e.block.Write8(regCfg, uint8(lp)<<cfgNlbitsShift)
}

// LevelPriorityBits returns the configured level/priority split.
func (e *ECLIC) LevelPriorityBits() LevelPriorityBits {
	return LevelPriorityBits((e.block.Read8(regCfg) & cfgNlbitsMask) >> cfgNlbitsShift)
}

// Unmask enables delivery of the given interrupt.
func (e *ECLIC) Unmask(nr int) {
	e.block.Write8(e.intReg(nr, offIE), 1)
}

// Mask disables delivery of the given interrupt.
func (e *ECLIC) Mask(nr int) {
	e.block.Write8(e.intReg(nr, offIE), 0)
}

// IsEnabled reports whether the given interrupt is unmasked.
func (e *ECLIC) IsEnabled(nr int) bool {
	return e.block.Read8(e.intReg(nr, offIE))&1 != 0
}

// Pend forces the given interrupt into the pending state.
func (e *ECLIC) Pend(nr int) {
	e.block.Write8(e.intReg(nr, offIP), 1)
}

// Unpend clears the pending state of the given interrupt.
func (e *ECLIC) Unpend(nr int) {
	e.block.Write8(e.intReg(nr, offIP), 0)
}

// IsPending reports whether the given interrupt is pending.
func (e *ECLIC) IsPending(nr int) bool {
	return e.block.Read8(e.intReg(nr, offIP))&1 != 0
}

// SetTriggerType sets the trigger condition for the given interrupt.
// Vectored dispatch (shv) is left disabled.
func (e *ECLIC) SetTriggerType(nr int, tt TriggerType) {
	e.block.Write8(e.intReg(nr, offAttr), uint8(tt)<<attrTrigShift)
}

// TriggerTypeOf returns the trigger condition of the given interrupt.
// Panics on a reserved attribute encoding, which cannot result from
// SetTriggerType.
func (e *ECLIC) TriggerTypeOf(nr int) TriggerType {
	switch t := (e.block.Read8(e.intReg(nr, offAttr)) >> attrTrigShift) & 0x3; t {
	case 0:
		return TriggerLevel
	case 1:
		return TriggerRisingEdge
	case 3:
		return TriggerFallingEdge
	default:
		panic(fmt.Sprintf("eclic: invalid trigger type %d", t))
	}
}

// EncodeLevelPriority packs a preemption level and priority into a
// control byte under the given bit split. Of the four effective (high)
// bits, the upper lp bits hold the level and the rest hold the priority;
// unimplemented low bits read as ones.
func EncodeLevelPriority(lp LevelPriorityBits, level, priority uint8) uint8 {
	lbits := int(lp)
	if lbits > effectiveBits {
		lbits = effectiveBits
	}
	pbits := effectiveBits - lbits

	v := uint8(1<<(8-effectiveBits)) - 1 // read-as-one tail
	v |= (level & (1<<lbits - 1)) << (8 - lbits)
	v |= (priority & (1<<pbits - 1)) << (8 - effectiveBits)
	return v
}

// SetLevelPriority programs the control byte of the given interrupt with
// the encoded level and priority under the currently configured split.
func (e *ECLIC) SetLevelPriority(nr int, level, priority uint8) {
	ctl := EncodeLevelPriority(e.LevelPriorityBits(), level, priority)
	e.block.Write8(e.intReg(nr, offCtl), ctl)
}

// Guard masks one interrupt source around a critical region. It
// satisfies the interrupt-guard contract of the USBFS bus wrapper.
type Guard struct {
	e  *ECLIC
	nr int
}

// Guard returns a critical-region guard for the given interrupt.
func (e *ECLIC) Guard(nr int) *Guard {
	return &Guard{e: e, nr: nr}
}

// Mask disables delivery of the guarded interrupt.
func (g *Guard) Mask() { g.e.Mask(g.nr) }

// Unmask re-enables delivery of the guarded interrupt.
func (g *Guard) Unmask() { g.e.Unmask(g.nr) }
