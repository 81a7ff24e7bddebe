package usbfs

import (
	"encoding/binary"

	"github.com/ardnew/gd32vf103/pkg"
)

// Write queues a single packet on an IN endpoint: the transfer length
// and packet count are armed, NAK is cleared, and the packet is copied
// into the endpoint's transmit FIFO one word at a time. Returns the
// number of bytes accepted.
func (c *Controller) Write(addr Address, buf []byte) (int, error) {
	index := addr.Index()
	if index >= MaxEndpoints || addr.IsOut() || c.inEndpoints[index] == nil {
		return 0, pkg.ErrInvalidEndpoint
	}
	ep := c.inEndpoints[index]

	if len(buf) > int(ep.MaxPacketSize()) {
		return 0, pkg.ErrBufferOverflow
	}

	c.setupInXfer(ep, len(buf))

	// Copy in full words. Trailing bytes short of a word boundary are
	// not transferred.
	region := ep.FIFORegion()
	for i := 0; i+wordLen <= len(buf) && i < region.Length; i += wordLen {
		c.fifo.Write32(region.Offset+i, binary.LittleEndian.Uint32(buf[i:]))
	}

	return len(buf), nil
}

// setupInXfer arms the IN endpoint registers for a single packet of the
// given length.
func (c *Controller) setupInXfer(ep *Endpoint, length int) {
	index := ep.Address().Index()
	ctl, eplen := diepCtl(index), diepLen(index)

	if index == 0 {
		c.device.ReplaceBits32(eplen, ep0lenTLENMask, 0, uint32(length))
		c.device.ReplaceBits32(eplen, iep0lenPCNTMask, eplenPCNTShift, 1)
		if length > 0 {
			c.device.SetBits32(regDIEPFEINTEN, 1<<uint(index))
		}
	} else {
		c.device.ReplaceBits32(eplen, eplenTLENMask, 0, uint32(length))
		c.device.ReplaceBits32(eplen, eplenPCNTMask, eplenPCNTShift, 1)

		if ep.Type() == Isochronous {
			// One packet per frame, with the data PID following the
			// frame parity.
			c.device.ReplaceBits32(eplen, eplenMCPFMask, eplenMCPFShift, 1)
			c.device.SetBits32(ctl, c.framePIDBit())
		} else if length > 0 {
			c.device.SetBits32(regDIEPFEINTEN, 1<<uint(index))
		}
	}

	c.device.SetBits32(ctl, epctlCNAK|epctlEPEN)
}

// Read pops a single packet from the shared receive FIFO into buf for
// an OUT endpoint. The buffer must hold at least a max-size packet.
// Returns len(buf); the controller does not report the actual packet
// length here, callers learn it from the receive status.
func (c *Controller) Read(addr Address, buf []byte) (int, error) {
	index := addr.Index()
	if index >= MaxEndpoints || addr.IsIn() || c.outEndpoints[index] == nil {
		return 0, pkg.ErrInvalidEndpoint
	}
	ep := c.outEndpoints[index]

	if len(buf) < int(ep.MaxPacketSize()) {
		return 0, pkg.ErrBufferOverflow
	}

	c.setupOutXfer(ep, len(buf))

	// Copy out full words, rounding the packet size up to a word
	// boundary.
	region := ep.FIFORegion()
	remaining := int(ep.MaxPacketSize())
	for i := 0; i < region.Length && i+wordLen <= len(buf); i += wordLen {
		binary.LittleEndian.PutUint32(buf[i:], c.fifo.Read32(region.Offset+i))
		remaining -= wordLen
		if remaining <= 0 {
			break
		}
	}

	return len(buf), nil
}

// setupOutXfer arms the OUT endpoint registers to receive a packet.
func (c *Controller) setupOutXfer(ep *Endpoint, length int) {
	index := ep.Address().Index()
	ctl, eplen := doepCtl(index), doepLen(index)

	if index == 0 {
		c.device.ReplaceBits32(eplen, ep0lenTLENMask, 0, uint32(length))
		c.device.SetBits32(eplen, oep0lenPCNT)
	} else {
		c.device.ReplaceBits32(eplen, eplenTLENMask, 0, uint32(length))
		c.device.ReplaceBits32(eplen, eplenPCNTMask, eplenPCNTShift, 1)

		if ep.Type() == Isochronous {
			c.device.SetBits32(ctl, c.framePIDBit())
		}
	}

	c.device.SetBits32(ctl, epctlCNAK|epctlEPEN)
}

// framePIDBit selects the even or odd data PID bit from the frame
// number parity.
func (c *Controller) framePIDBit() uint32 {
	fnr := c.device.Field32(regDSTAT, dstatFNRSOFMask, dstatFNRSOFShift)
	if fnr&1 != 0 {
		return epctlSD1PID
	}
	return epctlSD0PID
}

// SetStalled sets or clears the STALL handshake on an endpoint.
// Out-of-range indices are ignored. Setting STALL on an active IN
// endpoint also disables it.
func (c *Controller) SetStalled(addr Address, stalled bool) {
	index := addr.Index()
	if index >= MaxEndpoints {
		return
	}

	if addr.IsIn() {
		ctl := diepCtl(index)
		if c.device.HasBits32(ctl, epctlEPEN) {
			c.device.SetBits32(ctl, epctlEPD)
		}
		if stalled {
			c.device.SetBits32(ctl, epctlSTALL)
		} else {
			c.device.ClearBits32(ctl, epctlSTALL)
		}
		return
	}

	ctl := doepCtl(index)
	if stalled {
		c.device.SetBits32(ctl, epctlSTALL)
	} else {
		c.device.ClearBits32(ctl, epctlSTALL)
	}
}

// IsStalled reports whether the STALL handshake is set on an endpoint.
// Out-of-range indices report false.
func (c *Controller) IsStalled(addr Address) bool {
	index := addr.Index()
	if index >= MaxEndpoints {
		return false
	}
	ctl := doepCtl(index)
	if addr.IsIn() {
		ctl = diepCtl(index)
	}
	return c.device.HasBits32(ctl, epctlSTALL)
}
