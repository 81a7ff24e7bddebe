package usbfs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardnew/gd32vf103/pkg"
	"github.com/ardnew/gd32vf103/usbfs"
)

func allocAt(t *testing.T, c *usbfs.Controller, index uint8, dir usbfs.Direction, epType usbfs.EndpointType, mps uint16) usbfs.Address {
	t.Helper()
	addr := usbfs.NewAddress(index, dir)
	got, err := c.AllocEndpoint(dir, &addr, epType, mps, 0)
	if err != nil {
		t.Fatalf("alloc endpoint %d %v: %v", index, dir, err)
	}
	return got
}

func TestWriteValidation(t *testing.T) {
	c, _ := newTestController(t, usbfs.Config{})
	in1 := allocAt(t, c, 1, usbfs.DirIn, usbfs.Bulk, 64)
	out1 := allocAt(t, c, 1, usbfs.DirOut, usbfs.Bulk, 64)

	if _, err := c.Write(out1, make([]byte, 8)); !errors.Is(err, pkg.ErrInvalidEndpoint) {
		t.Errorf("write to out endpoint: err = %v, want ErrInvalidEndpoint", err)
	}
	unalloc := usbfs.NewAddress(2, usbfs.DirIn)
	if _, err := c.Write(unalloc, make([]byte, 8)); !errors.Is(err, pkg.ErrInvalidEndpoint) {
		t.Errorf("write to unallocated endpoint: err = %v, want ErrInvalidEndpoint", err)
	}
	if _, err := c.Write(in1, make([]byte, 65)); !errors.Is(err, pkg.ErrBufferOverflow) {
		t.Errorf("oversized write: err = %v, want ErrBufferOverflow", err)
	}

	n, err := c.Write(in1, make([]byte, 64))
	if err != nil {
		t.Fatalf("full packet write: %v", err)
	}
	if n != 64 {
		t.Errorf("full packet write: n = %d, want 64", n)
	}
}

func TestWriteArmsEndpointAndCopiesWords(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	in1 := allocAt(t, c, 1, usbfs.DirIn, usbfs.Bulk, 64)

	packet := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB, 0xCC, 0xDD}
	if _, err := c.Write(in1, packet); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Transfer length one packet of 8 bytes.
	if got := regs.device.Field32(0x130, 0x7FFFF, 0); got != 8 {
		t.Errorf("tlen = %d, want 8", got)
	}
	if got := regs.device.Field32(0x130, 0x3FF<<19, 19); got != 1 {
		t.Errorf("pcnt = %d, want 1", got)
	}
	// FIFO-empty interrupt armed, endpoint enabled with NAK cleared.
	if !regs.device.HasBits32(0x34, 1<<1) {
		t.Error("tx fifo empty interrupt not armed")
	}
	if !regs.device.HasBits32(0x120, 1<<26|1<<31) {
		t.Error("endpoint not enabled with NAK cleared")
	}

	// Packet lands in endpoint 1's transmit FIFO, little endian words.
	if got := regs.fifo.Read32(0x100); got != 0x04030201 {
		t.Errorf("fifo word 0 = %#08x, want 0x04030201", got)
	}
	if got := regs.fifo.Read32(0x104); got != 0xDDCCBBAA {
		t.Errorf("fifo word 1 = %#08x, want 0xddccbbaa", got)
	}
}

func TestWriteTruncatesTrailingBytes(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	in1 := allocAt(t, c, 1, usbfs.DirIn, usbfs.Bulk, 64)

	// Only whole words are copied: the trailing two bytes stay behind.
	n, err := c.Write(in1, []byte{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 6 {
		t.Errorf("n = %d, want 6", n)
	}
	if got := regs.fifo.Read32(0x100); got != 0x04030201 {
		t.Errorf("fifo word 0 = %#08x, want 0x04030201", got)
	}
	if got := regs.fifo.Read32(0x104); got != 0 {
		t.Errorf("fifo word 1 = %#08x, want 0", got)
	}
}

func TestWriteControlEndpointZero(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	in0 := allocAt(t, c, 0, usbfs.DirIn, usbfs.Control, 64)

	if _, err := c.Write(in0, []byte{9, 8, 7, 6}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := regs.device.Field32(0x110, 0x7F, 0); got != 4 {
		t.Errorf("ep0 tlen = %d, want 4", got)
	}
	if got := regs.device.Field32(0x110, 0x3<<19, 19); got != 1 {
		t.Errorf("ep0 pcnt = %d, want 1", got)
	}
	if !regs.device.HasBits32(0x34, 1<<0) {
		t.Error("ep0 tx fifo empty interrupt not armed")
	}
	if got := regs.fifo.Read32(0x80); got != 0x06070809 {
		t.Errorf("ep0 fifo word = %#08x, want 0x06070809", got)
	}
}

func TestWriteZeroLengthSkipsFIFOEmptyInterrupt(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	in0 := allocAt(t, c, 0, usbfs.DirIn, usbfs.Control, 64)

	if _, err := c.Write(in0, nil); err != nil {
		t.Fatalf("zero length write: %v", err)
	}
	if regs.device.HasBits32(0x34, 1<<0) {
		t.Error("fifo empty interrupt armed for zero-length packet")
	}
}

func TestWriteIsochronousFollowsFrameParity(t *testing.T) {
	tests := []struct {
		name    string
		frame   uint32
		wantBit uint32
	}{
		{"even frame", 0x0, 1 << 28},
		{"odd frame", 0x1, 1 << 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, regs := newTestController(t, usbfs.Config{})
			in1 := allocAt(t, c, 1, usbfs.DirIn, usbfs.Isochronous, 64)

			regs.device.Write32(0x08, tt.frame<<8)
			if _, err := c.Write(in1, []byte{1, 2, 3, 4}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if !regs.device.HasBits32(0x120, tt.wantBit) {
				t.Errorf("frame parity PID bit %#x not set", tt.wantBit)
			}
			if got := regs.device.Field32(0x130, 0x3<<29, 29); got != 1 {
				t.Errorf("mcpf = %d, want 1", got)
			}
			// Isochronous transfers do not arm the FIFO-empty interrupt.
			if regs.device.HasBits32(0x34, 1<<1) {
				t.Error("fifo empty interrupt armed for isochronous write")
			}
		})
	}
}

func TestReadValidation(t *testing.T) {
	c, _ := newTestController(t, usbfs.Config{})
	in1 := allocAt(t, c, 1, usbfs.DirIn, usbfs.Bulk, 64)
	out1 := allocAt(t, c, 1, usbfs.DirOut, usbfs.Bulk, 64)

	if _, err := c.Read(in1, make([]byte, 64)); !errors.Is(err, pkg.ErrInvalidEndpoint) {
		t.Errorf("read from in endpoint: err = %v, want ErrInvalidEndpoint", err)
	}
	unalloc := usbfs.NewAddress(2, usbfs.DirOut)
	if _, err := c.Read(unalloc, make([]byte, 64)); !errors.Is(err, pkg.ErrInvalidEndpoint) {
		t.Errorf("read from unallocated endpoint: err = %v, want ErrInvalidEndpoint", err)
	}
	if _, err := c.Read(out1, make([]byte, 63)); !errors.Is(err, pkg.ErrBufferOverflow) {
		t.Errorf("short buffer read: err = %v, want ErrBufferOverflow", err)
	}
}

func TestReadCopiesPacketFromSharedFIFO(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	out1 := allocAt(t, c, 1, usbfs.DirOut, usbfs.Bulk, 8)

	regs.fifo.Write32(0x00, 0x44332211)
	regs.fifo.Write32(0x04, 0x88776655)

	buf := make([]byte, 8)
	n, err := c.Read(out1, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(buf) {
		t.Errorf("n = %d, want %d", n, len(buf))
	}
	want := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	if !bytes.Equal(buf, want) {
		t.Errorf("buf = % x, want % x", buf, want)
	}

	// Endpoint armed for the requested buffer length.
	if got := regs.device.Field32(0x330, 0x7FFFF, 0); got != 8 {
		t.Errorf("tlen = %d, want 8", got)
	}
	if got := regs.device.Field32(0x330, 0x3FF<<19, 19); got != 1 {
		t.Errorf("pcnt = %d, want 1", got)
	}
	if !regs.device.HasBits32(0x320, 1<<26|1<<31) {
		t.Error("endpoint not enabled with NAK cleared")
	}
}

func TestReadReturnsBufferLength(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	out1 := allocAt(t, c, 1, usbfs.DirOut, usbfs.Bulk, 8)

	regs.fifo.Write32(0x00, 0xDEADBEEF)

	// The returned count is the caller's buffer length, not the packet
	// size; only one max-size packet is actually copied.
	buf := make([]byte, 16)
	n, err := c.Read(out1, buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 16 {
		t.Errorf("n = %d, want 16", n)
	}
	for i := 8; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d past packet modified: %#x", i, buf[i])
		}
	}
}

func TestReadControlEndpointZero(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	out0 := allocAt(t, c, 0, usbfs.DirOut, usbfs.Control, 8)

	if _, err := c.Read(out0, make([]byte, 8)); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := regs.device.Field32(0x310, 0x7F, 0); got != 8 {
		t.Errorf("ep0 tlen = %d, want 8", got)
	}
	if !regs.device.HasBits32(0x310, 1<<19) {
		t.Error("ep0 pcnt not set")
	}
}

func TestStallRoundTrip(t *testing.T) {
	c, regs := newTestController(t, usbfs.Config{})
	in1 := allocAt(t, c, 1, usbfs.DirIn, usbfs.Bulk, 64)
	out1 := allocAt(t, c, 1, usbfs.DirOut, usbfs.Bulk, 64)

	for _, addr := range []usbfs.Address{in1, out1} {
		if c.IsStalled(addr) {
			t.Fatalf("%v stalled before SetStalled", addr)
		}
		c.SetStalled(addr, true)
		if !c.IsStalled(addr) {
			t.Fatalf("%v not stalled after SetStalled(true)", addr)
		}
		c.SetStalled(addr, false)
		if c.IsStalled(addr) {
			t.Fatalf("%v still stalled after SetStalled(false)", addr)
		}
	}

	// Stalling an active IN endpoint also disables it.
	regs.device.SetBits32(0x120, 1<<31)
	c.SetStalled(in1, true)
	if !regs.device.HasBits32(0x120, 1<<30) {
		t.Error("active in endpoint not disabled by stall")
	}
}

func TestStallOutOfRangeIsNoOp(t *testing.T) {
	c, _ := newTestController(t, usbfs.Config{})

	bogus := usbfs.NewAddress(9, usbfs.DirIn)
	c.SetStalled(bogus, true)
	if c.IsStalled(bogus) {
		t.Error("out-of-range endpoint reports stalled")
	}
}
