package usbfs_test

import (
	"testing"

	"github.com/ardnew/gd32vf103/usbfs"
)

func TestAddressParts(t *testing.T) {
	tests := []struct {
		name  string
		index uint8
		dir   usbfs.Direction
	}{
		{"out zero", 0, usbfs.DirOut},
		{"in zero", 0, usbfs.DirIn},
		{"out three", 3, usbfs.DirOut},
		{"in one", 1, usbfs.DirIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := usbfs.NewAddress(tt.index, tt.dir)
			if got := addr.Index(); got != int(tt.index) {
				t.Errorf("Index = %d, want %d", got, tt.index)
			}
			if got := addr.Direction(); got != tt.dir {
				t.Errorf("Direction = %v, want %v", got, tt.dir)
			}
			if addr.IsIn() != (tt.dir == usbfs.DirIn) {
				t.Errorf("IsIn = %v for direction %v", addr.IsIn(), tt.dir)
			}
			if addr.IsOut() == addr.IsIn() {
				t.Error("IsOut and IsIn agree")
			}
		})
	}
}

func TestFIFORegionGeometry(t *testing.T) {
	tests := []struct {
		name       string
		addr       usbfs.Address
		wantOffset int
		wantLength int
	}{
		{"shared rx", usbfs.NewAddress(2, usbfs.DirOut), 0x000, 0x80},
		{"tx endpoint 0", usbfs.NewAddress(0, usbfs.DirIn), 0x080, 0x80},
		{"tx endpoint 1", usbfs.NewAddress(1, usbfs.DirIn), 0x100, 0x40},
		{"tx endpoint 2 zero length", usbfs.NewAddress(2, usbfs.DirIn), 0x140, 0x00},
		{"tx endpoint 3 zero length", usbfs.NewAddress(3, usbfs.DirIn), 0x140, 0x00},
		{"tx index clamps", usbfs.NewAddress(7, usbfs.DirIn), 0x140, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := usbfs.NewEndpoint(tt.addr, usbfs.Bulk, 64, 0)
			region := ep.FIFORegion()
			if region.Offset != tt.wantOffset || region.Length != tt.wantLength {
				t.Errorf("FIFORegion = {%#x, %#x}, want {%#x, %#x}",
					region.Offset, region.Length, tt.wantOffset, tt.wantLength)
			}
		})
	}
}

func TestFIFORegionsDoNotOverlap(t *testing.T) {
	rx := usbfs.NewEndpoint(usbfs.NewAddress(0, usbfs.DirOut), usbfs.Bulk, 64, 0).FIFORegion()
	for i := uint8(0); i < usbfs.MaxEndpoints; i++ {
		tx := usbfs.NewEndpoint(usbfs.NewAddress(i, usbfs.DirIn), usbfs.Bulk, 64, 0).FIFORegion()
		if tx.Offset < rx.Offset+rx.Length {
			t.Errorf("tx%d region at %#x overlaps rx region ending at %#x",
				i, tx.Offset, rx.Offset+rx.Length)
		}
	}
}

func TestRegionWords(t *testing.T) {
	ep := usbfs.NewEndpoint(usbfs.NewAddress(1, usbfs.DirIn), usbfs.Bulk, 64, 0)
	if got := ep.FIFORegion().Words(); got != 0x40/4 {
		t.Errorf("Words = %d, want %d", got, 0x40/4)
	}
}

func TestEndpointAccessors(t *testing.T) {
	addr := usbfs.NewAddress(2, usbfs.DirIn)
	ep := usbfs.NewEndpoint(addr, usbfs.Interrupt, 16, 10)
	if ep.Address() != addr {
		t.Errorf("Address = %v, want %v", ep.Address(), addr)
	}
	if ep.Type() != usbfs.Interrupt {
		t.Errorf("Type = %v, want %v", ep.Type(), usbfs.Interrupt)
	}
	if ep.MaxPacketSize() != 16 {
		t.Errorf("MaxPacketSize = %d, want 16", ep.MaxPacketSize())
	}
	if ep.Interval() != 10 {
		t.Errorf("Interval = %d, want 10", ep.Interval())
	}
}
