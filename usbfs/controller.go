package usbfs

import (
	"github.com/ardnew/gd32vf103/delay"
	"github.com/ardnew/gd32vf103/mmio"
	"github.com/ardnew/gd32vf103/pkg"
	"github.com/ardnew/gd32vf103/rcu"
)

// Config holds optional controller features.
type Config struct {
	// VbusSensing enables the session and OTG interrupts so the device
	// can track VBUS presence.
	VbusSensing bool
}

// Controller drives the USBFS peripheral in device mode. It is not safe
// for concurrent use; Bus provides the locked wrapper.
type Controller struct {
	global *mmio.Block
	device *mmio.Block
	pwrclk *mmio.Block
	fifo   *mmio.Block
	delay  *delay.Delay
	config Config

	inEndpoints  [MaxEndpoints]*Endpoint
	outEndpoints [MaxEndpoints]*Endpoint
}

// NewController creates a controller over the four register block views
// of the peripheral: the global OTG registers, the device mode
// registers, the power/clock gate register, and the packet FIFO RAM.
func NewController(global, device, pwrclk, fifo *mmio.Block, clocks rcu.Clocks, config Config) *Controller {
	return &Controller{
		global: global,
		device: device,
		pwrclk: pwrclk,
		fifo:   fifo,
		delay:  delay.New(clocks),
		config: config,
	}
}

// AllocEndpoint reserves an endpoint table entry. When addr is non-nil
// that exact endpoint is claimed, failing with ErrInvalidEndpoint if the
// index is out of range or already taken. Otherwise the next free index
// in the requested direction is used, failing with ErrEndpointOverflow
// when the table is full. Allocation must happen before Enable.
func (c *Controller) AllocEndpoint(dir Direction, addr *Address, endpointType EndpointType, maxPacketSize uint16, interval uint8) (Address, error) {
	table := &c.outEndpoints
	if dir == DirIn {
		table = &c.inEndpoints
	}

	if addr != nil {
		index := addr.Index()
		if index >= MaxEndpoints || table[index] != nil {
			return 0, pkg.ErrInvalidEndpoint
		}
		ep := NewEndpoint(*addr, endpointType, maxPacketSize, interval)
		table[index] = &ep
		return *addr, nil
	}

	for index := range table {
		if table[index] != nil {
			continue
		}
		a := NewAddress(uint8(index), dir)
		ep := NewEndpoint(a, endpointType, maxPacketSize, interval)
		table[index] = &ep
		pkg.LogDebug(pkg.ComponentUSBFS, "endpoint allocated",
			"address", uint8(a), "type", endpointType.String(),
			"max_packet_size", maxPacketSize)
		return a, nil
	}
	return 0, pkg.ErrEndpointOverflow
}

// Enable brings the peripheral up in device mode. The sequence follows
// the GigaDevice firmware library: force device mode, ungate the PHY
// clocks, select full speed, lay out the FIFOs, flush them, mask the
// per-endpoint interrupt enables, park every endpoint, and finally
// unmask the global interrupts.
func (c *Controller) Enable() {
	c.global.ClearBits32(regGUSBCS, gusbcsFDM|gusbcsFHM)
	c.global.SetBits32(regGUSBCS, gusbcsFDM)

	c.pwrclk.Write32(regPWRCLKCTL, 0)

	c.device.ReplaceBits32(regDCFG, dcfgEOPFTMask, dcfgEOPFTShift, eopft80)
	c.device.ReplaceBits32(regDCFG, dcfgDSMask, 0, portFullSpeedDevice)

	c.setupFIFOs()
	c.fifoFlush()

	c.device.Write32(regDIEPINTEN, 0)
	c.device.Write32(regDOEPINTEN, 0)

	c.configureEndpoints()
	c.enableInterrupts()

	pkg.LogInfo(pkg.ComponentUSBFS, "device enabled",
		"vbus_sensing", c.config.VbusSensing)
}

// setupFIFOs programs the receive FIFO depth and the transmit FIFO
// depths and start addresses, packing the transmit FIFOs immediately
// after the receive FIFO.
func (c *Controller) setupFIFOs() {
	c.global.ReplaceBits32(regGRFLEN, grflenRXFDMask, 0, rxFIFOLen)

	ramAddr := uint32(rxFIFOLen)
	for i, region := range txFIFORegions {
		depth := uint32(region.Length)
		c.global.Write32(diepTFLen(i), depth<<tflenFDShift|ramAddr)
		ramAddr += depth
	}
}

// configureEndpoints parks every endpoint: enabled endpoints are
// disabled and set to NAK, idle ones cleared, transfer lengths zeroed,
// and pending endpoint interrupts acknowledged.
func (c *Controller) configureEndpoints() {
	for i := 0; i < MaxEndpoints; i++ {
		c.parkEndpoint(diepCtl(i), diepLen(i), diepIntf(i), false)
	}
	// OUT endpoint 0 has no disable bit.
	c.parkEndpoint(doepCtl(0), doepLen(0), doepIntf(0), true)
	for i := 1; i < MaxEndpoints; i++ {
		c.parkEndpoint(doepCtl(i), doepLen(i), doepIntf(i), false)
	}
}

func (c *Controller) parkEndpoint(ctl, length, intf int, out0 bool) {
	if c.device.HasBits32(ctl, epctlEPEN) {
		if out0 {
			c.device.SetBits32(ctl, epctlSNAK)
		} else {
			c.device.SetBits32(ctl, epctlEPD|epctlSNAK)
		}
	} else {
		c.device.Write32(ctl, 0)
	}
	c.device.Write32(length, 0)
	c.device.ClearBits32(intf, 0xFF)
}

// enableInterrupts acknowledges stale interrupt state and unmasks the
// device mode interrupt sources.
func (c *Controller) enableInterrupts() {
	c.global.ClearBits32(regGOTGINTF, 0xFFFFFFFF)
	c.global.ClearBits32(regGINTF, 0xBFFFFFFF)

	c.global.Write32(regGINTEN, gintWKUP|gintSP)
	c.global.SetBits32(regGINTEN,
		gintRXFNE|gintRST|gintENUMF|gintIEP|gintOEP|gintSOF|gintMF)

	if c.config.VbusSensing {
		c.global.SetBits32(regGINTEN, gintSES|gintOTG)
	}

	c.global.SetBits32(regGAHBCS, gahbcsGINTEN)
}

// fifoFlush flushes all transmit FIFOs. The reference SDK flushes
// twice.
func (c *Controller) fifoFlush() {
	c.txFIFOFlush()
	c.txFIFOFlush()
}

// txFIFOFlush flushes every transmit FIFO.
func (c *Controller) txFIFOFlush() {
	c.txFIFOFlushByIndex(TXFlushAll)
}

// txFIFOFlushByIndex flushes the selected transmit FIFO and waits out
// the required PHY clock cycles.
func (c *Controller) txFIFOFlushByIndex(num TXFlushNum) {
	c.global.ReplaceBits32(regGRSTCTL, grstctlTXFNUMMask, grstctlTXFNUMShift, uint32(num))
	c.global.SetBits32(regGRSTCTL, grstctlTXFF)
	c.delay.Us(3)
}

// RxFIFOFlush flushes the receive FIFO.
func (c *Controller) RxFIFOFlush() {
	c.global.SetBits32(regGRSTCTL, grstctlRXFF)
	c.delay.Us(3)
}

// Connect presents the device to the host by clearing soft disconnect.
func (c *Controller) Connect() {
	c.device.ClearBits32(regDCTL, dctlSD)
}

// Disconnect removes the device from the bus.
func (c *Controller) Disconnect() {
	c.device.SetBits32(regDCTL, dctlSD)
}

// Reset forces the host to re-enumerate the device: flush the FIFOs,
// disconnect, and reconnect after a short delay.
func (c *Controller) Reset() {
	c.fifoFlush()
	c.Disconnect()
	c.delay.Us(50)
	c.Connect()
	pkg.LogDebug(pkg.ComponentUSBFS, "bus reset issued")
}

// SetDeviceAddress programs the address assigned by the host.
func (c *Controller) SetDeviceAddress(addr uint8) {
	c.device.ReplaceBits32(regDCFG, dcfgDARMask, dcfgDARShift, uint32(addr))
}

// Suspend gates the PHY clocks in preparation for a wakeup event.
func (c *Controller) Suspend() {
	c.pwrclk.Write32(regPWRCLKCTL, pwrclkSUCLK|pwrclkSHCLK)
}

// Resume restores the PHY clocks and signals remote wakeup.
func (c *Controller) Resume() {
	c.pwrclk.Write32(regPWRCLKCTL, pwrclkSUCLK|pwrclkSHCLK)
	c.device.SetBits32(regDCTL, dctlRWKUP)
}
