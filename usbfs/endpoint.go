package usbfs

// MaxEndpoints is the number of IN and of OUT endpoints the controller
// implements.
const MaxEndpoints = 4

// wordLen is the FIFO access width in bytes.
const wordLen = 4

// FIFO RAM layout in bytes, offsets relative to the start of the packet
// RAM window. The receive FIFO is shared by all OUT endpoints; each IN
// endpoint has its own transmit FIFO. Endpoints 2 and 3 carry
// zero-length transmit FIFOs, matching the GigaDevice reference SDK.
const (
	rxFIFOLen = 0x80

	tx0FIFOOffset = rxFIFOLen
	tx0FIFOLen    = 0x80

	tx1FIFOOffset = tx0FIFOOffset + tx0FIFOLen
	tx1FIFOLen    = 0x40

	tx2FIFOOffset = tx1FIFOOffset + tx1FIFOLen
	tx2FIFOLen    = 0x0

	tx3FIFOOffset = tx2FIFOOffset + tx2FIFOLen
	tx3FIFOLen    = 0x0

	fifoRAMSize = 0x500
)

var txFIFORegions = [MaxEndpoints]Region{
	{Offset: tx0FIFOOffset, Length: tx0FIFOLen},
	{Offset: tx1FIFOOffset, Length: tx1FIFOLen},
	{Offset: tx2FIFOOffset, Length: tx2FIFOLen},
	{Offset: tx3FIFOOffset, Length: tx3FIFOLen},
}

// Direction is the transfer direction of an endpoint, encoded in the
// high bit of its address as on the wire.
type Direction uint8

// Endpoint directions.
const (
	DirOut Direction = 0x00
	DirIn  Direction = 0x80
)

func (d Direction) String() string {
	if d == DirIn {
		return "in"
	}
	return "out"
}

// Address is a USB endpoint address: index in the low nibble, direction
// in the high bit.
type Address uint8

// NewAddress builds an endpoint address from an index and a direction.
func NewAddress(index uint8, dir Direction) Address {
	return Address(index&0x0F) | Address(dir)
}

// Index returns the endpoint number.
func (a Address) Index() int {
	return int(a & 0x0F)
}

// Direction returns the endpoint direction.
func (a Address) Direction() Direction {
	return Direction(a) & DirIn
}

// IsIn reports whether the address names an IN (device to host) endpoint.
func (a Address) IsIn() bool {
	return a.Direction() == DirIn
}

// IsOut reports whether the address names an OUT (host to device)
// endpoint.
func (a Address) IsOut() bool {
	return a.Direction() == DirOut
}

// EndpointType is the USB transfer type of an endpoint.
type EndpointType uint8

// Endpoint transfer types.
const (
	Control EndpointType = iota
	Isochronous
	Bulk
	Interrupt
)

func (t EndpointType) String() string {
	switch t {
	case Control:
		return "control"
	case Isochronous:
		return "isochronous"
	case Bulk:
		return "bulk"
	case Interrupt:
		return "interrupt"
	}
	return "unknown"
}

// Endpoint describes one allocated endpoint. Values are immutable after
// allocation.
type Endpoint struct {
	address       Address
	endpointType  EndpointType
	maxPacketSize uint16
	interval      uint8
}

// NewEndpoint creates an endpoint descriptor.
func NewEndpoint(address Address, endpointType EndpointType, maxPacketSize uint16, interval uint8) Endpoint {
	return Endpoint{
		address:       address,
		endpointType:  endpointType,
		maxPacketSize: maxPacketSize,
		interval:      interval,
	}
}

// Address returns the endpoint address.
func (e Endpoint) Address() Address { return e.address }

// Type returns the endpoint transfer type.
func (e Endpoint) Type() EndpointType { return e.endpointType }

// MaxPacketSize returns the maximum packet size in bytes.
func (e Endpoint) MaxPacketSize() uint16 { return e.maxPacketSize }

// Interval returns the polling interval parameter.
func (e Endpoint) Interval() uint8 { return e.interval }

// Region is a span of the packet FIFO RAM.
type Region struct {
	Offset int
	Length int
}

// Words returns the region length in FIFO words.
func (r Region) Words() int {
	return r.Length / wordLen
}

// FIFORegion returns the packet RAM span backing the endpoint: the
// shared receive FIFO for OUT endpoints, the per-index transmit FIFO
// for IN endpoints. Out-of-range IN indices clamp to the last transmit
// FIFO.
func (e Endpoint) FIFORegion() Region {
	if e.address.IsOut() {
		return Region{Offset: 0, Length: rxFIFOLen}
	}
	index := e.address.Index()
	if index > MaxEndpoints-1 {
		index = MaxEndpoints - 1
	}
	return txFIFORegions[index]
}
