package usbfs

// Global register block offsets.
const (
	regGOTGCS   = 0x00
	regGOTGINTF = 0x04
	regGAHBCS   = 0x08
	regGUSBCS   = 0x0C
	regGRSTCTL  = 0x10
	regGINTF    = 0x14
	regGINTEN   = 0x18
	regGRSTATR  = 0x1C
	regGRSTATP  = 0x20
	regGRFLEN   = 0x24
	regCID      = 0x3C
)

// diepTFLen returns the offset of the transmit FIFO length register for
// the given IN endpoint.
func diepTFLen(index int) int {
	if index == 0 {
		return 0x28
	}
	return 0x104 + 4*(index-1)
}

// Device register block offsets.
const (
	regDCFG        = 0x00
	regDCTL        = 0x04
	regDSTAT       = 0x08
	regDIEPINTEN   = 0x10
	regDOEPINTEN   = 0x14
	regDAEPINT     = 0x18
	regDAEPINTEN   = 0x1C
	regDIEPFEINTEN = 0x34
)

// Per-endpoint device register offsets.
func diepCtl(index int) int  { return 0x100 + 0x20*index }
func diepIntf(index int) int { return 0x108 + 0x20*index }
func diepLen(index int) int  { return 0x110 + 0x20*index }
func doepCtl(index int) int  { return 0x300 + 0x20*index }
func doepIntf(index int) int { return 0x308 + 0x20*index }
func doepLen(index int) int  { return 0x310 + 0x20*index }

// Power and clock register block offset and bits.
const (
	regPWRCLKCTL = 0x00

	pwrclkSUCLK = 1 << 0
	pwrclkSHCLK = 1 << 1
)

// GUSBCS bits.
const (
	gusbcsFHM = 1 << 29
	gusbcsFDM = 1 << 30
)

// GAHBCS bits.
const gahbcsGINTEN = 1 << 0

// GRSTCTL bits and fields.
const (
	grstctlRXFF = 1 << 4
	grstctlTXFF = 1 << 5

	grstctlTXFNUMShift = 6
	grstctlTXFNUMMask  = 0x1F << grstctlTXFNUMShift
)

// TXFlushNum selects which transmit FIFO a flush targets.
type TXFlushNum uint8

// Transmit FIFO flush selectors.
const (
	TXFlushZero  TXFlushNum = 0b00000
	TXFlushOne   TXFlushNum = 0b00001
	TXFlushTwo   TXFlushNum = 0b00010
	TXFlushThree TXFlushNum = 0b00011
	TXFlushAll   TXFlushNum = 0b10000
)

// GINTF and GINTEN bits.
const (
	gintMF    = 1 << 1
	gintOTG   = 1 << 2
	gintSOF   = 1 << 3
	gintRXFNE = 1 << 4
	gintSP    = 1 << 11
	gintRST   = 1 << 12
	gintENUMF = 1 << 13
	gintIEP   = 1 << 18
	gintOEP   = 1 << 19
	gintSES   = 1 << 30
	gintWKUP  = 1 << 31
)

// DCFG fields.
const (
	dcfgDSMask = 0x3

	dcfgDARShift = 4
	dcfgDARMask  = 0x7F << dcfgDARShift

	dcfgEOPFTShift = 11
	dcfgEOPFTMask  = 0x3 << dcfgEOPFTShift
)

// eopft80 triggers the end-of-periodic-frame interrupt at 80% of frame
// time.
const eopft80 = 0b00

// portFullSpeedDevice is the DS encoding for full-speed device mode with
// the internal PHY.
const portFullSpeedDevice = 0b11

// DCTL bits.
const (
	dctlRWKUP = 1 << 0
	dctlSD    = 1 << 1
)

// DSTAT fields.
const (
	dstatFNRSOFShift = 8
	dstatFNRSOFMask  = 0x3FFF << dstatFNRSOFShift
)

// Endpoint control register bits, shared by the IN and OUT layouts.
const (
	epctlSTALL  = 1 << 21
	epctlCNAK   = 1 << 26
	epctlSNAK   = 1 << 27
	epctlSD0PID = 1 << 28
	epctlSD1PID = 1 << 29
	epctlEPD    = 1 << 30
	epctlEPEN   = 1 << 31
)

// Endpoint transfer length fields. Endpoint 0 carries narrower TLEN and
// PCNT fields than endpoints 1 to 3.
const (
	eplenTLENMask  = 0x7FFFF
	eplenPCNTShift = 19
	eplenPCNTMask  = 0x3FF << eplenPCNTShift
	eplenMCPFShift = 29
	eplenMCPFMask  = 0x3 << eplenMCPFShift

	ep0lenTLENMask  = 0x7F
	iep0lenPCNTMask = 0x3 << eplenPCNTShift
	oep0lenPCNT     = 1 << eplenPCNTShift
)

// GRFLEN fields.
const grflenRXFDMask = 0xFFFF

// Transmit FIFO length register fields: depth in the high half, RAM
// start address in the low half.
const tflenFDShift = 16

// GRSTATP fields.
const (
	grstatpEPNUMMask = 0xF

	grstatpRPCKSTShift = 17
	grstatpRPCKSTMask  = 0xF << grstatpRPCKSTShift
)

// ReceivedPacketStatus is the RPCKST field of a popped receive status
// word.
type ReceivedPacketStatus uint8

// Receive status codes.
const (
	GlobalOutNak              ReceivedPacketStatus = 0b0001
	OutPacketReceived         ReceivedPacketStatus = 0b0010
	OutTransferCompleted      ReceivedPacketStatus = 0b0011
	SetupTransactionCompleted ReceivedPacketStatus = 0b0100
	SetupPacketReceived       ReceivedPacketStatus = 0b0110
)
