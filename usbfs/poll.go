package usbfs

// EventKind classifies the result of a Poll.
type EventKind uint8

// Poll results, in increasing priority of the bus conditions they
// describe.
const (
	EventNone EventKind = iota
	EventReset
	EventSuspend
	EventResume
	EventData
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventReset:
		return "reset"
	case EventSuspend:
		return "suspend"
	case EventResume:
		return "resume"
	case EventData:
		return "data"
	}
	return "unknown"
}

// Event reports bus activity observed by Poll.
type Event struct {
	Kind EventKind

	// EpOut is the number of the OUT endpoint with a received packet.
	EpOut uint16

	// EpInComplete reports IN endpoints that finished a transfer.
	EpInComplete uint16

	// EpSetup is the number of the OUT endpoint with a received SETUP
	// packet.
	EpSetup uint16
}

// Poll samples the interrupt flags and the receive status queue and
// translates them into at most one event. Received packets take
// priority over bus state changes; among those, wakeup outranks reset
// outranks suspend.
func (c *Controller) Poll() Event {
	gintf := c.global.Read32(regGINTF)

	grstatp := c.global.Read32(regGRSTATP)
	rpckst := ReceivedPacketStatus(grstatp >> grstatpRPCKSTShift & 0xF)
	epnum := uint16(grstatp & grstatpEPNUMMask)

	switch {
	case rpckst == OutPacketReceived:
		return Event{Kind: EventData, EpOut: epnum}
	case rpckst == SetupPacketReceived:
		return Event{Kind: EventData, EpSetup: epnum}
	case gintf&gintWKUP != 0:
		return Event{Kind: EventResume}
	case gintf&gintRST != 0:
		return Event{Kind: EventReset}
	case gintf&gintSP != 0:
		return Event{Kind: EventSuspend}
	}
	return Event{Kind: EventNone}
}
