package usbfs

import "sync"

// IRQGuard masks and unmasks the peripheral's interrupt source around a
// critical region, preventing handler-context re-entrancy.
type IRQGuard interface {
	Mask()
	Unmask()
}

// Bus serializes all access to a Controller. Every operation holds a
// mutex and, when an IRQGuard is installed, masks the interrupt source
// for the duration.
type Bus struct {
	mu    sync.Mutex
	irq   IRQGuard
	inner *Controller
}

// NewBus wraps a controller.
func NewBus(inner *Controller) *Bus {
	return &Bus{inner: inner}
}

// WithIRQGuard installs an interrupt guard and returns the bus.
func (b *Bus) WithIRQGuard(irq IRQGuard) *Bus {
	b.irq = irq
	return b
}

// lock enters the critical region and returns the function that leaves
// it. The guard's own register access happens under the mutex, so
// concurrent callers never touch the interrupt enable unserialized.
func (b *Bus) lock() func() {
	b.mu.Lock()
	if b.irq != nil {
		b.irq.Mask()
	}
	return func() {
		if b.irq != nil {
			b.irq.Unmask()
		}
		b.mu.Unlock()
	}
}

// AllocEndpoint reserves an endpoint slot. See Controller.AllocEndpoint.
func (b *Bus) AllocEndpoint(dir Direction, addr *Address, endpointType EndpointType, maxPacketSize uint16, interval uint8) (Address, error) {
	defer b.lock()()
	return b.inner.AllocEndpoint(dir, addr, endpointType, maxPacketSize, interval)
}

// Enable brings the device up. See Controller.Enable.
func (b *Bus) Enable() {
	defer b.lock()()
	b.inner.Enable()
}

// Reset forces re-enumeration. See Controller.Reset.
func (b *Bus) Reset() {
	defer b.lock()()
	b.inner.Reset()
}

// SetDeviceAddress programs the host-assigned address.
func (b *Bus) SetDeviceAddress(addr uint8) {
	defer b.lock()()
	b.inner.SetDeviceAddress(addr)
}

// Write queues a packet on an IN endpoint. See Controller.Write.
func (b *Bus) Write(addr Address, buf []byte) (int, error) {
	defer b.lock()()
	return b.inner.Write(addr, buf)
}

// Read pops a packet from an OUT endpoint. See Controller.Read.
func (b *Bus) Read(addr Address, buf []byte) (int, error) {
	defer b.lock()()
	return b.inner.Read(addr, buf)
}

// SetStalled sets or clears STALL on an endpoint.
func (b *Bus) SetStalled(addr Address, stalled bool) {
	defer b.lock()()
	b.inner.SetStalled(addr, stalled)
}

// IsStalled reports the STALL state of an endpoint.
func (b *Bus) IsStalled(addr Address) bool {
	defer b.lock()()
	return b.inner.IsStalled(addr)
}

// Suspend gates the PHY clocks.
func (b *Bus) Suspend() {
	defer b.lock()()
	b.inner.Suspend()
}

// Resume restores the PHY clocks and signals remote wakeup.
func (b *Bus) Resume() {
	defer b.lock()()
	b.inner.Resume()
}

// Poll samples and translates the interrupt state. See Controller.Poll.
func (b *Bus) Poll() Event {
	defer b.lock()()
	return b.inner.Poll()
}
