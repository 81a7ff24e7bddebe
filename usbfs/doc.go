// Package usbfs implements the USB full-speed device controller of the
// GD32VF103. The Controller holds the endpoint tables and drives the
// global, device, and power/clock register blocks plus the packet FIFO
// RAM; Bus wraps a Controller behind a mutex and an optional interrupt
// guard for use from both thread and handler context.
//
// The bring-up sequence and FIFO memory map follow the GigaDevice
// firmware library: a shared 0x80-byte receive FIFO, a 0x80-byte
// transmit FIFO for endpoint 0, a 0x40-byte transmit FIFO for endpoint
// 1, and zero-length transmit FIFOs for endpoints 2 and 3.
package usbfs
