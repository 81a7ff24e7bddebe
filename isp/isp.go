// Package isp speaks the GD32VF103 serial bootloader protocol: command
// framing with complement bytes, ACK/NACK handshakes, XOR checksums,
// and chunked memory programming. It operates over any byte stream,
// typically a serial port opened with even parity.
package isp

import (
	"errors"
	"fmt"
	"io"

	"github.com/ardnew/gd32vf103/pkg"
)

// Protocol control bytes.
const (
	byteSync = 0x7F
	byteAck  = 0x79
	byteNack = 0x1F
)

// Bootloader commands.
const (
	cmdGet        = 0x00
	cmdGetVersion = 0x01
	cmdGetID      = 0x02
	cmdRead       = 0x11
	cmdGo         = 0x21
	cmdWrite      = 0x31
	cmdErase      = 0x43
)

// chunkSize is the largest payload of one write command.
const chunkSize = 256

// Protocol errors.
var (
	ErrNack     = errors.New("bootloader rejected command")
	ErrNoSync   = errors.New("no response to synchronization byte")
	ErrProtocol = errors.New("unexpected bootloader response")
)

// Client drives a bootloader session over rw.
type Client struct {
	rw io.ReadWriter
}

// NewClient creates a bootloader client over the given byte stream.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

func (c *Client) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.rw, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// expectAck consumes one byte and maps it onto the handshake result.
func (c *Client) expectAck() error {
	b, err := c.readByte()
	if err != nil {
		return err
	}
	switch b {
	case byteAck:
		return nil
	case byteNack:
		return ErrNack
	}
	return fmt.Errorf("%w: %#02x", ErrProtocol, b)
}

// command sends a command byte with its complement and waits for the
// acknowledgment.
func (c *Client) command(cmd byte) error {
	if _, err := c.rw.Write([]byte{cmd, cmd ^ 0xFF}); err != nil {
		return err
	}
	return c.expectAck()
}

// send writes a payload followed by its XOR checksum and waits for the
// acknowledgment.
func (c *Client) send(payload []byte) error {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	if _, err := c.rw.Write(append(payload, sum)); err != nil {
		return err
	}
	return c.expectAck()
}

// Sync performs the initial baud rate detection handshake. The
// bootloader answers the synchronization byte with an acknowledgment.
func (c *Client) Sync() error {
	if _, err := c.rw.Write([]byte{byteSync}); err != nil {
		return err
	}
	b, err := c.readByte()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSync, err)
	}
	if b != byteAck {
		return fmt.Errorf("%w: got %#02x", ErrNoSync, b)
	}
	pkg.LogDebug(pkg.ComponentISP, "bootloader synchronized")
	return nil
}

// Get queries the bootloader version and its supported command set.
func (c *Client) Get() (version byte, commands []byte, err error) {
	if err = c.command(cmdGet); err != nil {
		return 0, nil, err
	}
	n, err := c.readByte()
	if err != nil {
		return 0, nil, err
	}
	version, err = c.readByte()
	if err != nil {
		return 0, nil, err
	}
	commands = make([]byte, n)
	if _, err = io.ReadFull(c.rw, commands); err != nil {
		return 0, nil, err
	}
	return version, commands, c.expectAck()
}

// GetID queries the device product ID.
func (c *Client) GetID() (uint16, error) {
	if err := c.command(cmdGetID); err != nil {
		return 0, err
	}
	n, err := c.readByte()
	if err != nil {
		return 0, err
	}
	id := make([]byte, int(n)+1)
	if _, err := io.ReadFull(c.rw, id); err != nil {
		return 0, err
	}
	if err := c.expectAck(); err != nil {
		return 0, err
	}
	if len(id) < 2 {
		return 0, fmt.Errorf("%w: short product id", ErrProtocol)
	}
	return uint16(id[0])<<8 | uint16(id[1]), nil
}

// EraseAll performs a full chip erase.
func (c *Client) EraseAll() error {
	if err := c.command(cmdErase); err != nil {
		return err
	}
	// Global erase selector with its complement.
	if _, err := c.rw.Write([]byte{0xFF, 0x00}); err != nil {
		return err
	}
	if err := c.expectAck(); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentISP, "chip erased")
	return nil
}

// WriteMemory programs up to chunkSize bytes at the given absolute
// address.
func (c *Client) WriteMemory(addr uint32, data []byte) error {
	if len(data) == 0 || len(data) > chunkSize {
		return pkg.ErrInvalidParameter
	}
	if err := c.command(cmdWrite); err != nil {
		return err
	}

	// Big-endian address with XOR checksum.
	if err := c.send([]byte{
		byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr),
	}); err != nil {
		return err
	}

	// Length prefix is the byte count minus one.
	payload := make([]byte, 0, len(data)+1)
	payload = append(payload, byte(len(data)-1))
	payload = append(payload, data...)
	return c.send(payload)
}

// WriteImage programs an arbitrary-length image starting at addr,
// splitting it into write commands of at most chunkSize bytes.
func (c *Client) WriteImage(addr uint32, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > chunkSize {
			n = chunkSize
		}
		if err := c.WriteMemory(addr, data[:n]); err != nil {
			return err
		}
		pkg.LogDebug(pkg.ComponentISP, "chunk programmed", "address", addr, "length", n)
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// Go jumps to application code at the given absolute address.
func (c *Client) Go(addr uint32) error {
	if err := c.command(cmdGo); err != nil {
		return err
	}
	return c.send([]byte{
		byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr),
	})
}
