// Package flash programs the main flash memory of the GD32VF103 through
// the flash memory controller: unlock, page erase, halfword programming,
// and optional read-back verification.
package flash

import (
	"errors"

	"github.com/ardnew/gd32vf103/mmio"
	"github.com/ardnew/gd32vf103/pkg"
)

// Flash geometry.
const (
	FlashStart uintptr = 0x08000000
	PageSize           = 1024
)

// Unlock key sequence.
const (
	key1 = 0x45670123
	key2 = 0xCDEF89AB
)

// FMC register offsets.
const (
	regWS    = 0x00
	regKey   = 0x04
	regOBKey = 0x08
	regStat  = 0x0C
	regCtl   = 0x10
	regAddr  = 0x14
)

// stat register bits.
const (
	statBusy = 1 << 0
	statPGE  = 1 << 2
	statWPE  = 1 << 4
	statEND  = 1 << 5
)

// ctl register bits.
const (
	ctlPG    = 1 << 0
	ctlPER   = 1 << 1
	ctlMER   = 1 << 2
	ctlStart = 1 << 6
	ctlLK    = 1 << 7
)

// Programming errors.
var (
	ErrAddressRange = errors.New("address out of flash range")
	ErrAddressAlign = errors.New("address not halfword aligned")
	ErrLengthAlign  = errors.New("length not halfword aligned")
	ErrLengthRange  = errors.New("length exceeds flash range")
	ErrErase        = errors.New("page erase failed")
	ErrProgram      = errors.New("programming failed")
	ErrWriteProtect = errors.New("target region is write protected")
	ErrVerify       = errors.New("read-back verification failed")
	ErrUnlock       = errors.New("controller unlock failed")
	ErrLock         = errors.New("controller already locked")
)

// Size is the main flash capacity of a device variant.
type Size uint8

// Device flash capacities.
const (
	Size16K Size = iota
	Size32K
	Size64K
	Size128K
)

// Bytes returns the capacity in bytes.
func (s Size) Bytes() int {
	switch s {
	case Size16K:
		return 16 * 1024
	case Size32K:
		return 32 * 1024
	case Size64K:
		return 64 * 1024
	case Size128K:
		return 128 * 1024
	}
	return 0
}

// Writer erases and programs main flash. The fmc block views the
// controller registers and the array block views the flash array itself.
type Writer struct {
	fmc    *mmio.Block
	array  *mmio.Block
	size   Size
	verify bool
}

// NewWriter creates a flash writer. When verify is set, every programmed
// halfword is read back and compared.
func NewWriter(fmc, array *mmio.Block, size Size, verify bool) *Writer {
	return &Writer{fmc: fmc, array: array, size: size, verify: verify}
}

func (w *Writer) busyWait() {
	for w.fmc.Read32(regStat)&statBusy != 0 {
	}
}

func (w *Writer) isLocked() bool {
	return w.fmc.Read32(regCtl)&ctlLK != 0
}

func (w *Writer) unlock() error {
	if !w.isLocked() {
		return nil
	}
	w.fmc.Write32(regKey, key1)
	w.fmc.Write32(regKey, key2)
	if w.isLocked() {
		return ErrUnlock
	}
	return nil
}

func (w *Writer) lock() error {
	if w.isLocked() {
		return ErrLock
	}
	w.fmc.SetBits32(regCtl, ctlLK)
	return nil
}

func (w *Writer) validAddress(offset int) error {
	if offset < 0 || offset >= w.size.Bytes() {
		return ErrAddressRange
	}
	if offset%2 != 0 {
		return ErrAddressAlign
	}
	return nil
}

func (w *Writer) validLength(offset, length int) error {
	if length%2 != 0 {
		return ErrLengthAlign
	}
	if offset+length > w.size.Bytes() {
		return ErrLengthRange
	}
	return nil
}

// takeStatus reads and acknowledges the sticky error and completion
// flags.
func (w *Writer) takeStatus() uint32 {
	stat := w.fmc.Read32(regStat)
	w.fmc.ClearBits32(regStat, statPGE|statWPE|statEND)
	return stat
}

// PageErase erases the page containing offset. The controller must be
// unlocked.
func (w *Writer) PageErase(offset int) error {
	if err := w.validAddress(offset); err != nil {
		return err
	}
	page := offset &^ (PageSize - 1)

	w.busyWait()
	w.fmc.SetBits32(regCtl, ctlPER)
	w.fmc.Write32(regAddr, uint32(FlashStart)+uint32(page))
	w.fmc.SetBits32(regCtl, ctlStart)
	w.busyWait()
	w.fmc.ClearBits32(regCtl, ctlPER)

	if w.takeStatus()&statWPE != 0 {
		return ErrWriteProtect
	}
	if !w.isPageErased(page) {
		return ErrErase
	}
	pkg.LogDebug(pkg.ComponentFlash, "page erased", "offset", page)
	return nil
}

func (w *Writer) isPageErased(page int) bool {
	for off := page; off < page+PageSize; off += 4 {
		if w.array.Read32(off) != 0xFFFFFFFF {
			return false
		}
	}
	return true
}

// EraseRange erases every page overlapping [offset, offset+length).
func (w *Writer) EraseRange(offset, length int) error {
	if err := w.validAddress(offset); err != nil {
		return err
	}
	if err := w.validLength(offset, length); err != nil {
		return err
	}
	first := offset &^ (PageSize - 1)
	last := (offset + length - 1) &^ (PageSize - 1)
	for page := first; page <= last; page += PageSize {
		if err := w.PageErase(page); err != nil {
			return err
		}
	}
	return nil
}

// Erase erases the pages covering the region and leaves the controller
// locked again.
func (w *Writer) Erase(offset, length int) error {
	if err := w.unlock(); err != nil {
		return err
	}
	err := w.EraseRange(offset, length)
	if lerr := w.lock(); err == nil {
		err = lerr
	}
	return err
}

// Read copies length bytes of flash starting at offset into a new slice.
func (w *Writer) Read(offset, length int) ([]byte, error) {
	if offset < 0 || offset >= w.size.Bytes() {
		return nil, ErrAddressRange
	}
	if offset+length > w.size.Bytes() {
		return nil, ErrLengthRange
	}
	return w.array.ReadBytes(offset, length), nil
}

// Write programs data into flash starting at offset. The target pages
// must be erased first. Programming proceeds one halfword at a time.
func (w *Writer) Write(offset int, data []byte) error {
	if err := w.validAddress(offset); err != nil {
		return err
	}
	if err := w.validLength(offset, len(data)); err != nil {
		return err
	}
	if err := w.unlock(); err != nil {
		return err
	}
	defer w.lock()

	w.fmc.SetBits32(regCtl, ctlPG)
	defer w.fmc.ClearBits32(regCtl, ctlPG)

	for i := 0; i < len(data); i += 2 {
		hw := uint16(data[i]) | uint16(data[i+1])<<8

		w.array.Write16(offset+i, hw)
		w.busyWait()

		stat := w.takeStatus()
		if stat&statWPE != 0 {
			return ErrWriteProtect
		}
		if stat&statPGE != 0 {
			return ErrProgram
		}
		if w.verify && w.array.Read16(offset+i) != hw {
			return ErrVerify
		}
	}

	pkg.LogDebug(pkg.ComponentFlash, "programmed", "offset", offset, "length", len(data))
	return nil
}
