// Package hardware provides the hardware-access layer that devices bind to.
package hardware

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sigurn/crc16"
)

// ErrInvalidPhysicalID is returned when a physical id cannot be resolved.
var ErrInvalidPhysicalID = errors.New("hardware: invalid physical id")

// DefaultFactor is the tuning factor reported when none is configured.
const DefaultFactor = 7

// Handle is an opaque binding to a piece of physical hardware.
type Handle struct {
	PhysicalID int
	Serial     string
}

// Bus defines the hardware-access layer used when constructing devices.
//
// Callers must hold the bus lock while calling Hardware and DefaultFactor.
type Bus interface {
	sync.Locker

	// Hardware resolves the physical id into a hardware handle
	Hardware(physicalID int) (Handle, error)

	// DefaultFactor returns the tuning factor used when the caller supplies none
	DefaultFactor() int
}

// accessMutex serializes all hardware access in the process.
var accessMutex sync.Mutex

// SimulatedBus is an in-process Bus whose handles carry a CRC-16/MODBUS serial.
type SimulatedBus struct {
	factor   int
	crcTable *crc16.Table
}

// NewSimulatedBus creates a simulated bus reporting the given default factor.
func NewSimulatedBus(defaultFactor int) *SimulatedBus {
	// Create CRC16 table for Modbus
	table := crc16.MakeTable(crc16.Params{
		Poly:   0xA001,
		Init:   0xFFFF,
		RefIn:  true,
		RefOut: true,
		XorOut: 0,
	})

	return &SimulatedBus{
		factor:   defaultFactor,
		crcTable: table,
	}
}

// Lock acquires the process-wide hardware lock.
func (b *SimulatedBus) Lock() {
	accessMutex.Lock()
}

// Unlock releases the process-wide hardware lock.
func (b *SimulatedBus) Unlock() {
	accessMutex.Unlock()
}

// Hardware resolves a physical id into a handle.
func (b *SimulatedBus) Hardware(physicalID int) (Handle, error) {
	if physicalID < 0 || physicalID > 0xFFFF {
		return Handle{}, fmt.Errorf("%w: %d", ErrInvalidPhysicalID, physicalID)
	}

	id := []byte{byte(physicalID >> 8), byte(physicalID)}
	crc := crc16.Checksum(id, b.crcTable)

	return Handle{
		PhysicalID: physicalID,
		Serial:     fmt.Sprintf("HW%04d-%04x", physicalID, crc),
	}, nil
}

// DefaultFactor returns the configured default tuning factor.
func (b *SimulatedBus) DefaultFactor() int {
	return b.factor
}
