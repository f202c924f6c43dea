// Package device provides the device entity that commands operate on.
package device

import (
	"fmt"
	"sync"

	"github.com/resident-x/go-devcmd/internal/hardware"
)

// Device is a named entity holding a multiset of parameters and a hardware binding.
//
// The name and the parameters are guarded by separate locks, so operations on
// one field never wait on the other.
type Device struct {
	hardware hardware.Handle
	factor   int

	name struct {
		mutex sync.RWMutex
		value string
	}
	params struct {
		mutex sync.RWMutex
		value Multiset
	}
}

// Option configures device construction.
type Option func(*options)

type options struct {
	factor    int
	hasFactor bool
}

// WithFactor overrides the tuning factor the bus would otherwise provide.
func WithFactor(factor int) Option {
	return func(o *options) {
		o.factor = factor
		o.hasFactor = true
	}
}

// New binds a device to the given physical hardware.
// The bus lock is held for the whole hardware lookup.
func New(bus hardware.Bus, physicalID int, opts ...Option) (*Device, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bus.Lock()
	defer bus.Unlock()

	handle, err := bus.Hardware(physicalID)
	if err != nil {
		return nil, fmt.Errorf("binding device to hardware %d: %w", physicalID, err)
	}

	factor := o.factor
	if !o.hasFactor {
		factor = bus.DefaultFactor()
	}

	return &Device{
		hardware: handle,
		factor:   factor,
	}, nil
}

// Hardware returns the hardware binding.
func (d *Device) Hardware() hardware.Handle {
	return d.hardware
}

// Factor returns the tuning factor.
func (d *Device) Factor() int {
	return d.factor
}

// Name safely retrieves the device name.
func (d *Device) Name() string {
	d.name.mutex.RLock()
	defer d.name.mutex.RUnlock()
	return d.name.value
}

// SetName safely overwrites the device name. No validation happens here.
func (d *Device) SetName(name string) {
	d.name.mutex.Lock()
	defer d.name.mutex.Unlock()
	d.name.value = name
}

// Parameters returns a copy of the current parameters.
func (d *Device) Parameters() Multiset {
	d.params.mutex.RLock()
	defer d.params.mutex.RUnlock()
	return d.params.value.Clone()
}

// SetParameters replaces the parameters wholesale.
func (d *Device) SetParameters(params Multiset) {
	params = params.Clone()

	d.params.mutex.Lock()
	defer d.params.mutex.Unlock()
	d.params.value = params
}
