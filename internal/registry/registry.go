// Package registry owns the device list and is the entry point for command submission.
package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/resident-x/go-devcmd/internal/action"
	"github.com/resident-x/go-devcmd/internal/device"
	"github.com/resident-x/go-devcmd/internal/dispatch"
	"github.com/rs/zerolog"
)

// Registry keeps the registered devices and runs submitted commands.
//
// Devices are addressed by their 0-based insertion index and are never
// removed. Appends are serialized by a mutex; readers load an immutable
// snapshot of the list and never take that mutex.
type Registry struct {
	devices atomic.Pointer[[]*device.Device]
	mutex   sync.Mutex

	dispatcher *dispatch.Dispatcher
	inFlight   sync.WaitGroup
	pending    atomic.Int64
	logger     zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry and its dispatchers.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	empty := make([]*device.Device, 0)
	r.devices.Store(&empty)
	r.dispatcher = dispatch.NewDispatcher(r, r.logger)
	r.logger = r.logger.With().Str("component", "registry").Logger()

	return r
}

// AddDevice appends a device and returns its index. No deduplication is done.
// Passing a nil device is a programming error and panics before the list changes.
func (r *Registry) AddDevice(d *device.Device) int {
	if d == nil {
		panic("registry: AddDevice called with nil device")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	current := *r.devices.Load()
	next := make([]*device.Device, len(current), len(current)+1)
	copy(next, current)
	next = append(next, d)
	r.devices.Store(&next)

	index := len(next) - 1
	r.logger.Debug().
		Int("index", index).
		Int("physical_id", d.Hardware().PhysicalID).
		Str("serial", d.Hardware().Serial).
		Msg("Added device")

	return index
}

// Device returns the device at index as currently registered.
func (r *Registry) Device(index int) (*device.Device, bool) {
	devices := *r.devices.Load()
	if index < 0 || index >= len(devices) {
		return nil, false
	}
	return devices[index], true
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(*r.devices.Load())
}

// Submit starts executing line and returns its action immediately.
func (r *Registry) Submit(line string) *action.Action {
	a := action.New()

	r.inFlight.Add(1)
	r.pending.Add(1)
	go func() {
		defer r.inFlight.Done()
		defer r.pending.Add(-1)
		r.dispatcher.Dispatch(a, line)
	}()

	return a
}

// Pending returns the number of submitted commands that have not finished.
func (r *Registry) Pending() int {
	return int(r.pending.Load())
}

// Drain waits until every submitted command has finished or ctx is done.
// It is meant to be called once the caller has stopped submitting.
func (r *Registry) Drain(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		r.inFlight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining %d pending commands: %w", r.Pending(), ctx.Err())
	}
}
