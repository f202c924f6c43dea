// Package dispatch executes submitted command lines against the device list.
package dispatch

import (
	"fmt"
	"strconv"

	"github.com/resident-x/go-devcmd/internal/action"
	"github.com/resident-x/go-devcmd/internal/command"
	"github.com/resident-x/go-devcmd/internal/device"
	"github.com/rs/zerolog"
)

// DeviceList gives indexed access to the registered devices.
type DeviceList interface {
	// Device returns the device at index, or false when index is out of bounds
	Device(index int) (*device.Device, bool)

	// Len returns the current number of devices
	Len() int
}

// Dispatcher runs one command line end to end and completes its action.
type Dispatcher struct {
	devices DeviceList
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher bound to a device list.
func NewDispatcher(devices DeviceList, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		devices: devices,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch parses, validates and executes line, then completes a.
// Every failure, including a panic during execution, ends up in the action
// as command.ErrorMarker.
func (d *Dispatcher) Dispatch(a *action.Action, line string) {
	a.SetCommand(line)

	result, err := d.run(line)
	if err != nil {
		result = command.ErrorMarker
	}

	event := d.logger.Debug().
		Str("action_id", a.ID).
		Str("command", line).
		Str("result", result).
		Dur("duration", a.Duration())
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Command dispatched")

	a.Complete(result, err)
}

func (d *Dispatcher) run(line string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("command", line).
				Interface("panic", r).
				Msg("Recovered panic while executing command")
			result, err = "", fmt.Errorf("executing %q: panic: %v", line, r)
		}
	}()

	req, err := command.Parse(line)
	if err != nil {
		return "", err
	}

	return d.Execute(req)
}

// Execute applies a validated request to the addressed device.
// The index is checked against the device list as observed now.
func (d *Dispatcher) Execute(req command.Request) (string, error) {
	dev, ok := d.devices.Device(req.Index)
	if !ok {
		return "", command.NotFound(req.Index, d.devices.Len())
	}

	switch req.Op {
	case command.OpSetName:
		dev.SetName(req.Name)
		return "", nil

	case command.OpGetName:
		name := dev.Name()
		if name == "" {
			return strconv.Itoa(req.Index), nil
		}
		return name, nil

	case command.OpSetParams:
		dev.SetParameters(req.Params)
		return "", nil

	case command.OpGetParams:
		return dev.Parameters().String(), nil

	default:
		return "", fmt.Errorf("%w: unsupported operation %s", command.ErrCommandRejected, req.Op)
	}
}
