package main

import (
	"context"
	"fmt"

	"github.com/resident-x/go-devcmd/internal/console"
	"github.com/resident-x/go-devcmd/internal/device"
	"github.com/resident-x/go-devcmd/internal/hardware"
	"github.com/resident-x/go-devcmd/internal/registry"
	"golang.org/x/sync/errgroup"
)

// Command sequences run by the demo. Each sequence waits for every result
// before submitting its next command; the sequences themselves run concurrently.
var (
	demoFirst = []string{
		"s name 1  ",
		"s naame 0 pc_magnet_1",
		"randomletters",
		"s name 1 some_name",
		"g name 1",
		"g params 3",
		"s params 3 4,3,2,1,0,44,55,44,55",
	}
	demoSecond = []string{
		"s name 1 some-name!",
		"s name -1 pc_magnet_1",
		"s params 0 4,3,,2",
		"s name 3 some_name",
		"g name 3",
		"s params 0 4,3,2,1,0,44,55,44,55",
		"g params 0",
	}
	demoFinal = []string{
		"s name  ",
		"s name 1 Some_name",
		"g name notanumber",
		"s params 0 4,3,2,1,0,44,55,44,55,9999",
		"s name 0 pc_magnet_1",
		"g name 0",
		"g name 2",
		"s params 2 6,4,19,95",
	}
)

// runDemo exercises the registry with concurrent command sequences while
// devices are still being added.
func runDemo(ctx context.Context, reg *registry.Registry, bus hardware.Bus, printer *console.Printer) error {
	addDevice := func(physicalID int) error {
		d, err := device.New(bus, physicalID)
		if err != nil {
			return fmt.Errorf("adding demo device %d: %w", physicalID, err)
		}
		reg.AddDevice(d)
		return nil
	}

	var sequences errgroup.Group
	sequences.Go(func() error {
		console.RunSequence(reg, printer, demoFirst)
		return nil
	})
	sequences.Go(func() error {
		console.RunSequence(reg, printer, demoSecond)
		return nil
	})

	var adders errgroup.Group
	adders.Go(func() error {
		if err := addDevice(98); err != nil {
			return err
		}
		return addDevice(99)
	})

	if err := addDevice(97); err != nil {
		return err
	}
	if err := adders.Wait(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	console.RunSequence(reg, printer, demoFinal)

	return sequences.Wait()
}
