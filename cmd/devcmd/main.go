// Package main provides the entry point for the devcmd command server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/resident-x/go-devcmd/internal/config"
	"github.com/resident-x/go-devcmd/internal/console"
	"github.com/resident-x/go-devcmd/internal/device"
	"github.com/resident-x/go-devcmd/internal/hardware"
	"github.com/resident-x/go-devcmd/internal/registry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	Version = "unknown" // Default version, can be overridden by build flags
)

func main() {
	// os.Exit is called after deferred functions in run() execute
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	// Parse command line flags
	flags := flag.NewFlagSet("devcmd", flag.ContinueOnError)
	configFile := flags.String("config", "", "Path to configuration file")
	showVersion := flags.Bool("version", false, "Show version information")
	scriptFile := flags.String("script", "", "Run the commands in this file and exit")
	interactive := flags.Bool("interactive", false, "Start an interactive console")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// Show version if requested
	if *showVersion {
		fmt.Fprintf(stdout, "devcmd %s\n", Version)
		return 0
	}

	// Initialize context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Initialize logger with the configured log level
	initLogger(cfg.LogLevel)

	log.Info().Str("version", Version).Msg("Starting devcmd server")
	cfg.Print()

	bus := hardware.NewSimulatedBus(cfg.Hardware.DefaultFactor)
	reg := registry.New(registry.WithLogger(log.Logger))

	if err := seedDevices(ctx, reg, bus, cfg.Devices); err != nil {
		log.Error().Err(err).Msg("Failed to register configured devices")
		return 1
	}

	printer := console.NewPrinter(stdout)

	switch {
	case *scriptFile != "":
		if err := runScriptFile(ctx, reg, printer, *scriptFile); err != nil {
			log.Error().Err(err).Str("script", *scriptFile).Msg("Script failed")
			return 1
		}

	case *interactive:
		c, err := console.New(reg, console.Options{
			Prompt:         cfg.Console.Prompt,
			HistoryFile:    cfg.Console.HistoryFile,
			SnapshotFormat: cfg.Snapshot.Format,
		}, log.Logger)
		if err != nil {
			log.Error().Err(err).Msg("Failed to start console")
			return 1
		}
		c.Run(ctx)

	default:
		if err := runDemo(ctx, reg, bus, printer); err != nil {
			log.Error().Err(err).Msg("Demo failed")
			return 1
		}
	}

	// Wait for outstanding commands before reading device state
	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer drainCancel()

	if err := reg.Drain(drainCtx); err != nil {
		log.Error().Err(err).Msg("Error draining commands")
		return 1
	}

	printer.Printf("\n*** DEVICES ***\n")
	if err := registry.Write(stdout, cfg.Snapshot.Format, reg.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to write snapshot")
		return 1
	}

	log.Info().Msg("Server stopped")
	return 0
}

// seedDevices binds the configured devices concurrently and registers them in
// configuration order.
func seedDevices(ctx context.Context, reg *registry.Registry, bus hardware.Bus, devices []config.DeviceConfig) error {
	bound := make([]*device.Device, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	for i, dc := range devices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var opts []device.Option
			if dc.Factor != nil {
				opts = append(opts, device.WithFactor(*dc.Factor))
			}

			d, err := device.New(bus, dc.PhysicalID, opts...)
			if err != nil {
				return fmt.Errorf("device %d: %w", i, err)
			}
			bound[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, d := range bound {
		reg.AddDevice(d)
	}

	return nil
}

func runScriptFile(ctx context.Context, reg *registry.Registry, printer *console.Printer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	lines, err := console.ReadScript(f)
	if err != nil {
		return err
	}

	_, err = console.RunScript(ctx, reg, printer, lines)
	return err
}

// initLogger configures the global zerolog logger.
func initLogger(level string) {
	// Set up pretty console logging for development
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	// Parse the log level
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', defaulting to 'info'\n", level)
		logLevel = zerolog.InfoLevel
	}

	// Configure global logger
	zerolog.SetGlobalLevel(logLevel)
	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}
