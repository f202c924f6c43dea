package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/resident-x/go-devcmd/internal/registry"
	"github.com/rs/zerolog"
)

// Options configures the interactive console.
type Options struct {
	Prompt         string
	HistoryFile    string
	SnapshotFormat string
}

// Console is an interactive prompt that submits each entered line as a command.
type Console struct {
	server  Server
	options Options
	printer *Printer
	rl      *readline.Instance
	logger  zerolog.Logger
}

// New creates an interactive console reading from the terminal.
func New(server Server, opts Options, logger zerolog.Logger) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          opts.Prompt,
		HistoryFile:     opts.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(server, opts, rl.Stdout(), logger)
	c.rl = rl
	return c, nil
}

func newConsole(server Server, opts Options, out io.Writer, logger zerolog.Logger) *Console {
	return &Console{
		server:  server,
		options: opts,
		printer: NewPrinter(out),
		logger:  logger.With().Str("component", "console").Logger(),
	}
}

// Run reads lines until EOF, "exit" or ctx is done.
func (c *Console) Run(ctx context.Context) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		if !c.Handle(line) {
			return
		}
	}
}

// Handle processes one entered line. It returns false when the console should stop.
//
// Command lines are passed to the server verbatim, so spacing mistakes are
// reported by the grammar instead of being silently fixed.
func (c *Console) Handle(line string) bool {
	switch strings.TrimSpace(line) {
	case "":
		return true
	case "exit", "quit":
		return false
	case "help":
		c.printHelp()
		return true
	case "snapshot":
		var buf strings.Builder
		if err := registry.Write(&buf, c.options.SnapshotFormat, c.server.Snapshot()); err != nil {
			c.logger.Error().Err(err).Msg("Failed to render snapshot")
			return true
		}
		c.printer.Printf("%s", buf.String())
		return true
	}

	a := c.server.Submit(line).Wait()
	if err := a.Err(); err != nil {
		c.logger.Debug().Err(err).Str("action_id", a.ID).Msg("Command failed")
	}
	c.printer.Print(a)
	return true
}

func (c *Console) printHelp() {
	c.printer.Printf(`Commands:
  s name <id> <name>         set a device name ([a-z0-9_]+)
  s params <id> <v1,v2,...>  set device parameters (0-255)
  g name <id>                get a device name
  g params <id>              get device parameters
  snapshot                   show all devices
  help                       show this help
  exit                       leave the console
`)
}
