// Package console provides the text front ends for submitting commands:
// an interactive prompt and a batch script runner.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/resident-x/go-devcmd/internal/action"
	"github.com/resident-x/go-devcmd/internal/registry"
)

// Submitter runs command lines asynchronously.
type Submitter interface {
	Submit(line string) *action.Action
}

// Server is the registry surface the console needs.
type Server interface {
	Submitter
	Snapshot() []registry.DeviceState
}

// Printer writes completed actions as "command<TAB>result" lines.
// It is safe for concurrent use.
type Printer struct {
	out   io.Writer
	mutex sync.Mutex
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Print writes one completed action.
func (p *Printer) Print(a *action.Action) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	fmt.Fprintf(p.out, "%-50s\t%-20s\n", a.Command(), a.Result())
}

// Printf writes a formatted message without interleaving with action lines.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
