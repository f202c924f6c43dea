package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/resident-x/go-devcmd/internal/action"
	"golang.org/x/sync/errgroup"
)

// ReadScript reads command lines from r. Empty lines and lines starting with
// '#' are skipped; other lines are kept verbatim, including inner spaces.
func ReadScript(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	return lines, nil
}

// RunScript submits every line at once, waits for all of them and prints the
// results in submission order. Commands may complete in any order.
func RunScript(ctx context.Context, sub Submitter, printer *Printer, lines []string) ([]*action.Action, error) {
	actions := make([]*action.Action, len(lines))
	for i, line := range lines {
		actions[i] = sub.Submit(line)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range actions {
		g.Go(func() error {
			select {
			case <-a.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("waiting for script commands: %w", err)
	}

	for _, a := range actions {
		printer.Print(a)
	}

	return actions, nil
}

// RunSequence submits each line and waits for it before submitting the next,
// printing every result as soon as it is available.
func RunSequence(sub Submitter, printer *Printer, lines []string) []*action.Action {
	actions := make([]*action.Action, 0, len(lines))
	for _, line := range lines {
		a := sub.Submit(line).Wait()
		printer.Print(a)
		actions = append(actions, a)
	}
	return actions
}
