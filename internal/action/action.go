// Package action provides the completion handle returned for every submitted command.
package action

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State represents the lifecycle state of an action.
type State int

const (
	StatePending State = iota
	StateCompleted
)

// String returns the string representation of the action state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Action carries the eventual result of one submitted command.
//
// An action is completed exactly once. Result and Err may only be read after
// Wait returns or Done is closed.
type Action struct {
	ID          string
	SubmittedAt time.Time

	command     string
	result      string
	err         error
	completedAt time.Time

	commandMutex sync.RWMutex
	once         sync.Once
	done         chan struct{}
}

// New creates a pending action.
func New() *Action {
	return &Action{
		ID:          uuid.New().String(),
		SubmittedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// SetCommand records the raw command text for diagnostics.
func (a *Action) SetCommand(command string) {
	a.commandMutex.Lock()
	defer a.commandMutex.Unlock()
	a.command = command
}

// Command returns the raw command text.
func (a *Action) Command() string {
	a.commandMutex.RLock()
	defer a.commandMutex.RUnlock()
	return a.command
}

// Complete publishes the result and wakes all waiters.
// Only the first call has any effect; it reports whether this call completed the action.
func (a *Action) Complete(result string, err error) bool {
	completed := false
	a.once.Do(func() {
		a.result = result
		a.err = err
		a.completedAt = time.Now()
		close(a.done)
		completed = true
	})
	return completed
}

// Wait blocks until the action is completed. It may be called any number of times.
func (a *Action) Wait() *Action {
	<-a.done
	return a
}

// Done returns a channel that is closed once the action is completed.
func (a *Action) Done() <-chan struct{} {
	return a.done
}

// State returns the current lifecycle state.
func (a *Action) State() State {
	select {
	case <-a.done:
		return StateCompleted
	default:
		return StatePending
	}
}

// Result returns the textual result. Call only after completion.
func (a *Action) Result() string {
	return a.result
}

// Err returns the structured failure behind an error result, or nil. Call only after completion.
func (a *Action) Err() error {
	return a.err
}

// Duration returns the time between submission and completion.
// While the action is pending it returns the time elapsed so far.
func (a *Action) Duration() time.Duration {
	select {
	case <-a.done:
		return a.completedAt.Sub(a.SubmittedAt)
	default:
		return time.Since(a.SubmittedAt)
	}
}
