package command

import (
	"errors"
	"fmt"
)

// ErrorMarker is the result string reported to callers for every failed command.
const ErrorMarker = "Error"

// Domain errors for the command package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, command.ErrTargetNotFound) {
//	    // handle unknown device index
//	}
var (
	// ErrCommandRejected is returned when a command line fails the grammar.
	ErrCommandRejected = errors.New("command: rejected")

	// ErrTargetNotFound is returned when a valid command addresses a missing device.
	ErrTargetNotFound = errors.New("command: target not found")
)

// Kind classifies command failures.
type Kind int

const (
	KindCommandRejected Kind = iota
	KindTargetNotFound
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindCommandRejected:
		return "command_rejected"
	case KindTargetNotFound:
		return "target_not_found"
	default:
		return "unknown"
	}
}

// Error describes a failed command with enough context for diagnostics.
type Error struct {
	Kind   Kind
	Field  string
	Token  string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s in %s %q: %s", e.Kind, e.Field, e.Token, e.Reason)
}

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCommandRejected:
		return e.Kind == KindCommandRejected
	case ErrTargetNotFound:
		return e.Kind == KindTargetNotFound
	default:
		return false
	}
}

func rejected(field, token, reason string) *Error {
	return &Error{Kind: KindCommandRejected, Field: field, Token: token, Reason: reason}
}

// NotFound reports a device index outside the registry bounds.
func NotFound(index, count int) *Error {
	return &Error{
		Kind:   KindTargetNotFound,
		Field:  "id",
		Token:  fmt.Sprint(index),
		Reason: fmt.Sprintf("only %d devices registered", count),
	}
}
