// Package command implements the textual command grammar: tokenizing,
// recognizing and validating command lines into typed requests.
//
// The grammar has four forms:
//
//	s name <id> <name>
//	s params <id> <v1,v2,...>
//	g name <id>
//	g params <id>
//
// Tokens are separated by single spaces; consecutive spaces produce empty
// tokens, which fail validation.
package command

import (
	"strconv"
	"strings"

	"github.com/resident-x/go-devcmd/internal/device"
)

// MaxParameter is the largest accepted parameter value.
const MaxParameter = 255

// Op identifies the operation a request performs.
type Op int

const (
	OpSetName Op = iota
	OpGetName
	OpSetParams
	OpGetParams
)

// String returns the string representation of the operation.
func (o Op) String() string {
	switch o {
	case OpSetName:
		return "set_name"
	case OpGetName:
		return "get_name"
	case OpSetParams:
		return "set_params"
	case OpGetParams:
		return "get_params"
	default:
		return "unknown"
	}
}

// Request is a recognized and validated command.
type Request struct {
	Op     Op
	Index  int
	Name   string          // set for OpSetName
	Params device.Multiset // set for OpSetParams
}

// Tokenize splits a line on every single space, keeping empty tokens.
func Tokenize(line string) []string {
	return strings.Split(line, " ")
}

// Parse turns a raw command line into a validated request.
// Every failure is an *Error of kind KindCommandRejected.
func Parse(line string) (Request, error) {
	tokens := Tokenize(line)

	req, err := recognize(tokens)
	if err != nil {
		return Request{}, err
	}

	req.Index, err = ParseID(tokens[2])
	if err != nil {
		return Request{}, err
	}

	return req, nil
}

// recognize determines the operation and validates the set argument.
func recognize(tokens []string) (Request, error) {
	switch {
	case len(tokens) == 4 && tokens[0] == "s":
		switch tokens[1] {
		case "name":
			if err := ValidateName(tokens[3]); err != nil {
				return Request{}, err
			}
			return Request{Op: OpSetName, Name: tokens[3]}, nil
		case "params":
			params, err := ParseParams(tokens[3])
			if err != nil {
				return Request{}, err
			}
			return Request{Op: OpSetParams, Params: params}, nil
		}
	case len(tokens) == 3 && tokens[0] == "g":
		switch tokens[1] {
		case "name":
			return Request{Op: OpGetName}, nil
		case "params":
			return Request{Op: OpGetParams}, nil
		}
	}

	return Request{}, rejected("", "", "unrecognized command shape")
}

// ParseID validates a device id token: non-empty ASCII digits only.
func ParseID(token string) (int, error) {
	if token == "" {
		return 0, rejected("id", token, "empty")
	}
	if !isDigits(token) {
		return 0, rejected("id", token, "not a non-negative integer")
	}

	id, err := strconv.Atoi(token)
	if err != nil {
		return 0, rejected("id", token, "out of range")
	}

	return id, nil
}

// ValidateName checks that a name is non-empty and uses only [a-z0-9_].
func ValidateName(name string) error {
	if name == "" {
		return rejected("name", name, "empty")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z') && !isDigit(c) && c != '_' {
			return rejected("name", name, "only lowercase letters, digits and underscores are allowed")
		}
	}
	return nil
}

// ParseParams parses a comma separated list of values in [0,255].
// Empty fields are not collapsed; any invalid field rejects the whole list.
func ParseParams(list string) (device.Multiset, error) {
	var params device.Multiset

	for _, field := range strings.Split(list, ",") {
		if field == "" {
			return device.Multiset{}, rejected("params", list, "empty value")
		}
		if !isDigits(field) {
			return device.Multiset{}, rejected("params", field, "not a non-negative integer")
		}

		v, err := strconv.Atoi(field)
		if err != nil || v > MaxParameter {
			return device.Multiset{}, rejected("params", field, "value exceeds 255")
		}

		params.Insert(v)
	}

	return params, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
