package capability

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArguments is returned when a no-argument capability is given
	// arguments, or a string argument fails to parse.
	ErrArguments = errors.New("capability: unexpected arguments")
	// ErrArgumentsRequired is returned when a capability that requires
	// an argument is added without one.
	ErrArgumentsRequired = errors.New("capability: missing arguments")
	// ErrEmptyArgument is returned when one of the given arguments is
	// the empty string.
	ErrEmptyArgument = errors.New("capability: empty argument")
	// ErrMultipleArguments is returned when a single-argument
	// capability is given more than one value, across one or more
	// calls.
	ErrMultipleArguments = errors.New("capability: multiple arguments")
)

// List is an ordered, deduplicated set of capabilities with their
// arguments, as exchanged during reference discovery.
type List struct {
	m map[Capability][]string
	o []Capability
}

// NewList returns an empty List.
func NewList() *List {
	return &List{m: make(map[Capability][]string)}
}

// IsEmpty returns true if the list has no capabilities.
func (l *List) IsEmpty() bool {
	return len(l.m) == 0
}

// Decode parses a space-separated capability line of the form
// "cap[=value] cap2[=value2] ...".
func (l *List) Decode(data []byte) error {
	l.m = make(map[Capability][]string)
	l.o = nil

	data = bytes.TrimPrefix(data, []byte(" "))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	for _, token := range bytes.Split(data, []byte(" ")) {
		if len(token) == 0 {
			continue
		}

		pair := bytes.SplitN(token, []byte("="), 2)

		cap := Capability(pair[0])
		if len(pair) == 1 {
			if err := l.Add(cap); err != nil {
				return err
			}
			continue
		}

		if err := l.Add(cap, string(pair[1])); err != nil {
			return err
		}
	}

	return nil
}

// Supports returns true if the capability is present in the list.
func (l *List) Supports(cap Capability) bool {
	_, ok := l.m[cap]
	return ok
}

// Get returns the values set for cap, or nil if cap isn't present or
// carries no values.
func (l *List) Get(cap Capability) []string {
	return l.m[cap]
}

// All returns every capability in the list, in the order they were
// first added.
func (l *List) All() []Capability {
	return l.o
}

// Set replaces any existing values for cap with values, adding cap if
// it wasn't present.
func (l *List) Set(cap Capability, values ...string) error {
	if l.Supports(cap) {
		l.Delete(cap)
	}

	return l.Add(cap, values...)
}

// Add appends values to cap, adding cap to the list if it wasn't
// present. Known capabilities are validated against their argument
// rule.
func (l *List) Add(cap Capability, values ...string) error {
	existing := 0
	if l.m != nil {
		existing = len(l.m[cap])
	}

	if err := validate(cap, existing, values); err != nil {
		return err
	}

	if l.m == nil {
		l.m = make(map[Capability][]string)
	}

	if _, ok := l.m[cap]; !ok {
		l.o = append(l.o, cap)
	}

	l.m[cap] = append(l.m[cap], values...)
	return nil
}

func validate(cap Capability, existing int, values []string) error {
	for _, v := range values {
		if v == "" {
			return ErrEmptyArgument
		}
	}

	r := ruleFor(cap)

	switch r.arguments {
	case noArgument:
		if len(values) != 0 {
			return ErrArguments
		}
	case singleArgument:
		if r.required && existing+len(values) == 0 {
			return ErrArgumentsRequired
		}
		if len(values) > 1 || existing+len(values) > 1 {
			return ErrMultipleArguments
		}
	case multiArgument:
		if r.required && existing+len(values) == 0 {
			return ErrArgumentsRequired
		}
	}

	return nil
}

// Delete removes cap from the list, if present.
func (l *List) Delete(cap Capability) {
	if !l.Supports(cap) {
		return
	}

	delete(l.m, cap)
	for i, c := range l.o {
		if c == cap {
			l.o = append(l.o[:i], l.o[i+1:]...)
			break
		}
	}
}

// String encodes the list back to its wire representation.
func (l *List) String() string {
	var parts []string
	for _, cap := range l.o {
		values := l.m[cap]
		if len(values) == 0 {
			parts = append(parts, string(cap))
			continue
		}

		for _, v := range values {
			parts = append(parts, fmt.Sprintf("%s=%s", cap, v))
		}
	}

	return strings.Join(parts, " ")
}
