package config

import (
	"fmt"
	"strings"
)

// Options is a slice of Option.
type Options []*Option

// GoString returns a string representation of the options.
func (opts Options) GoString() string {
	var strs []string
	for _, opt := range opts {
		strs = append(strs, opt.GoString())
	}

	return strings.Join(strs, ", ")
}

// Has checks if the Options contains an option with the given key.
func (opts Options) Has(key string) bool {
	for _, o := range opts {
		if o.IsKey(key) {
			return true
		}
	}

	return false
}

// Get gets the value for the given key, if the key is not found an empty
// string is returned. If the key has multiple values, the last one is
// returned.
func (opts Options) Get(key string) string {
	for i := len(opts) - 1; i >= 0; i-- {
		o := opts[i]
		if o.IsKey(key) {
			return o.Value
		}
	}

	return ""
}

// GetAll returns all the values for the given key in order of appearance.
func (opts Options) GetAll(key string) []string {
	result := []string{}
	for _, o := range opts {
		if o.IsKey(key) {
			result = append(result, o.Value)
		}
	}

	return result
}

// Option defines a key/value pair within a Section or Subsection.
type Option struct {
	Key   string
	Value string
}

// GoString returns a string representation of the option.
func (o *Option) GoString() string {
	return fmt.Sprintf("&config.Option{Key:%q, Value:%q}", o.Key, o.Value)
}

// IsKey returns whether the given key matches, case-insensitively, this
// option's key.
func (o *Option) IsKey(key string) bool {
	return strings.EqualFold(o.Key, key)
}
