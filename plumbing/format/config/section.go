package config

import (
	"fmt"
	"strings"
)

// Sections is a list of sections.
type Sections []*Section

// GoString returns a string representation of the sections.
func (s Sections) GoString() string {
	var strs []string
	for _, sect := range s {
		strs = append(strs, sect.GoString())
	}

	return strings.Join(strs, ", ")
}

// Subsections is a list of subsections.
type Subsections []*Subsection

// GoString returns a string representation of the subsections.
func (s Subsections) GoString() string {
	var strs []string
	for _, sect := range s {
		strs = append(strs, sect.GoString())
	}

	return strings.Join(strs, ", ")
}

// Section is a toplevel section of a config file, such as "[core]" or
// "[remote]" (the latter having subsections for each remote).
type Section struct {
	Name        string
	Options     Options
	Subsections Subsections
}

// GoString returns a string representation of the section.
func (s *Section) GoString() string {
	return fmt.Sprintf(
		"&config.Section{Name:%q, Options:%s, Subsections:%s}",
		s.Name, s.Options.GoString(), s.Subsections.GoString(),
	)
}

// IsName returns true if the given name matches, case-insensitively, this
// section's name.
func (s *Section) IsName(name string) bool {
	return strings.EqualFold(s.Name, name)
}

// Subsection returns the subsection with the given name, creating it if
// it does not exist yet.
func (s *Section) Subsection(name string) *Subsection {
	for i := len(s.Subsections) - 1; i >= 0; i-- {
		ss := s.Subsections[i]
		if ss.IsName(name) {
			return ss
		}
	}

	ss := &Subsection{Name: name}
	s.Subsections = append(s.Subsections, ss)

	return ss
}

// HasSubsection returns true if the section has a subsection with the
// given name.
func (s *Section) HasSubsection(name string) bool {
	for _, ss := range s.Subsections {
		if ss.IsName(name) {
			return true
		}
	}

	return false
}

// RemoveSubsection removes the subsection with the given name, if any.
func (s *Section) RemoveSubsection(name string) *Section {
	result := Subsections{}
	for _, ss := range s.Subsections {
		if !ss.IsName(name) {
			result = append(result, ss)
		}
	}

	s.Subsections = result

	return s
}

// Option returns the last value set for the given key, or an empty
// string if the key isn't present.
func (s *Section) Option(key string) string {
	return s.Options.Get(key)
}

// OptionAll returns all the values set for the given key, in order of
// appearance.
func (s *Section) OptionAll(key string) []string {
	return s.Options.GetAll(key)
}

// HasOption returns true if the section has an option with the given
// key.
func (s *Section) HasOption(key string) bool {
	return s.Options.Has(key)
}

// AddOption appends a new key/value pair, even if a value for the same
// key already exists.
func (s *Section) AddOption(key string, value string) *Section {
	s.Options = append(s.Options, &Option{key, value})

	return s
}

// SetOption sets the value for the given key, removing any previous
// value, and appends a new Option at the end.
func (s *Section) SetOption(key string, values ...string) *Section {
	s.removeOption(key)

	for _, value := range values {
		s.AddOption(key, value)
	}

	return s
}

// RemoveOption removes all the options with the given key.
func (s *Section) RemoveOption(key string) *Section {
	s.removeOption(key)

	return s
}

func (s *Section) removeOption(key string) {
	result := Options{}
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)
		}
	}

	s.Options = result
}

// Subsection is a named subsection of a Section, such as the
// "[remote "origin"]" subsection of the "remote" section.
type Subsection struct {
	Name    string
	Options Options
}

// GoString returns a string representation of the subsection.
func (s *Subsection) GoString() string {
	return fmt.Sprintf("&config.Subsection{Name:%q, Options:%s}", s.Name, s.Options.GoString())
}

// IsName returns true if the given name matches this subsection's name.
// Unlike Section names, subsection names are case-sensitive.
func (s *Subsection) IsName(name string) bool {
	return s.Name == name
}

// Option returns the last value set for the given key, or an empty
// string if the key isn't present.
func (s *Subsection) Option(key string) string {
	return s.Options.Get(key)
}

// OptionAll returns all the values set for the given key, in order of
// appearance.
func (s *Subsection) OptionAll(key string) []string {
	return s.Options.GetAll(key)
}

// HasOption returns true if the subsection has an option with the given
// key.
func (s *Subsection) HasOption(key string) bool {
	return s.Options.Has(key)
}

// AddOption appends a new key/value pair, even if a value for the same
// key already exists.
func (s *Subsection) AddOption(key string, value string) *Subsection {
	s.Options = append(s.Options, &Option{key, value})

	return s
}

// SetOption sets the values for the given key to the given values, in
// order. Each value replaces the value of an existing occurrence of key,
// preserving its position; any existing occurrences beyond len(values)
// are dropped, and any remaining values beyond the existing occurrences
// are appended at the end.
func (s *Subsection) SetOption(key string, values ...string) *Subsection {
	var result Options

	vi := 0
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)

			continue
		}

		if vi < len(values) {
			result = append(result, &Option{Key: key, Value: values[vi]})
			vi++
		}
	}

	for ; vi < len(values); vi++ {
		result = append(result, &Option{Key: key, Value: values[vi]})
	}

	s.Options = result

	return s
}

// RemoveOption removes all the options with the given key.
func (s *Subsection) RemoveOption(key string) *Subsection {
	result := Options{}
	for _, o := range s.Options {
		if !o.IsKey(key) {
			result = append(result, o)
		}
	}

	s.Options = result

	return s
}
