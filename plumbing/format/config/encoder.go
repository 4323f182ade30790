package config

import (
	"fmt"
	"io"
	"strings"
)

// An Encoder writes config files to an output stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w}
}

// Encode writes the config in git config format to the encoder's writer.
func (e *Encoder) Encode(cfg *Config) error {
	for _, s := range cfg.Sections {
		if err := e.encodeSection(s); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeSection(s *Section) error {
	if err := e.printf("[%s]\n", s.Name); err != nil {
		return err
	}

	if err := e.encodeOptions(s.Options); err != nil {
		return err
	}

	for _, ss := range s.Subsections {
		if err := e.encodeSubsection(s.Name, ss); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) encodeSubsection(sectionName string, s *Subsection) error {
	if err := e.printf("[%s %s]\n", sectionName, quoteSubsectionName(s.Name)); err != nil {
		return err
	}

	return e.encodeOptions(s.Options)
}

func (e *Encoder) encodeOptions(opts Options) error {
	for _, o := range opts {
		if err := e.printf("\t%s = %s\n", o.Key, quoteValue(o.Value)); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(e.w, format, args...)

	return err
}

func quoteSubsectionName(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, `"`, `\"`)

	return `"` + name + `"`
}

func quoteValue(v string) string {
	if !needsQuote(v) {
		return v
	}

	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)

	return `"` + v + `"`
}

func needsQuote(v string) bool {
	if v == "" {
		return false
	}

	if strings.HasPrefix(v, " ") || strings.HasSuffix(v, " ") {
		return true
	}

	return strings.ContainsAny(v, "#;\"\\")
}
