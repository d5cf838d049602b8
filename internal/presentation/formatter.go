// Package presentation formats command output.
package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatCaches formats a list of cache snapshots as JSON
func (f *Formatter) FormatCaches(caches []CacheDTO) error {
	return f.encode(caches)
}

// FormatFlags formats feature flags as JSON
func (f *Formatter) FormatFlags(flags []FlagDTO) error {
	return f.encode(flags)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
