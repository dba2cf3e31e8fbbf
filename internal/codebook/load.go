package codebook

import (
	"errors"
	"fmt"
	"os"
)

// Loader decodes one codebook file format into variable definitions.
type Loader interface {
	CanLoad(filename string) bool
	Load(data []byte) (map[string]VariableDefinition, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a codebook format is not supported.
var ErrUnsupported = errors.New("unsupported codebook format")

// LoadFile selects a loader by filename and returns the parsed index.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read codebook: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			defs, err := l.Load(data)
			if err != nil {
				return nil, fmt.Errorf("parse codebook %s: %w", path, err)
			}
			return NewIndex(defs), nil
		}
	}
	return nil, fmt.Errorf("load codebook %s: %w", path, ErrUnsupported)
}

func init() {
	Register(ddiLoader{})
	Register(jsonLoader{})
	Register(yamlLoader{})
}
