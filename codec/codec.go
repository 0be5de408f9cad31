// Package codec centralizes the encoding of the version index file.
//
// The codec is chosen from the index file name: `.json` files use JSON, anything
// else (including `.yml`/`.yaml`) uses YAML. Changing the codec of an existing
// index is a breaking change; the file will no longer decode.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// ForPath returns the codec matching the extension of path, falling back to Default.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON{}
	case ".yml", ".yaml":
		return YAML{}
	default:
		return Default
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Default is the codec used for index files without a recognized extension.
var Default Codec = YAML{}
