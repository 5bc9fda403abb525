// Package markup reads and writes configuration files, dispatching on the
// file extension. YAML is the default; files ending in ".json" use JSON.
//
// Loaded values are normalized to the host shapes the rest of the module
// works with: mappings are map[string]any, sequences are []any, integers
// are int, and floating point numbers are float64.
package markup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format identifies a supported markup syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}

	return "yaml"
}

// DetectFormat picks the format for a file path. JSON is chosen for a
// ".json" extension; everything else is treated as YAML, which covers the
// common ".yml" and ".yaml" spellings as well as extensionless paths.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// Loader reads configuration files from the filesystem.
type Loader struct{}

// NewLoader creates a filesystem Loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads and decodes the file at path.
func (*Loader) Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	value, err := Decode(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return value, nil
}

// Save encodes value and writes it to path, creating parent directories as
// needed.
func Save(value any, path string) error {
	data, err := Encode(value, DetectFormat(path))
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// Decode parses raw markup into normalized host values.
func Decode(data []byte, format Format) (any, error) {
	var value any

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

	default:
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, err
		}
	}

	return Normalize(value), nil
}

// Encode renders a host value as markup text.
func Encode(value any, format Format) ([]byte, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}

		return append(data, '\n'), nil
	}

	return yaml.Marshal(value)
}

// Normalize rewrites decoded values into the canonical host shapes:
// string-keyed mappings, []any sequences, int integers, and float64
// floating point numbers.
func Normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Normalize(item)
		}

		return out

	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = Normalize(item)
		}

		return out

	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, Normalize(item))
		}

		return out

	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}

		f, _ := v.Float64()

		return f

	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float32:
		return float64(v)

	default:
		return v
	}
}
