// Package config wraps plain configuration data with the directive engine:
// a [Config] knows the directory its relative imports resolve against and
// exposes processing, inspection, flattening, and deep key access.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/choixe-lang/choixe/lang"
	"github.com/choixe-lang/choixe/markup"
)

// Config is a configuration mapping plus the working directory used to
// resolve its relative imports.
type Config struct {
	data map[string]any
	cwd  string
}

// New wraps data as a Config. An empty cwd defers to the process working
// directory at evaluation time. The data is not copied; callers that keep
// mutating it should hand over a copy.
func New(data map[string]any, cwd string) *Config {
	if data == nil {
		data = map[string]any{}
	}

	return &Config{data: data, cwd: cwd}
}

// FromFile loads a configuration file and pins its cwd to the file's
// directory, so sibling imports resolve naturally.
func FromFile(path string) (*Config, error) {
	value, err := (&markup.Loader{}).Load(path)
	if err != nil {
		return nil, err
	}

	data, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s does not hold a mapping", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return New(data, filepath.Dir(abs)), nil
}

// Data returns a deep copy of the configuration mapping.
func (c *Config) Data() map[string]any {
	return copyMap(c.data)
}

// Cwd returns the directory relative imports resolve against.
func (c *Config) Cwd() string { return c.cwd }

// Copy returns an independent clone.
func (c *Config) Copy() *Config {
	return New(copyMap(c.data), c.cwd)
}

// Parse turns the configuration data into a syntax tree.
func (c *Config) Parse() (lang.Node, error) {
	return lang.Parse(c.data)
}

// Process evaluates the configuration with branching disabled, yielding a
// single concrete configuration. Options are applied on top of the
// Config's own cwd.
func (c *Config) Process(opts ...lang.Option) (*Config, error) {
	results, err := c.process(false, opts)
	if err != nil {
		return nil, err
	}

	return results[0], nil
}

// ProcessAll evaluates the configuration with branch expansion, yielding
// one configuration per outcome branch.
func (c *Config) ProcessAll(opts ...lang.Option) ([]*Config, error) {
	return c.process(true, opts)
}

func (c *Config) process(branching bool, opts []lang.Option) ([]*Config, error) {
	node, err := c.Parse()
	if err != nil {
		return nil, err
	}

	merged := c.langOptions(opts)
	merged = append(merged, lang.WithBranching(branching))

	branches, err := lang.Process(node, merged...)
	if err != nil {
		return nil, err
	}

	out := make([]*Config, 0, len(branches))

	for _, branch := range branches {
		data, ok := branch.(map[string]any)
		if !ok {
			return nil, fmt.Errorf(
				"processing produced %T, not a mapping", branch,
			)
		}

		out = append(out, New(data, c.cwd))
	}

	return out, nil
}

// Inspect statically reports the variables, imports, and symbols the
// configuration depends on.
func (c *Config) Inspect(opts ...lang.Option) (lang.Inspection, error) {
	node, err := c.Parse()
	if err != nil {
		return lang.Inspection{}, err
	}

	return lang.Inspect(node, c.langOptions(opts)...), nil
}

// Walk flattens the configuration into deep key-value pairs.
func (c *Config) Walk() ([]lang.WalkEntry, error) {
	node, err := c.Parse()
	if err != nil {
		return nil, err
	}

	return lang.Walk(node), nil
}

// Decode renders the configuration to markup-friendly plain data, turning
// constructed objects back into their $model forms.
func (c *Config) Decode() (map[string]any, error) {
	node, err := c.Parse()
	if err != nil {
		return nil, err
	}

	value := lang.Decode(node)

	data, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoding produced %T, not a mapping", value)
	}

	return data, nil
}

// SaveTo decodes the configuration and writes it to path in the format
// matching the path's extension.
func (c *Config) SaveTo(path string) error {
	data, err := c.Decode()
	if err != nil {
		return err
	}

	return markup.Save(data, path)
}

func (c *Config) langOptions(opts []lang.Option) []lang.Option {
	merged := make([]lang.Option, 0, len(opts)+1)
	merged = append(merged, lang.WithCwd(c.cwd))

	return append(merged, opts...)
}

// DeepGet resolves a dotted path such as "model.layers.0.units". The
// second result reports whether the full path exists.
func (c *Config) DeepGet(path string) (any, bool) {
	return lang.DeepGet(c.data, path)
}

// DeepSet writes value at a dotted path, creating intermediate mappings
// and sequences as needed.
func (c *Config) DeepSet(path string, value any) error {
	return c.deepSet(lang.PathSteps(path), value, false, false)
}

// UpdateMode tunes [Config.DeepUpdate].
type UpdateMode struct {
	// FullMerge also writes keys absent from the receiver; otherwise only
	// existing keys are replaced.
	FullMerge bool

	// AppendValues concatenates old and new values as sequences instead of
	// replacing, wrapping scalars in one-element sequences.
	AppendValues bool
}

// DeepUpdate overlays another mapping onto the configuration, leaf by
// leaf. Directive forms in data are flattened through, so an override
// file can target keys inside extended forms.
func (c *Config) DeepUpdate(data map[string]any, mode UpdateMode) error {
	node, err := lang.Parse(data)
	if err != nil {
		return err
	}

	for _, entry := range lang.Walk(node) {
		err := c.deepSet(entry.Path, entry.Value, !mode.FullMerge, mode.AppendValues)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) deepSet(steps []any, value any, onlyExisting, appendValues bool) error {
	if onlyExisting {
		if _, ok := deepGetSteps(c.data, steps); !ok {
			return nil
		}
	}

	if appendValues {
		if current, ok := deepGetSteps(c.data, steps); ok && current != nil {
			value = appendedValue(current, value)
		}
	}

	root, err := lang.DeepSet(c.data, steps, value)
	if err != nil {
		return err
	}

	data, ok := root.(map[string]any)
	if !ok {
		return fmt.Errorf("update produced %T, not a mapping", root)
	}

	c.data = data

	return nil
}

func deepGetSteps(data any, steps []any) (any, bool) {
	current := data

	for _, step := range steps {
		switch key := step.(type) {
		case int:
			list, ok := current.([]any)
			if !ok || key < 0 || key >= len(list) {
				return nil, false
			}

			current = list[key]

		case string:
			dict, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}

			value, ok := dict[key]
			if !ok {
				return nil, false
			}

			current = value
		}
	}

	return current, true
}

// appendedValue concatenates current and value as sequences, wrapping
// scalars in one-element sequences first.
func appendedValue(current, value any) any {
	out := asList(current)

	return append(out, asList(value)...)
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return append([]any{}, list...)
	}

	return []any{v}
}

func copyMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}

	return out
}

func copyValue(v any) any {
	switch item := v.(type) {
	case map[string]any:
		return copyMap(item)

	case []any:
		out := make([]any, 0, len(item))
		for _, elem := range item {
			out = append(out, copyValue(elem))
		}

		return out

	default:
		return v
	}
}
