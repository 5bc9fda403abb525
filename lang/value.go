package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// DeepGet resolves a dotted path ("a.b.0.c") into nested plain data.
// Numeric steps index into sequences; every other step keys into mappings.
// The second result reports whether the full path exists.
func DeepGet(data any, path string) (any, bool) {
	current := data

	for _, step := range PathSteps(path) {
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

// PathSteps splits a dotted path into mapping keys and sequence indexes.
func PathSteps(path string) []any {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, ".")
	steps := make([]any, 0, len(parts))

	for _, part := range parts {
		if i, err := strconv.Atoi(part); err == nil {
			steps = append(steps, i)

			continue
		}

		steps = append(steps, part)
	}

	return steps
}

// DeepSet writes value into nested plain data at the given key path,
// creating intermediate mappings and sequences as needed. Sequences are
// padded with nils up to the requested index.
func DeepSet(root any, steps []any, value any) (any, error) {
	if len(steps) == 0 {
		return value, nil
	}

	switch key := steps[0].(type) {
	case int:
		list, ok := root.([]any)
		if root != nil && !ok {
			return nil, ErrProcessing.Wrap(
				errPathStep(key, root),
			)
		}

		for len(list) <= key {
			list = append(list, nil)
		}

		child, err := DeepSet(list[key], steps[1:], value)
		if err != nil {
			return nil, err
		}

		list[key] = child

		return list, nil

	case string:
		dict, ok := root.(map[string]any)
		if root == nil {
			dict = map[string]any{}
		} else if !ok {
			return nil, ErrProcessing.Wrap(
				errPathStep(key, root),
			)
		}

		child, err := DeepSet(dict[key], steps[1:], value)
		if err != nil {
			return nil, err
		}

		dict[key] = child

		return dict, nil

	default:
		return nil, ErrProcessing.Wrap(
			errPathStep(key, root),
		)
	}
}

func errPathStep(step, root any) error {
	return fmt.Errorf("cannot descend into %T with path step %v", root, step)
}

// deepCopy clones nested plain data. Scalars are returned as-is; values of
// foreign types (constructed objects) are shared, not cloned.
func deepCopy(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = deepCopy(item)
		}

		return out

	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, deepCopy(item))
		}

		return out

	default:
		return data
	}
}

// formatScalar renders a scalar the way directive arguments spell it, so
// string interpolation and argument parsing round-trip: nil is "None",
// booleans are "True"/"False", and integral floats keep a ".0" suffix.
func formatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}

		return "False"
	case int:
		return strconv.Itoa(v)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}

		return s
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// truthy reports whether a plain value counts as true in a flag position:
// nil, false, zero numbers, and empty strings or containers do not.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// equalValues compares plain values for membership tests. Numbers compare
// across int and float64; containers compare element-wise.
func equalValues(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)

		return ok && af == bf
	}

	switch av := a.(type) {
	case nil:
		return b == nil

	case string:
		bv, ok := b.(string)

		return ok && av == bv

	case bool:
		bv, ok := b.(bool)

		return ok && av == bv

	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}

		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}

		return true

	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}

		for k, item := range av {
			other, ok := bv[k]
			if !ok || !equalValues(item, other) {
				return false
			}
		}

		return true

	default:
		return a == b
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		// Booleans are not numbers here.
		return 0, false
	default:
		return 0, false
	}
}

// product builds the cartesian product of the given branch lists, with the
// last list varying fastest. No lists yields a single empty combination.
func product(lists ...[]any) [][]any {
	combos := [][]any{{}}

	for _, list := range lists {
		next := make([][]any, 0, len(combos)*len(list))

		for _, combo := range combos {
			for _, item := range list {
				grown := make([]any, len(combo), len(combo)+1)
				copy(grown, combo)
				next = append(next, append(grown, item))
			}
		}

		combos = next
	}

	return combos
}
