package lang

import "sort"

// WalkEntry is one leaf of a flattened tree: the value at the end of a
// deep key of mapping keys (strings) and sequence indexes (ints).
type WalkEntry struct {
	Path  []any
	Value any
}

// Walk unparses a node into a flattened list of (deep key, value) pairs.
// Mappings and sequences are traversed in declaration order; directive
// forms that unparse to mappings (extended forms, $for and $switch keys)
// are flattened through, with their rendered keys appearing in the paths.
// Empty containers are kept as leaf values.
func Walk(node Node) []WalkEntry {
	return walkNode(node, nil)
}

func walkNode(node Node, prefix []any) []WalkEntry {
	switch n := node.(type) {
	case *Dict:
		if len(n.Entries) == 0 {
			return []WalkEntry{leafEntry(prefix, map[string]any{})}
		}

		var out []WalkEntry

		for _, entry := range n.Entries {
			key := mapKey(Unparse(entry.Key))
			out = append(out, walkNode(entry.Value, childPath(prefix, key))...)
		}

		return out

	case *List:
		if len(n.Items) == 0 {
			return []WalkEntry{leafEntry(prefix, []any{})}
		}

		var out []WalkEntry

		for i, item := range n.Items {
			out = append(out, walkNode(item, childPath(prefix, i))...)
		}

		return out

	case *DictBundle:
		var out []WalkEntry

		for _, part := range n.Nodes {
			out = append(out, walkNode(part, prefix)...)
		}

		return out

	default:
		return flattenValue(Unparse(node), prefix)
	}
}

// flattenValue flattens already-unparsed plain data. Mapping keys are
// visited in sorted order since the rendering has no declaration order
// left to honor.
func flattenValue(value any, prefix []any) []WalkEntry {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			return []WalkEntry{leafEntry(prefix, v)}
		}

		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		var out []WalkEntry

		for _, k := range keys {
			out = append(out, flattenValue(v[k], childPath(prefix, k))...)
		}

		return out

	case []any:
		if len(v) == 0 {
			return []WalkEntry{leafEntry(prefix, v)}
		}

		var out []WalkEntry

		for i, item := range v {
			out = append(out, flattenValue(item, childPath(prefix, i))...)
		}

		return out

	default:
		return []WalkEntry{leafEntry(prefix, value)}
	}
}

func childPath(prefix []any, step any) []any {
	path := make([]any, len(prefix), len(prefix)+1)
	copy(path, prefix)

	return append(path, step)
}

func leafEntry(prefix []any, value any) WalkEntry {
	path := make([]any, len(prefix))
	copy(path, prefix)

	return WalkEntry{Path: path, Value: value}
}
