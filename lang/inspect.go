package lang

import (
	"log/slog"
	"path/filepath"
	"sort"
)

// Inspection is the static summary of a tree: the variables it consults
// (as a nested map from dotted identifier segments to defaults), their
// help strings, the environment fallbacks, the imported files, the symbol
// paths it references, and whether the tree is already fully processed
// (contains no directives).
type Inspection struct {
	Imports     []string
	Variables   map[string]any
	HelpStrings map[string]any
	Environ     map[string]any
	Symbols     []string
	Processed   bool
}

// Combine merges two inspections: set fields take the union, map fields
// merge with an existing concrete value winning over a nil placeholder,
// and Processed holds only if both sides hold.
func (a Inspection) Combine(b Inspection) Inspection {
	return Inspection{
		Imports:     unionSorted(a.Imports, b.Imports),
		Variables:   mergeDefaults(a.Variables, b.Variables),
		HelpStrings: mergeDefaults(a.HelpStrings, b.HelpStrings),
		Environ:     mergeFlat(a.Environ, b.Environ),
		Symbols:     unionSorted(a.Symbols, b.Symbols),
		Processed:   a.Processed && b.Processed,
	}
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}

		seen[s] = struct{}{}
		out = append(out, s)
	}

	sort.Strings(out)

	return out
}

// mergeDefaults merges nested default maps. A concrete value on either
// side wins over nil; nested maps merge recursively; otherwise the right
// side wins.
func mergeDefaults(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	out := make(map[string]any, len(a)+len(b))

	for k, v := range a {
		out[k] = v
	}

	for k, v := range b {
		existing, ok := out[k]
		if !ok {
			out[k] = v

			continue
		}

		em, eok := existing.(map[string]any)
		vm, vok := v.(map[string]any)

		switch {
		case eok && vok:
			out[k] = mergeDefaults(em, vm)
		case existing != nil && v == nil:
			// Keep the concrete value.
		default:
			out[k] = v
		}
	}

	return out
}

func mergeFlat(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	out := make(map[string]any, len(a)+len(b))

	for k, v := range a {
		out[k] = v
	}

	for k, v := range b {
		out[k] = v
	}

	return out
}

// Inspector statically collects an [Inspection] from a tree, without
// evaluating side-effecting directives. It never fails: unreadable
// imports produce a warning on the logger and an empty sub-result.
type Inspector struct {
	opts       options
	cwd        string
	namedLoops map[string]string
}

// NewInspector creates an Inspector with the given options.
func NewInspector(opts ...Option) *Inspector {
	return &Inspector{opts: makeOptions(opts...)}
}

// Inspect statically collects an [Inspection] from node.
func Inspect(node Node, opts ...Option) Inspection {
	return NewInspector(opts...).Inspect(node)
}

// Inspect statically collects an [Inspection] from node.
func (ins *Inspector) Inspect(node Node) Inspection {
	ins.cwd = ins.opts.cwd
	ins.namedLoops = map[string]string{}

	return ins.inspect(node)
}

func (ins *Inspector) inspect(node Node) Inspection {
	switch n := node.(type) {
	case *Literal:
		return Inspection{Processed: true}

	case *Dict:
		acc := Inspection{Processed: true}
		for _, entry := range n.Entries {
			acc = acc.Combine(ins.inspect(entry.Key))
			acc = acc.Combine(ins.inspect(entry.Value))
		}

		return acc

	case *List:
		return ins.inspectAll(n.Items)

	case *DictBundle:
		return ins.inspectAll(n.Nodes)

	case *StrBundle:
		acc := Inspection{Processed: true}
		for _, part := range n.Parts {
			acc = acc.Combine(ins.inspect(part))
		}

		return acc

	case *Var:
		return ins.inspectVar(n)

	case *Import:
		return ins.inspectImport(n)

	case *Sweep:
		return ins.inspectAll(n.Cases)

	case *Symbol:
		acc := Inspection{}
		if name, ok := literalString(n.Name); ok {
			acc.Symbols = []string{name}
		}

		return acc

	case *Instance:
		return ins.inspectConstruction(n.Symbol, n.Args)

	case *Model:
		return ins.inspectConstruction(n.Symbol, n.Args)

	case *For:
		return ins.inspectFor(n)

	case *Switch:
		return ins.inspectSwitch(n)

	case *Index:
		return Inspection{}

	case *Item:
		return ins.inspectItem(n)

	case *Uuid, *Date, *Cmd, *TmpDir, *Rand:
		// Environment-probing directives carry nothing statically
		// knowable, but they do mean the tree needs processing.
		return Inspection{}

	default:
		return Inspection{}
	}
}

// inspectAll folds children over a processed=true seed, so a container is
// processed exactly when all of its children are.
func (ins *Inspector) inspectAll(nodes []Node) Inspection {
	acc := Inspection{Processed: true}
	for _, node := range nodes {
		acc = acc.Combine(ins.inspect(node))
	}

	return acc
}

func (ins *Inspector) inspectVar(node *Var) Inspection {
	id, ok := literalString(node.Identifier)
	if !ok {
		return Inspection{}
	}

	var defaultValue any
	if node.Default != nil {
		if lit, ok := node.Default.(*Literal); ok {
			defaultValue = lit.Value
		}
	}

	acc := Inspection{Variables: nestedEntry(id, defaultValue)}

	if node.Env != nil {
		if lit, ok := node.Env.(*Literal); ok && truthy(lit.Value) {
			acc.Environ = map[string]any{id: defaultValue}
		}
	}

	if node.Help != nil {
		acc.HelpStrings = nestedEntry(id, node.Help.Value)
	}

	return acc
}

func (ins *Inspector) inspectImport(node *Import) Inspection {
	path, ok := literalString(node.Path)
	if !ok {
		// A computed path cannot be followed statically.
		return ins.inspect(node.Path)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(ins.cwd, path)
	}

	acc := Inspection{Imports: []string{path}}

	data, err := ins.opts.loader.Load(path)
	if err != nil {
		ins.opts.logger.Warn("cannot complete inspection, import is unreadable",
			slog.String("path", path),
			slog.Any("error", err),
		)

		return acc
	}

	parsed, err := Parse(data)
	if err != nil {
		ins.opts.logger.Warn("cannot complete inspection, import does not parse",
			slog.String("path", path),
			slog.Any("error", err),
		)

		return acc
	}

	saved := ins.cwd
	ins.cwd = filepath.Dir(path)
	nested := ins.inspect(parsed)
	ins.cwd = saved

	return acc.Combine(nested)
}

func (ins *Inspector) inspectConstruction(symbol Hashable, args Node) Inspection {
	acc := Inspection{}
	if name, ok := literalString(symbol); ok {
		acc.Symbols = []string{name}
	}

	return acc.Combine(ins.inspect(args))
}

func (ins *Inspector) inspectFor(node *For) Inspection {
	acc := Inspection{}

	if name, ok := node.Iterable.Value.(string); ok {
		if node.Identifier != nil {
			id := formatScalar(node.Identifier.Value)
			ins.namedLoops[id] = name
		}

		acc.Variables = nestedEntry(name, nil)
	}

	return acc.Combine(ins.inspect(node.Body))
}

func (ins *Inspector) inspectSwitch(node *Switch) Inspection {
	acc := Inspection{}

	if name, ok := literalString(node.Value); ok {
		acc.Variables = nestedEntry(name, nil)
	}

	for _, c := range node.Cases {
		acc = acc.Combine(ins.inspect(c.Set))
		acc = acc.Combine(ins.inspect(c.Then))
	}

	if node.Default != nil {
		acc = acc.Combine(ins.inspect(node.Default))
	}

	// A switch always needs evaluation, whatever its children hold.
	acc.Processed = false

	return acc
}

func (ins *Inspector) inspectItem(node *Item) Inspection {
	if node.Identifier == nil {
		return Inspection{}
	}

	id, ok := literalString(node.Identifier)
	if !ok {
		return Inspection{}
	}

	loopID, key, _ := cutPath(id)

	iterable, ok := ins.namedLoops[loopID]
	if !ok {
		return Inspection{}
	}

	if key == "" {
		return Inspection{Variables: nestedEntry(iterable, nil)}
	}

	return Inspection{Variables: nestedEntry(iterable+"."+key, nil)}
}

func literalString(h Hashable) (string, bool) {
	lit, ok := h.(*Literal)
	if !ok {
		return "", false
	}

	s, ok := lit.Value.(string)

	return s, ok
}

func cutPath(id string) (head, rest string, found bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == '.' {
			return id[:i], id[i+1:], true
		}
	}

	return id, "", false
}

// nestedEntry builds a nested map from one dotted identifier.
func nestedEntry(id string, value any) map[string]any {
	root := map[string]any{}
	current := root

	steps := PathSteps(id)

	for i, step := range steps {
		key := formatScalar(step)

		if i == len(steps)-1 {
			current[key] = value

			break
		}

		child := map[string]any{}
		current[key] = child
		current = child
	}

	return root
}
