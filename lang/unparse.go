package lang

import (
	"strings"
)

// Unparse transforms a node back into plain data that [Parse] would turn
// into the same tree. Directive nodes whose children are all literals
// render to the compact call form ("$var(x, default=10)"); anything richer
// falls back to the extended form mapping.
//
// Whitespace discarded by the scanner is not restored, so round-trips are
// canonical rather than byte-identical.
func Unparse(node Node) any {
	u := unparser{leaf: func(v any) any { return v }}

	return u.unparse(node)
}

// unparser renders nodes to plain data; leaf intercepts literal values so
// [Decode] can coerce foreign objects.
type unparser struct {
	leaf func(any) any
}

type kwarg struct {
	name string
	node Node
}

func (u unparser) unparse(node Node) any {
	switch n := node.(type) {
	case *Literal:
		return u.leaf(n.Value)

	case *Dict:
		out := map[string]any{}
		for _, entry := range n.Entries {
			out[mapKey(u.unparse(entry.Key))] = u.unparse(entry.Value)
		}

		return out

	case *List:
		out := make([]any, 0, len(n.Items))
		for _, item := range n.Items {
			out = append(out, u.unparse(item))
		}

		return out

	case *DictBundle:
		out := map[string]any{}

		for _, part := range n.Nodes {
			if m, ok := u.unparse(part).(map[string]any); ok {
				for k, v := range m {
					out[k] = v
				}
			}
		}

		return out

	case *StrBundle:
		var b strings.Builder
		for _, part := range n.Parts {
			b.WriteString(formatScalar(u.unparse(part)))
		}

		return b.String()

	case *Var:
		var kwargs []kwarg

		if n.Default != nil {
			kwargs = append(kwargs, kwarg{name: "default", node: n.Default})
		}

		if n.Env != nil {
			kwargs = append(kwargs, kwarg{name: "env", node: n.Env})
		}

		if n.Help != nil {
			kwargs = append(kwargs, kwarg{name: "help", node: n.Help})
		}

		return u.auto("var", []Node{n.Identifier}, kwargs)

	case *Import:
		return u.auto("import", []Node{n.Path}, nil)

	case *Sweep:
		return u.auto("sweep", n.Cases, nil)

	case *Symbol:
		return u.auto("symbol", []Node{n.Name}, nil)

	case *Instance:
		return map[string]any{
			DirectivePrefix + "call": u.unparse(n.Symbol),
			DirectivePrefix + "args": u.unparse(n.Args),
		}

	case *Model:
		return map[string]any{
			DirectivePrefix + "model": u.unparse(n.Symbol),
			DirectivePrefix + "args":  u.unparse(n.Args),
		}

	case *For:
		args := []Node{n.Iterable}
		if n.Identifier != nil {
			args = append(args, n.Identifier)
		}

		return map[string]any{
			u.call("for", args, nil): u.unparse(n.Body),
		}

	case *Switch:
		cases := make([]any, 0, len(n.Cases)+1)

		for _, c := range n.Cases {
			cases = append(cases, map[string]any{
				DirectivePrefix + "case": u.unparse(c.Set),
				DirectivePrefix + "then": u.unparse(c.Then),
			})
		}

		if n.Default != nil {
			cases = append(cases, map[string]any{
				DirectivePrefix + "default": u.unparse(n.Default),
			})
		}

		return map[string]any{
			u.call("switch", []Node{n.Value}, nil): cases,
		}

	case *Index:
		return u.auto("index", optionalArg(n.Identifier), nil)

	case *Item:
		return u.auto("item", optionalArg(n.Identifier), nil)

	case *Uuid:
		return DirectivePrefix + "uuid"

	case *Date:
		return u.auto("date", optionalArg(n.Format), nil)

	case *Cmd:
		return u.auto("cmd", []Node{n.Command}, nil)

	case *TmpDir:
		return u.auto("tmp", optionalArg(n.Name), nil)

	case *Rand:
		args := make([]Node, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, a)
		}

		var kwargs []kwarg

		if n.N != nil {
			kwargs = append(kwargs, kwarg{name: "n", node: n.N})
		}

		if n.Pdf != nil {
			kwargs = append(kwargs, kwarg{name: "pdf", node: n.Pdf})
		}

		return u.auto("rand", args, kwargs)

	default:
		// The node set is closed; new kinds must be handled above.
		return nil
	}
}

func optionalArg(h Hashable) []Node {
	if h == nil {
		return nil
	}

	return []Node{h}
}

// auto picks the rendering: compact for argument-less directives, the call
// form when every argument is a literal, the extended form otherwise.
func (u unparser) auto(name string, args []Node, kwargs []kwarg) any {
	if len(args) == 0 && len(kwargs) == 0 {
		return DirectivePrefix + name
	}

	literals := true

	for _, a := range args {
		if _, ok := a.(*Literal); !ok {
			literals = false

			break
		}
	}

	for _, kw := range kwargs {
		if _, ok := kw.node.(*Literal); !ok {
			literals = false

			break
		}
	}

	if literals {
		return u.call(name, args, kwargs)
	}

	return u.extended(name, args, kwargs)
}

func (u unparser) call(name string, args []Node, kwargs []kwarg) string {
	parts := make([]string, 0, len(args)+len(kwargs))

	for _, a := range args {
		parts = append(parts, u.asArg(a))
	}

	for _, kw := range kwargs {
		parts = append(parts, kw.name+"="+u.asArg(kw.node))
	}

	return DirectivePrefix + name + "(" + strings.Join(parts, ", ") + ")"
}

func (u unparser) extended(name string, args []Node, kwargs []kwarg) map[string]any {
	argList := make([]any, 0, len(args))
	for _, a := range args {
		argList = append(argList, u.unparse(a))
	}

	kwargMap := map[string]any{}
	for _, kw := range kwargs {
		kwargMap[kw.name] = u.unparse(kw.node)
	}

	return map[string]any{
		DirectivePrefix + "directive": name,
		DirectivePrefix + "args":      argList,
		DirectivePrefix + "kwargs":    kwargMap,
	}
}

// asArg renders one argument of a compact call: bare names stay bare,
// other strings are quoted, scalars use the argument grammar's spellings.
func (u unparser) asArg(node Node) string {
	value := u.unparse(node)

	if s, ok := value.(string); ok {
		if isDottedName(s) {
			return s
		}

		return `"` + s + `"`
	}

	return formatScalar(value)
}

func isDottedName(s string) bool {
	if s == "" {
		return false
	}

	// These spellings would re-parse as scalars, not names.
	if s == "None" || s == "True" || s == "False" {
		return false
	}

	for _, part := range strings.Split(s, ".") {
		if !directiveNameRE.MatchString(part) {
			return false
		}
	}

	return true
}
