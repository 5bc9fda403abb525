package lang

import (
	"fmt"
	"strings"
)

// Node is an element of the directive syntax tree. The node set is closed:
// every visitor in this package is a single exhaustive type switch, so the
// compiler flags any visitor that misses a kind.
//
// Nodes are created once by [Parse] and never mutated; visitors produce new
// values. A tree is acyclic and owned top-down, so it can be shared freely
// across goroutines.
type Node interface {
	isNode()
}

// Hashable marks the node kinds that represent immutable structures and can
// serve as mapping keys or set members. The canonical key returned by
// hashKey defines structural equality.
type Hashable interface {
	Node
	hashKey() string
}

// Literal wraps a plain host value: nil, bool, int, float64, string, or a
// nested list/mapping taken verbatim.
type Literal struct {
	Value any
}

// DictEntry is one key-value pair of a [Dict], in declaration order.
type DictEntry struct {
	Key   Hashable
	Value Node
}

// Dict is a mapping node. Entries keep their declaration order because
// branch expansion order is observable.
type Dict struct {
	Entries []DictEntry
}

// List is a sequence node.
type List struct {
	Items []Node
}

// DictBundle is the union of several mapping-producing nodes, used when a
// mapping mixes key-value forms with plain entries.
type DictBundle struct {
	Nodes []Node
}

// StrBundle is the concatenation of literal text runs and directives
// embedded in one string.
type StrBundle struct {
	Parts []Hashable
}

// Var is a deferred variable reference. A nil Default means no default was
// given; a Default of &Literal{nil} means an explicit null default.
type Var struct {
	Identifier Hashable
	Default    Hashable
	Env        Hashable
	Help       *Literal
}

// Import composes another file into the tree at this position.
type Import struct {
	Path Hashable
}

// Sweep branches over its cases, one output branch per case.
type Sweep struct {
	Cases []Node
}

// Symbol resolves a registered symbol path to the object behind it.
type Symbol struct {
	Name Hashable
}

// Instance calls the callable behind a symbol path with keyword arguments.
type Instance struct {
	Symbol Hashable
	Args   Node
}

// Model builds and validates a structured object from a symbol path and a
// field mapping.
type Model struct {
	Symbol Hashable
	Args   Node
}

// For loops over a context-provided iterable, concatenating the merged
// per-iteration results. Identifier names the loop for nested Index/Item
// references.
type For struct {
	Iterable   *Literal
	Body       Node
	Identifier *Literal
}

// SwitchCase pairs a membership set with the branch taken on a match.
type SwitchCase struct {
	Set  Node
	Then Node
}

// Switch dispatches on a context value: cases are tested in declaration
// order, the first match wins, and Default (if non-nil) catches the rest.
type Switch struct {
	Value   Hashable
	Cases   []SwitchCase
	Default Node
}

// Index resolves to the running index of a loop (the innermost one when
// Identifier is nil).
type Index struct {
	Identifier Hashable
}

// Item resolves to the current element of a loop, optionally reaching into
// it with a dotted sub-path appended to the loop identifier.
type Item struct {
	Identifier Hashable
}

// Uuid resolves to a freshly generated unique id.
type Uuid struct{}

// Date resolves to the current time, formatted with an optional
// strftime-style format.
type Date struct {
	Format Hashable
}

// Cmd resolves to the captured output of a shell command.
type Cmd struct {
	Command Hashable
}

// TmpDir resolves to the path of a session-scoped temporary directory.
type TmpDir struct {
	Name Hashable
}

// Rand resolves to a sampled number (or list of numbers) drawn by the
// sampling collaborator. Args holds up to three positional bounds.
type Rand struct {
	Args []Hashable
	N    Node
	Pdf  Node
}

func (*Literal) isNode()    {}
func (*Dict) isNode()       {}
func (*List) isNode()       {}
func (*DictBundle) isNode() {}
func (*StrBundle) isNode()  {}
func (*Var) isNode()        {}
func (*Import) isNode()     {}
func (*Sweep) isNode()      {}
func (*Symbol) isNode()     {}
func (*Instance) isNode()   {}
func (*Model) isNode()      {}
func (*For) isNode()        {}
func (*Switch) isNode()     {}
func (*Index) isNode()      {}
func (*Item) isNode()       {}
func (*Uuid) isNode()       {}
func (*Date) isNode()       {}
func (*Cmd) isNode()        {}
func (*TmpDir) isNode()     {}
func (*Rand) isNode()       {}

func (n *Literal) hashKey() string {
	return fmt.Sprintf("literal|%T|%v", n.Value, n.Value)
}

func (n *StrBundle) hashKey() string {
	parts := make([]string, 0, len(n.Parts))
	for _, p := range n.Parts {
		parts = append(parts, p.hashKey())
	}

	return "strbundle|" + strings.Join(parts, "|")
}

func (n *Var) hashKey() string {
	help := "-"
	if n.Help != nil {
		help = n.Help.hashKey()
	}

	return "var|" + optKey(n.Identifier) + "|" + optKey(n.Default) +
		"|" + optKey(n.Env) + "|" + help
}

func (n *Sweep) hashKey() string {
	parts := make([]string, 0, len(n.Cases))

	for _, c := range n.Cases {
		h, ok := c.(Hashable)
		if !ok {
			parts = append(parts, fmt.Sprintf("%T", c))

			continue
		}

		parts = append(parts, h.hashKey())
	}

	return "sweep|" + strings.Join(parts, "|")
}

func (n *Index) hashKey() string  { return "index|" + optKey(n.Identifier) }
func (n *Item) hashKey() string   { return "item|" + optKey(n.Identifier) }
func (n *Uuid) hashKey() string   { return "uuid" }
func (n *Date) hashKey() string   { return "date|" + optKey(n.Format) }
func (n *Cmd) hashKey() string    { return "cmd|" + optKey(n.Command) }
func (n *TmpDir) hashKey() string { return "tmpdir|" + optKey(n.Name) }

func optKey(h Hashable) string {
	// Typed nils never reach here; only absent optional fields are nil.
	if h == nil {
		return "-"
	}

	return h.hashKey()
}
