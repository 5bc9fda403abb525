package lang

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

type loopInfo struct {
	index int
	item  any
}

// Processor evaluates a syntax tree into the list of all its outcome
// branches. It holds per-evaluation state (the loop table, the working
// directory for relative imports) and must not be shared across concurrent
// Process calls; the tree itself is immutable and may be shared freely.
type Processor struct {
	opts        options
	loops       map[string]loopInfo
	currentLoop string
	tmpName     string
	cwd         string
}

// NewProcessor creates a Processor with the given options.
func NewProcessor(opts ...Option) *Processor {
	return &Processor{opts: makeOptions(opts...)}
}

// Process evaluates node with the given options and returns every outcome
// branch. With branching disabled the result always has exactly one
// element.
func Process(node Node, opts ...Option) ([]any, error) {
	return NewProcessor(opts...).Process(node)
}

// Process evaluates node and returns every outcome branch.
func (p *Processor) Process(node Node) ([]any, error) {
	p.loops = map[string]loopInfo{}
	p.currentLoop = ""
	p.tmpName = p.opts.newID()
	p.cwd = p.opts.cwd

	p.opts.logger.Trace("processing tree",
		slog.String("cwd", p.cwd),
		slog.Bool("branching", p.opts.branching),
	)

	return p.eval(node)
}

func (p *Processor) eval(node Node) ([]any, error) {
	switch n := node.(type) {
	case *Literal:
		return []any{n.Value}, nil
	case *Dict:
		return p.evalDict(n)
	case *List:
		return p.evalList(n)
	case *DictBundle:
		return p.evalDictBundle(n)
	case *StrBundle:
		return p.evalStrBundle(n)
	case *Var:
		return p.evalVar(n)
	case *Import:
		return p.evalImport(n)
	case *Sweep:
		return p.evalSweep(n)
	case *Symbol:
		return p.evalSymbol(n)
	case *Instance:
		return p.evalInstance(n)
	case *Model:
		return p.evalModel(n)
	case *For:
		return p.evalFor(n)
	case *Switch:
		return p.evalSwitch(n)
	case *Index:
		return p.evalIndex(n)
	case *Item:
		return p.evalItem(n)
	case *Uuid:
		return []any{p.opts.newID()}, nil
	case *Date:
		return p.evalDate(n)
	case *Cmd:
		return p.evalCmd(n)
	case *TmpDir:
		return p.evalTmpDir(n)
	case *Rand:
		return p.evalRand(n)
	default:
		return nil, ErrProcessing.Wrap(fmt.Errorf("unhandled node %T", node))
	}
}

// Mapping and sequence evaluation combine each child's branches
// incrementally: the accumulated partial results are repeated once per
// child branch, so earlier children vary fastest in the final order.

func (p *Processor) evalDict(node *Dict) ([]any, error) {
	data := []map[string]any{{}}

	for _, entry := range node.Entries {
		keyBranches, err := p.eval(entry.Key)
		if err != nil {
			return nil, err
		}

		valueBranches, err := p.eval(entry.Value)
		if err != nil {
			return nil, err
		}

		branches := product(keyBranches, valueBranches)
		next := make([]map[string]any, 0, len(data)*len(branches))

		for _, branch := range branches {
			for _, d := range data {
				clone := deepCopy(d).(map[string]any)
				clone[mapKey(branch[0])] = branch[1]
				next = append(next, clone)
			}
		}

		data = next
	}

	out := make([]any, len(data))
	for i, d := range data {
		out[i] = d
	}

	return out, nil
}

func (p *Processor) evalList(node *List) ([]any, error) {
	data := [][]any{{}}

	for _, item := range node.Items {
		branches, err := p.eval(item)
		if err != nil {
			return nil, err
		}

		next := make([][]any, 0, len(data)*len(branches))

		for _, branch := range branches {
			for _, d := range data {
				clone := deepCopy(d).([]any)
				next = append(next, append(clone, branch))
			}
		}

		data = next
	}

	out := make([]any, len(data))
	for i, d := range data {
		out[i] = d
	}

	return out, nil
}

func (p *Processor) evalDictBundle(node *DictBundle) ([]any, error) {
	data := []map[string]any{{}}

	for _, part := range node.Nodes {
		branches, err := p.eval(part)
		if err != nil {
			return nil, err
		}

		next := make([]map[string]any, 0, len(data)*len(branches))

		for _, branch := range branches {
			update, ok := branch.(map[string]any)
			if !ok {
				return nil, ErrMergeType.Wrap(fmt.Errorf(
					"mapping union over non-mapping value %T", branch,
				))
			}

			for _, d := range data {
				clone := deepCopy(d).(map[string]any)
				for k, v := range update {
					clone[k] = v
				}

				next = append(next, clone)
			}
		}

		data = next
	}

	out := make([]any, len(data))
	for i, d := range data {
		out[i] = d
	}

	return out, nil
}

func (p *Processor) evalStrBundle(node *StrBundle) ([]any, error) {
	data := []string{""}

	for _, part := range node.Parts {
		branches, err := p.eval(part)
		if err != nil {
			return nil, err
		}

		prev := len(data)
		next := make([]string, prev*len(branches))

		for i := range next {
			next[i] = data[i%prev] + formatScalar(branches[i/prev])
		}

		data = next
	}

	out := make([]any, len(data))
	for i, s := range data {
		out[i] = s
	}

	return out, nil
}

func (p *Processor) evalVar(node *Var) ([]any, error) {
	idBranches, err := p.eval(node.Identifier)
	if err != nil {
		return nil, err
	}

	defaultBranches, err := p.evalOptional(node.Default)
	if err != nil {
		return nil, err
	}

	envBranches, err := p.evalOptional(node.Env)
	if err != nil {
		return nil, err
	}

	var out []any

	for _, combo := range product(idBranches, defaultBranches, envBranches) {
		id := formatScalar(combo[0])

		if value, ok := DeepGet(p.opts.context, id); ok {
			out, err = p.appendReprocessed(out, value)
			if err != nil {
				return nil, err
			}

			continue
		}

		if truthy(combo[2]) {
			if value, ok := os.LookupEnv(id); ok {
				out, err = p.appendReprocessed(out, value)
				if err != nil {
					return nil, err
				}

				continue
			}
		}

		if node.Default != nil {
			out = append(out, combo[1])

			continue
		}

		if p.opts.prompt != nil {
			help := ""
			if node.Help != nil {
				help = formatScalar(node.Help.Value)
			}

			value, err := p.opts.prompt(id, help)
			if err != nil {
				return nil, ErrVarNotFound.Wrap(err).
					With(slog.String("identifier", id))
			}

			out, err = p.appendReprocessed(out, value)
			if err != nil {
				return nil, err
			}

			continue
		}

		return nil, ErrVarNotFound.Wrap(fmt.Errorf("variable %q", id))
	}

	return out, nil
}

// appendReprocessed re-parses a resolved variable value and evaluates it,
// so bindings may themselves contain directives; its branches extend out.
func (p *Processor) appendReprocessed(out []any, value any) ([]any, error) {
	parsed, err := Parse(value)
	if err != nil {
		return nil, err
	}

	branches, err := p.eval(parsed)
	if err != nil {
		return nil, err
	}

	return append(out, branches...), nil
}

func (p *Processor) evalImport(node *Import) ([]any, error) {
	pathBranches, err := p.eval(node.Path)
	if err != nil {
		return nil, err
	}

	var out []any

	for _, branch := range pathBranches {
		path := formatScalar(branch)
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.cwd, path)
		}

		p.opts.logger.Trace("importing file", slog.String("path", path))

		data, err := p.opts.loader.Load(path)
		if err != nil {
			return nil, ErrImportFailed.Wrap(err).With(slog.String("path", path))
		}

		parsed, err := Parse(data)
		if err != nil {
			return nil, WrapError(err).With(slog.String("path", path))
		}

		// Relative imports inside the file resolve against its parent.
		saved := p.cwd
		p.cwd = filepath.Dir(path)
		nested, err := p.eval(parsed)
		p.cwd = saved

		if err != nil {
			return nil, err
		}

		out = append(out, nested...)
	}

	return out, nil
}

func (p *Processor) evalSweep(node *Sweep) ([]any, error) {
	if !p.opts.branching {
		return []any{Unparse(node)}, nil
	}

	var out []any

	for _, c := range node.Cases {
		branches, err := p.eval(c)
		if err != nil {
			return nil, err
		}

		out = append(out, branches...)
	}

	return out, nil
}

func (p *Processor) evalSymbol(node *Symbol) ([]any, error) {
	branches, err := p.eval(node.Name)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(branches))

	for _, branch := range branches {
		spec := formatScalar(branch)

		obj, err := p.opts.resolver.Resolve(spec, p.cwd)
		if err != nil {
			return nil, ErrSymbolNotFound.Wrap(err).With(slog.String("symbol", spec))
		}

		out = append(out, obj)
	}

	return out, nil
}

func (p *Processor) evalInstance(node *Instance) ([]any, error) {
	return p.evalConstruction(node.Symbol, node.Args, false)
}

func (p *Processor) evalModel(node *Model) ([]any, error) {
	return p.evalConstruction(node.Symbol, node.Args, true)
}

func (p *Processor) evalConstruction(
	symbol Hashable,
	args Node,
	model bool,
) ([]any, error) {
	symbolBranches, err := p.eval(symbol)
	if err != nil {
		return nil, err
	}

	argsBranches, err := p.eval(args)
	if err != nil {
		return nil, err
	}

	var out []any

	for _, combo := range product(symbolBranches, argsBranches) {
		spec := formatScalar(combo[0])

		obj, err := p.opts.resolver.Resolve(spec, p.cwd)
		if err != nil {
			return nil, ErrSymbolNotFound.Wrap(err).With(slog.String("symbol", spec))
		}

		argMap, ok := combo[1].(map[string]any)
		if !ok {
			return nil, ErrProcessing.Wrap(fmt.Errorf(
				"arguments for %q must be a mapping, got %T", spec, combo[1],
			))
		}

		value, err := p.construct(spec, obj, argMap, model)
		if err != nil {
			return nil, err
		}

		out = append(out, value)
	}

	return out, nil
}

func (p *Processor) construct(
	spec string,
	obj any,
	args map[string]any,
	model bool,
) (any, error) {
	if model {
		builder, ok := obj.(Builder)
		if !ok {
			return nil, ErrProcessing.Wrap(
				fmt.Errorf("symbol %q is not a model builder", spec),
			)
		}

		value, err := builder.Build(args)
		if err != nil {
			return nil, ErrProcessing.Wrap(err).With(slog.String("symbol", spec))
		}

		return value, nil
	}

	callable, ok := obj.(Callable)
	if !ok {
		return nil, ErrProcessing.Wrap(
			fmt.Errorf("symbol %q is not callable", spec),
		)
	}

	value, err := callable.Call(args)
	if err != nil {
		return nil, ErrProcessing.Wrap(err).With(slog.String("symbol", spec))
	}

	return value, nil
}

func (p *Processor) evalFor(node *For) ([]any, error) {
	items, err := p.loopItems(node.Iterable.Value)
	if err != nil {
		return nil, err
	}

	id := ""
	if node.Identifier != nil {
		id = formatScalar(node.Identifier.Value)
	} else {
		id = p.opts.newID()
	}

	saved := p.currentLoop
	p.currentLoop = id

	perIteration := make([][]any, 0, len(items))

	for i, item := range items {
		p.loops[id] = loopInfo{index: i, item: item}

		branches, err := p.eval(node.Body)
		if err != nil {
			p.currentLoop = saved

			return nil, err
		}

		perIteration = append(perIteration, branches)
	}

	p.currentLoop = saved

	// One output branch per combination of iteration branches, with the
	// last iteration varying fastest; each combination merges its
	// per-iteration values into one dict, list, or string.
	combos := product(perIteration...)
	out := make([]any, 0, len(combos))

	for _, combo := range combos {
		merged, err := mergeLoopBranch(combo)
		if err != nil {
			return nil, err
		}

		out = append(out, merged)
	}

	return out, nil
}

func (p *Processor) loopItems(spec any) ([]any, error) {
	iterable := spec

	if id, ok := spec.(string); ok {
		value, found := DeepGet(p.opts.context, id)
		if !found {
			return nil, ErrVarNotFound.Wrap(
				fmt.Errorf("loop variable %q not found in context", id),
			)
		}

		iterable = value
	}

	switch v := iterable.(type) {
	case int:
		items := make([]any, v)
		for i := range items {
			items[i] = i
		}

		return items, nil

	case []any:
		return v, nil

	case string:
		items := make([]any, 0, len(v))
		for _, r := range v {
			items = append(items, string(r))
		}

		return items, nil

	default:
		return nil, ErrLoopNotIterable.Wrap(
			fmt.Errorf("loop source %v (%T) is not iterable", spec, iterable),
		)
	}
}

func mergeLoopBranch(combo []any) (any, error) {
	if len(combo) == 0 {
		return nil, nil
	}

	switch combo[0].(type) {
	case string, int, float64, bool:
		var b strings.Builder

		for _, item := range combo {
			switch item.(type) {
			case string, int, float64, bool:
				b.WriteString(formatScalar(item))
			default:
				return nil, mergeTypeError(combo[0], item)
			}
		}

		return b.String(), nil

	case []any:
		var merged []any

		for _, item := range combo {
			list, ok := item.([]any)
			if !ok {
				return nil, mergeTypeError(combo[0], item)
			}

			merged = append(merged, list...)
		}

		return merged, nil

	case map[string]any:
		merged := map[string]any{}

		for _, item := range combo {
			dict, ok := item.(map[string]any)
			if !ok {
				return nil, mergeTypeError(combo[0], item)
			}

			for k, v := range dict {
				merged[k] = v
			}
		}

		return merged, nil

	default:
		return nil, ErrMergeType.Wrap(fmt.Errorf(
			"loop body produced unmergeable value of type %T", combo[0],
		))
	}
}

func mergeTypeError(first, item any) error {
	return ErrMergeType.Wrap(fmt.Errorf(
		"loop body mixes %T and %T values", first, item,
	))
}

func (p *Processor) evalSwitch(node *Switch) ([]any, error) {
	valueBranches, err := p.eval(node.Value)
	if err != nil {
		return nil, err
	}

	lists := make([][]any, 0, 2*len(node.Cases)+2)
	lists = append(lists, valueBranches)

	for _, c := range node.Cases {
		branches, err := p.eval(c.Set)
		if err != nil {
			return nil, err
		}

		lists = append(lists, branches)
	}

	for _, c := range node.Cases {
		branches, err := p.eval(c.Then)
		if err != nil {
			return nil, err
		}

		lists = append(lists, branches)
	}

	defaultBranches, err := p.evalOptional(node.Default)
	if err != nil {
		return nil, err
	}

	lists = append(lists, defaultBranches)

	var out []any

	for _, combo := range product(lists...) {
		id := formatScalar(combo[0])

		value, found := DeepGet(p.opts.context, id)
		if !found {
			return nil, ErrVarNotFound.Wrap(
				fmt.Errorf("switch value %q not found in context", id),
			)
		}

		matched := false

		for i := range node.Cases {
			members, ok := combo[1+i].([]any)
			if !ok {
				members = []any{combo[1+i]}
			}

			if containsValue(members, value) {
				out = append(out, combo[1+len(node.Cases)+i])
				matched = true

				break
			}
		}

		if matched {
			continue
		}

		if node.Default == nil {
			return nil, ErrNoMatchingCase.Wrap(
				fmt.Errorf("value %v of %q matched no case", value, id),
			)
		}

		out = append(out, combo[len(combo)-1])
	}

	return out, nil
}

func containsValue(members []any, value any) bool {
	for _, m := range members {
		if equalValues(m, value) {
			return true
		}
	}

	return false
}

func (p *Processor) evalIndex(node *Index) ([]any, error) {
	branches, err := p.loopIDBranches(node.Identifier)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(branches))

	for _, branch := range branches {
		id := formatScalar(branch)

		info, ok := p.loops[id]
		if !ok {
			return nil, ErrProcessing.Wrap(fmt.Errorf("no active loop %q", id))
		}

		out = append(out, info.index)
	}

	return out, nil
}

func (p *Processor) evalItem(node *Item) ([]any, error) {
	branches, err := p.loopIDBranches(node.Identifier)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(branches))

	for _, branch := range branches {
		id, path, _ := strings.Cut(formatScalar(branch), ".")

		info, ok := p.loops[id]
		if !ok {
			return nil, ErrProcessing.Wrap(fmt.Errorf("no active loop %q", id))
		}

		if path == "" {
			out = append(out, info.item)

			continue
		}

		value, _ := DeepGet(info.item, path)
		out = append(out, value)
	}

	return out, nil
}

func (p *Processor) loopIDBranches(identifier Hashable) ([]any, error) {
	if identifier == nil {
		return []any{p.currentLoop}, nil
	}

	return p.eval(identifier)
}

func (p *Processor) evalDate(node *Date) ([]any, error) {
	ts := p.opts.now()

	branches, err := p.evalOptional(node.Format)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(branches))

	for _, branch := range branches {
		if !truthy(branch) {
			out = append(out, ts.Format(time.RFC3339))

			continue
		}

		out = append(out, strftime.Format(formatScalar(branch), ts))
	}

	return out, nil
}

func (p *Processor) evalCmd(node *Cmd) ([]any, error) {
	branches, err := p.eval(node.Command)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(branches))

	for _, branch := range branches {
		command := formatScalar(branch)

		p.opts.logger.Debug("running command", slog.String("command", command))

		stdout, err := p.opts.shell.Run(command)
		if err != nil {
			return nil, ErrCommandFailed.Wrap(err).
				With(slog.String("command", command))
		}

		out = append(out, stdout)
	}

	return out, nil
}

func (p *Processor) evalTmpDir(node *TmpDir) ([]any, error) {
	branches := []any{any(p.tmpName)}

	if node.Name != nil {
		var err error

		branches, err = p.eval(node.Name)
		if err != nil {
			return nil, err
		}
	}

	out := make([]any, 0, len(branches))

	for _, branch := range branches {
		path, err := p.opts.tmp.MakeSubdir(formatScalar(branch))
		if err != nil {
			return nil, ErrTempDirFailed.Wrap(err)
		}

		out = append(out, path)
	}

	return out, nil
}

func (p *Processor) evalRand(node *Rand) ([]any, error) {
	argLists := make([][]any, 0, len(node.Args))

	for _, arg := range node.Args {
		branches, err := p.eval(arg)
		if err != nil {
			return nil, err
		}

		argLists = append(argLists, branches)
	}

	argCombos := product(argLists...)
	argBranches := make([]any, 0, len(argCombos))

	for _, combo := range argCombos {
		argBranches = append(argBranches, any(combo))
	}

	nBranches := []any{0}

	if node.N != nil {
		var err error

		nBranches, err = p.eval(node.N)
		if err != nil {
			return nil, err
		}
	}

	pdfBranches, err := p.evalOptional(node.Pdf)
	if err != nil {
		return nil, err
	}

	var out []any

	for _, combo := range product(argBranches, nBranches, pdfBranches) {
		value, err := p.opts.sampler.Sample(combo[0].([]any), combo[1], combo[2])
		if err != nil {
			return nil, ErrSampling.Wrap(err)
		}

		out = append(out, value)
	}

	return out, nil
}

// evalOptional evaluates an optional child, yielding a single nil branch
// when the child is absent.
func (p *Processor) evalOptional(node Node) ([]any, error) {
	if node == nil {
		return []any{nil}, nil
	}

	return p.eval(node)
}

func mapKey(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	return formatScalar(value)
}
