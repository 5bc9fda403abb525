package lang

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/choixe-lang/choixe/log"
	"github.com/choixe-lang/choixe/markup"
	"github.com/choixe-lang/choixe/sampling"
	"github.com/choixe-lang/choixe/shell"
	"github.com/choixe-lang/choixe/symbol"
	"github.com/choixe-lang/choixe/tmpdir"
)

// Loader reads a configuration file into plain data, for $import.
type Loader interface {
	Load(path string) (any, error)
}

// SymbolResolver turns a symbol path into the object registered behind it,
// for $symbol, $call, and $model.
type SymbolResolver interface {
	Resolve(spec, cwd string) (any, error)
}

// Callable is the shape a resolved symbol must have to serve a $call form.
type Callable interface {
	Call(args map[string]any) (any, error)
}

// Builder is the shape a resolved symbol must have to serve a $model form:
// like [Callable], but expected to validate its field map.
type Builder interface {
	Build(args map[string]any) (any, error)
}

// Shell runs a command line and captures its standard output, for $cmd.
type Shell interface {
	Run(command string) (string, error)
}

// TempDirMaker allocates named temporary directories, for $tmp.
type TempDirMaker interface {
	MakeSubdir(name string) (string, error)
}

// Sampler draws random numbers, for $rand. It receives the directive's
// positional arguments verbatim plus the n and pdf keywords (nil pdf means
// uniform; n of 0 means a single scalar).
type Sampler interface {
	Sample(args []any, n, pdf any) (any, error)
}

// PromptFunc supplies a value for a variable that has no binding.
type PromptFunc func(identifier, help string) (any, error)

type options struct {
	context   map[string]any
	cwd       string
	branching bool
	loader    Loader
	resolver  SymbolResolver
	shell     Shell
	tmp       TempDirMaker
	sampler   Sampler
	now       func() time.Time
	newID     func() string
	prompt    PromptFunc
	logger    log.Logger
}

// Option configures a [Processor] or an [Inspector].
type Option func(*options)

func makeOptions(opts ...Option) options {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	o := options{
		context:   map[string]any{},
		cwd:       cwd,
		branching: true,
		loader:    markup.NewLoader(),
		resolver:  symbol.DefaultRegistry(),
		shell:     shell.System{},
		tmp:       tmpdir.Session(),
		sampler:   sampling.New(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithContext sets the variable bindings consulted by $var, $for, and
// $switch.
func WithContext(context map[string]any) Option {
	return func(o *options) {
		if context == nil {
			context = map[string]any{}
		}

		o.context = context
	}
}

// WithCwd sets the directory relative imports resolve against.
func WithCwd(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.cwd = dir
		}
	}
}

// WithBranching controls branch expansion. When disabled, $sweep nodes are
// rendered back to their unevaluated form and every result list has
// exactly one element.
func WithBranching(enabled bool) Option {
	return func(o *options) { o.branching = enabled }
}

// WithLoader sets the file loader used by $import.
func WithLoader(l Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithSymbols sets the resolver used by $symbol, $call, and $model.
func WithSymbols(r SymbolResolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithShell sets the command runner used by $cmd.
func WithShell(s Shell) Option {
	return func(o *options) {
		if s != nil {
			o.shell = s
		}
	}
}

// WithTempDirs sets the directory maker used by $tmp.
func WithTempDirs(t TempDirMaker) Option {
	return func(o *options) {
		if t != nil {
			o.tmp = t
		}
	}
}

// WithSampler sets the number source used by $rand.
func WithSampler(s Sampler) Option {
	return func(o *options) {
		if s != nil {
			o.sampler = s
		}
	}
}

// WithClock sets the time source used by $date.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDSource sets the unique-id source used by $uuid, anonymous loops,
// and the default $tmp name.
func WithIDSource(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithPrompt sets a callback invoked when a variable has no binding, no
// environment value, and no default, instead of failing outright.
func WithPrompt(p PromptFunc) Option {
	return func(o *options) { o.prompt = p }
}

// WithLogger sets the logger used for trace output and inspection
// warnings.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}
