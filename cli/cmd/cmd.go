package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/choixe-lang/choixe/lang"
	"github.com/choixe-lang/choixe/log"
	"github.com/choixe-lang/choixe/markup"
)

// Source is the positional configuration file argument shared by every
// command.
type Source struct {
	Path string `arg:"" help:"Configuration file to read" type:"existingfile"`
}

// ContextFlags are the evaluation flags shared by the commands that run
// the engine.
type ContextFlags struct {
	Context     []string `help:"Variable binding as key=value; dotted keys nest, values parse as YAML." short:"c" placeholder:"KEY=VALUE"`
	ContextFile string   `help:"Markup file with variable bindings."                                    type:"existingfile"`
	Cwd         string   `help:"Directory relative imports resolve against."                            type:"existingdir"`
	Ask         bool     `help:"Prompt on stdin for variables with no binding."`
}

// options assembles the engine options from the parsed flags.
func (f *ContextFlags) options(logger log.Logger) ([]lang.Option, error) {
	context := map[string]any{}

	if f.ContextFile != "" {
		value, err := (&markup.Loader{}).Load(f.ContextFile)
		if err != nil {
			return nil, err
		}

		data, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s does not hold a mapping", f.ContextFile)
		}

		context = data
	}

	for _, binding := range f.Context {
		key, raw, found := strings.Cut(binding, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("context binding %q is not key=value", binding)
		}

		value, err := markup.Decode([]byte(raw), markup.FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("context binding %q: %w", binding, err)
		}

		root, err := lang.DeepSet(context, lang.PathSteps(key), value)
		if err != nil {
			return nil, fmt.Errorf("context binding %q: %w", binding, err)
		}

		context = root.(map[string]any)
	}

	opts := []lang.Option{
		lang.WithContext(context),
		lang.WithLogger(logger),
	}

	if f.Cwd != "" {
		opts = append(opts, lang.WithCwd(f.Cwd))
	}

	if f.Ask {
		opts = append(opts, lang.WithPrompt(stdinPrompt))
	}

	return opts, nil
}

var stdin = bufio.NewReader(os.Stdin)

// stdinPrompt asks the user for a variable value. The reply parses as
// YAML, so numbers and booleans come back typed.
func stdinPrompt(identifier, help string) (any, error) {
	if help != "" {
		fmt.Fprintf(os.Stderr, "%s (%s): ", identifier, help)
	} else {
		fmt.Fprintf(os.Stderr, "%s: ", identifier)
	}

	line, err := stdin.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading value for %s: %w", identifier, err)
	}

	return markup.Decode([]byte(strings.TrimSpace(line)), markup.FormatYAML)
}

// emit writes data to the output file, or to stdout as YAML when output
// is empty.
func emit(data any, output string) error {
	if output == "" {
		text, err := markup.Encode(data, markup.FormatYAML)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(text)

		return err
	}

	return markup.Save(data, output)
}

// branchPath derives the output path of one branch by appending its index
// before the extension.
func branchPath(path string, index int) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + "_" + strconv.Itoa(index) + ext
}

func joinPath(steps []any) string {
	parts := make([]string, 0, len(steps))

	for _, step := range steps {
		switch v := step.(type) {
		case int:
			parts = append(parts, strconv.Itoa(v))
		case string:
			parts = append(parts, v)
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}

	return strings.Join(parts, ".")
}
