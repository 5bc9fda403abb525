package lang

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/sahilm/fuzzy"
)

// Directive names accepted in call or compact form. Populated in init
// because the builders recurse back into [Parse].
var callForms map[string]func(Token) (Node, error)

func init() {
	callForms = map[string]func(Token) (Node, error){
		"var":    buildVar,
		"import": buildImport,
		"sweep":  buildSweep,
		"index":  buildIndex,
		"item":   buildItem,
		"uuid":   buildUuid,
		"date":   buildDate,
		"cmd":    buildCmd,
		"tmp":    buildTmpDir,
		"symbol": buildSymbol,
		"rand":   buildRand,
	}
}

// Parse recursively transforms plain host data (mappings, sequences,
// strings, scalars) into a syntax tree. Strings are scanned for embedded
// directives; mappings are additionally matched against the extended form
// ($directive/$args/$kwargs), the special forms ($call, $model), and the
// key-value forms ($for, $switch).
//
// All failures match [ErrParsing]; the finer kinds [ErrSyntax],
// [ErrTokenValidation], and [ErrStructValidation] tell malformed directive
// text, unknown directives, and mapping shape mismatches apart.
func Parse(data any) (Node, error) {
	switch v := data.(type) {
	case map[string]any:
		return parseDict(v)
	case []any:
		return parseList(v)
	case string:
		return parseString(v)
	default:
		return &Literal{Value: data}, nil
	}
}

func parseList(data []any) (Node, error) {
	items := make([]Node, 0, len(data))

	for _, item := range data {
		node, err := Parse(item)
		if err != nil {
			return nil, err
		}

		items = append(items, node)
	}

	return &List{Items: items}, nil
}

func parseString(data string) (Node, error) {
	tokens, err := scanText(data)
	if err != nil {
		return nil, WrapError(err).With(slog.String("in", data))
	}

	nodes := make([]Node, 0, len(tokens))

	for _, token := range tokens {
		node, err := parseToken(token)
		if err != nil {
			return nil, WrapError(err).With(slog.String("in", data))
		}

		nodes = append(nodes, node)
	}

	if len(nodes) == 1 {
		return nodes[0], nil
	}

	parts := make([]Hashable, 0, len(nodes))

	for _, node := range nodes {
		part, ok := node.(Hashable)
		if !ok {
			return nil, ErrStructValidation.Wrap(fmt.Errorf(
				"directive %T cannot be embedded in string %q", node, data,
			))
		}

		parts = append(parts, part)
	}

	return &StrBundle{Parts: parts}, nil
}

func parseToken(token Token) (Node, error) {
	if token.Name == tokenLiteral {
		return &Literal{Value: token.Args[0]}, nil
	}

	build, ok := callForms[token.Name]
	if !ok {
		err := fmt.Errorf("unknown directive %q", token.Name)
		if hint := suggestDirective(token.Name); hint != "" {
			err = fmt.Errorf("unknown directive %q, did you mean %q?",
				token.Name, hint)
		}

		return nil, ErrTokenValidation.Wrap(err)
	}

	node, err := build(token)
	if err != nil {
		return nil, WrapError(err).With(slog.String("directive", token.Name))
	}

	return node, nil
}

// suggestDirective returns the closest known directive name, or "" when
// nothing resembles the input.
func suggestDirective(name string) string {
	known := make([]string, 0, len(callForms)+2)
	for k := range callForms {
		known = append(known, k)
	}

	known = append(known, "for", "switch")
	sort.Strings(known)

	matches := fuzzy.Find(name, known)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}

func parseDict(data map[string]any) (Node, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	if node, ok, err := parseFormDict(data, keys); ok || err != nil {
		return node, err
	}

	var (
		keyValues []Node
		residual  []DictEntry
	)

	for _, key := range keys {
		value := data[key]

		if token, ok := scanSingle(key); ok {
			switch token.Name {
			case "for":
				node, err := parseFor(token, value)
				if err != nil {
					return nil, err
				}

				keyValues = append(keyValues, node)

				continue

			case "switch":
				node, err := parseSwitch(token, value)
				if err != nil {
					return nil, err
				}

				keyValues = append(keyValues, node)

				continue
			}
		}

		keyNode, err := parseString(key)
		if err != nil {
			return nil, err
		}

		keyHash, ok := keyNode.(Hashable)
		if !ok {
			return nil, ErrStructValidation.Wrap(
				fmt.Errorf("mapping key %q is not hashable", key),
			)
		}

		valueNode, err := Parse(value)
		if err != nil {
			return nil, err
		}

		residual = append(residual, DictEntry{Key: keyHash, Value: valueNode})
	}

	dict := &Dict{Entries: residual}

	switch {
	case len(keyValues) == 0:
		return dict, nil
	case len(keyValues) == 1 && len(residual) == 0:
		return keyValues[0], nil
	default:
		return &DictBundle{Nodes: append(keyValues, Node(dict))}, nil
	}
}

// parseFormDict matches a whole mapping against the extended form and the
// $call/$model special forms. It reports ok=false when the key set matches
// none of them.
func parseFormDict(data map[string]any, keys []string) (Node, bool, error) {
	byName := map[string]any{}

	for _, key := range keys {
		token, ok := scanSingle(key)
		if !ok || len(token.Args) > 0 || len(token.Kwargs) > 0 {
			return nil, false, nil
		}

		byName[token.Name] = data[key]
	}

	if len(byName) != len(keys) {
		// Duplicate token names cannot form a valid shape.
		return nil, false, nil
	}

	has := func(name string) bool { _, ok := byName[name]; return ok }

	switch {
	case has("directive") && has("args") && has("kwargs") && len(byName) == 3:
		node, err := parseExtendedForm(byName)

		return node, true, err

	case has("call") && (len(byName) == 1 || (len(byName) == 2 && has("args"))):
		symbol, args, err := parseSymbolForm(byName, "call")
		if err != nil {
			return nil, true, err
		}

		return &Instance{Symbol: symbol, Args: args}, true, nil

	case has("model") && (len(byName) == 1 || (len(byName) == 2 && has("args"))):
		symbol, args, err := parseSymbolForm(byName, "model")
		if err != nil {
			return nil, true, err
		}

		return &Model{Symbol: symbol, Args: args}, true, nil
	}

	return nil, false, nil
}

func parseExtendedForm(byName map[string]any) (Node, error) {
	name, ok := byName["directive"].(string)
	if !ok {
		return nil, ErrStructValidation.Wrap(
			fmt.Errorf("extended form directive name must be a string, got %T",
				byName["directive"]),
		)
	}

	args, ok := byName["args"].([]any)
	if !ok {
		return nil, ErrStructValidation.Wrap(
			fmt.Errorf("extended form args must be a sequence, got %T",
				byName["args"]),
		)
	}

	kwargs, ok := byName["kwargs"].(map[string]any)
	if !ok {
		return nil, ErrStructValidation.Wrap(
			fmt.Errorf("extended form kwargs must be a mapping, got %T",
				byName["kwargs"]),
		)
	}

	return parseToken(Token{Name: name, Args: args, Kwargs: kwargs})
}

func parseSymbolForm(byName map[string]any, form string) (Hashable, Node, error) {
	path, ok := byName[form].(string)
	if !ok {
		return nil, nil, ErrStructValidation.Wrap(
			fmt.Errorf("%s target must be a string, got %T", form, byName[form]),
		)
	}

	// The target may itself contain directives ("$var(model.name)").
	pathNode, err := parseString(path)
	if err != nil {
		return nil, nil, err
	}

	symbol, ok := pathNode.(Hashable)
	if !ok {
		return nil, nil, ErrStructValidation.Wrap(
			fmt.Errorf("%s target %q is not hashable", form, path),
		)
	}

	raw, ok := byName["args"]
	if !ok {
		raw = map[string]any{}
	}

	argMap, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, ErrStructValidation.Wrap(
			fmt.Errorf("%s args must be a mapping, got %T", form, raw),
		)
	}

	args, err := Parse(argMap)
	if err != nil {
		return nil, nil, err
	}

	return symbol, args, nil
}

func parseFor(token Token, body any) (Node, error) {
	// The iterable is a context path or an inline value (an integer loops
	// over a range), so any scalar is accepted here.
	if len(token.Args) < 1 {
		return nil, ErrStructValidation.Wrap(
			fmt.Errorf("%s requires argument %q", token.Name, "iterable"),
		)
	}

	iterable := token.Args[0]

	identifier, ok, err := optionalString(token, 1, "identifier")
	if err != nil {
		return nil, err
	}

	bodyNode, err := Parse(body)
	if err != nil {
		return nil, err
	}

	node := &For{Iterable: &Literal{Value: iterable}, Body: bodyNode}
	if ok {
		node.Identifier = &Literal{Value: identifier}
	}

	return node, nil
}

func parseSwitch(token Token, body any) (Node, error) {
	value, _, err := requiredString(token, 0, "value")
	if err != nil {
		return nil, err
	}

	entries, ok := body.([]any)
	if !ok {
		return nil, ErrStructValidation.Wrap(
			fmt.Errorf("switch body must be a sequence of cases, got %T", body),
		)
	}

	node := &Switch{Value: &Literal{Value: value}}

	for _, entry := range entries {
		caseMap, ok := entry.(map[string]any)
		if !ok {
			return nil, ErrStructValidation.Wrap(
				fmt.Errorf("switch case must be a mapping, got %T", entry),
			)
		}

		byName := map[string]any{}

		for k, v := range caseMap {
			token, ok := scanSingle(k)
			if !ok {
				return nil, ErrStructValidation.Wrap(
					fmt.Errorf("unexpected switch case key %q", k),
				)
			}

			byName[token.Name] = v
		}

		caseValue, hasCase := byName["case"]
		thenValue, hasThen := byName["then"]
		defaultValue, hasDefault := byName["default"]

		switch {
		case hasCase && hasThen && len(byName) == 2:
			set, err := Parse(caseValue)
			if err != nil {
				return nil, err
			}

			then, err := Parse(thenValue)
			if err != nil {
				return nil, err
			}

			node.Cases = append(node.Cases, SwitchCase{Set: set, Then: then})

		case hasDefault && len(byName) == 1:
			if node.Default != nil {
				return nil, ErrStructValidation.Wrap(
					fmt.Errorf("switch has more than one default case"),
				)
			}

			def, err := Parse(defaultValue)
			if err != nil {
				return nil, err
			}

			node.Default = def

		default:
			return nil, ErrStructValidation.Wrap(
				fmt.Errorf("switch case must hold $case and $then, or $default"),
			)
		}
	}

	return node, nil
}

func scanSingle(key string) (Token, bool) {
	tokens, err := scanText(key)
	if err != nil || len(tokens) != 1 || tokens[0].Name == tokenLiteral {
		return Token{}, false
	}

	return tokens[0], true
}

// Call form builders. Token arguments are themselves parsed recursively,
// so a directive argument may contain further directives.

func buildVar(token Token) (Node, error) {
	identifier, err := hashableArg(token, 0, "identifier", true)
	if err != nil {
		return nil, err
	}

	defaultValue, err := hashableArg(token, 1, "default", false)
	if err != nil {
		return nil, err
	}

	env, err := hashableArg(token, 2, "env", false)
	if err != nil {
		return nil, err
	}

	helpNode, err := hashableArg(token, 3, "help", false)
	if err != nil {
		return nil, err
	}

	node := &Var{Identifier: identifier, Default: defaultValue, Env: env}

	if helpNode != nil {
		help, ok := helpNode.(*Literal)
		if !ok {
			return nil, ErrTokenValidation.Wrap(
				fmt.Errorf("var help must be a plain string"),
			)
		}

		node.Help = help
	}

	return node, checkArity(token, 4, "identifier", "default", "env", "help")
}

func buildImport(token Token) (Node, error) {
	path, err := hashableArg(token, 0, "path", true)
	if err != nil {
		return nil, err
	}

	return &Import{Path: path}, checkArity(token, 1, "path")
}

func buildSweep(token Token) (Node, error) {
	if len(token.Kwargs) > 0 {
		return nil, ErrTokenValidation.Wrap(
			fmt.Errorf("sweep takes no keyword arguments"),
		)
	}

	cases := make([]Node, 0, len(token.Args))

	for _, arg := range token.Args {
		node, err := Parse(arg)
		if err != nil {
			return nil, err
		}

		cases = append(cases, node)
	}

	return &Sweep{Cases: cases}, nil
}

func buildIndex(token Token) (Node, error) {
	identifier, err := hashableArg(token, 0, "identifier", false)
	if err != nil {
		return nil, err
	}

	return &Index{Identifier: identifier}, checkArity(token, 1, "identifier")
}

func buildItem(token Token) (Node, error) {
	identifier, err := hashableArg(token, 0, "identifier", false)
	if err != nil {
		return nil, err
	}

	return &Item{Identifier: identifier}, checkArity(token, 1, "identifier")
}

func buildUuid(token Token) (Node, error) {
	return &Uuid{}, checkArity(token, 0)
}

func buildDate(token Token) (Node, error) {
	format, err := hashableArg(token, 0, "format", false)
	if err != nil {
		return nil, err
	}

	return &Date{Format: format}, checkArity(token, 1, "format")
}

func buildCmd(token Token) (Node, error) {
	command, err := hashableArg(token, 0, "command", true)
	if err != nil {
		return nil, err
	}

	return &Cmd{Command: command}, checkArity(token, 1, "command")
}

func buildTmpDir(token Token) (Node, error) {
	name, err := hashableArg(token, 0, "name", false)
	if err != nil {
		return nil, err
	}

	return &TmpDir{Name: name}, checkArity(token, 1, "name")
}

func buildSymbol(token Token) (Node, error) {
	name, err := hashableArg(token, 0, "symbol", true)
	if err != nil {
		return nil, err
	}

	return &Symbol{Name: name}, checkArity(token, 1, "symbol")
}

func buildRand(token Token) (Node, error) {
	if len(token.Args) > 3 {
		return nil, ErrTokenValidation.Wrap(
			fmt.Errorf("rand takes at most 3 positional arguments, got %d",
				len(token.Args)),
		)
	}

	node := &Rand{}

	for _, arg := range token.Args {
		parsed, err := Parse(arg)
		if err != nil {
			return nil, err
		}

		h, ok := parsed.(Hashable)
		if !ok {
			return nil, ErrTokenValidation.Wrap(
				fmt.Errorf("rand argument %v is not hashable", arg),
			)
		}

		node.Args = append(node.Args, h)
	}

	for key, value := range token.Kwargs {
		parsed, err := Parse(value)
		if err != nil {
			return nil, err
		}

		switch key {
		case "n":
			node.N = parsed
		case "pdf":
			node.Pdf = parsed
		default:
			return nil, ErrTokenValidation.Wrap(
				fmt.Errorf("rand got unexpected keyword argument %q", key),
			)
		}
	}

	return node, nil
}

// hashableArg resolves the positional argument at index i, or the keyword
// argument under name, to a parsed hashable node. A missing optional
// argument yields nil.
func hashableArg(token Token, i int, name string, required bool) (Hashable, error) {
	var (
		raw   any
		found bool
	)

	if i < len(token.Args) {
		raw, found = token.Args[i], true
	} else if v, ok := token.Kwargs[name]; ok {
		raw, found = v, true
	}

	if !found {
		if required {
			return nil, ErrTokenValidation.Wrap(
				fmt.Errorf("%s requires argument %q", token.Name, name),
			)
		}

		return nil, nil
	}

	node, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	h, ok := node.(Hashable)
	if !ok {
		return nil, ErrTokenValidation.Wrap(
			fmt.Errorf("%s argument %q is not hashable", token.Name, name),
		)
	}

	return h, nil
}

// checkArity rejects excess positional arguments and unknown keywords.
func checkArity(token Token, max int, names ...string) error {
	if len(token.Args) > max {
		return ErrTokenValidation.Wrap(
			fmt.Errorf("%s takes at most %d positional arguments, got %d",
				token.Name, max, len(token.Args)),
		)
	}

	for key := range token.Kwargs {
		known := false

		for _, name := range names {
			if key == name {
				known = true

				break
			}
		}

		if !known {
			return ErrTokenValidation.Wrap(
				fmt.Errorf("%s got unexpected keyword argument %q",
					token.Name, key),
			)
		}
	}

	return nil
}

// requiredString reads a positional string token argument.
func requiredString(token Token, i int, name string) (string, bool, error) {
	if i >= len(token.Args) {
		return "", false, ErrStructValidation.Wrap(
			fmt.Errorf("%s requires argument %q", token.Name, name),
		)
	}

	s, ok := token.Args[i].(string)
	if !ok {
		return "", false, ErrStructValidation.Wrap(
			fmt.Errorf("%s argument %q must be a name, got %T",
				token.Name, name, token.Args[i]),
		)
	}

	return s, true, nil
}

// optionalString reads a positional or keyword string token argument.
func optionalString(token Token, i int, name string) (string, bool, error) {
	var (
		raw   any
		found bool
	)

	if i < len(token.Args) {
		raw, found = token.Args[i], true
	} else if v, ok := token.Kwargs[name]; ok {
		raw, found = v, true
	}

	if !found {
		return "", false, nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", false, ErrStructValidation.Wrap(
			fmt.Errorf("%s argument %q must be a name, got %T",
				token.Name, name, raw),
		)
	}

	return s, true, nil
}
