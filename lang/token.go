package lang

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// DirectivePrefix starts every directive embedded in a string.
const DirectivePrefix = "$"

// tokenLiteral names the pseudo-token carrying a run of plain text.
const tokenLiteral = "str"

// directiveRE splits a string into directive islands and literal runs.
// A directive is either a call form "$name(...)" or a compact form "$name";
// everything else is literal text.
var directiveRE = regexp.MustCompile(
	`(?:\$[^)( .,$]+\([^()]*\))|(?:\$[^)( .,$]+)|(?:[^$]*)`,
)

var directiveNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Token is one lexical unit of an embedded directive string: a directive
// name with its parsed arguments, or a literal text run under the name
// "str" with the text as its only argument.
type Token struct {
	Name   string
	Args   []any
	Kwargs map[string]any
}

func literalToken(text string) Token {
	return Token{Name: tokenLiteral, Args: []any{text}, Kwargs: map[string]any{}}
}

// scanText splits a string into tokens: directive islands become directive
// tokens, the text between them becomes literal tokens.
func scanText(data string) ([]Token, error) {
	var res []Token

	for _, match := range directiveRE.FindAllString(data, -1) {
		if match == "" {
			continue
		}

		if strings.HasPrefix(match, DirectivePrefix) {
			token, err := scanDirective(match[len(DirectivePrefix):])
			if err != nil {
				return nil, err
			}

			res = append(res, token)

			continue
		}

		res = append(res, literalToken(match))
	}

	return res, nil
}

// scanDirective parses the text of a single directive (prefix stripped)
// into a token.
func scanDirective(code string) (Token, error) {
	name := code
	argList := ""
	call := false

	if i := strings.IndexByte(code, '('); i >= 0 {
		if !strings.HasSuffix(code, ")") {
			return Token{}, ErrSyntax.Wrap(fmt.Errorf("unbalanced call in %q", code))
		}

		name = code[:i]
		argList = code[i+1 : len(code)-1]
		call = true
	}

	if !directiveNameRE.MatchString(name) {
		return Token{}, ErrSyntax.Wrap(
			fmt.Errorf("invalid directive name in %q", code),
		).With(slog.String("code", code))
	}

	token := Token{Name: name, Kwargs: map[string]any{}}

	if !call {
		return token, nil
	}

	args, kwargs, err := scanArgList(argList)
	if err != nil {
		return Token{}, WrapError(err).With(slog.String("code", code))
	}

	token.Args = args
	token.Kwargs = kwargs

	return token, nil
}

// scanArgList parses a call form argument list "a, b.c, key=value".
// Commas and "key=value" pairs are split at the top level here, since the
// expression grammar has no keyword arguments; each piece is then handed
// to the expression parser.
func scanArgList(list string) ([]any, map[string]any, error) {
	var args []any

	kwargs := map[string]any{}

	if strings.TrimSpace(list) == "" {
		return args, kwargs, nil
	}

	pieces, err := splitTopLevel(list)
	if err != nil {
		return nil, nil, err
	}

	for _, piece := range pieces {
		key, value, keyed := splitKeyword(piece)
		if keyed {
			if !directiveNameRE.MatchString(key) {
				return nil, nil, ErrSyntax.Wrap(
					fmt.Errorf("invalid argument name %q", key),
				)
			}

			parsed, err := scanArg(value)
			if err != nil {
				return nil, nil, err
			}

			kwargs[key] = parsed

			continue
		}

		if len(kwargs) > 0 {
			return nil, nil, ErrSyntax.Wrap(
				fmt.Errorf("positional argument %q after keyword argument", piece),
			)
		}

		parsed, err := scanArg(piece)
		if err != nil {
			return nil, nil, err
		}

		args = append(args, parsed)
	}

	return args, kwargs, nil
}

// splitTopLevel splits an argument list on commas that are not nested in
// brackets or quotes.
func splitTopLevel(list string) ([]string, error) {
	var (
		pieces []string
		depth  int
		quote  byte
		start  int
	)

	for i := 0; i < len(list); i++ {
		c := list[i]

		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, ErrSyntax.Wrap(
					fmt.Errorf("unbalanced brackets in %q", list),
				)
			}
		case ',':
			if depth == 0 {
				pieces = append(pieces, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}

	if depth != 0 || quote != 0 {
		return nil, ErrSyntax.Wrap(fmt.Errorf("unbalanced brackets in %q", list))
	}

	return append(pieces, strings.TrimSpace(list[start:])), nil
}

// splitKeyword splits "key=value" on a top-level single "=".
// Comparison operators ("==", "<=", "!=", ...) do not qualify; they are
// rejected later by the argument grammar.
func splitKeyword(piece string) (key, value string, ok bool) {
	var (
		depth int
		quote byte
	)

	for i := 0; i < len(piece); i++ {
		c := piece[i]

		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}

			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}

			if i+1 < len(piece) && piece[i+1] == '=' {
				return "", "", false
			}

			if i > 0 && strings.IndexByte("=!<>", piece[i-1]) >= 0 {
				return "", "", false
			}

			return strings.TrimSpace(piece[:i]), strings.TrimSpace(piece[i+1:]), true
		}
	}

	return "", "", false
}

// scanArg parses a single argument with the embedded expression parser and
// lowers the accepted node kinds to plain values. The grammar is
// deliberately tiny: literals, bare or dotted identifiers (which become
// strings), arrays of the above, and unary minus. Anything richer is a
// syntax error.
func scanArg(src string) (any, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, ErrSyntax.Wrap(fmt.Errorf("invalid argument %q", src))
	}

	value, err := lowerExprNode(tree.Node)
	if err != nil {
		return nil, WrapError(err).With(slog.String("argument", src))
	}

	return value, nil
}

func lowerExprNode(node exprast.Node) (any, error) {
	switch n := node.(type) {
	case *exprast.NilNode:
		return nil, nil

	case *exprast.BoolNode:
		return n.Value, nil

	case *exprast.IntegerNode:
		return n.Value, nil

	case *exprast.FloatNode:
		return n.Value, nil

	case *exprast.StringNode:
		return n.Value, nil

	case *exprast.IdentifierNode:
		// Names are plain strings in this grammar; the conventional
		// spellings of the null and boolean scalars stay scalars.
		switch n.Value {
		case "None":
			return nil, nil
		case "True":
			return true, nil
		case "False":
			return false, nil
		}

		return n.Value, nil

	case *exprast.MemberNode:
		return lowerDottedName(n)

	case *exprast.UnaryNode:
		if n.Operator != "-" {
			break
		}

		operand, err := lowerExprNode(n.Node)
		if err != nil {
			return nil, err
		}

		switch v := operand.(type) {
		case int:
			return -v, nil
		case float64:
			return -v, nil
		}

	case *exprast.ArrayNode:
		items := make([]any, 0, len(n.Nodes))

		for _, item := range n.Nodes {
			value, err := lowerExprNode(item)
			if err != nil {
				return nil, err
			}

			items = append(items, value)
		}

		return items, nil
	}

	return nil, ErrSyntax.Wrap(
		fmt.Errorf("unsupported expression %q", node.String()),
	)
}

func lowerDottedName(node exprast.Node) (string, error) {
	switch n := node.(type) {
	case *exprast.IdentifierNode:
		return n.Value, nil

	case *exprast.MemberNode:
		prop, ok := n.Property.(*exprast.StringNode)
		if !ok || n.Optional || n.Method {
			break
		}

		base, err := lowerDottedName(n.Node)
		if err != nil {
			return "", err
		}

		return base + "." + prop.Value, nil
	}

	return "", ErrSyntax.Wrap(
		fmt.Errorf("unsupported expression %q", node.String()),
	)
}
