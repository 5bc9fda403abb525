package lang

import (
	"errors"
	"reflect"
	"testing"
)

func TestScanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Token
	}{
		{
			name: "plain text",
			in:   "just text",
			want: []Token{literalToken("just text")},
		},
		{
			name: "compact directive",
			in:   "$uuid",
			want: []Token{{Name: "uuid", Kwargs: map[string]any{}}},
		},
		{
			name: "directive island in text",
			in:   "run-$var(id)-end",
			want: []Token{
				literalToken("run-"),
				{
					Name:   "var",
					Args:   []any{"id"},
					Kwargs: map[string]any{},
				},
				literalToken("-end"),
			},
		},
		{
			name: "adjacent directives",
			in:   "$index$item",
			want: []Token{
				{Name: "index", Kwargs: map[string]any{}},
				{Name: "item", Kwargs: map[string]any{}},
			},
		},
		{
			name: "positional and keyword arguments",
			in:   `$var(params.lr, default=0.1, env=True)`,
			want: []Token{{
				Name: "var",
				Args: []any{"params.lr"},
				Kwargs: map[string]any{
					"default": 0.1,
					"env":     true,
				},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanText(tt.in)
			if err != nil {
				t.Fatalf("scanText(%q) failed: %v", tt.in, err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("scanText(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScanArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{in: "10", want: 10},
		{in: "-10", want: -10},
		{in: "0.5", want: 0.5},
		{in: "-0.5", want: -0.5},
		{in: `"quoted text"`, want: "quoted text"},
		{in: "'single'", want: "single"},
		{in: "name", want: "name"},
		{in: "a.b.c", want: "a.b.c"},
		{in: "None", want: nil},
		{in: "True", want: true},
		{in: "False", want: false},
		{in: "nil", want: nil},
		{in: "true", want: true},
		{in: "false", want: false},
		{in: "[1, 2, 3]", want: []any{1, 2, 3}},
		{in: `["a", b]`, want: []any{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := scanArg(tt.in)
			if err != nil {
				t.Fatalf("scanArg(%q) failed: %v", tt.in, err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("scanArg(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScanArgRejectsExpressions(t *testing.T) {
	for _, in := range []string{"1 + 2", "f(x)", "a[0]", "a ? b : c", "!x"} {
		t.Run(in, func(t *testing.T) {
			_, err := scanArg(in)
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("scanArg(%q) error = %v, want ErrSyntax", in, err)
			}
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "a, b, c", want: []string{"a", "b", "c"}},
		{in: "[1, 2], 3", want: []string{"[1, 2]", "3"}},
		{in: `"a, b", c`, want: []string{`"a, b"`, "c"}},
		{in: "single", want: []string{"single"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := splitTopLevel(tt.in)
			if err != nil {
				t.Fatalf("splitTopLevel(%q) failed: %v", tt.in, err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTopLevel(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := splitTopLevel("a, [b"); !errors.Is(err, ErrSyntax) {
		t.Errorf("unbalanced bracket error = %v, want ErrSyntax", err)
	}
}

func TestSplitKeyword(t *testing.T) {
	tests := []struct {
		in    string
		key   string
		value string
		ok    bool
	}{
		{in: "default=10", key: "default", value: "10", ok: true},
		{in: "pdf=[1, 2]", key: "pdf", value: "[1, 2]", ok: true},
		{in: `s="a=b"`, key: "s", value: `"a=b"`, ok: true},
		{in: "plain", ok: false},
		{in: "a==b", ok: false},
		{in: "a<=b", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, value, ok := splitKeyword(tt.in)
			if ok != tt.ok || key != tt.key || value != tt.value {
				t.Errorf("splitKeyword(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.in, key, value, ok, tt.key, tt.value, tt.ok)
			}
		})
	}
}
