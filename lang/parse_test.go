package lang

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseScalars(t *testing.T) {
	tests := []struct {
		name string
		data any
		want Node
	}{
		{name: "int", data: 5, want: &Literal{Value: 5}},
		{name: "float", data: 0.5, want: &Literal{Value: 0.5}},
		{name: "bool", data: true, want: &Literal{Value: true}},
		{name: "nil", data: nil, want: &Literal{Value: nil}},
		{name: "plain string", data: "hello", want: &Literal{Value: "hello"}},
		{
			name: "dollar-free text with punctuation",
			data: "a, b (c)",
			want: &Literal{Value: "a, b (c)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%v) = %#v, want %#v", tt.data, got, tt.want)
			}
		})
	}
}

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		name string
		data any
		want Node
	}{
		{
			name: "compact var",
			data: "$var(params.lr)",
			want: &Var{Identifier: &Literal{Value: "params.lr"}},
		},
		{
			name: "var with keywords",
			data: `$var(x, default=10, env=True, help="the x")`,
			want: &Var{
				Identifier: &Literal{Value: "x"},
				Default:    &Literal{Value: 10},
				Env:        &Literal{Value: true},
				Help:       &Literal{Value: "the x"},
			},
		},
		{
			name: "extended form",
			data: map[string]any{
				"$directive": "var",
				"$args":      []any{"x"},
				"$kwargs":    map[string]any{"default": 1},
			},
			want: &Var{
				Identifier: &Literal{Value: "x"},
				Default:    &Literal{Value: 1},
			},
		},
		{
			name: "string bundle",
			data: "a $var(x) b",
			want: &StrBundle{Parts: []Hashable{
				&Literal{Value: "a "},
				&Var{Identifier: &Literal{Value: "x"}},
				&Literal{Value: " b"},
			}},
		},
		{
			name: "sweep",
			data: "$sweep(1, 2.5, name)",
			want: &Sweep{Cases: []Node{
				&Literal{Value: 1},
				&Literal{Value: 2.5},
				&Literal{Value: "name"},
			}},
		},
		{
			name: "import",
			data: "$import(shared.yml)",
			want: &Import{Path: &Literal{Value: "shared.yml"}},
		},
		{
			name: "symbol",
			data: "$symbol(models.resnet)",
			want: &Symbol{Name: &Literal{Value: "models.resnet"}},
		},
		{
			name: "index and item",
			data: []any{"$index", "$item(x.field)"},
			want: &List{Items: []Node{
				&Index{},
				&Item{Identifier: &Literal{Value: "x.field"}},
			}},
		},
		{
			name: "uuid date cmd tmp",
			data: []any{"$uuid", `$date("%Y")`, `$cmd("ls")`, "$tmp(scratch)"},
			want: &List{Items: []Node{
				&Uuid{},
				&Date{Format: &Literal{Value: "%Y"}},
				&Cmd{Command: &Literal{Value: "ls"}},
				&TmpDir{Name: &Literal{Value: "scratch"}},
			}},
		},
		{
			name: "rand",
			data: "$rand(1, 10, n=3, pdf=[1, 2])",
			want: &Rand{
				Args: []Hashable{
					&Literal{Value: 1},
					&Literal{Value: 10},
				},
				N: &Literal{Value: 3},
				Pdf: &List{Items: []Node{
					&Literal{Value: 1},
					&Literal{Value: 2},
				}},
			},
		},
		{
			name: "call form",
			data: map[string]any{
				"$call": "ops.make",
				"$args": map[string]any{"n": 1},
			},
			want: &Instance{
				Symbol: &Literal{Value: "ops.make"},
				Args: &Dict{Entries: []DictEntry{{
					Key:   &Literal{Value: "n"},
					Value: &Literal{Value: 1},
				}}},
			},
		},
		{
			name: "model form without args",
			data: map[string]any{"$model": "ops.net"},
			want: &Model{
				Symbol: &Literal{Value: "ops.net"},
				Args:   &Dict{},
			},
		},
		{
			name: "for form",
			data: map[string]any{"$for(alpha, x)": []any{"$item(x)"}},
			want: &For{
				Iterable:   &Literal{Value: "alpha"},
				Identifier: &Literal{Value: "x"},
				Body: &List{Items: []Node{
					&Item{Identifier: &Literal{Value: "x"}},
				}},
			},
		},
		{
			name: "anonymous for over a range",
			data: map[string]any{"$for(4)": "$index"},
			want: &For{
				Iterable: &Literal{Value: 4},
				Body:     &Index{},
			},
		},
		{
			name: "switch form",
			data: map[string]any{
				"$switch(mode)": []any{
					map[string]any{"$case": []any{"a"}, "$then": 1},
					map[string]any{"$default": 2},
				},
			},
			want: &Switch{
				Value: &Literal{Value: "mode"},
				Cases: []SwitchCase{{
					Set:  &List{Items: []Node{&Literal{Value: "a"}}},
					Then: &Literal{Value: 1},
				}},
				Default: &Literal{Value: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%v) = %#v, want %#v", tt.data, got, tt.want)
			}
		})
	}
}

func TestParseDictShapes(t *testing.T) {
	t.Run("entries are sorted by key", func(t *testing.T) {
		got, err := Parse(map[string]any{"b": 2, "a": 1})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		dict, ok := got.(*Dict)
		if !ok {
			t.Fatalf("Parse = %T, want *Dict", got)
		}

		want := []DictEntry{
			{Key: &Literal{Value: "a"}, Value: &Literal{Value: 1}},
			{Key: &Literal{Value: "b"}, Value: &Literal{Value: 2}},
		}

		if !reflect.DeepEqual(dict.Entries, want) {
			t.Errorf("entries = %#v, want %#v", dict.Entries, want)
		}
	})

	t.Run("key-value form beside plain keys bundles", func(t *testing.T) {
		got, err := Parse(map[string]any{
			"$for(alpha, x)": []any{"$item(x)"},
			"plain":          1,
		})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		bundle, ok := got.(*DictBundle)
		if !ok {
			t.Fatalf("Parse = %T, want *DictBundle", got)
		}

		if len(bundle.Nodes) != 2 {
			t.Fatalf("bundle holds %d nodes, want 2", len(bundle.Nodes))
		}

		if _, ok := bundle.Nodes[0].(*For); !ok {
			t.Errorf("first node = %T, want *For", bundle.Nodes[0])
		}

		if _, ok := bundle.Nodes[1].(*Dict); !ok {
			t.Errorf("second node = %T, want *Dict", bundle.Nodes[1])
		}
	})

	t.Run("directive keys stay hashable", func(t *testing.T) {
		got, err := Parse(map[string]any{"prefix-$var(x)": 1})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		dict, ok := got.(*Dict)
		if !ok {
			t.Fatalf("Parse = %T, want *Dict", got)
		}

		if _, ok := dict.Entries[0].Key.(*StrBundle); !ok {
			t.Errorf("key = %T, want *StrBundle", dict.Entries[0].Key)
		}
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data any
		want error
	}{
		{
			name: "unknown directive",
			data: "$vra(x)",
			want: ErrTokenValidation,
		},
		{
			name: "var without identifier",
			data: "$var()",
			want: ErrTokenValidation,
		},
		{
			name: "var with excess arguments",
			data: "$var(a, b, c, d, e)",
			want: ErrTokenValidation,
		},
		{
			name: "unknown keyword argument",
			data: "$import(a.yml, mode=1)",
			want: ErrTokenValidation,
		},
		{
			name: "malformed argument expression",
			data: "$var(1 + 2)",
			want: ErrSyntax,
		},
		{
			name: "switch body not a sequence",
			data: map[string]any{"$switch(mode)": map[string]any{"$then": 1}},
			want: ErrStructValidation,
		},
		{
			name: "switch case missing then",
			data: map[string]any{
				"$switch(mode)": []any{
					map[string]any{"$case": "a"},
				},
			},
			want: ErrStructValidation,
		},
		{
			name: "switch with two defaults",
			data: map[string]any{
				"$switch(mode)": []any{
					map[string]any{"$default": 1},
					map[string]any{"$default": 2},
				},
			},
			want: ErrStructValidation,
		},
		{
			name: "for without iterable",
			data: map[string]any{"$for()": []any{}},
			want: ErrStructValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse error = %v, want %v", err, tt.want)
			}

			if !errors.Is(err, ErrParsing) {
				t.Errorf("error %v does not match ErrParsing", err)
			}

			if errors.Is(err, ErrProcessing) {
				t.Errorf("error %v unexpectedly matches ErrProcessing", err)
			}
		})
	}
}

func TestParseUnknownDirectiveHint(t *testing.T) {
	_, err := Parse("$swep(1, 2)")
	if err == nil {
		t.Fatal("Parse succeeded, want error")
	}

	if !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error %q carries no suggestion", err.Error())
	}
}
