package lang

import (
	"errors"
	"reflect"
	"testing"
)

func TestDeepGet(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{
			"b": []any{10, map[string]any{"c": 20}},
		},
	}

	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{path: "a.b.0", want: 10, found: true},
		{path: "a.b.1.c", want: 20, found: true},
		{path: "a", want: data["a"], found: true},
		{path: "", want: data, found: true},
		{path: "a.b.2", found: false},
		{path: "a.x", found: false},
		{path: "a.b.0.c", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, found := DeepGet(data, tt.path)
			if found != tt.found || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeepGet(%q) = (%#v, %v), want (%#v, %v)",
					tt.path, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestDeepSet(t *testing.T) {
	t.Run("creates intermediate containers", func(t *testing.T) {
		root, err := DeepSet(nil, PathSteps("a.b.1.c"), 5)
		if err != nil {
			t.Fatalf("DeepSet failed: %v", err)
		}

		want := map[string]any{
			"a": map[string]any{
				"b": []any{nil, map[string]any{"c": 5}},
			},
		}

		if !reflect.DeepEqual(root, want) {
			t.Errorf("DeepSet = %#v, want %#v", root, want)
		}
	})

	t.Run("replaces in place", func(t *testing.T) {
		data := map[string]any{"a": []any{1, 2}}

		root, err := DeepSet(data, PathSteps("a.1"), 9)
		if err != nil {
			t.Fatalf("DeepSet failed: %v", err)
		}

		want := map[string]any{"a": []any{1, 9}}
		if !reflect.DeepEqual(root, want) {
			t.Errorf("DeepSet = %#v, want %#v", root, want)
		}
	})

	t.Run("rejects mismatched step kinds", func(t *testing.T) {
		data := map[string]any{"a": []any{1}}

		_, err := DeepSet(data, PathSteps("a.key"), 9)
		if !errors.Is(err, ErrProcessing) {
			t.Errorf("DeepSet error = %v, want ErrProcessing", err)
		}
	})
}

func TestPathSteps(t *testing.T) {
	got := PathSteps("a.0.b.10")
	want := []any{"a", 0, "b", 10}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("PathSteps = %#v, want %#v", got, want)
	}

	if steps := PathSteps(""); steps != nil {
		t.Errorf("PathSteps(\"\") = %#v, want nil", steps)
	}
}

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: "None"},
		{name: "true", value: true, want: "True"},
		{name: "false", value: false, want: "False"},
		{name: "int", value: 42, want: "42"},
		{name: "negative int", value: -1, want: "-1"},
		{name: "float", value: 2.5, want: "2.5"},
		{name: "integral float keeps a decimal", value: 2.0, want: "2.0"},
		{name: "string", value: "x", want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatScalar(tt.value); got != tt.want {
				t.Errorf("formatScalar(%#v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestEqualValues(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "int and float", a: 1, b: 1.0, want: true},
		{name: "different numbers", a: 1, b: 2.0, want: false},
		{name: "bool is not a number", a: true, b: 1, want: false},
		{name: "strings", a: "x", b: "x", want: true},
		{name: "nils", a: nil, b: nil, want: true},
		{
			name: "lists element-wise",
			a:    []any{1, "a"},
			b:    []any{1.0, "a"},
			want: true,
		},
		{
			name: "maps by key",
			a:    map[string]any{"k": 1},
			b:    map[string]any{"k": 1},
			want: true,
		},
		{
			name: "maps with extra keys",
			a:    map[string]any{"k": 1},
			b:    map[string]any{"k": 1, "j": 2},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equalValues(tt.a, tt.b); got != tt.want {
				t.Errorf("equalValues(%#v, %#v) = %v, want %v",
					tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestProduct(t *testing.T) {
	got := product([]any{1, 2}, []any{"a", "b", "c"})

	// The last list varies fastest.
	want := [][]any{
		{1, "a"}, {1, "b"}, {1, "c"},
		{2, "a"}, {2, "b"}, {2, "c"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("product = %#v, want %#v", got, want)
	}

	if got := product(); !reflect.DeepEqual(got, [][]any{{}}) {
		t.Errorf("product() = %#v, want one empty combination", got)
	}

	if got := product([]any{1}, []any{}); len(got) != 0 {
		t.Errorf("product with an empty list = %#v, want none", got)
	}
}
