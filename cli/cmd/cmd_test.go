package cmd

import (
	"testing"

	"github.com/choixe-lang/choixe/log"
)

func TestBranchPath(t *testing.T) {
	tests := []struct {
		path  string
		index int
		want  string
	}{
		{path: "out.yml", index: 0, want: "out_0.yml"},
		{path: "dir/out.json", index: 12, want: "dir/out_12.json"},
		{path: "noext", index: 1, want: "noext_1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := branchPath(tt.path, tt.index); got != tt.want {
				t.Errorf("branchPath(%q, %d) = %q, want %q",
					tt.path, tt.index, got, tt.want)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	got := joinPath([]any{"model", "layers", 0, "units"})
	if got != "model.layers.0.units" {
		t.Errorf("joinPath = %q", got)
	}
}

func TestContextFlagsBindings(t *testing.T) {
	flags := ContextFlags{
		Context: []string{"params.lr=0.5", "name=net", "debug=true"},
	}

	opts, err := flags.options(log.Logger{})
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}

	if len(opts) < 2 {
		t.Fatalf("options yielded %d options", len(opts))
	}
}

func TestContextFlagsRejectsBareBinding(t *testing.T) {
	flags := ContextFlags{Context: []string{"novalue"}}

	if _, err := flags.options(log.Logger{}); err == nil {
		t.Fatal("options accepted a binding with no value")
	}
}
