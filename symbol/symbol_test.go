package symbol

import (
	"reflect"
	"strings"
	"testing"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	r.Register("models.resnet", "resnet-factory")
	r.Register("ops.sum", Func(func(args map[string]any) (any, error) {
		return len(args), nil
	}))

	got, err := r.Resolve("models.resnet", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got != "resnet-factory" {
		t.Errorf("Resolve = %#v", got)
	}

	if names := r.Names(); !reflect.DeepEqual(names, []string{"models.resnet", "ops.sum"}) {
		t.Errorf("Names = %#v", names)
	}
}

func TestRegistryResolveFileQualifier(t *testing.T) {
	r := NewRegistry()
	r.Register("resnet", 1)

	got, err := r.Resolve("path/to/models.py:resnet", "/cwd")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got != 1 {
		t.Errorf("Resolve = %#v, want 1", got)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register("models.resnet", 1)

	_, err := r.Resolve("models.resnt", "")
	if err == nil {
		t.Fatal("Resolve of an unknown symbol succeeded")
	}

	if !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error %q carries no suggestion", err.Error())
	}

	r.Reset()

	_, err = r.Resolve("models.resnet", "")
	if err == nil {
		t.Fatal("Resolve after Reset succeeded")
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("x", 1)
	r.Register("x", 2)

	got, err := r.Resolve("x", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if got != 2 {
		t.Errorf("Resolve = %#v, want 2", got)
	}
}

func TestFuncAdapters(t *testing.T) {
	f := Func(func(args map[string]any) (any, error) {
		return args["n"], nil
	})

	args := map[string]any{"n": 5}

	if got, _ := f.Call(args); got != 5 {
		t.Errorf("Call = %#v, want 5", got)
	}

	if got, _ := f.Build(args); got != 5 {
		t.Errorf("Build = %#v, want 5", got)
	}
}
