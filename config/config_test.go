package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/choixe-lang/choixe/lang"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}

	return path
}

func TestFromFileResolvesSiblingImports(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "base.yml", "lr: $var(params.lr, default=0.1)\n")
	path := writeFile(t, dir, "main.yml", "model: $import(base.yml)\n")

	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}

	if cfg.Cwd() != dir {
		t.Errorf("Cwd = %q, want %q", cfg.Cwd(), dir)
	}

	out, err := cfg.Process()
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := map[string]any{
		"model": map[string]any{"lr": 0.1},
	}

	if !reflect.DeepEqual(out.Data(), want) {
		t.Errorf("Process = %#v, want %#v", out.Data(), want)
	}
}

func TestProcessContext(t *testing.T) {
	cfg := New(map[string]any{"lr": "$var(params.lr)"}, "")

	out, err := cfg.Process(lang.WithContext(map[string]any{
		"params": map[string]any{"lr": 0.5},
	}))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !reflect.DeepEqual(out.Data(), map[string]any{"lr": 0.5}) {
		t.Errorf("Process = %#v", out.Data())
	}

	_, err = cfg.Process()
	if !errors.Is(err, lang.ErrVarNotFound) {
		t.Fatalf("Process error = %v, want ErrVarNotFound", err)
	}
}

func TestProcessAllExpandsBranches(t *testing.T) {
	cfg := New(map[string]any{"n": "$sweep(1, 2)"}, "")

	outs, err := cfg.ProcessAll()
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	got := make([]any, 0, len(outs))
	for _, out := range outs {
		got = append(got, out.Data())
	}

	want := []any{
		map[string]any{"n": 1},
		map[string]any{"n": 2},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProcessAll = %#v, want %#v", got, want)
	}

	// Without branching the sweep stays unexpanded.
	out, err := cfg.Process()
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !reflect.DeepEqual(out.Data(), map[string]any{"n": "$sweep(1, 2)"}) {
		t.Errorf("Process = %#v", out.Data())
	}
}

func TestInspect(t *testing.T) {
	cfg := New(map[string]any{
		"lr":   "$var(params.lr, default=0.1)",
		"mode": "$var(mode)",
	}, "")

	insp, err := cfg.Inspect()
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	want := map[string]any{
		"params": map[string]any{"lr": 0.1},
		"mode":   nil,
	}

	if !reflect.DeepEqual(insp.Variables, want) {
		t.Errorf("Variables = %#v, want %#v", insp.Variables, want)
	}
}

func TestDeepGetSet(t *testing.T) {
	cfg := New(map[string]any{
		"model": map[string]any{"layers": []any{8, 16}},
	}, "")

	got, ok := cfg.DeepGet("model.layers.1")
	if !ok || got != 16 {
		t.Errorf("DeepGet = (%#v, %v), want (16, true)", got, ok)
	}

	if _, ok := cfg.DeepGet("model.gone"); ok {
		t.Error("DeepGet of a missing path reported found")
	}

	if err := cfg.DeepSet("model.name", "net"); err != nil {
		t.Fatalf("DeepSet failed: %v", err)
	}

	if err := cfg.DeepSet("heads.0.dim", 64); err != nil {
		t.Fatalf("DeepSet failed: %v", err)
	}

	want := map[string]any{
		"model": map[string]any{
			"layers": []any{8, 16},
			"name":   "net",
		},
		"heads": []any{map[string]any{"dim": 64}},
	}

	if !reflect.DeepEqual(cfg.Data(), want) {
		t.Errorf("Data = %#v, want %#v", cfg.Data(), want)
	}
}

func TestDeepUpdate(t *testing.T) {
	base := func() *Config {
		return New(map[string]any{
			"a":    map[string]any{"b": 1},
			"tags": []any{"x"},
		}, "")
	}

	t.Run("only existing keys by default", func(t *testing.T) {
		cfg := base()

		err := cfg.DeepUpdate(map[string]any{
			"a":   map[string]any{"b": 2},
			"new": 3,
		}, UpdateMode{})
		if err != nil {
			t.Fatalf("DeepUpdate failed: %v", err)
		}

		want := map[string]any{
			"a":    map[string]any{"b": 2},
			"tags": []any{"x"},
		}

		if !reflect.DeepEqual(cfg.Data(), want) {
			t.Errorf("Data = %#v, want %#v", cfg.Data(), want)
		}
	})

	t.Run("full merge adds new keys", func(t *testing.T) {
		cfg := base()

		err := cfg.DeepUpdate(map[string]any{"new": 3}, UpdateMode{FullMerge: true})
		if err != nil {
			t.Fatalf("DeepUpdate failed: %v", err)
		}

		if got, _ := cfg.DeepGet("new"); got != 3 {
			t.Errorf("new = %#v, want 3", got)
		}
	})

	t.Run("append concatenates values", func(t *testing.T) {
		cfg := base()

		err := cfg.DeepUpdate(map[string]any{"tags": "y"}, UpdateMode{AppendValues: true})
		if err != nil {
			t.Fatalf("DeepUpdate failed: %v", err)
		}

		want := []any{"x", "y"}
		if got, _ := cfg.DeepGet("tags"); !reflect.DeepEqual(got, want) {
			t.Errorf("tags = %#v, want %#v", got, want)
		}
	})
}

func TestSaveToAndWalk(t *testing.T) {
	dir := t.TempDir()
	cfg := New(map[string]any{
		"a": map[string]any{"b": []any{1, 2}},
	}, "")

	path := filepath.Join(dir, "out.yml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.Data(), cfg.Data()) {
		t.Errorf("reloaded = %#v, want %#v", loaded.Data(), cfg.Data())
	}

	entries, err := cfg.Walk()
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []lang.WalkEntry{
		{Path: []any{"a", "b", 0}, Value: 1},
		{Path: []any{"a", "b", 1}, Value: 2},
	}

	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Walk = %#v, want %#v", entries, want)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	cfg := New(map[string]any{"a": map[string]any{"b": 1}}, "/cwd")

	clone := cfg.Copy()
	if err := clone.DeepSet("a.b", 2); err != nil {
		t.Fatalf("DeepSet failed: %v", err)
	}

	if got, _ := cfg.DeepGet("a.b"); got != 1 {
		t.Errorf("original mutated: a.b = %#v", got)
	}

	if clone.Cwd() != "/cwd" {
		t.Errorf("Cwd = %q, want /cwd", clone.Cwd())
	}
}
