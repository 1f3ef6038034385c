package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInlineImportsSplicesBareTopLevelImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.kei", "42\n")

	l := NewLoader(nil)
	out, err := l.inlineImports("import \"lib.kei\"\n99\n", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "42\n99\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestInlineImportsLeavesNestedImportUntouched(t *testing.T) {
	l := NewLoader(nil)
	src := "foresee true:\n    import \"lib.kei\"\n"
	out, err := l.inlineImports(src, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != src {
		t.Fatalf("expected an indented import line to be left untouched, got %q", out)
	}
}

func TestResolveDetectsImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.kei", "import \"b.kei\"\n1\n")
	writeFile(t, dir, "b.kei", "import \"a.kei\"\n2\n")

	l := NewLoader(nil)
	_, err := l.resolve(filepath.Join(dir, "a.kei"))
	if err == nil {
		t.Fatalf("expected an import cycle to be reported as an error")
	}
}

func TestResolveCachesBuffers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.kei", "7\n")
	writeFile(t, dir, "a.kei", "import \"shared.kei\"\n1\n")
	writeFile(t, dir, "b.kei", "import \"shared.kei\"\n2\n")

	l := NewLoader(nil)
	if _, err := l.resolve(filepath.Join(dir, "a.kei")); err != nil {
		t.Fatalf("unexpected error resolving a.kei: %v", err)
	}
	if _, err := l.resolve(filepath.Join(dir, "b.kei")); err != nil {
		t.Fatalf("unexpected error resolving b.kei: %v", err)
	}

	buffers := l.Buffers()
	sharedAbs, _ := filepath.Abs(filepath.Join(dir, "shared.kei"))
	if _, ok := buffers[sharedAbs]; !ok {
		t.Fatalf("expected shared.kei to be interned in the loader's buffers")
	}
}

func TestFindImportFallsBackToSearchPaths(t *testing.T) {
	libDir := t.TempDir()
	writeFile(t, libDir, "helper.kei", "1\n")
	entryDir := t.TempDir()

	l := NewLoader([]string{libDir})
	resolved, err := l.findImport("helper.kei", entryDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(libDir, "helper.kei")
	if resolved != want {
		t.Fatalf("expected %q, got %q", want, resolved)
	}
}

func TestFindImportErrorsWhenNotFoundAnywhere(t *testing.T) {
	l := NewLoader([]string{t.TempDir()})
	if _, err := l.findImport("nope.kei", t.TempDir()); err == nil {
		t.Fatalf("expected an error when an import cannot be resolved anywhere")
	}
}

func TestLoadParsesAfterInlining(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.kei", "1\n")
	entry := filepath.Join(dir, "main.kei")
	writeFile(t, dir, "main.kei", "import \"lib.kei\"\n2\n")

	l := NewLoader(nil)
	prog, err := l.Load(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 top-level statements after inlining, got %d", len(prog.Statements))
	}
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
}
