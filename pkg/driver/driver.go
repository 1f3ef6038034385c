// Package driver loads a kei source file, resolving `import "path.kei"`
// statements by textual inclusion before the file ever reaches the lexer.
package driver

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kei-lang/kei/pkg/ast"
	"github.com/kei-lang/kei/pkg/parser"
)

// importLine matches a bare top-level `import "path"` statement — the
// only form the driver resolves textually; an import nested inside a
// block survives to the parser as an *ast.ImportStmt no-op instead.
var importLine = regexp.MustCompile(`^import\s+"([^"]+)"\s*$`)

// Loader resolves and interns source files for a single program load.
// Buffers are owned here, not by the AST, for the lifetime of the Loader —
// the interning §4.7/§5 calls for instead of leaving import text to leak.
type Loader struct {
	searchPaths []string
	buffers     map[string]string // absolute path -> interned source
	stack       map[string]bool   // absolute path -> currently being resolved, for cycle detection
}

// NewLoader creates a Loader that resolves relative imports against the
// importing file's own directory first, then each of extraSearchPaths in order.
func NewLoader(extraSearchPaths []string) *Loader {
	return &Loader{
		searchPaths: extraSearchPaths,
		buffers:     make(map[string]string),
		stack:       make(map[string]bool),
	}
}

// Buffers exposes the interned source text keyed by absolute path, mainly
// so tooling (or a future debugger) can map a reported line back to the
// file it actually came from after inlining.
func (l *Loader) Buffers() map[string]string {
	out := make(map[string]string, len(l.buffers))
	for k, v := range l.buffers {
		out[k] = v
	}
	return out
}

// Load reads entryPath, resolves every import it (recursively) references
// by textual splicing, and parses the result into a *ast.Program.
func (l *Loader) Load(entryPath string) (*ast.Program, error) {
	src, err := l.resolve(entryPath)
	if err != nil {
		return nil, err
	}
	prog, syntaxErrs := parser.ParseProgram(src)
	if len(syntaxErrs) > 0 {
		msgs := make([]string, len(syntaxErrs))
		for i, e := range syntaxErrs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("syntax error(s):\n%s", strings.Join(msgs, "\n"))
	}
	return prog, nil
}

// resolve returns entryPath's fully inlined source text.
func (l *Loader) resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	if l.stack[abs] {
		return "", fmt.Errorf("import cycle detected at %s", abs)
	}
	if cached, ok := l.buffers[abs]; ok {
		return cached, nil
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", abs, err)
	}

	l.stack[abs] = true
	defer delete(l.stack, abs)

	inlined, err := l.inlineImports(string(raw), filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("%s: %w", abs, err)
	}
	l.buffers[abs] = inlined
	return inlined, nil
}

// inlineImports walks src line by line, splicing the resolved contents of
// any top-level `import "path"` line in place. Lines that don't match the
// bare-import form (e.g. an import nested in a block) are left untouched
// for the parser's own ImportStmt no-op handling.
func (l *Loader) inlineImports(src, baseDir string) (string, error) {
	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		m := importLine.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		resolvedPath, err := l.findImport(m[1], baseDir)
		if err != nil {
			return "", err
		}
		inlined, err := l.resolve(resolvedPath)
		if err != nil {
			return "", err
		}
		out.WriteString(inlined)
		if !strings.HasSuffix(inlined, "\n") {
			out.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// findImport locates the file an import path refers to: relative to
// baseDir first, falling back to each of the Loader's search paths.
func (l *Loader) findImport(importPath, baseDir string) (string, error) {
	candidates := []string{filepath.Join(baseDir, importPath)}
	for _, root := range l.searchPaths {
		candidates = append(candidates, filepath.Join(root, importPath))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("cannot resolve import %q (searched %s)", importPath, strconv.Quote(strings.Join(candidates, ", ")))
}
