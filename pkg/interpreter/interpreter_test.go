package interpreter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kei-lang/kei/pkg/parser"
	"github.com/kei-lang/kei/pkg/voice"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, errs := parser.ParseProgram(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	var buf bytes.Buffer
	interp := New(voice.Discard{})
	interp.SetOutput(&buf)
	_, err := interp.EvaluateProgram(prog, interp.GlobalEnvironment())
	return buf.String(), err
}

func TestScenarioArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "declare(1 + 2 * 3)\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("expected %q, got %q", "7", out)
	}
}

func TestScenarioStringRepeat(t *testing.T) {
	out, err := run(t, "designate s = \"a\" * 3\ndeclare(s)\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "aaa" {
		t.Fatalf("expected %q, got %q", "aaa", out)
	}
}

func TestScenarioGeneratorProceedRoundTrip(t *testing.T) {
	src := "sequence counter():\n" +
		"    yield 1\n" +
		"    yield 2\n" +
		"    yield 3\n" +
		"designate g = counter()\n" +
		"declare(proceed(g))\n" +
		"declare(proceed(g))\n" +
		"declare(proceed(g))\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if strings.Join(lines, ",") != "1,2,3" {
		t.Fatalf("expected 1,2,3 across three proceed() calls, got %v", lines)
	}
}

func TestScenarioBidirectionalTransmitReceive(t *testing.T) {
	src := "sequence echoer():\n" +
		"    cycle while true:\n" +
		"        designate got = receive()\n" +
		"        yield \"got:\" + text(got)\n" +
		"designate g = echoer()\n" +
		"proceed(g)\n" +
		"declare(transmit(g, 7))\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "got:7" {
		t.Fatalf("expected %q, got %q", "got:7", out)
	}
}

func TestScenarioClassInheritanceAscendManifest(t *testing.T) {
	src := "entity A:\n" +
		"    protocol construct(x):\n" +
		"        self.x = x\n" +
		"entity B inherits A:\n" +
		"    protocol construct(x, y):\n" +
		"        ascend construct(x)\n" +
		"        self.y = y\n" +
		"designate b = manifest B(1, 2)\n" +
		"declare(b.x, b.y)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "1 2" {
		t.Fatalf("expected %q, got %q", "1 2", out)
	}
}

func TestScenarioAttemptRecoverDivisionByZero(t *testing.T) {
	src := "attempt:\n" +
		"    declare(1 / 0)\n" +
		"recover e:\n" +
		"    declare(\"caught\")\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("expected the anomaly to be caught by recover, got error: %v", err)
	}
	if strings.TrimSpace(out) != "caught" {
		t.Fatalf("expected %q, got %q", "caught", out)
	}
}

func TestScenarioAttemptRecoverModuloByZero(t *testing.T) {
	src := "attempt:\n" +
		"    declare(5 % 0)\n" +
		"recover e:\n" +
		"    declare(\"caught\")\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("expected the anomaly to be caught by recover, got error: %v", err)
	}
	if strings.TrimSpace(out) != "caught" {
		t.Fatalf("expected %q, got %q", "caught", out)
	}
}

func TestUncaughtDivisionByZeroPropagatesAsError(t *testing.T) {
	_, err := run(t, "declare(1 / 0)\n")
	if err == nil {
		t.Fatalf("expected an uncaught anomaly to surface as an error")
	}
}

func TestIntegerArithmeticClosure(t *testing.T) {
	out, err := run(t, "declare(3 + 4)\ndeclare(3 - 4)\ndeclare(3 * 4)\ndeclare(7 // 2)\ndeclare(7 % 2)\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"7", "-1", "12", "3", "1"}
	for idx, w := range want {
		if lines[idx] != w {
			t.Fatalf("line %d: expected %q, got %q", idx, w, lines[idx])
		}
	}
}

func TestFloorDivisionTruncatesTowardZero(t *testing.T) {
	out, err := run(t, "declare(-7 // 2)\ndeclare(7.5 // 2)\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"-3", "3"}
	for idx, w := range want {
		if lines[idx] != w {
			t.Fatalf("line %d: expected %q, got %q", idx, w, lines[idx])
		}
	}
}

func TestAttemptRecoverFloorDivisionByZero(t *testing.T) {
	src := "attempt:\n" +
		"    declare(1 // 0)\n" +
		"recover e:\n" +
		"    declare(\"caught\")\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("expected the anomaly to be caught by recover, got error: %v", err)
	}
	if strings.TrimSpace(out) != "caught" {
		t.Fatalf("expected %q, got %q", "caught", out)
	}
}

func TestScenarioPowerOperator(t *testing.T) {
	out, err := run(t, "declare(2 ** 3)\ndeclare(2 ** 0.5)\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "8" {
		t.Fatalf("expected %q, got %q", "8", lines[0])
	}
}

func TestScenarioWalrusAssignMatchesSpecLiteralSyntax(t *testing.T) {
	src := "sequence g():\n" +
		"    cycle from 1 to 4 as i:\n" +
		"        yield i\n" +
		"gen := g()\n" +
		"declare(proceed(gen), proceed(gen), proceed(gen))\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "1 2 3" {
		t.Fatalf("expected %q, got %q", "1 2 3", strings.TrimSpace(out))
	}
}

func TestScenarioGeneratorExprProducesLazySequence(t *testing.T) {
	src := "designate gen = (n * n for n through [1, 2, 3, 4] where n != 3)\n" +
		"declare(proceed(gen))\n" +
		"declare(proceed(gen))\n" +
		"declare(proceed(gen))\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if strings.Join(lines, ",") != "1,4,16" {
		t.Fatalf("expected 1,4,16 (n=3 filtered out by where), got %v", lines)
	}
}

func TestNestedGeneratorSuspension(t *testing.T) {
	src := "sequence inner():\n" +
		"    yield \"inner-1\"\n" +
		"    yield \"inner-2\"\n" +
		"sequence outer():\n" +
		"    designate g = inner()\n" +
		"    yield proceed(g)\n" +
		"    yield \"outer-1\"\n" +
		"    yield proceed(g)\n" +
		"designate o = outer()\n" +
		"declare(proceed(o))\n" +
		"declare(proceed(o))\n" +
		"declare(proceed(o))\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"inner-1", "outer-1", "inner-2"}
	for idx, w := range want {
		if lines[idx] != w {
			t.Fatalf("line %d: expected %q, got %q", idx, w, lines[idx])
		}
	}
}
