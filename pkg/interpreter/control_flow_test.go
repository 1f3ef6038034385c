package interpreter

import (
	"strings"
	"testing"
)

func TestCycleWhileWithBreak(t *testing.T) {
	src := "designate i = 0\n" +
		"cycle while true:\n" +
		"    i = i + 1\n" +
		"    foresee i == 3:\n" +
		"        break\n" +
		"declare(i)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("expected %q, got %q", "3", out)
	}
}

func TestCycleWhileWithContinueSkipsEvenPrints(t *testing.T) {
	src := "designate i = 0\n" +
		"cycle while i < 5:\n" +
		"    i = i + 1\n" +
		"    foresee i % 2 == 0:\n" +
		"        continue\n" +
		"    declare(i)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"1", "3", "5"}
	for idx, w := range want {
		if lines[idx] != w {
			t.Fatalf("line %d: expected %q, got %q", idx, w, lines[idx])
		}
	}
}

func TestCycleThroughListAccumulates(t *testing.T) {
	src := "designate total = 0\n" +
		"cycle through [1, 2, 3, 4] as n:\n" +
		"    total = total + n\n" +
		"declare(total)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("expected %q, got %q", "10", out)
	}
}

func TestCycleFromToExclusiveUpperBound(t *testing.T) {
	src := "cycle from 0 to 3 as i:\n" +
		"    declare(i)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"0", "1", "2"}
	for idx, w := range want {
		if lines[idx] != w {
			t.Fatalf("line %d: expected %q, got %q", idx, w, lines[idx])
		}
	}
}

func TestForeseeAlternateOtherwiseDispatch(t *testing.T) {
	src := "designate classify_num = |n|:\n" +
		"    foresee n < 0:\n" +
		"        declare(\"negative\")\n" +
		"    alternate n == 0:\n" +
		"        declare(\"zero\")\n" +
		"    otherwise:\n" +
		"        declare(\"positive\")\n" +
		"classify_num(-1)\n" +
		"classify_num(0)\n" +
		"classify_num(1)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"negative", "zero", "positive"}
	for idx, w := range want {
		if lines[idx] != w {
			t.Fatalf("line %d: expected %q, got %q", idx, w, lines[idx])
		}
	}
}

func TestRaiseCaughtByAttemptRecoverWithCustomValue(t *testing.T) {
	src := "attempt:\n" +
		"    raise \"boom\"\n" +
		"recover e:\n" +
		"    declare(\"recovered:\" + e)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "recovered:boom" {
		t.Fatalf("expected %q, got %q", "recovered:boom", out)
	}
}
