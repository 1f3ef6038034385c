package interpreter

import (
	"testing"

	"github.com/kei-lang/kei/pkg/runtime"
	"github.com/kei-lang/kei/pkg/voice"
)

func TestStringifyQuotesStringsByDefault(t *testing.T) {
	i := New(voice.Discard{})
	s, err := i.stringifyValue(runtime.StringValue{Val: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != `"hi"` {
		t.Fatalf("expected quoted string, got %q", s)
	}
}

func TestRawStringifyLeavesStringsUnquoted(t *testing.T) {
	i := New(voice.Discard{})
	s, err := i.rawStringify(runtime.StringValue{Val: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "hi" {
		t.Fatalf("expected unquoted string, got %q", s)
	}
}

func TestStringifyListRendersElementsRecursively(t *testing.T) {
	i := New(voice.Discard{})
	list := &runtime.ListValue{Elements: []runtime.Value{
		runtime.IntegerValue{Val: 1},
		runtime.StringValue{Val: "a"},
	}}
	s, err := i.stringifyValue(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != `[1, "a"]` {
		t.Fatalf("expected %q, got %q", `[1, "a"]`, s)
	}
}

func TestStringifyNilIsNull(t *testing.T) {
	i := New(voice.Discard{})
	s, err := i.stringifyValue(runtime.NilValue{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "null" {
		t.Fatalf("expected %q, got %q", "null", s)
	}
}

func TestStringifyFloatAlwaysHasDecimalPoint(t *testing.T) {
	i := New(voice.Discard{})
	s, err := i.stringifyValue(runtime.FloatValue{Val: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "3.0" {
		t.Fatalf("expected %q, got %q", "3.0", s)
	}
}

func TestStringifyClassAndInstance(t *testing.T) {
	i := New(voice.Discard{})
	class := &runtime.ClassValue{Name: "Dog", Methods: map[string]*runtime.FunctionValue{}}
	s, err := i.stringifyValue(class)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "<class Dog>" {
		t.Fatalf("expected %q, got %q", "<class Dog>", s)
	}

	inst := &runtime.InstanceValue{Class: class, Fields: runtime.NewEnvironment(nil)}
	s, err = i.stringifyValue(inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "<instance Dog>" {
		t.Fatalf("expected %q, got %q", "<instance Dog>", s)
	}
}
