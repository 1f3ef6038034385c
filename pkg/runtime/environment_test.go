package runtime

import "testing"

func TestEnvironmentDefineShadowsOuter(t *testing.T) {
	root := NewEnvironment(nil)
	root.Define("x", IntegerValue{Val: 1})

	child := root.Extend()
	child.Define("x", IntegerValue{Val: 2})

	v, err := child.Get("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv, ok := v.(IntegerValue); !ok || iv.Val != 2 {
		t.Fatalf("expected shadowed x=2, got %v", v)
	}

	outer, err := root.Get("x")
	if err != nil || outer.(IntegerValue).Val != 1 {
		t.Fatalf("outer x should be unaffected by shadowing, got %v", outer)
	}
}

func TestEnvironmentGetUnboundErrors(t *testing.T) {
	root := NewEnvironment(nil)
	if _, err := root.Get("missing"); err == nil {
		t.Fatalf("expected error looking up unbound name")
	}
}

func TestEnvironmentSetMutatesNearestScope(t *testing.T) {
	root := NewEnvironment(nil)
	root.Define("x", IntegerValue{Val: 1})
	child := root.Extend()

	child.Set("x", IntegerValue{Val: 99})

	v, _ := root.Get("x")
	if v.(IntegerValue).Val != 99 {
		t.Fatalf("expected Set to mutate the defining scope, got %v", v)
	}
}

func TestEnvironmentSetDefinesFreshWhenUnbound(t *testing.T) {
	root := NewEnvironment(nil)
	child := root.Extend()

	child.Set("y", IntegerValue{Val: 5})

	if root.Has("y") {
		t.Fatalf("Set on an unbound name must not leak into an outer scope")
	}
	v, err := child.Get("y")
	if err != nil || v.(IntegerValue).Val != 5 {
		t.Fatalf("expected y=5 defined in the current scope, got %v, %v", v, err)
	}
}

func TestForceSetGlobalWritesRootRegardlessOfShadowing(t *testing.T) {
	root := NewEnvironment(nil)
	root.Define("x", IntegerValue{Val: 1})
	child := root.Extend()
	child.Define("x", IntegerValue{Val: 2})

	child.ForceSetGlobal("x", IntegerValue{Val: 42})

	rootVal, _ := root.Get("x")
	if rootVal.(IntegerValue).Val != 42 {
		t.Fatalf("expected override to land in the global scope, got %v", rootVal)
	}
	childVal, _ := child.Get("x")
	if childVal.(IntegerValue).Val != 2 {
		t.Fatalf("shadowed child binding should be untouched by override, got %v", childVal)
	}
	if !child.WasOverridden("x") {
		t.Fatalf("expected WasOverridden to report true after ForceSetGlobal")
	}
}

func TestEnvironmentKeysSorted(t *testing.T) {
	root := NewEnvironment(nil)
	root.Define("b", NilValue{})
	root.Define("a", NilValue{})
	root.Define("c", NilValue{})

	keys := root.Keys()
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("expected sorted keys %v, got %v", want, keys)
		}
	}
}
