package interpreter

import (
	"strings"
	"testing"
)

func TestEntityDefWithoutParent(t *testing.T) {
	src := "entity Point:\n" +
		"    protocol construct(x, y):\n" +
		"        self.x = x\n" +
		"        self.y = y\n" +
		"designate p = manifest Point(3, 4)\n" +
		"declare(p.x, p.y)\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "3 4" {
		t.Fatalf("expected %q, got %q", "3 4", out)
	}
}

func TestMethodOverrideShadowsParent(t *testing.T) {
	src := "entity Animal:\n" +
		"    protocol speak():\n" +
		"        declare(\"...\")\n" +
		"entity Dog inherits Animal:\n" +
		"    protocol speak():\n" +
		"        declare(\"woof\")\n" +
		"designate d = manifest Dog()\n" +
		"d.speak()\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "woof" {
		t.Fatalf("expected overridden method output %q, got %q", "woof", out)
	}
}

func TestMultiLevelInheritanceFallsThroughToGrandparent(t *testing.T) {
	src := "entity A:\n" +
		"    protocol greet():\n" +
		"        declare(\"from A\")\n" +
		"entity B inherits A:\n" +
		"    protocol other():\n" +
		"        1\n" +
		"entity C inherits B:\n" +
		"    protocol other():\n" +
		"        2\n" +
		"designate c = manifest C()\n" +
		"c.greet()\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "from A" {
		t.Fatalf("expected the grandparent method's output %q, got %q", "from A", out)
	}
}

func TestAscendCallsImmediateParentNotRoot(t *testing.T) {
	src := "entity A:\n" +
		"    protocol tag():\n" +
		"        declare(\"A\")\n" +
		"entity B inherits A:\n" +
		"    protocol tag():\n" +
		"        declare(\"B\")\n" +
		"entity C inherits B:\n" +
		"    protocol tag():\n" +
		"        ascend tag()\n" +
		"designate c = manifest C()\n" +
		"c.tag()\n"
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "B" {
		t.Fatalf("expected ascend to resolve to the immediate parent's method %q, got %q", "B", out)
	}
}

func TestUnknownParentEntityIsAnError(t *testing.T) {
	_, err := run(t, "entity Dog inherits Ghost:\n    protocol speak():\n        1\n")
	if err == nil {
		t.Fatalf("expected an error for an undefined parent entity")
	}
}

func TestCallingMissingMethodIsAnError(t *testing.T) {
	src := "entity Rock:\n" +
		"    protocol sit():\n" +
		"        1\n" +
		"designate r = manifest Rock()\n" +
		"r.speak()\n"
	_, err := run(t, src)
	if err == nil {
		t.Fatalf("expected an error calling a method the entity does not define")
	}
}
