package voice

import (
	"bytes"
	"strings"
	"testing"
)

func TestDiscardDropsEverything(t *testing.T) {
	var d Discard
	d.Emit(Event{Kind: EventAnomaly, Payload: "should vanish"})
}

func TestStderrWritesPayload(t *testing.T) {
	var buf bytes.Buffer
	ch := NewStderr(&buf)
	ch.Emit(Event{Kind: EventPreview, Payload: "42"})

	if !strings.Contains(buf.String(), "42") {
		t.Fatalf("expected rendered output to contain the payload, got %q", buf.String())
	}
}

func TestAnomalyEscalatesWithRepeat(t *testing.T) {
	var first, second, third bytes.Buffer
	NewStderr(&first).Emit(Event{Kind: EventAnomaly, Payload: "boom", Repeat: 1})
	NewStderr(&second).Emit(Event{Kind: EventAnomaly, Payload: "boom", Repeat: 2})
	NewStderr(&third).Emit(Event{Kind: EventAnomaly, Payload: "boom", Repeat: 3})

	if first.String() == second.String() {
		t.Fatalf("expected escalating repeat counts to render differently")
	}
	if second.String() == third.String() {
		t.Fatalf("expected a third repeat to render differently from a second")
	}
	if !strings.Contains(third.String(), "repeated") {
		t.Fatalf("expected the loud tier to mention the repeat explicitly, got %q", third.String())
	}
}

func TestPromptRendersUnstyled(t *testing.T) {
	var buf bytes.Buffer
	NewStderr(&buf).Emit(Event{Kind: EventPrompt, Payload: "> "})
	if strings.TrimRight(buf.String(), "\n") != "> " {
		t.Fatalf("expected the prompt to render exactly as given, got %q", buf.String())
	}
}
