// Package voice is the external side-channel the core reports
// human-readable events to — REPL banner/prompt, scheme enter/exit,
// preview results, override/absolute/anomaly notices, and escalating
// error reports. The core never blocks on it and never branches on what
// it returns; Emit is fire-and-forget.
package voice

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// EventKind names one of the fixed event categories the core emits.
type EventKind int

const (
	EventBanner EventKind = iota
	EventGoodbye
	EventPrompt
	EventSchemeEnter
	EventSchemeExit
	EventPreview
	EventOverride
	EventAbsoluteFailure
	EventAnomalyEnter
	EventAnomalyExit
	EventAnomaly // uncaught/reported runtime error
)

// Event is one message crossing the channel. Repeat is the running count
// of how many times this exact payload has been reported as an error
// (§7's escalating-verbosity rule); it is 0 for non-error events.
type Event struct {
	Kind    EventKind
	Payload string
	Repeat  int
}

// Channel is the one-method sink the interpreter and built-ins write to.
type Channel interface {
	Emit(Event)
}

// Discard is a Channel that drops every event, useful for tests that
// don't want styled stderr noise.
type Discard struct{}

func (Discard) Emit(Event) {}

// Stderr is the default Channel: plain text tinted by lipgloss style per
// event severity, written to w (normally os.Stderr). Color is cosmetic
// only — nothing in the interpreter inspects the rendered string.
type Stderr struct {
	w      io.Writer
	styles styleSet
}

type styleSet struct {
	info    lipgloss.Style
	notice  lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	errHint lipgloss.Style
	errLoud lipgloss.Style
}

func defaultStyles() styleSet {
	return styleSet{
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		errHint: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		errLoud: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Underline(true),
	}
}

// NewStderr builds the default voice channel writing to w.
func NewStderr(w io.Writer) *Stderr {
	return &Stderr{w: w, styles: defaultStyles()}
}

// NewDefault builds the default voice channel writing to os.Stderr.
func NewDefault() *Stderr { return NewStderr(os.Stderr) }

func (s *Stderr) Emit(ev Event) {
	line := s.render(ev)
	fmt.Fprintln(s.w, line)
}

func (s *Stderr) render(ev Event) string {
	switch ev.Kind {
	case EventBanner:
		return s.styles.info.Render("kei " + ev.Payload)
	case EventGoodbye:
		return s.styles.info.Render(ev.Payload)
	case EventPrompt:
		return ev.Payload // the prompt itself is left unstyled
	case EventSchemeEnter:
		return s.styles.notice.Render("scheme: " + ev.Payload)
	case EventSchemeExit:
		return s.styles.notice.Render("execute: " + ev.Payload)
	case EventPreview:
		return s.styles.notice.Render("preview => " + ev.Payload)
	case EventOverride:
		return s.styles.warn.Render("override: " + ev.Payload)
	case EventAbsoluteFailure:
		return s.styles.warn.Render("absolute failed: " + ev.Payload)
	case EventAnomalyEnter:
		return s.styles.notice.Render("anomaly: " + ev.Payload)
	case EventAnomalyExit:
		return s.styles.notice.Render("anomaly end: " + ev.Payload)
	case EventAnomaly:
		return s.styles.errorStyleFor(ev.Repeat).Render(s.errorTextFor(ev))
	default:
		return ev.Payload
	}
}

// errorStyleFor implements the repeat-count escalation: first occurrence
// terse, second with a hint prefix, third and beyond fully loud.
func (s styleSet) errorStyleFor(repeat int) lipgloss.Style {
	switch {
	case repeat <= 1:
		return s.err
	case repeat == 2:
		return s.errHint
	default:
		return s.errLoud
	}
}

func (s *Stderr) errorTextFor(ev Event) string {
	switch {
	case ev.Repeat <= 1:
		return "anomaly: " + ev.Payload
	case ev.Repeat == 2:
		return "anomaly (seen before, check the line above): " + ev.Payload
	default:
		return fmt.Sprintf("anomaly (repeated %dx — this keeps happening): %s", ev.Repeat, ev.Payload)
	}
}
