package interpreter

import "github.com/kei-lang/kei/pkg/runtime"

// Non-local control flow is threaded through ordinary Go error returns
// using typed sentinel errors, the same idiom the teacher corpus uses for
// return/break/continue/raise: a type switch at the statement or call
// boundary that should intercept the signal, everything else propagates
// it untouched.

type returnSignal struct{ value runtime.Value }

func (returnSignal) Error() string { return "return" }

type raiseSignal struct{ value runtime.Value }

func (raiseSignal) Error() string { return "raise" }

type breakSignal struct {
	label string
	value runtime.Value
}

func (breakSignal) Error() string { return "break" }

type continueSignal struct{ label string }

func (continueSignal) Error() string { return "continue" }
