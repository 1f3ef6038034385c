// Package interpreter is the tree-walking evaluator for kei: expression
// and statement evaluation, the generator/suspension engine, class
// dispatch, and the built-in registry.
package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/kei-lang/kei/pkg/ast"
	"github.com/kei-lang/kei/pkg/runtime"
	"github.com/kei-lang/kei/pkg/voice"
)

// Interpreter owns the single root environment a program runs in, the
// external voice channel built-ins and error reporting write to, and the
// plain stdout stream `declare`/`announce` write to — kept separate from
// voice because voice is commentary about the run, not the run's output.
type Interpreter struct {
	global       *runtime.Environment
	voice        voice.Channel
	out          io.Writer
	errorRepeats map[string]int

	// genStack tracks the chain of generator coroutines currently
	// executing kei code, innermost last. Coroutine.Resume pushes the
	// coroutine it is about to hand control to and pops it the moment
	// that handoff returns (whether by yield or completion) — not only
	// when the coroutine's body fully finishes — so a coroutine parked
	// mid-yield by a nested proceed() is off the top again once that
	// nested call returns control to its caller. Only one goroutine is
	// ever actually running kei code at a time (every other parked
	// coroutine is blocked on a channel receive), so builtins like
	// receive() can read genStack's top through currentCoroutine without
	// a lock — the channel handoff in Coroutine.Resume/yield is itself
	// the synchronization point.
	genStack []*Coroutine

	// classStack tracks the defining class of the method currently
	// executing, innermost last, so `ascend` knows where to resume the
	// method lookup (one level above the method that invoked it).
	classStack []*runtime.ClassValue
}

func (i *Interpreter) currentCoroutine() *Coroutine {
	if len(i.genStack) == 0 {
		return nil
	}
	return i.genStack[len(i.genStack)-1]
}

func (i *Interpreter) pushCoroutine(co *Coroutine) { i.genStack = append(i.genStack, co) }

func (i *Interpreter) popCoroutine() {
	i.genStack = i.genStack[:len(i.genStack)-1]
}

func (i *Interpreter) currentClass() *runtime.ClassValue {
	if len(i.classStack) == 0 {
		return nil
	}
	return i.classStack[len(i.classStack)-1]
}

func (i *Interpreter) pushClass(c *runtime.ClassValue) { i.classStack = append(i.classStack, c) }

func (i *Interpreter) popClass() {
	if len(i.classStack) == 0 {
		return
	}
	i.classStack = i.classStack[:len(i.classStack)-1]
}

// New creates an Interpreter with a fresh global environment, the
// built-in registry installed, and ch as its voice-channel sink.
func New(ch voice.Channel) *Interpreter {
	i := &Interpreter{
		global:       runtime.NewEnvironment(nil),
		voice:        ch,
		out:          os.Stdout,
		errorRepeats: make(map[string]int),
	}
	installBuiltins(i, i.global)
	return i
}

// SetOutput redirects where `declare`/`announce` write, e.g. to a buffer
// in a test or to the REPL's own managed writer.
func (i *Interpreter) SetOutput(w io.Writer) { i.out = w }

// GlobalEnvironment exposes the root scope, e.g. for a REPL that wants to
// keep evaluating successive inputs against the same bindings.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment { return i.global }

// EvaluateProgram runs every top-level statement in order against env
// (typically i.GlobalEnvironment()), returning the last statement's value.
// An uncaught `raise` at the top level is reported on the voice channel
// (§7) and returned as a Go error to the caller (the driver or REPL).
func (i *Interpreter) EvaluateProgram(prog *ast.Program, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.NilValue{}
	for _, stmt := range prog.Statements {
		val, err := i.evaluateStatement(stmt, env)
		if err != nil {
			switch sig := err.(type) {
			case raiseSignal:
				i.reportUncaught(sig.value)
				return nil, fmt.Errorf("uncaught anomaly: %s", i.safeStringify(sig.value))
			case returnSignal:
				return sig.value, nil
			default:
				return nil, err
			}
		}
		result = val
	}
	return result, nil
}

func (i *Interpreter) safeStringify(v runtime.Value) string {
	s, err := i.stringifyValue(v)
	if err != nil {
		return "<unprintable>"
	}
	return s
}

func (i *Interpreter) reportUncaught(errVal runtime.Value) {
	msg := i.safeStringify(errVal)
	i.errorRepeats[msg]++
	i.emit(voice.EventAnomaly, msg, i.errorRepeats[msg])
}

func (i *Interpreter) emit(kind voice.EventKind, payload string, repeat int) {
	if i.voice == nil {
		return
	}
	i.voice.Emit(voice.Event{Kind: kind, Payload: payload, Repeat: repeat})
}

//-----------------------------------------------------------------------------
// Statement dispatch
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateStatement(node ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	// Concrete types that implement BOTH expressionMarker and statementMarker
	// (protocol/sequence literals, foresee, situation, attempt — all usable
	// as either a statement or the right-hand side of an assignment) must be
	// matched before the generic ast.Expression case below, or that case
	// would shadow them in the type switch.
	switch n := node.(type) {
	case *ast.ProtocolDef:
		return i.evaluateProtocolDef(n, env)
	case *ast.SequenceDef:
		return i.evaluateSequenceDef(n, env)
	case *ast.ForeseeStmt:
		return i.evaluateForeseeStmt(n, env)
	case *ast.SituationStmt:
		return i.evaluateSituationStmt(n, env)
	case *ast.AttemptStmt:
		return i.evaluateAttemptStmt(n, env)
	case ast.Expression:
		return i.evaluateExpression(n, env)
	case *ast.EntityDef:
		return i.evaluateEntityDef(n, env)
	case *ast.CycleWhile:
		return i.evaluateCycleWhile(n, env)
	case *ast.CycleThrough:
		return i.evaluateCycleThrough(n, env)
	case *ast.CycleFromTo:
		return i.evaluateCycleFromTo(n, env)
	case *ast.RaiseStmt:
		return i.evaluateRaiseStmt(n, env)
	case *ast.ReturnStmt:
		return i.evaluateReturnStmt(n, env)
	case *ast.BreakStmt:
		return i.evaluateBreakStmt(n, env)
	case *ast.ContinueStmt:
		return i.evaluateContinueStmt(n, env)
	case *ast.SchemeStmt:
		return i.evaluateSchemeStmt(n, env)
	case *ast.PreviewStmt:
		return i.evaluatePreviewStmt(n, env)
	case *ast.OverrideStmt:
		return i.evaluateOverrideStmt(n, env)
	case *ast.AbsoluteStmt:
		return i.evaluateAbsoluteStmt(n, env)
	case *ast.AnomalyStmt:
		return i.evaluateAnomalyStmt(n, env)
	case *ast.ImportStmt:
		// Resolved textually by the driver before lexing; if one survives
		// to evaluation (e.g. a nested, never-inlined import) it is a no-op.
		return runtime.NilValue{}, nil
	case *ast.Block:
		return i.evaluateBlock(n, env)
	default:
		return nil, fmt.Errorf("unsupported statement type: %s", n.NodeType())
	}
}

// runFunctionBody executes fn's body directly against env — the
// already-prepared call environment, not a fresh child of it, so a
// `designate` at the top of a function body shadows a same-named
// parameter in the same scope a caller would expect. An explicit
// `return` short-circuits via returnSignal; falling off the end yields
// the value of the last statement executed, same as a bare block.
func (i *Interpreter) runFunctionBody(fn *runtime.FunctionValue, env *runtime.Environment) (runtime.Value, error) {
	switch body := fn.Body.(type) {
	case *ast.Block:
		var result runtime.Value = runtime.NilValue{}
		for _, stmt := range body.Statements {
			val, err := i.evaluateStatement(stmt, env)
			if err != nil {
				if rs, ok := err.(returnSignal); ok {
					return rs.value, nil
				}
				return nil, err
			}
			result = val
		}
		return result, nil
	case ast.Expression:
		val, err := i.evaluateExpression(body, env)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				return rs.value, nil
			}
			return nil, err
		}
		return val, nil
	default:
		return nil, fmt.Errorf("function has no evaluable body")
	}
}

func (i *Interpreter) evaluateBlock(block *ast.Block, env *runtime.Environment) (runtime.Value, error) {
	scope := env.Extend()
	var result runtime.Value = runtime.NilValue{}
	for _, stmt := range block.Statements {
		val, err := i.evaluateStatement(stmt, scope)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}
