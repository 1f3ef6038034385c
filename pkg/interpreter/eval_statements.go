package interpreter

import (
	"fmt"

	"github.com/kei-lang/kei/pkg/ast"
	"github.com/kei-lang/kei/pkg/runtime"
)

//-----------------------------------------------------------------------------
// Loops
//-----------------------------------------------------------------------------

// runLoopBody evaluates body in a fresh child scope, translating a
// matching continueSignal into "keep looping" and a matching breakSignal
// into a request to stop, carrying break's optional value out as the
// loop's own result. A label only matches an unlabeled signal or one
// naming this exact loop; anything else propagates to an enclosing loop.
func (i *Interpreter) runLoopBody(body *ast.Block, env *runtime.Environment, label string) (stop bool, breakValue runtime.Value, err error) {
	_, err = i.evaluateBlock(body, env)
	if err == nil {
		return false, nil, nil
	}
	switch sig := err.(type) {
	case continueSignal:
		if sig.label == "" || sig.label == label {
			return false, nil, nil
		}
		return false, nil, err
	case breakSignal:
		if sig.label == "" || sig.label == label {
			return true, sig.value, nil
		}
		return true, nil, err
	default:
		return true, nil, err
	}
}

func (i *Interpreter) evaluateCycleWhile(n *ast.CycleWhile, env *runtime.Environment) (runtime.Value, error) {
	var result runtime.Value = runtime.NilValue{}
	for {
		cond, err := i.evaluateExpression(n.Condition, env)
		if err != nil {
			return nil, err
		}
		if !isTruthy(cond) {
			return result, nil
		}
		stop, breakValue, err := i.runLoopBody(n.Body, env.Extend(), n.Label)
		if err != nil {
			return nil, err
		}
		if stop {
			if breakValue != nil {
				return breakValue, nil
			}
			return result, nil
		}
	}
}

func (i *Interpreter) evaluateCycleThrough(n *ast.CycleThrough, env *runtime.Environment) (runtime.Value, error) {
	source, err := i.evaluateExpression(n.Iterable, env)
	if err != nil {
		return nil, err
	}
	var result runtime.Value = runtime.NilValue{}
	var loopErr error
	iterErr := i.forEachValue(source, func(item runtime.Value) (bool, error) {
		loopEnv := env.Extend()
		if err := i.bindPattern(n.Var, item, loopEnv); err != nil {
			return true, err
		}
		stop, breakValue, err := i.runLoopBody(n.Body, loopEnv, n.Label)
		if err != nil {
			loopErr = err
			return true, err
		}
		if stop {
			if breakValue != nil {
				result = breakValue
			}
			return true, nil
		}
		return false, nil
	})
	if loopErr != nil {
		return nil, loopErr
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return result, nil
}

func (i *Interpreter) evaluateCycleFromTo(n *ast.CycleFromTo, env *runtime.Environment) (runtime.Value, error) {
	fromVal, err := i.evaluateExpression(n.From, env)
	if err != nil {
		return nil, err
	}
	toVal, err := i.evaluateExpression(n.To, env)
	if err != nil {
		return nil, err
	}
	from, ok := asInt(fromVal)
	if !ok {
		return nil, fmt.Errorf("line %d: cycle bounds must be integers", n.Pos.Line)
	}
	to, ok := asInt(toVal)
	if !ok {
		return nil, fmt.Errorf("line %d: cycle bounds must be integers", n.Pos.Line)
	}
	step := int64(1)
	if n.Step != nil {
		stepVal, err := i.evaluateExpression(n.Step, env)
		if err != nil {
			return nil, err
		}
		step, ok = asInt(stepVal)
		if !ok || step == 0 {
			return nil, fmt.Errorf("line %d: cycle step must be a non-zero integer", n.Pos.Line)
		}
	} else if to < from {
		step = -1
	}

	var result runtime.Value = runtime.NilValue{}
	cmp := func(cur int64) bool {
		if step > 0 {
			if n.Inclusive {
				return cur <= to
			}
			return cur < to
		}
		if n.Inclusive {
			return cur >= to
		}
		return cur > to
	}
	for cur := from; cmp(cur); cur += step {
		loopEnv := env.Extend()
		if err := i.bindPattern(n.Var, runtime.IntegerValue{Val: cur}, loopEnv); err != nil {
			return nil, err
		}
		stop, breakValue, err := i.runLoopBody(n.Body, loopEnv, n.Label)
		if err != nil {
			return nil, err
		}
		if stop {
			if breakValue != nil {
				return breakValue, nil
			}
			return result, nil
		}
	}
	return result, nil
}

//-----------------------------------------------------------------------------
// foresee / situation / attempt
//-----------------------------------------------------------------------------

// evaluateForeseeStmt implements if/elif/else: first clause whose
// condition is truthy wins; a nil Condition marks the final `otherwise`.
func (i *Interpreter) evaluateForeseeStmt(n *ast.ForeseeStmt, env *runtime.Environment) (runtime.Value, error) {
	for _, clause := range n.Clauses {
		if clause.Condition == nil {
			return i.evaluateBlock(clause.Body, env)
		}
		cond, err := i.evaluateExpression(clause.Condition, env)
		if err != nil {
			return nil, err
		}
		if isTruthy(cond) {
			return i.evaluateBlock(clause.Body, env)
		}
	}
	return runtime.NilValue{}, nil
}

// evaluateSituationStmt implements pattern-matching dispatch: the
// subject is matched structurally against each alignment's pattern in
// order (with an optional guard), first match wins; an unmatched
// subject with no catch-all clause (`alignment _`) yields null.
func (i *Interpreter) evaluateSituationStmt(n *ast.SituationStmt, env *runtime.Environment) (runtime.Value, error) {
	subject, err := i.evaluateExpression(n.Subject, env)
	if err != nil {
		return nil, err
	}
	for _, clause := range n.Clauses {
		matchEnv := env.Extend()
		ok, err := i.matchPattern(clause.Pattern, subject, matchEnv)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if clause.Guard != nil {
			g, err := i.evaluateExpression(clause.Guard, matchEnv)
			if err != nil {
				return nil, err
			}
			if !isTruthy(g) {
				continue
			}
		}
		return i.evaluateBlock(clause.Body, matchEnv)
	}
	return runtime.NilValue{}, nil
}

// matchPattern reports whether subject fits pat, binding identifiers into
// env along the way — the read side of the same pattern language
// bindPattern uses for unconditional destructuring.
func (i *Interpreter) matchPattern(pat ast.Pattern, subject runtime.Value, env *runtime.Environment) (bool, error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return true, nil
	case *ast.IdentifierPattern:
		env.Define(p.Name, subject)
		return true, nil
	case *ast.LiteralPattern:
		lit, err := i.evaluateExpression(p.Value, env)
		if err != nil {
			return false, err
		}
		return i.valuesEqual(lit, subject), nil
	case *ast.ListPattern:
		list, ok := subject.(*runtime.ListValue)
		if !ok {
			return false, nil
		}
		if p.Rest == nil && len(list.Elements) != len(p.Elements) {
			return false, nil
		}
		if p.Rest != nil && len(list.Elements) < len(p.Elements) {
			return false, nil
		}
		for idx, elPat := range p.Elements {
			matched, err := i.matchPattern(elPat, list.Elements[idx], env)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		if p.Rest != nil {
			rest := append([]runtime.Value{}, list.Elements[len(p.Elements):]...)
			return i.matchPattern(p.Rest, &runtime.ListValue{Elements: rest}, env)
		}
		return true, nil
	default:
		return false, fmt.Errorf("line %d: unsupported pattern in alignment", pat.Position().Line)
	}
}

// evaluateAttemptStmt implements try/recover: a raiseSignal caught while
// running Body binds its value (stringified, per the built-in error
// model) to RecoverVar and runs RecoverBody; any other error (return,
// break, continue, a nested generator's propagated error) passes through
// untouched.
func (i *Interpreter) evaluateAttemptStmt(n *ast.AttemptStmt, env *runtime.Environment) (runtime.Value, error) {
	result, err := i.evaluateBlock(n.Body, env)
	if err == nil {
		return result, nil
	}
	sig, ok := err.(raiseSignal)
	if !ok {
		return nil, err
	}
	if n.RecoverBody == nil {
		return runtime.NilValue{}, nil
	}
	recoverEnv := env.Extend()
	if n.RecoverVar != "" {
		msg, serr := i.rawStringify(sig.value)
		if serr != nil {
			return nil, serr
		}
		recoverEnv.Define(n.RecoverVar, runtime.StringValue{Val: msg})
	}
	return i.evaluateBlock(n.RecoverBody, recoverEnv)
}

//-----------------------------------------------------------------------------
// Simple control-flow statements
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateRaiseStmt(n *ast.RaiseStmt, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	return nil, raiseSignal{value: val}
}

func (i *Interpreter) evaluateReturnStmt(n *ast.ReturnStmt, env *runtime.Environment) (runtime.Value, error) {
	var val runtime.Value = runtime.NilValue{}
	if n.Value != nil {
		v, err := i.evaluateExpression(n.Value, env)
		if err != nil {
			return nil, err
		}
		val = v
	}
	return nil, returnSignal{value: val}
}

func (i *Interpreter) evaluateBreakStmt(n *ast.BreakStmt, env *runtime.Environment) (runtime.Value, error) {
	var val runtime.Value
	if n.Value != nil {
		v, err := i.evaluateExpression(n.Value, env)
		if err != nil {
			return nil, err
		}
		val = v
	}
	return nil, breakSignal{label: n.Label, value: val}
}

func (i *Interpreter) evaluateContinueStmt(n *ast.ContinueStmt, env *runtime.Environment) (runtime.Value, error) {
	return nil, continueSignal{label: n.Label}
}

//-----------------------------------------------------------------------------
// Voice-emitting statements
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateSchemeStmt(n *ast.SchemeStmt, env *runtime.Environment) (runtime.Value, error) {
	i.emit(voiceEventKindNamed("scheme_enter"), n.Label, 0)
	result, err := i.evaluateBlock(n.Body, env)
	i.emit(voiceEventKindNamed("scheme_exit"), n.Label, 0)
	return result, err
}

func (i *Interpreter) evaluatePreviewStmt(n *ast.PreviewStmt, env *runtime.Environment) (runtime.Value, error) {
	result, err := i.evaluateBlock(n.Body, env)
	if err != nil {
		return nil, err
	}
	i.emit(voiceEventKindNamed("preview"), i.safeStringify(result), 0)
	return result, nil
}

func (i *Interpreter) evaluateOverrideStmt(n *ast.OverrideStmt, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	env.ForceSetGlobal(n.Target.Name, val)
	i.emit(voiceEventKindNamed("override"), fmt.Sprintf("%s = %s", n.Target.Name, i.safeStringify(val)), 0)
	return val, nil
}

func (i *Interpreter) evaluateAbsoluteStmt(n *ast.AbsoluteStmt, env *runtime.Environment) (runtime.Value, error) {
	cond, err := i.evaluateExpression(n.Condition, env)
	if err != nil {
		return nil, err
	}
	if isTruthy(cond) {
		return runtime.BoolValue{Val: true}, nil
	}
	msg := "absolute failed"
	if n.Message != nil {
		mv, err := i.evaluateExpression(n.Message, env)
		if err != nil {
			return nil, err
		}
		msg, err = i.rawStringify(mv)
		if err != nil {
			return nil, err
		}
	}
	i.emit(voiceEventKindNamed("absolute_failure"), msg, 0)
	return runtime.BoolValue{Val: false}, nil
}

func (i *Interpreter) evaluateAnomalyStmt(n *ast.AnomalyStmt, env *runtime.Environment) (runtime.Value, error) {
	mv, err := i.evaluateExpression(n.Message, env)
	if err != nil {
		return nil, err
	}
	msg, err := i.rawStringify(mv)
	if err != nil {
		return nil, err
	}
	i.emit(voiceEventKindNamed("anomaly_enter"), msg, 0)
	return nil, raiseSignal{value: mv}
}
