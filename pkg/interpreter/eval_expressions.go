package interpreter

import (
	"fmt"
	"math"
	"strings"

	"github.com/kei-lang/kei/pkg/ast"
	"github.com/kei-lang/kei/pkg/runtime"
	"github.com/kei-lang/kei/pkg/voice"
)

func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.Identifier:
		v, err := env.Get(n.Name)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Pos.Line, err)
		}
		return v, nil
	case *ast.IntegerLiteral:
		return runtime.IntegerValue{Val: n.Value}, nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.InterpolatedString:
		return i.evaluateInterpolatedString(n, env)
	case *ast.BoolLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.NilLiteral:
		return runtime.NilValue{}, nil
	case *ast.ListLiteral:
		return i.evaluateListLiteral(n, env)
	case *ast.DictLiteral:
		return i.evaluateDictLiteral(n, env)
	case *ast.RangeExpr:
		return i.evaluateRangeExpr(n, env)
	case *ast.SelfExpr:
		v, err := env.Get("self")
		if err != nil {
			return nil, fmt.Errorf("line %d: 'self' used outside a method", n.Pos.Line)
		}
		return v, nil
	case *ast.UnaryExpr:
		return i.evaluateUnaryExpr(n, env)
	case *ast.BinaryExpr:
		return i.evaluateBinaryExpr(n, env)
	case *ast.TernaryExpr:
		return i.evaluateTernaryExpr(n, env)
	case *ast.AssignExpr:
		return i.evaluateAssignExpr(n, env)
	case *ast.DesignateExpr:
		return i.evaluateDesignateExpr(n, env)
	case *ast.CallExpr:
		return i.evaluateCallExpr(n, env)
	case *ast.MemberAccessExpr:
		obj, err := i.evaluateExpression(n.Object, env)
		if err != nil {
			return nil, err
		}
		return i.memberAccess(obj, n.Member.Name, env, n.Pos.Line)
	case *ast.IndexExpr:
		return i.evaluateIndexExpr(n, env)
	case *ast.SliceExpr:
		return i.evaluateSliceExpr(n, env)
	case *ast.LambdaExpr:
		return i.evaluateLambdaExpr(n, env)
	case *ast.ManifestExpr:
		return i.evaluateManifestExpr(n, env)
	case *ast.AscendCallExpr:
		return i.evaluateAscendCallExpr(n, env)
	case *ast.YieldExpr:
		return i.evaluateYieldExpr(n, env)
	case *ast.DelegateExpr:
		return i.evaluateDelegateExpr(n, env)
	case *ast.AwaitExpr:
		return i.evaluateAwaitExpr(n, env)
	case *ast.GeneratorExpr:
		return i.evaluateGeneratorExpr(n, env)
	case *ast.ListCompExpr:
		return i.evaluateListCompExpr(n, env)
	case *ast.SpreadExpr:
		return nil, fmt.Errorf("line %d: ...spread is only valid as a call argument", n.Pos.Line)
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
	default:
		return nil, fmt.Errorf("unsupported expression type: %s", n.NodeType())
	}
}

//-----------------------------------------------------------------------------
// Literals
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateInterpolatedString(n *ast.InterpolatedString, env *runtime.Environment) (runtime.Value, error) {
	var sb strings.Builder
	for idx, part := range n.Parts {
		sb.WriteString(part)
		if idx < len(n.Exprs) {
			v, err := i.evaluateExpression(n.Exprs[idx], env)
			if err != nil {
				return nil, err
			}
			s, err := i.rawStringify(v)
			if err != nil {
				return nil, err
			}
			sb.WriteString(s)
		}
	}
	return runtime.StringValue{Val: sb.String()}, nil
}

func (i *Interpreter) evaluateListLiteral(n *ast.ListLiteral, env *runtime.Environment) (runtime.Value, error) {
	elems := make([]runtime.Value, len(n.Elements))
	for idx, e := range n.Elements {
		v, err := i.evaluateExpression(e, env)
		if err != nil {
			return nil, err
		}
		elems[idx] = v
	}
	return &runtime.ListValue{Elements: elems}, nil
}

func (i *Interpreter) evaluateDictLiteral(n *ast.DictLiteral, env *runtime.Environment) (runtime.Value, error) {
	dict := runtime.NewDict()
	for _, entry := range n.Entries {
		kv, err := i.evaluateExpression(entry.Key, env)
		if err != nil {
			return nil, err
		}
		key, err := i.rawStringify(kv)
		if err != nil {
			return nil, err
		}
		vv, err := i.evaluateExpression(entry.Value, env)
		if err != nil {
			return nil, err
		}
		dict.Set(key, vv)
	}
	return dict, nil
}

func (i *Interpreter) evaluateRangeExpr(n *ast.RangeExpr, env *runtime.Environment) (runtime.Value, error) {
	start, err := i.evaluateExpression(n.Start, env)
	if err != nil {
		return nil, err
	}
	end, err := i.evaluateExpression(n.End, env)
	if err != nil {
		return nil, err
	}
	s, ok := asInt(start)
	if !ok {
		return nil, fmt.Errorf("line %d: range bounds must be integers", n.Pos.Line)
	}
	e, ok := asInt(end)
	if !ok {
		return nil, fmt.Errorf("line %d: range bounds must be integers", n.Pos.Line)
	}
	return runtime.RangeValue{Start: s, End: e, Inclusive: n.Inclusive}, nil
}

func asInt(v runtime.Value) (int64, bool) {
	switch n := v.(type) {
	case runtime.IntegerValue:
		return n.Val, true
	case runtime.FloatValue:
		return int64(n.Val), true
	default:
		return 0, false
	}
}

//-----------------------------------------------------------------------------
// Operators
//-----------------------------------------------------------------------------

func isTruthy(v runtime.Value) bool {
	switch val := v.(type) {
	case runtime.NilValue:
		return false
	case runtime.BoolValue:
		return val.Val
	case runtime.IntegerValue:
		return val.Val != 0
	case runtime.FloatValue:
		return val.Val != 0
	case runtime.StringValue:
		return val.Val != ""
	case *runtime.ListValue:
		return len(val.Elements) != 0
	default:
		return true
	}
}

func (i *Interpreter) evaluateUnaryExpr(n *ast.UnaryExpr, env *runtime.Environment) (runtime.Value, error) {
	operand, err := i.evaluateExpression(n.Operand, env)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "-":
		switch v := operand.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: -v.Val}, nil
		case runtime.FloatValue:
			return runtime.FloatValue{Val: -v.Val}, nil
		default:
			return nil, fmt.Errorf("line %d: '-' requires a number, got %s", n.Pos.Line, operand.Kind())
		}
	case "not":
		return runtime.BoolValue{Val: !isTruthy(operand)}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown unary operator %q", n.Pos.Line, n.Operator)
	}
}

func (i *Interpreter) evaluateBinaryExpr(n *ast.BinaryExpr, env *runtime.Environment) (runtime.Value, error) {
	switch n.Operator {
	case "and":
		left, err := i.evaluateExpression(n.Left, env)
		if err != nil {
			return nil, err
		}
		if !isTruthy(left) {
			return left, nil
		}
		return i.evaluateExpression(n.Right, env)
	case "or":
		left, err := i.evaluateExpression(n.Left, env)
		if err != nil {
			return nil, err
		}
		if isTruthy(left) {
			return left, nil
		}
		return i.evaluateExpression(n.Right, env)
	}

	left, err := i.evaluateExpression(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "==":
		return runtime.BoolValue{Val: i.valuesEqual(left, right)}, nil
	case "!=":
		return runtime.BoolValue{Val: !i.valuesEqual(left, right)}, nil
	case "<", "<=", ">", ">=":
		return i.compareValues(n.Operator, left, right, n.Pos.Line)
	case "+":
		return i.evaluateAdd(left, right, n.Pos.Line)
	case "-", "*", "/", "//", "%", "**":
		return i.evaluateArithmetic(n.Operator, left, right, n.Pos.Line)
	default:
		return nil, fmt.Errorf("line %d: unknown binary operator %q", n.Pos.Line, n.Operator)
	}
}

// evaluateAdd implements `+`'s three personalities: numeric addition,
// list concatenation, and string concatenation (which stringifies
// whichever side isn't already a string).
func (i *Interpreter) evaluateAdd(left, right runtime.Value, line int) (runtime.Value, error) {
	ls, lIsStr := left.(runtime.StringValue)
	rs, rIsStr := right.(runtime.StringValue)
	if lIsStr || rIsStr {
		var lstr, rstr string
		var err error
		if lIsStr {
			lstr = ls.Val
		} else if lstr, err = i.rawStringify(left); err != nil {
			return nil, err
		}
		if rIsStr {
			rstr = rs.Val
		} else if rstr, err = i.rawStringify(right); err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: lstr + rstr}, nil
	}
	if ll, ok := left.(*runtime.ListValue); ok {
		if rl, ok := right.(*runtime.ListValue); ok {
			out := make([]runtime.Value, 0, len(ll.Elements)+len(rl.Elements))
			out = append(out, ll.Elements...)
			out = append(out, rl.Elements...)
			return &runtime.ListValue{Elements: out}, nil
		}
		return nil, fmt.Errorf("line %d: cannot add list and %s", line, right.Kind())
	}
	return i.evaluateArithmetic("+", left, right, line)
}

func (i *Interpreter) evaluateArithmetic(op string, left, right runtime.Value, line int) (runtime.Value, error) {
	// String * int repeats the string, independent of the numeric path.
	if op == "*" {
		if ls, ok := left.(runtime.StringValue); ok {
			if n, ok := right.(runtime.IntegerValue); ok {
				return runtime.StringValue{Val: strings.Repeat(ls.Val, maxInt(0, int(n.Val)))}, nil
			}
		}
		if rs, ok := right.(runtime.StringValue); ok {
			if n, ok := left.(runtime.IntegerValue); ok {
				return runtime.StringValue{Val: strings.Repeat(rs.Val, maxInt(0, int(n.Val)))}, nil
			}
		}
	}

	lf, lIsFloat, lok := numeric(left)
	rf, rIsFloat, rok := numeric(right)
	if !lok || !rok {
		return nil, fmt.Errorf("line %d: '%s' requires numbers, got %s and %s", line, op, left.Kind(), right.Kind())
	}

	// Floor (truncating) division always answers an integer, regardless of
	// whether either operand was a float.
	if op == "//" {
		if rf == 0 {
			return nil, raiseSignal{value: runtime.StringValue{Val: fmt.Sprintf("line %d: division by zero", line)}}
		}
		return runtime.IntegerValue{Val: int64(lf / rf)}, nil
	}

	if !lIsFloat && !rIsFloat {
		li := left.(runtime.IntegerValue).Val
		ri := right.(runtime.IntegerValue).Val
		switch op {
		case "+":
			return runtime.IntegerValue{Val: li + ri}, nil
		case "-":
			return runtime.IntegerValue{Val: li - ri}, nil
		case "*":
			return runtime.IntegerValue{Val: li * ri}, nil
		case "%":
			if ri == 0 {
				return nil, raiseSignal{value: runtime.StringValue{Val: fmt.Sprintf("line %d: modulo by zero", line)}}
			}
			return runtime.IntegerValue{Val: li % ri}, nil
		case "/":
			if ri == 0 {
				return nil, raiseSignal{value: runtime.StringValue{Val: fmt.Sprintf("line %d: division by zero", line)}}
			}
			return runtime.FloatValue{Val: float64(li) / float64(ri)}, nil
		case "**":
			return runtime.IntegerValue{Val: int64(math.Pow(float64(li), float64(ri)))}, nil
		}
	}

	switch op {
	case "+":
		return runtime.FloatValue{Val: lf + rf}, nil
	case "-":
		return runtime.FloatValue{Val: lf - rf}, nil
	case "*":
		return runtime.FloatValue{Val: lf * rf}, nil
	case "/":
		if rf == 0 {
			return nil, raiseSignal{value: runtime.StringValue{Val: fmt.Sprintf("line %d: division by zero", line)}}
		}
		return runtime.FloatValue{Val: lf / rf}, nil
	case "%":
		if rf == 0 {
			return nil, raiseSignal{value: runtime.StringValue{Val: fmt.Sprintf("line %d: modulo by zero", line)}}
		}
		return runtime.FloatValue{Val: math.Mod(lf, rf)}, nil
	case "**":
		return runtime.FloatValue{Val: math.Pow(lf, rf)}, nil
	}
	return nil, fmt.Errorf("line %d: unknown arithmetic operator %q", line, op)
}

func numeric(v runtime.Value) (float64, bool, bool) {
	switch n := v.(type) {
	case runtime.IntegerValue:
		return float64(n.Val), false, true
	case runtime.FloatValue:
		return n.Val, true, true
	default:
		return 0, false, false
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (i *Interpreter) compareValues(op string, left, right runtime.Value, line int) (runtime.Value, error) {
	lf, _, lok := numeric(left)
	rf, _, rok := numeric(right)
	if lok && rok {
		return runtime.BoolValue{Val: compareFloats(op, lf, rf)}, nil
	}
	ls, lIsStr := left.(runtime.StringValue)
	rs, rIsStr := right.(runtime.StringValue)
	if lIsStr && rIsStr {
		return runtime.BoolValue{Val: compareStrings(op, ls.Val, rs.Val)}, nil
	}
	return nil, fmt.Errorf("line %d: cannot compare %s and %s", line, left.Kind(), right.Kind())
}

func compareFloats(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

func compareStrings(op string, l, r string) bool {
	switch op {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

// valuesEqual implements §4.3: same-tag structural equality for
// primitives, strings, lists (recursive), and dicts (recursive, resolving
// Open Question 3 the same direction as lists rather than by identity);
// functions/classes/instances/generators/promises compare by identity.
func (i *Interpreter) valuesEqual(a, b runtime.Value) bool {
	switch av := a.(type) {
	case runtime.NilValue:
		_, ok := b.(runtime.NilValue)
		return ok
	case runtime.BoolValue:
		bv, ok := b.(runtime.BoolValue)
		return ok && av.Val == bv.Val
	case runtime.IntegerValue:
		switch bv := b.(type) {
		case runtime.IntegerValue:
			return av.Val == bv.Val
		case runtime.FloatValue:
			return float64(av.Val) == bv.Val
		}
		return false
	case runtime.FloatValue:
		switch bv := b.(type) {
		case runtime.FloatValue:
			return av.Val == bv.Val
		case runtime.IntegerValue:
			return av.Val == float64(bv.Val)
		}
		return false
	case runtime.StringValue:
		bv, ok := b.(runtime.StringValue)
		return ok && av.Val == bv.Val
	case *runtime.ListValue:
		bv, ok := b.(*runtime.ListValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for idx := range av.Elements {
			if !i.valuesEqual(av.Elements[idx], bv.Elements[idx]) {
				return false
			}
		}
		return true
	case *runtime.DictValue:
		bv, ok := b.(*runtime.DictValue)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			one, _ := av.Get(k)
			other, ok := bv.Get(k)
			if !ok || !i.valuesEqual(one, other) {
				return false
			}
		}
		return true
	case runtime.RangeValue:
		bv, ok := b.(runtime.RangeValue)
		return ok && av == bv
	default:
		return a == b
	}
}

func (i *Interpreter) evaluateTernaryExpr(n *ast.TernaryExpr, env *runtime.Environment) (runtime.Value, error) {
	cond, err := i.evaluateExpression(n.Condition, env)
	if err != nil {
		return nil, err
	}
	if isTruthy(cond) {
		return i.evaluateExpression(n.Then, env)
	}
	return i.evaluateExpression(n.Else, env)
}

//-----------------------------------------------------------------------------
// Assignment & binding
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateAssignExpr(n *ast.AssignExpr, env *runtime.Environment) (runtime.Value, error) {
	value, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	if err := i.assignTo(n.Target, value, env); err != nil {
		return nil, err
	}
	return value, nil
}

// assignTo implements every lvalue form §4.4.2 names: a bare identifier
// (set-or-define), a member access, an index, or — for destructuring — a
// list literal whose own elements are themselves lvalues.
func (i *Interpreter) assignTo(target ast.Expression, value runtime.Value, env *runtime.Environment) error {
	switch t := target.(type) {
	case *ast.Identifier:
		env.Set(t.Name, value)
		return nil
	case *ast.MemberAccessExpr:
		obj, err := i.evaluateExpression(t.Object, env)
		if err != nil {
			return err
		}
		inst, ok := obj.(*runtime.InstanceValue)
		if !ok {
			return fmt.Errorf("line %d: cannot assign a field on a %s", t.Pos.Line, obj.Kind())
		}
		inst.Fields.Set(t.Member.Name, value)
		return nil
	case *ast.IndexExpr:
		obj, err := i.evaluateExpression(t.Object, env)
		if err != nil {
			return err
		}
		idxVal, err := i.evaluateExpression(t.Index, env)
		if err != nil {
			return err
		}
		return i.assignIndex(obj, idxVal, value, t.Pos.Line)
	case *ast.ListLiteral:
		return i.destructureAssign(t.Elements, value, env, t.Pos.Line)
	default:
		return fmt.Errorf("line %d: invalid assignment target", target.Position().Line)
	}
}

func (i *Interpreter) assignIndex(obj, idxVal, value runtime.Value, line int) error {
	list, ok := obj.(*runtime.ListValue)
	if !ok {
		if dict, ok := obj.(*runtime.DictValue); ok {
			key, err := i.rawStringify(idxVal)
			if err != nil {
				return err
			}
			dict.Set(key, value)
			return nil
		}
		return fmt.Errorf("line %d: cannot index-assign a %s", line, obj.Kind())
	}
	idx, ok := asInt(idxVal)
	if !ok {
		return fmt.Errorf("line %d: list index must be an integer", line)
	}
	if idx < 0 || int(idx) >= len(list.Elements) {
		return nil // matches read-side clamping: out-of-range writes are silently ignored
	}
	list.Elements[idx] = value
	return nil
}

// destructureAssign implements `[a, b] = expr`: source must be a list;
// extra target slots get null, extra source elements are ignored.
func (i *Interpreter) destructureAssign(targets []ast.Expression, value runtime.Value, env *runtime.Environment, line int) error {
	list, ok := value.(*runtime.ListValue)
	if !ok {
		return fmt.Errorf("line %d: destructuring assignment requires a list value", line)
	}
	for idx, target := range targets {
		var elem runtime.Value = runtime.NilValue{}
		if idx < len(list.Elements) {
			elem = list.Elements[idx]
		}
		if err := i.assignTo(target, elem, env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) evaluateDesignateExpr(n *ast.DesignateExpr, env *runtime.Environment) (runtime.Value, error) {
	value, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	if err := i.bindPattern(n.Target, value, env); err != nil {
		return nil, err
	}
	return value, nil
}

// bindPattern always defines (shadows) in the current scope — this is
// `designate`'s contract, and also how function-call parameter binding
// and loop/pattern variables are bound.
func (i *Interpreter) bindPattern(pat ast.Pattern, value runtime.Value, env *runtime.Environment) error {
	switch p := pat.(type) {
	case *ast.IdentifierPattern:
		env.Define(p.Name, value)
		return nil
	case *ast.WildcardPattern:
		return nil
	case *ast.ListPattern:
		list, ok := value.(*runtime.ListValue)
		if !ok {
			return fmt.Errorf("line %d: cannot destructure a %s", p.Pos.Line, value.Kind())
		}
		for idx, elPat := range p.Elements {
			var elem runtime.Value = runtime.NilValue{}
			if idx < len(list.Elements) {
				elem = list.Elements[idx]
			}
			if err := i.bindPattern(elPat, elem, env); err != nil {
				return err
			}
		}
		if p.Rest != nil {
			var rest []runtime.Value
			if len(list.Elements) > len(p.Elements) {
				rest = append(rest, list.Elements[len(p.Elements):]...)
			}
			if err := i.bindPattern(p.Rest, &runtime.ListValue{Elements: rest}, env); err != nil {
				return err
			}
		}
		return nil
	case *ast.LiteralPattern:
		return fmt.Errorf("line %d: a literal pattern cannot appear in a binding position", p.Pos.Line)
	default:
		return fmt.Errorf("line %d: unsupported pattern", pat.Position().Line)
	}
}

//-----------------------------------------------------------------------------
// Calls
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateCallExpr(n *ast.CallExpr, env *runtime.Environment) (runtime.Value, error) {
	args, err := i.evaluateArgs(n.Args, env)
	if err != nil {
		return nil, err
	}

	if member, ok := n.Callee.(*ast.MemberAccessExpr); ok {
		obj, err := i.evaluateExpression(member.Object, env)
		if err != nil {
			return nil, err
		}
		callee, err := i.memberAccess(obj, member.Member.Name, env, n.Pos.Line)
		if err != nil {
			return nil, err
		}
		return i.invoke(callee, args, n.Pos.Line)
	}

	callee, err := i.evaluateExpression(n.Callee, env)
	if err != nil {
		return nil, err
	}
	return i.invoke(callee, args, n.Pos.Line)
}

func (i *Interpreter) evaluateArgs(nodes []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	var args []runtime.Value
	for _, a := range nodes {
		if spread, ok := a.(*ast.SpreadExpr); ok {
			v, err := i.evaluateExpression(spread.Value, env)
			if err != nil {
				return nil, err
			}
			list, ok := v.(*runtime.ListValue)
			if !ok {
				return nil, fmt.Errorf("line %d: ...spread requires a list, got %s", spread.Pos.Line, v.Kind())
			}
			args = append(args, list.Elements...)
			continue
		}
		v, err := i.evaluateExpression(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// invoke dispatches a call to whatever kind of callable value produced
// it. Method calls pass their receiver and defining class through
// invokeBound so `ascend` inside the method body resolves correctly.
func (i *Interpreter) invoke(callee runtime.Value, args []runtime.Value, line int) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return i.callFunction(fn, args, nil, nil)
	case runtime.NativeFunctionValue:
		return i.callNative(fn, args)
	case runtime.BoundMethodValue:
		return i.invokeBound(fn, args)
	case runtime.NativeBoundMethodValue:
		ctx := i.nativeContext(i.global)
		full := append([]runtime.Value{fn.Receiver}, args...)
		return fn.Method.Impl(ctx, full)
	default:
		return nil, fmt.Errorf("line %d: value of kind %s is not callable", line, callee.Kind())
	}
}

func (i *Interpreter) invokeBound(bm runtime.BoundMethodValue, args []runtime.Value) (runtime.Value, error) {
	var class *runtime.ClassValue
	if inst, ok := bm.Receiver.(*runtime.InstanceValue); ok {
		class = inst.Class
	}
	return i.callFunction(bm.Method, args, bm.Receiver, class)
}

func (i *Interpreter) callNative(fn runtime.NativeFunctionValue, args []runtime.Value) (runtime.Value, error) {
	if fn.Arity >= 0 && len(args) != fn.Arity {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", fn.Name, fn.Arity, len(args))
	}
	return fn.Impl(i.nativeContext(i.global), args)
}

func (i *Interpreter) nativeContext(env *runtime.Environment) *runtime.NativeCallContext {
	return &runtime.NativeCallContext{
		Env: env,
		Emit: func(kind, payload string) {
			i.emit(voiceEventKindNamed(kind), payload, 0)
		},
		Print: func(line string) {
			fmt.Fprintln(i.out, line)
		},
		Await: func(v runtime.Value) (runtime.Value, error) { return i.awaitValue(v) },
		Invoke: func(fn runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return i.invoke(fn, args, 0)
		},
		Stringify: i.stringifyValue,
		Receive: func() runtime.Value {
			co := i.currentCoroutine()
			if co == nil {
				return runtime.NilValue{}
			}
			return co.takeSent()
		},
	}
}

// voiceEventKindNamed lets built-ins (which live in the runtime-agnostic
// NativeCallContext, and so cannot name a voice.EventKind directly) request
// a voice event by name without the runtime package importing pkg/voice.
func voiceEventKindNamed(name string) voice.EventKind {
	switch name {
	case "banner":
		return voice.EventBanner
	case "goodbye":
		return voice.EventGoodbye
	case "prompt":
		return voice.EventPrompt
	case "scheme_enter":
		return voice.EventSchemeEnter
	case "scheme_exit":
		return voice.EventSchemeExit
	case "preview":
		return voice.EventPreview
	case "override":
		return voice.EventOverride
	case "absolute_failure":
		return voice.EventAbsoluteFailure
	case "anomaly_enter":
		return voice.EventAnomalyEnter
	case "anomaly_exit":
		return voice.EventAnomalyExit
	default:
		return voice.EventAnomaly
	}
}

// callFunction implements §4.4.3's function-call protocol: a fresh
// environment parented to the closure, self bound if present, parameters
// bound positionally/defaults/rest, and — for a sequence — a Generator
// wrapping an unstarted Coroutine instead of executing the body.
func (i *Interpreter) callFunction(fn *runtime.FunctionValue, args []runtime.Value, self runtime.Value, definingClass *runtime.ClassValue) (runtime.Value, error) {
	callEnv := fn.Closure.Extend()
	if self != nil {
		callEnv.Define("self", self)
	}
	if err := i.bindParams(fn.Params, args, callEnv); err != nil {
		return nil, err
	}

	if fn.IsSequence {
		co := newCoroutine(i, fn, callEnv)
		return &runtime.GeneratorValue{Name: fn.Name, Co: co}, nil
	}

	if definingClass != nil {
		i.pushClass(definingClass)
		defer i.popClass()
	}
	return i.runFunctionBody(fn, callEnv)
}

func (i *Interpreter) bindParams(params []*ast.Parameter, args []runtime.Value, env *runtime.Environment) error {
	pos := 0
	for _, p := range params {
		if p.IsRest {
			var rest []runtime.Value
			if pos < len(args) {
				rest = append(rest, args[pos:]...)
			}
			if err := i.bindPattern(p.Pattern, &runtime.ListValue{Elements: rest}, env); err != nil {
				return err
			}
			pos = len(args)
			continue
		}
		var val runtime.Value
		switch {
		case pos < len(args):
			val = args[pos]
			pos++
		case p.Default != nil:
			v, err := i.evaluateExpression(p.Default, env)
			if err != nil {
				return err
			}
			val = v
		default:
			val = runtime.NilValue{}
		}
		if err := i.bindPattern(p.Pattern, val, env); err != nil {
			return err
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// Member access, index, slice
//-----------------------------------------------------------------------------

// memberAccess implements §4.4.1: field lookup first, then the method
// table walking the parent chain, with the `_`-prefix privacy rule
// (accessible only when the caller's own bound `self` is this object).
func (i *Interpreter) memberAccess(obj runtime.Value, name string, env *runtime.Environment, line int) (runtime.Value, error) {
	inst, ok := obj.(*runtime.InstanceValue)
	if !ok {
		return i.memberAccessNonInstance(obj, name, line)
	}
	if strings.HasPrefix(name, "_") {
		self, _ := env.Get("self")
		if self != inst {
			return nil, fmt.Errorf("line %d: '%s' is private", line, name)
		}
	}
	if v, ok := inst.Fields.Snapshot()[name]; ok {
		return v, nil
	}
	if method, _ := inst.Class.LookupMethod(name); method != nil {
		return runtime.BoundMethodValue{Receiver: inst, Method: method}, nil
	}
	return nil, fmt.Errorf("line %d: %s has no member '%s'", line, inst.Class.Name, name)
}

// memberAccessNonInstance covers the one non-instance case that has
// members at all: a class value's own method table, reachable without an
// instance (e.g. `SomeEntity.construct`). Every other built-in type is
// manipulated exclusively through free functions (measure, push, split,
// proceed, ...), not dot-syntax, so any other member access is an error.
func (i *Interpreter) memberAccessNonInstance(obj runtime.Value, name string, line int) (runtime.Value, error) {
	class, ok := obj.(*runtime.ClassValue)
	if !ok {
		return nil, fmt.Errorf("line %d: value of kind %s has no member '%s'", line, obj.Kind(), name)
	}
	if method, _ := class.LookupMethod(name); method != nil {
		return method, nil
	}
	return nil, fmt.Errorf("line %d: class %s has no static member '%s'", line, class.Name, name)
}

func (i *Interpreter) evaluateIndexExpr(n *ast.IndexExpr, env *runtime.Environment) (runtime.Value, error) {
	obj, err := i.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	idxVal, err := i.evaluateExpression(n.Index, env)
	if err != nil {
		return nil, err
	}
	return i.indexValue(obj, idxVal, n.Pos.Line)
}

// indexValue implements §4.4.1: negative indices are NOT wrapped, they
// are simply out of range; out-of-range yields null rather than erroring.
func (i *Interpreter) indexValue(obj, idxVal runtime.Value, line int) (runtime.Value, error) {
	switch v := obj.(type) {
	case *runtime.ListValue:
		idx, ok := asInt(idxVal)
		if !ok || idx < 0 || int(idx) >= len(v.Elements) {
			return runtime.NilValue{}, nil
		}
		return v.Elements[idx], nil
	case runtime.StringValue:
		idx, ok := asInt(idxVal)
		runes := []rune(v.Val)
		if !ok || idx < 0 || int(idx) >= len(runes) {
			return runtime.NilValue{}, nil
		}
		return runtime.StringValue{Val: string(runes[idx])}, nil
	case *runtime.DictValue:
		key, err := i.rawStringify(idxVal)
		if err != nil {
			return nil, err
		}
		if val, ok := v.Get(key); ok {
			return val, nil
		}
		return runtime.NilValue{}, nil
	default:
		return nil, fmt.Errorf("line %d: cannot index a %s", line, obj.Kind())
	}
}

// evaluateSliceExpr implements `list[start:end:step]`: negative bounds
// wrap by length, negative step reverses, a step of 0 is an error.
func (i *Interpreter) evaluateSliceExpr(n *ast.SliceExpr, env *runtime.Environment) (runtime.Value, error) {
	obj, err := i.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	list, ok := obj.(*runtime.ListValue)
	var runes []rune
	var isString bool
	if !ok {
		sv, ok2 := obj.(runtime.StringValue)
		if !ok2 {
			return nil, fmt.Errorf("line %d: cannot slice a %s", n.Pos.Line, obj.Kind())
		}
		isString = true
		runes = []rune(sv.Val)
	}
	length := len(runes)
	if !isString {
		length = len(list.Elements)
	}

	step := int64(1)
	if n.Step != nil {
		sv, err := i.evaluateExpression(n.Step, env)
		if err != nil {
			return nil, err
		}
		step, _ = asInt(sv)
		if step == 0 {
			return nil, fmt.Errorf("line %d: slice step cannot be zero", n.Pos.Line)
		}
	}

	defaultStart, defaultEnd := int64(0), int64(length)
	if step < 0 {
		defaultStart, defaultEnd = int64(length)-1, -1
	}
	start := defaultStart
	if n.Start != nil {
		sv, err := i.evaluateExpression(n.Start, env)
		if err != nil {
			return nil, err
		}
		raw, _ := asInt(sv)
		start = wrapSliceIndex(raw, length)
	}
	end := defaultEnd
	if n.End != nil {
		ev, err := i.evaluateExpression(n.End, env)
		if err != nil {
			return nil, err
		}
		raw, _ := asInt(ev)
		end = wrapSliceIndex(raw, length)
	}

	var idxs []int64
	if step > 0 {
		for k := start; k < end; k += step {
			if k >= 0 && k < int64(length) {
				idxs = append(idxs, k)
			}
		}
	} else {
		for k := start; k > end; k += step {
			if k >= 0 && k < int64(length) {
				idxs = append(idxs, k)
			}
		}
	}

	if isString {
		var sb strings.Builder
		for _, k := range idxs {
			sb.WriteRune(runes[k])
		}
		return runtime.StringValue{Val: sb.String()}, nil
	}
	out := make([]runtime.Value, len(idxs))
	for j, k := range idxs {
		out[j] = list.Elements[k]
	}
	return &runtime.ListValue{Elements: out}, nil
}

func wrapSliceIndex(raw int64, length int) int64 {
	if raw < 0 {
		raw += int64(length)
	}
	return raw
}

//-----------------------------------------------------------------------------
// Lambdas, classes, ascend
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateLambdaExpr(n *ast.LambdaExpr, env *runtime.Environment) (runtime.Value, error) {
	return &runtime.FunctionValue{Params: n.Params, Body: n.Body, Closure: env}, nil
}

func (i *Interpreter) evaluateManifestExpr(n *ast.ManifestExpr, env *runtime.Environment) (runtime.Value, error) {
	classVal, err := i.evaluateExpression(n.Class, env)
	if err != nil {
		return nil, err
	}
	class, ok := classVal.(*runtime.ClassValue)
	if !ok {
		return nil, fmt.Errorf("line %d: manifest requires a class, got %s", n.Pos.Line, classVal.Kind())
	}
	args, err := i.evaluateArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	instance := &runtime.InstanceValue{Class: class, Fields: runtime.NewEnvironment(nil)}
	if ctor, defClass := class.LookupMethod("construct"); ctor != nil {
		if _, err := i.callFunction(ctor, args, instance, defClass); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// evaluateAscendCallExpr resolves `ascend name(args)` on the parent of
// the currently executing method's defining class, then invokes it with
// the current `self` — a super-call, not a fresh dispatch from self's
// actual class.
func (i *Interpreter) evaluateAscendCallExpr(n *ast.AscendCallExpr, env *runtime.Environment) (runtime.Value, error) {
	self, err := env.Get("self")
	if err != nil {
		return nil, fmt.Errorf("line %d: ascend used outside a method", n.Pos.Line)
	}
	defining := i.currentClass()
	if defining == nil || defining.Parent == nil {
		return nil, fmt.Errorf("line %d: ascend has no parent class to call into", n.Pos.Line)
	}
	method, foundIn := defining.Parent.LookupMethod(n.Method)
	if method == nil {
		return nil, fmt.Errorf("line %d: parent class %s has no method '%s'", n.Pos.Line, defining.Parent.Name, n.Method)
	}
	args, err := i.evaluateArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	return i.callFunction(method, args, self, foundIn)
}

//-----------------------------------------------------------------------------
// Generators: yield / delegate / await / comprehensions
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateYieldExpr(n *ast.YieldExpr, env *runtime.Environment) (runtime.Value, error) {
	co := i.currentCoroutine()
	if co == nil {
		return nil, fmt.Errorf("line %d: yield used outside a sequence", n.Pos.Line)
	}
	var val runtime.Value = runtime.NilValue{}
	if n.Value != nil {
		v, err := i.evaluateExpression(n.Value, env)
		if err != nil {
			return nil, err
		}
		val = v
	}
	return co.yield(val)
}

func (i *Interpreter) evaluateDelegateExpr(n *ast.DelegateExpr, env *runtime.Environment) (runtime.Value, error) {
	co := i.currentCoroutine()
	if co == nil {
		return nil, fmt.Errorf("line %d: delegate used outside a sequence", n.Pos.Line)
	}
	iterable, err := i.evaluateExpression(n.Iterable, env)
	if err != nil {
		return nil, err
	}
	err = i.forEachValue(iterable, func(v runtime.Value) (bool, error) {
		if _, yerr := co.yield(v); yerr != nil {
			return true, yerr
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return runtime.NilValue{}, nil
}

// evaluateAwaitExpr implements §5: a resolved promise yields its result,
// a pending one passes through unchanged, and a generator is pulled once.
func (i *Interpreter) evaluateAwaitExpr(n *ast.AwaitExpr, env *runtime.Environment) (runtime.Value, error) {
	v, err := i.evaluateExpression(n.Operand, env)
	if err != nil {
		return nil, err
	}
	return i.awaitValue(v)
}

func (i *Interpreter) awaitValue(v runtime.Value) (runtime.Value, error) {
	switch val := v.(type) {
	case *runtime.PromiseValue:
		result, errVal, status := val.Await()
		if status == runtime.PromiseRejected {
			return nil, raiseSignal{value: errVal}
		}
		if status == runtime.PromisePending {
			return val, nil
		}
		return result, nil
	case *runtime.GeneratorValue:
		value, _, err := val.Co.Resume(nil, false, nil, false)
		if err != nil {
			return nil, unwrapGeneratorError(err)
		}
		return value, nil
	default:
		return v, nil
	}
}

func (i *Interpreter) evaluateGeneratorExpr(n *ast.GeneratorExpr, env *runtime.Environment) (runtime.Value, error) {
	source, err := i.evaluateExpression(n.Source, env)
	if err != nil {
		return nil, err
	}
	co := newComprehensionCoroutine(i, func(yield func(runtime.Value) (runtime.Value, error)) error {
		genEnv := env.Extend()
		return i.forEachValue(source, func(item runtime.Value) (bool, error) {
			if err := i.bindPattern(n.Var, item, genEnv); err != nil {
				return true, err
			}
			if n.Guard != nil {
				g, err := i.evaluateExpression(n.Guard, genEnv)
				if err != nil {
					return true, err
				}
				if !isTruthy(g) {
					return false, nil
				}
			}
			elVal, err := i.evaluateExpression(n.Element, genEnv)
			if err != nil {
				return true, err
			}
			if _, err := yield(elVal); err != nil {
				return true, err
			}
			return false, nil
		})
	})
	return &runtime.GeneratorValue{Name: "generator_expr", Co: co}, nil
}

func (i *Interpreter) evaluateListCompExpr(n *ast.ListCompExpr, env *runtime.Environment) (runtime.Value, error) {
	source, err := i.evaluateExpression(n.Source, env)
	if err != nil {
		return nil, err
	}
	compEnv := env.Extend()
	var out []runtime.Value
	err = i.forEachValue(source, func(item runtime.Value) (bool, error) {
		if err := i.bindPattern(n.Var, item, compEnv); err != nil {
			return true, err
		}
		if n.Guard != nil {
			g, err := i.evaluateExpression(n.Guard, compEnv)
			if err != nil {
				return true, err
			}
			if !isTruthy(g) {
				return false, nil
			}
		}
		elVal, err := i.evaluateExpression(n.Element, compEnv)
		if err != nil {
			return true, err
		}
		out = append(out, elVal)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return &runtime.ListValue{Elements: out}, nil
}

//-----------------------------------------------------------------------------
// Named protocol/sequence definitions (expression position)
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateProtocolDef(n *ast.ProtocolDef, env *runtime.Environment) (runtime.Value, error) {
	fn := &runtime.FunctionValue{Name: n.Name, Params: n.Params, Body: n.Body, Closure: env}
	if n.Name != "" {
		env.Define(n.Name, fn)
	}
	return fn, nil
}

func (i *Interpreter) evaluateSequenceDef(n *ast.SequenceDef, env *runtime.Environment) (runtime.Value, error) {
	fn := &runtime.FunctionValue{Name: n.Name, Params: n.Params, Body: n.Body, Closure: env, IsSequence: true}
	if n.Name != "" {
		env.Define(n.Name, fn)
	}
	return fn, nil
}

