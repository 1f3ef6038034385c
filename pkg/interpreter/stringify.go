package interpreter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kei-lang/kei/pkg/runtime"
)

// stringifyValue renders v for display (voice channel, declare/announce,
// preview): strings are quoted, lists and dicts render recursively, ranges
// render as `a..b`/`a...b`, and every other reference type renders as
// "<kind name>" — grounded in the teacher's
// stringifyValue/structInstanceToString, adapted to kei's flatter Kind
// enum instead of dispatching on a struct-vs-interface-vs-array tree.
func (i *Interpreter) stringifyValue(v runtime.Value) (string, error) {
	return i.stringify(v, true)
}

// rawStringify renders v the way `string + anything` and string
// interpolation want it: a String operand contributes its bytes as-is,
// with no added quoting, while every other kind renders exactly as
// stringifyValue would.
func (i *Interpreter) rawStringify(v runtime.Value) (string, error) {
	return i.stringify(v, false)
}

func (i *Interpreter) stringify(v runtime.Value, quoteStrings bool) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case runtime.NilValue:
		return "null", nil
	case runtime.BoolValue:
		if val.Val {
			return "true", nil
		}
		return "false", nil
	case runtime.IntegerValue:
		return strconv.FormatInt(val.Val, 10), nil
	case runtime.FloatValue:
		return formatFloat(val.Val), nil
	case runtime.StringValue:
		if quoteStrings {
			return strconv.Quote(val.Val), nil
		}
		return val.Val, nil
	case *runtime.ListValue:
		parts := make([]string, len(val.Elements))
		for idx, el := range val.Elements {
			s, err := i.stringify(el, true)
			if err != nil {
				return "", err
			}
			parts[idx] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case *runtime.DictValue:
		keys := val.Keys()
		parts := make([]string, len(keys))
		for idx, k := range keys {
			ev, _ := val.Get(k)
			s, err := i.stringify(ev, true)
			if err != nil {
				return "", err
			}
			parts[idx] = strconv.Quote(k) + ": " + s
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case runtime.RangeValue:
		sep := ".."
		if val.Inclusive {
			sep = "..."
		}
		return fmt.Sprintf("%d%s%d", val.Start, sep, val.End), nil
	case *runtime.FunctionValue:
		name := val.Name
		if name == "" {
			name = "anonymous"
		}
		return fmt.Sprintf("<function %s>", name), nil
	case runtime.NativeFunctionValue:
		return fmt.Sprintf("<native_function %s>", val.Name), nil
	case runtime.BoundMethodValue:
		return fmt.Sprintf("<bound_method %s>", val.Method.Name), nil
	case runtime.NativeBoundMethodValue:
		return fmt.Sprintf("<native_bound_method %s>", val.Method.Name), nil
	case *runtime.ClassValue:
		return fmt.Sprintf("<class %s>", val.Name), nil
	case *runtime.InstanceValue:
		return fmt.Sprintf("<instance %s>", val.Class.Name), nil
	case *runtime.GeneratorValue:
		return fmt.Sprintf("<generator %s %s>", val.Name, val.Co.Status()), nil
	case *runtime.PromiseValue:
		return fmt.Sprintf("<promise %s>", promiseStatusName(val.Status())), nil
	default:
		return "", fmt.Errorf("stringify: unhandled value %T", v)
	}
}

func promiseStatusName(s runtime.PromiseStatus) string {
	switch s {
	case runtime.PromisePending:
		return "pending"
	case runtime.PromiseResolved:
		return "resolved"
	case runtime.PromiseRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// formatFloat renders a float the way kei's scripts expect to read back:
// shortest round-trip digits, with ".0" appended to a whole number so it
// keeps a decimal point (exponent forms such as 1e+21 are left as is).
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
