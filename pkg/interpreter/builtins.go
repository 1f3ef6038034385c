package interpreter

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kei-lang/kei/pkg/runtime"
)

// installBuiltins populates env with every free function named in the
// built-in registry: I/O, type conversion, math, string/list ops,
// map/filter/reduce, JSON, time/exit, file I/O, and generator/promise
// control. Each is a runtime.NativeFunctionValue closing over nothing but
// the NativeCallContext handed to it at call time (see eval_expressions.go
// callNative), so none of them need to see *Interpreter directly.
func installBuiltins(i *Interpreter, env *runtime.Environment) {
	def := func(name string, arity int, fn runtime.NativeFunc) {
		env.Define(name, runtime.NativeFunctionValue{Name: name, Arity: arity, Impl: fn})
	}

	def("declare", -1, builtinPrint)
	def("announce", -1, builtinPrint)
	def("inquire", -1, builtinInquire)
	def("measure", 1, builtinMeasure)
	def("span", -1, builtinSpan)

	def("text", 1, builtinText)
	def("number", 1, builtinNumber)
	def("decimal", 1, builtinDecimal)
	def("boolean", 1, builtinBoolean)
	def("classify", 1, builtinClassify)

	def("abs", 1, builtinAbs)
	def("sqrt", 1, builtinSqrt)
	def("min", -1, builtinMin)
	def("max", -1, builtinMax)
	def("random", -1, builtinRandom)

	def("uppercase", 1, builtinUppercase)
	def("lowercase", 1, builtinLowercase)
	def("split", 2, builtinSplit)
	def("join", 2, builtinJoin)
	def("contains", 2, builtinContains)

	def("push", 2, builtinPush)
	def("reverse", 1, builtinReverse)

	def("transform", 2, builtinTransform)
	def("select", 2, builtinSelect)
	def("fold", 3, builtinFold)

	def("encode_json", 1, builtinEncodeJSON)
	def("decode_json", 1, builtinDecodeJSON)

	def("clock", 0, builtinClock)
	def("timestamp", 0, builtinTimestamp)
	def("sleep", 1, builtinSleep)
	def("terminate", -1, builtinTerminate)

	def("inscribe", 2, builtinInscribe)
	def("decipher", 1, builtinDecipher)
	def("chronicle", 2, builtinChronicle)
	def("exists", 1, builtinExists)

	def("proceed", -1, builtinProceed)
	def("transmit", 2, builtinTransmit)
	def("receive", 0, builtinReceive)
	def("disrupt", 2, builtinDisrupt)

	def("resolve", 1, builtinResolve)
	def("defer", -1, builtinDefer)
}

func argErr(name, msg string) error { return fmt.Errorf("%s: %s", name, msg) }

//-----------------------------------------------------------------------------
// I/O
//-----------------------------------------------------------------------------

// builtinPrint backs both `declare` and `announce`: space-separated
// arguments, raw (unquoted) string rendering, one trailing newline.
func builtinPrint(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	parts := make([]string, len(args))
	for idx, a := range args {
		s, err := rawStringifyCtx(ctx, a)
		if err != nil {
			return nil, err
		}
		parts[idx] = s
	}
	ctx.Print(strings.Join(parts, " "))
	return runtime.NilValue{}, nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func builtinInquire(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) > 0 {
		s, err := rawStringifyCtx(ctx, args[0])
		if err != nil {
			return nil, err
		}
		ctx.Print(s)
	}
	line, err := stdinReader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return runtime.NilValue{}, nil
	}
	return runtime.StringValue{Val: line}, nil
}

func builtinMeasure(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.StringValue:
		return runtime.IntegerValue{Val: int64(len([]rune(v.Val)))}, nil
	case *runtime.ListValue:
		return runtime.IntegerValue{Val: int64(len(v.Elements))}, nil
	case *runtime.DictValue:
		return runtime.IntegerValue{Val: int64(v.Len())}, nil
	default:
		return runtime.IntegerValue{Val: 0}, nil
	}
}

// builtinSpan backs span(end) / span(start,end) / span(start,end,step):
// an eagerly materialized list, exclusive upper bound.
func builtinSpan(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var start, end, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		e, ok := asInt(args[0])
		if !ok {
			return nil, argErr("span", "arguments must be integers")
		}
		end = e
	case 2, 3:
		s, ok1 := asInt(args[0])
		e, ok2 := asInt(args[1])
		if !ok1 || !ok2 {
			return nil, argErr("span", "arguments must be integers")
		}
		start, end = s, e
		if len(args) == 3 {
			st, ok := asInt(args[2])
			if !ok || st == 0 {
				return nil, argErr("span", "step must be a non-zero integer")
			}
			step = st
		}
	default:
		return nil, argErr("span", "expects 1 to 3 arguments")
	}
	var out []runtime.Value
	if step > 0 {
		for n := start; n < end; n += step {
			out = append(out, runtime.IntegerValue{Val: n})
		}
	} else {
		for n := start; n > end; n += step {
			out = append(out, runtime.IntegerValue{Val: n})
		}
	}
	return &runtime.ListValue{Elements: out}, nil
}

//-----------------------------------------------------------------------------
// Type conversion
//-----------------------------------------------------------------------------

func rawStringifyCtx(ctx *runtime.NativeCallContext, v runtime.Value) (string, error) {
	if sv, ok := v.(runtime.StringValue); ok {
		return sv.Val, nil
	}
	return ctx.Stringify(v)
}

func builtinText(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, err := rawStringifyCtx(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return runtime.StringValue{Val: s}, nil
}

func builtinNumber(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.IntegerValue:
		return v, nil
	case runtime.FloatValue:
		return runtime.IntegerValue{Val: int64(v.Val)}, nil
	case runtime.StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Val), 10, 64)
		if err != nil {
			return nil, argErr("number", "cannot parse '"+v.Val+"' as an integer")
		}
		return runtime.IntegerValue{Val: n}, nil
	case runtime.BoolValue:
		if v.Val {
			return runtime.IntegerValue{Val: 1}, nil
		}
		return runtime.IntegerValue{Val: 0}, nil
	default:
		return nil, argErr("number", "cannot convert "+v.Kind().String())
	}
}

func builtinDecimal(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.FloatValue:
		return v, nil
	case runtime.IntegerValue:
		return runtime.FloatValue{Val: float64(v.Val)}, nil
	case runtime.StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Val), 64)
		if err != nil {
			return nil, argErr("decimal", "cannot parse '"+v.Val+"' as a decimal")
		}
		return runtime.FloatValue{Val: f}, nil
	default:
		return nil, argErr("decimal", "cannot convert "+v.Kind().String())
	}
}

func builtinBoolean(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return runtime.BoolValue{Val: isTruthy(args[0])}, nil
}

func builtinClassify(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if inst, ok := args[0].(*runtime.InstanceValue); ok {
		return runtime.StringValue{Val: inst.Class.Name}, nil
	}
	return runtime.StringValue{Val: args[0].Kind().String()}, nil
}

//-----------------------------------------------------------------------------
// Math
//-----------------------------------------------------------------------------

func builtinAbs(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.IntegerValue:
		if v.Val < 0 {
			return runtime.IntegerValue{Val: -v.Val}, nil
		}
		return v, nil
	case runtime.FloatValue:
		return runtime.FloatValue{Val: math.Abs(v.Val)}, nil
	default:
		return nil, argErr("abs", "requires a number")
	}
}

func builtinSqrt(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	f, _, ok := numeric(args[0])
	if !ok {
		return nil, argErr("sqrt", "requires a number")
	}
	return runtime.FloatValue{Val: math.Sqrt(f)}, nil
}

func builtinMin(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return minMax(args, false)
}

func builtinMax(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return minMax(args, true)
}

func minMax(args []runtime.Value, wantMax bool) (runtime.Value, error) {
	values := args
	if len(args) == 1 {
		if list, ok := args[0].(*runtime.ListValue); ok {
			values = list.Elements
		}
	}
	if len(values) == 0 {
		return nil, argErr("min/max", "requires at least one value")
	}
	best := values[0]
	bestF, _, ok := numeric(best)
	if !ok {
		return nil, argErr("min/max", "requires numbers")
	}
	for _, v := range values[1:] {
		f, _, ok := numeric(v)
		if !ok {
			return nil, argErr("min/max", "requires numbers")
		}
		if (wantMax && f > bestF) || (!wantMax && f < bestF) {
			best, bestF = v, f
		}
	}
	return best, nil
}

// builtinRandom mirrors the teacher's convention of one multi-purpose
// random built-in: random() -> float in [0,1); random(n) -> integer in
// [0,n); random(a,b) -> integer in [a,b).
func builtinRandom(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch len(args) {
	case 0:
		return runtime.FloatValue{Val: rand.Float64()}, nil
	case 1:
		n, ok := asInt(args[0])
		if !ok || n <= 0 {
			return nil, argErr("random", "bound must be a positive integer")
		}
		return runtime.IntegerValue{Val: rand.Int63n(n)}, nil
	case 2:
		a, ok1 := asInt(args[0])
		b, ok2 := asInt(args[1])
		if !ok1 || !ok2 || b <= a {
			return nil, argErr("random", "requires a < b")
		}
		return runtime.IntegerValue{Val: a + rand.Int63n(b-a)}, nil
	default:
		return nil, argErr("random", "expects 0 to 2 arguments")
	}
}

//-----------------------------------------------------------------------------
// String / list ops
//-----------------------------------------------------------------------------

func builtinUppercase(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, argErr("uppercase", "requires a string")
	}
	return runtime.StringValue{Val: strings.ToUpper(s.Val)}, nil
}

func builtinLowercase(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, argErr("lowercase", "requires a string")
	}
	return runtime.StringValue{Val: strings.ToLower(s.Val)}, nil
}

func builtinSplit(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, ok := args[0].(runtime.StringValue)
	d, ok2 := args[1].(runtime.StringValue)
	if !ok || !ok2 {
		return nil, argErr("split", "requires two strings")
	}
	var parts []string
	if d.Val == "" {
		parts = strings.Split(s.Val, "")
	} else {
		parts = strings.Split(s.Val, d.Val)
	}
	out := make([]runtime.Value, len(parts))
	for idx, p := range parts {
		out[idx] = runtime.StringValue{Val: p}
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinJoin(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	d, ok2 := args[1].(runtime.StringValue)
	if !ok || !ok2 {
		return nil, argErr("join", "requires a list and a string")
	}
	parts := make([]string, len(list.Elements))
	for idx, el := range list.Elements {
		s, err := rawStringifyCtx(ctx, el)
		if err != nil {
			return nil, err
		}
		parts[idx] = s
	}
	return runtime.StringValue{Val: strings.Join(parts, d.Val)}, nil
}

func builtinContains(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch haystack := args[0].(type) {
	case runtime.StringValue:
		needle, ok := args[1].(runtime.StringValue)
		if !ok {
			return nil, argErr("contains", "a string haystack requires a string needle")
		}
		return runtime.BoolValue{Val: strings.Contains(haystack.Val, needle.Val)}, nil
	case *runtime.ListValue:
		for _, el := range haystack.Elements {
			if valuesEqualFree(el, args[1]) {
				return runtime.BoolValue{Val: true}, nil
			}
		}
		return runtime.BoolValue{Val: false}, nil
	case *runtime.DictValue:
		key, err := rawStringifyCtx(ctx, args[1])
		if err != nil {
			return nil, err
		}
		_, ok := haystack.Get(key)
		return runtime.BoolValue{Val: ok}, nil
	default:
		return nil, argErr("contains", "requires a string, list, or dict")
	}
}

// valuesEqualFree duplicates Interpreter.valuesEqual's structural
// comparison without needing a receiver, since built-ins only see the
// runtime-agnostic NativeCallContext.
func valuesEqualFree(a, b runtime.Value) bool {
	return (&Interpreter{}).valuesEqual(a, b)
}

func builtinPush(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, argErr("push", "requires a list")
	}
	list.Elements = append(list.Elements, args[1])
	return list, nil
}

func builtinReverse(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case *runtime.ListValue:
		out := make([]runtime.Value, len(v.Elements))
		for idx, el := range v.Elements {
			out[len(out)-1-idx] = el
		}
		return &runtime.ListValue{Elements: out}, nil
	case runtime.StringValue:
		runes := []rune(v.Val)
		for l, r := 0, len(runes)-1; l < r; l, r = l+1, r-1 {
			runes[l], runes[r] = runes[r], runes[l]
		}
		return runtime.StringValue{Val: string(runes)}, nil
	default:
		return nil, argErr("reverse", "requires a list or string")
	}
}

//-----------------------------------------------------------------------------
// map / filter / reduce
//-----------------------------------------------------------------------------

func builtinTransform(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, argErr("transform", "requires a list")
	}
	out := make([]runtime.Value, len(list.Elements))
	for idx, el := range list.Elements {
		v, err := ctx.Invoke(args[1], []runtime.Value{el})
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinSelect(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, argErr("select", "requires a list")
	}
	var out []runtime.Value
	for _, el := range list.Elements {
		v, err := ctx.Invoke(args[1], []runtime.Value{el})
		if err != nil {
			return nil, err
		}
		if isTruthy(v) {
			out = append(out, el)
		}
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinFold(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, argErr("fold", "requires a list")
	}
	acc := args[2]
	for _, el := range list.Elements {
		v, err := ctx.Invoke(args[1], []runtime.Value{acc, el})
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

//-----------------------------------------------------------------------------
// JSON
//-----------------------------------------------------------------------------

// builtinEncodeJSON renders primitives, lists, and dicts — the minimal
// JSON subset the registry calls for, not a general reflection-based
// encoder (kei values aren't Go structs, so encoding/json's reflection
// path buys nothing here; see DESIGN.md).
func builtinEncodeJSON(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var sb strings.Builder
	if err := encodeJSONValue(&sb, args[0]); err != nil {
		return nil, err
	}
	return runtime.StringValue{Val: sb.String()}, nil
}

func encodeJSONValue(sb *strings.Builder, v runtime.Value) error {
	switch val := v.(type) {
	case runtime.NilValue:
		sb.WriteString("null")
	case runtime.BoolValue:
		sb.WriteString(strconv.FormatBool(val.Val))
	case runtime.IntegerValue:
		sb.WriteString(strconv.FormatInt(val.Val, 10))
	case runtime.FloatValue:
		sb.WriteString(strconv.FormatFloat(val.Val, 'g', -1, 64))
	case runtime.StringValue:
		sb.WriteString(strconv.Quote(val.Val))
	case *runtime.ListValue:
		sb.WriteByte('[')
		for idx, el := range val.Elements {
			if idx > 0 {
				sb.WriteByte(',')
			}
			if err := encodeJSONValue(sb, el); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case *runtime.DictValue:
		sb.WriteByte('{')
		for idx, k := range val.Keys() {
			if idx > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			ev, _ := val.Get(k)
			if err := encodeJSONValue(sb, ev); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return argErr("encode_json", "cannot encode a "+v.Kind().String())
	}
	return nil
}

func builtinDecodeJSON(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, argErr("decode_json", "requires a string")
	}
	p := &jsonParser{src: s.Val}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, argErr("decode_json", "trailing data after JSON value")
	}
	return v, nil
}

// jsonParser is a small hand-rolled recursive-descent reader for the same
// primitives+lists(+dicts) subset encode_json produces — grounded in the
// project's own hand-written recursive-descent parser rather than reached
// for encoding/json, since the target is runtime.Value, not a Go struct.
type jsonParser struct {
	src string
	pos int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue() (runtime.Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, argErr("decode_json", "unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: s}, nil
	case c == 't':
		return p.expectLiteral("true", runtime.BoolValue{Val: true})
	case c == 'f':
		return p.expectLiteral("false", runtime.BoolValue{Val: false})
	case c == 'n':
		return p.expectLiteral("null", runtime.NilValue{})
	default:
		return p.parseNumber()
	}
}

func (p *jsonParser) expectLiteral(lit string, v runtime.Value) (runtime.Value, error) {
	if p.pos+len(lit) > len(p.src) || p.src[p.pos:p.pos+len(lit)] != lit {
		return nil, argErr("decode_json", "invalid literal")
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseNumber() (runtime.Value, error) {
	start := p.pos
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
		}
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if text == "" {
		return nil, argErr("decode_json", "invalid number")
	}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, argErr("decode_json", "invalid number")
		}
		return runtime.FloatValue{Val: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, argErr("decode_json", "invalid number")
	}
	return runtime.IntegerValue{Val: n}, nil
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			switch p.src[p.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(p.src[p.pos])
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	return "", argErr("decode_json", "unterminated string")
}

func (p *jsonParser) parseArray() (runtime.Value, error) {
	p.pos++ // [
	var out []runtime.Value
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return &runtime.ListValue{Elements: out}, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, argErr("decode_json", "unterminated array")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return &runtime.ListValue{Elements: out}, nil
		}
		return nil, argErr("decode_json", "expected ',' or ']'")
	}
}

func (p *jsonParser) parseObject() (runtime.Value, error) {
	p.pos++ // {
	dict := runtime.NewDict()
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return dict, nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			return nil, argErr("decode_json", "expected string key")
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, argErr("decode_json", "expected ':'")
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		dict.Set(key, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, argErr("decode_json", "unterminated object")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return dict, nil
		}
		return nil, argErr("decode_json", "expected ',' or '}'")
	}
}

//-----------------------------------------------------------------------------
// Time / exit
//-----------------------------------------------------------------------------

func builtinClock(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return runtime.FloatValue{Val: float64(time.Now().UnixNano()) / 1e9}, nil
}

func builtinTimestamp(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return runtime.IntegerValue{Val: time.Now().Unix()}, nil
}

func builtinSleep(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	ms, ok := asInt(args[0])
	if !ok || ms < 0 {
		return nil, argErr("sleep", "requires a non-negative integer of milliseconds")
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return runtime.NilValue{}, nil
}

func builtinTerminate(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	code := 0
	if len(args) > 0 {
		if n, ok := asInt(args[0]); ok {
			code = int(n)
		}
	}
	os.Exit(code)
	return runtime.NilValue{}, nil
}

//-----------------------------------------------------------------------------
// File I/O
//-----------------------------------------------------------------------------

func builtinInscribe(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	path, ok := args[0].(runtime.StringValue)
	content, ok2 := args[1].(runtime.StringValue)
	if !ok || !ok2 {
		return nil, argErr("inscribe", "requires a path and string content")
	}
	if err := os.WriteFile(path.Val, []byte(content.Val), 0o644); err != nil {
		return nil, raiseSignal{value: runtime.StringValue{Val: err.Error()}}
	}
	return runtime.NilValue{}, nil
}

func builtinDecipher(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	path, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, argErr("decipher", "requires a path")
	}
	data, err := os.ReadFile(path.Val)
	if err != nil {
		return nil, raiseSignal{value: runtime.StringValue{Val: err.Error()}}
	}
	return runtime.StringValue{Val: string(data)}, nil
}

func builtinChronicle(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	path, ok := args[0].(runtime.StringValue)
	content, ok2 := args[1].(runtime.StringValue)
	if !ok || !ok2 {
		return nil, argErr("chronicle", "requires a path and string content")
	}
	f, err := os.OpenFile(path.Val, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, raiseSignal{value: runtime.StringValue{Val: err.Error()}}
	}
	defer f.Close()
	if _, err := f.WriteString(content.Val); err != nil {
		return nil, raiseSignal{value: runtime.StringValue{Val: err.Error()}}
	}
	return runtime.NilValue{}, nil
}

func builtinExists(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	path, ok := args[0].(runtime.StringValue)
	if !ok {
		return nil, argErr("exists", "requires a path")
	}
	_, err := os.Stat(path.Val)
	return runtime.BoolValue{Val: err == nil}, nil
}

//-----------------------------------------------------------------------------
// Generator control
//-----------------------------------------------------------------------------

// generatorArg extracts the *runtime.GeneratorValue every generator
// control built-in expects as its first argument.
func generatorArg(name string, args []runtime.Value) (*runtime.GeneratorValue, error) {
	if len(args) == 0 {
		return nil, argErr(name, "requires a generator")
	}
	gen, ok := args[0].(*runtime.GeneratorValue)
	if !ok {
		return nil, argErr(name, "requires a generator")
	}
	return gen, nil
}

// builtinProceed advances one or more generators and returns a list if
// given more than one, so `proceed(gen, gen, gen)` performs three
// separate resumes of the same handle and collects their values.
func builtinProceed(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return nil, argErr("proceed", "requires at least one generator")
	}
	if len(args) == 1 {
		gen, err := generatorArg("proceed", args)
		if err != nil {
			return nil, err
		}
		val, _, err := gen.Co.Resume(nil, false, nil, false)
		if err != nil {
			return nil, unwrapGeneratorError(err)
		}
		return val, nil
	}
	out := make([]runtime.Value, len(args))
	for idx, a := range args {
		gen, ok := a.(*runtime.GeneratorValue)
		if !ok {
			return nil, argErr("proceed", "requires a generator")
		}
		val, _, err := gen.Co.Resume(nil, false, nil, false)
		if err != nil {
			return nil, unwrapGeneratorError(err)
		}
		out[idx] = val
	}
	return &runtime.ListValue{Elements: out}, nil
}

func builtinTransmit(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	gen, err := generatorArg("transmit", args)
	if err != nil {
		return nil, err
	}
	val, _, err := gen.Co.Resume(args[1], true, nil, false)
	if err != nil {
		return nil, unwrapGeneratorError(err)
	}
	return val, nil
}

// builtinReceive reads the interpreter's currently-running coroutine's
// pending sent value — only meaningful when called from inside a
// sequence body that a transmit() is resuming.
func builtinReceive(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return ctx.Receive(), nil
}

func builtinDisrupt(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	gen, err := generatorArg("disrupt", args)
	if err != nil {
		return nil, err
	}
	thrown := raiseSignal{value: args[1]}
	val, _, err := gen.Co.Resume(nil, false, thrown, true)
	if err != nil {
		return nil, unwrapGeneratorError(err)
	}
	return val, nil
}

//-----------------------------------------------------------------------------
// Promise / delayed call
//-----------------------------------------------------------------------------

func builtinResolve(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	p := runtime.NewPromise()
	p.Resolve(args[0])
	return p, nil
}

// builtinDefer returns a lazy promise for fn(extra...): the call runs
// synchronously the first time the promise is awaited (there is no
// event loop to delay it against — §5's Non-goals rule out a real
// scheduler), and its result or raised value settles the promise; ms is
// accepted for call-signature compatibility and otherwise ignored.
func builtinDefer(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) < 2 {
		return nil, argErr("defer", "requires a delay and a function")
	}
	fn := args[1]
	extra := append([]runtime.Value{}, args[2:]...)
	return runtime.NewLazyPromise(func() (runtime.Value, runtime.Value, bool) {
		v, err := ctx.Invoke(fn, extra)
		if err != nil {
			if rs, ok := err.(raiseSignal); ok {
				return nil, rs.value, true
			}
			return nil, runtime.StringValue{Val: err.Error()}, true
		}
		return v, nil, false
	}), nil
}
