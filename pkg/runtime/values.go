// Package runtime holds the kei value model and environment chain shared
// by the evaluator and generator engine.
package runtime

import (
	"fmt"
	"sync"

	"github.com/kei-lang/kei/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindList
	KindDict
	KindFunction
	KindNativeFunction
	KindBoundMethod
	KindNativeBoundMethod
	KindClass
	KindInstance
	KindGenerator
	KindPromise
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	case KindBoundMethod:
		return "bound_method"
	case KindNativeBoundMethod:
		return "native_bound_method"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindGenerator:
		return "generator"
	case KindPromise:
		return "promise"
	case KindRange:
		return "range"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all kei runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type BoolValue struct{ Val bool }

func (BoolValue) Kind() Kind { return KindBool }

// IntegerValue holds a 64-bit signed integer. kei has one numeric integer
// type (no width/signedness suffixes), so unlike the teacher's math/big
// backed IntegerValue, a plain int64 is sufficient and avoids an unused
// arbitrary-precision dependency (see DESIGN.md).
type IntegerValue struct{ Val int64 }

func (IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct{ Val float64 }

func (FloatValue) Kind() Kind { return KindFloat }

type StringValue struct{ Val string }

func (StringValue) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

type ListValue struct {
	Elements []Value
}

func (*ListValue) Kind() Kind { return KindList }

// DictValue is an insertion-ordered string-keyed map: keys is the order of
// first insertion, entries holds the current value for each key.
type DictValue struct {
	keys    []string
	entries map[string]Value
}

func NewDict() *DictValue {
	return &DictValue{entries: make(map[string]Value)}
}

func (*DictValue) Kind() Kind { return KindDict }

func (d *DictValue) Get(key string) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

func (d *DictValue) Set(key string, val Value) {
	if _, exists := d.entries[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = val
}

func (d *DictValue) Delete(key string) {
	if _, exists := d.entries[key]; !exists {
		return
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *DictValue) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *DictValue) Len() int { return len(d.keys) }

// RangeValue represents an integer range literal (`a..b` exclusive or
// `a...b` inclusive), walked lazily by the interpreter's iteration
// (cycle-through, comprehensions, delegate) rather than eagerly expanded.
type RangeValue struct {
	Start     int64
	End       int64
	Inclusive bool
}

func (RangeValue) Kind() Kind { return KindRange }

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// FunctionValue is a protocol or sequence closing over its defining scope.
// IsSequence marks generator (sequence) definitions so the call protocol
// (§4.4.3) knows to produce a Generator instead of invoking the body
// directly.
type FunctionValue struct {
	Name       string
	Params     []*ast.Parameter
	Body       ast.Node // *ast.Block or an Expression
	Closure    *Environment
	IsSequence bool
}

func (*FunctionValue) Kind() Kind { return KindFunction }

// NativeCallContext gives built-ins access to the calling environment and
// interpreter-level services (voice channel emission, etc.) without the
// runtime package depending on the interpreter package.
type NativeCallContext struct {
	Env       *Environment
	Emit      func(kind, payload string)
	Print     func(line string)
	Await     func(Value) (Value, error)
	Invoke    func(fn Value, args []Value) (Value, error)
	Stringify func(Value) (string, error)
	Receive   func() Value
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

type NativeFunctionValue struct {
	Name  string
	Arity int // -1 for variadic
	Impl  NativeFunc
}

func (NativeFunctionValue) Kind() Kind { return KindNativeFunction }

type BoundMethodValue struct {
	Receiver Value
	Method   *FunctionValue
}

func (BoundMethodValue) Kind() Kind { return KindBoundMethod }

type NativeBoundMethodValue struct {
	Receiver Value
	Method   NativeFunctionValue
}

func (NativeBoundMethodValue) Kind() Kind { return KindNativeBoundMethod }

//-----------------------------------------------------------------------------
// Classes & instances
//-----------------------------------------------------------------------------

// ClassValue is a single-inheritance class: its method table maps method
// name to FunctionValue, with Parent walked on lookup miss.
type ClassValue struct {
	Name    string
	Parent  *ClassValue
	Methods map[string]*FunctionValue
}

func (*ClassValue) Kind() Kind { return KindClass }

// LookupMethod walks the inheritance chain, returning the defining class
// alongside the method so `ascend` can resume the search one level above
// the method that invoked it.
func (c *ClassValue) LookupMethod(name string) (*FunctionValue, *ClassValue) {
	for cls := c; cls != nil; cls = cls.Parent {
		if m, ok := cls.Methods[name]; ok {
			return m, cls
		}
	}
	return nil, nil
}

// InstanceValue holds a live object: a class pointer and a field
// environment. Using an *Environment (rather than a bare map) for fields
// lets field access reuse the same get/set machinery as lexical scopes.
type InstanceValue struct {
	Class  *ClassValue
	Fields *Environment
}

func (*InstanceValue) Kind() Kind { return KindInstance }

//-----------------------------------------------------------------------------
// Generators
//-----------------------------------------------------------------------------

// GeneratorStatus mirrors the three-state lifecycle from the data model.
type GeneratorStatus int

const (
	GeneratorSuspended GeneratorStatus = iota
	GeneratorRunning
	GeneratorDone
)

func (s GeneratorStatus) String() string {
	switch s {
	case GeneratorSuspended:
		return "suspended"
	case GeneratorRunning:
		return "running"
	case GeneratorDone:
		return "done"
	default:
		return "unknown"
	}
}

// GeneratorValue is the externally visible handle to a generator body
// running on its own goroutine (see pkg/interpreter/generator.go). The
// struct itself is deliberately thin: all synchronization lives in the
// *Coroutine it wraps, so GeneratorValue can be copied freely as a Value.
type GeneratorValue struct {
	Name string
	Co   Coroutine
}

func (*GeneratorValue) Kind() Kind { return KindGenerator }

// Coroutine is the minimal surface the runtime package needs from the
// generator engine, kept as an interface so pkg/runtime does not import
// pkg/interpreter (which would create an import cycle, since the
// interpreter constructs GeneratorValue from an evaluated SequenceDef).
type Coroutine interface {
	Status() GeneratorStatus
	Resume(sent Value, hasSent bool, thrown error, hasThrown bool) (Value, bool, error)
	Close() error
}

//-----------------------------------------------------------------------------
// Promises
//-----------------------------------------------------------------------------

// PromiseStatus mirrors §3.3/§5's pending/resolved/rejected states.
type PromiseStatus int

const (
	PromisePending PromiseStatus = iota
	PromiseResolved
	PromiseRejected
)

// PromiseValue is kei's cooperative await target: no true concurrency, so
// resolution happens synchronously (either immediately, via Resolve/Reject,
// or lazily the first time something awaits it, via a Resolver thunk).
type PromiseValue struct {
	mu       sync.Mutex
	status   PromiseStatus
	value    Value
	err      Value
	resolver func() (Value, Value, bool) // (value, err, isRejected)
}

func (*PromiseValue) Kind() Kind { return KindPromise }

func NewPromise() *PromiseValue {
	return &PromiseValue{}
}

func NewLazyPromise(resolver func() (Value, Value, bool)) *PromiseValue {
	return &PromiseValue{resolver: resolver}
}

func (p *PromiseValue) Resolve(v Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == PromisePending {
		p.status = PromiseResolved
		p.value = v
	}
}

func (p *PromiseValue) Reject(err Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == PromisePending {
		p.status = PromiseRejected
		p.err = err
	}
}

// Await forces resolution (running the lazy resolver at most once) and
// returns the settled value/error, matching the spec's decision to keep
// `await` on an already-pending promise as a harmless pass-through rather
// than blocking forever (Open Question 2; there is no scheduler to block
// on in a single-threaded cooperative model).
func (p *PromiseValue) Await() (Value, Value, PromiseStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == PromisePending && p.resolver != nil {
		val, err, rejected := p.resolver()
		p.resolver = nil
		if rejected {
			p.status = PromiseRejected
			p.err = err
		} else {
			p.status = PromiseResolved
			p.value = val
		}
	}
	return p.value, p.err, p.status
}

func (p *PromiseValue) Status() PromiseStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
