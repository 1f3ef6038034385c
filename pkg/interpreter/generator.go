package interpreter

import (
	"fmt"
	"sync"

	"github.com/kei-lang/kei/pkg/runtime"
)

// Coroutine is a generator body running on its own goroutine, handed
// control one resume at a time over an unbuffered channel pair — the
// same stackful-coroutine idiom the teacher uses for its iterator
// controller, extended here with a send/throw channel so `transmit` and
// `disrupt` can pass a value or an error into the paused body instead of
// only ever resuming it silently.
//
// This replaces the frame-stack suspension design sketched as the
// reference model: the goroutine's own Go call stack already holds
// "which statement, which loop, how deep" for free, so there is no need
// to hand-roll a parallel stack of suspension frames (see DESIGN.md).
type Coroutine struct {
	interp *Interpreter
	// runner produces the coroutine's completion value. It is expected to
	// call co.yield at whatever points it wants to suspend — either by
	// running an *ast.Block body (newCoroutine) or, for a generator
	// expression, by driving forEachValue directly (newComprehensionCoroutine).
	runner func() (runtime.Value, error)

	requests chan resumeRequest
	results  chan yieldResult

	mu      sync.Mutex
	started bool
	busy    bool
	closed  bool
	status  runtime.GeneratorStatus
	err     error

	sentValue runtime.Value
	hasSent   bool
}

type resumeRequest struct {
	sent      runtime.Value
	hasSent   bool
	thrown    error
	hasThrown bool
}

type yieldResult struct {
	value runtime.Value
	done  bool
	err   error
}

// newCoroutine builds a suspended coroutine for calling fn's body against
// env, the already-prepared call environment (parameters bound, self
// bound if fn is a method). The body does not start executing until the
// first Resume.
func newCoroutine(interp *Interpreter, fn *runtime.FunctionValue, env *runtime.Environment) *Coroutine {
	co := &Coroutine{
		interp:   interp,
		requests: make(chan resumeRequest),
		results:  make(chan yieldResult),
		status:   runtime.GeneratorSuspended,
	}
	co.runner = func() (runtime.Value, error) { return interp.runFunctionBody(fn, env) }
	return co
}

// newComprehensionCoroutine backs a parenthesized generator expression
// `(expr for pattern through source where guard)`: its "body" is
// not kei AST at all, just a closure driving forEachValue and calling
// co.yield for every element that passes the guard.
func newComprehensionCoroutine(interp *Interpreter, run func(yield func(runtime.Value) (runtime.Value, error)) error) *Coroutine {
	co := &Coroutine{
		interp:   interp,
		requests: make(chan resumeRequest),
		results:  make(chan yieldResult),
		status:   runtime.GeneratorSuspended,
	}
	co.runner = func() (runtime.Value, error) {
		err := run(co.yield)
		return runtime.NilValue{}, err
	}
	return co
}

func (co *Coroutine) Status() runtime.GeneratorStatus {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.status
}

// Resume implements runtime.Coroutine. A generator already Done (or
// closed) answers every further Resume with (NilValue{}, true, nil) — "further
// proceed returns null" once exhausted.
func (co *Coroutine) Resume(sent runtime.Value, hasSent bool, thrown error, hasThrown bool) (runtime.Value, bool, error) {
	co.mu.Lock()
	if co.busy {
		co.mu.Unlock()
		return nil, true, fmt.Errorf("generator resumed while already running")
	}
	if co.closed || co.status == runtime.GeneratorDone {
		co.mu.Unlock()
		return runtime.NilValue{}, true, nil
	}
	co.busy = true
	if !co.started {
		co.started = true
		go co.run()
	}
	reqCh := co.requests
	co.mu.Unlock()

	// co becomes the actually-executing coroutine for the duration of this
	// handoff: push it right before control passes to co's goroutine, pop
	// it right after control returns here, so a nested proceed() that
	// itself yields again restores the right coroutine instead of leaving
	// a parked, not-yet-exhausted one on top (see currentCoroutine).
	co.interp.pushCoroutine(co)
	reqCh <- resumeRequest{sent: sent, hasSent: hasSent, thrown: thrown, hasThrown: hasThrown}
	res, ok := <-co.results
	co.interp.popCoroutine()

	co.mu.Lock()
	co.busy = false
	if !ok {
		co.status = runtime.GeneratorDone
		co.mu.Unlock()
		return runtime.NilValue{}, true, nil
	}
	if res.err != nil {
		co.status = runtime.GeneratorDone
		co.err = res.err
		co.mu.Unlock()
		return nil, true, res.err
	}
	if res.done {
		co.status = runtime.GeneratorDone
		co.mu.Unlock()
		return runtime.NilValue{}, true, nil
	}
	co.status = runtime.GeneratorSuspended
	co.mu.Unlock()
	return res.value, false, nil
}

// Close abandons the coroutine: any future Resume reports Done without
// running more of the body. If the body is currently parked on a yield,
// it is left to finish unwinding in the background.
func (co *Coroutine) Close() error {
	co.mu.Lock()
	if co.closed {
		co.mu.Unlock()
		return nil
	}
	co.closed = true
	close(co.requests)
	co.mu.Unlock()
	return nil
}

func (co *Coroutine) run() {
	defer close(co.results)

	if !co.awaitFirstRequest() {
		return
	}

	_, err := co.runner()
	if err != nil {
		co.mu.Lock()
		co.err = err
		co.mu.Unlock()
		co.results <- yieldResult{err: err}
		return
	}
	co.results <- yieldResult{value: runtime.NilValue{}, done: true}
}

// awaitFirstRequest blocks for the Resume that starts the body. Its sent
// or thrown payload (if any) is dropped: nothing inside the body has run
// a `yield` yet for it to be delivered to.
func (co *Coroutine) awaitFirstRequest() bool {
	_, ok := <-co.requests
	return ok
}

// yield is invoked by the evaluator when it evaluates a YieldExpr whose
// innermost enclosing sequence is this coroutine (see eval_expressions.go
// evaluateYieldExpr). It hands value to whoever is waiting on Resume and
// blocks until the next one arrives, surfacing any thrown error as a
// raiseSignal so it unwinds through the body exactly like an ordinary
// `raise` would, catchable by an enclosing `attempt`.
func (co *Coroutine) yield(value runtime.Value) (runtime.Value, error) {
	co.results <- yieldResult{value: value}
	req, ok := <-co.requests
	if !ok {
		return nil, closedWhileSuspended{}
	}
	if req.hasSent {
		co.mu.Lock()
		co.sentValue = req.sent
		co.hasSent = true
		co.mu.Unlock()
	}
	if req.hasThrown {
		return nil, req.thrown
	}
	return runtime.NilValue{}, nil
}

// takeSent implements receive(): read and clear the pending sent value.
// Safe without a lock: only the coroutine's own goroutine ever calls this,
// and it only runs between a Resume's send and the matching result receive
// (§9 Open Question 4).
func (co *Coroutine) takeSent() runtime.Value {
	if !co.hasSent {
		return runtime.NilValue{}
	}
	v := co.sentValue
	co.hasSent = false
	co.sentValue = nil
	return v
}

// closedWhileSuspended is returned by yield when Close() tore down the
// request channel while the body was parked; run() treats it like any
// other error and reports the generator Done.
type closedWhileSuspended struct{}

func (closedWhileSuspended) Error() string { return "generator closed while suspended" }
