package interpreter

import (
	"fmt"

	"github.com/kei-lang/kei/pkg/runtime"
)

// forEachValue drives fn over every element src produces — a list, an
// integer range, or a generator pulled via proceed — stopping early if fn
// returns stop=true. This is the single iteration primitive shared by
// cycle-through, list/generator comprehensions, and delegate (the
// transform/select/fold built-ins walk list elements directly instead),
// mirroring how the teacher's iterator
// member (`iteratorMember`/`next`) is the one place list- and
// generator-driven loops both bottom out.
func (i *Interpreter) forEachValue(src runtime.Value, fn func(runtime.Value) (bool, error)) error {
	switch v := src.(type) {
	case *runtime.ListValue:
		for _, el := range v.Elements {
			stop, err := fn(el)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
		return nil
	case runtime.RangeValue:
		end := v.End
		if v.Inclusive {
			end++
		}
		if v.Start <= end {
			for n := v.Start; n < end; n++ {
				stop, err := fn(runtime.IntegerValue{Val: n})
				if err != nil {
					return err
				}
				if stop {
					return nil
				}
			}
		} else {
			for n := v.Start; n > end; n-- {
				stop, err := fn(runtime.IntegerValue{Val: n})
				if err != nil {
					return err
				}
				if stop {
					return nil
				}
			}
		}
		return nil
	case *runtime.GeneratorValue:
		for {
			val, done, err := v.Co.Resume(nil, false, nil, false)
			if err != nil {
				return unwrapGeneratorError(err)
			}
			if done {
				return nil
			}
			stop, ferr := fn(val)
			if ferr != nil {
				return ferr
			}
			if stop {
				return nil
			}
		}
	case *runtime.DictValue:
		for _, k := range v.Keys() {
			stop, err := fn(runtime.StringValue{Val: k})
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
		return nil
	default:
		return fmt.Errorf("value of kind %s is not iterable", src.Kind())
	}
}

// unwrapGeneratorError turns the Go error a Coroutine.Resume reports when
// its body ended on an uncaught raise back into the kei-level raiseSignal
// it originated as, so the caller's own attempt/recover sees the real
// thrown value rather than an opaque Go error string.
func unwrapGeneratorError(err error) error {
	if rs, ok := err.(raiseSignal); ok {
		return rs
	}
	return raiseSignal{value: runtime.StringValue{Val: err.Error()}}
}
