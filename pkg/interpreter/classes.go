package interpreter

import (
	"fmt"

	"github.com/kei-lang/kei/pkg/ast"
	"github.com/kei-lang/kei/pkg/runtime"
)

// evaluateEntityDef builds a single-inheritance ClassValue from an
// `entity` block: each contained `protocol` becomes a method closing
// over the environment the entity is defined in (so bindings visible
// there are visible to its methods), and the named parent (if any)
// must already be a defined class.
func (i *Interpreter) evaluateEntityDef(n *ast.EntityDef, env *runtime.Environment) (runtime.Value, error) {
	var parent *runtime.ClassValue
	if n.Parent != "" {
		parentVal, err := env.Get(n.Parent)
		if err != nil {
			return nil, fmt.Errorf("line %d: unknown parent entity '%s'", n.Pos.Line, n.Parent)
		}
		pc, ok := parentVal.(*runtime.ClassValue)
		if !ok {
			return nil, fmt.Errorf("line %d: '%s' is not an entity", n.Pos.Line, n.Parent)
		}
		parent = pc
	}

	class := &runtime.ClassValue{Name: n.Name, Parent: parent, Methods: make(map[string]*runtime.FunctionValue)}
	for _, m := range n.Methods {
		class.Methods[m.Name] = &runtime.FunctionValue{Name: m.Name, Params: m.Params, Body: m.Body, Closure: env}
	}
	env.Define(n.Name, class)
	return class, nil
}
