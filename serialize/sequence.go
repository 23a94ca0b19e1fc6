package serialize

import (
	"reflect"

	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/emit"
)

// dispatchSequence implements branch 14: a non-empty array or slice
// recurses per element and reassembles a `make([]T, n)` literal plus one
// index-write statement per element (spec section 4.3, branch 14).
func dispatchSequence(env *Env, v reflect.Value) (deferred.Node, error) {
	n := v.Len()
	children := make([]deferred.Node, n)
	elemType := v.Type().Elem()
	for i := 0; i < n; i++ {
		node, err := Dispatch(env, v.Index(i), elemType)
		if err != nil {
			return nil, err
		}
		children[i] = node
	}

	typeName := goTypeName(v.Type())
	isArray := v.Kind() == reflect.Array

	return deferred.NewArrayStored(typeName, children, func(childExprs []string, proc *emit.Procedure) (string, error) {
		local := proc.AllocLocal("seq")
		if isArray {
			proc.Emit("var %s %s", local, typeName)
		} else {
			proc.Emit("%s := make(%s, %d)", local, typeName, n)
		}
		for i, expr := range childExprs {
			proc.Emit("%s[%d] = %s", local, i, expr)
		}
		return local, nil
	}), nil
}
