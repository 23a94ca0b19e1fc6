package serialize

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/emit"
	"github.com/mstgnz/recorder/internal/paramnames"
	"github.com/mstgnz/recorder/rerrors"
)

// dispatchComplexObject implements branch 16 and spec section 4.4's
// construction/population strategies: a struct (or pointer to struct)
// is built through a registered constructor when one is available, then
// its remaining exported fields are written directly (Go collapses
// getter/setter distinctions, so "property" and "field" population are
// the same step); a bare map falls back to a map literal (strategy e).
//
// Pointer and map arguments additionally route through env.Graph's
// identity map: two arguments sharing the same pointer or map, or a
// cyclic argument graph that loops back to one it is still building,
// must produce the same deferred node (spec section 3, invariant 1,
// and section 9's "Cyclic graphs" note). A bare struct value has no
// identity of its own in Go, so it is dispatched directly - every
// occurrence of an equal struct value gets its own node, the documented
// departure forced by Go value semantics (see DESIGN.md).
func dispatchComplexObject(env *Env, v reflect.Value, expected reflect.Type) (deferred.Node, error) {
	switch v.Kind() {
	case reflect.Ptr:
		if v.Elem().Kind() != reflect.Struct {
			return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, v.Type().String())
		}
		return env.Graph.GetOrCreate(v, "", func() (deferred.Node, error) {
			return dispatchStructObject(env, v.Elem(), true)
		})
	case reflect.Struct:
		return dispatchStructObject(env, v, false)
	case reflect.Map:
		return env.Graph.GetOrCreate(v, "", func() (deferred.Node, error) {
			return dispatchMap(env, v)
		})
	}
	return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, v.Type().String())
}

// dispatchMap builds the map's children, then the make()/index-write
// creation fragment, via NewArrayStoredCyclic: the map's own local is
// allocated (via "make") before any key or value is loaded, so a
// self-referential entry - the map's value containing the same map
// instance - resolves to that already-declared local instead of one
// the generated index-write would reference before it exists.
func dispatchMap(env *Env, v reflect.Value) (deferred.Node, error) {
	keys := v.MapKeys()
	children := make([]deferred.Node, 0, len(keys)*2)
	keyIdx := make([]int, len(keys))
	valIdx := make([]int, len(keys))

	for i, k := range keys {
		kn, err := Dispatch(env, k, v.Type().Key())
		if err != nil {
			return nil, err
		}
		vn, err := Dispatch(env, v.MapIndex(k), v.Type().Elem())
		if err != nil {
			return nil, err
		}
		keyIdx[i] = len(children)
		children = append(children, kn)
		valIdx[i] = len(children)
		children = append(children, vn)
	}

	typeName := goTypeName(v.Type())
	n := len(keys)

	declare := func(proc *emit.Procedure) (string, error) {
		local := proc.AllocLocal("m")
		proc.Emit("%s := make(%s, %d)", local, typeName, n)
		return local, nil
	}
	populate := func(exprs []string, proc *emit.Procedure, local string) error {
		for i := 0; i < n; i++ {
			proc.Emit("%s[%s] = %s", local, exprs[keyIdx[i]], exprs[valIdx[i]])
		}
		return nil
	}

	return deferred.NewArrayStoredCyclic(typeName, children, declare, populate), nil
}

type resolvedCtor struct {
	expr       string
	imports    []string
	consumed   map[string]bool
	argTypes   []reflect.Type
	argValues  []reflect.Value
	returnsPtr bool
	none       bool
}

// resolveConstructor implements the strategy priority of spec section
// 4.4: (a) a registered non-default constructor wins outright and is
// assumed to fully specify the object (no further field population);
// (b)/(c)/(d) collapse, in this Go reimplementation, to a single
// registered "recordable constructor" matched against struct fields by
// parameter name; with neither registered, the object falls back to a
// zero-value struct literal with every exported field populated
// directly.
func resolveConstructor(structType reflect.Type, v reflect.Value, env *Env) (*resolvedCtor, error) {
	if entry, ok := env.Ctors.Lookup(structType); ok {
		if entry.GoExpr == "" {
			return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, fmt.Sprintf("%s: non-default constructor has no codegen reference (use RegisterNonDefaultConstructorWithExpr)", structType))
		}
		args, err := entry.Extract(v.Interface())
		if err != nil {
			return nil, fmt.Errorf("serialize: extracting constructor args for %s: %w", structType, err)
		}
		ctorType := entry.Ctor.Type()
		if len(args) != ctorType.NumIn() {
			return nil, fmt.Errorf("serialize: %s constructor extractor returned %d args, want %d", structType, len(args), ctorType.NumIn())
		}
		argTypes := make([]reflect.Type, len(args))
		argValues := make([]reflect.Value, len(args))
		for i, a := range args {
			argTypes[i] = ctorType.In(i)
			argValues[i] = reflect.ValueOf(a)
		}
		return &resolvedCtor{
			expr: entry.GoExpr, imports: entry.Imports,
			argTypes: argTypes, argValues: argValues,
			returnsPtr: ctorType.Out(0).Kind() == reflect.Ptr,
		}, nil
	}

	if entry, ok := env.FieldCtors.Lookup(structType); ok {
		if entry.GoExpr == "" {
			return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, fmt.Sprintf("%s: recordable constructor has no codegen reference (use RegisterWithExpr)", structType))
		}
		names, err := paramnames.For(entry.Ctor.Interface())
		if err != nil {
			return nil, rerrors.Wrap(rerrors.ErrMissingParameterNames, structType.String())
		}

		consumed := make(map[string]bool, len(names))
		argTypes := make([]reflect.Type, len(names))
		argValues := make([]reflect.Value, len(names))
		for i, name := range names {
			field, ok := matchFieldForParam(structType, name)
			if !ok {
				return nil, rerrors.Wrap(rerrors.ErrUnusedConstructorParameter, structType.String()+"."+name)
			}
			consumed[field.Name] = true
			argTypes[i] = field.Type
			argValues[i] = v.FieldByIndex(field.Index)
		}
		return &resolvedCtor{
			expr: entry.GoExpr, imports: entry.Imports,
			consumed: consumed, argTypes: argTypes, argValues: argValues,
			returnsPtr: entry.Ctor.Type().Out(0).Kind() == reflect.Ptr,
		}, nil
	}

	return &resolvedCtor{none: true}, nil
}

func matchFieldForParam(t reflect.Type, param string) (reflect.StructField, bool) {
	if f, ok := t.FieldByName(capitalize(param)); ok {
		return f, true
	}
	return t.FieldByName(param)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

type fieldWrite struct {
	name string
	idx  int
}

func dispatchStructObject(env *Env, v reflect.Value, isPtr bool) (deferred.Node, error) {
	structType := v.Type()

	rc, err := resolveConstructor(structType, v, env)
	if err != nil {
		return nil, err
	}

	var argNodes []deferred.Node
	if !rc.none {
		argNodes = make([]deferred.Node, len(rc.argValues))
		for i, av := range rc.argValues {
			node, err := Dispatch(env, av, rc.argTypes[i])
			if err != nil {
				return nil, err
			}
			argNodes[i] = node
		}
	}

	var writes []fieldWrite
	var fieldNodes []deferred.Node
	if rc.consumed == nil || rc.none {
		// Strategy (a) fully specifies the object from the extractor, and
		// the fallback (no constructor) path populates every field.
		if rc.none {
			for i := 0; i < structType.NumField(); i++ {
				f := structType.Field(i)
				if !f.IsExported() || f.Tag.Get("recorder") == "-" {
					continue
				}
				node, err := Dispatch(env, v.Field(i), f.Type)
				if err != nil {
					return nil, err
				}
				writes = append(writes, fieldWrite{name: f.Name, idx: len(fieldNodes)})
				fieldNodes = append(fieldNodes, node)
			}
		}
	} else {
		for i := 0; i < structType.NumField(); i++ {
			f := structType.Field(i)
			if !f.IsExported() || rc.consumed[f.Name] || f.Tag.Get("recorder") == "-" {
				continue
			}
			node, err := Dispatch(env, v.Field(i), f.Type)
			if err != nil {
				return nil, err
			}
			writes = append(writes, fieldWrite{name: f.Name, idx: len(fieldNodes)})
			fieldNodes = append(fieldNodes, node)
		}
	}

	allChildren := make([]deferred.Node, 0, len(argNodes)+len(fieldNodes))
	allChildren = append(allChildren, argNodes...)
	allChildren = append(allChildren, fieldNodes...)
	nArgs := len(argNodes)

	declaredType := structType.String()
	if isPtr {
		declaredType = "*" + declaredType
	}

	if isPtr && rc.none {
		// No constructor call needs every argument resolved up front, so
		// the object's identity can be allocated before its fields are -
		// the shape a self-referential struct pointer (a field that
		// points back to the very struct it belongs to) needs, per spec
		// section 9's "Cyclic graphs" note. A constructor-built object
		// can't offer this: the constructor call itself requires its
		// arguments fully resolved before it runs, so a struct built
		// through a registered constructor cannot participate in a cycle.
		declare := func(proc *emit.Procedure) (string, error) {
			if structType.PkgPath() != "" {
				proc.RequireImport(structType.PkgPath())
			}
			obj := proc.AllocLocal("obj")
			proc.Emit("%s := &%s{}", obj, structType.String())
			return obj, nil
		}
		populate := func(exprs []string, proc *emit.Procedure, obj string) error {
			for _, w := range writes {
				proc.Emit("%s.%s = %s", obj, w.name, exprs[w.idx])
			}
			return nil
		}
		return deferred.NewArrayStoredCyclic(declaredType, allChildren, declare, populate), nil
	}

	return deferred.NewArrayStored(declaredType, allChildren, func(exprs []string, proc *emit.Procedure) (string, error) {
		if structType.PkgPath() != "" {
			proc.RequireImport(structType.PkgPath())
		}

		argExprs := exprs[:nArgs]
		fieldExprs := exprs[nArgs:]

		obj := proc.AllocLocal("obj")
		ctorReturnsPtr := false

		switch {
		case !rc.none:
			ctorReturnsPtr = rc.returnsPtr
			for _, imp := range rc.imports {
				proc.RequireImport(imp)
			}
			proc.Emit("%s := %s(%s)", obj, rc.expr, strings.Join(argExprs, ", "))
		case isPtr:
			proc.Emit("%s := &%s{}", obj, structType.String())
			ctorReturnsPtr = true
		default:
			proc.Emit("%s := %s{}", obj, structType.String())
		}

		for _, w := range writes {
			proc.Emit("%s.%s = %s", obj, w.name, fieldExprs[w.idx])
		}

		result := obj
		switch {
		case isPtr && !ctorReturnsPtr:
			p := proc.AllocLocal("p")
			proc.Emit("%s := &%s", p, obj)
			result = p
		case !isPtr && ctorReturnsPtr:
			d := proc.AllocLocal("d")
			proc.Emit("%s := *%s", d, obj)
			result = d
		}
		return result, nil
	}), nil
}
