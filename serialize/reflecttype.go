package serialize

import (
	"fmt"
	"reflect"

	"github.com/mstgnz/recorder/classref"
	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/emit"
	"github.com/mstgnz/recorder/rerrors"
)

var primitiveZero = map[reflect.Kind]string{
	reflect.Bool:    "bool(false)",
	reflect.Int:     "int(0)",
	reflect.Int8:    "int8(0)",
	reflect.Int16:   "int16(0)",
	reflect.Int32:   "int32(0)",
	reflect.Int64:   "int64(0)",
	reflect.Uint:    "uint(0)",
	reflect.Uint8:   "uint8(0)",
	reflect.Uint16:  "uint16(0)",
	reflect.Uint32:  "uint32(0)",
	reflect.Uint64:  "uint64(0)",
	reflect.Float32: "float32(0)",
	reflect.Float64: "float64(0)",
	reflect.String:  `""`,
}

// dispatchTypeLiteral implements branches 11 and 12: a recorded
// reflect.Type value ("class literal") is reconstructed at startup
// either from a fixed primitive table, by loading a named type through
// its package (requiring the package be importable from generated
// code), or - for slice/map/array/pointer shapes - by recursing on the
// element/key type(s) and reassembling the shape with reflect's own
// TypeOf-composition functions (reflect.SliceOf, reflect.MapOf,
// reflect.PtrTo, reflect.ArrayOf), which is the closest Go has to "any
// generic container shape" without needing wildcard types.
func dispatchTypeLiteral(env *Env, rt reflect.Type) (deferred.Node, error) {
	return deferred.NewArrayStored("reflect.Type", nil, func(_ []string, proc *emit.Procedure) (string, error) {
		proc.RequireImport("reflect")
		return typeLiteralExpr(env, rt, proc)
	}), nil
}

func typeLiteralExpr(env *Env, t reflect.Type, proc *emit.Procedure) (string, error) {
	switch t.Kind() {
	case reflect.Slice:
		elem, err := typeLiteralExpr(env, t.Elem(), proc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reflect.SliceOf(%s)", elem), nil
	case reflect.Array:
		elem, err := typeLiteralExpr(env, t.Elem(), proc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reflect.ArrayOf(%d, %s)", t.Len(), elem), nil
	case reflect.Map:
		key, err := typeLiteralExpr(env, t.Key(), proc)
		if err != nil {
			return "", err
		}
		val, err := typeLiteralExpr(env, t.Elem(), proc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reflect.MapOf(%s, %s)", key, val), nil
	case reflect.Ptr:
		elem, err := typeLiteralExpr(env, t.Elem(), proc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reflect.PtrTo(%s)", elem), nil
	}

	if t.PkgPath() == "" {
		if zero, ok := primitiveZero[t.Kind()]; ok {
			return fmt.Sprintf("reflect.TypeOf(%s)", zero), nil
		}
		return "", rerrors.Wrap(rerrors.ErrUnsupportedValue, fmt.Sprintf("type literal %s has no fixed primitive entry", t))
	}

	return namedTypeLiteralExpr(env, t.PkgPath(), t.Name(), proc)
}

func namedTypeLiteralExpr(env *Env, pkgPath, name string, proc *emit.Procedure) (string, error) {
	if pkgPath == "" || name == "" {
		return "", rerrors.Wrap(rerrors.ErrUnsupportedValue, "anonymous or unnamed type literal")
	}
	proc.RequireImport(pkgPath)
	alias := importAlias(pkgPath)
	return fmt.Sprintf("reflect.TypeOf((*%s.%s)(nil)).Elem()", alias, name), nil
}

func importAlias(pkgPath string) string {
	for i := len(pkgPath) - 1; i >= 0; i-- {
		if pkgPath[i] == '/' {
			return pkgPath[i+1:]
		}
	}
	return pkgPath
}

// dispatchClassRef handles a recorded *classref.Ref directly (rather
// than a live reflect.Type): concrete refs delegate to
// dispatchTypeLiteral, proxy refs (no backing type yet) load by name
// through the registry the generated program is expected to populate
// before Deploy runs.
func dispatchClassRef(env *Env, ref *classref.Ref) (deferred.Node, error) {
	if !ref.IsProxy() {
		return dispatchTypeLiteral(env, ref.Concrete())
	}
	name := ref.Name()
	return deferred.NewArrayStored("reflect.Type", nil, func(_ []string, proc *emit.Procedure) (string, error) {
		proc.RequireImport("reflect")
		return fmt.Sprintf("reflect.TypeOf(ctx.MustGet(%q))", name), nil
	}), nil
}
