package serialize

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/mstgnz/recorder/classref"
	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/emit"
	"github.com/mstgnz/recorder/loader"
	"github.com/mstgnz/recorder/rerrors"
	"github.com/mstgnz/recorder/runtimeval"
	"github.com/mstgnz/recorder/substitution"
)

// maxStringBytes bounds a string value the dispatcher will inline as a
// Go string literal (spec section 4.3, branch 6).
const maxStringBytes = 65535

var (
	stringType  = reflect.TypeOf("")
	urlPtrType  = reflect.TypeOf((*url.URL)(nil))
	durationType = reflect.TypeOf(time.Duration(0))
	handlePtrType = reflect.TypeOf((*runtimeval.Handle)(nil))
	reflectTypeType = reflect.TypeOf((*reflect.Type)(nil)).Elem()
)

// Dispatch decides how to reconstruct v (whose declared parameter type is
// expected) once the generated program runs, trying each branch of spec
// section 4.3 in priority order and returning the first match.
func Dispatch(env *Env, v reflect.Value, expected reflect.Type) (deferred.Node, error) {
	if !v.IsValid() || (isNilableKind(v.Kind()) && v.IsNil()) {
		return deferred.NewInline(nil, func([]string) (string, error) { return "nil", nil }), nil
	}

	// An any-typed argument (the documented handle-forwarding convention,
	// see dispatchHandle below) arrives with Kind() == Interface and
	// Type() == interface{}, matching none of the concrete-type branches
	// below. Unwrap it to the concrete value it actually carries before
	// any branch gets a look at it.
	if v.Kind() == reflect.Interface {
		v = v.Elem()
		if !v.IsValid() {
			return deferred.NewInline(nil, func([]string) (string, error) { return "nil", nil }), nil
		}
	}

	if v.CanInterface() {
		if l, ok := env.Loaders.Find(v.Interface(), env.StaticInit); ok {
			return dispatchLoader(env, l, v)
		}
	}

	if node, handled, err := dispatchEmptyCollection(v); handled {
		return node, err
	}

	if entry, ok := env.Substitutions.Lookup(v.Type()); ok {
		return dispatchSubstitution(env, entry, v)
	}

	if v.Type() == stringType {
		return dispatchString(v)
	}

	if v.Type() == urlPtrType {
		return dispatchURL(v)
	}

	if info, ok := env.ClassRefs.LookupEnum(v.Type()); ok {
		return dispatchEnum(env, v, info)
	}

	if v.Type() == handlePtrType {
		return dispatchHandle(v, expected)
	}

	if v.Type() == durationType {
		return dispatchDuration(v)
	}

	if v.CanInterface() {
		if ref, ok := v.Interface().(*classref.Ref); ok {
			return dispatchClassRef(env, ref)
		}
	}

	// The generic pointer ("Optional") branch comes after every concrete
	// pointer type above (URL, Handle, ClassRef): those are distinct
	// types in spec section 4.3's priority order, not instances of "any
	// pointer", and must reach their dedicated branch first.
	//
	// It claims only pointer-to-non-struct: *string, *int, and friends
	// are the Go idiom for "may be absent" (spec's java.util.Optional<T>
	// has no Go equivalent type, so a nilable pointer to a scalar stands
	// in for it). Pointer-to-struct is the Go idiom for an ordinary
	// object reference - ClassRef, Handle and URL are themselves
	// pointer-to-struct and were already peeled off above - so it falls
	// through to branch 16's construction/population strategy and the
	// identity map instead (dispatchComplexObject's Ptr case).
	if v.Kind() == reflect.Ptr && v.Elem().Kind() != reflect.Struct {
		return dispatchOptionalPointer(env, v)
	}

	if rt, ok := asReflectType(v); ok {
		return dispatchTypeLiteral(env, rt)
	}

	if isScalarType(v.Type()) {
		return dispatchScalar(v)
	}

	if v.Kind() == reflect.Slice {
		return env.Graph.GetOrCreate(v, "", func() (deferred.Node, error) {
			return dispatchSequence(env, v)
		})
	}

	if v.Kind() == reflect.Array {
		return dispatchSequence(env, v)
	}

	if v.Kind() == reflect.Struct && hasAnnotationTags(v.Type()) {
		return dispatchAnnotationLiteral(env, v)
	}

	return dispatchComplexObject(env, v, expected)
}

func isNilableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return true
	}
	return false
}

// isScalarType restricts branch 13 to the predeclared numeric/bool
// types; named numeric/string types are handled by the enum branch (or,
// if unregistered, fall through to the complex-object branch, matching
// "no viable construction strategy" for an unrecognized named scalar).
func isScalarType(t reflect.Type) bool {
	if t.Name() != t.Kind().String() || t.PkgPath() != "" {
		return false
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func asReflectType(v reflect.Value) (reflect.Type, bool) {
	if !v.Type().Implements(reflectTypeType) || !v.CanInterface() {
		return nil, false
	}
	rt, ok := v.Interface().(reflect.Type)
	return rt, ok && rt != nil
}

func dispatchLoader(env *Env, l loader.Loader, v reflect.Value) (deferred.Node, error) {
	frag, err := l.Emit(v.Interface(), env.StaticInit)
	if err != nil {
		return nil, fmt.Errorf("serialize: loader failed for %s: %w", v.Type(), err)
	}
	return deferred.NewArrayStored("", nil, func(_ []string, proc *emit.Procedure) (string, error) {
		for _, imp := range frag.Imports {
			proc.RequireImport(imp)
		}
		return frag.Expr, nil
	}), nil
}

// dispatchSubstitution implements branch 4: convert v to its registered
// stand-in type, recurse on the stand-in so it goes through every
// earlier branch (an inline literal, usually), then wrap the result in
// a call back through the provider's Deserialize once the generated
// program runs. entry.GoExpr must be set (see
// substitution.RegisterWithExpr) - a provider registered only for
// build-time use cannot appear in generated code.
func dispatchSubstitution(env *Env, entry substitution.Entry, v reflect.Value) (deferred.Node, error) {
	if entry.GoExpr == "" {
		return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, fmt.Sprintf("%s: substitution provider has no codegen reference (use substitution.RegisterWithExpr)", v.Type()))
	}

	to, err := entry.Serialize(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("serialize: substitution for %s failed: %w", v.Type(), err)
	}

	toVal := reflect.ValueOf(to)
	toNode, err := Dispatch(env, toVal, entry.To)
	if err != nil {
		return nil, err
	}

	imports := entry.Imports
	return deferred.NewArrayStored(goTypeName(v.Type()), []deferred.Node{toNode}, func(exprs []string, proc *emit.Procedure) (string, error) {
		for _, imp := range imports {
			proc.RequireImport(imp)
		}
		return fmt.Sprintf(
			"func() %s { v, err := (%s).Deserialize(%s); if err != nil { panic(err) }; return v }()",
			goTypeName(v.Type()), entry.GoExpr, exprs[0],
		), nil
	}), nil
}

// dispatchOptionalPointer implements branch 5 for pointer-to-non-struct
// values: *string, *int, and similarly shaped pointers are Go's nilable
// stand-in for java.util.Optional<T>. The nil case is already handled
// by Dispatch's top-level nil check, so only the present case reaches
// here; it recurses on *v and rewraps the result behind a fresh pointer
// at startup, since two occurrences of an "optional" pointer share no
// meaningful identity - the spec only calls for the factory call, not
// a second reference to the same memory.
func dispatchOptionalPointer(env *Env, v reflect.Value) (deferred.Node, error) {
	if v.IsNil() {
		return deferred.NewInline(nil, func([]string) (string, error) { return "nil", nil }), nil
	}
	elem := v.Elem()
	inner, err := Dispatch(env, elem, elem.Type())
	if err != nil {
		return nil, err
	}
	return deferred.NewInline([]deferred.Node{inner}, func(exprs []string) (string, error) {
		return fmt.Sprintf("func() *%s { v := %s; return &v }()", goTypeName(elem.Type()), exprs[0]), nil
	}), nil
}

func dispatchString(v reflect.Value) (deferred.Node, error) {
	s := v.String()
	if len(s) > maxStringBytes {
		return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, fmt.Sprintf("string of %d bytes exceeds %d byte limit", len(s), maxStringBytes))
	}
	lit := strconv.Quote(s)
	return deferred.NewInline(nil, func([]string) (string, error) { return lit, nil }), nil
}

func dispatchURL(v reflect.Value) (deferred.Node, error) {
	u, ok := v.Interface().(*url.URL)
	if !ok || u == nil {
		return deferred.NewInline(nil, func([]string) (string, error) { return "nil", nil }), nil
	}
	lit := strconv.Quote(u.String())
	return deferred.NewArrayStored("*url.URL", nil, func(_ []string, proc *emit.Procedure) (string, error) {
		proc.RequireImport("net/url")
		return fmt.Sprintf("func() *url.URL { u, err := url.Parse(%s); if err != nil { panic(err) }; return u }()", lit), nil
	}), nil
}

// dispatchEnum implements branch 8: a named integer/string type whose
// human-readable form round-trips through a registered parse function -
// the Go analogue of "enum valueOf", since Go has no enum keyword of its
// own to detect via reflection.
func dispatchEnum(env *Env, v reflect.Value, info classref.EnumInfo) (deferred.Node, error) {
	str, ok := v.Interface().(fmt.Stringer)
	if !ok {
		return nil, rerrors.Wrap(rerrors.ErrUnsupportedValue, fmt.Sprintf("%s: registered enum type has no String() method", v.Type()))
	}
	lit := strconv.Quote(str.String())
	typeName := goTypeName(v.Type())
	parseExpr := info.ParseExpr
	imports := info.Imports
	return deferred.NewArrayStored(typeName, nil, func(_ []string, proc *emit.Procedure) (string, error) {
		for _, imp := range imports {
			proc.RequireImport(imp)
		}
		return fmt.Sprintf("func() %s { v, err := %s(%s); if err != nil { panic(err) }; return v }()", typeName, parseExpr, lit), nil
	}), nil
}

// dispatchHandle implements branch 9: the argument itself is a
// *runtimeval.Handle, standing in for a value some earlier recorded call
// will publish under its key once the generated program runs. expected
// is the declared type of the position this value fills, used to cast
// the any the startup context hands back - unless expected is itself
// *runtimeval.Handle (which can never be the real published value; a
// Handle is a pure build-time bookkeeping device, never something a
// generated call actually publishes) or the empty interface (where a
// cast would be a redundant no-op), so no assertion is emitted and the
// consuming position receives the bare any. A recordable method that
// forwards one call's result into another must declare that parameter
// as `any` rather than *runtimeval.Handle for exactly this reason.
func dispatchHandle(v reflect.Value, expected reflect.Type) (deferred.Node, error) {
	h, ok := v.Interface().(*runtimeval.Handle)
	if !ok || h == nil {
		return deferred.NewInline(nil, func([]string) (string, error) { return "nil", nil }), nil
	}
	key := strconv.Quote(h.Key())
	if expected == handlePtrType || (expected.Kind() == reflect.Interface && expected.NumMethod() == 0) {
		return deferred.NewInline(nil, func([]string) (string, error) {
			return fmt.Sprintf("ctx.MustGet(%s)", key), nil
		}), nil
	}
	typeName := goTypeName(expected)
	return deferred.NewInline(nil, func([]string) (string, error) {
		return fmt.Sprintf("ctx.MustGet(%s).(%s)", key, typeName), nil
	}), nil
}

func dispatchDuration(v reflect.Value) (deferred.Node, error) {
	d := v.Interface().(time.Duration)
	lit := strconv.Quote(d.String())
	return deferred.NewArrayStored("time.Duration", nil, func(_ []string, proc *emit.Procedure) (string, error) {
		proc.RequireImport("time")
		return fmt.Sprintf("func() time.Duration { d, err := time.ParseDuration(%s); if err != nil { panic(err) }; return d }()", lit), nil
	}), nil
}

func dispatchScalar(v reflect.Value) (deferred.Node, error) {
	lit, err := scalarLiteral(v)
	if err != nil {
		return nil, err
	}
	return deferred.NewInline(nil, func([]string) (string, error) { return lit, nil }), nil
}

func scalarLiteral(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	}
	return "", rerrors.Wrap(rerrors.ErrUnsupportedValue, v.Type().String())
}

func goTypeName(t reflect.Type) string {
	return t.String()
}
