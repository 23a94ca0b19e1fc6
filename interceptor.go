package recorder

import (
	"reflect"

	"github.com/mstgnz/recorder/rerrors"
	"github.com/mstgnz/recorder/runtimeval"
)

// interceptor implements proxy.Handler for exactly one *Context and one
// proxy type: every call made through the struct proxy.New built for
// declType lands here (spec section 4.2, "Recording Interceptor").
type interceptor struct {
	ctx      *Context
	declType reflect.Type
}

var handleType = reflect.TypeOf((*runtimeval.Handle)(nil))

// Dispatch records one call: it rejects runtime-phase handles passed
// into a static-init context, appends a StoredCall, and - for non-void
// fields - mints and returns a fresh *runtimeval.Handle standing in for
// whatever the real call will eventually produce.
func (i *interceptor) Dispatch(method string, sig reflect.Type, args []reflect.Value) []reflect.Value {
	if i.ctx.staticInit {
		for _, a := range args {
			v := a
			if v.Kind() == reflect.Interface && !v.IsNil() {
				v = v.Elem()
			}
			if v.Type() != handleType || v.IsNil() {
				continue
			}
			h := v.Interface().(*runtimeval.Handle)
			if !h.IsStaticInit() {
				panic(rerrors.Wrap(rerrors.ErrCrossPhaseProxy, i.declType.String()+"."+method))
			}
		}
	}

	field, _ := i.declType.FieldByName(method)

	i.ctx.mu.Lock()
	binding := i.ctx.proxies[i.declType]
	call := &StoredCall{
		Field:       field,
		Args:        append([]reflect.Value(nil), args...),
		ImplExpr:    binding.implExpr,
		ImplImports: binding.imports,
	}
	i.ctx.calls = append(i.ctx.calls, call)
	i.ctx.mu.Unlock()

	if sig.NumOut() == 0 {
		return nil
	}

	h := runtimeval.New(i.ctx.staticInit)
	call.Handle = h
	return []reflect.Value{reflect.ValueOf(h)}
}
