// Package proxy builds recorder proxies: structs whose exported
// function-typed fields are populated with reflect.MakeFunc values that
// dispatch every call to a Handler instead of running real logic (spec
// section 4.1, "Proxy Factory").
//
// Go cannot synthesize a new type implementing an arbitrary interface at
// runtime the way a JVM dynamic proxy can. A recorder "class" in this
// engine is therefore not an interface implementation but an ordinary
// struct declared with function-typed fields; New assigns each field a
// reflect.MakeFunc closure, one per field, which is the part Go actually
// lets you synthesize at runtime.
package proxy

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mstgnz/recorder/rerrors"
	"github.com/mstgnz/recorder/runtimeval"
)

// Handler receives every call made through a proxy's method fields.
type Handler interface {
	// Dispatch is invoked once per call to a proxied field. method is the
	// struct field's name, sig is that field's func type, and args are
	// the call's arguments (receiver excluded: there is none, these are
	// plain func fields, not methods). The returned values must match
	// sig's Out types exactly.
	Dispatch(method string, sig reflect.Type, args []reflect.Value) []reflect.Value
}

var handleType = reflect.TypeOf((*runtimeval.Handle)(nil))

// Validate checks that t (which must be a struct type) is shaped like a
// valid recorder class: every exported func field has a return
// signature that is either empty or exactly (*runtimeval.Handle).
// Exported fields of other kinds are skipped. It returns the names of
// the func fields that must be proxied.
func Validate(t reflect.Type) ([]string, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("proxy: %s is not a struct", t)
	}

	var fields []string
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if f.Type.Kind() != reflect.Func {
			continue
		}
		switch f.Type.NumOut() {
		case 0:
		case 1:
			if f.Type.Out(0) != handleType {
				return nil, rerrors.Wrap(rerrors.ErrUnrecordableReturn, t.String()+"."+f.Name)
			}
		default:
			return nil, rerrors.Wrap(rerrors.ErrUnrecordableReturn, t.String()+"."+f.Name)
		}
		fields = append(fields, f.Name)
	}
	return fields, nil
}

// cache remembers, per struct type, the field names that New must wire -
// Validate only needs to run reflection once per type even though New
// may be called many times for the same recorder class.
var cache sync.Map // reflect.Type -> []string

// New allocates a *T (T must be a struct whose exported func fields all
// return either nothing or *runtimeval.Handle) and wires every such
// field to call h.Dispatch. It panics if T is not proxyable, since
// that is a programming error in the recorder class declaration, not a
// runtime condition callers should handle.
func New[T any](h Handler) *T {
	var zero T
	t := reflect.TypeOf(zero)

	var fields []string
	if cached, ok := cache.Load(t); ok {
		fields = cached.([]string)
	} else {
		f, err := Validate(t)
		if err != nil {
			panic(err)
		}
		cache.Store(t, f)
		fields = f
	}

	instance := new(T)
	v := reflect.ValueOf(instance).Elem()

	for _, name := range fields {
		field := v.FieldByName(name)
		sig := field.Type()
		methodName := name
		fn := reflect.MakeFunc(sig, func(args []reflect.Value) []reflect.Value {
			return h.Dispatch(methodName, sig, args)
		})
		field.Set(fn)
	}

	return instance
}
