// Package constants implements two of the engine's extension hooks: the
// constant registry (one fixed value per type) and the constructor
// registries used by complex-object
// serialization to construct values that are not plain bean-style
// structs.
package constants

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mstgnz/recorder/rerrors"
)

// Registry maps a type to a single constant value. It only stores and
// returns values; the serializer does not consult it.
type Registry struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

// NewRegistry creates an empty constant Registry.
func NewRegistry() *Registry {
	return &Registry{values: make(map[reflect.Type]any)}
}

// Register records value as the constant for T. Registering twice for
// the same type overwrites the previous value - the same last-writer-
// wins policy CtorRegistry follows (FieldCtorRegistry instead rejects a
// second registration).
func Register[T any](r *Registry, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[reflect.TypeOf(value)] = value
}

// Lookup returns the constant registered for t, if any.
func (r *Registry) Lookup(t reflect.Type) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[t]
	return v, ok
}

// CtorEntry is a non-default constructor registered for a type, paired
// with the extractor that computes its argument values at build time.
// GoExpr, when set, is the package-qualified function expression the
// serializer emits to call the real constructor from generated code
// (the in-memory Ctor value lets build-time code introspect the
// constructor's signature, but cannot itself be spliced into generated
// source text).
type CtorEntry struct {
	Ctor    reflect.Value
	Extract func(obj any) ([]any, error)
	GoExpr  string
	Imports []string
}

// CtorRegistry holds registered non-default constructors (complex-object
// serialization strategy (a) in SPEC_FULL.md §4.4).
type CtorRegistry struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]CtorEntry
}

// NewCtorRegistry creates an empty CtorRegistry.
func NewCtorRegistry() *CtorRegistry {
	return &CtorRegistry{ctors: make(map[reflect.Type]CtorEntry)}
}

// RegisterNonDefaultConstructor records ctor (a function returning a
// single value of type t) and its argument extractor for t.
func (r *CtorRegistry) RegisterNonDefaultConstructor(t reflect.Type, ctor any, extract func(obj any) ([]any, error)) error {
	return r.RegisterNonDefaultConstructorWithExpr(t, ctor, extract, "")
}

// RegisterNonDefaultConstructorWithExpr is
// RegisterNonDefaultConstructor plus the generated-code reference
// (goExpr, imports) needed to call the real constructor once the
// generated program runs.
func (r *CtorRegistry) RegisterNonDefaultConstructorWithExpr(t reflect.Type, ctor any, extract func(obj any) ([]any, error), goExpr string, imports ...string) error {
	ctorVal := reflect.ValueOf(ctor)
	if ctorVal.Kind() != reflect.Func {
		return fmt.Errorf("constants: non-default constructor for %s must be a function, got %s", t, ctorVal.Kind())
	}
	if ctorVal.Type().NumOut() != 1 {
		return fmt.Errorf("constants: non-default constructor for %s must return exactly one value", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[t] = CtorEntry{Ctor: ctorVal, Extract: extract, GoExpr: goExpr, Imports: imports}
	return nil
}

// Lookup returns the registered non-default constructor for t, if any.
func (r *CtorRegistry) Lookup(t reflect.Type) (CtorEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.ctors[t]
	return e, ok
}

// FieldCtorEntry is a "recordable" constructor whose arguments are
// resolved automatically by matching its parameter names against the
// constructed object's exported field names (strategies (b)-(d)).
type FieldCtorEntry struct {
	Ctor    reflect.Value
	Marked  bool // explicitly marked recordable vs. the sole registered constructor
	GoExpr  string
	Imports []string
}

// FieldCtorRegistry holds per-type constructors used with name-based
// parameter matching.
type FieldCtorRegistry struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]FieldCtorEntry
}

// NewFieldCtorRegistry creates an empty FieldCtorRegistry.
func NewFieldCtorRegistry() *FieldCtorRegistry {
	return &FieldCtorRegistry{ctors: make(map[reflect.Type]FieldCtorEntry)}
}

// Register records ctor as the recordable constructor for t. Calling
// this twice for the same type is an ambiguous-constructor build error:
// Go has no way to discover "all public constructors" of a type by
// reflection the way the JVM can, so the engine requires the build step
// to settle on exactly one and treats a second registration as the
// "multiple equally-wide constructors" case from spec section 7.
func (r *FieldCtorRegistry) Register(t reflect.Type, ctor any, marked bool) error {
	return r.RegisterWithExpr(t, ctor, marked, "")
}

// RegisterWithExpr is Register plus the generated-code reference
// (goExpr, imports) needed to call the real constructor once the
// generated program runs.
func (r *FieldCtorRegistry) RegisterWithExpr(t reflect.Type, ctor any, marked bool, goExpr string, imports ...string) error {
	ctorVal := reflect.ValueOf(ctor)
	if ctorVal.Kind() != reflect.Func {
		return fmt.Errorf("constants: recordable constructor for %s must be a function, got %s", t, ctorVal.Kind())
	}
	if ctorVal.Type().NumOut() != 1 {
		return fmt.Errorf("constants: recordable constructor for %s must return exactly one value", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[t]; exists {
		return fmt.Errorf("constants: %s already has a recordable constructor registered: %w", t, rerrors.Wrap(rerrors.ErrAmbiguousConstructor, t.String()))
	}
	r.ctors[t] = FieldCtorEntry{Ctor: ctorVal, Marked: marked, GoExpr: goExpr, Imports: imports}
	return nil
}

// Lookup returns the registered recordable constructor for t, if any.
func (r *FieldCtorRegistry) Lookup(t reflect.Type) (FieldCtorEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.ctors[t]
	return e, ok
}
