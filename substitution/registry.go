// Package substitution implements the substitution extension hook:
// a pair of conversion functions letting otherwise-unsupported types be
// recorded by round-tripping through a supported "to" type.
package substitution

import (
	"reflect"
	"sync"
)

// Provider converts between an unsupported type F and a supported
// stand-in type T. Serialize runs at build time; Deserialize is emitted
// into the generated program and runs at startup.
type Provider[F any, T any] interface {
	Serialize(from F) (T, error)
	Deserialize(to T) (F, error)
}

// Entry is the type-erased form of a registered Provider, keyed by the
// "from" type and carrying the "to" type plus adapter closures so the
// rest of the engine never needs to know F and T as type parameters.
type Entry struct {
	From reflect.Type
	To   reflect.Type

	// GoExpr is the package-qualified expression for the provider
	// instance in generated code (e.g. "providers.URLProvider{}"), used
	// by the serializer to emit a Deserialize call that runs once the
	// generated program starts - a build-time Go closure cannot itself
	// be spliced into generated source text. Empty if this provider was
	// registered only for build-time use (no codegen support).
	GoExpr  string
	Imports []string

	serialize   func(from any) (any, error)
	deserialize func(to any) (any, error)
}

// Serialize converts a value of the From type to the To type.
func (e Entry) Serialize(from any) (any, error) {
	return e.serialize(from)
}

// Deserialize converts a value of the To type back to the From type.
func (e Entry) Deserialize(to any) (any, error) {
	return e.deserialize(to)
}

// Registry maps a "from" type to its registered substitution entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]Entry
}

// NewRegistry creates an empty substitution Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]Entry)}
}

// Register records provider as the substitution for F -> T.
func Register[F any, T any](r *Registry, provider Provider[F, T]) {
	var zeroF F
	var zeroT T

	entry := Entry{
		From: reflect.TypeOf(zeroF),
		To:   reflect.TypeOf(zeroT),
		serialize: func(from any) (any, error) {
			return provider.Serialize(from.(F))
		},
		deserialize: func(to any) (any, error) {
			return provider.Deserialize(to.(T))
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.From] = entry
}

// RegisterWithExpr is Register plus the generated-code reference needed
// to call provider.Deserialize from the startup-time generated source:
// goExpr is a package-qualified expression evaluating to a Provider[F, T]
// value (typically a zero-value struct or a package-level var), and
// imports lists the package paths goExpr needs in scope.
func RegisterWithExpr[F any, T any](r *Registry, provider Provider[F, T], goExpr string, imports ...string) {
	Register[F, T](r, provider)

	var zeroF F
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[reflect.TypeOf(zeroF)]
	entry.GoExpr = goExpr
	entry.Imports = imports
	r.entries[reflect.TypeOf(zeroF)] = entry
}

// Lookup returns the registered substitution entry for t, if any.
func (r *Registry) Lookup(t reflect.Type) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[t]
	return e, ok
}
