// Package classref models "class literal" values recorded from build
// steps - the Go analogue of java.lang.Class references. A concrete Go
// type is represented by its reflect.Type. A type that is not loadable
// at build time (the source system's rationale for "class-name proxy")
// is represented by a Ref wrapping a name with no backing reflect.Type;
// the dispatcher and emitter both understand Ref as a first-class value
// kind, never needing an actual reflect.Type for it until startup.
package classref

import (
	"fmt"
	"reflect"
	"sync"
)

// Ref is either a concrete, already-loaded type or a named placeholder
// for a type that will only be loadable once the generated program
// starts.
type Ref struct {
	name     string
	concrete reflect.Type
}

// Of wraps an already-loaded type.
func Of(t reflect.Type) *Ref {
	if t == nil {
		panic("classref: Of called with nil type")
	}
	return &Ref{name: t.String(), concrete: t}
}

// Name returns the original (pre-substitution) type name recorded for
// this reference, regardless of whether it is concrete or a proxy.
func (r *Ref) Name() string {
	return r.name
}

// IsProxy reports whether this Ref has no backing reflect.Type.
func (r *Ref) IsProxy() bool {
	return r.concrete == nil
}

// Concrete returns the backing reflect.Type, or nil for a proxy Ref.
func (r *Ref) Concrete() reflect.Type {
	return r.concrete
}

func (r *Ref) String() string {
	if r.IsProxy() {
		return fmt.Sprintf("classref.Ref{proxy:%s}", r.name)
	}
	return fmt.Sprintf("classref.Ref{%s}", r.name)
}

// EnumInfo names the parse function used to reconstruct a Go "enum"
// (a named integer or string type with a String/parse pair) at startup.
type EnumInfo struct {
	// ParseExpr is a package-qualified function expression taking the
	// enum's String() output and returning (T, error), e.g.
	// "colors.ParseStatus".
	ParseExpr string
	Imports   []string
}

// Registry lets build steps mint Refs for classes that will only exist
// once the build-step scheduler (or the generated program's classpath)
// makes them loadable. Every call with the same name returns the same
// *Ref, so identity-keyed deduplication in the deferred graph still
// dedupes repeated references to the same not-yet-loadable class.
type Registry struct {
	mu      sync.Mutex
	proxies map[string]*Ref
	enums   map[reflect.Type]EnumInfo
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{proxies: make(map[string]*Ref), enums: make(map[reflect.Type]EnumInfo)}
}

// RegisterEnum records how to parse t back from its String() form.
func (r *Registry) RegisterEnum(t reflect.Type, info EnumInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enums[t] = info
}

// LookupEnum returns the registered parse info for t, if any.
func (r *Registry) LookupEnum(t reflect.Type) (EnumInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.enums[t]
	return info, ok
}

// Proxy returns the stand-in Ref for name, creating it on first use.
func (r *Registry) Proxy(name string) *Ref {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.proxies[name]; ok {
		return existing
	}
	ref := &Ref{name: name}
	r.proxies[name] = ref
	return ref
}
