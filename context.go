// Package recorder is the root build-time API of the recording/
// serialization engine: build steps obtain recording proxies through a
// *Context, call methods on them as if driving the real object, and
// later Emit a generated Go source file that replays those calls once
// the program actually starts (spec section 6, "External interfaces").
//
// It plays the role the teacher's gioc.go global container played, but
// scoped to one *Context per build step/emission instead of a single
// process-wide container - recording state must never leak between
// independently generated StartupTasks (spec section 5).
package recorder

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mstgnz/recorder/classref"
	"github.com/mstgnz/recorder/constants"
	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/loader"
	"github.com/mstgnz/recorder/proxy"
	"github.com/mstgnz/recorder/runtimeval"
	"github.com/mstgnz/recorder/substitution"
)

// proxyBinding is what Context remembers about a proxy type after its
// first GetRecordingProxy call: the cached instance (so repeated calls
// return the same pointer, spec section 6) plus the generated-code
// reference for the real, non-recording value its calls replay against.
type proxyBinding struct {
	instance any
	implExpr string
	imports  []string
}

// Context is one build step's recording session: every proxy obtained
// from it, every call made against those proxies, and every extension
// registry (substitution, constructor, loader, constant, class
// reference) a build step wires in before or during recording.
type Context struct {
	mu         sync.Mutex
	name       string
	pkg        string
	staticInit bool
	relaxed    bool

	graph         *deferred.Graph
	loaders       *loader.Registry
	substitutions *substitution.Registry
	constants     *constants.Registry
	ctors         *constants.CtorRegistry
	fieldCtors    *constants.FieldCtorRegistry
	classRefs     *classref.Registry

	recordable map[reflect.Type]bool
	proxies    map[reflect.Type]proxyBinding

	calls        []*StoredCall
	newInstances []*NewInstanceCall
}

// NewContext creates an empty recording session named name (used to
// derive the generated type's name). staticInit marks this session as
// recording a static-init build step, which forbids consuming a
// *runtimeval.Handle minted by a runtime-phase context (ErrCrossPhaseProxy).
func NewContext(name string, staticInit bool) *Context {
	return &Context{
		name:          name,
		staticInit:    staticInit,
		graph:         deferred.NewGraph(),
		loaders:       loader.NewRegistry(),
		substitutions: substitution.NewRegistry(),
		constants:     constants.NewRegistry(),
		ctors:         constants.NewCtorRegistry(),
		fieldCtors:    constants.NewFieldCtorRegistry(),
		classRefs:     classref.NewRegistry(),
		recordable:    make(map[reflect.Type]bool),
		proxies:       make(map[reflect.Type]proxyBinding),
	}
}

// Name returns this session's build-step name.
func (c *Context) Name() string {
	return c.name
}

// IsEmpty reports whether nothing (no call and no NewInstance request)
// has been recorded against this context yet - a build step with
// nothing to replay can skip Emit entirely, matching the teacher's
// "nothing to do" early exits.
func (c *Context) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls) == 0 && len(c.newInstances) == 0
}

// Relaxed reports whether relaxed mode is set on this context. The flag
// is passed to serialization (serialize.Env.Relaxed), but no dispatch
// branch reads it: field writes during complex-object population are
// not checked for assignability in either mode.
func (c *Context) Relaxed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.relaxed
}

// SetRelaxed sets the relaxed-mode flag reported by Relaxed.
func (c *Context) SetRelaxed(relaxed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relaxed = relaxed
}

// GetRecordingProxy returns the cached recording proxy for T, creating
// one on first call for this context. implExpr is a package-qualified
// expression for a real, non-recording value of the same shape as T
// (same exported method names) that the generated program constructs
// and calls once it actually runs - Go cannot recover "the closure this
// field held before the proxy overwrote it", so the real implementation
// must be supplied by reference instead (the same GoExpr idiom used
// throughout substitution/constants/classref). On later calls, implExpr
// and imports are ignored; the first registration wins.
func GetRecordingProxy[T any](c *Context, implExpr string, imports ...string) *T {
	var zero T
	t := reflect.TypeOf(zero)

	c.mu.Lock()
	if existing, ok := c.proxies[t]; ok {
		c.mu.Unlock()
		return existing.instance.(*T)
	}
	c.mu.Unlock()

	p := proxy.New[T](&interceptor{ctx: c, declType: t})

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.proxies[t]; ok {
		return existing.instance.(*T)
	}
	c.proxies[t] = proxyBinding{instance: p, implExpr: implExpr, imports: imports}
	return p
}

// NewInstance records a request to construct a fresh, zero-value
// instance of t once the generated program runs (the Go analogue of
// "new T()" recorded as a build-time instruction rather than executed
// immediately), returning a handle standing in for it.
func (c *Context) NewInstance(t reflect.Type) *runtimeval.Handle {
	h := runtimeval.New(c.staticInit)
	c.mu.Lock()
	c.newInstances = append(c.newInstances, &NewInstanceCall{Type: t, Handle: h})
	c.mu.Unlock()
	return h
}

// ClassRef returns the stand-in class reference for name, for classes
// that will only be loadable once the generated program's own runtime
// classpath (or equivalent) makes them so. It is this engine's closest
// Go analogue to a `reflect.Type` for a not-yet-loadable class: actual
// `reflect.Type` values cannot be synthesized from a bare name, so the
// dispatcher treats *classref.Ref as a first-class value kind in its
// own right (serialize/reflecttype.go) rather than requiring a real
// reflect.Type at build time.
func (c *Context) ClassRef(name string) *classref.Ref {
	return c.classRefs.Proxy(name)
}

// RegisterSubstitution records provider for build-time use only: values
// of type F serialize through provider.Serialize, but Emit fails with
// ErrUnsupportedValue if one is actually encountered, since a bare
// in-memory closure cannot be spliced into generated source. Use
// RegisterSubstitutionWithExpr when the provider (or an equivalent
// package-level value) is itself reachable from generated code.
func RegisterSubstitution[F any, T any](c *Context, provider substitution.Provider[F, T]) {
	substitution.Register[F, T](c.substitutions, provider)
}

// RegisterSubstitutionWithExpr is RegisterSubstitution plus the
// generated-code reference needed to call provider.Deserialize once the
// generated program runs.
func RegisterSubstitutionWithExpr[F any, T any](c *Context, provider substitution.Provider[F, T], goExpr string, imports ...string) {
	substitution.RegisterWithExpr[F, T](c.substitutions, provider, goExpr, imports...)
}

// RegisterConstructor records ctor as the recordable constructor for t,
// collapsing spec section 4.4's strategies (b)-(d) (the bean-convention
// "widest constructor", the sole registered constructor, and the
// explicitly marked constructor) into the single mechanism Go's lack of
// runtime package-function introspection leaves available: the build
// step must name the constructor explicitly. Its argument values are
// matched against the constructed object's exported fields by parameter
// name (internal/paramnames). goExpr is the constructor's package-
// qualified expression in generated code.
func (c *Context) RegisterConstructor(t reflect.Type, ctor any, goExpr string, imports ...string) error {
	return c.fieldCtors.RegisterWithExpr(t, ctor, true, goExpr, imports...)
}

// RegisterNonDefaultConstructor records ctor, plus the build-time
// extractor that computes its argument values from an existing object,
// as strategy (a): a fully custom construction path that does not
// populate any further fields. goExpr is the constructor's package-
// qualified expression in generated code.
func (c *Context) RegisterNonDefaultConstructor(t reflect.Type, ctor any, extract func(obj any) ([]any, error), goExpr string, imports ...string) error {
	return c.ctors.RegisterNonDefaultConstructorWithExpr(t, ctor, extract, goExpr, imports...)
}

// RegisterLoader appends l to this context's pluggable object-loader
// chain (spec section 4.3, branch 2).
func (c *Context) RegisterLoader(l loader.Loader) {
	c.loaders.Register(l)
}

// RegisterConstant records value as the constant for T in this
// context's constant registry. Serialization and emission do not
// consult that registry: an argument of type T is still serialized from
// its own value.
func RegisterConstant[T any](c *Context, value T) {
	constants.Register[T](c.constants, value)
}

// MarkRecordable records t as a recordable type. The mark is passed to
// serialization (serialize.Env.Recordable), but no dispatch branch reads
// it: a struct with a constructor registered through RegisterConstructor
// is built through that constructor whether or not it is marked, and a
// struct without one falls back to a zero-value literal plus field
// writes whether or not it is marked.
func (c *Context) MarkRecordable(t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordable[t] = true
}

// RegisterEnum records how to parse t back from its String() form
// (spec section 4.3, branch 8).
func (c *Context) RegisterEnum(t reflect.Type, info classref.EnumInfo) {
	c.classRefs.RegisterEnum(t, info)
}

func (c *Context) taskTypeName() string {
	return fmt.Sprintf("%sTask", c.name)
}
