// Package runtimeval provides the opaque stand-in a recorder method
// returns instead of a real value, publishing the real value under a
// key in the startup context once the generated program actually runs.
//
// It is the Go analogue of the return-value proxy: recorder "classes" in
// this engine are Go structs with function-typed fields, and Go has no
// way to synthesize an implementation of an arbitrary interface at
// runtime the way a JVM proxy can. Restricting every non-void recorder
// method to return exactly *Handle sidesteps that limitation entirely
// while preserving the spec's own escape hatch (a "library-provided
// runtime-value wrapper").
package runtimeval

import (
	"fmt"

	"github.com/google/uuid"
)

// Handle is the only type a recorded method may return besides nothing.
// It carries no payload at build time - the payload is produced by the
// generated program and published into the startup context under Key()
// when the generated program actually runs.
type Handle struct {
	key        string
	staticInit bool
}

// New mints a Handle with a fresh, globally unique key.
func New(staticInit bool) *Handle {
	return &Handle{
		key:        uuid.NewString(),
		staticInit: staticInit,
	}
}

// Key returns the opaque string used to publish/retrieve the real value
// from the startup context.
func (h *Handle) Key() string {
	return h.key
}

// IsStaticInit reports whether this handle was minted by a static-init
// recorder. A runtime-phase handle must never be consumed by a
// static-init recorder (see rerrors.ErrCrossPhaseProxy).
func (h *Handle) IsStaticInit() bool {
	return h.staticInit
}

// String intentionally never triggers a recording: logging or printing a
// Handle is common by accident and must stay side-effect free.
func (h *Handle) String() string {
	return fmt.Sprintf("runtimeval.Handle{%s}", h.key)
}
