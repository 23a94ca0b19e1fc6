// Package serialize implements the sixteen-branch serialization dispatch
// (spec section 4.3) and complex-object construction (spec section 4.4):
// given a recorded argument value, it decides how to reconstruct it once
// the generated program starts, producing a deferred.Node.
package serialize

import (
	"reflect"

	"github.com/mstgnz/recorder/classref"
	"github.com/mstgnz/recorder/constants"
	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/loader"
	"github.com/mstgnz/recorder/substitution"
)

// Env bundles every registry and piece of per-emission state the
// dispatcher and complex-object builder need, mirroring the extension
// hooks a *recorder.Context exposes to build steps.
type Env struct {
	Graph         *deferred.Graph
	Loaders       *loader.Registry
	Substitutions *substitution.Registry
	Constants     *constants.Registry
	Ctors         *constants.CtorRegistry
	FieldCtors    *constants.FieldCtorRegistry
	ClassRefs     *classref.Registry

	// Recordable holds the struct types marked via
	// recorder.MarkRecordable. No dispatch branch reads it.
	Recordable map[reflect.Type]bool

	// StaticInit indicates this value is being recorded from a
	// static-init build step (affects loader CanHandle and the
	// cross-phase handle check performed by the recorder package).
	StaticInit bool

	// Relaxed carries the context's relaxed-mode flag. No dispatch
	// branch reads it; field writes are not checked for assignability
	// in either mode.
	Relaxed bool
}

// NewEnv creates an Env with every registry freshly initialized.
func NewEnv(staticInit bool) *Env {
	return &Env{
		Graph:         deferred.NewGraph(),
		Loaders:       loader.NewRegistry(),
		Substitutions: substitution.NewRegistry(),
		Constants:     constants.NewRegistry(),
		Ctors:         constants.NewCtorRegistry(),
		FieldCtors:    constants.NewFieldCtorRegistry(),
		ClassRefs:     classref.NewRegistry(),
		Recordable:    make(map[reflect.Type]bool),
		StaticInit:    staticInit,
	}
}
