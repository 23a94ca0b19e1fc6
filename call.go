package recorder

import (
	"reflect"

	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/runtimeval"
)

// StoredCall is one intercepted invocation of a recordable proxy field:
// which field, with which original argument values, plus (once Emit
// walks the deferred graph) each argument's reconstruction plan.
// ImplExpr/Imports name the real, non-proxied value the generated
// program calls the same-named method on - the Go analogue of
// "instantiate the real recorder class at startup and call its real
// method", since a Go struct's function-typed field, once overwritten
// by the proxy, carries no way back to whatever closure it held before.
type StoredCall struct {
	Field       reflect.StructField
	Args        []reflect.Value
	ArgNodes    []deferred.Node
	Handle      *runtimeval.Handle
	ImplExpr    string
	ImplImports []string
}

// NewInstanceCall records a request (made via Context.NewInstance) to
// construct a fresh zero-value instance of Type once the generated
// program runs, publishing it under Handle's key.
type NewInstanceCall struct {
	Type   reflect.Type
	Handle *runtimeval.Handle
}
