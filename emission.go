package recorder

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/mstgnz/recorder/deferred"
	"github.com/mstgnz/recorder/emit"
	"github.com/mstgnz/recorder/rerrors"
	"github.com/mstgnz/recorder/serialize"
)

const defaultPackage = "generated"

// SetPackage sets the package name the generated source declares.
// Defaults to "generated".
func (c *Context) SetPackage(pkg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pkg = pkg
}

func (c *Context) packageName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pkg == "" {
		return defaultPackage
	}
	return c.pkg
}

// Emit renders this session's recorded calls as a formatted Go source
// file implementing startup.StartupTask, and writes it to w.
//
// Emission runs in two passes, matching the "no new deferred node after
// emission begins" invariant (spec section 3): first every recorded
// argument is walked through serialize.Dispatch to build the complete
// deferred-node forest (populating the shared identity graph), then the
// graph is frozen, and only then does the emit.Emitter actually prepare
// and load each node, writing generated statements in call order.
func (c *Context) Emit(w io.Writer) error {
	c.mu.Lock()
	calls := append([]*StoredCall(nil), c.calls...)
	newInstances := append([]*NewInstanceCall(nil), c.newInstances...)
	env := &serialize.Env{
		Graph:         c.graph,
		Loaders:       c.loaders,
		Substitutions: c.substitutions,
		Constants:     c.constants,
		Ctors:         c.ctors,
		FieldCtors:    c.fieldCtors,
		ClassRefs:     c.classRefs,
		Recordable:    c.recordable,
		StaticInit:    c.staticInit,
		Relaxed:       c.relaxed,
	}
	c.mu.Unlock()

	for _, call := range calls {
		sig := call.Field.Type
		call.ArgNodes = make([]deferred.Node, len(call.Args))
		for i, a := range call.Args {
			node, err := serialize.Dispatch(env, a, sig.In(i))
			if err != nil {
				return fmt.Errorf("recorder: %s.%s arg %d: %w", call.Field.Type.String(), call.Field.Name, i, err)
			}
			call.ArgNodes[i] = node
		}
	}

	env.Graph.Freeze()

	e := emit.New(c.packageName(), c.taskTypeName())

	for _, call := range calls {
		for _, node := range call.ArgNodes {
			if err := node.Prepare(e); err != nil {
				return err
			}
		}

		// The call's own statements (real-value construction plus the
		// method invocation) form one indivisible group, begun only
		// after every argument's own creation code has already been
		// written - possibly into an earlier continuation.
		proc := e.BeginGroup()

		argExprs := make([]string, len(call.Args))
		for i, node := range call.ArgNodes {
			expr, err := node.Load(e)
			if err != nil {
				return err
			}
			argExprs[i] = expr
		}

		if call.ImplExpr == "" {
			return rerrors.Wrap(rerrors.ErrUnsupportedValue, call.Field.Type.String()+"."+call.Field.Name+": no real implementation reference (GetRecordingProxy implExpr)")
		}
		for _, imp := range call.ImplImports {
			proc.RequireImport(imp)
		}

		recv := proc.AllocLocal("rec")
		proc.Emit("%s := %s", recv, call.ImplExpr)
		callExpr := fmt.Sprintf("%s.%s(%s)", recv, call.Field.Name, strings.Join(argExprs, ", "))

		if call.Handle != nil {
			proc.Emit("ctx.Put(%q, %s)", call.Handle.Key(), callExpr)
		} else {
			proc.EmitRaw(callExpr)
		}
	}

	for _, nc := range newInstances {
		proc := e.BeginGroup()
		expr, err := zeroValueExpr(nc.Type, proc)
		if err != nil {
			return err
		}
		proc.Emit("ctx.Put(%q, %s)", nc.Handle.Key(), expr)
	}

	src, err := e.Source()
	if err != nil {
		return err
	}
	_, err = w.Write(src)
	return err
}

// zeroValueExpr renders the Go expression constructing a fresh
// zero-value instance of t - the "new T()" default constructor (spec
// section 3, NewInstanceCall) for the common pointer-to-struct and
// struct shapes. Other shapes have no meaningful "zero-value
// constructor" and are rejected.
func zeroValueExpr(t reflect.Type, proc *emit.Procedure) (string, error) {
	switch t.Kind() {
	case reflect.Ptr:
		if t.Elem().Kind() != reflect.Struct {
			return "", rerrors.Wrap(rerrors.ErrUnsupportedValue, t.String()+": NewInstance requires a pointer-to-struct class reference")
		}
		proc.RequireImport(t.Elem().PkgPath())
		return fmt.Sprintf("new(%s)", qualifiedTypeName(t.Elem())), nil
	case reflect.Struct:
		proc.RequireImport(t.PkgPath())
		return fmt.Sprintf("%s{}", qualifiedTypeName(t)), nil
	default:
		return "", rerrors.Wrap(rerrors.ErrUnsupportedValue, t.String()+": NewInstance requires a pointer-to-struct or struct class reference")
	}
}

func qualifiedTypeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return importAlias(t.PkgPath()) + "." + t.Name()
}

func importAlias(pkgPath string) string {
	for i := len(pkgPath) - 1; i >= 0; i-- {
		if pkgPath[i] == '/' {
			return pkgPath[i+1:]
		}
	}
	return pkgPath
}
