// Package deferred implements the deferred-parameter graph: the plan
// nodes describing how to reconstruct a recorded argument at startup
// (spec section 3/4.3), and the identity map that deduplicates shared
// subgraphs across one emission (spec section 3, "Identity map").
package deferred

import (
	"fmt"

	"github.com/mstgnz/recorder/emit"
)

// Node is a deferred parameter: something known at build time that must
// be reconstructed once the generated program runs.
type Node interface {
	// Prepare wires this node's subgraph and, for stateful nodes, emits
	// their creation code into whichever procedure is current the first
	// time Prepare runs. Idempotent.
	Prepare(e *emit.Emitter) error
	// Load returns the Go expression referencing this node's value at
	// the current use site. May only be called after Prepare.
	Load(e *emit.Emitter) (string, error)
}

// Inline is a node that produces its value by direct emission at every
// use site: it never owns a statement of its own, only an expression
// built from its children's Load results.
type Inline struct {
	children []Node
	build    func(childExprs []string) (string, error)
	prepared bool
}

// NewInline builds an Inline node whose expression is computed by build
// from the Load() results of children, in order. children may be empty
// for literals with no sub-values.
func NewInline(children []Node, build func(childExprs []string) (string, error)) *Inline {
	return &Inline{children: children, build: build}
}

// Prepare recursively prepares every child. Inline nodes have no
// creation statement of their own.
func (n *Inline) Prepare(e *emit.Emitter) error {
	if n.prepared {
		return nil
	}
	n.prepared = true
	for _, c := range n.children {
		if err := c.Prepare(e); err != nil {
			return err
		}
	}
	return nil
}

// Load builds this node's expression from its (already prepared)
// children's expressions.
func (n *Inline) Load(e *emit.Emitter) (string, error) {
	exprs := make([]string, len(n.children))
	for i, c := range n.children {
		expr, err := c.Load(e)
		if err != nil {
			return "", err
		}
		exprs[i] = expr
	}
	return n.build(exprs)
}

// lazyNode is a forward-reference placeholder Graph.GetOrCreate installs
// in the identity map before its creator has finished building the real
// node. A cyclic argument graph re-enters GetOrCreate for the same
// identity while the real node is still under construction; the
// placeholder lets that reentrant call return something Preparable and
// Loadable immediately, instead of recursing forever. Once the real
// node is built, the identity map resolves the placeholder to it, and
// every reference the cycle captured forwards transparently from then
// on.
type lazyNode struct {
	resolved Node
}

func (n *lazyNode) Prepare(e *emit.Emitter) error {
	return n.resolved.Prepare(e)
}

func (n *lazyNode) Load(e *emit.Emitter) (string, error) {
	return n.resolved.Load(e)
}

// CreateFunc builds an ArrayStored node's value, given its children's
// (already loaded) expressions. It may emit extra statements into proc
// (population steps that must run after construction) and must return
// the Go expression whose value is the fully constructed, fully
// populated object.
type CreateFunc func(childExprs []string, proc *emit.Procedure) (valueExpr string, err error)

// DeclareFunc emits the statement that allocates an ArrayStoredCyclic
// node's not-yet-populated value - e.g. "obj1 := &T{}" or
// "m1 := make(map[K]V, n)" - and returns the Go expression (its local
// variable) naming that value. It runs before any child is prepared or
// loaded, so a child that turns out to be this same node can Load a
// real, already-declared identifier.
type DeclareFunc func(proc *emit.Procedure) (localExpr string, err error)

// PopulateFunc emits the statements that link an ArrayStoredCyclic
// node's (now loaded) children into the value DeclareFunc already
// allocated - field writes, map index assignments. local is exactly
// the expression DeclareFunc returned.
type PopulateFunc func(childExprs []string, proc *emit.Procedure, local string) error

// ArrayStored is a node whose creation fragment runs exactly once and
// whose result is made available to every later use site, either as a
// local variable (same procedure) or through the shared object array
// (a different procedure) - spec section 3/4.5.
type ArrayStored struct {
	declaredType string
	children     []Node
	create       CreateFunc
	declare      DeclareFunc
	populate     PopulateFunc

	prepared  bool
	procedure *emit.Procedure
	localName string
	arrIndex  int
}

// NewArrayStored builds an ArrayStored node. declaredType is the Go type
// used to cast the value back when read from the shared array (e.g.
// "*Database"); pass "" if no cast is needed (e.g. the value is already
// `any`). create's own identity is not visible to its children - use
// NewArrayStoredCyclic for a branch that must tolerate a child looping
// back to the node it is itself still constructing.
func NewArrayStored(declaredType string, children []Node, create CreateFunc) *ArrayStored {
	return &ArrayStored{declaredType: declaredType, children: children, create: create, arrIndex: -1}
}

// NewArrayStoredCyclic builds an ArrayStored node whose identity is
// allocated by declare before any child is prepared or loaded, for the
// branches where an argument graph can genuinely loop back to the node
// being constructed - e.g. a self-referential map whose value contains
// the same map instance (spec section 8's boundary case; section 9's
// "Cyclic graphs" note: a node's existence and index allocation must
// precede the completion of its creation fragment). populate runs once
// every child - including one that resolves back to this same node -
// has been loaded.
func NewArrayStoredCyclic(declaredType string, children []Node, declare DeclareFunc, populate PopulateFunc) *ArrayStored {
	return &ArrayStored{declaredType: declaredType, children: children, declare: declare, populate: populate, arrIndex: -1}
}

// Prepare emits this node's creation fragment as one instruction group
// into whichever procedure is current, after first preparing every
// child (so a child's creation code always precedes its first
// consumer, per spec section 5's ordering guarantee).
//
// The local name is assigned - via declare for an ArrayStoredCyclic
// node, or a fresh "v" placeholder otherwise - before any child is
// prepared or loaded. For the declare case this is load-bearing, not
// cosmetic: it is the only way a child that loops back to this same
// node (a genuine cycle, surfaced through the identity map's
// forward-reference placeholder) can Load a real, already-declared
// identifier instead of one the generated program would reference
// before it exists.
func (n *ArrayStored) Prepare(e *emit.Emitter) error {
	if n.prepared {
		return nil
	}
	n.prepared = true

	proc := e.BeginGroup()
	n.procedure = proc

	if n.declare != nil {
		local, err := n.declare(proc)
		if err != nil {
			return err
		}
		n.localName = local
	} else {
		n.localName = proc.AllocLocal("v")
	}

	for _, c := range n.children {
		if err := c.Prepare(e); err != nil {
			return err
		}
	}

	childExprs := make([]string, len(n.children))
	for i, c := range n.children {
		expr, err := c.Load(e)
		if err != nil {
			return err
		}
		childExprs[i] = expr
	}

	if n.populate != nil {
		return n.populate(childExprs, proc, n.localName)
	}

	valueExpr, err := n.create(childExprs, proc)
	if err != nil {
		return err
	}

	proc.Emit("%s := %s", n.localName, valueExpr)
	return nil
}

// Load returns the local variable holding this node's value when called
// from the same procedure that prepared it, or, the first time it is
// called from a different procedure, assigns the node a shared-array
// slot, stashes the value into it from the original procedure, and
// reads it back (with a cast, if declaredType is set) from the calling
// procedure - caching that read so repeated loads from the same
// procedure cost only one array access.
func (n *ArrayStored) Load(e *emit.Emitter) (string, error) {
	if !n.prepared {
		return "", fmt.Errorf("deferred: Load called on ArrayStored before Prepare")
	}

	current := e.Current()
	if current == n.procedure {
		return n.localName, nil
	}

	if n.arrIndex < 0 {
		n.arrIndex = e.Array().Assign()
		n.procedure.Emit("arr[%d] = %s", n.arrIndex, n.localName)
	}

	if name, ok := current.CachedSlot(n.arrIndex); ok {
		return name, nil
	}

	local := current.AllocLocal("s")
	if n.declaredType != "" {
		current.Emit("%s := arr[%d].(%s)", local, n.arrIndex, n.declaredType)
	} else {
		current.Emit("%s := arr[%d]", local, n.arrIndex)
	}
	current.CacheSlot(n.arrIndex, local)
	return local, nil
}
