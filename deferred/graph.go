package deferred

import (
	"reflect"

	"github.com/mstgnz/recorder/rerrors"
)

// identityKey names a reflect.Value for identity-keyed deduplication.
// Go only gives true reference identity to pointer, map, channel, slice
// and func values; everything else (plain structs, scalars, strings)
// carries no runtime identity of its own. For those, keyFor reports no
// key, so GetOrCreate never remembers them by identity and two
// occurrences of an otherwise-identical plain value are never
// deduplicated that way - an explicit departure forced by Go value
// semantics.
type identityKey struct {
	kind reflect.Kind
	ptr  uintptr
	seq  uint64
}

func (g *Graph) keyFor(v reflect.Value) (identityKey, bool) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return identityKey{}, false
		}
		return identityKey{kind: v.Kind(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() || v.Cap() == 0 {
			return identityKey{}, false
		}
		return identityKey{kind: v.Kind(), ptr: uintptr(v.Pointer())}, true
	default:
		return identityKey{}, false
	}
}

// Graph is the per-emission identity map: it ensures shared subgraphs
// are materialized once, preserving reference identity where the source
// graph had it (spec section 3, invariant 1).
type Graph struct {
	byIdentity map[identityKey]Node
	valueEq    bool
	byValue    map[string]Node
	nextSeq    uint64
	frozen     bool
}

// NewGraph creates an empty Graph using identity-based deduplication.
func NewGraph() *Graph {
	return &Graph{byIdentity: make(map[identityKey]Node)}
}

// NewGraphWithValueEquality creates a Graph that, for values with no
// identity key, also deduplicates by the valueEqKey string the caller
// passes to GetOrCreate - the configuration flag mentioned in spec
// section 3.
func NewGraphWithValueEquality() *Graph {
	return &Graph{byIdentity: make(map[identityKey]Node), valueEq: true, byValue: make(map[string]Node)}
}

// Freeze forbids any further node creation: once emission begins, no
// new deferred node may be created (spec section 3, invariant).
func (g *Graph) Freeze() {
	g.frozen = true
}

// GetOrCreate returns the existing node for v if one was already
// recorded in this emission (by identity, or by value if configured),
// otherwise calls create and remembers the result.
//
// Before calling create, a lazyNode placeholder is installed under v's
// key: if create's own recursion into v's children dispatches back to v
// itself (a cycle), that reentrant call finds the placeholder already
// present and returns it immediately rather than recursing into create
// again. Once create returns the real node, the map entry - and the
// placeholder itself - are resolved to it, so every reference the cycle
// captured along the way forwards correctly.
func (g *Graph) GetOrCreate(v reflect.Value, valueEqKey string, create func() (Node, error)) (Node, error) {
	if key, ok := g.keyFor(v); ok {
		if existing, found := g.byIdentity[key]; found {
			return existing, nil
		}
		if g.frozen {
			return nil, rerrors.Wrap(rerrors.ErrLateAllocation, describeValue(v))
		}
		placeholder := &lazyNode{}
		g.byIdentity[key] = placeholder
		node, err := create()
		if err != nil {
			delete(g.byIdentity, key)
			return nil, err
		}
		placeholder.resolved = node
		g.byIdentity[key] = node
		return node, nil
	}

	if g.valueEq && valueEqKey != "" {
		if existing, found := g.byValue[valueEqKey]; found {
			return existing, nil
		}
		if g.frozen {
			return nil, rerrors.Wrap(rerrors.ErrLateAllocation, describeValue(v))
		}
		placeholder := &lazyNode{}
		g.byValue[valueEqKey] = placeholder
		node, err := create()
		if err != nil {
			delete(g.byValue, valueEqKey)
			return nil, err
		}
		placeholder.resolved = node
		g.byValue[valueEqKey] = node
		return node, nil
	}

	if g.frozen {
		return nil, rerrors.Wrap(rerrors.ErrLateAllocation, describeValue(v))
	}
	return create()
}

// Size returns how many distinct nodes this graph has recorded via
// identity or value-equality deduplication (plain, non-deduplicated
// nodes created through the final branch of GetOrCreate are not
// counted, since the graph never remembers them).
func (g *Graph) Size() int {
	return len(g.byIdentity) + len(g.byValue)
}

func describeValue(v reflect.Value) string {
	if !v.IsValid() {
		return "<invalid>"
	}
	return v.Type().String()
}
