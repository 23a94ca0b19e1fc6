package deferred

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mstgnz/recorder/rerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ name string }

func TestKeyForIdentityEligibleKinds(t *testing.T) {
	g := NewGraph()

	w := &widget{name: "a"}
	_, ok := g.keyFor(reflect.ValueOf(w))
	assert.True(t, ok, "pointers carry identity")

	m := map[string]int{"a": 1}
	_, ok = g.keyFor(reflect.ValueOf(m))
	assert.True(t, ok, "maps carry identity")

	s := make([]int, 0, 4)
	_, ok = g.keyFor(reflect.ValueOf(s))
	assert.True(t, ok, "non-nil slices with capacity carry identity")
}

func TestKeyForNonIdentityEligibleKinds(t *testing.T) {
	g := NewGraph()

	_, ok := g.keyFor(reflect.ValueOf(42))
	assert.False(t, ok, "plain ints have no runtime identity")

	_, ok = g.keyFor(reflect.ValueOf("hi"))
	assert.False(t, ok, "strings have no runtime identity")

	_, ok = g.keyFor(reflect.ValueOf(widget{name: "a"}))
	assert.False(t, ok, "plain structs have no runtime identity")

	var nilSlice []int
	_, ok = g.keyFor(reflect.ValueOf(nilSlice))
	assert.False(t, ok, "nil slices are not identity-eligible")
}

func TestGetOrCreateDedupesPointersByIdentity(t *testing.T) {
	g := NewGraph()
	w := &widget{name: "a"}

	calls := 0
	create := func() (Node, error) {
		calls++
		return NewInline(nil, func([]string) (string, error) { return "n", nil }), nil
	}

	n1, err := g.GetOrCreate(reflect.ValueOf(w), "", create)
	require.NoError(t, err)
	n2, err := g.GetOrCreate(reflect.ValueOf(w), "", create)
	require.NoError(t, err)

	assert.Same(t, n1, n2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, g.Size())
}

func TestGetOrCreatePlainValuesAreNeverDeduped(t *testing.T) {
	g := NewGraph()

	calls := 0
	create := func() (Node, error) {
		calls++
		return NewInline(nil, func([]string) (string, error) { return "n", nil }), nil
	}

	_, err := g.GetOrCreate(reflect.ValueOf(7), "", create)
	require.NoError(t, err)
	_, err = g.GetOrCreate(reflect.ValueOf(7), "", create)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, g.Size())
}

func TestGetOrCreateValueEqualityMode(t *testing.T) {
	g := NewGraphWithValueEquality()

	calls := 0
	create := func() (Node, error) {
		calls++
		return NewInline(nil, func([]string) (string, error) { return "n", nil }), nil
	}

	n1, err := g.GetOrCreate(reflect.ValueOf(widget{name: "a"}), "widget:a", create)
	require.NoError(t, err)
	n2, err := g.GetOrCreate(reflect.ValueOf(widget{name: "a"}), "widget:a", create)
	require.NoError(t, err)

	assert.Same(t, n1, n2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, g.Size())
}

func TestGetOrCreateReentrantCallDuringCreateReturnsPlaceholder(t *testing.T) {
	g := NewGraph()
	w := &widget{name: "a"}
	wv := reflect.ValueOf(w)

	var reentrant Node
	create := func() (Node, error) {
		var err error
		reentrant, err = g.GetOrCreate(wv, "", func() (Node, error) {
			t.Fatal("create must not run twice for the same identity")
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
		return NewInline(nil, func([]string) (string, error) { return "n", nil }), nil
	}

	real, err := g.GetOrCreate(wv, "", create)
	require.NoError(t, err)
	require.NotNil(t, reentrant)

	// The reentrant call captured a placeholder, not the real node
	// directly - but after create returns, both resolve to the same
	// identity, exactly as a self-referential child would observe.
	assert.NotSame(t, real, reentrant)
	expr, err := reentrant.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "n", expr)
}

func TestGetOrCreateAfterFreezeRejectsNewNodes(t *testing.T) {
	g := NewGraph()
	w := &widget{name: "a"}
	create := func() (Node, error) {
		return NewInline(nil, func([]string) (string, error) { return "n", nil }), nil
	}

	_, err := g.GetOrCreate(reflect.ValueOf(w), "", create)
	require.NoError(t, err)

	g.Freeze()

	// Already-created nodes remain reachable after freezing.
	_, err = g.GetOrCreate(reflect.ValueOf(w), "", create)
	require.NoError(t, err)

	other := &widget{name: "b"}
	_, err = g.GetOrCreate(reflect.ValueOf(other), "", create)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rerrors.ErrLateAllocation))
}
