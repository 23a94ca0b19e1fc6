package constants

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mstgnz/recorder/rerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	Register(r, 42)

	v, ok := r.Lookup(reflect.TypeOf(0))
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = r.Lookup(reflect.TypeOf(""))
	assert.False(t, ok)
}

func TestCtorRegistryRejectsNonFunc(t *testing.T) {
	r := NewCtorRegistry()
	err := r.RegisterNonDefaultConstructor(reflect.TypeOf(widget{}), 42, nil)
	assert.Error(t, err)
}

func TestCtorRegistryRoundTrip(t *testing.T) {
	r := NewCtorRegistry()
	ctor := func(name string) widget { return widget{Name: name} }
	extract := func(obj any) ([]any, error) { return []any{obj.(widget).Name}, nil }

	require.NoError(t, r.RegisterNonDefaultConstructor(reflect.TypeOf(widget{}), ctor, extract))

	entry, ok := r.Lookup(reflect.TypeOf(widget{}))
	require.True(t, ok)
	assert.Equal(t, reflect.Func, entry.Ctor.Kind())

	args, err := entry.Extract(widget{Name: "gadget"})
	require.NoError(t, err)
	assert.Equal(t, []any{"gadget"}, args)
}

func TestFieldCtorRegistryRejectsDuplicate(t *testing.T) {
	r := NewFieldCtorRegistry()
	ctor := func(name string) widget { return widget{Name: name} }

	require.NoError(t, r.Register(reflect.TypeOf(widget{}), ctor, true))

	err := r.Register(reflect.TypeOf(widget{}), ctor, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rerrors.ErrAmbiguousConstructor))
}
