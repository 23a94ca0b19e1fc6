package classref

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfWrapsConcreteType(t *testing.T) {
	ref := Of(reflect.TypeOf(42))
	assert.False(t, ref.IsProxy())
	assert.Equal(t, "int", ref.Name())
	assert.Equal(t, reflect.TypeOf(42), ref.Concrete())
}

func TestRegistryProxyIsStableByName(t *testing.T) {
	reg := NewRegistry()
	a := reg.Proxy("com.example.NotYetLoadable")
	b := reg.Proxy("com.example.NotYetLoadable")

	assert.Same(t, a, b)
	assert.True(t, a.IsProxy())
	assert.Nil(t, a.Concrete())
}

func TestRegistryDistinctNamesDistinctRefs(t *testing.T) {
	reg := NewRegistry()
	a := reg.Proxy("A")
	b := reg.Proxy("B")
	assert.NotSame(t, a, b)
}

type status int

func TestRegistryEnumRoundTrip(t *testing.T) {
	reg := NewRegistry()
	statusType := reflect.TypeOf(status(0))

	_, ok := reg.LookupEnum(statusType)
	assert.False(t, ok)

	reg.RegisterEnum(statusType, EnumInfo{ParseExpr: "demo.ParseStatus", Imports: []string{"example.com/demo"}})

	info, ok := reg.LookupEnum(statusType)
	assert.True(t, ok)
	assert.Equal(t, "demo.ParseStatus", info.ParseExpr)
	assert.Equal(t, []string{"example.com/demo"}, info.Imports)
}
