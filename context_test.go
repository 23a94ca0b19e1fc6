package recorder

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextIsEmpty(t *testing.T) {
	c := NewContext("Greeting", false)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "Greeting", c.Name())
	assert.Equal(t, "GreetingTask", c.taskTypeName())
}

func TestGetRecordingProxyCachesPerType(t *testing.T) {
	c := NewContext("Greeting", false)

	type greeterIface struct {
		SayHello func(name string)
	}
	p1 := GetRecordingProxy[greeterIface](c, "greetingpkg.Real{}")
	p2 := GetRecordingProxy[greeterIface](c, "ignored.Other{}")

	assert.Same(t, p1, p2)
}

func TestGetRecordingProxyRecordsCalls(t *testing.T) {
	c := NewContext("Greeting", false)

	type greeterIface struct {
		SayHello func(name string)
	}
	p := GetRecordingProxy[greeterIface](c, "greetingpkg.Real{}")
	p.SayHello("ada")

	assert.False(t, c.IsEmpty())
	require.Len(t, c.calls, 1)
	assert.Equal(t, "SayHello", c.calls[0].Field.Name)
	assert.Equal(t, "greetingpkg.Real{}", c.calls[0].ImplExpr)
}

func TestNewInstanceRecordsRequest(t *testing.T) {
	c := NewContext("Greeting", false)
	h := c.NewInstance(reflect.TypeOf(struct{ X int }{}))

	require.NotNil(t, h)
	assert.False(t, c.IsEmpty())
	require.Len(t, c.newInstances, 1)
	assert.Equal(t, h, c.newInstances[0].Handle)
}

func TestClassRefReturnsStableProxy(t *testing.T) {
	c := NewContext("Greeting", false)
	r1 := c.ClassRef("com.example.Widget")
	r2 := c.ClassRef("com.example.Widget")
	assert.Same(t, r1, r2)
}

func TestSetRelaxed(t *testing.T) {
	c := NewContext("Greeting", false)
	assert.False(t, c.Relaxed())
	c.SetRelaxed(true)
	assert.True(t, c.Relaxed())
}

func TestRegisterConstant(t *testing.T) {
	c := NewContext("Greeting", false)
	RegisterConstant[string](c, "en-US")
	v, ok := c.constants.Lookup(reflect.TypeOf(""))
	require.True(t, ok)
	assert.Equal(t, "en-US", v)
}

func TestMarkRecordable(t *testing.T) {
	c := NewContext("Greeting", false)
	typ := reflect.TypeOf(struct{ X int }{})
	assert.False(t, c.recordable[typ])
	c.MarkRecordable(typ)
	assert.True(t, c.recordable[typ])
}
