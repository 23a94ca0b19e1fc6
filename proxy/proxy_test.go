package proxy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mstgnz/recorder/rerrors"
	"github.com/mstgnz/recorder/runtimeval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct {
	SayHello func(name string)
	MakeCard func(name string) *runtimeval.Handle
}

type badReturn struct {
	Bad func() (int, error)
}

type recording struct {
	calls []call
}

type call struct {
	method string
	args   []any
}

func (r *recording) Dispatch(method string, sig reflect.Type, args []reflect.Value) []reflect.Value {
	plain := make([]any, len(args))
	for i, a := range args {
		plain[i] = a.Interface()
	}
	r.calls = append(r.calls, call{method: method, args: plain})

	if sig.NumOut() == 0 {
		return nil
	}
	return []reflect.Value{reflect.ValueOf(runtimeval.New(false))}
}

func TestNewWiresVoidAndHandleFields(t *testing.T) {
	rec := &recording{}
	g := New[greeter](rec)

	g.SayHello("ada")
	h := g.MakeCard("ada")

	require.Len(t, rec.calls, 2)
	assert.Equal(t, "SayHello", rec.calls[0].method)
	assert.Equal(t, []any{"ada"}, rec.calls[0].args)
	assert.Equal(t, "MakeCard", rec.calls[1].method)
	assert.NotNil(t, h)
	assert.False(t, h.IsStaticInit())
}

func TestValidateRejectsUnrecordableReturn(t *testing.T) {
	_, err := Validate(reflect.TypeOf(badReturn{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, rerrors.ErrUnrecordableReturn))
}

func TestNewPanicsForUnproxyableType(t *testing.T) {
	assert.Panics(t, func() {
		New[badReturn](&recording{})
	})
}
