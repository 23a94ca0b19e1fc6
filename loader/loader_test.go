package loader

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringLoader struct{}

func (stringLoader) CanHandle(v any, staticInit bool) bool {
	_, ok := v.(string)
	return ok
}

func (stringLoader) Emit(v any, staticInit bool) (Fragment, error) {
	return Fragment{Expr: fmt.Sprintf("%q", v.(string))}, nil
}

func TestRegistryFindsFirstMatchingLoader(t *testing.T) {
	r := NewRegistry()
	r.Register(stringLoader{})

	l, ok := r.Find("hello", false)
	require.True(t, ok)

	frag, err := l.Emit("hello", false)
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, frag.Expr)
}

func TestRegistryNoMatch(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Find(42, false)
	assert.False(t, ok)
}
