package runtimeval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandleHasUniqueKey(t *testing.T) {
	a := New(false)
	b := New(false)

	require.NotEmpty(t, a.Key())
	require.NotEmpty(t, b.Key())
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestHandleTracksStaticInit(t *testing.T) {
	assert.True(t, New(true).IsStaticInit())
	assert.False(t, New(false).IsStaticInit())
}

func TestHandleStringDoesNotPanic(t *testing.T) {
	h := New(false)
	assert.Contains(t, h.String(), h.Key())
}
