package paramnames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWidget(name string, size int) string {
	return name
}

func TestForExtractsDeclaredNames(t *testing.T) {
	names, err := For(newWidget)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "size"}, names)
}

func TestForCachesByFunctionPointer(t *testing.T) {
	n1, err := For(newWidget)
	require.NoError(t, err)
	n2, err := For(newWidget)
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
}

func TestForRejectsNonFunc(t *testing.T) {
	_, err := For(42)
	assert.Error(t, err)
}

func TestForMultiLineSignature(t *testing.T) {
	fn := func(
		first string,
		second int,
	) string {
		return first
	}
	names, err := For(fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, names)
}
