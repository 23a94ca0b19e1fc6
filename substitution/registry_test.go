package substitution

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type urlProvider struct{}

func (urlProvider) Serialize(from *url.URL) (string, error) {
	return from.String(), nil
}

func (urlProvider) Deserialize(to string) (*url.URL, error) {
	return url.Parse(to)
}

func TestRegisterAndLookupRoundTrip(t *testing.T) {
	r := NewRegistry()
	Register[*url.URL, string](r, urlProvider{})

	entry, ok := r.Lookup(reflect.TypeOf((*url.URL)(nil)))
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), entry.To)

	u, _ := url.Parse("https://example.com/path")
	serialized, err := entry.Serialize(u)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", serialized)

	restored, err := entry.Deserialize(serialized)
	require.NoError(t, err)
	assert.Equal(t, u.String(), restored.(*url.URL).String())
}

func TestLookupMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup(reflect.TypeOf(42))
	assert.False(t, ok)
}

func TestRegisterWithExprCarriesCodegenReference(t *testing.T) {
	r := NewRegistry()
	RegisterWithExpr[*url.URL, string](r, urlProvider{}, "providers.URLProvider{}", "example.com/providers")

	entry, ok := r.Lookup(reflect.TypeOf((*url.URL)(nil)))
	require.True(t, ok)
	assert.Equal(t, "providers.URLProvider{}", entry.GoExpr)
	assert.Equal(t, []string{"example.com/providers"}, entry.Imports)
}
