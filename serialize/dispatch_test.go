package serialize

import (
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/mstgnz/recorder/emit"
	"github.com/mstgnz/recorder/runtimeval"
	"github.com/mstgnz/recorder/substitution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadNode(t *testing.T, e *emit.Emitter, v reflect.Value) string {
	t.Helper()
	env := NewEnv(false)
	node, err := Dispatch(env, v, v.Type())
	require.NoError(t, err)
	require.NoError(t, node.Prepare(e))
	expr, err := node.Load(e)
	require.NoError(t, err)
	return expr
}

func TestDispatchNil(t *testing.T) {
	e := emit.New("demo", "Step")
	var p *int
	expr := loadNode(t, e, reflect.ValueOf(p))
	assert.Equal(t, "nil", expr)
}

func TestDispatchString(t *testing.T) {
	e := emit.New("demo", "Step")
	expr := loadNode(t, e, reflect.ValueOf("hello"))
	assert.Equal(t, `"hello"`, expr)
}

func TestDispatchStringOverLimitErrors(t *testing.T) {
	env := NewEnv(false)
	huge := make([]byte, maxStringBytes+1)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := Dispatch(env, reflect.ValueOf(string(huge)), reflect.TypeOf(""))
	assert.Error(t, err)
}

func TestDispatchScalar(t *testing.T) {
	e := emit.New("demo", "Step")
	assert.Equal(t, "42", loadNode(t, e, reflect.ValueOf(42)))
	assert.Equal(t, "true", loadNode(t, e, reflect.ValueOf(true)))
}

func TestDispatchURL(t *testing.T) {
	e := emit.New("demo", "Step")
	u, err := url.Parse("https://example.com/path")
	require.NoError(t, err)
	loadNode(t, e, reflect.ValueOf(u))
	src, err := e.Source()
	require.NoError(t, err)
	assert.Contains(t, string(src), `url.Parse("https://example.com/path")`)
}

func TestDispatchDuration(t *testing.T) {
	e := emit.New("demo", "Step")
	loadNode(t, e, reflect.ValueOf(5*time.Second))
	src, err := e.Source()
	require.NoError(t, err)
	assert.Contains(t, string(src), `time.ParseDuration("5s")`)
}

func TestDispatchHandle(t *testing.T) {
	e := emit.New("demo", "Step")
	h := runtimeval.New(false)
	expr := loadNode(t, e, reflect.ValueOf(h))
	assert.Contains(t, expr, "ctx.MustGet(")
	assert.Contains(t, expr, h.Key())
	assert.NotContains(t, expr, ").(", "a *runtimeval.Handle is never itself the published value, so no assertion is emitted")
}

func TestDispatchHandleSkipsAssertionForEmptyInterface(t *testing.T) {
	env := NewEnv(false)
	h := runtimeval.New(false)
	var anyType any
	node, err := Dispatch(env, reflect.ValueOf(h), reflect.TypeOf(&anyType).Elem())
	require.NoError(t, err)
	e := emit.New("demo", "Step")
	require.NoError(t, node.Prepare(e))
	expr, err := node.Load(e)
	require.NoError(t, err)
	assert.Contains(t, expr, "ctx.MustGet(")
	assert.NotContains(t, expr, ").(")
}

func TestDispatchHandleCastsToExpectedConcreteType(t *testing.T) {
	env := NewEnv(false)
	h := runtimeval.New(false)
	node, err := Dispatch(env, reflect.ValueOf(h), reflect.TypeOf(""))
	require.NoError(t, err)
	e := emit.New("demo", "Step")
	require.NoError(t, node.Prepare(e))
	expr, err := node.Load(e)
	require.NoError(t, err)
	assert.Contains(t, expr, "ctx.MustGet(")
	assert.Contains(t, expr, ").(string)")
}

func TestDispatchEmptySlice(t *testing.T) {
	e := emit.New("demo", "Step")
	expr := loadNode(t, e, reflect.ValueOf([]int{}))
	assert.Equal(t, "[]int{}", expr)
}

func TestDispatchNonEmptySlice(t *testing.T) {
	e := emit.New("demo", "Step")
	expr := loadNode(t, e, reflect.ValueOf([]int{1, 2, 3}))
	assert.Regexp(t, `^v\d+$`, expr)
}

type plainWidget struct {
	Name string
	Size int
}

func TestDispatchPlainStructPopulatesEveryField(t *testing.T) {
	e := emit.New("demo", "Step")
	w := plainWidget{Name: "gadget", Size: 3}
	expr := loadNode(t, e, reflect.ValueOf(w))
	assert.Regexp(t, `^v\d+$`, expr)
}

type annotatedTag struct {
	_     struct{} `recorder:"literal"`
	Name  string   `recorder:"name"`
	Skip  string   `recorder:"-"`
	Value int
}

func TestDispatchAnnotationLiteral(t *testing.T) {
	e := emit.New("demo", "Step")
	v := annotatedTag{Name: "x", Skip: "ignored", Value: 7}
	expr := loadNode(t, e, reflect.ValueOf(v))
	assert.Contains(t, expr, "name: ")
	assert.Contains(t, expr, "Value: 7")
	assert.NotContains(t, expr, "ignored")
}

type urlProviderForDispatch struct{}

func (urlProviderForDispatch) Serialize(from *url.URL) (string, error) { return from.String(), nil }
func (urlProviderForDispatch) Deserialize(to string) (*url.URL, error) { return url.Parse(to) }

func TestDispatchSubstitution(t *testing.T) {
	e := emit.New("demo", "Step")
	env := NewEnv(false)
	substitution.RegisterWithExpr[*url.URL, string](env.Substitutions, urlProviderForDispatch{}, "providers.URLProvider{}", "example.com/providers")

	u, _ := url.Parse("https://example.com/x")
	node, err := Dispatch(env, reflect.ValueOf(u), reflect.TypeOf(u))
	require.NoError(t, err)
	require.NoError(t, node.Prepare(e))
	_, err = node.Load(e)
	require.NoError(t, err)
	src, err := e.Source()
	require.NoError(t, err)
	assert.Contains(t, string(src), "(providers.URLProvider{}).Deserialize(")
}

func TestDispatchSharedPointerDedupesToOneNode(t *testing.T) {
	env := NewEnv(false)
	w := &plainWidget{Name: "shared", Size: 1}

	n1, err := Dispatch(env, reflect.ValueOf(w), reflect.TypeOf(w))
	require.NoError(t, err)
	n2, err := Dispatch(env, reflect.ValueOf(w), reflect.TypeOf(w))
	require.NoError(t, err)

	assert.Same(t, n1, n2, "two arguments identical by pointer identity must produce the same deferred node")
}

func TestDispatchSelfReferentialMapSucceeds(t *testing.T) {
	e := emit.New("demo", "Step")
	env := NewEnv(false)

	m := map[string]any{"name": "cyclic"}
	m["self"] = m

	node, err := Dispatch(env, reflect.ValueOf(m), reflect.TypeOf(m))
	require.NoError(t, err)
	require.NoError(t, node.Prepare(e))
	expr, err := node.Load(e)
	require.NoError(t, err)
	assert.Regexp(t, `^m\d+$`, expr, "the map's own local is allocated directly, not wrapped in an extra alias")
}

func TestDispatchAnyTypedHandleIsUnwrapped(t *testing.T) {
	env := NewEnv(false)
	h := runtimeval.New(false)

	var holder any = h
	holderVal := reflect.ValueOf(&holder).Elem()
	require.Equal(t, reflect.Interface, holderVal.Kind())

	node, err := Dispatch(env, holderVal, holderVal.Type())
	require.NoError(t, err)

	e := emit.New("demo", "Step")
	require.NoError(t, node.Prepare(e))
	expr, err := node.Load(e)
	require.NoError(t, err)
	assert.Contains(t, expr, "ctx.MustGet(")
	assert.Contains(t, expr, h.Key())
}

func TestDispatchPrimitiveTypeLiteral(t *testing.T) {
	e := emit.New("demo", "Step")
	var intType reflect.Type = reflect.TypeOf(0)
	expr := loadNode(t, e, reflect.ValueOf(&intType).Elem())
	assert.Contains(t, expr, "reflect.TypeOf(int(0))")
}
