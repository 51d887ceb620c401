package scope

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/source"
)

func newChain(fs features.Set) (*Chain, *object.Object) {
	model := object.NewModel(object.Options{Features: fs})
	global := object.New("global", nil)
	return NewChain(model, global, fs), global
}

func fooDecl(kind DeclKind) Declaration {
	return Declaration{
		Name: "foo",
		Kind: kind,
		Pos:  source.Location{Source: "test_script", Line: 8},
		Init: func() (object.Value, error) { return object.String("function foo() {\n}"), nil },
	}
}

func requireUnresolved(t *testing.T, err error, name string) {
	t.Helper()
	f, ok := errors.AsFailure(err)
	require.True(t, ok, "expected a failure, got %v", err)
	assert.Equal(t, errors.UnresolvedIdentifier, f.Kind)
	assert.Equal(t, name, f.Name)
}

func TestNestedFunctionHoisting(t *testing.T) {
	t.Run("not forward hoisted by default", func(t *testing.T) {
		c, _ := newChain(features.Set{})
		c.EnterScope(KindFunction, nil)
		require.NoError(t, c.Hoist([]Declaration{fooDecl(DeclBlockFunction)}))

		c.EnterScope(KindBlock, nil)
		_, err := c.Lookup("foo")
		requireUnresolved(t, err, "foo")

		// The statement executes: the name now resolves, also outside the block.
		c.DeclareBlockFunction("foo", object.String("function foo() {\n}"))
		c.LeaveScope()
		v, err := c.Lookup("foo")
		require.NoError(t, err)
		assert.Equal(t, "function foo() {\n}", v.AsString())
	})

	t.Run("forward hoisted with feature", func(t *testing.T) {
		c, _ := newChain(features.Set{ForwardHoistNestedFunctionDeclarations: true})
		c.EnterScope(KindFunction, nil)
		require.NoError(t, c.Hoist([]Declaration{fooDecl(DeclBlockFunction)}))

		c.EnterScope(KindBlock, nil)
		v, err := c.Lookup("foo")
		require.NoError(t, err)
		assert.Equal(t, "function foo() {\n}", v.AsString())
	})

	t.Run("top-level function statements always hoist", func(t *testing.T) {
		c, _ := newChain(features.Set{})
		c.EnterScope(KindFunction, nil)
		require.NoError(t, c.Hoist([]Declaration{fooDecl(DeclFunction)}))
		v, err := c.Lookup("foo")
		require.NoError(t, err)
		assert.True(t, v.IsString())
	})
}

func TestVarHoistingIgnoresFeature(t *testing.T) {
	for _, fs := range []features.Set{{}, {ForwardHoistNestedFunctionDeclarations: true}} {
		c, _ := newChain(fs)
		c.EnterScope(KindFunction, nil)
		require.NoError(t, c.Hoist([]Declaration{{Name: "foo", Kind: DeclVar}}))
		c.EnterScope(KindBlock, nil)

		v, err := c.Lookup("foo")
		require.NoError(t, err, fs.String())
		assert.True(t, v.IsUndefined(), fs.String())
	}
}

func TestGlobalDeclarationsLiveOnGlobalObject(t *testing.T) {
	c, global := newChain(features.Set{ForwardHoistNestedFunctionDeclarations: true})
	require.NoError(t, c.Hoist([]Declaration{
		{Name: "output", Kind: DeclVar},
		fooDecl(DeclBlockFunction),
	}))

	p, ok := global.OwnProperty("output")
	require.True(t, ok)
	assert.True(t, p.Value.IsUndefined())
	assert.False(t, p.Attrs.Configurable())

	p, ok = global.OwnProperty("foo")
	require.True(t, ok)
	assert.Equal(t, "function foo() {\n}", p.Value.AsString())

	require.NoError(t, c.Assign("output", object.String("x")))
	v, err := c.Lookup("output")
	require.NoError(t, err)
	assert.Equal(t, "x", v.AsString())
}

func TestLetTemporalDeadZone(t *testing.T) {
	c, _ := newChain(features.Set{})
	c.EnterScope(KindBlock, nil)
	require.NoError(t, c.Hoist([]Declaration{{Name: "x", Kind: DeclLet}, {Name: "k", Kind: DeclConst}}))

	_, err := c.Lookup("x")
	requireUnresolved(t, err, "x")
	requireUnresolved(t, c.Assign("x", object.Int(1)), "x")

	c.Initialize("x", object.Int(1))
	v, err := c.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.AsNumber())

	c.Initialize("k", object.Int(2))
	err = c.Assign("k", object.Int(3))
	f, ok := errors.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReadOnlyWrite, f.Kind)

	c.LeaveScope()
	_, err = c.Lookup("x")
	requireUnresolved(t, err, "x")
}

func TestResolveInnermostFirst(t *testing.T) {
	c, _ := newChain(features.Set{})
	outer := c.EnterScope(KindFunction, nil)
	c.Bind("x", object.String("outer"))
	inner := c.EnterScope(KindBlock, nil)
	c.Initialize("x", object.String("inner"))

	ref, ok := c.Resolve("x")
	require.True(t, ok)
	assert.Same(t, inner, ref.Scope())

	c.LeaveScope()
	ref, ok = c.Resolve("x")
	require.True(t, ok)
	assert.Same(t, outer, ref.Scope())

	_, ok = c.Resolve("nope")
	assert.False(t, ok)
}

func TestUnresolvedAssignmentCreatesGlobal(t *testing.T) {
	c, global := newChain(features.Set{})
	c.EnterScope(KindFunction, nil)
	require.NoError(t, c.Assign("leak", object.Int(1)))
	_, ok := global.OwnProperty("leak")
	assert.True(t, ok)
}

func TestWithinReleasesOnFailure(t *testing.T) {
	c, _ := newChain(features.Set{})
	g := c.Current()
	boom := stderrors.New("boom")

	err := c.Within(KindBlock, nil, func(s *Scope) error {
		assert.Same(t, s, c.Current())
		return boom
	})
	assert.Same(t, boom, err)
	assert.Same(t, g, c.Current())

	assert.Panics(t, func() {
		_ = c.Within(KindBlock, nil, func(*Scope) error { panic("early exit") })
	})
	assert.Same(t, g, c.Current())
}

func TestClosureParentIsCapturedScope(t *testing.T) {
	c, _ := newChain(features.Set{})
	captured := c.EnterScope(KindFunction, nil)
	c.Bind("v", object.String("captured"))
	c.LeaveScope()

	c.EnterScope(KindFunction, nil)
	c.Bind("v", object.String("caller"))
	fn := c.EnterScope(KindFunction, captured)
	assert.Same(t, captured, fn.Parent())

	v, err := c.Lookup("v")
	require.NoError(t, err)
	assert.Equal(t, "captured", v.AsString())
}

func TestFramesSnapshot(t *testing.T) {
	c, _ := newChain(features.Set{})
	c.PushFrame("", source.Location{Source: "test.js", Line: 1})
	c.SetLine(12)
	c.PushFrame("test", source.Location{Source: "test.js", Line: 1})
	c.SetLine(3)

	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, source.Location{Source: "test.js", Line: 3}, c.Location())
	assert.Equal(t, []source.Frame{
		{Function: "test", Location: source.Location{Source: "test.js", Line: 3}},
		{Function: "", Location: source.Location{Source: "test.js", Line: 12}},
	}, c.Snapshot())

	c.PopFrame()
	assert.Equal(t, 12, c.Location().Line)
}
