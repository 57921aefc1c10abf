package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentUser(ctx *Context) (string, error) {
	if v, ok := ctx.Attr("user"); ok {
		return v.(string), nil
	}
	return "anonymous", nil
}

func TestCallResolvesInlineMarker(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)
	ctx.Set("user", "gopher")

	v, err := Call(ctx, func(user string) string { return "hi " + user },
		[]Param{P("user").From(Resolve(currentUser))})
	require.NoError(t, err)

	assert.Equal(t, "hi gopher", v)
}

func TestCallOverrideSubstitutesDependency(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	stub := func(ctx *Context) (string, error) { return "stubbed", nil }

	v, err := Call(ctx, func(user string) string { return user },
		[]Param{P("user").From(Resolve(currentUser))},
		WithOverride(currentUser, stub))
	require.NoError(t, err)

	assert.Equal(t, "stubbed", v)
}

func TestCallOverrideReachesNestedMarkers(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	profile := Provide(func(user string) string { return "profile:" + user },
		WithParams(P("user").From(Resolve(currentUser))))

	stub := func(ctx *Context) (string, error) { return "stubbed", nil }

	v, err := Call(ctx, func(profile string) string { return profile },
		[]Param{P("profile").From(profile)},
		WithOverride(currentUser, stub))
	require.NoError(t, err)

	assert.Equal(t, "profile:stubbed", v, "overrides apply inside nested provider plans")
}

func TestCallSecurityMarkerReceivesContext(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)
	ctx.Set("user", "admin")

	sec := Security(currentUser, "read:items", "write:items")
	assert.True(t, sec.IsSecurity())
	assert.Equal(t, []string{"read:items", "write:items"}, sec.Scopes())

	v, err := Call(ctx, func(user string) string { return user },
		[]Param{P("user").From(sec)})
	require.NoError(t, err)

	assert.Equal(t, "admin", v)
}

func TestCallAmbientDependencies(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	v, err := Call(ctx, func(greeting string) string { return greeting },
		[]Param{P("greeting")},
		WithCallDependencies(DependencyMap{"greeting": "hello"}))
	require.NoError(t, err)

	assert.Equal(t, "hello", v)
}

func TestCallRejectsNonCallable(t *testing.T) {
	app := newTestApp(t)

	_, err := Call(app.NewContext(nil), 42, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not callable")
}

func TestCallRegistersResultCleanup(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	released := false
	_, err := Call(ctx, func() (string, func(), error) {
		return "resource", func() { released = true }, nil
	}, nil)
	require.NoError(t, err)

	assert.False(t, released)
	ctx.Close()
	assert.True(t, released, "the target's own cleanup registers on the context")
}

func TestMustCallPanicsOnFailure(t *testing.T) {
	app := newTestApp(t)

	assert.Panics(t, func() {
		MustCall(app.NewContext(nil), "nope", nil)
	})
}
