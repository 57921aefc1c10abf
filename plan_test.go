package inject

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePlanRejectsBadTargets(t *testing.T) {
	tests := []struct {
		name   string
		fn     any
		params []Param
		want   string
	}{
		{"nil target", nil, nil, "nil target"},
		{"not a func", "nope", nil, "not callable"},
		{"variadic", func(args ...string) string { return "" }, []Param{P("args")}, "variadic"},
		{"arity mismatch", func(a, b string) string { return a + b }, []Param{P("a")}, "declares 1 parameter(s)"},
		{"bad return shape", func() (string, int) { return "", 0 }, nil, "return shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compilePlan(tt.fn, tt.params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompilePlanContextSlot(t *testing.T) {
	p, err := compilePlan(func(ctx *Context, a string, b int) string {
		return fmt.Sprintf("%s:%d", a, b)
	}, []Param{P("a"), P("b")})
	require.NoError(t, err)

	assert.Equal(t, 0, p.ctxIdx)
	assert.Len(t, p.inTyps, 2)
}

func TestPlanOutputShapes(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	t.Run("value only", func(t *testing.T) {
		p, err := compilePlan(func() string { return "v" }, nil)
		require.NoError(t, err)

		v, cleanup, err := p.invoke(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
		assert.Nil(t, cleanup)
	})

	t.Run("value and error", func(t *testing.T) {
		p, err := compilePlan(func() (string, error) { return "", fmt.Errorf("boom") }, nil)
		require.NoError(t, err)

		_, _, err = p.invoke(ctx, nil)
		assert.EqualError(t, err, "boom")
	})

	t.Run("value and cleanup", func(t *testing.T) {
		ran := false
		p, err := compilePlan(func() (string, func()) {
			return "v", func() { ran = true }
		}, nil)
		require.NoError(t, err)

		v, cleanup, err := p.invoke(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "v", v)

		require.NotNil(t, cleanup)
		cleanup()
		assert.True(t, ran)
	})

	t.Run("value cleanup and error", func(t *testing.T) {
		p, err := compilePlan(func() (string, func(), error) {
			return "v", func() {}, nil
		}, nil)
		require.NoError(t, err)

		v, cleanup, err := p.invoke(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
		assert.NotNil(t, cleanup)
	})

	t.Run("nil cleanup stays nil", func(t *testing.T) {
		p, err := compilePlan(func() (string, func()) { return "v", nil }, nil)
		require.NoError(t, err)

		_, cleanup, err := p.invoke(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, cleanup)
	})
}

func TestPlanInvokeConvertsScalars(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	p, err := compilePlan(func(id int64, ratio float64, on bool) string {
		return fmt.Sprintf("%d/%v/%v", id, ratio, on)
	}, []Param{P("id"), P("ratio"), P("on")})
	require.NoError(t, err)

	v, _, err := p.invoke(ctx, []any{"42", "0.5", "true"})
	require.NoError(t, err)
	assert.Equal(t, "42/0.5/true", v)
}

func TestPlanInvokeRejectsUnconvertible(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	p, err := compilePlan(func(m map[string]any) int { return len(m) }, []Param{P("m")})
	require.NoError(t, err)

	_, _, err = p.invoke(ctx, []any{"not a map"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 0")
}

func TestInvokeArgsArityCheck(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	_, _, err := invokeArgs(ctx, func(a, b string) string { return a + b }, []any{"only"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes 2 argument(s), got 1")
}
