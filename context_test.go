package inject

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextCloseRunsCleanupsInOrder(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	var order []string
	ctx.AddCleanup(func() { order = append(order, "first") })
	ctx.AddCleanup(func() { order = append(order, "second") })
	ctx.AddCleanup(func() { order = append(order, "third") })

	ctx.Close()

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestContextCloseRecoversPanickingCleanup(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	var ran []string
	ctx.AddCleanup(func() { ran = append(ran, "a") })
	ctx.AddCleanup(func() { panic("teardown went sideways") })
	ctx.AddCleanup(func() { ran = append(ran, "c") })

	assert.NotPanics(t, ctx.Close)
	assert.Equal(t, []string{"a", "c"}, ran)
}

func TestContextCloseIdempotent(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	calls := 0
	ctx.AddCleanup(func() { calls++ })

	ctx.Close()
	ctx.Close()

	assert.Equal(t, 1, calls)
}

func TestContextLateCleanupRunsImmediately(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)
	ctx.Close()

	ran := false
	ctx.AddCleanup(func() { ran = true })

	assert.True(t, ran, "cleanups registered after close run on the spot")
}

func TestContextAttr(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodPost, "/widgets", nil)
	ctx := NewRequestContext(nil, app, r)
	ctx.Set("user", "gopher")

	tests := []struct {
		name  string
		want  any
		found bool
	}{
		{"user", "gopher", true},
		{"request_id", ctx.RequestID(), true},
		{"method", http.MethodPost, true},
		{"path", "/widgets", true},
		{"nope", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ctx.Attr(tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestContextDataMemoized(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a": 1}`))
	r.Header.Set("Content-Type", "application/json")

	ctx := NewRequestContext(nil, app, r)

	first, err := ctx.Data()
	require.NoError(t, err)

	second, err := ctx.Data()
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": float64(1)}, first)

	// decoded once; both calls see the same map
	first["injected"] = true
	assert.Equal(t, first, second)
}

func TestContextPreservesRequestBodyReader(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a": 1}`))
	r.Header.Set("Content-Type", "application/json")

	NewRequestContext(nil, app, r)

	b, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, string(b), "downstream handlers can still read the body")
}

func TestContextRequestIDsAreUnique(t *testing.T) {
	app := newTestApp(t)

	a := app.NewContext(nil)
	b := app.NewContext(nil)

	assert.NotEmpty(t, a.RequestID())
	assert.NotEqual(t, a.RequestID(), b.RequestID())
}

func TestIdentityRoundTrip(t *testing.T) {
	app := newTestApp(t)
	ctx := app.NewContext(nil)

	claims := NewClaims("user-1")
	IdentityToContext(ctx, claims)

	got := IdentityFromContext[Claims](ctx)
	assert.Equal(t, "user-1", got.Subject)
}
