package inject

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeManagerRequestScopeBypassesCache(t *testing.T) {
	sm := NewScopeManager()

	var calls int32
	factory := func(*Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	first, err := sm.GetOrCreate(nil, ScopeRequest, "counter", factory)
	require.NoError(t, err)

	second, err := sm.GetOrCreate(nil, ScopeRequest, "counter", factory)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 0, sm.Len(), "request scope should never populate the cache")
}

func TestScopeManagerCachesByScope(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
	}{
		{"app scope", ScopeApp},
		{"global scope", ScopeGlobal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewScopeManager()

			var calls int32
			factory := func(*Context) (any, error) {
				return atomic.AddInt32(&calls, 1), nil
			}

			first, err := sm.GetOrCreate(nil, tt.scope, "counter", factory)
			require.NoError(t, err)

			second, err := sm.GetOrCreate(nil, tt.scope, "counter", factory)
			require.NoError(t, err)

			assert.Equal(t, int32(1), calls, "factory should run exactly once")
			assert.Equal(t, first, second)
		})
	}
}

func TestScopeManagerScopesDoNotCollide(t *testing.T) {
	sm := NewScopeManager()

	_, err := sm.GetOrCreate(nil, ScopeApp, "k", func(*Context) (any, error) { return "app", nil })
	require.NoError(t, err)

	v, err := sm.GetOrCreate(nil, ScopeGlobal, "k", func(*Context) (any, error) { return "global", nil })
	require.NoError(t, err)

	assert.Equal(t, "global", v)
	assert.Equal(t, 2, sm.Len())
}

func TestScopeManagerConcurrentFirstResolution(t *testing.T) {
	sm := NewScopeManager()

	var calls int32
	factory := func(*Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := sm.GetOrCreate(nil, ScopeApp, "shared", factory)
			assert.NoError(t, err)
			assert.Equal(t, any(int32(1)), v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls, "concurrent first resolutions must invoke the factory once")
}

func TestScopeManagerClear(t *testing.T) {
	sm := NewScopeManager()

	sm.GetOrCreate(nil, ScopeApp, "a", func(*Context) (any, error) { return 1, nil })
	sm.GetOrCreate(nil, ScopeGlobal, "g", func(*Context) (any, error) { return 2, nil })

	sm.Clear(ScopeApp)
	assert.Equal(t, 1, sm.Len())

	var calls int
	sm.GetOrCreate(nil, ScopeApp, "a", func(*Context) (any, error) { calls++; return 1, nil })
	assert.Equal(t, 1, calls, "cleared entries re-invoke the factory")

	sm.Clear("")
	assert.Equal(t, 0, sm.Len())
}

func TestScopeManagerClearPrunesLocks(t *testing.T) {
	sm := NewScopeManager()

	sm.GetOrCreate(nil, ScopeApp, "a", func(*Context) (any, error) { return 1, nil })
	sm.GetOrCreate(nil, ScopeGlobal, "g", func(*Context) (any, error) { return 2, nil })

	sm.Clear(ScopeApp)
	assert.Len(t, sm.locks, 1, "slot locks go with their cache entries")

	sm.Clear("")
	assert.Empty(t, sm.locks)
}

func TestScopeManagerCloseRunsCleanupsInOrder(t *testing.T) {
	sm := NewScopeManager()

	var order []string
	sm.Register(func() { order = append(order, "first") })
	sm.Register(func() { panic("boom") })
	sm.Register(func() { order = append(order, "third") })

	sm.Close()

	assert.Equal(t, []string{"first", "third"}, order, "a panicking cleanup must not block the sweep")
	assert.Equal(t, 0, sm.Len())
}

func TestScopeManagerCloseIdempotent(t *testing.T) {
	sm := NewScopeManager()

	var calls int
	sm.Register(func() { calls++ })

	sm.Close()
	sm.Close()

	assert.Equal(t, 1, calls)
}
