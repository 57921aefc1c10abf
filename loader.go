package inject

import (
	"fmt"
	"sync"
)

type loaderEntry struct {
	value any
	err   error
}

// Loader is a concurrency-safe per-request memo. Dependencies that fan out
// into repeated lookups (the same record fetched by several factories in one
// request) use it to collapse duplicate work without promoting the value to
// a scope of its own.
type Loader struct {
	mu      sync.RWMutex
	entries map[any]loaderEntry
}

func NewLoader() *Loader {
	return &Loader{entries: map[any]loaderEntry{}}
}

func (l *Loader) Has(key any) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.entries[key]
	return ok
}

func (l *Loader) Get(key any) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[key]
	return e.value, ok
}

func (l *Loader) Set(key, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = loaderEntry{value: value}
}

func (l *Loader) Delete(key any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
}

// Fetch returns the memoized value for key, invoking fetch on first use.
// Errors are memoized too, so a failing fetch is not retried within the
// request.
func (l *Loader) Fetch(key any, fetch func() (any, error)) (any, error) {
	l.mu.RLock()
	if e, ok := l.entries[key]; ok {
		l.mu.RUnlock()
		return e.value, e.err
	}
	l.mu.RUnlock()

	// fetch runs outside the lock; first write wins on a race
	value, err := fetch()

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok {
		return e.value, e.err
	}

	l.entries[key] = loaderEntry{value: value, err: err}
	return value, err
}

// FetchData is the typed veneer over Loader.Fetch.
func FetchData[T any](l *Loader, key any, fetch func() (T, error)) (T, error) {
	var zero T

	v, err := l.Fetch(key, func() (any, error) { return fetch() })
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("loader value for %v is %T", key, v)
	}

	return typed, nil
}

const loaderContextKey ContextKey = "loaderContext"

// Loader returns the per-request memo attached to this context, creating it
// on first use.
func (c *Context) Loader() *Loader {
	if v, ok := c.data.Load(loaderContextKey); ok {
		if l, ok := v.(*Loader); ok {
			return l
		}
	}

	l := NewLoader()
	actual, _ := c.data.LoadOrStore(loaderContextKey, l)
	return actual.(*Loader)
}
