package inject

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Scope defines the caching lifetime of a dependency.
type Scope string

const (
	// ScopeRequest creates a new instance on every resolution, never cached.
	ScopeRequest Scope = "request"
	// ScopeApp shares one instance per owning application.
	ScopeApp Scope = "app"
	// ScopeGlobal shares one instance across the whole process.
	ScopeGlobal Scope = "global"
)

// CleanupFunc is a deferred teardown action registered by a resource-style
// factory. Cleanups run in registration order (FIFO).
type CleanupFunc func()

type scopeKey struct {
	scope    Scope
	identity string
}

// ScopeManager caches resolved instances for non-request lifetimes and
// drains registered cleanups at shutdown. It is constructed explicitly and
// owned by an Application rather than living as a package-level singleton;
// that keeps lifetimes visible and avoids cross-test leakage.
type ScopeManager struct {
	mu       sync.Mutex
	entries  map[scopeKey]any
	locks    map[scopeKey]*sync.Mutex
	cleanups []CleanupFunc
	closed   bool

	logger *log.Logger
}

func NewScopeManager() *ScopeManager {
	return &ScopeManager{
		entries: make(map[scopeKey]any),
		locks:   make(map[scopeKey]*sync.Mutex),
	}
}

func (sm *ScopeManager) log() *log.Logger {
	if sm.logger != nil {
		return sm.logger
	}
	return log.StandardLogger()
}

// keyLock returns the mutex guarding a single cache slot, so two concurrent
// first-resolutions of the same key invoke the factory exactly once.
func (sm *ScopeManager) keyLock(key scopeKey) *sync.Mutex {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if l, ok := sm.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	sm.locks[key] = l
	return l
}

// GetOrCreate resolves a value for the given scope and dependency identity.
// Request scope always invokes the factory and bypasses the cache entirely;
// app and global scopes consult the cache first and store on miss.
func (sm *ScopeManager) GetOrCreate(ctx *Context, scope Scope, identity string, factory func(*Context) (any, error)) (any, error) {
	if scope == ScopeRequest {
		return factory(ctx)
	}

	key := scopeKey{scope: scope, identity: identity}

	slot := sm.keyLock(key)
	slot.Lock()
	defer slot.Unlock()

	sm.mu.Lock()
	value, ok := sm.entries[key]
	sm.mu.Unlock()

	if ok {
		return value, nil
	}

	value, err := factory(ctx)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	sm.entries[key] = value
	sm.mu.Unlock()

	return value, nil
}

// Register appends a shutdown cleanup. Cleanups run FIFO when Close is
// called.
func (sm *ScopeManager) Register(fn CleanupFunc) {
	if fn == nil {
		return
	}

	sm.mu.Lock()
	sm.cleanups = append(sm.cleanups, fn)
	sm.mu.Unlock()
}

// Len returns the number of cached entries, mostly useful in tests.
func (sm *ScopeManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.entries)
}

// Close drains all registered cleanups in registration order. A panicking
// cleanup is recovered and logged so the remaining callbacks still run.
// After the sweep the cache and the callback list are cleared. Close is
// idempotent.
func (sm *ScopeManager) Close() {
	sm.mu.Lock()
	if sm.closed {
		sm.mu.Unlock()
		return
	}
	sm.closed = true
	cleanups := sm.cleanups
	sm.cleanups = nil
	sm.mu.Unlock()

	for _, fn := range cleanups {
		runCleanup(fn, sm.log())
	}

	sm.mu.Lock()
	sm.entries = make(map[scopeKey]any)
	sm.locks = make(map[scopeKey]*sync.Mutex)
	sm.mu.Unlock()
}

// Clear drops cached entries for the given scope, or every entry when scope
// is empty. Registered cleanups are untouched. Test harnesses use this to
// reset app or global caches between cases without tearing the process down.
func (sm *ScopeManager) Clear(scope Scope) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if scope == "" {
		sm.entries = make(map[scopeKey]any)
		sm.locks = make(map[scopeKey]*sync.Mutex)
		return
	}

	for key := range sm.entries {
		if key.scope == scope {
			delete(sm.entries, key)
		}
	}

	// prune the slot locks too, or long-lived managers leak one mutex per
	// distinct identity ever resolved
	for key := range sm.locks {
		if key.scope == scope {
			delete(sm.locks, key)
		}
	}
}

func runCleanup(fn CleanupFunc, logger *log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("cleanup callback panicked")
		}
	}()

	fn()
}
