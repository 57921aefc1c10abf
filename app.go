package inject

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Application is the top-level owner of the dependency layers: it holds the
// application-wide dependency map, the scope manager for app/global
// lifetimes, configuration and the logger. Construct one at startup and
// Shutdown it on the way out; nothing here lives in package-level state.
type Application struct {
	Name string

	config *viper.Viper
	logger *log.Logger
	scopes *ScopeManager

	mu           sync.RWMutex
	dependencies DependencyMap
}

type AppOption func(*Application)

func WithAppName(name string) AppOption {
	return func(a *Application) { a.Name = name }
}

// WithConfig supplies an explicit viper instance; defaults are applied to
// it so the inject.* keys always resolve.
func WithConfig(v *viper.Viper) AppOption {
	return func(a *Application) { a.config = v }
}

func WithLogger(logger *log.Logger) AppOption {
	return func(a *Application) { a.logger = logger }
}

// WithAppDependencies seeds the application-level dependency map.
func WithAppDependencies(deps DependencyMap) AppOption {
	return func(a *Application) {
		for name, dep := range deps {
			a.dependencies[name] = dep
		}
	}
}

// WithScopeManager shares an existing scope manager with this application.
// ScopeGlobal means one instance for the whole process; applications that
// coexist in a process hand each NewApplication the same manager to get
// that, since nothing here lives in package-level state.
func WithScopeManager(sm *ScopeManager) AppOption {
	return func(a *Application) { a.scopes = sm }
}

func NewApplication(opts ...AppOption) *Application {
	a := &Application{
		Name:         "inject",
		dependencies: DependencyMap{},
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.config == nil {
		a.config = initConfig()
	} else {
		setConfigDefaults(a.config)
	}

	if a.logger == nil {
		a.logger = NewLogger(a.config)
	}

	if a.scopes == nil {
		a.scopes = NewScopeManager()
		a.scopes.logger = a.logger
	}

	return a
}

func (a *Application) Config() *viper.Viper { return a.config }
func (a *Application) Logger() *log.Logger  { return a.logger }
func (a *Application) Scopes() *ScopeManager {
	return a.scopes
}

// Provide registers an application-level dependency under the given name.
func (a *Application) Provide(name string, dep any) *Application {
	a.mu.Lock()
	a.dependencies[name] = dep
	a.mu.Unlock()
	return a
}

// Dependencies returns a copy of the application-level dependency map.
func (a *Application) Dependencies() DependencyMap {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(DependencyMap, len(a.dependencies))
	for k, v := range a.dependencies {
		out[k] = v
	}
	return out
}

// Group opens an include-level dependency layer. Groups nest; inner layers
// win on name collision.
func (a *Application) Group(deps DependencyMap) *Group {
	return &Group{app: a, dependencies: deps}
}

// Bind registers a handler directly at the application layer.
func (a *Application) Bind(fn any, opts ...BindOption) *BoundHandler {
	return bind(a, nil, fn, opts...)
}

// NewContext returns a bare resolver context owned by this application.
func (a *Application) NewContext(parent context.Context) *Context {
	return NewContext(parent, a)
}

// Shutdown drains the scope manager: app/global cleanups run FIFO, each
// recovered so a failing teardown never blocks the sweep.
func (a *Application) Shutdown() {
	a.scopes.Close()
}

func (a *Application) inferBody() bool {
	return a.config.GetBool(cfgInferBody)
}

func (a *Application) implicitBind() bool {
	return a.config.GetBool(cfgImplicitBind)
}
