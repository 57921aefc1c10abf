package inject

import (
	"reflect"
	"sync"

	"github.com/slimloans/inject/errors"
)

// DependencyMap maps dependency names to providers. Values may be a
// *Provider, a plain value (injected as-is) or a bare func (treated as a
// zero-argument factory invoked on every resolution).
type DependencyMap map[string]any

// merge overlays maps in precedence order: later maps win on name collision.
func merge(layers ...DependencyMap) DependencyMap {
	out := DependencyMap{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Provider wraps a factory plus caching and scope metadata, and knows how
// to resolve the factory's own declared parameters recursively against an
// ambient dependency map.
type Provider struct {
	name     string
	factory  any
	args     []any
	declared []Param
	useCache bool
	scope    Scope

	security  bool
	secScopes []string

	plan    *plan
	planErr error

	mu       sync.Mutex
	resolved bool
	cached   any
}

type ProviderOption func(*Provider)

// WithArgs pre-binds positional arguments; resolution invokes the factory
// directly with them and skips parameter resolution entirely.
func WithArgs(args ...any) ProviderOption {
	return func(p *Provider) { p.args = args }
}

// WithParams declares the factory's parameter plan.
func WithParams(params ...Param) ProviderOption {
	return func(p *Provider) { p.declared = params }
}

// WithScope sets the caching lifetime. Defaults to ScopeRequest.
func WithScope(scope Scope) ProviderOption {
	return func(p *Provider) { p.scope = scope }
}

// WithCache toggles the provider-instance cache. Off by default; once
// enabled and a value has been produced, later resolutions on the same
// Provider return the identical value without re-invoking the factory.
func WithCache(use bool) ProviderOption {
	return func(p *Provider) { p.useCache = use }
}

// WithName overrides the dependency identity used for scope caching and
// error reporting.
func WithName(name string) ProviderOption {
	return func(p *Provider) { p.name = name }
}

// Provide wraps a factory callable. The parameter plan compiles here, at
// registration time; per-request resolution never re-inspects the factory.
func Provide(factory any, opts ...ProviderOption) *Provider {
	p := &Provider{
		factory: factory,
		scope:   ScopeRequest,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.name == "" {
		p.name = FuncName(factory)
	}

	if factory != nil && len(p.args) == 0 && reflect.ValueOf(factory).Kind() == reflect.Func {
		p.plan, p.planErr = compilePlan(factory, p.declared)
	}

	return p
}

// Name returns the dependency identity.
func (p *Provider) Name() string { return p.name }

// ProviderScope returns the caching lifetime.
func (p *Provider) ProviderScope() Scope { return p.scope }

// Scopes returns the OAuth-style scopes declared on a Security dependency.
func (p *Provider) Scopes() []string { return p.secScopes }

// IsSecurity reports whether the provider was built by Security.
func (p *Provider) IsSecurity() bool { return p.security }

// Resolve produces the provider's value against the given request context
// and ambient dependency map.
//
// Resolution order: provider-instance cache, scope cache (app/global),
// direct-call fast path for pre-bound args, then the compiled parameter
// plan. Cleanup-returning factories register their teardown on the request
// context (request scope) or the application scope manager (app/global).
func (p *Provider) Resolve(ctx *Context, deps DependencyMap) (any, error) {
	return p.resolve(ctx, deps, nil)
}

// resolve carries the per-call override table so inline markers nested in
// provider plans see substitutions made through Call's WithOverride.
func (p *Provider) resolve(ctx *Context, deps DependencyMap, overrides map[any]any) (any, error) {
	if p.useCache {
		p.mu.Lock()
		if p.resolved {
			value := p.cached
			p.mu.Unlock()
			return value, nil
		}
		p.mu.Unlock()
	}

	value, err := p.produceScoped(ctx, deps, overrides)
	if err != nil {
		return nil, err
	}

	if p.useCache {
		p.mu.Lock()
		// a concurrent resolution may have beaten us here; keep the first
		if p.resolved {
			value = p.cached
		} else {
			p.cached = value
			p.resolved = true
		}
		p.mu.Unlock()
	}

	return value, nil
}

// ClearCache drops the provider-instance cache slot.
func (p *Provider) ClearCache() {
	p.mu.Lock()
	p.resolved = false
	p.cached = nil
	p.mu.Unlock()
}

func (p *Provider) produceScoped(ctx *Context, deps DependencyMap, overrides map[any]any) (any, error) {
	if p.scope == ScopeRequest || ctx == nil || ctx.app == nil {
		return p.produce(ctx, deps, overrides)
	}

	return ctx.app.Scopes().GetOrCreate(ctx, p.scope, p.name, func(c *Context) (any, error) {
		return p.produce(c, deps, overrides)
	})
}

func (p *Provider) produce(ctx *Context, deps DependencyMap, overrides map[any]any) (any, error) {
	if p.factory == nil {
		return nil, nil
	}

	// non-callable factories are plain values
	if reflect.ValueOf(p.factory).Kind() != reflect.Func {
		return p.factory, nil
	}

	var (
		value   any
		cleanup CleanupFunc
		err     error
	)

	switch {
	case len(p.args) > 0:
		value, cleanup, err = invokeArgs(ctx, p.factory, p.args)
	case p.planErr != nil:
		return nil, p.planErr
	default:
		args := make([]any, len(p.plan.params))
		for i, param := range p.plan.params {
			args[i], err = p.resolveParam(ctx, deps, overrides, param)
			if err != nil {
				return nil, err
			}
		}
		value, cleanup, err = p.plan.invoke(ctx, args)
	}

	if err != nil {
		return nil, err
	}

	p.registerCleanup(ctx, cleanup)
	return value, nil
}

// resolveParam walks the ambient chain for one declared parameter: inline
// marker, dependency map, request attribute, query parameter.
func (p *Provider) resolveParam(ctx *Context, deps DependencyMap, overrides map[any]any, param Param) (any, error) {
	switch param.mode {
	case paramMarker:
		return resolveMarker(ctx, deps, overrides, param.marker)

	case paramProvides:
		entry, ok := deps[param.Name]
		if !ok {
			return nil, errors.WrapDependencyNotRegistered(param.Name, p.name)
		}
		return resolveMapEntry(ctx, deps, overrides, entry)
	}

	if entry, ok := deps[param.Name]; ok {
		return resolveMapEntry(ctx, deps, overrides, entry)
	}

	if ctx != nil {
		if v, ok := ctx.Attr(param.Name); ok {
			return v, nil
		}
		if v, ok := ctx.QueryValue(param.Name); ok {
			return v, nil
		}
	}

	return nil, errors.WrapUnresolvableParam(param.Name, p.name)
}

func (p *Provider) registerCleanup(ctx *Context, cleanup CleanupFunc) {
	if cleanup == nil {
		return
	}

	if p.scope != ScopeRequest && ctx != nil && ctx.app != nil {
		ctx.app.Scopes().Register(cleanup)
		return
	}

	if ctx != nil {
		ctx.AddCleanup(cleanup)
	}
}

// resolveMapEntry resolves a single dependency-map value: providers recurse
// against the same map, bare funcs act as zero-argument factories, anything
// else is a direct value.
func resolveMapEntry(ctx *Context, deps DependencyMap, overrides map[any]any, entry any) (any, error) {
	switch v := entry.(type) {
	case *Provider:
		return v.resolve(ctx, deps, overrides)
	case nil:
		return nil, nil
	}

	if reflect.ValueOf(entry).Kind() == reflect.Func {
		value, cleanup, err := invokeArgs(ctx, entry, nil)
		if err != nil {
			return nil, err
		}
		if cleanup != nil && ctx != nil {
			ctx.AddCleanup(cleanup)
		}
		return value, nil
	}

	return entry, nil
}
