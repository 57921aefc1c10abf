package inject

import (
	"fmt"

	"github.com/slimloans/inject/errors"
)

// callConfig carries per-call resolution options for the driver.
type callConfig struct {
	deps      DependencyMap
	overrides map[any]any
}

type CallOption func(*callConfig)

// WithOverride substitutes an inline dependency for the duration of a Call:
// any Resolve or Security marker wrapping original resolves replacement
// instead, including markers nested inside the declared plans of providers
// resolved along the way. Built for test substitution.
func WithOverride(original, replacement any) CallOption {
	return func(cfg *callConfig) {
		if cfg.overrides == nil {
			cfg.overrides = map[any]any{}
		}
		cfg.overrides[factoryKey(original)] = replacement
	}
}

// WithCallDependencies supplies the ambient dependency map for bare
// parameters resolved during the call.
func WithCallDependencies(deps DependencyMap) CallOption {
	return func(cfg *callConfig) { cfg.deps = deps }
}

// Call is the resolution driver: it resolves each declared parameter of fn
// (inline Resolve/Security markers honor overrides; bare names walk the
// ambient chain), invokes fn, and applies the cleanup unwrapping to fn's
// own result. fn must be callable.
func Call(ctx *Context, fn any, params []Param, opts ...CallOption) (any, error) {
	cfg := &callConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	p, err := compilePlan(fn, params)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(params))
	for i, param := range params {
		args[i], err = resolveDriverParam(ctx, cfg, param, p.name)
		if err != nil {
			return nil, err
		}
	}

	value, cleanup, err := p.invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	if cleanup != nil && ctx != nil {
		ctx.AddCleanup(cleanup)
	}

	return value, nil
}

func resolveDriverParam(ctx *Context, cfg *callConfig, param Param, target string) (any, error) {
	switch param.mode {
	case paramMarker:
		return resolveMarker(ctx, cfg.deps, cfg.overrides, param.marker)

	case paramProvides:
		entry, ok := cfg.deps[param.Name]
		if !ok {
			return nil, errors.WrapDependencyNotRegistered(param.Name, target)
		}
		return resolveMapEntry(ctx, cfg.deps, cfg.overrides, entry)
	}

	if entry, ok := cfg.deps[param.Name]; ok {
		return resolveMapEntry(ctx, cfg.deps, cfg.overrides, entry)
	}

	if ctx != nil {
		if v, ok := ctx.Attr(param.Name); ok {
			return v, nil
		}
		if v, ok := ctx.QueryValue(param.Name); ok {
			return v, nil
		}
	}

	return nil, errors.WrapUnresolvableParam(param.Name, target)
}

// resolveMarker resolves an inline Resolve/Security marker, substituting
// the replacement when the override table names the marker's factory. The
// override table rides along into the (possibly substituted) provider's own
// resolution so nested markers see it too.
func resolveMarker(ctx *Context, deps DependencyMap, overrides map[any]any, marker *Provider) (any, error) {
	if replacement, ok := overrides[factoryKey(marker.factory)]; ok {
		substitute := Provide(replacement,
			WithName(marker.name),
			WithScope(marker.scope),
			WithCache(marker.useCache),
			WithParams(marker.declared...))
		return substitute.resolve(ctx, deps, overrides)
	}

	return marker.resolve(ctx, deps, overrides)
}

// MustCall is Call for wiring paths where a resolution failure is a
// programming error.
func MustCall(ctx *Context, fn any, params []Param, opts ...CallOption) any {
	value, err := Call(ctx, fn, params, opts...)
	if err != nil {
		panic(fmt.Sprintf("inject: %v", err))
	}
	return value
}
