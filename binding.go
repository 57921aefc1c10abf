package inject

import (
	"github.com/slimloans/inject/errors"
)

// BoundHandler is a handler whose parameter plan was compiled at
// registration time. Call assembles the argument set per request: marked
// parameters inject from the merged dependency map, inline markers resolve
// through their own providers, and bare names fall through to path, query,
// header, cookie and inferred-body values.
type BoundHandler struct {
	app   *Application
	group *Group

	name         string
	dependencies DependencyMap
	declared     []Param

	plan    *plan
	planErr error
}

type BindOption func(*BoundHandler)

// WithDependencies attaches the handler-level dependency map; it overrides
// group- and application-level entries of the same name.
func WithDependencies(deps DependencyMap) BindOption {
	return func(h *BoundHandler) { h.dependencies = deps }
}

// Params declares the handler's parameter plan, positionally aligned with
// its non-context inputs.
func Params(params ...Param) BindOption {
	return func(h *BoundHandler) { h.declared = params }
}

func bind(app *Application, group *Group, fn any, opts ...BindOption) *BoundHandler {
	h := &BoundHandler{
		app:   app,
		group: group,
		name:  FuncPath(fn),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.plan, h.planErr = compilePlan(fn, h.declared)
	return h
}

// Name returns the handler identity used in error reporting.
func (h *BoundHandler) Name() string { return h.name }

// Dependencies returns the fully merged dependency map visible to this
// handler, route over include over app.
func (h *BoundHandler) Dependencies() DependencyMap {
	layers := []DependencyMap{h.app.Dependencies()}
	if h.group != nil {
		layers = append(layers, h.group.layers()...)
	}
	layers = append(layers, h.dependencies)
	return merge(layers...)
}

// Call resolves the handler's arguments against the request context and
// invokes it. A parameter explicitly marked for injection with no matching
// map entry fails with a configuration error naming the dependency and the
// handler — never a silently bound zero value.
func (h *BoundHandler) Call(ctx *Context) (any, error) {
	if h.planErr != nil {
		return nil, h.planErr
	}

	deps := h.Dependencies()

	var bodyVals map[string]any
	if h.app != nil && h.app.inferBody() {
		// best effort: an undecodable body just contributes nothing
		bodyVals, _ = ctx.Data()
	}

	args := make([]any, len(h.plan.params))
	for i, param := range h.plan.params {
		value, err := h.resolveHandlerParam(ctx, deps, bodyVals, param)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}

	value, cleanup, err := h.plan.invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	if cleanup != nil {
		ctx.AddCleanup(cleanup)
	}

	return value, nil
}

func (h *BoundHandler) resolveHandlerParam(ctx *Context, deps DependencyMap, bodyVals map[string]any, param Param) (any, error) {
	switch param.mode {
	case paramProvides:
		entry, ok := deps[param.Name]
		if !ok {
			return nil, errors.WrapDependencyNotRegistered(param.Name, h.name)
		}
		return resolveMapEntry(ctx, deps, nil, entry)

	case paramMarker:
		return param.marker.Resolve(ctx, deps)
	}

	// bare parameter: implicit map binding first (compatibility behavior,
	// see inject.implicit_bind), then the request-derived sources. Path,
	// query, header and cookie names are reserved, so they win over any
	// same-named body key.
	if h.app == nil || h.app.implicitBind() {
		if entry, ok := deps[param.Name]; ok {
			return resolveMapEntry(ctx, deps, nil, entry)
		}
	}

	if v, ok := ctx.Param(param.Name); ok {
		return v, nil
	}
	if v, ok := ctx.QueryValue(param.Name); ok {
		return v, nil
	}
	if v, ok := ctx.HeaderValue(param.Name); ok {
		return v, nil
	}
	if v, ok := ctx.Cookie(param.Name); ok {
		return v, nil
	}
	if v, ok := bodyVals[param.Name]; ok {
		return v, nil
	}

	// unbound bare parameters keep their zero value; only marked
	// parameters fail loudly
	return nil, nil
}

// IsConfigurationError reports whether err is a developer wiring mistake — a
// missing registration or an unresolvable factory parameter — as opposed to
// a caller omitting an optional value. Hosts map these to server errors.
func IsConfigurationError(err error) bool {
	return errors.IsKey(err, errors.ErrorDependencyNotRegistered.Key) ||
		errors.IsKey(err, errors.ErrorUnresolvableParam.Key)
}
