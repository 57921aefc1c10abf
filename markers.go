package inject

type paramMode int

const (
	// paramBare resolves through the ambient chain: dependency map, request
	// attribute, query parameter.
	paramBare paramMode = iota
	// paramProvides must be satisfied by the merged dependency map.
	paramProvides
	// paramMarker resolves an inline sub-dependency (Resolve/Security).
	paramMarker
)

// Param declares how a single factory or handler input is bound. Go
// reflection does not expose parameter names, so plans carry explicit Param
// declarations lined up positionally with the target's non-context inputs.
type Param struct {
	Name string

	mode   paramMode
	marker *Provider
}

// P declares a bare parameter: resolved from the merged dependency map when
// the name matches (implicit binding), otherwise from request attributes,
// path, query, headers or the inferred body depending on the caller.
func P(name string) Param {
	return Param{Name: name, mode: paramBare}
}

// Provides declares a parameter that must be injected from the merged
// dependency map under the given name. A missing entry is a configuration
// error, not a silently bound zero value.
func Provides(name string) Param {
	return Param{Name: name, mode: paramProvides}
}

// From attaches an inline dependency so the parameter resolves through the
// given provider instead of the ambient map.
func (p Param) From(dep *Provider) Param {
	p.marker = dep
	p.mode = paramMarker
	return p
}

// Resolve wraps a dependency for inline resolution, independent of the
// ambient dependency map. The result is itself a Provider, so it can sit in
// a dependency map, be declared as a parameter via Param.From, or be handed
// straight to Call.
func Resolve(dep any, opts ...ProviderOption) *Provider {
	return Provide(dep, opts...)
}

// Security wraps a dependency like Resolve and additionally carries the
// OAuth-style scopes declared for it. The scopes are metadata for schema
// generators and auditing; resolution behaves exactly like Resolve.
func Security(dep any, scopes ...string) *Provider {
	p := Provide(dep)
	p.security = true
	p.secScopes = scopes
	return p
}
