package inject

const identityContextKey ContextKey = "identityContext"

// Identity is the minimal contract security dependencies resolve to. Keeping
// it this small lets hosts plug in whatever auth story they have.
type Identity interface {
	IsValid() error
}

// IdentityToContext stores the given Identity on the context attribute
// store so downstream dependencies can pick it up by attribute lookup.
func IdentityToContext(ctx *Context, ident Identity) *Context {
	return ctx.Set(identityContextKey, ident)
}

// IdentityFromContext retrieves a typed Identity from the context.
func IdentityFromContext[T Identity](ctx *Context) T {
	if v, ok := ctx.Get(identityContextKey); ok {
		if i, ok := v.(T); ok {
			return i
		}
	}

	var empty T
	return empty
}
