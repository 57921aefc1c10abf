package inject

import "sync"

// Group is an include-level dependency layer. Groups nest arbitrarily; the
// merge order for a bound handler is application, then each enclosing group
// outer to inner, then the handler's own map — route wins over include wins
// over app.
type Group struct {
	app    *Application
	parent *Group

	mu           sync.RWMutex
	dependencies DependencyMap
}

// Provide registers a dependency on this layer.
func (g *Group) Provide(name string, dep any) *Group {
	g.mu.Lock()
	if g.dependencies == nil {
		g.dependencies = DependencyMap{}
	}
	g.dependencies[name] = dep
	g.mu.Unlock()
	return g
}

// Dependencies returns a copy of this layer's map.
func (g *Group) Dependencies() DependencyMap {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(DependencyMap, len(g.dependencies))
	for k, v := range g.dependencies {
		out[k] = v
	}
	return out
}

// Group opens a nested include layer.
func (g *Group) Group(deps DependencyMap) *Group {
	return &Group{app: g.app, parent: g, dependencies: deps}
}

// Bind registers a handler under this layer.
func (g *Group) Bind(fn any, opts ...BindOption) *BoundHandler {
	return bind(g.app, g, fn, opts...)
}

// layers returns the group chain outer to inner.
func (g *Group) layers() []DependencyMap {
	var chain []*Group
	for cur := g; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	out := make([]DependencyMap, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Dependencies())
	}
	return out
}
