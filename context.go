package inject

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ContextKey string

const (
	// LoggerKey key in the context data store for the logger entry
	LoggerKey ContextKey = "logger"
)

// Context is the connection-scoped boundary object the host transport hands
// to the resolver. It carries the owning application, the request-derived
// maps (path params, query, headers, cookies), an attribute store, the
// lazily decoded body and the per-request cleanup list.
//
// The same type serves HTTP requests and WebSocket connections; socket
// contexts simply carry no body.
type Context struct {
	context.Context

	app *Application

	requestID string
	method    string
	path      string

	params  map[string]string
	query   url.Values
	header  http.Header
	cookies map[string]string

	data *sync.Map

	body     []byte
	hasBody  bool
	bodyType string
	bodyOnce sync.Once
	bodyData map[string]any
	bodyErr  error

	mu       sync.Mutex
	cleanups []CleanupFunc
	closed   bool
}

// NewContext returns a bare resolver context. Mostly useful for tests and
// for background resolutions outside any request.
func NewContext(parent context.Context, app *Application) *Context {
	if parent == nil {
		parent = context.Background()
	}

	return &Context{
		Context:   parent,
		app:       app,
		requestID: uuid.New().String(),
		params:    map[string]string{},
		query:     url.Values{},
		header:    http.Header{},
		cookies:   map[string]string{},
		data:      &sync.Map{},
	}
}

// NewRequestContext builds a Context from an HTTP request, draining the body
// so the caller's reader stays usable.
func NewRequestContext(parent context.Context, app *Application, r *http.Request) *Context {
	ctx := NewContext(parent, app)

	ctx.method = r.Method
	ctx.path = r.URL.Path
	ctx.query = r.URL.Query()
	ctx.header = r.Header

	for _, c := range r.Cookies() {
		ctx.cookies[c.Name] = c.Value
	}

	if r.Body != nil && r.Body != http.NoBody {
		b, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewBuffer(b))
		ctx.body = b
		ctx.hasBody = len(b) > 0
		ctx.bodyType = r.Header.Get("Content-Type")
	}

	return ctx
}

// NewSocketContext builds a Context for a WebSocket-style connection: same
// binding semantics as a request context, no body.
func NewSocketContext(parent context.Context, app *Application, header http.Header, query url.Values) *Context {
	ctx := NewContext(parent, app)

	if header != nil {
		ctx.header = header
	}
	if query != nil {
		ctx.query = query
	}

	return ctx
}

func (c *Context) App() *Application { return c.app }
func (c *Context) RequestID() string { return c.requestID }
func (c *Context) Method() string    { return c.method }
func (c *Context) Path() string      { return c.path }

// SetParams installs the path parameters matched by the host router.
func (c *Context) SetParams(params map[string]string) *Context {
	if params != nil {
		c.params = params
	}
	return c
}

// Param returns a path parameter by name.
func (c *Context) Param(name string) (string, bool) {
	v, ok := c.params[name]
	return v, ok
}

func (c *Context) Query() url.Values { return c.query }

// QueryValue returns a single query parameter by name.
func (c *Context) QueryValue(name string) (string, bool) {
	if _, ok := c.query[name]; !ok {
		return "", false
	}
	return c.query.Get(name), true
}

func (c *Context) Header() http.Header { return c.header }

// HeaderValue returns a header by name.
func (c *Context) HeaderValue(name string) (string, bool) {
	if len(c.header.Values(name)) == 0 {
		return "", false
	}
	return c.header.Get(name), true
}

// Cookie returns a cookie value by name.
func (c *Context) Cookie(name string) (string, bool) {
	v, ok := c.cookies[name]
	return v, ok
}

// Set stores a value on the context attribute store
func (c *Context) Set(key any, value any) *Context {
	c.data.Store(key, value)
	return c
}

// Get reads a value from the context attribute store
func (c *Context) Get(key any) (any, bool) {
	return c.data.Load(key)
}

// Attr looks a name up the way factory parameter resolution does: the
// attribute store first, then the built-in request fields.
func (c *Context) Attr(name string) (any, bool) {
	if v, ok := c.data.Load(name); ok {
		return v, true
	}

	switch name {
	case "request_id":
		return c.requestID, true
	case "method":
		if c.method != "" {
			return c.method, true
		}
	case "path":
		if c.path != "" {
			return c.path, true
		}
	}

	return nil, false
}

// RequestBody returns the raw request body.
func (c *Context) RequestBody() []byte { return c.body }

// Data returns the decoded request body as a map. JSON objects decode
// directly; form bodies flatten dotted and bracket keys into nested maps.
// Decoding happens once and is memoized.
func (c *Context) Data() (map[string]any, error) {
	c.bodyOnce.Do(func() {
		if !c.hasBody {
			c.bodyData = map[string]any{}
			return
		}
		c.bodyData, c.bodyErr = parseBody(c.bodyType, c.body)
	})

	return c.bodyData, c.bodyErr
}

// AddCleanup registers a teardown action to run when the connection closes.
// Cleanups run in registration order. When the context is already closed
// the cleanup runs immediately so nothing acquired late leaks.
func (c *Context) AddCleanup(fn CleanupFunc) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		runCleanup(fn, c.loggerBase())
		return
	}
	c.cleanups = append(c.cleanups, fn)
	c.mu.Unlock()
}

// Close runs all registered cleanups in registration order. A panicking
// cleanup is recovered and logged so the rest of the sweep still runs.
// The host request lifecycle must call Close on its guaranteed teardown
// path; Close is idempotent so calling it twice is harmless.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cleanups := c.cleanups
	c.cleanups = nil
	c.mu.Unlock()

	for _, fn := range cleanups {
		runCleanup(fn, c.loggerBase())
	}
}

func (c *Context) loggerBase() *log.Logger {
	if c.app != nil && c.app.logger != nil {
		return c.app.logger
	}
	return log.StandardLogger()
}

// SetLogger pins a log entry onto the context
func (c *Context) SetLogger(l *log.Entry) {
	c.data.Store(LoggerKey, l)
}

// Logger returns the context log entry, tagged with the request id.
func (c *Context) Logger() *log.Entry {
	if lgr, found := c.data.Load(LoggerKey); found {
		if l, ok := lgr.(*log.Entry); ok {
			return l
		}
	}

	return c.loggerBase().WithField("request_id", c.requestID)
}

var _ context.Context = &Context{}
