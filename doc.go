// Package inject is a scoped, cached, recursive dependency-injection core
// for request-driven applications.
//
// Dependencies are named providers attached at three layers — application,
// group (include) and handler — with inner layers winning on name
// collision. A Provider wraps a factory with a caching lifetime: request
// scope builds a fresh value per resolution, app and global scopes cache
// through the application's ScopeManager. Factories declare their own
// parameters as a plan compiled once at registration, and may hand back a
// cleanup alongside their value; cleanups run in registration order when
// the owning request closes or the scope manager shuts down.
//
// The package owns no transport: the host router constructs a Context per
// request (or WebSocket connection), calls the bound handler, and closes
// the Context on its guaranteed teardown path.
package inject
