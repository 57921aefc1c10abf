package errors

import (
	"fmt"
	"net/http"
)

var (
	// ErrorGeneric generic error key no status
	ErrorGeneric = Error{Key: "ERROR.UNKNOWN"}

	// ErrorNotAuthorized - returns 401
	ErrorNotAuthorized = Error{Key: "ERROR.NOT_LOGGED_IN", Status: http.StatusUnauthorized}

	ErrorForbidden = Error{Key: "ERROR.FORBIDDEN", Status: http.StatusForbidden}

	// ErrorDependencyNotRegistered a handler parameter was marked for
	// injection but the merged dependency map has no entry for it. This is
	// the developer forgetting to register a dependency, not the caller
	// omitting an optional parameter, so it is a server error.
	ErrorDependencyNotRegistered = Error{Key: "ERROR.DEPENDENCY_NOT_REGISTERED", Status: http.StatusInternalServerError}

	// ErrorUnresolvableParam a factory parameter could not be satisfied from
	// the dependency map, request attributes or query parameters.
	ErrorUnresolvableParam = Error{Key: "ERROR.UNRESOLVABLE_PARAM", Status: http.StatusInternalServerError}

	// ErrorNotInvokable the resolution driver was handed something that is
	// not callable, or a factory whose shape the plan compiler rejects.
	ErrorNotInvokable = Error{Key: "ERROR.NOT_INVOKABLE", Status: http.StatusInternalServerError}

	ErrorMissConfigured = Error{Key: "ERROR.MISSCONFIGURED", Status: http.StatusInternalServerError}
)

func WrapGeneric(err error) error {
	return WrapWithStatus(ErrorGeneric, err, 500)
}

func WrapForbidden(err error) error {
	return Wrap(ErrorForbidden, err)
}

func WrapNotAuthorized(err error) error {
	return Wrap(ErrorNotAuthorized, err)
}

// WrapDependencyNotRegistered names the missing dependency and the handler
// that asked for it.
func WrapDependencyNotRegistered(dependency, handler string) error {
	err := ErrorDependencyNotRegistered.NewError(
		fmt.Errorf("dependency %q requested by %s is not registered", dependency, handler))

	err.Data = map[string]interface{}{"dependency": dependency, "handler": handler}
	return err
}

// WrapUnresolvableParam names the parameter and the factory it belongs to.
func WrapUnresolvableParam(param, factory string) error {
	err := ErrorUnresolvableParam.NewError(
		fmt.Errorf("cannot resolve parameter %q of %s", param, factory))

	err.Data = map[string]interface{}{"param": param, "factory": factory}
	return err
}

func WrapNotInvokable(err error) error {
	return Wrap(ErrorNotInvokable, err)
}
