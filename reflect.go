package inject

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// TypeNoPtr returns the underlying reflect.Type of the provided variable,
// stripping pointer indirection if present. Dependency identities use the
// bare type name rather than pointer notation.
func TypeNoPtr(myvar any) reflect.Type {
	t := reflect.TypeOf(myvar)
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// FuncPath safely returns the fully qualified name of a factory or handler
// (function or struct type). Used for dependency identities and error
// reporting.
func FuncPath(handler any) string {
	val := reflect.ValueOf(handler)
	if !val.IsValid() {
		return "<nil>"
	}
	typ := val.Type()

	// Safely unwrap interfaces or pointers, avoid calling Elem on Func
	for typ.Kind() == reflect.Interface || typ.Kind() == reflect.Pointer {
		if val.IsNil() {
			return "<nil>"
		}
		val = val.Elem()
		typ = val.Type()
	}

	switch typ.Kind() {
	case reflect.Func:
		fn := runtime.FuncForPC(val.Pointer())
		if fn != nil {
			return fn.Name()
		}
		return typ.String()
	default:
		if typ.PkgPath() != "" {
			return fmt.Sprintf("%s.%s", typ.PkgPath(), typ.Name())
		}
		return typ.Name()
	}
}

// FuncName returns the short name of a factory without its package path.
func FuncName(handler any) string {
	name := FuncPath(handler)
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// factoryKey returns a stable identity for a factory usable as a map key.
// Functions are keyed by code pointer so test overrides can be looked up by
// the original callable; comparable values key as themselves.
func factoryKey(factory any) any {
	v := reflect.ValueOf(factory)
	if !v.IsValid() {
		return "<nil>"
	}
	if v.Kind() == reflect.Func {
		return v.Pointer()
	}
	if v.Type().Comparable() {
		return factory
	}
	return FuncPath(factory)
}
