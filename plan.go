package inject

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/slimloans/inject/errors"
)

// outShape describes the return shape of a factory or handler.
type outShape int

const (
	outNone outShape = iota
	outValue
	outValueErr
	outValueCleanup
	outValueCleanupErr
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	cleanupType = reflect.TypeOf(CleanupFunc(nil))
	funcType    = reflect.TypeOf(func() {})
	contextType = reflect.TypeOf(&Context{})
)

// plan is a compiled invocation descriptor for a factory or handler: which
// input slot receives the resolver context, how the remaining inputs map to
// declared parameters, and what the output shape is. Plans are built once
// at registration time so per-call resolution never re-inspects the target.
type plan struct {
	fn     reflect.Value
	name   string
	ctxIdx int
	params []Param
	inTyps []reflect.Type
	shape  outShape
}

// compilePlan validates fn against the declared parameters and builds its
// plan. The declared parameter list must line up one to one with the
// non-context inputs of fn.
func compilePlan(fn any, params []Param) (*plan, error) {
	if fn == nil {
		return nil, errors.WrapNotInvokable(fmt.Errorf("nil target"))
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.WrapNotInvokable(fmt.Errorf("%s is not callable", FuncPath(fn)))
	}

	t := v.Type()
	if t.IsVariadic() {
		return nil, errors.WrapNotInvokable(fmt.Errorf("%s: variadic targets are not supported", FuncPath(fn)))
	}

	p := &plan{
		fn:     v,
		name:   FuncPath(fn),
		ctxIdx: -1,
		params: params,
	}

	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		if in == contextType && p.ctxIdx < 0 {
			p.ctxIdx = i
			continue
		}
		p.inTyps = append(p.inTyps, in)
	}

	if len(p.inTyps) != len(params) {
		return nil, errors.WrapNotInvokable(fmt.Errorf(
			"%s declares %d parameter(s) but takes %d non-context input(s)",
			p.name, len(params), len(p.inTyps)))
	}

	shape, err := outputShape(t)
	if err != nil {
		return nil, err
	}
	p.shape = shape

	return p, nil
}

func outputShape(t reflect.Type) (outShape, error) {
	switch t.NumOut() {
	case 0:
		return outNone, nil
	case 1:
		return outValue, nil
	case 2:
		switch {
		case t.Out(1) == errorType:
			return outValueErr, nil
		case isCleanupOut(t.Out(1)):
			return outValueCleanup, nil
		}
	case 3:
		if isCleanupOut(t.Out(1)) && t.Out(2) == errorType {
			return outValueCleanupErr, nil
		}
	}

	return outNone, errors.WrapNotInvokable(fmt.Errorf(
		"unsupported return shape; want (T), (T, error), (T, func()) or (T, func(), error)"))
}

func isCleanupOut(t reflect.Type) bool {
	return t == cleanupType || t == funcType
}

// invoke calls the planned target with the resolved arguments, returning the
// produced value and any cleanup the target handed back.
func (p *plan) invoke(ctx *Context, args []any) (any, CleanupFunc, error) {
	t := p.fn.Type()
	in := make([]reflect.Value, t.NumIn())

	argIdx := 0
	for i := 0; i < t.NumIn(); i++ {
		if i == p.ctxIdx {
			in[i] = reflect.ValueOf(ctx)
			continue
		}

		val, err := convertArg(args[argIdx], t.In(i))
		if err != nil {
			return nil, nil, errors.WrapNotInvokable(fmt.Errorf("%s: argument %d: %w", p.name, argIdx, err))
		}
		in[i] = val
		argIdx++
	}

	out := p.fn.Call(in)

	switch p.shape {
	case outNone:
		return nil, nil, nil
	case outValue:
		return outAny(out[0]), nil, nil
	case outValueErr:
		return outAny(out[0]), nil, outErr(out[1])
	case outValueCleanup:
		return outAny(out[0]), outCleanup(out[1]), nil
	case outValueCleanupErr:
		return outAny(out[0]), outCleanup(out[1]), outErr(out[2])
	}

	return nil, nil, nil
}

// invokeArgs calls fn positionally with pre-bound arguments, skipping plan
// parameter resolution entirely (the direct-call fast path).
func invokeArgs(ctx *Context, fn any, args []any) (any, CleanupFunc, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, nil, errors.WrapNotInvokable(fmt.Errorf("%s is not callable", FuncPath(fn)))
	}

	p, err := compilePlan(fn, make([]Param, countNonContextIn(v.Type())))
	if err != nil {
		return nil, nil, err
	}

	if len(args) != len(p.inTyps) {
		return nil, nil, errors.WrapNotInvokable(fmt.Errorf(
			"%s takes %d argument(s), got %d", p.name, len(p.inTyps), len(args)))
	}

	return p.invoke(ctx, args)
}

func countNonContextIn(t reflect.Type) int {
	n := 0
	seenCtx := false
	for i := 0; i < t.NumIn(); i++ {
		if t.In(i) == contextType && !seenCtx {
			seenCtx = true
			continue
		}
		n++
	}
	return n
}

func outAny(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func outErr(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func outCleanup(v reflect.Value) CleanupFunc {
	if v.IsNil() {
		return nil
	}
	if fn, ok := v.Interface().(CleanupFunc); ok {
		return fn
	}
	if fn, ok := v.Interface().(func()); ok {
		return fn
	}
	return nil
}

// convertArg adapts a resolved value to the input type the target expects.
// Query and path parameters arrive as strings, so the scalar kinds convert
// through cast; everything else must be assignable.
func convertArg(arg any, target reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(target), nil
	}

	av := reflect.ValueOf(arg)
	if av.Type().AssignableTo(target) {
		return av, nil
	}

	switch target.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(target), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(target), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(target), nil
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(target), nil
	case reflect.Bool:
		b, err := cast.ToBoolE(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b).Convert(target), nil
	}

	if av.Type().ConvertibleTo(target) {
		return av.Convert(target), nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, target)
}
