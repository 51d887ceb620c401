package builtins

import (
	"strings"

	"jscore/pkg/interp"
	"jscore/pkg/object"
)

type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	functionProto := ctx.Realm.FunctionPrototype

	ctx.Method(functionProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		if !this.IsCallable() {
			return object.Undefined, in.ThrowTypeError("Function.prototype.toString requires that 'this' be a Function")
		}
		return object.String(functionToString(this.AsObject())), nil
	})

	ctx.Method(functionProto, "call", func(this object.Value, args []object.Value) (object.Value, error) {
		if !this.IsCallable() {
			return object.Undefined, in.ThrowTypeError("Function.prototype.call called on " + object.TypeOf(this))
		}
		var rest []object.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return this.AsObject().Call(arg(args, 0), rest)
	})

	ctx.Method(functionProto, "apply", func(this object.Value, args []object.Value) (object.Value, error) {
		if !this.IsCallable() {
			return object.Undefined, in.ThrowTypeError("Function.prototype.apply called on " + object.TypeOf(this))
		}
		var list []object.Value
		switch argArray := arg(args, 1); {
		case argArray.IsAbsent():
		case argArray.IsObject():
			var err error
			if list, err = listFromArrayLike(ctx, argArray.AsObject()); err != nil {
				return object.Undefined, err
			}
		default:
			return object.Undefined, in.ThrowTypeError("second argument to Function.prototype.apply must be an array-like object")
		}
		return this.AsObject().Call(arg(args, 0), list)
	})

	// Function constructor: the last argument is the body, the rest are
	// parameter names.
	create := func(args []object.Value) (object.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := in.ToString(a)
			if err != nil {
				return object.Undefined, err
			}
			parts[i] = s
		}
		body := ""
		if n := len(parts); n > 0 {
			body = parts[n-1]
			parts = parts[:n-1]
		}
		fn, err := in.CompileFunction(strings.Join(parts, ", "), body)
		if err != nil {
			return object.Undefined, err
		}
		return object.FromObject(fn), nil
	}
	functionCtor := in.NewNativeConstructor("Function", functionProto,
		func(this object.Value, args []object.Value) (object.Value, error) { return create(args) },
		create)

	return ctx.DefineGlobal("Function", object.FromObject(functionCtor))
}

// functionToString renders script functions as their source and native
// functions as a [native code] stub.
func functionToString(fn *object.Object) string {
	if src, ok := interp.FunctionSource(fn); ok {
		return src
	}
	return "function " + fn.Name + "() {\n    [native code]\n}"
}
