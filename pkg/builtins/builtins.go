// Package builtins installs the standard global objects into an
// interpreter.
package builtins

import (
	"strconv"

	"jscore/pkg/interp"
	"jscore/pkg/object"
)

// primitiveData is the Internal of String, Number and Boolean wrapper
// objects.
type primitiveData struct {
	value object.Value
}

// arg returns args[i] or undefined.
func arg(args []object.Value, i int) object.Value {
	if i < len(args) {
		return args[i]
	}
	return object.Undefined
}

// thisPrimitive unwraps a primitive of kind k from this, which may be the
// primitive itself or a wrapper object.
func thisPrimitive(in *interp.Interpreter, this object.Value, k object.Kind, method string) (object.Value, error) {
	if this.Kind() == k {
		return this, nil
	}
	if this.IsObject() {
		if d, ok := this.AsObject().Internal.(*primitiveData); ok && d.value.Kind() == k {
			return d.value, nil
		}
	}
	return object.Undefined, in.ThrowTypeError(method + " called on incompatible receiver " + object.DisplayString(this))
}

// thisObject rejects absent receivers and boxes primitives.
func thisObject(ctx *RuntimeContext, this object.Value, method string) (*object.Object, error) {
	switch this.Kind() {
	case object.KindUndefined, object.KindNull:
		return nil, ctx.Interp.ThrowTypeError(method + " called on " + object.DisplayString(this))
	case object.KindObject:
		return this.AsObject(), nil
	case object.KindString:
		return newWrapper(ctx, "String", ctx.Realm.StringPrototype, this), nil
	case object.KindNumber:
		return newWrapper(ctx, "Number", ctx.Realm.NumberPrototype, this), nil
	}
	return newWrapper(ctx, "Boolean", ctx.Realm.BooleanPrototype, this), nil
}

// newWrapper creates a String, Number or Boolean object around v.
func newWrapper(ctx *RuntimeContext, class string, proto *object.Object, v object.Value) *object.Object {
	o := object.New(class, proto)
	o.Internal = &primitiveData{value: v}
	if v.IsString() {
		ctx.Model.DefineValue(o, "length", object.Int(len([]rune(v.AsString()))), object.Sealed)
	}
	return o
}

// listFromArrayLike reads the elements 0..length-1 of an array-like object.
func listFromArrayLike(ctx *RuntimeContext, o *object.Object) ([]object.Value, error) {
	n, err := ctx.Model.ArrayLength(o)
	if err != nil {
		return nil, err
	}
	out := make([]object.Value, n)
	for i := range out {
		v, err := ctx.Model.Get(object.FromObject(o), strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
