package builtins

import (
	"jscore/pkg/object"
)

type BooleanInitializer struct{}

func (b *BooleanInitializer) Name() string {
	return "Boolean"
}

func (b *BooleanInitializer) Priority() int {
	return PriorityBoolean
}

func (b *BooleanInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	booleanProto := ctx.Realm.BooleanPrototype
	booleanProto.Internal = &primitiveData{value: object.False}

	ctx.Method(booleanProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		v, err := thisPrimitive(in, this, object.KindBoolean, "Boolean.prototype.toString")
		if err != nil {
			return object.Undefined, err
		}
		return object.String(object.DisplayString(v)), nil
	})
	ctx.Method(booleanProto, "valueOf", func(this object.Value, args []object.Value) (object.Value, error) {
		return thisPrimitive(in, this, object.KindBoolean, "Boolean.prototype.valueOf")
	})

	booleanCtor := in.NewNativeConstructor("Boolean", booleanProto,
		func(this object.Value, args []object.Value) (object.Value, error) {
			return object.Bool(object.ToBoolean(arg(args, 0))), nil
		},
		func(args []object.Value) (object.Value, error) {
			v := object.Bool(object.ToBoolean(arg(args, 0)))
			return object.FromObject(newWrapper(ctx, "Boolean", booleanProto, v)), nil
		})

	return ctx.DefineGlobal("Boolean", object.FromObject(booleanCtor))
}
