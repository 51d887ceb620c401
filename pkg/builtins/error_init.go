package builtins

import (
	"jscore/pkg/object"
)

// errorFamilies lists the native error constructors. Each prototype inherits
// from Error.prototype.
var errorFamilies = []string{"Error", "TypeError", "ReferenceError", "SyntaxError", "RangeError"}

type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string {
	return "Error"
}

func (e *ErrorInitializer) Priority() int {
	return PriorityError
}

func (e *ErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	model := ctx.Model
	errorProto := ctx.Realm.ErrorPrototype

	model.DefineValue(errorProto, "message", object.String(""), object.DontEnum)
	ctx.Method(errorProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		if !this.IsObject() {
			return object.Undefined, in.ThrowTypeError("Error.prototype.toString called on non-object")
		}
		name, err := stringProperty(ctx, this, "name", "Error")
		if err != nil {
			return object.Undefined, err
		}
		msg, err := stringProperty(ctx, this, "message", "")
		if err != nil {
			return object.Undefined, err
		}
		switch {
		case msg == "":
			return object.String(name), nil
		case name == "":
			return object.String(msg), nil
		}
		return object.String(name + ": " + msg), nil
	})

	for _, family := range errorFamilies {
		proto := ctx.Realm.ErrorPrototypeFor(family)
		model.DefineValue(proto, "name", object.String(family), object.DontEnum)

		// Called with or without new, the constructor captures the stack
		// of the script that invoked it.
		create := func(args []object.Value) (object.Value, error) {
			msg := ""
			if m := arg(args, 0); !m.IsUndefined() {
				var err error
				if msg, err = in.ToString(m); err != nil {
					return object.Undefined, err
				}
			}
			return object.FromObject(in.NewError(family, msg, in.Chain().Snapshot())), nil
		}
		ctor := in.NewNativeConstructor(family, proto,
			func(this object.Value, args []object.Value) (object.Value, error) { return create(args) },
			create)
		if err := ctx.DefineGlobal(family, object.FromObject(ctor)); err != nil {
			return err
		}
	}
	return nil
}

// stringProperty reads key from v as a string, substituting def for
// undefined.
func stringProperty(ctx *RuntimeContext, v object.Value, key, def string) (string, error) {
	p, err := ctx.Model.Get(v, key)
	if err != nil {
		return "", err
	}
	if p.IsUndefined() {
		return def, nil
	}
	return ctx.Interp.ToString(p)
}
