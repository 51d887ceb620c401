package builtins

import (
	"jscore/pkg/object"
)

type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	model := ctx.Model
	objectProto := ctx.Realm.ObjectPrototype

	// Object.prototype methods
	ctx.Method(objectProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		switch this.Kind() {
		case object.KindUndefined:
			return object.String("[object Undefined]"), nil
		case object.KindNull:
			return object.String("[object Null]"), nil
		case object.KindObject:
			return object.String("[object " + this.AsObject().ClassName() + "]"), nil
		}
		return object.String("[object " + primitiveClass(this.Kind()) + "]"), nil
	})
	ctx.Method(objectProto, "toLocaleString", func(this object.Value, args []object.Value) (object.Value, error) {
		s, err := in.ToString(this)
		return object.String(s), err
	})
	ctx.Method(objectProto, "valueOf", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, this, "Object.prototype.valueOf")
		if err != nil {
			return object.Undefined, err
		}
		return object.FromObject(o), nil
	})
	ctx.Method(objectProto, "hasOwnProperty", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, this, "Object.prototype.hasOwnProperty")
		if err != nil {
			return object.Undefined, err
		}
		key, err := in.ToString(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		if _, ok := o.OwnProperty(key); ok {
			return object.True, nil
		}
		// String wrappers expose their characters as own properties.
		if d, ok := o.Internal.(*primitiveData); ok && d.value.IsString() {
			if idx, ok := object.ArrayIndex(key); ok && int(idx) < len([]rune(d.value.AsString())) {
				return object.True, nil
			}
		}
		return object.False, nil
	})
	ctx.Method(objectProto, "propertyIsEnumerable", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, this, "Object.prototype.propertyIsEnumerable")
		if err != nil {
			return object.Undefined, err
		}
		key, err := in.ToString(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		p, ok := o.OwnProperty(key)
		return object.Bool(ok && p.Attrs.Enumerable()), nil
	})
	ctx.Method(objectProto, "isPrototypeOf", func(this object.Value, args []object.Value) (object.Value, error) {
		v := arg(args, 0)
		if !this.IsObject() || !v.IsObject() {
			return object.False, nil
		}
		return object.Bool(v.AsObject().InstanceOf(this.AsObject())), nil
	})

	// Object constructor
	objectCtor := in.NewNativeConstructor("Object", objectProto,
		func(this object.Value, args []object.Value) (object.Value, error) {
			v := arg(args, 0)
			if v.IsAbsent() {
				return object.FromObject(object.New("Object", objectProto)), nil
			}
			o, err := thisObject(ctx, v, "Object")
			return object.FromObject(o), err
		},
		func(args []object.Value) (object.Value, error) {
			v := arg(args, 0)
			if v.IsAbsent() {
				return object.FromObject(object.New("Object", objectProto)), nil
			}
			o, err := thisObject(ctx, v, "Object")
			return object.FromObject(o), err
		})

	// Static methods
	ctx.Method(objectCtor, "keys", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, arg(args, 0), "Object.keys")
		if err != nil {
			return object.Undefined, err
		}
		keys := model.OwnEnumerableKeys(o)
		elems := make([]object.Value, len(keys))
		for i, k := range keys {
			elems[i] = object.String(k)
		}
		return object.FromObject(model.NewArray(ctx.Realm.ArrayPrototype, elems)), nil
	})
	ctx.Method(objectCtor, "getPrototypeOf", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, arg(args, 0), "Object.getPrototypeOf")
		if err != nil {
			return object.Undefined, err
		}
		if p := o.Prototype(); p != nil {
			return object.FromObject(p), nil
		}
		return object.Null, nil
	})
	ctx.Method(objectCtor, "setPrototypeOf", func(this object.Value, args []object.Value) (object.Value, error) {
		target, proto := arg(args, 0), arg(args, 1)
		if !target.IsObject() {
			return target, nil
		}
		var p *object.Object
		switch {
		case proto.IsObject():
			p = proto.AsObject()
		case !proto.IsNull():
			return object.Undefined, in.ThrowTypeError("Object prototype may only be an Object or null: " + object.DisplayString(proto))
		}
		if !target.AsObject().SetPrototype(p) {
			return object.Undefined, in.ThrowTypeError("Cyclic __proto__ value")
		}
		return target, nil
	})
	ctx.Method(objectCtor, "create", func(this object.Value, args []object.Value) (object.Value, error) {
		proto := arg(args, 0)
		var p *object.Object
		switch {
		case proto.IsObject():
			p = proto.AsObject()
		case !proto.IsNull():
			return object.Undefined, in.ThrowTypeError("Object prototype may only be an Object or null: " + object.DisplayString(proto))
		}
		o := object.New("Object", p)
		if props := arg(args, 1); props.IsObject() {
			if err := defineProperties(ctx, o, props.AsObject()); err != nil {
				return object.Undefined, err
			}
		}
		return object.FromObject(o), nil
	})
	ctx.Method(objectCtor, "defineProperty", func(this object.Value, args []object.Value) (object.Value, error) {
		target := arg(args, 0)
		if !target.IsObject() {
			return object.Undefined, in.ThrowTypeError("Object.defineProperty called on non-object")
		}
		key, err := in.ToString(arg(args, 1))
		if err != nil {
			return object.Undefined, err
		}
		desc := arg(args, 2)
		if !desc.IsObject() {
			return object.Undefined, in.ThrowTypeError("Property description must be an object: " + object.DisplayString(desc))
		}
		if err := defineFromDescriptor(ctx, target.AsObject(), key, desc.AsObject()); err != nil {
			return object.Undefined, err
		}
		return target, nil
	})
	ctx.Method(objectCtor, "defineProperties", func(this object.Value, args []object.Value) (object.Value, error) {
		target, props := arg(args, 0), arg(args, 1)
		if !target.IsObject() {
			return object.Undefined, in.ThrowTypeError("Object.defineProperties called on non-object")
		}
		if !props.IsObject() {
			return object.Undefined, in.ThrowTypeError("Property descriptors must be an object")
		}
		return target, defineProperties(ctx, target.AsObject(), props.AsObject())
	})
	ctx.Method(objectCtor, "getOwnPropertyNames", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, arg(args, 0), "Object.getOwnPropertyNames")
		if err != nil {
			return object.Undefined, err
		}
		keys := o.Properties().Keys()
		elems := make([]object.Value, len(keys))
		for i, k := range keys {
			elems[i] = object.String(k)
		}
		return object.FromObject(model.NewArray(ctx.Realm.ArrayPrototype, elems)), nil
	})
	ctx.Method(objectCtor, "preventExtensions", func(this object.Value, args []object.Value) (object.Value, error) {
		if v := arg(args, 0); v.IsObject() {
			v.AsObject().PreventExtensions()
		}
		return arg(args, 0), nil
	})
	ctx.Method(objectCtor, "isExtensible", func(this object.Value, args []object.Value) (object.Value, error) {
		v := arg(args, 0)
		return object.Bool(v.IsObject() && v.AsObject().Extensible()), nil
	})

	return ctx.DefineGlobal("Object", object.FromObject(objectCtor))
}

func primitiveClass(k object.Kind) string {
	switch k {
	case object.KindString:
		return "String"
	case object.KindNumber:
		return "Number"
	case object.KindBoolean:
		return "Boolean"
	}
	return "Object"
}

func defineProperties(ctx *RuntimeContext, o, props *object.Object) error {
	for _, key := range ctx.Model.OwnEnumerableKeys(props) {
		desc, err := ctx.Model.Get(object.FromObject(props), key)
		if err != nil {
			return err
		}
		if !desc.IsObject() {
			return ctx.Interp.ThrowTypeError("Property description must be an object: " + object.DisplayString(desc))
		}
		if err := defineFromDescriptor(ctx, o, key, desc.AsObject()); err != nil {
			return err
		}
	}
	return nil
}

// defineFromDescriptor applies a property descriptor object. Absent
// attribute fields keep the current attribute of an existing property and
// default to false for a new one.
func defineFromDescriptor(ctx *RuntimeContext, o *object.Object, key string, desc *object.Object) error {
	in := ctx.Interp
	model := ctx.Model
	dv := object.FromObject(desc)

	var attrs object.Attr
	existing, exists := o.OwnProperty(key)
	if exists {
		attrs = existing.Attrs
		if !attrs.Configurable() {
			return in.ThrowTypeError("Cannot redefine property: " + key)
		}
	}
	flag := func(name string, bit object.Attr) error {
		if !model.Has(desc, name) {
			return nil
		}
		v, err := model.Get(dv, name)
		if err != nil {
			return err
		}
		if object.ToBoolean(v) {
			attrs |= bit
		} else {
			attrs &^= bit
		}
		return nil
	}
	if err := flag("enumerable", object.Enumerable); err != nil {
		return err
	}
	if err := flag("configurable", object.Configurable); err != nil {
		return err
	}

	hasGet, hasSet := model.Has(desc, "get"), model.Has(desc, "set")
	if hasGet || hasSet {
		if model.Has(desc, "value") || model.Has(desc, "writable") {
			return in.ThrowTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
		}
		var get object.Getter
		var set object.Setter
		if exists && existing.Accessor {
			get, set = existing.Get, existing.Set
		}
		if hasGet {
			g, err := model.Get(dv, "get")
			if err != nil {
				return err
			}
			get = nil
			if g.IsCallable() {
				fn := g.AsObject()
				get = func(this object.Value) (object.Value, error) { return fn.Call(this, nil) }
			} else if !g.IsUndefined() {
				return in.ThrowTypeError("Getter must be a function: " + object.DisplayString(g))
			}
		}
		if hasSet {
			s, err := model.Get(dv, "set")
			if err != nil {
				return err
			}
			set = nil
			if s.IsCallable() {
				fn := s.AsObject()
				set = func(this object.Value, v object.Value) error {
					_, err := fn.Call(this, []object.Value{v})
					return err
				}
			} else if !s.IsUndefined() {
				return in.ThrowTypeError("Setter must be a function: " + object.DisplayString(s))
			}
		}
		model.DefineAccessor(o, key, get, set, attrs&^object.Writable)
		return nil
	}

	if err := flag("writable", object.Writable); err != nil {
		return err
	}
	v := object.Undefined
	if exists && !existing.Accessor {
		v = existing.Value
	}
	if model.Has(desc, "value") {
		var err error
		if v, err = model.Get(dv, "value"); err != nil {
			return err
		}
	}
	model.DefineValue(o, key, v, attrs)
	return nil
}
