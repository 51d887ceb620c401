package builtins

import (
	"math"
	"strconv"
	"strings"

	"jscore/pkg/object"
)

type ArrayInitializer struct{}

func (a *ArrayInitializer) Name() string {
	return "Array"
}

func (a *ArrayInitializer) Priority() int {
	return PriorityArray
}

func (a *ArrayInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	model := ctx.Model
	arrayProto := ctx.Realm.ArrayPrototype

	newArray := func(elems []object.Value) object.Value {
		return object.FromObject(model.NewArray(arrayProto, elems))
	}

	// receiver reads this as an array-like object and its length.
	receiver := func(this object.Value, method string) (*object.Object, int, error) {
		o, err := thisObject(ctx, this, "Array.prototype."+method)
		if err != nil {
			return nil, 0, err
		}
		n, err := model.ArrayLength(o)
		return o, n, err
	}
	get := func(o *object.Object, i int) (object.Value, error) {
		return model.Get(object.FromObject(o), strconv.Itoa(i))
	}
	set := func(o *object.Object, i int, v object.Value) error {
		return model.Set(object.FromObject(o), strconv.Itoa(i), v)
	}
	setLength := func(o *object.Object, n int) error {
		return model.Set(object.FromObject(o), "length", object.Int(n))
	}

	join := func(o *object.Object, n int, sep string) (object.Value, error) {
		parts := make([]string, n)
		for i := 0; i < n; i++ {
			v, err := get(o, i)
			if err != nil {
				return object.Undefined, err
			}
			if v.IsAbsent() {
				continue
			}
			if parts[i], err = in.ToString(v); err != nil {
				return object.Undefined, err
			}
		}
		return object.String(strings.Join(parts, sep)), nil
	}

	ctx.Method(arrayProto, "join", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "join")
		if err != nil {
			return object.Undefined, err
		}
		sep := ","
		if s := arg(args, 0); !s.IsUndefined() {
			if sep, err = in.ToString(s); err != nil {
				return object.Undefined, err
			}
		}
		return join(o, n, sep)
	})
	ctx.Method(arrayProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "toString")
		if err != nil {
			return object.Undefined, err
		}
		return join(o, n, ",")
	})

	ctx.Method(arrayProto, "push", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "push")
		if err != nil {
			return object.Undefined, err
		}
		for _, v := range args {
			if err := set(o, n, v); err != nil {
				return object.Undefined, err
			}
			n++
		}
		return object.Int(n), setLength(o, n)
	})
	ctx.Method(arrayProto, "pop", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "pop")
		if err != nil {
			return object.Undefined, err
		}
		if n == 0 {
			return object.Undefined, setLength(o, 0)
		}
		v, err := get(o, n-1)
		if err != nil {
			return object.Undefined, err
		}
		if _, err := model.Delete(object.FromObject(o), strconv.Itoa(n-1)); err != nil {
			return object.Undefined, err
		}
		return v, setLength(o, n-1)
	})
	ctx.Method(arrayProto, "shift", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "shift")
		if err != nil {
			return object.Undefined, err
		}
		if n == 0 {
			return object.Undefined, setLength(o, 0)
		}
		first, err := get(o, 0)
		if err != nil {
			return object.Undefined, err
		}
		for i := 1; i < n; i++ {
			v, err := get(o, i)
			if err != nil {
				return object.Undefined, err
			}
			if err := set(o, i-1, v); err != nil {
				return object.Undefined, err
			}
		}
		if _, err := model.Delete(object.FromObject(o), strconv.Itoa(n-1)); err != nil {
			return object.Undefined, err
		}
		return first, setLength(o, n-1)
	})
	ctx.Method(arrayProto, "reverse", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "reverse")
		if err != nil {
			return object.Undefined, err
		}
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			lo, err := get(o, i)
			if err != nil {
				return object.Undefined, err
			}
			hi, err := get(o, j)
			if err != nil {
				return object.Undefined, err
			}
			if err := set(o, i, hi); err != nil {
				return object.Undefined, err
			}
			if err := set(o, j, lo); err != nil {
				return object.Undefined, err
			}
		}
		return object.FromObject(o), nil
	})
	ctx.Method(arrayProto, "indexOf", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "indexOf")
		if err != nil {
			return object.Undefined, err
		}
		start, err := relativeIndex(ctx, arg(args, 1), n, 0)
		if err != nil {
			return object.Undefined, err
		}
		for i := start; i < n; i++ {
			v, err := get(o, i)
			if err != nil {
				return object.Undefined, err
			}
			if object.StrictEquals(v, arg(args, 0)) {
				return object.Int(i), nil
			}
		}
		return object.Int(-1), nil
	})
	ctx.Method(arrayProto, "slice", func(this object.Value, args []object.Value) (object.Value, error) {
		o, n, err := receiver(this, "slice")
		if err != nil {
			return object.Undefined, err
		}
		start, err := relativeIndex(ctx, arg(args, 0), n, 0)
		if err != nil {
			return object.Undefined, err
		}
		end, err := relativeIndex(ctx, arg(args, 1), n, n)
		if err != nil {
			return object.Undefined, err
		}
		var elems []object.Value
		for i := start; i < end; i++ {
			v, err := get(o, i)
			if err != nil {
				return object.Undefined, err
			}
			elems = append(elems, v)
		}
		return newArray(elems), nil
	})
	ctx.Method(arrayProto, "concat", func(this object.Value, args []object.Value) (object.Value, error) {
		o, err := thisObject(ctx, this, "Array.prototype.concat")
		if err != nil {
			return object.Undefined, err
		}
		var elems []object.Value
		for _, item := range append([]object.Value{object.FromObject(o)}, args...) {
			if item.IsObject() && item.AsObject().IsArray() {
				list, err := listFromArrayLike(ctx, item.AsObject())
				if err != nil {
					return object.Undefined, err
				}
				elems = append(elems, list...)
				continue
			}
			elems = append(elems, item)
		}
		return newArray(elems), nil
	})

	create := func(args []object.Value) (object.Value, error) {
		if len(args) == 1 && args[0].IsNumber() {
			n := args[0].AsNumber()
			if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
				return object.Undefined, in.ThrowError("RangeError", "Inappropriate array length.")
			}
			arr := model.NewArray(arrayProto, nil)
			model.DefineValue(arr, "length", object.Number(n), object.Permanent)
			return object.FromObject(arr), nil
		}
		return newArray(args), nil
	}
	arrayCtor := in.NewNativeConstructor("Array", arrayProto,
		func(this object.Value, args []object.Value) (object.Value, error) { return create(args) },
		create)

	ctx.Method(arrayCtor, "isArray", func(this object.Value, args []object.Value) (object.Value, error) {
		v := arg(args, 0)
		return object.Bool(v.IsObject() && v.AsObject().IsArray()), nil
	})

	return ctx.DefineGlobal("Array", object.FromObject(arrayCtor))
}

// relativeIndex converts a possibly negative position argument to an index
// clamped to [0, n]. Undefined yields def.
func relativeIndex(ctx *RuntimeContext, v object.Value, n, def int) (int, error) {
	if v.IsUndefined() {
		return def, nil
	}
	f, err := ctx.Interp.ToNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, nil
	}
	f = math.Trunc(f)
	if f < 0 {
		f += float64(n)
	}
	return int(math.Max(0, math.Min(f, float64(n)))), nil
}
