package builtins

import (
	"math"
	"strconv"

	"jscore/pkg/object"
)

type NumberInitializer struct{}

func (n *NumberInitializer) Name() string {
	return "Number"
}

func (n *NumberInitializer) Priority() int {
	return PriorityNumber
}

func (n *NumberInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	numberProto := ctx.Realm.NumberPrototype
	numberProto.Internal = &primitiveData{value: object.Int(0)}

	thisNumber := func(this object.Value, method string) (float64, error) {
		v, err := thisPrimitive(in, this, object.KindNumber, "Number.prototype."+method)
		return v.AsNumber(), err
	}

	ctx.Method(numberProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		f, err := thisNumber(this, "toString")
		if err != nil {
			return object.Undefined, err
		}
		radix := 10.0
		if r := arg(args, 0); !r.IsUndefined() {
			if radix, err = in.ToNumber(r); err != nil {
				return object.Undefined, err
			}
			radix = toInteger(radix)
			if radix < 2 || radix > 36 {
				return object.Undefined, in.ThrowError("RangeError", "toString() radix must be between 2 and 36")
			}
		}
		if radix == 10 || math.IsNaN(f) || math.IsInf(f, 0) {
			return object.String(object.NumberToString(f)), nil
		}
		return object.String(formatRadix(f, int(radix))), nil
	})
	ctx.Method(numberProto, "toLocaleString", func(this object.Value, args []object.Value) (object.Value, error) {
		f, err := thisNumber(this, "toLocaleString")
		return object.String(object.NumberToString(f)), err
	})
	ctx.Method(numberProto, "valueOf", func(this object.Value, args []object.Value) (object.Value, error) {
		f, err := thisNumber(this, "valueOf")
		return object.Number(f), err
	})
	ctx.Method(numberProto, "toFixed", func(this object.Value, args []object.Value) (object.Value, error) {
		f, err := thisNumber(this, "toFixed")
		if err != nil {
			return object.Undefined, err
		}
		digits, err := in.ToNumber(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		digits = toInteger(digits)
		if digits < 0 || digits > 100 {
			return object.Undefined, in.ThrowError("RangeError", "toFixed() digits argument must be between 0 and 100")
		}
		if math.IsNaN(f) || math.Abs(f) >= 1e21 {
			return object.String(object.NumberToString(f)), nil
		}
		return object.String(strconv.FormatFloat(f, 'f', int(digits), 64)), nil
	})

	create := func(args []object.Value) (object.Value, error) {
		if len(args) == 0 {
			return object.Int(0), nil
		}
		f, err := in.ToNumber(args[0])
		return object.Number(f), err
	}
	numberCtor := in.NewNativeConstructor("Number", numberProto,
		func(this object.Value, args []object.Value) (object.Value, error) { return create(args) },
		func(args []object.Value) (object.Value, error) {
			v, err := create(args)
			if err != nil {
				return object.Undefined, err
			}
			return object.FromObject(newWrapper(ctx, "Number", numberProto, v)), nil
		})
	ctx.Constant(numberCtor, "MAX_VALUE", object.Number(math.MaxFloat64))
	ctx.Constant(numberCtor, "MIN_VALUE", object.Number(math.SmallestNonzeroFloat64))
	ctx.Constant(numberCtor, "NaN", object.NaN)
	ctx.Constant(numberCtor, "POSITIVE_INFINITY", object.Number(math.Inf(1)))
	ctx.Constant(numberCtor, "NEGATIVE_INFINITY", object.Number(math.Inf(-1)))

	return ctx.DefineGlobal("Number", object.FromObject(numberCtor))
}

// formatRadix renders f in a non-decimal radix. Fractions are emitted up to
// 52 digits.
func formatRadix(f float64, radix int) string {
	neg := f < 0
	f = math.Abs(f)
	ip, fp := math.Modf(f)
	s := strconv.FormatUint(uint64(ip), radix)
	if ip >= 1<<63 {
		s = strconv.FormatFloat(ip, 'f', 0, 64)
	}
	if fp > 0 {
		digits := make([]byte, 0, 52)
		for i := 0; i < 52 && fp > 0; i++ {
			fp *= float64(radix)
			d := int(fp)
			digits = append(digits, strconv.FormatInt(int64(d), radix)[0])
			fp -= float64(d)
		}
		s += "." + string(digits)
	}
	if neg {
		s = "-" + s
	}
	return s
}
