package builtins

import (
	"math"
	"math/rand"

	"jscore/pkg/object"
)

type MathInitializer struct{}

func (m *MathInitializer) Name() string {
	return "Math"
}

func (m *MathInitializer) Priority() int {
	return PriorityMath
}

func (m *MathInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	mathObject := object.New("Math", ctx.Realm.ObjectPrototype)

	ctx.Constant(mathObject, "PI", object.Number(math.Pi))
	ctx.Constant(mathObject, "E", object.Number(math.E))
	ctx.Constant(mathObject, "LN2", object.Number(math.Ln2))
	ctx.Constant(mathObject, "LN10", object.Number(math.Ln10))
	ctx.Constant(mathObject, "LOG2E", object.Number(math.Log2E))
	ctx.Constant(mathObject, "LOG10E", object.Number(math.Log10E))
	ctx.Constant(mathObject, "SQRT2", object.Number(math.Sqrt2))
	ctx.Constant(mathObject, "SQRT1_2", object.Number(math.Sqrt2/2))

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": func(x float64) float64 { return math.Floor(x + 0.5) },
		"trunc": math.Trunc,
		"sqrt":  math.Sqrt,
		"log":   math.Log,
		"exp":   math.Exp,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"atan":  math.Atan,
		"sign": func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return x
		},
	}
	for _, name := range []string{"abs", "floor", "ceil", "round", "trunc", "sqrt", "log", "exp", "sin", "cos", "tan", "atan", "sign"} {
		fn := unary[name]
		ctx.Method(mathObject, name, func(this object.Value, args []object.Value) (object.Value, error) {
			x, err := in.ToNumber(arg(args, 0))
			return object.Number(fn(x)), err
		})
	}

	ctx.Method(mathObject, "pow", func(this object.Value, args []object.Value) (object.Value, error) {
		x, err := in.ToNumber(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		y, err := in.ToNumber(arg(args, 1))
		if err != nil {
			return object.Undefined, err
		}
		if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
			return object.NaN, nil
		}
		return object.Number(math.Pow(x, y)), nil
	})
	ctx.Method(mathObject, "atan2", func(this object.Value, args []object.Value) (object.Value, error) {
		y, err := in.ToNumber(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		x, err := in.ToNumber(arg(args, 1))
		return object.Number(math.Atan2(y, x)), err
	})
	extremum := func(name string, start float64, better func(a, b float64) bool) {
		ctx.Method(mathObject, name, func(this object.Value, args []object.Value) (object.Value, error) {
			result := start
			for _, a := range args {
				x, err := in.ToNumber(a)
				if err != nil {
					return object.Undefined, err
				}
				if math.IsNaN(x) {
					return object.NaN, nil
				}
				if better(x, result) {
					result = x
				}
			}
			return object.Number(result), nil
		})
	}
	extremum("max", math.Inf(-1), func(a, b float64) bool { return a > b || (a == 0 && b == 0 && !math.Signbit(a)) })
	extremum("min", math.Inf(1), func(a, b float64) bool { return a < b || (a == 0 && b == 0 && math.Signbit(a)) })
	ctx.Method(mathObject, "random", func(this object.Value, args []object.Value) (object.Value, error) {
		return object.Number(rand.Float64()), nil
	})

	return ctx.DefineGlobal("Math", object.FromObject(mathObject))
}
