package builtins

import (
	"math"
	"strconv"
	"strings"

	"jscore/pkg/object"
)

// GlobalsInitializer handles global constants and functions
type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string {
	return "globals"
}

func (g *GlobalsInitializer) Priority() int {
	return PriorityGlobals
}

func (g *GlobalsInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	global := in.Global()

	// Global constants are neither writable nor deletable.
	ctx.Constant(global, "undefined", object.Undefined)
	ctx.Constant(global, "NaN", object.NaN)
	ctx.Constant(global, "Infinity", object.Number(math.Inf(1)))

	ctx.Method(global, "isNaN", func(this object.Value, args []object.Value) (object.Value, error) {
		f, err := in.ToNumber(arg(args, 0))
		return object.Bool(math.IsNaN(f)), err
	})
	ctx.Method(global, "isFinite", func(this object.Value, args []object.Value) (object.Value, error) {
		f, err := in.ToNumber(arg(args, 0))
		return object.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), err
	})
	ctx.Method(global, "parseFloat", func(this object.Value, args []object.Value) (object.Value, error) {
		s, err := in.ToString(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		return object.Number(parseFloatPrefix(strings.TrimLeftFunc(s, isJSWhitespace))), nil
	})
	ctx.Method(global, "parseInt", func(this object.Value, args []object.Value) (object.Value, error) {
		s, err := in.ToString(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		radix := 0.0
		if r := arg(args, 1); !r.IsUndefined() {
			if radix, err = in.ToNumber(r); err != nil {
				return object.Undefined, err
			}
			radix = toInteger(radix)
		}
		return object.Number(parseIntPrefix(strings.TrimLeftFunc(s, isJSWhitespace), int(radix))), nil
	})
	return nil
}

// parseFloatPrefix parses the longest decimal literal prefix of s.
func parseFloatPrefix(s string) float64 {
	for _, inf := range []string{"Infinity", "+Infinity", "-Infinity"} {
		if strings.HasPrefix(s, inf) {
			if inf[0] == '-' {
				return math.Inf(-1)
			}
			return math.Inf(1)
		}
	}
	end, seenDot, seenExp, digits := 0, false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
			end = i + 1
		case (c == '+' || c == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
			if digits {
				end = i + 1
			}
		case (c == 'e' || c == 'E') && digits && !seenExp:
			seenExp = true
		default:
			i = len(s)
		}
	}
	if !digits {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// parseIntPrefix parses the longest integer prefix of s in radix, where 0
// means 10 unless s has a 0x prefix.
func parseIntPrefix(s string, radix int) float64 {
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	if radix == 0 || radix == 16 {
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s, radix = s[2:], 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return math.NaN()
	}
	result, ok := 0.0, false
	for _, c := range strings.ToLower(s) {
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'z':
			d = int(c-'a') + 10
		default:
			d = radix
		}
		if d >= radix {
			break
		}
		result = result*float64(radix) + float64(d)
		ok = true
	}
	if !ok {
		return math.NaN()
	}
	return sign * result
}
