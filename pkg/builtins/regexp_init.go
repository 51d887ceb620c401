package builtins

import (
	"math"
	"strings"

	"github.com/dlclark/regexp2"

	"jscore/pkg/object"
)

// regexpData is the Internal of RegExp objects.
type regexpData struct {
	re     *regexp2.Regexp
	source string
	flags  string
	global bool
}

func asRegExp(v object.Value) (*regexpData, bool) {
	if !v.IsObject() {
		return nil, false
	}
	d, ok := v.AsObject().Internal.(*regexpData)
	return d, ok
}

// compileRegExp translates ECMAScript flags to regexp2 options.
func compileRegExp(pattern, flags string) (*regexpData, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'g':
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		default:
			return nil, errInvalidFlags
		}
	}
	if strings.Count(flags, "g") > 1 || strings.Count(flags, "i") > 1 || strings.Count(flags, "m") > 1 {
		return nil, errInvalidFlags
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	return &regexpData{re: re, source: pattern, flags: flags, global: strings.Contains(flags, "g")}, nil
}

type regexpError string

func (e regexpError) Error() string { return string(e) }

const errInvalidFlags = regexpError("invalid regular expression flags")

type RegExpInitializer struct{}

func (r *RegExpInitializer) Name() string {
	return "RegExp"
}

func (r *RegExpInitializer) Priority() int {
	return PriorityRegExp
}

func (r *RegExpInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	model := ctx.Model
	regexpProto := ctx.Realm.RegExpPrototype

	receiver := func(this object.Value, method string) (*object.Object, *regexpData, error) {
		d, ok := asRegExp(this)
		if !ok {
			return nil, nil, in.ThrowTypeError("RegExp.prototype." + method + " called on incompatible receiver " + object.DisplayString(this))
		}
		return this.AsObject(), d, nil
	}

	ctx.Method(regexpProto, "exec", func(this object.Value, args []object.Value) (object.Value, error) {
		o, d, err := receiver(this, "exec")
		if err != nil {
			return object.Undefined, err
		}
		s, err := in.ToString(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		return execRegExp(ctx, o, d, s)
	})
	ctx.Method(regexpProto, "test", func(this object.Value, args []object.Value) (object.Value, error) {
		o, d, err := receiver(this, "test")
		if err != nil {
			return object.Undefined, err
		}
		s, err := in.ToString(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		m, err := execRegExp(ctx, o, d, s)
		if err != nil {
			return object.Undefined, err
		}
		return object.Bool(!m.IsNull()), nil
	})
	ctx.Method(regexpProto, "toString", func(this object.Value, args []object.Value) (object.Value, error) {
		_, d, err := receiver(this, "toString")
		if err != nil {
			return object.Undefined, err
		}
		return object.String("/" + d.source + "/" + d.flags), nil
	})

	create := func(args []object.Value) (object.Value, error) {
		pattern, flags := "", ""
		if d, ok := asRegExp(arg(args, 0)); ok {
			pattern, flags = d.source, d.flags
		} else if p := arg(args, 0); !p.IsUndefined() {
			var err error
			if pattern, err = in.ToString(p); err != nil {
				return object.Undefined, err
			}
		}
		if f := arg(args, 1); !f.IsUndefined() {
			var err error
			if flags, err = in.ToString(f); err != nil {
				return object.Undefined, err
			}
		}
		d, err := compileRegExp(pattern, flags)
		if err != nil {
			return object.Undefined, in.ThrowError("SyntaxError", "Invalid regular expression: /"+pattern+"/: "+err.Error())
		}
		o := object.New("RegExp", regexpProto)
		o.Internal = d
		model.DefineValue(o, "source", object.String(pattern), object.Sealed)
		model.DefineValue(o, "global", object.Bool(d.global), object.Sealed)
		model.DefineValue(o, "ignoreCase", object.Bool(strings.Contains(flags, "i")), object.Sealed)
		model.DefineValue(o, "multiline", object.Bool(strings.Contains(flags, "m")), object.Sealed)
		model.DefineValue(o, "lastIndex", object.Int(0), object.Permanent)
		return object.FromObject(o), nil
	}
	regexpCtor := in.NewNativeConstructor("RegExp", regexpProto,
		func(this object.Value, args []object.Value) (object.Value, error) {
			// RegExp(re) without flags returns re itself.
			if _, ok := asRegExp(arg(args, 0)); ok && arg(args, 1).IsUndefined() {
				return args[0], nil
			}
			return create(args)
		},
		create)
	ctx.Realm.RegExpConstructor = regexpCtor

	return ctx.DefineGlobal("RegExp", object.FromObject(regexpCtor))
}

// execRegExp runs d against s. Global expressions start at and update
// lastIndex. The result is an array of the match and its groups with index
// and input properties, or null.
func execRegExp(ctx *RuntimeContext, o *object.Object, d *regexpData, s string) (object.Value, error) {
	model := ctx.Model
	runes := []rune(s)
	start := 0
	if d.global {
		li, err := model.Get(object.FromObject(o), "lastIndex")
		if err != nil {
			return object.Undefined, err
		}
		n, err := ctx.Interp.ToNumber(li)
		if err != nil {
			return object.Undefined, err
		}
		if n > 0 {
			start = int(math.Min(n, float64(len(runes)+1)))
		}
		if start > len(runes) {
			return object.Null, model.Set(object.FromObject(o), "lastIndex", object.Int(0))
		}
	}
	m, err := d.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return object.Undefined, ctx.Interp.ThrowError("Error", err.Error())
	}
	if m == nil {
		if d.global {
			return object.Null, model.Set(object.FromObject(o), "lastIndex", object.Int(0))
		}
		return object.Null, nil
	}
	if d.global {
		if err := model.Set(object.FromObject(o), "lastIndex", object.Int(m.Index+m.Length)); err != nil {
			return object.Undefined, err
		}
	}
	return object.FromObject(matchArray(ctx, m, s)), nil
}

func matchArray(ctx *RuntimeContext, m *regexp2.Match, input string) *object.Object {
	groups := m.Groups()
	elems := make([]object.Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			elems[i] = object.Undefined
			continue
		}
		elems[i] = object.String(g.String())
	}
	arr := ctx.Model.NewArray(ctx.Realm.ArrayPrototype, elems)
	ctx.Model.DefineValue(arr, "index", object.Int(m.Index), object.Empty)
	ctx.Model.DefineValue(arr, "input", object.String(input), object.Empty)
	return arr
}

// allMatches returns every non-overlapping match of re in runes.
func allMatches(re *regexp2.Regexp, runes []rune) ([]*regexp2.Match, error) {
	var out []*regexp2.Match
	m, err := re.FindRunesMatch(runes)
	for err == nil && m != nil {
		out = append(out, m)
		m, err = re.FindNextMatch(m)
	}
	return out, err
}
