package builtins

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"jscore/pkg/interp"
	"jscore/pkg/object"
)

type StringInitializer struct{}

func (s *StringInitializer) Name() string {
	return "String"
}

func (s *StringInitializer) Priority() int {
	return PriorityString
}

func (s *StringInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	stringProto := ctx.Realm.StringPrototype
	stringProto.Internal = &primitiveData{value: object.String("")}

	// method wraps a string method: this is converted to a string first.
	method := func(name string, fn func(s string, args []object.Value) (object.Value, error)) {
		ctx.Method(stringProto, name, func(this object.Value, args []object.Value) (object.Value, error) {
			if this.IsAbsent() {
				return object.Undefined, in.ThrowTypeError("String.prototype." + name + " called on " + object.DisplayString(this))
			}
			s, err := in.ToString(this)
			if err != nil {
				return object.Undefined, err
			}
			return fn(s, args)
		})
	}
	stringArg := func(args []object.Value, i int) (string, error) {
		return in.ToString(arg(args, i))
	}

	unwrap := func(name string) object.CallFunc {
		return func(this object.Value, args []object.Value) (object.Value, error) {
			return thisPrimitive(in, this, object.KindString, "String.prototype."+name)
		}
	}
	ctx.Method(stringProto, "toString", unwrap("toString"))
	ctx.Method(stringProto, "valueOf", unwrap("valueOf"))

	method("charAt", func(s string, args []object.Value) (object.Value, error) {
		runes := []rune(s)
		pos, err := in.ToNumber(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		i := toInteger(pos)
		if i < 0 || i >= float64(len(runes)) {
			return object.String(""), nil
		}
		return object.String(string(runes[int(i)])), nil
	})
	method("charCodeAt", func(s string, args []object.Value) (object.Value, error) {
		runes := []rune(s)
		pos, err := in.ToNumber(arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		i := toInteger(pos)
		if i < 0 || i >= float64(len(runes)) {
			return object.NaN, nil
		}
		return object.Int(int(runes[int(i)])), nil
	})
	method("indexOf", func(s string, args []object.Value) (object.Value, error) {
		search, err := stringArg(args, 0)
		if err != nil {
			return object.Undefined, err
		}
		n := utf8.RuneCountInString(s)
		from, err := clampedPosition(in, arg(args, 1), n, 0)
		if err != nil {
			return object.Undefined, err
		}
		idx := strings.Index(s[byteOffset(s, from):], search)
		if idx < 0 {
			return object.Int(-1), nil
		}
		return object.Int(from + utf8.RuneCountInString(s[byteOffset(s, from):][:idx])), nil
	})
	method("lastIndexOf", func(s string, args []object.Value) (object.Value, error) {
		search, err := stringArg(args, 0)
		if err != nil {
			return object.Undefined, err
		}
		n := utf8.RuneCountInString(s)
		from, err := clampedPosition(in, arg(args, 1), n, n)
		if err != nil {
			return object.Undefined, err
		}
		limit := byteOffset(s, from) + len(search)
		if limit > len(s) {
			limit = len(s)
		}
		idx := strings.LastIndex(s[:limit], search)
		if idx < 0 {
			return object.Int(-1), nil
		}
		return object.Int(utf8.RuneCountInString(s[:idx])), nil
	})
	method("substring", func(s string, args []object.Value) (object.Value, error) {
		runes := []rune(s)
		start, err := clampedPosition(in, arg(args, 0), len(runes), 0)
		if err != nil {
			return object.Undefined, err
		}
		end, err := clampedPosition(in, arg(args, 1), len(runes), len(runes))
		if err != nil {
			return object.Undefined, err
		}
		if start > end {
			start, end = end, start
		}
		return object.String(string(runes[start:end])), nil
	})
	method("slice", func(s string, args []object.Value) (object.Value, error) {
		runes := []rune(s)
		start, err := relativeIndex(ctx, arg(args, 0), len(runes), 0)
		if err != nil {
			return object.Undefined, err
		}
		end, err := relativeIndex(ctx, arg(args, 1), len(runes), len(runes))
		if err != nil {
			return object.Undefined, err
		}
		if start >= end {
			return object.String(""), nil
		}
		return object.String(string(runes[start:end])), nil
	})
	method("concat", func(s string, args []object.Value) (object.Value, error) {
		var b strings.Builder
		b.WriteString(s)
		for i := range args {
			part, err := stringArg(args, i)
			if err != nil {
				return object.Undefined, err
			}
			b.WriteString(part)
		}
		return object.String(b.String()), nil
	})
	method("trim", func(s string, args []object.Value) (object.Value, error) {
		return object.String(strings.TrimFunc(s, isJSWhitespace)), nil
	})
	method("toUpperCase", func(s string, args []object.Value) (object.Value, error) {
		return object.String(strings.ToUpper(s)), nil
	})
	method("toLowerCase", func(s string, args []object.Value) (object.Value, error) {
		return object.String(strings.ToLower(s)), nil
	})
	method("toLocaleUpperCase", func(s string, args []object.Value) (object.Value, error) {
		tag, err := localeArg(in, arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		return object.String(cases.Upper(tag).String(s)), nil
	})
	method("toLocaleLowerCase", func(s string, args []object.Value) (object.Value, error) {
		tag, err := localeArg(in, arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		return object.String(cases.Lower(tag).String(s)), nil
	})
	method("normalize", func(s string, args []object.Value) (object.Value, error) {
		form := "NFC"
		if f := arg(args, 0); !f.IsUndefined() {
			var err error
			if form, err = in.ToString(f); err != nil {
				return object.Undefined, err
			}
		}
		switch form {
		case "NFC":
			return object.String(norm.NFC.String(s)), nil
		case "NFD":
			return object.String(norm.NFD.String(s)), nil
		case "NFKC":
			return object.String(norm.NFKC.String(s)), nil
		case "NFKD":
			return object.String(norm.NFKD.String(s)), nil
		}
		return object.Undefined, in.ThrowError("RangeError", "The normalization form should be one of NFC, NFD, NFKC, NFKD.")
	})
	method("split", func(s string, args []object.Value) (object.Value, error) {
		limit := math.MaxInt32
		if l := arg(args, 1); !l.IsUndefined() {
			n, err := in.ToNumber(l)
			if err != nil {
				return object.Undefined, err
			}
			limit = int(uint32(toInteger(n)))
		}
		parts, err := splitString(ctx, s, arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		if len(parts) > limit {
			parts = parts[:limit]
		}
		return object.FromObject(ctx.Model.NewArray(ctx.Realm.ArrayPrototype, parts)), nil
	})
	method("replace", func(s string, args []object.Value) (object.Value, error) {
		return replaceString(ctx, s, arg(args, 0), arg(args, 1))
	})
	method("search", func(s string, args []object.Value) (object.Value, error) {
		d, err := toRegExp(ctx, arg(args, 0))
		if err != nil {
			return object.Undefined, err
		}
		m, err := d.re.FindRunesMatch([]rune(s))
		if err != nil {
			return object.Undefined, in.ThrowError("Error", err.Error())
		}
		if m == nil {
			return object.Int(-1), nil
		}
		return object.Int(m.Index), nil
	})
	method("match", func(s string, args []object.Value) (object.Value, error) {
		re := arg(args, 0)
		d, err := toRegExp(ctx, re)
		if err != nil {
			return object.Undefined, err
		}
		if !d.global {
			o, ok := asRegExpObject(re)
			if !ok {
				o = object.New("RegExp", ctx.Realm.RegExpPrototype)
				o.Internal = d
			}
			return execRegExp(ctx, o, d, s)
		}
		matches, err := allMatches(d.re, []rune(s))
		if err != nil {
			return object.Undefined, in.ThrowError("Error", err.Error())
		}
		if len(matches) == 0 {
			return object.Null, nil
		}
		elems := make([]object.Value, len(matches))
		for i, m := range matches {
			elems[i] = object.String(m.String())
		}
		if o, ok := asRegExpObject(re); ok {
			if err := ctx.Model.Set(object.FromObject(o), "lastIndex", object.Int(0)); err != nil {
				return object.Undefined, err
			}
		}
		return object.FromObject(ctx.Model.NewArray(ctx.Realm.ArrayPrototype, elems)), nil
	})

	create := func(args []object.Value) (object.Value, error) {
		if len(args) == 0 {
			return object.String(""), nil
		}
		s, err := in.ToString(args[0])
		return object.String(s), err
	}
	stringCtor := in.NewNativeConstructor("String", stringProto,
		func(this object.Value, args []object.Value) (object.Value, error) { return create(args) },
		func(args []object.Value) (object.Value, error) {
			v, err := create(args)
			if err != nil {
				return object.Undefined, err
			}
			return object.FromObject(newWrapper(ctx, "String", stringProto, v)), nil
		})
	ctx.Method(stringCtor, "fromCharCode", func(this object.Value, args []object.Value) (object.Value, error) {
		var b strings.Builder
		for _, a := range args {
			n, err := in.ToNumber(a)
			if err != nil {
				return object.Undefined, err
			}
			b.WriteRune(rune(uint16(toInteger(n))))
		}
		return object.String(b.String()), nil
	})

	return ctx.DefineGlobal("String", object.FromObject(stringCtor))
}

// toInteger truncates toward zero; NaN becomes 0.
func toInteger(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Trunc(f)
}

// clampedPosition converts v to an integer position within [0, n].
// Undefined yields def.
func clampedPosition(in *interp.Interpreter, v object.Value, n, def int) (int, error) {
	if v.IsUndefined() {
		return def, nil
	}
	f, err := in.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return int(math.Max(0, math.Min(toInteger(f), float64(n)))), nil
}

// byteOffset returns the byte offset of rune index i in s.
func byteOffset(s string, i int) int {
	for off := range s {
		if i == 0 {
			return off
		}
		i--
	}
	return len(s)
}

func isJSWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

func localeArg(in *interp.Interpreter, v object.Value) (language.Tag, error) {
	if v.IsUndefined() {
		return language.Und, nil
	}
	s, err := in.ToString(v)
	if err != nil {
		return language.Und, err
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, in.ThrowError("RangeError", "Incorrect locale information provided")
	}
	return tag, nil
}

func asRegExpObject(v object.Value) (*object.Object, bool) {
	if _, ok := asRegExp(v); ok {
		return v.AsObject(), true
	}
	return nil, false
}

// toRegExp returns v's expression, compiling non-RegExp values as patterns.
func toRegExp(ctx *RuntimeContext, v object.Value) (*regexpData, error) {
	if d, ok := asRegExp(v); ok {
		return d, nil
	}
	pattern := ""
	if !v.IsUndefined() {
		var err error
		if pattern, err = ctx.Interp.ToString(v); err != nil {
			return nil, err
		}
	}
	d, err := compileRegExp(pattern, "")
	if err != nil {
		return nil, ctx.Interp.ThrowError("SyntaxError", "Invalid regular expression: /"+pattern+"/: "+err.Error())
	}
	return d, nil
}

func splitString(ctx *RuntimeContext, s string, sep object.Value) ([]object.Value, error) {
	strings2values := func(parts []string) []object.Value {
		out := make([]object.Value, len(parts))
		for i, p := range parts {
			out[i] = object.String(p)
		}
		return out
	}
	if sep.IsUndefined() {
		return []object.Value{object.String(s)}, nil
	}
	d, ok := asRegExp(sep)
	if !ok {
		sepStr, err := ctx.Interp.ToString(sep)
		if err != nil {
			return nil, err
		}
		if s == "" && sepStr != "" {
			return []object.Value{object.String("")}, nil
		}
		if sepStr == "" {
			runes := []rune(s)
			parts := make([]string, len(runes))
			for i, r := range runes {
				parts[i] = string(r)
			}
			return strings2values(parts), nil
		}
		return strings2values(strings.Split(s, sepStr)), nil
	}

	runes := []rune(s)
	matches, err := allMatches(d.re, runes)
	if err != nil {
		return nil, ctx.Interp.ThrowError("Error", err.Error())
	}
	var out []object.Value
	last := 0
	for _, m := range matches {
		// Empty matches at the edges do not split.
		if m.Length == 0 && (m.Index == 0 || m.Index >= len(runes)) {
			continue
		}
		out = append(out, object.String(string(runes[last:m.Index])))
		for _, g := range m.Groups()[1:] {
			if len(g.Captures) == 0 {
				out = append(out, object.Undefined)
				continue
			}
			out = append(out, object.String(g.String()))
		}
		last = m.Index + m.Length
	}
	return append(out, object.String(string(runes[last:]))), nil
}

// replaceString implements String.prototype.replace for string and RegExp
// patterns with string or function replacements.
func replaceString(ctx *RuntimeContext, s string, pattern, replacement object.Value) (object.Value, error) {
	in := ctx.Interp
	runes := []rune(s)

	var matches []*regexpMatch
	if d, ok := asRegExp(pattern); ok {
		limit := 1
		if d.global {
			limit = -1
		}
		var err error
		if matches, err = collectMatches(d, runes, limit); err != nil {
			return object.Undefined, in.ThrowError("Error", err.Error())
		}
	} else {
		search, err := in.ToString(pattern)
		if err != nil {
			return object.Undefined, err
		}
		if idx := strings.Index(s, search); idx >= 0 {
			matches = append(matches, &regexpMatch{
				index:  utf8.RuneCountInString(s[:idx]),
				length: utf8.RuneCountInString(search),
				groups: []object.Value{object.String(search)},
			})
		}
	}

	var template string
	if !replacement.IsCallable() {
		var err error
		if template, err = in.ToString(replacement); err != nil {
			return object.Undefined, err
		}
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(string(runes[last:m.index]))
		if replacement.IsCallable() {
			args := append(append([]object.Value{}, m.groups...), object.Int(m.index), object.String(s))
			r, err := replacement.AsObject().Call(object.Undefined, args)
			if err != nil {
				return object.Undefined, err
			}
			rs, err := in.ToString(r)
			if err != nil {
				return object.Undefined, err
			}
			b.WriteString(rs)
		} else {
			b.WriteString(expandReplacement(template, runes, m.index, m.length, m.groups))
		}
		last = m.index + m.length
	}
	b.WriteString(string(runes[last:]))
	return object.String(b.String()), nil
}

type regexpMatch struct {
	index, length int
	groups        []object.Value // index 0 is the whole match
}

// collectMatches returns up to limit matches; limit < 0 means all.
func collectMatches(d *regexpData, runes []rune, limit int) ([]*regexpMatch, error) {
	var out []*regexpMatch
	m, err := d.re.FindRunesMatch(runes)
	for err == nil && m != nil && (limit < 0 || len(out) < limit) {
		groups := m.Groups()
		rm := &regexpMatch{index: m.Index, length: m.Length, groups: make([]object.Value, len(groups))}
		for i, g := range groups {
			if len(g.Captures) == 0 {
				rm.groups[i] = object.Undefined
				continue
			}
			rm.groups[i] = object.String(g.String())
		}
		out = append(out, rm)
		m, err = d.re.FindNextMatch(m)
	}
	return out, err
}

// expandReplacement substitutes $$, $&, $`, $' and $n in template.
func expandReplacement(template string, runes []rune, index, length int, groups []object.Value) string {
	if !strings.Contains(template, "$") {
		return template
	}
	var b strings.Builder
	t := []rune(template)
	for i := 0; i < len(t); i++ {
		if t[i] != '$' || i+1 == len(t) {
			b.WriteRune(t[i])
			continue
		}
		switch c := t[i+1]; {
		case c == '$':
			b.WriteRune('$')
			i++
		case c == '&':
			b.WriteString(string(runes[index : index+length]))
			i++
		case c == '`':
			b.WriteString(string(runes[:index]))
			i++
		case c == '\'':
			b.WriteString(string(runes[index+length:]))
			i++
		case c >= '0' && c <= '9':
			n := int(c - '0')
			consumed := 1
			if i+2 < len(t) && t[i+2] >= '0' && t[i+2] <= '9' {
				if nn := n*10 + int(t[i+2]-'0'); nn > 0 && nn < len(groups) {
					n, consumed = nn, 2
				}
			}
			if n == 0 || n >= len(groups) {
				b.WriteRune('$')
				continue
			}
			if g := groups[n]; !g.IsUndefined() {
				b.WriteString(g.AsString())
			}
			i += consumed
		default:
			b.WriteRune('$')
		}
	}
	return b.String()
}
