package object

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the ECMAScript language type of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is a script value. The zero Value is undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	o    *Object
}

var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBoolean, b: true}
	False     = Value{kind: KindBoolean, b: false}
	NaN       = Value{kind: KindNumber, n: math.NaN()}
)

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Number(f float64) Value  { return Value{kind: KindNumber, n: f} }
func Int(i int) Value         { return Value{kind: KindNumber, n: float64(i)} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func FromObject(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{kind: KindObject, o: o}
}

func (v Value) Kind() Kind          { return v.kind }
func (v Value) IsUndefined() bool   { return v.kind == KindUndefined }
func (v Value) IsNull() bool        { return v.kind == KindNull }
func (v Value) IsBoolean() bool     { return v.kind == KindBoolean }
func (v Value) IsNumber() bool      { return v.kind == KindNumber }
func (v Value) IsString() bool      { return v.kind == KindString }
func (v Value) IsObject() bool      { return v.kind == KindObject }
func (v Value) AsBool() bool        { return v.b }
func (v Value) AsNumber() float64   { return v.n }
func (v Value) AsString() string    { return v.s }
func (v Value) AsObject() *Object   { return v.o }

// IsAbsent reports whether v is undefined or null, the receivers no
// property operation can be performed against.
func (v Value) IsAbsent() bool { return v.kind == KindUndefined || v.kind == KindNull }

// IsCallable reports whether v is a function object.
func (v Value) IsCallable() bool { return v.kind == KindObject && v.o.call != nil }

func (v Value) String() string { return DisplayString(v) }

// --- Conversions ---

// DisplayString converts v to a string without running script code. Objects
// render as "[object Class]" and functions as their source text. It is used
// for diagnostics, which must never raise.
func DisplayString(v Value) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return NumberToString(v.n)
	case KindString:
		return v.s
	case KindObject:
		if src, ok := v.o.Internal.(Sourcer); ok {
			return src.Source()
		}
		return "[object " + v.o.class + "]"
	}
	return ""
}

// NumberToString renders f the way Number.prototype.toString does for
// radix 10.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + string(sign) + exp
}

// StringToNumber implements ToNumber for string values.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	// Reject forms ParseFloat accepts but ECMAScript does not.
	if strings.ContainsAny(s, "_xXpP") {
		return math.NaN()
	}
	if d := strings.TrimLeft(s, "+-"); d == "" || (d[0] != '.' && (d[0] < '0' || d[0] > '9')) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToNumber converts a primitive to a number. Objects convert to NaN; the
// evaluator converts objects to primitives first.
func ToNumber(v Value) float64 {
	switch v.kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		return StringToNumber(v.s)
	}
	return math.NaN()
}

// ToBoolean implements the ECMAScript truthiness rules.
func ToBoolean(v Value) bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	case KindObject:
		return true
	}
	return false
}

// TypeOf returns the result of the typeof operator.
func TypeOf(v Value) string {
	switch v.kind {
	case KindNull:
		return "object"
	case KindObject:
		if v.o.call != nil {
			return "function"
		}
		return "object"
	}
	return v.kind.String()
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	}
	return a.o == b.o
}

// LooseEquals implements == for primitives and object identity. Object to
// primitive coercion is not performed.
func LooseEquals(a, b Value) bool {
	if a.kind == b.kind {
		return StrictEquals(a, b)
	}
	if a.IsAbsent() && b.IsAbsent() {
		return true
	}
	if a.IsAbsent() || b.IsAbsent() {
		return false
	}
	if a.kind == KindObject || b.kind == KindObject {
		return false
	}
	return ToNumber(a) == ToNumber(b)
}
