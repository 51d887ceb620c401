package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberToString(t *testing.T) {
	tests := map[float64]string{
		0:            "0",
		123:          "123",
		-5:           "-5",
		2.5:          "2.5",
		0.000001:     "0.000001",
		0.0000001:    "1e-7",
		1e21:         "1e+21",
		123456789012: "123456789012",
		math.Inf(1):  "Infinity",
		math.Inf(-1): "-Infinity",
	}
	for in, want := range tests {
		assert.Equal(t, want, NumberToString(in), "%v", in)
	}
	assert.Equal(t, "NaN", NumberToString(math.NaN()))
}

func TestStringToNumber(t *testing.T) {
	assert.Equal(t, 0.0, StringToNumber("  "))
	assert.Equal(t, 42.0, StringToNumber(" 42 "))
	assert.Equal(t, 255.0, StringToNumber("0xff"))
	assert.Equal(t, 1.5, StringToNumber("1.5"))
	assert.True(t, math.IsInf(StringToNumber("-Infinity"), -1))
	assert.True(t, math.IsNaN(StringToNumber("1_000")))
	assert.True(t, math.IsNaN(StringToNumber("inf")))
	assert.True(t, math.IsNaN(StringToNumber("abc")))
}

func TestTypeOf(t *testing.T) {
	fn := NewFunction(nil, "f", func(Value, []Value) (Value, error) { return Undefined, nil }, nil)
	assert.Equal(t, "undefined", TypeOf(Undefined))
	assert.Equal(t, "object", TypeOf(Null))
	assert.Equal(t, "boolean", TypeOf(True))
	assert.Equal(t, "number", TypeOf(Int(1)))
	assert.Equal(t, "string", TypeOf(String("")))
	assert.Equal(t, "object", TypeOf(FromObject(New("Object", nil))))
	assert.Equal(t, "function", TypeOf(FromObject(fn)))
}

func TestEquality(t *testing.T) {
	o := FromObject(New("Object", nil))
	assert.True(t, StrictEquals(o, o))
	assert.False(t, StrictEquals(Int(1), String("1")))
	assert.True(t, LooseEquals(Int(1), String("1")))
	assert.True(t, LooseEquals(Null, Undefined))
	assert.False(t, LooseEquals(Null, Int(0)))
	assert.False(t, StrictEquals(NaN, NaN))
	assert.True(t, LooseEquals(True, Int(1)))
}

func TestToBoolean(t *testing.T) {
	assert.False(t, ToBoolean(Undefined))
	assert.False(t, ToBoolean(Int(0)))
	assert.False(t, ToBoolean(NaN))
	assert.False(t, ToBoolean(String("")))
	assert.True(t, ToBoolean(String("0")))
	assert.True(t, ToBoolean(FromObject(New("Object", nil))))
}

func TestDisplayString(t *testing.T) {
	assert.Equal(t, "[object MyHostObject]", DisplayString(FromObject(New("MyHostObject", nil))))
	assert.Equal(t, "null", DisplayString(Null))
	assert.Equal(t, "true", DisplayString(True))
}
