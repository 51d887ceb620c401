package interp

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/diag"
	"jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

var levels = []int{-1, 0, 9}

func newInterp(opts Options) *Interpreter {
	in := New(opts)
	in.Model().DefineValue(in.Global(), "undefined", object.Undefined, object.Sealed)
	return in
}

func run(t *testing.T, in *Interpreter, name, code string) (object.Value, error) {
	t.Helper()
	prog, errs := parser.Parse(source.NewUnit(name, 1, code))
	require.Empty(t, errs)
	return in.Run(context.Background(), prog)
}

func eval(t *testing.T, opts Options, code string) object.Value {
	t.Helper()
	v, err := run(t, newInterp(opts), "test_script", code)
	require.NoError(t, err)
	return v
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"'a' + 1 + 2", "a12"},
		{"1 + 2 + 'a'", "3a"},
		{"7 % 3", "1"},
		{"-7 % 3", "-1"},
		{"1 / 0", "Infinity"},
		{"'b' > 'a'", "true"},
		{"'10' < 9", "false"},
		{"null == undefined", "true"},
		{"null === undefined", "false"},
		{"'1' == 1", "true"},
		{"0 || 'x'", "x"},
		{"1 && 0", "0"},
		{"!''", "true"},
		{"typeof notDeclared", "undefined"},
		{"typeof null", "object"},
		{"typeof function () {}", "function"},
		{"void 1", "undefined"},
		{"var a = 1; a += 2; a", "3"},
		{"var i = 1; i++ + i", "3"},
		{"var i = 1; --i", "0"},
		{"true ? 'y' : 'n'", "y"},
		{"1, 2, 3", "3"},
		{"var o = {a: 1}; 'a' in o", "true"},
		{"var o = {a: 1}; delete o.a; 'a' in o", "false"},
		{"[1, , 3].length", "3"},
		{"'abc'.length", "3"},
		{"'abc'[1]", "b"},
	}
	for _, level := range levels {
		for _, tt := range tests {
			v := eval(t, Options{OptimizationLevel: level}, tt.code)
			assert.Equal(t, tt.want, object.DisplayString(v), "level %d: %s", level, tt.code)
		}
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"for", "var s = 0; for (var i = 0; i < 5; i++) { if (i == 3) continue; s += i; } s", "7"},
		{"while break", "var n = 0; while (true) { n++; if (n > 4) break; } n", "5"},
		{"do while", "var n = 0; do { n++; } while (n < 3); n", "3"},
		{"closure counter", "function mk() { var c = 0; return function () { return ++c; }; } var f = mk(); f(); f(); f()", "3"},
		{"let shadowing", "var r = ''; let x = 'outer'; { let x = 'inner'; r += x; } r += x; r", "innerouter"},
		{"for let", "var n = 0; for (let i = 0; i < 3; i++) { n += i; } typeof i", "undefined"},
		{"arguments", "function f() { return arguments.length + ':' + arguments[1]; } f('a', 'b', 'c')", "3:b"},
		{"constructor", "function P(x) { this.x = x; } P.prototype.get = function () { return this.x; }; var p = new P(4); p.get()", "4"},
		{"instanceof", "function P() {} var p = new P(); p instanceof P", "true"},
		{"getter and setter", "var o = { _v: 1, get v() { return this._v * 10; }, set v(x) { this._v = x; } }; o.v = 3; o.v", "30"},
		{"finally", "var r = ''; function f() { try { return 'try'; } finally { r = 'finally'; } } f() + r", "tryfinally"},
		{"throw value", "var r; try { throw 'boom'; } catch (e) { r = e; } r", "boom"},
		{"named function expression", "var f = function fact(n) { return n <= 1 ? 1 : n * fact(n - 1); }; f(5)", "120"},
		{"for in string", "var r = ''; for (var k in 'ab') r += k; r", "01"},
		{"implicit global", "function f() { g = 5; } f(); g", "5"},
	}
	for _, level := range levels {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v := eval(t, Options{OptimizationLevel: level}, tt.code)
				assert.Equal(t, tt.want, object.DisplayString(v))
			})
		}
	}
}

func TestEnumerationOrder(t *testing.T) {
	code := `var foo = { 'xxx': 'testxxx', 50: 'test50', 'zzz': 'testzzz', 100: 'test100', 0: 'test0', 'yyy': 'testyyy' };
var r = '';
for (var k in foo) { r += k + ','; }
r`
	v := eval(t, Options{}, code)
	assert.Equal(t, "xxx,50,zzz,100,0,yyy,", v.AsString())

	v = eval(t, Options{Features: features.Set{NumericKeysEnumeratedFirst: true}}, code)
	assert.Equal(t, "0,50,100,xxx,zzz,yyy,", v.AsString())
}

func TestForInSkipsDeletedKeys(t *testing.T) {
	v := eval(t, Options{}, `var o = {a: 1, b: 2, c: 3}; var r = '';
for (var k in o) { r += k; delete o.b; }
r`)
	assert.Equal(t, "ac", v.AsString())
}

func TestNestedFunctionHoisting(t *testing.T) {
	code := `var r;
function test() {
  {
    try { foo; r = 'hoisted'; } catch (e) { r = 'exception'; }
    function foo() {
    }
  }
  return foo;
}
var f = test();
r`
	for _, level := range levels {
		in := newInterp(Options{OptimizationLevel: level})
		v, err := run(t, in, "test_script", code)
		require.NoError(t, err)
		assert.Equal(t, "exception", v.AsString())

		in = newInterp(Options{OptimizationLevel: level, Features: features.Set{ForwardHoistNestedFunctionDeclarations: true}})
		v, err = run(t, in, "test_script", code)
		require.NoError(t, err)
		assert.Equal(t, "hoisted", v.AsString())

		f, err := in.Model().Get(object.FromObject(in.Global()), "f")
		require.NoError(t, err)
		assert.Equal(t, "function foo() {\n}", object.DisplayString(f))
	}
}

func TestNestedFunctionAsVar(t *testing.T) {
	code := `var r;
function test() {
  {
    r = typeof foo;
    var foo = function () {};
  }
}
test();
r`
	for _, fs := range []features.Set{{}, {ForwardHoistNestedFunctionDeclarations: true}} {
		v := eval(t, Options{Features: fs}, code)
		assert.Equal(t, "undefined", v.AsString())
	}
}

func TestUncaughtFailures(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"undefined[undefined]", `TypeError: Cannot read property "undefined" from undefined (test_script#1)`},
		{"undefined[undefined] = 1", `TypeError: Cannot set property "undefined" of undefined to "1" (test_script#1)`},
		{"undefined.undefined()", `TypeError: Cannot call method "undefined" of undefined (test_script#1)`},
		{"var x = 1;\nnope + x", `ReferenceError: "nope" is not defined. (test_script#2)`},
		{"var o = {};\n\no.missing()", `TypeError: o.missing is not a function, it is undefined. (test_script#3)`},
		{"var n = 1; new n()", `TypeError: n is not a constructor. (test_script#1)`},
		{"const c = 1; c = 2", `TypeError: Cannot modify readonly property: c. (test_script#1)`},
		{"var o = null;\nvar v = [1,\n  o.k];", `TypeError: Cannot read property "k" from null (test_script#3)`},
		{"var o;\nvar v = 1 +\n  (o[\n'k'] = 2);", `TypeError: Cannot set property "k" of undefined to "2" (test_script#3)`},
	}
	for _, tt := range tests {
		_, err := run(t, newInterp(Options{}), "test_script", tt.code)
		f, ok := errors.AsFailure(err)
		require.True(t, ok, "%s: expected failure, got %v", tt.code, err)
		assert.Equal(t, tt.want, diag.Format(f))
	}
}

func TestGetterOnlyWrite(t *testing.T) {
	setup := func(fs features.Set) *Interpreter {
		in := newInterp(Options{Features: fs})
		proto := object.New("MyHostObject", in.Realm().ObjectPrototype)
		in.Model().SeedHostClass(proto, in.Realm().FunctionPrototype, object.HostClass{
			Name: "MyHostObject",
			Properties: []object.HostProperty{{
				Name:  "readonlyProp",
				Get:   func(object.Value) (object.Value, error) { return object.String("ro"), nil },
				Attrs: object.DontEnum,
			}},
		})
		in.Model().DefineValue(in.Global(), "o", object.FromObject(object.New("MyHostObject", proto)), object.DontEnum)
		return in
	}

	_, err := run(t, setup(features.Set{StrictPropertyAssignment: true}), "test_script", "o.readonlyProp = 123")
	f, ok := errors.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "TypeError: Cannot set property [MyHostObject].readonlyProp that has only a getter to value '123'. (test_script#1)", diag.Format(f))

	v, err := run(t, setup(features.Set{}), "test_script", "o.readonlyProp = 123; o.readonlyProp")
	require.NoError(t, err)
	assert.Equal(t, "ro", v.AsString())
}

func TestCaughtFailureBecomesError(t *testing.T) {
	code := `function test() {
  null.method();
}
var e;
try { test(); } catch (err) { e = err; }
e`
	in := newInterp(Options{})
	v, err := run(t, in, "test.js", code)
	require.NoError(t, err)
	require.True(t, v.IsObject())

	msg, err := in.Model().Get(v, "message")
	require.NoError(t, err)
	assert.Equal(t, `Cannot call method "method" of null`, msg.AsString())

	stack, err := in.Model().Get(v, "stack")
	require.NoError(t, err)
	assert.Contains(t, stack.AsString(), "\tat test.js:2 (test)\n")
	assert.Contains(t, stack.AsString(), "\tat test.js:5\n")

	f, ok := FailureOf(v)
	require.True(t, ok)
	assert.Equal(t, errors.CallOnAbsentReceiver, f.Kind)
	assert.True(t, v.AsObject().InstanceOf(in.Realm().TypeErrorPrototype))
}

func TestUncaughtThrow(t *testing.T) {
	_, err := run(t, newInterp(Options{}), "test_script", "\nthrow 'boom'")
	var exc *Exception
	require.True(t, stderrors.As(err, &exc))
	assert.Equal(t, "boom", exc.Value.AsString())
	assert.Equal(t, source.Location{Source: "test_script", Line: 2}, exc.Location)
}

func TestLimits(t *testing.T) {
	t.Run("step budget", func(t *testing.T) {
		_, err := run(t, newInterp(Options{MaxSteps: 100}), "test_script", "while (true) {}")
		assert.ErrorIs(t, err, ErrStepBudget)
	})

	t.Run("call depth", func(t *testing.T) {
		_, err := run(t, newInterp(Options{MaxCallDepth: 50}), "test_script", "function f() { return f(); } f()")
		assert.ErrorIs(t, err, ErrCallDepth)
	})

	t.Run("host errors are not catchable", func(t *testing.T) {
		_, err := run(t, newInterp(Options{MaxSteps: 100}), "test_script", "try { while (true) {} } catch (e) {}")
		assert.ErrorIs(t, err, ErrStepBudget)
	})

	t.Run("cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		prog, errs := parser.Parse(source.NewUnit("test_script", 1, "while (true) {}"))
		require.Empty(t, errs)
		_, err := newInterp(Options{}).Run(ctx, prog)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCompileFunction(t *testing.T) {
	in := newInterp(Options{})
	f, err := in.CompileFunction("a, b", "return a + b;")
	require.NoError(t, err)
	v, err := f.Call(object.Undefined, []object.Value{object.Int(2), object.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, v.AsNumber())

	_, err = in.CompileFunction("a", "return (;")
	var exc *Exception
	require.True(t, stderrors.As(err, &exc))
	assert.True(t, exc.Value.AsObject().InstanceOf(in.Realm().SyntaxErrorPrototype))
}
