package driver

import (
	"context"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/config"
	"jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/interp"
	"jscore/pkg/object"
)

var levels = []int{-1, 0, 9}

func newSession(t *testing.T, fs features.Set, level int) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.Features = fs
	cfg.OptimizationLevel = level
	s, err := NewSession(cfg)
	require.NoError(t, err)
	return s
}

// evalString evaluates code as test_script at every optimization level and
// checks the string form of the result.
func evalString(t *testing.T, fs features.Set, name, code, want string) {
	t.Helper()
	for _, level := range levels {
		s := newSession(t, fs, level)
		v, err := s.Evaluate(context.Background(), name, 1, code)
		require.NoError(t, err, "level %d", level)
		got, err := s.ToString(v)
		require.NoError(t, err)
		assert.Equal(t, want, got, "level %d", level)
	}
}

// evalFailure evaluates code at every optimization level and checks the
// message of the uncaught error.
func evalFailure(t *testing.T, s func(level int) *Session, code, want string) {
	t.Helper()
	for _, level := range levels {
		_, err := s(level).Evaluate(context.Background(), "test_script", 1, code)
		require.Error(t, err, "level %d", level)
		var ecma *EcmaError
		require.True(t, pkgerrors.As(err, &ecma), "level %d: got %T %v", level, err, err)
		assert.Equal(t, want, ecma.Error(), "level %d", level)
	}
}

func defineHostObject(t *testing.T, s *Session) {
	t.Helper()
	_, err := s.DefineClass(object.HostClass{
		Name: "MyHostObject",
		Properties: []object.HostProperty{{
			Name:  "readonlyProp",
			Get:   func(object.Value) (object.Value, error) { return object.Int(0), nil },
			Attrs: object.Empty,
		}},
	})
	require.NoError(t, err)
	o, err := s.NewHostObject("MyHostObject")
	require.NoError(t, err)
	s.DefineGlobal("o", object.FromObject(o), object.DontEnum)
}

func TestAbsentReceiverMessages(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"undefined[undefined]", `TypeError: Cannot read property "undefined" from undefined (test_script#1)`},
		{"undefined[undefined] = 1", `TypeError: Cannot set property "undefined" of undefined to "1" (test_script#1)`},
		{"undefined.undefined()", `TypeError: Cannot call method "undefined" of undefined (test_script#1)`},
		{"null.x", `TypeError: Cannot read property "x" from null (test_script#1)`},
		{"delete undefined.x", `TypeError: Cannot delete property "x" of undefined (test_script#1)`},
		{"var n = null; delete n['k']", `TypeError: Cannot delete property "k" of null (test_script#1)`},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			evalFailure(t, func(level int) *Session { return newSession(t, features.Default(), level) }, tt.code, tt.want)
		})
	}
}

func TestGetterOnlyWrite(t *testing.T) {
	strict := func(level int) *Session {
		s := newSession(t, features.Set{StrictPropertyAssignment: true}, level)
		defineHostObject(t, s)
		return s
	}
	evalFailure(t, strict, "o.readonlyProp = 123",
		"TypeError: Cannot set property [MyHostObject].readonlyProp that has only a getter to value '123'. (test_script#1)")

	for _, level := range levels {
		s := newSession(t, features.Set{}, level)
		defineHostObject(t, s)
		v, err := s.Evaluate(context.Background(), "test_script", 1, "o.readonlyProp = 123; o.readonlyProp")
		require.NoError(t, err)
		assert.Equal(t, float64(0), v.AsNumber())
	}
}

func TestFunctionDeclaredForwardInBlock(t *testing.T) {
	inFunction := "function test () {\n" +
		"  if (true) {\n" +
		"    try {\n" +
		"      output += '' + foo;\n" +
		"    } catch (e) {\n" +
		"      output += 'exception';\n" +
		"    }\n" +
		"    function foo() {}\n" +
		"  }\n" +
		"};\n" +
		"var output = '';\n" +
		"test();\n" +
		"output"
	asVar := "function test () {\n" +
		"  if (true) {\n" +
		"    try {\n" +
		"      output += '' + foo;\n" +
		"    } catch (e) {\n" +
		"      output += 'exception';\n" +
		"    }\n" +
		"    var foo = function() {}\n" +
		"  }\n" +
		"};\n" +
		"var output = '';\n" +
		"test();\n" +
		"output"
	topLevel := "var output = '';\n" +
		"if (true) {\n" +
		"  try {\n" +
		"    output += '' + foo;\n" +
		"  } catch (e) {\n" +
		"    output += 'exception';\n" +
		"  }\n" +
		"  function foo() {}\n" +
		"}\n" +
		"output"

	off := features.Set{}
	on := features.Set{ForwardHoistNestedFunctionDeclarations: true}

	evalString(t, off, "test_script", inFunction, "exception")
	evalString(t, on, "test_script", inFunction, "function foo() {\n}")
	evalString(t, off, "test_script", asVar, "undefined")
	evalString(t, on, "test_script", asVar, "undefined")
	evalString(t, off, "test_script", topLevel, "exception")
	evalString(t, on, "test_script", topLevel, "function foo() {\n}")
}

func TestEnumChangeObject(t *testing.T) {
	code := "var value = {\n" +
		"'xxx': 'testxxx',\n" +
		"'50': 'test50',\n" +
		"'zzz': 'testzzz',\n" +
		"'100': 'test100',\n" +
		"'0': 'test0',\n" +
		"'yyy': 'testyyy'\n" +
		"};\n" +
		" var output = '';\n" +
		"for (var x in value) {\n" +
		"   output += x + ',';\n" +
		"};" +
		"output"
	evalString(t, features.Set{}, "test_script", code, "xxx,50,zzz,100,0,yyy,")
	evalString(t, features.Set{NumericKeysEnumeratedFirst: true}, "test_script", code, "0,50,100,xxx,zzz,yyy,")
}

func TestApplyArrayLike(t *testing.T) {
	code := "  var myObject = {'length': 2, '0': 'eat', '1': 'bananas'};\n" +
		"  function test() {\n" +
		"    test2.apply(null, myObject);\n" +
		"  }\n" +
		"\n" +
		"  function test2() {\n" +
		"    output += arguments.length;\n" +
		"    for (var i in arguments) {\n" +
		"      output += ', ' + arguments[i];\n" +
		"    }\n" +
		"  }\n" +
		"var output = '';\n" +
		"test();" +
		"output"
	evalString(t, features.Default(), "test_script", code, "2, eat, bananas")
}

func TestNativeErrorStack(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		code := "function test() {\n" +
			"  try {\n" +
			"    null.method();\n" +
			"  } catch (e) {\n" +
			"    if (e.stack)\n" +
			"      output += e.stack.indexOf('\\tat test.js:3 (test)') != -1;\n" +
			"    else\n" +
			"      output += 'undefined';\n" +
			"  }\n" +
			"}\n" +
			"var output = '';\n" +
			"test();\n" +
			"output"
		evalString(t, features.Default(), "test.js", code, "true")
	})
	t.Run("thrown", func(t *testing.T) {
		code := "function test() {\n" +
			"  try {\n" +
			"    throw new Error();\n" +
			"  } catch (e) {\n" +
			"    if (e.stack)\n" +
			"      output += typeof e.stack;\n" +
			"    else\n" +
			"      output += 'undefined';\n" +
			"  }\n" +
			"}\n" +
			"var output = '';\n" +
			"test();\n" +
			"output"
		evalString(t, features.Default(), "test.js", code, "string")
	})
	t.Run("not thrown", func(t *testing.T) {
		code := "function test() {\n" +
			"  var e = new Error();\n" +
			"  if (e.stack)\n" +
			"    output += typeof e.stack;\n" +
			"  else\n" +
			"    output += 'undefined';\n" +
			"}\n" +
			"var output = '';\n" +
			"test();\n" +
			"output"
		evalString(t, features.Default(), "test.js", code, "string")
	})
}

func TestConstructorIsFunction(t *testing.T) {
	for _, code := range []string{
		"var o = new MyHostObject(); typeof o.constructor",
		"typeof new Object().constructor",
		"typeof [].constructor",
	} {
		for _, level := range levels {
			s := newSession(t, features.Default(), level)
			defineHostObject(t, s)
			v, err := s.Evaluate(context.Background(), "test_script", 1, code)
			require.NoError(t, err)
			assert.Equal(t, "function", v.AsString(), code)
		}
	}
}

func TestUncaughtThrow(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"throw 'boom'", "boom (test_script#1)"},
		{"var x = 1;\nthrow {toString: function () { return 'custom'; }}", "custom (test_script#2)"},
		{"throw new RangeError('too far')", "RangeError: too far (test_script#1)"},
	}
	for _, tt := range tests {
		s := newSession(t, features.Default(), 0)
		_, err := s.Evaluate(context.Background(), "test_script", 1, tt.code)
		var exc *JavaScriptException
		require.True(t, pkgerrors.As(err, &exc), "got %T %v", err, err)
		assert.Equal(t, tt.want, exc.Error())
	}
}

func TestRethrownFailureKeepsDiagnostic(t *testing.T) {
	evalFailure(t, func(level int) *Session { return newSession(t, features.Default(), level) },
		"try { null.x; } catch (e) { throw e; }",
		`TypeError: Cannot read property "x" from null (test_script#1)`)
}

func TestUnresolvedIdentifier(t *testing.T) {
	evalFailure(t, func(level int) *Session { return newSession(t, features.Default(), level) },
		"var a = 1;\nmissing + a",
		`ReferenceError: "missing" is not defined. (test_script#2)`)
}

func TestStartingLine(t *testing.T) {
	s := newSession(t, features.Default(), 0)
	_, err := s.Evaluate(context.Background(), "page.html", 10, "var a;\nundefined.x")
	require.Error(t, err)
	assert.Equal(t, `TypeError: Cannot read property "x" from undefined (page.html#11)`, err.Error())
}

func TestFailureOnContinuationLine(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"operand", "var x = 1 +\n  undefined.foo;", `TypeError: Cannot read property "foo" from undefined (test_script#2)`},
		{"argument", "function f(a,\n b) {}\nf(1,\n null.z);", `TypeError: Cannot read property "z" from null (test_script#4)`},
		{"write", "var o = null;\nvar w = 1 +\n  (o.b = 2);", `TypeError: Cannot set property "b" of null to "2" (test_script#3)`},
		{"call", "var o = {};\no\n  .run();", `TypeError: o.run is not a function, it is undefined. (test_script#3)`},
		{"identifier", "var a = 1 +\n\n  missing;", `ReferenceError: "missing" is not defined. (test_script#3)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFailure(t, func(level int) *Session { return newSession(t, features.Default(), level) }, tt.code, tt.want)
		})
	}
}

func TestStackFramesUseOperationLine(t *testing.T) {
	code := "function g() {\n  return [1,\n    null.q];\n}\n" +
		"var s;\ntry {\n  var r = 0 +\n    g(2);\n} catch (e) { s = e.stack; }\n" +
		"(s.indexOf('\\tat test_script:3 (g)') != -1) + ',' + (s.indexOf('\\tat test_script:8') != -1)"
	evalString(t, features.Default(), "test_script", code, "true,true")
}

func TestSyntaxError(t *testing.T) {
	s := newSession(t, features.Default(), 0)
	_, err := s.Evaluate(context.Background(), "bad.js", 1, "var = ;")
	var syn *errors.SyntaxError
	require.True(t, pkgerrors.As(err, &syn), "got %T %v", err, err)
	assert.Equal(t, "Syntax", syn.Kind())
	assert.Equal(t, 1, s.Stats().Failures)
}

func TestSessionPersistence(t *testing.T) {
	s := newSession(t, features.Default(), 0)
	_, err := s.Evaluate(context.Background(), "a.js", 1, "var counter = 1; function bump() { return ++counter; }")
	require.NoError(t, err)
	v, err := s.Evaluate(context.Background(), "b.js", 1, "bump(); bump()")
	require.NoError(t, err)
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestProgramCache(t *testing.T) {
	for _, tt := range []struct {
		level  int
		hits   int
		cached int
	}{{-1, 0, 0}, {0, 2, 1}, {9, 2, 1}} {
		s := newSession(t, features.Default(), tt.level)
		for i := 0; i < 3; i++ {
			_, err := s.Evaluate(context.Background(), "loop.js", 1, "var n = (typeof n == 'number' ? n : 0) + 1; n")
			require.NoError(t, err)
		}
		st := s.Stats()
		assert.Equal(t, tt.hits, st.CacheHits, "level %d", tt.level)
		assert.Equal(t, tt.cached, st.CachedPrograms, "level %d", tt.level)
		assert.Equal(t, 3, st.Evaluations)
		assert.Positive(t, st.Steps)
	}
}

func TestLimits(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSteps = 1000
	s, err := NewSession(cfg)
	require.NoError(t, err)
	_, err = s.Evaluate(context.Background(), "spin.js", 1, "while (true) {}")
	assert.ErrorIs(t, err, interp.ErrStepBudget)

	// The session stays usable after an aborted evaluation.
	v, err := s.Evaluate(context.Background(), "after.js", 1, "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, float64(2), v.AsNumber())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = newSession(t, features.Default(), 0)
	_, err = s.Evaluate(ctx, "spin.js", 1, "while (true) {}")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHostClasses(t *testing.T) {
	s := newSession(t, features.Default(), 0)
	_, err := s.DefineClass(object.HostClass{
		Name: "Counter",
		Properties: []object.HostProperty{{
			Name: "count",
			Get: func(this object.Value) (object.Value, error) {
				return this.AsObject().Internal.(object.Value), nil
			},
			Set: func(this object.Value, v object.Value) error {
				this.AsObject().Internal = v
				return nil
			},
			Attrs: object.Configurable,
		}},
		Methods: []object.HostMethod{{
			Name: "increment",
			Fn: func(this object.Value, args []object.Value) (object.Value, error) {
				n := this.AsObject().Internal.(object.Value).AsNumber() + 1
				this.AsObject().Internal = object.Number(n)
				return object.Number(n), nil
			},
		}},
		Init: func(this *object.Object, args []object.Value) error {
			this.Internal = object.Int(0)
			if len(args) > 0 {
				this.Internal = object.Number(object.ToNumber(args[0]))
			}
			return nil
		},
	})
	require.NoError(t, err)

	v, err := s.Evaluate(context.Background(), "host.js", 1,
		"var c = new Counter(5); c.increment(); c.count = c.count * 2; c.count + ':' + (c instanceof Counter) + ':' + Object.keys(c).length")
	require.NoError(t, err)
	assert.Equal(t, "12:true:0", v.AsString())

	c, err := s.NewHostObject("Counter", object.Int(41))
	require.NoError(t, err)
	assert.Equal(t, "Counter", c.ClassName())

	_, err = s.DefineClass(object.HostClass{Name: "Counter"})
	assert.Error(t, err)
	_, err = s.NewHostObject("Missing")
	assert.Error(t, err)
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OptimizationLevel = 10
	_, err := NewSession(cfg)
	assert.Error(t, err)
}
