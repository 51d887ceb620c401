package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/scope"
	"jscore/pkg/source"
)

var testScript = source.Location{Source: "test_script", Line: 1}

func TestFormatAbsentReceiver(t *testing.T) {
	tests := []struct {
		name    string
		failure *errors.Failure
		want    string
	}{
		{
			name:    "read",
			failure: errors.AbsentReceiver(errors.OpRead, "undefined", "undefined", ""),
			want:    `TypeError: Cannot read property "undefined" from undefined (test_script#1)`,
		},
		{
			name:    "write",
			failure: errors.AbsentReceiver(errors.OpWrite, "undefined", "undefined", "1"),
			want:    `TypeError: Cannot set property "undefined" of undefined to "1" (test_script#1)`,
		},
		{
			name:    "call",
			failure: errors.AbsentReceiver(errors.OpCall, "undefined", "undefined", ""),
			want:    `TypeError: Cannot call method "undefined" of undefined (test_script#1)`,
		},
		{
			name:    "read from null",
			failure: errors.AbsentReceiver(errors.OpRead, "x", "null", ""),
			want:    `TypeError: Cannot read property "x" from null (test_script#1)`,
		},
		{
			name:    "delete",
			failure: errors.AbsentReceiver(errors.OpDelete, "x", "undefined", ""),
			want:    `TypeError: Cannot delete property "x" of undefined (test_script#1)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.failure.Location = testScript
			assert.Equal(t, tt.want, Format(tt.failure))
		})
	}
}

func TestFormatOtherKinds(t *testing.T) {
	tests := []struct {
		failure errors.Failure
		want    string
	}{
		{
			errors.Failure{Kind: errors.GetterOnlyWrite, Name: "readonlyProp", ClassName: "MyHostObject", Value: "123"},
			`TypeError: Cannot set property [MyHostObject].readonlyProp that has only a getter to value '123'. (test_script#1)`,
		},
		{
			errors.Failure{Kind: errors.UnresolvedIdentifier, Name: "foo"},
			`ReferenceError: "foo" is not defined. (test_script#1)`,
		},
		{
			errors.Failure{Kind: errors.NonConfigurableDelete, Name: "x", ClassName: "Object"},
			`TypeError: Cannot delete property "x" of [Object] because it is not configurable. (test_script#1)`,
		},
		{
			errors.Failure{Kind: errors.ReadOnlyWrite, Name: "length"},
			`TypeError: Cannot modify readonly property: length. (test_script#1)`,
		},
		{
			errors.Failure{Kind: errors.NotCallable, Name: "o.f", Value: "undefined"},
			`TypeError: o.f is not a function, it is undefined. (test_script#1)`,
		},
		{
			errors.Failure{Kind: errors.NotConstructor, Name: "Math"},
			`TypeError: Math is not a constructor. (test_script#1)`,
		},
	}
	for _, tt := range tests {
		f := tt.failure
		f.Location = testScript
		assert.Equal(t, tt.want, Format(&f), f.Kind.String())
	}
}

func TestMessageHasNoLocator(t *testing.T) {
	f := errors.AbsentReceiver(errors.OpRead, "a", "undefined", "")
	f.Location = testScript
	assert.Equal(t, `Cannot read property "a" from undefined`, Message(f))
}

func TestFormatBestEffortLocation(t *testing.T) {
	f := errors.AbsentReceiver(errors.OpRead, "a", "null", "")
	assert.Equal(t, `TypeError: Cannot read property "a" from null (<unknown>)`, Format(f))

	f.Location = source.Location{Source: "x.js"}
	assert.Equal(t, `TypeError: Cannot read property "a" from null (x.js)`, Format(f))

	f.Location = source.Location{Line: 4}
	assert.Equal(t, `TypeError: Cannot read property "a" from null (<unknown>#4)`, Format(f))
}

func TestLocatorUsesHostSuppliedLine(t *testing.T) {
	assert.Equal(t, "embedded.js#120", Locator(source.Location{Source: "embedded.js", Line: 120}))
}

func TestTrace(t *testing.T) {
	frames := []source.Frame{
		{Function: "test", Location: source.Location{Source: "test.js", Line: 3}},
		{Function: "", Location: source.Location{Source: "test.js", Line: 5}},
	}
	got := Trace(frames)
	assert.Equal(t, "\tat test.js:3 (test)\n\tat test.js:5\n", got)
	assert.Contains(t, got, "\tat test.js:3 (test)")
	assert.Empty(t, Trace(nil))
}

func TestCaptureTraceFollowsLiveStack(t *testing.T) {
	model := object.NewModel(object.Options{})
	chain := scope.NewChain(model, object.New("global", nil), features.Set{})

	chain.PushFrame("", source.Location{Source: "test.js", Line: 5})
	chain.PushFrame("test", source.Location{Source: "test.js", Line: 2})
	chain.SetLine(3)

	got := CaptureTrace(chain)
	require.Equal(t, "\tat test.js:3 (test)\n\tat test.js:5\n", got)

	chain.PopFrame()
	assert.Equal(t, "\tat test.js:5\n", CaptureTrace(chain))
}
