package driver

import (
	"jscore/pkg/diag"
	"jscore/pkg/errors"
	"jscore/pkg/object"
	"jscore/pkg/source"
)

// EcmaError is an uncaught runtime failure. Its message is the rendered
// diagnostic, for example
//
//	TypeError: Cannot read property "x" from undefined (test_script#1)
type EcmaError struct {
	Failure *errors.Failure
}

func (e *EcmaError) Error() string { return diag.Format(e.Failure) }

func (e *EcmaError) Unwrap() error { return e.Failure }

// Name is the error family, TypeError or ReferenceError.
func (e *EcmaError) Name() string { return e.Failure.Kind.Family() }

// Details is the message without family or location.
func (e *EcmaError) Details() string { return diag.Message(e.Failure) }

// ScriptStack renders the call stack at the failure site.
func (e *EcmaError) ScriptStack() string { return diag.Trace(e.Failure.Frames) }

// JavaScriptException is an uncaught value thrown with a throw statement.
type JavaScriptException struct {
	Value    object.Value
	Details  string // ToString of Value
	Location source.Location
	Frames   []source.Frame
}

func (e *JavaScriptException) Error() string {
	return e.Details + " (" + diag.Locator(e.Location) + ")"
}

// ScriptStack renders the call stack at the throw site.
func (e *JavaScriptException) ScriptStack() string { return diag.Trace(e.Frames) }
