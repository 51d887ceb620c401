package interp

import (
	"jscore/pkg/diag"
	"jscore/pkg/errors"
	"jscore/pkg/object"
	"jscore/pkg/source"
)

// Exception is a value thrown by script code and not (yet) caught.
type Exception struct {
	Value    object.Value
	Location source.Location
	Frames   []source.Frame // innermost first
}

func (e *Exception) Error() string {
	return "uncaught exception: " + object.DisplayString(e.Value) + " (" + diag.Locator(e.Location) + ")"
}

// ErrorData is the Internal data of error objects. Failure is set when the
// object was created from a runtime failure.
type ErrorData struct {
	Failure *errors.Failure
}

// NewError creates an error object of the given family with stack,
// fileName and lineNumber taken from frames, innermost first.
func (in *Interpreter) NewError(family, message string, frames []source.Frame) *object.Object {
	o := object.New("Error", in.realm.ErrorPrototypeFor(family))
	o.Internal = &ErrorData{}
	if message != "" {
		in.model.DefineValue(o, "message", object.String(message), object.DontEnum)
	}
	var loc source.Location
	if len(frames) > 0 {
		loc = frames[0].Location
	}
	in.model.DefineValue(o, "stack", object.String(diag.Trace(frames)), object.DontEnum)
	in.model.DefineValue(o, "fileName", object.String(loc.Source), object.DontEnum)
	in.model.DefineValue(o, "lineNumber", object.Int(loc.Line), object.DontEnum)
	return o
}

// ThrowError returns an Exception carrying a new error object created at
// the current location.
func (in *Interpreter) ThrowError(family, message string) error {
	frames := in.chain.Snapshot()
	return &Exception{
		Value:    object.FromObject(in.NewError(family, message, frames)),
		Location: in.chain.Location(),
		Frames:   frames,
	}
}

// ThrowTypeError is ThrowError for TypeError.
func (in *Interpreter) ThrowTypeError(message string) error {
	return in.ThrowError("TypeError", message)
}

// errorFromFailure converts a failure into the error object a catch clause
// receives.
func (in *Interpreter) errorFromFailure(f *errors.Failure) *object.Object {
	frames := f.Frames
	if len(frames) == 0 && !f.Location.IsZero() {
		frames = []source.Frame{{Location: f.Location}}
	}
	o := in.NewError(f.Kind.Family(), diag.Message(f), frames)
	o.Internal = &ErrorData{Failure: f}
	return o
}

// catchable reports whether err can be observed by a catch clause and
// returns the value the clause binds. Host errors (cancellation, budgets)
// are not catchable.
func (in *Interpreter) catchable(err error) (object.Value, bool) {
	if exc, ok := err.(*Exception); ok {
		return exc.Value, true
	}
	if f, ok := errors.AsFailure(err); ok {
		in.logger.Debug("failure caught", "kind", f.Kind.String(), "location", f.Location.String())
		return object.FromObject(in.errorFromFailure(f)), true
	}
	return object.Undefined, false
}

// FailureOf returns the failure an error object was created from.
func FailureOf(v object.Value) (*errors.Failure, bool) {
	if !v.IsObject() {
		return nil, false
	}
	data, ok := v.AsObject().Internal.(*ErrorData)
	if !ok || data.Failure == nil {
		return nil, false
	}
	return data.Failure, true
}
