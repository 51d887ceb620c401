package errors

import (
	"fmt"
	"io"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"jscore/pkg/source"
)

// ScriptError is the interface implemented by errors that point at a span
// of script source (lexing and parsing problems).
type ScriptError interface {
	error
	Pos() Position
	Kind() string // e.g., "Syntax"
	// Message returns the specific error message without position info.
	Message() string
	Unwrap() error
}

// SyntaxError represents an error during lexing or parsing.
type SyntaxError struct {
	Position
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *SyntaxError) Error() string {
	name := "<unknown>"
	if e.Source != nil {
		name = e.Source.Name
	}
	return fmt.Sprintf("SyntaxError: %s (%s#%d)", e.Msg, name, e.Line)
}
func (e *SyntaxError) Pos() Position   { return e.Position }
func (e *SyntaxError) Kind() string    { return "Syntax" }
func (e *SyntaxError) Message() string { return e.Msg }
func (e *SyntaxError) Unwrap() error   { return e.Cause }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// --- Runtime failures ---

// FailureKind identifies one runtime failure condition. Every kind has its
// own message template and payload; kinds are never collapsed.
type FailureKind int

const (
	ReadOfAbsentReceiver FailureKind = iota + 1
	WriteOfAbsentReceiver
	CallOnAbsentReceiver
	GetterOnlyWrite
	NonConfigurableDelete
	UnresolvedIdentifier
	ReadOnlyWrite
	NotCallable
	NotConstructor
	DeleteOfAbsentReceiver
)

var failureKindNames = map[FailureKind]string{
	ReadOfAbsentReceiver:   "ReadOfAbsentReceiver",
	WriteOfAbsentReceiver:  "WriteOfAbsentReceiver",
	CallOnAbsentReceiver:   "CallOnAbsentReceiver",
	GetterOnlyWrite:        "GetterOnlyWrite",
	NonConfigurableDelete:  "NonConfigurableDelete",
	UnresolvedIdentifier:   "UnresolvedIdentifier",
	ReadOnlyWrite:          "ReadOnlyWrite",
	NotCallable:            "NotCallable",
	NotConstructor:         "NotConstructor",
	DeleteOfAbsentReceiver: "DeleteOfAbsentReceiver",
}

func (k FailureKind) String() string {
	if s, ok := failureKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Template returns the message template identifier for the kind.
func (k FailureKind) Template() string {
	switch k {
	case ReadOfAbsentReceiver:
		return "msg.undef.prop.read"
	case WriteOfAbsentReceiver:
		return "msg.undef.prop.write"
	case CallOnAbsentReceiver:
		return "msg.undef.method.call"
	case GetterOnlyWrite:
		return "msg.set.prop.no.setter"
	case NonConfigurableDelete:
		return "msg.delete.nonconfigurable"
	case UnresolvedIdentifier:
		return "msg.undef.name"
	case ReadOnlyWrite:
		return "msg.modify.readonly"
	case NotCallable:
		return "msg.isnt.function"
	case NotConstructor:
		return "msg.not.ctor"
	case DeleteOfAbsentReceiver:
		return "msg.undef.prop.delete"
	}
	return ""
}

// Family returns the name of the script-visible error constructor a failure
// of this kind is reported as.
func (k FailureKind) Family() string {
	if k == UnresolvedIdentifier {
		return "ReferenceError"
	}
	return "TypeError"
}

// Op names the sub-operation attempted against a receiver.
type Op int

const (
	OpRead Op = iota
	OpWrite
	OpCall
	OpDelete
)

// Failure is a typed runtime failure record. Substitution fields that do not
// apply to the kind are left empty.
type Failure struct {
	Kind      FailureKind
	Name      string // property or identifier name
	Receiver  string // receiver description ("undefined", "null", ...)
	ClassName string // class of the receiver, for host-object failures
	Value     string // string form of the offered value
	Location  source.Location
	Frames    []source.Frame // innermost first; nil when not captured

	located bool
}

// AbsentReceiver builds the failure for reading, writing, calling or
// deleting name on an undefined or null receiver.
func AbsentReceiver(op Op, name, receiver, value string) *Failure {
	kind := ReadOfAbsentReceiver
	switch op {
	case OpWrite:
		kind = WriteOfAbsentReceiver
	case OpCall:
		kind = CallOnAbsentReceiver
	case OpDelete:
		kind = DeleteOfAbsentReceiver
	}
	return &Failure{Kind: kind, Name: name, Receiver: receiver, Value: value}
}

// Op returns the sub-operation an absent-receiver failure was raised for.
func (f *Failure) Op() Op {
	switch f.Kind {
	case WriteOfAbsentReceiver, GetterOnlyWrite, ReadOnlyWrite:
		return OpWrite
	case CallOnAbsentReceiver, NotCallable, NotConstructor:
		return OpCall
	case DeleteOfAbsentReceiver, NonConfigurableDelete:
		return OpDelete
	}
	return OpRead
}

// Located reports whether a location has been attached.
func (f *Failure) Located() bool { return f.located }

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(f.Kind.Family())
	b.WriteString(" [")
	b.WriteString(f.Kind.String())
	b.WriteString("]")
	if f.Name != "" {
		fmt.Fprintf(&b, " %q", f.Name)
	}
	if !f.Location.IsZero() {
		fmt.Fprintf(&b, " (%s)", f.Location)
	}
	return b.String()
}

// Locate attaches the location and call frames to the failure carried by
// err, if any, and returns err. Only the first call has an effect, so the
// innermost site observing the failure wins and outer sites pass it through
// unchanged.
func Locate(err error, loc source.Location, frames func() []source.Frame) error {
	var f *Failure
	if !pkgerrors.As(err, &f) || f.located {
		return err
	}
	f.located = true
	f.Location = loc
	if frames != nil {
		f.Frames = frames()
	}
	return err
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if pkgerrors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// --- Error Reporting ---

// DisplayErrors prints script errors to w in a user-friendly format,
// including the source line and position marker.
func DisplayErrors(w io.Writer, errs []ScriptError) {
	for _, err := range errs {
		pos := err.Pos()
		fmt.Fprintln(w, err.Error())
		if pos.Source == nil {
			continue
		}
		line := strings.TrimRight(pos.Source.Line(pos.Line), "\r\n\t ")
		if line == "" {
			continue
		}
		fmt.Fprintf(w, "  %s\n", line)
		col := pos.Column - 1
		if col < 0 {
			col = 0
		}
		fmt.Fprintf(w, "  %s^\n\n", strings.Repeat(" ", col))
	}
}
