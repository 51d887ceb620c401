// Package diag renders runtime failures and call stacks as the text shown
// to script authors.
package diag

import (
	"fmt"
	"strconv"
	"strings"

	"jscore/pkg/errors"
	"jscore/pkg/scope"
	"jscore/pkg/source"
)

const unknownSource = "<unknown>"

// templates maps a template id to its format. Verbs are filled by Message
// in the order the kind's substitutions are listed below.
var templates = map[string]string{
	"msg.undef.prop.read":        `Cannot read property "%s" from %s`,
	"msg.undef.prop.write":       `Cannot set property "%s" of %s to "%s"`,
	"msg.undef.method.call":      `Cannot call method "%s" of %s`,
	"msg.undef.prop.delete":      `Cannot delete property "%s" of %s`,
	"msg.set.prop.no.setter":     `Cannot set property [%s].%s that has only a getter to value '%s'.`,
	"msg.delete.nonconfigurable": `Cannot delete property "%s" of [%s] because it is not configurable.`,
	"msg.undef.name":             `"%s" is not defined.`,
	"msg.modify.readonly":        `Cannot modify readonly property: %s.`,
	"msg.isnt.function":          `%s is not a function, it is %s.`,
	"msg.not.ctor":               `%s is not a constructor.`,
}

// Message renders the failure's template without location. It is the value
// of the message property of the error object a caught failure becomes.
func Message(f *errors.Failure) string {
	tmpl, ok := templates[f.Kind.Template()]
	if !ok {
		return f.Kind.String()
	}
	switch f.Kind {
	case errors.ReadOfAbsentReceiver, errors.CallOnAbsentReceiver, errors.DeleteOfAbsentReceiver:
		return fmt.Sprintf(tmpl, f.Name, f.Receiver)
	case errors.WriteOfAbsentReceiver:
		return fmt.Sprintf(tmpl, f.Name, f.Receiver, f.Value)
	case errors.GetterOnlyWrite:
		return fmt.Sprintf(tmpl, f.ClassName, f.Name, f.Value)
	case errors.NonConfigurableDelete:
		return fmt.Sprintf(tmpl, f.Name, f.ClassName)
	case errors.NotCallable:
		return fmt.Sprintf(tmpl, f.Name, f.Value)
	}
	return fmt.Sprintf(tmpl, f.Name)
}

// Format renders the complete diagnostic line:
//
//	<ErrorName>: <message> (<source>#<line>)
//
// A missing source name renders as "<unknown>" and a missing line drops the
// "#<line>" part. Format never fails.
func Format(f *errors.Failure) string {
	return f.Kind.Family() + ": " + Message(f) + " (" + Locator(f.Location) + ")"
}

// Locator renders a location as "<source>#<line>".
func Locator(loc source.Location) string {
	name := loc.Source
	if name == "" {
		name = unknownSource
	}
	if loc.Line <= 0 {
		return name
	}
	return name + "#" + strconv.Itoa(loc.Line)
}

// Trace renders frames, innermost first, one newline-terminated line each:
//
//	\tat <source>:<line> (<function>)
//
// Top-level script frames carry no function name and omit the parenthesis.
func Trace(frames []source.Frame) string {
	var b strings.Builder
	for _, fr := range frames {
		name := fr.Source
		if name == "" {
			name = unknownSource
		}
		b.WriteString("\tat ")
		b.WriteString(name)
		if fr.Line > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(fr.Line))
		}
		if fr.Function != "" {
			b.WriteString(" (")
			b.WriteString(fr.Function)
			b.WriteByte(')')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CaptureTrace renders the live call stack of chain.
func CaptureTrace(chain *scope.Chain) string {
	return Trace(chain.Snapshot())
}
