package builtins

import (
	"jscore/pkg/interp"
	"jscore/pkg/object"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Array", "String", "Math")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime creates runtime values for the interpreter
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	// The interpreter instance
	Interp *interp.Interpreter

	Model *object.Model
	Realm *interp.Realm

	// Define a global value
	DefineGlobal func(name string, value object.Value) error
}

// Method installs a native method on o.
func (ctx *RuntimeContext) Method(o *object.Object, name string, fn object.CallFunc) *object.Object {
	return ctx.Model.DefineFunction(o, ctx.Realm.FunctionPrototype, name, fn)
}

// Constant installs a read-only, non-enumerable value on o.
func (ctx *RuntimeContext) Constant(o *object.Object, name string, v object.Value) {
	ctx.Model.DefineValue(o, name, v, object.Sealed)
}

// Priority constants for initialization order
const (
	PriorityObject   = 0 // Object must be first (base prototype)
	PriorityFunction = 1 // Function second (inherits from Object)
	PriorityArray    = 3
	PriorityError    = 5
	PriorityString   = 10 // String primitives
	PriorityNumber   = 11 // Number primitives
	PriorityBoolean  = 12 // Boolean primitives
	PriorityRegExp   = 13 // RegExp constructor
	PriorityGlobals  = 50
	PriorityMath     = 100 // Math object
	PriorityConsole  = 102 // console, when the host asks for it
)
