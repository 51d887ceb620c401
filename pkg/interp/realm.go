package interp

import "jscore/pkg/object"

// Realm holds the global object and the intrinsic prototypes of one
// evaluation context.
type Realm struct {
	GlobalObject *object.Object

	// Built-in prototypes
	ObjectPrototype   *object.Object
	FunctionPrototype *object.Object
	ArrayPrototype    *object.Object
	StringPrototype   *object.Object
	NumberPrototype   *object.Object
	BooleanPrototype  *object.Object
	RegExpPrototype   *object.Object

	// Error prototypes, keyed by constructor name
	ErrorPrototype          *object.Object
	TypeErrorPrototype      *object.Object
	ReferenceErrorPrototype *object.Object
	SyntaxErrorPrototype    *object.Object
	RangeErrorPrototype     *object.Object

	// Constructors the evaluator needs to reach directly. They are set by
	// the builtin initializers.
	RegExpConstructor *object.Object
}

// NewRealm creates a realm with uninitialized prototypes.
// Call InitializePrototypes before use.
func NewRealm() *Realm {
	return &Realm{}
}

// InitializePrototypes creates the prototype chain for this realm.
func (r *Realm) InitializePrototypes() {
	// Object.prototype is the root (inherits from null)
	r.ObjectPrototype = object.New("Object", nil)

	// Function.prototype is itself callable and returns undefined.
	r.FunctionPrototype = object.NewFunction(r.ObjectPrototype, "", func(object.Value, []object.Value) (object.Value, error) {
		return object.Undefined, nil
	}, nil)
	r.ArrayPrototype = object.New("Object", r.ObjectPrototype)
	r.StringPrototype = object.New("String", r.ObjectPrototype)
	r.NumberPrototype = object.New("Number", r.ObjectPrototype)
	r.BooleanPrototype = object.New("Boolean", r.ObjectPrototype)
	r.RegExpPrototype = object.New("Object", r.ObjectPrototype)

	r.ErrorPrototype = object.New("Error", r.ObjectPrototype)
	r.TypeErrorPrototype = object.New("Error", r.ErrorPrototype)
	r.ReferenceErrorPrototype = object.New("Error", r.ErrorPrototype)
	r.SyntaxErrorPrototype = object.New("Error", r.ErrorPrototype)
	r.RangeErrorPrototype = object.New("Error", r.ErrorPrototype)

	r.GlobalObject = object.New("global", r.ObjectPrototype)
}

// ErrorPrototypeFor returns the prototype of the named error constructor,
// falling back to Error.prototype.
func (r *Realm) ErrorPrototypeFor(family string) *object.Object {
	switch family {
	case "TypeError":
		return r.TypeErrorPrototype
	case "ReferenceError":
		return r.ReferenceErrorPrototype
	case "SyntaxError":
		return r.SyntaxErrorPrototype
	case "RangeError":
		return r.RangeErrorPrototype
	}
	return r.ErrorPrototype
}
