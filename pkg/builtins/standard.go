package builtins

import (
	"sort"

	"github.com/pkg/errors"

	"jscore/pkg/interp"
	"jscore/pkg/object"
)

// GetStandardInitializers returns all built-in initializers sorted by priority
func GetStandardInitializers() []BuiltinInitializer {
	initializers := []BuiltinInitializer{
		&GlobalsInitializer{},
		&ObjectInitializer{},
		&FunctionInitializer{},
		&ArrayInitializer{},
		&ErrorInitializer{},
		&StringInitializer{},
		&NumberInitializer{},
		&BooleanInitializer{},
		&RegExpInitializer{},
		&MathInitializer{},
	}

	// Sort by priority (lower numbers first)
	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})
	return initializers
}

// NewRuntimeContext creates the context initializers run against. Globals
// are defined as non-enumerable properties of the global object.
func NewRuntimeContext(in *interp.Interpreter) *RuntimeContext {
	return &RuntimeContext{
		Interp: in,
		Model:  in.Model(),
		Realm:  in.Realm(),
		DefineGlobal: func(name string, value object.Value) error {
			in.Model().DefineValue(in.Global(), name, value, object.DontEnum)
			return nil
		},
	}
}

// Install runs every standard initializer, then extra, against in.
func Install(in *interp.Interpreter, extra ...BuiltinInitializer) error {
	ctx := NewRuntimeContext(in)
	inits := append(GetStandardInitializers(), extra...)
	sort.SliceStable(inits, func(i, j int) bool {
		return inits[i].Priority() < inits[j].Priority()
	})
	for _, init := range inits {
		if err := init.InitRuntime(ctx); err != nil {
			return errors.Wrapf(err, "initializing %s", init.Name())
		}
	}
	return nil
}
