package builtins

import (
	"testing"

	"jscore/pkg/features"
	"jscore/pkg/object"
)

func TestObjectInitializer(t *testing.T) {
	// Test that ObjectInitializer implements the interface correctly
	var initializer BuiltinInitializer = &ObjectInitializer{}

	if initializer.Name() != "Object" {
		t.Errorf("Expected name 'Object', got %s", initializer.Name())
	}

	if initializer.Priority() != PriorityObject {
		t.Errorf("Expected priority %d, got %d", PriorityObject, initializer.Priority())
	}
}

func TestStandardInitializersSorted(t *testing.T) {
	inits := GetStandardInitializers()
	for i := 1; i < len(inits); i++ {
		if inits[i-1].Priority() > inits[i].Priority() {
			t.Errorf("%s (priority %d) runs before %s (priority %d)",
				inits[i-1].Name(), inits[i-1].Priority(), inits[i].Name(), inits[i].Priority())
		}
	}
}

func TestObjectInitRuntime(t *testing.T) {
	in := newRuntime(t, features.Set{})

	ctorVal, err := in.Model().Get(object.FromObject(in.Global()), "Object")
	if err != nil {
		t.Fatalf("reading Object: %v", err)
	}
	if !ctorVal.IsCallable() {
		t.Fatalf("Object is not callable: %s", object.TypeOf(ctorVal))
	}

	// Globals are not enumerable.
	for _, k := range in.Model().OwnEnumerableKeys(in.Global()) {
		if k == "Object" {
			t.Errorf("Object global should not be enumerable")
		}
	}

	proto, err := in.Model().Get(ctorVal, "prototype")
	if err != nil {
		t.Fatalf("reading Object.prototype: %v", err)
	}
	if proto.AsObject() != in.Realm().ObjectPrototype {
		t.Errorf("Object.prototype is not the realm's object prototype")
	}

	for _, method := range []string{"toString", "valueOf", "hasOwnProperty", "propertyIsEnumerable", "isPrototypeOf"} {
		p, ok := in.Realm().ObjectPrototype.OwnProperty(method)
		if !ok {
			t.Errorf("Object.prototype.%s missing", method)
			continue
		}
		if p.Attrs.Enumerable() {
			t.Errorf("Object.prototype.%s should not be enumerable", method)
		}
	}
}
