package object

// HostProperty describes a native accessor property of a host class.
type HostProperty struct {
	Name  string
	Get   Getter
	Set   Setter
	Attrs Attr
}

// HostMethod describes a native method of a host class.
type HostMethod struct {
	Name string
	Fn   CallFunc
}

// HostClass describes an object class implemented by the embedding host.
type HostClass struct {
	Name       string
	Properties []HostProperty
	Methods    []HostMethod
	// Init initializes a fresh instance created with new. It may be nil.
	Init func(this *Object, args []Value) error
}

// SeedHostClass installs the class's accessors and methods on proto. Host
// accessors become ordinary accessor properties and follow the same rules as
// script-defined ones.
func (m *Model) SeedHostClass(proto *Object, fnProto *Object, c HostClass) {
	for _, hp := range c.Properties {
		m.DefineAccessor(proto, hp.Name, hp.Get, hp.Set, hp.Attrs)
	}
	for _, hm := range c.Methods {
		m.DefineFunction(proto, fnProto, hm.Name, hm.Fn)
	}
}
