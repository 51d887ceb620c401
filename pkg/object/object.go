package object

import "strings"

// Attr is a set of property attribute flags.
type Attr uint8

const (
	Writable Attr = 1 << iota
	Enumerable
	Configurable
)

const (
	// Empty is a writable, enumerable, configurable property.
	Empty Attr = Writable | Enumerable | Configurable
	// DontEnum hides a property from enumeration (built-in methods).
	DontEnum Attr = Writable | Configurable
	// Permanent is a non-configurable, non-enumerable, writable property.
	Permanent Attr = Writable
	// Sealed properties cannot be changed in any way.
	Sealed Attr = 0
)

func (a Attr) Writable() bool     { return a&Writable != 0 }
func (a Attr) Enumerable() bool   { return a&Enumerable != 0 }
func (a Attr) Configurable() bool { return a&Configurable != 0 }

func (a Attr) String() string {
	var parts []string
	if a.Writable() {
		parts = append(parts, "writable")
	}
	if a.Enumerable() {
		parts = append(parts, "enumerable")
	}
	if a.Configurable() {
		parts = append(parts, "configurable")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Getter produces the value of an accessor property for the given receiver.
type Getter func(this Value) (Value, error)

// Setter stores a value through an accessor property.
type Setter func(this Value, v Value) error

// Property is one entry of a PropertyTable: either a data slot or an
// accessor pair. For accessors the Writable attribute is ignored; whether a
// write succeeds depends on Set being present.
type Property struct {
	Value    Value
	Get      Getter
	Set      Setter
	Accessor bool
	Attrs    Attr
}

// DataProperty builds a data property.
func DataProperty(v Value, attrs Attr) Property {
	return Property{Value: v, Attrs: attrs}
}

// AccessorProperty builds an accessor property. Either function may be nil.
func AccessorProperty(get Getter, set Setter, attrs Attr) Property {
	return Property{Get: get, Set: set, Accessor: true, Attrs: attrs &^ Writable}
}

// GetterOnly reports whether the property is an accessor without a setter.
func (p *Property) GetterOnly() bool { return p.Accessor && p.Set == nil }

// --- Property table ---

// PropertyTable is an insertion-ordered key → Property mapping. Keys that
// are array indices are counted so callers can cheaply tell whether any
// index-like key is present.
type PropertyTable struct {
	keys       []string
	props      map[string]*Property
	indexCount int
}

// NewPropertyTable creates an empty table.
func NewPropertyTable() *PropertyTable {
	return &PropertyTable{props: make(map[string]*Property)}
}

// Len returns the number of properties.
func (t *PropertyTable) Len() int { return len(t.keys) }

// IndexKeyCount returns how many keys are array-index-like.
func (t *PropertyTable) IndexKeyCount() int { return t.indexCount }

// Lookup returns the property stored under key.
func (t *PropertyTable) Lookup(key string) (*Property, bool) {
	p, ok := t.props[key]
	return p, ok
}

// Put installs p under key. Replacing an existing key keeps its position in
// insertion order.
func (t *PropertyTable) Put(key string, p Property) *Property {
	if cur, ok := t.props[key]; ok {
		*cur = p
		return cur
	}
	np := new(Property)
	*np = p
	t.props[key] = np
	t.keys = append(t.keys, key)
	if _, ok := ArrayIndex(key); ok {
		t.indexCount++
	}
	return np
}

// Remove deletes key and reports whether it was present.
func (t *PropertyTable) Remove(key string) bool {
	if _, ok := t.props[key]; !ok {
		return false
	}
	delete(t.props, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	if _, ok := ArrayIndex(key); ok {
		t.indexCount--
	}
	return true
}

// Keys returns a copy of the keys in insertion order.
func (t *PropertyTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// ArrayIndex checks whether key is an array index: a canonical non-negative
// integer below 2^32-1. Leading zeros are not allowed except for "0".
func ArrayIndex(key string) (uint32, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	var idx uint64
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		idx = idx*10 + uint64(ch-'0')
	}
	if idx > 4294967294 {
		return 0, false
	}
	return uint32(idx), true
}

// --- Objects ---

// CallFunc is the call behavior of a function object.
type CallFunc func(this Value, args []Value) (Value, error)

// ConstructFunc is the construct behavior of a function object.
type ConstructFunc func(args []Value) (Value, error)

// Sourcer is implemented by function data that can render its source text.
type Sourcer interface {
	Source() string
}

// Object owns a PropertyTable and references (without owning) its
// prototype.
type Object struct {
	class      string
	proto      *Object
	props      *PropertyTable
	extensible bool
	call       CallFunc
	construct  ConstructFunc

	// Name is the function name for function objects.
	Name string
	// Internal carries host or evaluator data (function closure, error
	// metadata, regexp state, host instance state).
	Internal any
}

// New creates an ordinary object with the given class name and prototype.
func New(class string, proto *Object) *Object {
	return &Object{class: class, proto: proto, props: NewPropertyTable(), extensible: true}
}

// NewFunction creates a function object. construct may be nil for
// functions that cannot be used with new.
func NewFunction(proto *Object, name string, call CallFunc, construct ConstructFunc) *Object {
	o := New("Function", proto)
	o.Name = name
	o.call = call
	o.construct = construct
	return o
}

// ClassName returns the object's class, as shown in diagnostics.
func (o *Object) ClassName() string { return o.class }

// Prototype returns the prototype object or nil.
func (o *Object) Prototype() *Object { return o.proto }

// SetPrototype replaces the prototype. Cycles are rejected.
func (o *Object) SetPrototype(p *Object) bool {
	for cur := p; cur != nil; cur = cur.proto {
		if cur == o {
			return false
		}
	}
	o.proto = p
	return true
}

// Properties exposes the object's own property table.
func (o *Object) Properties() *PropertyTable { return o.props }

// Extensible reports whether new properties may be added.
func (o *Object) Extensible() bool { return o.extensible }

// PreventExtensions makes the object non-extensible.
func (o *Object) PreventExtensions() { o.extensible = false }

// Call invokes the object's call behavior.
func (o *Object) Call(this Value, args []Value) (Value, error) {
	return o.call(this, args)
}

// Construct invokes the object's construct behavior.
func (o *Object) Construct(args []Value) (Value, error) {
	return o.construct(args)
}

// Callable reports whether the object has call behavior.
func (o *Object) Callable() bool { return o.call != nil }

// Constructible reports whether the object can be used with new.
func (o *Object) Constructible() bool { return o.construct != nil }

// IsArray reports whether the object is an array exotic object.
func (o *Object) IsArray() bool { return o.class == "Array" }

// OwnProperty returns an own property.
func (o *Object) OwnProperty(key string) (*Property, bool) {
	return o.props.Lookup(key)
}

// FindProperty walks the prototype chain starting at o.
func (o *Object) FindProperty(key string) (*Property, *Object, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if p, ok := cur.props.Lookup(key); ok {
			return p, cur, true
		}
	}
	return nil, nil, false
}

// InstanceOf reports whether proto appears on o's prototype chain.
func (o *Object) InstanceOf(proto *Object) bool {
	for cur := o.proto; cur != nil; cur = cur.proto {
		if cur == proto {
			return true
		}
	}
	return false
}
