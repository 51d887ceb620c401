package object

import (
	"math"
	"strconv"
	"unicode/utf8"

	"jscore/pkg/errors"
	"jscore/pkg/features"
)

// OrderFunc orders the enumerable keys of one object for for-in.
type OrderFunc func(keys []string) []string

// Options configures a Model.
type Options struct {
	Features features.Set
	// Order orders enumerable keys; nil keeps insertion order.
	Order OrderFunc
	// FailOnNonConfigurableDelete makes Delete raise NonConfigurableDelete
	// instead of returning false.
	FailOnNonConfigurableDelete bool
}

// Model implements property access semantics: definition, lookup through
// prototype chains, accessor invocation, deletion and enumeration. A Model
// belongs to one evaluation context.
type Model struct {
	features                    features.Set
	order                       OrderFunc
	failOnNonConfigurableDelete bool
	primitiveProtos             map[Kind]*Object
}

// NewModel creates a Model.
func NewModel(opts Options) *Model {
	order := opts.Order
	if order == nil {
		order = func(keys []string) []string { return keys }
	}
	return &Model{
		features:                    opts.Features,
		order:                       order,
		failOnNonConfigurableDelete: opts.FailOnNonConfigurableDelete,
		primitiveProtos:             make(map[Kind]*Object),
	}
}

// Features returns the feature set the model was created with.
func (m *Model) Features() features.Set { return m.features }

// SetPrimitivePrototype registers the prototype used for property reads on
// primitives of the given kind (String.prototype and friends).
func (m *Model) SetPrimitivePrototype(k Kind, proto *Object) {
	m.primitiveProtos[k] = proto
}

// PrimitivePrototype returns the prototype registered for k.
func (m *Model) PrimitivePrototype(k Kind) *Object {
	return m.primitiveProtos[k]
}

// --- Definition ---

// Define installs or replaces an own property. Replacing a data property
// with an accessor pair, or the reverse, overwrites attributes.
func (m *Model) Define(o *Object, key string, p Property) {
	o.props.Put(key, p)
	if o.IsArray() {
		m.syncArrayLength(o, key)
	}
}

// DefineValue installs a data property.
func (m *Model) DefineValue(o *Object, key string, v Value, attrs Attr) {
	m.Define(o, key, DataProperty(v, attrs))
}

// DefineAccessor installs an accessor property. get or set may be nil.
func (m *Model) DefineAccessor(o *Object, key string, get Getter, set Setter, attrs Attr) {
	m.Define(o, key, AccessorProperty(get, set, attrs))
}

// DefineFunction installs a native method as a non-enumerable property.
func (m *Model) DefineFunction(o *Object, fnProto *Object, name string, fn CallFunc) *Object {
	f := NewFunction(fnProto, name, fn, nil)
	m.DefineValue(f, "name", String(name), Sealed)
	m.DefineValue(o, name, FromObject(f), DontEnum)
	return f
}

// --- Access ---

// Get reads key from recv. Missing properties yield Undefined; an undefined
// or null receiver is a ReadOfAbsentReceiver failure.
func (m *Model) Get(recv Value, key string) (Value, error) {
	return m.get(recv, key, errors.OpRead)
}

// GetMethod reads key from recv in order to call it. It differs from Get
// only in the failure raised for an absent receiver.
func (m *Model) GetMethod(recv Value, key string) (Value, error) {
	return m.get(recv, key, errors.OpCall)
}

func (m *Model) get(recv Value, key string, op errors.Op) (Value, error) {
	var start *Object
	switch recv.Kind() {
	case KindUndefined, KindNull:
		return Undefined, errors.AbsentReceiver(op, key, DisplayString(recv), "")
	case KindObject:
		start = recv.AsObject()
	case KindString:
		if v, ok := stringIntrinsic(recv.AsString(), key); ok {
			return v, nil
		}
		start = m.primitiveProtos[KindString]
	default:
		start = m.primitiveProtos[recv.Kind()]
	}
	p, _, ok := start.FindProperty(key)
	if !ok {
		return Undefined, nil
	}
	if p.Accessor {
		if p.Get == nil {
			return Undefined, nil
		}
		return p.Get(recv)
	}
	return p.Value, nil
}

func stringIntrinsic(s, key string) (Value, bool) {
	if key == "length" {
		return Int(utf8.RuneCountInString(s)), true
	}
	if idx, ok := ArrayIndex(key); ok {
		runes := []rune(s)
		if int(idx) < len(runes) {
			return String(string(runes[idx])), true
		}
	}
	return Undefined, false
}

// Has reports whether key is present on o or its prototype chain.
func (m *Model) Has(o *Object, key string) bool {
	_, _, ok := o.FindProperty(key)
	return ok
}

// Set writes v to key on recv. A setter found on the receiver or its
// prototype chain is invoked. A getter-only accessor or a read-only data
// property rejects the write: with strict property assignment this is a
// failure, otherwise the write is dropped.
func (m *Model) Set(recv Value, key string, v Value) error {
	if recv.IsAbsent() {
		return errors.AbsentReceiver(errors.OpWrite, key, DisplayString(recv), DisplayString(v))
	}
	if !recv.IsObject() {
		// Writes to primitives only reach inherited setters.
		if proto := m.primitiveProtos[recv.Kind()]; proto != nil {
			if p, _, ok := proto.FindProperty(key); ok && p.Accessor && p.Set != nil {
				return p.Set(recv, v)
			}
		}
		return nil
	}
	o := recv.AsObject()
	for cur := o; cur != nil; cur = cur.proto {
		p, ok := cur.props.Lookup(key)
		if !ok {
			continue
		}
		if p.Accessor {
			if p.Set != nil {
				return p.Set(recv, v)
			}
			if m.features.StrictPropertyAssignment {
				return &errors.Failure{
					Kind:      errors.GetterOnlyWrite,
					Name:      key,
					ClassName: o.class,
					Value:     DisplayString(v),
				}
			}
			return nil
		}
		if !p.Attrs.Writable() {
			if m.features.StrictPropertyAssignment {
				return &errors.Failure{Kind: errors.ReadOnlyWrite, Name: key, ClassName: o.class, Value: DisplayString(v)}
			}
			return nil
		}
		if cur == o {
			p.Value = v
			if o.IsArray() {
				m.syncArrayLength(o, key)
			}
			return nil
		}
		break
	}
	if !o.extensible {
		return nil
	}
	m.Define(o, key, DataProperty(v, Empty))
	return nil
}

// Delete removes an own property. Absent keys report true. A
// non-configurable property is kept; depending on the model's options this
// returns false or a NonConfigurableDelete failure.
func (m *Model) Delete(recv Value, key string) (bool, error) {
	if recv.IsAbsent() {
		return false, errors.AbsentReceiver(errors.OpDelete, key, DisplayString(recv), "")
	}
	if !recv.IsObject() {
		return true, nil
	}
	o := recv.AsObject()
	p, ok := o.props.Lookup(key)
	if !ok {
		return true, nil
	}
	if !p.Attrs.Configurable() {
		if m.failOnNonConfigurableDelete {
			return false, &errors.Failure{Kind: errors.NonConfigurableDelete, Name: key, ClassName: o.class}
		}
		return false, nil
	}
	o.props.Remove(key)
	return true, nil
}

// --- Enumeration ---

// OwnEnumerableKeys returns o's own enumerable keys, ordered by the
// model's enumeration policy.
func (m *Model) OwnEnumerableKeys(o *Object) []string {
	keys := make([]string, 0, o.props.Len())
	for _, k := range o.props.keys {
		if o.props.props[k].Attrs.Enumerable() {
			keys = append(keys, k)
		}
	}
	return m.order(keys)
}

// EnumerableKeys returns the keys visited by for-in over o: own keys first,
// then each prototype's, skipping keys shadowed by a nearer property
// (enumerable or not).
func (m *Model) EnumerableKeys(o *Object) []string {
	var out []string
	seen := make(map[string]bool)
	for cur := o; cur != nil; cur = cur.proto {
		for _, k := range m.OwnEnumerableKeys(cur) {
			if !seen[k] {
				out = append(out, k)
			}
		}
		for _, k := range cur.props.keys {
			seen[k] = true
		}
	}
	return out
}

// --- Arrays ---

// NewArray creates an array with the given elements.
func (m *Model) NewArray(proto *Object, elems []Value) *Object {
	a := New("Array", proto)
	a.props.Put("length", DataProperty(Int(0), Permanent))
	for i, e := range elems {
		m.DefineValue(a, strconv.Itoa(i), e, Empty)
	}
	return a
}

// ArrayLength returns the length of an array-like object.
func (m *Model) ArrayLength(o *Object) (int, error) {
	v, err := m.Get(FromObject(o), "length")
	if err != nil {
		return 0, err
	}
	n := ToNumber(v)
	if math.IsNaN(n) || n <= 0 {
		return 0, nil
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n), nil
}

func (m *Model) syncArrayLength(a *Object, key string) {
	lp, ok := a.props.Lookup("length")
	if !ok {
		return
	}
	if key == "length" {
		newLen := ToNumber(lp.Value)
		if math.IsNaN(newLen) || newLen < 0 {
			newLen = 0
		}
		lp.Value = Number(math.Trunc(newLen))
		for _, k := range a.props.Keys() {
			if idx, ok := ArrayIndex(k); ok && float64(idx) >= lp.Value.AsNumber() {
				a.props.Remove(k)
			}
		}
		return
	}
	idx, ok := ArrayIndex(key)
	if !ok {
		return
	}
	if float64(idx) >= lp.Value.AsNumber() {
		lp.Value = Number(float64(idx) + 1)
	}
}
