package scope

import (
	"jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/source"
)

// Chain tracks the active scope and call frames of one evaluation.
type Chain struct {
	model    *object.Model
	features features.Set
	global   *Scope
	current  *Scope
	saved    []*Scope
	frames   []source.Frame
}

// NewChain creates a chain whose global scope is backed by globalObj.
func NewChain(model *object.Model, globalObj *object.Object, fs features.Set) *Chain {
	g := newScope(KindGlobal, nil)
	g.object = globalObj
	return &Chain{model: model, features: fs, global: g, current: g}
}

// Global returns the global scope.
func (c *Chain) Global() *Scope { return c.global }

// Current returns the innermost active scope.
func (c *Chain) Current() *Scope { return c.current }

// --- Scope lifetime ---

// EnterScope makes a new scope of the given kind current. parent is the
// enclosing scope; nil means the current scope. Closures pass the scope
// they captured.
func (c *Chain) EnterScope(kind Kind, parent *Scope) *Scope {
	if parent == nil {
		parent = c.current
	}
	s := newScope(kind, parent)
	c.saved = append(c.saved, c.current)
	c.current = s
	return s
}

// LeaveScope restores the scope that was current before the matching
// EnterScope.
func (c *Chain) LeaveScope() {
	n := len(c.saved)
	if n == 0 {
		return
	}
	c.current = c.saved[n-1]
	c.saved = c.saved[:n-1]
}

// Within runs fn inside a new scope and leaves it on every exit path,
// including failures and panics.
func (c *Chain) Within(kind Kind, parent *Scope, fn func(*Scope) error) error {
	s := c.EnterScope(kind, parent)
	defer c.LeaveScope()
	return fn(s)
}

// --- Declarations ---

// Declare records a declaration. Var-scoped kinds bind in the nearest
// function scope and start out as undefined; let and const bind in the
// current scope and stay uninitialized until Initialize.
func (c *Chain) Declare(name string, kind DeclKind, pos source.Location) {
	target := c.current
	if kind.VarScoped() {
		target = c.current.FunctionScope()
	}
	c.declareIn(target, name, kind, pos)
}

func (c *Chain) declareIn(s *Scope, name string, kind DeclKind, pos source.Location) {
	if s.object != nil && kind.VarScoped() {
		if !c.model.Has(s.object, name) {
			c.model.DefineValue(s.object, name, object.Undefined, object.Writable|object.Enumerable)
		}
		return
	}
	if _, ok := s.bindings[name]; ok && kind.VarScoped() {
		return
	}
	s.bindings[name] = &binding{value: object.Undefined, kind: kind, pos: pos, initialized: kind.VarScoped()}
}

// Initialize completes a let or const declaration in the current scope.
func (c *Chain) Initialize(name string, v object.Value) {
	if b, ok := c.current.bindings[name]; ok {
		b.value = v
		b.initialized = true
		return
	}
	c.bind(c.current, name, DeclLet, v)
}

// Bind creates or overwrites an initialized var-like binding directly in the
// current scope. Parameters, arguments and catch parameters bind this way.
func (c *Chain) Bind(name string, v object.Value) {
	c.bind(c.current, name, DeclVar, v)
}

func (c *Chain) bind(s *Scope, name string, kind DeclKind, v object.Value) {
	if s.object != nil && kind.VarScoped() {
		if p, ok := s.object.OwnProperty(name); ok && !p.Accessor {
			p.Value = v
			return
		}
		c.model.DefineValue(s.object, name, v, object.Writable|object.Enumerable)
		return
	}
	b, ok := s.bindings[name]
	if !ok {
		b = &binding{kind: kind}
		s.bindings[name] = b
	}
	b.value = v
	b.initialized = true
}

// Hoist applies the hoisting policy for the declarations of the function
// or script body whose scope is current:
//
//   - var bindings are created as undefined, regardless of features;
//   - function statements of the body itself are bound to their value;
//   - function statements nested in blocks are bound before the body runs
//     only with ForwardHoistNestedFunctionDeclarations, otherwise they bind
//     when their statement executes (see DeclareBlockFunction);
//   - let and const bindings are created uninitialized.
func (c *Chain) Hoist(decls []Declaration) error {
	fnScope := c.current.FunctionScope()
	forward := c.features.Has(features.ForwardHoistNestedFunctionDeclarations)
	for _, d := range decls {
		switch d.Kind {
		case DeclVar:
			c.declareIn(fnScope, d.Name, DeclVar, d.Pos)
		case DeclFunction:
			if err := c.hoistFunction(fnScope, d); err != nil {
				return err
			}
		case DeclBlockFunction:
			if forward {
				if err := c.hoistFunction(fnScope, d); err != nil {
					return err
				}
			}
		case DeclLet, DeclConst:
			c.declareIn(c.current, d.Name, d.Kind, d.Pos)
		}
	}
	return nil
}

func (c *Chain) hoistFunction(s *Scope, d Declaration) error {
	v := object.Undefined
	if d.Init != nil {
		var err error
		if v, err = d.Init(); err != nil {
			return err
		}
	}
	c.bind(s, d.Name, DeclFunction, v)
	return nil
}

// DeclareBlockFunction binds a nested function statement when its
// statement executes. The binding lives in the enclosing function scope.
func (c *Chain) DeclareBlockFunction(name string, v object.Value) {
	c.bind(c.current.FunctionScope(), name, DeclBlockFunction, v)
}

// --- Resolution ---

// Resolve walks from the innermost scope outward and returns the first
// binding of name. The second result is false when name is unresolved.
func (c *Chain) Resolve(name string) (Ref, bool) {
	for s := c.current; s != nil; s = s.parent {
		if _, ok := s.bindings[name]; ok {
			return Ref{scope: s, name: name}, true
		}
		if s.object != nil && c.model.Has(s.object, name) {
			return Ref{scope: s, name: name}, true
		}
	}
	return Ref{}, false
}

// Lookup returns the value bound to name. Unresolved names and let/const
// bindings read before initialization raise UnresolvedIdentifier.
func (c *Chain) Lookup(name string) (object.Value, error) {
	ref, ok := c.Resolve(name)
	if !ok {
		return object.Undefined, unresolved(name)
	}
	return c.Get(ref)
}

// Get reads through a resolved reference.
func (c *Chain) Get(ref Ref) (object.Value, error) {
	if b, ok := ref.scope.bindings[ref.name]; ok {
		if !b.initialized {
			return object.Undefined, unresolved(ref.name)
		}
		return b.value, nil
	}
	if ref.scope.object != nil {
		return c.model.Get(object.FromObject(ref.scope.object), ref.name)
	}
	return object.Undefined, unresolved(ref.name)
}

// Assign stores v into the binding for name. Unresolved names become
// properties of the global object.
func (c *Chain) Assign(name string, v object.Value) error {
	ref, ok := c.Resolve(name)
	if !ok {
		return c.model.Set(object.FromObject(c.global.object), name, v)
	}
	if b, ok := ref.scope.bindings[name]; ok {
		if !b.initialized {
			return unresolved(name)
		}
		if b.kind == DeclConst {
			return &errors.Failure{Kind: errors.ReadOnlyWrite, Name: name}
		}
		b.value = v
		return nil
	}
	return c.model.Set(object.FromObject(ref.scope.object), name, v)
}

// --- Call frames ---

// PushFrame records entry into fn executing at loc. fn is empty for
// top-level code.
func (c *Chain) PushFrame(fn string, loc source.Location) {
	c.frames = append(c.frames, source.Frame{Function: fn, Location: loc})
}

// PopFrame discards the innermost frame.
func (c *Chain) PopFrame() {
	if n := len(c.frames); n > 0 {
		c.frames = c.frames[:n-1]
	}
}

// SetLine updates the line the innermost frame is executing.
func (c *Chain) SetLine(line int) {
	if n := len(c.frames); n > 0 && line > 0 {
		c.frames[n-1].Line = line
	}
}

// Location returns where the innermost frame is executing.
func (c *Chain) Location() source.Location {
	if n := len(c.frames); n > 0 {
		return c.frames[n-1].Location
	}
	return source.Location{}
}

// Depth returns the number of active frames.
func (c *Chain) Depth() int { return len(c.frames) }

// Snapshot returns the active frames, innermost first.
func (c *Chain) Snapshot() []source.Frame {
	out := make([]source.Frame, len(c.frames))
	for i, f := range c.frames {
		out[len(c.frames)-1-i] = f
	}
	return out
}
