// Package scope implements lexical environments, declaration hoisting and
// the call-frame stack used for stack traces.
package scope

import (
	"fmt"
	"sort"

	"jscore/pkg/errors"
	"jscore/pkg/object"
	"jscore/pkg/source"
)

// Kind is the construct that created a scope.
type Kind uint8

const (
	KindGlobal Kind = iota
	KindFunction
	KindBlock
	KindCatch
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindFunction:
		return "function"
	case KindBlock:
		return "block"
	case KindCatch:
		return "catch"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// DeclKind tags a declaration.
type DeclKind uint8

const (
	// DeclFunction is a function statement directly in a function or script body.
	DeclFunction DeclKind = iota
	// DeclBlockFunction is a function statement nested inside a block.
	DeclBlockFunction
	DeclVar
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "function"
	case DeclBlockFunction:
		return "block-function"
	case DeclVar:
		return "var"
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	}
	return fmt.Sprintf("DeclKind(%d)", uint8(k))
}

// VarScoped reports whether declarations of this kind bind in the nearest
// function scope rather than the current block.
func (k DeclKind) VarScoped() bool { return k <= DeclVar }

// Declaration is a name declared by a function or script body. Pos is used
// for diagnostics only; it never affects hoisting order.
type Declaration struct {
	Name string
	Kind DeclKind
	Pos  source.Location
	// Init produces the value bound for function declarations.
	Init func() (object.Value, error)
}

type binding struct {
	value       object.Value
	kind        DeclKind
	pos         source.Location
	initialized bool
}

// Scope is one environment record. The parent is referenced, never owned;
// a scope holds no references to closures created inside it.
type Scope struct {
	kind     Kind
	parent   *Scope
	bindings map[string]*binding
	// object backs the global scope: var and function declarations become
	// properties of the global object.
	object *object.Object
}

func newScope(kind Kind, parent *Scope) *Scope {
	return &Scope{kind: kind, parent: parent, bindings: make(map[string]*binding)}
}

// Kind returns the construct kind that created the scope.
func (s *Scope) Kind() Kind { return s.kind }

// Parent returns the enclosing scope, nil for the global scope.
func (s *Scope) Parent() *Scope { return s.parent }

// FunctionScope returns the nearest enclosing function (or global) scope.
func (s *Scope) FunctionScope() *Scope {
	cur := s
	for cur.kind != KindFunction && cur.kind != KindGlobal && cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// HasOwn reports whether name is bound directly in s.
func (s *Scope) HasOwn(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// Names returns the names bound directly in s, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for n := range s.bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ref is a resolved identifier reference.
type Ref struct {
	scope *Scope
	name  string
}

// Scope returns the scope the name was found in.
func (r Ref) Scope() *Scope { return r.scope }

// Name returns the referenced name.
func (r Ref) Name() string { return r.name }

func unresolved(name string) *errors.Failure {
	return &errors.Failure{Kind: errors.UnresolvedIdentifier, Name: name}
}
