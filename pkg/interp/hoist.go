package interp

import (
	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/scope"
	"jscore/pkg/source"
)

// plan lists the declarations of one function or script body, in source
// order. It only refers to AST nodes; values are created when the plan is
// applied.
type plan struct {
	source  string
	entries []planEntry
	// nested marks function statements that sit inside a block rather than
	// directly in the body.
	nested map[*parser.FunctionLiteral]bool
}

type planEntry struct {
	name string
	kind scope.DeclKind
	line int
	fn   *parser.FunctionLiteral
}

func (in *Interpreter) programPlan(prog *parser.Program) *plan {
	if p, ok := in.progPlans[prog]; ok {
		return p
	}
	name := ""
	if prog.Source != nil {
		name = prog.Source.Name
	}
	p := buildPlan(name, prog.Statements)
	if in.cachePlans() {
		in.progPlans[prog] = p
	}
	return p
}

func (in *Interpreter) functionPlan(fn *parser.FunctionLiteral, sourceName string) *plan {
	if p, ok := in.plans[fn]; ok {
		return p
	}
	p := buildPlan(sourceName, fn.Body.Statements)
	if in.cachePlans() {
		in.plans[fn] = p
	}
	return p
}

func buildPlan(sourceName string, body []parser.Statement) *plan {
	p := &plan{source: sourceName, nested: make(map[*parser.FunctionLiteral]bool)}
	for _, s := range body {
		p.collect(s, true)
	}
	return p
}

// collect walks s without entering nested function bodies. top is true for
// statements directly in the body.
func (p *plan) collect(s parser.Statement, top bool) {
	switch s := s.(type) {
	case *parser.VarStatement:
		p.collectVars(s, top)
	case *parser.FunctionDeclaration:
		kind := scope.DeclFunction
		if !top {
			kind = scope.DeclBlockFunction
			p.nested[s.Function] = true
		}
		p.entries = append(p.entries, planEntry{name: s.Function.FunctionName(), kind: kind, line: s.Line(), fn: s.Function})
	case *parser.BlockStatement:
		for _, inner := range s.Statements {
			p.collect(inner, false)
		}
	case *parser.IfStatement:
		p.collect(s.Consequence, false)
		if s.Alternative != nil {
			p.collect(s.Alternative, false)
		}
	case *parser.ForStatement:
		if vs, ok := s.Init.(*parser.VarStatement); ok {
			p.collectVars(vs, false)
		}
		p.collect(s.Body, false)
	case *parser.ForInStatement:
		if s.Decl != nil {
			p.collectVars(s.Decl, false)
		}
		p.collect(s.Body, false)
	case *parser.WhileStatement:
		p.collect(s.Body, false)
	case *parser.DoWhileStatement:
		p.collect(s.Body, false)
	case *parser.TryStatement:
		p.collect(s.Block, false)
		if s.Handler != nil {
			p.collect(s.Handler, false)
		}
		if s.Finalizer != nil {
			p.collect(s.Finalizer, false)
		}
	}
}

func (p *plan) collectVars(vs *parser.VarStatement, top bool) {
	if vs.Lexical() {
		// Nested let and const belong to their block.
		if !top {
			return
		}
		kind := lexicalKind(vs)
		for _, d := range vs.Declarations {
			p.entries = append(p.entries, planEntry{name: d.Name.Value, kind: kind, line: vs.Line()})
		}
		return
	}
	for _, d := range vs.Declarations {
		p.entries = append(p.entries, planEntry{name: d.Name.Value, kind: scope.DeclVar, line: vs.Line()})
	}
}

func lexicalKind(vs *parser.VarStatement) scope.DeclKind {
	if vs.Token.Literal == "const" {
		return scope.DeclConst
	}
	return scope.DeclLet
}

// declarations turns a plan into scope declarations whose function values
// close over the scope current at the time of hoisting.
func (in *Interpreter) declarations(p *plan) []scope.Declaration {
	decls := make([]scope.Declaration, len(p.entries))
	for i, e := range p.entries {
		d := scope.Declaration{
			Name: e.name,
			Kind: e.kind,
			Pos:  source.Location{Source: p.source, Line: e.line},
		}
		if e.fn != nil {
			fn := e.fn
			d.Init = func() (object.Value, error) {
				return object.FromObject(in.makeFunction(fn, in.chain.Current(), p.source)), nil
			}
		}
		decls[i] = d
	}
	return decls
}

// blockDeclarations returns the let and const declarations made directly
// in b.
func (in *Interpreter) blockDeclarations(b *parser.BlockStatement) []scope.Declaration {
	if decls, ok := in.blockPlans[b]; ok {
		return decls
	}
	var decls []scope.Declaration
	for _, s := range b.Statements {
		vs, ok := s.(*parser.VarStatement)
		if !ok || !vs.Lexical() {
			continue
		}
		for _, d := range vs.Declarations {
			decls = append(decls, scope.Declaration{Name: d.Name.Value, Kind: lexicalKind(vs), Pos: source.Location{Line: vs.Line()}})
		}
	}
	if in.cachePlans() {
		in.blockPlans[b] = decls
	}
	return decls
}
