package interp

import (
	"strconv"

	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/scope"
)

type completionType uint8

const (
	normalCompletion completionType = iota
	returnCompletion
	breakCompletion
	continueCompletion
)

// completion is the outcome of executing a statement.
type completion struct {
	typ   completionType
	value object.Value
}

var normal = completion{}

func (in *Interpreter) execStatements(stmts []parser.Statement) (completion, error) {
	for _, s := range stmts {
		c, err := in.execStatement(s)
		if err != nil || c.typ != normalCompletion {
			return c, err
		}
	}
	return normal, nil
}

func (in *Interpreter) execStatement(stmt parser.Statement) (completion, error) {
	if err := in.tick(); err != nil {
		return normal, err
	}
	in.chain.SetLine(stmt.Line())
	c, err := in.exec(stmt)
	if err != nil {
		return c, in.locate(err)
	}
	return c, nil
}

func (in *Interpreter) exec(stmt parser.Statement) (completion, error) {
	switch s := stmt.(type) {
	case *parser.ExpressionStatement:
		v, err := in.eval(s.Expression)
		if err != nil {
			return normal, err
		}
		in.completion = v
		return normal, nil

	case *parser.VarStatement:
		return normal, in.execVar(s)

	case *parser.FunctionDeclaration:
		// Only block-nested statements without forward hoisting bind here;
		// everything else was bound on entry.
		if in.plan != nil && in.plan.nested[s.Function] && !in.Features().Has(features.ForwardHoistNestedFunctionDeclarations) {
			f := in.makeFunction(s.Function, in.chain.Current(), in.plan.source)
			in.chain.DeclareBlockFunction(s.Function.FunctionName(), object.FromObject(f))
		}
		return normal, nil

	case *parser.BlockStatement:
		return in.execBlock(s)

	case *parser.EmptyStatement:
		return normal, nil

	case *parser.IfStatement:
		cond, err := in.eval(s.Condition)
		if err != nil {
			return normal, err
		}
		if object.ToBoolean(cond) {
			return in.execStatement(s.Consequence)
		}
		if s.Alternative != nil {
			return in.execStatement(s.Alternative)
		}
		return normal, nil

	case *parser.ForStatement:
		if vs, ok := s.Init.(*parser.VarStatement); ok && vs.Lexical() {
			var c completion
			err := in.chain.Within(scope.KindBlock, nil, func(*scope.Scope) error {
				var err error
				c, err = in.execFor(s)
				return err
			})
			return c, err
		}
		return in.execFor(s)

	case *parser.ForInStatement:
		if s.Decl != nil && s.Decl.Lexical() {
			var c completion
			err := in.chain.Within(scope.KindBlock, nil, func(*scope.Scope) error {
				var err error
				c, err = in.execForIn(s)
				return err
			})
			return c, err
		}
		return in.execForIn(s)

	case *parser.WhileStatement:
		for {
			in.chain.SetLine(s.Line())
			cond, err := in.eval(s.Condition)
			if err != nil {
				return normal, err
			}
			if !object.ToBoolean(cond) {
				return normal, nil
			}
			c, err := in.execStatement(s.Body)
			if brk, ret := loopControl(c, err); brk {
				return ret, err
			}
		}

	case *parser.DoWhileStatement:
		for {
			c, err := in.execStatement(s.Body)
			if brk, ret := loopControl(c, err); brk {
				return ret, err
			}
			in.chain.SetLine(s.Condition.Line())
			cond, err := in.eval(s.Condition)
			if err != nil {
				return normal, err
			}
			if !object.ToBoolean(cond) {
				return normal, nil
			}
		}

	case *parser.BreakStatement:
		return completion{typ: breakCompletion}, nil

	case *parser.ContinueStatement:
		return completion{typ: continueCompletion}, nil

	case *parser.ReturnStatement:
		if s.ReturnValue == nil {
			return completion{typ: returnCompletion, value: object.Undefined}, nil
		}
		v, err := in.eval(s.ReturnValue)
		if err != nil {
			return normal, err
		}
		return completion{typ: returnCompletion, value: v}, nil

	case *parser.ThrowStatement:
		v, err := in.eval(s.Value)
		if err != nil {
			return normal, err
		}
		in.at(s)
		return normal, &Exception{Value: v, Location: in.chain.Location(), Frames: in.chain.Snapshot()}

	case *parser.TryStatement:
		return in.execTry(s)
	}
	return normal, in.ThrowError("SyntaxError", "unsupported statement "+stmt.TokenLiteral())
}

// loopControl interprets a loop body's completion. brk is true when the
// loop must stop and return ret.
func loopControl(c completion, err error) (brk bool, ret completion) {
	if err != nil {
		return true, c
	}
	switch c.typ {
	case breakCompletion:
		return true, normal
	case returnCompletion:
		return true, c
	}
	return false, normal
}

func (in *Interpreter) execVar(s *parser.VarStatement) error {
	lexical := s.Lexical()
	for _, d := range s.Declarations {
		if d.Value == nil {
			if lexical {
				in.chain.Initialize(d.Name.Value, object.Undefined)
			}
			continue
		}
		v, err := in.eval(d.Value)
		if err != nil {
			return err
		}
		if lexical {
			in.chain.Initialize(d.Name.Value, v)
			continue
		}
		if err := in.chain.Assign(d.Name.Value, v); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execBlock(b *parser.BlockStatement) (completion, error) {
	decls := in.blockDeclarations(b)
	if len(decls) == 0 {
		return in.execStatements(b.Statements)
	}
	var c completion
	err := in.chain.Within(scope.KindBlock, nil, func(*scope.Scope) error {
		if err := in.chain.Hoist(decls); err != nil {
			return err
		}
		var err error
		c, err = in.execStatements(b.Statements)
		return err
	})
	return c, err
}

func (in *Interpreter) execFor(s *parser.ForStatement) (completion, error) {
	if s.Init != nil {
		if vs, ok := s.Init.(*parser.VarStatement); ok {
			if err := in.execVar(vs); err != nil {
				return normal, err
			}
		} else if _, err := in.exec(s.Init); err != nil {
			return normal, err
		}
	}
	for {
		if s.Condition != nil {
			in.chain.SetLine(s.Condition.Line())
			cond, err := in.eval(s.Condition)
			if err != nil {
				return normal, err
			}
			if !object.ToBoolean(cond) {
				return normal, nil
			}
		}
		c, err := in.execStatement(s.Body)
		if brk, ret := loopControl(c, err); brk {
			return ret, err
		}
		if s.Update != nil {
			in.chain.SetLine(s.Update.Line())
			if _, err := in.eval(s.Update); err != nil {
				return normal, err
			}
		}
	}
}

func (in *Interpreter) execForIn(s *parser.ForInStatement) (completion, error) {
	v, err := in.eval(s.Object)
	if err != nil {
		return normal, err
	}
	var keys []string
	var obj *object.Object
	switch {
	case v.IsAbsent():
		return normal, nil
	case v.IsObject():
		obj = v.AsObject()
		keys = in.model.EnumerableKeys(obj)
	case v.IsString():
		for i := range []rune(v.AsString()) {
			keys = append(keys, strconv.Itoa(i))
		}
	}

	for _, k := range keys {
		// Keys deleted during the loop are skipped.
		if obj != nil && !in.model.Has(obj, k) {
			continue
		}
		key := object.String(k)
		switch {
		case s.Decl != nil && s.Decl.Lexical():
			in.chain.Initialize(s.Decl.Declarations[0].Name.Value, key)
		case s.Decl != nil:
			err = in.chain.Assign(s.Decl.Declarations[0].Name.Value, key)
		default:
			err = in.assignTo(s.Target, key)
		}
		if err != nil {
			return normal, err
		}
		c, err := in.execStatement(s.Body)
		if brk, ret := loopControl(c, err); brk {
			return ret, err
		}
	}
	return normal, nil
}

func (in *Interpreter) execTry(s *parser.TryStatement) (completion, error) {
	c, err := in.execBlock(s.Block)
	if err != nil && s.Handler != nil {
		if v, ok := in.catchable(err); ok {
			c, err = in.execCatch(s, v)
		}
	}
	if s.Finalizer != nil {
		fc, ferr := in.execBlock(s.Finalizer)
		if ferr != nil || fc.typ != normalCompletion {
			return fc, ferr
		}
	}
	return c, err
}

func (in *Interpreter) execCatch(s *parser.TryStatement, v object.Value) (completion, error) {
	var c completion
	err := in.chain.Within(scope.KindCatch, nil, func(*scope.Scope) error {
		if s.Param != nil {
			in.chain.Bind(s.Param.Value, v)
		}
		var err error
		c, err = in.execBlock(s.Handler)
		return err
	})
	return c, err
}
