package interp

import (
	"math"
	"strconv"
	"strings"

	"jscore/pkg/errors"
	"jscore/pkg/object"
	"jscore/pkg/parser"
)

func (in *Interpreter) eval(expr parser.Expression) (object.Value, error) {
	switch e := expr.(type) {
	case *parser.Identifier:
		in.at(e)
		return in.chain.Lookup(e.Value)
	case *parser.NumberLiteral:
		return object.Number(e.Value), nil
	case *parser.StringLiteral:
		return object.String(e.Value), nil
	case *parser.BooleanLiteral:
		return object.Bool(e.Value), nil
	case *parser.NullLiteral:
		return object.Null, nil
	case *parser.ThisExpression:
		return in.this, nil
	case *parser.RegexLiteral:
		return in.evalRegex(e)
	case *parser.ArrayLiteral:
		return in.evalArray(e)
	case *parser.ObjectLiteral:
		return in.evalObject(e)
	case *parser.FunctionLiteral:
		src := ""
		if in.plan != nil {
			src = in.plan.source
		}
		return object.FromObject(in.makeFunction(e, in.chain.Current(), src)), nil
	case *parser.PrefixExpression:
		return in.evalPrefix(e)
	case *parser.UpdateExpression:
		return in.evalUpdate(e)
	case *parser.InfixExpression:
		return in.evalInfix(e)
	case *parser.AssignmentExpression:
		return in.evalAssignment(e)
	case *parser.ConditionalExpression:
		cond, err := in.eval(e.Condition)
		if err != nil {
			return object.Undefined, err
		}
		if object.ToBoolean(cond) {
			return in.eval(e.Consequence)
		}
		return in.eval(e.Alternative)
	case *parser.SequenceExpression:
		var v object.Value
		for _, sub := range e.Expressions {
			var err error
			if v, err = in.eval(sub); err != nil {
				return object.Undefined, err
			}
		}
		return v, nil
	case *parser.CallExpression:
		return in.evalCall(e)
	case *parser.NewExpression:
		return in.evalNew(e)
	case *parser.MemberExpression:
		obj, err := in.eval(e.Object)
		if err != nil {
			return object.Undefined, err
		}
		in.at(e)
		return in.model.Get(obj, e.Property.Value)
	case *parser.IndexExpression:
		obj, key, err := in.evalIndexTarget(e)
		if err != nil {
			return object.Undefined, err
		}
		in.at(e)
		return in.model.Get(obj, key)
	}
	return object.Undefined, in.ThrowError("SyntaxError", "unsupported expression "+expr.String())
}

// evalIndexTarget evaluates the receiver and property key of o[k].
func (in *Interpreter) evalIndexTarget(e *parser.IndexExpression) (object.Value, string, error) {
	obj, err := in.eval(e.Object)
	if err != nil {
		return object.Undefined, "", err
	}
	kv, err := in.eval(e.Index)
	if err != nil {
		return object.Undefined, "", err
	}
	key, err := in.ToString(kv)
	if err != nil {
		return object.Undefined, "", err
	}
	return obj, key, nil
}

func (in *Interpreter) evalRegex(e *parser.RegexLiteral) (object.Value, error) {
	ctor := in.realm.RegExpConstructor
	if ctor == nil || !ctor.Constructible() {
		return object.Undefined, in.ThrowError("SyntaxError", "regular expressions are not available")
	}
	return ctor.Construct([]object.Value{object.String(e.Pattern), object.String(e.Flags)})
}

func (in *Interpreter) evalArray(e *parser.ArrayLiteral) (object.Value, error) {
	arr := in.model.NewArray(in.realm.ArrayPrototype, nil)
	for i, el := range e.Elements {
		if el == nil {
			continue
		}
		v, err := in.eval(el)
		if err != nil {
			return object.Undefined, err
		}
		in.model.DefineValue(arr, strconv.Itoa(i), v, object.Empty)
	}
	in.model.DefineValue(arr, "length", object.Int(len(e.Elements)), object.Permanent)
	return object.FromObject(arr), nil
}

func (in *Interpreter) evalObject(e *parser.ObjectLiteral) (object.Value, error) {
	o := object.New("Object", in.realm.ObjectPrototype)
	src := ""
	if in.plan != nil {
		src = in.plan.source
	}
	for _, p := range e.Properties {
		switch p.Kind {
		case parser.PropertyInit:
			v, err := in.eval(p.Value)
			if err != nil {
				return object.Undefined, err
			}
			in.model.DefineValue(o, p.Key, v, object.Empty)
		case parser.PropertyGet, parser.PropertySet:
			fn := in.makeFunction(p.Value.(*parser.FunctionLiteral), in.chain.Current(), src)
			var get object.Getter
			var set object.Setter
			if existing, ok := o.OwnProperty(p.Key); ok && existing.Accessor {
				get, set = existing.Get, existing.Set
			}
			if p.Kind == parser.PropertyGet {
				get = func(this object.Value) (object.Value, error) {
					return fn.Call(this, nil)
				}
			} else {
				set = func(this object.Value, v object.Value) error {
					_, err := fn.Call(this, []object.Value{v})
					return err
				}
			}
			in.model.DefineAccessor(o, p.Key, get, set, object.Enumerable|object.Configurable)
		}
	}
	return object.FromObject(o), nil
}

func (in *Interpreter) evalPrefix(e *parser.PrefixExpression) (object.Value, error) {
	switch e.Operator {
	case "typeof":
		if id, ok := e.Right.(*parser.Identifier); ok {
			if _, found := in.chain.Resolve(id.Value); !found {
				return object.String("undefined"), nil
			}
		}
		v, err := in.eval(e.Right)
		if err != nil {
			return object.Undefined, err
		}
		return object.String(object.TypeOf(v)), nil
	case "delete":
		return in.evalDelete(e.Right)
	}

	v, err := in.eval(e.Right)
	if err != nil {
		return object.Undefined, err
	}
	switch e.Operator {
	case "void":
		return object.Undefined, nil
	case "!":
		return object.Bool(!object.ToBoolean(v)), nil
	case "-":
		n, err := in.ToNumber(v)
		return object.Number(-n), err
	case "+":
		n, err := in.ToNumber(v)
		return object.Number(n), err
	}
	return object.Undefined, in.ThrowError("SyntaxError", "unknown operator "+e.Operator)
}

func (in *Interpreter) evalDelete(target parser.Expression) (object.Value, error) {
	switch t := target.(type) {
	case *parser.MemberExpression:
		obj, err := in.eval(t.Object)
		if err != nil {
			return object.Undefined, err
		}
		in.at(t)
		ok, err := in.model.Delete(obj, t.Property.Value)
		return object.Bool(ok), err
	case *parser.IndexExpression:
		obj, key, err := in.evalIndexTarget(t)
		if err != nil {
			return object.Undefined, err
		}
		in.at(t)
		ok, err := in.model.Delete(obj, key)
		return object.Bool(ok), err
	case *parser.Identifier:
		// Declared bindings cannot be deleted; implicit globals can.
		ref, found := in.chain.Resolve(t.Value)
		if !found {
			return object.True, nil
		}
		if ref.Scope() == in.chain.Global() && !ref.Scope().HasOwn(t.Value) {
			ok, err := in.model.Delete(object.FromObject(in.realm.GlobalObject), t.Value)
			return object.Bool(ok), err
		}
		return object.False, nil
	}
	if _, err := in.eval(target); err != nil {
		return object.Undefined, err
	}
	return object.True, nil
}

func (in *Interpreter) evalUpdate(e *parser.UpdateExpression) (object.Value, error) {
	old, store, err := in.reference(e.Argument)
	if err != nil {
		return object.Undefined, err
	}
	n, err := in.ToNumber(old)
	if err != nil {
		return object.Undefined, err
	}
	next := n + 1
	if e.Operator == "--" {
		next = n - 1
	}
	if err := store(object.Number(next)); err != nil {
		return object.Undefined, err
	}
	if e.Prefix {
		return object.Number(next), nil
	}
	return object.Number(n), nil
}

// reference evaluates an assignable expression, returning its current
// value and a function that stores a new one.
func (in *Interpreter) reference(target parser.Expression) (object.Value, func(object.Value) error, error) {
	switch t := target.(type) {
	case *parser.Identifier:
		in.at(t)
		v, err := in.chain.Lookup(t.Value)
		if err != nil {
			return object.Undefined, nil, err
		}
		return v, func(nv object.Value) error {
			in.at(t)
			return in.chain.Assign(t.Value, nv)
		}, nil
	case *parser.MemberExpression:
		obj, err := in.eval(t.Object)
		if err != nil {
			return object.Undefined, nil, err
		}
		in.at(t)
		v, err := in.model.Get(obj, t.Property.Value)
		if err != nil {
			return object.Undefined, nil, err
		}
		return v, func(nv object.Value) error {
			in.at(t)
			return in.model.Set(obj, t.Property.Value, nv)
		}, nil
	case *parser.IndexExpression:
		obj, key, err := in.evalIndexTarget(t)
		if err != nil {
			return object.Undefined, nil, err
		}
		in.at(t)
		v, err := in.model.Get(obj, key)
		if err != nil {
			return object.Undefined, nil, err
		}
		return v, func(nv object.Value) error {
			in.at(t)
			return in.model.Set(obj, key, nv)
		}, nil
	}
	return object.Undefined, nil, in.ThrowError("ReferenceError", "invalid assignment target "+target.String())
}

// assignTo stores v into target without reading it first.
func (in *Interpreter) assignTo(target parser.Expression, v object.Value) error {
	switch t := target.(type) {
	case *parser.Identifier:
		in.at(t)
		return in.chain.Assign(t.Value, v)
	case *parser.MemberExpression:
		obj, err := in.eval(t.Object)
		if err != nil {
			return err
		}
		in.at(t)
		return in.model.Set(obj, t.Property.Value, v)
	case *parser.IndexExpression:
		obj, key, err := in.evalIndexTarget(t)
		if err != nil {
			return err
		}
		in.at(t)
		return in.model.Set(obj, key, v)
	}
	return in.ThrowError("ReferenceError", "invalid assignment target "+target.String())
}

func (in *Interpreter) evalAssignment(e *parser.AssignmentExpression) (object.Value, error) {
	if e.Operator == "=" {
		// The receiver and key are evaluated before the value, and the
		// value before the write, so a failed write reports the value.
		switch t := e.Target.(type) {
		case *parser.Identifier:
			v, err := in.eval(e.Value)
			if err != nil {
				return object.Undefined, err
			}
			in.at(t)
			return v, in.chain.Assign(t.Value, v)
		case *parser.MemberExpression:
			obj, err := in.eval(t.Object)
			if err != nil {
				return object.Undefined, err
			}
			v, err := in.eval(e.Value)
			if err != nil {
				return object.Undefined, err
			}
			in.at(t)
			return v, in.model.Set(obj, t.Property.Value, v)
		case *parser.IndexExpression:
			obj, key, err := in.evalIndexTarget(t)
			if err != nil {
				return object.Undefined, err
			}
			v, err := in.eval(e.Value)
			if err != nil {
				return object.Undefined, err
			}
			in.at(t)
			return v, in.model.Set(obj, key, v)
		}
		return object.Undefined, in.ThrowError("ReferenceError", "invalid assignment target "+e.Target.String())
	}

	old, store, err := in.reference(e.Target)
	if err != nil {
		return object.Undefined, err
	}
	rhs, err := in.eval(e.Value)
	if err != nil {
		return object.Undefined, err
	}
	v, err := in.binary(strings.TrimSuffix(e.Operator, "="), old, rhs)
	if err != nil {
		return object.Undefined, err
	}
	return v, store(v)
}

func (in *Interpreter) evalInfix(e *parser.InfixExpression) (object.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return object.Undefined, err
	}
	switch e.Operator {
	case "&&":
		if !object.ToBoolean(left) {
			return left, nil
		}
		return in.eval(e.Right)
	case "||":
		if object.ToBoolean(left) {
			return left, nil
		}
		return in.eval(e.Right)
	}
	right, err := in.eval(e.Right)
	if err != nil {
		return object.Undefined, err
	}
	return in.binary(e.Operator, left, right)
}

// binary applies a non-short-circuit binary operator.
func (in *Interpreter) binary(op string, left, right object.Value) (object.Value, error) {
	switch op {
	case "===":
		return object.Bool(object.StrictEquals(left, right)), nil
	case "!==":
		return object.Bool(!object.StrictEquals(left, right)), nil
	case "==", "!=":
		eq, err := in.looseEquals(left, right)
		if err != nil {
			return object.Undefined, err
		}
		return object.Bool(eq == (op == "==")), nil
	case "in":
		if !right.IsObject() {
			return object.Undefined, in.ThrowTypeError("Invalid use of 'in' operator on " + object.DisplayString(right))
		}
		key, err := in.ToString(left)
		if err != nil {
			return object.Undefined, err
		}
		return object.Bool(in.model.Has(right.AsObject(), key)), nil
	case "instanceof":
		if !right.IsCallable() {
			return object.Undefined, in.ThrowTypeError("Right-hand side of instanceof is not callable")
		}
		if !left.IsObject() {
			return object.False, nil
		}
		proto, err := in.model.Get(right, "prototype")
		if err != nil {
			return object.Undefined, err
		}
		if !proto.IsObject() {
			return object.False, nil
		}
		return object.Bool(left.AsObject().InstanceOf(proto.AsObject())), nil
	}

	lp, err := in.ToPrimitive(left, "")
	if err != nil {
		return object.Undefined, err
	}
	rp, err := in.ToPrimitive(right, "")
	if err != nil {
		return object.Undefined, err
	}

	switch op {
	case "+":
		if lp.IsString() || rp.IsString() {
			return object.String(object.DisplayString(lp) + object.DisplayString(rp)), nil
		}
		return object.Number(object.ToNumber(lp) + object.ToNumber(rp)), nil
	case "<", ">", "<=", ">=":
		return object.Bool(compare(op, lp, rp)), nil
	}

	a, b := object.ToNumber(lp), object.ToNumber(rp)
	switch op {
	case "-":
		return object.Number(a - b), nil
	case "*":
		return object.Number(a * b), nil
	case "/":
		return object.Number(a / b), nil
	case "%":
		return object.Number(math.Mod(a, b)), nil
	}
	return object.Undefined, in.ThrowError("SyntaxError", "unknown operator "+op)
}

func compare(op string, a, b object.Value) bool {
	if a.IsString() && b.IsString() {
		x, y := a.AsString(), b.AsString()
		switch op {
		case "<":
			return x < y
		case ">":
			return x > y
		case "<=":
			return x <= y
		}
		return x >= y
	}
	x, y := object.ToNumber(a), object.ToNumber(b)
	switch op {
	case "<":
		return x < y
	case ">":
		return x > y
	case "<=":
		return x <= y
	}
	return x >= y
}

func (in *Interpreter) looseEquals(a, b object.Value) (bool, error) {
	if a.IsObject() != b.IsObject() && !a.IsAbsent() && !b.IsAbsent() {
		var err error
		if a, err = in.ToPrimitive(a, ""); err != nil {
			return false, err
		}
		if b, err = in.ToPrimitive(b, ""); err != nil {
			return false, err
		}
	}
	return object.LooseEquals(a, b), nil
}

func (in *Interpreter) evalArgs(args []parser.Expression) ([]object.Value, error) {
	out := make([]object.Value, len(args))
	for i, a := range args {
		v, err := in.eval(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (in *Interpreter) evalCall(e *parser.CallExpression) (object.Value, error) {
	var fn, this object.Value
	var err error
	switch callee := e.Function.(type) {
	case *parser.MemberExpression:
		if this, err = in.eval(callee.Object); err != nil {
			return object.Undefined, err
		}
		in.at(callee)
		fn, err = in.model.GetMethod(this, callee.Property.Value)
	case *parser.IndexExpression:
		var key string
		if this, key, err = in.evalIndexTarget(callee); err != nil {
			return object.Undefined, err
		}
		in.at(callee)
		fn, err = in.model.GetMethod(this, key)
	default:
		this = object.Undefined
		fn, err = in.eval(callee)
	}
	if err != nil {
		return object.Undefined, err
	}

	args, err := in.evalArgs(e.Arguments)
	if err != nil {
		return object.Undefined, err
	}
	in.at(e)
	if !fn.IsCallable() {
		return object.Undefined, &errors.Failure{Kind: errors.NotCallable, Name: e.Function.String(), Value: object.TypeOf(fn)}
	}
	return fn.AsObject().Call(this, args)
}

func (in *Interpreter) evalNew(e *parser.NewExpression) (object.Value, error) {
	ctor, err := in.eval(e.Constructor)
	if err != nil {
		return object.Undefined, err
	}
	args, err := in.evalArgs(e.Arguments)
	if err != nil {
		return object.Undefined, err
	}
	in.at(e)
	if !ctor.IsObject() || !ctor.AsObject().Constructible() {
		return object.Undefined, &errors.Failure{Kind: errors.NotConstructor, Name: e.Constructor.String()}
	}
	return ctor.AsObject().Construct(args)
}
