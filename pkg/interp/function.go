package interp

import (
	"strconv"

	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/scope"
	"jscore/pkg/source"
)

// closure is the Internal data of a script function.
type closure struct {
	fn     *parser.FunctionLiteral
	scope  *scope.Scope
	source string
}

// Source renders the function's source text.
func (c *closure) Source() string { return c.fn.String() }

// FunctionSource returns the source text of a script function, or "" for
// native functions.
func FunctionSource(o *object.Object) (string, bool) {
	if src, ok := o.Internal.(object.Sourcer); ok {
		return src.Source(), true
	}
	return "", false
}

// makeFunction creates a function object for fn closing over sc.
func (in *Interpreter) makeFunction(fn *parser.FunctionLiteral, sc *scope.Scope, sourceName string) *object.Object {
	cl := &closure{fn: fn, scope: sc, source: sourceName}
	var f *object.Object
	f = object.NewFunction(in.realm.FunctionPrototype, fn.FunctionName(),
		func(this object.Value, args []object.Value) (object.Value, error) {
			return in.callClosure(f, cl, this, args)
		},
		func(args []object.Value) (object.Value, error) {
			return in.constructClosure(f, cl, args)
		})
	f.Internal = cl

	proto := object.New("Object", in.realm.ObjectPrototype)
	in.model.DefineValue(proto, "constructor", object.FromObject(f), object.DontEnum)
	in.model.DefineValue(f, "prototype", object.FromObject(proto), object.Permanent)
	in.model.DefineValue(f, "length", object.Int(len(fn.Parameters)), object.Sealed)
	in.model.DefineValue(f, "name", object.String(fn.FunctionName()), object.Sealed)
	return f
}

// callClosure runs a script function body in a fresh function scope whose
// parent is the scope the function was created in.
func (in *Interpreter) callClosure(f *object.Object, cl *closure, this object.Value, args []object.Value) (object.Value, error) {
	if in.opts.MaxCallDepth > 0 && in.chain.Depth() > in.opts.MaxCallDepth {
		return object.Undefined, ErrCallDepth
	}
	debugPrintf("call %s depth=%d", cl.fn.FunctionName(), in.chain.Depth())

	savedThis, savedPlan, savedCompletion := in.this, in.plan, in.completion
	defer func() { in.this, in.plan, in.completion = savedThis, savedPlan, savedCompletion }()
	if this.IsAbsent() {
		this = object.FromObject(in.realm.GlobalObject)
	}
	in.this = this

	in.chain.PushFrame(cl.fn.FunctionName(), source.Location{Source: cl.source, Line: cl.fn.Line()})
	defer in.chain.PopFrame()

	result := object.Undefined
	err := in.chain.Within(scope.KindFunction, cl.scope, func(*scope.Scope) error {
		fn := cl.fn
		if !fn.Declaration && fn.Name != nil {
			in.chain.Bind(fn.Name.Value, object.FromObject(f))
		}
		hasArgumentsParam := false
		for i, p := range fn.Parameters {
			v := object.Undefined
			if i < len(args) {
				v = args[i]
			}
			in.chain.Bind(p.Value, v)
			hasArgumentsParam = hasArgumentsParam || p.Value == "arguments"
		}
		if !hasArgumentsParam {
			in.chain.Bind("arguments", object.FromObject(in.newArguments(args)))
		}

		in.plan = in.functionPlan(fn, cl.source)
		if err := in.chain.Hoist(in.declarations(in.plan)); err != nil {
			return err
		}
		c, err := in.execStatements(fn.Body.Statements)
		if err != nil {
			return err
		}
		if c.typ == returnCompletion {
			result = c.value
		}
		return nil
	})
	return result, err
}

func (in *Interpreter) constructClosure(f *object.Object, cl *closure, args []object.Value) (object.Value, error) {
	proto := in.realm.ObjectPrototype
	pv, err := in.model.Get(object.FromObject(f), "prototype")
	if err != nil {
		return object.Undefined, err
	}
	if pv.IsObject() {
		proto = pv.AsObject()
	}
	obj := object.New("Object", proto)
	res, err := in.callClosure(f, cl, object.FromObject(obj), args)
	if err != nil {
		return object.Undefined, err
	}
	if res.IsObject() {
		return res, nil
	}
	return object.FromObject(obj), nil
}

// newArguments builds the arguments object: enumerable indices and a
// non-enumerable length.
func (in *Interpreter) newArguments(args []object.Value) *object.Object {
	a := object.New("Arguments", in.realm.ObjectPrototype)
	for i, v := range args {
		in.model.DefineValue(a, strconv.Itoa(i), v, object.Empty)
	}
	in.model.DefineValue(a, "length", object.Int(len(args)), object.DontEnum)
	return a
}

// NewNativeConstructor creates a constructor function linked with proto
// through prototype and constructor properties.
func (in *Interpreter) NewNativeConstructor(name string, proto *object.Object, call object.CallFunc, construct object.ConstructFunc) *object.Object {
	ctor := object.NewFunction(in.realm.FunctionPrototype, name, call, construct)
	in.model.DefineValue(ctor, "name", object.String(name), object.Sealed)
	in.model.DefineValue(ctor, "prototype", object.FromObject(proto), object.Sealed)
	in.model.DefineValue(proto, "constructor", object.FromObject(ctor), object.DontEnum)
	return ctor
}

// CompileFunction parses a function from parameter and body text, as the
// Function constructor does. The function closes over the global scope.
func (in *Interpreter) CompileFunction(params, body string) (*object.Object, error) {
	src := source.NewUnit("anonymous", 1, "function anonymous("+params+") {\n"+body+"\n}")
	prog, errs := parser.Parse(src)
	if len(errs) > 0 {
		return nil, in.ThrowError("SyntaxError", errs[0].Message())
	}
	if len(prog.Statements) != 1 {
		return nil, in.ThrowError("SyntaxError", "invalid function body")
	}
	decl, ok := prog.Statements[0].(*parser.FunctionDeclaration)
	if !ok {
		return nil, in.ThrowError("SyntaxError", "invalid function body")
	}
	decl.Function.Declaration = false
	return in.makeFunction(decl.Function, in.chain.Global(), src.Name), nil
}
