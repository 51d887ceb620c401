// Package interp evaluates parsed programs against the property model and
// scope chain.
package interp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	pkgerrors "github.com/pkg/errors"

	"jscore/pkg/enum"
	"jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/scope"
	"jscore/pkg/source"
)

// --- Debug Flag ---
const debugInterp = false

func debugPrintf(format string, args ...interface{}) {
	if debugInterp {
		fmt.Printf("[Interp Debug] "+format+"\n", args...)
	}
}

// ctxPollInterval is how many statements run between context checks.
const ctxPollInterval = 1024

var (
	// ErrStepBudget is returned when an evaluation exceeds Options.MaxSteps.
	ErrStepBudget = pkgerrors.New("step budget exhausted")
	// ErrCallDepth is returned when nested calls exceed Options.MaxCallDepth.
	ErrCallDepth = pkgerrors.New("maximum call depth exceeded")
)

// Options configures an Interpreter.
type Options struct {
	Features features.Set
	// OptimizationLevel -1 recomputes declaration plans on every function
	// entry; 0 and above cache them per function.
	OptimizationLevel           int
	FailOnNonConfigurableDelete bool
	// MaxSteps bounds the statements executed per Run; 0 is unlimited.
	MaxSteps int64
	// MaxCallDepth bounds nested script calls; 0 is unlimited.
	MaxCallDepth int
	Logger       *slog.Logger
}

// Interpreter is a tree-walking evaluator. It is not safe for concurrent
// use.
type Interpreter struct {
	opts   Options
	model  *object.Model
	realm  *Realm
	chain  *scope.Chain
	logger *slog.Logger

	plans      map[*parser.FunctionLiteral]*plan
	progPlans  map[*parser.Program]*plan
	blockPlans map[*parser.BlockStatement][]scope.Declaration

	ctx        context.Context
	steps      int64
	totalSteps int64
	this       object.Value
	plan       *plan
	completion object.Value
}

// New creates an interpreter with a fresh realm. Builtins are installed
// separately.
func New(opts Options) *Interpreter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	model := object.NewModel(object.Options{
		Features:                    opts.Features,
		Order:                       enum.Policy(opts.Features),
		FailOnNonConfigurableDelete: opts.FailOnNonConfigurableDelete,
	})
	realm := NewRealm()
	realm.InitializePrototypes()
	model.SetPrimitivePrototype(object.KindString, realm.StringPrototype)
	model.SetPrimitivePrototype(object.KindNumber, realm.NumberPrototype)
	model.SetPrimitivePrototype(object.KindBoolean, realm.BooleanPrototype)

	in := &Interpreter{
		opts:       opts,
		model:      model,
		realm:      realm,
		chain:      scope.NewChain(model, realm.GlobalObject, opts.Features),
		logger:     logger,
		plans:      make(map[*parser.FunctionLiteral]*plan),
		progPlans:  make(map[*parser.Program]*plan),
		blockPlans: make(map[*parser.BlockStatement][]scope.Declaration),
		ctx:        context.Background(),
		this:       object.FromObject(realm.GlobalObject),
		completion: object.Undefined,
	}
	return in
}

// Model returns the property model.
func (in *Interpreter) Model() *object.Model { return in.model }

// Realm returns the intrinsics.
func (in *Interpreter) Realm() *Realm { return in.realm }

// Chain returns the scope chain.
func (in *Interpreter) Chain() *scope.Chain { return in.chain }

// Features returns the active feature set.
func (in *Interpreter) Features() features.Set { return in.opts.Features }

// Global returns the global object.
func (in *Interpreter) Global() *object.Object { return in.realm.GlobalObject }

// Steps returns the number of statements executed over the interpreter's
// lifetime.
func (in *Interpreter) Steps() int64 { return in.totalSteps }

// cachePlans reports whether declaration plans are reused across calls.
func (in *Interpreter) cachePlans() bool { return in.opts.OptimizationLevel >= 0 }

// Run evaluates a program in the global scope and returns the completion
// value of the last expression statement executed.
func (in *Interpreter) Run(ctx context.Context, prog *parser.Program) (object.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	in.ctx = ctx
	in.steps = 0
	in.completion = object.Undefined
	in.this = object.FromObject(in.realm.GlobalObject)

	name, line := "", 1
	if prog.Source != nil {
		name, line = prog.Source.Name, prog.Source.StartLine
	}
	in.chain.PushFrame("", source.Location{Source: name, Line: line})
	defer in.chain.PopFrame()

	savedPlan := in.plan
	defer func() { in.plan = savedPlan }()
	in.plan = in.programPlan(prog)
	if err := in.chain.Hoist(in.declarations(in.plan)); err != nil {
		return object.Undefined, err
	}

	if _, err := in.execStatements(prog.Statements); err != nil {
		return object.Undefined, err
	}
	return in.completion, nil
}

// tick accounts for one executed statement and enforces the step budget
// and cancellation.
func (in *Interpreter) tick() error {
	in.steps++
	in.totalSteps++
	if in.opts.MaxSteps > 0 && in.steps > in.opts.MaxSteps {
		return ErrStepBudget
	}
	if in.steps%ctxPollInterval == 0 {
		if err := in.ctx.Err(); err != nil {
			return pkgerrors.Wrap(err, "evaluation interrupted")
		}
	}
	return nil
}

// at records that the innermost frame is executing n's line, so a failure
// raised by the next operation is reported where that operation appears.
func (in *Interpreter) at(n parser.Node) {
	in.chain.SetLine(n.Line())
}

// locate attaches the current location and stack to a failure carried by
// err.
func (in *Interpreter) locate(err error) error {
	return errors.Locate(err, in.chain.Location(), in.chain.Snapshot)
}

// --- Conversions that may run script code ---

// ToPrimitive converts objects by calling valueOf and toString (toString
// first when hint is "string").
func (in *Interpreter) ToPrimitive(v object.Value, hint string) (object.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	order := [2]string{"valueOf", "toString"}
	if hint == "string" {
		order = [2]string{"toString", "valueOf"}
	}
	for _, name := range order {
		m, err := in.model.Get(v, name)
		if err != nil {
			return object.Undefined, err
		}
		if !m.IsCallable() {
			continue
		}
		r, err := m.AsObject().Call(v, nil)
		if err != nil {
			return object.Undefined, err
		}
		if !r.IsObject() {
			return r, nil
		}
	}
	return object.Undefined, in.ThrowTypeError("Cannot convert object to primitive value")
}

// ToString implements ToString, including object conversion.
func (in *Interpreter) ToString(v object.Value) (string, error) {
	p, err := in.ToPrimitive(v, "string")
	if err != nil {
		return "", err
	}
	return object.DisplayString(p), nil
}

// ToNumber implements ToNumber, including object conversion.
func (in *Interpreter) ToNumber(v object.Value) (float64, error) {
	p, err := in.ToPrimitive(v, "number")
	if err != nil {
		return math.NaN(), err
	}
	return object.ToNumber(p), nil
}

// ToObject returns the object a property access on v starts from. Absent
// values yield nil.
func (in *Interpreter) ToObject(v object.Value) *object.Object {
	switch v.Kind() {
	case object.KindObject:
		return v.AsObject()
	case object.KindUndefined, object.KindNull:
		return nil
	}
	return in.model.PrimitivePrototype(v.Kind())
}

// Call invokes fn with the given receiver. fn must be callable.
func (in *Interpreter) Call(fn object.Value, this object.Value, args []object.Value) (object.Value, error) {
	if !fn.IsCallable() {
		return object.Undefined, &errors.Failure{Kind: errors.NotCallable, Name: object.DisplayString(fn), Value: object.TypeOf(fn)}
	}
	return fn.AsObject().Call(this, args)
}
