// Package driver runs scripts in persistent evaluation sessions.
//
// A Session owns one interpreter with the standard library installed. State
// defined by one Evaluate call (globals, functions, host classes) is visible
// to later calls on the same session.
package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"jscore/pkg/builtins"
	"jscore/pkg/config"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/interp"
	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the logger session records are written to. Every record
// carries the session id.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithConsole installs a console object whose output goes to w.
func WithConsole(w io.Writer) Option {
	return func(s *Session) { s.console = w }
}

type programKey struct {
	name string
	line int
	code string
}

// Session is a persistent evaluation context. It is not safe for concurrent
// use; independent sessions may run concurrently.
type Session struct {
	ID uuid.UUID

	cfg      config.Config
	logger   *slog.Logger
	console  io.Writer
	in       *interp.Interpreter
	classes  map[string]*object.Object
	programs map[programKey]*parser.Program
	stats    Stats
}

// NewSession validates cfg and creates a session with the standard library
// installed.
func NewSession(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	s := &Session{
		ID:       uuid.New(),
		cfg:      cfg,
		classes:  make(map[string]*object.Object),
		programs: make(map[programKey]*parser.Program),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("session", s.ID.String())

	s.in = interp.New(interp.Options{
		Features:                    cfg.Features,
		OptimizationLevel:           cfg.OptimizationLevel,
		FailOnNonConfigurableDelete: cfg.FailOnNonConfigurableDelete,
		MaxSteps:                    cfg.MaxSteps,
		MaxCallDepth:                cfg.MaxCallDepth,
		Logger:                      s.logger,
	})
	var extra []builtins.BuiltinInitializer
	if s.console != nil {
		extra = append(extra, &builtins.ConsoleInitializer{Out: s.console})
	}
	if err := builtins.Install(s.in, extra...); err != nil {
		return nil, errors.Wrap(err, "install builtins")
	}
	s.logger.Debug("session created",
		"features", cfg.Features.String(),
		"optimizationLevel", cfg.OptimizationLevel)
	return s, nil
}

// Config returns the configuration the session was created with.
func (s *Session) Config() config.Config { return s.cfg }

// Interpreter exposes the underlying interpreter to hosts that need the
// property model or scope chain directly.
func (s *Session) Interpreter() *interp.Interpreter { return s.in }

// Global returns the global object.
func (s *Session) Global() *object.Object { return s.in.Global() }

// Parse parses src. At optimization level 0 and above parsed programs are
// cached by name, starting line and content.
func (s *Session) Parse(src *source.SourceFile) (*parser.Program, error) {
	key := programKey{src.Name, src.StartLine, src.Content}
	if prog, ok := s.programs[key]; ok {
		s.stats.CacheHits++
		return prog, nil
	}
	prog, errs := parser.Parse(src)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if !s.cfg.Interpreted() {
		s.programs[key] = prog
	}
	return prog, nil
}

// Evaluate runs code as a script unit named name whose first line is line
// and returns its completion value.
//
// Uncaught runtime failures are returned as *EcmaError, other uncaught
// throws as *JavaScriptException and parse errors as *errors.SyntaxError.
// Cancellation of ctx and exhausted budgets are returned as plain errors.
func (s *Session) Evaluate(ctx context.Context, name string, line int, code string) (object.Value, error) {
	return s.EvaluateSource(ctx, source.NewUnit(name, line, code))
}

// EvaluateSource is Evaluate for a prepared source unit.
func (s *Session) EvaluateSource(ctx context.Context, src *source.SourceFile) (object.Value, error) {
	start := time.Now()
	name := src.Name
	s.stats.Evaluations++
	s.logger.Debug("evaluate", "source", name, "line", src.StartLine)

	prog, err := s.Parse(src)
	if err != nil {
		s.stats.Failures++
		return object.Undefined, err
	}
	before := s.in.Steps()
	v, err := s.in.Run(ctx, prog)
	s.stats.Steps += s.in.Steps() - before
	s.stats.Elapsed += time.Since(start)
	if err != nil {
		s.stats.Failures++
		err = s.convert(err)
		s.logger.Debug("evaluation failed", "source", name, "error", err)
		return object.Undefined, err
	}
	s.logger.Debug("evaluation done", "source", name, "elapsed", time.Since(start))
	return v, nil
}

// EvaluateFile reads and evaluates the file at path. Diagnostics name the
// file by its base name.
func (s *Session) EvaluateFile(ctx context.Context, path string) (object.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return object.Undefined, errors.Wrap(err, "read script")
	}
	return s.EvaluateSource(ctx, source.FromFile(path, string(data)))
}

// ToString converts v to a string the way script code does, calling
// toString methods where present.
func (s *Session) ToString(v object.Value) (string, error) {
	str, err := s.in.ToString(v)
	if err != nil {
		return "", s.convert(err)
	}
	return str, nil
}

// DefineGlobal binds name on the global object with the given attributes.
func (s *Session) DefineGlobal(name string, v object.Value, attrs object.Attr) {
	s.in.Model().DefineValue(s.in.Global(), name, v, attrs)
}

// DefineClass registers a host class: its constructor becomes a
// non-enumerable global and its accessors and methods are installed on the
// class prototype. It returns the constructor.
func (s *Session) DefineClass(c object.HostClass) (*object.Object, error) {
	if c.Name == "" {
		return nil, errors.New("host class has no name")
	}
	if _, dup := s.classes[c.Name]; dup {
		return nil, errors.Errorf("host class %s already defined", c.Name)
	}
	realm := s.in.Realm()
	proto := object.New(c.Name, realm.ObjectPrototype)
	s.in.Model().SeedHostClass(proto, realm.FunctionPrototype, c)

	construct := func(args []object.Value) (object.Value, error) {
		o := object.New(c.Name, proto)
		if c.Init != nil {
			if err := c.Init(o, args); err != nil {
				return object.Undefined, err
			}
		}
		return object.FromObject(o), nil
	}
	call := func(this object.Value, args []object.Value) (object.Value, error) {
		return construct(args)
	}
	ctor := s.in.NewNativeConstructor(c.Name, proto, call, construct)
	s.classes[c.Name] = ctor
	s.DefineGlobal(c.Name, object.FromObject(ctor), object.DontEnum)
	s.logger.Debug("host class defined", "class", c.Name,
		"properties", len(c.Properties), "methods", len(c.Methods))
	return ctor, nil
}

// NewHostObject constructs an instance of a class registered with
// DefineClass.
func (s *Session) NewHostObject(className string, args ...object.Value) (*object.Object, error) {
	ctor, ok := s.classes[className]
	if !ok {
		return nil, errors.Errorf("unknown host class %s", className)
	}
	v, err := ctor.Construct(args)
	if err != nil {
		return nil, s.convert(err)
	}
	return v.AsObject(), nil
}

// convert maps interpreter errors to the errors hosts observe.
func (s *Session) convert(err error) error {
	if f, ok := jserrors.AsFailure(err); ok {
		return &EcmaError{Failure: f}
	}
	var exc *interp.Exception
	if !errors.As(err, &exc) {
		return err
	}
	if f, ok := interp.FailureOf(exc.Value); ok {
		return &EcmaError{Failure: f}
	}
	details, convErr := s.in.ToString(exc.Value)
	if convErr != nil {
		details = object.DisplayString(exc.Value)
	}
	return &JavaScriptException{
		Value:    exc.Value,
		Details:  details,
		Location: exc.Location,
		Frames:   exc.Frames,
	}
}

// Stats returns counters accumulated over the session's lifetime.
func (s *Session) Stats() Stats {
	st := s.stats
	st.CachedPrograms = len(s.programs)
	return st
}

// Stats summarizes a session's work.
type Stats struct {
	Evaluations    int
	Failures       int
	Steps          int64
	CacheHits      int
	CachedPrograms int
	Elapsed        time.Duration
}

func (st Stats) String() string {
	return fmt.Sprintf("%d evaluations, %d failures, %d steps, %d cached programs",
		st.Evaluations, st.Failures, st.Steps, st.CachedPrograms)
}
