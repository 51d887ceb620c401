package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"jscore/pkg/config"
	"jscore/pkg/driver"
	jserrors "jscore/pkg/errors"
	"jscore/pkg/features"
	"jscore/pkg/object"
	"jscore/pkg/parser"
	"jscore/pkg/source"
)

const (
	exitUsage    = 64 // command line usage error
	exitSoftware = 70 // script or internal error

	historyFile = ".jscore_history"
	promptMain  = "> "
	promptCont  = "... "
)

type options struct {
	cfg      config.Config
	showAST  bool
	showStat bool
}

func main() {
	exprFlag := flag.String("e", "", "Run the given script and exit")
	configFlag := flag.String("config", "", "YAML configuration file")
	featuresFlag := flag.String("features", "", "Comma-separated features to enable (overrides the configuration)")
	levelFlag := flag.Int("O", 0, "Optimization level, -1 to 9")
	logFlag := flag.String("log", "", "Log level: debug, info, warn, error")
	maxStepsFlag := flag.Int64("max-steps", 0, "Abort an evaluation after this many statements (0 is unbounded)")
	astFlag := flag.Bool("ast", false, "Dump the parsed program before running it")
	statsFlag := flag.Bool("stats", false, "Print evaluation statistics")
	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		var err error
		if cfg, err = config.Load(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "jscore: %v\n", err)
			os.Exit(exitUsage)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "O":
			cfg.OptimizationLevel = *levelFlag
		case "log":
			cfg.LogLevel = *logFlag
		case "max-steps":
			cfg.MaxSteps = *maxStepsFlag
		}
	})
	if *featuresFlag != "" {
		fs, err := parseFeatures(*featuresFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jscore: %v\n", err)
			os.Exit(exitUsage)
		}
		cfg.Features = fs
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "jscore: %v\n", err)
		os.Exit(exitUsage)
	}

	opts := options{cfg: cfg, showAST: *astFlag, showStat: *statsFlag}
	ctx := context.Background()

	switch {
	case *exprFlag != "":
		if !runSource(ctx, opts, source.NewEvalSource(*exprFlag), os.Stdout, os.Stderr) {
			os.Exit(exitSoftware)
		}
	case flag.NArg() == 1:
		if !runFile(ctx, opts, flag.Arg(0), os.Stdout, os.Stderr) {
			os.Exit(exitSoftware)
		}
	case flag.NArg() > 1:
		if !runFiles(ctx, opts, flag.Args(), os.Stdout, os.Stderr) {
			os.Exit(exitSoftware)
		}
	case isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()):
		os.Exit(runRepl(ctx, opts))
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jscore: %v\n", errors.Wrap(err, "read stdin"))
			os.Exit(exitSoftware)
		}
		if !runSource(ctx, opts, source.NewStdinSource(string(data)), os.Stdout, os.Stderr) {
			os.Exit(exitSoftware)
		}
	}
}

// parseFeatures turns "a,b" into a set with exactly those features enabled.
func parseFeatures(list string) (features.Set, error) {
	var fs features.Set
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, err := features.ParseFeature(name)
		if err != nil {
			return features.Set{}, err
		}
		fs = fs.With(f, true)
	}
	return fs, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newSession creates a session whose console prints to out and whose log
// records go to errOut.
func newSession(opts options, out, errOut io.Writer) (*driver.Session, error) {
	return driver.NewSession(opts.cfg, driver.WithLogger(newLogger(opts.cfg, errOut)), driver.WithConsole(out))
}

func runFile(ctx context.Context, opts options, path string, out, errOut io.Writer) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "Failed to read file '%s': %s\n", path, err)
		return false
	}
	return runSource(ctx, opts, source.FromFile(path, string(data)), out, errOut)
}

// runSource evaluates src in a fresh session. The completion value goes to
// out; errors, script stacks and statistics go to errOut.
func runSource(ctx context.Context, opts options, src *source.SourceFile, out, errOut io.Writer) bool {
	s, err := newSession(opts, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "jscore: %v\n", err)
		return false
	}
	if opts.showAST {
		if prog, err := s.Parse(src); err == nil {
			pretty.Fprintf(out, "%# v\n", prog.Statements)
		}
	}
	v, err := s.EvaluateSource(ctx, src)
	ok := display(s, v, err, out, errOut)
	if opts.showStat {
		printStats(errOut, s, len(src.Content))
	}
	return ok
}

// runFiles evaluates each file in its own session concurrently. Each file's
// output and diagnostics are buffered and written in argument order, so
// files never interleave.
func runFiles(ctx context.Context, opts options, paths []string, stdout, stderr io.Writer) bool {
	outputs := make([]strings.Builder, len(paths))
	diagnostics := make([]strings.Builder, len(paths))
	results := make([]bool, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = runFile(ctx, opts, path, &outputs[i], &diagnostics[i])
			return nil
		})
	}
	_ = g.Wait()

	ok := true
	for i, path := range paths {
		fmt.Fprintf(stdout, "==> %s <==\n%s", filepath.Base(path), outputs[i].String())
		if diagnostics[i].Len() > 0 {
			fmt.Fprintf(stderr, "==> %s <==\n%s", filepath.Base(path), diagnostics[i].String())
		}
		ok = ok && results[i]
	}
	return ok
}

// display prints a completion value to out or an evaluation error to
// errOut. It returns false on error.
func display(s *driver.Session, v object.Value, err error, out, errOut io.Writer) bool {
	if err != nil {
		var se jserrors.ScriptError
		if errors.As(err, &se) {
			jserrors.DisplayErrors(errOut, []jserrors.ScriptError{se})
			return false
		}
		fmt.Fprintln(errOut, err)
		var ecma *driver.EcmaError
		if errors.As(err, &ecma) {
			fmt.Fprint(errOut, ecma.ScriptStack())
		}
		var exc *driver.JavaScriptException
		if errors.As(err, &exc) {
			fmt.Fprint(errOut, exc.ScriptStack())
		}
		return false
	}
	if v.IsUndefined() {
		return true
	}
	str, err := s.ToString(v)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return false
	}
	fmt.Fprintln(out, str)
	return true
}

func printStats(w io.Writer, s *driver.Session, sourceBytes int) {
	st := s.Stats()
	fmt.Fprintf(w, "source:      %s\n", humanize.Bytes(uint64(sourceBytes)))
	fmt.Fprintf(w, "statements:  %s\n", humanize.Comma(st.Steps))
	fmt.Fprintf(w, "evaluations: %s (%s failed)\n", humanize.Comma(int64(st.Evaluations)), humanize.Comma(int64(st.Failures)))
	fmt.Fprintf(w, "cache:       %d programs, %d hits\n", st.CachedPrograms, st.CacheHits)
	fmt.Fprintf(w, "elapsed:     %s\n", st.Elapsed)
}

// runRepl reads scripts interactively. Input that ends inside an open
// block continues on the next line.
func runRepl(ctx context.Context, opts options) int {
	s, err := newSession(opts, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jscore: %v\n", err)
		return exitSoftware
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf("jscore (features %s, level %d). Ctrl+D to exit.\n", opts.cfg.Features, opts.cfg.OptimizationLevel)
	line := 1
	for {
		code, ok := readInput(ln, line)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		switch strings.TrimSpace(code) {
		case ":stats":
			printStats(os.Stdout, s, 0)
			continue
		case ":quit":
			return 0
		}

		v, err := s.EvaluateSource(ctx, source.NewUnit("<repl>", line, code))
		display(s, v, err, os.Stdout, os.Stderr)
		line += strings.Count(code, "\n") + 1
	}
	return 0
}

// readInput prompts until the collected lines parse or fail for a reason
// other than running out of input.
func readInput(ln *liner.State, line int) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		text, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C discards the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)

		_, errs := parser.Parse(source.NewUnit("<repl>", line, b.String()))
		if !parser.Incomplete(errs) {
			return b.String(), true
		}
	}
}
