package builtins

import (
	"fmt"
	"io"
	"strings"
	"time"

	"jscore/pkg/diag"
	"jscore/pkg/object"
)

// ConsoleInitializer installs a console object writing to Out. It is not
// part of the standard set; hosts add it when scripts may print.
type ConsoleInitializer struct {
	Out io.Writer
}

func (c *ConsoleInitializer) Name() string {
	return "console"
}

func (c *ConsoleInitializer) Priority() int {
	return PriorityConsole
}

func (c *ConsoleInitializer) InitRuntime(ctx *RuntimeContext) error {
	in := ctx.Interp
	consoleObj := object.New("Object", ctx.Realm.ObjectPrototype)

	timers := make(map[string]time.Time)
	counts := make(map[string]int)
	depth := 0

	write := func(prefix string, args []object.Value) (object.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := in.ToString(a)
			if err != nil {
				return object.Undefined, err
			}
			parts[i] = s
		}
		fmt.Fprintf(c.Out, "%s%s%s\n", strings.Repeat("  ", depth), prefix, strings.Join(parts, " "))
		return object.Undefined, nil
	}
	label := func(args []object.Value) (string, error) {
		if v := arg(args, 0); !v.IsUndefined() {
			return in.ToString(v)
		}
		return "default", nil
	}

	for _, m := range []struct{ name, prefix string }{
		{"log", ""},
		{"info", ""},
		{"debug", ""},
		{"error", "ERROR: "},
		{"warn", "WARN: "},
	} {
		prefix := m.prefix
		ctx.Method(consoleObj, m.name, func(this object.Value, args []object.Value) (object.Value, error) {
			return write(prefix, args)
		})
	}

	ctx.Method(consoleObj, "trace", func(this object.Value, args []object.Value) (object.Value, error) {
		if _, err := write("Trace: ", args); err != nil {
			return object.Undefined, err
		}
		_, err := io.WriteString(c.Out, diag.CaptureTrace(in.Chain()))
		return object.Undefined, err
	})

	ctx.Method(consoleObj, "count", func(this object.Value, args []object.Value) (object.Value, error) {
		l, err := label(args)
		if err != nil {
			return object.Undefined, err
		}
		counts[l]++
		return write("", []object.Value{object.String(fmt.Sprintf("%s: %d", l, counts[l]))})
	})
	ctx.Method(consoleObj, "countReset", func(this object.Value, args []object.Value) (object.Value, error) {
		l, err := label(args)
		if err != nil {
			return object.Undefined, err
		}
		delete(counts, l)
		return object.Undefined, nil
	})

	ctx.Method(consoleObj, "time", func(this object.Value, args []object.Value) (object.Value, error) {
		l, err := label(args)
		if err != nil {
			return object.Undefined, err
		}
		timers[l] = time.Now()
		return object.Undefined, nil
	})
	ctx.Method(consoleObj, "timeEnd", func(this object.Value, args []object.Value) (object.Value, error) {
		l, err := label(args)
		if err != nil {
			return object.Undefined, err
		}
		start, ok := timers[l]
		if !ok {
			return write("WARN: ", []object.Value{object.String(fmt.Sprintf("Timer '%s' does not exist", l))})
		}
		delete(timers, l)
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		return write("", []object.Value{object.String(fmt.Sprintf("%s: %.3fms", l, elapsed))})
	})

	ctx.Method(consoleObj, "group", func(this object.Value, args []object.Value) (object.Value, error) {
		if len(args) > 0 {
			if _, err := write("", args); err != nil {
				return object.Undefined, err
			}
		}
		depth++
		return object.Undefined, nil
	})
	ctx.Method(consoleObj, "groupEnd", func(this object.Value, args []object.Value) (object.Value, error) {
		if depth > 0 {
			depth--
		}
		return object.Undefined, nil
	})

	return ctx.DefineGlobal("console", object.FromObject(consoleObj))
}
