package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceFile represents a unit of script code together with the name and
// starting line the host supplied for it.
type SourceFile struct {
	Name      string   // Display name (e.g., "test.js", "<stdin>", "<eval>")
	Path      string   // Full file path (empty for REPL/eval)
	Content   string   // The source code content
	StartLine int      // Line number of the first line of Content (1-based)
	lines     []string // Cached split lines (lazy initialization)
}

// NewSourceFile creates a new source file starting at line 1.
func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{
		Name:      name,
		Path:      path,
		Content:   content,
		StartLine: 1,
	}
}

// NewUnit creates a source for code evaluated under the given name and
// starting line, the way an embedding host hands code to the engine.
func NewUnit(name string, startLine int, content string) *SourceFile {
	if startLine < 1 {
		startLine = 1
	}
	return &SourceFile{Name: name, Content: content, StartLine: startLine}
}

// NewEvalSource creates a source file for eval input
func NewEvalSource(content string) *SourceFile {
	return NewUnit("<eval>", 1, content)
}

// NewReplSource creates a source file for REPL input
func NewReplSource(content string) *SourceFile {
	return NewUnit("<repl>", 1, content)
}

// NewStdinSource creates a source file for stdin input
func NewStdinSource(content string) *SourceFile {
	return NewUnit("<stdin>", 1, content)
}

// FromFile creates a SourceFile from a file path and content
func FromFile(filePath, content string) *SourceFile {
	name := filepath.Base(filePath)
	return NewSourceFile(name, filePath, content)
}

// Lines returns the source split into lines (cached)
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// Line returns the text of the given absolute line number, or "" when the
// line lies outside this unit.
func (sf *SourceFile) Line(n int) string {
	idx := n - sf.StartLine
	lines := sf.Lines()
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name)
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile returns true if this represents an actual file (has a path)
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}

// Location names a line inside a named unit of code. The zero value means
// "unknown".
type Location struct {
	Source string
	Line   int
}

// IsZero reports whether no location information is present.
func (l Location) IsZero() bool { return l.Source == "" && l.Line == 0 }

func (l Location) String() string {
	if l.Line <= 0 {
		return l.Source
	}
	return fmt.Sprintf("%s#%d", l.Source, l.Line)
}

// Frame describes one active call: the function being executed and the
// line it is currently executing. Function is empty for top-level code.
type Frame struct {
	Function string
	Location
}
