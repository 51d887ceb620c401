package errors

import "jscore/pkg/source"

// Position represents a specific location in the source code.
// It includes line and column numbers (1-based) for human-readability,
// and byte offsets (0-based) for potential use in tooling.
type Position struct {
	Line     int                // 1-based line number
	Column   int                // 1-based column number (byte index within the line)
	StartPos int                // 0-based byte offset of the start of the token/error span
	EndPos   int                // 0-based byte offset of the end of the token/error span (exclusive)
	Source   *source.SourceFile // Reference to the source file
}

// Location reduces a Position to the (source name, line) pair used by
// runtime diagnostics.
func (p Position) Location() source.Location {
	loc := source.Location{Line: p.Line}
	if p.Source != nil {
		loc.Source = p.Source.Name
	}
	return loc
}
