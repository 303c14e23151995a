package ast

import "fmt"

// Position is a single point in source text (spec.md §3.2 source_span_table).
type Position struct {
	Line   uint32
	Col    uint32
	Offset uint32
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Span covers the source range a node was parsed from, carried through
// compilation into CodeObject.source_span_table so tracebacks can report
// exact locations (spec.md §3.2, §4.4).
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string { return fmt.Sprintf("%s-%s", s.Start, s.End) }
