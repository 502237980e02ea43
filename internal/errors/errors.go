// Package errors defines the typed error values surfaced by the El
// front end and evaluator.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies an El error.
type Kind string

const (
	LexError             Kind = "LexError"
	ParseError           Kind = "ParseError"
	UnboundNameError     Kind = "UnboundNameError"
	RedeclarationError   Kind = "RedeclarationError"
	ConstAssignError     Kind = "ConstAssignError"
	ArityError           Kind = "ArityError"
	IndexError           Kind = "IndexError"
	TypeMismatchError    Kind = "TypeMismatchError"
	ControlFlowError     Kind = "ControlFlowError"
	ProofError           Kind = "ProofError"
	ProofTestFailure     Kind = "ProofTestFailure"
	ProofIncompleteError Kind = "ProofIncompleteError"
	IOError              Kind = "IOError"
)

// SourceLocation is a position in El source code.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// ElError is an error with a kind and, where available, a source location.
type ElError struct {
	Kind     Kind
	Message  string
	Location SourceLocation
	Source   string // the source line where the error occurred
}

func (e *ElError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))

	if e.Location.Line > 0 {
		sb.WriteString("\n")
		if e.Location.File != "" {
			sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column))
		} else {
			sb.WriteString(fmt.Sprintf("  at line %d, column %d\n", e.Location.Line, e.Location.Column))
		}

		if e.Source != "" {
			prefix := fmt.Sprintf("%d | ", e.Location.Line)
			sb.WriteString(fmt.Sprintf("\n  %s%s\n", prefix, e.Source))
			sb.WriteString("  " + strings.Repeat(" ", len(prefix)))
			if e.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			}
			sb.WriteString("^")
		}
	}

	return sb.String()
}

// New creates an error of the given kind at a source position. Pass zero
// line/column when no position is known.
func New(kind Kind, message, file string, line, column int) *ElError {
	return &ElError{
		Kind:    kind,
		Message: message,
		Location: SourceLocation{
			File:   file,
			Line:   line,
			Column: column,
		},
	}
}

// Newf is New with Sprintf formatting and no position.
func Newf(kind Kind, format string, args ...interface{}) *ElError {
	return &ElError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSource attaches the offending source line for caret rendering.
func (e *ElError) WithSource(source string) *ElError {
	e.Source = source
	return e
}

// Is reports whether err is an *ElError of the given kind.
func Is(err error, kind Kind) bool {
	if e, ok := err.(*ElError); ok {
		return e.Kind == kind
	}
	return false
}
