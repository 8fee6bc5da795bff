// Package diagnostic defines the toolchain's error taxonomy (one error kind
// per pipeline stage) and renders them as source-anchored messages, the way
// a caller driving the pipeline from cmd/ is expected to report failures.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/loomlang/loom/internal/span"
)

// LexKind enumerates the ways the lexer can reject input.
type LexKind int

const (
	InvalidLexeme LexKind = iota
	InvalidCharacterLiteral
	InvalidIntegerLiteral
	InvalidIdentifier
)

func (k LexKind) String() string {
	switch k {
	case InvalidLexeme:
		return "invalid lexeme"
	case InvalidCharacterLiteral:
		return "invalid character literal"
	case InvalidIntegerLiteral:
		return "invalid integer literal"
	case InvalidIdentifier:
		return "invalid identifier"
	default:
		return "unknown lex error"
	}
}

// LexError reports a stage-1 failure: the lexer could not classify a byte
// range as any valid token.
type LexError struct {
	Kind    LexKind
	Span    span.Span
	Literal string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s `%s`", e.Kind, e.Literal)
}

// ParseKind enumerates the ways the parser can reject a token stream.
type ParseKind int

const (
	UnexpectedToken ParseKind = iota
	ExpectedToken
	UnmatchedDelimiter
	UnexpectedEndOfFile
	InvalidLiteral
	InvalidUnaryOperator
	InvalidBinaryOperator
)

func (k ParseKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case ExpectedToken:
		return "expected token"
	case UnmatchedDelimiter:
		return "unmatched delimiter"
	case UnexpectedEndOfFile:
		return "unexpected end of file"
	case InvalidLiteral:
		return "invalid literal"
	case InvalidUnaryOperator:
		return "invalid unary operator"
	case InvalidBinaryOperator:
		return "invalid binary operator"
	default:
		return "unknown parse error"
	}
}

// ParseError reports a stage-2 failure: the token stream does not match the
// grammar at the current position.
type ParseError struct {
	Kind     ParseKind
	Span     span.Span
	Found    string
	Expected string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Found != "" {
		fmt.Fprintf(&b, " `%s`", e.Found)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, ", expected %s", e.Expected)
	}
	return b.String()
}

// LowerKind enumerates the ways AST-to-AIR lowering can fail.
type LowerKind int

const (
	UninitialisedVariable LowerKind = iota
	UninitialisedPointer
	NullValueExpression
)

func (k LowerKind) String() string {
	switch k {
	case UninitialisedVariable:
		return "uninitialised variable"
	case UninitialisedPointer:
		return "uninitialised pointer"
	case NullValueExpression:
		return "found a null value expression"
	default:
		return "unknown lowering error"
	}
}

// LowerError reports a stage-3 failure: the AST references a binding that
// was never lowered, or an expression that produced no value where one was
// required.
type LowerError struct {
	Kind LowerKind
	Span span.Span
	Name string
}

func (e *LowerError) Error() string {
	if e.Name == "" {
		return e.Kind.String() + ": expressions must always evaluate to some value"
	}
	return fmt.Sprintf("%s `%s`", e.Kind, e.Name)
}

// RuntimeKind enumerates the ways the VM's fetch-execute loop can fault.
type RuntimeKind int

const (
	DivisionByZero RuntimeKind = iota
	MemoryOutOfBounds
	UninitialisedRegister
	MissingBranchTarget
)

func (k RuntimeKind) String() string {
	switch k {
	case DivisionByZero:
		return "division by zero"
	case MemoryOutOfBounds:
		return "memory access out of bounds"
	case UninitialisedRegister:
		return "read of uninitialised register"
	case MissingBranchTarget:
		return "missing branch target"
	default:
		return "unknown runtime fault"
	}
}

// RuntimeFault reports a stage-4 failure: the VM could not continue
// executing the current instruction. Per the redesigned error-handling
// model, these are returned as values and streamed to the host over the
// yield channel before Done, never panicked.
type RuntimeFault struct {
	Kind RuntimeKind
	PC   int
	// Register is set for UninitialisedRegister faults, carrying the
	// offending register number.
	Register int
	// Address is set for MemoryOutOfBounds faults.
	Address int
}

func (e *RuntimeFault) Error() string {
	switch e.Kind {
	case UninitialisedRegister:
		return fmt.Sprintf("%s: r%d (at pc=%d)", e.Kind, e.Register, e.PC)
	case MemoryOutOfBounds:
		return fmt.Sprintf("%s: address %d (at pc=%d)", e.Kind, e.Address, e.PC)
	default:
		return fmt.Sprintf("%s (at pc=%d)", e.Kind, e.PC)
	}
}

// Render renders err (if it carries a span) against source, printing the
// offending line followed by a caret range under the faulting bytes. Errors
// with no source span (RuntimeFault) render as a plain message.
func Render(err error, source string) string {
	sp, ok := spanOf(err)
	if !ok {
		return err.Error()
	}

	line, col, lineText := locate(source, sp.Lo())
	width := sp.Hi() - sp.Lo()
	if width < 1 {
		width = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "error: %s\n", err.Error())
	fmt.Fprintf(&b, "  --> line %d, column %d\n", line, col)
	fmt.Fprintf(&b, "   | %s\n", lineText)
	fmt.Fprintf(&b, "   | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width))
	return b.String()
}

func spanOf(err error) (span.Span, bool) {
	switch e := err.(type) {
	case *LexError:
		return e.Span, true
	case *ParseError:
		return e.Span, true
	case *LowerError:
		return e.Span, true
	default:
		return span.Span{}, false
	}
}

// locate walks source to find the 1-indexed line/column of byte offset pos
// and returns that line's text (without its trailing newline).
func locate(source string, pos int) (line, col int, lineText string) {
	line, col = 1, 1
	lineStart := 0
	for i := 0; i < pos && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
			lineStart = i + 1
		} else {
			col++
		}
	}

	lineEnd := len(source)
	if idx := strings.IndexByte(source[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	return line, col, source[lineStart:lineEnd]
}
