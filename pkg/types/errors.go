package types

import "fmt"

// Error kind constants, one block per pipeline stage.
const (
	// Lexing
	KindUnterminatedString  = "UnterminatedString"
	KindUnterminatedComment = "UnterminatedComment"

	// Parsing
	KindEmptyExpression        = "EmptyExpression"
	KindUnexpectedCloseParen   = "UnexpectedCloseParen"
	KindUnterminatedExpression = "UnterminatedExpression"

	// Evaluation
	KindUnboundName   = "UnboundName"
	KindNotCallable   = "NotCallable"
	KindTypeError     = "TypeError"
	KindZeroDivision  = "ZeroDivision"
	KindBadArity      = "BadArity"
	KindResourceLimit = "ResourceLimit"
)

// formatError renders the shared error layout: an optional LINE:COL prefix,
// the message, and an optional NOTE line carrying a hint.
func formatError(line, col int, message, hint string) string {
	s := message
	if line > 0 {
		s = fmt.Sprintf("%d:%d - %s", line, col, message)
	}
	if hint != "" {
		s += "\n\tNOTE: " + hint
	}
	return s
}

// LexError reports malformed input discovered while tokenizing. Line and Col
// point at the construct that failed (the opening quote or comment opener).
type LexError struct {
	Kind    string
	Line    int
	Col     int
	Message string
	Hint    string
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return formatError(e.Line, e.Col, e.Message, e.Hint)
}

// ParseError reports malformed structure discovered while building the
// expression tree.
type ParseError struct {
	Kind    string
	Line    int
	Col     int
	Message string
	Hint    string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return formatError(e.Line, e.Col, e.Message, e.Hint)
}

// RuntimeError reports a failure during evaluation. Errors raised by the
// evaluator itself carry the position of the offending expression; errors
// raised inside native functions have no position.
type RuntimeError struct {
	Kind    string
	Line    int
	Col     int
	Message string
	Hint    string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return formatError(e.Line, e.Col, e.Message, e.Hint)
}

// Error constructors, one per kind.

// NewUnterminatedStringError reports a string literal still open at end of
// input. The position is the opening quote.
func NewUnterminatedStringError(line, col int) *LexError {
	return &LexError{
		Kind:    KindUnterminatedString,
		Line:    line,
		Col:     col,
		Message: "unterminated string literal",
		Hint:    `a closing '"' is required before end of input`,
	}
}

// NewUnterminatedCommentError reports a block comment still open at end of
// input. The position is the comment opener.
func NewUnterminatedCommentError(line, col int) *LexError {
	return &LexError{
		Kind:    KindUnterminatedComment,
		Line:    line,
		Col:     col,
		Message: "unterminated block comment",
		Hint:    "block comments close with '}*'",
	}
}

// NewEmptyExpressionError reports a statement with no head, either an
// explicit () or a '$' that closed without content.
func NewEmptyExpressionError(line, col int) *ParseError {
	return &ParseError{
		Kind:    KindEmptyExpression,
		Line:    line,
		Col:     col,
		Message: "empty statement is not allowed",
		Hint:    "a statement needs a head: (function args...)",
	}
}

// NewUnexpectedCloseParenError reports a ')' with no open statement to close.
func NewUnexpectedCloseParenError(line, col int) *ParseError {
	return &ParseError{
		Kind:    KindUnexpectedCloseParen,
		Line:    line,
		Col:     col,
		Message: "unexpected ')'",
	}
}

// NewUnterminatedExpressionError reports end of input while an explicit '('
// is still open. The position is the open parenthesis.
func NewUnterminatedExpressionError(line, col int) *ParseError {
	return &ParseError{
		Kind:    KindUnterminatedExpression,
		Line:    line,
		Col:     col,
		Message: "statement is missing its closing ')'",
	}
}

// NewUnboundNameError reports a symbol with no binding in the environment.
// The hint, when present, suggests a close match ("did you mean ...").
func NewUnboundNameError(name string, line, col int, hint string) *RuntimeError {
	return &RuntimeError{
		Kind:    KindUnboundName,
		Line:    line,
		Col:     col,
		Message: fmt.Sprintf("name '%s' is not bound", name),
		Hint:    hint,
	}
}

// NewNotCallableError reports a call whose head evaluated to a non-function
// value.
func NewNotCallableError(desc string, line, col int) *RuntimeError {
	return &RuntimeError{
		Kind:    KindNotCallable,
		Line:    line,
		Col:     col,
		Message: fmt.Sprintf("%s is not callable", desc),
		Hint:    "only function values can appear at the head of a statement",
	}
}

// NewTypeError creates a TypeError raised by a native function.
func NewTypeError(msg string) *RuntimeError {
	return &RuntimeError{Kind: KindTypeError, Message: msg}
}

// NewZeroDivisionError creates a ZeroDivision error.
func NewZeroDivisionError() *RuntimeError {
	return &RuntimeError{Kind: KindZeroDivision, Message: "division by zero"}
}

// NewBadArityError creates a BadArity error for a wrong argument count.
func NewBadArityError(msg string) *RuntimeError {
	return &RuntimeError{Kind: KindBadArity, Message: msg}
}

// NewResourceLimitError creates a ResourceLimit error, raised when a run
// exceeds its step budget.
func NewResourceLimitError(msg string) *RuntimeError {
	return &RuntimeError{Kind: KindResourceLimit, Message: msg}
}
