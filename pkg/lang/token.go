// Package lang implements the dollop language front end: the lexer that
// turns script text into tokens and the single-pass parser that builds
// statement trees, resolving the '$' sugar operator into nested calls.
package lang

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Atoms
	TokenIdent  TokenType = iota // identifier, including operator names like '+'
	TokenNumber                  // numeric literal
	TokenString                  // double-quoted string literal

	// Structure
	TokenLParen // (
	TokenRParen // )
	TokenDollar // $

	// Special
	TokenEOF // end of input
)

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenIdent:
		return "IDENT"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenDollar:
		return "DOLLAR"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a single lexical token.
type Token struct {
	Type   TokenType
	Value  string  // raw source text
	NumVal float64 // parsed number (for TokenNumber)
	StrVal string  // string contents without quotes (for TokenString)
	Pos    int     // byte offset in source
	Line   int     // 1-based line
	Col    int     // 1-based column
}

// String returns a debug form like "3:7 IDENT print", used by --dump.
func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("%d:%d %s", t.Line, t.Col, t.Type)
	}
	return fmt.Sprintf("%d:%d %s %s", t.Line, t.Col, t.Type, t.Value)
}
