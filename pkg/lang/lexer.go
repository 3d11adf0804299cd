package lang

import (
	"strconv"
	"unicode"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// Lexer tokenizes dollop script text.
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int // byte offset of the current line, for column numbers
	tokens    []Token
}

// NewLexer creates a new lexer for the given source text.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// Tokenize scans the entire input and returns all tokens, ending with an
// EOF token. The error, when non-nil, is a *types.LexError.
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}

// Tokenize scans the entire input and returns all tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, nil
}

// next returns the next token from the input.
func (l *Lexer) next() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col()}, nil
	}

	ch := l.input[l.pos]

	// String literals
	if ch == '"' {
		return l.readString()
	}

	// Structural single-character tokens
	switch ch {
	case '(':
		tok := l.token(TokenLParen, "(")
		l.advance()
		return tok, nil
	case ')':
		tok := l.token(TokenRParen, ")")
		l.advance()
		return tok, nil
	case '$':
		tok := l.token(TokenDollar, "$")
		l.advance()
		return tok, nil
	}

	// Everything else is an atom: a maximal run of characters up to
	// whitespace, a structural character, a quote, or a comment opener.
	return l.readAtom(), nil
}

// token builds a token at the current position without consuming input.
func (l *Lexer) token(tt TokenType, value string) Token {
	return Token{Type: tt, Value: value, Pos: l.pos, Line: l.line, Col: l.col()}
}

// col returns the 1-based column of the current position.
func (l *Lexer) col() int {
	return l.pos - l.lineStart + 1
}

// advance consumes one byte, tracking line boundaries.
func (l *Lexer) advance() {
	if l.pos < len(l.input) && l.input[l.pos] == '\n' {
		l.line++
		l.lineStart = l.pos + 1
	}
	l.pos++
}

// skipWhitespaceAndComments consumes whitespace, '//' line comments, and
// '{* ... }*' block comments. Comments count as whitespace: they never
// split or join surrounding tokens.
func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if unicode.IsSpace(rune(ch)) {
			l.advance()
			continue
		}

		// Line comment: discard up to (not including) the line terminator.
		if ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/' {
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
			continue
		}

		// Block comment: discard up to and including the matching '}*'.
		if ch == '{' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*' {
			startLine, startCol := l.line, l.col()
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.input) {
					return types.NewUnterminatedCommentError(startLine, startCol)
				}
				if l.input[l.pos] == '}' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
			continue
		}

		break
	}
	return nil
}

// readString reads a double-quoted string literal. There are no escape
// sequences: the literal runs to the next '"', which may be on a later line.
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	startLine, startCol := l.line, l.col()
	l.advance() // skip opening quote

	for l.pos < len(l.input) {
		if l.input[l.pos] == '"' {
			l.advance() // skip closing quote
			return Token{
				Type:   TokenString,
				Value:  l.input[start:l.pos],
				StrVal: l.input[start+1 : l.pos-1],
				Pos:    start,
				Line:   startLine,
				Col:    startCol,
			}, nil
		}
		l.advance()
	}

	return Token{}, types.NewUnterminatedStringError(startLine, startCol)
}

// readAtom reads a maximal run of non-structural characters and classifies
// it as a number or an identifier by whether it parses as a float.
func (l *Lexer) readAtom() Token {
	start := l.pos
	startLine, startCol := l.line, l.col()

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsSpace(rune(ch)) || ch == '(' || ch == ')' || ch == '$' || ch == '"' {
			break
		}
		if ch == '/' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '/' {
			break
		}
		if ch == '{' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '*' {
			break
		}
		l.advance()
	}

	word := l.input[start:l.pos]
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return Token{Type: TokenNumber, Value: word, NumVal: n, Pos: start, Line: startLine, Col: startCol}
	}
	return Token{Type: TokenIdent, Value: word, Pos: start, Line: startLine, Col: startCol}
}
