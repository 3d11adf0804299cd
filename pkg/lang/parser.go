package lang

import (
	"github.com/lemonberrylabs/dollop/pkg/types"
)

// Parser consumes a token stream and builds one Expr per top-level
// statement in a single left-to-right pass.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over a token stream produced by Tokenize.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse builds the statement list for a token stream. The error, when
// non-nil, is a *types.ParseError.
func Parse(tokens []Token) ([]Expr, error) {
	return NewParser(tokens).Parse()
}

// ParseSource tokenizes and parses script text in one step.
func ParseSource(source string) ([]Expr, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// frame is one open statement: an explicit '(' or an implicit one opened by
// '$'. An implicit frame closes at the next ')' that would otherwise close
// an enclosing statement, or at end of input; an explicit frame closes only
// at its matching ')'.
type frame struct {
	elems    []Expr
	implicit bool
	line     int
	col      int
}

// finish turns a completed frame into a Call. A frame that closed with no
// elements is an empty statement, which the grammar rejects.
func (f *frame) finish() (Expr, error) {
	if len(f.elems) == 0 {
		return nil, types.NewEmptyExpressionError(f.line, f.col)
	}
	return &Call{Head: f.elems[0], Args: f.elems[1:], Line: f.line, Col: f.col}, nil
}

// Parse builds the statement list.
func (p *Parser) Parse() ([]Expr, error) {
	var stmts []Expr
	var stack []frame

	// emit appends a completed expression to the innermost open frame, or
	// to the statement list when nothing is open.
	emit := func(e Expr) {
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			top.elems = append(top.elems, e)
		} else {
			stmts = append(stmts, e)
		}
	}

	for {
		tok := p.current()
		if tok.Type == TokenEOF {
			break
		}
		p.advance()

		switch tok.Type {
		case TokenLParen:
			stack = append(stack, frame{line: tok.Line, col: tok.Col})

		case TokenDollar:
			stack = append(stack, frame{implicit: true, line: tok.Line, col: tok.Col})

		case TokenRParen:
			// Implicit frames extend to the next unmatched ')': close
			// every one on top of the stack, then match the ')' itself
			// against an explicit '('.
			for len(stack) > 0 && stack[len(stack)-1].implicit {
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				e, err := f.finish()
				if err != nil {
					return nil, err
				}
				emit(e)
			}
			if len(stack) == 0 {
				return nil, types.NewUnexpectedCloseParenError(tok.Line, tok.Col)
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			e, err := f.finish()
			if err != nil {
				return nil, err
			}
			emit(e)

		case TokenNumber:
			emit(&NumberLit{Value: tok.NumVal, Line: tok.Line, Col: tok.Col})

		case TokenString:
			emit(&StringLit{Value: tok.StrVal, Line: tok.Line, Col: tok.Col})

		case TokenIdent:
			emit(&Symbol{Name: tok.Value, Line: tok.Line, Col: tok.Col})
		}
	}

	// End of input closes implicit frames; an explicit '(' left open is an
	// error, reported at the innermost one.
	for len(stack) > 0 && stack[len(stack)-1].implicit {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e, err := f.finish()
		if err != nil {
			return nil, err
		}
		emit(e)
	}
	if len(stack) > 0 {
		f := stack[len(stack)-1]
		return nil, types.NewUnterminatedExpressionError(f.line, f.col)
	}

	return stmts, nil
}

// current returns the token at the parse position without consuming it.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance moves past the current token.
func (p *Parser) advance() {
	p.pos++
}
