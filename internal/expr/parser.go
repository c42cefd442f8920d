package expr

// maxDepth bounds recursion so pathological input fails cleanly.
const maxDepth = 256

// Grammar, loosest binding first:
//
//	list    = expr { "," expr }
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | power
//	power   = primary [ "^" unary ]
//	primary = number | ident | ident "(" [ expr { "," expr } ] ")" | "(" expr ")"
//
// "^" is right-associative and binds tighter than unary minus, so -X^2 is
// -(X^2) and 2^-1 is 0.5. Adjacent operands ("2X", "k X") are rejected.
type parser struct {
	lex   *Lexer
	tok   Token
	depth int
}

// Parse parses a single expression.
func Parse(text string) (Node, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	if p.tok.Type == TokenEOF {
		return nil, newError(ErrEmptyExpression, p.tok.Offset, "empty expression")
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return n, nil
}

// ParseList parses comma-separated expressions such as "-Y, -X", the form
// used for the components of a planar vector field.
func ParseList(text string) ([]Node, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	if p.tok.Type == TokenEOF {
		return nil, newError(ErrEmptyExpression, p.tok.Offset, "empty expression")
	}

	var nodes []Node
	for {
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		if p.tok.Type != TokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenEOF {
			return nil, newError(ErrEmptyExpression, p.tok.Offset, "empty expression after ','")
		}
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func newParser(text string) (*parser, error) {
	p := &parser{lex: NewLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expectEnd() error {
	switch p.tok.Type {
	case TokenEOF:
		return nil
	case TokenRParen:
		return newError(ErrUnbalancedParens, p.tok.Offset, "unmatched ')'")
	}
	return newError(ErrTrailingInput, p.tok.Offset, "unexpected %s after complete expression", p.tok.describe())
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return newError(ErrTooDeep, p.tok.Offset, "expression nested deeper than %d levels", maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseExpr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op, off := OpAdd, p.tok.Offset
		if p.tok.Type == TokenMinus {
			op = OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right, Offset: off}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenStar || p.tok.Type == TokenSlash {
		op, off := OpMul, p.tok.Offset
		if p.tok.Type == TokenSlash {
			op = OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right, Offset: off}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.tok.Type != TokenMinus {
		return p.parsePower()
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	off := p.tok.Offset
	if err := p.advance(); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{Op: OpNeg, Operand: operand, Offset: off}, nil
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenCaret {
		return base, nil
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	off := p.tok.Offset
	if err := p.advance(); err != nil {
		return nil, err
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: OpPow, Left: base, Right: exp, Offset: off}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.tok
	switch tok.Type {
	case TokenNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Number{Value: tok.Value, Offset: tok.Offset}, nil

	case TokenIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenLParen {
			return p.parseCall(tok)
		}
		return &Variable{Name: tok.Text, Offset: tok.Offset}, nil

	case TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenRParen {
			return nil, newError(ErrUnexpectedToken, p.tok.Offset, "empty parentheses")
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.Type != TokenRParen {
			return nil, p.unclosed(tok)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenEOF:
		return nil, newError(ErrUnexpectedToken, tok.Offset, "unexpected end of expression")

	case TokenRParen:
		return nil, newError(ErrUnbalancedParens, tok.Offset, "unmatched ')'")
	}
	return nil, newError(ErrUnexpectedToken, tok.Offset, "unexpected %s", tok.describe())
}

// parseCall parses the argument list; p.tok is the opening parenthesis.
func (p *parser) parseCall(name Token) (Node, error) {
	open := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}

	call := &Call{Func: name.Text, Offset: name.Offset}
	if p.tok.Type == TokenRParen {
		return call, p.advance()
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.tok.Type != TokenComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Type != TokenRParen {
		return nil, p.unclosed(open)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return call, nil
}

// unclosed reports a missing ')' for the parenthesis at open. Running out of
// input is an imbalance; any other token is simply unexpected.
func (p *parser) unclosed(open Token) error {
	if p.tok.Type == TokenEOF {
		return newError(ErrUnbalancedParens, open.Offset, "unclosed '('")
	}
	return newError(ErrUnexpectedToken, p.tok.Offset, "unexpected %s, expected ')'", p.tok.describe())
}
