package parser

import (
	"daedalus/ast"
	"daedalus/token"
)

// precedence levels, lowest to highest. Ten non-zero levels match the
// language's operator table: every binary level groups left-to-right, and
// unary sits tightest of all.
const (
	precLowest = iota
	precLogOr
	precLogAnd
	precBitOr
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
)

var binPrec = map[token.Kind]int{
	token.LOGOR:  precLogOr,
	token.LOGAND: precLogAnd,
	token.BITOR:  precBitOr,
	token.BITAND: precBitAnd,
	token.EQ:     precEquality,
	token.NEQ:    precEquality,
	token.LT:     precRelational,
	token.LTE:    precRelational,
	token.GT:     precRelational,
	token.GTE:    precRelational,
	token.SHL:    precShift,
	token.SHR:    precShift,
	token.ADD:    precAdditive,
	token.SUB:    precAdditive,
	token.MUL:    precMultiplicative,
	token.DIV:    precMultiplicative,
	token.MOD:    precMultiplicative,
}

var binOp = map[token.Kind]ast.BinOp{
	token.LOGOR:  ast.OpLogOr,
	token.LOGAND: ast.OpLogAnd,
	token.BITOR:  ast.OpBitOr,
	token.BITAND: ast.OpBitAnd,
	token.EQ:     ast.OpEq,
	token.NEQ:    ast.OpNeq,
	token.LT:     ast.OpLt,
	token.LTE:    ast.OpLte,
	token.GT:     ast.OpGt,
	token.GTE:    ast.OpGte,
	token.SHL:    ast.OpShl,
	token.SHR:    ast.OpShr,
	token.ADD:    ast.OpAdd,
	token.SUB:    ast.OpSub,
	token.MUL:    ast.OpMul,
	token.DIV:    ast.OpDiv,
	token.MOD:    ast.OpMod,
}

// parseExpr is a standard precedence-climbing loop: parse one unary
// operand, then keep folding in binary operators whose precedence is at
// least minPrec, left-associatively (every level in this grammar
// associates left, so the recursive call uses prec+1, never prec).
func (p *Parser) parseExpr(minPrec int) (ast.Expr, *Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok, perr := p.peek()
		if perr != nil {
			return nil, perr
		}
		prec, ok := binPrec[tok.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.eat()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Span:  token.Join(left.ExprSpan(), right.ExprSpan()),
			Op:    binOp[tok.Kind],
			Left:  left,
			Right: right,
		}
	}
}

func (p *Parser) parseUnary() (ast.Expr, *Error) {
	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}
	switch tok.Kind {
	case token.SUB:
		p.eat()
		operand, err := p.parseUnaryOperand()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: token.Join(tok.Span, operand.ExprSpan()), Op: ast.OpNeg, Operand: operand}, nil
	case token.BANG:
		p.eat()
		operand, err := p.parseUnaryOperand()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Span: token.Join(tok.Span, operand.ExprSpan()), Op: ast.OpNot, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

// parseUnaryOperand lets unary operators nest (e.g. "- -1", "!!x") and bind
// tighter than any binary operator, per precUnary sitting above every
// binary level.
func (p *Parser) parseUnaryOperand() (ast.Expr, *Error) {
	return p.parseUnary()
}

// parsePostfix parses a primary expression followed by any run of field
// access (".name"), indexing ("[expr]"), and - only immediately after a
// bare identifier - call syntax ("(args)").
func (p *Parser) parsePostfix() (ast.Expr, *Error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok, perr := p.peek()
		if perr != nil {
			return nil, perr
		}
		switch tok.Kind {
		case token.DOT:
			p.eat()
			field, err := p.ident()
			if err != nil {
				return nil, err
			}
			base = &ast.FieldExpr{Span: token.Join(base.ExprSpan(), field.Span), Base: base, Field: field}
		case token.LBRACKET:
			p.eat()
			idx, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			end, err := p.expect(token.RBRACKET)
			if err != nil {
				return nil, err
			}
			base = &ast.IndexExpr{Span: token.Join(base.ExprSpan(), end.Span), Base: base, Index: idx}
		default:
			return base, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, *Error) {
	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}

	switch tok.Kind {
	case token.INT:
		p.eat()
		return &ast.LiteralExpr{Span: tok.Span, Kind: ast.LitInt, Raw: p.text(tok.Span)}, nil
	case token.FLOAT:
		p.eat()
		return &ast.LiteralExpr{Span: tok.Span, Kind: ast.LitFloat, Raw: p.text(tok.Span)}, nil
	case token.STRING:
		p.eat()
		return &ast.LiteralExpr{Span: tok.Span, Kind: ast.LitString, Raw: p.text(tok.Span)}, nil
	case token.KwNull:
		p.eat()
		return &ast.LiteralExpr{Span: tok.Span, Kind: ast.LitNull}, nil
	case token.LPAREN:
		p.eat()
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		end, err := p.expect(token.RPAREN)
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Span: token.Join(tok.Span, end.Span), Inner: inner}, nil
	case token.IDENT:
		p.eat()
		name := ast.Ident{Span: tok.Span, Name: p.text(tok.Span)}
		nextTok, perr := p.peek()
		if perr != nil {
			return nil, perr
		}
		if nextTok.Kind == token.LPAREN {
			args, end, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			return &ast.CallExpr{Span: token.Join(tok.Span, end), Callee: name, Args: args}, nil
		}
		return &ast.IdentExpr{Span: tok.Span, Name: name.Name}, nil
	default:
		p.eat()
		e := newError(UnexpectedToken, tok.Span)
		e.Got = tok.Kind
		return nil, e
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, token.Span, *Error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, token.Span{}, err
	}
	var args []ast.Expr
	tok, perr := p.peek()
	if perr != nil {
		return nil, token.Span{}, perr
	}
	if tok.Kind == token.RPAREN {
		close, _ := p.eat()
		return args, close.Span, nil
	}
	for {
		arg, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, token.Span{}, err
		}
		args = append(args, arg)
		tok, perr := p.peek()
		if perr != nil {
			return nil, token.Span{}, perr
		}
		if tok.Kind == token.COMMA {
			p.eat()
			continue
		}
		break
	}
	close, err := p.expect(token.RPAREN)
	if err != nil {
		return nil, token.Span{}, err
	}
	return args, close.Span, nil
}
