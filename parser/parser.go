// Package parser implements a recursive-descent parser with
// precedence-climbing expression parsing for Daedalus source.
//
// Error recovery is deliberately minimal: on a parse error the parser
// consumes exactly one token and returns to its caller, rather than
// scanning forward for a synchronizing token. ParseFile re-invokes item
// parsing after an error so one file can still yield every diagnostic it
// contains, but there is no attempt to resynchronize mid-expression or
// mid-statement.
package parser

import (
	"daedalus/ast"
	"daedalus/lexer"
	"daedalus/token"
)

// Parser parses one file's worth of tokens.
type Parser struct {
	lex  lexer.Lexer
	src  []byte
	file token.FileID
}

// New constructs a Parser over src, tagging every span with file.
func New(file token.FileID, src []byte) *Parser {
	return &Parser{lex: lexer.New(file, src), src: src, file: file}
}

// ParseFile parses every top-level item in src, returning as many items as
// it could recover and every error encountered along the way.
func ParseFile(file token.FileID, src []byte) ([]ast.Item, []*Error) {
	p := New(file, src)
	var items []ast.Item
	var errs []*Error

	for {
		tok, perr := p.peek()
		if perr != nil {
			errs = append(errs, perr)
			p.eat()
			continue
		}
		if tok.Kind == token.EOF {
			break
		}

		before := p.lex.Offset()
		item, ierr := p.parseItem()
		if ierr != nil {
			errs = append(errs, ierr)
			if p.lex.Offset() == before {
				p.eat()
			}
			continue
		}
		items = append(items, item)
	}

	return items, errs
}

func (p *Parser) lexErr(err error) *Error {
	if le, ok := err.(lexer.Error); ok {
		return &Error{Kind: UnknownToken, Span: le.Span, Detail: le.Msg}
	}
	return newError(UnknownToken, token.Span{File: p.file})
}

func (p *Parser) peek() (token.Token, *Error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return tok, p.lexErr(err)
	}
	return tok, nil
}

func (p *Parser) eat() (token.Token, *Error) {
	tok, err := p.lex.EatOne()
	if err != nil {
		return tok, p.lexErr(err)
	}
	return tok, nil
}

func (p *Parser) expect(kind token.Kind) (token.Token, *Error) {
	tok, perr := p.eat()
	if perr != nil {
		return tok, perr
	}
	if tok.Kind == token.EOF {
		return tok, newError(UnexpectedEOF, tok.Span)
	}
	if tok.Kind != kind {
		e := newError(ExpectedToken, tok.Span)
		e.Expected = kind
		e.Got = tok.Kind
		return tok, e
	}
	return tok, nil
}

func (p *Parser) text(span token.Span) string {
	return string(p.src[span.Start:span.End])
}

func (p *Parser) ident() (ast.Ident, *Error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return ast.Ident{}, err
	}
	return ast.Ident{Span: tok.Span, Name: p.text(tok.Span)}, nil
}

// builtinTypes maps the upper-cased spelling of a type specifier to the
// DataType it resolves to. Any identifier not in this table names a user
// class and resolves to ast.Class.
var builtinTypes = map[string]ast.DataType{
	"VOID":      ast.Void,
	"FLOAT":     ast.Float,
	"INT":       ast.Int,
	"STRING":    ast.String,
	"FUNC":      ast.Func,
	"PROTOTYPE": ast.Prototype,
	"INSTANCE":  ast.Instance,
}

// parseTypeName accepts either a plain identifier (a class name) or one of
// the keywords that double as type specifiers (func, instance, prototype),
// since Daedalus does not reserve those words solely for declarations.
func (p *Parser) parseTypeName() (ast.Ident, ast.DataType, *Error) {
	tok, perr := p.eat()
	if perr != nil {
		return ast.Ident{}, ast.Void, perr
	}
	switch tok.Kind {
	case token.IDENT, token.KwFunc, token.KwPrototype, token.KwInstance:
		name := p.text(tok.Span)
		id := ast.Ident{Span: tok.Span, Name: name}
		dt, ok := builtinTypes[upper(name)]
		if !ok {
			dt = ast.Class
		}
		return id, dt, nil
	default:
		e := newError(UnexpectedToken, tok.Span)
		e.Got = tok.Kind
		return ast.Ident{}, ast.Void, e
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// parseItem parses one top-level declaration.
func (p *Parser) parseItem() (ast.Item, *Error) {
	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}

	switch tok.Kind {
	case token.KwClass:
		return p.parseClass()
	case token.KwInstance:
		return p.parseInstance()
	case token.KwPrototype:
		return p.parsePrototype()
	case token.KwFunc:
		return p.parseFunc()
	case token.KwExtern:
		return p.parseExternFunc()
	case token.KwConst:
		return p.parseConst()
	case token.KwVar:
		item, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return item, nil
	default:
		p.eat()
		e := newError(UnexpectedToken, tok.Span)
		e.Got = tok.Kind
		return nil, e
	}
}

func (p *Parser) parseClass() (*ast.ClassItem, *Error) {
	start, err := p.expect(token.KwClass)
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	var fields []*ast.VarItem
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.RBRACE {
			break
		}
		field, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}

	return &ast.ClassItem{Span: token.Join(start.Span, end.Span), Name: name, Fields: fields}, nil
}

func (p *Parser) parsePrototype() (*ast.PrototypeItem, *Error) {
	start, err := p.expect(token.KwPrototype)
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	parent, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.PrototypeItem{Span: token.Join(start.Span, body.Span), Name: name, Parent: parent, Body: *body}, nil
}

func (p *Parser) parseInstance() (*ast.InstanceItem, *Error) {
	start, err := p.expect(token.KwInstance)
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	parent, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	peeked, err := p.peek()
	if err != nil {
		return nil, err
	}
	if peeked.Kind == token.SEMI {
		semi, _ := p.eat()
		return &ast.InstanceItem{Span: token.Join(start.Span, semi.Span), Name: name, Parent: parent, HasBody: false}, nil
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.InstanceItem{Span: token.Join(start.Span, body.Span), Name: name, Parent: parent, HasBody: true, Body: *body}, nil
}

func (p *Parser) parseParamList() ([]*ast.Param, *Error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []*ast.Param
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == token.RPAREN {
		p.eat()
		return params, nil
	}
	for {
		varTok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if varTok.Kind == token.KwVar {
			p.eat()
		}
		typeName, dt, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		start := typeName.Span
		if varTok.Kind == token.KwVar {
			start = varTok.Span
		}
		params = append(params, &ast.Param{
			Span:     token.Join(start, name.Span),
			Name:     name,
			Type:     dt,
			TypeName: typeName,
		})

		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.COMMA {
			p.eat()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunc() (*ast.FuncItem, *Error) {
	start, err := p.expect(token.KwFunc)
	if err != nil {
		return nil, err
	}
	retTypeName, retType, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.FuncItem{
		Span:           token.Join(start.Span, body.Span),
		Name:           name,
		ReturnType:     retType,
		ReturnTypeName: retTypeName,
		Params:         params,
		Body:           *body,
	}, nil
}

func (p *Parser) parseExternFunc() (*ast.ExternFuncItem, *Error) {
	start, err := p.expect(token.KwExtern)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwFunc); err != nil {
		return nil, err
	}
	retTypeName, retType, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(token.SEMI)
	if err != nil {
		return nil, err
	}
	return &ast.ExternFuncItem{
		Span:           token.Join(start.Span, end.Span),
		Name:           name,
		ReturnType:     retType,
		ReturnTypeName: retTypeName,
		Params:         params,
	}, nil
}

// parseVar parses the shared `TYPE name` / `TYPE name[size]` grammar used
// by top-level var declarations, class fields, and local var statements.
// parseVar consumes the leading "var" keyword itself; the caller consumes
// the terminating ";".
func (p *Parser) parseVar() (*ast.VarItem, *Error) {
	start, err := p.expect(token.KwVar)
	if err != nil {
		return nil, err
	}
	typeName, dt, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	v := &ast.VarItem{Name: name, Type: dt, TypeName: typeName, Shape: ast.Scalar}
	end := name.Span

	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}
	if tok.Kind == token.LBRACKET {
		p.eat()
		size, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		closeTok, err := p.expect(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		v.Shape = ast.Array
		v.ArraySize = size
		end = closeTok.Span
	}

	v.Span = token.Join(start.Span, end)
	return v, nil
}

func (p *Parser) parseConst() (*ast.ConstItem, *Error) {
	start, err := p.expect(token.KwConst)
	if err != nil {
		return nil, err
	}
	typeName, dt, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	c := &ast.ConstItem{Name: name, Type: dt, TypeName: typeName, Shape: ast.Scalar}

	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}
	if tok.Kind == token.LBRACKET {
		p.eat()
		size, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		c.Shape = ast.Array
		c.ArraySize = size
	}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}

	if c.Shape == ast.Array {
		if _, err := p.expect(token.LBRACE); err != nil {
			return nil, err
		}
		var elems []ast.Expr
		tok, perr := p.peek()
		if perr != nil {
			return nil, perr
		}
		if tok.Kind != token.RBRACE {
			for {
				e, err := p.parseExpr(precLowest)
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
				tok, err := p.peek()
				if err != nil {
					return nil, err
				}
				if tok.Kind == token.COMMA {
					p.eat()
					continue
				}
				break
			}
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		c.ArrayInit = elems
	} else {
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		c.Init = e
	}

	end, err := p.expect(token.SEMI)
	if err != nil {
		return nil, err
	}
	c.Span = token.Join(start.Span, end.Span)
	return c, nil
}

// parseBlock parses a `{ ... }` statement sequence.
func (p *Parser) parseBlock() (*ast.Block, *Error) {
	start, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	var items []ast.BlockItem
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.RBRACE {
			break
		}
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	end, err := p.expect(token.RBRACE)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Span: token.Join(start.Span, end.Span), Items: items}, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, *Error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case token.KwVar:
		decl, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(token.SEMI)
		if err != nil {
			return nil, err
		}
		return &ast.VarDeclStmt{Span: token.Join(decl.Span, end.Span), Decl: decl}, nil
	case token.KwIf:
		return p.parseIf()
	case token.KwReturn:
		start, _ := p.eat()
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if peeked.Kind == token.SEMI {
			end, _ := p.eat()
			return &ast.ReturnStmt{Span: token.Join(start.Span, end.Span)}, nil
		}
		val, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		end, err := p.expect(token.SEMI)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Span: token.Join(start.Span, end.Span), Value: val}, nil
	default:
		return p.parseSimpleStmt()
	}
}

var assignOps = map[token.Kind]ast.AssignOp{
	token.ASSIGN:     ast.Assign,
	token.ADD_ASSIGN: ast.AddAssign,
	token.SUB_ASSIGN: ast.SubAssign,
	token.MUL_ASSIGN: ast.MulAssign,
	token.DIV_ASSIGN: ast.DivAssign,
}

// parseSimpleStmt parses either an assignment statement or a bare call
// expression statement, disambiguated by what follows the initial
// expression.
func (p *Parser) parseSimpleStmt() (ast.BlockItem, *Error) {
	x, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}

	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}
	if op, ok := assignOps[tok.Kind]; ok {
		p.eat()
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		end, err := p.expect(token.SEMI)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Span: token.Join(x.ExprSpan(), end.Span), Target: x, Op: op, Value: value}, nil
	}

	end, err := p.expect(token.SEMI)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Span: token.Join(x.ExprSpan(), end.Span), X: x}, nil
}

// parseIf parses an if/else-if/else chain into a linked list of *ast.If
// arms. The original tool tolerates a stray ";" after a block's closing
// brace; that quirk is preserved as HasSemi rather than rejected.
func (p *Parser) parseIf() (*ast.If, *Error) {
	start, err := p.expect(token.KwIf)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	node := &ast.If{Condition: cond, Block: *block, HasIf: true}
	end := block.Span

	hasSemi, semiSpan := p.tryEatSemi()
	node.HasSemi = hasSemi
	if hasSemi {
		end = semiSpan
	}

	tok, perr := p.peek()
	if perr != nil {
		return nil, perr
	}
	if tok.Kind == token.KwElse {
		p.eat()
		nextTok, perr := p.peek()
		if perr != nil {
			return nil, perr
		}
		if nextTok.Kind == token.KwIf {
			next, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			next.HasElse = true
			node.Next = next
			end = next.Span
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			elseArm := &ast.If{Block: *elseBlock, HasElse: true, HasIf: false}
			hasSemi, semiSpan := p.tryEatSemi()
			elseArm.HasSemi = hasSemi
			elseArm.Span = elseBlock.Span
			if hasSemi {
				elseArm.Span = semiSpan
			}
			node.Next = elseArm
			end = elseArm.Span
		}
	}

	node.Span = token.Join(start.Span, end)
	return node, nil
}

func (p *Parser) tryEatSemi() (bool, token.Span) {
	tok, err := p.peek()
	if err != nil {
		return false, token.Span{}
	}
	if tok.Kind == token.SEMI {
		got, _ := p.eat()
		return true, got.Span
	}
	return false, token.Span{}
}
