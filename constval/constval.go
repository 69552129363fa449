// Package constval folds `const` declarations and array-size expressions
// down to concrete values at compile time. Daedalus array sizes and const
// initializers must be constant-foldable; nothing here ever touches a
// runtime value.
package constval

import (
	"fmt"

	"daedalus/ast"
	"daedalus/symindex"
)

// Kind tags which field of Value is meaningful.
type Kind int

const (
	KInt Kind = iota
	KFloat
	KString
	KArray
	KSymbol
)

// Value is the tagged union constant expressions fold to: Int(i32),
// Float(f32), String(bytes), Array(Value...), or a reference to another
// symbol's id (a bare identifier naming an instance, class, or function
// used where a value is expected).
type Value struct {
	Kind  Kind
	Int   int32
	Float float32
	Str   []byte
	Arr   []Value
	Sym   uint32
}

// Error is a constant-evaluation failure: an unsupported expression shape,
// a type mismatch, or a dependency cycle between const declarations.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Evaluator folds const declarations, memoizing each by pointer identity
// and detecting cycles through a simple on-stack set - a const that
// (directly or transitively) refers to itself is reported as an error
// rather than looping forever.
type Evaluator struct {
	consts   map[string]*ast.ConstItem
	symbols  *symindex.Index
	memo     map[*ast.ConstItem]Value
	visiting map[*ast.ConstItem]bool
}

// NewEvaluator builds an Evaluator over every const declaration in the
// program (keyed by canonical upper-cased name) and the symbol index used
// to resolve bare-identifier symbol references.
func NewEvaluator(consts map[string]*ast.ConstItem, symbols *symindex.Index) *Evaluator {
	return &Evaluator{
		consts:   consts,
		symbols:  symbols,
		memo:     make(map[*ast.ConstItem]Value),
		visiting: make(map[*ast.ConstItem]bool),
	}
}

// EvalConst folds a scalar const's Init expression.
func (e *Evaluator) EvalConst(c *ast.ConstItem) (Value, error) {
	if v, ok := e.memo[c]; ok {
		return v, nil
	}
	if e.visiting[c] {
		return Value{}, &Error{Msg: fmt.Sprintf("const %q is defined in terms of itself", c.Name.Name)}
	}
	e.visiting[c] = true
	defer delete(e.visiting, c)

	v, err := e.Eval(c.Init)
	if err != nil {
		return Value{}, err
	}
	e.memo[c] = v
	return v, nil
}

// EvalConstArray folds every element of an array const's ArrayInit list.
func (e *Evaluator) EvalConstArray(c *ast.ConstItem) ([]Value, error) {
	out := make([]Value, 0, len(c.ArrayInit))
	for _, expr := range c.ArrayInit {
		v, err := e.Eval(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Eval folds any expression to a Value, resolving identifiers that name a
// const declaration recursively (with cycle detection) and identifiers
// that name anything else in the symbol table as a SymbolRef.
func (e *Evaluator) Eval(expr ast.Expr) (Value, error) {
	switch x := expr.(type) {
	case *ast.LiteralExpr:
		return e.evalLiteral(x)
	case *ast.IdentExpr:
		return e.evalIdent(x)
	case *ast.ParenExpr:
		return e.Eval(x.Inner)
	case *ast.UnaryExpr:
		return e.evalUnary(x)
	case *ast.BinaryExpr:
		return e.evalBinary(x)
	default:
		return Value{}, &Error{Msg: "expression is not a compile-time constant"}
	}
}

func (e *Evaluator) evalLiteral(lit *ast.LiteralExpr) (Value, error) {
	switch lit.Kind {
	case ast.LitInt:
		n, err := parseIntLiteral(lit.Raw)
		if err != nil {
			return Value{}, &Error{Msg: err.Error()}
		}
		return Value{Kind: KInt, Int: n}, nil
	case ast.LitFloat:
		f, err := parseFloatLiteral(lit.Raw)
		if err != nil {
			return Value{}, &Error{Msg: err.Error()}
		}
		return Value{Kind: KFloat, Float: f}, nil
	case ast.LitString:
		return Value{Kind: KString, Str: unescapeString(lit.Raw)}, nil
	case ast.LitNull:
		return Value{Kind: KInt, Int: 0}, nil
	default:
		return Value{}, &Error{Msg: "unknown literal kind"}
	}
}

func (e *Evaluator) evalIdent(id *ast.IdentExpr) (Value, error) {
	if c, ok := e.consts[upper(id.Name)]; ok {
		return e.EvalConst(c)
	}
	if e.symbols != nil {
		if symID, ok := e.symbols.ID(id.Name); ok {
			return Value{Kind: KSymbol, Sym: symID}, nil
		}
	}
	return Value{}, &Error{Msg: fmt.Sprintf("undefined identifier %q in constant expression", id.Name)}
}

func (e *Evaluator) evalUnary(u *ast.UnaryExpr) (Value, error) {
	v, err := e.Eval(u.Operand)
	if err != nil {
		return Value{}, err
	}
	switch u.Op {
	case ast.OpNeg:
		switch v.Kind {
		case KInt:
			return Value{Kind: KInt, Int: -v.Int}, nil
		case KFloat:
			return Value{Kind: KFloat, Float: -v.Float}, nil
		}
	case ast.OpNot:
		if v.Kind == KInt {
			return Value{Kind: KInt, Int: boolInt(v.Int == 0)}, nil
		}
	}
	return Value{}, &Error{Msg: "unary operator not applicable to this constant"}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// evalBinary implements the operator table: arithmetic promotes int to
// float whenever either operand is float; comparisons and logical
// operators always produce an Int 0/1; bitwise operators require both
// operands to be Int.
func (e *Evaluator) evalBinary(b *ast.BinaryExpr) (Value, error) {
	left, err := e.Eval(b.Left)
	if err != nil {
		return Value{}, err
	}
	right, err := e.Eval(b.Right)
	if err != nil {
		return Value{}, err
	}

	switch b.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return e.evalArith(b.Op, left, right)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return e.evalCompare(b.Op, left, right)
	case ast.OpLogAnd, ast.OpLogOr:
		return e.evalLogical(b.Op, left, right)
	case ast.OpBitAnd, ast.OpBitOr, ast.OpShl, ast.OpShr:
		return e.evalBitwise(b.Op, left, right)
	default:
		return Value{}, &Error{Msg: "unsupported binary operator in constant expression"}
	}
}

func (e *Evaluator) evalArith(op ast.BinOp, left, right Value) (Value, error) {
	if left.Kind == KString && right.Kind == KString && op == ast.OpAdd {
		return Value{Kind: KString, Str: append(append([]byte{}, left.Str...), right.Str...)}, nil
	}
	if left.Kind == KFloat || right.Kind == KFloat {
		lf, ok1 := asFloat(left)
		rf, ok2 := asFloat(right)
		if !ok1 || !ok2 {
			return Value{}, &Error{Msg: "arithmetic operator requires numeric operands"}
		}
		var result float32
		switch op {
		case ast.OpAdd:
			result = lf + rf
		case ast.OpSub:
			result = lf - rf
		case ast.OpMul:
			result = lf * rf
		case ast.OpDiv:
			result = lf / rf
		case ast.OpMod:
			return Value{}, &Error{Msg: "modulo is only defined for integers"}
		}
		return Value{Kind: KFloat, Float: result}, nil
	}
	if left.Kind == KInt && right.Kind == KInt {
		var result int32
		switch op {
		case ast.OpAdd:
			result = left.Int + right.Int
		case ast.OpSub:
			result = left.Int - right.Int
		case ast.OpMul:
			result = left.Int * right.Int
		case ast.OpDiv:
			if right.Int == 0 {
				return Value{}, &Error{Msg: "division by zero in constant expression"}
			}
			result = left.Int / right.Int
		case ast.OpMod:
			if right.Int == 0 {
				return Value{}, &Error{Msg: "modulo by zero in constant expression"}
			}
			result = left.Int % right.Int
		}
		return Value{Kind: KInt, Int: result}, nil
	}
	return Value{}, &Error{Msg: "arithmetic operator requires numeric operands"}
}

func (e *Evaluator) evalCompare(op ast.BinOp, left, right Value) (Value, error) {
	lf, ok1 := asFloat(left)
	rf, ok2 := asFloat(right)
	if !ok1 || !ok2 {
		return Value{}, &Error{Msg: "comparison operator requires numeric operands"}
	}
	var result bool
	switch op {
	case ast.OpEq:
		result = lf == rf
	case ast.OpNeq:
		result = lf != rf
	case ast.OpLt:
		result = lf < rf
	case ast.OpLte:
		result = lf <= rf
	case ast.OpGt:
		result = lf > rf
	case ast.OpGte:
		result = lf >= rf
	}
	return Value{Kind: KInt, Int: boolInt(result)}, nil
}

func (e *Evaluator) evalLogical(op ast.BinOp, left, right Value) (Value, error) {
	if left.Kind != KInt || right.Kind != KInt {
		return Value{}, &Error{Msg: "logical operator requires integer operands"}
	}
	var result bool
	switch op {
	case ast.OpLogAnd:
		result = left.Int != 0 && right.Int != 0
	case ast.OpLogOr:
		result = left.Int != 0 || right.Int != 0
	}
	return Value{Kind: KInt, Int: boolInt(result)}, nil
}

func (e *Evaluator) evalBitwise(op ast.BinOp, left, right Value) (Value, error) {
	if left.Kind != KInt || right.Kind != KInt {
		return Value{}, &Error{Msg: "bitwise operator requires integer operands"}
	}
	var result int32
	switch op {
	case ast.OpBitAnd:
		result = left.Int & right.Int
	case ast.OpBitOr:
		result = left.Int | right.Int
	case ast.OpShl:
		result = left.Int << uint32(right.Int)
	case ast.OpShr:
		result = left.Int >> uint32(right.Int)
	}
	return Value{Kind: KInt, Int: result}, nil
}

func asFloat(v Value) (float32, bool) {
	switch v.Kind {
	case KInt:
		return float32(v.Int), true
	case KFloat:
		return v.Float, true
	default:
		return 0, false
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
