package constval

import (
	"testing"

	"daedalus/ast"
)

func lit(kind ast.LiteralKind, raw string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Kind: kind, Raw: raw}
}

func intLit(v string) *ast.LiteralExpr   { return lit(ast.LitInt, v) }
func floatLit(v string) *ast.LiteralExpr { return lit(ast.LitFloat, v) }

func newEvaluator(consts map[string]*ast.ConstItem) *Evaluator {
	return NewEvaluator(consts, nil)
}

func TestEvalArithmeticPromotesToFloat(t *testing.T) {
	e := newEvaluator(nil)
	expr := &ast.BinaryExpr{Op: ast.OpAdd, Left: intLit("1"), Right: floatLit("2.5")}
	v, err := e.Eval(expr)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.Kind != KFloat || v.Float != 3.5 {
		t.Errorf("result = %+v, want Float 3.5", v)
	}
}

func TestEvalIntDivisionByZero(t *testing.T) {
	e := newEvaluator(nil)
	expr := &ast.BinaryExpr{Op: ast.OpDiv, Left: intLit("1"), Right: intLit("0")}
	_, err := e.Eval(expr)
	if err == nil {
		t.Fatal("expected division by zero to be an error")
	}
}

func TestEvalConstCycleDetected(t *testing.T) {
	a := &ast.ConstItem{Name: ast.Ident{Name: "A"}}
	a.Init = &ast.IdentExpr{Name: "A"}
	consts := map[string]*ast.ConstItem{"A": a}
	e := newEvaluator(consts)

	_, err := e.EvalConst(a)
	if err == nil {
		t.Fatal("expected a self-referential const to be an error")
	}
}

func TestEvalConstMemoized(t *testing.T) {
	a := &ast.ConstItem{Name: ast.Ident{Name: "A"}, Init: intLit("7")}
	consts := map[string]*ast.ConstItem{"A": a}
	e := newEvaluator(consts)

	v1, err := e.EvalConst(a)
	if err != nil {
		t.Fatalf("EvalConst: %v", err)
	}
	v2, err := e.EvalConst(a)
	if err != nil {
		t.Fatalf("EvalConst (second call): %v", err)
	}
	if v1.Int != 7 || v2.Int != 7 {
		t.Errorf("memoized value changed: %+v, %+v", v1, v2)
	}
}

func TestEvalConstReference(t *testing.T) {
	a := &ast.ConstItem{Name: ast.Ident{Name: "BASE"}, Init: intLit("10")}
	b := &ast.ConstItem{Name: ast.Ident{Name: "DERIVED"}, Init: &ast.BinaryExpr{
		Op: ast.OpMul, Left: &ast.IdentExpr{Name: "base"}, Right: intLit("2"),
	}}
	consts := map[string]*ast.ConstItem{"BASE": a, "DERIVED": b}
	e := newEvaluator(consts)

	v, err := e.EvalConst(b)
	if err != nil {
		t.Fatalf("EvalConst: %v", err)
	}
	if v.Kind != KInt || v.Int != 20 {
		t.Errorf("result = %+v, want Int 20", v)
	}
}

func TestEvalComparisonAndLogical(t *testing.T) {
	e := newEvaluator(nil)
	cmp := &ast.BinaryExpr{Op: ast.OpLt, Left: intLit("1"), Right: intLit("2")}
	v, err := e.Eval(cmp)
	if err != nil || v.Kind != KInt || v.Int != 1 {
		t.Fatalf("1 < 2 = %+v, err=%v, want Int 1", v, err)
	}

	and := &ast.BinaryExpr{Op: ast.OpLogAnd, Left: intLit("1"), Right: intLit("0")}
	v, err = e.Eval(and)
	if err != nil || v.Int != 0 {
		t.Fatalf("1 && 0 = %+v, err=%v, want Int 0", v, err)
	}
}

func TestEvalBitwiseRequiresInt(t *testing.T) {
	e := newEvaluator(nil)
	expr := &ast.BinaryExpr{Op: ast.OpBitAnd, Left: floatLit("1.0"), Right: intLit("2")}
	_, err := e.Eval(expr)
	if err == nil {
		t.Fatal("expected bitwise operator on a float operand to be an error")
	}
}

func TestEvalStringConcat(t *testing.T) {
	e := newEvaluator(nil)
	expr := &ast.BinaryExpr{
		Op:    ast.OpAdd,
		Left:  lit(ast.LitString, `"foo"`),
		Right: lit(ast.LitString, `"bar"`),
	}
	v, err := e.Eval(expr)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if string(v.Str) != "foobar" {
		t.Errorf("result = %q, want \"foobar\"", v.Str)
	}
}
