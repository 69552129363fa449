package parser

import (
	"testing"

	"daedalus/ast"
)

func parseOK(t *testing.T, src string) []ast.Item {
	t.Helper()
	items, errs := ParseFile(0, []byte(src))
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return items
}

func TestParseExternFunc(t *testing.T) {
	items := parseOK(t, `extern func void AI_Output(instance self, instance target, string text);`)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	fn, ok := items[0].(*ast.ExternFuncItem)
	if !ok {
		t.Fatalf("item type = %T, want *ast.ExternFuncItem", items[0])
	}
	if fn.Name.Name != "AI_Output" || len(fn.Params) != 3 {
		t.Errorf("fn = %+v", fn)
	}
	if fn.Params[2].Type != ast.String {
		t.Errorf("third param type = %s, want string", fn.Params[2].Type)
	}
}

func TestParseClassWithArrayField(t *testing.T) {
	items := parseOK(t, `
class C_Npc {
	var string name;
	var int attribute[8];
};`)
	cls, ok := items[0].(*ast.ClassItem)
	if !ok {
		t.Fatalf("item type = %T, want *ast.ClassItem", items[0])
	}
	if len(cls.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(cls.Fields))
	}
	if cls.Fields[1].Shape != ast.Array {
		t.Error("attribute field should be an array")
	}
}

func TestParseInstanceWithBody(t *testing.T) {
	items := parseOK(t, `
instance hero(C_Npc) {
	hero.name = "Hero";
};`)
	inst, ok := items[0].(*ast.InstanceItem)
	if !ok {
		t.Fatalf("item type = %T, want *ast.InstanceItem", items[0])
	}
	if !inst.HasBody || len(inst.Body.Items) != 1 {
		t.Errorf("instance = %+v", inst)
	}
}

func TestParseInstanceWithoutBody(t *testing.T) {
	items := parseOK(t, `instance hero(NpcPrototype);`)
	inst := items[0].(*ast.InstanceItem)
	if inst.HasBody {
		t.Error("instance referencing a prototype should have HasBody = false")
	}
}

func TestParseIfElseIfElseChain(t *testing.T) {
	items := parseOK(t, `
func void test() {
	if (1 < 2) {
	} else if (2 < 3) {
	} else {
	};
};`)
	fn := items[0].(*ast.FuncItem)
	ifStmt := fn.Body.Items[0].(*ast.If)
	if ifStmt.Next == nil || ifStmt.Next.Next == nil {
		t.Fatal("expected a three-arm if/else-if/else chain")
	}
	if !ifStmt.Next.HasIf {
		t.Error("middle arm should have its own condition")
	}
	if ifStmt.Next.Next.HasIf {
		t.Error("final else arm should not have a condition")
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	items := parseOK(t, `const int x = 1 + 2 * 3;`)
	c := items[0].(*ast.ConstItem)
	bin, ok := c.Init.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("top-level op = %+v, want OpAdd", c.Init)
	}
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("right operand = %+v, want a multiplication", bin.Right)
	}
}

func TestParseErrorRecoversAndReportsSpan(t *testing.T) {
	_, errs := ParseFile(0, []byte(`func void broken( {} ;`))
	if len(errs) == 0 {
		t.Fatal("expected at least one parse error")
	}
	// The first error points at the stray "{" (bytes 18-19); parsing then
	// continues and reports the tokens that follow.
	if errs[0].Span.Start != 18 || errs[0].Span.End != 19 {
		t.Errorf("first error span = %+v, want 18:19", errs[0].Span)
	}
	if len(errs) < 2 {
		t.Errorf("got %d errors, want parsing to continue past the first", len(errs))
	}
}

func TestParseConstArrayInit(t *testing.T) {
	items := parseOK(t, `const int xs[3] = {1, 2, 3};`)
	c := items[0].(*ast.ConstItem)
	if c.Shape != ast.Array || len(c.ArrayInit) != 3 {
		t.Errorf("const array = %+v", c)
	}
}
