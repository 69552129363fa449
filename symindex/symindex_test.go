package symindex

import (
	"testing"

	"daedalus/ast"
	"daedalus/token"
)

func ident(name string) ast.Ident { return ast.Ident{Name: name} }

func TestBuildAssignsHelpSymbolID0(t *testing.T) {
	idx := Build(nil)
	id, ok := idx.ID(HelpSymbolName)
	if !ok || id != 0 {
		t.Fatalf("help symbol id = %d, ok = %v, want 0, true", id, ok)
	}
}

func TestBuildAssignsDenseIDsInOrder(t *testing.T) {
	fn := &ast.FuncItem{Name: ident("Foo"), Params: []*ast.Param{{Name: ident("x")}}}
	cls := &ast.ClassItem{Name: ident("C_Npc"), Fields: []*ast.VarItem{{Name: ident("name")}}}

	idx := Build([][]ast.Item{{fn, cls}})

	fooID, _ := idx.ID("FOO")
	paramID, _ := idx.ID("FOO.X")
	classID, _ := idx.ID("C_NPC")
	fieldID, _ := idx.ID("C_NPC.NAME")

	if fooID != 1 || paramID != 2 || classID != 3 || fieldID != 4 {
		t.Errorf("ids = %d,%d,%d,%d, want 1,2,3,4", fooID, paramID, classID, fieldID)
	}
	if idx.Len() != 5 {
		t.Errorf("Len() = %d, want 5", idx.Len())
	}
}

func TestBuildIsCaseInsensitive(t *testing.T) {
	fn := &ast.FuncItem{Name: ident("Foo")}
	idx := Build([][]ast.Item{{fn}})

	id, ok := idx.ID("foo")
	if !ok {
		t.Fatal("lowercase lookup failed")
	}
	id2, _ := idx.ID("FOO")
	if id != id2 {
		t.Errorf("case-insensitive lookups disagree: %d vs %d", id, id2)
	}
}

func TestBuildFirstOccurrenceWins(t *testing.T) {
	first := &ast.FuncItem{Name: ident("Dup"), Span: token.Span{Start: 1}}
	second := &ast.FuncItem{Name: ident("Dup"), Span: token.Span{Start: 2}}
	idx := Build([][]ast.Item{{first, second}})

	if _, ok := idx.IDForNode(first); !ok {
		t.Error("first declaration should have claimed an id")
	}
	if _, ok := idx.IDForNode(second); ok {
		t.Error("second (duplicate) declaration should not have claimed an id")
	}
}

func TestKindTracksDeclarationShape(t *testing.T) {
	ext := &ast.ExternFuncItem{Name: ident("Ext")}
	fn := &ast.FuncItem{Name: ident("Fn")}
	inst := &ast.InstanceItem{Name: ident("Inst"), Parent: ident("C")}

	idx := Build([][]ast.Item{{ext, fn, inst}})

	if idx.Kind("EXT") != ExternFunction {
		t.Error("extern func should have Kind ExternFunction")
	}
	if idx.Kind("FN") != Function {
		t.Error("func should have Kind Function")
	}
	if idx.Kind("INST") != Instance {
		t.Error("instance should have Kind Instance")
	}
}
