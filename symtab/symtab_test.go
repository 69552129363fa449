package symtab

import (
	"testing"

	"daedalus/ast"
)

func TestNewReservesHelpSymbolAtID0(t *testing.T) {
	table := New()
	syms := table.Symbols()
	if len(syms) != 1 || syms[0].Name != HelpSymbolName {
		t.Fatalf("New() did not seed the help symbol at id 0: %+v", syms)
	}
}

func TestElemPropsRoundTrip(t *testing.T) {
	r := Record{Count: 3, DataType: ast.String, Flags: FlagConst | FlagClassVar, Space: 1}
	word := r.ElemProps()

	count, dt, flags, space, reserved := ElemPropsFromWord(word)
	if count != 3 || dt != ast.String || flags != (FlagConst|FlagClassVar) || space != 1 || reserved != 0 {
		t.Errorf("round trip mismatch: count=%d dt=%s flags=%#x space=%d reserved=%d", count, dt, flags, space, reserved)
	}
}

func TestPack19Unpack19RoundTrip(t *testing.T) {
	word := Pack19(123456) | 77<<19
	value, reserved := Unpack19(word)
	if value != 123456 || reserved != 77 {
		t.Errorf("Unpack19 = %d, %d, want 123456, 77", value, reserved)
	}
}

func TestPack24Unpack24RoundTrip(t *testing.T) {
	word := Pack24(1000000) | 200<<24
	value, reserved := Unpack24(word)
	if value != 1000000 || reserved != 200 {
		t.Errorf("Unpack24 = %d, %d, want 1000000, 200", value, reserved)
	}
}

func TestClassFieldOffsetsAndParent(t *testing.T) {
	table := New()
	classID, err := table.Class("C_NPC", CodeSpan{}, []Field{
		{Name: "NAME", Type: ast.String, Count: 1},
		{Name: "HP", Type: ast.Int, Count: 1},
	}, 800, 288)
	if err != nil {
		t.Fatalf("Class: %v", err)
	}

	syms := table.Symbols()
	class := syms[classID]
	if class.DataType != ast.Class || class.Data.Kind != DataClassOffset || class.Data.ClassOffset != 288 {
		t.Errorf("class record = %+v, want DataClassOffset 288", class)
	}

	name := syms[classID+1]
	if name.OffClsRet != 288 || name.Parent != int32(classID) {
		t.Errorf("NAME field offset/parent = %d/%d, want 288/%d", name.OffClsRet, name.Parent, classID)
	}
	hp := syms[classID+2]
	if hp.OffClsRet != 288+20 {
		t.Errorf("HP field offset = %d, want %d (after a 20-byte string field)", hp.OffClsRet, 308)
	}
}

func TestClassRejectsUnsupportedFieldType(t *testing.T) {
	table := New()
	_, err := table.Class("Bad", CodeSpan{}, []Field{
		{Name: "SELF", Type: ast.Instance, Count: 1},
	}, 800, 288)
	if err == nil {
		t.Fatal("expected an Instance-typed field to be rejected")
	}
}

func TestExternFuncEmitsParamSymbols(t *testing.T) {
	table := New()
	id := table.ExternFunc("AI_Output", CodeSpan{}, []Arg{
		{Name: "Self", Type: ast.Instance},
		{Name: "Target", Type: ast.Instance},
		{Name: "Text", Type: ast.String},
	}, ast.Void, 10)

	syms := table.Symbols()
	fn := syms[id]
	if fn.Flags&FlagExternal == 0 {
		t.Error("extern func record should carry FlagExternal")
	}
	if fn.Data.Address != 10 {
		t.Errorf("extern func dispatch address = %d, want 10", fn.Data.Address)
	}
	if syms[id+1].Name != "AI_Output.Self" || syms[id+3].Name != "AI_Output.Text" {
		t.Errorf("param names not emitted in order: %+v", syms[id+1:id+4])
	}
}

func TestStringInterningUsesReservedBand(t *testing.T) {
	table := New()
	a := table.String([]byte("hello"))
	b := table.String([]byte("world"))

	syms := table.Symbols()
	if syms[a].Name != "\xFF10000" || syms[b].Name != "\xFF10001" {
		t.Errorf("interned names = %q, %q, want \\xFF10000, \\xFF10001", syms[a].Name, syms[b].Name)
	}
}

func TestGenerateSortTableOrdersByName(t *testing.T) {
	table := New()
	table.Var("Zebra", CodeSpan{}, ast.Int, 1)
	table.Var("Apple", CodeSpan{}, ast.Int, 1)
	table.GenerateSortTable()

	idx := table.SortIndex()
	syms := table.Symbols()
	for i := 1; i < len(idx); i++ {
		if syms[idx[i-1]].Name > syms[idx[i]].Name {
			t.Fatalf("sort index not ascending at %d: %q > %q", i, syms[idx[i-1]].Name, syms[idx[i]].Name)
		}
	}
}
