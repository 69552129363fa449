package codegen

import (
	"testing"

	"daedalus/builtin"
	"daedalus/bytecode"
	"daedalus/fileset"
	"daedalus/parser"
)

func TestCompileEmptyProgram(t *testing.T) {
	reg := fileset.NewRegistry(false)
	table, code, errs := Compile(nil, reg, builtin.Default())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(table.Symbols()) != 1 {
		t.Fatalf("expected only the reserved help symbol, got %d symbols", len(table.Symbols()))
	}
	if code.Len() != 0 {
		t.Errorf("code length = %d, want 0", code.Len())
	}
}

func TestCompileExternFunc(t *testing.T) {
	reg := fileset.NewRegistry(false)
	src := `extern func void AI_Output(instance self, instance target, string text);`
	id := reg.Add("a.d", []byte(src))
	items, perrs := parser.ParseFile(id, []byte(src))
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, _, errs := Compile([]File{{ID: id, Items: items}}, reg, builtin.Default())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	found := false
	for _, s := range table.Symbols() {
		if s.Name == "AI_Output" {
			found = true
		}
	}
	if !found {
		t.Error("extern func symbol was not emitted")
	}
}

func TestCompileUnknownExternFails(t *testing.T) {
	reg := fileset.NewRegistry(false)
	src := `extern func void Not_A_Real_Function();`
	id := reg.Add("a.d", []byte(src))
	items, _ := parser.ParseFile(id, []byte(src))
	_, _, errs := Compile([]File{{ID: id, Items: items}}, reg, builtin.Default())
	if len(errs) == 0 {
		t.Fatal("expected an error for an unresolvable extern function")
	}
}

func TestCompileClassWithConstArraySize(t *testing.T) {
	reg := fileset.NewRegistry(false)
	src := `
const int ATTR_COUNT = 8;
class C_Npc {
	var string name;
	var int attribute[ATTR_COUNT];
};`
	id := reg.Add("a.d", []byte(src))
	items, perrs := parser.ParseFile(id, []byte(src))
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, _, errs := Compile([]File{{ID: id, Items: items}}, reg, builtin.Default())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	var attrCount uint32
	for _, s := range table.Symbols() {
		if s.Name == "C_Npc.attribute" {
			attrCount = s.Count
		}
	}
	if attrCount != 8 {
		t.Errorf("attribute field count = %d, want 8", attrCount)
	}
}

// TestCompileInstanceWithFieldAssignment replays the instance-lowering
// scenario: a zero-index field assignment, a nonzero-index field
// assignment, and an extern call passing self and a string literal. The
// exact instruction sequence distinguishes plain PushVar (index 0) from
// PushVV (nonzero index), which a mere "some bytecode was emitted" check
// would not catch.
func TestCompileInstanceWithFieldAssignment(t *testing.T) {
	reg := fileset.NewRegistry(false)
	src := `
const int MAX_HP = 8;
class C_NPC {
	var int attribute[MAX_HP];
};
extern func void Mdl_SetVisual(var instance n, var string s);
instance PC_HERO(C_NPC) {
	attribute[0] = 20;
	attribute[1] = 40;
	Mdl_SetVisual(self, "HUMANS.MDS");
};`
	id := reg.Add("a.d", []byte(src))
	items, perrs := parser.ParseFile(id, []byte(src))
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, code, errs := Compile([]File{{ID: id, Items: items}}, reg, builtin.Default())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	idOf := func(name string) uint32 {
		for i, s := range table.Symbols() {
			if s.Name == name {
				return uint32(i)
			}
		}
		t.Fatalf("symbol %q not found", name)
		return 0
	}
	attrID := idOf("C_NPC.attribute")
	heroID := idOf("PC_HERO")
	strID := idOf("\xFF10000")
	externID := idOf("Mdl_SetVisual")

	want := []bytecode.Instruction{
		bytecode.PushImmediate(20),
		bytecode.PushVar(attrID),
		bytecode.MovInt(),
		bytecode.PushImmediate(40),
		bytecode.PushVarVar(attrID, 1),
		bytecode.MovInt(),
		bytecode.PushVarInstance(heroID),
		bytecode.PushVar(strID),
		bytecode.CallExtern(externID),
		bytecode.Return(),
	}

	it := code.Iterate()
	for i, w := range want {
		got, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("instruction %d: decode error: %v", i, err)
		}
		if !ok {
			t.Fatalf("instruction %d: stream ended early", i)
		}
		if got != w {
			t.Errorf("instruction %d = %+v, want %+v", i, got, w)
		}
	}
	if _, _, ok, _ := it.Next(); ok {
		t.Error("expected the stream to be exhausted")
	}
}

func TestCompileIfElseProducesValidJumps(t *testing.T) {
	reg := fileset.NewRegistry(false)
	src := `
extern func void AI_Output(instance self, instance target, string text);
func void test() {
	if (1 < 2) {
		AI_Output(test, test, "a");
	} else {
		AI_Output(test, test, "b");
	};
};`
	id := reg.Add("a.d", []byte(src))
	items, perrs := parser.ParseFile(id, []byte(src))
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	_, code, errs := Compile([]File{{ID: id, Items: items}}, reg, builtin.Default())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	it := code.Iterate()
	count := 0
	starts := map[uint32]bool{}
	var targets []uint32
	for {
		ins, addr, ok, err := it.Next()
		if err != nil {
			t.Fatalf("decode error at instruction %d: %v", count, err)
		}
		if !ok {
			break
		}
		starts[addr] = true
		if ins.Opcode == bytecode.B || ins.Opcode == bytecode.Bz {
			targets = append(targets, ins.Address)
		}
		count++
		if count > 100 {
			t.Fatal("runaway decode: jump addresses are likely wrong")
		}
	}
	if count == 0 {
		t.Error("expected at least one decoded instruction")
	}
	if len(targets) != 2 {
		t.Errorf("got %d jumps, want 2 (Bz over the then-arm, B over the else-arm)", len(targets))
	}
	for _, a := range targets {
		if !starts[a] && a != code.Len() {
			t.Errorf("jump target %d is not an instruction boundary", a)
		}
	}
}

func TestCompileCaseInsensitiveSymbolResolution(t *testing.T) {
	reg := fileset.NewRegistry(false)
	src := `
var int MaxHP;
func void test() {
	MaxHP = maxhp + 1;
};`
	id := reg.Add("a.d", []byte(src))
	items, perrs := parser.ParseFile(id, []byte(src))
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	_, _, errs := Compile([]File{{ID: id, Items: items}}, reg, builtin.Default())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors resolving a var by a different case: %v", errs)
	}
}
