// Package bytecode encodes and decodes the flat instruction stream a
// compiled image carries: one opcode byte per instruction, followed by
// zero or more operand bytes whose shape is fixed by the opcode.
package bytecode

// Opcode is one VM instruction tag. Numeric values are part of the wire
// format and must not be renumbered.
type Opcode uint8

const (
	Add    Opcode = 0  // a + b
	Sub    Opcode = 1  // a - b
	Mul    Opcode = 2  // a * b
	Div    Opcode = 3  // a / b
	Mod    Opcode = 4  // a % b
	Or     Opcode = 5  // a | b
	AndB   Opcode = 6  // a & b
	Lt     Opcode = 7  // a < b
	Gt     Opcode = 8  // a > b
	MovI   Opcode = 9  // *x = b (int)
	Orr    Opcode = 11 // a || b
	And    Opcode = 12 // a && b
	Lsl    Opcode = 13 // a << b
	Lsr    Opcode = 14 // a >> b
	Lte    Opcode = 15 // a <= b
	Eq     Opcode = 16 // a == b
	Neq    Opcode = 17 // a != b
	Gte    Opcode = 18 // a >= b
	AddMovI Opcode = 19 // *x += b
	SubMovI Opcode = 20 // *x -= b
	MulMovI Opcode = 21 // *x *= b
	DivMovI Opcode = 22 // *x /= b
	Plus   Opcode = 30 // +a
	Negate Opcode = 31 // -a
	Not    Opcode = 32 // !a
	Cmpl   Opcode = 33 // ~a

	Nop Opcode = 45 // no-op

	Rsr Opcode = 60 // return

	Bl Opcode = 61 // call function at address operand
	Be Opcode = 62 // call extern at symbol operand

	PushI  Opcode = 64 // push immediate operand as int
	PushV  Opcode = 65 // push symbol operand as a reference
	PushVI Opcode = 67 // push symbol operand as an instance reference

	MovS  Opcode = 70 // *x = m (string)
	MovSs Opcode = 71 // *x = m (string reference; unimplemented by the host)
	MovVF Opcode = 72 // *x = b (function reference)
	MovF  Opcode = 73 // *x = b (float)
	MovVI Opcode = 74 // *x = y (instance reference)

	B  Opcode = 75 // unconditional jump to address operand
	Bz Opcode = 76 // jump to address operand if a == 0

	GMovI Opcode = 80 // set the global instance reference to the symbol operand

	PushVV Opcode = 245 // push element Index of symbol operand as a reference
)

var opcodeNames = map[Opcode]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Mod: "mod",
	Or: "or", AndB: "andb", Lt: "lt", Gt: "gt", MovI: "movi",
	Orr: "orr", And: "and", Lsl: "lsl", Lsr: "lsr", Lte: "lte",
	Eq: "eq", Neq: "neq", Gte: "gte",
	AddMovI: "addmovi", SubMovI: "submovi", MulMovI: "mulmovi", DivMovI: "divmovi",
	Plus: "plus", Negate: "negate", Not: "not", Cmpl: "cmpl",
	Nop: "nop", Rsr: "rsr", Bl: "bl", Be: "be",
	PushI: "pushi", PushV: "pushv", PushVI: "pushvi",
	MovS: "movs", MovSs: "movss", MovVF: "movvf", MovF: "movf", MovVI: "movvi",
	B: "b", Bz: "bz", GMovI: "gmovi", PushVV: "pushvv",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "unknown"
}

// shape reports the operand shape decode/encode must use for op, and
// whether op is a recognized opcode at all. An unrecognized opcode byte
// must be rejected by the decoder rather than silently treated as a
// zero-operand instruction.
func (op Opcode) shape() (operandShape, bool) {
	switch op {
	case Bl, Bz, B:
		return shapeAddress, true
	case PushI:
		return shapeImmediate, true
	case Be, PushV, PushVI, GMovI:
		return shapeSymbol, true
	case PushVV:
		return shapeSymbolIndex, true
	}
	if _, ok := opcodeNames[op]; ok {
		return shapeNone, true
	}
	return shapeNone, false
}
