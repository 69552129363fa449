package bytecode

import (
	"encoding/binary"
	"fmt"
)

type operandShape int

const (
	shapeNone operandShape = iota
	shapeAddress
	shapeImmediate
	shapeSymbol
	shapeSymbolIndex
)

// Instruction is one decoded bytecode instruction: an opcode plus whichever
// operand its shape requires. Address and Symbol are both 4-byte unsigned
// values distinguished only by meaning (a code offset vs. a symbol table
// id); Immediate is signed; SymbolIndex additionally carries a 1-byte
// array index.
type Instruction struct {
	Opcode Opcode
	// Operand fields: only the one matching Opcode.shape() is meaningful.
	Address     uint32
	Immediate   int32
	Symbol      uint32
	SymbolIndex uint8
}

// Size returns the instruction's encoded length in bytes, including its
// opcode byte.
func (ins Instruction) Size() int {
	shape, _ := ins.Opcode.shape()
	switch shape {
	case shapeAddress, shapeImmediate, shapeSymbol:
		return 1 + 4
	case shapeSymbolIndex:
		return 1 + 4 + 1
	default:
		return 1
	}
}

// Encode appends ins's wire representation to buf and returns the result.
func (ins Instruction) Encode(buf []byte) []byte {
	buf = append(buf, byte(ins.Opcode))
	shape, _ := ins.Opcode.shape()
	switch shape {
	case shapeAddress:
		buf = appendU32(buf, ins.Address)
	case shapeImmediate:
		buf = appendU32(buf, uint32(ins.Immediate))
	case shapeSymbol:
		buf = appendU32(buf, ins.Symbol)
	case shapeSymbolIndex:
		buf = appendU32(buf, ins.Symbol)
		buf = append(buf, ins.SymbolIndex)
	}
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// decodeInstruction reads one instruction starting at offset, returning it
// and the offset immediately following it.
func decodeInstruction(data []byte, offset int) (Instruction, int, error) {
	if offset >= len(data) {
		return Instruction{}, offset, fmt.Errorf("bytecode: offset %d out of range (len %d)", offset, len(data))
	}
	op := Opcode(data[offset])
	offset++

	shape, ok := op.shape()
	if !ok {
		return Instruction{}, offset, fmt.Errorf("bytecode: unknown opcode %#x at offset %d", byte(op), offset-1)
	}

	ins := Instruction{Opcode: op}
	switch shape {
	case shapeAddress:
		v, next, err := readU32(data, offset)
		if err != nil {
			return Instruction{}, offset, err
		}
		ins.Address = v
		offset = next
	case shapeImmediate:
		v, next, err := readU32(data, offset)
		if err != nil {
			return Instruction{}, offset, err
		}
		ins.Immediate = int32(v)
		offset = next
	case shapeSymbol:
		v, next, err := readU32(data, offset)
		if err != nil {
			return Instruction{}, offset, err
		}
		ins.Symbol = v
		offset = next
	case shapeSymbolIndex:
		v, next, err := readU32(data, offset)
		if err != nil {
			return Instruction{}, offset, err
		}
		if next >= len(data) {
			return Instruction{}, offset, fmt.Errorf("bytecode: truncated PushVV index at offset %d", next)
		}
		ins.Symbol = v
		ins.SymbolIndex = data[next]
		offset = next + 1
	}
	return ins, offset, nil
}

func readU32(data []byte, offset int) (uint32, int, error) {
	if offset+4 > len(data) {
		return 0, offset, fmt.Errorf("bytecode: truncated operand at offset %d", offset)
	}
	return binary.LittleEndian.Uint32(data[offset : offset+4]), offset + 4, nil
}

// Constructors matching the VM's own naming, used by package codegen.

func PushImmediate(v int32) Instruction  { return Instruction{Opcode: PushI, Immediate: v} }
func PushVar(symbol uint32) Instruction  { return Instruction{Opcode: PushV, Symbol: symbol} }
func PushVarInstance(symbol uint32) Instruction {
	return Instruction{Opcode: PushVI, Symbol: symbol}
}
func PushVarVar(symbol uint32, index uint8) Instruction {
	return Instruction{Opcode: PushVV, Symbol: symbol, SymbolIndex: index}
}
func CallExtern(symbol uint32) Instruction { return Instruction{Opcode: Be, Symbol: symbol} }
func Call(address uint32) Instruction      { return Instruction{Opcode: Bl, Address: address} }
func Jump(address uint32) Instruction      { return Instruction{Opcode: B, Address: address} }
func JumpIfZero(address uint32) Instruction {
	return Instruction{Opcode: Bz, Address: address}
}
func SetGlobalInstance(symbol uint32) Instruction {
	return Instruction{Opcode: GMovI, Symbol: symbol}
}
func MovInt() Instruction    { return Instruction{Opcode: MovI} }
func MovFloat() Instruction  { return Instruction{Opcode: MovF} }
func MovString() Instruction { return Instruction{Opcode: MovS} }
func Return() Instruction    { return Instruction{Opcode: Rsr} }
