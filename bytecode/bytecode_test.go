package bytecode

import "testing"

func TestInstructionRoundTrip(t *testing.T) {
	ins := []Instruction{
		PushImmediate(-42),
		PushVar(7),
		PushVarInstance(3),
		PushVarVar(9, 2),
		CallExtern(11),
		Call(100),
		Jump(50),
		JumpIfZero(60),
		MovInt(),
		Return(),
	}

	buf := NewBuffer()
	addr := buf.Block(ins...)
	if addr != 0 {
		t.Fatalf("first block address = %d, want 0", addr)
	}

	it := buf.Iterate()
	for i, want := range ins {
		got, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("instruction %d: decode error: %v", i, err)
		}
		if !ok {
			t.Fatalf("instruction %d: stream ended early", i)
		}
		if got != want {
			t.Errorf("instruction %d = %+v, want %+v", i, got, want)
		}
	}
	if _, _, ok, _ := it.Next(); ok {
		t.Error("expected the stream to be exhausted")
	}
}

func TestBufferEncodeDecode(t *testing.T) {
	buf := NewBuffer()
	buf.Block(PushImmediate(1), Return())

	encoded := buf.Encode(nil)
	decoded, rest, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %d bytes, want 0", len(rest))
	}
	if string(decoded.Bytes()) != string(buf.Bytes()) {
		t.Errorf("decoded bytes do not match original")
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, _, err := Decode([]byte{1, 2}); err == nil {
		t.Fatal("expected an error decoding a truncated length prefix")
	}
}

func TestBlockBuilder(t *testing.T) {
	buf := NewBuffer()
	addr := buf.BlockBuilder().Push(PushImmediate(5)).Ret().Done()
	if addr != 0 {
		t.Fatalf("address = %d, want 0", addr)
	}
	if buf.Len() != uint32(PushImmediate(5).Size()+Return().Size()) {
		t.Errorf("buffer length = %d, want %d", buf.Len(), PushImmediate(5).Size()+Return().Size())
	}
}

func TestOpcodeString(t *testing.T) {
	if Add.String() != "add" {
		t.Errorf("Add.String() = %q, want \"add\"", Add.String())
	}
	if Opcode(250).String() != "unknown" {
		t.Errorf("unknown opcode should stringify to \"unknown\"")
	}
}

func TestDecodeUnknownOpcodeErrors(t *testing.T) {
	buf := NewBuffer()
	buf.Block(Return())
	it := buf.Iterate()
	if _, _, ok, err := it.Next(); !ok || err != nil {
		t.Fatalf("decoding the known Return instruction: ok=%v err=%v", ok, err)
	}

	bad := NewBuffer()
	bad.data = append(bad.data, 250) // opcode 250 is not a recognized instruction
	badIt := bad.Iterate()
	if _, _, ok, err := badIt.Next(); ok || err == nil {
		t.Fatal("expected decoding an unrecognized opcode byte to fail, not succeed as a zero-operand instruction")
	}
}
