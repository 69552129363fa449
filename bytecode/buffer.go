package bytecode

import "encoding/binary"

// Buffer is the flat instruction stream being built for an image. Every
// block of instructions appended to it is addressed by the byte offset it
// started at - that offset is what symbol records store as a function,
// prototype, or instance's entry address.
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Len returns the buffer's current length, the address the next appended
// instruction would receive.
func (b *Buffer) Len() uint32 { return uint32(len(b.data)) }

// Block appends every instruction in ins in order and returns the address
// the block started at.
func (b *Buffer) Block(ins ...Instruction) uint32 {
	addr := b.Len()
	for _, i := range ins {
		b.data = i.Encode(b.data)
	}
	return addr
}

// BlockBuilder accumulates instructions before committing them as one
// block, mirroring the teacher-adjacent fluent block-builder idiom: start
// one, Push/Extend instructions, call Done to commit and get the address.
type BlockBuilder struct {
	buf *Buffer
	ins []Instruction
}

// BlockBuilder starts a new builder over b.
func (b *Buffer) BlockBuilder() *BlockBuilder {
	return &BlockBuilder{buf: b}
}

func (bb *BlockBuilder) Push(ins Instruction) *BlockBuilder {
	bb.ins = append(bb.ins, ins)
	return bb
}

func (bb *BlockBuilder) Extend(ins []Instruction) *BlockBuilder {
	bb.ins = append(bb.ins, ins...)
	return bb
}

func (bb *BlockBuilder) Ret() *BlockBuilder {
	bb.ins = append(bb.ins, Return())
	return bb
}

// Done commits the accumulated instructions and returns the block's start
// address.
func (bb *BlockBuilder) Done() uint32 {
	return bb.buf.Block(bb.ins...)
}

// Bytes returns the raw encoded instruction stream.
func (b *Buffer) Bytes() []byte { return b.data }

// Decode reconstructs a Buffer from a previously-encoded "length-prefixed
// byte blob" image section.
func Decode(data []byte) (*Buffer, []byte, error) {
	if len(data) < 4 {
		return nil, nil, errTruncated("bytecode length prefix")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, errTruncated("bytecode body")
	}
	return &Buffer{data: append([]byte{}, data[:n]...)}, data[n:], nil
}

// Encode appends this buffer's length-prefixed wire representation to out.
func (b *Buffer) Encode(out []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(b.data)))
	out = append(out, tmp[:]...)
	out = append(out, b.data...)
	return out
}

func errTruncated(what string) error {
	return &truncatedError{what}
}

type truncatedError struct{ what string }

func (e *truncatedError) Error() string { return "bytecode: truncated " + e.what }

// Iterator walks a Buffer's encoded instructions in address order,
// decoding one at a time - the shape this package's disassembly and
// well-formedness checks both build on.
type Iterator struct {
	data   []byte
	offset int
}

// Iterate returns an Iterator starting at the beginning of b.
func (b *Buffer) Iterate() *Iterator {
	return &Iterator{data: b.data}
}

// IterateFrom returns an Iterator starting at offset, for disassembling a
// single function body rather than the whole buffer.
func (b *Buffer) IterateFrom(offset uint32) *Iterator {
	return &Iterator{data: b.data, offset: int(offset)}
}

// Next decodes the instruction at the iterator's current position and its
// address, advancing past it. ok is false once the stream is exhausted.
func (it *Iterator) Next() (ins Instruction, address uint32, ok bool, err error) {
	if it.offset >= len(it.data) {
		return Instruction{}, 0, false, nil
	}
	address = uint32(it.offset)
	ins, next, derr := decodeInstruction(it.data, it.offset)
	if derr != nil {
		return Instruction{}, address, false, derr
	}
	it.offset = next
	return ins, address, true, nil
}
