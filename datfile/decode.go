package datfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"daedalus/ast"
	"daedalus/bytecode"
	"daedalus/symtab"
)

// DecodeError reports a structured decode failure: the byte offset it was
// found at and a human-readable reason, so a caller can point a user at the
// exact spot a malformed or truncated image diverges.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("datfile: offset %d: %s", e.Offset, e.Reason)
}

func errAt(offset int, format string, args ...any) error {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// reader walks a byte slice left to right, tracking its absolute offset into
// the original buffer for error reporting.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) need(n int) error {
	if len(r.data) < n {
		return errAt(r.pos, "need %d bytes, have %d", n, len(r.data))
	}
	return nil
}

func (r *reader) u8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[0]
	r.data = r.data[1:]
	r.pos++
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[:4])
	r.data = r.data[4:]
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

// zstring reads bytes up to and including a terminating '\n', returning the
// content with the delimiter stripped.
func (r *reader) zstring() ([]byte, error) {
	idx := -1
	for i, b := range r.data {
		if b == '\n' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errAt(r.pos, "unterminated string (missing newline)")
	}
	s := append([]byte{}, r.data[:idx]...)
	r.data = r.data[idx+1:]
	r.pos += idx + 1
	return s, nil
}

// Decode parses a complete .DAT image, returning the version byte, the sort
// index, every symbol record (with reserved bits preserved for round-trip
// fidelity), and the bytecode buffer.
func Decode(data []byte) (*Image, error) {
	r := &reader{data: data}

	version, err := r.u8()
	if err != nil {
		return nil, err
	}

	count, err := r.u32()
	if err != nil {
		return nil, err
	}

	sortIdx := make([]uint32, count)
	for i := range sortIdx {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		sortIdx[i] = v
	}

	symbols := make([]symtab.Record, count)
	for i := range symbols {
		rec, err := decodeSymbol(r)
		if err != nil {
			return nil, err
		}
		symbols[i] = rec
	}

	code, rest, err := bytecode.Decode(r.data)
	if err != nil {
		return nil, errAt(r.pos, "%s", err)
	}
	r.data = rest

	return &Image{
		Version:   version,
		SortIndex: sortIdx,
		Symbols:   symbols,
		Code:      code,
	}, nil
}

func decodeSymbol(r *reader) (symtab.Record, error) {
	var rec symtab.Record

	named, err := r.u32()
	if err != nil {
		return rec, err
	}
	if named != 0 {
		name, err := r.zstring()
		if err != nil {
			return rec, err
		}
		rec.Name = string(name)
	}

	offClsRet, err := r.i32()
	if err != nil {
		return rec, err
	}
	rec.OffClsRet = offClsRet

	elemProps, err := r.u32()
	if err != nil {
		return rec, err
	}
	count, dataType, flags, space, reserved := symtab.ElemPropsFromWord(elemProps)
	rec.Count, rec.DataType, rec.Flags, rec.Space, rec.ElemPropsReserved = count, dataType, flags, space, reserved

	span, err := decodeSpan(r)
	if err != nil {
		return rec, err
	}
	rec.Span = span

	data, err := decodeData(r, rec)
	if err != nil {
		return rec, err
	}
	rec.Data = data

	parent, err := r.i32()
	if err != nil {
		return rec, err
	}
	rec.Parent = parent

	return rec, nil
}

func decodeSpan(r *reader) (symtab.CodeSpan, error) {
	var span symtab.CodeSpan

	fi, err := r.u32()
	if err != nil {
		return span, err
	}
	span.FileIndex, span.FileIndexReserved = symtab.Unpack19(fi)

	ls, err := r.u32()
	if err != nil {
		return span, err
	}
	span.LineStart, span.LineStartReserved = symtab.Unpack19(ls)

	lc, err := r.u32()
	if err != nil {
		return span, err
	}
	span.LineCount, span.LineCountReserved = symtab.Unpack19(lc)

	cs, err := r.u32()
	if err != nil {
		return span, err
	}
	span.CharStart, span.CharStartReserved = symtab.Unpack24(cs)

	cc, err := r.u32()
	if err != nil {
		return span, err
	}
	span.CharCount, span.CharCountReserved = symtab.Unpack24(cc)

	return span, nil
}

// decodeData reads a record's payload, using the same class-var-overrides-
// type rule Encode writes by.
func decodeData(r *reader, rec symtab.Record) (symtab.Data, error) {
	if rec.Flags&symtab.FlagClassVar != 0 {
		return symtab.Data{Kind: symtab.DataNone}, nil
	}

	switch rec.DataType {
	case ast.Float:
		vals := make([]float32, rec.Count)
		for i := range vals {
			v, err := r.f32()
			if err != nil {
				return symtab.Data{}, err
			}
			vals[i] = v
		}
		return symtab.Data{Kind: symtab.DataFloat, Float: vals}, nil
	case ast.Int:
		vals := make([]int32, rec.Count)
		for i := range vals {
			v, err := r.i32()
			if err != nil {
				return symtab.Data{}, err
			}
			vals[i] = v
		}
		return symtab.Data{Kind: symtab.DataInt, Int: vals}, nil
	case ast.String:
		vals := make([][]byte, rec.Count)
		for i := range vals {
			v, err := r.zstring()
			if err != nil {
				return symtab.Data{}, err
			}
			vals[i] = v
		}
		return symtab.Data{Kind: symtab.DataString, Str: vals}, nil
	case ast.Class:
		v, err := r.u32()
		if err != nil {
			return symtab.Data{}, err
		}
		return symtab.Data{Kind: symtab.DataClassOffset, ClassOffset: v}, nil
	case ast.Func, ast.Prototype, ast.Instance:
		v, err := r.u32()
		if err != nil {
			return symtab.Data{}, err
		}
		return symtab.Data{Kind: symtab.DataAddress, Address: int32(v)}, nil
	case ast.Void:
		return symtab.Data{Kind: symtab.DataNone}, nil
	default:
		return symtab.Data{}, errAt(r.pos, "unknown data type %d", rec.DataType)
	}
}
