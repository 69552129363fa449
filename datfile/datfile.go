// Package datfile encodes and decodes the compiled ".DAT" image: a version
// byte, the symbol table (sort index then records), and the bytecode
// stream, in that order. The wire layout is little-endian throughout and
// is meant to round-trip byte-for-byte with the legacy tool's own images.
package datfile

import (
	"encoding/binary"
	"math"

	"daedalus/ast"
	"daedalus/bytecode"
	"daedalus/symtab"
)

// Version is the image format version byte this package writes. The
// legacy tool calls this format "2".
const Version byte = '2'

// Image is a fully decoded (or about-to-be-encoded) .DAT file.
type Image struct {
	Version   byte
	SortIndex []uint32
	Symbols   []symtab.Record
	Code      *bytecode.Buffer
}

// FromTable builds an Image from a populated symtab.Table and
// bytecode.Buffer, ready for Encode. GenerateSortTable must already have
// been called on table.
func FromTable(table *symtab.Table, code *bytecode.Buffer) *Image {
	return &Image{
		Version:   Version,
		SortIndex: table.SortIndex(),
		Symbols:   table.Symbols(),
		Code:      code,
	}
}

// Encode serializes img to its binary wire representation.
func Encode(img *Image) []byte {
	out := make([]byte, 0, 1024)
	out = append(out, img.Version)
	out = appendU32(out, uint32(len(img.Symbols)))
	for _, id := range img.SortIndex {
		out = appendU32(out, id)
	}
	for _, r := range img.Symbols {
		out = appendSymbol(out, r)
	}
	out = img.Code.Encode(out)
	return out
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendI32(buf []byte, v int32) []byte {
	return appendU32(buf, uint32(v))
}

func appendF32(buf []byte, v float32) []byte {
	return appendU32(buf, math.Float32bits(v))
}

// appendZString appends s followed by its terminating '\n', the legacy
// tool's length-by-delimiter string encoding (never length-prefixed).
func appendZString(buf []byte, s []byte) []byte {
	buf = append(buf, s...)
	return append(buf, '\n')
}

func appendSymbol(buf []byte, r symtab.Record) []byte {
	// has_name: 0 for an unnamed record, which then carries no name string.
	if r.Name == "" {
		buf = appendU32(buf, 0)
	} else {
		buf = appendU32(buf, 1)
		buf = appendZString(buf, []byte(r.Name))
	}
	buf = appendProperties(buf, r)
	buf = appendData(buf, r)
	return appendI32(buf, r.Parent)
}

func appendProperties(buf []byte, r symtab.Record) []byte {
	buf = appendI32(buf, r.OffClsRet)
	buf = appendU32(buf, r.ElemProps())
	buf = appendU32(buf, symtab.Pack19(r.Span.FileIndex)|r.Span.FileIndexReserved<<19)
	buf = appendU32(buf, symtab.Pack19(r.Span.LineStart)|r.Span.LineStartReserved<<19)
	buf = appendU32(buf, symtab.Pack19(r.Span.LineCount)|r.Span.LineCountReserved<<19)
	buf = appendU32(buf, symtab.Pack24(r.Span.CharStart)|r.Span.CharStartReserved<<24)
	buf = appendU32(buf, symtab.Pack24(r.Span.CharCount)|r.Span.CharCountReserved<<24)
	return buf
}

// appendData writes a record's payload, exactly mirroring the legacy
// tool's rule: a class-var field carries no payload regardless of its
// nominal data type, and every other record's payload shape is chosen by
// DataType.
func appendData(buf []byte, r symtab.Record) []byte {
	if r.Flags&symtab.FlagClassVar != 0 {
		return buf
	}
	switch r.DataType {
	case ast.Float:
		for _, v := range r.Data.Float {
			buf = appendF32(buf, v)
		}
	case ast.Int:
		for _, v := range r.Data.Int {
			buf = appendI32(buf, v)
		}
	case ast.String:
		for _, v := range r.Data.Str {
			buf = appendZString(buf, v)
		}
	case ast.Class:
		buf = appendU32(buf, r.Data.ClassOffset)
	case ast.Func, ast.Prototype, ast.Instance:
		buf = appendU32(buf, uint32(r.Data.Address))
	case ast.Void:
		// no payload
	}
	return buf
}
