package symtab

import "daedalus/ast"

// Flag is the six-bit PropFlag set packed into a Record's bit 16-21 range.
type Flag uint32

const (
	FlagConst    Flag = 1 << 0
	FlagReturn   Flag = 1 << 1
	FlagClassVar Flag = 1 << 2
	FlagExternal Flag = 1 << 3
	FlagMerged   Flag = 1 << 4
)

// DataKind tags which field of Data is meaningful, mirroring the original
// tool's SymbolData enum.
type DataKind int

const (
	DataNone DataKind = iota
	DataFloat
	DataInt
	DataString
	DataClassOffset
	DataAddress
)

// Data is a record's payload, shaped by its DataType: Float/Int/String
// carry Count values (empty for a parameter declaration, which only
// reserves the shape); Class carries a single class-size offset; Func,
// Prototype, and Instance carry a single bytecode address. A symbol
// flagged FlagClassVar (a class field) carries no payload at all - its
// value lives in the owning instance, not the symbol table.
type Data struct {
	Kind        DataKind
	Float       []float32
	Int         []int32
	Str         [][]byte
	ClassOffset uint32
	Address     int32
}

// CodeSpan is the five packed source-location fields every record carries:
// which file it came from and the line/char range it spans, preserved for
// host-side error reporting even though this compiler does not re-derive
// them after encoding. The Reserved fields are always zero on a freshly
// built Record; datfile.Decode fills them in from an existing image so a
// decode-then-encode round trip reproduces the image byte-for-byte instead
// of silently zeroing bits this compiler never writes itself.
type CodeSpan struct {
	FileIndex uint32
	LineStart uint32
	LineCount uint32
	CharStart uint32
	CharCount uint32

	FileIndexReserved uint32
	LineStartReserved uint32
	LineCountReserved uint32
	CharStartReserved uint32
	CharCountReserved uint32
}

// Record is one symbol table entry: the packed ElemProps word, the
// off_cls_ret overload field (return type for functions, the class's
// declared size for classes, field byte offset for class fields, unused
// for instances), the code span, the payload, and an optional parent
// symbol id (set on class fields to point back at their owning class).
type Record struct {
	Name      string
	OffClsRet int32
	Count     uint32
	DataType  ast.DataType
	Flags     Flag
	Space     uint32
	Span      CodeSpan
	Data      Data
	Parent    int32 // -1 when absent

	// ElemPropsReserved holds bits [23,31] of the packed ElemProps word, zero
	// on a freshly built Record and otherwise preserved by datfile.Decode.
	ElemPropsReserved uint32
}

// ElemProps packs Count/DataType/Flags/Space into the single uint32 word
// the binary format stores, per the bit ranges below (ground-truthed
// against the original tool's ElemProps type): count 0-11, data_type
// 12-15, flags 16-21, space bit 22, bits 23-31 reserved.
func (r Record) ElemProps() uint32 {
	var word uint32
	word = packField(word, 0, 11, r.Count)
	word = packField(word, 12, 15, uint32(r.DataType))
	word = packField(word, 16, 21, uint32(r.Flags))
	word = packField(word, 22, 22, r.Space)
	word = packField(word, 23, 31, r.ElemPropsReserved)
	return word
}

// ElemPropsFromWord is the inverse of ElemProps, used by datfile.Decode.
// Any bits in the reserved range [23,31] are returned separately so a
// round trip can preserve them rather than silently discard them.
func ElemPropsFromWord(word uint32) (count uint32, dataType ast.DataType, flags Flag, space uint32, reserved uint32) {
	count = getField(word, 0, 11)
	dataType = ast.DataType(getField(word, 12, 15))
	flags = Flag(getField(word, 16, 21))
	space = getField(word, 22, 22)
	reserved = getField(word, 23, 31)
	return
}

// Pack19 packs a value into the low 19 bits of a word, matching the
// original tool's u18 type (confusingly named: its VALUE range is bits
// 0-18 inclusive, 19 bits wide). Used for file_index/line_start/line_count.
func Pack19(value uint32) uint32 {
	return packField(0, 0, 18, value)
}

// Unpack19 is the inverse of Pack19, returning the reserved bits [19,31]
// separately so package datfile can preserve them on decode.
func Unpack19(word uint32) (value uint32, reserved uint32) {
	return getField(word, 0, 18), getField(word, 19, 31)
}

// Pack24 packs a value into the low 24 bits of a word, matching the
// original tool's u23 type (VALUE range bits 0-23 inclusive, 24 bits
// wide). Used for char_start/char_count.
func Pack24(value uint32) uint32 {
	return packField(0, 0, 23, value)
}

// Unpack24 is the inverse of Pack24, returning the reserved bits [24,31]
// separately so package datfile can preserve them on decode.
func Unpack24(word uint32) (value uint32, reserved uint32) {
	return getField(word, 0, 23), getField(word, 24, 31)
}
