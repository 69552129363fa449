package symtab

import (
	"fmt"
	"sort"
	"strings"

	"daedalus/ast"
)

// HelpSymbolName is the synthetic engine-reserved symbol occupying id 0 in
// every image, byte-identical to symindex.HelpSymbolName (duplicated here,
// rather than imported, to keep symtab free of a dependency on symindex -
// the two packages describe the same constant from different angles: one
// assigns the id, the other builds the record that id names).
const HelpSymbolName = "\xFFINSTANCE_HELP"

// Arg describes one extern func or func parameter for Table.ExternFunc /
// Table.Func.
type Arg struct {
	Name string
	Type ast.DataType
	Span CodeSpan
}

// Field describes one class field for Table.Class.
type Field struct {
	Name  string
	Type  ast.DataType
	Count uint32
	Span  CodeSpan
}

// fieldSize returns the per-element byte size of a class field's type, the
// same table the original tool uses to lay out field offsets. Class,
// Prototype, and Instance typed fields are not supported (the original
// tool does not implement them either - each is a literal todo!() in its
// source).
func fieldSize(dt ast.DataType) (int32, error) {
	switch dt {
	case ast.Void:
		return 0, nil
	case ast.Float, ast.Int, ast.Func:
		return 4, nil
	case ast.String:
		return 20, nil
	default:
		return 0, fmt.Errorf("class fields of type %s are not supported", dt)
	}
}

// Table accumulates symbol Records and the bytecode addresses they bind to,
// in the exact append order that becomes each record's stable id.
type Table struct {
	symbols     []Record
	sortIdx     []uint32
	internCount int
}

// New constructs an empty Table and immediately pushes the synthetic
// "\xFFINSTANCE_HELP" symbol so it occupies id 0, matching the order every
// caller must also use when assigning ids in package symindex.
func New() *Table {
	t := &Table{}
	t.pushSymbol(Record{
		Name:     HelpSymbolName,
		Count:    1,
		DataType: ast.Instance,
		Parent:   -1,
		Data:     Data{Kind: DataAddress, Address: 0},
	})
	return t
}

func (t *Table) pushSymbol(r Record) uint32 {
	id := uint32(len(t.symbols))
	t.symbols = append(t.symbols, r)
	return id
}

func dataForArg(dt ast.DataType) Data {
	switch dt {
	case ast.Float:
		return Data{Kind: DataFloat}
	case ast.Int:
		return Data{Kind: DataInt}
	case ast.String:
		return Data{Kind: DataString}
	case ast.Class:
		return Data{Kind: DataClassOffset}
	case ast.Func, ast.Prototype, ast.Instance:
		return Data{Kind: DataAddress}
	default:
		return Data{Kind: DataNone}
	}
}

// externOrFunc implements the shared body of ExternFunc and Func: both
// push one symbol for the function itself and one per parameter, differing
// only in the FlagExternal bit and the data type of the address payload.
func (t *Table) externOrFunc(name string, span CodeSpan, args []Arg, ret ast.DataType, address int32, external bool) uint32 {
	flags := Flag(0)
	if external {
		flags |= FlagConst | FlagExternal
	} else {
		flags |= FlagConst
	}
	if ret != ast.Void {
		flags |= FlagReturn
	}

	fn := t.pushSymbol(Record{
		Name:      name,
		OffClsRet: int32(ret),
		Count:     uint32(len(args)),
		DataType:  ast.Func,
		Flags:     flags,
		Span:      span,
		Data:      Data{Kind: DataAddress, Address: address},
		Parent:    -1,
	})

	for _, arg := range args {
		t.pushSymbol(Record{
			Name:     name + "." + arg.Name,
			DataType: arg.Type,
			Span:     arg.Span,
			Data:     dataForArg(arg.Type),
			Parent:   -1,
		})
	}

	return fn
}

// ExternFunc emits the symbol pair(s) for `extern func RET name(args);`.
// address is the host-resolved dispatch address (see package builtin).
func (t *Table) ExternFunc(name string, span CodeSpan, args []Arg, ret ast.DataType, address int32) uint32 {
	return t.externOrFunc(name, span, args, ret, address, true)
}

// Func emits the symbol pair(s) for `func RET name(args) { ... }`. address
// is the bytecode address of the function's compiled body.
func (t *Table) Func(name string, span CodeSpan, args []Arg, ret ast.DataType, address uint32) uint32 {
	return t.externOrFunc(name, span, args, ret, int32(address), false)
}

// Class emits the symbol for `class name { fields... };` plus one symbol
// per field, each parented to the class and laid out at consecutive byte
// offsets starting at baseOffset. size is the class's total declared
// instance size (an engine ABI constant, not derived from the fields).
func (t *Table) Class(name string, span CodeSpan, fields []Field, size int32, baseOffset int32) (uint32, error) {
	class := t.pushSymbol(Record{
		Name:      name,
		OffClsRet: size,
		Count:     uint32(len(fields)),
		DataType:  ast.Class,
		Span:      span,
		Data:      Data{Kind: DataClassOffset, ClassOffset: uint32(baseOffset)},
		Parent:    -1,
	})

	offset := baseOffset
	for _, f := range fields {
		elemSize, err := fieldSize(f.Type)
		if err != nil {
			return 0, err
		}
		t.pushSymbol(Record{
			Name:      name + "." + f.Name,
			OffClsRet: offset,
			Count:     f.Count,
			DataType:  f.Type,
			Flags:     FlagClassVar,
			Span:      f.Span,
			Data:      Data{Kind: DataNone},
			Parent:    int32(class),
		})
		offset += int32(f.Count) * elemSize
	}

	return class, nil
}

// Instance emits the symbol for `instance name(parent) { ... }`. address
// is the bytecode address of the instance's init code, parent is the
// symbol id of the class or prototype named in the instance declaration.
func (t *Table) Instance(name string, span CodeSpan, address uint32, parent uint32) uint32 {
	return t.pushSymbol(Record{
		Name:     name,
		DataType: ast.Instance,
		Flags:    FlagConst,
		Span:     span,
		Data:     Data{Kind: DataAddress, Address: int32(address)},
		Parent:   int32(parent),
	})
}

// Const emits the symbol for a scalar `const` declaration.
func (t *Table) Const(name string, span CodeSpan, dt ast.DataType, value Data) uint32 {
	return t.pushSymbol(Record{
		Name:     name,
		DataType: dt,
		Count:    1,
		Flags:    FlagConst,
		Span:     span,
		Data:     value,
		Parent:   -1,
	})
}

// ConstArray emits the symbol for an array `const` declaration.
func (t *Table) ConstArray(name string, span CodeSpan, dt ast.DataType, count uint32, value Data) uint32 {
	return t.pushSymbol(Record{
		Name:     name,
		DataType: dt,
		Count:    count,
		Flags:    FlagConst,
		Span:     span,
		Data:     value,
		Parent:   -1,
	})
}

// Var emits the symbol for a top-level `var` declaration (module-global
// storage, not a class field).
func (t *Table) Var(name string, span CodeSpan, dt ast.DataType, count uint32) uint32 {
	data := dataForArg(dt)
	switch data.Kind {
	case DataFloat:
		data.Float = make([]float32, count)
	case DataInt:
		data.Int = make([]int32, count)
	case DataString:
		data.Str = make([][]byte, count)
	}
	return t.pushSymbol(Record{
		Name:     name,
		DataType: dt,
		Count:    count,
		Span:     span,
		Data:     data,
		Parent:   -1,
	})
}

// internedStringBase starts the interned string literal pool's naming
// at 10000, matching the original tool's "\xFF10000" convention.
const internedStringBase = 10000

// String interns a string literal constant used as an instance/class
// initializer, returning its symbol id. Successive calls on the same Table
// produce "\xFF10000", "\xFF10001", ...
func (t *Table) String(value []byte) uint32 {
	name := fmt.Sprintf("\xFF%d", internedStringBase+t.internCount)
	t.internCount++
	return t.pushSymbol(Record{
		Name:     name,
		DataType: ast.String,
		Count:    1,
		Flags:    FlagConst,
		Data:     Data{Kind: DataString, Str: [][]byte{value}},
		Parent:   -1,
	})
}

// GenerateSortTable builds the sort index: a permutation of [0,N) ordering
// symbol ids by their raw name bytes, lexicographically.
func (t *Table) GenerateSortTable() {
	ids := make([]uint32, len(t.symbols))
	for i := range ids {
		ids[i] = uint32(i)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return strings.Compare(t.symbols[ids[i]].Name, t.symbols[ids[j]].Name) < 0
	})
	t.sortIdx = ids
}

// Symbols returns every record in append (id) order.
func (t *Table) Symbols() []Record { return t.symbols }

// SortIndex returns the permutation built by GenerateSortTable, or nil if
// it has not been called yet.
func (t *Table) SortIndex() []uint32 { return t.sortIdx }
