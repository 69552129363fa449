// Package codegen lowers a parsed, indexed program into a symtab.Table and
// a bytecode.Buffer: the last pass before the binary image is encoded.
package codegen

import (
	"fmt"
	"strings"

	"daedalus/ast"
	"daedalus/builtin"
	"daedalus/bytecode"
	"daedalus/constval"
	"daedalus/fileset"
	"daedalus/symindex"
	"daedalus/symtab"
	"daedalus/token"
)

// File pairs one source file's items with the id it was registered under,
// the unit codegen (like symindex before it) walks in caller-determined
// order.
type File struct {
	ID    token.FileID
	Items []ast.Item
}

// classInstanceSize and classFieldBaseOffset are engine ABI constants: the
// fixed byte size the host reserves for every class instance, and the byte
// offset of the first scriptable field after the engine's native instance
// header. They are not derived from a class's declared fields.
const (
	classInstanceSize    = 800
	classFieldBaseOffset = 288
)

// Compiler runs every item in a program through the pipeline from parsed
// AST to emitted symbol table and bytecode.
type Compiler struct {
	files    *fileset.Registry
	builtins *builtin.Table
	symbols  *symindex.Index

	table     *symtab.Table
	code      *bytecode.Buffer
	evaluator *constval.Evaluator

	classes       map[string]uint32
	instances     map[string]uint32
	instanceClass map[string]string
	funcAddr      map[string]uint32
	declTypes     map[string]ast.DataType

	floatConstSeq int
	errors        []error
}

// NewCompiler constructs a Compiler. builtins resolves extern function
// names to host dispatch addresses; pass builtin.Default() when no host is
// attached.
func NewCompiler(files *fileset.Registry, builtins *builtin.Table, symbols *symindex.Index) *Compiler {
	return &Compiler{
		files:         files,
		builtins:      builtins,
		symbols:       symbols,
		table:         symtab.New(),
		code:          bytecode.NewBuffer(),
		classes:       make(map[string]uint32),
		instances:     make(map[string]uint32),
		instanceClass: make(map[string]string),
		funcAddr:      make(map[string]uint32),
		declTypes:     make(map[string]ast.DataType),
	}
}

func upper(s string) string { return strings.ToUpper(s) }

// Compile lowers every item of every file, in order, returning the
// populated symbol table, the emitted bytecode, and every error
// encountered (codegen keeps going after an error so one run can surface
// more than one problem).
func Compile(files []File, reg *fileset.Registry, builtins *builtin.Table) (*symtab.Table, *bytecode.Buffer, []error) {
	var astFiles [][]ast.Item
	for _, f := range files {
		astFiles = append(astFiles, f.Items)
	}
	idx := symindex.Build(astFiles)

	consts := collectConsts(files)
	evaluator := constval.NewEvaluator(consts, idx)

	c := NewCompiler(reg, builtins, idx)
	c.evaluator = evaluator

	for _, f := range files {
		for _, item := range f.Items {
			c.handleItem(item)
		}
	}

	return c.table, c.code, c.errors
}

func collectConsts(files []File) map[string]*ast.ConstItem {
	out := make(map[string]*ast.ConstItem)
	for _, f := range files {
		for _, item := range f.Items {
			if ci, ok := item.(*ast.ConstItem); ok {
				key := upper(ci.Name.Name)
				if _, exists := out[key]; !exists {
					out[key] = ci
				}
			}
		}
	}
	return out
}

func (c *Compiler) fail(span token.Span, format string, args ...any) {
	c.errors = append(c.errors, fmt.Errorf("%s: %s", c.files.Position(span), fmt.Sprintf(format, args...)))
}

func spanToCodeSpan(reg *fileset.Registry, span token.Span) symtab.CodeSpan {
	f := reg.File(span.File)
	if f == nil {
		return symtab.CodeSpan{}
	}
	lineStart, _ := f.Position(span.Start)
	lineEnd, _ := f.Position(span.End)
	return symtab.CodeSpan{
		FileIndex: uint32(span.File),
		LineStart: uint32(lineStart),
		LineCount: uint32(lineEnd - lineStart + 1),
		CharStart: uint32(span.Start),
		CharCount: uint32(span.End - span.Start),
	}
}

func (c *Compiler) handleItem(item ast.Item) {
	// Skip anything that lost the first-occurrence-wins race during
	// indexing - it has no symbol id and must not be emitted twice.
	if _, ok := c.symbols.IDForNode(item); !ok {
		return
	}

	switch it := item.(type) {
	case *ast.ExternFuncItem:
		c.handleExternFunc(it)
	case *ast.FuncItem:
		c.handleFunc(it)
	case *ast.ClassItem:
		c.handleClass(it)
	case *ast.InstanceItem:
		c.handleInstance(it)
	case *ast.ConstItem:
		c.handleConst(it)
	case *ast.VarItem:
		c.handleVar(it)
	case *ast.PrototypeItem:
		c.handlePrototype(it)
	}
}

func (c *Compiler) handleExternFunc(it *ast.ExternFuncItem) {
	addr, ok := c.builtins.Address(it.Name.Name)
	if !ok {
		c.fail(it.Span, "unknown extern function %q (no host dispatch address)", it.Name.Name)
		return
	}
	args := make([]symtab.Arg, 0, len(it.Params))
	for _, p := range it.Params {
		args = append(args, symtab.Arg{Name: p.Name.Name, Type: p.Type, Span: spanToCodeSpan(c.files, p.Span)})
		c.declTypes[upper(it.Name.Name+"."+p.Name.Name)] = p.Type
	}
	c.table.ExternFunc(it.Name.Name, spanToCodeSpan(c.files, it.Span), args, it.ReturnType, int32(addr))
}

func (c *Compiler) handleFunc(it *ast.FuncItem) {
	args := make([]symtab.Arg, 0, len(it.Params))
	for _, p := range it.Params {
		args = append(args, symtab.Arg{Name: p.Name.Name, Type: p.Type, Span: spanToCodeSpan(c.files, p.Span)})
		c.declTypes[upper(it.Name.Name+"."+p.Name.Name)] = p.Type
	}

	addr := c.code.Len()
	ctx := &lowerCtx{c: c}
	ins := c.lowerBlock(it.Body, ctx, addr)
	ins = append(ins, bytecode.Return())
	c.code.Block(ins...)

	c.funcAddr[upper(it.Name.Name)] = addr
	c.table.Func(it.Name.Name, spanToCodeSpan(c.files, it.Span), args, it.ReturnType, addr)
}

func (c *Compiler) handlePrototype(it *ast.PrototypeItem) {
	// Prototype bodies compile the same way a function body does; nothing
	// currently instantiates a prototype's address into a symbol record
	// because no construct in this language references a prototype by
	// value yet (an instance("proto") reference is resolved by name at
	// link time by the host, not by this compiler).
	addr := c.code.Len()
	ctx := &lowerCtx{c: c, selfClass: upper(it.Parent.Name)}
	ins := c.lowerBlock(it.Body, ctx, addr)
	ins = append(ins, bytecode.Return())
	c.code.Block(ins...)
}

func (c *Compiler) handleClass(it *ast.ClassItem) {
	fields := make([]symtab.Field, 0, len(it.Fields))
	for _, f := range it.Fields {
		count := uint32(1)
		if f.Shape == ast.Array {
			v, err := c.evaluator.Eval(f.ArraySize)
			if err != nil {
				c.fail(f.Span, "array field %q: %s", f.Name.Name, err)
				continue
			}
			if v.Kind != constval.KInt {
				c.fail(f.Span, "array field %q: size must be an integer constant", f.Name.Name)
				continue
			}
			count = uint32(v.Int)
		}
		fields = append(fields, symtab.Field{
			Name:  f.Name.Name,
			Type:  f.Type,
			Count: count,
			Span:  spanToCodeSpan(c.files, f.Span),
		})
		c.declTypes[upper(it.Name.Name+"."+f.Name.Name)] = f.Type
	}

	id, err := c.table.Class(it.Name.Name, spanToCodeSpan(c.files, it.Span), fields, classInstanceSize, classFieldBaseOffset)
	if err != nil {
		c.fail(it.Span, "class %q: %s", it.Name.Name, err)
		return
	}
	c.classes[upper(it.Name.Name)] = id
}

func (c *Compiler) handleInstance(it *ast.InstanceItem) {
	parentKey := upper(it.Parent.Name)
	parentID, ok := c.classes[parentKey]
	if !ok {
		if pid, ok := c.symbols.ID(it.Parent.Name); ok {
			parentID = pid
		} else {
			c.fail(it.Span, "instance %q: unknown parent %q", it.Name.Name, it.Parent.Name)
			return
		}
	}

	addr := c.code.Len()
	instID := c.table.Instance(it.Name.Name, spanToCodeSpan(c.files, it.Span), addr, parentID)
	c.instances[upper(it.Name.Name)] = instID
	c.instanceClass[upper(it.Name.Name)] = parentKey

	if it.HasBody {
		ctx := &lowerCtx{c: c, selfClass: parentKey, selfInstance: instID, hasSelfInstance: true}
		ins := c.lowerBlock(it.Body, ctx, addr)
		ins = append(ins, bytecode.Return())
		c.code.Block(ins...)
	} else {
		c.code.Block(bytecode.Return())
	}
}

func (c *Compiler) handleConst(it *ast.ConstItem) {
	c.declTypes[upper(it.Name.Name)] = it.Type
	span := spanToCodeSpan(c.files, it.Span)
	if it.Shape == ast.Array {
		values, err := c.evaluator.EvalConstArray(it)
		if err != nil {
			c.fail(it.Span, "const %q: %s", it.Name.Name, err)
			return
		}
		data, ok := packConstData(it.Type, values)
		if !ok {
			c.fail(it.Span, "const %q: array element type mismatch", it.Name.Name)
			return
		}
		c.table.ConstArray(it.Name.Name, span, it.Type, uint32(len(values)), data)
		return
	}

	v, err := c.evaluator.EvalConst(it)
	if err != nil {
		c.fail(it.Span, "const %q: %s", it.Name.Name, err)
		return
	}
	data, ok := packConstData(it.Type, []constval.Value{v})
	if !ok {
		c.fail(it.Span, "const %q: initializer type mismatch", it.Name.Name)
		return
	}
	c.table.Const(it.Name.Name, span, it.Type, data)
}

func (c *Compiler) handleVar(it *ast.VarItem) {
	c.declTypes[upper(it.Name.Name)] = it.Type
	count := uint32(1)
	if it.Shape == ast.Array {
		v, err := c.evaluator.Eval(it.ArraySize)
		if err != nil || v.Kind != constval.KInt {
			c.fail(it.Span, "var %q: array size must be an integer constant", it.Name.Name)
			return
		}
		count = uint32(v.Int)
	}
	c.table.Var(it.Name.Name, spanToCodeSpan(c.files, it.Span), it.Type, count)
}

// packConstData converts folded constval.Value results into the
// symtab.Data shape a Record stores, per declared type.
func packConstData(dt ast.DataType, values []constval.Value) (symtab.Data, bool) {
	switch dt {
	case ast.Int:
		ints := make([]int32, 0, len(values))
		for _, v := range values {
			if v.Kind != constval.KInt {
				return symtab.Data{}, false
			}
			ints = append(ints, v.Int)
		}
		return symtab.Data{Kind: symtab.DataInt, Int: ints}, true
	case ast.Float:
		floats := make([]float32, 0, len(values))
		for _, v := range values {
			if v.Kind != constval.KFloat {
				return symtab.Data{}, false
			}
			floats = append(floats, v.Float)
		}
		return symtab.Data{Kind: symtab.DataFloat, Float: floats}, true
	case ast.String:
		strs := make([][]byte, 0, len(values))
		for _, v := range values {
			if v.Kind != constval.KString {
				return symtab.Data{}, false
			}
			strs = append(strs, v.Str)
		}
		return symtab.Data{Kind: symtab.DataString, Str: strs}, true
	default:
		return symtab.Data{}, false
	}
}
