package codegen

import (
	"fmt"

	"daedalus/ast"
	"daedalus/bytecode"
	"daedalus/constval"
	"daedalus/symindex"
	"daedalus/symtab"
	"daedalus/token"
)

// lowerCtx carries the per-body context statement and expression lowering
// need: the enclosing class (for bare field-name resolution inside an
// instance or prototype body) and, when one is bound, the instance whose
// fields are being written.
type lowerCtx struct {
	c               *Compiler
	selfClass       string
	selfInstance    uint32
	hasSelfInstance bool
}

var binOpcode = map[ast.BinOp]bytecode.Opcode{
	ast.OpAdd: bytecode.Add, ast.OpSub: bytecode.Sub, ast.OpMul: bytecode.Mul,
	ast.OpDiv: bytecode.Div, ast.OpMod: bytecode.Mod,
	ast.OpEq: bytecode.Eq, ast.OpNeq: bytecode.Neq,
	ast.OpLt: bytecode.Lt, ast.OpLte: bytecode.Lte, ast.OpGt: bytecode.Gt, ast.OpGte: bytecode.Gte,
	ast.OpLogAnd: bytecode.And, ast.OpLogOr: bytecode.Orr,
	ast.OpBitAnd: bytecode.AndB, ast.OpBitOr: bytecode.Or,
	ast.OpShl: bytecode.Lsl, ast.OpShr: bytecode.Lsr,
}

var unOpcode = map[ast.UnOp]bytecode.Opcode{
	ast.OpNeg: bytecode.Negate,
	ast.OpNot: bytecode.Not,
}

func movOpcode(dt ast.DataType) (bytecode.Opcode, bool) {
	switch dt {
	case ast.Int:
		return bytecode.MovI, true
	case ast.Float:
		return bytecode.MovF, true
	case ast.String:
		return bytecode.MovS, true
	case ast.Instance:
		return bytecode.MovVI, true
	case ast.Func:
		return bytecode.MovVF, true
	default:
		return 0, false
	}
}

func compoundOpcode(op ast.AssignOp, dt ast.DataType) (bytecode.Opcode, bool) {
	if dt != ast.Int {
		return 0, false
	}
	switch op {
	case ast.AddAssign:
		return bytecode.AddMovI, true
	case ast.SubAssign:
		return bytecode.SubMovI, true
	case ast.MulAssign:
		return bytecode.MulMovI, true
	case ast.DivAssign:
		return bytecode.DivMovI, true
	default:
		return 0, false
	}
}

// resolveSymbol looks up name, first qualified by the enclosing class (bare
// field names inside an instance/prototype body), then as a plain global
// name. qualified reports which of the two resolved.
func (c *Compiler) resolveSymbol(name string, ctx *lowerCtx) (id uint32, kind symindex.Kind, qualified bool, ok bool) {
	if ctx.selfClass != "" {
		qname := ctx.selfClass + "." + name
		if id, ok := c.symbols.ID(qname); ok {
			return id, c.symbols.Kind(qname), true, true
		}
	}
	if id, ok := c.symbols.ID(name); ok {
		return id, c.symbols.Kind(name), false, true
	}
	return 0, symindex.Other, false, false
}

func (c *Compiler) lookupDeclType(name string, ctx *lowerCtx) ast.DataType {
	if ctx.selfClass != "" {
		if t, ok := c.declTypes[upper(ctx.selfClass+"."+name)]; ok {
			return t
		}
	}
	if t, ok := c.declTypes[upper(name)]; ok {
		return t
	}
	return ast.Void
}

func instrsSize(ins []bytecode.Instruction) uint32 {
	var n uint32
	for _, i := range ins {
		n += uint32(i.Size())
	}
	return n
}

// lowerBlock lowers every statement of block into a flat instruction list
// addressed starting at base (the address the first emitted instruction
// will occupy once committed to the bytecode buffer). Local var
// declarations and return statements (with or without a value) are
// skipped; only expression statements, assignments and ifs are lowered.
func (c *Compiler) lowerBlock(block ast.Block, ctx *lowerCtx, base uint32) []bytecode.Instruction {
	var out []bytecode.Instruction
	var off uint32
	for _, item := range block.Items {
		var add []bytecode.Instruction
		switch s := item.(type) {
		case *ast.ExprStmt:
			add = c.lowerExprStmt(s, ctx)
		case *ast.AssignStmt:
			add = c.lowerAssign(s, ctx)
		case *ast.If:
			add = c.lowerIf(s, ctx, base+off)
		}
		out = append(out, add...)
		off += instrsSize(add)
	}
	return out
}

// lowerIf lowers an if/else-if/else chain using Bz/B jumps, resolving every
// branch address up front since each block's own encoded size is known
// before it is committed to the shared bytecode buffer.
func (c *Compiler) lowerIf(s *ast.If, ctx *lowerCtx, base uint32) []bytecode.Instruction {
	cond := c.lowerValue(s.Condition, ctx)
	const jumpSize = 5 // Bz/B: one opcode byte + a 4-byte address operand

	thenBase := base + instrsSize(cond) + jumpSize
	thenBody := c.lowerBlock(s.Block, ctx, thenBase)

	var hasJumpOut uint32
	if s.Next != nil {
		hasJumpOut = jumpSize
	}
	elseBase := thenBase + instrsSize(thenBody) + hasJumpOut

	var elseBody []bytecode.Instruction
	if s.Next != nil {
		if s.Next.HasIf {
			elseBody = c.lowerIf(s.Next, ctx, elseBase)
		} else {
			elseBody = c.lowerBlock(s.Next.Block, ctx, elseBase)
		}
	}
	end := elseBase + instrsSize(elseBody)

	out := append([]bytecode.Instruction{}, cond...)
	if s.Next != nil {
		out = append(out, bytecode.JumpIfZero(elseBase))
		out = append(out, thenBody...)
		out = append(out, bytecode.Jump(end))
		out = append(out, elseBody...)
	} else {
		out = append(out, bytecode.JumpIfZero(end))
		out = append(out, thenBody...)
	}
	return out
}

func (c *Compiler) lowerExprStmt(s *ast.ExprStmt, ctx *lowerCtx) []bytecode.Instruction {
	call, ok := s.X.(*ast.CallExpr)
	if !ok {
		return nil
	}
	return c.lowerCall(call, ctx)
}

// lowerCall lowers a call's arguments in order, then the call itself: Be
// for a resolved extern, Bl to a user function's bytecode address.
func (c *Compiler) lowerCall(call *ast.CallExpr, ctx *lowerCtx) []bytecode.Instruction {
	var out []bytecode.Instruction
	for _, arg := range call.Args {
		out = append(out, c.lowerValue(arg, ctx)...)
	}

	name := call.Callee.Name
	if id, kind, _, ok := c.resolveSymbol(name, ctx); ok && kind == symindex.ExternFunction {
		out = append(out, bytecode.CallExtern(id))
		return out
	}
	if addr, ok := c.funcAddr[upper(name)]; ok {
		out = append(out, bytecode.Call(addr))
		return out
	}
	c.fail(call.Span, "call to unknown function %q", name)
	return out
}

// lowerAssign lowers `Target op Value;`. Target must be a bare identifier
// or an index into one (a class field or module var, scalar or array) -
// any other lvalue shape the parser accepts is rejected here.
func (c *Compiler) lowerAssign(s *ast.AssignStmt, ctx *lowerCtx) []bytecode.Instruction {
	var ref []bytecode.Instruction
	var declType ast.DataType

	switch t := s.Target.(type) {
	case *ast.IdentExpr:
		id, _, _, ok := c.resolveSymbol(t.Name, ctx)
		if !ok {
			c.fail(t.Span, "assignment to undefined identifier %q", t.Name)
			return nil
		}
		declType = c.lookupDeclType(t.Name, ctx)
		ref = []bytecode.Instruction{bytecode.PushVar(id)}

	case *ast.IndexExpr:
		base, ok := t.Base.(*ast.IdentExpr)
		if !ok {
			c.fail(t.Span, "unsupported assignment target")
			return nil
		}
		id, _, _, ok := c.resolveSymbol(base.Name, ctx)
		if !ok {
			c.fail(t.Span, "assignment to undefined identifier %q", base.Name)
			return nil
		}
		idx, err := c.evaluator.Eval(t.Index)
		if err != nil || idx.Kind != constval.KInt {
			c.fail(t.Index.ExprSpan(), "array index must be a compile-time integer constant")
			return nil
		}
		declType = c.lookupDeclType(base.Name, ctx)
		if idx.Int == 0 {
			ref = []bytecode.Instruction{bytecode.PushVar(id)}
		} else {
			ref = []bytecode.Instruction{bytecode.PushVarVar(id, uint8(idx.Int))}
		}

	default:
		c.fail(s.Span, "unsupported assignment target")
		return nil
	}

	// Value pushed before the destination reference: Mov* pops the
	// reference off the top of the stack and stores the value beneath it.
	var out []bytecode.Instruction
	out = append(out, c.lowerValue(s.Value, ctx)...)
	out = append(out, ref...)

	if s.Op == ast.Assign {
		op, ok := movOpcode(declType)
		if !ok {
			c.fail(s.Span, "assignment to a field of type %s is not supported", declType)
			return out
		}
		return append(out, bytecode.Instruction{Opcode: op})
	}

	op, ok := compoundOpcode(s.Op, declType)
	if !ok {
		c.fail(s.Span, "compound assignment is only supported for int fields")
		return out
	}
	return append(out, bytecode.Instruction{Opcode: op})
}

// lowerValue lowers an expression used for its value: a call argument, an
// assignment's right-hand side, or an if condition. Bare identifiers other
// than `self` inside an instance body resolve through resolveSymbol (the
// only path that knows to push an
// Instance-kind symbol by instance reference rather than by plain
// variable reference); everything else is tried as a compile-time constant
// fold first (covering int/float/string literals, consts, and arithmetic
// over them) and falls through to per-node instruction sequences when it
// depends on a runtime var or param.
func (c *Compiler) lowerValue(e ast.Expr, ctx *lowerCtx) []bytecode.Instruction {
	if ident, ok := e.(*ast.IdentExpr); ok {
		if upper(ident.Name) == "SELF" && ctx.hasSelfInstance {
			return []bytecode.Instruction{bytecode.PushVarInstance(ctx.selfInstance)}
		}
		id, kind, _, ok := c.resolveSymbol(ident.Name, ctx)
		if !ok {
			c.fail(ident.Span, "undefined identifier %q", ident.Name)
			return nil
		}
		if kind == symindex.Instance {
			return []bytecode.Instruction{bytecode.PushVarInstance(id)}
		}
		return []bytecode.Instruction{bytecode.PushVar(id)}
	}

	if v, err := c.evaluator.Eval(e); err == nil {
		ins, ok := c.lowerFoldedValue(v, e)
		if ok {
			return ins
		}
	}

	switch ex := e.(type) {
	case *ast.ParenExpr:
		return c.lowerValue(ex.Inner, ctx)

	case *ast.UnaryExpr:
		operand := c.lowerValue(ex.Operand, ctx)
		op, ok := unOpcode[ex.Op]
		if !ok {
			c.fail(ex.Span, "unsupported unary operator")
			return operand
		}
		return append(operand, bytecode.Instruction{Opcode: op})

	case *ast.BinaryExpr:
		out := append(c.lowerValue(ex.Left, ctx), c.lowerValue(ex.Right, ctx)...)
		op, ok := binOpcode[ex.Op]
		if !ok {
			c.fail(ex.Span, "unsupported binary operator")
			return out
		}
		return append(out, bytecode.Instruction{Opcode: op})

	case *ast.IndexExpr:
		base, ok := ex.Base.(*ast.IdentExpr)
		if !ok {
			c.fail(ex.Span, "unsupported index expression")
			return nil
		}
		id, _, _, ok := c.resolveSymbol(base.Name, ctx)
		if !ok {
			c.fail(ex.Span, "undefined identifier %q", base.Name)
			return nil
		}
		idx, err := c.evaluator.Eval(ex.Index)
		if err != nil || idx.Kind != constval.KInt {
			c.fail(ex.Index.ExprSpan(), "array index must be a compile-time integer constant")
			return nil
		}
		if idx.Int == 0 {
			return []bytecode.Instruction{bytecode.PushVar(id)}
		}
		return []bytecode.Instruction{bytecode.PushVarVar(id, uint8(idx.Int))}

	case *ast.FieldExpr:
		base, ok := ex.Base.(*ast.IdentExpr)
		if !ok {
			c.fail(ex.Span, "unsupported field expression")
			return nil
		}
		className, ok := c.instanceClass[upper(base.Name)]
		if !ok {
			c.fail(ex.Span, "%q is not a known instance", base.Name)
			return nil
		}
		instID, _, _, ok := c.resolveSymbol(base.Name, ctx)
		if !ok {
			c.fail(ex.Span, "undefined identifier %q", base.Name)
			return nil
		}
		fieldID, ok := c.symbols.ID(className + "." + ex.Field.Name)
		if !ok {
			c.fail(ex.Span, "%q has no field %q", base.Name, ex.Field.Name)
			return nil
		}
		return []bytecode.Instruction{bytecode.PushVarInstance(instID), bytecode.PushVar(fieldID)}

	case *ast.CallExpr:
		c.fail(ex.Span, "function calls cannot be used as a value here")
		return nil

	default:
		c.fail(e.ExprSpan(), "unsupported expression")
		return nil
	}
}

// lowerFoldedValue turns a constant-folded value into the instructions that
// push it: an immediate for ints (the only literal the VM can push inline),
// an interned symbol reference for everything else.
func (c *Compiler) lowerFoldedValue(v constval.Value, e ast.Expr) ([]bytecode.Instruction, bool) {
	switch v.Kind {
	case constval.KInt:
		return []bytecode.Instruction{bytecode.PushImmediate(v.Int)}, true
	case constval.KFloat:
		id := c.internFloat(v.Float, e.ExprSpan())
		return []bytecode.Instruction{bytecode.PushVar(id)}, true
	case constval.KString:
		id := c.table.String(v.Str)
		return []bytecode.Instruction{bytecode.PushVar(id)}, true
	case constval.KSymbol:
		return []bytecode.Instruction{bytecode.PushVar(v.Sym)}, true
	default:
		return nil, false
	}
}

// internFloat emits a synthetic const record for a float literal/constant
// expression used inline, since the VM has no push-immediate-float opcode -
// only a push-symbol-reference one. Its name occupies a reserved numbering
// band distinct from package symtab's interned string literals.
func (c *Compiler) internFloat(v float32, span token.Span) uint32 {
	name := fmt.Sprintf("\xFF2%05d", c.floatConstSeq)
	c.floatConstSeq++
	return c.table.Const(name, spanToCodeSpan(c.files, span), ast.Float,
		symtab.Data{Kind: symtab.DataFloat, Float: []float32{v}})
}
