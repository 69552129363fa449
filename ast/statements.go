package ast

import "daedalus/token"

// Param is one formal parameter of a func or extern func. TypeName is the
// raw type identifier as written (e.g. "int", "NpcProperties"); Type is the
// DataType it resolves to - Class for any name that isn't one of the
// built-in scalar type keywords.
type Param struct {
	Span     token.Span
	Name     Ident
	Type     DataType
	TypeName Ident
}

// VarShape distinguishes a scalar declaration from an array declaration.
type VarShape int

const (
	Scalar VarShape = iota
	Array
)

// VarItem is a top-level `var` declaration, and also the node reused for
// class fields and for local `var` statements inside a block.
type VarItem struct {
	Span      token.Span
	Name      Ident
	Type      DataType
	TypeName  Ident
	Shape     VarShape
	ArraySize Expr // non-nil only when Shape == Array
}

func (it *VarItem) ItemSpan() token.Span { return it.Span }
func (it *VarItem) Accept(v ItemVisitor) { v.VisitVar(it) }

// ConstItem is a top-level `const` declaration. Scalar consts carry Init;
// array consts carry ArrayInit (one expression per element, length must
// equal the constant-folded ArraySize per §3.4).
type ConstItem struct {
	Span      token.Span
	Name      Ident
	Type      DataType
	TypeName  Ident
	Shape     VarShape
	ArraySize Expr
	Init      Expr
	ArrayInit []Expr
}

func (it *ConstItem) ItemSpan() token.Span { return it.Span }
func (it *ConstItem) Accept(v ItemVisitor) { v.VisitConst(it) }

// ClassItem declares a class and its fields. Fields are VarItem nodes
// reused verbatim from the var grammar (a class field is syntactically a
// var declaration).
type ClassItem struct {
	Span   token.Span
	Name   Ident
	Fields []*VarItem
}

func (it *ClassItem) ItemSpan() token.Span { return it.Span }
func (it *ClassItem) Accept(v ItemVisitor) { v.VisitClass(it) }

// PrototypeItem declares a reusable instance body template bound to a
// class.
type PrototypeItem struct {
	Span   token.Span
	Name   Ident
	Parent Ident
	Body   Block
}

func (it *PrototypeItem) ItemSpan() token.Span { return it.Span }
func (it *PrototypeItem) Accept(v ItemVisitor) { v.VisitPrototype(it) }

// InstanceItem declares an instance. Parent is either a class name or a
// prototype name; HasBody distinguishes `instance x(y);` (body inherited
// from prototype y, empty Body) from `instance x(y) { ... }`.
type InstanceItem struct {
	Span    token.Span
	Name    Ident
	Parent  Ident
	HasBody bool
	Body    Block
}

func (it *InstanceItem) ItemSpan() token.Span { return it.Span }
func (it *InstanceItem) Accept(v ItemVisitor) { v.VisitInstance(it) }

// FuncItem declares a user-defined function with a body.
type FuncItem struct {
	Span           token.Span
	Name           Ident
	ReturnType     DataType
	ReturnTypeName Ident
	Params         []*Param
	Body           Block
}

func (it *FuncItem) ItemSpan() token.Span { return it.Span }
func (it *FuncItem) Accept(v ItemVisitor) { v.VisitFunc(it) }

// ExternFuncItem declares a function implemented by the host engine: same
// signature shape as FuncItem but no body.
type ExternFuncItem struct {
	Span           token.Span
	Name           Ident
	ReturnType     DataType
	ReturnTypeName Ident
	Params         []*Param
}

func (it *ExternFuncItem) ItemSpan() token.Span { return it.Span }
func (it *ExternFuncItem) Accept(v ItemVisitor) { v.VisitExternFunc(it) }

// VarDeclStmt is a local `var` declaration inside a block.
type VarDeclStmt struct {
	Span token.Span
	Decl *VarItem
}

func (s *VarDeclStmt) BlockItemSpan() token.Span { return s.Span }
func (s *VarDeclStmt) Accept(v BlockVisitor)      { v.VisitVarDecl(s) }

// If is a single if/else-if/else arm. Daedalus chains else-if by nesting:
// `if (a) {} else if (b) {} else {}` parses as an If whose Next is another
// If, whose Next is a final bodiless-condition If (HasIf false).
//
//   HasElse reports whether this arm was introduced by "else".
//   HasIf    reports whether this arm has its own "if (cond)" (false only
//            for a terminal plain "else").
//   HasSemi  reports whether a stray ";" followed the closing brace, a
//            tolerated quirk of the original tool's grammar.
type If struct {
	Span      token.Span
	Condition Expr // nil when !HasIf
	Block     Block
	Next      *If // nil when there is no further else/else-if arm
	HasElse   bool
	HasIf     bool
	HasSemi   bool
}

func (s *If) BlockItemSpan() token.Span { return s.Span }
func (s *If) Accept(v BlockVisitor)     { v.VisitIf(s) }

// ReturnStmt is `return;` or `return Expr;`.
type ReturnStmt struct {
	Span  token.Span
	Value Expr // nil for a bare "return;"
}

func (s *ReturnStmt) BlockItemSpan() token.Span { return s.Span }
func (s *ReturnStmt) Accept(v BlockVisitor)     { v.VisitReturn(s) }

// ExprStmt is an expression evaluated for its side effect, terminated by
// ";". The parser accepts any expression here; codegen lowers only calls.
type ExprStmt struct {
	Span token.Span
	X    Expr
}

func (s *ExprStmt) BlockItemSpan() token.Span { return s.Span }
func (s *ExprStmt) Accept(v BlockVisitor)     { v.VisitExprStmt(s) }

// AssignOp is the operator of an AssignStmt.
type AssignOp int

const (
	Assign AssignOp = iota
	AddAssign
	SubAssign
	MulAssign
	DivAssign
)

// AssignStmt is `Target op Value;`. The parser accepts any expression as
// Target; codegen rejects shapes it cannot store to.
type AssignStmt struct {
	Span   token.Span
	Target Expr
	Op     AssignOp
	Value  Expr
}

func (s *AssignStmt) BlockItemSpan() token.Span { return s.Span }
func (s *AssignStmt) Accept(v BlockVisitor)      { v.VisitAssign(s) }
