package ir

// Node is the base interface for all IR nodes
type Node interface {
	irNode()
}

// Expr represents an expression
type Expr interface {
	Node
	irExpr()
}

// Stmt represents a statement
type Stmt interface {
	Node
	irStmt()
}

// Decl is a top-level declaration
type Decl interface {
	Node
	irDecl()
}

// File represents one generated Go source file
type File struct {
	Header  string // leading comment, without the "// " prefix
	Package string
	Imports []Import
	Decls   []Decl
}

func (File) irNode() {}

// Import represents an import declaration
type Import struct {
	Alias string
	Path  string
}

// TypeDecl represents `type Name Type`
type TypeDecl struct {
	Doc  string
	Name string
	Type string
}

func (TypeDecl) irNode() {}
func (TypeDecl) irDecl() {}

// FuncDecl represents a function or method declaration
type FuncDecl struct {
	Doc      string
	Receiver *Param // nil for plain functions
	Name     string
	Params   []Param
	Results  []Param
	Body     []Stmt
}

func (FuncDecl) irNode() {}
func (FuncDecl) irDecl() {}

// Param represents a function parameter, result or receiver
type Param struct {
	Name string
	Type string
}

// AssignStmt represents lhs = rhs or lhs := rhs
type AssignStmt struct {
	Left   []Expr
	Right  []Expr
	Define bool
}

func (AssignStmt) irNode() {}
func (AssignStmt) irStmt() {}

// IfStmt represents an if statement without else branches
type IfStmt struct {
	Cond Expr
	Then []Stmt
}

func (IfStmt) irNode() {}
func (IfStmt) irStmt() {}

// ReturnStmt represents a return statement
type ReturnStmt struct {
	Values []Expr
}

func (ReturnStmt) irNode() {}
func (ReturnStmt) irStmt() {}

// ExprStmt wraps an expression as a statement
type ExprStmt struct {
	X Expr
}

func (ExprStmt) irNode() {}
func (ExprStmt) irStmt() {}

// RawStmt inserts Go code verbatim
type RawStmt struct {
	Code string
}

func (RawStmt) irNode() {}
func (RawStmt) irStmt() {}

// Ident represents an identifier
type Ident struct {
	Name string
}

func (Ident) irNode() {}
func (Ident) irExpr() {}

// LitKind is the kind of a literal
type LitKind int

const (
	LitString LitKind = iota
	LitInt
	LitUint
	LitFloat
	LitBool
	LitRune
	LitNil
)

// Literal represents a basic literal value
type Literal struct {
	Value any
	Kind  LitKind
}

func (Literal) irNode() {}
func (Literal) irExpr() {}

// CallExpr represents a function call
type CallExpr struct {
	Func Expr
	Args []Expr
}

func (CallExpr) irNode() {}
func (CallExpr) irExpr() {}

// SelectorExpr represents x.sel
type SelectorExpr struct {
	X   Expr
	Sel string
}

func (SelectorExpr) irNode() {}
func (SelectorExpr) irExpr() {}

// UnaryExpr represents &x, *x, !x or -x
type UnaryExpr struct {
	Op string
	X  Expr
}

func (UnaryExpr) irNode() {}
func (UnaryExpr) irExpr() {}

// CompositeLit represents Type{...}. Multiline puts every element on its own line.
type CompositeLit struct {
	Type      string
	Elements  []Expr
	Multiline bool
}

func (CompositeLit) irNode() {}
func (CompositeLit) irExpr() {}

// KeyValueExpr represents key: value in composite literals
type KeyValueExpr struct {
	Key   Expr
	Value Expr
}

func (KeyValueExpr) irNode() {}
func (KeyValueExpr) irExpr() {}

// FuncLit represents a closure
type FuncLit struct {
	Params  []Param
	Results []Param
	Body    []Stmt
}

func (FuncLit) irNode() {}
func (FuncLit) irExpr() {}

// RawExpr inserts Go code verbatim
type RawExpr struct {
	Code string
}

func (RawExpr) irNode() {}
func (RawExpr) irExpr() {}
