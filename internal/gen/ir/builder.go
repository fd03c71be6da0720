package ir

import (
	"fmt"
	"sort"
	"strings"
)

// FileBuilder builds a File
type FileBuilder struct {
	file    *File
	imports ImportSet
}

// NewFile creates a new file builder
func NewFile(pkg string) *FileBuilder {
	return &FileBuilder{file: &File{Package: pkg}}
}

// Header sets the leading file comment
func (b *FileBuilder) Header(text string) *FileBuilder {
	b.file.Header = text
	return b
}

// Import adds an import path
func (b *FileBuilder) Import(path string) *FileBuilder {
	b.imports.Add(path)
	return b
}

// Imports merges an import set into the file
func (b *FileBuilder) Imports(set ImportSet) *FileBuilder {
	b.imports.Merge(set)
	return b
}

// AddDecl adds a declaration
func (b *FileBuilder) AddDecl(d Decl) *FileBuilder {
	b.file.Decls = append(b.file.Decls, d)
	return b
}

// Build returns the completed file with its imports sorted
func (b *FileBuilder) Build() *File {
	b.file.Imports = b.file.Imports[:0]
	for _, p := range b.imports.Paths() {
		b.file.Imports = append(b.file.Imports, Import{Alias: b.imports.Alias(p), Path: p})
	}
	return b.file
}

// ImportSet collects import paths without duplicates
type ImportSet struct {
	paths map[string]string
}

// Add records path, keeping any alias already recorded for it
func (s *ImportSet) Add(path string) {
	if _, ok := s.paths[path]; !ok {
		s.AddAlias("", path)
	}
}

// AddAlias records path under alias. An empty alias leaves an existing one.
func (s *ImportSet) AddAlias(alias, path string) {
	if s.paths == nil {
		s.paths = make(map[string]string)
	}
	if alias == "" && s.paths[path] != "" {
		return
	}
	s.paths[path] = alias
}

// Merge records every path of other with its alias
func (s *ImportSet) Merge(other ImportSet) {
	for p, a := range other.paths {
		s.AddAlias(a, p)
	}
}

// Len returns the number of recorded paths
func (s ImportSet) Len() int {
	return len(s.paths)
}

// Alias returns the alias recorded for path
func (s ImportSet) Alias(path string) string {
	return s.paths[path]
}

// Paths returns the recorded paths sorted
func (s ImportSet) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FuncBuilder builds a function declaration
type FuncBuilder struct {
	decl *FuncDecl
}

// NewFunc creates a new function builder
func NewFunc(name string) *FuncBuilder {
	return &FuncBuilder{decl: &FuncDecl{Name: name}}
}

// Doc sets the doc comment
func (b *FuncBuilder) Doc(format string, args ...any) *FuncBuilder {
	b.decl.Doc = fmt.Sprintf(format, args...)
	return b
}

// Receiver sets the receiver for a method. An empty name emits `(Type)`.
func (b *FuncBuilder) Receiver(name, typ string) *FuncBuilder {
	b.decl.Receiver = &Param{Name: name, Type: typ}
	return b
}

// Param adds a parameter
func (b *FuncBuilder) Param(name, typ string) *FuncBuilder {
	b.decl.Params = append(b.decl.Params, Param{Name: name, Type: typ})
	return b
}

// Returns adds unnamed result types
func (b *FuncBuilder) Returns(types ...string) *FuncBuilder {
	for _, t := range types {
		b.decl.Results = append(b.decl.Results, Param{Type: t})
	}
	return b
}

// Body appends statements to the body
func (b *FuncBuilder) Body(stmts ...Stmt) *FuncBuilder {
	b.decl.Body = append(b.decl.Body, stmts...)
	return b
}

// Build returns the completed function
func (b *FuncBuilder) Build() *FuncDecl {
	return b.decl
}

// Type creates a type declaration
func Type(name, underlying, doc string) *TypeDecl {
	return &TypeDecl{Name: name, Type: underlying, Doc: doc}
}

// Id creates an identifier
func Id(name string) *Ident {
	return &Ident{Name: name}
}

// Str creates a string literal
func Str(s string) *Literal {
	return &Literal{Value: s, Kind: LitString}
}

// Int creates a signed integer literal
func Int(v int64) *Literal {
	return &Literal{Value: v, Kind: LitInt}
}

// Uint creates an unsigned integer literal
func Uint(v uint64) *Literal {
	return &Literal{Value: v, Kind: LitUint}
}

// Float creates a floating point literal
func Float(v float64) *Literal {
	return &Literal{Value: v, Kind: LitFloat}
}

// Bool creates a boolean literal
func Bool(v bool) *Literal {
	return &Literal{Value: v, Kind: LitBool}
}

// Char creates a rune literal
func Char(r rune) *Literal {
	return &Literal{Value: r, Kind: LitRune}
}

// Nil creates a nil literal
func Nil() *Literal {
	return &Literal{Kind: LitNil}
}

// Call creates a call to a dotted function path such as "optim.Apply"
func Call(fn string, args ...Expr) *CallExpr {
	return &CallExpr{Func: Dot(fn), Args: args}
}

// CallOn creates a method call on an expression
func CallOn(receiver Expr, method string, args ...Expr) *CallExpr {
	return &CallExpr{Func: &SelectorExpr{X: receiver, Sel: method}, Args: args}
}

// Sel creates a selector expression: x.name
func Sel(x Expr, name string) *SelectorExpr {
	return &SelectorExpr{X: x, Sel: name}
}

// Dot creates a chained selector from a string like "foo.bar.baz"
func Dot(path string) Expr {
	parts := strings.Split(path, ".")
	var result Expr = Id(parts[0])
	for _, p := range parts[1:] {
		result = &SelectorExpr{X: result, Sel: p}
	}
	return result
}

// Addr creates an address-of expression: &x
func Addr(x Expr) *UnaryExpr {
	return &UnaryExpr{Op: "&", X: x}
}

// Composite creates a single line composite literal
func Composite(typ string, elems ...Expr) *CompositeLit {
	return &CompositeLit{Type: typ, Elements: elems}
}

// CompositeLines creates a composite literal with one element per line
func CompositeLines(typ string, elems ...Expr) *CompositeLit {
	return &CompositeLit{Type: typ, Elements: elems, Multiline: true}
}

// KV creates a key-value pair for composite literals
func KV(key, value Expr) *KeyValueExpr {
	return &KeyValueExpr{Key: key, Value: value}
}

// Closure creates a function literal
func Closure(results []Param, body ...Stmt) *FuncLit {
	return &FuncLit{Results: results, Body: body}
}

// Raw creates a raw expression
func Raw(code string) *RawExpr {
	return &RawExpr{Code: code}
}

// Assign creates an assignment statement
func Assign(left, right Expr) *AssignStmt {
	return &AssignStmt{Left: []Expr{left}, Right: []Expr{right}}
}

// Define creates a short variable declaration: name := value
func Define(name string, value Expr) *AssignStmt {
	return &AssignStmt{Left: []Expr{Id(name)}, Right: []Expr{value}, Define: true}
}

// Discard creates `_ = name`
func Discard(name string) *AssignStmt {
	return Assign(Id("_"), Id(name))
}

// If creates an if statement
func If(cond Expr, then ...Stmt) *IfStmt {
	return &IfStmt{Cond: cond, Then: then}
}

// Return creates a return statement
func Return(values ...Expr) *ReturnStmt {
	return &ReturnStmt{Values: values}
}

// Do wraps an expression as a statement
func Do(x Expr) *ExprStmt {
	return &ExprStmt{X: x}
}

// RawStatementf creates a formatted raw statement
func RawStatementf(format string, args ...any) *RawStmt {
	return &RawStmt{Code: fmt.Sprintf(format, args...)}
}
