package ir

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"math"
	"strconv"
	"strings"
)

// Emitter writes Go code from IR nodes
type Emitter struct {
	w      io.Writer
	indent int
	err    error
}

// NewEmitter creates a new emitter
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes the IR node to the writer
func (e *Emitter) Emit(n Node) error {
	e.emit(n)
	return e.err
}

// EmitFile is a convenience method for emitting a file
func EmitFile(w io.Writer, f *File) error {
	return NewEmitter(w).Emit(f)
}

// Format emits f and runs the result through gofmt
func Format(f *File) ([]byte, error) {
	var buf bytes.Buffer
	if err := EmitFile(&buf, f); err != nil {
		return nil, fmt.Errorf("emit %s: %w", f.Package, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w\n%s", err, buf.String())
	}
	return out, nil
}

// Render returns the unformatted source of a single node, or an error marker
func Render(n Node) string {
	var buf bytes.Buffer
	if err := NewEmitter(&buf).Emit(n); err != nil {
		return "<error: " + err.Error() + ">"
	}
	return buf.String()
}

func (e *Emitter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *Emitter) writef(format string, args ...any) {
	e.write(fmt.Sprintf(format, args...))
}

func (e *Emitter) writeIndent() {
	e.write(strings.Repeat("\t", e.indent))
}

func (e *Emitter) newline() {
	e.write("\n")
}

func (e *Emitter) comment(text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		e.writeIndent()
		e.write(strings.TrimRight("// "+line, " "))
		e.newline()
	}
}

func (e *Emitter) emit(n Node) {
	if e.err != nil {
		return
	}

	switch v := n.(type) {
	case *File:
		e.emitFile(v)
	case *TypeDecl:
		e.comment(v.Doc)
		e.writef("type %s %s\n", v.Name, v.Type)
	case *FuncDecl:
		e.emitFunc(v)
	case *AssignStmt:
		e.emitAssign(v)
	case *IfStmt:
		e.write("if ")
		e.emitExpr(v.Cond)
		e.write(" ")
		e.emitBody(v.Then)
	case *ReturnStmt:
		e.write("return")
		if len(v.Values) > 0 {
			e.write(" ")
			e.emitList(v.Values)
		}
	case *ExprStmt:
		e.emitExpr(v.X)
	case *RawStmt:
		e.write(v.Code)
	case Expr:
		e.emitExpr(v)
	default:
		e.err = fmt.Errorf("unknown node type: %T", n)
	}
}

func (e *Emitter) emitFile(f *File) {
	e.comment(f.Header)
	if f.Header != "" {
		e.newline()
	}
	e.writef("package %s\n", f.Package)

	if len(f.Imports) > 0 {
		e.newline()
		e.write("import (\n")
		e.indent++
		for _, imp := range f.Imports {
			e.writeIndent()
			if imp.Alias != "" {
				e.writef("%s %q", imp.Alias, imp.Path)
			} else {
				e.writef("%q", imp.Path)
			}
			e.newline()
		}
		e.indent--
		e.write(")\n")
	}

	for _, decl := range f.Decls {
		e.newline()
		e.emit(decl)
	}
}

func (e *Emitter) emitFunc(f *FuncDecl) {
	e.comment(f.Doc)
	e.write("func ")
	if f.Receiver != nil {
		if f.Receiver.Name != "" {
			e.writef("(%s %s) ", f.Receiver.Name, f.Receiver.Type)
		} else {
			e.writef("(%s) ", f.Receiver.Type)
		}
	}
	e.write(f.Name)
	e.emitSignature(f.Params, f.Results)
	e.write(" ")
	e.emitBody(f.Body)
	e.newline()
}

func (e *Emitter) emitSignature(params, results []Param) {
	e.write("(")
	e.emitParams(params)
	e.write(")")
	if len(results) == 0 {
		return
	}
	e.write(" ")
	if len(results) == 1 && results[0].Name == "" {
		e.write(results[0].Type)
		return
	}
	e.write("(")
	e.emitParams(results)
	e.write(")")
}

func (e *Emitter) emitParams(params []Param) {
	for i, p := range params {
		if i > 0 {
			e.write(", ")
		}
		if p.Name != "" {
			e.write(p.Name)
			e.write(" ")
		}
		e.write(p.Type)
	}
}

func (e *Emitter) emitBody(stmts []Stmt) {
	e.write("{\n")
	e.indent++
	for _, stmt := range stmts {
		e.writeIndent()
		e.emit(stmt)
		e.newline()
	}
	e.indent--
	e.writeIndent()
	e.write("}")
}

func (e *Emitter) emitAssign(a *AssignStmt) {
	e.emitList(a.Left)
	if a.Define {
		e.write(" := ")
	} else {
		e.write(" = ")
	}
	e.emitList(a.Right)
}

func (e *Emitter) emitList(exprs []Expr) {
	for i, x := range exprs {
		if i > 0 {
			e.write(", ")
		}
		e.emitExpr(x)
	}
}

func (e *Emitter) emitExpr(expr Expr) {
	if e.err != nil {
		return
	}

	switch v := expr.(type) {
	case *Ident:
		e.write(v.Name)

	case *Literal:
		e.emitLiteral(v)

	case *CallExpr:
		e.emitExpr(v.Func)
		e.write("(")
		e.emitList(v.Args)
		e.write(")")

	case *SelectorExpr:
		e.emitExpr(v.X)
		e.write(".")
		e.write(v.Sel)

	case *UnaryExpr:
		e.write(v.Op)
		e.emitExpr(v.X)

	case *CompositeLit:
		e.write(v.Type)
		e.write("{")
		if v.Multiline && len(v.Elements) > 0 {
			e.newline()
			e.indent++
			for _, elem := range v.Elements {
				e.writeIndent()
				e.emitExpr(elem)
				e.write(",\n")
			}
			e.indent--
			e.writeIndent()
		} else {
			e.emitList(v.Elements)
		}
		e.write("}")

	case *KeyValueExpr:
		e.emitExpr(v.Key)
		e.write(": ")
		e.emitExpr(v.Value)

	case *FuncLit:
		e.write("func")
		e.emitSignature(v.Params, v.Results)
		e.write(" ")
		e.emitBody(v.Body)

	case *RawExpr:
		e.write(v.Code)

	default:
		e.err = fmt.Errorf("unknown expression type: %T", expr)
	}
}

func (e *Emitter) emitLiteral(l *Literal) {
	switch l.Kind {
	case LitString:
		s, ok := l.Value.(string)
		if !ok {
			e.err = fmt.Errorf("string literal holds %T", l.Value)
			return
		}
		e.write(strconv.Quote(s))
	case LitInt, LitUint:
		e.writef("%d", l.Value)
	case LitFloat:
		f, ok := l.Value.(float64)
		if !ok {
			e.err = fmt.Errorf("float literal holds %T", l.Value)
			return
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			e.err = fmt.Errorf("float literal %v has no Go constant form", f)
			return
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		e.write(s)
	case LitBool:
		e.writef("%t", l.Value)
	case LitRune:
		r, ok := l.Value.(rune)
		if !ok {
			e.err = fmt.Errorf("rune literal holds %T", l.Value)
			return
		}
		e.write(strconv.QuoteRune(r))
	case LitNil:
		e.write("nil")
	default:
		e.err = fmt.Errorf("unknown literal kind %d", l.Kind)
	}
}
