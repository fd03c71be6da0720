package logconf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"aot/internal/gen/ir"
	"aot/runtime/logging"
)

// ContextParam is the name of the *logging.LoggerContext parameter the
// generated statements run against
const ContextParam = "loggerContext"

// Program is the output of Compile
type Program struct {
	Stmts    []ir.Stmt
	Imports  ir.ImportSet
	Warnings []string
}

type pendingEdge struct {
	logger string
	ref    string
	line   int
}

// compilation is the accumulator threaded through one walk. Nothing outside
// it is mutated, so independent trees can be compiled concurrently.
type compilation struct {
	reg       *Registry
	names     *VarNames
	types     map[*Node]*ComponentType
	appenders map[string]string
	edges     []pendingEdge
	declared  []string
	used      map[string]bool
	rootSeen  bool
	prog      *Program
}

// Compile translates the tree rooted at root into statements that rebuild the
// same logger graph on the LoggerContext named ContextParam.
//
// Declarations come first in document order. Each component is bound to its
// context and started once its own properties are set, and only then wired
// into its parent. Logger to appender edges are collected during the walk and
// emitted after it, so a logger may reference an appender declared later.
func Compile(root *Node, reg *Registry) (*Program, error) {
	if root == nil || root.Kind != ConfigurationNode {
		return nil, fmt.Errorf("%w: compile expects a <configuration> root", ErrUnsupportedConstruct)
	}
	c := &compilation{
		reg:       reg,
		names:     NewVarNames(),
		types:     make(map[*Node]*ComponentType),
		appenders: make(map[string]string),
		used:      make(map[string]bool),
		prog:      &Program{},
	}
	if err := c.visit(root, nil); err != nil {
		return nil, err
	}
	c.resolveEdges()
	for _, v := range c.declared {
		if !c.used[v] {
			c.emit(ir.Discard(v))
		}
	}
	return c.prog, nil
}

func (c *compilation) visit(n, parent *Node) error {
	if err := c.pre(n, parent); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := c.visit(child, n); err != nil {
			return err
		}
	}
	return c.post(n, parent)
}

func (c *compilation) pre(n, parent *Node) error {
	switch n.Kind {
	case RootLoggerNode:
		if !c.rootSeen {
			c.rootSeen = true
			c.declare(RootLoggerVar, ir.CallOn(ir.Id(ContextParam), "Logger", ir.Dot(c.qualify("logging.RootLoggerName"))))
		}
		c.loggerAttributes(n, RootLoggerVar)

	case LoggerNode:
		if n.Name == "" {
			return fmt.Errorf("%w: %s has no name attribute", ErrUnsupportedConstruct, n.where())
		}
		v := c.names.Of(n)
		c.declare(v, ir.CallOn(ir.Id(ContextParam), "Logger", ir.Str(n.Name)))
		c.loggerAttributes(n, v)

	case AppenderNode:
		t, err := c.resolve(n)
		if err != nil {
			return err
		}
		v := c.names.Of(n)
		c.declare(v, ir.Call(c.qualify(t.Constructor)))
		if _, ok := t.Setter("name"); ok && n.Name != "" {
			c.call(v, "SetName", ir.Str(n.Name))
		}
		if prev, dup := c.appenders[n.Name]; dup {
			c.warn("%s redefines appender %q, %s is no longer referenced", n.where(), n.Name, prev)
		}
		c.appenders[n.Name] = v

	case ImplicitNode:
		if n.Class != "" {
			t, err := c.resolve(n)
			if err != nil {
				return err
			}
			c.declare(c.names.Of(n), ir.Call(c.qualify(t.Constructor)))
			return nil
		}
		if parent != nil && c.types[parent] != nil {
			return c.wire(n, parent)
		}
		c.warn("%s is not a property of a component, skipped", n.where())
	}
	return nil
}

func (c *compilation) post(n, parent *Node) error {
	t := c.types[n]
	if t == nil {
		return nil
	}
	v := c.names.Of(n)
	if t.ContextAware {
		c.call(v, "SetContext", ir.Id(ContextParam))
	}
	if t.LifeCycle {
		c.call(v, "Start")
	}
	if n.Kind != ImplicitNode {
		return nil
	}
	if parent == nil || c.types[parent] == nil {
		c.warn("%s declares %s outside of a component, not attached", n.where(), t.Name)
		return nil
	}
	return c.wire(n, parent)
}

// wire attaches n to its parent component through Set<Tag>, falling back to
// Add<Tag>. Body text is coerced to the parameter type; otherwise the variable
// bound to n is passed.
func (c *compilation) wire(n, parent *Node) error {
	owner := c.types[parent]
	m, ok := owner.Setter(n.Tag)
	if !ok {
		m, ok = owner.Adder(n.Tag)
	}
	if !ok {
		c.warn("%s: %s has no setter or adder for %q, skipped", n.where(), owner.Name, n.Tag)
		return nil
	}

	var arg ir.Expr
	switch {
	case n.Body != nil:
		v, err := c.coerce(*n.Body, m.Param)
		if err != nil {
			return fmt.Errorf("%s: %s.%s: %w", n.where(), owner.Name, m.Name, err)
		}
		arg = v
	case n.Class != "":
		if m.Param.Kind != Component {
			return fmt.Errorf("%w: %s: %s.%s does not accept a component", ErrUnsupportedConstruct, n.where(), owner.Name, m.Name)
		}
		child := c.names.Of(n)
		c.used[child] = true
		arg = ir.Id(child)
	default:
		c.warn("%s has neither a class nor a value, skipped", n.where())
		return nil
	}
	c.call(c.names.Of(parent), m.Name, arg)
	return nil
}

func (c *compilation) coerce(text string, p Param) (ir.Expr, error) {
	bits := map[ParamKind]int{Int: 64, Int8: 8, Int16: 16, Int32: 32, Int64: 64}
	switch p.Kind {
	case Bool:
		return ir.Bool(strings.EqualFold(text, "true")), nil
	case Int, Int8, Int16, Int32, Int64:
		v, err := strconv.ParseInt(text, 10, bits[p.Kind])
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer: %v", ErrUnsupportedConstruct, text, err)
		}
		return ir.Int(v), nil
	case Uint8:
		v, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a byte: %v", ErrUnsupportedConstruct, text, err)
		}
		return ir.Uint(v), nil
	case Float32, Float64:
		size := 64
		if p.Kind == Float32 {
			size = 32
		}
		v, err := strconv.ParseFloat(text, size)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number: %v", ErrUnsupportedConstruct, text, err)
		}
		if size == 32 {
			v, _ = strconv.ParseFloat(strconv.FormatFloat(v, 'g', -1, 32), 64)
		}
		return ir.Float(v), nil
	case Rune:
		r, _ := utf8.DecodeRuneInString(text)
		return ir.Char(r), nil
	case String:
		return ir.Str(text), nil
	case Value:
		if p.Factory == "" {
			return nil, fmt.Errorf("%w: %s has no factory from string", ErrUnsupportedConstruct, p.TypeName)
		}
		if p.Validate != nil {
			if err := p.Validate(text); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnsupportedConstruct, err)
			}
		}
		return ir.Call(c.qualify(p.Factory), ir.Str(text)), nil
	}
	return nil, fmt.Errorf("%w: text %q given for a %s component", ErrUnsupportedConstruct, text, p.TypeName)
}

func (c *compilation) loggerAttributes(n *Node, v string) {
	if n.Level != "" {
		lvl := logging.ParseLevel(n.Level)
		c.call(v, "SetLevel", ir.Dot(c.qualify("logging."+lvl.ConstName())))
	}
	if n.Kind == LoggerNode && n.Additivity != "" {
		c.call(v, "SetAdditive", ir.Bool(strings.EqualFold(n.Additivity, "true")))
	}
	for _, child := range n.Children {
		if child.Kind == AppenderRefNode {
			c.edges = append(c.edges, pendingEdge{logger: v, ref: child.Ref, line: child.Line})
		}
	}
}

// resolveEdges emits one AddAppender per distinct (logger, appender) pair, in
// the order the references appear in the document.
func (c *compilation) resolveEdges() {
	seen := make(map[pendingEdge]bool)
	for _, e := range c.edges {
		app, ok := c.appenders[e.ref]
		if !ok {
			c.warn("appender-ref %q at line %d names no appender, skipped", e.ref, e.line)
			continue
		}
		key := pendingEdge{logger: e.logger, ref: e.ref}
		if seen[key] {
			continue
		}
		seen[key] = true
		c.used[app] = true
		c.call(e.logger, "AddAppender", ir.Id(app))
	}
}

func (c *compilation) resolve(n *Node) (*ComponentType, error) {
	if n.Class == "" {
		return nil, fmt.Errorf("%w: %s declares no class", ErrReflectiveResolution, n.where())
	}
	t, ok := c.reg.Lookup(n.Class)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrReflectiveResolution, n.where(), n.Class)
	}
	c.types[n] = t
	return t, nil
}

func (c *compilation) qualify(name string) string {
	if p, ok := c.reg.ImportPath(name); ok {
		c.prog.Imports.Add(p)
	}
	return name
}

func (c *compilation) declare(v string, value ir.Expr) {
	c.declared = append(c.declared, v)
	c.emit(ir.Define(v, value))
}

func (c *compilation) call(v, method string, args ...ir.Expr) {
	c.used[v] = true
	c.emit(ir.Do(ir.CallOn(ir.Id(v), method, args...)))
}

func (c *compilation) emit(s ir.Stmt) {
	c.prog.Stmts = append(c.prog.Stmts, s)
}

func (c *compilation) warn(format string, args ...any) {
	c.prog.Warnings = append(c.prog.Warnings, fmt.Sprintf(format, args...))
}
