package logconf

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"aot/runtime/logging"
)

// ParamKind is the static type of a setter or adder parameter
type ParamKind int

const (
	Bool ParamKind = iota
	Int
	Int8
	Int16
	Int32
	Int64
	Uint8
	Float32
	Float64
	Rune
	String
	Component
	Value
)

// Param describes the single parameter of a setter or adder.
//
// Value parameters are built from body text through Factory, a qualified
// single string argument function such as "logging.MustParseFileSize".
// Validate, when set, rejects bad literals at generation time. Default names
// the component type used when the element declares no class.
type Param struct {
	Kind     ParamKind
	TypeName string
	Factory  string
	Validate func(string) error
	Default  string
}

// Method is a setter (Set<Tag>) or adder (Add<Tag>)
type Method struct {
	Name  string
	Param Param
}

// ComponentType is the capability table entry of one component implementation
type ComponentType struct {
	Name         string
	Aliases      []string
	Constructor  string
	Methods      []Method
	ContextAware bool
	LifeCycle    bool
}

// Setter returns the Set<Tag> method, matching the tag case-insensitively
func (c *ComponentType) Setter(tag string) (Method, bool) {
	return c.method("Set" + tag)
}

// Adder returns the Add<Tag> method, matching the tag case-insensitively
func (c *ComponentType) Adder(tag string) (Method, bool) {
	return c.method("Add" + tag)
}

func (c *ComponentType) method(name string) (Method, bool) {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Method{}, false
}

// Registry maps type names and aliases to component types and package
// aliases to import paths.
type Registry struct {
	types    map[string]*ComponentType
	packages map[string]string
}

// RuntimePackage is the import path of the logging runtime generated code targets
const RuntimePackage = "aot/runtime/logging"

// NewRegistry creates a registry with no component types. The "logging"
// alias is predeclared as RuntimePackage.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*ComponentType),
		packages: map[string]string{"logging": RuntimePackage},
	}
}

// Package declares the import path of a package alias used in qualified names
func (r *Registry) Package(alias, path string) {
	r.packages[alias] = path
}

// ImportPath returns the import path of the package a qualified name lives in
func (r *Registry) ImportPath(qualified string) (string, bool) {
	alias, _, ok := strings.Cut(qualified, ".")
	if !ok {
		return "", false
	}
	p, ok := r.packages[alias]
	return p, ok
}

// Register adds t under its name and aliases
func (r *Registry) Register(t *ComponentType) error {
	for _, key := range append([]string{t.Name}, t.Aliases...) {
		if _, dup := r.types[key]; dup {
			return fmt.Errorf("component type %s registered twice", key)
		}
	}
	if _, ok := r.ImportPath(t.Constructor); !ok {
		return fmt.Errorf("component type %s: no package declared for %s", t.Name, t.Constructor)
	}
	for _, key := range append([]string{t.Name}, t.Aliases...) {
		r.types[key] = t
	}
	return nil
}

// MustRegister is Register that panics on error
func (r *Registry) MustRegister(types ...*ComponentType) *Registry {
	for _, t := range types {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup resolves a type name or alias
func (r *Registry) Lookup(class string) (*ComponentType, bool) {
	t, ok := r.types[class]
	return t, ok
}

// Names returns the canonical type names, sorted
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	for _, t := range r.types {
		seen[t.Name] = true
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func set(tag string, p Param) Method {
	return Method{Name: "Set" + upperFirst(tag), Param: p}
}

func add(tag string, p Param) Method {
	return Method{Name: "Add" + upperFirst(tag), Param: p}
}

func fileSize() Param {
	return Param{
		Kind:     Value,
		TypeName: "logging.FileSize",
		Factory:  "logging.MustParseFileSize",
		Validate: func(s string) error {
			_, err := logging.ParseFileSize(s)
			return err
		},
	}
}

func filterReply() Param {
	return Param{
		Kind:     Value,
		TypeName: "logging.FilterReply",
		Factory:  "logging.MustParseFilterReply",
		Validate: func(s string) error {
			_, err := logging.ParseFilterReply(s)
			return err
		},
	}
}

// DefaultRegistry describes the components of aot/runtime/logging
func DefaultRegistry() *Registry {
	r := NewRegistry()

	encoder := Param{Kind: Component, TypeName: "logging.Encoder", Default: "logging.PatternLayoutEncoder"}
	filter := Param{Kind: Component, TypeName: "logging.Filter"}
	outputStream := []Method{
		set("name", Param{Kind: String}),
		set("encoder", encoder),
		set("immediateFlush", Param{Kind: Bool}),
		add("filter", filter),
	}
	file := append(append([]Method(nil), outputStream...),
		set("file", Param{Kind: String}),
		set("append", Param{Kind: Bool}),
	)

	return r.MustRegister(
		&ComponentType{
			Name:         "logging.ConsoleAppender",
			Aliases:      []string{"ch.qos.logback.core.ConsoleAppender"},
			Constructor:  "logging.NewConsoleAppender",
			Methods:      append(append([]Method(nil), outputStream...), set("target", Param{Kind: String})),
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name:         "logging.FileAppender",
			Aliases:      []string{"ch.qos.logback.core.FileAppender"},
			Constructor:  "logging.NewFileAppender",
			Methods:      file,
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name:        "logging.RollingFileAppender",
			Aliases:     []string{"ch.qos.logback.core.rolling.RollingFileAppender"},
			Constructor: "logging.NewRollingFileAppender",
			Methods: append(append([]Method(nil), file...), set("rollingPolicy", Param{
				Kind:     Component,
				TypeName: "logging.RollingPolicy",
				Default:  "logging.SizeBasedRollingPolicy",
			})),
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name: "logging.SizeBasedRollingPolicy",
			Aliases: []string{
				"ch.qos.logback.core.rolling.SizeAndTimeBasedRollingPolicy",
				"ch.qos.logback.core.rolling.FixedWindowRollingPolicy",
			},
			Constructor: "logging.NewSizeBasedRollingPolicy",
			Methods: []Method{
				set("fileNamePattern", Param{Kind: String}),
				set("maxFileSize", fileSize()),
				set("maxHistory", Param{Kind: Int}),
			},
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name: "logging.PatternLayoutEncoder",
			Aliases: []string{
				"ch.qos.logback.classic.encoder.PatternLayoutEncoder",
			},
			Constructor: "logging.NewPatternLayoutEncoder",
			Methods: []Method{
				set("pattern", Param{Kind: String}),
				set("outputPatternAsHeader", Param{Kind: Bool}),
			},
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name:        "logging.JSONEncoder",
			Aliases:     []string{"ch.qos.logback.classic.encoder.JsonEncoder"},
			Constructor: "logging.NewJSONEncoder",
			Methods: []Method{
				set("includeLoggerName", Param{Kind: Bool}),
			},
		},
		&ComponentType{
			Name:        "logging.ConsoleEncoder",
			Constructor: "logging.NewConsoleEncoder",
			Methods: []Method{
				set("noColor", Param{Kind: Bool}),
				set("timeFormat", Param{Kind: String}),
			},
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name:        "logging.DelimitedEncoder",
			Constructor: "logging.NewDelimitedEncoder",
			Methods: []Method{
				set("delimiter", Param{Kind: Rune}),
			},
		},
		&ComponentType{
			Name:        "logging.ThresholdFilter",
			Aliases:     []string{"ch.qos.logback.classic.filter.ThresholdFilter"},
			Constructor: "logging.NewThresholdFilter",
			Methods: []Method{
				set("level", Param{Kind: String}),
			},
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name:        "logging.LevelFilter",
			Aliases:     []string{"ch.qos.logback.classic.filter.LevelFilter"},
			Constructor: "logging.NewLevelFilter",
			Methods: []Method{
				set("level", Param{Kind: String}),
				set("onMatch", filterReply()),
				set("onMismatch", filterReply()),
			},
			ContextAware: true,
			LifeCycle:    true,
		},
		&ComponentType{
			Name:        "logging.SamplingFilter",
			Constructor: "logging.NewSamplingFilter",
			Methods: []Method{
				set("ratio", Param{Kind: Float64}),
			},
		},
	)
}
