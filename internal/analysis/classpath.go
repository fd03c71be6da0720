package analysis

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"
)

// ServicesDescriptor is the path, relative to a classpath root, of the file
// declaring service implementations.
const ServicesDescriptor = "META-INF/aot/services.yaml"

// ErrNotFound is returned when a resource is on none of the classpath roots
var ErrNotFound = errors.New("resource not found on classpath")

// ServiceImpl is one implementation declared in a services descriptor
type ServiceImpl struct {
	Type        string       `yaml:"type"`
	Constructor string       `yaml:"constructor"`
	Requires    Requirements `yaml:"requires"`
}

// Module is a classpath root holding a go.mod
type Module struct {
	Path string
	Dir  string
}

// Classpath is an ordered list of root directories. Resources are looked up by
// slash separated relative name and the first root holding one wins.
type Classpath struct {
	roots   []string
	modules map[string]string
}

// NewClasspath creates a classpath over roots, skipping empty entries
func NewClasspath(roots ...string) *Classpath {
	c := &Classpath{}
	for _, r := range roots {
		if strings.TrimSpace(r) != "" {
			c.roots = append(c.roots, filepath.Clean(r))
		}
	}
	return c
}

// Roots returns the roots in lookup order
func (c *Classpath) Roots() []string {
	return append([]string(nil), c.roots...)
}

// With returns a new classpath with extra appended after the current roots
func (c *Classpath) With(extra ...string) *Classpath {
	return NewClasspath(append(c.Roots(), extra...)...)
}

// Find returns the path of the first resource called name
func (c *Classpath) Find(name string) (string, bool) {
	rel := filepath.FromSlash(name)
	for _, root := range c.roots {
		p := filepath.Join(root, rel)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// ReadResource returns the content of the first resource called name
func (c *Classpath) ReadResource(name string) ([]byte, error) {
	p, ok := c.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return os.ReadFile(p)
}

// ModulePath returns the module path declared by root/go.mod
func (c *Classpath) ModulePath(root string) (string, bool) {
	if c.modules == nil {
		c.modules = make(map[string]string)
	}
	if p, ok := c.modules[root]; ok {
		return p, p != ""
	}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	p := ""
	if err == nil {
		p = modfile.ModulePath(data)
	}
	c.modules[root] = p
	return p, p != ""
}

// Modules returns the roots that are Go modules, in classpath order
func (c *Classpath) Modules() []Module {
	var out []Module
	for _, root := range c.roots {
		if p, ok := c.ModulePath(root); ok {
			out = append(out, Module{Path: p, Dir: root})
		}
	}
	return out
}

// PackageDir maps an import path to its directory on the classpath
func (c *Classpath) PackageDir(importPath string) (string, bool) {
	for _, m := range c.Modules() {
		if importPath == m.Path {
			return m.Dir, true
		}
		if rest, ok := strings.CutPrefix(importPath, m.Path+"/"); ok {
			dir := filepath.Join(m.Dir, filepath.FromSlash(rest))
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				return dir, true
			}
		}
	}
	return "", false
}

// HasType reports whether the qualified name "import/path.Name" resolves to a
// top level type or function of a package on the classpath.
func (c *Classpath) HasType(qualified string) bool {
	pkg, name, ok := SplitQualified(qualified)
	if !ok {
		return false
	}
	dir, ok := c.PackageDir(pkg)
	if !ok {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, n), nil, parser.SkipObjectResolution)
		if err != nil {
			continue
		}
		if declares(f, name) {
			return true
		}
	}
	return false
}

func declares(f *ast.File, name string) bool {
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name == name {
				return true
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				if ts, ok := s.(*ast.TypeSpec); ok && ts.Name.Name == name {
					return true
				}
			}
		}
	}
	return false
}

// Services returns the implementations declared for contract by every root's
// services descriptor, in classpath then declaration order.
func (c *Classpath) Services(contract string) ([]ServiceImpl, error) {
	var out []ServiceImpl
	for _, root := range c.roots {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ServicesDescriptor)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var desc map[string][]ServiceImpl
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parse %s in %s: %w", ServicesDescriptor, root, err)
		}
		out = append(out, desc[contract]...)
	}
	return out, nil
}

// Resources lists the slash separated names of the non Go files under every
// root, sorted and without duplicates.
func (c *Classpath) Resources() ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range c.roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(p, ".go") || d.Name() == "go.mod" || d.Name() == "go.sum" {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			seen[filepath.ToSlash(rel)] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}

// Match returns the resources matched by gitignore style patterns
func (c *Classpath) Match(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	matcher := ignore.CompileIgnoreLines(patterns...)
	resources, err := c.Resources()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range resources {
		if matcher.MatchesPath(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SplitQualified splits "import/path.Name" into its import path and name
func SplitQualified(qualified string) (pkg, name string, ok bool) {
	i := strings.LastIndexByte(qualified, '.')
	if i <= 0 || i == len(qualified)-1 || strings.LastIndexByte(qualified, '/') > i {
		return "", "", false
	}
	return qualified[:i], qualified[i+1:], true
}
