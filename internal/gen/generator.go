package gen

import (
	"fmt"
	"go/token"
	"path"
	"strconv"
	"strings"

	"aot/internal/gen/ir"
	"aot/internal/logconf"
)

const (
	optimPackage   = "aot/runtime/optim"
	loggingPackage = "aot/runtime/logging"

	generatedHeader = "Code generated by aot. DO NOT EDIT."
)

// Fatal error kinds of a run
var (
	ErrMissingResource      = logconf.ErrMissingResource
	ErrUnsupportedConstruct = logconf.ErrUnsupportedConstruct
	ErrReflectiveResolution = logconf.ErrReflectiveResolution
)

// SourceGenerator produces generated files from the shared context. Each
// generator is invoked exactly once per run.
type SourceGenerator interface {
	// ID names the diagnostics category of the generator
	ID() string

	Generate(ctx *Context) (*Output, error)
}

// Output is what a generator contributes to the run
type Output struct {
	Files     []*SourceFile
	Resources []Resource

	// Init statements are appended to the customizer's Customize method
	Init        []ir.Stmt
	InitImports ir.ImportSet
}

// Merge appends other to o
func (o *Output) Merge(other *Output) {
	if other == nil {
		return
	}
	o.Files = append(o.Files, other.Files...)
	o.Resources = append(o.Resources, other.Resources...)
	o.Init = append(o.Init, other.Init...)
	o.InitImports.Merge(other.InitImports)
}

// SourceFile is one generated Go file
type SourceFile struct {
	Name    string
	Package string
	File    *ir.File
	Source  []byte
}

// Path returns the slash separated path of the file in the sources tree
func (f *SourceFile) Path() string {
	return path.Join(f.Package, f.Name)
}

// Render returns the formatted source of the file
func (f *SourceFile) Render() ([]byte, error) {
	if f.Source != nil {
		return f.Source, nil
	}
	if f.File == nil {
		return nil, fmt.Errorf("%s: nothing to render", f.Path())
	}
	out, err := ir.Format(f.File)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path(), err)
	}
	return out, nil
}

// Resource is a file written as is into the classes directory
type Resource struct {
	Path string
	Data []byte
}

func newFile(ctx *Context) *ir.FileBuilder {
	return ir.NewFile(ctx.Package).Header(generatedHeader)
}

func sourceFile(ctx *Context, name string, fb *ir.FileBuilder) *SourceFile {
	return &SourceFile{Name: name, Package: ctx.Package, File: fb.Build()}
}

// importer gives application packages collision free aliases within one file
type importer struct {
	set    ir.ImportSet
	byPath map[string]string
	taken  map[string]bool
}

func newImporter() *importer {
	return &importer{
		byPath: make(map[string]string),
		taken:  map[string]bool{"optim": true, "logging": true},
	}
}

// use records a runtime import under its own name
func (im *importer) use(importPath string) {
	im.set.Add(importPath)
}

// alias returns the alias of importPath, allocating one on first use
func (im *importer) alias(importPath string) string {
	if a, ok := im.byPath[importPath]; ok {
		return a
	}
	base := identifier(path.Base(importPath))
	a := base
	for i := 2; im.taken[a]; i++ {
		a = base + strconv.Itoa(i)
	}
	im.taken[a] = true
	im.byPath[importPath] = a
	im.set.AddAlias(a, importPath)
	return a
}

// identifier turns an import path element into a lower case Go identifier
func identifier(s string) string {
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	var sb strings.Builder
	for _, c := range strings.ToLower(s) {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			sb.WriteRune(c)
		}
	}
	id := sb.String()
	if id == "" || id[0] >= '0' && id[0] <= '9' || token.IsKeyword(id) {
		id = "pkg" + id
	}
	return id
}

// camel turns a resource name like "application-prod" into "applicationProd"
func camel(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	var sb strings.Builder
	for i, p := range parts {
		if i == 0 {
			sb.WriteString(strings.ToLower(p[:1]) + p[1:])
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	id := sb.String()
	if id == "" || id[0] >= '0' && id[0] <= '9' {
		id = "r" + id
	}
	return id
}

// snake turns a resource name like "application-prod" into "application_prod"
func snake(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(parts, "_")
}
