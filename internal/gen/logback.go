package gen

import (
	"fmt"

	"aot/internal/gen/ir"
	"aot/internal/logconf"
)

const (
	// DefaultLogbackFile is the logging configuration resource replaced by default
	DefaultLogbackFile = "logback.xml"

	logbackConfigurationType = "StaticLogbackConfiguration"
)

// LogbackGenerator replaces the logging configuration file with a Go
// configurator that builds the same logger graph.
type LogbackGenerator struct {
	resource string
	registry *logconf.Registry
}

// NewLogbackGenerator creates a generator for resource, or logback.xml when empty
func NewLogbackGenerator(resource string, registry *logconf.Registry) *LogbackGenerator {
	if resource == "" {
		resource = DefaultLogbackFile
	}
	if registry == nil {
		registry = logconf.DefaultRegistry()
	}
	return &LogbackGenerator{resource: resource, registry: registry}
}

func (g *LogbackGenerator) ID() string { return "logback" }

func (g *LogbackGenerator) Generate(ctx *Context) (*Output, error) {
	path, ok := ctx.Classpath().Find(g.resource)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingResource, g.resource)
	}
	root, err := logconf.LoadFile(path, g.registry)
	if err != nil {
		return nil, err
	}
	prog, err := logconf.Compile(root, g.registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.resource, err)
	}
	for _, w := range prog.Warnings {
		ctx.Warn(g.ID(), "%s", w)
	}

	fb := newFile(ctx).Imports(prog.Imports).Import(loggingPackage)
	fb.AddDecl(ir.Type(logbackConfigurationType, "struct{}",
		fmt.Sprintf("%s configures logging without reading %s", logbackConfigurationType, g.resource)))
	fb.AddDecl(ir.NewFunc("Configure").
		Receiver("", logbackConfigurationType).
		Param(logconf.ContextParam, "*logging.LoggerContext").
		Body(prog.Stmts...).
		Build())

	ctx.ExcludeResource(g.resource)
	ctx.Info(g.ID(), "Replaced %s with %d statements", g.resource, len(prog.Stmts))

	out := &Output{
		Files: []*SourceFile{sourceFile(ctx, "static_logback_configuration.go", fb)},
		Init: []ir.Stmt{
			ir.Do(ir.Call("logging.SetStaticConfigurator", ir.Composite(logbackConfigurationType))),
		},
	}
	out.InitImports.Add(loggingPackage)
	return out, nil
}
