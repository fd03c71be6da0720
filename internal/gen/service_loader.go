package gen

import (
	"fmt"

	"aot/internal/analysis"
	"aot/internal/gen/ir"
)

// ServiceLoaderResultKey is the context key of the *ServiceLoaderResult
const ServiceLoaderResultKey = "static-service-loader"

// Runtime selects what the generated code may assume when it runs
type Runtime string

const (
	JIT    Runtime = "jit"
	Native Runtime = "native"
)

// ServiceLoaderResult is what the service loader generator resolved
type ServiceLoaderResult struct {
	// Services maps each contract to its implementation types, in order
	Services map[string][]string

	// Substituted lists implementations replaced by a substitute generator
	Substituted []string

	// PropertySources lists the constant property source functions emitted
	// by substitutes
	PropertySources []string
}

// propertySourceProvider is implemented by substitutes emitting property sources
type propertySourceProvider interface {
	PropertySourceFuncs() []string
}

// ServiceLoaderGenerator replaces dynamic service discovery with a static
// table built from the classpath service descriptors.
type ServiceLoaderGenerator struct {
	runtime       Runtime
	filter        analysis.Predicate
	serviceTypes  []string
	rejected      func(string) bool
	substitutions map[string]SourceGenerator
	result        *ServiceLoaderResult
}

// NewServiceLoaderGenerator creates the service loader generator for runtime
func NewServiceLoaderGenerator(runtime Runtime, filter analysis.Predicate, serviceTypes []string,
	rejected func(string) bool, substitutions map[string]SourceGenerator) *ServiceLoaderGenerator {
	if filter == nil {
		filter = analysis.AcceptAll
	}
	if rejected == nil {
		rejected = func(string) bool { return false }
	}
	return &ServiceLoaderGenerator{
		runtime:       runtime,
		filter:        filter,
		serviceTypes:  serviceTypes,
		rejected:      rejected,
		substitutions: substitutions,
	}
}

func (g *ServiceLoaderGenerator) ID() string {
	if g.runtime == Native {
		return "native-static-service-loader"
	}
	return "static-service-loader"
}

// Result returns what the last Generate call resolved, or nil
func (g *ServiceLoaderGenerator) Result() *ServiceLoaderResult {
	return g.result
}

func (g *ServiceLoaderGenerator) Generate(ctx *Context) (*Output, error) {
	cp := ctx.Classpath()
	result := &ServiceLoaderResult{Services: make(map[string][]string)}
	out := &Output{}
	im := newImporter()
	im.use(optimPackage)
	var body []ir.Stmt
	substituted := make(map[string]bool)

	for _, contract := range g.serviceTypes {
		impls, err := cp.Services(contract)
		if err != nil {
			return nil, err
		}
		result.Services[contract] = []string{}
		for _, impl := range impls {
			name := impl.Type
			if g.rejected(name) {
				ctx.Info(g.ID(), "Rejected %s for %s", name, contract)
				continue
			}
			if sub, ok := g.substitutions[name]; ok {
				if substituted[name] {
					continue
				}
				substituted[name] = true
				subOut, err := sub.Generate(ctx)
				if err != nil {
					return nil, fmt.Errorf("substitute %s: %w", sub.ID(), err)
				}
				out.Merge(subOut)
				if p, ok := sub.(propertySourceProvider); ok {
					result.PropertySources = append(result.PropertySources, p.PropertySourceFuncs()...)
				}
				result.Substituted = append(result.Substituted, name)
				ctx.Info(g.ID(), "Substituted %s with %s", name, sub.ID())
				continue
			}
			if !g.filter(impl.Requires) {
				ctx.Info(g.ID(), "Skipped %s for %s: requirements not met", name, contract)
				continue
			}

			call, err := g.constructor(cp, im, impl)
			if err != nil {
				return nil, err
			}
			body = append(body, g.register(contract, name, call))
			result.Services[contract] = append(result.Services[contract], name)
			ctx.Info(g.ID(), "Registered %s for %s", name, contract)
		}
	}

	if len(body) > 0 {
		const fn = "registerStaticServices"
		fb := newFile(ctx).Imports(im.set)
		fb.AddDecl(ir.NewFunc(fn).
			Doc("%s installs the service implementations resolved at build time", fn).
			Body(body...).
			Build())
		out.Files = append(out.Files, sourceFile(ctx, "static_service_loader.go", fb))
		out.Init = append(out.Init, ir.Do(ir.Call(fn)))
	}

	g.result = result
	ctx.Put(ServiceLoaderResultKey, result)
	return out, nil
}

// constructor resolves the package and constructor of impl on the classpath
func (g *ServiceLoaderGenerator) constructor(cp *analysis.Classpath, im *importer, impl analysis.ServiceImpl) (ir.Expr, error) {
	pkgPath, typeName, ok := analysis.SplitQualified(impl.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a qualified type name", ErrReflectiveResolution, impl.Type)
	}
	ctor := impl.Constructor
	if ctor == "" {
		ctor = "New" + typeName
	}
	if !cp.HasType(impl.Type) {
		return nil, fmt.Errorf("%w: type %s not found on classpath", ErrReflectiveResolution, impl.Type)
	}
	if !cp.HasType(pkgPath + "." + ctor) {
		return nil, fmt.Errorf("%w: constructor %s.%s not found on classpath", ErrReflectiveResolution, pkgPath, ctor)
	}
	return ir.Call(im.alias(pkgPath) + "." + ctor), nil
}

func (g *ServiceLoaderGenerator) register(contract, name string, call ir.Expr) ir.Stmt {
	if g.runtime == Native {
		return ir.Do(ir.Call("optim.EagerService", ir.Str(contract), ir.Str(name), call))
	}
	return ir.Do(ir.Call("optim.LazyService", ir.Str(contract), ir.Str(name),
		ir.Closure([]ir.Param{{Type: "any"}}, ir.Return(call))))
}
