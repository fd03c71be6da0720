package gen

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"aot/internal/gen/ir"

	"gopkg.in/yaml.v3"
)

func initCall(fn string, args ...ir.Expr) *Output {
	out := &Output{Init: []ir.Stmt{ir.Do(ir.Call(fn, args...))}}
	out.InitImports.Add(optimPackage)
	return out
}

func strs(values []string) []ir.Expr {
	out := make([]ir.Expr, len(values))
	for i, v := range values {
		out[i] = ir.Str(v)
	}
	return out
}

// MissingTypesGenerator records which of the checked types are absent from
// the classpath so lookups can fail fast at runtime.
type MissingTypesGenerator struct {
	types []string
}

func NewMissingTypesGenerator(types []string) *MissingTypesGenerator {
	return &MissingTypesGenerator{types: types}
}

func (g *MissingTypesGenerator) ID() string { return "known-missing-types" }

func (g *MissingTypesGenerator) Generate(ctx *Context) (*Output, error) {
	cp := ctx.Classpath()
	var missing []string
	for _, t := range g.types {
		if cp.HasType(t) {
			continue
		}
		missing = append(missing, t)
		ctx.Info(g.ID(), "%s is missing from the classpath", t)
	}
	return initCall("optim.SetMissingTypes", strs(missing)...), nil
}

// maxEnvironmentSegments bounds the separator combinations of one variable
const maxEnvironmentSegments = 6

// EnvironmentPropertiesGenerator precomputes the property names each
// environment variable maps to.
type EnvironmentPropertiesGenerator struct{}

func NewEnvironmentPropertiesGenerator() *EnvironmentPropertiesGenerator {
	return &EnvironmentPropertiesGenerator{}
}

func (g *EnvironmentPropertiesGenerator) ID() string { return "environment-properties" }

func (g *EnvironmentPropertiesGenerator) Generate(ctx *Context) (*Output, error) {
	var vars []string
	if ctx.Analyzer != nil {
		vars = ctx.Analyzer.EnvironmentVariables()
	}
	sort.Strings(vars)

	var entries []ir.Expr
	seen := make(map[string]bool)
	for _, v := range vars {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		entries = append(entries, ir.KV(ir.Str(v), ir.Composite("[]string", strs(PropertyNames(v))...)))
	}

	const fn = "environmentProperties"
	fb := newFile(ctx)
	fb.AddDecl(ir.NewFunc(fn).
		Doc("%s maps environment variables to the properties they define", fn).
		Returns("map[string][]string").
		Body(ir.Return(ir.CompositeLines("map[string][]string", entries...))).
		Build())
	ctx.Info(g.ID(), "Precomputed %d environment variables", len(entries))

	out := initCall("optim.SetEnvironmentProperties", ir.Call(fn))
	out.Files = []*SourceFile{sourceFile(ctx, "environment_properties.go", fb)}
	return out, nil
}

// PropertyNames returns the property names an environment variable stands
// for: FOO_BAR gives foo.bar then foo-bar. Every combination of separators is
// produced, dotted first; long names only get the dotted form.
func PropertyNames(variable string) []string {
	segments := strings.FieldsFunc(strings.ToLower(variable), func(r rune) bool { return r == '_' })
	if len(segments) == 0 {
		return nil
	}
	if len(segments) == 1 || len(segments) > maxEnvironmentSegments {
		return []string{strings.Join(segments, ".")}
	}
	n := len(segments) - 1
	out := make([]string, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		var sb strings.Builder
		sb.WriteString(segments[0])
		for i := 1; i < len(segments); i++ {
			if mask&(1<<(n-i)) != 0 {
				sb.WriteByte('-')
			} else {
				sb.WriteByte('.')
			}
			sb.WriteString(segments[i])
		}
		out = append(out, sb.String())
	}
	return out
}

// DefaultPublisherTypes are the reactive types looked up on the classpath
var DefaultPublisherTypes = []string{
	"github.com/reactivex/rxgo/v2.Observable",
	"github.com/reugn/go-streams.Flow",
	"github.com/nats-io/nats.go.Subscription",
	"github.com/ThreeDotsLabs/watermill/message.Subscriber",
}

// PublishersGenerator records which reactive types are available
type PublishersGenerator struct {
	candidates []string
}

// NewPublishersGenerator creates the generator. Nil candidates use DefaultPublisherTypes.
func NewPublishersGenerator(candidates []string) *PublishersGenerator {
	if candidates == nil {
		candidates = DefaultPublisherTypes
	}
	return &PublishersGenerator{candidates: candidates}
}

func (g *PublishersGenerator) ID() string { return "publishers" }

func (g *PublishersGenerator) Generate(ctx *Context) (*Output, error) {
	cp := ctx.Classpath()
	var found []string
	for _, t := range g.candidates {
		if cp.HasType(t) {
			found = append(found, t)
			ctx.Info(g.ID(), "Found publisher type %s", t)
		}
	}
	return initCall("optim.SetPublisherTypes", strs(found)...), nil
}

// CachedEnvironmentGenerator seals the environment so property lookups are
// cached after startup.
type CachedEnvironmentGenerator struct{}

func NewCachedEnvironmentGenerator() *CachedEnvironmentGenerator {
	return &CachedEnvironmentGenerator{}
}

func (g *CachedEnvironmentGenerator) ID() string { return "sealed-environment" }

func (g *CachedEnvironmentGenerator) Generate(*Context) (*Output, error) {
	return initCall("optim.SealEnvironment"), nil
}

// ErrNoServiceLoaderResult is returned when constant property sources run
// without the service loader having run first
var ErrNoServiceLoaderResult = errors.New("static service loader result not available")

// ConstantPropertySourcesGenerator installs the property sources emitted
// while substituting the YAML loader.
type ConstantPropertySourcesGenerator struct {
	loader *ServiceLoaderGenerator
}

// NewConstantPropertySourcesGenerator reads the result of loader, or the one
// published in the context when loader is nil.
func NewConstantPropertySourcesGenerator(loader *ServiceLoaderGenerator) *ConstantPropertySourcesGenerator {
	return &ConstantPropertySourcesGenerator{loader: loader}
}

func (g *ConstantPropertySourcesGenerator) ID() string { return "constant-property-sources" }

func (g *ConstantPropertySourcesGenerator) Generate(ctx *Context) (*Output, error) {
	var result *ServiceLoaderResult
	if g.loader != nil {
		result = g.loader.Result()
	}
	if result == nil {
		result, _ = ResultOf[*ServiceLoaderResult](ctx, ServiceLoaderResultKey)
	}
	if result == nil {
		return nil, ErrNoServiceLoaderResult
	}
	if len(result.PropertySources) == 0 {
		ctx.Info(g.ID(), "No constant property sources")
		return &Output{}, nil
	}
	args := make([]ir.Expr, len(result.PropertySources))
	for i, fn := range result.PropertySources {
		args[i] = ir.Call(fn)
	}
	ctx.Info(g.ID(), "Installing %s", strings.Join(result.PropertySources, ", "))
	return initCall("optim.SetPropertySources", args...), nil
}

// NativeFeatureGenerator registers the customizer and the statically resolved
// service types for native builds.
type NativeFeatureGenerator struct {
	customizer   string
	serviceTypes []string
}

func NewNativeFeatureGenerator(customizer string, serviceTypes []string) *NativeFeatureGenerator {
	return &NativeFeatureGenerator{customizer: customizer, serviceTypes: serviceTypes}
}

func (g *NativeFeatureGenerator) ID() string { return "native-feature" }

type nativeFeature struct {
	Package      string   `yaml:"package"`
	Customizer   string   `yaml:"customizer"`
	ServiceTypes []string `yaml:"serviceTypes"`
}

func (g *NativeFeatureGenerator) Generate(ctx *Context) (*Output, error) {
	data, err := yaml.Marshal(nativeFeature{
		Package:      ctx.Package,
		Customizer:   g.customizer,
		ServiceTypes: g.serviceTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode native feature: %w", err)
	}
	out := initCall("optim.RegisterNativeFeature", append([]ir.Expr{ir.Str(g.customizer)}, strs(g.serviceTypes)...)...)
	out.Resources = []Resource{{
		Path: path.Join("META-INF", "aot", ctx.Package, "native-feature.yaml"),
		Data: data,
	}}
	return out, nil
}
