package gen

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"aot/internal/gen/ir"
	"aot/runtime/optim"
)

// YamlPropertySourceGenerator turns YAML configuration resources into
// constant property sources.
type YamlPropertySourceGenerator struct {
	resources []string
	funcs     []string
}

// NewYamlPropertySourceGenerator creates a generator for resource base names
// such as "application" or "application-prod".
func NewYamlPropertySourceGenerator(resources []string) *YamlPropertySourceGenerator {
	return &YamlPropertySourceGenerator{resources: resources}
}

func (g *YamlPropertySourceGenerator) ID() string { return "yaml-property-sources" }

// PropertySourceFuncs returns the functions emitted by the last Generate call
func (g *YamlPropertySourceGenerator) PropertySourceFuncs() []string {
	return append([]string(nil), g.funcs...)
}

func (g *YamlPropertySourceGenerator) Generate(ctx *Context) (*Output, error) {
	g.funcs = nil
	out := &Output{}

	for _, resource := range g.resources {
		file, data, ok := findYAML(ctx, resource)
		if !ok {
			continue
		}
		ctx.Logger().Info().Msgf("Converting %s into Go based configuration", file)
		values, err := optim.DecodeYAML(data)
		if errors.Is(err, optim.ErrUnsupportedValue) {
			return nil, fmt.Errorf("%s: %w: %v", file, ErrUnsupportedConstruct, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		fn := camel(resource) + "PropertySource"
		entries, err := propertyEntries(values)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		fb := newFile(ctx).Import(optimPackage)
		fb.AddDecl(ir.NewFunc(fn).
			Doc("%s holds the properties of %s", fn, file).
			Returns("*optim.MapPropertySource").
			Body(ir.Return(ir.Call("optim.NewMapPropertySource",
				ir.Str(resource), ir.CompositeLines("map[string]any", entries...)))).
			Build())

		out.Files = append(out.Files, sourceFile(ctx, snake(resource)+"_property_source.go", fb))
		g.funcs = append(g.funcs, fn)
		ctx.ExcludeResource(file)
		ctx.Info(g.ID(), "Converted %s into %s with %d properties", file, fn, len(values))
	}
	return out, nil
}

func findYAML(ctx *Context, resource string) (string, []byte, bool) {
	cp := ctx.Classpath()
	for _, ext := range []string{".yml", ".yaml"} {
		name := resource + ext
		if data, err := cp.ReadResource(name); err == nil {
			return name, data, true
		}
	}
	return "", nil, false
}

func propertyEntries(values map[string]any) ([]ir.Expr, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]ir.Expr, 0, len(keys))
	for _, k := range keys {
		v, err := literal(values[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		entries = append(entries, ir.KV(ir.Str(k), v))
	}
	return entries, nil
}

// literal renders a flattened property value as a Go expression
func literal(v any) (ir.Expr, error) {
	switch x := v.(type) {
	case nil:
		return ir.Nil(), nil
	case string:
		return ir.Str(x), nil
	case bool:
		return ir.Bool(x), nil
	case int:
		return ir.Int(int64(x)), nil
	case int64:
		return ir.Call("int64", ir.Int(x)), nil
	case uint64:
		return ir.Call("uint64", ir.Uint(x)), nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("%w: non finite number %v", ErrUnsupportedConstruct, x)
		}
		return ir.Float(x), nil
	case []any:
		elems := make([]ir.Expr, len(x))
		for i, e := range x {
			l, err := literal(e)
			if err != nil {
				return nil, err
			}
			elems[i] = l
		}
		return ir.Composite("[]any", elems...), nil
	case map[string]any:
		entries, err := propertyEntries(x)
		if err != nil {
			return nil, err
		}
		return ir.Composite("map[string]any", entries...), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedConstruct, v)
}
