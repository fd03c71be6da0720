package gen

import (
	"testing"

	"aot/internal/analysis"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPropertyNames(t *testing.T) {
	tests := []struct {
		variable string
		want     []string
	}{
		{"HOME", []string{"home"}},
		{"SERVER_PORT", []string{"server.port", "server-port"}},
		{"A_B_C", []string{"a.b.c", "a.b-c", "a-b.c", "a-b-c"}},
		{"A_B_C_D_E_F_G", []string{"a.b.c.d.e.f.g"}},
		{"__", nil},
	}
	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			assert.Equal(t, tt.want, PropertyNames(tt.variable))
		})
	}
	assert.Len(t, PropertyNames("A_B_C_D_E_F"), 32)
}

func TestMissingTypesGenerator(t *testing.T) {
	app := newApp(t)
	ctx := newTestContext(t, nil, app)

	out, err := NewMissingTypesGenerator([]string{
		"example.com/app/codec.JSONCodec",
		"example.com/missing.Type",
	}).Generate(ctx)
	require.NoError(t, err)
	assert.Empty(t, out.Files)
	assert.Equal(t, []string{`optim.SetMissingTypes("example.com/missing.Type")`}, renderStmts(out.Init))
	assert.Equal(t, []string{optimPackage}, out.InitImports.Paths())
	assert.Equal(t, []string{"example.com/missing.Type is missing from the classpath"},
		ctx.Diagnostics("known-missing-types"))
}

func TestEnvironmentPropertiesGenerator(t *testing.T) {
	a := analysis.NewStatic(nil, nil, []string{"SERVER_PORT", "HOME", "HOME"})
	ctx := NewContext("aotgen", a, zerolog.Nop())

	out, err := NewEnvironmentPropertiesGenerator().Generate(ctx)
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "environment_properties.go", out.Files[0].Name)
	assert.Equal(t, []string{`optim.SetEnvironmentProperties(environmentProperties())`}, renderStmts(out.Init))

	src := squash(renderFile(t, out.Files[0]))
	assert.Contains(t, src, `func environmentProperties() map[string][]string {`)
	assert.Contains(t, src, `"HOME": []string{"home"}, "SERVER_PORT": []string{"server.port", "server-port"},`)
	assert.Equal(t, []string{"Precomputed 2 environment variables"}, ctx.Diagnostics("environment-properties"))
}

func TestPublishersGenerator(t *testing.T) {
	app := newApp(t)
	ctx := newTestContext(t, nil, app)

	out, err := NewPublishersGenerator([]string{
		"example.com/app/codec.Codec",
		"github.com/reactivex/rxgo/v2.Observable",
	}).Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`optim.SetPublisherTypes("example.com/app/codec.Codec")`}, renderStmts(out.Init))

	out, err = NewPublishersGenerator(nil).Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`optim.SetPublisherTypes()`}, renderStmts(out.Init))
}

func TestCachedEnvironmentGenerator(t *testing.T) {
	out, err := NewCachedEnvironmentGenerator().Generate(newTestContext(t, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{`optim.SealEnvironment()`}, renderStmts(out.Init))
}

func TestConstantPropertySourcesGenerator(t *testing.T) {
	t.Run("requires the service loader", func(t *testing.T) {
		_, err := NewConstantPropertySourcesGenerator(nil).Generate(newTestContext(t, nil))
		assert.ErrorIs(t, err, ErrNoServiceLoaderResult)
	})

	t.Run("reads the context result", func(t *testing.T) {
		ctx := newTestContext(t, nil)
		ctx.Put(ServiceLoaderResultKey, &ServiceLoaderResult{PropertySources: []string{"a", "b"}})

		out, err := NewConstantPropertySourcesGenerator(nil).Generate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{`optim.SetPropertySources(a(), b())`}, renderStmts(out.Init))
	})

	t.Run("nothing to install", func(t *testing.T) {
		ctx := newTestContext(t, nil)
		ctx.Put(ServiceLoaderResultKey, &ServiceLoaderResult{})

		out, err := NewConstantPropertySourcesGenerator(nil).Generate(ctx)
		require.NoError(t, err)
		assert.Empty(t, out.Init)
		assert.Equal(t, []string{"No constant property sources"}, ctx.Diagnostics("constant-property-sources"))
	})

	t.Run("uses the functions emitted by the YAML substitute", func(t *testing.T) {
		app := newApp(t)
		ctx := newTestContext(t, nil, app)
		loader := NewServiceLoaderGenerator(JIT, nil, []string{"aot/runtime/optim.PropertySourceLoader"}, nil,
			map[string]SourceGenerator{
				"aot/runtime/optim.YAMLLoader": NewYamlPropertySourceGenerator([]string{"application"}),
			})
		constants := NewConstantPropertySourcesGenerator(loader)

		_, err := constants.Generate(ctx)
		require.ErrorIs(t, err, ErrNoServiceLoaderResult)

		_, err = loader.Generate(ctx)
		require.NoError(t, err)
		out, err := constants.Generate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{`optim.SetPropertySources(applicationPropertySource())`}, renderStmts(out.Init))
	})
}

func TestNativeFeatureGenerator(t *testing.T) {
	ctx := newTestContext(t, nil)
	out, err := NewNativeFeatureGenerator(CustomizerTypeName, []string{codecContract}).Generate(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`optim.RegisterNativeFeature("AOTApplicationContextCustomizer", "example.com/app/codec.Codec")`,
	}, renderStmts(out.Init))
	require.Len(t, out.Resources, 1)
	assert.Equal(t, "META-INF/aot/aotgen/native-feature.yaml", out.Resources[0].Path)

	var feature nativeFeature
	require.NoError(t, yaml.Unmarshal(out.Resources[0].Data, &feature))
	assert.Equal(t, nativeFeature{
		Package:      "aotgen",
		Customizer:   CustomizerTypeName,
		ServiceTypes: []string{codecContract},
	}, feature)
}
