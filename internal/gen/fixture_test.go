package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aot/internal/analysis"
	"aot/internal/gen/ir"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	codecContract = "example.com/app/codec.Codec"

	logbackXML = `<configuration>
  <root level="info">
    <appender-ref ref="STDOUT"/>
  </root>
  <appender name="STDOUT" class="ch.qos.logback.core.ConsoleAppender">
    <withJansi>true</withJansi>
    <encoder>
      <pattern>%d{HH:mm:ss.SSS} %-5level %logger{36} - %msg%n</pattern>
    </encoder>
  </appender>
</configuration>
`

	applicationYML = `server:
  port: 8080
  host: localhost
features:
  - a
  - b
ratio: 0.5
enabled: true
`

	codecSource = `package codec

type Codec interface{ Name() string }

type JSONCodec struct{}

func NewJSONCodec() *JSONCodec { return &JSONCodec{} }

func (*JSONCodec) Name() string { return "json" }

type XMLCodec struct{}

func NewXMLCodec() *XMLCodec { return &XMLCodec{} }

func (*XMLCodec) Name() string { return "xml" }

type ProdCodec struct{}

func NewProdCodec() *ProdCodec { return &ProdCodec{} }

func (*ProdCodec) Name() string { return "prod" }
`

	servicesYAML = `example.com/app/codec.Codec:
  - type: example.com/app/codec.JSONCodec
  - type: example.com/app/codec.XMLCodec
  - type: example.com/app/codec.ProdCodec
    requires:
      env: [prod]
aot/runtime/optim.PropertySourceLoader:
  - type: aot/runtime/optim.YAMLLoader
    constructor: NewYAMLLoader
`
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// newApp lays out an application module and returns its root
func newApp(t *testing.T) string {
	t.Helper()
	app := t.TempDir()
	writeFile(t, app, "go.mod", "module example.com/app\n\ngo 1.22\n")
	writeFile(t, app, "application.yml", applicationYML)
	writeFile(t, app, "logback.xml", logbackXML)
	writeFile(t, app, "static/index.html", "<html/>\n")
	writeFile(t, app, "codec/codec.go", codecSource)
	writeFile(t, app, analysis.ServicesDescriptor, servicesYAML)
	return app
}

func newTestContext(t *testing.T, envs []string, roots ...string) *Context {
	t.Helper()
	a := analysis.NewStatic(analysis.NewClasspath(roots...), envs, nil)
	return NewContext("aotgen", a, zerolog.Nop())
}

func renderFile(t *testing.T, f *SourceFile) string {
	t.Helper()
	src, err := f.Render()
	require.NoError(t, err)
	return string(src)
}

func renderStmts(stmts []ir.Stmt) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = ir.Render(s)
	}
	return out
}

// squash collapses whitespace runs so assertions ignore gofmt alignment
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fileNames(files []*SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}
