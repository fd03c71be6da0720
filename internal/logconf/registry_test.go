package logconf

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// typeCheck checks src as if it lived in this package directory, resolving
// aot/runtime/logging from source.
func typeCheck(t *testing.T, name string, src []byte) error {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go not on PATH")
	}
	dir, err := os.Getwd()
	require.NoError(t, err)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filepath.Join(dir, name), src, 0)
	require.NoError(t, err, "%s", src)
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err = conf.Check(f.Name.Name, fset, []*ast.File{f}, nil)
	return err
}

var kindArgs = map[ParamKind]string{
	Bool:    `bool(true)`,
	Int:     `int(1)`,
	Int8:    `int8(1)`,
	Int16:   `int16(1)`,
	Int32:   `int32(1)`,
	Int64:   `int64(1)`,
	Uint8:   `uint8(1)`,
	Float32: `float32(0.5)`,
	Float64: `float64(0.5)`,
	Rune:    `rune('|')`,
	String:  `string("x")`,
}

// exerciseRegistry renders a function that calls every constructor, method
// and capability of reg with arguments of the declared parameter types.
func exerciseRegistry(t *testing.T, reg *Registry) []byte {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("package registrycheck\n\nimport logging \"" + RuntimePackage + "\"\n\n")
	sb.WriteString("func exercise() {\n\tloggerContext := logging.NewLoggerContext()\n\t_ = loggerContext\n")

	args := 0
	for i, name := range reg.Names() {
		ct, _ := reg.Lookup(name)
		v := fmt.Sprintf("c%d", i)
		fmt.Fprintf(&sb, "\tvar %s *%s = %s()\n", v, ct.Name, ct.Constructor)
		for _, m := range ct.Methods {
			var arg string
			switch m.Param.Kind {
			case Component:
				arg = fmt.Sprintf("a%d", args)
				if m.Param.Default != "" {
					def, ok := reg.Lookup(m.Param.Default)
					require.True(t, ok, "%s.%s default %s", ct.Name, m.Name, m.Param.Default)
					fmt.Fprintf(&sb, "\tvar %s %s = %s()\n", arg, m.Param.TypeName, def.Constructor)
				} else {
					fmt.Fprintf(&sb, "\tvar %s %s\n", arg, m.Param.TypeName)
				}
			case Value:
				require.NotEmpty(t, m.Param.Factory, "%s.%s", ct.Name, m.Name)
				arg = fmt.Sprintf("a%d", args)
				fmt.Fprintf(&sb, "\tvar %s %s = %s(\"1\")\n", arg, m.Param.TypeName, m.Param.Factory)
			default:
				var ok bool
				arg, ok = kindArgs[m.Param.Kind]
				require.True(t, ok, "%s.%s kind %d", ct.Name, m.Name, m.Param.Kind)
			}
			args++
			fmt.Fprintf(&sb, "\t%s.%s(%s)\n", v, m.Name, arg)
		}
		if ct.ContextAware {
			fmt.Fprintf(&sb, "\t%s.SetContext(loggerContext)\n", v)
		}
		if ct.LifeCycle {
			fmt.Fprintf(&sb, "\t%s.Start()\n", v)
		}
	}
	sb.WriteString("}\n")
	return []byte(sb.String())
}

func TestDefaultRegistryMatchesRuntime(t *testing.T) {
	src := exerciseRegistry(t, DefaultRegistry())
	assert.NoError(t, typeCheck(t, "registry_check.go", src), "%s", src)
}

func TestRegistryDriftIsDetected(t *testing.T) {
	reg := NewRegistry().MustRegister(&ComponentType{
		Name:        "logging.ConsoleAppender",
		Constructor: "logging.NewConsoleAppender",
		Methods: []Method{
			set("target", Param{Kind: Int}),
			set("colorScheme", Param{Kind: String}),
		},
	})
	err := typeCheck(t, "registry_check.go", exerciseRegistry(t, reg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SetTarget")
}

func TestRegistryLookups(t *testing.T) {
	reg := DefaultRegistry()

	ct, ok := reg.Lookup("ch.qos.logback.core.ConsoleAppender")
	require.True(t, ok)
	assert.Equal(t, "logging.ConsoleAppender", ct.Name)

	m, ok := ct.Setter("ENCODER")
	require.True(t, ok)
	assert.Equal(t, "SetEncoder", m.Name)
	assert.Equal(t, "logging.PatternLayoutEncoder", m.Param.Default)

	m, ok = ct.Adder("filter")
	require.True(t, ok)
	assert.Equal(t, "AddFilter", m.Name)
	_, ok = ct.Setter("filter")
	assert.False(t, ok)

	p, ok := reg.ImportPath("logging.NewConsoleAppender")
	require.True(t, ok)
	assert.Equal(t, RuntimePackage, p)
	_, ok = reg.ImportPath("Unqualified")
	assert.False(t, ok)

	assert.Error(t, reg.Register(&ComponentType{Name: "logging.ConsoleAppender", Constructor: "logging.NewConsoleAppender"}))
	assert.Error(t, NewRegistry().Register(&ComponentType{Name: "x.Thing", Constructor: "x.NewThing"}))
}
