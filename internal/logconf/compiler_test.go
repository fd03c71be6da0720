package logconf

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aot/internal/gen/ir"
)

const consoleConfig = `<configuration>
  <root level="info">
    <appender-ref ref="STDOUT"/>
  </root>
  <appender name="STDOUT" class="ch.qos.logback.core.ConsoleAppender">
    <withJansi>true</withJansi>
    <encoder>
      <pattern>%d{HH:mm:ss.SSS} %-5level %logger{36} - %msg%n</pattern>
    </encoder>
  </appender>
</configuration>`

func render(stmts []ir.Stmt) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = ir.Render(s)
	}
	return out
}

func compileXML(t *testing.T, doc string, reg *Registry) *Program {
	t.Helper()
	root, err := Load(strings.NewReader(doc), reg)
	require.NoError(t, err)
	prog, err := Compile(root, reg)
	require.NoError(t, err)
	return prog
}

func TestCompileConsoleConfiguration(t *testing.T) {
	prog := compileXML(t, consoleConfig, DefaultRegistry())

	want := []string{
		`_rootLogger := loggerContext.Logger(logging.RootLoggerName)`,
		`_rootLogger.SetLevel(logging.InfoLevel)`,
		`stdout := logging.NewConsoleAppender()`,
		`stdout.SetName("STDOUT")`,
		`encoder := logging.NewPatternLayoutEncoder()`,
		`encoder.SetPattern("%d{HH:mm:ss.SSS} %-5level %logger{36} - %msg%n")`,
		`encoder.SetContext(loggerContext)`,
		`encoder.Start()`,
		`stdout.SetEncoder(encoder)`,
		`stdout.SetContext(loggerContext)`,
		`stdout.Start()`,
		`_rootLogger.AddAppender(stdout)`,
	}
	if diff := cmp.Diff(want, render(prog.Stmts)); diff != "" {
		t.Fatalf("statements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{RuntimePackage}, prog.Imports.Paths())
	require.Len(t, prog.Warnings, 1)
	assert.Contains(t, prog.Warnings[0], `"withJansi"`)
}

func TestRootLoggerOrdering(t *testing.T) {
	prog := compileXML(t, consoleConfig, DefaultRegistry())
	stmts := render(prog.Stmts)

	index := func(s string) int {
		for i, st := range stmts {
			if st == s {
				return i
			}
		}
		t.Fatalf("statement %q not found", s)
		return -1
	}
	decl := index(`_rootLogger := loggerContext.Logger(logging.RootLoggerName)`)
	level := index(`_rootLogger.SetLevel(logging.InfoLevel)`)
	app := index(`stdout := logging.NewConsoleAppender()`)
	attach := index(`_rootLogger.AddAppender(stdout)`)
	assert.Less(t, decl, level)
	assert.Less(t, app, attach)

	attaches, last := 0, -1
	for i, st := range stmts {
		if strings.HasPrefix(st, "_rootLogger.AddAppender(") {
			attaches++
		}
		if strings.Contains(st, "_rootLogger") {
			last = i
		}
	}
	assert.Equal(t, 1, attaches)
	assert.Equal(t, attach, last)
}

func TestCompileIsDeterministic(t *testing.T) {
	doc := `<configuration>
  <logger name="io.netty" level="warn" additivity="false">
    <appender-ref ref="FILE"/>
    <appender-ref ref="CONSOLE"/>
  </logger>
  <root level="debug">
    <appender-ref ref="CONSOLE"/>
    <appender-ref ref="FILE"/>
    <appender-ref ref="CONSOLE"/>
  </root>
  <appender name="CONSOLE" class="logging.ConsoleAppender">
    <encoder class="logging.JSONEncoder"/>
  </appender>
  <appender name="FILE" class="logging.FileAppender">
    <file>build/app.log</file>
    <append>false</append>
    <encoder><pattern>%msg%n</pattern></encoder>
  </appender>
</configuration>`

	first := render(compileXML(t, doc, DefaultRegistry()).Stmts)
	for i := 0; i < 5; i++ {
		again := render(compileXML(t, doc, DefaultRegistry()).Stmts)
		require.Empty(t, cmp.Diff(first, again))
	}

	assert.Contains(t, first, `io_netty := loggerContext.Logger("io.netty")`)
	assert.Contains(t, first, `io_netty.SetLevel(logging.WarnLevel)`)
	assert.Contains(t, first, `io_netty.SetAdditive(false)`)
	assert.Contains(t, first, `file.SetAppend(false)`)

	n := len(first)
	assert.Equal(t, []string{
		`io_netty.AddAppender(file)`,
		`io_netty.AddAppender(console)`,
		`_rootLogger.AddAppender(console)`,
		`_rootLogger.AddAppender(file)`,
	}, first[n-4:])
}

func TestComponentWithoutLifecycleIsStillWired(t *testing.T) {
	doc := `<configuration>
  <appender name="JSON" class="logging.ConsoleAppender">
    <encoder class="logging.JSONEncoder">
      <includeLoggerName>false</includeLoggerName>
    </encoder>
  </appender>
</configuration>`
	got := render(compileXML(t, doc, DefaultRegistry()).Stmts)
	want := []string{
		`json := logging.NewConsoleAppender()`,
		`json.SetName("JSON")`,
		`encoder := logging.NewJSONEncoder()`,
		`encoder.SetIncludeLoggerName(false)`,
		`json.SetEncoder(encoder)`,
		`json.SetContext(loggerContext)`,
		`json.Start()`,
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestFiltersUseAdderAndValueFactories(t *testing.T) {
	doc := `<configuration>
  <appender name="err" class="logging.RollingFileAppender">
    <file>logs/app.log</file>
    <filter class="ch.qos.logback.classic.filter.LevelFilter">
      <level>ERROR</level>
      <onMatch>ACCEPT</onMatch>
      <onMismatch>DENY</onMismatch>
    </filter>
    <rollingPolicy>
      <fileNamePattern>logs/app.%i.log</fileNamePattern>
      <maxFileSize>10MB</maxFileSize>
      <maxHistory>3</maxHistory>
    </rollingPolicy>
    <encoder class="logging.DelimitedEncoder">
      <delimiter>|</delimiter>
    </encoder>
  </appender>
</configuration>`
	got := render(compileXML(t, doc, DefaultRegistry()).Stmts)

	assert.Contains(t, got, `filter := logging.NewLevelFilter()`)
	assert.Contains(t, got, `filter.SetOnMatch(logging.MustParseFilterReply("ACCEPT"))`)
	assert.Contains(t, got, `err.AddFilter(filter)`)
	assert.Contains(t, got, `rollingpolicy := logging.NewSizeBasedRollingPolicy()`)
	assert.Contains(t, got, `rollingpolicy.SetMaxFileSize(logging.MustParseFileSize("10MB"))`)
	assert.Contains(t, got, `rollingpolicy.SetMaxHistory(3)`)
	assert.Contains(t, got, `err.SetRollingPolicy(rollingpolicy)`)
	assert.Contains(t, got, `encoder.SetDelimiter('|')`)
	assert.Contains(t, got, `err.SetEncoder(encoder)`)
}

func probeRegistry() *Registry {
	return NewRegistry().MustRegister(
		&ComponentType{
			Name:        "logging.Probe",
			Constructor: "logging.NewProbe",
			Methods: []Method{
				set("timeout", Param{Kind: Int}),
				set("enabled", Param{Kind: Bool}),
				set("ratio", Param{Kind: Float32}),
				set("weight", Param{Kind: Float64}),
				set("small", Param{Kind: Int8}),
				set("octet", Param{Kind: Uint8}),
				set("sep", Param{Kind: Rune}),
				set("size", fileSize()),
				set("zone", Param{Kind: Value, TypeName: "time.Location"}),
				add("child", Param{Kind: Component, TypeName: "logging.Probe"}),
			},
		},
	)
}

func probeDoc(body string) string {
	return `<configuration><probe class="logging.Probe">` + body + `</probe></configuration>`
}

func TestCoercion(t *testing.T) {
	got := render(compileXML(t, probeDoc(`
  <timeout>5000</timeout>
  <enabled>TRUE</enabled>
  <ratio>0.5</ratio>
  <weight>2</weight>
  <small>-8</small>
  <octet>255</octet>
  <sep>;x</sep>
  <size>512KB</size>
  <unknownThing>1</unknownThing>`), probeRegistry()).Stmts)

	want := []string{
		`probe := logging.NewProbe()`,
		`probe.SetTimeout(5000)`,
		`probe.SetEnabled(true)`,
		`probe.SetRatio(0.5)`,
		`probe.SetWeight(2.0)`,
		`probe.SetSmall(-8)`,
		`probe.SetOctet(255)`,
		`probe.SetSep(';')`,
		`probe.SetSize(logging.MustParseFileSize("512KB"))`,
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestUnmatchedPropertyIsSkippedWithWarning(t *testing.T) {
	prog := compileXML(t, probeDoc(`<colour>red</colour>`), probeRegistry())
	assert.Equal(t, []string{`probe := logging.NewProbe()`, `_ = probe`}, render(prog.Stmts))
	require.Len(t, prog.Warnings, 2)
	assert.Contains(t, prog.Warnings[0], "colour")
	assert.Contains(t, prog.Warnings[1], "outside of a component")
}

func TestCoercionFailures(t *testing.T) {
	reg := probeRegistry()
	cases := map[string]string{
		"int8 overflow":      `<small>300</small>`,
		"not an integer":     `<timeout>soon</timeout>`,
		"no factory":         `<zone>UTC</zone>`,
		"factory rejects":    `<size>huge</size>`,
		"text for component": `<child>x</child>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			root, err := Load(strings.NewReader(probeDoc(body)), reg)
			require.NoError(t, err)
			_, err = Compile(root, reg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedConstruct), err.Error())
		})
	}
}

func TestUnknownClassIsFatal(t *testing.T) {
	root, err := Load(strings.NewReader(`<configuration>
  <appender name="X" class="com.example.Nope"/>
</configuration>`), DefaultRegistry())
	require.NoError(t, err)
	_, err = Compile(root, DefaultRegistry())
	require.ErrorIs(t, err, ErrReflectiveResolution)
	assert.Contains(t, err.Error(), "com.example.Nope")
	assert.Contains(t, err.Error(), "line 2")
}

func TestUnknownAppenderRefWarns(t *testing.T) {
	prog := compileXML(t, `<configuration>
  <root><appender-ref ref="MISSING"/></root>
</configuration>`, DefaultRegistry())
	assert.Equal(t, []string{
		`_rootLogger := loggerContext.Logger(logging.RootLoggerName)`,
		`_ = _rootLogger`,
	}, render(prog.Stmts))
	require.Len(t, prog.Warnings, 1)
	assert.Contains(t, prog.Warnings[0], "MISSING")
}

func TestTreesCompileConcurrently(t *testing.T) {
	reg := DefaultRegistry()
	want := render(compileXML(t, consoleConfig, reg).Stmts)

	done := make(chan []string)
	for i := 0; i < 8; i++ {
		go func() {
			root, err := Load(strings.NewReader(consoleConfig), reg)
			if err != nil {
				done <- nil
				return
			}
			prog, err := Compile(root, reg)
			if err != nil {
				done <- nil
				return
			}
			done <- render(prog.Stmts)
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}
