package logconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuildsTree(t *testing.T) {
	root, err := Load(strings.NewReader(consoleConfig), DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, ConfigurationNode, root.Kind)
	require.Len(t, root.Children, 2)

	rootLogger := root.Children[0]
	assert.Equal(t, RootLoggerNode, rootLogger.Kind)
	assert.Equal(t, "info", rootLogger.Level)
	require.Len(t, rootLogger.Children, 1)
	assert.Equal(t, AppenderRefNode, rootLogger.Children[0].Kind)
	assert.Equal(t, "STDOUT", rootLogger.Children[0].Ref)
	assert.Nil(t, rootLogger.Body)

	app := root.Children[1]
	assert.Equal(t, AppenderNode, app.Kind)
	assert.Equal(t, "STDOUT", app.Name)
	assert.Equal(t, "ch.qos.logback.core.ConsoleAppender", app.Class)
	require.Len(t, app.Children, 2)

	jansi := app.Children[0]
	assert.Equal(t, ImplicitNode, jansi.Kind)
	assert.Empty(t, jansi.Class)
	require.NotNil(t, jansi.Body)
	assert.Equal(t, "true", *jansi.Body)

	enc := app.Children[1]
	assert.Equal(t, "logging.PatternLayoutEncoder", enc.Class)
	assert.Nil(t, enc.Body)
	require.Len(t, enc.Children, 1)
	assert.Equal(t, "%d{HH:mm:ss.SSS} %-5level %logger{36} - %msg%n", *enc.Children[0].Body)
}

func TestLoadDefaultClassNotAppliedToText(t *testing.T) {
	root, err := Load(strings.NewReader(`<configuration>
  <appender name="A" class="logging.ConsoleAppender"><encoder>  </encoder></appender>
  <appender name="B" class="logging.ConsoleAppender"><encoder>oops</encoder></appender>
</configuration>`), DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, "logging.PatternLayoutEncoder", root.Children[0].Children[0].Class)
	assert.Nil(t, root.Children[0].Children[0].Body)

	withText := root.Children[1].Children[0]
	assert.Empty(t, withText.Class)
	require.NotNil(t, withText.Body)
	assert.Equal(t, "oops", *withText.Body)
}

func TestLoadRejectsForeignRoot(t *testing.T) {
	_, err := Load(strings.NewReader(`<beans/>`), DefaultRegistry())
	require.ErrorIs(t, err, ErrUnsupportedConstruct)

	_, err = Load(strings.NewReader(``), DefaultRegistry())
	require.ErrorIs(t, err, ErrUnsupportedConstruct)

	_, err = Load(strings.NewReader(`<configuration><root>`), DefaultRegistry())
	require.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "logback.xml"), DefaultRegistry())
	require.ErrorIs(t, err, ErrMissingResource)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logback.xml")
	require.NoError(t, os.WriteFile(path, []byte(consoleConfig), 0o644))
	root, err := LoadFile(path, DefaultRegistry())
	require.NoError(t, err)
	assert.Len(t, root.Children, 2)
}
