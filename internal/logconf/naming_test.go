package logconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarNamesSanitizeAndMemoize(t *testing.T) {
	names := NewVarNames()
	app := &Node{Tag: "appender", Kind: AppenderNode, Name: "My-Appender.1"}
	assert.Equal(t, "my_appender_1", names.Of(app))
	assert.Equal(t, "my_appender_1", names.Of(app))
	assert.Equal(t, 1, names.Len())

	enc := &Node{Tag: "encoder", Kind: ImplicitNode}
	assert.Equal(t, "encoder", names.Of(enc))
}

func TestVarNamesCollisionsAreInjective(t *testing.T) {
	names := NewVarNames()
	a := &Node{Tag: "appender", Kind: AppenderNode, Name: "a-b"}
	b := &Node{Tag: "appender", Kind: AppenderNode, Name: "a_b"}
	c := &Node{Tag: "appender", Kind: AppenderNode, Name: "A.B"}
	d := &Node{Tag: "appender", Kind: AppenderNode, Name: "a_b_1"}

	assert.Equal(t, "a_b", names.Of(a))
	assert.Equal(t, "a_b_1", names.Of(b))
	assert.Equal(t, "a_b_2", names.Of(c))
	// the natural name of d was already handed out as a suffixed name
	assert.Equal(t, "a_b_1_3", names.Of(d))

	seen := map[string]bool{}
	for _, n := range []*Node{a, b, c, d} {
		v := names.Of(n)
		assert.False(t, seen[v], v)
		seen[v] = true
	}
}

func TestVarNamesBumpSuffixUntilFree(t *testing.T) {
	names := NewVarNames()
	x := &Node{Tag: "x", Kind: ImplicitNode}
	x2 := &Node{Tag: "x_2", Kind: ImplicitNode}
	other := &Node{Tag: "x", Kind: ImplicitNode}

	assert.Equal(t, "x", names.Of(x))
	assert.Equal(t, "x_2", names.Of(x2))
	// table size is 2, x_2 is taken, so the suffix moves on to 3
	assert.Equal(t, "x_3", names.Of(other))
}

func TestVarNamesAvoidKeywordsAndReserved(t *testing.T) {
	names := NewVarNames()
	assert.Equal(t, "_type", names.Of(&Node{Tag: "type", Kind: ImplicitNode}))
	assert.Equal(t, "loggercontext", names.Of(&Node{Tag: "loggerContext", Kind: ImplicitNode}))
	assert.Equal(t, "_logging", names.Of(&Node{Tag: "logging", Kind: ImplicitNode}))
	assert.Equal(t, "_true", names.Of(&Node{Tag: "true", Kind: ImplicitNode}))
	assert.Equal(t, "_1st", names.Of(&Node{Tag: "appender", Kind: AppenderNode, Name: "1st"}))
	assert.Equal(t, "__", names.Of(&Node{Tag: "appender", Kind: AppenderNode, Name: "-"}))
	assert.Equal(t, RootLoggerVar, names.Of(&Node{Tag: "root", Kind: RootLoggerNode}))
}

func TestVarNamesLoggerUsesNameAttribute(t *testing.T) {
	names := NewVarNames()
	assert.Equal(t, "com_example_web", names.Of(&Node{Tag: "logger", Kind: LoggerNode, Name: "com.example.Web"}))
	assert.Equal(t, "logger", names.Of(&Node{Tag: "logger", Kind: LoggerNode}))
}
