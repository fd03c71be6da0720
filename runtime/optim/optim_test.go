package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
}

type countingCustomizer struct {
	calls *int
}

func (c countingCustomizer) Customize() { *c.calls++ }

func TestApplyRunsCustomizersInOrder(t *testing.T) {
	reset(t)
	var first, second int
	RegisterCustomizer(countingCustomizer{&first})
	RegisterCustomizer(countingCustomizer{&second})

	Apply()
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Len(t, Customizers(), 2)
}

func TestLazyServiceIsBuiltOnce(t *testing.T) {
	reset(t)
	built := 0
	LazyService("c", "impl", func() any {
		built++
		return &built
	})
	assert.Equal(t, 0, built)

	first := Services("c")
	second := Services("c")
	require.Len(t, first, 1)
	assert.Same(t, first[0], second[0])
	assert.Equal(t, 1, built)
}

func TestEagerServiceKeepsRegistrationOrder(t *testing.T) {
	reset(t)
	EagerService("c", "a", "first")
	LazyService("c", "b", func() any { return "second" })
	LazyService("c", "nil", func() any { return nil })

	assert.True(t, HasServices("c"))
	assert.False(t, HasServices("other"))
	assert.Equal(t, []string{"a", "b", "nil"}, ServiceNames("c"))
	assert.Equal(t, []any{"first", "second"}, Services("c"))
	assert.Equal(t, []string{"c"}, ServiceContracts())
}

func TestStaticOptimizations(t *testing.T) {
	reset(t)
	SetMissingTypes("example.com/a.Missing")
	SetPublisherTypes("example.com/rx.Observable")
	SetEnvironmentProperties(map[string][]string{"SERVER_PORT": {"server.port", "server-port"}})
	SealEnvironment()
	RegisterNativeFeature("Customizer", "c1", "c2")

	assert.True(t, IsMissingType("example.com/a.Missing"))
	assert.False(t, IsMissingType("example.com/a.Present"))
	assert.Equal(t, []string{"example.com/rx.Observable"}, PublisherTypes())
	names, ok := EnvironmentProperties("SERVER_PORT")
	assert.True(t, ok)
	assert.Equal(t, []string{"server.port", "server-port"}, names)
	_, ok = EnvironmentProperties("HOME")
	assert.False(t, ok)
	assert.True(t, EnvironmentSealed())
	customizer, services := NativeFeature()
	assert.Equal(t, "Customizer", customizer)
	assert.Equal(t, []string{"c1", "c2"}, services)

	Reset()
	assert.False(t, IsMissingType("example.com/a.Missing"))
	assert.Empty(t, PublisherTypes())
	assert.False(t, EnvironmentSealed())
	assert.Empty(t, ServiceContracts())
}
