package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticDeduplicatesEnvironments(t *testing.T) {
	s := NewStatic(nil, []string{"prod", " ", "cloud", "prod"}, []string{"HOME"})
	assert.Equal(t, []string{"prod", "cloud"}, s.EnvironmentNames())
	assert.Equal(t, []string{"HOME"}, s.EnvironmentVariables())
}

func TestStaticPredicate(t *testing.T) {
	app, lib := fixture(t)
	s := NewStatic(NewClasspath(app, lib), []string{"prod"}, nil)
	accept := s.Predicate()

	assert.True(t, accept(Requirements{}))
	assert.True(t, accept(Requirements{Env: []string{"prod"}}))
	assert.False(t, accept(Requirements{Env: []string{"prod", "test"}}))
	assert.False(t, accept(Requirements{NotEnv: []string{"prod"}}))
	assert.True(t, accept(Requirements{NotEnv: []string{"test"}}))
	assert.True(t, accept(Requirements{Types: []string{"example.com/lib/codec.Codec"}}))
	assert.False(t, accept(Requirements{Types: []string{"example.com/lib/codec.Missing"}}))

	noClasspath := NewStatic(nil, nil, nil).Predicate()
	assert.False(t, noClasspath(Requirements{Types: []string{"example.com/lib/codec.Codec"}}))
	assert.True(t, AcceptAll(Requirements{Env: []string{"anything"}}))
}
