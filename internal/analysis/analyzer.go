// Package analysis exposes what the pipeline knows about the application being
// specialized: its classpath, its active environments and its environment
// variables.
package analysis

import (
	"slices"
	"strings"
)

// Requirements are the static conditions an implementation declares
type Requirements struct {
	Env    []string `yaml:"env"`
	NotEnv []string `yaml:"notEnv"`
	Types  []string `yaml:"types"`
}

// Predicate decides whether an implementation is eligible
type Predicate func(Requirements) bool

// AcceptAll is the predicate used when requirements are not prechecked
func AcceptAll(Requirements) bool { return true }

// Analyzer is the view of the application the generators consume
type Analyzer interface {
	EnvironmentNames() []string
	Predicate() Predicate
	Classpath() *Classpath
	EnvironmentVariables() []string
}

// Static is an Analyzer over fixed inputs
type Static struct {
	classpath *Classpath
	envs      []string
	vars      []string
}

// NewStatic creates an analyzer. Environment names are deduplicated keeping
// their first position.
func NewStatic(cp *Classpath, envs, vars []string) *Static {
	s := &Static{classpath: cp, vars: slices.Clone(vars)}
	for _, e := range envs {
		e = strings.TrimSpace(e)
		if e != "" && !slices.Contains(s.envs, e) {
			s.envs = append(s.envs, e)
		}
	}
	return s
}

func (s *Static) EnvironmentNames() []string     { return slices.Clone(s.envs) }
func (s *Static) Classpath() *Classpath          { return s.classpath }
func (s *Static) EnvironmentVariables() []string { return slices.Clone(s.vars) }

// Predicate accepts implementations whose required environments are all
// active, whose excluded environments are all inactive and whose required
// types are present on the classpath.
func (s *Static) Predicate() Predicate {
	return func(r Requirements) bool {
		for _, e := range r.Env {
			if !slices.Contains(s.envs, e) {
				return false
			}
		}
		for _, e := range r.NotEnv {
			if slices.Contains(s.envs, e) {
				return false
			}
		}
		for _, t := range r.Types {
			if s.classpath == nil || !s.classpath.HasType(t) {
				return false
			}
		}
		return true
	}
}
