package gen

import (
	"fmt"
	"sort"

	"aot/internal/analysis"

	"github.com/rs/zerolog"
)

// Context holds the state shared by every generator of one run. Entries are
// only ever appended: nothing a generator records is removed by a later one.
type Context struct {
	// Package is the name of the generated package
	Package string

	// Analyzer describes the application being specialized
	Analyzer analysis.Analyzer

	logger         zerolog.Logger
	categories     []string
	diagnostics    map[string][]string
	excluded       map[string]struct{}
	extraClasspath []string
	results        map[string]any
}

// NewContext creates the context of one run
func NewContext(pkg string, analyzer analysis.Analyzer, logger zerolog.Logger) *Context {
	return &Context{
		Package:     pkg,
		Analyzer:    analyzer,
		logger:      logger,
		diagnostics: make(map[string][]string),
		excluded:    make(map[string]struct{}),
		results:     make(map[string]any),
	}
}

// Logger returns the run logger
func (c *Context) Logger() *zerolog.Logger {
	return &c.logger
}

// Info records an informational diagnostic under category
func (c *Context) Info(category, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Debug().Str("category", category).Msg(msg)
	c.record(category, msg)
}

// Warn records a warning under category. Warnings never fail the run.
func (c *Context) Warn(category, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.Warn().Str("category", category).Msg(msg)
	c.record(category, msg)
}

func (c *Context) record(category, msg string) {
	if _, ok := c.diagnostics[category]; !ok {
		c.categories = append(c.categories, category)
	}
	c.diagnostics[category] = append(c.diagnostics[category], msg)
}

// Categories returns the diagnostic categories in first use order
func (c *Context) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Diagnostics returns the messages recorded under category
func (c *Context) Diagnostics(category string) []string {
	return append([]string(nil), c.diagnostics[category]...)
}

// ExcludeResource marks a resource as replaced by generated code
func (c *Context) ExcludeResource(name string) {
	c.excluded[name] = struct{}{}
}

// IsExcluded reports whether name was excluded
func (c *Context) IsExcluded(name string) bool {
	_, ok := c.excluded[name]
	return ok
}

// ExcludedResources returns the excluded resources sorted
func (c *Context) ExcludedResources() []string {
	out := make([]string, 0, len(c.excluded))
	for r := range c.excluded {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// AddClasspath contributes a compile time classpath entry
func (c *Context) AddClasspath(path string) {
	for _, p := range c.extraClasspath {
		if p == path {
			return
		}
	}
	c.extraClasspath = append(c.extraClasspath, path)
}

// ExtraClasspath returns the entries contributed by generators
func (c *Context) ExtraClasspath() []string {
	return append([]string(nil), c.extraClasspath...)
}

// Classpath returns the application classpath followed by the contributed entries
func (c *Context) Classpath() *analysis.Classpath {
	if c.Analyzer == nil || c.Analyzer.Classpath() == nil {
		return analysis.NewClasspath(c.extraClasspath...)
	}
	return c.Analyzer.Classpath().With(c.extraClasspath...)
}

// Put publishes a result for later generators
func (c *Context) Put(key string, value any) {
	c.results[key] = value
}

// Get returns a result published by an earlier generator
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.results[key]
	return v, ok
}

// ResultOf returns the result published under key if it has type T
func ResultOf[T any](c *Context, key string) (T, bool) {
	v, ok := c.results[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
