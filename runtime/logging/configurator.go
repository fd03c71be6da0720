package logging

import "sync"

// Configurator builds the logger graph of a context
type Configurator interface {
	Configure(loggerContext *LoggerContext)
}

var (
	configuratorMu sync.RWMutex
	static         Configurator
)

// SetStaticConfigurator installs a configurator that replaces XML configuration
func SetStaticConfigurator(c Configurator) {
	configuratorMu.Lock()
	defer configuratorMu.Unlock()
	static = c
}

// StaticConfigurator returns the installed configurator, or nil
func StaticConfigurator() Configurator {
	configuratorMu.RLock()
	defer configuratorMu.RUnlock()
	return static
}

// Configure applies the static configurator to ctx and reports whether one was installed
func Configure(ctx *LoggerContext) bool {
	c := StaticConfigurator()
	if c == nil {
		return false
	}
	c.Configure(ctx)
	return true
}
