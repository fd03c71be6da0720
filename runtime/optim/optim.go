// Package optim holds the static optimizations registered by generated code.
//
// Generated customizers call into this package from their init functions; the
// application reads the precomputed values back instead of computing them at
// startup.
package optim

import (
	"slices"
	"sort"
	"sync"
)

// Customizer is implemented by generated application context customizers
type Customizer interface {
	Customize()
}

var (
	mu              sync.RWMutex
	customizers     []Customizer
	services        = make(map[string][]*serviceEntry)
	propertySources []*MapPropertySource
	missingTypes    = make(map[string]struct{})
	publisherTypes  []string
	envProperties   map[string][]string
	sealed          bool
	nativeFeature   string
	nativeServices  []string
)

// RegisterCustomizer registers a customizer. Apply runs them in registration order.
func RegisterCustomizer(c Customizer) {
	mu.Lock()
	defer mu.Unlock()
	customizers = append(customizers, c)
}

// Customizers returns the registered customizers
func Customizers() []Customizer {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(customizers)
}

// Apply runs every registered customizer once
func Apply() {
	for _, c := range Customizers() {
		c.Customize()
	}
}

// SetMissingTypes records type names known to be absent at build time
func SetMissingTypes(names ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, n := range names {
		missingTypes[n] = struct{}{}
	}
}

// IsMissingType reports whether name was recorded as missing at build time
func IsMissingType(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := missingTypes[name]
	return ok
}

// SetPublisherTypes records the reactive publisher types found at build time
func SetPublisherTypes(names ...string) {
	mu.Lock()
	defer mu.Unlock()
	publisherTypes = slices.Clone(names)
}

// PublisherTypes returns the recorded publisher types
func PublisherTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(publisherTypes)
}

// SetEnvironmentProperties records, per environment variable name, the
// property names it maps to.
func SetEnvironmentProperties(m map[string][]string) {
	mu.Lock()
	defer mu.Unlock()
	envProperties = m
}

// EnvironmentProperties returns the precomputed property names for an
// environment variable, and whether the variable was known at build time.
func EnvironmentProperties(variable string) ([]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	names, ok := envProperties[variable]
	return slices.Clone(names), ok
}

// SealEnvironment marks the environment as immutable so that it can be cached
func SealEnvironment() {
	mu.Lock()
	defer mu.Unlock()
	sealed = true
}

// EnvironmentSealed reports whether SealEnvironment was called
func EnvironmentSealed() bool {
	mu.RLock()
	defer mu.RUnlock()
	return sealed
}

// RegisterNativeFeature records the customizer and the service contracts that
// must be retained in a fully native build.
func RegisterNativeFeature(customizer string, serviceTypes ...string) {
	mu.Lock()
	defer mu.Unlock()
	nativeFeature = customizer
	nativeServices = slices.Clone(serviceTypes)
}

// NativeFeature returns what RegisterNativeFeature recorded
func NativeFeature() (string, []string) {
	mu.RLock()
	defer mu.RUnlock()
	return nativeFeature, slices.Clone(nativeServices)
}

// SetPropertySources replaces the static property sources
func SetPropertySources(sources ...*MapPropertySource) {
	mu.Lock()
	defer mu.Unlock()
	propertySources = slices.Clone(sources)
}

// PropertySources returns the static property sources in registration order
func PropertySources() []*MapPropertySource {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(propertySources)
}

// Reset clears every registered optimization
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	customizers = nil
	services = make(map[string][]*serviceEntry)
	propertySources = nil
	missingTypes = make(map[string]struct{})
	publisherTypes = nil
	envProperties = nil
	sealed = false
	nativeFeature = ""
	nativeServices = nil
}

// ServiceContracts lists the contracts that have a static service table, sorted
func ServiceContracts() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(services))
	for k := range services {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
