package optim

import (
	"maps"
	"slices"
)

// MapPropertySource is an immutable, named set of flattened properties
type MapPropertySource struct {
	name   string
	values map[string]any
}

// NewMapPropertySource copies values into a new property source
func NewMapPropertySource(name string, values map[string]any) *MapPropertySource {
	return &MapPropertySource{name: name, values: maps.Clone(values)}
}

// Name returns the source name, e.g. "application-dev"
func (s *MapPropertySource) Name() string {
	return s.name
}

// Get returns the value of a dotted key
func (s *MapPropertySource) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys sorted
func (s *MapPropertySource) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// AsMap returns a copy of the values
func (s *MapPropertySource) AsMap() map[string]any {
	return maps.Clone(s.values)
}

// Loader loads a named property source at startup
type Loader interface {
	Load(name string) (*MapPropertySource, bool, error)
}

// ResolvePropertySources returns the constant sources installed by generated
// code. Without them each name is loaded through the PropertySourceLoader
// services, or the YAML loader when no service table exists.
func ResolvePropertySources(names ...string) ([]*MapPropertySource, error) {
	if static := PropertySources(); len(static) > 0 {
		return static, nil
	}
	var loaders []Loader
	if HasServices(PropertySourceLoader) {
		for _, s := range Services(PropertySourceLoader) {
			if l, ok := s.(Loader); ok {
				loaders = append(loaders, l)
			}
		}
	} else {
		loaders = append(loaders, NewYAMLLoader())
	}

	var out []*MapPropertySource
	for _, name := range names {
		for _, l := range loaders {
			ps, ok, err := l.Load(name)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, ps)
			}
		}
	}
	return out, nil
}
