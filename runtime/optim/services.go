package optim

import "sync"

// PropertySourceLoader is the service contract for dynamic property source loaders
const PropertySourceLoader = "aot/runtime/optim.PropertySourceLoader"

// YamlPropertySourceLoader names the dynamic YAML loader implementation. Build
// time generators substitute it with constant property sources.
const YamlPropertySourceLoader = "aot/runtime/optim.YAMLLoader"

type serviceEntry struct {
	name     string
	factory  func() any
	once     sync.Once
	instance any
}

func (e *serviceEntry) get() any {
	e.once.Do(func() {
		if e.factory != nil {
			e.instance = e.factory()
		}
	})
	return e.instance
}

// LazyService registers an implementation of contract that is instantiated on
// first lookup.
func LazyService(contract, name string, factory func() any) {
	mu.Lock()
	defer mu.Unlock()
	services[contract] = append(services[contract], &serviceEntry{name: name, factory: factory})
}

// EagerService registers an already constructed implementation of contract
func EagerService(contract, name string, instance any) {
	e := &serviceEntry{name: name, instance: instance}
	e.once.Do(func() {})

	mu.Lock()
	defer mu.Unlock()
	services[contract] = append(services[contract], e)
}

// HasServices reports whether a static table exists for contract. When it does
// the table is authoritative and no dynamic discovery is needed.
func HasServices(contract string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := services[contract]
	return ok
}

// ServiceNames returns the implementation names registered for contract, in order
func ServiceNames(contract string) []string {
	mu.RLock()
	defer mu.RUnlock()
	entries := services[contract]
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Services returns the implementations registered for contract, in order
func Services(contract string) []any {
	mu.RLock()
	entries := append([]*serviceEntry(nil), services[contract]...)
	mu.RUnlock()

	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if v := e.get(); v != nil {
			out = append(out, v)
		}
	}
	return out
}
