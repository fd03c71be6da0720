package optim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedValue is returned when a YAML value has no property representation
var ErrUnsupportedValue = errors.New("unsupported property value")

// YAMLLoader loads "<name>.yml" or "<name>.yaml" from a directory at startup.
// It is the dynamic loader that generated constant property sources replace.
type YAMLLoader struct {
	Dir string
}

// NewYAMLLoader creates a loader reading from the working directory
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{Dir: "."}
}

// Load reads and flattens the named resource. A missing resource is not an error.
func (l *YAMLLoader) Load(name string) (*MapPropertySource, bool, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		data, err := os.ReadFile(filepath.Join(l.Dir, name+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		values, err := DecodeYAML(data)
		if err != nil {
			return nil, false, fmt.Errorf("%s%s: %w", name, ext, err)
		}
		return NewMapPropertySource(name, values), true, nil
	}
	return nil, false, nil
}

// DecodeYAML decodes a YAML document into flattened properties
func DecodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return Flatten(doc)
}

// Flatten turns nested maps into dotted keys. Lists are kept as []any and
// timestamps become RFC 3339 strings.
func Flatten(nested map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	if err := flattenInto(out, "", nested); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]any, prefix string, m map[string]any) error {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := asStringMap(v); ok {
			if err := flattenInto(out, key, nested); err != nil {
				return err
			}
			continue
		}
		value, err := normalize(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[key] = value
	}
	return nil
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int, int64, uint64, float64:
		return x, nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			if m, ok := asStringMap(e); ok {
				nm := make(map[string]any, len(m))
				for k, val := range m {
					n, err := normalize(val)
					if err != nil {
						return nil, fmt.Errorf("[%d].%s: %w", i, k, err)
					}
					nm[k] = n
				}
				out[i] = nm
				continue
			}
			n, err := normalize(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}
