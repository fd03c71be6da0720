// Package logconf compiles a logback style configuration tree into the
// sequence of Go statements that builds the same logger graph.
package logconf

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingResource is returned when a configuration resource cannot be found
	ErrMissingResource = errors.New("missing resource")
	// ErrUnsupportedConstruct is returned for configuration shapes with no static translation
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrReflectiveResolution is returned when a component type is not in the registry
	ErrReflectiveResolution = errors.New("unresolved component type")
)

// NodeKind classifies configuration elements
type NodeKind int

const (
	ImplicitNode NodeKind = iota
	ConfigurationNode
	RootLoggerNode
	LoggerNode
	AppenderNode
	AppenderRefNode
)

func (k NodeKind) String() string {
	switch k {
	case ConfigurationNode:
		return "configuration"
	case RootLoggerNode:
		return "root"
	case LoggerNode:
		return "logger"
	case AppenderNode:
		return "appender"
	case AppenderRefNode:
		return "appender-ref"
	default:
		return "implicit"
	}
}

// Node is one element of the configuration tree. Body is nil when the element
// carries no text.
type Node struct {
	Tag        string
	Kind       NodeKind
	Class      string
	Body       *string
	Name       string
	Level      string
	Additivity string
	Ref        string
	Line       int
	Children   []*Node
}

// IsComponent reports whether the node declares an implementation type
func (n *Node) IsComponent() bool {
	return n.Class != "" && (n.Kind == AppenderNode || n.Kind == ImplicitNode)
}

func (n *Node) where() string {
	if n.Line > 0 {
		return fmt.Sprintf("<%s> at line %d", n.Tag, n.Line)
	}
	return fmt.Sprintf("<%s>", n.Tag)
}
