package logconf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type frame struct {
	node      *Node
	body      strings.Builder
	defaulted bool
}

// Load parses a logback style XML document. Implicit elements without a class
// attribute get the default nested type their parent declares for the tag, so
// that <encoder> inside a ConsoleAppender becomes a PatternLayoutEncoder.
func Load(r io.Reader, reg *Registry) (*Node, error) {
	dec := xml.NewDecoder(r)
	var stack []*frame
	var root *Node

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse configuration: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			n := newNode(t, line)
			if len(stack) == 0 {
				if n.Kind != ConfigurationNode {
					return nil, fmt.Errorf("%w: root element is <%s>, expected <configuration>", ErrUnsupportedConstruct, n.Tag)
				}
				root = n
			}
			f := &frame{node: n}
			if len(stack) > 0 && n.Kind == ImplicitNode && n.Class == "" {
				if def := defaultClass(stack[len(stack)-1].node, n.Tag, reg); def != "" {
					n.Class = def
					f.defaulted = true
				}
			}
			stack = append(stack, f)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].body.Write(t)
			}

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if text := strings.TrimSpace(f.body.String()); text != "" {
				f.node.Body = &text
				if f.defaulted && len(f.node.Children) == 0 {
					f.node.Class = ""
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, f.node)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: empty configuration document", ErrUnsupportedConstruct)
	}
	return root, nil
}

// LoadFile parses the configuration file at path
func LoadFile(path string, reg *Registry) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return nil, err
	}
	defer f.Close()
	return Load(f, reg)
}

func newNode(t xml.StartElement, line int) *Node {
	n := &Node{Tag: t.Name.Local, Line: line}
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "class":
			n.Class = strings.TrimSpace(a.Value)
		case "name":
			n.Name = a.Value
		case "level":
			n.Level = a.Value
		case "additivity":
			n.Additivity = a.Value
		case "ref":
			n.Ref = a.Value
		}
	}
	switch strings.ToLower(n.Tag) {
	case "configuration":
		n.Kind = ConfigurationNode
	case "root":
		n.Kind = RootLoggerNode
	case "logger":
		n.Kind = LoggerNode
	case "appender":
		n.Kind = AppenderNode
	case "appender-ref":
		n.Kind = AppenderRefNode
	default:
		n.Kind = ImplicitNode
	}
	return n
}

func defaultClass(parent *Node, tag string, reg *Registry) string {
	if reg == nil || !parent.IsComponent() {
		return ""
	}
	t, ok := reg.Lookup(parent.Class)
	if !ok {
		return ""
	}
	m, ok := t.Setter(tag)
	if !ok {
		m, ok = t.Adder(tag)
	}
	if !ok || m.Param.Kind != Component {
		return ""
	}
	return m.Param.Default
}
