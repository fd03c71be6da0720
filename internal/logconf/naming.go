package logconf

import (
	"go/token"
	"strconv"
	"strings"
)

// RootLoggerVar is the variable bound to the root logger in generated code
const RootLoggerVar = "_rootLogger"

var reservedNames = map[string]bool{
	"logging": true,
	"true":    true,
	"false":   true,
	"nil":     true,
	"iota":    true,
	"_":       true,
}

// VarNames assigns each node one collision free variable name. Names are
// memoized per node, so asking twice returns the same name.
type VarNames struct {
	byNode map[*Node]string
	taken  map[string]bool
}

// NewVarNames creates an empty naming table
func NewVarNames() *VarNames {
	return &VarNames{
		byNode: make(map[*Node]string),
		taken:  map[string]bool{RootLoggerVar: true},
	}
}

// Of returns the variable name of n, allocating it on first use. On collision
// the name gets the suffix _<number of names assigned so far>, bumped until free.
func (v *VarNames) Of(n *Node) string {
	if n.Kind == RootLoggerNode {
		return RootLoggerVar
	}
	if name, ok := v.byNode[n]; ok {
		return name
	}

	base := baseName(n)
	name := base
	if v.taken[name] {
		for i := len(v.byNode); ; i++ {
			name = base + "_" + strconv.Itoa(i)
			if !v.taken[name] {
				break
			}
		}
	}
	v.byNode[n] = name
	v.taken[name] = true
	return name
}

// Len returns the number of names assigned
func (v *VarNames) Len() int {
	return len(v.byNode)
}

func baseName(n *Node) string {
	raw := n.Tag
	if (n.Kind == AppenderNode || n.Kind == LoggerNode) && n.Name != "" {
		raw = n.Name
	}
	name := strings.ToLower(sanitize(raw))
	if token.IsKeyword(name) || reservedNames[name] || name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func sanitize(s string) string {
	if s == "" {
		return "_"
	}
	var sb strings.Builder
	for _, c := range s {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			sb.WriteRune(c)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
