package annotation

import (
	"github.com/yuin/goldmark/ast"
)

var nodeKinds [numKinds][numRoles]ast.NodeKind

var kindTitles = [numKinds]string{"Sidenote", "Marginnote", "SidebarLeft", "SidebarRight"}
var roleTitles = [numRoles]string{"", "Ref", "Content"}

func init() {
	for k := Sidenote; k < numKinds; k++ {
		for _, r := range builtinMarkers[k].Roles() {
			nodeKinds[k][r] = ast.NewNodeKind(kindTitles[k] + roleTitles[r])
		}
	}
}

// NodeKind returns the AST node kind for one structural token pair.
func NodeKind(k Kind, r Role) ast.NodeKind {
	return nodeKinds[k][r]
}

// Node is an annotation span in the goldmark AST. Entering it corresponds
// to the "_open" token of its role and leaving it to the "_close" token.
type Node struct {
	ast.BaseInline
	Marker *Marker
	Role   Role
}

// NewNode returns an empty annotation node.
func NewNode(m *Marker, r Role) *Node {
	return &Node{Marker: m, Role: r}
}

// Kind implements ast.Node.
func (n *Node) Kind() ast.NodeKind {
	return nodeKinds[n.Marker.Kind][n.Role]
}

// Dump implements ast.Node.
func (n *Node) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Kind":   n.Marker.Kind.String(),
		"Role":   n.Role.String(),
		"Marker": n.Marker.Open,
	}, nil)
}

// TokenType returns the type name of the token this node opens or closes.
func (n *Node) TokenType(opening bool) string {
	return n.Marker.TokenType(n.Role, opening)
}
