package annotation

import (
	"github.com/yuin/goldmark/parser"
)

var depthKey = parser.NewContextKey()

// depthGuard counts nested fragment parses of one document. Fragment
// contexts share the guard of the document that spawned them.
type depthGuard struct {
	depth int
	max   int
}

// guardFor returns the guard bound to pc, creating it on first use.
func guardFor(pc parser.Context, max int) *depthGuard {
	if g, ok := pc.Get(depthKey).(*depthGuard); ok {
		return g
	}
	g := &depthGuard{max: max}
	pc.Set(depthKey, g)
	return g
}

// enter increments the depth. It returns false, leaving the depth as is,
// when the limit is already reached.
func (g *depthGuard) enter() bool {
	if g.depth >= g.max {
		return false
	}
	g.depth++
	return true
}

func (g *depthGuard) leave() {
	if g.depth > 0 {
		g.depth--
	}
}
