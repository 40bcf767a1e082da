package annotation

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var documentKey = parser.NewContextKey()

// documentContext returns the context of the document being parsed. For a
// fragment this is the context of the document that spawned it.
func documentContext(pc parser.Context) parser.Context {
	if doc, ok := pc.Get(documentKey).(parser.Context); ok {
		return doc
	}
	return pc
}

type documentScoped struct {
	parser.InlineParser
}

// DocumentScoped wraps an inline parser whose state lives at document level,
// such as goldmark's footnote parser, so that inside annotation content it
// reads and writes the context of the enclosing document.
//
// The wrapped parser must not use the delimiter stack or the link label
// state; those stay local to the fragment.
func DocumentScoped(p parser.InlineParser) parser.InlineParser {
	return &documentScoped{InlineParser: p}
}

func (s *documentScoped) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	return s.InlineParser.Parse(parent, block, documentContext(pc))
}
