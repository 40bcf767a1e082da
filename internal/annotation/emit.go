package annotation

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// emit builds the node tree of a validated span. Notes become
// wrapper(ref(...), content(...)) and sidebars wrapper(...). If building
// panics the whole span, markers included, is returned as literal text.
func (p *InlineParser) emit(source []byte, w *window, span Span, pc parser.Context) (node ast.Node) {
	m := span.Marker
	defer func() {
		if r := recover(); r != nil {
			p.report(m, w.source(0), pc, errors.Errorf("emit %s: %v", m.Kind, r))
			node = rawString(source, w.segments(Range{0, span.End}))
		}
	}()

	wrapper := NewNode(m, RoleWrapper)
	if !m.IsNote() {
		p.bridge(wrapper, source, w, span.Body, pc)
		return wrapper
	}
	ref := NewNode(m, RoleReference)
	p.bridge(ref, source, w, span.Ref, pc)
	wrapper.AppendChild(wrapper, ref)

	content := NewNode(m, RoleContent)
	p.bridge(content, source, w, span.Body, pc)
	wrapper.AppendChild(wrapper, content)
	return wrapper
}

// bridge parses r as inline markdown and appends the result to parent. Past
// the depth limit, or when the fragment parse fails, the text is appended
// verbatim instead.
func (p *InlineParser) bridge(parent ast.Node, source []byte, w *window, r Range, pc parser.Context) {
	segs := w.segments(r)
	if len(segs) == 0 {
		return
	}
	g := guardFor(pc, p.maxDepth)
	if !g.enter() {
		p.report(parent.(*Node).Marker, w.source(r.Start), pc, ErrDepthExceeded)
		appendLiteral(parent, source, segs)
		return
	}
	defer g.leave()

	children, err := p.parseFragment(source, segs, pc, g)
	if err != nil {
		p.report(parent.(*Node).Marker, w.source(r.Start), pc, err)
		appendLiteral(parent, source, segs)
		return
	}
	for _, c := range children {
		parent.AppendChild(parent, c)
	}
}

// parseFragment runs the fragment parser over segs of the document source
// with a fresh context that shares the document's depth guard and link
// references, and points document scoped parsers at the document context.
func (p *InlineParser) parseFragment(source []byte, segs []text.Segment, pc parser.Context, g *depthGuard) (nodes []ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = errors.Wrapf(ErrSubParse, "%v", r)
		}
	}()

	lines := text.NewSegments()
	for _, s := range segs {
		lines.Append(s)
	}
	fc := parser.NewContext()
	fc.Set(depthKey, g)
	fc.Set(documentKey, documentContext(pc))
	for _, ref := range pc.References() {
		fc.AddReference(ref)
	}

	doc := p.fragments.Parse(text.NewBlockReader(source, lines), parser.WithContext(fc))
	for block := doc.FirstChild(); block != nil; block = block.NextSibling() {
		for c := block.FirstChild(); c != nil; {
			next := c.NextSibling()
			block.RemoveChild(block, c)
			nodes = append(nodes, c)
			c = next
		}
	}
	return nodes, nil
}

// appendLiteral appends segs as one text node. Line breaks stay in its
// value.
func appendLiteral(parent ast.Node, source []byte, segs []text.Segment) {
	parent.AppendChild(parent, rawString(source, segs))
}

// rawString joins segs into one text node that owns its bytes.
func rawString(source []byte, segs []text.Segment) ast.Node {
	var buf bytes.Buffer
	for _, s := range segs {
		buf.Write(s.Value(source))
	}
	return ast.NewString(buf.Bytes())
}
