package annotation

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
)

// Priority places the annotation parser ahead of goldmark's link parser (200).
const Priority = 199

// Diagnostic describes an annotation candidate that was rejected or whose
// content degraded to literal text.
type Diagnostic struct {
	Kind Kind
	// Offset is the source offset of the opening marker.
	Offset int
	Err    error
}

// InlineParser recognizes sidenotes, marginal notes and sidebars inside
// paragraph text. It is safe for concurrent use: all per-document state lives
// in the parser.Context.
type InlineParser struct {
	table     *Table
	window    int
	maxDepth  int
	logger    *zap.Logger
	diagnose  func(Diagnostic)
	fragments parser.Parser
}

// NewInlineParser returns a parser configured by opts.
func NewInlineParser(opts ...Option) *InlineParser {
	c := newConfig(opts)
	p := &InlineParser{
		table:    c.table,
		window:   c.window,
		maxDepth: c.maxDepth,
		logger:   c.logger,
		diagnose: c.diagnose,
	}
	inline := append(parser.DefaultInlineParsers(), util.Prioritized(p, Priority))
	inline = append(inline, c.fragmentInline...)
	p.fragments = parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
		parser.WithInlineParsers(inline...),
	)
	return p
}

// Table returns the marker table the parser dispatches on.
func (p *InlineParser) Table() *Table {
	return p.table
}

// Trigger implements parser.InlineParser.
func (p *InlineParser) Trigger() []byte {
	return p.table.Triggers()
}

// Parse implements parser.InlineParser. It either consumes a whole
// annotation and returns its node, or returns nil with the reader untouched.
func (p *InlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	node, _ := p.run(block, pc, false)
	return node
}

// Check reports whether an annotation starts at the reader position without
// consuming input, building nodes or parsing fragments.
func (p *InlineParser) Check(block text.Reader, pc parser.Context) bool {
	_, ok := p.run(block, pc, true)
	return ok
}

func (p *InlineParser) run(block text.Reader, pc parser.Context, silent bool) (ast.Node, bool) {
	// detected
	line, seg := block.PeekLine()
	m := p.table.Detect(line, 0)
	if m == nil {
		return nil, false
	}

	// extracted
	w := readWindow(block, len(m.Open)+p.window+len(m.Close))
	span, err := Extract(w.buf, 0, m, p.window)
	if err != nil {
		if !silent {
			p.report(m, seg.Start, pc, err)
		}
		return nil, false
	}
	if silent {
		return nil, true
	}

	// committed
	node := p.emit(block.Source(), w, span, pc)
	w.advance(block, span.End)
	return node, true
}

func (p *InlineParser) report(m *Marker, offset int, pc parser.Context, err error) {
	if ce := p.logger.Check(zap.DebugLevel, "annotation degraded to literal text"); ce != nil {
		ce.Write(
			zap.Stringer("kind", m.Kind),
			zap.Int("offset", offset),
			zap.Int("depth", guardFor(pc, p.maxDepth).depth),
			zap.Error(err),
		)
	}
	if p.diagnose != nil {
		p.diagnose(Diagnostic{Kind: m.Kind, Offset: offset, Err: err})
	}
}
