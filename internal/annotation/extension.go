package annotation

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"

	"github.com/riverfjs/marginalia-go/internal/types"
)

type config struct {
	table          *Table
	window         int
	maxDepth       int
	logger         *zap.Logger
	diagnose       func(Diagnostic)
	fragmentInline []util.PrioritizedValue
}

// Option configures the annotation parser and extension.
type Option func(*config)

// WithTable sets the marker table.
func WithTable(t *Table) Option {
	return func(c *config) {
		c.table = t
	}
}

// WithWindow bounds the closing marker search. Non-positive values are ignored.
func WithWindow(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.window = n
		}
	}
}

// WithMaxDepth sets how many fragment parses may nest. Non-positive values
// are ignored.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for degraded matches.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDiagnostics installs a callback invoked for each rejected or degraded
// annotation candidate.
func WithDiagnostics(fn func(Diagnostic)) Option {
	return func(c *config) {
		c.diagnose = fn
	}
}

// WithFragmentInlineParsers adds inline parsers to the fragment parser, on top
// of goldmark's defaults, so extension syntax renders inside annotations.
func WithFragmentInlineParsers(ps ...util.PrioritizedValue) Option {
	return func(c *config) {
		c.fragmentInline = append(c.fragmentInline, ps...)
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		table:    DefaultTable(),
		window:   types.DefaultWindow,
		maxDepth: types.DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type extension struct {
	opts []Option
}

// New returns the goldmark extension that installs the annotation parser
// ahead of link detection and the span renderers for every annotation node.
func New(opts ...Option) goldmark.Extender {
	return &extension{opts: opts}
}

// Extend implements goldmark.Extender.
func (e *extension) Extend(m goldmark.Markdown) {
	p := NewInlineParser(e.opts...)
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(p, Priority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewHTMLRenderer(p.Table()), 500),
	))
}

// HTMLRenderer renders annotation nodes as nested spans.
type HTMLRenderer struct {
	table *Table
}

// NewHTMLRenderer returns a renderer for the nodes produced with t.
func NewHTMLRenderer(t *Table) renderer.NodeRenderer {
	return &HTMLRenderer{table: t}
}

// RegisterFuncs implements renderer.NodeRenderer. One function is registered
// per node kind, i.e. per open/close token pair.
func (r *HTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	for _, m := range r.table.Markers() {
		for _, role := range m.Roles() {
			reg.Register(NodeKind(m.Kind, role), r.renderSpan)
		}
	}
}

func (r *HTMLRenderer) renderSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Node)
	if entering {
		_, _ = w.WriteString(`<span class="`)
		_, _ = w.WriteString(n.Marker.ClassFor(n.Role))
		_, _ = w.WriteString(`">`)
	} else {
		_, _ = w.WriteString("</span>")
	}
	return ast.WalkContinue, nil
}
