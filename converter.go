package marginalia

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"

	"github.com/riverfjs/marginalia-go/internal/annotation"
	"github.com/riverfjs/marginalia-go/internal/converter"
	"github.com/riverfjs/marginalia-go/internal/parser"
)

// Converter renders Markdown with annotations. It is safe for concurrent use.
type Converter struct {
	md      goldmark.Markdown
	options *ConvertOptions
}

// NewConverter builds a converter from the given options.
func NewConverter(opts ...Option) (*Converter, error) {
	options := applyOptions(opts...)
	md, err := newMarkdown(options, nil)
	if err != nil {
		return nil, err
	}
	return &Converter{md: md, options: options}, nil
}

func newMarkdown(options *ConvertOptions, source []byte) (goldmark.Markdown, error) {
	if err := ValidateConfig(options.Config); err != nil {
		return nil, err
	}
	return parser.New(options.Config, options.hooks(source)...)
}

// Markdown returns the underlying goldmark instance.
func (c *Converter) Markdown() goldmark.Markdown {
	return c.md
}

// Convert renders markdown to HTML.
func (c *Converter) Convert(markdown string) (string, error) {
	html, err := parser.Render(c.md, markdown)
	if err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return html, nil
}

// Tokens returns the flat token stream of markdown.
func (c *Converter) Tokens(markdown string) []Token {
	node, source := parser.Parse(c.md, markdown)
	return walkTokens(node, source)
}

func walkTokens(node ast.Node, source []byte) []Token {
	walker := converter.NewTokenWalker(source)
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return walker.Walk(n, entering)
	})
	return walker.Result()
}

// Convert 将 Markdown 渲染为 HTML
func Convert(markdown string, opts ...Option) (string, error) {
	c, err := NewConverter(opts...)
	if err != nil {
		return "", err
	}
	return c.Convert(markdown)
}

// Tokens 返回 Markdown 的扁平 token 流
func Tokens(markdown string, opts ...Option) ([]Token, error) {
	c, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	return c.Tokens(markdown), nil
}

// Balanced reports an error if an "_open" token lacks its "_close".
func Balanced(tokens []Token) error {
	return converter.Balanced(tokens)
}

// Errors carried by Diagnostic.Err.
var (
	ErrNoClosingMarker  = annotation.ErrNoClosingMarker
	ErrMissingSeparator = annotation.ErrMissingSeparator
	ErrEmptyReference   = annotation.ErrEmptyReference
	ErrDepthExceeded    = annotation.ErrDepthExceeded
	ErrSubParse         = annotation.ErrSubParse
)

// Diagnostic describes an annotation candidate that was rendered as plain
// text, or whose content was kept as plain text.
type Diagnostic struct {
	Kind   string
	Offset int
	// Line and Column are 1-based; zero when the source was not available.
	Line   int
	Column int
	Err    error
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("offset %d: %s: %v", d.Offset, d.Kind, d.Err)
	}
	return fmt.Sprintf("%d:%d: %s: %v", d.Line, d.Column, d.Kind, d.Err)
}

// Unclosed reports whether the candidate was rejected only because no
// closing marker follows it, as for the percent sign in "50% off".
func (d Diagnostic) Unclosed() bool {
	return errors.Is(d.Err, ErrNoClosingMarker)
}

func newDiagnostic(d annotation.Diagnostic, source []byte) Diagnostic {
	out := Diagnostic{Kind: d.Kind.String(), Offset: d.Offset, Err: d.Err}
	if source != nil && d.Offset <= len(source) {
		before := source[:d.Offset]
		out.Line = bytes.Count(before, []byte("\n")) + 1
		out.Column = d.Offset - (bytes.LastIndexByte(before, '\n') + 1) + 1
	}
	return out
}

// Check parses markdown and returns every annotation candidate that was
// rejected (no closing marker, missing separator, empty reference) or whose
// content degraded to plain text (nesting limit, fragment failure), in
// source order of discovery.
func Check(markdown string, opts ...Option) ([]Diagnostic, error) {
	options := applyOptions(opts...)
	var out []Diagnostic
	user := options.Diagnostics
	options.Diagnostics = func(d Diagnostic) {
		out = append(out, d)
		if user != nil {
			user(d)
		}
	}
	source := []byte(markdown)
	md, err := newMarkdown(options, source)
	if err != nil {
		return nil, err
	}
	_, _ = parser.Parse(md, markdown)
	return out, nil
}
