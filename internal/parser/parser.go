package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/riverfjs/marginalia-go/internal/annotation"
	"github.com/riverfjs/marginalia-go/internal/types"
)

// StandardOptions goldmark 扩展配置
var StandardOptions = []goldmark.Option{
	goldmark.WithExtensions(
		extension.GFM,            // GitHub Flavored Markdown (tables, strikethrough, tasklists)
		extension.DefinitionList, // 定义列表
		extension.Footnote,       // 脚注
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // 自动生成标题 ID
	),
}

// FragmentInlineParsers are the extension inline parsers of StandardOptions
// that are also needed inside annotation content. Footnote references are
// resolved against the document's footnote list.
func FragmentInlineParsers() []util.PrioritizedValue {
	return []util.PrioritizedValue{
		util.Prioritized(annotation.DocumentScoped(extension.NewFootnoteParser()), 101),
		util.Prioritized(extension.NewStrikethroughParser(), 500),
		util.Prioritized(extension.NewLinkifyParser(), 999),
	}
}

// New 创建带注释扩展的 goldmark 实例
func New(config *types.RenderConfig, opts ...annotation.Option) (goldmark.Markdown, error) {
	if config == nil {
		config = types.DefaultRenderConfig()
	}
	table, err := annotation.NewTable(config.Classes)
	if err != nil {
		return nil, err
	}
	aopts := []annotation.Option{
		annotation.WithTable(table),
		annotation.WithWindow(config.Window),
		annotation.WithMaxDepth(config.MaxDepth),
		annotation.WithFragmentInlineParsers(FragmentInlineParsers()...),
	}
	aopts = append(aopts, opts...)

	var ropts []renderer.Option
	if config.HardWraps {
		ropts = append(ropts, html.WithHardWraps())
	}
	if config.Unsafe {
		ropts = append(ropts, html.WithUnsafe())
	}

	options := append([]goldmark.Option{}, StandardOptions...)
	options = append(options,
		goldmark.WithExtensions(annotation.New(aopts...)),
		goldmark.WithRendererOptions(ropts...),
	)
	return goldmark.New(options...), nil
}

// Parse 解析 Markdown 为 AST
func Parse(md goldmark.Markdown, markdown string) (ast.Node, []byte) {
	source := []byte(markdown)
	return md.Parser().Parse(text.NewReader(source)), source
}

// Render 解析并渲染为 HTML
func Render(md goldmark.Markdown, markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
