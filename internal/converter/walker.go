package converter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/serenize/snaker"
	"github.com/yuin/goldmark/ast"

	"github.com/riverfjs/marginalia-go/internal/annotation"
	"github.com/riverfjs/marginalia-go/internal/types"
)

type Token = types.Token

// TokenWalker 遍历 goldmark AST 并生成扁平 token 流
//
// Container nodes produce an "_open" token on entry and a "_close" token on
// exit; leaves produce a single token with nesting 0.
type TokenWalker struct {
	source []byte
	tokens []Token
	level  int
}

// NewTokenWalker 创建新的 TokenWalker
func NewTokenWalker(source []byte) *TokenWalker {
	return &TokenWalker{
		source: source,
		tokens: make([]Token, 0),
	}
}

// Walk 遍历 AST 节点
func (w *TokenWalker) Walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Document:
		// no token

	// --- Annotations ---
	case *annotation.Node:
		if entering {
			markup := ""
			if n.Role == annotation.RoleWrapper {
				markup = n.Marker.Open
			}
			w.open(n.TokenType(true), "span", markup)
		} else {
			w.close(n.TokenType(false), "span")
		}

	// --- Inline elements ---
	case *ast.Text:
		if entering {
			w.onText(n)
		}

	case *ast.String:
		if entering {
			w.leaf("text", "", string(n.Value))
		}

	case *ast.CodeSpan:
		if entering {
			w.leaf("code_inline", "code", extractCodeSpanText(n, w.source))
			return ast.WalkSkipChildren, nil
		}

	case *ast.Emphasis:
		// Level 1 = em, Level 2 = strong
		tag := "em"
		if n.Level == 2 {
			tag = "strong"
		}
		w.pair(entering, tag, tag)

	case *ast.Link:
		w.pair(entering, "link", "a")

	case *ast.AutoLink:
		if entering {
			w.leaf("autolink", "a", string(n.URL(w.source)))
		}

	case *ast.Image:
		if entering {
			w.leaf("image", "img", plainText(n, w.source))
			return ast.WalkSkipChildren, nil
		}

	case *ast.RawHTML:
		if entering {
			var sb strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				sb.Write(seg.Value(w.source))
			}
			w.leaf("html_inline", "", sb.String())
		}

	// --- Block elements ---
	case *ast.Paragraph:
		w.pair(entering, "paragraph", "p")

	case *ast.Heading:
		w.pair(entering, "heading", fmt.Sprintf("h%d", n.Level))

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			var sb strings.Builder
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(w.source))
			}
			w.leaf("code_block", "pre", sb.String())
			return ast.WalkSkipChildren, nil
		}

	default:
		name := snaker.CamelToSnake(node.Kind().String())
		if node.HasChildren() || node.Type() == ast.TypeBlock {
			w.pair(entering, name, "")
		} else if entering {
			w.leaf(name, "", "")
		}
	}

	return ast.WalkContinue, nil
}

// Result 返回 token 流
func (w *TokenWalker) Result() []Token {
	return w.tokens
}

func (w *TokenWalker) pair(entering bool, name, tag string) {
	if entering {
		w.open(name+"_open", tag, "")
	} else {
		w.close(name+"_close", tag)
	}
}

func (w *TokenWalker) open(typ, tag, markup string) {
	w.tokens = append(w.tokens, Token{Type: typ, Tag: tag, Nesting: 1, Level: w.level, Markup: markup})
	w.level++
}

func (w *TokenWalker) close(typ, tag string) {
	w.level--
	w.tokens = append(w.tokens, Token{Type: typ, Tag: tag, Nesting: -1, Level: w.level})
}

func (w *TokenWalker) leaf(typ, tag, content string) {
	w.tokens = append(w.tokens, Token{Type: typ, Tag: tag, Level: w.level, Content: content})
}

func (w *TokenWalker) onText(n *ast.Text) {
	w.leaf("text", "", string(n.Segment.Value(w.source)))
	if n.HardLineBreak() {
		w.leaf("hardbreak", "br", "")
	} else if n.SoftLineBreak() {
		w.leaf("softbreak", "", "")
	}
}

func extractCodeSpanText(n *ast.CodeSpan, source []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			_, _ = buf.Write(t.Segment.Value(source))
		case *ast.String:
			_, _ = buf.Write(t.Value)
		}
	}
	return buf.String()
}

// plainText concatenates the text leaves under n.
func plainText(n ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// Balanced checks that every "_open" token is closed by the matching
// "_close" token in last-in first-out order.
func Balanced(tokens []Token) error {
	var stack []string
	for i, t := range tokens {
		switch t.Nesting {
		case 1:
			stack = append(stack, strings.TrimSuffix(t.Type, "_open"))
		case -1:
			name := strings.TrimSuffix(t.Type, "_close")
			if len(stack) == 0 {
				return errors.Errorf("token %d: %s closes nothing", i, t.Type)
			}
			if top := stack[len(stack)-1]; top != name {
				return errors.Errorf("token %d: %s closes %s_open", i, t.Type, top)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return errors.Errorf("%d unclosed tokens, innermost %s_open", len(stack), stack[len(stack)-1])
	}
	return nil
}
