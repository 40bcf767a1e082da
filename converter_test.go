package marginalia

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/riverfjs/marginalia-go/internal/annotation"
)

// spanClasses 按文档顺序返回所有 span 的 class
func spanClasses(t *testing.T, out string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var classes []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "span" {
			for _, a := range n.Attr {
				if a.Key == "class" {
					classes = append(classes, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return classes
}

// spanInner 返回第一个指定 class 的 span 的内部 HTML
func spanInner(t *testing.T, out, class string) string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "span" {
			for _, a := range n.Attr {
				if a.Key == "class" && a.Val == class {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, found, "no span with class %q in %s", class, out)

	var sb strings.Builder
	for c := found.FirstChild; c != nil; c = c.NextSibling {
		require.NoError(t, html.Render(&sb, c))
	}
	return sb.String()
}

func mustConvert(t *testing.T, markdown string, opts ...Option) string {
	t.Helper()
	out, err := Convert(markdown, opts...)
	require.NoError(t, err)
	return out
}

func TestConvert_Sidenote(t *testing.T) {
	out := mustConvert(t, "Text ++ref|a **bold** note++ more.")
	assert.Equal(t,
		`<p>Text <span class="sidenote"><span class="sidenote-ref">ref</span>`+
			`<span class="sidenote-content">a <strong>bold</strong> note</span></span> more.</p>`+"\n",
		out)
}

func TestConvert_SidenoteInlineFormatting(t *testing.T) {
	out := mustConvert(t, "++ref|**bold** and *italic*++")
	assert.Equal(t, "<strong>bold</strong> and <em>italic</em>", spanInner(t, out, "sidenote-content"))
	assert.Equal(t, "ref", spanInner(t, out, "sidenote-ref"))
}

func TestConvert_MarginalNote(t *testing.T) {
	out := mustConvert(t, "See !!m|a `code` aside!! here.")
	assert.Equal(t, []string{"marginnote", "marginnote-ref", "marginnote-content"}, spanClasses(t, out))
	assert.Equal(t, "a <code>code</code> aside", spanInner(t, out, "marginnote-content"))
}

func TestConvert_Sidebars(t *testing.T) {
	out := mustConvert(t, "$**bold** sidebar$")
	assert.Equal(t, `<p><span class="sidebar-left"><strong>bold</strong> sidebar</span></p>`+"\n", out)

	out = mustConvert(t, "before %right *side*% after")
	assert.Equal(t, []string{"sidebar-right"}, spanClasses(t, out))
	assert.Equal(t, "right <em>side</em>", spanInner(t, out, "sidebar-right"))
}

func TestConvert_EmptyReferenceIsLiteral(t *testing.T) {
	out := mustConvert(t, "++|note++")
	assert.Equal(t, "<p>++|note++</p>\n", out)
}

func TestConvert_MissingSeparatorIsLiteral(t *testing.T) {
	out := mustConvert(t, "a ++no separator++ b")
	assert.Equal(t, "<p>a ++no separator++ b</p>\n", out)
}

func TestConvert_EmptyBody(t *testing.T) {
	out := mustConvert(t, "++ref|++")
	assert.Equal(t,
		`<p><span class="sidenote"><span class="sidenote-ref">ref</span><span class="sidenote-content"></span></span></p>`+"\n",
		out)
}

func TestConvert_UnclosedIsLiteral(t *testing.T) {
	for _, in := range []string{"Text ++unclosed", "Text !!m|open", "cost $5", "50% off"} {
		t.Run(in, func(t *testing.T) {
			out := mustConvert(t, in)
			assert.Equal(t, "<p>"+in+"</p>\n", out)
		})
	}
}

func TestConvert_WindowBoundsSearch(t *testing.T) {
	in := "++ref|" + strings.Repeat("x", 40) + "++"

	out := mustConvert(t, in, WithWindow(20))
	assert.Empty(t, spanClasses(t, out))
	assert.Contains(t, out, "++ref|")

	out = mustConvert(t, in, WithWindow(100))
	assert.Equal(t, []string{"sidenote", "sidenote-ref", "sidenote-content"}, spanClasses(t, out))
}

func TestConvert_MultiLineAnnotation(t *testing.T) {
	out := mustConvert(t, "start ++ref|first\nsecond++ end")
	assert.Equal(t, "first\nsecond", spanInner(t, out, "sidenote-content"))
	assert.True(t, strings.HasSuffix(out, " end</p>\n"), out)
}

func TestConvert_ReferenceLinksInsideNotes(t *testing.T) {
	out := mustConvert(t, "++r|see [docs][d]++\n\n[d]: https://example.com\n")
	assert.Equal(t, `see <a href="https://example.com">docs</a>`, spanInner(t, out, "sidenote-content"))
}

func TestConvert_FootnoteInsideNote(t *testing.T) {
	out := mustConvert(t, "x[^1] ++r|see[^1]++\n\n[^1]: foot\n")

	content := spanInner(t, out, "sidenote-content")
	assert.True(t, strings.HasPrefix(content, "see<sup "), content)
	assert.Contains(t, content, `<a href="#fn:1" class="footnote-ref"`)
	assert.NotContains(t, content, "[^1]")
	// both references link back from the footnote
	assert.Equal(t, 2, strings.Count(out, `class="footnote-backref"`))
}

func TestConvert_FootnoteOnlyInsideNote(t *testing.T) {
	out := mustConvert(t, "++r|see[^n]++\n\n[^n]: foot\n")
	assert.Contains(t, spanInner(t, out, "sidenote-content"), `class="footnote-ref"`)
	assert.Contains(t, out, `class="footnote-backref"`)
}

func TestConvert_EscapedClosingMarker(t *testing.T) {
	out := mustConvert(t, `$a \$ b$`)
	assert.Equal(t, `<p><span class="sidebar-left">a $ b</span></p>`+"\n", out)

	out = mustConvert(t, `++a\|b|c++`)
	assert.Equal(t, "a|b", spanInner(t, out, "sidenote-ref"))
	assert.Equal(t, "c", spanInner(t, out, "sidenote-content"))
}

func TestConvert_NestedKindsStopAtDepthLimit(t *testing.T) {
	out := mustConvert(t, "$a ++r|b !!m|c %**d**%!!++$")
	assert.Equal(t, []string{
		"sidebar-left",
		"sidenote", "sidenote-ref", "sidenote-content",
		"marginnote", "marginnote-ref", "marginnote-content",
		"sidebar-right",
	}, spanClasses(t, out))
	// The innermost sidebar is past the limit: its content stays literal.
	assert.Equal(t, "**d**", spanInner(t, out, "sidebar-right"))

	out = mustConvert(t, "$a ++r|b !!m|c %**d**%!!++$", WithMaxDepth(4))
	assert.Equal(t, "<strong>d</strong>", spanInner(t, out, "sidebar-right"))
}

func TestConvert_SameKindNestingTerminates(t *testing.T) {
	out := mustConvert(t, "++outer|++inner|++deep|text++++++")

	classes := spanClasses(t, out)
	assert.Equal(t, 2, countOf(classes, "sidenote"))
	// The first closing marker ends the outer note, leaving its body empty.
	assert.Equal(t, "", spanInner(t, out, "sidenote-content"))
	assert.Contains(t, out, `</span>inner|<span class="sidenote">`)
	assert.Contains(t, out, `<span class="sidenote-content">text</span></span>++++</p>`)

	tokens, err := Tokens("++outer|++inner|++deep|text++++++")
	require.NoError(t, err)
	require.NoError(t, Balanced(tokens))
}

func TestConvert_Idempotent(t *testing.T) {
	in := "A ++r|note *x*++ and $side$ and !!m|mm!! and %r% end.\n\nSecond ++q|para++."
	c, err := NewConverter()
	require.NoError(t, err)

	first, err := c.Convert(in)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := c.Convert(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestConvert_ClassOverrides(t *testing.T) {
	out := mustConvert(t, "++r|b++ $s$",
		WithClasses("sidenote", ClassNames{Wrapper: "note", Content: "note-body"}),
		WithClasses("sidebar_left", ClassNames{Content: "aside"}),
	)
	assert.Equal(t, []string{"note", "sidenote-ref", "note-body", "aside"}, spanClasses(t, out))
}

func TestConvert_InvalidOptions(t *testing.T) {
	_, err := Convert("x", WithMaxDepth(0))
	assert.Error(t, err)

	_, err = Convert("x", WithClasses("footnote", ClassNames{Wrapper: "f"}))
	assert.Error(t, err)

	_, err = Convert("x", WithClasses("sidenote", ClassNames{Wrapper: `a"b`}))
	assert.Error(t, err)
}

func TestTokens_SidenoteOrder(t *testing.T) {
	tokens, err := Tokens("++ref|body++")
	require.NoError(t, err)

	var types []string
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []string{
		"paragraph_open",
		"sidenote_open",
		"sidenote_ref_open", "text", "sidenote_ref_close",
		"sidenote_content_open", "text", "sidenote_content_close",
		"sidenote_close",
		"paragraph_close",
	}, types)
	assert.Equal(t, "++", tokens[1].Markup)
	assert.Equal(t, "ref", tokens[3].Content)
	assert.Equal(t, "body", tokens[6].Content)
	require.NoError(t, Balanced(tokens))
}

func TestTokens_SidebarOrder(t *testing.T) {
	tokens, err := Tokens("%r%")
	require.NoError(t, err)

	var types []string
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []string{
		"paragraph_open",
		"sidebar_right_open", "text", "sidebar_right_close",
		"paragraph_close",
	}, types)
	assert.Equal(t, 2, tokens[2].Level)
}

func TestCheck_ReportsRejectedCandidates(t *testing.T) {
	in := "fine ++r|b++\nbad ++|x++ and\n!!no separator!!"
	diags, err := Check(in)
	require.NoError(t, err)
	require.NotEmpty(t, diags)

	first := diags[0]
	assert.Equal(t, "sidenote", first.Kind)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 5, first.Column)
	assert.True(t, errors.Is(first.Err, annotation.ErrEmptyReference))
	assert.Equal(t, "2:5: sidenote: "+annotation.ErrEmptyReference.Error(), first.String())

	var kinds []string
	for _, d := range diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, "marginnote")
}

func TestCheck_ReportsDepthLimit(t *testing.T) {
	diags, err := Check("$a ++r|b !!m|c %**d**%!!++$")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "sidebar_right", diags[0].Kind)
	assert.True(t, errors.Is(diags[0].Err, annotation.ErrDepthExceeded))
}

func TestDiagnostic_Unclosed(t *testing.T) {
	diags, err := Check("50% off ++|x++")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(diags), 2)

	assert.True(t, diags[0].Unclosed())
	assert.Equal(t, "sidebar_right", diags[0].Kind)
	assert.False(t, diags[1].Unclosed())
	assert.True(t, errors.Is(diags[1].Err, ErrEmptyReference))
}

func TestCheck_CleanDocument(t *testing.T) {
	diags, err := Check("plain ++r|note++ text")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestWithDiagnostics_Convert(t *testing.T) {
	var got []Diagnostic
	_, err := Convert("x ++unclosed", WithDiagnostics(func(d Diagnostic) {
		got = append(got, d)
	}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Offset)
	assert.Zero(t, got[0].Line)
	assert.True(t, errors.Is(got[0].Err, annotation.ErrNoClosingMarker))
}

func TestNewExtension(t *testing.T) {
	ext, err := NewExtension()
	require.NoError(t, err)
	require.NotNil(t, ext)

	_, err = NewExtension(WithWindow(-1))
	assert.Error(t, err)
}

func countOf(list []string, v string) int {
	n := 0
	for _, s := range list {
		if s == v {
			n++
		}
	}
	return n
}
