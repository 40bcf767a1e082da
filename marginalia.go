// Package marginalia renders Markdown with inline annotations: sidenotes,
// marginal notes and left/right sidebars.
//
// Syntax:
//   - ++reference|note++   sidenote
//   - !!reference|note!!   marginal note
//   - $content$            left sidebar
//   - %content%            right sidebar
//
// Annotation content is itself parsed as inline Markdown, so emphasis, links
// and code spans work inside notes and sidebars. Malformed annotations are
// rendered as plain text; they never abort the document.
//
// Main API:
//   - Convert(): Markdown to HTML
//   - Tokens(): the flat token stream (sidenote_open, sidenote_ref_open, ...)
//   - Check(): annotation candidates that were rejected or degraded
//   - NewExtension(): the goldmark extender for use in another goldmark setup
//
// Example:
//
//	html, err := marginalia.Convert("Text ++ref|a **bold** note++ more text.")
package marginalia

import (
	"github.com/yuin/goldmark"

	"github.com/riverfjs/marginalia-go/internal/annotation"
)

// NewExtension returns the goldmark extender that installs the annotation
// parser before link detection and registers the annotation span renderers.
func NewExtension(opts ...Option) (goldmark.Extender, error) {
	o := applyOptions(opts...)
	aopts, err := o.annotationOptions()
	if err != nil {
		return nil, err
	}
	return annotation.New(aopts...), nil
}
