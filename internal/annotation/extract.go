package annotation

import (
	"bytes"

	"github.com/pkg/errors"
)

var (
	ErrNoClosingMarker  = errors.New("no closing marker within search window")
	ErrMissingSeparator = errors.New("note has no reference separator")
	ErrEmptyReference   = errors.New("note reference is empty")
	ErrDepthExceeded    = errors.New("fragment nesting limit reached")
	ErrSubParse         = errors.New("fragment parse failed")
)

// Detect returns the marker whose opening sequence starts at src[pos], or nil.
// It looks at no more than len(Open) bytes.
func (t *Table) Detect(src []byte, pos int) *Marker {
	if pos < 0 || pos >= len(src) {
		return nil
	}
	m := t.lead[src[pos]]
	if m == nil {
		return nil
	}
	if len(m.Open) > 1 && (pos+1 >= len(src) || src[pos+1] != m.Open[1]) {
		return nil
	}
	return m
}

// Range is a half-open byte range [Start, Stop).
type Range struct {
	Start, Stop int
}

func (r Range) Len() int { return r.Stop - r.Start }

// Span is the result of a successful extraction. All ranges index the
// slice passed to Extract.
type Span struct {
	Marker *Marker
	// Ref is the reference range. Zero for sidebars.
	Ref Range
	// Body is the content range; it may be empty.
	Body Range
	// End is one past the closing marker.
	End int
}

// Extract finds the closing marker of m for an annotation whose opening marker
// starts at src[pos]. The search examines at most window bytes after the
// opening marker. Markers and separators preceded by an odd number of
// backslashes are skipped.
func Extract(src []byte, pos int, m *Marker, window int) (Span, error) {
	start := pos + len(m.Open)
	if start > len(src) {
		return Span{}, ErrNoClosingMarker
	}
	limit := start + window
	if limit > len(src) {
		limit = len(src)
	}
	i := indexUnescaped(src[start:limit], []byte(m.Close))
	if i < 0 {
		return Span{}, ErrNoClosingMarker
	}
	inner := Range{start, start + i}
	span := Span{Marker: m, End: inner.Stop + len(m.Close)}

	if !m.IsNote() {
		span.Body = inner
		return span, nil
	}
	sep := indexUnescaped(src[inner.Start:inner.Stop], []byte{m.Separator})
	if sep < 0 {
		return Span{}, ErrMissingSeparator
	}
	span.Ref = Range{inner.Start, inner.Start + sep}
	span.Body = Range{span.Ref.Stop + 1, inner.Stop}
	if len(bytes.TrimSpace(src[span.Ref.Start:span.Ref.Stop])) == 0 {
		return Span{}, ErrEmptyReference
	}
	return span, nil
}

// indexUnescaped is bytes.Index that skips matches escaped by a backslash.
func indexUnescaped(s, sep []byte) int {
	off := 0
	for off <= len(s) {
		i := bytes.Index(s[off:], sep)
		if i < 0 {
			return -1
		}
		i += off
		if !escaped(s, i) {
			return i
		}
		off = i + 1
	}
	return -1
}

func escaped(s []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
