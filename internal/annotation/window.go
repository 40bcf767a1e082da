package annotation

import (
	"github.com/yuin/goldmark/text"
)

// window is a flattened copy of the paragraph lines ahead of the reader.
// Offsets into buf are mapped back to source segments and reader positions.
type window struct {
	buf   []byte
	lines []windowLine
}

type windowLine struct {
	index int          // reader line index
	pos   text.Segment // reader position at the first byte of the line
	start int          // source offset of buf[off]
	pad   int          // leading padding bytes that have no source
	off   int          // offset of the line in buf
}

// readWindow copies lines from the reader until at least size bytes are
// buffered or the paragraph ends. The reader position is restored.
func readWindow(block text.Reader, size int) *window {
	savedLine, savedPos := block.Position()
	defer block.SetPosition(savedLine, savedPos)

	w := &window{}
	for len(w.buf) < size {
		line, seg := block.PeekLine()
		if line == nil {
			break
		}
		idx, pos := block.Position()
		w.lines = append(w.lines, windowLine{
			index: idx,
			pos:   pos,
			start: seg.Start - seg.Padding,
			pad:   seg.Padding,
			off:   len(w.buf),
		})
		w.buf = append(w.buf, line...)
		block.AdvanceLine()
	}
	return w
}

func (w *window) lineEnd(i int) int {
	if i+1 < len(w.lines) {
		return w.lines[i+1].off
	}
	return len(w.buf)
}

// segments maps a buf range to source segments, one per line touched.
func (w *window) segments(r Range) []text.Segment {
	var out []text.Segment
	for i, l := range w.lines {
		a := max(r.Start, l.off+l.pad)
		b := min(r.Stop, w.lineEnd(i))
		if a >= b {
			continue
		}
		out = append(out, text.NewSegment(l.start+a-l.off, l.start+b-l.off))
	}
	return out
}

// source returns the absolute source offset of a buf offset.
func (w *window) source(off int) int {
	l := w.lines[w.lineAt(off)]
	return l.start + off - l.off
}

func (w *window) lineAt(off int) int {
	i := 0
	for i+1 < len(w.lines) && w.lines[i+1].off <= off {
		i++
	}
	return i
}

// advance moves the reader to buf offset off.
func (w *window) advance(block text.Reader, off int) {
	i := w.lineAt(off)
	l := w.lines[i]
	block.SetPosition(l.index, l.pos)
	block.Advance(off - l.off)
}
