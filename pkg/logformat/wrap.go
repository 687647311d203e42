package logformat

import (
	"fmt"
	"time"

	"github.com/rivo/uniseg"
)

// Builder accumulates spans into display rows bounded by a fixed
// column width. Grapheme clusters are the atomic unit: a row never
// splits inside one. Wrapping prefers a soft break at an interior
// space and falls back to a hard break at an exact cluster boundary.
type Builder struct {
	lln   int
	level *Level
	time  *time.Time

	spans    []Span
	cumWidth int
	lines    []DisplayLine
	cols     int
}

// NewBuilder returns a builder for one logical line.
func NewBuilder(lln, cols int) *Builder {
	return &Builder{lln: lln, cols: cols}
}

// SetHeader records the parsed timestamp and level carried by every
// row built from this logical line.
func (b *Builder) SetHeader(ts time.Time, level Level) {
	b.time = &ts
	b.level = &level
}

// Build flushes any partially accumulated row and returns the rows.
func (b *Builder) Build() []DisplayLine {
	if len(b.spans) > 0 {
		b.pushLine()
	}
	return b.lines
}

func (b *Builder) pushLine() {
	b.lines = append(b.lines, DisplayLine{
		Lln:   b.lln,
		Level: b.level,
		Time:  b.time,
		Spans: b.spans,
	})
	b.spans = nil
	b.cumWidth = 0
}

// PushSpan places a span, wrapping as needed. The natural recursive
// formulation explodes on pathological input, so this runs an explicit
// work stack instead: every step either places text or shortens what
// remains to place, so iterations are bounded by the span's grapheme
// count.
func (b *Builder) PushSpan(span Span) error {
	if b.cols < 1 {
		return fmt.Errorf("wrap to %d columns: %w", b.cols, ErrNoFit)
	}

	// Splits never add graphemes, so this bounds total work.
	budget := 4 * (uniseg.GraphemeClusterCount(span.Text) + 1)

	stack := []Span{span}
	for len(stack) > 0 {
		if budget--; budget < 0 {
			return fmt.Errorf("wrap stalled at %d columns: %w", b.cols, ErrNoFit)
		}
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.Text == "" {
			continue
		}

		w := width(s.Text)
		if b.cumWidth+w <= b.cols {
			b.spans = append(b.spans, s)
			b.cumWidth += w
			if b.cumWidth == b.cols {
				b.pushLine()
			}
			continue
		}

		// Too wide for what remains of the row.
		if l, ws, r, ok := s.splitSoftOnce(); ok {
			// Re-push all three parts; the right remainder starts a
			// fresh row naturally if it still doesn't fit.
			stack = append(stack, r, ws, l)
			continue
		}
		if w > b.cols {
			// No soft break and wider than a whole row: hard break at
			// the cluster boundary that fills the remaining width.
			l, r, err := s.splitAt(b.cols - b.cumWidth)
			if err != nil {
				return err
			}
			b.spans = append(b.spans, l)
			b.pushLine()
			stack = append(stack, r)
			continue
		}
		// Fits on a row of its own; close this one and retry.
		b.pushLine()
		stack = append(stack, s)
	}
	return nil
}
