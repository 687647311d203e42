package logformat

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// SpanLabel classifies a span for presentation. Labels are purely
// cosmetic metadata; concatenating span texts always reconstructs the
// wrapped line content exactly.
type SpanLabel string

const (
	LabelNoise     SpanLabel = "noise"
	LabelTimestamp SpanLabel = "timestamp"
	LabelLevel     SpanLabel = "level"
	LabelTarget    SpanLabel = "target"
	LabelText      SpanLabel = "text"
	LabelTextMatch SpanLabel = "text_match"
)

// Span is a labeled contiguous text fragment within a display line.
type Span struct {
	Text  string    `json:"text"`
	Label SpanLabel `json:"label"`
}

// DisplayLine is one visually wrapped row of a logical input line.
// All rows wrapped from the same input line share Lln, Level and Time.
type DisplayLine struct {
	Lln   int        `json:"lln"`
	Level *Level     `json:"ll"`
	Time  *time.Time `json:"ts"`
	Spans []Span     `json:"spans"`
}

// Text concatenates the span texts of the row.
func (d DisplayLine) Text() string {
	var b strings.Builder
	for _, s := range d.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// width returns the display cell width of s, counting wide glyphs as
// their visual width and grapheme clusters as atomic units.
func width(s string) int {
	return uniseg.StringWidth(s)
}

// splitSoftOnce splits the span at its first interior space into
// (left, space, right). ok is false when the span contains no space.
func (s Span) splitSoftOnce() (l, w, r Span, ok bool) {
	left, right, found := strings.Cut(s.Text, " ")
	if !found {
		return Span{}, Span{}, Span{}, false
	}
	return Span{Text: left, Label: s.Label},
		Span{Text: " ", Label: s.Label},
		Span{Text: right, Label: s.Label},
		true
}

// splitAt cuts the span at the last grapheme cluster boundary whose
// left side still fits in cells. The cut never exceeds the budget; if
// not even the first cluster fits, the split fails with ErrNoFit since
// splitting inside a cluster is undefined.
func (s Span) splitAt(cells int) (Span, Span, error) {
	used := 0
	cut := 0
	g := uniseg.NewGraphemes(s.Text)
	for g.Next() {
		if used+g.Width() > cells {
			break
		}
		used += g.Width()
		_, cut = g.Positions()
	}
	if cut == 0 {
		return Span{}, Span{}, fmt.Errorf("break span to width %d: %w", cells, ErrNoFit)
	}
	return Span{Text: s.Text[:cut], Label: s.Label},
		Span{Text: s.Text[cut:], Label: s.Label},
		nil
}
