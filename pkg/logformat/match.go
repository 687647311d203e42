package logformat

import "regexp"

// MatchSpans labels residual text against an optional filter.
//
// Without a filter the whole text becomes one plain span. With a
// filter, every match becomes a text_match span and every non-empty
// gap between and around matches a text span, covering the input
// exactly in left-to-right order. ok is false when the filter is set
// and matches nowhere; the caller must then drop the whole line.
func MatchSpans(text string, filter *regexp.Regexp) ([]Span, bool) {
	if filter == nil {
		return []Span{{Text: text, Label: LabelText}}, true
	}

	matches := filter.FindAllStringIndex(text, -1)
	if matches == nil {
		return nil, false
	}

	var spans []Span
	last := 0
	for _, m := range matches {
		if m[0] > last {
			spans = append(spans, Span{Text: text[last:m[0]], Label: LabelText})
		}
		spans = append(spans, Span{Text: text[m[0]:m[1]], Label: LabelTextMatch})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:], Label: LabelText})
	}
	return spans, true
}
