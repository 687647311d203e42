package logformat

import (
	"fmt"
	"regexp"
	"time"
)

// Header holds the structured fields extracted from a log line prefix.
// Spans covers the header text exactly, in order: bracket, timestamp,
// separator, level token, separator, target, bracket.
type Header struct {
	Spans []Span
	Time  time.Time
	Level Level
}

// headerPattern is the one fixed grammar this parser knows:
// "[" ISO-8601 timestamp, whitespace, level token, whitespace,
// target up to "]", "]". Anything else is treated as plain text.
var headerPattern = regexp.MustCompile(
	`^(\[)` +
		`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)` +
		`(\s+)` +
		`(ERROR|WARN|INFO|DEBUG|TRACE)` +
		`(\s+)` +
		`([^\]]*)` +
		`(\])`)

// ParseLine attempts to split a raw line (no trailing newline) into a
// structured header and the residual text after it.
//
// This is a best-effort heuristic, not a validator: any grammar
// deviation yields a nil header and the whole line as residual text.
// A line that matches the grammar but whose timestamp fails conversion
// is unexpected and returns a hard error for the caller to handle.
func ParseLine(line string) (*Header, string, error) {
	m := headerPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil, line, nil
	}
	group := func(i int) string { return line[m[2*i]:m[2*i+1]] }

	ts, err := time.Parse(time.RFC3339Nano, group(2))
	if err != nil {
		// A zoneless timestamp is still valid ISO-8601; read it as UTC.
		ts, err = time.Parse("2006-01-02T15:04:05.999999999", group(2))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q", ErrBadTimestamp, group(2))
		}
	}
	level, ok := ParseLevel(group(4))
	if !ok {
		// unreachable: the pattern only admits known tokens
		return nil, line, nil
	}

	h := &Header{
		Spans: []Span{
			{Text: group(1), Label: LabelNoise},
			{Text: group(2), Label: LabelTimestamp},
			{Text: group(3), Label: LabelNoise},
			{Text: group(4), Label: LabelLevel},
			{Text: group(5), Label: LabelNoise},
			{Text: group(6), Label: LabelTarget},
			{Text: group(7), Label: LabelNoise},
		},
		Time:  ts.UTC(),
		Level: level,
	}
	return h, line[m[1]:], nil
}

// ParseLogLine runs the full per-line pipeline: header parse, filter
// matching and width-aware wrapping. It returns the wrapped rows for
// one logical line, or ok=false when the filter rejected the line
// (no rows, and the line must not count toward display totals).
func ParseLogLine(lln, cols int, line string, filter *regexp.Regexp) ([]DisplayLine, bool, error) {
	header, rest, err := ParseLine(line)
	if err != nil {
		return nil, false, err
	}

	rem, ok := MatchSpans(rest, filter)
	if !ok {
		return nil, false, nil
	}

	b := NewBuilder(lln, cols)
	if header != nil {
		b.SetHeader(header.Time, header.Level)
		for _, s := range header.Spans {
			if err := b.PushSpan(s); err != nil {
				return nil, false, err
			}
		}
	}
	for _, s := range rem {
		if err := b.PushSpan(s); err != nil {
			return nil, false, err
		}
	}
	return b.Build(), true, nil
}
