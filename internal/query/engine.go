// Package query scans a whole log file into wrapped display lines.
package query

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/architect-xyz/logterm/pkg/logformat"
)

const (
	scannerInitial = 64 * 1024
	scannerMax     = 1024 * 1024
)

// Result is the full ordered output of one file scan, plus the row
// offset a sub-range began at.
type Result struct {
	TotalDisplayLines int                     `json:"total_display_lines"`
	DisplayLines      []logformat.DisplayLine `json:"display_lines"`
	RowOffset         int                     `json:"row_offset"`
}

// Scan opens and fully reads the file once, running the parse, filter
// and wrap pipeline per line in file order. The returned result has
// RowOffset 0; use Range to select a sub-sequence.
//
// Lines whose residual text fails the filter contribute no display
// lines and do not count toward the total.
func Scan(path string, cols int, filter *regexp.Regexp) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	// Wire shape: display_lines is always an array, never null.
	res := &Result{DisplayLines: []logformat.DisplayLine{}}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, scannerInitial), scannerMax)
	lln := 0
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("line %d of %s is not valid UTF-8", lln, path)
		}
		rows, ok, err := logformat.ParseLogLine(lln, cols, line, filter)
		if err != nil {
			return nil, fmt.Errorf("line %d of %s: %w", lln, path, err)
		}
		if ok {
			res.TotalDisplayLines += len(rows)
			res.DisplayLines = append(res.DisplayLines, rows...)
		}
		lln++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return res, nil
}

// Range returns the display rows in the half-open range [from, to),
// clamped to what exists. A nil to means "through the end". RowOffset
// records the clamped start so callers can re-range a cached result.
func (r *Result) Range(from int, to *int) *Result {
	end := len(r.DisplayLines)
	if to != nil {
		end = *to
	}
	start := clamp(from, 0, len(r.DisplayLines))
	end = clamp(end, 0, len(r.DisplayLines))
	if end < start {
		end = start
	}
	return &Result{
		TotalDisplayLines: r.TotalDisplayLines,
		DisplayLines:      r.DisplayLines[start:end],
		RowOffset:         start,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
