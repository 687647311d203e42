package logformat

import "errors"

var (
	// ErrNoFit reports a column budget too small to place even a single
	// grapheme cluster; sub-glyph splitting is undefined.
	ErrNoFit = errors.New("column width cannot fit a grapheme cluster")

	// ErrBadTimestamp reports a line whose header matched the grammar
	// but whose timestamp failed to convert.
	ErrBadTimestamp = errors.New("header timestamp failed to convert")
)
