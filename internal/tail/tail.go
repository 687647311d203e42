package tail

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/architect-xyz/logterm/pkg/logformat"
)

// Follower is the incremental counterpart of a full file scan. It
// keeps a byte cursor and a logical line counter, and on each growth
// notice parses only the newly completed lines.
//
// The cursor always sits on a line boundary already fully consumed,
// never mid-line, and both counters only ever move forward. A file
// that shrinks (truncation, rewrite in place) is deliberately left
// alone: nothing is emitted until it grows past the cursor again.
// Detecting non-append mutations is an open problem upstream of this
// type, not something it guesses at.
type Follower struct {
	path   string
	cols   int
	filter *regexp.Regexp

	pos       int64
	linesRead int

	watcher *Watcher
}

// NewFollower returns a detached follower with its cursor at the
// start of the file. Advance drives it; no watch is established.
func NewFollower(path string, cols int, filter *regexp.Regexp) *Follower {
	return &Follower{path: path, cols: cols, filter: filter}
}

// Start attaches a follower to the file and begins watching it for
// growth. The initial cursor is byte 0, so the first notice replays
// everything already written.
func Start(path string, cols int, filter *regexp.Regexp, log *zap.Logger) (*Follower, error) {
	w, err := Watch(path, log)
	if err != nil {
		return nil, err
	}
	f := NewFollower(path, cols, filter)
	f.watcher = w
	return f, nil
}

// Notices exposes the watcher's channel, or nil for a detached
// follower.
func (f *Follower) Notices() <-chan Notice {
	if f.watcher == nil {
		return nil
	}
	return f.watcher.Notices()
}

// Position returns the byte offset of the cursor.
func (f *Follower) Position() int64 {
	return f.pos
}

// LinesRead returns how many logical lines have been consumed.
func (f *Follower) LinesRead() int {
	return f.linesRead
}

// Close releases the watch, if any.
func (f *Follower) Close() error {
	if f.watcher == nil {
		return nil
	}
	return f.watcher.Close()
}

// Advance reads everything between the cursor and the end of the file
// and returns the display rows of the newly completed lines, in
// order. A trailing partial line is left unconsumed (the cursor stays
// before it) and is picked up whole on a later call.
//
// Logical line numbers advance once per completed line even when the
// filter suppresses its rows, so numbering matches the file.
func (f *Follower) Advance(size int64) ([]logformat.DisplayLine, error) {
	if size <= f.pos {
		return nil, nil
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", f.path, err)
	}
	defer file.Close()
	if _, err := file.Seek(f.pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", f.path, err)
	}
	buf, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var rows []logformat.DisplayLine
	for {
		nl := bytes.IndexByte(buf, '\n')
		if nl < 0 {
			break
		}
		raw := buf[:nl+1]
		buf = buf[nl+1:]

		line := string(bytes.TrimSuffix(bytes.TrimSuffix(raw, []byte("\n")), []byte("\r")))
		if !utf8.ValidString(line) {
			return rows, fmt.Errorf("line %d of %s is not valid UTF-8", f.linesRead, f.path)
		}
		parsed, ok, err := logformat.ParseLogLine(f.linesRead, f.cols, line, f.filter)
		if err != nil {
			return rows, fmt.Errorf("line %d of %s: %w", f.linesRead, f.path, err)
		}
		if ok {
			rows = append(rows, parsed...)
		}
		f.pos += int64(len(raw))
		f.linesRead++
	}
	return rows, nil
}
