package logformat

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLine = "[2024-02-25T20:49:42Z TRACE s8] Petersburg, used only by the elite"

// melt joins the rows back into plain text, one row per line.
func melt(lines []DisplayLine) string {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.Text()
	}
	return strings.Join(rows, "\n")
}

func TestParseLineHeader(t *testing.T) {
	header, rest, err := ParseLine(sampleLine)
	require.NoError(t, err)
	require.NotNil(t, header)

	assert.Equal(t, " Petersburg, used only by the elite", rest)
	assert.Equal(t, LevelTrace, header.Level)
	want := time.Date(2024, 2, 25, 20, 49, 42, 0, time.UTC)
	assert.True(t, header.Time.Equal(want), "got %v", header.Time)
	assert.Equal(t, []Span{
		{"[", LabelNoise},
		{"2024-02-25T20:49:42Z", LabelTimestamp},
		{" ", LabelNoise},
		{"TRACE", LabelLevel},
		{" ", LabelNoise},
		{"s8", LabelTarget},
		{"]", LabelNoise},
	}, header.Spans)
}

func TestParseLineOffsetNormalizedToUTC(t *testing.T) {
	header, _, err := ParseLine("[2024-02-25T22:49:42+02:00 INFO db] ok")
	require.NoError(t, err)
	require.NotNil(t, header)
	want := time.Date(2024, 2, 25, 20, 49, 42, 0, time.UTC)
	assert.True(t, header.Time.Equal(want), "got %v", header.Time)
	assert.Equal(t, time.UTC, header.Time.Location())
}

func TestParseLineZonelessTimestampIsUTC(t *testing.T) {
	for _, tc := range []struct {
		line string
		want time.Time
	}{
		{"[2024-02-25T20:49:42 INFO db] ok",
			time.Date(2024, 2, 25, 20, 49, 42, 0, time.UTC)},
		{"[2024-02-25T20:49:42.125 INFO db] ok",
			time.Date(2024, 2, 25, 20, 49, 42, 125000000, time.UTC)},
	} {
		header, rest, err := ParseLine(tc.line)
		require.NoError(t, err, "line %q", tc.line)
		require.NotNil(t, header, "line %q", tc.line)
		assert.Equal(t, " ok", rest)
		assert.True(t, header.Time.Equal(tc.want), "got %v", header.Time)
		assert.Equal(t, time.UTC, header.Time.Location())
	}
}

func TestParseLineNoMatch(t *testing.T) {
	for _, line := range []string{
		"",
		"no header at all",
		"[2024-02-25 20:49:42 INFO x] space instead of T",
		"[2024-02-25T20:49:42Z WARNING x] unknown level token",
		"[2024-02-25T20:49:42Z INFO unterminated",
		"(2024-02-25T20:49:42Z INFO x) wrong brackets",
	} {
		header, rest, err := ParseLine(line)
		require.NoError(t, err, "line %q", line)
		assert.Nil(t, header, "line %q", line)
		assert.Equal(t, line, rest, "line %q", line)
	}
}

func TestParseLineBadTimestampIsHardError(t *testing.T) {
	_, _, err := ParseLine("[2024-13-45T25:61:61Z INFO x] boom")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadTimestamp)
}

func TestParseLogLineUnwrapped(t *testing.T) {
	lines, ok, err := ParseLogLine(0, 80, sampleLine, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, 0, line.Lln)
	require.NotNil(t, line.Level)
	assert.Equal(t, LevelTrace, *line.Level)
	require.NotNil(t, line.Time)
	assert.Equal(t, sampleLine, line.Text())
	assert.Equal(t, Span{" Petersburg, used only by the elite", LabelText}, line.Spans[len(line.Spans)-1])
}

func TestParseLogLineSoftBreak(t *testing.T) {
	lines, ok, err := ParseLogLine(0, 100, sampleLine, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleLine, melt(lines))

	lines, ok, err = ParseLogLine(0, 40, sampleLine, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strings.Join([]string{
		"[2024-02-25T20:49:42Z TRACE s8] ",
		"Petersburg, used only by the elite",
	}, "\n"), melt(lines))
}

func TestParseLogLineOneColumn(t *testing.T) {
	lines, ok, err := ParseLogLine(0, 1, sampleLine, nil)
	require.NoError(t, err)
	require.True(t, ok)

	var chars []string
	for _, r := range sampleLine {
		chars = append(chars, string(r))
	}
	assert.Equal(t, strings.Join(chars, "\n"), melt(lines))
}

// Wrapping must not blow the stack at any width.
func TestParseLogLineAllWidths(t *testing.T) {
	for cols := 1; cols <= 100; cols++ {
		_, _, err := ParseLogLine(0, cols, sampleLine, nil)
		require.NoError(t, err, "cols=%d", cols)
	}
}

func TestParseLogLineSharedRowMetadata(t *testing.T) {
	lines, ok, err := ParseLogLine(7, 10, sampleLine, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.Equal(t, 7, l.Lln)
		require.NotNil(t, l.Level)
		assert.Equal(t, LevelTrace, *l.Level)
		require.NotNil(t, l.Time)
	}
}

func TestParseLogLineFiltered(t *testing.T) {
	lines, ok, err := ParseLogLine(0, 40, sampleLine, regexp.MustCompile("nowhere"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, lines)

	// The filter only sees residual text, not the header.
	_, ok, err = ParseLogLine(0, 40, sampleLine, regexp.MustCompile("TRACE"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseLogLineFilterSpans(t *testing.T) {
	lines, ok, err := ParseLogLine(0, 200, sampleLine, regexp.MustCompile("elite"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, lines, 1)

	spans := lines[0].Spans
	assert.Equal(t, Span{"elite", LabelTextMatch}, spans[len(spans)-1])
	assert.Equal(t, sampleLine, lines[0].Text())
}

func TestLevelCodes(t *testing.T) {
	assert.Equal(t, Level(0), LevelError)
	assert.Equal(t, Level(4), LevelTrace)
	for _, tok := range []string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"} {
		level, ok := ParseLevel(tok)
		require.True(t, ok)
		assert.Equal(t, tok, level.String())
	}
	_, ok := ParseLevel("FATAL")
	assert.False(t, ok)
}
