package session

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/architect-xyz/logterm/internal/query"
)

// pipeTransport is an in-memory Transport for driving a session from
// a test.
type pipeTransport struct {
	in  chan string
	out chan string
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{in: make(chan string, 16), out: make(chan string, 16)}
}

func (p *pipeTransport) ReadMessage() (string, error) {
	msg, ok := <-p.in
	if !ok {
		return "", io.EOF
	}
	return msg, nil
}

func (p *pipeTransport) WriteMessage(msg string) error {
	p.out <- msg
	return nil
}

func startSession(t *testing.T, roots ...string) (*pipeTransport, chan error) {
	t.Helper()
	tr := newPipeTransport()
	s := New(tr, roots, zaptest.NewLogger(t))
	errs := make(chan error, 1)
	go func() { errs <- s.Run() }()
	t.Cleanup(func() {
		close(tr.in)
		select {
		case err := <-errs:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("session did not stop")
		}
	})
	return tr, errs
}

func recv(t *testing.T, tr *pipeTransport) map[string]json.RawMessage {
	t.Helper()
	select {
	case msg := <-tr.out:
		var env map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(msg), &env))
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("no message from session")
		return nil
	}
}

func recvResponse(t *testing.T, tr *pipeTransport) (uint64, json.RawMessage, *Error) {
	t.Helper()
	env := recv(t, tr)
	var id uint64
	require.NoError(t, json.Unmarshal(env["id"], &id))
	var protoErr *Error
	if raw, ok := env["error"]; ok {
		protoErr = &Error{}
		require.NoError(t, json.Unmarshal(raw, protoErr))
	}
	return id, env["result"], protoErr
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestSessionQuery(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "q.log", "alpha\nbeta\ngamma\n")
	tr, _ := startSession(t)

	tr.in <- `{"id":7,"method":"logs","params":{"cols":80,"log_file":"` + path + `","from":0}}`
	id, rawResult, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)
	assert.Equal(t, uint64(7), id)

	var res query.Result
	require.NoError(t, json.Unmarshal(rawResult, &res))
	assert.Equal(t, 3, res.TotalDisplayLines)
	assert.Equal(t, 0, res.RowOffset)
	require.Len(t, res.DisplayLines, 3)
	assert.Equal(t, "beta", res.DisplayLines[1].Text())

	// The wire shape is field-exact.
	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rawResult, &shape))
	for _, key := range []string{"total_display_lines", "display_lines", "row_offset"} {
		assert.Contains(t, shape, key)
	}
	var rows []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(shape["display_lines"], &rows))
	for _, key := range []string{"lln", "ll", "ts", "spans"} {
		assert.Contains(t, rows[0], key)
	}
}

func TestSessionQueryCacheReRange(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "cache.log", "one\ntwo\nthree\n")
	tr, _ := startSession(t)

	tr.in <- `{"id":1,"method":"logs","params":{"cols":80,"log_file":"` + path + `","from":0}}`
	_, rawResult, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)
	var first query.Result
	require.NoError(t, json.Unmarshal(rawResult, &first))
	require.Equal(t, 3, first.TotalDisplayLines)

	// Grow the file. A same-view re-range must come from the cache:
	// same totals, no rescan.
	appendLog(t, path, "four\n")
	tr.in <- `{"id":2,"method":"logs","params":{"cols":80,"log_file":"` + path + `","from":1,"to":2}}`
	id, rawResult, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)
	assert.Equal(t, uint64(2), id)
	var ranged query.Result
	require.NoError(t, json.Unmarshal(rawResult, &ranged))
	assert.Equal(t, 3, ranged.TotalDisplayLines)
	assert.Equal(t, 1, ranged.RowOffset)
	require.Len(t, ranged.DisplayLines, 1)
	assert.Equal(t, "two", ranged.DisplayLines[0].Text())

	// Changing the view rescans and replaces the cache.
	tr.in <- `{"id":3,"method":"logs","params":{"cols":40,"log_file":"` + path + `","from":0}}`
	_, rawResult, protoErr = recvResponse(t, tr)
	require.Nil(t, protoErr)
	var fresh query.Result
	require.NoError(t, json.Unmarshal(rawResult, &fresh))
	assert.Equal(t, 4, fresh.TotalDisplayLines)
}

func TestSessionErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "e.log", "line\n")
	tr, _ := startSession(t)

	tr.in <- `not json at all`
	id, _, protoErr := recvResponse(t, tr)
	assert.Equal(t, uint64(0), id)
	require.NotNil(t, protoErr)
	assert.Equal(t, CodeParse, protoErr.Code)

	tr.in <- `{"id":4,"method":"nope","params":{}}`
	id, _, protoErr = recvResponse(t, tr)
	assert.Equal(t, uint64(4), id)
	require.NotNil(t, protoErr)
	assert.Equal(t, CodeUnknownMethod, protoErr.Code)

	tr.in <- `{"id":5,"method":"logs","params":{"cols":80,"log_file":"` + path + `","from":0,"filter":"(["}}`
	id, _, protoErr = recvResponse(t, tr)
	assert.Equal(t, uint64(5), id)
	require.NotNil(t, protoErr)
	assert.Equal(t, CodeInvalidParams, protoErr.Code)

	tr.in <- `{"id":6,"method":"logs","params":{"cols":0,"log_file":"` + path + `","from":0}}`
	_, _, protoErr = recvResponse(t, tr)
	require.NotNil(t, protoErr)
	assert.Equal(t, CodeInvalidParams, protoErr.Code)

	missing := filepath.Join(dir, "missing.log")
	tr.in <- `{"id":8,"method":"logs","params":{"cols":80,"log_file":"` + missing + `","from":0}}`
	id, _, protoErr = recvResponse(t, tr)
	assert.Equal(t, uint64(8), id)
	require.NotNil(t, protoErr)
	assert.Equal(t, CodeInternal, protoErr.Code)
}

func TestSessionFilterGatesQuery(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "f.log", "keep one\ndrop two\nkeep three\n")
	tr, _ := startSession(t)

	tr.in <- `{"id":1,"method":"logs","params":{"cols":80,"filter":"keep","log_file":"` + path + `","from":0}}`
	_, rawResult, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)
	var res query.Result
	require.NoError(t, json.Unmarshal(rawResult, &res))
	assert.Equal(t, 2, res.TotalDisplayLines)
}

func TestSessionList(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a.log", "")
	writeLog(t, dir, "b.txt", "")
	writeLog(t, dir, "c.conf", "")
	tr, _ := startSession(t, dir)

	tr.in <- `{"id":1,"method":"list","params":{}}`
	_, rawResult, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)
	var res ListResult
	require.NoError(t, json.Unmarshal(rawResult, &res))
	assert.Equal(t, []string{
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "b.txt"),
	}, res.LogFiles)
}

func TestSessionTail(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "t.log", "abc\n")
	tr, _ := startSession(t)

	tr.in <- `{"id":1,"method":"logs","params":{"cols":80,"log_file":"` + path + `"}}`
	id, rawResult, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)
	assert.Equal(t, uint64(1), id)
	var ack TailAck
	require.NoError(t, json.Unmarshal(rawResult, &ack))
	assert.True(t, ack.Watching)

	// Content already in the file replays from byte 0.
	env := recv(t, tr)
	var method string
	require.NoError(t, json.Unmarshal(env["method"], &method))
	require.Equal(t, MethodTail, method)
	var params TailParams
	require.NoError(t, json.Unmarshal(env["params"], &params))
	require.Len(t, params.DisplayLines, 1)
	assert.Equal(t, "abc", params.DisplayLines[0].Text())
	assert.Equal(t, 0, params.DisplayLines[0].Lln)

	// New growth streams incrementally with advancing line numbers.
	appendLog(t, path, "def\n")
	env = recv(t, tr)
	require.NoError(t, json.Unmarshal(env["method"], &method))
	require.Equal(t, MethodTail, method)
	require.NoError(t, json.Unmarshal(env["params"], &params))
	require.NotEmpty(t, params.DisplayLines)
	assert.Equal(t, "def", params.DisplayLines[0].Text())
	assert.Equal(t, 1, params.DisplayLines[0].Lln)

	// Removing the file ends the tail with exactly one done.
	require.NoError(t, os.Remove(path))
	env = recv(t, tr)
	require.NoError(t, json.Unmarshal(env["method"], &method))
	assert.Equal(t, MethodDone, method)

	select {
	case msg := <-tr.out:
		t.Fatalf("unexpected message after done: %s", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionTailReplaced(t *testing.T) {
	dir := t.TempDir()
	first := writeLog(t, dir, "first.log", "")
	second := writeLog(t, dir, "second.log", "")
	tr, _ := startSession(t)

	tr.in <- `{"id":1,"method":"logs","params":{"cols":80,"log_file":"` + first + `"}}`
	_, _, protoErr := recvResponse(t, tr)
	require.Nil(t, protoErr)

	tr.in <- `{"id":2,"method":"logs","params":{"cols":80,"log_file":"` + second + `"}}`
	_, _, protoErr = recvResponse(t, tr)
	require.Nil(t, protoErr)

	// The first tail's watch was released; only the second streams.
	appendLog(t, first, "stale\n")
	appendLog(t, second, "fresh\n")
	env := recv(t, tr)
	var method string
	require.NoError(t, json.Unmarshal(env["method"], &method))
	require.Equal(t, MethodTail, method)
	var params TailParams
	require.NoError(t, json.Unmarshal(env["params"], &params))
	require.NotEmpty(t, params.DisplayLines)
	assert.Equal(t, "fresh", params.DisplayLines[0].Text())
}

func TestSessionTailStartMissingFile(t *testing.T) {
	dir := t.TempDir()
	tr, _ := startSession(t)
	missing := filepath.Join(dir, "missing.log")
	tr.in <- `{"id":9,"method":"logs","params":{"cols":80,"log_file":"` + missing + `"}}`
	id, _, protoErr := recvResponse(t, tr)
	assert.Equal(t, uint64(9), id)
	require.NotNil(t, protoErr)
	assert.Equal(t, CodeInternal, protoErr.Code)
}
