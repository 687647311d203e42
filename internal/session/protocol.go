// Package session speaks the per-connection request/response/
// notification protocol and owns all per-connection state: the query
// cache and the active tail.
package session

import (
	"encoding/json"

	"github.com/architect-xyz/logterm/pkg/logformat"
)

// Protocol methods. A client sends list and logs requests; the server
// pushes tail and done notifications.
const (
	MethodList = "list"
	MethodLogs = "logs"
	MethodTail = "tail"
	MethodDone = "done"
)

// Error codes, borrowed from JSON-RPC conventions. This is not a
// conforming JSON-RPC endpoint; the shapes just rhyme with it.
const (
	CodeParse         = -32700
	CodeUnknownMethod = -32601
	CodeInvalidParams = -32602
	CodeInternal      = -32000
)

// Request is a client envelope. Params stays raw until the method is
// known.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response answers exactly one request, echoing its id. Exactly one
// of Result and Error is set.
type Response struct {
	ID     uint64 `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// Notification is a server-initiated envelope with no id.
type Notification struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// Error carries a protocol-level failure back to the client without
// closing the connection.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// LogsParams selects a file view. A present From makes the request a
// one-shot range query; an absent From attaches a tail instead.
type LogsParams struct {
	Cols    int     `json:"cols"`
	Filter  *string `json:"filter,omitempty"`
	LogFile string  `json:"log_file"`
	From    *int    `json:"from,omitempty"`
	To      *int    `json:"to,omitempty"`
}

// sameView reports whether two requests describe the same scan: same
// columns, same filter, same file. Row ranges are not part of the
// view, which is what makes the cache useful for scrolling.
func (p LogsParams) sameView(q LogsParams) bool {
	if p.Cols != q.Cols || p.LogFile != q.LogFile {
		return false
	}
	if (p.Filter == nil) != (q.Filter == nil) {
		return false
	}
	return p.Filter == nil || *p.Filter == *q.Filter
}

// TailParams is the payload of a tail notification.
type TailParams struct {
	DisplayLines []logformat.DisplayLine `json:"display_lines"`
}

// TailAck acknowledges that a watch is established.
type TailAck struct {
	Watching bool   `json:"watching"`
	LogFile  string `json:"log_file"`
}

// ListResult names the log files available under the server's roots.
type ListResult struct {
	LogFiles []string `json:"log_files"`
}
