package session

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/architect-xyz/logterm/internal/query"
	"github.com/architect-xyz/logterm/internal/tail"
)

// Transport is the minimal duplex text-message channel a session
// needs. How the channel was established (websocket upgrade, test
// pipe) is someone else's business.
type Transport interface {
	// ReadMessage blocks for the next inbound text message.
	ReadMessage() (string, error)
	// WriteMessage sends one outbound text message.
	WriteMessage(msg string) error
}

type cachedQuery struct {
	params LogsParams
	result *query.Result
}

// Session serves one connection. It exclusively owns its tail cursor
// and its single-slot query cache; nothing here is shared between
// connections, so nothing needs a lock.
type Session struct {
	transport Transport
	roots     []string
	log       *zap.Logger

	cache    *cachedQuery
	follower *tail.Follower
}

// New builds a session over an established transport. roots are the
// directories the list method may advertise log files from.
func New(t Transport, roots []string, log *zap.Logger) *Session {
	return &Session{transport: t, roots: roots, log: log}
}

// Run drives the session until the transport closes or fails. Two
// event sources race with fixed priority: an inbound request is
// always handled before a pending file-change notice, so a fresh
// tail-start is never overtaken by a notification for the tail it
// replaces.
//
// A returned error is always a transport failure; protocol-level
// problems are answered in-band and keep the connection open.
func (s *Session) Run() error {
	defer func() {
		if s.follower != nil {
			s.follower.Close()
		}
	}()

	inbound := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(inbound)
		for {
			msg, err := s.transport.ReadMessage()
			if err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	for {
		var notices <-chan tail.Notice
		if s.follower != nil {
			notices = s.follower.Notices()
		}
		select {
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			if err := s.handleMessage(msg); err != nil {
				return err
			}
		default:
			select {
			case msg, ok := <-inbound:
				if !ok {
					return nil
				}
				if err := s.handleMessage(msg); err != nil {
					return err
				}
			case n := <-notices:
				if err := s.handleNotice(n); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Session) handleMessage(msg string) error {
	s.log.Debug("received", zap.String("msg", msg))
	var req Request
	if err := json.Unmarshal([]byte(msg), &req); err != nil {
		return s.respondError(0, CodeParse, fmt.Sprintf("invalid request: %v", err))
	}
	switch req.Method {
	case MethodList:
		return s.handleList(req)
	case MethodLogs:
		return s.handleLogs(req)
	default:
		return s.respondError(req.ID, CodeUnknownMethod, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func (s *Session) handleLogs(req Request) error {
	var p LogsParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.respondError(req.ID, CodeInvalidParams, fmt.Sprintf("invalid logs params: %v", err))
	}
	if p.Cols < 1 {
		return s.respondError(req.ID, CodeInvalidParams, "cols must be at least 1")
	}
	if p.From != nil {
		return s.handleQuery(req.ID, p)
	}
	return s.handleStartTail(req.ID, p)
}

func (s *Session) handleQuery(id uint64, p LogsParams) error {
	// Same view as the last scan: re-range the cached result instead
	// of reading the file again.
	if s.cache != nil && s.cache.params.sameView(p) {
		return s.respond(id, s.cache.result.Range(*p.From, p.To))
	}

	filter, err := compileFilter(p.Filter)
	if err != nil {
		return s.respondError(id, CodeInvalidParams, err.Error())
	}
	res, err := query.Scan(p.LogFile, p.Cols, filter)
	if err != nil {
		return s.respondError(id, CodeInternal, err.Error())
	}
	s.cache = &cachedQuery{params: p, result: res}
	return s.respond(id, res.Range(*p.From, p.To))
}

func (s *Session) handleStartTail(id uint64, p LogsParams) error {
	filter, err := compileFilter(p.Filter)
	if err != nil {
		return s.respondError(id, CodeInvalidParams, err.Error())
	}

	// A new tail replaces any prior one; its watch is released first.
	if s.follower != nil {
		s.follower.Close()
		s.follower = nil
	}
	f, err := tail.Start(p.LogFile, p.Cols, filter, s.log)
	if err != nil {
		return s.respondError(id, CodeInternal, err.Error())
	}
	s.follower = f
	return s.respond(id, TailAck{Watching: true, LogFile: p.LogFile})
}

func (s *Session) handleNotice(n tail.Notice) error {
	if n.Gone {
		return s.endTail()
	}
	rows, err := s.follower.Advance(n.Size)
	if err != nil {
		s.log.Warn("tail read failed, ending tail", zap.Error(err))
		return s.endTail()
	}
	if len(rows) == 0 {
		return nil
	}
	return s.notify(MethodTail, TailParams{DisplayLines: rows})
}

// endTail sends the terminal done notification and leaves the session
// with no tail. Exactly one done is sent per tail; afterwards the
// notice channel is no longer selected on, so a spurious late event
// cannot produce another.
func (s *Session) endTail() error {
	if s.follower == nil {
		return nil
	}
	s.follower.Close()
	s.follower = nil
	return s.notify(MethodDone, struct{}{})
}

func (s *Session) handleList(req Request) error {
	res := ListResult{LogFiles: []string{}}
	for _, root := range s.roots {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".log", ".txt":
				res.LogFiles = append(res.LogFiles, path)
			}
			return nil
		})
	}
	sort.Strings(res.LogFiles)
	return s.respond(req.ID, res)
}

func (s *Session) respond(id uint64, result any) error {
	return s.send(Response{ID: id, Result: result})
}

func (s *Session) respondError(id uint64, code int, message string) error {
	return s.send(Response{ID: id, Error: &Error{Code: code, Message: message}})
}

func (s *Session) notify(method string, params any) error {
	return s.send(Notification{Method: method, Params: params})
}

func (s *Session) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return s.transport.WriteMessage(string(data))
}

func compileFilter(filter *string) (*regexp.Regexp, error) {
	if filter == nil {
		return nil, nil
	}
	re, err := regexp.Compile(*filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %v", err)
	}
	return re, nil
}
