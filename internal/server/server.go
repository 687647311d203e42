// Package server hosts the websocket endpoint. Each accepted
// connection gets its own session actor; the server itself only does
// the HTTP plumbing.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/architect-xyz/logterm/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Server accepts websocket clients and runs one session per
// connection.
type Server struct {
	roots []string
	log   *zap.Logger
	http  *http.Server
}

// New builds a server advertising log files under roots.
func New(roots []string, log *zap.Logger) *Server {
	s := &Server{roots: roots, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.http = &http.Server{Handler: mux}
	return s
}

// ListenAndServe blocks serving bind until ctx is cancelled or the
// listener fails.
func (s *Server) ListenAndServe(ctx context.Context, bind string) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve blocks serving an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Info("client connected")

	defer conn.Close()
	sess := session.New(&wsTransport{conn: conn}, s.roots, log)
	if err := sess.Run(); err != nil {
		log.Warn("session ended with error", zap.Error(err))
		return
	}
	log.Info("client disconnected")
}

// wsTransport adapts a gorilla websocket connection to the session's
// text-message channel. Reads skip non-text frames; control frames
// are already handled inside ReadMessage.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadMessage() (string, error) {
	for {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if mt == websocket.TextMessage {
			return string(data), nil
		}
	}
}

func (t *wsTransport) WriteMessage(msg string) error {
	return t.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}
