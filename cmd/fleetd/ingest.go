package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skycoord/fleet/internal/dispatcher"
)

// ingestMessage is one command frame from a ground station link.
type ingestMessage struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// ingestReply is the per-command response frame.
type ingestReply struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ingestServer accepts websocket connections from ground stations and
// feeds their command frames into the dispatcher.
type ingestServer struct {
	disp     *dispatcher.Dispatcher
	log      *slog.Logger
	srv      *http.Server
	upgrader websocket.Upgrader
}

func newIngestServer(addr string, disp *dispatcher.Dispatcher, log *slog.Logger) *ingestServer {
	s := &ingestServer{
		disp: disp,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthcheck", s.handleHealthcheck)
	mux.HandleFunc("/ingest", s.handleIngest)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *ingestServer) Start() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ingestServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *ingestServer) handleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *ingestServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrading ingest connection", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.log.Info("ground station connected", "remote", conn.RemoteAddr().String())

	defer func() {
		conn.Close()
		s.log.Info("ground station disconnected", "remote", conn.RemoteAddr().String())
	}()

	for {
		var msg ingestMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Error("reading ingest frame", "error", err)
			}
			return
		}
		if msg.Command == "" {
			s.writeReply(conn, ingestReply{OK: false, Error: "missing command"})
			continue
		}
		if !s.disp.HasHandler(msg.Command) {
			s.writeReply(conn, ingestReply{
				Command: msg.Command,
				OK:      false,
				Error:   "unknown command",
			})
			continue
		}

		result, err := s.disp.Dispatch(dispatcher.Event{
			Command:   msg.Command,
			Args:      msg.Args,
			Timestamp: time.Now(),
		})
		reply := ingestReply{Command: msg.Command, OK: err == nil}
		if err != nil {
			reply.Error = err.Error()
		} else {
			reply.Result = result
		}
		s.writeReply(conn, reply)
	}
}

func (s *ingestServer) writeReply(conn *websocket.Conn, reply ingestReply) {
	payload, err := json.Marshal(reply)
	if err != nil {
		s.log.Error("encoding ingest reply", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.log.Error("writing ingest reply", "error", err)
	}
}
