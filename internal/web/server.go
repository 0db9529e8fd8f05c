// Package web hosts a session for a browser: a websocket pushing the
// session state and a small HTTP API for the capture actions.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gamesniff/internal/inspect"
	"gamesniff/internal/reporting"
	"gamesniff/internal/session"
)

//go:embed static/index.html
var indexHTML []byte

// DefaultRefreshInterval is how often the feed socket checks for changes.
const DefaultRefreshInterval = 250 * time.Millisecond

// maxImportSize bounds the multipart body of an import. The bytes are
// discarded anyway.
const maxImportSize = 32 << 20

type Option func(*Server)

func WithRefreshInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.refresh = d
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithClock sets the clock used to name exported files.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server serves one session.
type Server struct {
	sess     *session.Session
	refresh  time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
	upgrader websocket.Upgrader
	srv      *http.Server

	done      chan struct{}
	closeOnce sync.Once
}

// NewServer creates a server for sess listening on addr.
func NewServer(addr string, sess *session.Session, opts ...Option) *Server {
	s := &Server{
		sess:    sess,
		refresh: DefaultRefreshInterval,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "web")
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /ws/feed", s.handleFeedWs)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/start", s.action(s.sess.Start))
	mux.HandleFunc("POST /api/stop", s.action(s.sess.Stop))
	mux.HandleFunc("POST /api/clear", s.action(s.sess.Clear))
	mux.HandleFunc("POST /api/filter", s.handleFilter)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/export", s.handleExportJSON)
	mux.HandleFunc("GET /api/export.pcap", s.handleExportPCAP)
	mux.HandleFunc("GET /api/packets/{id}", s.handlePacket)
	return mux
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.srv.Addr).Info("web service started")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Shutdown ends open feed sockets and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleFeedWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The client never sends anything we act on; reading only notices close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	st := s.sess.Snapshot()
	if err := conn.WriteJSON(st); err != nil {
		return
	}
	last := st.Version

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-s.done:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			st := s.sess.Snapshot()
			if st.Version == last {
				continue
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
			last = st.Version
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

// action wraps a session action that takes no input and answers with the
// resulting state.
func (s *Server) action(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		writeJSON(w, http.StatusOK, s.sess.Snapshot())
	}
}

type filterRequest struct {
	Filter string `json:"filter"`
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	s.sess.SetFilter(req.Filter)
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

type selectRequest struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	s.sess.Select(req.ID)
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	io.Copy(io.Discard, file)
	file.Close()

	if !s.sess.Import(header.Filename) {
		http.Error(w, "Import refused while capturing", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, s.sess.Snapshot())
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	records := s.sess.Records()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", reporting.FileName(s.now())))
	if err := reporting.WriteJSON(w, records); err != nil {
		s.log.WithError(err).Warn("json export failed")
	}
}

func (s *Server) handleExportPCAP(w http.ResponseWriter, r *http.Request) {
	records := s.sess.Records()
	w.Header().Set("Content-Type", "application/vnd.tcpdump.pcap")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", reporting.PCAPFileName(s.now())))
	if err := reporting.WritePCAP(w, records); err != nil {
		s.log.WithError(err).Warn("pcap export failed")
	}
}

func (s *Server) handlePacket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid packet id", http.StatusBadRequest)
		return
	}
	rec, ok := s.sess.Get(id)
	if !ok {
		http.Error(w, "Packet not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, inspect.Inspect(rec))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
