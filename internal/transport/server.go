// Package transport exposes the conversation host over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/location"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/repository"
	"github.com/UnknownOlympus/waypoint/internal/service"
	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxBodyBytes        = 64 << 10
	defaultHistoryLimit = 10
)

// Conversations is the part of the conversation host the server calls.
type Conversations interface {
	Handle(ctx context.Context, in service.Inbound) (*service.Outcome, error)
	History(ctx context.Context, conversationID string, limit int) ([]repository.CapturedLocation, error)
}

// Pinger checks a backing store. A nil Pinger makes /healthz always succeed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the message webhook alongside health and metrics endpoints.
type Server struct {
	httpServer    *http.Server
	conversations Conversations
	db            Pinger
	log           *slog.Logger
}

type pointPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type messageRequest struct {
	ConversationID string        `json:"conversation_id"`
	ChannelID      string        `json:"channel_id"`
	Text           string        `json:"text"`
	Place          *pointPayload `json:"place,omitempty"`
}

type messageResponse struct {
	Replies []dialog.Reply `json:"replies"`
	Done    bool           `json:"done"`
	Place   *models.Place  `json:"place,omitempty"`
}

type historyEntry struct {
	Place      *models.Place `json:"place"`
	CapturedAt time.Time     `json:"captured_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates an HTTP server listening on port.
func NewServer(
	port int,
	conversations Conversations,
	db Pinger,
	reg *prometheus.Registry,
	log *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	readTimeout := 5
	writeTimeout := 30
	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		conversations: conversations,
		db:            db,
		log:           log,
	}

	mux.HandleFunc("POST /api/messages", s.handleMessage)
	mux.HandleFunc("GET /api/conversations/{id}/locations", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return s
}

// Start begins listening. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the deadline of ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		s.log.WarnContext(ctx, "Failed to read request body", "error", err)
		s.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	var req messageRequest
	if err = sonic.Unmarshal(body, &req); err != nil {
		s.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	in := service.Inbound{ConversationID: req.ConversationID, ChannelID: req.ChannelID, Text: req.Text}
	if req.Place != nil {
		in.Point = models.NewGeoPoint(req.Place.Latitude, req.Place.Longitude)
	}

	out, err := s.conversations.Handle(ctx, in)
	if err != nil {
		s.writeJSON(ctx, w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	replies := out.Replies
	if replies == nil {
		replies = []dialog.Reply{}
	}
	s.writeJSON(ctx, w, http.StatusOK, messageResponse{Replies: replies, Done: out.Done, Place: out.Place})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	locs, err := s.conversations.History(ctx, r.PathValue("id"), limit)
	if err != nil {
		s.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	entries := make([]historyEntry, 0, len(locs))
	for _, loc := range locs {
		entries = append(entries, historyEntry{Place: loc.Place, CapturedAt: loc.CapturedAt})
	}
	s.writeJSON(ctx, w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.log.DebugContext(ctx, "Performing health checks...")

	status, body := http.StatusOK, "OK"
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}

	s.log.DebugContext(ctx, "Health checks completed", "status", status)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode reply", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, location.ErrConfig):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
