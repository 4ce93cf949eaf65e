package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/chat-widget/pkg/transport"
)

const (
	FailModeStatus = "status"
	FailModeParse  = "parse"

	maxRequestBytes = 1 << 20
)

// Settings configure the stand-in assistant.
type Settings struct {
	Addr      string
	FailEvery int
	FailMode  string
	Delay     time.Duration
}

func (s Settings) Validate() error {
	if s.FailEvery < 0 {
		return errors.Errorf("fail-every must not be negative, got %d", s.FailEvery)
	}
	switch s.FailMode {
	case "", FailModeStatus, FailModeParse:
	default:
		return errors.Errorf("unknown fail mode %q (want %s or %s)", s.FailMode, FailModeStatus, FailModeParse)
	}
	if s.Delay < 0 {
		return errors.Errorf("delay must not be negative, got %s", s.Delay)
	}
	return nil
}

// ChatAnswer mirrors the body of the production assistant.
type ChatAnswer struct {
	Target         string `json:"target"`
	RewrittenQuery string `json:"rewritten_query"`
	Context        string `json:"context"`
	Response       string `json:"response"`
}

// Server is a local stand-in for the assistant endpoint, answering from an
// AnswerBook and echoing everything else.
type Server struct {
	settings Settings
	book     *AnswerBook
	requests atomic.Int64
}

func NewServer(s Settings, book *AnswerBook) (*Server, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.FailMode == "" {
		s.FailMode = FailModeStatus
	}
	return &Server{settings: s, book: book}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/"+transport.ChatPath, s.handleChat)
	return r
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message *string `json:"message"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil || req.Message == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "body must be a JSON object with a message field"})
		return
	}

	n := s.requests.Add(1)
	if s.settings.Delay > 0 {
		select {
		case <-time.After(s.settings.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if s.settings.FailEvery > 0 && n%int64(s.settings.FailEvery) == 0 {
		log.Info().Str("component", "devserver").Int64("request", n).Str("mode", s.settings.FailMode).
			Msg("failing request on purpose")
		if s.settings.FailMode == FailModeParse {
			writeJSON(w, http.StatusOK, map[string]string{"error": "Failed to parse response: simulated"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "simulated failure"})
		return
	}

	writeJSON(w, http.StatusOK, s.answer(*req.Message))
}

func (s *Server) answer(message string) ChatAnswer {
	q := strings.TrimSpace(message)
	if a, ok := s.book.Lookup(q); ok {
		return ChatAnswer{Target: a.Target, RewrittenQuery: q, Context: a.Context, Response: a.Response}
	}
	resp := "You asked: " + q
	if s.book != nil && s.book.Fallback != "" {
		resp = s.book.Fallback
	}
	return ChatAnswer{Target: "vector", RewrittenQuery: q, Response: resp}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "devserver").Str("addr", s.settings.Addr).Msg("serving stand-in assistant")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Str("component", "devserver").Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().Str("component", "devserver").
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Str("component", "devserver").Err(err).Msg("could not write response")
	}
}
