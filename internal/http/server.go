// Package http is the portal's JSON API surface. Handlers translate requests
// into calls on the auth, draft, and ledger services and map the error
// taxonomy onto status codes; no business rules live here.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expenseportal/internal/auth"
	"expenseportal/internal/draft"
	"expenseportal/internal/ledger"
	"expenseportal/internal/sheets/cached"
)

type Server struct {
	http.Server

	validator *auth.Validator
	drafts    *draft.Store
	ledger    *ledger.Service
	rows      *cached.Store

	sessions  *sessionManager
	ipLimiter *ipLimiter

	stopSweep    chan struct{}
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, validator *auth.Validator, drafts *draft.Store, ledgerSvc *ledger.Service, rows *cached.Store) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		validator: validator,
		drafts:    drafts,
		ledger:    ledgerSvc,
		rows:      rows,
		sessions:  newSessionManager(),
		ipLimiter: newIPLimiter(),
		stopSweep: make(chan struct{}),
	}

	go s.startSweep()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/login", s.wrap(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.wrap(s.handleLogout))
	mux.HandleFunc("GET /api/draft", s.wrap(s.handleGetDraft))
	mux.HandleFunc("PUT /api/draft", s.wrap(s.handleSaveDraft))
	mux.HandleFunc("POST /api/draft/submit", s.wrap(s.handleSubmitDraft))
	mux.HandleFunc("GET /api/expenses", s.wrap(s.handleListExpenses))
	mux.HandleFunc("GET /api/summary", s.wrap(s.handleMonthSummary))
	mux.HandleFunc("GET /api/approvals", s.wrap(s.handleListPending))
	mux.HandleFunc("POST /api/approvals/{id}", s.wrap(s.handleDecide))

	return s
}

// startSweep periodically evicts expired sessions and cache entries.
func (s *Server) startSweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removedSessions := s.sessions.sweep()
			removedRows := 0
			if s.rows != nil {
				removedRows = s.rows.CleanExpired()
			}
			if removedSessions > 0 || removedRows > 0 {
				slog.Debug("Sweep completed",
					"sessions_removed", removedSessions,
					"cache_entries_removed", removedRows)
			}
		case <-s.stopSweep:
			return
		}
	}
}

// Shutdown stops the background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopSweep != nil {
			close(s.stopSweep)
		}
		if s.ipLimiter != nil {
			s.ipLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// wrap adds security headers, request tracing, and IP rate limiting on
// mutating methods.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.ipLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded", Code: "rate_limited"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
