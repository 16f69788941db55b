// Package httpapi exposes audit, apply and batch update over JSON/HTTP for
// storefront admin tooling.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"catalogsync/internal/application"
	"catalogsync/internal/application/commands"
	"catalogsync/internal/domain"
)

const maxBodyBytes = 8 << 20

// ApplyRequest is the body of POST /apply. A missing plan re-derives one
// from a fresh audit.
type ApplyRequest struct {
	Plan     domain.AssignmentPlan `json:"plan,omitempty"`
	Category string                `json:"category,omitempty"`
	DryRun   bool                  `json:"dryRun,omitempty"`
}

// BatchUpdateRequest is the body of POST /batch-update
type BatchUpdateRequest struct {
	Updates []commands.BatchUpdateItem `json:"updates"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string                `json:"error"`
	Field  string                `json:"field,omitempty"`
	Result *commands.ApplyResult `json:"result,omitempty"`
}

// Server routes HTTP requests to engine commands
type Server struct {
	engine *commands.Engine
	logger *zap.Logger
	mux    *http.ServeMux
}

// NewServer creates a new Server
func NewServer(engine *commands.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{engine: engine, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /audit", s.handleAudit)
	s.mux.HandleFunc("GET /assets", s.handleAssets)
	s.mux.HandleFunc("POST /apply", s.handleApply)
	s.mux.HandleFunc("POST /batch-update", s.handleBatchUpdate)
	return s
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	result, err := commands.NewAuditCommand(s.engine, r.URL.Query().Get("category")).Execute(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	unused := false
	if v := q.Get("unused"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, &application.ValidationError{Field: "unused", Message: "must be a boolean"}, nil)
			return
		}
		unused = b
	}

	usage, err := commands.NewListAssetsCommand(s.engine, q["category"], unused).Execute(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if usage == nil {
		usage = []commands.AssetUsage{}
	}
	writeJSON(w, http.StatusOK, usage)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := commands.NewApplyCommand(s.engine, req.Plan, req.Category, req.DryRun).Execute(r.Context())
	if err != nil {
		s.writeError(w, err, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req BatchUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := commands.NewBatchUpdateCommand(s.engine, req.Updates).Execute(r.Context())
	if err != nil {
		s.writeError(w, err, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, &application.ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("invalid JSON: %v", err),
		}, nil)
		return false
	}
	return true
}

// writeError maps engine errors onto status codes. An interrupted run
// still reports the results it has.
func (s *Server) writeError(w http.ResponseWriter, err error, partial *commands.ApplyResult) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Result: partial}

	var valErr *application.ValidationError
	if errors.As(err, &valErr) {
		resp.Field = valErr.Field
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err), zap.Int("status", status))
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	var valErr *application.ValidationError
	switch {
	case errors.As(err, &valErr), errors.Is(err, application.ErrInvalidPlan):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
