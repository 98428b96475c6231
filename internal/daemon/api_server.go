package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"narrator/internal/api"
	"narrator/internal/jobs"
	"narrator/internal/logging"
	"narrator/internal/services"
)

type statusFunc func(context.Context) api.DaemonStatus

type apiServer struct {
	bind   string
	logger *slog.Logger
	jobs   *api.JobService
	status statusFunc

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	cancel   context.CancelFunc
}

func newAPIServer(bind string, svc *api.JobService, status statusFunc, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(bind),
		logger: logger,
		jobs:   svc,
		status: status,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/languages", s.handleLanguages)
		r.Post("/videos/analyze", s.handleAnalyze)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/{id}", s.handleGetJob)
			r.Get("/{id}/stream", s.handleStreamJob)
			r.Get("/{id}/audio", s.handleAudio)
		})
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api listen: bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	// Request contexts derive from baseCtx so open progress streams end on stop.
	baseCtx, cancel := context.WithCancel(ctx)
	s.server.BaseContext = func(net.Listener) context.Context { return baseCtx }
	s.mu.Lock()
	s.listener = listener
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-baseCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// requestLogger attaches the chi request id to the context as the
// correlation id and logs each completed request.
func (s *apiServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rid := middleware.GetReqID(ctx); rid != "" {
			ctx = services.WithRequestID(ctx, rid)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.WithContext(ctx, s.log()).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeError(w, http.StatusServiceUnavailable, "status unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *apiServer) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.jobs.Languages())
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	resp, err := s.jobs.Analyze(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	resp, err := s.jobs.SubmitJob(req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *apiServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	resp, err := s.jobs.GetJob(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleStreamJob(w http.ResponseWriter, r *http.Request) {
	stream, err := s.jobs.StreamJob(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer stream.Close()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	for {
		event, err := stream.Next(r.Context())
		switch {
		case errors.Is(err, jobs.ErrIdleTimeout):
			_ = writeSSE(w, "timeout", []byte("{}"))
			_ = rc.Flush()
			return
		case err != nil:
			return
		}
		payload, err := json.Marshal(api.FromEvent(event))
		if err != nil {
			s.log().Error("failed to encode progress event", logging.Error(err))
			return
		}
		if err := writeSSE(w, "progress", payload); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
		if event.IsTerminal() {
			return
		}
	}
}

func (s *apiServer) handleAudio(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.jobs.FetchArtifact(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	file, err := os.Open(artifact.Path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Audio not ready")
		return
	}
	defer file.Close()

	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	http.ServeContent(w, r, artifact.FileName, artifact.ModTime, file)
}

func (s *apiServer) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, api.ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *api.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusUnprocessableEntity, api.ErrorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, api.ErrJobNotFound):
		s.writeError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, api.ErrArtifactNotReady):
		s.writeError(w, http.StatusNotFound, "Audio not ready")
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrDownload), errors.Is(err, services.ErrExternalService), errors.Is(err, services.ErrTransient):
		logging.WithContext(r.Context(), s.log()).Warn("upstream request failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldEventType, "api_upstream_error"),
		)
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		logging.WithContext(r.Context(), s.log()).Error("request failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldEventType, "api_error"),
		)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeSSE(w io.Writer, event string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
