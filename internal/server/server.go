package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gorillahandlers "github.com/gorilla/handlers"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/usecase"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
	"gitlab.com/timkado/api/wa-automations/pkg/utils"
)

const readyTimeout = 2 * time.Second

// corsAllowedHeaders are the request headers browser clients may send
var corsAllowedHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the automation triggers, probes and metrics over HTTP
type Server struct {
	httpServer *http.Server
	router     chi.Router
	pinger     Pinger
	logger     *zap.Logger
}

// HealthResponse is the response structure for health check endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// NewServer creates the server. pinger backs /ready and may be nil.
func NewServer(port int, pinger Pinger, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	s := &Server{
		router: r,
		pinger: pinger,
		logger: logger.Named("http"),
	}

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router wrapped in CORS handling
func (s *Server) Handler() http.Handler {
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders(corsAllowedHeaders),
		gorillahandlers.IgnoreOptions(),
	)(s.router)
}

// RegisterJob exposes job at POST path, with an OPTIONS pre-flight that answers immediately
func (s *Server) RegisterJob(path string, job usecase.Job) {
	s.logger.Info("Registering trigger endpoint", zap.String("path", path), zap.String("job", job.Name()))
	s.router.Post(path, s.trigger(job))
	s.router.Options(path, handlePreflight)
}

// RegisterMetricsHandler adds the /metrics endpoint handler.
// Should only be called if metrics are enabled.
func (s *Server) RegisterMetricsHandler(handler http.Handler) {
	s.logger.Info("Registering /metrics endpoint")
	s.router.Handle("/metrics", handler)
}

// Start begins the HTTP server
func (s *Server) Start() {
	utils.SafeGo(func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}, nil)
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// trigger runs job synchronously and answers with its summary. The run is
// detached from the request so a dropped client does not cut a batch short.
func (s *Server) trigger(job usecase.Job) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.logger.With(
			zap.String("trigger", "http"),
			zap.String("http_request_id", middleware.GetReqID(r.Context())),
		)
		ctx := logger.WithLogger(context.WithoutCancel(r.Context()), log)

		summary, err := job.Run(ctx)
		if err != nil {
			if apperrors.IsConfigurationError(err) {
				log.Error("Run refused, service is misconfigured", zap.String("job", job.Name()), zap.Error(err))
			} else {
				log.Error("Run failed", zap.String("job", job.Name()), zap.Error(err))
			}
			utils.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, summary)
	}
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleHealth handles the /health endpoint for liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{
		Status:  "UP",
		Version: "1.0.0",
	})
}

// handleReady handles the /ready endpoint for readiness probes
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	details := map[string]string{"timestamp": utils.FormatISO8601(utils.Now())}
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", zap.Error(err))
			details["database"] = "unreachable"
			utils.WriteJSONResponse(w, http.StatusServiceUnavailable, HealthResponse{Status: "NOT_READY", Details: details})
			return
		}
		details["database"] = "ok"
	}
	utils.WriteJSONResponse(w, http.StatusOK, HealthResponse{Status: "READY", Details: details})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("http_request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve := utils.WrapWithContextRecovery(func(ctx context.Context) error {
			next.ServeHTTP(w, r.WithContext(ctx))
			return nil
		})
		ctx := logger.WithLogger(r.Context(), s.logger)
		if err := serve(ctx); err != nil {
			utils.WriteJSONError(w, http.StatusInternalServerError, "internal server error")
		}
	})
}
