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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsdeck/internal/cache"
	"opsdeck/internal/core"
	applog "opsdeck/internal/log"
	"opsdeck/internal/services"
	"opsdeck/internal/snapshot"
)

type Server struct {
	http.Server

	payments *services.PaymentService
	registry *services.RegistryService
	hub      *snapshot.Hub
	founders []string

	rateLimiter *rateLimiter
	metrics     *serverMetrics
	logger      *applog.StructuredLogger

	summaryCache *cache.LRUCache[dashboardSummary]
	trendCache   *cache.LRUCache[[]core.TrendPoint]
	cacheManager *cache.Manager

	unsubscribe  func()
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run
// server. Cached dashboard reads are invalidated through the snapshot
// hub whenever a write commits.
func NewServer(addr string, payments *services.PaymentService, registry *services.RegistryService, hub *snapshot.Hub, founders []string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		payments:    payments,
		registry:    registry,
		hub:         hub,
		founders:    founders,
		rateLimiter: newRateLimiter(),
		metrics:     newServerMetrics(),
		logger: applog.NewStructuredLogger(applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   slog.Default().Handler(),
		})),
		summaryCache: cache.NewLRUCache[dashboardSummary](10, 5*time.Minute),
		trendCache:   cache.NewLRUCache[[]core.TrendPoint](10, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.trendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	boards, cancel := hub.Subscribe()
	s.unsubscribe = cancel
	go func() {
		for range boards {
			s.summaryCache.Clear()
			s.trendCache.Clear()
		}
	}()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.route(mux, "GET /api/dashboard", s.handleDashboard)
	s.route(mux, "GET /api/dashboard/trends", s.handleTrends)
	s.route(mux, "GET /api/dashboard/insights", s.handleInsights)
	s.route(mux, "GET /api/dashboard/activity", s.handleActivity)

	s.route(mux, "GET /api/payments", s.handleListPayments)
	s.route(mux, "POST /api/payments", s.handleSubmitPayment)
	s.route(mux, "PUT /api/payments/{id}", s.handleEditPayment)
	s.route(mux, "DELETE /api/payments/{id}", s.handleDeletePayment)

	s.route(mux, "GET /api/projects", s.handleListProjects)
	s.route(mux, "POST /api/projects", s.handleCreateProject)
	s.route(mux, "PUT /api/projects/{id}", s.handleUpdateProject)
	s.route(mux, "DELETE /api/projects/{id}", s.handleDeleteProject)
	s.route(mux, "GET /api/projects/growth", s.handleProfitGrowth)
	s.route(mux, "GET /api/projects/{id}/finance", s.handleProjectFinance)
	s.route(mux, "GET /api/projects/{id}/payouts", s.handleProjectPayouts)

	s.route(mux, "GET /api/employees", s.handleListEmployees)
	s.route(mux, "POST /api/employees", s.handleCreateEmployee)
	s.route(mux, "PUT /api/employees/{id}", s.handleUpdateEmployee)
	s.route(mux, "DELETE /api/employees/{id}", s.handleDeleteEmployee)
	s.route(mux, "GET /api/employees/developers", s.handleListDevelopers)

	s.route(mux, "GET /api/clients", s.handleListClients)
	s.route(mux, "POST /api/clients", s.handleCreateClient)
	s.route(mux, "PUT /api/clients/{id}", s.handleUpdateClient)
	s.route(mux, "DELETE /api/clients/{id}", s.handleDeleteClient)

	s.route(mux, "GET /api/notices", s.handleListNotices)
	s.route(mux, "POST /api/notices", s.handleCreateNotice)
	s.route(mux, "PUT /api/notices/{id}", s.handleUpdateNotice)
	s.route(mux, "DELETE /api/notices/{id}", s.handleDeleteNotice)

	s.route(mux, "GET /api/board", s.handleBoard)
	s.route(mux, "POST /api/tasks", s.handleCreateTask)
	s.route(mux, "PUT /api/tasks/{id}", s.handleUpdateTask)
	s.route(mux, "POST /api/tasks/{id}/move", s.handleMoveTask)
	s.route(mux, "DELETE /api/tasks/{id}", s.handleDeleteTask)

	return s
}

// route registers pattern with the standard middleware chain. The
// pattern doubles as the metrics label.
func (s *Server) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, s.withMiddleware(pattern, handler))
}

func (s *Server) withMiddleware(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.LogHTTPStart(ctx, r, clientIP, requestID)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			s.metrics.rateLimit.Inc()
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		elapsed := time.Since(start)
		s.metrics.observe(r.Method, pattern, rw.statusCode, elapsed)
		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP, requestID)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.hub.Current(r.Context()); err != nil {
		s.logger.LogError(r.Context(), "Readiness check failed", err, applog.OpCheck, applog.NewFields())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the background routines and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
