// Package api exposes the scan pipeline over HTTP for handheld scanner
// clients and the dispatch tooling.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	applogistics "github.com/attewell/loadlist/internal/app/logistics"
	appsync "github.com/attewell/loadlist/internal/app/sync"
	domain "github.com/attewell/loadlist/internal/domain/logistics"
	ordersourcemem "github.com/attewell/loadlist/internal/infra/ordersource/memory"
	"github.com/attewell/loadlist/pkg/common/logger"
	"github.com/attewell/loadlist/pkg/common/otel"
)

type ctxKey int

const userKey ctxKey = 1

// HeaderSession resolves the operator from the request context populated by
// the user middleware.
type HeaderSession struct{}

var _ domain.Session = HeaderSession{}

// CurrentUserID returns the authenticated operator id, or "anonymous".
func (HeaderSession) CurrentUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userKey).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}

// Server routes scan pipeline requests to the application services.
type Server struct {
	log    *logger.Logger
	router *chi.Mux
	tracer trace.Tracer

	engine     *applogistics.Engine
	generator  *applogistics.Generator
	reconciler *appsync.Reconciler
	orders     *ordersourcemem.OrderSource
}

// NewServer creates the HTTP server wiring.
func NewServer(
	log *logger.Logger,
	tracer trace.Tracer,
	engine *applogistics.Engine,
	generator *applogistics.Generator,
	reconciler *appsync.Reconciler,
	orders *ordersourcemem.OrderSource,
) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(userMiddleware)
	r.Use(loggerMiddleware(log))
	r.Use(middleware.Recoverer)

	s := &Server{
		log:        log,
		router:     r,
		tracer:     tracer,
		engine:     engine,
		generator:  generator,
		reconciler: reconciler,
		orders:     orders,
	}

	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler { return s.router }

func userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-User-ID")
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggerMiddleware(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ctx := r.Context()
				log.Info(ctx, "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"trace_id", otel.GetTraceID(ctx),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func (s *Server) routes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Put("/orders/{orderID}", s.handlePutOrder)
		r.Post("/orders/{orderID}/scan-lists", s.handleGenerate)
		r.Get("/orders/{orderID}/scan-lists", s.handleListsForOrder)
		r.Delete("/orders/{orderID}/scan-lists", s.handleDeleteForOrder)
		r.Post("/orders/{orderID}/pull", s.handlePullOrder)

		r.Get("/scan-lists/{listID}", s.handleGetList)
		r.Post("/scan-lists/{listID}/scans", s.handleApplyScan)
		r.Post("/scan-lists/{listID}/undo", s.handleUndoScan)
		r.Post("/scan-lists/{listID}/adjustments", s.handleManualAdjustment)
		r.Post("/scan-lists/{listID}/refresh", s.handleRefresh)
		r.Post("/scan-lists/{listID}/cancel", s.handleCancel)

		r.Get("/sync/status", s.handleSyncStatus)
		r.Post("/sync/retry", s.handleSyncRetry)
	})
}
