package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/manager"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/monitor"
	"github.com/fleetwatch/fleetwatch/pkg/notify"
	"github.com/fleetwatch/fleetwatch/pkg/uptime"
	"github.com/rs/zerolog"
)

// Server is the HTTP surface of fleetwatch: the push API agents report to
// and the read API the dashboard consumes. All temporal logic lives in the
// engine; handlers only marshal, authenticate and map errors.
type Server struct {
	manager *manager.Manager
	engine  *monitor.Engine
	calc    *uptime.Calculator
	emitter *notify.Emitter

	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer creates a new API server
func NewServer(mgr *manager.Manager, engine *monitor.Engine, calc *uptime.Calculator, emitter *notify.Emitter) *Server {
	return &Server{
		manager: mgr,
		engine:  engine,
		calc:    calc,
		emitter: emitter,
		logger:  log.WithComponent("api"),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Push API (authenticated with the node's api key)
	mux.Handle("POST /api/v1/samples", s.instrument("record_sample", s.requireAPIKey(s.handleRecordSample)))

	// Fleet read API
	mux.Handle("GET /api/v1/overview", s.instrument("overview", s.handleOverview))
	mux.Handle("GET /api/v1/nodes", s.instrument("list_nodes", s.handleListNodes))
	mux.Handle("POST /api/v1/nodes", s.instrument("create_node", s.handleCreateNode))
	mux.Handle("GET /api/v1/nodes/{id}", s.instrument("node_status", s.handleNodeStatus))
	mux.Handle("PUT /api/v1/nodes/{id}", s.instrument("update_node", s.handleUpdateNode))
	mux.Handle("DELETE /api/v1/nodes/{id}", s.instrument("delete_node", s.handleDeleteNode))
	mux.Handle("GET /api/v1/nodes/{id}/history", s.instrument("node_history", s.handleNodeHistory))
	mux.Handle("GET /api/v1/nodes/{id}/uptime", s.instrument("node_uptime", s.handleNodeUptime))

	// Categories
	mux.Handle("GET /api/v1/categories", s.instrument("list_categories", s.handleListCategories))
	mux.Handle("POST /api/v1/categories", s.instrument("create_category", s.handleCreateCategory))
	mux.Handle("DELETE /api/v1/categories/{id}", s.instrument("delete_category", s.handleDeleteCategory))

	// Notifications
	mux.Handle("GET /api/v1/notifications", s.instrument("list_notifications", s.handleListNotifications))
	mux.Handle("DELETE /api/v1/notifications/{id}", s.instrument("deactivate_notification", s.handleDeactivateNotification))

	// Operational endpoints
	mux.Handle("GET /healthz", metrics.HealthHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

// Start begins serving on the given address and blocks until the server
// stops
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	metrics.RegisterComponent("api", true, "")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully
func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to shut down API server")
	}
}
