package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fleetwatch/fleetwatch/pkg/manager"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/monitor"
	"github.com/fleetwatch/fleetwatch/pkg/notify"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
)

type contextKey string

const nodeContextKey contextKey = "node"

// nodeFrom returns the authenticated node attached by requireAPIKey
func nodeFrom(r *http.Request) *types.Node {
	node, _ := r.Context().Value(nodeContextKey).(*types.Node)
	return node
}

// requireAPIKey authenticates the Bearer api key and attaches the matching
// node to the request context
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		apiKey, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || apiKey == "" {
			s.writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		node, err := s.manager.GetNodeByAPIKey(apiKey)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), nodeContextKey, node)))
	}
}

// statusRecorder captures the response code for request metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request counting and latency observation
func (s *Server) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		metrics.APIRequestsTotal.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(name).Observe(timer.Duration().Seconds())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps engine and storage errors onto HTTP status codes:
// not-found to 404, validation to 400, dependency conflicts to 409,
// everything else to a generic 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNodeNotFound),
		errors.Is(err, storage.ErrCategoryNotFound),
		errors.Is(err, storage.ErrNotificationNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, monitor.ErrInvalidMetric),
		errors.Is(err, notify.ErrInvalidNotification),
		errors.Is(err, manager.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrCategoryInUse):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
