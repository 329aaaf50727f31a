package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fleetwatch/fleetwatch/pkg/types"
)

// samplePayload accepts both the short and the long field spellings agents
// have historically used; the short form wins when both are present. The
// ambiguity is normalized here and never reaches the engine.
type samplePayload struct {
	CPU       *float64 `json:"cpu"`
	RAM       *float64 `json:"ram"`
	Disk      *float64 `json:"disk"`
	CPUUsage  *float64 `json:"cpuUsage"`
	RAMUsage  *float64 `json:"ramUsage"`
	DiskUsage *float64 `json:"diskUsage"`
}

func (p samplePayload) usage() (types.Usage, bool) {
	pick := func(short, long *float64) (float64, bool) {
		if short != nil {
			return *short, true
		}
		if long != nil {
			return *long, true
		}
		return 0, false
	}

	var u types.Usage
	var ok bool
	if u.CPU, ok = pick(p.CPU, p.CPUUsage); !ok {
		return u, false
	}
	if u.RAM, ok = pick(p.RAM, p.RAMUsage); !ok {
		return u, false
	}
	if u.Disk, ok = pick(p.Disk, p.DiskUsage); !ok {
		return u, false
	}
	return u, true
}

func (s *Server) handleRecordSample(w http.ResponseWriter, r *http.Request) {
	node := nodeFrom(r)

	var payload samplePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	usage, ok := payload.usage()
	if !ok {
		s.writeError(w, http.StatusBadRequest, "cpu, ram and disk are required")
		return
	}

	sample, err := s.engine.RecordSample(node.ID, usage)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sample)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.engine.Overview()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	grouped, err := s.manager.GroupedNodes()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, grouped)
}

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name       string `json:"name"`
		Location   string `json:"location"`
		CategoryID string `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	node, err := s.manager.CreateNode(payload.Name, payload.Location, payload.CategoryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	// The only response that includes the api key
	s.writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleNodeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.LatestStatus(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name       string `json:"name"`
		Location   string `json:"location"`
		CategoryID string `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	node, err := s.manager.UpdateNode(r.PathValue("id"), payload.Name, payload.Location, payload.CategoryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	node.APIKey = ""
	s.writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteNode(r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNodeHistory(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	samples, err := s.engine.History(r.PathValue("id"), hours)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if samples == nil {
		samples = []*types.Sample{}
	}
	s.writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleNodeUptime(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("range")
	if window == "" {
		window = "24h"
	}

	stats, err := s.calc.Stats(r.PathValue("id"), window)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.manager.ListCategories()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if categories == nil {
		categories = []*types.Category{}
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	category, err := s.manager.CreateCategory(payload.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteCategory(r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("all") == "true"
	notifications, err := s.emitter.List(includeInactive)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*types.Notification{}
	}
	s.writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleDeactivateNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.emitter.Deactivate(r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
