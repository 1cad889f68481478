package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pharmalink/procure-cli/internal/analytics"
	"github.com/pharmalink/procure-cli/internal/model"
)

type startRequest struct {
	AgentKind    string `json:"agent_kind"`
	SupplierName string `json:"supplier_name"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	kind, ok := model.ParseAgentKind(req.AgentKind)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown agent_kind " + strconv.Quote(req.AgentKind)})
		return
	}
	if req.SupplierName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "supplier_name is required"})
		return
	}

	created, err := s.runner.Start(r.Context(), kind, req.SupplierName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, created)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	t, err := s.runner.Tasks().Get(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := s.runner.Tasks().List()
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":       tasks,
		"total_count": len(tasks),
	})
}

func (s *Server) handleParseTask(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.ReconcileTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, err)
		return
	}
	// Per-delta failures are reported in the counts, not as an HTTP error.
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	tr, err := s.runner.Transcripts().Load(chi.URLParam(r, "conversationRef"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	items, err := s.runner.Recap(intQuery(r, "limit", 10))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activities":  items,
		"total_count": len(items),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Summary(intQuery(r, "limit", 10))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type parseRequest struct {
	Transcript   string `json:"transcript"`
	SupplierName string `json:"supplier_name"`
	AgentKind    string `json:"agent_kind"`
}

func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Transcript == "" || req.SupplierName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "transcript and supplier_name are required"})
		return
	}
	kind := model.AgentKindProducts
	if req.AgentKind != "" {
		parsed, ok := model.ParseAgentKind(req.AgentKind)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown agent_kind " + strconv.Quote(req.AgentKind)})
			return
		}
		kind = parsed
	}

	summary, err := s.runner.ReconcileText(r.Context(), kind, req.Transcript, req.SupplierName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	minSavings := s.defaults.MinSavingsPercent
	if raw := r.URL.Query().Get("min_savings_percent"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_savings_percent"})
			return
		}
		minSavings = parsed
	}

	report, err := s.analytics.CheaperAlternatives(minSavings, r.URL.Query().Get("product_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleInnovative(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort_by")
	switch sortBy {
	case "", analytics.SortBySuppliers, analytics.SortByPrice, analytics.SortByDeliveryTime:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sort_by"})
		return
	}

	report, err := s.analytics.InnovativeProducts(intQuery(r, "min_suppliers", s.defaults.MinSuppliers), sortBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSupplierROI(w http.ResponseWriter, _ *http.Request) {
	report, err := s.analytics.SupplierROI()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSuppliers(w http.ResponseWriter, _ *http.Request) {
	suppliers, err := s.catalog.Suppliers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suppliers":   suppliers,
		"total_count": len(suppliers),
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, _ *http.Request) {
	products, err := s.catalog.StoreProducts()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":    products,
		"total_count": len(products),
	})
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
