package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// DictionaryHandler handles dictionary-related API endpoints.
type DictionaryHandler struct {
	deps Deps
}

// CreateDictionaryRequest is the payload for POST /api/1/dictionary.
type CreateDictionaryRequest struct {
	VendorName     string                   `json:"vendor_name"`
	ServiceName    string                   `json:"service_name"`
	VendorAliases  []string                 `json:"vendor_aliases"`
	ServiceAliases []string                 `json:"service_aliases"`
	Defaults       model.AccountingDefaults `json:"defaults"`
	MatchThreshold float64                  `json:"match_threshold"`
}

// List handles GET /api/1/dictionary.
func (h *DictionaryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Dictionary.GetAll(nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Create handles POST /api/1/dictionary.
func (h *DictionaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDictionaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.VendorName == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing vendor_name")
		return
	}
	if req.Defaults.AccountItem == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing defaults.account_item")
		return
	}

	entry := &model.DictionaryEntry{
		VendorName:     req.VendorName,
		ServiceName:    req.ServiceName,
		VendorAliases:  req.VendorAliases,
		ServiceAliases: req.ServiceAliases,
		Defaults:       req.Defaults,
		MatchThreshold: req.MatchThreshold,
	}
	created, err := h.deps.Dictionary.Create(entry, "created via API", actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": created})
}

// Get handles GET /api/1/dictionary/{id}.
func (h *DictionaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Dictionary.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

// Correct handles POST /api/1/dictionary/corrections: a reviewer fixing the
// accounting treatment for a vendor/service pair.
func (h *DictionaryHandler) Correct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorName  string                   `json:"vendor_name"`
		ServiceName string                   `json:"service_name"`
		Defaults    model.AccountingDefaults `json:"defaults"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.VendorName == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing vendor_name")
		return
	}

	entry, err := h.deps.Learning.LearnFromCorrection(req.VendorName, req.ServiceName, req.Defaults, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

// AddAliases handles POST /api/1/dictionary/{id}/aliases.
func (h *DictionaryHandler) AddAliases(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorAliases  []string `json:"vendor_aliases"`
		ServiceAliases []string `json:"service_aliases"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	entry, err := h.deps.Learning.AddAliases(chi.URLParam(r, "id"), req.VendorAliases, req.ServiceAliases, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

// History handles GET /api/1/dictionary/{id}/history.
func (h *DictionaryHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Dictionary.History().GetHistory(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

// Match handles GET /api/1/match, a preview of what the engine would
// recommend for a vendor/service/docType triple.
func (h *DictionaryHandler) Match(w http.ResponseWriter, r *http.Request) {
	vendor := r.URL.Query().Get("vendor")
	if vendor == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing vendor")
		return
	}
	service := r.URL.Query().Get("service")
	docType := model.DocType(r.URL.Query().Get("doc_type"))

	result, err := h.deps.Engine.FindBestMatch(vendor, service, docType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
