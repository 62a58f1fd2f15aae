package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/extract"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

// DraftsHandler handles draft-related API endpoints.
type DraftsHandler struct {
	deps Deps
}

// CreateDraftRequest is the payload for POST /api/1/drafts. It carries the
// structured result of document extraction, never the document itself.
type CreateDraftRequest struct {
	SourceFileID   string                 `json:"source_file_id"`
	SourceFileName string                 `json:"source_file_name"`
	SourceFilePath string                 `json:"source_file_path"`
	DocType        model.DocType          `json:"doc_type"`
	VendorName     string                 `json:"vendor_name"`
	ServiceName    string                 `json:"service_name"`
	Amount         int64                  `json:"amount"`
	TaxAmount      int64                  `json:"tax_amount"`
	IssueDate      string                 `json:"issue_date"`
	DueDate        string                 `json:"due_date"`
	EventMonth     string                 `json:"event_month"`
	PaymentMonth   string                 `json:"payment_month"`
	Suggestions    []model.SuggestedEntry `json:"suggestions"`
	Notes          string                 `json:"notes"`
}

// List handles GET /api/1/drafts with an optional status filter.
func (h *DraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.DraftStatus(r.URL.Query().Get("status"))

	var filter func(*model.DraftEntry) bool
	if status != "" {
		filter = func(d *model.DraftEntry) bool { return d.Status == status }
	}

	drafts, err := h.deps.Drafts.GetAll(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

// Create handles POST /api/1/drafts.
func (h *DraftsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.SourceFileID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing source_file_id")
		return
	}
	if req.VendorName == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing vendor_name")
		return
	}

	draft := &model.DraftEntry{
		SourceFileID:   req.SourceFileID,
		SourceFileName: req.SourceFileName,
		SourceFilePath: req.SourceFilePath,
		DocType:        req.DocType,
		VendorName:     req.VendorName,
		ServiceName:    req.ServiceName,
		Amount:         req.Amount,
		TaxAmount:      req.TaxAmount,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		EventMonth:     req.EventMonth,
		PaymentMonth:   req.PaymentMonth,
		Suggestions:    req.Suggestions,
		Notes:          req.Notes,
	}

	created, err := h.deps.Lifecycle.CreateDraft(draft, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"draft": created})
}

// CreateFromExtraction handles POST /api/1/drafts/from-extraction: the
// extraction service is asked for the document's structured fields, which are
// folded into a new pending draft.
func (h *DraftsHandler) CreateFromExtraction(w http.ResponseWriter, r *http.Request) {
	if h.deps.Extractor == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "extractor_not_configured", "No extraction service is configured")
		return
	}

	var req struct {
		SourceFileID   string `json:"source_file_id"`
		SourceFileName string `json:"source_file_name"`
		SourceFilePath string `json:"source_file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.SourceFileID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing source_file_id")
		return
	}

	res, err := h.deps.Extractor.Extract(r.Context(), req.SourceFileID)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "extraction_failed", err.Error())
		return
	}

	draft := extract.BuildDraft(res, req.SourceFileID, req.SourceFileName, req.SourceFilePath)
	created, err := h.deps.Lifecycle.CreateDraft(draft, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"draft": created})
}

// Get handles GET /api/1/drafts/{id}.
func (h *DraftsHandler) Get(w http.ResponseWriter, r *http.Request) {
	draft, err := h.deps.Drafts.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// Delete handles DELETE /api/1/drafts/{id}. The reason travels as a query
// parameter.
func (h *DraftsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.deps.Lifecycle.DeleteDraft(id, r.URL.Query().Get("reason"), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// SelectSuggestion handles POST /api/1/drafts/{id}/select.
func (h *DraftsHandler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SuggestionIndex int `json:"suggestion_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	draft, err := h.deps.Lifecycle.SelectSuggestion(chi.URLParam(r, "id"), req.SuggestionIndex, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// SetCustomEntry handles POST /api/1/drafts/{id}/entry.
func (h *DraftsHandler) SetCustomEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines  []model.JournalLine `json:"lines"`
		Reason string              `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	draft, err := h.deps.Lifecycle.SetCustomEntry(chi.URLParam(r, "id"), req.Lines, req.Reason, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// Approve handles POST /api/1/drafts/{id}/approve.
func (h *DraftsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SelectedEntry        []model.JournalLine `json:"selected_entry"`
		RegisterToDictionary bool                `json:"register_to_dictionary"`
		Reason               string              `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	result, err := h.deps.Lifecycle.ApproveDraft(chi.URLParam(r, "id"), req.SelectedEntry, req.RegisterToDictionary, req.Reason, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Export handles POST /api/1/drafts/{id}/export, the hook for the downstream
// bookkeeping export.
func (h *DraftsHandler) Export(w http.ResponseWriter, r *http.Request) {
	draft, err := h.deps.Lifecycle.MarkExported(chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// Reopen handles POST /api/1/drafts/{id}/reopen.
func (h *DraftsHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	draft, err := h.deps.Lifecycle.Reopen(chi.URLParam(r, "id"), req.Reason, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// History handles GET /api/1/drafts/{id}/history.
func (h *DraftsHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Drafts.History().GetHistory(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

// SnapshotAtVersion handles GET /api/1/drafts/{id}/versions/{version}.
func (h *DraftsHandler) SnapshotAtVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid version")
		return
	}

	snapshot, err := h.deps.Drafts.History().GetSnapshotAtVersion(chi.URLParam(r, "id"), version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": version, "snapshot": snapshot})
}
