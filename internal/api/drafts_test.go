package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
)

type draftResponse struct {
	Draft model.DraftEntry `json:"draft"`
}

func createDraftRequest() CreateDraftRequest {
	return CreateDraftRequest{
		SourceFileID: "file-001",
		DocType:      model.DocTypeInvoice,
		VendorName:   "Acme Inc",
		ServiceName:  "Pro Plan",
		Amount:       5500,
		TaxAmount:    500,
		IssueDate:    "2025-03-31",
	}
}

func customEntryBody() map[string]any {
	return map[string]any{
		"lines": []model.JournalLine{
			{EntryType: "debit", AccountItem: "通信費", Amount: 5500},
			{EntryType: "credit", AccountItem: "未払金", Amount: 5500},
		},
		"reason": "manual booking",
	}
}

func TestDraftReviewFlow(t *testing.T) {
	srv := setupServer(t, false)

	// Create.
	var created draftResponse
	status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", createDraftRequest(), &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.Draft.ID)
	assert.Equal(t, model.StatusPending, created.Draft.Status)
	assert.Equal(t, 1, created.Draft.Version)

	id := created.Draft.ID

	// Review with a custom entry.
	var reviewed draftResponse
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/entry", customEntryBody(), &reviewed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.StatusReviewed, reviewed.Draft.Status)
	assert.Equal(t, 2, reviewed.Draft.Version)
	assert.Equal(t, "tester", reviewed.Draft.ReviewedBy)

	// Approve and register the treatment.
	var approved struct {
		Draft      model.DraftEntry       `json:"draft"`
		Dictionary *model.DictionaryEntry `json:"dictionary"`
	}
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/approve",
		map[string]any{"register_to_dictionary": true}, &approved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.StatusApproved, approved.Draft.Status)
	require.NotNil(t, approved.Dictionary)
	assert.Equal(t, "Acme Inc", approved.Dictionary.VendorName)
	assert.Equal(t, "通信費", approved.Dictionary.Defaults.AccountItem)

	// Export.
	var exported draftResponse
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/export", map[string]any{}, &exported)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.StatusExported, exported.Draft.Status)

	// Full audit trail.
	var history struct {
		History []model.HistoryRecord `json:"history"`
	}
	status = doJSON(t, srv, http.MethodGet, "/api/1/drafts/"+id+"/history", nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history.History, 4)
	assert.Equal(t, model.ActionCreated, history.History[0].Action)
	for i, rec := range history.History {
		assert.Equal(t, i+1, rec.Version)
	}

	// Reconstruct the reviewed state.
	var snapshot struct {
		Version  int              `json:"version"`
		Snapshot model.DraftEntry `json:"snapshot"`
	}
	status = doJSON(t, srv, http.MethodGet, "/api/1/drafts/"+id+"/versions/2", nil, &snapshot)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, snapshot.Version)
	assert.Equal(t, model.StatusReviewed, snapshot.Snapshot.Status)
}

func TestCreateDraftValidation(t *testing.T) {
	srv := setupServer(t, false)

	tests := []struct {
		name string
		body CreateDraftRequest
	}{
		{"missing source file", CreateDraftRequest{VendorName: "Acme Inc"}},
		{"missing vendor", CreateDraftRequest{SourceFileID: "file-001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp ErrorResponse
			status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", tt.body, &errResp)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "invalid_parameter", errResp.Code)
		})
	}
}

func TestSelectSuggestionOutOfRangeReturns400(t *testing.T) {
	srv := setupServer(t, false)

	var created draftResponse
	status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", createDraftRequest(), &created)
	require.Equal(t, http.StatusCreated, status)

	var errResp ErrorResponse
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+created.Draft.ID+"/select",
		map[string]any{"suggestion_index": 7}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_index", errResp.Code)
}

func TestGetUnknownDraftReturns404(t *testing.T) {
	srv := setupServer(t, false)

	var errResp ErrorResponse
	status := doJSON(t, srv, http.MethodGet, "/api/1/drafts/drf_missing", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errResp.Code)
}

func TestApprovePendingDraftReturnsConflict(t *testing.T) {
	srv := setupServer(t, false)

	var created draftResponse
	status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", createDraftRequest(), &created)
	require.Equal(t, http.StatusCreated, status)

	var errResp ErrorResponse
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+created.Draft.ID+"/approve",
		map[string]any{}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", errResp.Code)
}

func TestReopenDisabledReturnsConflict(t *testing.T) {
	srv := setupServer(t, false)

	var created draftResponse
	status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", createDraftRequest(), &created)
	require.Equal(t, http.StatusCreated, status)
	id := created.Draft.ID

	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/entry", customEntryBody(), nil)
	require.Equal(t, http.StatusOK, status)
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/approve", map[string]any{}, nil)
	require.Equal(t, http.StatusOK, status)

	var errResp ErrorResponse
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/reopen",
		map[string]any{"reason": "wrong account"}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", errResp.Code)
}

func TestReopenEnabled(t *testing.T) {
	srv := setupServer(t, true)

	var created draftResponse
	status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", createDraftRequest(), &created)
	require.Equal(t, http.StatusCreated, status)
	id := created.Draft.ID

	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/entry", customEntryBody(), nil)
	require.Equal(t, http.StatusOK, status)
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/approve", map[string]any{}, nil)
	require.Equal(t, http.StatusOK, status)

	var reopened draftResponse
	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+id+"/reopen",
		map[string]any{"reason": "wrong account"}, &reopened)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.StatusReviewed, reopened.Draft.Status)
}

func TestListDraftsWithStatusFilter(t *testing.T) {
	srv := setupServer(t, false)

	for i := 0; i < 3; i++ {
		req := createDraftRequest()
		req.SourceFileID = fmt.Sprintf("file-%03d", i)
		status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", req, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var all struct {
		Drafts []model.DraftEntry `json:"drafts"`
	}
	status := doJSON(t, srv, http.MethodGet, "/api/1/drafts", nil, &all)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, all.Drafts, 3)

	status = doJSON(t, srv, http.MethodPost, "/api/1/drafts/"+all.Drafts[0].ID+"/entry", customEntryBody(), nil)
	require.Equal(t, http.StatusOK, status)

	var reviewed struct {
		Drafts []model.DraftEntry `json:"drafts"`
	}
	status = doJSON(t, srv, http.MethodGet, "/api/1/drafts?status=reviewed", nil, &reviewed)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, reviewed.Drafts, 1)
	assert.Equal(t, all.Drafts[0].ID, reviewed.Drafts[0].ID)
}

func TestDeleteDraft(t *testing.T) {
	srv := setupServer(t, false)

	var created draftResponse
	status := doJSON(t, srv, http.MethodPost, "/api/1/drafts", createDraftRequest(), &created)
	require.Equal(t, http.StatusCreated, status)
	id := created.Draft.ID

	status = doJSON(t, srv, http.MethodDelete, "/api/1/drafts/"+id+"?reason=duplicate", nil, nil)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, srv, http.MethodGet, "/api/1/drafts/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// History survives the delete.
	var history struct {
		History []model.HistoryRecord `json:"history"`
	}
	status = doJSON(t, srv, http.MethodGet, "/api/1/drafts/"+id+"/history", nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history.History, 2)
	assert.Equal(t, model.ActionDeleted, history.History[1].Action)
	assert.Equal(t, "duplicate", history.History[1].Reason)
}
