package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/store"
)

func setupDraftRepo(t *testing.T) (*DraftRepository, *store.Memory) {
	t.Helper()

	st := store.NewMemory()
	repo := NewDraftRepository(st)

	// Deterministic UTC clock so persisted timestamps survive the row
	// round-trip byte-for-byte.
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return repo, st
}

func newDraft() *model.DraftEntry {
	return &model.DraftEntry{
		SourceFileID: "file-001",
		DocType:      model.DocTypeInvoice,
		VendorName:   "Acme Inc",
		ServiceName:  "Pro Plan",
		Amount:       5500,
		TaxAmount:    500,
		IssueDate:    "2025-03-31",
		Status:       model.StatusPending,
	}
}

func TestCreateAssignsIdentityAndRecordsHistory(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "draft created", "tester")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)

	records, err := repo.History().GetHistory(created.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.ActionCreated, records[0].Action)
	assert.Equal(t, 1, records[0].Version)
	assert.Empty(t, records[0].Changes)
	assert.Equal(t, "tester", records[0].Actor)

	wantSnapshot, err := json.Marshal(created)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantSnapshot), string(records[0].Snapshot))
}

func TestVersionMonotonicity(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	const mutations = 5
	version := created.Version
	for i := 0; i < mutations; i++ {
		updated, err := repo.Update(created.ID, version, func(d *model.DraftEntry) {
			d.Amount += 100
		}, "", "tester")
		require.NoError(t, err)
		require.Equal(t, version+1, updated.Version)
		version = updated.Version
	}

	records, err := repo.History().GetHistory(created.ID)
	require.NoError(t, err)
	require.Len(t, records, mutations+1)
	for i, rec := range records {
		assert.Equal(t, i+1, rec.Version, "history versions must be exactly 1..N")
	}
}

func TestUpdateDiffContainsOnlyChangedFields(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	updated, err := repo.Update(created.ID, created.Version, func(d *model.DraftEntry) {
		d.Notes = "checked against the receipt"
	}, "review note", "tester")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	records, err := repo.History().GetHistory(created.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	changes := records[1].Changes
	require.Len(t, changes, 1)
	assert.Equal(t, "notes", changes[0].Field)
	assert.Equal(t, "", changes[0].Old)
	assert.Equal(t, "checked against the receipt", changes[0].New)
}

func TestEmptyDiffStillIncrementsVersion(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	updated, err := repo.Update(created.ID, created.Version, func(d *model.DraftEntry) {}, "touch", "tester")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	records, err := repo.History().GetHistory(created.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, records[1].Changes)
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	_, err = repo.Update(created.ID, created.Version, func(d *model.DraftEntry) {
		d.Amount = 6000
	}, "", "first-writer")
	require.NoError(t, err)

	// Second writer still holds version 1.
	_, err = repo.Update(created.ID, created.Version, func(d *model.DraftEntry) {
		d.Amount = 7000
	}, "", "second-writer")
	require.ErrorIs(t, err, ErrVersionConflict)

	records, err := repo.History().GetHistory(created.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2, "rejected update must not write history")
}

func TestSnapshotFidelity(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	snapshots := map[int]string{}
	data, err := json.Marshal(created)
	require.NoError(t, err)
	snapshots[1] = string(data)

	cur := created
	for _, amount := range []int64{6000, 7000, 8000} {
		cur, err = repo.Update(cur.ID, cur.Version, func(d *model.DraftEntry) {
			d.Amount = amount
		}, "", "tester")
		require.NoError(t, err)

		data, err := json.Marshal(cur)
		require.NoError(t, err)
		snapshots[cur.Version] = string(data)
	}

	for version, want := range snapshots {
		got, err := repo.History().GetSnapshotAtVersion(created.ID, version)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(got), "snapshot at version %d", version)
	}
}

func TestSoftDeletePreservesHistory(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	updated, err := repo.Update(created.ID, created.Version, func(d *model.DraftEntry) {
		d.Notes = "keep"
	}, "", "tester")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(created.ID, updated.Version, "duplicate upload", "tester"))

	_, err = repo.GetByID(created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	records, err := repo.History().GetHistory(created.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	last := records[2]
	assert.Equal(t, model.ActionDeleted, last.Action)
	assert.Equal(t, 3, last.Version)
	assert.Equal(t, "duplicate upload", last.Reason)

	var snapshot model.DraftEntry
	require.NoError(t, json.Unmarshal(last.Snapshot, &snapshot))
	assert.Equal(t, "keep", snapshot.Notes)
}

func TestDeleteUnknownIDReturnsNotFound(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	err := repo.Delete("drf_missing", 1, "", "tester")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetAllWithStatusFilter(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	first, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	second := newDraft()
	second.SourceFileID = "file-002"
	_, err = repo.Create(second, "", "tester")
	require.NoError(t, err)

	_, err = repo.Update(first.ID, first.Version, func(d *model.DraftEntry) {
		d.Status = model.StatusReviewed
	}, "", "tester")
	require.NoError(t, err)

	reviewed, err := repo.GetAll(func(d *model.DraftEntry) bool {
		return d.Status == model.StatusReviewed
	})
	require.NoError(t, err)
	require.Len(t, reviewed, 1)
	assert.Equal(t, first.ID, reviewed[0].ID)

	all, err := repo.GetAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetLatestReturnsMostRecentRecord(t *testing.T) {
	repo, _ := setupDraftRepo(t)

	created, err := repo.Create(newDraft(), "", "tester")
	require.NoError(t, err)

	_, err = repo.Update(created.ID, created.Version, func(d *model.DraftEntry) {
		d.Amount = 9999
	}, "", "tester")
	require.NoError(t, err)

	latest, err := repo.History().GetLatest(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, model.ActionUpdated, latest.Action)

	_, err = repo.History().GetLatest("drf_missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}
