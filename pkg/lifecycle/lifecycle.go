// Package lifecycle implements the draft state machine
// (pending → reviewed → approved → exported) and the orchestration tying
// match results and reviewer actions into repository mutations.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shunichi-ikebuchi/draft-ledger/pkg/learning"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/match"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/model"
	"github.com/shunichi-ikebuchi/draft-ledger/pkg/repository"
)

// ErrInvalidTransition is returned when a state-machine precondition is
// violated. It is never silently coerced: the draft is left untouched and no
// history record is written.
var ErrInvalidTransition = errors.New("invalid draft status transition")

// ErrInvalidIndex is returned when a suggestion index does not exist on the
// draft. It is a caller input error, not a state-machine violation.
var ErrInvalidIndex = errors.New("invalid suggestion index")

// ApprovalResult is the outcome of approving a draft. A dictionary-learning
// failure does not block approval; it is reported as a warning instead.
type ApprovalResult struct {
	Draft        *model.DraftEntry      `json:"draft"`
	Dictionary   *model.DictionaryEntry `json:"dictionary,omitempty"`
	LearnWarning string                 `json:"learn_warning,omitempty"`
}

// Lifecycle governs draft status transitions.
type Lifecycle struct {
	drafts      *repository.DraftRepository
	engine      *match.Engine
	learning    *learning.Service
	allowReopen bool
	now         func() time.Time
}

// New creates a lifecycle service. allowReopen controls whether approved
// drafts may be moved back to reviewed for post-approval corrections.
func New(drafts *repository.DraftRepository, engine *match.Engine, learner *learning.Service, allowReopen bool) *Lifecycle {
	return &Lifecycle{
		drafts:      drafts,
		engine:      engine,
		learning:    learner,
		allowReopen: allowReopen,
		now:         time.Now,
	}
}

// Drafts exposes the underlying repository for read paths (history,
// snapshots, listing).
func (l *Lifecycle) Drafts() *repository.DraftRepository {
	return l.drafts
}

// CreateDraft persists a new pending draft. The dictionary is consulted for
// a recommended entry; a positive match is attached as the first suggestion
// and remembered on the draft.
func (l *Lifecycle) CreateDraft(draft *model.DraftEntry, actor string) (*model.DraftEntry, error) {
	draft.Status = model.StatusPending
	if draft.DocType == "" {
		draft.DocType = model.DocTypeUnknown
	}

	if draft.VendorName != "" {
		res, err := l.engine.FindBestMatch(draft.VendorName, draft.ServiceName, draft.DocType)
		if err != nil {
			return nil, fmt.Errorf("dictionary lookup failed: %w", err)
		}
		if res.Matched {
			suggestion := model.SuggestedEntry{
				Lines:        res.Entry.JournalLines(draft.Amount, ""),
				Score:        res.Confidence,
				Source:       "dictionary",
				DictionaryID: res.Entry.ID,
				Description:  fmt.Sprintf("%s / %s (%s match)", res.Entry.VendorName, res.Entry.ServiceName, res.MatchType),
			}
			draft.Suggestions = append([]model.SuggestedEntry{suggestion}, draft.Suggestions...)
			draft.DictionaryID = res.Entry.ID
		}
	}

	return l.drafts.Create(draft, "draft created", actor)
}

// SelectSuggestion moves a draft to reviewed by picking one of its suggested
// entries by index. Re-selecting while still reviewed is allowed; approved
// and exported drafts reject it.
func (l *Lifecycle) SelectSuggestion(draftID string, index int, actor string) (*model.DraftEntry, error) {
	draft, err := l.drafts.GetByID(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.StatusPending && draft.Status != model.StatusReviewed {
		return nil, fmt.Errorf("%w: cannot select a suggestion in status %q", ErrInvalidTransition, draft.Status)
	}
	if index < 0 || index >= len(draft.Suggestions) {
		return nil, fmt.Errorf("%w: %d out of range (draft has %d suggestions)", ErrInvalidIndex, index, len(draft.Suggestions))
	}

	reviewedAt := l.now()
	return l.drafts.UpdateWithAction(model.ActionStatusChanged, draft.ID, draft.Version, func(d *model.DraftEntry) {
		d.Status = model.StatusReviewed
		d.SelectedEntry = d.Suggestions[index].Lines
		d.ReviewedBy = actor
		d.ReviewedAt = &reviewedAt
	}, fmt.Sprintf("selected suggestion %d", index), actor)
}

// SetCustomEntry moves a draft to reviewed with reviewer-authored journal
// lines instead of a suggestion.
func (l *Lifecycle) SetCustomEntry(draftID string, lines []model.JournalLine, reason, actor string) (*model.DraftEntry, error) {
	draft, err := l.drafts.GetByID(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.StatusPending && draft.Status != model.StatusReviewed {
		return nil, fmt.Errorf("%w: cannot set a custom entry in status %q", ErrInvalidTransition, draft.Status)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: custom entry must not be empty", ErrInvalidTransition)
	}
	if reason == "" {
		reason = "custom entry"
	}

	reviewedAt := l.now()
	return l.drafts.UpdateWithAction(model.ActionStatusChanged, draft.ID, draft.Version, func(d *model.DraftEntry) {
		d.Status = model.StatusReviewed
		d.SelectedEntry = lines
		d.ReviewedBy = actor
		d.ReviewedAt = &reviewedAt
	}, reason, actor)
}

// ApproveDraft moves a reviewed draft to approved. selected, when non-empty,
// replaces the stored selected entry; approving without any selected entry is
// an invalid transition. With registerToDict the dictionary is updated from
// the approved draft; learning failures are non-fatal and reported on the
// result.
func (l *Lifecycle) ApproveDraft(draftID string, selected []model.JournalLine, registerToDict bool, reason, actor string) (*ApprovalResult, error) {
	draft, err := l.drafts.GetByID(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.StatusReviewed {
		return nil, fmt.Errorf("%w: cannot approve draft in status %q", ErrInvalidTransition, draft.Status)
	}

	effective := selected
	if len(effective) == 0 {
		effective = draft.SelectedEntry
	}
	if len(effective) == 0 {
		return nil, fmt.Errorf("%w: cannot approve without a selected entry", ErrInvalidTransition)
	}
	if reason == "" {
		reason = "approved"
	}

	reviewedAt := l.now()
	approved, err := l.drafts.UpdateWithAction(model.ActionStatusChanged, draft.ID, draft.Version, func(d *model.DraftEntry) {
		d.Status = model.StatusApproved
		d.SelectedEntry = effective
		d.ReviewedBy = actor
		d.ReviewedAt = &reviewedAt
	}, reason, actor)
	if err != nil {
		return nil, err
	}

	result := &ApprovalResult{Draft: approved}
	if registerToDict {
		entry, err := l.learning.LearnFromDraft(approved.ID, actor)
		if err != nil {
			slog.Warn("dictionary learning failed", "draft_id", approved.ID, "error", err)
			result.LearnWarning = err.Error()
		} else {
			result.Dictionary = entry
		}
	}
	if approved.DictionaryID != "" {
		if _, err := l.learning.RecordUsage(approved.DictionaryID, actor); err != nil {
			slog.Warn("failed to record dictionary usage", "dictionary_id", approved.DictionaryID, "error", err)
			if result.LearnWarning == "" {
				result.LearnWarning = err.Error()
			}
		}
	}
	return result, nil
}

// MarkExported records that the downstream bookkeeping export picked up an
// approved draft. Exported is terminal; no further content mutation is
// permitted.
func (l *Lifecycle) MarkExported(draftID, actor string) (*model.DraftEntry, error) {
	draft, err := l.drafts.GetByID(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.StatusApproved {
		return nil, fmt.Errorf("%w: cannot export draft in status %q", ErrInvalidTransition, draft.Status)
	}

	return l.drafts.UpdateWithAction(model.ActionStatusChanged, draft.ID, draft.Version, func(d *model.DraftEntry) {
		d.Status = model.StatusExported
	}, "exported", actor)
}

// Reopen moves an approved draft back to reviewed so a mistake can be
// corrected before export. It is rejected unless reopening is enabled by
// policy.
func (l *Lifecycle) Reopen(draftID, reason, actor string) (*model.DraftEntry, error) {
	draft, err := l.drafts.GetByID(draftID)
	if err != nil {
		return nil, err
	}
	if !l.allowReopen {
		return nil, fmt.Errorf("%w: reopening approved drafts is disabled", ErrInvalidTransition)
	}
	if draft.Status != model.StatusApproved {
		return nil, fmt.Errorf("%w: cannot reopen draft in status %q", ErrInvalidTransition, draft.Status)
	}
	if reason == "" {
		reason = "reopened"
	}

	return l.drafts.UpdateWithAction(model.ActionStatusChanged, draft.ID, draft.Version, func(d *model.DraftEntry) {
		d.Status = model.StatusReviewed
	}, reason, actor)
}

// DeleteDraft soft-deletes a draft from any state. The audit trail is
// preserved; only the live row goes away.
func (l *Lifecycle) DeleteDraft(draftID, reason, actor string) error {
	draft, err := l.drafts.GetByID(draftID)
	if err != nil {
		return err
	}
	return l.drafts.Delete(draft.ID, draft.Version, reason, actor)
}
